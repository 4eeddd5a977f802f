// Package config loads mathwiz settings.
//
// Values are layered: built-in defaults, then the TOML file, then MATHWIZ_*
// environment variables. A missing config file is not an error.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"

	"github.com/abhisek/mathwiz/internal/logging"
	"github.com/abhisek/mathwiz/internal/mastery"
)

// Config is the full set of runtime settings.
type Config struct {
	DBPath  string        `toml:"db" env:"MATHWIZ_DB"`
	Log     LogConfig     `toml:"log"`
	Timing  TimingConfig  `toml:"timing"`
	Session SessionConfig `toml:"session"`
	Flush   FlushConfig   `toml:"flush"`
}

type LogConfig struct {
	Level  string `toml:"level" env:"MATHWIZ_LOG_LEVEL"`
	Format string `toml:"format" env:"MATHWIZ_LOG_FORMAT"`
}

// TimingConfig holds the default response time buckets in seconds. Buckets
// saved in the database take precedence once set.
type TimingConfig struct {
	FastSeconds   float64 `toml:"fast" env:"MATHWIZ_FAST_SECONDS"`
	MediumSeconds float64 `toml:"medium" env:"MATHWIZ_MEDIUM_SECONDS"`
}

type SessionConfig struct {
	PlacementLength int `toml:"placement-length" env:"MATHWIZ_PLACEMENT_LENGTH"`
	PracticeLength  int `toml:"practice-length" env:"MATHWIZ_PRACTICE_LENGTH"`
	RevealDelayMS   int `toml:"reveal-delay-ms" env:"MATHWIZ_REVEAL_DELAY_MS"`
}

type FlushConfig struct {
	MaxTries uint `toml:"max-tries" env:"MATHWIZ_FLUSH_MAX_TRIES"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		DBPath: DefaultDBPath(),
		Log:    LogConfig{Level: "info", Format: logging.FormatText},
		Timing: TimingConfig{
			FastSeconds:   mastery.DefaultThresholds.FastSeconds,
			MediumSeconds: mastery.DefaultThresholds.MediumSeconds,
		},
		Session: SessionConfig{
			PlacementLength: 20,
			PracticeLength:  20,
			RevealDelayMS:   2000,
		},
		Flush: FlushConfig{MaxTries: 3},
	}
}

// Load reads settings from path (DefaultConfigPath when empty) and the
// environment, then validates the result.
func Load(path string) (Config, error) {
	if path == "" {
		path = DefaultConfigPath()
	}
	cfg := Default()

	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("decode config %s: %w", path, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("stat config: %w", err)
	}

	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks ranges and cross-field constraints.
func (c Config) Validate() error {
	var errs []error
	if c.DBPath == "" {
		errs = append(errs, errors.New("db path is empty"))
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	switch c.Log.Format {
	case logging.FormatText, logging.FormatJSON:
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.Log.Format))
	}
	if err := c.Thresholds().Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.Session.PlacementLength <= 0 {
		errs = append(errs, fmt.Errorf("placement length must be positive, got %d", c.Session.PlacementLength))
	}
	if c.Session.PracticeLength <= 0 {
		errs = append(errs, fmt.Errorf("practice length must be positive, got %d", c.Session.PracticeLength))
	}
	if c.Session.RevealDelayMS < 0 {
		errs = append(errs, fmt.Errorf("reveal delay must not be negative, got %dms", c.Session.RevealDelayMS))
	}
	if c.Flush.MaxTries == 0 {
		errs = append(errs, errors.New("flush max tries must be at least 1"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// Thresholds returns the configured time buckets.
func (c Config) Thresholds() mastery.Thresholds {
	return mastery.Thresholds{FastSeconds: c.Timing.FastSeconds, MediumSeconds: c.Timing.MediumSeconds}
}

// RevealDelay returns the auto-advance delay. Zero disables auto-advance.
func (c Config) RevealDelay() time.Duration {
	return time.Duration(c.Session.RevealDelayMS) * time.Millisecond
}
