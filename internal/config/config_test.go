package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/data")
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)

	assert.Equal(t, "/data/mathwiz/mathwiz.db", cfg.DBPath)
	assert.Equal(t, 5.0, cfg.Timing.FastSeconds)
	assert.Equal(t, 15.0, cfg.Timing.MediumSeconds)
	assert.Equal(t, 20, cfg.Session.PlacementLength)
	assert.Equal(t, 2*time.Second, cfg.RevealDelay())
	assert.Equal(t, uint(3), cfg.Flush.MaxTries)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
db = "/tmp/x.db"

[timing]
fast = 4
medium = 12

[session]
reveal-delay-ms = 0
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/x.db", cfg.DBPath)
	assert.Equal(t, 4.0, cfg.Thresholds().FastSeconds)
	assert.Equal(t, 12.0, cfg.Thresholds().MediumSeconds)
	assert.Zero(t, cfg.RevealDelay())
	assert.Equal(t, 20, cfg.Session.PracticeLength, "unset keys keep defaults")
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "db = \"/tmp/file.db\"\n[log]\nlevel = \"warn\"\n")
	t.Setenv("MATHWIZ_DB", "/tmp/env.db")
	t.Setenv("MATHWIZ_PRACTICE_LENGTH", "7")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/env.db", cfg.DBPath)
	assert.Equal(t, 7, cfg.Session.PracticeLength)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "thresholds reversed", body: "[timing]\nfast = 20\nmedium = 10\n", want: "fast"},
		{name: "bad level", body: "[log]\nlevel = \"loud\"\n", want: "log level"},
		{name: "bad format", body: "[log]\nformat = \"xml\"\n", want: "log format"},
		{name: "negative delay", body: "[session]\nreveal-delay-ms = -1\n", want: "reveal delay"},
		{name: "malformed", body: "db = ", want: "decode config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.True(t, strings.Contains(err.Error(), tt.want), "error %q should mention %q", err, tt.want)
		})
	}
}

func TestDefaultConfigPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/cfg")
	assert.Equal(t, "/cfg/mathwiz/config.toml", DefaultConfigPath())
}
