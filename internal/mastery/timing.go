package mastery

import (
	"fmt"

	"github.com/abhisek/mathwiz/internal/grid"
)

// Thresholds are the latency bucket boundaries in seconds.
type Thresholds struct {
	FastSeconds   float64 `json:"fastThreshold" toml:"fast"`
	MediumSeconds float64 `json:"mediumThreshold" toml:"medium"`
}

// DefaultThresholds is 5s for fast and 15s for medium.
var DefaultThresholds = Thresholds{FastSeconds: 5, MediumSeconds: 15}

// Validate checks that 0 < fast < medium.
func (t Thresholds) Validate() error {
	if t.FastSeconds <= 0 {
		return fmt.Errorf("fast threshold must be positive, got %v", t.FastSeconds)
	}
	if t.MediumSeconds <= t.FastSeconds {
		return fmt.Errorf("medium threshold %v must exceed fast threshold %v", t.MediumSeconds, t.FastSeconds)
	}
	return nil
}

// Classify buckets an answer latency. Zero or negative times clamp to fast.
func Classify(seconds float64, t Thresholds) grid.TimeClass {
	switch {
	case seconds < t.FastSeconds:
		return grid.TimeFast
	case seconds < t.MediumSeconds:
		return grid.TimeMedium
	default:
		return grid.TimeSlow
	}
}
