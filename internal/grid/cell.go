package grid

import (
	"time"

	"github.com/abhisek/mathwiz/internal/fact"
)

// TimeClass buckets answer latency.
type TimeClass string

const (
	TimeUnset  TimeClass = ""
	TimeFast   TimeClass = "fast"
	TimeMedium TimeClass = "medium"
	TimeSlow   TimeClass = "slow"
)

// Cell is the mastery record for one fact.
type Cell struct {
	Multiplicand       int
	Multiplier         int
	ConsecutiveCorrect int
	LastAttemptCorrect bool
	Attempts           int
	IsLocked           bool
	AverageTimeSeconds float64
	TotalTimeSpent     float64
	LastTimeClass      TimeClass
	MasteredAt         *time.Time // Set the first time the fact is mastered; never cleared
}

// Fact returns the fact the cell tracks.
func (c Cell) Fact() fact.Fact {
	return fact.Fact{Multiplicand: c.Multiplicand, Multiplier: c.Multiplier}
}

// Mastered reports whether the fact has ever reached mastery.
func (c Cell) Mastered() bool {
	return c.MasteredAt != nil
}

// emptyCell returns the zeroed cell for f.
func emptyCell(f fact.Fact) Cell {
	return Cell{Multiplicand: f.Multiplicand, Multiplier: f.Multiplier}
}
