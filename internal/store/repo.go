package store

import (
	"time"

	"github.com/abhisek/mathwiz/internal/fact"
	"github.com/abhisek/mathwiz/internal/grid"
)

// Session types as stored in sessions.session_type.
const (
	SessionPlacement = "placement"
	SessionPractice  = "practice"
)

// SessionStatus is the lifecycle state of a session record.
type SessionStatus string

const (
	StatusInProgress SessionStatus = "in_progress"
	StatusCompleted  SessionStatus = "completed"
	StatusAbandoned  SessionStatus = "abandoned"
)

// Journey is where a student is in the placement then practice flow.
type Journey string

const (
	JourneyNeedsPlacement      Journey = "needs_placement"
	JourneyPlacementInProgress Journey = "placement_in_progress"
	JourneyPlacementCompleted  Journey = "placement_completed"
	JourneyPracticeReady       Journey = "practice_ready"
)

// AttemptData is one answered problem in a session's audit trail.
type AttemptData struct {
	AttemptNumber    int
	Fact             fact.Fact
	UserAnswer       int
	CorrectAnswer    int
	Correct          bool
	TimeSpentSeconds float64
	TimeClass        grid.TimeClass
	At               time.Time
}

// SummaryData is the outcome stored when a session completes.
type SummaryData struct {
	TotalProblems      int
	CorrectAnswers     int
	Accuracy           float64 // Percent, 0–100
	AverageTimeSeconds float64
	Fast               int
	Medium             int
	Slow               int
	Duration           time.Duration
	Guardrail          grid.Guardrail // Guardrail in effect at completion
}

// SessionRecord is a stored session with its summary once completed.
type SessionRecord struct {
	ID         string
	Sequence   int64
	StudentID  string
	Type       string
	Status     SessionStatus
	TotalItems int
	StartedAt  time.Time
	EndedAt    *time.Time
	Summary    *SummaryData
}
