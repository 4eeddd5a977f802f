package session

import (
	"math"
	"time"

	"github.com/abhisek/mathwiz/internal/fact"
	"github.com/abhisek/mathwiz/internal/fault"
	"github.com/abhisek/mathwiz/internal/grid"
	"github.com/abhisek/mathwiz/internal/mastery"
	"github.com/abhisek/mathwiz/internal/store"
)

// Summary is the outcome of a completed session.
type Summary struct {
	SessionID          string
	Type               Type
	TotalProblems      int
	CorrectAnswers     int
	Accuracy           float64 // Percent correct, rounded to the nearest integer
	AverageTimeSeconds float64
	Fast               int
	Medium             int
	Slow               int
	Duration           time.Duration
	IncorrectFacts     []fact.Fact // In the order they were first missed
	Mastered           []fact.Fact // Facts mastered during this session
	Guardrail          grid.Guardrail
}

// buildSummary totals attempts. It refuses an empty session instead of
// reporting 0% accuracy.
func buildSummary(attempts []mastery.Attempt, t mastery.Thresholds) (Summary, error) {
	if len(attempts) == 0 {
		return Summary{}, fault.Validation("summary", "session has no answered problems")
	}
	var s Summary
	var totalTime float64
	for _, a := range attempts {
		s.TotalProblems++
		if a.Correct {
			s.CorrectAnswers++
		}
		secs := math.Max(a.TimeSpentSeconds, 0)
		totalTime += secs
		switch mastery.Classify(secs, t) {
		case grid.TimeFast:
			s.Fast++
		case grid.TimeMedium:
			s.Medium++
		default:
			s.Slow++
		}
	}
	s.Accuracy = math.Round(float64(s.CorrectAnswers) / float64(s.TotalProblems) * 100)
	s.AverageTimeSeconds = totalTime / float64(s.TotalProblems)
	return s, nil
}

func (s Summary) data() store.SummaryData {
	return store.SummaryData{
		TotalProblems:      s.TotalProblems,
		CorrectAnswers:     s.CorrectAnswers,
		Accuracy:           s.Accuracy,
		AverageTimeSeconds: s.AverageTimeSeconds,
		Fast:               s.Fast,
		Medium:             s.Medium,
		Slow:               s.Slow,
		Duration:           s.Duration,
		Guardrail:          s.Guardrail,
	}
}
