// Package mastery computes grid cell transitions from scored attempts.
//
// Update is a pure function: the same cell, attempt, thresholds and clock
// value always produce the same result, and nothing is persisted here.
package mastery

import (
	"fmt"
	"time"

	"github.com/abhisek/mathwiz/internal/fact"
	"github.com/abhisek/mathwiz/internal/grid"
)

// MasteryThreshold is the number of consecutive correct answers that
// masters a fact.
const MasteryThreshold = 3

// Attempt is one scored answer. Attempts are immutable once recorded.
type Attempt struct {
	Fact             fact.Fact
	UserAnswer       int
	Correct          bool
	TimeSpentSeconds float64
	Number           int // 1-based and strictly increasing within a session
}

// Score builds an Attempt for the given answer, deciding correctness.
func Score(f fact.Fact, userAnswer int, timeSpentSeconds float64, number int) Attempt {
	return Attempt{
		Fact:             f,
		UserAnswer:       userAnswer,
		Correct:          userAnswer == f.Answer(),
		TimeSpentSeconds: timeSpentSeconds,
		Number:           number,
	}
}

// Check reports contract violations that Update does not handle.
func Check(cell grid.Cell, a Attempt) error {
	if !a.Fact.Valid() {
		return fmt.Errorf("attempt fact %v out of range", a.Fact)
	}
	if cell.Fact() != a.Fact {
		return fmt.Errorf("attempt for %v applied to cell %v", a.Fact, cell.Fact())
	}
	if a.Number < 0 || cell.Attempts < 0 {
		return fmt.Errorf("negative attempt count for %v", a.Fact)
	}
	return nil
}

// Update returns the cell after recording the attempt. The returned
// transition is non-nil when the attempt changed the fact's state.
func Update(cell grid.Cell, a Attempt, t Thresholds, now time.Time) (grid.Cell, *StateTransition) {
	before := StateOf(cell.Attempts, cell.Mastered())
	next := cell

	next.Attempts = cell.Attempts + 1
	next.LastAttemptCorrect = a.Correct
	if a.Correct {
		next.ConsecutiveCorrect = cell.ConsecutiveCorrect + 1
	} else {
		next.ConsecutiveCorrect = 0
	}

	spent := a.TimeSpentSeconds
	if spent < 0 {
		spent = 0
	}
	next.LastTimeClass = Classify(spent, t)
	next.TotalTimeSpent = cell.TotalTimeSpent + spent
	next.AverageTimeSeconds = next.TotalTimeSpent / float64(next.Attempts)

	if next.ConsecutiveCorrect >= MasteryThreshold && cell.MasteredAt == nil {
		at := now
		next.MasteredAt = &at
	}
	// Reaching the streak locks the fact. Nothing here unlocks it; an
	// unlocked mastered fact relocks once the streak is rebuilt.
	if next.ConsecutiveCorrect >= MasteryThreshold {
		next.IsLocked = true
	}

	after := StateOf(next.Attempts, next.Mastered())
	if after == before {
		return next, nil
	}
	trigger := "first-attempt"
	if after == StateMastered {
		trigger = "streak-complete"
	}
	return next, &StateTransition{Fact: a.Fact, From: before, To: after, Trigger: trigger}
}
