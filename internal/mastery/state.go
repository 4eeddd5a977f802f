package mastery

import "github.com/abhisek/mathwiz/internal/fact"

// MasteryState represents a fact's position in the mastery lifecycle.
type MasteryState string

const (
	StateNew      MasteryState = "new"
	StateLearning MasteryState = "learning"
	StateMastered MasteryState = "mastered"
)

// StateTransition records a mastery state change for display and logging.
type StateTransition struct {
	Fact    fact.Fact
	From    MasteryState
	To      MasteryState
	Trigger string // "first-attempt" or "streak-complete"
}

// StateOf derives the lifecycle state of a cell.
func StateOf(attempts int, mastered bool) MasteryState {
	switch {
	case mastered:
		return StateMastered
	case attempts > 0:
		return StateLearning
	default:
		return StateNew
	}
}
