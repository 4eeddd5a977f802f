package session

import (
	"fmt"

	"github.com/abhisek/mathwiz/internal/store"
)

// Type is the kind of session.
type Type string

const (
	TypePlacement Type = store.SessionPlacement // Fixed diagnostic sequence
	TypePractice  Type = store.SessionPractice  // Adaptive, guardrail-bounded
)

// ParseType converts "placement" or "practice" to a Type.
func ParseType(s string) (Type, error) {
	switch t := Type(s); t {
	case TypePlacement, TypePractice:
		return t, nil
	}
	return "", fmt.Errorf("unknown session type %q", s)
}

// Phase is the engine's position in the session lifecycle:
//
//	NotStarted → InProgress → AwaitingAnswer ⇄ ShowingResult → Completed
//
// Abandoned is reachable from any phase before Completed.
type Phase int

const (
	PhaseNotStarted     Phase = iota
	PhaseInProgress           // Choosing the next problem
	PhaseAwaitingAnswer       // A problem is on screen
	PhaseShowingResult        // The answer's outcome is on screen
	PhaseCompleted            // No problems left; summary pending
	PhaseAbandoned
)

func (p Phase) String() string {
	switch p {
	case PhaseNotStarted:
		return "NotStarted"
	case PhaseInProgress:
		return "InProgress"
	case PhaseAwaitingAnswer:
		return "AwaitingAnswer"
	case PhaseShowingResult:
		return "ShowingResult"
	case PhaseCompleted:
		return "Completed"
	case PhaseAbandoned:
		return "Abandoned"
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// Terminal reports whether the session has ended. Only Complete may still
// be called in PhaseCompleted.
func (p Phase) Terminal() bool {
	return p == PhaseCompleted || p == PhaseAbandoned
}
