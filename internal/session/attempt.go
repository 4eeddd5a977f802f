package session

import (
	"fmt"

	"github.com/abhisek/mathwiz/internal/mastery"
)

// attemptLog holds a session's attempts in submission order. Attempt
// numbers start at 1 and strictly increase.
type attemptLog struct {
	attempts []mastery.Attempt
}

// next returns the number the next attempt must carry.
func (l *attemptLog) next() int {
	if n := len(l.attempts); n > 0 {
		return l.attempts[n-1].Number + 1
	}
	return 1
}

func (l *attemptLog) append(a mastery.Attempt) error {
	if want := l.next(); a.Number < want {
		return fmt.Errorf("attempt number %d already used (next is %d)", a.Number, want)
	}
	l.attempts = append(l.attempts, a)
	return nil
}

func (l *attemptLog) len() int { return len(l.attempts) }

func (l *attemptLog) all() []mastery.Attempt {
	return append([]mastery.Attempt(nil), l.attempts...)
}

func (l *attemptLog) correct() int {
	n := 0
	for _, a := range l.attempts {
		if a.Correct {
			n++
		}
	}
	return n
}
