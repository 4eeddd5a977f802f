package grid

import (
	"fmt"

	"github.com/abhisek/mathwiz/internal/fact"
)

// Guardrail bounds which rows and columns are eligible for practice.
type Guardrail string

const (
	Guardrail5  Guardrail = "1-5"
	Guardrail9  Guardrail = "1-9"
	Guardrail12 Guardrail = "1-12"
)

// DefaultGuardrail is the bound a freshly created grid starts with.
const DefaultGuardrail = Guardrail9

// Guardrails lists every bound from narrowest to widest.
var Guardrails = []Guardrail{Guardrail5, Guardrail9, Guardrail12}

// ParseGuardrail converts "1-5", "1-9" or "1-12" to a Guardrail.
func ParseGuardrail(s string) (Guardrail, error) {
	g := Guardrail(s)
	if !g.Valid() {
		return "", fmt.Errorf("unknown guardrail %q (want 1-5, 1-9 or 1-12)", s)
	}
	return g, nil
}

// Valid reports whether g is one of the three known bounds.
func (g Guardrail) Valid() bool {
	switch g {
	case Guardrail5, Guardrail9, Guardrail12:
		return true
	}
	return false
}

// Bound returns the largest factor allowed by the guardrail.
// An unknown guardrail is treated as the default.
func (g Guardrail) Bound() int {
	switch g {
	case Guardrail5:
		return 5
	case Guardrail12:
		return 12
	default:
		return 9
	}
}

// Next returns the next wider guardrail. ok is false at 1-12.
func (g Guardrail) Next() (next Guardrail, ok bool) {
	switch g {
	case Guardrail5:
		return Guardrail9, true
	case Guardrail9:
		return Guardrail12, true
	}
	return g, false
}

// Contains reports whether both factors of f fall inside the bound.
func (g Guardrail) Contains(f fact.Fact) bool {
	b := g.Bound()
	return f.Multiplicand <= b && f.Multiplier <= b
}

// CellCount returns the number of cells inside the bound.
func (g Guardrail) CellCount() int {
	b := g.Bound()
	return b * b
}

func (g Guardrail) String() string {
	return string(g)
}
