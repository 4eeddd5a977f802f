package selector

import (
	"math/rand/v2"

	"github.com/abhisek/mathwiz/internal/fact"
	"github.com/abhisek/mathwiz/internal/grid"
	"github.com/abhisek/mathwiz/internal/mastery"
)

// DecisionKind says what the practice policy wants the engine to do.
type DecisionKind int

const (
	DecisionPick  DecisionKind = iota // Present Decision.Fact
	DecisionWiden                     // Widen the guardrail to Decision.Guardrail, then ask again
	DecisionDone                      // Nothing left to practice
)

func (k DecisionKind) String() string {
	switch k {
	case DecisionPick:
		return "pick"
	case DecisionWiden:
		return "widen"
	case DecisionDone:
		return "done"
	}
	return "unknown"
}

// Decision is the outcome of one practice selection.
type Decision struct {
	Kind      DecisionKind
	Fact      fact.Fact
	Guardrail grid.Guardrail
}

// History is the session context the practice policy considers.
type History struct {
	Previous  *fact.Fact         // Fact presented immediately before, if any
	Incorrect map[fact.Fact]bool // Facts answered wrong earlier in the session
}

// Practice is the adaptive practice policy. It is not safe for concurrent use.
type Practice struct {
	rng *rand.Rand
}

// NewPractice returns a practice policy seeded for reproducible picks.
func NewPractice(seed uint64) *Practice {
	return &Practice{rng: newRand(seed)}
}

// Eligible returns the unlocked cells inside the grid's guardrail in
// row-major order. Mastery locks a cell, so mastered facts come back only
// after an administrative unlock.
func Eligible(g *grid.Grid) []grid.Cell {
	var out []grid.Cell
	for _, c := range g.Cells() {
		if !c.IsLocked && g.Guardrail.Contains(c.Fact()) {
			out = append(out, c)
		}
	}
	return out
}

// Next picks the next fact.
//
// Facts with a shorter correct streak are weighted more heavily and facts
// missed earlier in the session count double. The previous fact is skipped
// when any other candidate exists. With no candidates the policy asks for
// a wider guardrail, or reports Done at 1-12.
func (p *Practice) Next(g *grid.Grid, h History) Decision {
	candidates := Eligible(g)
	if len(candidates) == 0 {
		if next, ok := g.Guardrail.Next(); ok {
			return Decision{Kind: DecisionWiden, Guardrail: next}
		}
		return Decision{Kind: DecisionDone, Guardrail: g.Guardrail}
	}

	if h.Previous != nil && len(candidates) > 1 {
		filtered := candidates[:0:0]
		for _, c := range candidates {
			if c.Fact() != *h.Previous {
				filtered = append(filtered, c)
			}
		}
		candidates = filtered
	}

	weights := make([]int, len(candidates))
	total := 0
	for i, c := range candidates {
		w := weight(c, h.Incorrect[c.Fact()])
		weights[i] = w
		total += w
	}

	r := p.rng.IntN(total)
	for i, w := range weights {
		if r < w {
			return Decision{Kind: DecisionPick, Fact: candidates[i].Fact(), Guardrail: g.Guardrail}
		}
		r -= w
	}
	// Unreachable: r < total.
	return Decision{Kind: DecisionPick, Fact: candidates[len(candidates)-1].Fact(), Guardrail: g.Guardrail}
}

func weight(c grid.Cell, missed bool) int {
	w := mastery.MasteryThreshold - c.ConsecutiveCorrect
	if w < 1 {
		w = 1
	}
	if missed {
		w *= 2
	}
	return w
}
