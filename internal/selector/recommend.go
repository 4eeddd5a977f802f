package selector

import (
	"github.com/abhisek/mathwiz/internal/fact"
	"github.com/abhisek/mathwiz/internal/grid"
)

// RecommendAccuracy is the share of correct answers in a band required to
// move past it.
const RecommendAccuracy = 0.8

// PlacementResult is one answered placement item.
type PlacementResult struct {
	Fact    fact.Fact
	Correct bool
}

// Recommend picks the starting guardrail from placement results. A student
// below RecommendAccuracy on facts up to 5 starts at 1-5; below it on facts
// with a 6–9 factor starts at 1-9; otherwise at 1-12. A band with no items
// counts as passed.
func Recommend(results []PlacementResult) grid.Guardrail {
	var low, mid band
	for _, r := range results {
		switch m := r.Fact.MaxFactor(); {
		case m <= grid.Guardrail5.Bound():
			low.add(r.Correct)
		case m <= grid.Guardrail9.Bound():
			mid.add(r.Correct)
		}
	}
	switch {
	case !low.passed():
		return grid.Guardrail5
	case !mid.passed():
		return grid.Guardrail9
	default:
		return grid.Guardrail12
	}
}

type band struct {
	total, correct int
}

func (b *band) add(correct bool) {
	b.total++
	if correct {
		b.correct++
	}
}

func (b band) passed() bool {
	if b.total == 0 {
		return true
	}
	return float64(b.correct)/float64(b.total) >= RecommendAccuracy
}
