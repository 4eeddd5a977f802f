package selector

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/mathwiz/internal/fact"
	"github.com/abhisek/mathwiz/internal/grid"
)

// lockWhere locks and masters every cell for which keep returns false.
func lockWhere(t *testing.T, g *grid.Grid, keep func(fact.Fact) bool) {
	t.Helper()
	now := time.Now()
	for _, c := range g.Cells() {
		if keep(c.Fact()) {
			continue
		}
		c.Attempts, c.ConsecutiveCorrect = 3, 3
		c.LastAttemptCorrect, c.IsLocked = true, true
		c.MasteredAt = &now
		_, err := g.Apply(c)
		require.NoError(t, err)
	}
}

func TestPractice_PicksInsideGuardrail(t *testing.T) {
	g := grid.New("s")
	g.Guardrail = grid.Guardrail5
	p := NewPractice(1)

	for range 200 {
		d := p.Next(g, History{})
		require.Equal(t, DecisionPick, d.Kind)
		assert.True(t, g.Guardrail.Contains(d.Fact), "picked %v outside 1-5", d.Fact)
	}
}

func TestPractice_SkipsLocked(t *testing.T) {
	g := grid.New("s")
	g.Guardrail = grid.Guardrail5
	open := fact.MustNew(4, 5)
	lockWhere(t, g, func(f fact.Fact) bool { return f == open })

	d := NewPractice(7).Next(g, History{})
	require.Equal(t, DecisionPick, d.Kind)
	assert.Equal(t, open, d.Fact)
}

func TestPractice_ExcludesPrevious(t *testing.T) {
	g := grid.New("s")
	g.Guardrail = grid.Guardrail5
	a, b := fact.MustNew(2, 3), fact.MustNew(3, 2)
	lockWhere(t, g, func(f fact.Fact) bool { return f == a || f == b })

	p := NewPractice(3)
	for range 50 {
		d := p.Next(g, History{Previous: &a})
		require.Equal(t, DecisionPick, d.Kind)
		assert.Equal(t, b, d.Fact)
	}
}

func TestPractice_RepeatsPreviousWhenAlone(t *testing.T) {
	g := grid.New("s")
	g.Guardrail = grid.Guardrail5
	only := fact.MustNew(5, 5)
	lockWhere(t, g, func(f fact.Fact) bool { return f == only })

	d := NewPractice(3).Next(g, History{Previous: &only})
	require.Equal(t, DecisionPick, d.Kind)
	assert.Equal(t, only, d.Fact)
}

func TestPractice_FavorsShortStreaks(t *testing.T) {
	g := grid.New("s")
	g.Guardrail = grid.Guardrail5
	fresh, nearly := fact.MustNew(2, 4), fact.MustNew(4, 2)
	lockWhere(t, g, func(f fact.Fact) bool { return f == fresh || f == nearly })

	c := g.CellFor(nearly)
	c.Attempts, c.ConsecutiveCorrect = 2, 2
	_, err := g.Apply(c)
	require.NoError(t, err)

	p := NewPractice(11)
	counts := map[fact.Fact]int{}
	for range 400 {
		counts[p.Next(g, History{}).Fact]++
	}
	assert.Greater(t, counts[fresh], 2*counts[nearly], "counts: %v", counts)
}

func TestPractice_FavorsMissedFacts(t *testing.T) {
	g := grid.New("s")
	g.Guardrail = grid.Guardrail5
	missed, other := fact.MustNew(3, 3), fact.MustNew(4, 4)
	lockWhere(t, g, func(f fact.Fact) bool { return f == missed || f == other })

	p := NewPractice(5)
	h := History{Incorrect: map[fact.Fact]bool{missed: true}}
	counts := map[fact.Fact]int{}
	for range 400 {
		counts[p.Next(g, h).Fact]++
	}
	assert.Greater(t, counts[missed], counts[other], "counts: %v", counts)
}

func TestPractice_WidensFromMastered9(t *testing.T) {
	g := grid.New("s")
	require.Equal(t, grid.Guardrail9, g.Guardrail)
	lockWhere(t, g, func(f fact.Fact) bool { return !grid.Guardrail9.Contains(f) })

	p := NewPractice(9)
	d := p.Next(g, History{})
	require.Equal(t, DecisionWiden, d.Kind)
	assert.Equal(t, grid.Guardrail12, d.Guardrail)

	g.Guardrail = d.Guardrail
	d = p.Next(g, History{})
	require.Equal(t, DecisionPick, d.Kind)
	assert.Greater(t, d.Fact.MaxFactor(), 9, "picked %v", d.Fact)
}

func TestPractice_DoneAt12(t *testing.T) {
	g := grid.New("s")
	g.Guardrail = grid.Guardrail12
	lockWhere(t, g, func(fact.Fact) bool { return false })

	d := NewPractice(1).Next(g, History{})
	assert.Equal(t, DecisionDone, d.Kind)
}

func TestEligible(t *testing.T) {
	g := grid.New("s")
	g.Guardrail = grid.Guardrail5
	assert.Len(t, Eligible(g), 25)

	lockWhere(t, g, func(f fact.Fact) bool { return f.Multiplicand != 1 })
	assert.Len(t, Eligible(g), 20)
}

func TestEligible_MasteredStaysOutUntilUnlocked(t *testing.T) {
	g := grid.New("s")
	g.Guardrail = grid.Guardrail5
	lockWhere(t, g, func(fact.Fact) bool { return false })

	assert.Empty(t, Eligible(g))
	assert.Equal(t, DecisionWiden, NewPractice(1).Next(g, History{}).Kind)

	g.Unlock()
	got := Eligible(g)
	assert.Len(t, got, grid.Guardrail5.CellCount())
	for _, c := range got {
		assert.True(t, c.Mastered(), "%v", c.Fact())
	}
}
