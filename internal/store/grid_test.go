package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/mathwiz/internal/fact"
	"github.com/abhisek/mathwiz/internal/fault"
	"github.com/abhisek/mathwiz/internal/grid"
)

func correctDelta(a, b, attempts int) grid.Cell {
	return grid.Cell{
		Multiplicand:       a,
		Multiplier:         b,
		Attempts:           attempts,
		ConsecutiveCorrect: attempts,
		LastAttemptCorrect: true,
		TotalTimeSpent:     float64(attempts) * 2,
		AverageTimeSeconds: 2,
		LastTimeClass:      grid.TimeFast,
	}
}

func TestFetchGrid_CreatesDefault(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	g, err := s.FetchGrid(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "s1", g.StudentID)
	assert.Equal(t, grid.Guardrail9, g.Guardrail)
	assert.Zero(t, g.TotalAttempts)
	assert.Zero(t, g.MasteredCount(grid.ScopeAll))

	again, err := s.FetchGrid(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, g.Cells(), again.Cells())
}

func TestFetchGrid_ConcurrentGetOrCreate(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	grids := make([]*grid.Grid, 10)
	for i := range grids {
		wg.Add(1)
		go func() {
			defer wg.Done()
			g, err := s.FetchGrid(ctx, "s1")
			assert.NoError(t, err)
			grids[i] = g
		}()
	}
	wg.Wait()

	var rows int
	require.NoError(t, s.DB().QueryRow("SELECT COUNT(*) FROM grids WHERE student_id = 's1'").Scan(&rows))
	assert.Equal(t, 1, rows)

	// Callers get independent copies.
	grids[0].Guardrail = grid.Guardrail12
	assert.Equal(t, grid.Guardrail9, grids[1].Guardrail)
}

func TestFetchGrid_RequiresStudent(t *testing.T) {
	s := openTestStore(t)
	_, err := s.FetchGrid(context.Background(), "")
	assert.True(t, errors.Is(err, fault.ErrValidation), "err = %v", err)
}

func TestPersistGridDeltas_AppliesAndCounts(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	wrong := grid.Cell{Multiplicand: 7, Multiplier: 8, Attempts: 1, LastTimeClass: grid.TimeSlow}
	require.NoError(t, s.PersistGridDeltas(ctx, "s1", []grid.Cell{correctDelta(2, 3, 1), wrong}))

	g, err := s.FetchGrid(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 2, g.TotalAttempts)
	assert.Equal(t, 1, g.TotalCorrect)
	assert.Equal(t, 1, g.CellFor(fact.MustNew(2, 3)).ConsecutiveCorrect)
	assert.Equal(t, grid.TimeSlow, g.CellFor(fact.MustNew(7, 8)).LastTimeClass)
	assert.Zero(t, g.CellFor(fact.MustNew(3, 2)).Attempts)
}

func TestPersistGridDeltas_KeepsMasteryTimestamp(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	at := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)
	d := correctDelta(6, 7, 3)
	d.IsLocked = true
	d.MasteredAt = &at
	require.NoError(t, s.PersistGridDeltas(ctx, "s1", []grid.Cell{d}))

	g, err := s.FetchGrid(ctx, "s1")
	require.NoError(t, err)
	c := g.CellFor(fact.MustNew(6, 7))
	require.NotNil(t, c.MasteredAt)
	assert.True(t, c.MasteredAt.Equal(at))
	assert.True(t, c.IsLocked)
}

func TestPersistGridDeltas_ConcurrentBatchesKeepTotals(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	batches := [][]grid.Cell{
		{correctDelta(2, 2, 1), correctDelta(3, 3, 1)},
		{correctDelta(4, 4, 1), correctDelta(5, 5, 1), correctDelta(6, 6, 1)},
	}
	var wg sync.WaitGroup
	for _, b := range batches {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, s.PersistGridDeltas(ctx, "s1", b))
		}()
	}
	wg.Wait()

	g, err := s.FetchGrid(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 5, g.TotalAttempts)
	assert.Equal(t, 5, g.TotalCorrect)
	for _, n := range []int{2, 3, 4, 5, 6} {
		assert.Equal(t, 1, g.CellFor(fact.MustNew(n, n)).Attempts, "cell %d×%d", n, n)
	}
}

func TestPersistGridDeltas_RejectsWholeBatch(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	err := s.PersistGridDeltas(ctx, "s1", []grid.Cell{correctDelta(2, 2, 1), {Multiplicand: 13, Multiplier: 1}})
	assert.True(t, errors.Is(err, fault.ErrValidation), "err = %v", err)

	g, err := s.FetchGrid(ctx, "s1")
	require.NoError(t, err)
	assert.Zero(t, g.TotalAttempts)
	assert.Zero(t, g.CellFor(fact.MustNew(2, 2)).Attempts)
}

func TestPersistGridDeltas_EmptyIsNoop(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.PersistGridDeltas(context.Background(), "s1", nil))

	var rows int
	require.NoError(t, s.DB().QueryRow("SELECT COUNT(*) FROM grids").Scan(&rows))
	assert.Zero(t, rows)
}

func TestSetGuardrail(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.SetGuardrail(ctx, "s1", grid.Guardrail5))
	g, err := s.FetchGrid(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, grid.Guardrail5, g.Guardrail)

	err = s.SetGuardrail(ctx, "s1", grid.Guardrail("1-7"))
	assert.True(t, errors.Is(err, fault.ErrValidation))
}

func TestResetLocks_KeepsMastery(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	at := time.Now().UTC().Truncate(time.Millisecond)
	d := correctDelta(9, 9, 3)
	d.IsLocked = true
	d.MasteredAt = &at
	require.NoError(t, s.PersistGridDeltas(ctx, "s1", []grid.Cell{d}))
	require.NoError(t, s.ResetLocks(ctx, "s1"))

	g, err := s.FetchGrid(ctx, "s1")
	require.NoError(t, err)
	c := g.CellFor(fact.MustNew(9, 9))
	assert.False(t, c.IsLocked)
	assert.NotNil(t, c.MasteredAt)
	assert.Equal(t, 3, c.ConsecutiveCorrect)
	assert.Equal(t, 1, g.TotalAttempts)
}

func TestResetGrid(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.PersistGridDeltas(ctx, "s1", []grid.Cell{correctDelta(4, 5, 2)}))
	require.NoError(t, s.SetGuardrail(ctx, "s1", grid.Guardrail12))
	require.NoError(t, s.ResetGrid(ctx, "s1"))

	g, err := s.FetchGrid(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, grid.DefaultGuardrail, g.Guardrail)
	assert.Zero(t, g.TotalAttempts)
	assert.Zero(t, g.TotalCorrect)
	assert.Zero(t, g.CellFor(fact.MustNew(4, 5)).Attempts)
}
