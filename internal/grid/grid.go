// Package grid models a student's 12×12 multiplication mastery grid.
//
// A Grid is owned by exactly one student and is the unit of persistence.
// Mutation happens only through Apply with a cell produced by the mastery
// package; callers never write cell fields directly.
package grid

import (
	"fmt"
	"math"

	"github.com/abhisek/mathwiz/internal/fact"
)

// Size is the number of rows and columns.
const Size = fact.Max

// Scope selects the denominator for MasteryPercentage.
type Scope int

const (
	ScopeAll       Scope = iota // All 144 cells
	ScopeGuardrail              // Only cells inside the current guardrail
)

// Grid is a student's mastery grid plus running totals.
type Grid struct {
	StudentID     string
	Guardrail     Guardrail
	TotalCorrect  int
	TotalAttempts int

	cells [Size][Size]Cell
}

// New returns a zeroed, unlocked grid with the default guardrail.
func New(studentID string) *Grid {
	g := &Grid{
		StudentID: studentID,
		Guardrail: DefaultGuardrail,
	}
	for _, f := range fact.All() {
		row, col := f.Key()
		g.cells[row][col] = emptyCell(f)
	}
	return g
}

// CellFor returns a copy of the cell tracking f.
// It panics if f is out of range; callers validate facts at the boundary.
func (g *Grid) CellFor(f fact.Fact) Cell {
	if !f.Valid() {
		panic(fmt.Sprintf("grid: fact %v out of range", f))
	}
	row, col := f.Key()
	return g.cells[row][col]
}

// Apply replaces the cell at the delta's key and returns the stored cell.
func (g *Grid) Apply(delta Cell) (Cell, error) {
	f := delta.Fact()
	if !f.Valid() {
		return Cell{}, fmt.Errorf("apply delta: fact %v out of range", f)
	}
	if delta.Attempts < 0 || delta.ConsecutiveCorrect < 0 {
		return Cell{}, fmt.Errorf("apply delta %v: negative counters", f)
	}
	row, col := f.Key()
	g.cells[row][col] = delta
	return delta, nil
}

// Cells returns a row-major copy of all 144 cells.
func (g *Grid) Cells() []Cell {
	out := make([]Cell, 0, fact.Count)
	for row := range g.cells {
		out = append(out, g.cells[row][:]...)
	}
	return out
}

// SetCells overwrites every cell. Used when loading from storage.
func (g *Grid) SetCells(cells [Size][Size]Cell) {
	g.cells = cells
}

// MasteredCount returns the number of mastered cells in scope.
func (g *Grid) MasteredCount(scope Scope) int {
	n := 0
	for _, c := range g.Cells() {
		if scope == ScopeGuardrail && !g.Guardrail.Contains(c.Fact()) {
			continue
		}
		if c.Mastered() {
			n++
		}
	}
	return n
}

// MasteryPercentage returns mastered/eligible*100 rounded to the nearest
// integer. Guardrail bounds are at least 5, so the denominator is never zero.
func (g *Grid) MasteryPercentage(scope Scope) int {
	eligible := fact.Count
	if scope == ScopeGuardrail {
		eligible = g.Guardrail.CellCount()
	}
	return int(math.Round(float64(g.MasteredCount(scope)) / float64(eligible) * 100))
}

// Unlock clears every lock. Mastery timestamps are kept.
func (g *Grid) Unlock() {
	for row := range g.cells {
		for col := range g.cells[row] {
			g.cells[row][col].IsLocked = false
		}
	}
}

// Clone returns a deep copy.
func (g *Grid) Clone() *Grid {
	c := *g
	for row := range c.cells {
		for col := range c.cells[row] {
			if t := g.cells[row][col].MasteredAt; t != nil {
				tt := *t
				c.cells[row][col].MasteredAt = &tt
			}
		}
	}
	return &c
}
