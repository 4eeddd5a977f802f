// Package fact defines the 144 multiplication facts from 1×1 to 12×12.
package fact

import "fmt"

const (
	// Min is the smallest factor.
	Min = 1
	// Max is the largest factor.
	Max = 12
	// Count is the number of distinct facts.
	Count = Max * Max
)

// Fact is a single multiplication fact a×b. Facts are immutable values.
type Fact struct {
	Multiplicand int `json:"multiplicand"`
	Multiplier   int `json:"multiplier"`
}

// New returns the fact a×b, or an error if either factor is outside [1,12].
func New(multiplicand, multiplier int) (Fact, error) {
	if !inRange(multiplicand) || !inRange(multiplier) {
		return Fact{}, fmt.Errorf("fact %d×%d out of range [%d,%d]", multiplicand, multiplier, Min, Max)
	}
	return Fact{Multiplicand: multiplicand, Multiplier: multiplier}, nil
}

// MustNew is like New but panics on an out-of-range factor.
func MustNew(multiplicand, multiplier int) Fact {
	f, err := New(multiplicand, multiplier)
	if err != nil {
		panic(err)
	}
	return f
}

// Answer returns the product.
func (f Fact) Answer() int {
	return f.Multiplicand * f.Multiplier
}

// Valid reports whether both factors are in range.
func (f Fact) Valid() bool {
	return inRange(f.Multiplicand) && inRange(f.Multiplier)
}

// Key returns the zero-based grid coordinates of the fact.
func (f Fact) Key() (row, col int) {
	return f.Multiplicand - 1, f.Multiplier - 1
}

// MaxFactor returns the larger of the two factors.
func (f Fact) MaxFactor() int {
	if f.Multiplicand > f.Multiplier {
		return f.Multiplicand
	}
	return f.Multiplier
}

// Flip returns the commuted fact b×a.
func (f Fact) Flip() Fact {
	return Fact{Multiplicand: f.Multiplier, Multiplier: f.Multiplicand}
}

func (f Fact) String() string {
	return fmt.Sprintf("%d×%d", f.Multiplicand, f.Multiplier)
}

// All returns every fact in row-major order (1×1, 1×2, ... 12×12).
func All() []Fact {
	facts := make([]Fact, 0, Count)
	for a := Min; a <= Max; a++ {
		for b := Min; b <= Max; b++ {
			facts = append(facts, Fact{Multiplicand: a, Multiplier: b})
		}
	}
	return facts
}

func inRange(n int) bool {
	return n >= Min && n <= Max
}
