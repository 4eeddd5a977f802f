// Package selector chooses which fact to present next.
//
// Placement sessions use a fixed, seeded sequence that samples the whole
// difficulty range. Practice sessions draw adaptively from the unlocked
// cells inside the student's guardrail.
package selector

import (
	"fmt"
	"math/rand/v2"
	"sort"

	"github.com/cespare/xxhash/v2"

	"github.com/abhisek/mathwiz/internal/fact"
)

// DefaultPlacementLength is the number of items in a placement session.
const DefaultPlacementLength = 20

const deciles = 10

// placementFactors excludes ×1 and ×10, which say little about skill.
var placementFactors = []int{2, 3, 4, 5, 6, 7, 8, 9, 11, 12}

// Seed derives the selection seed for a student and grade level.
func Seed(studentID, gradeLevel string) uint64 {
	return xxhash.Sum64String(studentID + "/" + gradeLevel)
}

// newRand returns a PCG generator for seed.
func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// placementPool returns the unordered candidate pairs sorted from easiest
// to hardest by product, then by the smaller factor.
func placementPool() []fact.Fact {
	var pool []fact.Fact
	for i, a := range placementFactors {
		for _, b := range placementFactors[i:] {
			pool = append(pool, fact.MustNew(a, b))
		}
	}
	sort.Slice(pool, func(i, j int) bool {
		if pool[i].Answer() != pool[j].Answer() {
			return pool[i].Answer() < pool[j].Answer()
		}
		return pool[i].Multiplicand < pool[j].Multiplicand
	})
	return pool
}

// Placement returns the placement sequence for seed.
//
// The pool is split into ten contiguous difficulty deciles. Each decile
// contributes length/10 pairs (the easiest deciles take any remainder),
// drawn without replacement, in random order and random orientation.
// Deciles are emitted easiest first. The same seed always yields the same
// sequence and no fact appears twice.
func Placement(seed uint64, length int) ([]fact.Fact, error) {
	pool := placementPool()
	maxLen := deciles * (len(pool) / deciles)
	if length < deciles || length > maxLen {
		return nil, fmt.Errorf("placement length %d out of range [%d,%d]", length, deciles, maxLen)
	}

	rng := newRand(seed)
	base, extra := length/deciles, length%deciles
	out := make([]fact.Fact, 0, length)

	for d := range deciles {
		lo, hi := d*len(pool)/deciles, (d+1)*len(pool)/deciles
		take := base
		if d < extra {
			take++
		}
		for _, i := range rng.Perm(hi - lo)[:take] {
			f := pool[lo+i]
			if rng.IntN(2) == 1 {
				f = f.Flip()
			}
			out = append(out, f)
		}
	}
	return out, nil
}
