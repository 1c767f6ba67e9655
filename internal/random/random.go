// Package random is the randomness seam shared by the robbery resolver and
// the duel simulator.
package random

import "math/rand/v2"

// Source yields uniform random numbers.
type Source interface {
	// IntN returns a value in [0, n). n must be positive.
	IntN(n int) int
	// Float64 returns a value in [0.0, 1.0).
	Float64() float64
}

type globalSource struct{}

func (globalSource) IntN(n int) int { return rand.IntN(n) }
func (globalSource) Float64() float64 { return rand.Float64() }

// Default is backed by the runtime generator and is safe for concurrent use.
func Default() Source { return globalSource{} }

// NewSeeded returns a deterministic source. It is not safe for concurrent use.
func NewSeeded(seed uint64) Source {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Between returns a uniform value in [lo, hi].
func Between(src Source, lo, hi int64) int64 {
	if hi <= lo {
		return lo
	}
	return lo + int64(src.IntN(int(hi-lo+1)))
}

// Chance reports true with probability p.
func Chance(src Source, p float64) bool {
	return src.Float64() < p
}

func Pick[T any](src Source, items []T) T {
	return items[src.IntN(len(items))]
}
