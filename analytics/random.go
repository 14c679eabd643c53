package analytics

import (
	"math/rand/v2"
)

// Random is the source of every random draw in the package. *rand.Rand satisfies it.
type Random interface {
	Float64() float64
	IntN(n int) int
	Shuffle(n int, swap func(i, j int))
}

// NewRandom returns a PCG-backed stream for seed
func NewRandom(seed uint64) Random {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Uniform draws from [lo, hi)
func Uniform(r Random, lo, hi float64) float64 {
	return lo + (hi-lo)*r.Float64()
}

// Choice picks one element of options uniformly
func Choice(r Random, options []string) string {
	return options[r.IntN(len(options))]
}
