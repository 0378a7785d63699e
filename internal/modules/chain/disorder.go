package chain

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// seedStream decorrelates the second PCG word from the seed.
const seedStream = 0x9e3779b97f4a7c15

// DisorderSource supplies on-site energies. Each call to Rand consumes one draw.
// distuv.Uniform satisfies it, so any gonum distribution can stand in for the disorder.
type DisorderSource interface {
	Rand() float64
}

// NewSeededSource returns a uniform [0,1) source backed by a PCG generator.
// Two sources built from the same seed produce the same sequence.
func NewSeededSource(seed uint64) DisorderSource {
	return distuv.Uniform{
		Min: 0,
		Max: 1,
		Src: rand.NewPCG(seed, seed^seedStream),
	}
}
