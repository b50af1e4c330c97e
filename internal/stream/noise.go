package stream

import (
	"math/rand"
	"time"
)

// Noise produces Gaussian samples. The generator depends on this interface
// rather than on a concrete RNG so tests can substitute a deterministic
// source.
type Noise interface {
	Gaussian(mean, stddev float64) float64
}

type randNoise struct {
	rng *rand.Rand
}

// NewRandNoise returns a Noise backed by math/rand with a fixed seed.
func NewRandNoise(seed int64) Noise {
	return &randNoise{rng: rand.New(rand.NewSource(seed))}
}

// NewSystemNoise returns a time-seeded Noise for normal runs.
func NewSystemNoise() Noise {
	return NewRandNoise(time.Now().UnixNano())
}

func (n *randNoise) Gaussian(mean, stddev float64) float64 {
	return mean + n.rng.NormFloat64()*stddev
}
