// Package rng provides the seeded random source behind every stochastic draw
// in the engine. The generator is a splitmix64 stream with a Box-Muller
// gaussian on top, so identical seeds reproduce identical sequences on every
// platform and Go release.
package rng

import "math"

const (
	splitmixGamma = 0x9E3779B97F4A7C15
	mixA          = 0xBF58476D1CE4E5B9
	mixB          = 0x94D049BB133111EB

	// minUniform replaces an exact-zero uniform draw before the Box-Muller
	// logarithm, keeping the output finite.
	minUniform = 1e-12
)

// Rand is a deterministic pseudo-random source. It is not safe for
// concurrent use; parallel consumers derive independent streams with
// DeriveSeed instead of sharing one.
type Rand struct {
	state uint64
}

// New creates a generator from an integer seed.
func New(seed int64) *Rand {
	return &Rand{state: uint64(seed)}
}

func (r *Rand) next() uint64 {
	r.state += splitmixGamma
	z := r.state
	z = (z ^ (z >> 30)) * mixA
	z = (z ^ (z >> 27)) * mixB
	return z ^ (z >> 31)
}

// Float64 returns a uniform value in [0, 1).
func (r *Rand) Float64() float64 {
	return float64(r.next()>>11) / (1 << 53)
}

// Gaussian returns a standard-normal variate via Box-Muller, consuming two
// uniform draws per call.
func (r *Rand) Gaussian() float64 {
	u1 := r.Float64()
	if u1 == 0 {
		u1 = minUniform
	}
	u2 := r.Float64()
	return math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
}

// Intn returns a uniform integer in [0, n). n must be positive.
func (r *Rand) Intn(n int) int {
	i := int(r.Float64() * float64(n))
	if i >= n { // guards against float rounding at the top of the range
		i = n - 1
	}
	return i
}

// Range returns a uniform value in [low, high).
func (r *Rand) Range(low, high float64) float64 {
	return low + r.Float64()*(high-low)
}

// DeriveSeed deterministically mixes a parent seed with generation and slot
// indices, giving each candidate evaluation its own reproducible stream.
func DeriveSeed(seed int64, generation, slot int) int64 {
	z := uint64(seed) ^ (uint64(generation)+1)*splitmixGamma ^ (uint64(slot)+1)*mixA
	z = (z ^ (z >> 30)) * mixA
	z = (z ^ (z >> 27)) * mixB
	return int64(z ^ (z >> 31))
}
