// Package rng is the single seeded random stream consumed by world generation.
//
// The generator is deterministic only as long as every pass draws from one
// stream in a fixed order, so the stream is owned by the pipeline and passed
// down explicitly. Nothing in this module touches math/rand's global source.
package rng

import "math"

// RNG is a splitmix64 stream.
type RNG struct {
	state uint64
}

func New(seed int64) *RNG {
	return &RNG{state: uint64(seed)}
}

func mix64(z uint64) uint64 {
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

func (r *RNG) Uint64() uint64 {
	r.state += 0x9e3779b97f4a7c15
	return mix64(r.state)
}

// Int63 returns a non-negative int64; used to seed noise fields.
func (r *RNG) Int63() int64 {
	return int64(r.Uint64() >> 1)
}

// Float64 returns a value in [0, 1).
func (r *RNG) Float64() float64 {
	return float64(r.Uint64()>>11) / (1 << 53)
}

// Intn returns a value in [0, n). n <= 0 returns 0 without consuming the stream.
func (r *RNG) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return int(r.Uint64() % uint64(n))
}

// IntRange returns a value in [min, max].
func (r *RNG) IntRange(min, max int) int {
	if min >= max {
		return min
	}
	return min + r.Intn(max-min+1)
}

// Chance reports whether a Bernoulli trial with probability p succeeds.
// It always consumes one draw so the stream position does not depend on p.
func (r *RNG) Chance(p float64) bool {
	return r.Float64() < p
}

// Angle returns a uniform angle in radians.
func (r *RNG) Angle() float64 {
	return r.Float64() * 2 * math.Pi
}

// Shuffle reorders n elements through swap.
func (r *RNG) Shuffle(n int, swap func(i, j int)) {
	for i := n - 1; i > 0; i-- {
		j := r.Intn(i + 1)
		swap(i, j)
	}
}
