// Package noise provides the seeded scalar fields and hash helpers biome
// generators shape terrain with.
package noise

import (
	"math"

	"github.com/aquilax/go-perlin"
	"github.com/ojrac/opensimplex-go"
)

// Field bundles a perlin elevation source and an opensimplex detail source that
// share one seed. Both are pure functions of (seed, x, y).
type Field struct {
	Seed int64

	elev   *perlin.Perlin
	detail opensimplex.Noise
}

func NewField(seed int64) *Field {
	return &Field{
		Seed:   seed,
		elev:   perlin.NewPerlin(2, 2, 3, seed),
		detail: opensimplex.NewNormalized(seed + 1),
	}
}

// Elevation samples fractal perlin noise at cell (x, y) with the given feature
// scale in cells. Result is roughly in [-1, 1].
func (f *Field) Elevation(x, y int, scale float64) float64 {
	if scale <= 0 {
		scale = 1
	}
	return f.elev.Noise2D(float64(x)/scale, float64(y)/scale)
}

// Octaves sums n octaves of Elevation, halving amplitude and doubling frequency.
func (f *Field) Octaves(x, y int, scale float64, n int) float64 {
	if n <= 0 {
		n = 1
	}
	total, amp, norm := 0.0, 1.0, 0.0
	s := scale
	for i := 0; i < n; i++ {
		total += f.Elevation(x, y, s) * amp
		norm += amp
		amp *= 0.5
		s /= 2
		if s < 1 {
			s = 1
		}
	}
	return total / norm
}

// Detail samples the opensimplex layer in [0, 1).
func (f *Field) Detail(x, y int, scale float64) float64 {
	if scale <= 0 {
		scale = 1
	}
	return f.detail.Eval2(float64(x)/scale, float64(y)/scale)
}

// Normalize maps a [-1, 1] sample into [0, 1], clamped.
func Normalize(v float64) float64 {
	return Clamp01((v + 1) / 2)
}

func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// RadialFalloff is 1 at the center and 0 at distance >= radius.
func RadialFalloff(x, y, cx, cy int, radius float64) float64 {
	if radius <= 0 {
		return 0
	}
	dx := float64(x - cx)
	dy := float64(y - cy)
	d := math.Sqrt(dx*dx+dy*dy) / radius
	if d >= 1 {
		return 0
	}
	return 1 - d*d
}
