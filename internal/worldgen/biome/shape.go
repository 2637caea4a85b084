package biome

import (
	"math"

	"worldforge.ai/internal/worldgen/noise"
	"worldforge.ai/internal/worldgen/rng"
	"worldforge.ai/internal/worldgen/terrain"
)

// heightmap writes amp-scaled fractal noise into every cell.
func heightmap(g *terrain.Grid, f *noise.Field, scale, amp float64, octaves int) {
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			g.SetElevation(x, y, f.Octaves(x, y, scale, octaves)*amp)
		}
	}
}

// spreadPoints rejection-samples up to n points at least minSep apart and at
// least margin from every edge.
func spreadPoints(g *terrain.Grid, r *rng.RNG, n, minSep, margin, attempts int) []terrain.Point {
	var out []terrain.Point
	spanX := g.Width - 2*margin
	spanY := g.Height - 2*margin
	if n <= 0 || spanX <= 0 || spanY <= 0 {
		return nil
	}
	min2 := minSep * minSep
	for i := 0; i < attempts && len(out) < n; i++ {
		p := terrain.Point{X: margin + r.Intn(spanX), Y: margin + r.Intn(spanY)}
		ok := true
		for _, q := range out {
			if p.Dist2(q) < min2 {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, p)
		}
	}
	return out
}

// collectCells scans row-major with the given stride.
func collectCells(g *terrain.Grid, stride int, keep func(x, y int) bool) []terrain.Point {
	if stride <= 0 {
		stride = 1
	}
	var out []terrain.Point
	for y := 0; y < g.Height; y += stride {
		for x := 0; x < g.Width; x += stride {
			if keep(x, y) {
				out = append(out, terrain.Point{X: x, Y: y})
			}
		}
	}
	return out
}

// touches reports whether a 4-neighbour of (x, y) has terrain t.
func touches(g *terrain.Grid, x, y int, t terrain.Terrain) bool {
	return (g.InBounds(x-1, y) && g.Terrain(x-1, y) == t) ||
		(g.InBounds(x+1, y) && g.Terrain(x+1, y) == t) ||
		(g.InBounds(x, y-1) && g.Terrain(x, y-1) == t) ||
		(g.InBounds(x, y+1) && g.Terrain(x, y+1) == t)
}

func fillDisc(g *terrain.Grid, c terrain.Point, radius int, t terrain.Terrain) {
	r2 := radius * radius
	for y := c.Y - radius; y <= c.Y+radius; y++ {
		for x := c.X - radius; x <= c.X+radius; x++ {
			dx, dy := x-c.X, y-c.Y
			if dx*dx+dy*dy <= r2 {
				g.SetTerrain(x, y, t)
			}
		}
	}
}

func dist(a, b terrain.Point) float64 {
	return math.Sqrt(float64(a.Dist2(b)))
}

// segmentDist is the distance from p to the segment ab.
func segmentDist(px, py float64, a, b terrain.Point) float64 {
	ax, ay := float64(a.X), float64(a.Y)
	bx, by := float64(b.X), float64(b.Y)
	dx, dy := bx-ax, by-ay
	l2 := dx*dx + dy*dy
	t := 0.0
	if l2 > 0 {
		t = noise.Clamp01(((px-ax)*dx + (py-ay)*dy) / l2)
	}
	cx, cy := ax+t*dx, ay+t*dy
	return math.Hypot(px-cx, py-cy)
}

func clampPoint(g *terrain.Grid, p terrain.Point) terrain.Point {
	if p.X < 0 {
		p.X = 0
	}
	if p.Y < 0 {
		p.Y = 0
	}
	if p.X >= g.Width {
		p.X = g.Width - 1
	}
	if p.Y >= g.Height {
		p.Y = g.Height - 1
	}
	return p
}

// carve runs a capped jittered walk and returns the visited centers.
func (b *base) carve(g *terrain.Grid, from, to terrain.Point, r *rng.RNG, width int, t terrain.Terrain) []terrain.Point {
	return g.CarvePath(clampPoint(g, from), clampPoint(g, to), r, terrain.PathOptions{
		Width:    width,
		Terrain:  t,
		MaxSteps: b.tu.PathMaxSteps,
		Jitter:   b.tu.PathJitter,
	})
}

// straight paints a jitter-free path, used for planned streets.
func straight(g *terrain.Grid, from, to terrain.Point, width int, t terrain.Terrain, steps int) []terrain.Point {
	return g.CarvePath(clampPoint(g, from), clampPoint(g, to), rng.New(0), terrain.PathOptions{
		Width:    width,
		Terrain:  t,
		MaxSteps: steps,
	})
}

func pick(list []terrain.Point, r *rng.RNG) (terrain.Point, bool) {
	if len(list) == 0 {
		return terrain.NoPoint, false
	}
	return list[r.Intn(len(list))], true
}

// landmark places exactly on a tracked point and retires it once claimed.
func landmark(list *[]terrain.Point) Placement {
	return Placement{
		Find: func(_ *terrain.Grid, _ int, r *rng.RNG) (terrain.Point, bool) {
			return pick(*list, r)
		},
		Available: func() bool { return len(*list) > 0 },
		Claimed: func(p terrain.Point) {
			l := *list
			for i, q := range l {
				if q == p {
					*list = append(l[:i:i], l[i+1:]...)
					return
				}
			}
		},
	}
}

// near jitters a random anchor by up to spread(radius) cells.
func near(list *[]terrain.Point, spread func(radius int) int) Strategy {
	return func(_ *terrain.Grid, radius int, r *rng.RNG) (terrain.Point, bool) {
		a, ok := pick(*list, r)
		if !ok {
			return a, false
		}
		s := spread(radius)
		return a.Add(r.IntRange(-s, s), r.IntRange(-s, s)), true
	}
}

// around picks a point at distance d(radius) from a random anchor.
func around(list *[]terrain.Point, d func(radius int) float64) Strategy {
	return func(_ *terrain.Grid, radius int, r *rng.RNG) (terrain.Point, bool) {
		a, ok := pick(*list, r)
		if !ok {
			return a, false
		}
		ang := r.Angle()
		dd := d(radius)
		return terrain.Point{
			X: a.X + int(math.Round(math.Cos(ang)*dd)),
			Y: a.Y + int(math.Round(math.Sin(ang)*dd)),
		}, true
	}
}

// within picks a point inside a random rect, inset by the radius.
func within(list *[]terrain.Rect) Strategy {
	return func(_ *terrain.Grid, radius int, r *rng.RNG) (terrain.Point, bool) {
		if len(*list) == 0 {
			return terrain.NoPoint, false
		}
		box := (*list)[r.Intn(len(*list))].Inset(radius)
		if box.Empty() {
			return terrain.NoPoint, false
		}
		return terrain.Point{X: box.X + r.Intn(box.W), Y: box.Y + r.Intn(box.H)}, true
	}
}

// cellWhere samples one random cell and accepts it if keep does.
func cellWhere(keep func(g *terrain.Grid, x, y int) bool) Strategy {
	return func(g *terrain.Grid, radius int, r *rng.RNG) (terrain.Point, bool) {
		spanX := g.Width - 2*radius
		spanY := g.Height - 2*radius
		if spanX <= 0 || spanY <= 0 {
			return terrain.NoPoint, false
		}
		x := radius + r.Intn(spanX)
		y := radius + r.Intn(spanY)
		if !keep(g, x, y) {
			return terrain.NoPoint, false
		}
		return terrain.Point{X: x, Y: y}, true
	}
}

func isLand(g *terrain.Grid, x, y int) bool {
	t := g.Terrain(x, y)
	return t != terrain.Water && t != terrain.Empty
}

func terrainIs(ts ...terrain.Terrain) func(g *terrain.Grid, x, y int) bool {
	return func(g *terrain.Grid, x, y int) bool {
		t := g.Terrain(x, y)
		for _, want := range ts {
			if t == want {
				return true
			}
		}
		return false
	}
}

func fixed(n int) func(int) int { return func(int) int { return n } }
