package biome

import (
	"math"
	"sort"

	"worldforge.ai/internal/worldgen/rng"
	"worldforge.ai/internal/worldgen/templates"
	"worldforge.ai/internal/worldgen/terrain"
	"worldforge.ai/internal/worldgen/tuning"
)

type mountain struct {
	base

	peaks     []terrain.Point // every peak laid out
	freePeaks []terrain.Point // peaks without a POI yet
	valleys   []terrain.Point
	cliffs    []terrain.Point
	trails    []terrain.Point
}

func newMountain(tu tuning.Tuning) *mountain {
	m := &mountain{base: newBase("mountain", tu, 4)}
	m.on(landmark(&m.freePeaks), "watchtower", "lookout", "summit_cairn", "radio_mast")
	m.on(Placement{Find: near(&m.cliffs, func(r int) int { return r + 1 })}, "cave", "mine_entrance", "rockslide")
	m.on(Placement{Find: near(&m.valleys, fixed(12))}, "campsite", "cabin_ruin", "spring")
	m.on(Placement{Find: near(&m.trails, func(r int) int { return r + 2 })}, "trail_marker", "shrine", "switchback")
	m.fallback = cellWhere(func(g *terrain.Grid, x, y int) bool {
		t := g.Terrain(x, y)
		return t == terrain.Grass || t == terrain.Forest
	})
	m.site = siteNear(func() []terrain.Point { return m.valleys }, 20)
	return m
}

// Peaks returns every laid-out peak, including ones already claimed.
func (m *mountain) Peaks() []terrain.Point {
	return append([]terrain.Point(nil), m.peaks...)
}

func (m *mountain) GenerateFoundation(g *terrain.Grid, cfg *templates.Config, r *rng.RNG) {
	p := cfg.Params
	f := m.seedField(r)
	scale := p.Float("elevation_scale", 90)
	amp := p.Float("elevation_amplitude", 40)
	peakHeight := p.Float("peak_height", 140)
	side := math.Min(float64(g.Width), float64(g.Height))
	peakRadius := math.Max(8, p.Float("peak_radius_ratio", 0.2)*side)
	rockLine := p.Float("rock_line", 0.62)
	forestLine := p.Float("forest_line", 0.3)

	margin := max(12, int(side)/10)
	m.peaks = spreadPoints(g, r, p.Int("num_peaks", 3), p.Int("min_peak_separation", 30), margin, m.tu.LandmarkAttempts)
	m.freePeaks = append([]terrain.Point(nil), m.peaks...)

	heightmap(g, f, scale, amp, 4)
	top := amp + peakHeight
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			h := g.Elevation(x, y)
			for _, pk := range m.peaks {
				dx := float64(x - pk.X)
				dy := float64(y - pk.Y)
				h += peakHeight * math.Exp(-(dx*dx+dy*dy)/(2*peakRadius*peakRadius))
			}
			g.SetElevation(x, y, h)

			nh := (h + amp) / (top + amp)
			switch {
			case nh >= rockLine:
				g.SetTerrain(x, y, terrain.Rock)
			case nh >= forestLine && f.Detail(x, y, 24) > 0.35:
				g.SetTerrain(x, y, terrain.Forest)
			default:
				g.SetTerrain(x, y, terrain.Grass)
			}
		}
	}

	// A gaussian flank peaks at about 0.6·height/radius per cell.
	cliff := p.Float("cliff_slope", 0.45*peakHeight/peakRadius)
	m.cliffs = collectCells(g, 3, func(x, y int) bool {
		return g.Slope(x, y) > cliff
	})
	m.valleys = m.findValleys(g, r)

	width := p.Int("trail_width", 1)
	m.trails = nil
	for i, pk := range m.peaks {
		start := terrain.Point{X: pk.X, Y: g.Height - 1}
		if len(m.valleys) > 0 {
			start = m.valleys[i%len(m.valleys)]
		}
		m.trails = append(m.trails, m.carve(g, start, pk, r, width, terrain.Dirt)...)
	}
	// Summits stay bare rock whatever the noise or trails left there.
	for _, pk := range m.peaks {
		fillDisc(g, pk, 3, terrain.Rock)
	}
}

// findValleys keeps the lowest of a fixed sample of cells, spaced apart.
func (m *mountain) findValleys(g *terrain.Grid, r *rng.RNG) []terrain.Point {
	const samples = 160
	const want = 4
	cand := make([]terrain.Point, 0, samples)
	margin := 8
	if g.Width <= 2*margin || g.Height <= 2*margin {
		return nil
	}
	for i := 0; i < samples; i++ {
		cand = append(cand, terrain.Point{
			X: margin + r.Intn(g.Width-2*margin),
			Y: margin + r.Intn(g.Height-2*margin),
		})
	}
	sort.SliceStable(cand, func(i, j int) bool {
		return g.Elevation(cand[i].X, cand[i].Y) < g.Elevation(cand[j].X, cand[j].Y)
	})
	minSep2 := 40 * 40
	var out []terrain.Point
	for _, c := range cand {
		ok := true
		for _, v := range out {
			if c.Dist2(v) < minSep2 {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, c)
			if len(out) == want {
				break
			}
		}
	}
	return out
}
