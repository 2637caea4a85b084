package biome

import (
	"math"

	"worldforge.ai/internal/worldgen/rng"
	"worldforge.ai/internal/worldgen/templates"
	"worldforge.ai/internal/worldgen/terrain"
	"worldforge.ai/internal/worldgen/tuning"
)

type dune struct {
	a, b  terrain.Point
	width float64
}

type desert struct {
	base

	dunes      []dune
	crests     []terrain.Point
	mesas      []terrain.Point
	mesaR      int
	oases      []terrain.Point
	oasisR     int
	flats      []terrain.Point
	roadPoints []terrain.Point
}

func newDesert(tu tuning.Tuning) *desert {
	d := &desert{base: newBase("desert", tu, 4)}
	d.on(Placement{Find: around(&d.oases, func(r int) float64 { return float64(d.oasisR) * 0.6 })}, "oasis_well", "palm_grove", "caravan_rest")
	d.on(Placement{Find: near(&d.crests, fixed(3))}, "buried_cache", "sand_worm_trail", "dune_marker")
	d.on(Placement{Find: around(&d.mesas, func(r int) float64 { return float64(d.mesaR + r + 1) })}, "rock_arch", "cliff_dwelling", "petroglyphs")
	d.on(Placement{Find: near(&d.flats, fixed(5))}, "ruins", "bleached_skeleton", "crater")
	d.on(Placement{Find: near(&d.roadPoints, func(r int) int { return r + 3 })}, "camp", "signpost", "wrecked_wagon")
	d.fallback = near(&d.flats, fixed(5))
	return d
}

func (d *desert) GenerateFoundation(g *terrain.Grid, cfg *templates.Config, r *rng.RNG) {
	p := cfg.Params
	f := d.seedField(r)
	side := math.Min(float64(g.Width), float64(g.Height))
	duneH := p.Float("dune_height", 12)
	d.mesaR = max(p.Int("mesa_radius", 18), 4)
	d.oasisR = max(p.Int("oasis_radius", 12), 4)
	// Buildings cluster on the sand apron around each oasis.
	spread := d.oasisR * 2
	d.site = siteNear(func() []terrain.Point { return d.oases }, spread)

	heightmap(g, f, p.Float("elevation_scale", 110), p.Float("elevation_amplitude", 10), 3)

	d.dunes, d.crests = nil, nil
	for i := 0; i < p.Int("dune_count", 6); i++ {
		a := terrain.Point{X: r.Intn(max(g.Width, 1)), Y: r.Intn(max(g.Height, 1))}
		ang := r.Angle()
		l := side / 3
		b := terrain.Point{X: a.X + int(math.Cos(ang)*l), Y: a.Y + int(math.Sin(ang)*l)}
		d.dunes = append(d.dunes, dune{a: a, b: b, width: math.Max(6, side/25)})
	}

	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			lift := 0.0
			for _, du := range d.dunes {
				s := 1 - segmentDist(float64(x), float64(y), du.a, du.b)/du.width
				if s > 0 {
					lift = math.Max(lift, s*s)
				}
			}
			g.SetElevation(x, y, g.Elevation(x, y)+lift*duneH)
			if lift > 0.35 {
				g.SetTerrain(x, y, terrain.Sand)
			} else {
				g.SetTerrain(x, y, terrain.Desert)
			}
		}
	}
	for _, du := range d.dunes {
		mid := terrain.Point{X: (du.a.X + du.b.X) / 2, Y: (du.a.Y + du.b.Y) / 2}
		for _, c := range []terrain.Point{du.a, mid, du.b} {
			if g.InBounds(c.X, c.Y) {
				d.crests = append(d.crests, c)
			}
		}
	}

	d.mesas = spreadPoints(g, r, p.Int("mesa_count", 3), d.mesaR*3, d.mesaR+2, d.tu.LandmarkAttempts)
	for _, c := range d.mesas {
		fillDisc(g, c, d.mesaR, terrain.Rock)
		for y := c.Y - d.mesaR; y <= c.Y+d.mesaR; y++ {
			for x := c.X - d.mesaR; x <= c.X+d.mesaR; x++ {
				if g.InBounds(x, y) && g.Terrain(x, y) == terrain.Rock {
					g.SetElevation(x, y, g.Elevation(x, y)+30)
				}
			}
		}
	}

	d.oases = nil
	margin := d.oasisR*3 + 2
	for _, c := range spreadPoints(g, r, p.Int("oasis_count", 2), d.oasisR*6, margin, d.tu.LandmarkAttempts) {
		ok := true
		for _, m := range d.mesas {
			if dist(c, m) < float64(d.mesaR+d.oasisR*3) {
				ok = false
				break
			}
		}
		if !ok {
			continue
		}
		fillDisc(g, c, d.oasisR*3, terrain.Sand)
		fillDisc(g, c, d.oasisR, terrain.Grass)
		d.oases = append(d.oases, c)
	}

	// A caravan road crosses west to east through every oasis.
	d.roadPoints = nil
	stops := []terrain.Point{{X: 0, Y: g.Height / 2}}
	stops = append(stops, d.oases...)
	stops = append(stops, terrain.Point{X: g.Width - 1, Y: g.Height / 2})
	for i := 1; i < len(stops); i++ {
		d.roadPoints = append(d.roadPoints, d.carve(g, stops[i-1], stops[i], r, 1, terrain.Dirt)...)
	}

	// Pools go in after the road so it ends at the water's edge.
	pool := d.oasisR * 2 / 5
	for _, c := range d.oases {
		fillDisc(g, c, pool, terrain.Water)
		for y := c.Y - pool; y <= c.Y+pool; y++ {
			for x := c.X - pool; x <= c.X+pool; x++ {
				if g.InBounds(x, y) && g.Terrain(x, y) == terrain.Water {
					g.SetElevation(x, y, g.Elevation(x, y)-2)
					g.SetPath(x, y, false)
				}
			}
		}
	}

	d.flats = collectCells(g, 6, func(x, y int) bool {
		return g.Terrain(x, y) == terrain.Desert && g.Slope(x, y) < 0.5
	})
}
