package biome

import (
	"worldforge.ai/internal/worldgen/rng"
	"worldforge.ai/internal/worldgen/templates"
	"worldforge.ai/internal/worldgen/terrain"
	"worldforge.ai/internal/worldgen/tuning"
)

type forest struct {
	base

	clearings []terrain.Point
	stream    []terrain.Point
	trails    []terrain.Point
	edges     []terrain.Point
}

func newForest(tu tuning.Tuning) *forest {
	f := &forest{base: newBase("forest", tu, 3)}
	f.on(Placement{Find: near(&f.clearings, fixed(8))}, "campsite", "stone_circle", "ranger_tower", "well", "altar")
	f.on(Placement{Find: cellWhere(terrainIs(terrain.Forest))}, "hunting_blind", "fallen_tree", "bear_den", "hollow_tree")
	f.on(Placement{Find: near(&f.stream, func(r int) int { return r + 2 })}, "fishing_spot", "footbridge", "beaver_dam")
	f.on(Placement{Find: near(&f.trails, func(r int) int { return r + 1 })}, "trail_marker", "signpost")
	f.on(Placement{Find: near(&f.edges, fixed(2))}, "deer_stand", "berry_patch")
	f.fallback = cellWhere(func(g *terrain.Grid, x, y int) bool { return isLand(g, x, y) })
	f.site = siteNear(func() []terrain.Point { return f.clearings }, 10)
	return f
}

func (f *forest) GenerateFoundation(g *terrain.Grid, cfg *templates.Config, r *rng.RNG) {
	p := cfg.Params
	field := f.seedField(r)
	treeCover := p.Float("tree_cover", 0.42)
	clearingR := p.Int("clearing_radius", 16)

	heightmap(g, field, p.Float("elevation_scale", 100), p.Float("elevation_amplitude", 12), 4)
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			if field.Detail(x, y, 20) > treeCover {
				g.SetTerrain(x, y, terrain.Forest)
			} else {
				g.SetTerrain(x, y, terrain.Grass)
			}
		}
	}

	f.clearings = spreadPoints(g, r, p.Int("clearing_count", 5), clearingR*3, clearingR+2, f.tu.LandmarkAttempts)
	for _, c := range f.clearings {
		fillDisc(g, c, clearingR, terrain.Grass)
	}

	f.stream = nil
	if p.Bool("stream", true) && g.Height > 2 {
		from := terrain.Point{X: 0, Y: r.Intn(g.Height)}
		to := terrain.Point{X: g.Width - 1, Y: r.Intn(g.Height)}
		f.stream = g.CarvePath(from, to, r, terrain.PathOptions{
			Width:    1,
			Terrain:  terrain.Water,
			MaxSteps: f.tu.PathMaxSteps,
			Jitter:   f.tu.PathJitter,
			NoFlag:   true,
		})
		for _, c := range f.stream {
			g.SetElevation(c.X, c.Y, g.Elevation(c.X, c.Y)-1.5)
		}
	}

	f.trails = nil
	n := p.Int("trail_count", 3)
	for i := 0; i < n && len(f.clearings) > 0; i++ {
		target := f.clearings[i%len(f.clearings)]
		var start terrain.Point
		switch i % 4 {
		case 0:
			start = terrain.Point{X: 0, Y: target.Y}
		case 1:
			start = terrain.Point{X: g.Width - 1, Y: target.Y}
		case 2:
			start = terrain.Point{X: target.X, Y: 0}
		default:
			start = terrain.Point{X: target.X, Y: g.Height - 1}
		}
		f.trails = append(f.trails, f.carve(g, start, target, r, 1, terrain.Dirt)...)
	}
	// Link consecutive clearings.
	for i := 1; i < len(f.clearings); i++ {
		f.trails = append(f.trails, f.carve(g, f.clearings[i-1], f.clearings[i], r, 1, terrain.Dirt)...)
	}

	f.edges = collectCells(g, 3, func(x, y int) bool {
		return g.Terrain(x, y) == terrain.Grass && touches(g, x, y, terrain.Forest)
	})
}
