package biome

import (
	"math"

	"worldforge.ai/internal/worldgen/rng"
	"worldforge.ai/internal/worldgen/templates"
	"worldforge.ai/internal/worldgen/terrain"
	"worldforge.ai/internal/worldgen/tuning"
)

type lakeside struct {
	base

	center     terrain.Point
	lakeRadius float64
	shore      []terrain.Point
	meadow     []terrain.Point
	forestEdge []terrain.Point
}

func newLakeside(tu tuning.Tuning) *lakeside {
	l := &lakeside{base: newBase("lakeside", tu, 3)}
	l.on(Placement{Find: near(&l.shore, fixed(1))}, "dock", "fishing_spot", "boat_launch", "swimming_rock")
	l.on(Placement{Find: near(&l.meadow, fixed(3))}, "picnic_area", "bonfire_pit", "flower_field")
	l.on(Placement{Find: near(&l.forestEdge, fixed(2))}, "campsite", "hunting_blind", "treehouse")
	l.fallback = cellWhere(func(g *terrain.Grid, x, y int) bool { return isLand(g, x, y) })
	l.site = siteNear(func() []terrain.Point { return l.meadow }, 6)
	return l
}

func (l *lakeside) GenerateFoundation(g *terrain.Grid, cfg *templates.Config, r *rng.RNG) {
	p := cfg.Params
	f := l.seedField(r)
	amp := p.Float("elevation_amplitude", 8)
	shoreW := float64(p.Int("shore_width", 6))
	forestCover := p.Float("forest_cover", 0.6)

	l.center = terrain.Point{X: g.Width / 2, Y: g.Height / 2}
	l.lakeRadius = math.Max(6, p.Float("lake_radius_ratio", 0.28)*math.Min(float64(g.Width), float64(g.Height)))

	heightmap(g, f, p.Float("elevation_scale", 80), amp, 3)
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			d := dist(terrain.Point{X: x, Y: y}, l.center)
			// Wobble the shoreline so the lake is not a perfect circle.
			d += (f.Detail(x, y, 30) - 0.5) * l.lakeRadius * 0.25
			switch {
			case d < l.lakeRadius:
				depth := (l.lakeRadius - d) / l.lakeRadius
				g.SetElevation(x, y, -depth*amp)
				g.SetTerrain(x, y, terrain.Water)
			case d < l.lakeRadius+shoreW:
				g.SetElevation(x, y, math.Abs(g.Elevation(x, y))*0.2)
				g.SetTerrain(x, y, terrain.Sand)
			case f.Detail(x+977, y+977, 22) > forestCover:
				g.SetElevation(x, y, math.Abs(g.Elevation(x, y)))
				g.SetTerrain(x, y, terrain.Forest)
			default:
				g.SetElevation(x, y, math.Abs(g.Elevation(x, y)))
				g.SetTerrain(x, y, terrain.Grass)
			}
		}
	}

	// Ring road around the lake.
	ring := l.lakeRadius + shoreW + 5
	const spokes = 16
	var prev terrain.Point
	for i := 0; i <= spokes; i++ {
		ang := float64(i) / spokes * 2 * math.Pi
		pt := terrain.Point{
			X: l.center.X + int(math.Round(math.Cos(ang)*ring)),
			Y: l.center.Y + int(math.Round(math.Sin(ang)*ring)),
		}
		if i > 0 {
			l.carve(g, prev, pt, r, 1, terrain.Dirt)
		}
		prev = pt
	}

	l.shore = collectCells(g, 2, func(x, y int) bool {
		return g.Terrain(x, y) == terrain.Sand && touches(g, x, y, terrain.Water)
	})
	l.meadow = collectCells(g, 5, func(x, y int) bool {
		return g.Terrain(x, y) == terrain.Grass
	})
	l.forestEdge = collectCells(g, 3, func(x, y int) bool {
		return g.Terrain(x, y) == terrain.Forest && touches(g, x, y, terrain.Grass)
	})
}
