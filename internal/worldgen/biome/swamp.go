package biome

import (
	"worldforge.ai/internal/worldgen/noise"
	"worldforge.ai/internal/worldgen/rng"
	"worldforge.ai/internal/worldgen/templates"
	"worldforge.ai/internal/worldgen/terrain"
	"worldforge.ai/internal/worldgen/tuning"
)

type swamp struct {
	base

	islands    []terrain.Point
	waterline  []terrain.Point
	deep       []terrain.Point
	boardwalks []terrain.Point
}

func newSwamp(tu tuning.Tuning) *swamp {
	s := &swamp{base: newBase("swamp", tu, 3)}
	s.on(Placement{Find: near(&s.waterline, fixed(1))}, "dock", "fishing_spot", "frog_pond")
	s.on(Placement{Find: near(&s.islands, fixed(6))}, "hermit_hut", "witch_altar", "totem")
	s.on(Placement{Find: near(&s.deep, fixed(2))}, "sunken_boat", "bog_pool", "gator_nest")
	s.on(Placement{Find: near(&s.boardwalks, func(r int) int { return r + 1 })}, "trail_marker", "rest_platform")
	s.fallback = cellWhere(func(g *terrain.Grid, x, y int) bool {
		return isLand(g, x, y)
	})
	s.site = siteNear(func() []terrain.Point { return s.islands }, 8)
	return s
}

func (s *swamp) GenerateFoundation(g *terrain.Grid, cfg *templates.Config, r *rng.RNG) {
	p := cfg.Params
	f := s.seedField(r)
	amp := p.Float("elevation_amplitude", 3)
	waterLevel := p.Float("water_level", 0.45)
	treeCover := p.Float("tree_cover", 0.55)
	islandR := p.Int("island_radius", 14)

	heightmap(g, f, p.Float("elevation_scale", 60), amp, 3)
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			h := noise.Normalize(g.Elevation(x, y) / amp)
			switch {
			case h < waterLevel:
				g.SetTerrain(x, y, terrain.Water)
				g.SetElevation(x, y, -0.5-(waterLevel-h)*2)
			case f.Detail(x, y, 18) > treeCover:
				g.SetTerrain(x, y, terrain.Forest)
			default:
				g.SetTerrain(x, y, terrain.Swamp)
			}
		}
	}

	s.islands = spreadPoints(g, r, p.Int("island_count", 6), islandR*3, islandR+4, s.tu.LandmarkAttempts)
	for _, c := range s.islands {
		fillDisc(g, c, islandR, terrain.Swamp)
		fillDisc(g, c, islandR*2/3, terrain.Grass)
		for y := c.Y - islandR; y <= c.Y+islandR; y++ {
			for x := c.X - islandR; x <= c.X+islandR; x++ {
				if lift := noise.RadialFalloff(x, y, c.X, c.Y, float64(islandR)); lift > 0 && g.InBounds(x, y) {
					g.SetElevation(x, y, g.Elevation(x, y)+lift*1.5)
				}
			}
		}
	}

	width := p.Int("boardwalk_width", 1)
	s.boardwalks = nil
	for i := 1; i < len(s.islands); i++ {
		s.boardwalks = append(s.boardwalks, s.carve(g, s.islands[i-1], s.islands[i], r, width, terrain.Dirt)...)
	}

	s.waterline = collectCells(g, 2, func(x, y int) bool {
		t := g.Terrain(x, y)
		return t != terrain.Water && touches(g, x, y, terrain.Water)
	})
	s.deep = collectCells(g, 4, func(x, y int) bool {
		for dy := -3; dy <= 3; dy += 3 {
			for dx := -3; dx <= 3; dx += 3 {
				if !g.InBounds(x+dx, y+dy) || g.Terrain(x+dx, y+dy) != terrain.Water {
					return false
				}
			}
		}
		return true
	})
}
