package biome

import (
	"worldforge.ai/internal/worldgen/rng"
	"worldforge.ai/internal/worldgen/templates"
	"worldforge.ai/internal/worldgen/terrain"
	"worldforge.ai/internal/worldgen/tuning"
)

type beach struct {
	base

	waterline []terrain.Point
	rocks     []terrain.Point
	dunes     []terrain.Point
}

func newBeach(tu tuning.Tuning) *beach {
	b := &beach{base: newBase("beach", tu, 3)}
	b.on(Placement{Find: near(&b.waterline, fixed(1))}, "dock", "pier", "lifeguard_tower", "boat_ramp")
	b.on(Placement{Find: around(&b.rocks, func(r int) float64 { return float64(r + 5) })}, "tide_pool", "lighthouse", "sea_cave")
	b.on(Placement{Find: cellWhere(terrainIs(terrain.Beach))}, "bonfire_pit", "shipwreck", "sandcastle", "volleyball_net")
	b.on(Placement{Find: near(&b.dunes, fixed(4))}, "dune_shack", "lookout")
	b.fallback = cellWhere(func(g *terrain.Grid, x, y int) bool { return isLand(g, x, y) })
	return b
}

// shoreDistance is 0 at the water-side edge and 1 at the opposite edge.
func shoreDistance(side string, x, y, w, h int) float64 {
	switch side {
	case "north":
		return float64(y) / float64(max(h-1, 1))
	case "east":
		return float64(w-1-x) / float64(max(w-1, 1))
	case "west":
		return float64(x) / float64(max(w-1, 1))
	default:
		return float64(h-1-y) / float64(max(h-1, 1))
	}
}

func (b *beach) GenerateFoundation(g *terrain.Grid, cfg *templates.Config, r *rng.RNG) {
	p := cfg.Params
	f := b.seedField(r)
	side := p.String("water_side", "south")
	waterFrac := p.Float("water_fraction", 0.3)
	beachW := p.Float("beach_width", 0.14)
	duneW := p.Float("dune_band", 0.1)
	amp := p.Float("elevation_amplitude", 4)
	scale := p.Float("elevation_scale", 70)

	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			t := shoreDistance(side, x, y, g.Width, g.Height)
			wobble := f.Elevation(x, y, scale) * 0.05
			d := t - waterFrac + wobble
			g.SetElevation(x, y, d*amp*6+f.Detail(x, y, 12)*0.4)
			switch {
			case d < 0:
				g.SetTerrain(x, y, terrain.Water)
			case d < beachW:
				g.SetTerrain(x, y, terrain.Beach)
			case d < beachW+duneW:
				g.SetTerrain(x, y, terrain.Sand)
			default:
				g.SetTerrain(x, y, terrain.Grass)
			}
		}
	}

	b.waterline = collectCells(g, 2, func(x, y int) bool {
		return g.Terrain(x, y) == terrain.Beach && touches(g, x, y, terrain.Water)
	})
	b.dunes = collectCells(g, 4, func(x, y int) bool {
		return g.Terrain(x, y) == terrain.Sand
	})

	// Rock outcrops sit on the sand, spread along the coast.
	b.rocks = nil
	n := p.Int("rock_outcrops", 4)
	sand := collectCells(g, 6, func(x, y int) bool {
		t := g.Terrain(x, y)
		return t == terrain.Beach || t == terrain.Sand
	})
	for i := 0; i < n*8 && len(b.rocks) < n && len(sand) > 0; i++ {
		c := sand[r.Intn(len(sand))]
		ok := true
		for _, q := range b.rocks {
			if c.Dist2(q) < 30*30 {
				ok = false
				break
			}
		}
		if !ok {
			continue
		}
		rad := r.IntRange(2, 4)
		fillDisc(g, c, rad, terrain.Rock)
		b.rocks = append(b.rocks, c)
	}

	// Boardwalk runs parallel to the shore through the dunes.
	if len(b.dunes) >= 2 {
		from := b.dunes[0]
		to := b.dunes[len(b.dunes)-1]
		b.carve(g, from, to, r, 1, terrain.Dirt)
	}
}
