package biome

import (
	"worldforge.ai/internal/worldgen/rng"
	"worldforge.ai/internal/worldgen/templates"
	"worldforge.ai/internal/worldgen/terrain"
	"worldforge.ai/internal/worldgen/tuning"
)

type city struct {
	base

	blocks        []terrain.Rect // buildable lot interiors
	plazas        []terrain.Rect
	plazaCenters  []terrain.Point
	intersections []terrain.Point
	sidewalks     []terrain.Point
}

func newCity(tu tuning.Tuning) *city {
	c := &city{base: newBase("city", tu, 2)}
	c.on(Placement{Find: near(&c.plazaCenters, fixed(6))}, "fountain", "statue", "bandstand", "police_kiosk")
	c.on(Placement{Find: near(&c.intersections, func(r int) int { return r + 3 })}, "traffic_light", "manhole", "crosswalk")
	c.on(Placement{Find: near(&c.sidewalks, fixed(0))}, "bus_stop", "newsstand", "phone_booth", "hydrant")
	c.on(Placement{Find: within(&c.blocks)}, "alley", "dumpster", "parking_lot")
	c.fallback = within(&c.blocks)
	c.site = siteIn(func() []terrain.Rect { return c.blocks })
	return c
}

func (c *city) GenerateFoundation(g *terrain.Grid, cfg *templates.Config, r *rng.RNG) {
	p := cfg.Params
	f := c.seedField(r)
	block := max(p.Int("block_size", 40), 8)
	street := max(p.Int("street_width", 4), 1)
	walk := max(p.Int("sidewalk_width", 1), 0)
	pitch := block + street

	heightmap(g, f, p.Float("elevation_scale", 150), p.Float("elevation_amplitude", 3), 2)
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			mx, my := x%pitch, y%pitch
			switch {
			case mx < street || my < street:
				g.SetTerrain(x, y, terrain.Road)
				g.SetPath(x, y, true)
			case mx < street+walk || my < street+walk || mx >= pitch-walk || my >= pitch-walk:
				g.SetTerrain(x, y, terrain.Sidewalk)
				g.SetPath(x, y, true)
			default:
				g.SetTerrain(x, y, terrain.Grass)
			}
		}
	}

	c.blocks, c.plazas, c.plazaCenters, c.intersections = nil, nil, nil, nil
	for by := 0; by*pitch < g.Height; by++ {
		for bx := 0; bx*pitch < g.Width; bx++ {
			ox, oy := bx*pitch, by*pitch
			c.intersections = append(c.intersections, terrain.Point{X: ox + street/2, Y: oy + street/2})
			lot := terrain.Rect{X: ox + street + walk, Y: oy + street + walk, W: block - 2*walk, H: block - 2*walk}
			if lot.X+lot.W > g.Width || lot.Y+lot.H > g.Height || lot.Empty() {
				continue
			}
			c.blocks = append(c.blocks, lot)
		}
	}

	// Turn a few blocks into paved plazas.
	n := p.Int("plaza_count", 2)
	for i := 0; i < n && len(c.blocks) > 1; i++ {
		k := r.Intn(len(c.blocks))
		pl := c.blocks[k]
		c.blocks = append(c.blocks[:k:k], c.blocks[k+1:]...)
		g.FillRect(pl, terrain.Dirt)
		c.plazas = append(c.plazas, pl)
		c.plazaCenters = append(c.plazaCenters, pl.Center())
	}

	c.sidewalks = collectCells(g, 3, func(x, y int) bool {
		return g.Terrain(x, y) == terrain.Sidewalk
	})
}
