package biome

import (
	"worldforge.ai/internal/worldgen/noise"
	"worldforge.ai/internal/worldgen/rng"
	"worldforge.ai/internal/worldgen/templates"
	"worldforge.ai/internal/worldgen/terrain"
	"worldforge.ai/internal/worldgen/tuning"
)

type suburban struct {
	base

	culdesacs []terrain.Point
	bulbR     int
	lots      []terrain.Rect
	parks     []terrain.Point
	roadside  []terrain.Point
}

func newSuburban(tu tuning.Tuning) *suburban {
	s := &suburban{base: newBase("suburban", tu, 3)}
	s.on(Placement{Find: near(&s.parks, fixed(10))}, "playground", "basketball_hoop", "pond", "dog_park")
	s.on(Placement{Find: around(&s.culdesacs, func(r int) float64 { return float64(s.bulbR + r + 2) })}, "mailbox_cluster", "street_lamp", "block_party")
	s.on(Placement{Find: within(&s.lots)}, "treehouse", "garage_sale", "swimming_pool", "garden")
	s.on(Placement{Find: near(&s.roadside, fixed(0))}, "bus_stop", "lemonade_stand")
	s.fallback = within(&s.lots)
	s.site = siteIn(func() []terrain.Rect { return s.lots })
	return s
}

func (s *suburban) GenerateFoundation(g *terrain.Grid, cfg *templates.Config, r *rng.RNG) {
	p := cfg.Params
	f := s.seedField(r)
	roadW := max(p.Int("road_width", 3), 1)
	s.bulbR = max(p.Int("culdesac_radius", 8), 3)
	lot := max(p.Int("lot_size", 16), 6)
	parkR := p.Int("park_radius", 22)
	n := p.Int("num_culdesacs", 4)

	heightmap(g, f, p.Float("elevation_scale", 120), p.Float("elevation_amplitude", 5), 3)
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			g.SetTerrain(x, y, terrain.Grass)
		}
	}

	// Arterial across the middle, stems branching to cul-de-sac bulbs.
	mid := g.Height / 2
	half := roadW / 2
	straight(g, terrain.Point{X: 0, Y: mid}, terrain.Point{X: g.Width - 1, Y: mid}, half, terrain.Road, g.Width)

	s.culdesacs, s.lots = nil, nil
	stemLen := g.Height/2 - s.bulbR - 4
	for i := 0; i < n && stemLen > lot; i++ {
		x := (i + 1) * g.Width / (n + 1)
		dir := 1
		if i%2 == 1 {
			dir = -1
		}
		end := terrain.Point{X: x, Y: mid + dir*stemLen}
		straight(g, terrain.Point{X: x, Y: mid}, end, half, terrain.Road, stemLen+1)
		for yy := end.Y - s.bulbR; yy <= end.Y+s.bulbR; yy++ {
			for xx := end.X - s.bulbR; xx <= end.X+s.bulbR; xx++ {
				if (xx-end.X)*(xx-end.X)+(yy-end.Y)*(yy-end.Y) <= s.bulbR*s.bulbR && g.InBounds(xx, yy) {
					g.SetTerrain(xx, yy, terrain.Road)
					g.SetPath(xx, yy, true)
				}
			}
		}
		s.culdesacs = append(s.culdesacs, end)

		// Lots line both sides of the stem.
		for k := half + 3; k+lot <= stemLen-s.bulbR; k += lot + 2 {
			y0 := mid + dir*k
			if dir < 0 {
				y0 -= lot
			}
			for _, x0 := range []int{x - half - 2 - lot, x + half + 3} {
				rect := terrain.Rect{X: x0, Y: y0, W: lot, H: lot}
				if rect.X >= 0 && rect.Y >= 0 && rect.X+rect.W <= g.Width && rect.Y+rect.H <= g.Height {
					s.lots = append(s.lots, rect)
				}
			}
		}
	}

	// Lots along the arterial between stems.
	for x0 := 2; x0+lot < g.Width; x0 += lot + 2 {
		for _, y0 := range []int{mid - half - 2 - lot, mid + half + 3} {
			rect := terrain.Rect{X: x0, Y: y0, W: lot, H: lot}
			if rect.Y >= 0 && rect.Y+rect.H <= g.Height && g.RectFits(rect, buildable) && !s.overlapsLot(rect) {
				s.lots = append(s.lots, rect)
			}
		}
	}

	// One park on the side of the arterial with more room.
	s.parks = nil
	if parkR > 0 {
		py := mid / 2
		if r.Chance(0.5) {
			py = mid + (g.Height-mid)/2
		}
		c := terrain.Point{X: r.IntRange(parkR, max(parkR, g.Width-parkR-1)), Y: py}
		for y := c.Y - parkR; y <= c.Y+parkR; y++ {
			for x := c.X - parkR; x <= c.X+parkR; x++ {
				if noise.RadialFalloff(x, y, c.X, c.Y, float64(parkR)) > 0 && g.Terrain(x, y) == terrain.Grass && f.Detail(x, y, 8) > 0.7 {
					g.SetTerrain(x, y, terrain.Forest)
				}
			}
		}
		s.parks = append(s.parks, c)
	}

	s.roadside = collectCells(g, 4, func(x, y int) bool {
		return g.Terrain(x, y) == terrain.Grass && touches(g, x, y, terrain.Road)
	})
}

func (s *suburban) overlapsLot(rect terrain.Rect) bool {
	for _, l := range s.lots {
		if rect.X < l.X+l.W && l.X < rect.X+rect.W && rect.Y < l.Y+l.H && l.Y < rect.Y+rect.H {
			return true
		}
	}
	return false
}
