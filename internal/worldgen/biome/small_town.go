package biome

import (
	"worldforge.ai/internal/worldgen/model"
	"worldforge.ai/internal/worldgen/rng"
	"worldforge.ai/internal/worldgen/templates"
	"worldforge.ai/internal/worldgen/terrain"
	"worldforge.ai/internal/worldgen/tuning"
)

type smallTown struct {
	base

	square     []terrain.Point
	squareR    int
	crossHalf  int
	mainStreet []terrain.Point
	lots       []terrain.Rect
	townRadius int
}

func newSmallTown(tu tuning.Tuning) *smallTown {
	t := &smallTown{base: newBase("small_town", tu, 4)}
	t.on(Placement{Find: near(&t.square, func(r int) int { return max(t.squareR-r-1, 0) })}, "well", "gazebo", "fountain", "bandstand", "war_memorial")
	t.on(Placement{Find: around(&t.square, func(r int) float64 { return float64(t.squareR + r + 3) })}, "chapel", "church", "town_clock", "bell_tower")
	t.on(Placement{Find: near(&t.mainStreet, fixed(0))}, "notice_board", "market_stall", "water_trough", "hitching_post")
	t.on(Placement{Find: cellWhere(t.outskirts)}, "windmill", "scarecrow", "farm_field", "abandoned_shack")
	t.fallback = cellWhere(func(g *terrain.Grid, x, y int) bool { return isLand(g, x, y) })
	t.site = siteIn(func() []terrain.Rect { return t.lots })
	return t
}

func (t *smallTown) outskirts(g *terrain.Grid, x, y int) bool {
	c := terrain.Point{X: g.Width / 2, Y: g.Height / 2}
	tt := g.Terrain(x, y)
	return (tt == terrain.Grass || tt == terrain.Forest) && terrain.Point{X: x, Y: y}.Dist2(c) > t.townRadius*t.townRadius
}

func (t *smallTown) GenerateFoundation(g *terrain.Grid, cfg *templates.Config, r *rng.RNG) {
	p := cfg.Params
	f := t.seedField(r)
	mainW := max(p.Int("main_street_width", 4), 1)
	crossW := max(p.Int("cross_street_width", 3), 1)
	t.squareR = max(p.Int("square_radius", 18), 4)
	depth := max(p.Int("lot_depth", 14), 6)
	cx, cy := g.Width/2, g.Height/2
	t.townRadius = min(g.Width, g.Height) * 7 / 20

	heightmap(g, f, p.Float("elevation_scale", 120), p.Float("elevation_amplitude", 4), 3)
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			d2 := (x-cx)*(x-cx) + (y-cy)*(y-cy)
			if d2 > t.townRadius*t.townRadius && f.Detail(x, y, 26) > 0.68 {
				g.SetTerrain(x, y, terrain.Forest)
			} else {
				g.SetTerrain(x, y, terrain.Grass)
			}
		}
	}

	mainHalf := mainW / 2
	t.crossHalf = crossW / 2
	straight(g, terrain.Point{X: 0, Y: cy}, terrain.Point{X: g.Width - 1, Y: cy}, mainHalf, terrain.Road, g.Width)
	straight(g, terrain.Point{X: cx, Y: 0}, terrain.Point{X: cx, Y: g.Height - 1}, t.crossHalf, terrain.Road, g.Height)

	center := terrain.Point{X: cx, Y: cy}
	fillDisc(g, center, t.squareR, terrain.Dirt)
	t.square = []terrain.Point{center}

	// Lots face both streets, from the square out to the town edge.
	t.lots = nil
	inSquare := func(rc terrain.Rect) bool {
		for _, c := range []terrain.Point{{X: rc.X, Y: rc.Y}, {X: rc.X + rc.W - 1, Y: rc.Y}, {X: rc.X, Y: rc.Y + rc.H - 1}, {X: rc.X + rc.W - 1, Y: rc.Y + rc.H - 1}} {
			if c.Dist2(center) <= (t.squareR+2)*(t.squareR+2) {
				return true
			}
		}
		return false
	}
	add := func(rc terrain.Rect) {
		if rc.X < 0 || rc.Y < 0 || rc.X+rc.W > g.Width || rc.Y+rc.H > g.Height || inSquare(rc) {
			return
		}
		if rc.Center().Dist2(center) > t.townRadius*t.townRadius {
			return
		}
		if !g.RectFits(rc, buildable) {
			return
		}
		for _, l := range t.lots {
			if rc.X < l.X+l.W && l.X < rc.X+rc.W && rc.Y < l.Y+l.H && l.Y < rc.Y+rc.H {
				return
			}
		}
		t.lots = append(t.lots, rc)
	}
	for x0 := 0; x0+depth <= g.Width; x0 += depth + 2 {
		add(terrain.Rect{X: x0, Y: cy - mainHalf - 2 - depth, W: depth, H: depth})
		add(terrain.Rect{X: x0, Y: cy + mainHalf + 2, W: depth, H: depth})
	}
	for y0 := 0; y0+depth <= g.Height; y0 += depth + 2 {
		add(terrain.Rect{X: cx - t.crossHalf - 2 - depth, Y: y0, W: depth, H: depth})
		add(terrain.Rect{X: cx + t.crossHalf + 2, Y: y0, W: depth, H: depth})
	}

	t.mainStreet = collectCells(g, 3, func(x, y int) bool {
		return g.Terrain(x, y) == terrain.Grass && touches(g, x, y, terrain.Road)
	})
}

// PlaceSignatureBuildings puts the town hall on a corner of the square.
func (t *smallTown) PlaceSignatureBuildings(g *terrain.Grid, cfg *templates.Config, r *rng.RNG) []model.Building {
	if len(t.square) == 0 || !cfg.Params.Bool("town_hall", true) {
		return nil
	}
	const w, h = 14, 10
	c := t.square[0]
	off := t.crossHalf + 2
	candidates := []terrain.Rect{
		{X: c.X + off, Y: c.Y - t.squareR - 2 - h, W: w, H: h},
		{X: c.X - off - w, Y: c.Y - t.squareR - 2 - h, W: w, H: h},
		{X: c.X + off, Y: c.Y + t.squareR + 3, W: w, H: h},
		{X: c.X - off - w, Y: c.Y + t.squareR + 3, W: w, H: h},
	}
	for _, rect := range candidates {
		t.stats.BuildingAttempts++
		if g.ClaimRect(rect, terrain.OccBuilding, buildable) {
			t.stats.BuildingPlaced++
			return []model.Building{{
				Type:      "town_hall",
				Center:    rect.Center(),
				Footprint: rect,
				Tags:      []string{"signature", "staffed"},
			}}
		}
	}
	t.stats.BuildingFailed++
	return nil
}
