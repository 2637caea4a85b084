package biome

import (
	"worldforge.ai/internal/worldgen/model"
	"worldforge.ai/internal/worldgen/rng"
	"worldforge.ai/internal/worldgen/templates"
	"worldforge.ai/internal/worldgen/terrain"
	"worldforge.ai/internal/worldgen/tuning"
)

type graveyard struct {
	base

	inner    terrain.Rect // inside the fence
	sections []terrain.Rect
	lawns    []terrain.Rect // the unplotted half of each section
	center   []terrain.Point
	gate     []terrain.Point
	paths    []terrain.Point
	edge     []terrain.Point
}

func newGraveyard(tu tuning.Tuning) *graveyard {
	gy := &graveyard{base: newBase("graveyard", tu, 2)}
	gy.on(Placement{Find: within(&gy.sections)}, "crypt", "grave", "open_grave", "family_plot")
	gy.on(Placement{Find: near(&gy.center, func(r int) int { return r + 4 })}, "angel_statue", "memorial", "obelisk")
	gy.on(Placement{Find: near(&gy.gate, func(r int) int { return r + 3 })}, "gatehouse", "lantern", "notice_board")
	gy.on(Placement{Find: near(&gy.paths, func(r int) int { return r + 2 })}, "bench", "urn")
	gy.on(Placement{Find: near(&gy.edge, fixed(1))}, "compost_heap", "dead_tree", "well")
	gy.fallback = within(&gy.lawns)
	gy.site = siteIn(func() []terrain.Rect { return gy.lawns })
	return gy
}

func (gy *graveyard) GenerateFoundation(g *terrain.Grid, cfg *templates.Config, r *rng.RNG) {
	p := cfg.Params
	f := gy.seedField(r)
	margin := max(p.Int("fence_margin", 4), 1)
	pathW := max(p.Int("path_width", 2), 1)
	cols := max(p.Int("section_cols", 2), 1)
	rows := max(p.Int("section_rows", 2), 1)
	spacing := max(p.Int("headstone_spacing", 4), 2)

	heightmap(g, f, p.Float("elevation_scale", 80), p.Float("elevation_amplitude", 2), 2)
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			g.SetTerrain(x, y, terrain.Grass)
			outside := x < margin || y < margin || x >= g.Width-margin || y >= g.Height-margin
			if outside {
				g.SetTerrain(x, y, terrain.Forest)
			}
		}
	}
	gy.inner = terrain.Rect{X: margin + 1, Y: margin + 1, W: g.Width - 2*margin - 2, H: g.Height - 2*margin - 2}

	// Fence line with a gate gap in the south side.
	cx := g.Width / 2
	gateHalf := pathW + 1
	for x := margin; x < g.Width-margin; x++ {
		for _, y := range []int{margin, g.Height - margin - 1} {
			if y == g.Height-margin-1 && x >= cx-gateHalf && x <= cx+gateHalf {
				continue
			}
			g.SetTerrain(x, y, terrain.Dirt)
			g.SetOccupancy(x, y, terrain.OccBlocked)
		}
	}
	for y := margin; y < g.Height-margin; y++ {
		for _, x := range []int{margin, g.Width - margin - 1} {
			g.SetTerrain(x, y, terrain.Dirt)
			g.SetOccupancy(x, y, terrain.OccBlocked)
		}
	}
	gy.gate = []terrain.Point{{X: cx, Y: g.Height - margin - 1 - pathW - 2}}

	// Central cross paths, plus the approach from the gate.
	cy := g.Height / 2
	gy.paths = nil
	gy.paths = append(gy.paths, straight(g, terrain.Point{X: cx, Y: margin + 1}, terrain.Point{X: cx, Y: g.Height - 1}, pathW/2, terrain.Dirt, g.Height)...)
	gy.paths = append(gy.paths, straight(g, terrain.Point{X: margin + 1, Y: cy}, terrain.Point{X: g.Width - margin - 2, Y: cy}, pathW/2, terrain.Dirt, g.Width)...)
	gy.center = []terrain.Point{{X: cx, Y: cy}}

	// Sections tile the quadrants left by the cross paths.
	gy.sections, gy.lawns = nil, nil
	if gy.inner.Empty() {
		return
	}
	gap := pathW + 1
	cellW := (gy.inner.W - gap*(cols-1)) / cols
	cellH := (gy.inner.H - gap*(rows-1)) / rows
	for j := 0; j < rows; j++ {
		for i := 0; i < cols; i++ {
			sec := terrain.Rect{
				X: gy.inner.X + i*(cellW+gap),
				Y: gy.inner.Y + j*(cellH+gap),
				W: cellW,
				H: cellH,
			}.Inset(pathW)
			if sec.Empty() {
				continue
			}
			gy.sections = append(gy.sections, sec)
			plot := terrain.Rect{X: sec.X, Y: sec.Y, W: sec.W, H: sec.H / 2}
			lawn := terrain.Rect{X: sec.X, Y: sec.Y + sec.H/2 + 1, W: sec.W, H: sec.H - sec.H/2 - 1}
			if !lawn.Empty() {
				gy.lawns = append(gy.lawns, lawn)
			}
			// Headstone rows in the plot half.
			for y := plot.Y + 1; y < plot.Y+plot.H; y += spacing {
				for x := plot.X + 1; x < plot.X+plot.W; x += spacing {
					g.SetTerrain(x, y, terrain.Dirt)
					g.SetOccupancy(x, y, terrain.OccDecoration)
				}
			}
		}
	}

	gy.edge = collectCells(g, 3, func(x, y int) bool {
		in := gy.inner.Inset(1)
		return g.Terrain(x, y) == terrain.Grass && !in.Contains(terrain.Point{X: x, Y: y}) && gy.inner.Contains(terrain.Point{X: x, Y: y})
	})
}

// PlaceSignatureBuildings puts the groundskeeper's house beside the gate.
func (gy *graveyard) PlaceSignatureBuildings(g *terrain.Grid, cfg *templates.Config, r *rng.RNG) []model.Building {
	if len(gy.gate) == 0 || !cfg.Params.Bool("groundskeeper_house", true) {
		return nil
	}
	const w, h = 8, 6
	gate := gy.gate[0]
	for _, dx := range []int{-14 - w, 14, -24 - w, 24} {
		rect := terrain.Rect{X: gate.X + dx, Y: gate.Y - h, W: w, H: h}
		gy.stats.BuildingAttempts++
		if g.ClaimRect(rect, terrain.OccBuilding, buildable) {
			gy.stats.BuildingPlaced++
			return []model.Building{{
				Type:      "groundskeeper_house",
				Center:    rect.Center(),
				Footprint: rect,
				Tags:      []string{"signature", "staffed"},
			}}
		}
	}
	gy.stats.BuildingFailed++
	return nil
}
