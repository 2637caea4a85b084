package biome

import (
	"worldforge.ai/internal/worldgen/model"
	"worldforge.ai/internal/worldgen/noise"
	"worldforge.ai/internal/worldgen/rng"
	"worldforge.ai/internal/worldgen/terrain"
	"worldforge.ai/internal/worldgen/tuning"
)

// Strategy proposes one candidate POI center for a footprint of radius cells.
// ok=false means no candidate this attempt.
type Strategy func(g *terrain.Grid, radius int, r *rng.RNG) (terrain.Point, bool)

// Placement binds a strategy to the landmark list behind it.
type Placement struct {
	Find Strategy
	// Available reports whether the landmark list still has entries. When it
	// returns false the biome fallback is used instead. Nil means always.
	Available func() bool
	// Claimed is told about every successful claim made through Find.
	Claimed func(p terrain.Point)
}

// BuildingSite proposes one footprint rectangle of w×h cells.
type BuildingSite func(g *terrain.Grid, w, h int, r *rng.RNG) (terrain.Rect, bool)

// base carries the shared contract pieces every biome embeds.
type base struct {
	kind          string
	tu            tuning.Tuning
	stats         Stats
	field         *noise.Field
	defaultRadius int

	strategies map[string]Placement
	fallback   Strategy
	site       BuildingSite
}

func newBase(kind string, tu tuning.Tuning, defaultRadius int) base {
	return base{
		kind:          kind,
		tu:            tu,
		defaultRadius: defaultRadius,
		strategies:    map[string]Placement{},
	}
}

func (b *base) Type() string { return b.kind }

func (b *base) Stats() Stats { return b.stats }

// seedField draws the noise seed; every foundation calls it exactly once first.
func (b *base) seedField(r *rng.RNG) *noise.Field {
	b.field = noise.NewField(r.Int63())
	return b.field
}

func (b *base) on(strategy Placement, types ...string) {
	for _, t := range types {
		b.strategies[t] = strategy
	}
}

// PlacePOI runs up to MaxPOIAttempts candidates from the type's strategy (or
// the fallback) and claims the first in-bounds empty disc as POI occupancy.
func (b *base) PlacePOI(g *terrain.Grid, req POIRequest, r *rng.RNG) *model.POI {
	if req.Type == "" {
		return nil
	}
	radius := req.Radius
	if radius <= 0 {
		radius = b.defaultRadius
	}
	pl, mapped := b.strategies[req.Type]

	for i := 0; i < b.tu.MaxPOIAttempts; i++ {
		b.stats.POIAttempts++
		find := b.fallback
		useLandmark := mapped && (pl.Available == nil || pl.Available())
		if useLandmark {
			find = pl.Find
		} else {
			b.stats.FallbackAttempts++
		}
		if find == nil {
			continue
		}
		p, ok := find(g, radius, r)
		if !ok || !g.DiscInBounds(p.X, p.Y, radius) {
			continue
		}
		if !g.ClaimArea(p.X, p.Y, radius, terrain.OccPOI) {
			continue
		}
		if useLandmark && pl.Claimed != nil {
			pl.Claimed(p)
		}
		b.stats.POIPlaced++
		return &model.POI{
			Type:     req.Type,
			Center:   p,
			Radius:   radius,
			Tags:     model.NormalizeTags(req.Tags),
			Required: req.Required,
		}
	}
	b.stats.POIFailed++
	return nil
}

func buildable(t terrain.Terrain) bool {
	return t == terrain.Grass || t == terrain.Sand
}

// PlaceBuilding tries exactly MaxBuildingAttempts footprints on grass or sand.
func (b *base) PlaceBuilding(g *terrain.Grid, req BuildingRequest, r *rng.RNG) *model.Building {
	w, h := req.Width, req.Height
	if w <= 0 {
		w = 1
	}
	if h <= 0 {
		h = w
	}
	site := b.site
	if site == nil {
		site = anySite
	}
	for i := 0; i < b.tu.MaxBuildingAttempts; i++ {
		b.stats.BuildingAttempts++
		rect, ok := site(g, w, h, r)
		if !ok {
			continue
		}
		if !g.ClaimRect(rect, terrain.OccBuilding, buildable) {
			continue
		}
		b.stats.BuildingPlaced++
		return &model.Building{
			Type:      req.Type,
			Center:    rect.Center(),
			Footprint: rect,
			Tags:      model.NormalizeTags(req.Tags),
		}
	}
	b.stats.BuildingFailed++
	return nil
}

// anySite is a uniform rectangle anywhere on the grid.
func anySite(g *terrain.Grid, w, h int, r *rng.RNG) (terrain.Rect, bool) {
	if w > g.Width || h > g.Height {
		return terrain.Rect{}, false
	}
	x := r.Intn(g.Width - w + 1)
	y := r.Intn(g.Height - h + 1)
	return terrain.Rect{X: x, Y: y, W: w, H: h}, true
}

// siteIn returns a site that picks a random rect from rects and a random
// footprint position inside it.
func siteIn(rects func() []terrain.Rect) BuildingSite {
	return func(g *terrain.Grid, w, h int, r *rng.RNG) (terrain.Rect, bool) {
		list := rects()
		if len(list) == 0 {
			return anySite(g, w, h, r)
		}
		box := list[r.Intn(len(list))]
		if box.W < w || box.H < h {
			return terrain.Rect{}, false
		}
		x := box.X + r.Intn(box.W-w+1)
		y := box.Y + r.Intn(box.H-h+1)
		return terrain.Rect{X: x, Y: y, W: w, H: h}, true
	}
}

// siteNear centers footprints within spread cells of a random anchor.
func siteNear(anchors func() []terrain.Point, spread int) BuildingSite {
	return func(g *terrain.Grid, w, h int, r *rng.RNG) (terrain.Rect, bool) {
		list := anchors()
		if len(list) == 0 {
			return anySite(g, w, h, r)
		}
		a := list[r.Intn(len(list))]
		cx := a.X + r.IntRange(-spread, spread)
		cy := a.Y + r.IntRange(-spread, spread)
		return terrain.Rect{X: cx - w/2, Y: cy - h/2, W: w, H: h}, true
	}
}
