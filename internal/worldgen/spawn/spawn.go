// Package spawn resolves declarative spawn specs to concrete, non-colliding
// cells in already generated regions.
package spawn

import (
	"errors"
	"fmt"
	"log"

	"github.com/zyedidia/generic/mapset"

	"worldforge.ai/internal/worldgen/entities"
	"worldforge.ai/internal/worldgen/model"
	"worldforge.ai/internal/worldgen/rng"
	"worldforge.ai/internal/worldgen/terrain"
	"worldforge.ai/internal/worldgen/tuning"
)

// ErrRequiredSpawn aborts the whole spawn pass.
var ErrRequiredSpawn = errors.New("required spawn failed")

// Region is the read-only view of one generated region.
type Region struct {
	ID        string
	Grid      *terrain.Grid
	POIs      []model.POI
	Buildings []model.Building
	// Offset is the region's world origin in meters (x, z).
	Offset [2]float64
}

type Resolver struct {
	Pool   entities.Pool // nil accepts explicit entity ids unchecked
	Tuning tuning.Tuning
	Logger *log.Logger
}

type Result struct {
	Spawns   []model.PlacedSpawn
	Warnings []string
	Dropped  int
}

// Expand splits count>1 specs into count independent specs with ids
// <id>_0 .. <id>_(count-1).
func Expand(specs []model.SpawnSpec) []model.SpawnSpec {
	out := make([]model.SpawnSpec, 0, len(specs))
	for _, s := range specs {
		if s.Count <= 1 {
			s.Count = 1
			out = append(out, s)
			continue
		}
		for i := 0; i < s.Count; i++ {
			c := s
			c.ID = fmt.Sprintf("%s_%d", s.ID, i)
			c.Count = 1
			out = append(out, c)
		}
	}
	return out
}

type pending struct {
	spec       model.SpawnSpec
	region     *Region
	candidates []entities.Entity
	anchors    []anchor
}

type anchor struct {
	cell terrain.Point
	name string
}

func (rs *Resolver) logf(format string, args ...any) {
	if rs.Logger != nil {
		rs.Logger.Printf(format, args...)
	}
}

// Resolve runs entity resolution, expansion, validation and placement in that
// order. Any required failure returns an error wrapping ErrRequiredSpawn and
// no spawns.
func (rs *Resolver) Resolve(specs []model.SpawnSpec, regions []Region, r *rng.RNG) (Result, error) {
	tu := rs.Tuning
	tu.Normalize()

	var res Result
	fail := func(s model.SpawnSpec, format string, args ...any) error {
		msg := fmt.Sprintf("spawn %s: "+format, append([]any{s.ID}, args...)...)
		if s.Required {
			return fmt.Errorf("%s: %w", msg, ErrRequiredSpawn)
		}
		res.Warnings = append(res.Warnings, msg)
		res.Dropped++
		rs.logf("warn: %s", msg)
		return nil
	}

	byID := make(map[string]*Region, len(regions))
	for i := range regions {
		byID[regions[i].ID] = &regions[i]
	}

	// Entity candidates per declared spec, then expansion.
	var declared []pending
	for _, s := range specs {
		cands, ok := rs.candidates(s)
		if !ok {
			if err := fail(s, "no entity matches (id=%q archetype=%q pool=%q)", s.EntityID, s.Archetype, s.Pool); err != nil {
				return Result{}, err
			}
			continue
		}
		for _, e := range Expand([]model.SpawnSpec{s}) {
			declared = append(declared, pending{spec: e, candidates: cands})
		}
	}

	// Validate every instance before placing any.
	valid := declared[:0]
	for _, p := range declared {
		reg, ok := byID[p.spec.Region]
		if !ok {
			if err := fail(p.spec, "unknown region %q", p.spec.Region); err != nil {
				return Result{}, err
			}
			continue
		}
		p.region = reg
		switch p.spec.Placement {
		case model.PlaceInterior:
			p.anchors = buildingAnchors(reg, p.spec.TypeFilter)
			if len(p.anchors) == 0 {
				if err := fail(p.spec, "no building %q in region %s", p.spec.TypeFilter, reg.ID); err != nil {
					return Result{}, err
				}
				continue
			}
		case model.PlacePOI:
			p.anchors = poiAnchors(reg, p.spec.TypeFilter)
			if len(p.anchors) == 0 {
				if err := fail(p.spec, "no poi %q in region %s", p.spec.TypeFilter, reg.ID); err != nil {
					return Result{}, err
				}
				continue
			}
		case model.PlacePath, model.PlaceExterior:
		default:
			if err := fail(p.spec, "unknown placement %q", p.spec.Placement); err != nil {
				return Result{}, err
			}
			continue
		}
		valid = append(valid, p)
	}

	reserved := mapset.New[string]() // entities held by unique spawns
	usedAny := mapset.New[string]()  // entities placed at least once
	taken := map[string]mapset.Set[terrain.Point]{}
	placed := map[string][]terrain.Point{}
	pathCells := map[string][]terrain.Point{}

	for _, p := range valid {
		s := p.spec
		ent, ok := pickEntity(p.candidates, s.Unique, reserved, usedAny, r)
		if !ok {
			if err := fail(s, "every matching entity is already placed"); err != nil {
				return Result{}, err
			}
			continue
		}

		reg := p.region
		var cell terrain.Point
		var anchorName string
		switch s.Placement {
		case model.PlaceInterior, model.PlacePOI:
			used, seen := taken[reg.ID]
			if !seen {
				used = mapset.New[terrain.Point]()
				taken[reg.ID] = used
			}
			a := pickAnchor(p.anchors, used, r)
			used.Put(a.cell)
			cell, anchorName, ok = a.cell, a.name, true
		case model.PlacePath:
			cells, seen := pathCells[reg.ID]
			if !seen {
				cells = reg.Grid.PathCells()
				pathCells[reg.ID] = cells
			}
			cell, ok = rs.separated(s, tu, placed[reg.ID], r, func() (terrain.Point, bool) {
				if len(cells) == 0 {
					return terrain.NoPoint, false
				}
				return cells[r.Intn(len(cells))], true
			})
		case model.PlaceExterior:
			box := exteriorBox(reg, tu.ExteriorPadding)
			cell, ok = rs.separated(s, tu, placed[reg.ID], r, func() (terrain.Point, bool) {
				c := terrain.Point{X: box.X + r.Intn(box.W), Y: box.Y + r.Intn(box.H)}
				return c, walkable(reg.Grid, c)
			})
		}
		if !ok {
			if err := fail(s, "no free cell after %d tries", tu.SpawnMaxRetries); err != nil {
				return Result{}, err
			}
			continue
		}

		if s.Unique {
			reserved.Put(ent.ID)
		}
		usedAny.Put(ent.ID)
		placed[reg.ID] = append(placed[reg.ID], cell)

		pos := reg.Grid.CellToWorld(cell.X, cell.Y)
		pos[0] += reg.Offset[0]
		pos[2] += reg.Offset[1]
		res.Spawns = append(res.Spawns, model.PlacedSpawn{
			ID:        s.ID,
			Kind:      s.Kind,
			EntityID:  ent.ID,
			Region:    reg.ID,
			Placement: s.Placement,
			Cell:      cell,
			Position:  pos,
			Facing:    s.Facing,
			Scale:     s.Scale,
			Variant:   s.Variant,
			Required:  s.Required,
			Anchor:    anchorName,
		})
	}
	return res, nil
}

// candidates resolves in priority order: explicit id, archetype (within pool
// when set), pool, filter.
func (rs *Resolver) candidates(s model.SpawnSpec) ([]entities.Entity, bool) {
	if s.EntityID != "" {
		if rs.Pool == nil {
			return []entities.Entity{{ID: s.EntityID}}, true
		}
		e, ok := rs.Pool.ByID(s.EntityID)
		if !ok {
			return nil, false
		}
		return []entities.Entity{e}, true
	}
	if rs.Pool == nil {
		return nil, false
	}
	if s.Archetype != "" {
		if list := rs.Pool.ByArchetype(s.Archetype, s.Pool); len(list) > 0 {
			return list, true
		}
		return nil, false
	}
	if s.Pool != "" {
		if list := rs.Pool.InPool(s.Pool); len(list) > 0 {
			return list, true
		}
		return nil, false
	}
	if !s.Filter.Empty() {
		if list := rs.Pool.Match(s.Filter); len(list) > 0 {
			return list, true
		}
	}
	return nil, false
}

// pickEntity never returns an entity a unique spawn holds; a unique spawn also
// skips entities placed before.
func pickEntity(cands []entities.Entity, unique bool, reserved, usedAny mapset.Set[string], r *rng.RNG) (entities.Entity, bool) {
	free := make([]entities.Entity, 0, len(cands))
	for _, e := range cands {
		if reserved.Has(e.ID) {
			continue
		}
		if unique && usedAny.Has(e.ID) {
			continue
		}
		free = append(free, e)
	}
	switch len(free) {
	case 0:
		return entities.Entity{}, false
	case 1:
		return free[0], true
	}
	return free[r.Intn(len(free))], true
}

func buildingAnchors(reg *Region, typ string) []anchor {
	var out []anchor
	for _, b := range reg.Buildings {
		if typ == "" || b.Type == typ {
			out = append(out, anchor{cell: b.Center, name: b.Type})
		}
	}
	return out
}

func poiAnchors(reg *Region, typ string) []anchor {
	var out []anchor
	for _, p := range reg.POIs {
		if typ == "" || p.Type == typ {
			out = append(out, anchor{cell: p.Center, name: p.Type})
		}
	}
	return out
}

// pickAnchor prefers anchors no earlier spawn stands on.
func pickAnchor(list []anchor, taken mapset.Set[terrain.Point], r *rng.RNG) anchor {
	free := make([]anchor, 0, len(list))
	for _, a := range list {
		if !taken.Has(a.cell) {
			free = append(free, a)
		}
	}
	if len(free) == 0 {
		free = list
	}
	if len(free) == 1 {
		return free[0]
	}
	return free[r.Intn(len(free))]
}

// separated draws up to SpawnMaxRetries candidates and keeps the first that is
// at least the spawn radius from every spawn already in the region.
func (rs *Resolver) separated(s model.SpawnSpec, tu tuning.Tuning, others []terrain.Point, r *rng.RNG, draw func() (terrain.Point, bool)) (terrain.Point, bool) {
	radius := s.Radius
	if radius <= 0 {
		radius = tu.SpawnRadius
	}
	r2 := radius * radius
	for i := 0; i < tu.SpawnMaxRetries; i++ {
		c, ok := draw()
		if !ok {
			continue
		}
		apart := true
		for _, o := range others {
			if c.Dist2(o) < r2 {
				apart = false
				break
			}
		}
		if apart {
			return c, true
		}
	}
	return terrain.NoPoint, false
}

// exteriorBox bounds every building and POI footprint, padded and clamped to
// the grid. A region with no features uses the whole grid.
func exteriorBox(reg *Region, pad int) terrain.Rect {
	g := reg.Grid
	minX, minY, maxX, maxY := g.Width, g.Height, -1, -1
	grow := func(x0, y0, x1, y1 int) {
		minX, minY = min(minX, x0), min(minY, y0)
		maxX, maxY = max(maxX, x1), max(maxY, y1)
	}
	for _, b := range reg.Buildings {
		f := b.Footprint
		grow(f.X, f.Y, f.X+f.W-1, f.Y+f.H-1)
	}
	for _, p := range reg.POIs {
		grow(p.Center.X-p.Radius, p.Center.Y-p.Radius, p.Center.X+p.Radius, p.Center.Y+p.Radius)
	}
	if maxX < 0 {
		return terrain.Rect{W: g.Width, H: g.Height}
	}
	minX, minY = max(minX-pad, 0), max(minY-pad, 0)
	maxX, maxY = min(maxX+pad, g.Width-1), min(maxY+pad, g.Height-1)
	return terrain.Rect{X: minX, Y: minY, W: maxX - minX + 1, H: maxY - minY + 1}
}

func walkable(g *terrain.Grid, c terrain.Point) bool {
	if !g.InBounds(c.X, c.Y) || g.Terrain(c.X, c.Y) == terrain.Water {
		return false
	}
	o := g.Occupancy(c.X, c.Y)
	return o != terrain.OccBuilding && o != terrain.OccBlocked
}
