// Package pipeline runs the ordered generation passes over a world spec and
// assembles the result.
package pipeline

import (
	"errors"
	"fmt"
	"log"
	"math"

	"worldforge.ai/internal/worldgen/biome"
	"worldforge.ai/internal/worldgen/entities"
	"worldforge.ai/internal/worldgen/model"
	"worldforge.ai/internal/worldgen/rng"
	"worldforge.ai/internal/worldgen/spawn"
	"worldforge.ai/internal/worldgen/spec"
	"worldforge.ai/internal/worldgen/templates"
	"worldforge.ai/internal/worldgen/terrain"
	"worldforge.ai/internal/worldgen/tuning"
)

type Options struct {
	Logger    *log.Logger
	Tuning    tuning.Tuning
	Templates *templates.Catalog // nil uses the embedded defaults
	Entities  entities.Pool      // nil accepts explicit spawn entity ids as-is
	Events    EventSink
}

// RegionStats counts one region's passes.
type RegionStats struct {
	Biome biome.Stats `json:"biome"`

	RequiredPOIAttempts int `json:"required_poi_attempts"`
	RequiredPOIPlaced   int `json:"required_poi_placed"`
	RequiredPOIFailed   int `json:"required_poi_failed"`
	OptionalPOIRolled   int `json:"optional_poi_rolled"`
	OptionalPOIPlaced   int `json:"optional_poi_placed"`
	OptionalPOIFailed   int `json:"optional_poi_failed"`

	TemplatePOIs       templates.Allocation `json:"template_pois"`
	SignatureBuildings int                  `json:"signature_buildings"`
	TemplateBuildings  templates.Allocation `json:"template_buildings"`
	Decorations        int                  `json:"decorations"`
}

type RegionResult struct {
	ID      string  `json:"id"`
	Type    string  `json:"type"`
	SizeKm2 float64 `json:"size_km2"`
	// Offset is the world origin of the grid in meters (x, z).
	Offset      [2]float64       `json:"offset"`
	Grid        *terrain.Grid    `json:"-"`
	POIs        []model.POI      `json:"pois"`
	Buildings   []model.Building `json:"buildings"`
	Decorations map[string]int   `json:"decorations,omitempty"`
	Stats       RegionStats      `json:"stats"`
	// Err is set when the region could not be generated; it has no grid.
	Err string `json:"error,omitempty"`
}

// Stats aggregates the run.
type Stats struct {
	Regions          int      `json:"regions"`
	RegionsFailed    int      `json:"regions_failed"`
	POIs             int      `json:"pois"`
	Buildings        int      `json:"buildings"`
	Decorations      int      `json:"decorations"`
	PlacementFailed  int      `json:"placement_failed"`
	RequiredFailures int      `json:"required_failures"`
	Connectors       int      `json:"connectors"`
	Spawns           int      `json:"spawns"`
	SpawnsDropped    int      `json:"spawns_dropped"`
	SpawnError       string   `json:"spawn_error,omitempty"`
	Warnings         []string `json:"warnings,omitempty"`
}

type Result struct {
	Name       string              `json:"name"`
	Seed       int64               `json:"seed"`
	Regions    []RegionResult      `json:"regions"`
	Connectors []model.Connector   `json:"connectors"`
	Spawns     []model.PlacedSpawn `json:"spawns"`
	Stats      Stats               `json:"stats"`

	// SpawnErr is the fatal spawn error (wrapping spawn.ErrRequiredSpawn), if any.
	SpawnErr error `json:"-"`
}

// Region looks a region up by id.
func (res *Result) Region(id string) (*RegionResult, bool) {
	for i := range res.Regions {
		if res.Regions[i].ID == id {
			return &res.Regions[i], true
		}
	}
	return nil, false
}

type runner struct {
	opts Options
	tu   tuning.Tuning
	cat  *templates.Catalog
	r    *rng.RNG
	res  *Result
}

// Generate runs every pass once, in order, on a single stream seeded from the
// spec. Only an invalid spec is an error; region and spawn failures are
// recorded in the result.
func Generate(w *spec.WorldSpec, opts Options) (*Result, error) {
	if w == nil {
		return nil, errors.New("pipeline: nil world spec")
	}
	w.Normalize()
	if err := w.Validate(); err != nil {
		return nil, fmt.Errorf("world spec: %w", err)
	}
	cat := opts.Templates
	if cat == nil {
		var err error
		if cat, err = templates.Default(); err != nil {
			return nil, fmt.Errorf("templates: %w", err)
		}
	}
	tu := opts.Tuning
	tu.Normalize()

	run := &runner{
		opts: opts,
		tu:   tu,
		cat:  cat,
		r:    rng.New(w.Seed),
		res:  &Result{Name: w.Name, Seed: w.Seed},
	}
	run.emit(Event{Type: EventRunStart, Data: map[string]any{"name": w.Name, "seed": w.Seed, "regions": len(w.Regions)}})

	slots := layout(w.Regions, tu.MinGridCells)
	run.emit(Event{Type: EventPassEnd, Pass: PassLayout, Data: map[string]any{"regions": len(slots)}})

	for i, rs := range w.Regions {
		reg := run.region(rs, slots[i])
		run.res.Regions = append(run.res.Regions, reg)
	}

	run.emit(Event{Type: EventPassStart, Pass: PassConnectors})
	conns, warns := buildConnectors(w)
	for _, msg := range warns {
		run.warn("", PassConnectors, msg)
	}
	run.res.Connectors = conns
	run.emit(Event{Type: EventPassEnd, Pass: PassConnectors, Data: map[string]any{"connectors": len(conns)}})

	run.spawns(w.SpawnPoints)
	run.totals()
	run.emit(Event{Type: EventRunEnd, Data: map[string]any{"digest": run.res.Digest()}})
	return run.res, nil
}

func (run *runner) logf(format string, args ...any) {
	if run.opts.Logger != nil {
		run.opts.Logger.Printf(format, args...)
	}
}

func (run *runner) emit(ev Event) {
	if run.opts.Events == nil {
		return
	}
	if err := run.opts.Events.Emit(ev); err != nil {
		run.logf("event sink: %v", err)
	}
}

func (run *runner) warn(region, pass, msg string) {
	run.res.Stats.Warnings = append(run.res.Stats.Warnings, msg)
	run.logf("warn: %s", msg)
	run.emit(Event{Type: EventWarning, Region: region, Pass: pass, Message: msg})
}

func (run *runner) failed(region, pass, item string, required bool) {
	run.res.Stats.PlacementFailed++
	if required {
		run.res.Stats.RequiredFailures++
	}
	run.emit(Event{Type: EventPlacementFailure, Region: region, Pass: pass, Item: item, Required: required})
}

// region runs passes 2 through 5c for one region.
func (run *runner) region(rs spec.RegionSpec, sl slot) RegionResult {
	out := RegionResult{ID: rs.ID, Type: rs.Type, SizeKm2: rs.SizeKm2, Offset: sl.offset}

	gen, err := biome.New(rs.Type, run.tu)
	if err == nil {
		var cfg *templates.Config
		cfg, err = run.cat.MergedConfig(rs.Type, rs.Story())
		if err == nil {
			run.populate(&out, gen, cfg, sl.cells)
			return out
		}
	}
	out.Err = err.Error()
	run.warn(rs.ID, PassFoundation, fmt.Sprintf("region %s: %v", rs.ID, err))
	return out
}

func (run *runner) populate(out *RegionResult, gen biome.Generator, cfg *templates.Config, cells int) {
	r := run.r
	id := out.ID
	st := &out.Stats

	pass := func(name string, fn func() map[string]any) {
		run.emit(Event{Type: EventPassStart, Region: id, Pass: name})
		data := fn()
		run.emit(Event{Type: EventPassEnd, Region: id, Pass: name, Data: data})
	}

	g := terrain.NewGrid(cells, cells)
	out.Grid = g
	pass(PassFoundation, func() map[string]any {
		gen.GenerateFoundation(g, cfg, r)
		return map[string]any{"cells": cells}
	})

	pass(PassRequiredPOIs, func() map[string]any {
		for _, req := range cfg.MustHave {
			radius := req.Radius
			if radius <= 0 {
				radius = cfg.POIRadius(req.Type)
			}
			for i := 0; i < req.Count; i++ {
				st.RequiredPOIAttempts++
				p := gen.PlacePOI(g, biome.POIRequest{Type: req.Type, Tags: req.Tags, Required: true, Radius: radius}, r)
				if p == nil {
					st.RequiredPOIFailed++
					run.failed(id, PassRequiredPOIs, req.Type, true)
					run.logf("warn: region %s: required poi %s not placed", id, req.Type)
					continue
				}
				st.RequiredPOIPlaced++
				out.POIs = append(out.POIs, *p)
			}
		}
		return map[string]any{"placed": st.RequiredPOIPlaced, "failed": st.RequiredPOIFailed}
	})

	pass(PassOptionalPOIs, func() map[string]any {
		for _, opt := range cfg.ShouldHave {
			if !r.Chance(opt.Probability) {
				continue
			}
			st.OptionalPOIRolled++
			radius := opt.Radius
			if radius <= 0 {
				radius = cfg.POIRadius(opt.Type)
			}
			p := gen.PlacePOI(g, biome.POIRequest{Type: opt.Type, Tags: opt.Tags, Radius: radius}, r)
			if p == nil {
				st.OptionalPOIFailed++
				run.failed(id, PassOptionalPOIs, opt.Type, false)
				continue
			}
			st.OptionalPOIPlaced++
			out.POIs = append(out.POIs, *p)
		}
		return map[string]any{"rolled": st.OptionalPOIRolled, "placed": st.OptionalPOIPlaced}
	})

	pass(PassTemplatePOIs, func() map[string]any {
		budget := run.cat.POIBudget(out.SizeKm2, out.Type, cfg)
		st.TemplatePOIs = templates.Allocate(budget, cfg.POIs, r, run.tu.AllocationCeiling, func(t templates.POIType) bool {
			p := gen.PlacePOI(g, biome.POIRequest{Type: t.Type, Tags: t.Tags, Radius: t.Radius}, r)
			if p == nil {
				run.failed(id, PassTemplatePOIs, t.Type, false)
				return false
			}
			out.POIs = append(out.POIs, *p)
			return true
		})
		return allocationData(st.TemplatePOIs)
	})

	if hook, ok := gen.(biome.BuildingHook); ok {
		pass(PassSignatureBuilding, func() map[string]any {
			bs := hook.PlaceSignatureBuildings(g, cfg, r)
			st.SignatureBuildings = len(bs)
			out.Buildings = append(out.Buildings, bs...)
			return map[string]any{"placed": len(bs)}
		})
	}

	pass(PassTemplateBuildings, func() map[string]any {
		budget := run.cat.BuildingBudget(out.SizeKm2, out.Type, cfg)
		st.TemplateBuildings = templates.Allocate(budget, cfg.Buildings, r, run.tu.AllocationCeiling, func(t templates.BuildingType) bool {
			w := r.IntRange(t.MinSize, t.MaxSize)
			h := r.IntRange(t.MinSize, t.MaxSize)
			b := gen.PlaceBuilding(g, biome.BuildingRequest{Type: t.Type, Width: w, Height: h, Tags: t.Tags}, r)
			if b == nil {
				run.failed(id, PassTemplateBuildings, t.Type, false)
				return false
			}
			out.Buildings = append(out.Buildings, *b)
			return true
		})
		return allocationData(st.TemplateBuildings)
	})

	pass(PassDecorations, func() map[string]any {
		out.Decorations = decorate(g, cfg.Decorations, int(math.Round(cfg.DensityMultiplier()*1000)), r)
		for _, n := range out.Decorations {
			st.Decorations += n
		}
		return map[string]any{"cells": st.Decorations}
	})

	st.Biome = gen.Stats()
}

func allocationData(a templates.Allocation) map[string]any {
	return map[string]any{
		"budget":   a.Budget,
		"attempts": a.Attempts,
		"placed":   a.Placed,
		"skipped":  a.Skipped,
		"failed":   a.Failed,
	}
}

// spawns runs pass 7 over the regions that generated.
func (run *runner) spawns(specs []model.SpawnSpec) {
	run.emit(Event{Type: EventPassStart, Pass: PassSpawns})
	var regions []spawn.Region
	for _, reg := range run.res.Regions {
		if reg.Grid == nil {
			continue
		}
		regions = append(regions, spawn.Region{
			ID:        reg.ID,
			Grid:      reg.Grid,
			POIs:      reg.POIs,
			Buildings: reg.Buildings,
			Offset:    reg.Offset,
		})
	}
	rs := &spawn.Resolver{Pool: run.opts.Entities, Tuning: run.tu, Logger: run.opts.Logger}
	sr, err := rs.Resolve(specs, regions, run.r)
	if err != nil {
		run.res.SpawnErr = err
		run.res.Stats.SpawnError = err.Error()
		run.logf("spawn pass aborted: %v", err)
		run.emit(Event{Type: EventWarning, Pass: PassSpawns, Required: true, Message: err.Error()})
		run.emit(Event{Type: EventPassEnd, Pass: PassSpawns, Data: map[string]any{"aborted": true}})
		return
	}
	for _, msg := range sr.Warnings {
		run.res.Stats.Warnings = append(run.res.Stats.Warnings, msg)
		run.emit(Event{Type: EventWarning, Pass: PassSpawns, Message: msg})
	}
	run.res.Stats.SpawnsDropped = sr.Dropped
	run.res.Spawns = sr.Spawns
	for _, s := range sr.Spawns {
		run.emit(Event{Type: EventSpawn, Region: s.Region, Pass: PassSpawns, Item: s.ID, Required: s.Required, Data: map[string]any{
			"entity_id": s.EntityID,
			"placement": string(s.Placement),
			"x":         s.Cell.X,
			"y":         s.Cell.Y,
		}})
	}
	run.emit(Event{Type: EventPassEnd, Pass: PassSpawns, Data: map[string]any{"placed": len(sr.Spawns), "dropped": sr.Dropped}})
}

func (run *runner) totals() {
	st := &run.res.Stats
	st.Regions = len(run.res.Regions)
	for _, reg := range run.res.Regions {
		if reg.Err != "" {
			st.RegionsFailed++
		}
		st.POIs += len(reg.POIs)
		st.Buildings += len(reg.Buildings)
		st.Decorations += reg.Stats.Decorations
	}
	st.Connectors = len(run.res.Connectors)
	st.Spawns = len(run.res.Spawns)
}
