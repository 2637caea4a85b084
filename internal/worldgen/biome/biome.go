// Package biome implements the per-biome foundation generators and their
// semantic placement strategies behind one Generator contract.
package biome

import (
	"fmt"
	"sort"

	"worldforge.ai/internal/worldgen/model"
	"worldforge.ai/internal/worldgen/rng"
	"worldforge.ai/internal/worldgen/templates"
	"worldforge.ai/internal/worldgen/terrain"
	"worldforge.ai/internal/worldgen/tuning"
)

type POIRequest struct {
	Type     string
	Tags     []string
	Required bool
	// Radius overrides the generator default when > 0. It is resolved once and
	// used for both the emptiness check and the claim.
	Radius int
}

type BuildingRequest struct {
	Type   string
	Width  int
	Height int
	Tags   []string
}

type Stats struct {
	POIAttempts      int `json:"poi_attempts"`
	POIPlaced        int `json:"poi_placed"`
	POIFailed        int `json:"poi_failed"`
	FallbackAttempts int `json:"fallback_attempts"`
	BuildingAttempts int `json:"building_attempts"`
	BuildingPlaced   int `json:"building_placed"`
	BuildingFailed   int `json:"building_failed"`
}

// Generator is one biome's foundation and placement logic for one region.
// Placement never panics or errors: exhaustion returns nil.
type Generator interface {
	Type() string
	GenerateFoundation(g *terrain.Grid, cfg *templates.Config, r *rng.RNG)
	PlacePOI(g *terrain.Grid, req POIRequest, r *rng.RNG) *model.POI
	PlaceBuilding(g *terrain.Grid, req BuildingRequest, r *rng.RNG) *model.Building
	Stats() Stats
}

// BuildingHook is implemented by biomes that place signature buildings
// themselves before the template fill.
type BuildingHook interface {
	PlaceSignatureBuildings(g *terrain.Grid, cfg *templates.Config, r *rng.RNG) []model.Building
}

type factory func(tu tuning.Tuning) Generator

var registry = map[string]factory{
	"beach":      func(tu tuning.Tuning) Generator { return newBeach(tu) },
	"city":       func(tu tuning.Tuning) Generator { return newCity(tu) },
	"desert":     func(tu tuning.Tuning) Generator { return newDesert(tu) },
	"forest":     func(tu tuning.Tuning) Generator { return newForest(tu) },
	"graveyard":  func(tu tuning.Tuning) Generator { return newGraveyard(tu) },
	"lakeside":   func(tu tuning.Tuning) Generator { return newLakeside(tu) },
	"mountain":   func(tu tuning.Tuning) Generator { return newMountain(tu) },
	"small_town": func(tu tuning.Tuning) Generator { return newSmallTown(tu) },
	"suburban":   func(tu tuning.Tuning) Generator { return newSuburban(tu) },
	"swamp":      func(tu tuning.Tuning) Generator { return newSwamp(tu) },
}

// New returns a fresh generator for one region.
func New(biomeType string, tu tuning.Tuning) (Generator, error) {
	f, ok := registry[biomeType]
	if !ok {
		return nil, fmt.Errorf("unknown biome type %q", biomeType)
	}
	tu.Normalize()
	return f(tu), nil
}

// Types lists the registered biome types in sorted order.
func Types() []string {
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
