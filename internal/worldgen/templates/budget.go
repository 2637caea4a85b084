package templates

import (
	"math"

	"worldforge.ai/internal/worldgen/rng"
)

// BuildingBudget is max(1, floor(area × baseline × multiplier)).
func (c *Catalog) BuildingBudget(areaKm2 float64, biome string, cfg *Config) int {
	base := 0.0
	if cfg != nil {
		base = cfg.BuildingBaseline
	} else if t, ok := c.ByBiome[biome]; ok {
		base = t.BuildingBaseline
	}
	return budget(areaKm2, base, cfg.DensityMultiplier())
}

// POIBudget is max(1, floor(area × baseline × multiplier)).
func (c *Catalog) POIBudget(areaKm2 float64, biome string, cfg *Config) int {
	base := 0.0
	if cfg != nil {
		base = cfg.POIBaseline
	} else if t, ok := c.ByBiome[biome]; ok {
		base = t.POIBaseline
	}
	return budget(areaKm2, base, cfg.DensityMultiplier())
}

func budget(area, base, mult float64) int {
	v := math.Floor(area * base * mult)
	if math.IsNaN(v) || v < 1 {
		return 1
	}
	if v > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(v)
}

// Weighted is a catalog entry the allocator can draw.
type Weighted interface {
	Name() string
	WeightValue() float64
	DensityValue() float64
}

func (b BuildingType) Name() string          { return b.Type }
func (b BuildingType) WeightValue() float64  { return b.Weight }
func (b BuildingType) DensityValue() float64 { return b.Density }
func (p POIType) Name() string               { return p.Type }
func (p POIType) WeightValue() float64       { return p.Weight }
func (p POIType) DensityValue() float64      { return p.Density }

// PickWeighted draws one entry by cumulative weight against
// rng.Float64()·total. It consumes exactly one draw when any weight is
// positive and none otherwise.
func PickWeighted[T Weighted](list []T, r *rng.RNG) (T, bool) {
	var zero T
	total := 0.0
	last := -1
	for i, e := range list {
		if w := e.WeightValue(); w > 0 {
			total += w
			last = i
		}
	}
	if last < 0 {
		return zero, false
	}
	draw := r.Float64() * total
	acc := 0.0
	for _, e := range list {
		w := e.WeightValue()
		if w <= 0 {
			continue
		}
		acc += w
		if draw < acc {
			return e, true
		}
	}
	return list[last], true
}

func WeightedBuilding(list []BuildingType, r *rng.RNG) (BuildingType, bool) {
	return PickWeighted(list, r)
}

func WeightedPOI(list []POIType, r *rng.RNG) (POIType, bool) {
	return PickWeighted(list, r)
}

// Allocation reports one Allocate run.
type Allocation struct {
	Budget   int            `json:"budget"`
	Attempts int            `json:"attempts"`
	Placed   int            `json:"placed"`
	Skipped  int            `json:"skipped"`
	Failed   int            `json:"failed"`
	ByType   map[string]int `json:"by_type,omitempty"`
}

// OverTarget is the placed/target ratio above which a drawn type is skipped.
const OverTarget = 1.1

// Allocate fills up to budget placements from list. Each attempt draws a type
// by weight; a type already past OverTarget × floor(budget × density) is
// skipped, not aborted. A type whose target floors to zero may place once. The
// loop ends at budget placements or ceiling × budget attempts.
func Allocate[T Weighted](budget int, list []T, r *rng.RNG, ceiling int, place func(T) bool) Allocation {
	a := Allocation{Budget: budget, ByType: map[string]int{}}
	if budget <= 0 || len(list) == 0 {
		return a
	}
	if ceiling <= 0 {
		ceiling = 3
	}
	maxAttempts := ceiling * budget
	for a.Attempts < maxAttempts && a.Placed < budget {
		a.Attempts++
		e, ok := PickWeighted(list, r)
		if !ok {
			break
		}
		name := e.Name()
		target := int(math.Floor(float64(budget) * e.DensityValue()))
		have := a.ByType[name]
		if target > 0 && float64(have)/float64(target) > OverTarget {
			a.Skipped++
			continue
		}
		if target == 0 && have > 0 {
			a.Skipped++
			continue
		}
		if place(e) {
			a.ByType[name]++
			a.Placed++
		} else {
			a.Failed++
		}
	}
	return a
}
