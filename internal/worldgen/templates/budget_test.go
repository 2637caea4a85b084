package templates

import (
	"testing"

	"worldforge.ai/internal/worldgen/rng"
)

func TestBudgets(t *testing.T) {
	c, _ := Default()
	cfg, _ := c.MergedConfig("city", nil)
	if got := c.BuildingBudget(1, "city", cfg); got != 120 {
		t.Fatalf("city building budget: got %d want 120", got)
	}
	if got := c.POIBudget(0.5, "city", cfg); got != 10 {
		t.Fatalf("city poi budget: got %d want 10", got)
	}

	cfg.Params["density_multiplier"] = 0.5
	if got := c.BuildingBudget(1, "city", cfg); got != 60 {
		t.Fatalf("multiplier: got %d want 60", got)
	}

	desert, _ := c.MergedConfig("desert", nil)
	if got := c.BuildingBudget(0.1, "desert", desert); got != 1 {
		t.Fatalf("budget floor: got %d want 1", got)
	}
	if got := c.BuildingBudget(2, "mountain", nil); got != 6 {
		t.Fatalf("nil cfg uses template baseline: got %d want 6", got)
	}
}

func TestPickWeighted_Distribution(t *testing.T) {
	list := []BuildingType{
		{Type: "a", Weight: 1, MinSize: 1, MaxSize: 1},
		{Type: "zero", Weight: 0, MinSize: 1, MaxSize: 1},
		{Type: "b", Weight: 3, MinSize: 1, MaxSize: 1},
	}
	r := rng.New(11)
	counts := map[string]int{}
	for i := 0; i < 4000; i++ {
		b, ok := WeightedBuilding(list, r)
		if !ok {
			t.Fatalf("pick failed")
		}
		counts[b.Type]++
	}
	if counts["zero"] != 0 {
		t.Fatalf("zero weight drawn %d times", counts["zero"])
	}
	if counts["b"] < 2700 || counts["b"] > 3300 {
		t.Fatalf("weight 3 share off: got %d of 4000", counts["b"])
	}
}

func TestPickWeighted_NoPositiveWeightsConsumesNothing(t *testing.T) {
	r := rng.New(5)
	ref := rng.New(5)
	if _, ok := WeightedPOI([]POIType{{Type: "x"}}, r); ok {
		t.Fatalf("expected no pick")
	}
	if r.Uint64() != ref.Uint64() {
		t.Fatalf("stream advanced without a pick")
	}
}

func TestAllocate_BudgetAndCeiling(t *testing.T) {
	list := []POIType{{Type: "p", Weight: 1, Density: 1}}

	attempts := 0
	a := Allocate(10, list, rng.New(1), 3, func(POIType) bool {
		attempts++
		return false
	})
	if a.Attempts != 30 || attempts != 30 || a.Placed != 0 || a.Failed != 30 {
		t.Fatalf("always failing: %+v calls=%d", a, attempts)
	}

	a = Allocate(10, list, rng.New(1), 3, func(POIType) bool { return true })
	if a.Placed != 10 || a.Attempts != 10 {
		t.Fatalf("always placing: %+v", a)
	}
}

func TestAllocate_SkipsOverTarget(t *testing.T) {
	list := []BuildingType{
		{Type: "rare", Weight: 5, Density: 0.1, MinSize: 1, MaxSize: 1},
		{Type: "common", Weight: 1, Density: 0.9, MinSize: 1, MaxSize: 1},
	}
	a := Allocate(20, list, rng.New(3), 3, func(BuildingType) bool { return true })
	// target(rare) = 2; it may reach 3 (3/2 > 1.1 stops further draws).
	if a.ByType["rare"] > 3 {
		t.Fatalf("rare over target: got %d", a.ByType["rare"])
	}
	if a.Skipped == 0 {
		t.Fatalf("expected skips for the heavy rare weight")
	}
	if a.Placed > 20 || a.Attempts > 60 {
		t.Fatalf("bounds: %+v", a)
	}
}

func TestAllocate_ZeroTargetPlacesOnce(t *testing.T) {
	list := []POIType{{Type: "once", Weight: 1, Density: 0}}
	a := Allocate(5, list, rng.New(2), 3, func(POIType) bool { return true })
	if a.ByType["once"] != 1 || a.Placed != 1 || a.Attempts != 15 {
		t.Fatalf("zero target: %+v", a)
	}
}
