package spawn

import (
	"errors"
	"testing"

	"worldforge.ai/internal/worldgen/entities"
	"worldforge.ai/internal/worldgen/model"
	"worldforge.ai/internal/worldgen/rng"
	"worldforge.ai/internal/worldgen/terrain"
	"worldforge.ai/internal/worldgen/tuning"
)

func testCatalog(t *testing.T) *entities.Catalog {
	t.Helper()
	c, err := entities.New([]entities.Entity{
		{ID: "ada", Archetype: "merchant", Pools: []string{"town"}, Tags: []string{"friendly"}},
		{ID: "bram", Archetype: "merchant", Pools: []string{"market"}},
		{ID: "crow", Archetype: "guard", Pools: []string{"town"}, Tags: []string{"armed"}},
		{ID: "dell", Archetype: "guard", Pools: []string{"town"}, Tags: []string{"armed", "night"}},
	})
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	return c
}

func grassRegion(id string, w, h int) Region {
	g := terrain.NewGrid(w, h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			g.SetTerrain(x, y, terrain.Grass)
		}
	}
	return Region{ID: id, Grid: g}
}

func resolver(t *testing.T) *Resolver {
	return &Resolver{Pool: testCatalog(t), Tuning: tuning.Defaults()}
}

func TestExpandNamesInstances(t *testing.T) {
	out := Expand([]model.SpawnSpec{{ID: "a", Count: 3}, {ID: "b"}})
	if len(out) != 4 {
		t.Fatalf("expanded: got %d want 4", len(out))
	}
	want := []string{"a_0", "a_1", "a_2", "b"}
	for i, s := range out {
		if s.ID != want[i] || s.Count != 1 {
			t.Fatalf("expanded[%d]: got %q count=%d want %q count=1", i, s.ID, s.Count, want[i])
		}
	}
}

// Three path spawns sharing one id expand and stay apart from each other.
func TestPathSpawnsKeepRadius(t *testing.T) {
	reg := grassRegion("town", 120, 40)
	for x := 5; x < 115; x++ {
		reg.Grid.SetPath(x, 20, true)
	}
	specs := []model.SpawnSpec{{
		ID: "crier", Kind: "npc", EntityID: "ada", Region: "town",
		Placement: model.PlacePath, Count: 3, Radius: 5, Scale: 1,
	}}
	res, err := resolver(t).Resolve(specs, []Region{reg}, rng.New(7))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(res.Spawns) != 3 {
		t.Fatalf("spawns: got %d want 3 (warnings %v)", len(res.Spawns), res.Warnings)
	}
	for i, a := range res.Spawns {
		if !reg.Grid.IsPath(a.Cell.X, a.Cell.Y) {
			t.Fatalf("spawn %s off path at %+v", a.ID, a.Cell)
		}
		for _, b := range res.Spawns[i+1:] {
			if d := a.Cell.Dist2(b.Cell); d < 25 {
				t.Fatalf("%s and %s too close: dist2 %d", a.ID, b.ID, d)
			}
		}
	}
	if res.Spawns[0].ID != "crier_0" || res.Spawns[2].ID != "crier_2" {
		t.Fatalf("ids: got %s..%s", res.Spawns[0].ID, res.Spawns[2].ID)
	}
}

func TestExteriorAvoidsBuildingsAndWater(t *testing.T) {
	reg := grassRegion("town", 60, 60)
	fp := terrain.Rect{X: 20, Y: 20, W: 10, H: 8}
	reg.Grid.ClaimRect(fp, terrain.OccBuilding, nil)
	reg.Buildings = []model.Building{{Type: "inn", Center: fp.Center(), Footprint: fp}}
	for y := 0; y < 60; y++ {
		reg.Grid.SetTerrain(0, y, terrain.Water)
	}
	specs := []model.SpawnSpec{{ID: "g", EntityID: "crow", Region: "town", Placement: model.PlaceExterior, Count: 6, Radius: 2}}
	res, err := resolver(t).Resolve(specs, []Region{reg}, rng.New(3))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(res.Spawns) != 6 {
		t.Fatalf("spawns: got %d want 6", len(res.Spawns))
	}
	for _, s := range res.Spawns {
		c := s.Cell
		if fp.Contains(c) {
			t.Fatalf("spawn %s inside building at %+v", s.ID, c)
		}
		if reg.Grid.Terrain(c.X, c.Y) == terrain.Water {
			t.Fatalf("spawn %s in water at %+v", s.ID, c)
		}
		if c.X < 10 || c.X > 39 || c.Y < 10 || c.Y > 37 {
			t.Fatalf("spawn %s outside padded feature box at %+v", s.ID, c)
		}
	}
}

func TestInteriorAndPOIAnchors(t *testing.T) {
	reg := grassRegion("town", 80, 80)
	fp := terrain.Rect{X: 10, Y: 10, W: 6, H: 6}
	reg.Buildings = []model.Building{{Type: "smithy", Center: fp.Center(), Footprint: fp}}
	reg.POIs = []model.POI{{Type: "well", Center: terrain.Point{X: 50, Y: 50}, Radius: 3}}
	reg.Offset = [2]float64{1000, 0}
	specs := []model.SpawnSpec{
		{ID: "smith", EntityID: "bram", Region: "town", Placement: model.PlaceInterior, TypeFilter: "smithy"},
		{ID: "drawer", EntityID: "ada", Region: "town", Placement: model.PlacePOI, TypeFilter: "well"},
	}
	res, err := resolver(t).Resolve(specs, []Region{reg}, rng.New(1))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(res.Spawns) != 2 {
		t.Fatalf("spawns: got %d want 2", len(res.Spawns))
	}
	smith := res.Spawns[0]
	if smith.Cell != fp.Center() || smith.Anchor != "smithy" {
		t.Fatalf("smith: got cell %+v anchor %q", smith.Cell, smith.Anchor)
	}
	wantX := float64(fp.Center().X*terrain.CellSize) + 1000
	if smith.Position[0] != wantX {
		t.Fatalf("smith x: got %v want %v", smith.Position[0], wantX)
	}
	if res.Spawns[1].Cell != (terrain.Point{X: 50, Y: 50}) {
		t.Fatalf("drawer: got %+v", res.Spawns[1].Cell)
	}
}

func TestRequiredFailureAbortsPass(t *testing.T) {
	reg := grassRegion("town", 40, 40)
	specs := []model.SpawnSpec{
		{ID: "ok", EntityID: "ada", Region: "town", Placement: model.PlaceExterior},
		{ID: "priest", EntityID: "crow", Region: "town", Placement: model.PlaceInterior, TypeFilter: "chapel", Required: true},
	}
	res, err := resolver(t).Resolve(specs, []Region{reg}, rng.New(1))
	if !errors.Is(err, ErrRequiredSpawn) {
		t.Fatalf("err: got %v want ErrRequiredSpawn", err)
	}
	if len(res.Spawns) != 0 {
		t.Fatalf("spawns after abort: got %d want 0", len(res.Spawns))
	}
}

func TestOptionalFailureIsDropped(t *testing.T) {
	reg := grassRegion("town", 40, 40)
	specs := []model.SpawnSpec{
		{ID: "ghost", EntityID: "ada", Region: "nowhere", Placement: model.PlaceExterior},
		{ID: "nobody", EntityID: "zed", Region: "town", Placement: model.PlaceExterior},
		{ID: "ok", EntityID: "ada", Region: "town", Placement: model.PlaceExterior},
	}
	res, err := resolver(t).Resolve(specs, []Region{reg}, rng.New(1))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(res.Spawns) != 1 || res.Spawns[0].ID != "ok" {
		t.Fatalf("spawns: got %+v", res.Spawns)
	}
	if res.Dropped != 2 || len(res.Warnings) != 2 {
		t.Fatalf("dropped: got %d warnings %d want 2/2", res.Dropped, len(res.Warnings))
	}
}

func TestEntityResolutionOrder(t *testing.T) {
	rs := resolver(t)
	cases := []struct {
		name string
		spec model.SpawnSpec
		want []string
	}{
		{"explicit id wins", model.SpawnSpec{EntityID: "dell", Archetype: "merchant"}, []string{"dell"}},
		{"archetype in pool", model.SpawnSpec{Archetype: "merchant", Pool: "market"}, []string{"bram"}},
		{"pool", model.SpawnSpec{Pool: "town"}, []string{"ada", "crow", "dell"}},
		{"filter", model.SpawnSpec{Filter: model.EntityFilter{Archetype: "guard", Tags: []string{"night"}}}, []string{"dell"}},
	}
	for _, tc := range cases {
		got, ok := rs.candidates(tc.spec)
		if !ok || len(got) != len(tc.want) {
			t.Fatalf("%s: got %d candidates want %d", tc.name, len(got), len(tc.want))
		}
		for i := range got {
			if got[i].ID != tc.want[i] {
				t.Fatalf("%s: [%d] got %s want %s", tc.name, i, got[i].ID, tc.want[i])
			}
		}
	}
	if _, ok := rs.candidates(model.SpawnSpec{Archetype: "dragon"}); ok {
		t.Fatalf("unknown archetype resolved")
	}
}

func TestUniqueEntityNotReused(t *testing.T) {
	reg := grassRegion("town", 60, 60)
	specs := []model.SpawnSpec{
		{ID: "boss", Archetype: "merchant", Pool: "market", Region: "town", Placement: model.PlaceExterior, Unique: true},
		{ID: "clone", Archetype: "merchant", Pool: "market", Region: "town", Placement: model.PlaceExterior},
	}
	res, err := resolver(t).Resolve(specs, []Region{reg}, rng.New(5))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(res.Spawns) != 1 || res.Spawns[0].EntityID != "bram" {
		t.Fatalf("spawns: got %+v", res.Spawns)
	}

	specs[1].Required = true
	if _, err := resolver(t).Resolve(specs, []Region{reg}, rng.New(5)); !errors.Is(err, ErrRequiredSpawn) {
		t.Fatalf("required clone: got %v want ErrRequiredSpawn", err)
	}
}

func TestResolveDeterministic(t *testing.T) {
	reg := grassRegion("town", 80, 80)
	specs := []model.SpawnSpec{{ID: "g", Pool: "town", Region: "town", Placement: model.PlaceExterior, Count: 5}}
	a, err := resolver(t).Resolve(specs, []Region{reg}, rng.New(42))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	b, _ := resolver(t).Resolve(specs, []Region{reg}, rng.New(42))
	if len(a.Spawns) != len(b.Spawns) {
		t.Fatalf("len: got %d want %d", len(b.Spawns), len(a.Spawns))
	}
	for i := range a.Spawns {
		if a.Spawns[i].Cell != b.Spawns[i].Cell || a.Spawns[i].EntityID != b.Spawns[i].EntityID {
			t.Fatalf("spawn %d differs: %+v vs %+v", i, a.Spawns[i], b.Spawns[i])
		}
	}
}
