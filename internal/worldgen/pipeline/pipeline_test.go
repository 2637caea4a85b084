package pipeline

import (
	"errors"
	"testing"

	"worldforge.ai/internal/worldgen/model"
	"worldforge.ai/internal/worldgen/spawn"
	"worldforge.ai/internal/worldgen/spec"
	"worldforge.ai/internal/worldgen/templates"
	"worldforge.ai/internal/worldgen/terrain"
	"worldforge.ai/internal/worldgen/tuning"
)

type recorder struct{ events []Event }

func (r *recorder) Emit(ev Event) error {
	r.events = append(r.events, ev)
	return nil
}

func generate(t *testing.T, w *spec.WorldSpec, sink EventSink) *Result {
	t.Helper()
	res, err := Generate(w, Options{Tuning: tuning.Defaults(), Events: sink})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	return res
}

func TestSmallTownChapel(t *testing.T) {
	w := &spec.WorldSpec{Seed: 1, Regions: []spec.RegionSpec{{
		ID: "town", Type: "small_town", SizeKm2: 1,
		MustHave: []templates.RequiredPOI{{Type: "chapel", Count: 1}},
	}}}
	res := generate(t, w, nil)
	reg, ok := res.Region("town")
	if !ok || reg.Grid == nil {
		t.Fatalf("town region missing: %+v", reg)
	}
	if reg.Grid.Width != 500 || reg.Grid.Height != 500 {
		t.Fatalf("grid: got %dx%d want 500x500", reg.Grid.Width, reg.Grid.Height)
	}
	chapels := 0
	for _, p := range reg.POIs {
		if p.Type != "chapel" {
			continue
		}
		chapels++
		c := p.Center
		if c.X-p.Radius < 0 || c.Y-p.Radius < 0 || c.X+p.Radius >= 500 || c.Y+p.Radius >= 500 {
			t.Fatalf("chapel footprint out of bounds: %+v", p)
		}
		if !p.Required {
			t.Fatalf("chapel should be flagged required")
		}
	}
	if chapels != 1 {
		t.Fatalf("chapels: got %d want 1", chapels)
	}
	if reg.Stats.RequiredPOIAttempts != 1 {
		t.Fatalf("required attempts: got %d want 1", reg.Stats.RequiredPOIAttempts)
	}
}

func testWorld(seed int64) *spec.WorldSpec {
	return &spec.WorldSpec{
		Name: "valley",
		Seed: seed,
		Regions: []spec.RegionSpec{
			{ID: "peaks", Type: "mountain", SizeKm2: 0.16},
			{ID: "woods", Type: "forest", SizeKm2: 0.16,
				MustHave: []templates.RequiredPOI{{Type: "well", Count: 3}}},
			{ID: "town", Type: "small_town", SizeKm2: 0.25},
		},
		SpawnPoints: []model.SpawnSpec{
			{ID: "hermit", EntityID: "hermit", Region: "woods", Placement: model.PlaceExterior},
			{ID: "crier", EntityID: "crier", Region: "town", Placement: model.PlacePath, Count: 2},
		},
	}
}

func TestGenerateDeterministic(t *testing.T) {
	a := generate(t, testWorld(99), nil)
	b := generate(t, testWorld(99), nil)
	if a.Digest() != b.Digest() {
		t.Fatalf("same seed produced different digests")
	}
	for i := range a.Regions {
		if a.Regions[i].Grid.Digest() != b.Regions[i].Grid.Digest() {
			t.Fatalf("region %s grid differs", a.Regions[i].ID)
		}
	}
	c := generate(t, testWorld(100), nil)
	if c.Digest() == a.Digest() {
		t.Fatalf("different seeds produced the same digest")
	}
}

func TestBudgetsAndContainment(t *testing.T) {
	res := generate(t, testWorld(5), nil)
	for _, reg := range res.Regions {
		tb := reg.Stats.TemplateBuildings
		if tb.Placed > tb.Budget {
			t.Fatalf("%s: placed %d over budget %d", reg.ID, tb.Placed, tb.Budget)
		}
		if tb.Attempts > 3*tb.Budget {
			t.Fatalf("%s: attempts %d over ceiling %d", reg.ID, tb.Attempts, 3*tb.Budget)
		}
		g := reg.Grid
		for _, b := range reg.Buildings {
			f := b.Footprint
			if f.X < 0 || f.Y < 0 || f.X+f.W > g.Width || f.Y+f.H > g.Height {
				t.Fatalf("%s: building %s outside grid: %+v", reg.ID, b.Type, f)
			}
			for y := f.Y; y < f.Y+f.H; y++ {
				for x := f.X; x < f.X+f.W; x++ {
					if g.Occupancy(x, y) != terrain.OccBuilding {
						t.Fatalf("%s: footprint cell %d,%d not building", reg.ID, x, y)
					}
				}
			}
		}
	}
	woods, _ := res.Region("woods")
	if woods.Stats.RequiredPOIAttempts != 3 {
		t.Fatalf("required attempts: got %d want 3", woods.Stats.RequiredPOIAttempts)
	}
}

func TestLayoutLeftToRight(t *testing.T) {
	res := generate(t, testWorld(1), nil)
	want := []float64{0, 400, 800}
	for i, reg := range res.Regions {
		if reg.Offset[0] != want[i] || reg.Offset[1] != 0 {
			t.Fatalf("%s offset: got %v want [%v 0]", reg.ID, reg.Offset, want[i])
		}
	}
	if n := GridCells(0.0001, 32); n != 32 {
		t.Fatalf("min grid: got %d want 32", n)
	}
}

func TestSpawnsUseWorldOffsets(t *testing.T) {
	res := generate(t, testWorld(3), nil)
	if res.SpawnErr != nil {
		t.Fatalf("spawn error: %v", res.SpawnErr)
	}
	if len(res.Spawns) != 3 {
		t.Fatalf("spawns: got %d want 3 (warnings %v)", len(res.Spawns), res.Stats.Warnings)
	}
	for _, s := range res.Spawns {
		reg, _ := res.Region(s.Region)
		wantX := float64(s.Cell.X)*terrain.CellSize + reg.Offset[0]
		if s.Position[0] != wantX {
			t.Fatalf("%s x: got %v want %v", s.ID, s.Position[0], wantX)
		}
	}
	if res.Spawns[1].ID != "crier_0" || res.Spawns[2].ID != "crier_1" {
		t.Fatalf("expanded ids: got %s, %s", res.Spawns[1].ID, res.Spawns[2].ID)
	}
}

func TestRequiredSpawnFailureKeepsRegions(t *testing.T) {
	w := testWorld(3)
	w.SpawnPoints = append(w.SpawnPoints, model.SpawnSpec{
		ID: "abbot", EntityID: "abbot", Region: "peaks", Placement: model.PlaceInterior,
		TypeFilter: "monastery", Required: true,
	})
	res := generate(t, w, nil)
	if !errors.Is(res.SpawnErr, spawn.ErrRequiredSpawn) {
		t.Fatalf("spawn error: got %v want ErrRequiredSpawn", res.SpawnErr)
	}
	if len(res.Spawns) != 0 {
		t.Fatalf("spawns after abort: got %d want 0", len(res.Spawns))
	}
	if len(res.Regions) != 3 || res.Stats.SpawnError == "" {
		t.Fatalf("regions or stats lost: %d regions, spawn_error %q", len(res.Regions), res.Stats.SpawnError)
	}
}

func TestUnknownBiomeRegionFailsAlone(t *testing.T) {
	w := &spec.WorldSpec{Seed: 4, Regions: []spec.RegionSpec{
		{ID: "ice", Type: "tundra", SizeKm2: 0.1},
		{ID: "woods", Type: "forest", SizeKm2: 0.16},
	}}
	res := generate(t, w, nil)
	ice, _ := res.Region("ice")
	if ice.Err == "" || ice.Grid != nil {
		t.Fatalf("tundra region should fail without a grid: %+v", ice)
	}
	woods, _ := res.Region("woods")
	if woods.Err != "" || woods.Grid == nil {
		t.Fatalf("forest region should generate: %q", woods.Err)
	}
	if res.Stats.RegionsFailed != 1 {
		t.Fatalf("regions failed: got %d want 1", res.Stats.RegionsFailed)
	}
	if len(res.Connectors) != 1 || res.Connectors[0].Type != "trail" {
		t.Fatalf("auto-chain: got %+v", res.Connectors)
	}
}

func TestGenerateRejectsEmptySpec(t *testing.T) {
	if _, err := Generate(&spec.WorldSpec{}, Options{}); !errors.Is(err, spec.ErrNoRegions) {
		t.Fatalf("err: got %v want ErrNoRegions", err)
	}
}

func TestEventsBracketTheRun(t *testing.T) {
	rec := &recorder{}
	generate(t, testWorld(8), rec)
	if len(rec.events) == 0 {
		t.Fatalf("no events")
	}
	if rec.events[0].Type != EventRunStart || rec.events[len(rec.events)-1].Type != EventRunEnd {
		t.Fatalf("run bracket: first %s last %s", rec.events[0].Type, rec.events[len(rec.events)-1].Type)
	}
	foundations, spawns := 0, 0
	for _, ev := range rec.events {
		if ev.Type == EventPassEnd && ev.Pass == PassFoundation {
			foundations++
		}
		if ev.Type == EventSpawn {
			spawns++
		}
	}
	if foundations != 3 || spawns != 3 {
		t.Fatalf("events: foundations %d spawns %d want 3/3", foundations, spawns)
	}
}

func TestZeroOptionsKeepSpawnSpacing(t *testing.T) {
	w := &spec.WorldSpec{Seed: 8, Regions: []spec.RegionSpec{{ID: "grove", Type: "forest", SizeKm2: 0.01}},
		SpawnPoints: []model.SpawnSpec{{ID: "crow", EntityID: "crow", Region: "grove", Placement: model.PlaceExterior, Count: 40}}}
	res, err := Generate(w, Options{})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(res.Spawns) < 2 {
		t.Fatalf("spawns: got %d want at least 2", len(res.Spawns))
	}
	r := tuning.Defaults().SpawnRadius
	for i := range res.Spawns {
		for j := i + 1; j < len(res.Spawns); j++ {
			if d2 := res.Spawns[i].Cell.Dist2(res.Spawns[j].Cell); d2 < r*r {
				t.Fatalf("%s and %s: dist2 %d under %d", res.Spawns[i].ID, res.Spawns[j].ID, d2, r*r)
			}
		}
	}
}

func TestRequiredCountZeroIsNotAttempted(t *testing.T) {
	w := &spec.WorldSpec{Seed: 4, Regions: []spec.RegionSpec{{
		ID: "town", Type: "small_town", SizeKm2: 0.25,
		MustHave: []templates.RequiredPOI{{Type: "chapel", Count: 0}},
	}}}
	res := generate(t, w, nil)
	reg, _ := res.Region("town")
	if reg.Stats.RequiredPOIAttempts != 0 {
		t.Fatalf("required attempts: got %d want 0", reg.Stats.RequiredPOIAttempts)
	}
	for _, p := range reg.POIs {
		if p.Type == "chapel" && p.Required {
			t.Fatalf("count 0 placed a required chapel")
		}
	}
}
