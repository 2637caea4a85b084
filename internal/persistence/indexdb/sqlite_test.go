package indexdb

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"

	"worldforge.ai/internal/worldgen/entities"
	"worldforge.ai/internal/worldgen/pipeline"
	"worldforge.ai/internal/worldgen/templates"
	"worldforge.ai/internal/worldgen/terrain"
	"worldforge.ai/internal/worldgen/tuning"
)

func testResult() *pipeline.Result {
	return &pipeline.Result{
		Name: "valley",
		Seed: 42,
		Regions: []pipeline.RegionResult{
			{ID: "woods", Type: "forest", SizeKm2: 0.16, Grid: terrain.NewGrid(40, 40)},
			{ID: "ice", Type: "tundra", SizeKm2: 0.1, Err: "unknown biome type \"tundra\""},
		},
		Stats: pipeline.Stats{Regions: 2, RegionsFailed: 1},
	}
}

func TestSQLiteIndex_RecordRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")
	idx, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	res := testResult()
	idx.RecordRun("run-1", "world.yaml", res)
	sink := idx.Sink("run-1")
	_ = sink.Emit(pipeline.Event{Type: pipeline.EventPlacementFailure, Region: "woods", Pass: pipeline.PassRequiredPOIs, Item: "well", Required: true})
	_ = sink.Emit(pipeline.Event{Type: pipeline.EventPlacementFailure, Region: "woods", Pass: pipeline.PassTemplatePOIs, Item: "shrine"})
	_ = sink.Emit(pipeline.Event{Type: pipeline.EventWarning, Message: "ignored"})
	if err := idx.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	defer db.Close()

	var (
		name   string
		seed   int64
		digest string
		failed int
	)
	row := db.QueryRow(`SELECT name,seed,digest,regions_failed FROM runs WHERE run_id='run-1'`)
	if err := row.Scan(&name, &seed, &digest, &failed); err != nil {
		t.Fatalf("Scan run: %v", err)
	}
	if name != "valley" || seed != 42 || digest != res.Digest() || failed != 1 {
		t.Fatalf("run mismatch: name=%q seed=%d digest=%q failed=%d", name, seed, digest, failed)
	}

	var regions int
	if err := db.QueryRow(`SELECT COUNT(*) FROM regions WHERE run_id='run-1'`).Scan(&regions); err != nil {
		t.Fatalf("Scan regions: %v", err)
	}
	if regions != 2 {
		t.Fatalf("regions: got %d want 2", regions)
	}
	var cells int
	var gridDigest string
	if err := db.QueryRow(`SELECT cells,grid_digest FROM regions WHERE region_id='woods'`).Scan(&cells, &gridDigest); err != nil {
		t.Fatalf("Scan woods: %v", err)
	}
	if cells != 40 || gridDigest == "" {
		t.Fatalf("woods row: cells=%d digest=%q", cells, gridDigest)
	}

	var failures, required int
	if err := db.QueryRow(`SELECT COUNT(*), SUM(required) FROM placement_failures WHERE run_id='run-1'`).Scan(&failures, &required); err != nil {
		t.Fatalf("Scan failures: %v", err)
	}
	if failures != 2 || required != 1 {
		t.Fatalf("failures: got %d (required %d) want 2 (1)", failures, required)
	}
}

func TestSQLiteIndex_QueueDropStats(t *testing.T) {
	s := &SQLiteIndex{ch: make(chan req, 1)}
	s.ch <- req{kind: reqRun}

	s.RecordRun("r", "", testResult())
	_ = s.Sink("r").Emit(pipeline.Event{Type: pipeline.EventPlacementFailure, Item: "well"})

	st := s.Stats()
	if st.DropRunTotal != 1 {
		t.Fatalf("DropRunTotal=%d want=1", st.DropRunTotal)
	}
	if st.DropRegionTotal != 2 {
		t.Fatalf("DropRegionTotal=%d want=2", st.DropRegionTotal)
	}
	if st.DropFailureTotal != 1 {
		t.Fatalf("DropFailureTotal=%d want=1", st.DropFailureTotal)
	}
	if st.QueueDepth != 1 || st.QueueCapacity != 1 {
		t.Fatalf("queue stats mismatch: depth=%d cap=%d", st.QueueDepth, st.QueueCapacity)
	}
}

func TestSQLiteIndex_UpsertCatalogsAndRuns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "index.db")
	idx, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	tpl, err := templates.Default()
	if err != nil {
		t.Fatalf("templates: %v", err)
	}
	ents, err := entities.New([]entities.Entity{{ID: "ada", Archetype: "merchant"}})
	if err != nil {
		t.Fatalf("entities: %v", err)
	}
	if err := idx.UpsertCatalogs(tpl, ents, tuning.Defaults()); err != nil {
		t.Fatalf("UpsertCatalogs: %v", err)
	}
	idx.RecordRun("run-a", "a.yaml", testResult())
	if err := idx.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	idx, err = OpenSQLite(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer idx.Close()

	var n int
	if err := idx.db.QueryRow(`SELECT COUNT(*) FROM catalogs`).Scan(&n); err != nil {
		t.Fatalf("Scan catalogs: %v", err)
	}
	if n != 3 {
		t.Fatalf("catalog rows: got %d want 3", n)
	}
	var digest string
	if err := idx.db.QueryRow(`SELECT digest FROM catalogs WHERE name='biome_templates'`).Scan(&digest); err != nil {
		t.Fatalf("Scan digest: %v", err)
	}
	if digest != tpl.Digest {
		t.Fatalf("template digest: got %q want %q", digest, tpl.Digest)
	}

	runs, err := idx.Runs(context.Background(), 10)
	if err != nil {
		t.Fatalf("Runs: %v", err)
	}
	if len(runs) != 1 || runs[0].RunID != "run-a" || runs[0].Regions != 2 {
		t.Fatalf("runs: got %+v", runs)
	}
}
