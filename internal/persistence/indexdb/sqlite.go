package indexdb

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"worldforge.ai/internal/worldgen/entities"
	"worldforge.ai/internal/worldgen/pipeline"
	"worldforge.ai/internal/worldgen/templates"
	"worldforge.ai/internal/worldgen/tuning"
)

type SQLiteIndex struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed atomic.Bool

	dropRun     atomic.Uint64
	dropRegion  atomic.Uint64
	dropFailure atomic.Uint64
}

type reqKind int

const (
	reqRun reqKind = iota + 1
	reqRegion
	reqFailure
)

type req struct {
	kind reqKind

	run     runRow
	region  regionRow
	failure failureRow
}

type runRow struct {
	RunID      string
	Name       string
	Seed       int64
	Digest     string
	SpecPath   string
	Regions    int
	Failed     int
	POIs       int
	Buildings  int
	Connectors int
	Spawns     int
	SpawnError string
	StatsJSON  string
	CreatedAt  string
}

type regionRow struct {
	RunID       string
	RegionID    string
	Type        string
	SizeKm2     float64
	Cells       int
	GridDigest  string
	POIs        int
	Buildings   int
	Decorations int
	Error       string
}

type failureRow struct {
	RunID    string
	Region   string
	Pass     string
	Item     string
	Required bool
}

// QueueStats reports the async writer's queue and what it dropped.
type QueueStats struct {
	QueueDepth       int    `json:"queue_depth"`
	QueueCapacity    int    `json:"queue_capacity"`
	DropRunTotal     uint64 `json:"drop_run_total"`
	DropRegionTotal  uint64 `json:"drop_region_total"`
	DropFailureTotal uint64 `json:"drop_failure_total"`
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db: db,
		// Large worlds report many placement failures in a burst.
		ch: make(chan req, 65536),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS catalogs (
			name TEXT PRIMARY KEY,
			digest TEXT NOT NULL,
			json TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			seed INTEGER NOT NULL,
			digest TEXT NOT NULL,
			spec_path TEXT NOT NULL,
			regions INTEGER NOT NULL,
			regions_failed INTEGER NOT NULL,
			pois INTEGER NOT NULL,
			buildings INTEGER NOT NULL,
			connectors INTEGER NOT NULL,
			spawns INTEGER NOT NULL,
			spawn_error TEXT,
			stats_json TEXT NOT NULL,
			created_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_runs_seed ON runs(seed);`,
		`CREATE TABLE IF NOT EXISTS regions (
			run_id TEXT NOT NULL,
			region_id TEXT NOT NULL,
			type TEXT NOT NULL,
			size_km2 REAL NOT NULL,
			cells INTEGER NOT NULL,
			grid_digest TEXT NOT NULL,
			pois INTEGER NOT NULL,
			buildings INTEGER NOT NULL,
			decorations INTEGER NOT NULL,
			error TEXT,
			PRIMARY KEY (run_id, region_id)
		);`,
		`CREATE TABLE IF NOT EXISTS placement_failures (
			run_id TEXT NOT NULL,
			seq INTEGER NOT NULL,
			region_id TEXT NOT NULL,
			pass TEXT NOT NULL,
			item TEXT NOT NULL,
			required INTEGER NOT NULL,
			PRIMARY KEY (run_id, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_failures_item ON placement_failures(item, required);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

func (s *SQLiteIndex) Stats() QueueStats {
	if s == nil {
		return QueueStats{}
	}
	return QueueStats{
		QueueDepth:       len(s.ch),
		QueueCapacity:    cap(s.ch),
		DropRunTotal:     s.dropRun.Load(),
		DropRegionTotal:  s.dropRegion.Load(),
		DropFailureTotal: s.dropFailure.Load(),
	}
}

// enqueue never blocks generation; a full queue drops the row. The run log
// stays the source of truth.
func (s *SQLiteIndex) enqueue(r req, drops *atomic.Uint64) {
	if s == nil || s.closed.Load() {
		return
	}
	select {
	case s.ch <- r:
	default:
		drops.Add(1)
	}
}

// RecordRun indexes one finished run and its regions.
func (s *SQLiteIndex) RecordRun(runID, specPath string, res *pipeline.Result) {
	if s == nil || res == nil {
		return
	}
	stats, _ := json.Marshal(res.Stats)
	s.enqueue(req{kind: reqRun, run: runRow{
		RunID:      runID,
		Name:       res.Name,
		Seed:       res.Seed,
		Digest:     res.Digest(),
		SpecPath:   specPath,
		Regions:    res.Stats.Regions,
		Failed:     res.Stats.RegionsFailed,
		POIs:       res.Stats.POIs,
		Buildings:  res.Stats.Buildings,
		Connectors: res.Stats.Connectors,
		Spawns:     res.Stats.Spawns,
		SpawnError: res.Stats.SpawnError,
		StatsJSON:  string(stats),
		CreatedAt:  time.Now().UTC().Format(time.RFC3339Nano),
	}}, &s.dropRun)

	for _, reg := range res.Regions {
		row := regionRow{
			RunID:       runID,
			RegionID:    reg.ID,
			Type:        reg.Type,
			SizeKm2:     reg.SizeKm2,
			POIs:        len(reg.POIs),
			Buildings:   len(reg.Buildings),
			Decorations: reg.Stats.Decorations,
			Error:       reg.Err,
		}
		if reg.Grid != nil {
			d := reg.Grid.Digest()
			row.Cells = reg.Grid.Width
			row.GridDigest = hex.EncodeToString(d[:])
		}
		s.enqueue(req{kind: reqRegion, region: row}, &s.dropRegion)
	}
}

// Sink returns an event sink that indexes the run's placement failures.
func (s *SQLiteIndex) Sink(runID string) pipeline.EventSink {
	return failureSink{s: s, runID: runID}
}

type failureSink struct {
	s     *SQLiteIndex
	runID string
}

func (f failureSink) Emit(ev pipeline.Event) error {
	if ev.Type != pipeline.EventPlacementFailure {
		return nil
	}
	f.s.enqueue(req{kind: reqFailure, failure: failureRow{
		RunID:    f.runID,
		Region:   ev.Region,
		Pass:     ev.Pass,
		Item:     ev.Item,
		Required: ev.Required,
	}}, &f.s.dropFailure)
	return nil
}

// UpsertCatalogs stores canonical JSON and digests of every catalog a run
// used, so runs can be compared by catalog digest.
func (s *SQLiteIndex) UpsertCatalogs(tpl *templates.Catalog, ents *entities.Catalog, tune tuning.Tuning) error {
	if s == nil {
		return nil
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)

	type kv struct {
		name   string
		digest string
		json   []byte
	}
	var rows []kv
	if tpl != nil {
		list := make([]templates.BiomeTemplate, 0, len(tpl.ByBiome))
		for _, b := range tpl.Biomes() {
			t, _ := tpl.Template(b)
			list = append(list, t)
		}
		if b, _ := json.Marshal(list); len(b) > 0 {
			rows = append(rows, kv{name: "biome_templates", digest: tpl.Digest, json: b})
		}
	}
	if ents != nil {
		if b, _ := json.Marshal(ents.All()); len(b) > 0 {
			rows = append(rows, kv{name: "entities", digest: ents.Digest, json: b})
		}
	}
	{
		b, _ := json.Marshal(tune)
		sum := sha256.Sum256(b)
		rows = append(rows, kv{name: "tuning", digest: hex.EncodeToString(sum[:]), json: b})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].name < rows[j].name })

	tx, err := s.db.BeginTx(context.Background(), nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','1')`); err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO catalogs(name,digest,json,updated_at) VALUES(?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for _, r := range rows {
		if r.digest == "" || len(r.json) == 0 {
			continue
		}
		if _, err := stmt.Exec(r.name, r.digest, string(r.json), now); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// RunSummary is one row of the runs table.
type RunSummary struct {
	RunID      string `json:"run_id"`
	Name       string `json:"name"`
	Seed       int64  `json:"seed"`
	Digest     string `json:"digest"`
	Regions    int    `json:"regions"`
	Spawns     int    `json:"spawns"`
	SpawnError string `json:"spawn_error,omitempty"`
	CreatedAt  string `json:"created_at"`
}

// Runs lists the newest runs first. Rows still queued are not visible.
func (s *SQLiteIndex) Runs(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `SELECT run_id,name,seed,digest,regions,spawns,COALESCE(spawn_error,''),created_at
		FROM runs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []RunSummary
	for rows.Next() {
		var r RunSummary
		if err := rows.Scan(&r.RunID, &r.Name, &r.Seed, &r.Digest, &r.Regions, &r.Spawns, &r.SpawnError, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	insertRun, _ := s.db.Prepare(`INSERT OR REPLACE INTO runs(run_id,name,seed,digest,spec_path,regions,regions_failed,pois,buildings,connectors,spawns,spawn_error,stats_json,created_at) VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	insertRegion, _ := s.db.Prepare(`INSERT OR REPLACE INTO regions(run_id,region_id,type,size_km2,cells,grid_digest,pois,buildings,decorations,error) VALUES(?,?,?,?,?,?,?,?,?,?)`)
	insertFailure, _ := s.db.Prepare(`INSERT OR REPLACE INTO placement_failures(run_id,seq,region_id,pass,item,required) VALUES(?,?,?,?,?,?)`)
	defer func() {
		for _, st := range []*sql.Stmt{insertRun, insertRegion, insertFailure} {
			if st != nil {
				_ = st.Close()
			}
		}
	}()

	var (
		tx            *sql.Tx
		opCount       int
		lastCommit    = time.Now()
		commitEvery   = 2000
		commitMaxWait = 2 * time.Second

		failureSeq = map[string]int{}
	)

	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
		lastCommit = time.Now()
	}
	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
		lastCommit = time.Now()
	}
	exec := func(st *sql.Stmt, args ...any) {
		if st == nil || tx == nil {
			return
		}
		if _, err := tx.Stmt(st).Exec(args...); err != nil {
			rollback()
			return
		}
		opCount++
	}

	for r := range s.ch {
		begin()
		if tx == nil {
			continue
		}
		switch r.kind {
		case reqRun:
			ru := r.run
			exec(insertRun, ru.RunID, ru.Name, ru.Seed, ru.Digest, ru.SpecPath, ru.Regions, ru.Failed,
				ru.POIs, ru.Buildings, ru.Connectors, ru.Spawns, ru.SpawnError, ru.StatsJSON, ru.CreatedAt)
		case reqRegion:
			rg := r.region
			exec(insertRegion, rg.RunID, rg.RegionID, rg.Type, rg.SizeKm2, rg.Cells, rg.GridDigest,
				rg.POIs, rg.Buildings, rg.Decorations, rg.Error)
		case reqFailure:
			f := r.failure
			seq := failureSeq[f.RunID]
			failureSeq[f.RunID] = seq + 1
			required := 0
			if f.Required {
				required = 1
			}
			exec(insertFailure, f.RunID, seq, f.Region, f.Pass, f.Item, required)
		}
		if tx != nil && (opCount >= commitEvery || time.Since(lastCommit) >= commitMaxWait) {
			commit()
		}
	}

	commit()
}
