package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"

	"worldforge.ai/internal/persistence/archive"
	"worldforge.ai/internal/persistence/dump"
	"worldforge.ai/internal/persistence/runlog"
	"worldforge.ai/internal/worldgen/entities"
	"worldforge.ai/internal/worldgen/pipeline"
	"worldforge.ai/internal/worldgen/spec"
	"worldforge.ai/internal/worldgen/templates"
	"worldforge.ai/internal/worldgen/tuning"
)

func main() {
	var (
		specPath     = flag.String("spec", "", "world spec (.yaml or .json)")
		seed         = flag.Int64("seed", 0, "override the spec seed (only when set)")
		configDir    = flag.String("configs", "./configs", "config directory")
		templatesDir = flag.String("templates", "", "biome template overrides dir (default: <configs>/biomes if present)")
		entitiesPath = flag.String("entities", "", "entity catalog (default: <configs>/entities.yaml if present)")
		tuningPath   = flag.String("tuning", "", "path to tuning.yaml (default: <configs>/tuning.yaml)")
		dataDir      = flag.String("data", "./data", "output data directory")
		dumpPath     = flag.String("dump", "", "world dump path (default: <data>/worlds/<name>/<run_id>.dump.zst)")
		runID        = flag.String("run_id", "", "run id (default: random uuid)")
		disableDB    = flag.Bool("disable_db", false, "disable the run index")
		printJSON    = flag.Bool("print", false, "print the run stats as JSON")
		pin          = flag.Bool("pin", false, "pin this dump as the reference for its seed (first run per seed only)")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[worldgen] ", log.LstdFlags|log.Lmicroseconds)

	if strings.TrimSpace(*specPath) == "" {
		fmt.Fprintln(os.Stderr, "missing -spec")
		os.Exit(2)
	}
	w, err := spec.Load(*specPath)
	if err != nil {
		logger.Fatalf("load spec: %v", err)
	}
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "seed" {
			w.Seed = *seed
		}
	})

	tp := strings.TrimSpace(*tuningPath)
	if tp == "" {
		tp = filepath.Join(*configDir, "tuning.yaml")
	}
	tune, err := tuning.Load(tp)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logger.Fatalf("load tuning: %v", err)
		}
		logger.Printf("tuning not found (%s); using defaults", tp)
	}

	td := strings.TrimSpace(*templatesDir)
	if td == "" {
		if st, err := os.Stat(filepath.Join(*configDir, "biomes")); err == nil && st.IsDir() {
			td = filepath.Join(*configDir, "biomes")
		}
	}
	tpl, err := templates.Load(td)
	if err != nil {
		logger.Fatalf("load templates: %v", err)
	}

	ents, err := loadEntities(*entitiesPath, *configDir)
	if err != nil {
		logger.Fatalf("load entities: %v", err)
	}

	id := strings.TrimSpace(*runID)
	if id == "" {
		id = runlog.NewRunID()
	}
	name := w.Name
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(*specPath), filepath.Ext(*specPath))
	}
	worldDir := filepath.Join(*dataDir, "worlds", name)

	rl := runlog.NewWriter(filepath.Join(worldDir, "runs"), "run", id)
	defer func() {
		if err := rl.Close(); err != nil {
			logger.Printf("close run log: %v", err)
		}
	}()
	sinks := pipeline.Sinks{rl}

	// The index is a read model only; it never feeds back into generation.
	idx, err := openRunIndex(worldDir, *disableDB)
	if err != nil {
		logger.Fatalf("open run index: %v", err)
	}
	if idx != nil {
		defer idx.Close()
		if err := idx.UpsertCatalogs(tpl, ents, tune); err != nil {
			logger.Printf("index catalogs: %v", err)
		}
		sinks = append(sinks, idx.Sink(id))
	}

	opts := pipeline.Options{
		Logger:    logger,
		Tuning:    tune,
		Templates: tpl,
		Events:    sinks,
	}
	if ents != nil {
		opts.Entities = ents
	}
	logger.Printf("run %s: world=%s seed=%d regions=%d", id, name, w.Seed, len(w.Regions))
	res, err := pipeline.Generate(w, opts)
	if err != nil {
		logger.Fatalf("generate: %v", err)
	}

	dp := strings.TrimSpace(*dumpPath)
	if dp == "" {
		dp = filepath.Join(worldDir, id+".dump.zst")
	}
	d := dump.FromResult(res, id)
	if err := dump.Write(dp, d); err != nil {
		logger.Fatalf("write dump: %v", err)
	}
	if err := archive.Check(worldDir, d.Header); err != nil {
		logger.Printf("warn: %v", err)
	}
	if *pin {
		if p, ok, err := archive.Pin(worldDir, dp, d.Header); err != nil {
			logger.Printf("pin dump: %v", err)
		} else if ok {
			logger.Printf("pinned seed %d: %s", d.Header.Seed, p)
		}
	}
	if idx != nil {
		idx.RecordRun(id, *specPath, res)
	}

	st := res.Stats
	logger.Printf("run %s: digest=%s regions=%d failed=%d pois=%d buildings=%d connectors=%d spawns=%d dump=%s",
		id, res.Digest(), st.Regions, st.RegionsFailed, st.POIs, st.Buildings, st.Connectors, st.Spawns, dp)
	if *printJSON {
		b, _ := json.MarshalIndent(st, "", "  ")
		fmt.Println(string(b))
	}
	if res.SpawnErr != nil {
		logger.Printf("spawn pass aborted: %v", res.SpawnErr)
		rl.Close()
		if idx != nil {
			idx.Close()
		}
		os.Exit(1)
	}
}

// loadEntities returns nil when no catalog is configured; spawns then accept
// explicit entity ids unchecked.
func loadEntities(path, configDir string) (*entities.Catalog, error) {
	p := strings.TrimSpace(path)
	if p == "" {
		p = filepath.Join(configDir, "entities.yaml")
		if _, err := os.Stat(p); err != nil {
			return nil, nil
		}
	}
	return entities.Load(p)
}
