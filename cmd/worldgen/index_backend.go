package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"worldforge.ai/internal/persistence/indexdb"
	"worldforge.ai/internal/worldgen/entities"
	"worldforge.ai/internal/worldgen/pipeline"
	"worldforge.ai/internal/worldgen/templates"
	"worldforge.ai/internal/worldgen/tuning"
)

type runIndex interface {
	Close() error
	UpsertCatalogs(tpl *templates.Catalog, ents *entities.Catalog, tune tuning.Tuning) error
	RecordRun(runID, specPath string, res *pipeline.Result)
	Sink(runID string) pipeline.EventSink
}

func openRunIndex(worldDir string, disableDB bool) (runIndex, error) {
	if disableDB {
		return nil, nil
	}

	backend := strings.ToLower(strings.TrimSpace(os.Getenv("WORLDGEN_INDEX_BACKEND")))
	if backend == "" {
		backend = "sqlite"
	}

	switch backend {
	case "none", "off", "disabled":
		return nil, nil
	case "sqlite":
		return indexdb.OpenSQLite(filepath.Join(worldDir, "index", "runs.sqlite"))
	default:
		return nil, fmt.Errorf("unsupported WORLDGEN_INDEX_BACKEND: %s", backend)
	}
}
