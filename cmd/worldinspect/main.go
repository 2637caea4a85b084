package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"worldforge.ai/internal/persistence/dump"
	"worldforge.ai/internal/persistence/indexdb"
	"worldforge.ai/internal/persistence/runlog"
	"worldforge.ai/internal/worldgen/pipeline"
	"worldforge.ai/internal/worldgen/terrain"
)

func main() {
	var (
		dumpPath  = flag.String("dump", "", "path to .dump.zst")
		runsDir   = flag.String("runs", "", "dir containing run-*.jsonl.zst (optional)")
		indexPath = flag.String("index", "", "run index sqlite path (optional)")
		limit     = flag.Int("limit", 20, "max runs listed from the index")
		terrainOn = flag.Bool("terrain", false, "print per-region terrain histograms")
	)
	flag.Parse()

	if *dumpPath == "" && *runsDir == "" && *indexPath == "" {
		fmt.Fprintln(os.Stderr, "missing -dump, -runs or -index")
		os.Exit(2)
	}

	if *dumpPath != "" {
		if err := inspectDump(*dumpPath, *terrainOn); err != nil {
			fmt.Fprintln(os.Stderr, "dump:", err)
			os.Exit(1)
		}
	}
	if *runsDir != "" {
		files, err := listRunFiles(*runsDir)
		if err != nil {
			fmt.Fprintln(os.Stderr, "list runs:", err)
			os.Exit(1)
		}
		for _, path := range files {
			if err := inspectRun(path); err != nil {
				fmt.Fprintln(os.Stderr, "run log:", err)
				os.Exit(1)
			}
		}
	}
	if *indexPath != "" {
		if err := inspectIndex(*indexPath, *limit); err != nil {
			fmt.Fprintln(os.Stderr, "index:", err)
			os.Exit(1)
		}
	}
}

func inspectDump(path string, histograms bool) error {
	d, err := dump.Read(path)
	if err != nil {
		return err
	}
	h := d.Header
	fmt.Printf("dump v%d world=%s run=%s seed=%d digest=%s regions=%d connectors=%d spawns=%d\n",
		h.Version, h.Name, h.RunID, h.Seed, h.Digest, h.Regions, len(d.Connectors), len(d.Spawns))
	for _, r := range d.Regions {
		if r.Error != "" {
			fmt.Printf("  region %s (%s) FAILED: %s\n", r.ID, r.Type, r.Error)
			continue
		}
		fmt.Printf("  region %s (%s) %dx%d offset=(%.0f,%.0f) pois=%d buildings=%d decorations=%d grid=%s\n",
			r.ID, r.Type, r.Width, r.Height, r.Offset[0], r.Offset[1],
			len(r.POIs), len(r.Buildings), r.Stats.Decorations, shortDigest(r.GridDigest))
		if !histograms {
			continue
		}
		g, err := r.Grid()
		if err != nil {
			return err
		}
		for t := terrain.Empty; t <= terrain.Beach; t++ {
			if n := g.CountTerrain(t); n > 0 {
				fmt.Printf("    %-10s %d\n", t, n)
			}
		}
	}
	for _, c := range d.Connectors {
		fmt.Printf("  connector %s %s -> %s type=%s minutes=%.0f difficulty=%d\n", c.ID, c.From, c.To, c.Type, c.TraversalTime, c.Difficulty)
	}
	if d.Stats.SpawnError != "" {
		fmt.Printf("  spawn pass aborted: %s\n", d.Stats.SpawnError)
	}
	return nil
}

func listRunFiles(dir string) ([]string, error) {
	ents, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(ents))
	for _, e := range ents {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, "run-") && strings.HasSuffix(name, ".jsonl.zst") {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	out := make([]string, 0, len(names))
	for _, name := range names {
		out = append(out, filepath.Join(dir, name))
	}
	return out, nil
}

func inspectRun(path string) error {
	recs, err := runlog.ReadAll(path)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		fmt.Printf("run log %s: empty\n", filepath.Base(path))
		return nil
	}
	byType := map[string]int{}
	failures := map[string]int{}
	required := 0
	for _, r := range recs {
		byType[r.Type]++
		if r.Type == pipeline.EventPlacementFailure {
			failures[r.Region+"/"+r.Item]++
			if r.Required {
				required++
			}
		}
	}
	fmt.Printf("run %s: events=%d failures=%d required_failures=%d\n", recs[0].RunID, len(recs), byType[pipeline.EventPlacementFailure], required)
	types := make([]string, 0, len(byType))
	for t := range byType {
		types = append(types, t)
	}
	sort.Strings(types)
	for _, t := range types {
		fmt.Printf("  %-18s %d\n", t, byType[t])
	}
	keys := make([]string, 0, len(failures))
	for k := range failures {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("  failed %-28s x%d\n", k, failures[k])
	}
	return nil
}

func inspectIndex(path string, limit int) error {
	if _, err := os.Stat(path); err != nil {
		return err
	}
	idx, err := indexdb.OpenSQLite(path)
	if err != nil {
		return err
	}
	defer idx.Close()
	runs, err := idx.Runs(context.Background(), limit)
	if err != nil {
		return err
	}
	for _, r := range runs {
		status := "ok"
		if r.SpawnError != "" {
			status = "spawn_error"
		}
		fmt.Printf("%s %s world=%s seed=%d regions=%d spawns=%d digest=%s %s\n",
			r.CreatedAt, r.RunID, r.Name, r.Seed, r.Regions, r.Spawns, shortDigest(r.Digest), status)
	}
	return nil
}

func shortDigest(d string) string {
	if len(d) > 12 {
		return d[:12]
	}
	return d
}
