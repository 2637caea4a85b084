// Package archive pins one dump per seed as the reference for later runs.
package archive

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"worldforge.ai/internal/persistence/dump"
)

type Meta struct {
	Seed      int64  `json:"seed"`
	Digest    string `json:"digest"`
	RunID     string `json:"run_id,omitempty"`
	Dump      string `json:"dump"`
	Regions   int    `json:"regions"`
	CreatedAt string `json:"created_at"`
}

func seedDir(worldDir string, seed int64) string {
	return filepath.Join(worldDir, "archives", fmt.Sprintf("seed_%d", seed))
}

// Lookup returns the pinned meta for a seed, if any.
func Lookup(worldDir string, seed int64) (Meta, bool, error) {
	var m Meta
	b, err := os.ReadFile(filepath.Join(seedDir(worldDir, seed), "meta.json"))
	if errors.Is(err, fs.ErrNotExist) {
		return m, false, nil
	}
	if err != nil {
		return m, false, err
	}
	if err := json.Unmarshal(b, &m); err != nil {
		return m, false, fmt.Errorf("meta.json: %w", err)
	}
	return m, true, nil
}

// Pin copies a dump into `worldDir/archives/seed_<seed>/` unless that seed is
// already pinned. It returns the archived path and whether a copy was made.
func Pin(worldDir, dumpPath string, h dump.Header) (archivedPath string, pinned bool, err error) {
	if _, ok, err := Lookup(worldDir, h.Seed); err != nil || ok {
		return "", false, err
	}
	dir := seedDir(worldDir, h.Seed)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", false, err
	}
	dst := filepath.Join(dir, filepath.Base(dumpPath))
	if err := copyFile(dumpPath, dst); err != nil {
		return "", false, err
	}
	meta := Meta{
		Seed:      h.Seed,
		Digest:    h.Digest,
		RunID:     h.RunID,
		Dump:      filepath.Base(dst),
		Regions:   h.Regions,
		CreatedAt: time.Now().UTC().Format(time.RFC3339Nano),
	}
	b, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return "", false, err
	}
	if err := os.WriteFile(filepath.Join(dir, "meta.json"), b, 0o644); err != nil {
		return "", false, err
	}
	return dst, true, nil
}

// ErrDrift reports a run whose digest differs from the pinned one for the
// same seed.
var ErrDrift = errors.New("digest drift")

// Check compares a run against the pinned digest for its seed. An unpinned
// seed passes.
func Check(worldDir string, h dump.Header) error {
	m, ok, err := Lookup(worldDir, h.Seed)
	if err != nil || !ok {
		return err
	}
	if m.Digest != h.Digest {
		return fmt.Errorf("seed %d: pinned %s (run %s), got %s: %w", h.Seed, m.Digest, m.RunID, h.Digest, ErrDrift)
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() { _ = out.Close() }()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
