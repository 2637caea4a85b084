package runlog

import (
	"os"
	"path/filepath"
	"testing"

	"worldforge.ai/internal/worldgen/pipeline"
)

func TestWriter_EmitAndReadAll(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "runs")
	w := NewWriter(dir, "worldgen", "run-1")
	events := []pipeline.Event{
		{Type: pipeline.EventRunStart, Data: map[string]any{"seed": 7}},
		{Type: pipeline.EventPlacementFailure, Region: "woods", Pass: pipeline.PassRequiredPOIs, Item: "well", Required: true},
		{Type: pipeline.EventRunEnd},
	}
	for _, ev := range events {
		if err := w.Emit(ev); err != nil {
			t.Fatalf("Emit: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if got := filepath.Base(w.Path()); got != "worldgen-run-1.jsonl.zst" {
		t.Fatalf("path: got %s", got)
	}

	recs, err := ReadAll(w.Path())
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("records: got %d want 3", len(recs))
	}
	for i, r := range recs {
		if r.Seq != uint64(i) || r.RunID != "run-1" || r.Type != events[i].Type {
			t.Fatalf("record %d: %+v", i, r)
		}
	}
	if !recs[1].Required || recs[1].Item != "well" {
		t.Fatalf("failure record lost fields: %+v", recs[1])
	}
}

func TestWriter_NoWritesNoFile(t *testing.T) {
	dir := t.TempDir()
	w := NewWriter(dir, "", "")
	if w.RunID() == "" {
		t.Fatalf("expected generated run id")
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := os.Stat(w.Path()); !os.IsNotExist(err) {
		t.Fatalf("unexpected file: %v", err)
	}
}

func TestWriter_ImplementsSink(t *testing.T) {
	var _ pipeline.EventSink = NewWriter(t.TempDir(), "x", "y")
}
