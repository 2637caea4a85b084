// Package runlog writes one compressed JSONL event stream per generation run.
package runlog

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"

	"worldforge.ai/internal/worldgen/pipeline"
)

// Record is one line of the run log.
type Record struct {
	RunID string `json:"run_id"`
	Seq   uint64 `json:"seq"`
	pipeline.Event
}

// NewRunID returns a fresh random run id.
func NewRunID() string {
	return uuid.NewString()
}

// Writer appends records to <dir>/<prefix>-<run_id>.jsonl.zst. The file is
// created on the first write.
type Writer struct {
	dir    string
	prefix string
	runID  string

	mu  sync.Mutex
	seq uint64
	f   *os.File
	enc *zstd.Encoder
	w   *bufio.Writer
}

func NewWriter(dir, prefix, runID string) *Writer {
	if runID == "" {
		runID = NewRunID()
	}
	if prefix == "" {
		prefix = "run"
	}
	return &Writer{dir: dir, prefix: prefix, runID: runID}
}

func (w *Writer) RunID() string { return w.runID }

func (w *Writer) Path() string {
	return filepath.Join(w.dir, fmt.Sprintf("%s-%s.jsonl.zst", w.prefix, w.runID))
}

// Emit implements pipeline.EventSink.
func (w *Writer) Emit(ev pipeline.Event) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	rec := Record{RunID: w.runID, Seq: w.seq, Event: ev}
	w.seq++
	return w.writeLocked(rec)
}

func (w *Writer) writeLocked(v any) error {
	if w.w == nil {
		if err := w.openLocked(); err != nil {
			return err
		}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	return w.w.WriteByte('\n')
}

func (w *Writer) openLocked() error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(w.Path(), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return err
	}
	w.f = f
	w.enc = enc
	w.w = bufio.NewWriterSize(enc, 128*1024)
	return nil
}

// Close flushes the stream. A writer that never wrote creates no file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	var err1 error
	if w.w != nil {
		err1 = w.w.Flush()
	}
	if w.enc != nil {
		if err := w.enc.Close(); err1 == nil {
			err1 = err
		}
		w.enc = nil
	}
	if w.f != nil {
		if err := w.f.Close(); err1 == nil {
			err1 = err
		}
		w.f = nil
	}
	w.w = nil
	return err1
}

// ReadAll decodes every record of a run log.
func ReadAll(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	var out []Record
	jd := json.NewDecoder(bufio.NewReader(dec))
	for {
		var rec Record
		if err := jd.Decode(&rec); err != nil {
			if errors.Is(err, io.EOF) {
				return out, nil
			}
			return out, fmt.Errorf("%s: record %d: %w", filepath.Base(path), len(out), err)
		}
		out = append(out, rec)
	}
}
