// Package dump writes and reads generated worlds as zstd-compressed files: one
// JSON header line followed by the JSON body.
package dump

import (
	"bufio"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"worldforge.ai/internal/worldgen/encoding"
	"worldforge.ai/internal/worldgen/model"
	"worldforge.ai/internal/worldgen/pipeline"
	"worldforge.ai/internal/worldgen/terrain"
)

const Version = 1

type Header struct {
	Version int    `json:"version"`
	RunID   string `json:"run_id,omitempty"`
	Name    string `json:"name"`
	Seed    int64  `json:"seed"`
	Digest  string `json:"digest"`
	Regions int    `json:"regions"`
}

type RegionV1 struct {
	ID      string     `json:"id"`
	Type    string     `json:"type"`
	SizeKm2 float64    `json:"size_km2"`
	Offset  [2]float64 `json:"offset"`
	Width   int        `json:"width"`
	Height  int        `json:"height"`

	// Layers are RLE-encoded; elevation keeps the raw float64 bits.
	Terrain    string `json:"terrain,omitempty"`
	Occupancy  string `json:"occupancy,omitempty"`
	Path       string `json:"path,omitempty"`
	Elevation  string `json:"elevation,omitempty"`
	GridDigest string `json:"grid_digest,omitempty"`

	POIs        []model.POI          `json:"pois"`
	Buildings   []model.Building     `json:"buildings"`
	Decorations map[string]int       `json:"decorations,omitempty"`
	Stats       pipeline.RegionStats `json:"stats"`
	Error       string               `json:"error,omitempty"`
}

type DumpV1 struct {
	Header Header `json:"header"`

	Regions    []RegionV1          `json:"regions"`
	Connectors []model.Connector   `json:"connectors"`
	Spawns     []model.PlacedSpawn `json:"spawns"`
	Stats      pipeline.Stats      `json:"stats"`
}

// FromResult captures a pipeline result.
func FromResult(res *pipeline.Result, runID string) DumpV1 {
	d := DumpV1{
		Header: Header{
			Version: Version,
			RunID:   runID,
			Name:    res.Name,
			Seed:    res.Seed,
			Digest:  res.Digest(),
			Regions: len(res.Regions),
		},
		Connectors: res.Connectors,
		Spawns:     res.Spawns,
		Stats:      res.Stats,
	}
	for _, reg := range res.Regions {
		rv := RegionV1{
			ID:          reg.ID,
			Type:        reg.Type,
			SizeKm2:     reg.SizeKm2,
			Offset:      reg.Offset,
			POIs:        reg.POIs,
			Buildings:   reg.Buildings,
			Decorations: reg.Decorations,
			Stats:       reg.Stats,
			Error:       reg.Err,
		}
		if g := reg.Grid; g != nil {
			ter, occ, path, elev := g.Layers()
			sum := g.Digest()
			rv.Width, rv.Height = g.Width, g.Height
			rv.Terrain = encoding.EncodeLayer(ter)
			rv.Occupancy = encoding.EncodeLayer(occ)
			rv.Path = encoding.EncodeLayer(path)
			rv.Elevation = encoding.EncodeElevation(elev)
			rv.GridDigest = hex.EncodeToString(sum[:])
		}
		d.Regions = append(d.Regions, rv)
	}
	return d
}

// Grid rebuilds the region's grid exactly; its Digest matches GridDigest.
// A failed region has no grid.
func (r RegionV1) Grid() (*terrain.Grid, error) {
	if r.Width <= 0 || r.Height <= 0 {
		return nil, fmt.Errorf("region %s has no grid", r.ID)
	}
	n := r.Width * r.Height
	ter, err := encoding.DecodeLayer(r.Terrain, n)
	if err != nil {
		return nil, fmt.Errorf("region %s terrain: %w", r.ID, err)
	}
	occ, err := encoding.DecodeLayer(r.Occupancy, n)
	if err != nil {
		return nil, fmt.Errorf("region %s occupancy: %w", r.ID, err)
	}
	path, err := encoding.DecodeLayer(r.Path, n)
	if err != nil {
		return nil, fmt.Errorf("region %s path: %w", r.ID, err)
	}
	elev, err := encoding.DecodeElevation(r.Elevation, n)
	if err != nil {
		return nil, fmt.Errorf("region %s elevation: %w", r.ID, err)
	}
	g := terrain.NewGrid(r.Width, r.Height)
	if !g.LoadLayers(ter, occ, path, elev) {
		return nil, fmt.Errorf("region %s: layer size mismatch", r.ID)
	}
	return g, nil
}

func Write(path string, d DumpV1) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}
	bw := bufio.NewWriterSize(enc, 256*1024)

	hb, _ := json.Marshal(d.Header)
	if _, err := bw.Write(hb); err != nil {
		_ = enc.Close()
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		_ = enc.Close()
		return err
	}
	if err := json.NewEncoder(bw).Encode(&d); err != nil {
		_ = enc.Close()
		return fmt.Errorf("json encode: %w", err)
	}
	if err := bw.Flush(); err != nil {
		_ = enc.Close()
		return err
	}
	return enc.Close()
}

func Read(path string) (DumpV1, error) {
	var d DumpV1
	f, err := os.Open(path)
	if err != nil {
		return d, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return d, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 256*1024)
	if _, err := br.ReadBytes('\n'); err != nil {
		return d, fmt.Errorf("header: %w", err)
	}
	if err := json.NewDecoder(br).Decode(&d); err != nil {
		return d, fmt.Errorf("json decode: %w", err)
	}
	if d.Header.Version != Version {
		return d, fmt.Errorf("unsupported dump version %d", d.Header.Version)
	}
	return d, nil
}

// ReadHeader decodes only the first line.
func ReadHeader(path string) (Header, error) {
	var h Header
	f, err := os.Open(path)
	if err != nil {
		return h, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return h, err
	}
	defer dec.Close()

	line, err := bufio.NewReader(dec).ReadBytes('\n')
	if err != nil {
		return h, fmt.Errorf("header: %w", err)
	}
	if err := json.Unmarshal(line, &h); err != nil {
		return h, fmt.Errorf("header: %w", err)
	}
	return h, nil
}
