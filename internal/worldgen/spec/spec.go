// Package spec loads and validates the declarative world specification.
package spec

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"worldforge.ai/internal/worldgen/model"
	"worldforge.ai/internal/worldgen/templates"
)

// MaxRegionKm2 caps one region so a typo cannot allocate a huge grid.
const MaxRegionKm2 = 64

var ErrNoRegions = errors.New("regions must not be empty")

type WorldSpec struct {
	Name        string            `yaml:"name" json:"name"`
	Seed        int64             `yaml:"seed" json:"seed"`
	Regions     []RegionSpec      `yaml:"regions" json:"regions"`
	Connectors  []ConnectorSpec   `yaml:"connectors,omitempty" json:"connectors,omitempty"`
	SpawnPoints []model.SpawnSpec `yaml:"spawn_points,omitempty" json:"spawn_points,omitempty"`
}

type RegionSpec struct {
	ID               string                   `yaml:"id" json:"id"`
	Type             string                   `yaml:"type" json:"type"`
	SizeKm2          float64                  `yaml:"size_km2" json:"size_km2"`
	GenerationParams templates.Params         `yaml:"generation_params,omitempty" json:"generation_params,omitempty"`
	MustHave         []templates.RequiredPOI  `yaml:"must_have,omitempty" json:"must_have,omitempty"`
	ShouldHave       []templates.OptionalPOI  `yaml:"should_have,omitempty" json:"should_have,omitempty"`
	Buildings        []templates.BuildingType `yaml:"buildings,omitempty" json:"buildings,omitempty"`
	POIs             []templates.POIType      `yaml:"pois,omitempty" json:"pois,omitempty"`
	Decorations      []templates.Decoration   `yaml:"decorations,omitempty" json:"decorations,omitempty"`
}

// ConnectorSpec declares a link explicitly. Empty type and zero traversal
// values are filled from the connector table by the pipeline.
type ConnectorSpec struct {
	ID            string  `yaml:"id" json:"id"`
	Type          string  `yaml:"type" json:"type"`
	From          string  `yaml:"from" json:"from"`
	To            string  `yaml:"to" json:"to"`
	Exit          string  `yaml:"exit,omitempty" json:"exit,omitempty"`
	Entrance      string  `yaml:"entrance,omitempty" json:"entrance,omitempty"`
	TraversalTime float64 `yaml:"traversal_time,omitempty" json:"traversal_time,omitempty"`
	Difficulty    int     `yaml:"difficulty,omitempty" json:"difficulty,omitempty"`
	Discovered    bool    `yaml:"discovered,omitempty" json:"discovered,omitempty"`
}

// Story is the override block handed to the template merge.
func (r RegionSpec) Story() *templates.Story {
	return &templates.Story{
		Params:      r.GenerationParams,
		MustHave:    r.MustHave,
		ShouldHave:  r.ShouldHave,
		Buildings:   r.Buildings,
		POIs:        r.POIs,
		Decorations: r.Decorations,
	}
}

//go:embed world.schema.json
var schemaJSON []byte

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		c := jsonschema.NewCompiler()
		if err := c.AddResource("world.schema.json", bytes.NewReader(schemaJSON)); err != nil {
			schemaErr = err
			return
		}
		schema, schemaErr = c.Compile("world.schema.json")
	})
	return schema, schemaErr
}

// Load reads a world spec from YAML or JSON.
func Load(path string) (*WorldSpec, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("world spec path must not be empty")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(b)
}

// Parse checks raw against the embedded schema, decodes it, then normalizes
// and validates the result.
func Parse(raw []byte) (*WorldSpec, error) {
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("world spec: %w", err)
	}
	if err := ValidateSchema(doc); err != nil {
		return nil, fmt.Errorf("world spec: %w", err)
	}
	var w WorldSpec
	if err := yaml.Unmarshal(raw, &w); err != nil {
		return nil, fmt.Errorf("world spec: %w", err)
	}
	w.Normalize()
	if err := w.Validate(); err != nil {
		return nil, fmt.Errorf("world spec: %w", err)
	}
	return &w, nil
}

// ValidateSchema validates a decoded document. YAML decodes to Go ints and
// map[string]any; a JSON round trip gives the validator the shapes it expects.
func ValidateSchema(doc any) error {
	s, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("schema: %w", err)
	}
	if doc == nil {
		return ErrNoRegions
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	return s.Validate(v)
}

func (w *WorldSpec) Normalize() {
	if w == nil {
		return
	}
	for i := range w.Regions {
		r := &w.Regions[i]
		r.ID = strings.TrimSpace(r.ID)
		r.Type = strings.ToLower(strings.TrimSpace(r.Type))
		for j := range r.MustHave {
			r.MustHave[j].Tags = model.NormalizeTags(r.MustHave[j].Tags)
		}
		for j := range r.ShouldHave {
			r.ShouldHave[j].Tags = model.NormalizeTags(r.ShouldHave[j].Tags)
		}
	}
	for i := range w.Connectors {
		c := &w.Connectors[i]
		c.From = strings.TrimSpace(c.From)
		c.To = strings.TrimSpace(c.To)
		if strings.TrimSpace(c.ID) == "" {
			c.ID = c.From + "_to_" + c.To
		}
	}
	for i := range w.SpawnPoints {
		s := &w.SpawnPoints[i]
		s.ID = strings.TrimSpace(s.ID)
		if s.Count <= 0 {
			s.Count = 1
		}
		if s.Placement == "" {
			s.Placement = model.PlaceExterior
		}
		if s.Scale <= 0 {
			s.Scale = 1
		}
		if s.Kind == "" {
			s.Kind = "npc"
		}
		s.Filter.Tags = model.NormalizeTags(s.Filter.Tags)
	}
}

// Validate checks structure only. Unknown biome types are reported per region
// by the pipeline so other regions still generate.
func (w WorldSpec) Validate() error {
	if len(w.Regions) == 0 {
		return ErrNoRegions
	}
	seen := map[string]bool{}
	for _, r := range w.Regions {
		if r.ID == "" {
			return fmt.Errorf("region id must not be empty")
		}
		if seen[r.ID] {
			return fmt.Errorf("duplicate region id: %s", r.ID)
		}
		seen[r.ID] = true
		if r.Type == "" {
			return fmt.Errorf("region %s type must not be empty", r.ID)
		}
		if r.SizeKm2 <= 0 || r.SizeKm2 > MaxRegionKm2 {
			return fmt.Errorf("region %s size_km2 must be in (0, %d]", r.ID, MaxRegionKm2)
		}
		for _, m := range r.MustHave {
			if m.Count < 0 {
				return fmt.Errorf("region %s must_have %s: count must not be negative", r.ID, m.Type)
			}
		}
		for _, b := range r.Buildings {
			if b.MinSize <= 0 || b.MaxSize < b.MinSize {
				return fmt.Errorf("region %s building %s: bad size range", r.ID, b.Type)
			}
		}
	}
	for i, c := range w.Connectors {
		if c.From == "" || c.To == "" {
			return fmt.Errorf("connectors[%d] missing from/to", i)
		}
		if c.Difficulty < 0 || c.Difficulty > 5 {
			return fmt.Errorf("connectors[%d] difficulty must be in [0,5]", i)
		}
	}
	spawnIDs := map[string]bool{}
	for i, s := range w.SpawnPoints {
		if s.ID == "" {
			return fmt.Errorf("spawn_points[%d] id must not be empty", i)
		}
		if spawnIDs[s.ID] {
			return fmt.Errorf("duplicate spawn id: %s", s.ID)
		}
		spawnIDs[s.ID] = true
		if !s.Placement.Valid() {
			return fmt.Errorf("spawn %s: unknown placement %q", s.ID, s.Placement)
		}
		if s.Region == "" {
			return fmt.Errorf("spawn %s: region must not be empty", s.ID)
		}
	}
	return nil
}

// RegionIndex maps region ids to their declaration index.
func (w *WorldSpec) RegionIndex() map[string]int {
	out := make(map[string]int, len(w.Regions))
	for i, r := range w.Regions {
		out[r.ID] = i
	}
	return out
}
