// Package templates holds the per-biome declarative defaults (weighted building
// and POI catalogs, decorations, generation parameters) and the budget
// allocator that fills a region from them.
package templates

import (
	"bytes"
	"crypto/sha256"
	"embed"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed defaults/*.yaml
var defaultFS embed.FS

type BuildingType struct {
	Type    string   `yaml:"type" json:"type"`
	Weight  float64  `yaml:"weight" json:"weight"`
	Density float64  `yaml:"density" json:"density"`
	MinSize int      `yaml:"min_size" json:"min_size"`
	MaxSize int      `yaml:"max_size" json:"max_size"`
	Tags    []string `yaml:"tags,omitempty" json:"tags,omitempty"`
}

type POIType struct {
	Type    string   `yaml:"type" json:"type"`
	Weight  float64  `yaml:"weight" json:"weight"`
	Density float64  `yaml:"density" json:"density"`
	Radius  int      `yaml:"radius,omitempty" json:"radius,omitempty"`
	Tags    []string `yaml:"tags,omitempty" json:"tags,omitempty"`
}

// Decoration is scattered in hash clusters after buildings are placed.
type Decoration struct {
	Type          string   `yaml:"type" json:"type"`
	Permille      int      `yaml:"permille" json:"permille"`
	ClusterGrid   int      `yaml:"cluster_grid" json:"cluster_grid"`
	ClusterRadius int      `yaml:"cluster_radius" json:"cluster_radius"`
	Terrain       []string `yaml:"terrain,omitempty" json:"terrain,omitempty"`
}

// RequiredPOI is one must_have entry: attempted exactly Count times.
type RequiredPOI struct {
	Type   string   `yaml:"type" json:"type"`
	Count  int      `yaml:"count" json:"count"`
	Tags   []string `yaml:"tags,omitempty" json:"tags,omitempty"`
	Radius int      `yaml:"radius,omitempty" json:"radius,omitempty"`
}

// UnmarshalYAML defaults an absent count to 1. An explicit count, zero
// included, is kept.
func (p *RequiredPOI) UnmarshalYAML(n *yaml.Node) error {
	type plain RequiredPOI
	v := plain{Count: 1}
	if err := n.Decode(&v); err != nil {
		return err
	}
	*p = RequiredPOI(v)
	return nil
}

// OptionalPOI is one should_have entry, gated by a Bernoulli trial.
type OptionalPOI struct {
	Type        string   `yaml:"type" json:"type"`
	Probability float64  `yaml:"probability" json:"probability"`
	Tags        []string `yaml:"tags,omitempty" json:"tags,omitempty"`
	Radius      int      `yaml:"radius,omitempty" json:"radius,omitempty"`
}

type BiomeTemplate struct {
	Biome string `yaml:"biome" json:"biome"`
	// Baselines are placements per km² before the density multiplier.
	BuildingBaseline float64 `yaml:"building_baseline_per_km2" json:"building_baseline_per_km2"`
	POIBaseline      float64 `yaml:"poi_baseline_per_km2" json:"poi_baseline_per_km2"`

	Buildings   []BuildingType `yaml:"default_buildings" json:"default_buildings"`
	POIs        []POIType      `yaml:"default_pois" json:"default_pois"`
	Decorations []Decoration   `yaml:"decorations" json:"decorations"`
	MustHave    []RequiredPOI  `yaml:"must_have" json:"must_have"`
	ShouldHave  []OptionalPOI  `yaml:"should_have" json:"should_have"`

	Defaults Params `yaml:"generation_defaults" json:"generation_defaults"`
}

// Catalog is the immutable-after-load registry of biome templates.
type Catalog struct {
	ByBiome map[string]BiomeTemplate
	Digest  string
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// Default loads only the embedded templates.
func Default() (*Catalog, error) {
	return Load("")
}

// Load reads the embedded templates, then every *.yaml under dir (if dir is
// set). A file in dir replaces the embedded template for the same biome.
func Load(dir string) (*Catalog, error) {
	files := map[string][]byte{}

	err := fs.WalkDir(defaultFS, "defaults", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(p, ".yaml") {
			return nil
		}
		b, err := defaultFS.ReadFile(p)
		if err != nil {
			return err
		}
		files[filepath.Base(p)] = b
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("embedded templates: %w", err)
	}

	if dir != "" {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
				continue
			}
			b, err := os.ReadFile(filepath.Join(dir, e.Name()))
			if err != nil {
				return nil, err
			}
			files[e.Name()] = b
		}
	}

	names := make([]string, 0, len(files))
	for n := range files {
		names = append(names, n)
	}
	sort.Strings(names)

	c := &Catalog{ByBiome: map[string]BiomeTemplate{}}
	var concat bytes.Buffer
	for _, n := range names {
		b := files[n]
		concat.Write(b)
		concat.WriteByte('\n')

		var t BiomeTemplate
		if err := yaml.Unmarshal(b, &t); err != nil {
			return nil, fmt.Errorf("template %s: %w", n, err)
		}
		if t.Biome == "" {
			t.Biome = strings.TrimSuffix(n, ".yaml")
		}
		if err := t.Validate(); err != nil {
			return nil, fmt.Errorf("template %s: %w", n, err)
		}
		c.ByBiome[t.Biome] = t
	}
	c.Digest = sha256Hex(concat.Bytes())
	return c, nil
}

func (t *BiomeTemplate) Validate() error {
	if t.BuildingBaseline < 0 || t.POIBaseline < 0 {
		return fmt.Errorf("negative baseline")
	}
	for _, b := range t.Buildings {
		if err := b.validate(); err != nil {
			return err
		}
	}
	for _, p := range t.POIs {
		if err := p.validate(); err != nil {
			return err
		}
	}
	for _, d := range t.Decorations {
		if d.Type == "" {
			return fmt.Errorf("decoration: empty type")
		}
		if d.Permille < 0 || d.Permille > 1000 {
			return fmt.Errorf("decoration %s: permille out of range", d.Type)
		}
	}
	for _, m := range t.MustHave {
		if m.Type == "" || m.Count < 0 {
			return fmt.Errorf("must_have: bad entry %+v", m)
		}
	}
	for _, s := range t.ShouldHave {
		if s.Type == "" || s.Probability < 0 || s.Probability > 1 {
			return fmt.Errorf("should_have: bad entry %+v", s)
		}
	}
	return nil
}

func (b BuildingType) validate() error {
	if b.Type == "" {
		return fmt.Errorf("building: empty type")
	}
	if b.Weight < 0 || b.Density < 0 {
		return fmt.Errorf("building %s: negative weight or density", b.Type)
	}
	if b.MinSize <= 0 || b.MaxSize < b.MinSize {
		return fmt.Errorf("building %s: bad size range %d..%d", b.Type, b.MinSize, b.MaxSize)
	}
	return nil
}

func (p POIType) validate() error {
	if p.Type == "" {
		return fmt.Errorf("poi: empty type")
	}
	if p.Weight < 0 || p.Density < 0 || p.Radius < 0 {
		return fmt.Errorf("poi %s: negative weight, density or radius", p.Type)
	}
	return nil
}

// Biomes returns the template ids in sorted order.
func (c *Catalog) Biomes() []string {
	out := make([]string, 0, len(c.ByBiome))
	for b := range c.ByBiome {
		out = append(out, b)
	}
	sort.Strings(out)
	return out
}

func (c *Catalog) Template(biome string) (BiomeTemplate, bool) {
	t, ok := c.ByBiome[biome]
	return t, ok
}
