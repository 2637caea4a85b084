package templates

import (
	"fmt"
	"math"
)

// Params is a generation-parameter map as decoded from YAML or JSON.
type Params map[string]any

// Story is the per-region override block from the world spec. Nil lists keep
// the template's list; non-nil lists replace it wholesale.
type Story struct {
	Params      Params
	MustHave    []RequiredPOI
	ShouldHave  []OptionalPOI
	Buildings   []BuildingType
	POIs        []POIType
	Decorations []Decoration
}

// Config is one region's merged view of template defaults and story overrides.
type Config struct {
	Biome            string
	BuildingBaseline float64
	POIBaseline      float64

	Params      Params
	MustHave    []RequiredPOI
	ShouldHave  []OptionalPOI
	Buildings   []BuildingType
	POIs        []POIType
	Decorations []Decoration
}

// MergedConfig overlays story on the biome's template. Story params win key by
// key; story lists replace template lists.
func (c *Catalog) MergedConfig(biome string, story *Story) (*Config, error) {
	t, ok := c.ByBiome[biome]
	if !ok {
		return nil, fmt.Errorf("templates: unknown biome %q", biome)
	}
	cfg := &Config{
		Biome:            biome,
		BuildingBaseline: t.BuildingBaseline,
		POIBaseline:      t.POIBaseline,
		Params:           Params{},
		MustHave:         append([]RequiredPOI(nil), t.MustHave...),
		ShouldHave:       append([]OptionalPOI(nil), t.ShouldHave...),
		Buildings:        append([]BuildingType(nil), t.Buildings...),
		POIs:             append([]POIType(nil), t.POIs...),
		Decorations:      append([]Decoration(nil), t.Decorations...),
	}
	for k, v := range t.Defaults {
		cfg.Params[k] = v
	}
	if story == nil {
		return cfg, nil
	}
	for k, v := range story.Params {
		cfg.Params[k] = v
	}
	if story.MustHave != nil {
		cfg.MustHave = append([]RequiredPOI(nil), story.MustHave...)
	}
	if story.ShouldHave != nil {
		cfg.ShouldHave = append([]OptionalPOI(nil), story.ShouldHave...)
	}
	if story.Buildings != nil {
		cfg.Buildings = append([]BuildingType(nil), story.Buildings...)
	}
	if story.POIs != nil {
		cfg.POIs = append([]POIType(nil), story.POIs...)
	}
	if story.Decorations != nil {
		cfg.Decorations = append([]Decoration(nil), story.Decorations...)
	}
	return cfg, nil
}

// POIRadius is the template radius declared for a POI type, or 0.
func (c *Config) POIRadius(typ string) int {
	if c == nil {
		return 0
	}
	for _, p := range c.POIs {
		if p.Type == typ && p.Radius > 0 {
			return p.Radius
		}
	}
	return 0
}

func (p Params) Float(key string, def float64) float64 {
	v, ok := p[key]
	if !ok {
		return def
	}
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case uint64:
		return float64(n)
	}
	return def
}

// Int truncates float values toward zero.
func (p Params) Int(key string, def int) int {
	v, ok := p[key]
	if !ok {
		return def
	}
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case uint64:
		return int(n)
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return def
		}
		return int(n)
	case float32:
		return int(n)
	}
	return def
}

func (p Params) Bool(key string, def bool) bool {
	if b, ok := p[key].(bool); ok {
		return b
	}
	return def
}

func (p Params) String(key string, def string) string {
	if s, ok := p[key].(string); ok && s != "" {
		return s
	}
	return def
}

// DensityMultiplier scales both budgets; generation_params.density_multiplier.
func (c *Config) DensityMultiplier() float64 {
	if c == nil {
		return 1
	}
	m := c.Params.Float("density_multiplier", 1)
	if m < 0 {
		return 0
	}
	return m
}
