// Package model holds the placed-feature records shared by the generators, the
// spawn resolver and the pipeline output.
package model

import (
	"sort"

	"worldforge.ai/internal/worldgen/terrain"
)

// POI is a semantically tagged feature with a circular footprint.
type POI struct {
	Type     string        `json:"type"`
	Center   terrain.Point `json:"center"`
	Radius   int           `json:"radius"`
	Tags     []string      `json:"tags,omitempty"`
	Required bool          `json:"required,omitempty"`
}

func (p *POI) Valid() bool {
	return p != nil && p.Type != "" && p.Center != terrain.NoPoint
}

// Building is a rectangular footprint. Rotation is reserved and always 0.
type Building struct {
	Type      string        `json:"type"`
	Center    terrain.Point `json:"center"`
	Footprint terrain.Rect  `json:"footprint"`
	Rotation  int           `json:"rotation"`
	Tags      []string      `json:"tags,omitempty"`
}

// Connector is a directed traversal link between two regions. Region ids are
// weak references.
type Connector struct {
	ID            string  `json:"id"`
	Type          string  `json:"type"`
	From          string  `json:"from"`
	To            string  `json:"to"`
	Exit          string  `json:"exit,omitempty"`
	Entrance      string  `json:"entrance,omitempty"`
	TraversalTime float64 `json:"traversal_time"`
	Difficulty    int     `json:"difficulty"`
	Discovered    bool    `json:"discovered"`
}

type PlacementMode string

const (
	PlaceInterior PlacementMode = "interior"
	PlacePOI      PlacementMode = "poi"
	PlacePath     PlacementMode = "path"
	PlaceExterior PlacementMode = "exterior"
)

func (m PlacementMode) Valid() bool {
	switch m {
	case PlaceInterior, PlacePOI, PlacePath, PlaceExterior:
		return true
	}
	return false
}

// EntityFilter matches catalog records by archetype and tags (all must match).
type EntityFilter struct {
	Archetype string   `yaml:"archetype,omitempty" json:"archetype,omitempty"`
	Tags      []string `yaml:"tags,omitempty" json:"tags,omitempty"`
}

func (f EntityFilter) Empty() bool {
	return f.Archetype == "" && len(f.Tags) == 0
}

// SpawnSpec is a declarative request to place one (or Count) entity instances.
type SpawnSpec struct {
	ID        string        `yaml:"id" json:"id"`
	Kind      string        `yaml:"kind" json:"kind"`
	EntityID  string        `yaml:"entity_id,omitempty" json:"entity_id,omitempty"`
	Archetype string        `yaml:"archetype,omitempty" json:"archetype,omitempty"`
	Pool      string        `yaml:"pool,omitempty" json:"pool,omitempty"`
	Filter    EntityFilter  `yaml:"filter,omitempty" json:"filter,omitempty"`
	Region    string        `yaml:"region" json:"region"`
	Placement PlacementMode `yaml:"placement" json:"placement"`
	// TypeFilter narrows interior/poi placement to one building or POI type.
	TypeFilter string  `yaml:"type_filter,omitempty" json:"type_filter,omitempty"`
	Required   bool    `yaml:"required,omitempty" json:"required,omitempty"`
	Unique     bool    `yaml:"unique,omitempty" json:"unique,omitempty"`
	Count      int     `yaml:"count,omitempty" json:"count,omitempty"`
	Facing     float64 `yaml:"facing,omitempty" json:"facing,omitempty"`
	Scale      float64 `yaml:"scale,omitempty" json:"scale,omitempty"`
	Variant    string  `yaml:"variant,omitempty" json:"variant,omitempty"`
	// Radius is the minimum separation (cells) from earlier spawns for path and
	// exterior placement. Zero means the tuning default.
	Radius int `yaml:"radius,omitempty" json:"radius,omitempty"`
}

// PlacedSpawn is a resolved spawn.
type PlacedSpawn struct {
	ID        string        `json:"id"`
	Kind      string        `json:"kind"`
	EntityID  string        `json:"entity_id"`
	Region    string        `json:"region"`
	Placement PlacementMode `json:"placement"`
	Cell      terrain.Point `json:"cell"`
	// Position is the world position in meters: (x*2, elevation, y*2) plus the
	// region's world offset.
	Position [3]float64 `json:"position"`
	Facing   float64    `json:"facing"`
	Scale    float64    `json:"scale"`
	Variant  string     `json:"variant,omitempty"`
	Required bool       `json:"required,omitempty"`
	Anchor   string     `json:"anchor,omitempty"`
}

// NormalizeTags returns a sorted, de-duplicated copy without empty entries.
func NormalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	sort.Strings(out)
	if len(out) == 0 {
		return nil
	}
	return out
}

// HasTag reports whether tags contains t.
func HasTag(tags []string, t string) bool {
	for _, v := range tags {
		if v == t {
			return true
		}
	}
	return false
}
