// Package entities is the read-only catalog of spawnable entity records the
// spawn resolver queries.
package entities

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"worldforge.ai/internal/worldgen/model"
)

type Entity struct {
	ID        string         `yaml:"id" json:"id"`
	Name      string         `yaml:"name,omitempty" json:"name,omitempty"`
	Archetype string         `yaml:"archetype" json:"archetype"`
	Pools     []string       `yaml:"pools,omitempty" json:"pools,omitempty"`
	Tags      []string       `yaml:"tags,omitempty" json:"tags,omitempty"`
	Display   map[string]any `yaml:"display,omitempty" json:"display,omitempty"`
}

// Pool is the narrow query contract the spawn resolver depends on. Every
// list result is ordered by id.
type Pool interface {
	ByID(id string) (Entity, bool)
	ByArchetype(archetype, pool string) []Entity
	InPool(pool string) []Entity
	Match(f model.EntityFilter) []Entity
}

// Catalog is an in-memory Pool loaded once and never mutated.
type Catalog struct {
	byID   map[string]Entity
	sorted []Entity
	Digest string
}

type catalogFile struct {
	Entities []Entity `yaml:"entities"`
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// Load reads an entities.yaml catalog.
func Load(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f catalogFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("entities.yaml: %w", err)
	}
	c, err := New(f.Entities)
	if err != nil {
		return nil, fmt.Errorf("entities.yaml: %w", err)
	}
	c.Digest = sha256Hex(raw)
	return c, nil
}

// New builds a catalog from records. Ids must be unique and non-empty.
func New(list []Entity) (*Catalog, error) {
	c := &Catalog{byID: make(map[string]Entity, len(list))}
	for _, e := range list {
		if e.ID == "" {
			return nil, fmt.Errorf("empty id")
		}
		if _, dup := c.byID[e.ID]; dup {
			return nil, fmt.Errorf("duplicate id %q", e.ID)
		}
		e.Tags = model.NormalizeTags(e.Tags)
		e.Pools = model.NormalizeTags(e.Pools)
		c.byID[e.ID] = e
		c.sorted = append(c.sorted, e)
	}
	sort.Slice(c.sorted, func(i, j int) bool { return c.sorted[i].ID < c.sorted[j].ID })
	if c.Digest == "" {
		c.Digest = sha256Hex(nil)
	}
	return c, nil
}

func (c *Catalog) Len() int { return len(c.sorted) }

// All returns a copy of every entity ordered by id.
func (c *Catalog) All() []Entity {
	return append([]Entity(nil), c.sorted...)
}

func (c *Catalog) ByID(id string) (Entity, bool) {
	e, ok := c.byID[id]
	return e, ok
}

// ByArchetype lists entities of an archetype, limited to pool when set.
func (c *Catalog) ByArchetype(archetype, pool string) []Entity {
	return c.filter(func(e Entity) bool {
		return e.Archetype == archetype && (pool == "" || model.HasTag(e.Pools, pool))
	})
}

func (c *Catalog) InPool(pool string) []Entity {
	return c.filter(func(e Entity) bool { return model.HasTag(e.Pools, pool) })
}

// Match lists entities whose archetype matches (if set) and which carry every
// filter tag.
func (c *Catalog) Match(f model.EntityFilter) []Entity {
	if f.Empty() {
		return nil
	}
	return c.filter(func(e Entity) bool {
		if f.Archetype != "" && e.Archetype != f.Archetype {
			return false
		}
		for _, t := range f.Tags {
			if !model.HasTag(e.Tags, t) {
				return false
			}
		}
		return true
	})
}

func (c *Catalog) filter(keep func(Entity) bool) []Entity {
	var out []Entity
	for _, e := range c.sorted {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}
