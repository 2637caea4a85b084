package pipeline

import (
	"fmt"

	"github.com/zyedidia/generic/mapset"

	"worldforge.ai/internal/worldgen/model"
	"worldforge.ai/internal/worldgen/spec"
)

type connectorDefaults struct {
	minutes    float64
	difficulty int
}

var connectorTable = map[string]connectorDefaults{
	"road":          {5, 1},
	"bridge":        {5, 1},
	"shore_path":    {10, 1},
	"trail":         {15, 2},
	"ferry":         {20, 2},
	"boardwalk":     {12, 3},
	"tunnel":        {20, 3},
	"mountain_pass": {30, 4},
}

var defaultConnector = connectorDefaults{10, 2}

// connectorType picks the link type for a biome pair. Earlier rules win.
func connectorType(a, b string) string {
	either := func(types ...string) bool {
		for _, t := range types {
			if a == t || b == t {
				return true
			}
		}
		return false
	}
	switch {
	case either("mountain"):
		return "mountain_pass"
	case either("swamp"):
		return "boardwalk"
	case either("forest"):
		return "trail"
	case either("beach", "lakeside"):
		return "shore_path"
	default:
		return "road"
	}
}

// buildConnectors uses the declared list when there is one, in declaration
// order, and otherwise chains regions linearly. Links naming unknown regions
// are kept and reported.
func buildConnectors(w *spec.WorldSpec) ([]model.Connector, []string) {
	biomeOf := make(map[string]string, len(w.Regions))
	known := mapset.New[string]()
	for _, r := range w.Regions {
		biomeOf[r.ID] = r.Type
		known.Put(r.ID)
	}

	var warnings []string
	var out []model.Connector
	if len(w.Connectors) > 0 {
		for _, c := range w.Connectors {
			for _, id := range []string{c.From, c.To} {
				if !known.Has(id) {
					warnings = append(warnings, fmt.Sprintf("connector %s: unknown region %q", c.ID, id))
				}
			}
			typ := c.Type
			if typ == "" {
				typ = connectorType(biomeOf[c.From], biomeOf[c.To])
			}
			out = append(out, finishConnector(model.Connector{
				ID:            c.ID,
				Type:          typ,
				From:          c.From,
				To:            c.To,
				Exit:          c.Exit,
				Entrance:      c.Entrance,
				TraversalTime: c.TraversalTime,
				Difficulty:    c.Difficulty,
				Discovered:    c.Discovered,
			}))
		}
		return out, warnings
	}

	for i := 0; i+1 < len(w.Regions); i++ {
		a, b := w.Regions[i], w.Regions[i+1]
		out = append(out, finishConnector(model.Connector{
			ID:         a.ID + "_to_" + b.ID,
			Type:       connectorType(a.Type, b.Type),
			From:       a.ID,
			To:         b.ID,
			Discovered: true,
		}))
	}
	return out, warnings
}

func finishConnector(c model.Connector) model.Connector {
	d, ok := connectorTable[c.Type]
	if !ok {
		d = defaultConnector
	}
	if c.TraversalTime <= 0 {
		c.TraversalTime = d.minutes
	}
	if c.Difficulty <= 0 {
		c.Difficulty = d.difficulty
	}
	return c
}
