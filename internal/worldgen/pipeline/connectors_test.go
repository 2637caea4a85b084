package pipeline

import (
	"testing"

	"worldforge.ai/internal/worldgen/spec"
)

func TestConnectorType(t *testing.T) {
	cases := []struct{ a, b, want string }{
		{"mountain", "swamp", "mountain_pass"},
		{"city", "swamp", "boardwalk"},
		{"forest", "beach", "trail"},
		{"lakeside", "city", "shore_path"},
		{"city", "suburban", "road"},
		{"graveyard", "desert", "road"},
	}
	for _, tc := range cases {
		if got := connectorType(tc.a, tc.b); got != tc.want {
			t.Fatalf("%s/%s: got %s want %s", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestExplicitConnectorsKeepOrder(t *testing.T) {
	w := &spec.WorldSpec{
		Regions: []spec.RegionSpec{{ID: "a", Type: "city"}, {ID: "b", Type: "mountain"}},
		Connectors: []spec.ConnectorSpec{
			{ID: "z", From: "b", To: "a"},
			{ID: "y", From: "a", To: "ghost", Type: "ferry", Difficulty: 5},
		},
	}
	conns, warns := buildConnectors(w)
	if len(conns) != 2 || conns[0].ID != "z" || conns[1].ID != "y" {
		t.Fatalf("order: got %+v", conns)
	}
	if conns[0].Type != "mountain_pass" || conns[0].TraversalTime != 30 || conns[0].Difficulty != 4 {
		t.Fatalf("defaults: got %+v", conns[0])
	}
	if conns[1].Difficulty != 5 || conns[1].TraversalTime != 20 {
		t.Fatalf("declared values: got %+v", conns[1])
	}
	if len(warns) != 1 {
		t.Fatalf("warnings: got %d want 1", len(warns))
	}
}

func TestAutoChainFollowsDeclarationOrder(t *testing.T) {
	w := &spec.WorldSpec{Regions: []spec.RegionSpec{
		{ID: "c", Type: "city"}, {ID: "a", Type: "swamp"}, {ID: "b", Type: "beach"},
	}}
	conns, _ := buildConnectors(w)
	if len(conns) != 2 {
		t.Fatalf("connectors: got %d want 2", len(conns))
	}
	if conns[0].ID != "c_to_a" || conns[1].ID != "a_to_b" {
		t.Fatalf("ids: got %s, %s", conns[0].ID, conns[1].ID)
	}
	if conns[0].Type != "boardwalk" || !conns[0].Discovered {
		t.Fatalf("first link: got %+v", conns[0])
	}
}
