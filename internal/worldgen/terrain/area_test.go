package terrain

import (
	"testing"

	"worldforge.ai/internal/worldgen/rng"
)

func discCells(g *Grid, cx, cy, r int) []Point {
	var out []Point
	for y := cy - r; y <= cy+r; y++ {
		for x := cx - r; x <= cx+r; x++ {
			if (x-cx)*(x-cx)+(y-cy)*(y-cy) <= r*r && g.InBounds(x, y) {
				out = append(out, Point{X: x, Y: y})
			}
		}
	}
	return out
}

func TestIsAreaEmpty(t *testing.T) {
	g := NewGrid(20, 20)
	if !g.IsAreaEmpty(10, 10, 3) {
		t.Fatalf("fresh grid should be empty")
	}
	g.SetOccupancy(12, 10, OccDecoration)
	if g.IsAreaEmpty(10, 10, 3) {
		t.Fatalf("occupied cell inside radius not detected")
	}
	// (13,13) is outside the Euclidean radius 3 of (10,10).
	g.SetOccupancy(12, 10, OccEmpty)
	g.SetOccupancy(13, 13, OccBlocked)
	if !g.IsAreaEmpty(10, 10, 3) {
		t.Fatalf("corner cell outside the disc should not count")
	}
	// Out-of-range cells are ignored.
	if !g.IsAreaEmpty(0, 0, 2) {
		t.Fatalf("edge disc should be empty")
	}
}

func TestReserveArea_AllOrNothing(t *testing.T) {
	g := NewGrid(20, 20)
	g.SetOccupancy(11, 10, OccPOI)
	before := g.Digest()
	if g.ReserveArea(10, 10, 2) {
		t.Fatalf("reserve should fail over a claimed cell")
	}
	if g.Digest() != before {
		t.Fatalf("failed reserve mutated the grid")
	}
	if !g.ReserveArea(4, 4, 2) {
		t.Fatalf("reserve on empty area failed")
	}
	for _, p := range discCells(g, 4, 4, 2) {
		if g.Occupancy(p.X, p.Y) != OccReserved {
			t.Fatalf("cell %v not reserved", p)
		}
	}
}

// Randomized reserve/release sequences must never leave a partially reserved disc.
func TestReserveArea_RandomizedAtomicity(t *testing.T) {
	g := NewGrid(40, 40)
	r := rng.New(2024)
	type disc struct{ x, y, rad int }
	var live []disc

	for step := 0; step < 2000; step++ {
		if len(live) > 0 && r.Chance(0.3) {
			i := r.Intn(len(live))
			d := live[i]
			g.ReleaseArea(d.x, d.y, d.rad)
			live = append(live[:i], live[i+1:]...)
		} else {
			d := disc{x: r.Intn(40), y: r.Intn(40), rad: r.IntRange(0, 4)}
			snapshot := g.Digest()
			if g.ReserveArea(d.x, d.y, d.rad) {
				live = append(live, d)
			} else if g.Digest() != snapshot {
				t.Fatalf("step %d: failed reserve mutated the grid", step)
			}
		}
		for _, d := range live {
			for _, p := range discCells(g, d.x, d.y, d.rad) {
				if g.Occupancy(p.X, p.Y) != OccReserved {
					t.Fatalf("step %d: live disc %+v has unreserved cell %v", step, d, p)
				}
			}
		}
	}
}

func TestClaimArea_TagsDirectly(t *testing.T) {
	g := NewGrid(10, 10)
	if !g.ClaimArea(5, 5, 1, OccPOI) {
		t.Fatalf("claim failed")
	}
	if g.Occupancy(5, 6) != OccPOI || g.CountOccupancy(OccReserved) != 0 {
		t.Fatalf("claim should tag POI without an intermediate reserved state")
	}
	if g.ClaimArea(5, 5, 0, OccBuilding) {
		t.Fatalf("second claim over the same cell must fail")
	}
	if g.ClaimArea(1, 1, 0, OccEmpty) {
		t.Fatalf("claiming with OccEmpty must be rejected")
	}
}

func TestClaimRect(t *testing.T) {
	g := NewGrid(10, 10)
	g.FillRect(Rect{X: 0, Y: 0, W: 10, H: 10}, Grass)
	g.SetTerrain(7, 7, Water)
	grassOnly := func(t Terrain) bool { return t == Grass }

	if !g.ClaimRect(Rect{X: 1, Y: 1, W: 3, H: 2}, OccBuilding, grassOnly) {
		t.Fatalf("claim on clear grass failed")
	}
	if g.CountOccupancy(OccBuilding) != 6 {
		t.Fatalf("got %d building cells want 6", g.CountOccupancy(OccBuilding))
	}
	if g.ClaimRect(Rect{X: 6, Y: 6, W: 3, H: 3}, OccBuilding, grassOnly) {
		t.Fatalf("claim over water must fail")
	}
	if g.ClaimRect(Rect{X: 8, Y: 8, W: 3, H: 3}, OccBuilding, nil) {
		t.Fatalf("claim extending out of bounds must fail")
	}
	if g.CountOccupancy(OccBuilding) != 6 {
		t.Fatalf("failed claims mutated occupancy")
	}
}

func TestFindEmptySpot(t *testing.T) {
	g := NewGrid(30, 30)
	p, ok := g.FindEmptySpot(3, 20, rng.New(5))
	if !ok || !g.DiscInBounds(p.X, p.Y, 3) {
		t.Fatalf("expected an in-bounds spot, got %v ok=%v", p, ok)
	}
	for y := 0; y < 30; y++ {
		for x := 0; x < 30; x++ {
			g.SetOccupancy(x, y, OccBlocked)
		}
	}
	p, ok = g.FindEmptySpot(1, 20, rng.New(5))
	if ok || p != NoPoint {
		t.Fatalf("full grid: got %v ok=%v want NoPoint", p, ok)
	}
}
