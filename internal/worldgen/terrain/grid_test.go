package terrain

import (
	"testing"

	"worldforge.ai/internal/worldgen/rng"
)

func TestGrid_OutOfRangeReadsDefaultsWritesNoop(t *testing.T) {
	g := NewGrid(8, 4)
	g.SetTerrain(-1, 0, Water)
	g.SetElevation(8, 0, 12)
	g.SetOccupancy(0, 4, OccBuilding)
	g.SetPath(100, 100, true)

	if got := g.Terrain(-1, 0); got != Empty {
		t.Fatalf("terrain out of range: got %v want empty", got)
	}
	if got := g.Elevation(8, 0); got != 0 {
		t.Fatalf("elevation out of range: got %v want 0", got)
	}
	if got := g.Occupancy(0, 4); got != OccEmpty {
		t.Fatalf("occupancy out of range: got %v want empty", got)
	}
	if g.IsPath(100, 100) {
		t.Fatalf("path out of range should be false")
	}
	if n := g.CountTerrain(Water) + g.CountOccupancy(OccBuilding); n != 0 {
		t.Fatalf("out-of-range writes leaked into grid: %d cells", n)
	}
}

func TestGrid_SetGetRoundTrip(t *testing.T) {
	g := NewGrid(5, 5)
	g.SetTerrain(2, 3, Rock)
	g.SetElevation(2, 3, -4.5)
	g.SetOccupancy(2, 3, OccDecoration)
	g.SetPath(2, 3, true)
	if g.Terrain(2, 3) != Rock || g.Elevation(2, 3) != -4.5 || g.Occupancy(2, 3) != OccDecoration || !g.IsPath(2, 3) {
		t.Fatalf("cell (2,3) did not round trip")
	}
	if g.Terrain(3, 2) != Empty {
		t.Fatalf("write bled into transposed cell")
	}
}

func TestGrid_CellToWorldUsesTwoMeterPitch(t *testing.T) {
	g := NewGrid(10, 10)
	g.SetElevation(3, 7, 11.25)
	got := g.CellToWorld(3, 7)
	if got != [3]float64{6, 11.25, 14} {
		t.Fatalf("got %v want [6 11.25 14]", got)
	}
}

func TestGrid_DigestTracksEveryLayer(t *testing.T) {
	a := NewGrid(6, 6)
	b := NewGrid(6, 6)
	if a.Digest() != b.Digest() {
		t.Fatalf("fresh grids should share a digest")
	}
	b.SetPath(1, 1, true)
	if a.Digest() == b.Digest() {
		t.Fatalf("path change not reflected in digest")
	}
	a.SetPath(1, 1, true)
	a.SetElevation(0, 0, 0.001)
	if a.Digest() == b.Digest() {
		t.Fatalf("elevation change not reflected in digest")
	}
}

func TestGrid_LayersRoundTrip(t *testing.T) {
	g := NewGrid(4, 3)
	g.SetTerrain(1, 1, Sand)
	g.SetOccupancy(2, 2, OccPOI)
	g.SetPath(0, 2, true)
	g.SetElevation(3, 0, 9)
	tr, oc, pa, el := g.Layers()

	h := NewGrid(4, 3)
	if !h.LoadLayers(tr, oc, pa, el) {
		t.Fatalf("LoadLayers rejected matching layers")
	}
	if g.Digest() != h.Digest() {
		t.Fatalf("digest mismatch after layer round trip")
	}
	if h.LoadLayers(tr[:2], oc, pa, el) {
		t.Fatalf("LoadLayers accepted a short layer")
	}
}

func TestGrid_Slope(t *testing.T) {
	g := NewGrid(3, 3)
	g.SetElevation(1, 1, 10)
	g.SetElevation(2, 1, 4)
	if got := g.Slope(1, 1); got != 10 {
		t.Fatalf("slope: got %v want 10", got)
	}
}

func TestCarvePath_ReachesTargetAndSkipsClaimedCells(t *testing.T) {
	g := NewGrid(60, 60)
	g.SetOccupancy(30, 30, OccBuilding)
	r := rng.New(11)
	visited := g.CarvePath(Point{X: 2, Y: 30}, Point{X: 57, Y: 30}, r, PathOptions{
		Width: 1, Terrain: Dirt, MaxSteps: 500, Jitter: 0.3,
	})
	if len(visited) < 2 {
		t.Fatalf("path too short: %d", len(visited))
	}
	last := visited[len(visited)-1]
	if last.Dist2(Point{X: 57, Y: 30}) > 4 {
		t.Fatalf("path ended at %v, far from target", last)
	}
	if g.IsPath(30, 30) || g.Terrain(30, 30) == Dirt {
		t.Fatalf("path overwrote an occupied cell")
	}
	if !g.IsPath(2, 30) {
		t.Fatalf("start cell not marked")
	}
}

func TestCarvePath_StepCap(t *testing.T) {
	g := NewGrid(200, 10)
	visited := g.CarvePath(Point{X: 0, Y: 5}, Point{X: 199, Y: 5}, rng.New(1), PathOptions{MaxSteps: 10})
	if len(visited) > 11 {
		t.Fatalf("walk exceeded cap: %d cells", len(visited))
	}
}
