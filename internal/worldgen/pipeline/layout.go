package pipeline

import (
	"math"

	"worldforge.ai/internal/worldgen/spec"
	"worldforge.ai/internal/worldgen/terrain"
)

// Placement of one region in the world plane.
type slot struct {
	cells  int
	offset [2]float64
}

// layout sizes each region as a square grid of side sqrt(km²)·1000 m at
// CellSize m/cell (at least minCells) and lines regions up left to right in
// declaration order.
func layout(regions []spec.RegionSpec, minCells int) []slot {
	out := make([]slot, len(regions))
	x := 0.0
	for i, r := range regions {
		n := GridCells(r.SizeKm2, minCells)
		out[i] = slot{cells: n, offset: [2]float64{x, 0}}
		x += float64(n) * terrain.CellSize
	}
	return out
}

// GridCells is the grid side for an area in km².
func GridCells(km2 float64, minCells int) int {
	side := math.Sqrt(math.Max(km2, 0)) * 1000
	n := int(math.Round(side / terrain.CellSize))
	if n < minCells {
		n = minCells
	}
	return n
}
