package terrain

import (
	"crypto/sha256"
	"encoding/binary"
	"math"
)

// Grid is the dense per-cell store for one region. Every coordinate maps to
// exactly one record or is out of range: reads out of range return defaults and
// writes out of range are no-ops.
type Grid struct {
	Width  int
	Height int

	terrain   []Terrain
	elevation []float64
	occupancy []Occupancy
	path      []bool
}

func NewGrid(width, height int) *Grid {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	n := width * height
	return &Grid{
		Width:     width,
		Height:    height,
		terrain:   make([]Terrain, n),
		elevation: make([]float64, n),
		occupancy: make([]Occupancy, n),
		path:      make([]bool, n),
	}
}

func (g *Grid) InBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < g.Width && y < g.Height
}

func (g *Grid) index(x, y int) int {
	return x + y*g.Width
}

func (g *Grid) Terrain(x, y int) Terrain {
	if !g.InBounds(x, y) {
		return Empty
	}
	return g.terrain[g.index(x, y)]
}

func (g *Grid) SetTerrain(x, y int, t Terrain) {
	if !g.InBounds(x, y) {
		return
	}
	g.terrain[g.index(x, y)] = t
}

func (g *Grid) Elevation(x, y int) float64 {
	if !g.InBounds(x, y) {
		return 0
	}
	return g.elevation[g.index(x, y)]
}

func (g *Grid) SetElevation(x, y int, e float64) {
	if !g.InBounds(x, y) {
		return
	}
	g.elevation[g.index(x, y)] = e
}

func (g *Grid) Occupancy(x, y int) Occupancy {
	if !g.InBounds(x, y) {
		return OccEmpty
	}
	return g.occupancy[g.index(x, y)]
}

func (g *Grid) SetOccupancy(x, y int, o Occupancy) {
	if !g.InBounds(x, y) {
		return
	}
	g.occupancy[g.index(x, y)] = o
}

func (g *Grid) IsPath(x, y int) bool {
	if !g.InBounds(x, y) {
		return false
	}
	return g.path[g.index(x, y)]
}

func (g *Grid) SetPath(x, y int, v bool) {
	if !g.InBounds(x, y) {
		return
	}
	g.path[g.index(x, y)] = v
}

// Slope is the largest absolute elevation step to a 4-neighbor.
func (g *Grid) Slope(x, y int) float64 {
	if !g.InBounds(x, y) {
		return 0
	}
	e := g.Elevation(x, y)
	max := 0.0
	for _, d := range [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
		nx, ny := x+d[0], y+d[1]
		if !g.InBounds(nx, ny) {
			continue
		}
		if s := math.Abs(g.Elevation(nx, ny) - e); s > max {
			max = s
		}
	}
	return max
}

// CellToWorld converts a cell to its world position in meters (x, elevation, z).
func (g *Grid) CellToWorld(x, y int) [3]float64 {
	return [3]float64{float64(x) * CellSize, g.Elevation(x, y), float64(y) * CellSize}
}

// PathCells lists every path-flagged cell in row-major order.
func (g *Grid) PathCells() []Point {
	var out []Point
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			if g.path[g.index(x, y)] {
				out = append(out, Point{X: x, Y: y})
			}
		}
	}
	return out
}

// CountOccupancy returns how many cells hold o.
func (g *Grid) CountOccupancy(o Occupancy) int {
	n := 0
	for _, v := range g.occupancy {
		if v == o {
			n++
		}
	}
	return n
}

// CountTerrain returns how many cells are classified as t.
func (g *Grid) CountTerrain(t Terrain) int {
	n := 0
	for _, v := range g.terrain {
		if v == t {
			n++
		}
	}
	return n
}

// Layers exposes copies of the raw layers for export.
func (g *Grid) Layers() (terrain []uint16, occupancy []uint16, path []uint16, elevation []float64) {
	n := len(g.terrain)
	terrain = make([]uint16, n)
	occupancy = make([]uint16, n)
	path = make([]uint16, n)
	elevation = make([]float64, n)
	for i := 0; i < n; i++ {
		terrain[i] = uint16(g.terrain[i])
		occupancy[i] = uint16(g.occupancy[i])
		if g.path[i] {
			path[i] = 1
		}
	}
	copy(elevation, g.elevation)
	return terrain, occupancy, path, elevation
}

// LoadLayers overwrites the grid from exported layers. Layers of the wrong
// length are rejected.
func (g *Grid) LoadLayers(terrain, occupancy, path []uint16, elevation []float64) bool {
	n := g.Width * g.Height
	if len(terrain) != n || len(occupancy) != n || len(path) != n || len(elevation) != n {
		return false
	}
	for i := 0; i < n; i++ {
		g.terrain[i] = Terrain(terrain[i])
		g.occupancy[i] = Occupancy(occupancy[i])
		g.path[i] = path[i] != 0
	}
	copy(g.elevation, elevation)
	return true
}

// Digest hashes every layer; two grids with equal digests are byte-identical.
func (g *Grid) Digest() [32]byte {
	h := sha256.New()
	var tmp [8]byte
	binary.LittleEndian.PutUint32(tmp[:4], uint32(g.Width))
	h.Write(tmp[:4])
	binary.LittleEndian.PutUint32(tmp[:4], uint32(g.Height))
	h.Write(tmp[:4])
	for i := range g.terrain {
		var p byte
		if g.path[i] {
			p = 1
		}
		h.Write([]byte{byte(g.terrain[i]), byte(g.occupancy[i]), p})
		binary.LittleEndian.PutUint64(tmp[:], math.Float64bits(g.elevation[i]))
		h.Write(tmp[:])
	}
	var out [32]byte
	copy(out[:], h.Sum(nil))
	return out
}
