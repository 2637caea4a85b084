package terrain

import "fmt"

// CellSize is the world-space pitch of one grid cell in meters. Downstream
// renderers depend on it being exactly 2.
const CellSize = 2.0

type Terrain uint8

const (
	Empty Terrain = iota
	Grass
	Dirt
	Road
	Sidewalk
	Water
	Rock
	Sand
	Forest
	Swamp
	Desert
	Beach
)

var terrainNames = [...]string{
	Empty:    "empty",
	Grass:    "grass",
	Dirt:     "dirt",
	Road:     "road",
	Sidewalk: "sidewalk",
	Water:    "water",
	Rock:     "rock",
	Sand:     "sand",
	Forest:   "forest",
	Swamp:    "swamp",
	Desert:   "desert",
	Beach:    "beach",
}

func (t Terrain) String() string {
	if int(t) < len(terrainNames) {
		return terrainNames[t]
	}
	return fmt.Sprintf("terrain(%d)", t)
}

// ParseTerrain maps a catalog name back to its class.
func ParseTerrain(s string) (Terrain, bool) {
	for i, n := range terrainNames {
		if n == s {
			return Terrain(i), true
		}
	}
	return Empty, false
}

type Occupancy uint8

const (
	OccEmpty Occupancy = iota
	OccReserved
	OccBuilding
	OccPOI
	OccDecoration
	OccBlocked
)

var occupancyNames = [...]string{
	OccEmpty:      "empty",
	OccReserved:   "reserved",
	OccBuilding:   "building",
	OccPOI:        "poi",
	OccDecoration: "decoration",
	OccBlocked:    "blocked",
}

func (o Occupancy) String() string {
	if int(o) < len(occupancyNames) {
		return occupancyNames[o]
	}
	return fmt.Sprintf("occupancy(%d)", o)
}

// Valid reports whether o is one of the six defined claim states.
func (o Occupancy) Valid() bool {
	return int(o) < len(occupancyNames)
}

type Point struct {
	X, Y int
}

// NoPoint is returned by searches that found nothing.
var NoPoint = Point{X: -1, Y: -1}

func (p Point) Add(dx, dy int) Point {
	return Point{X: p.X + dx, Y: p.Y + dy}
}

func (p Point) Dist2(o Point) int {
	dx := p.X - o.X
	dy := p.Y - o.Y
	return dx*dx + dy*dy
}

// Rect is an axis-aligned cell rectangle with its origin at the top-left.
type Rect struct {
	X, Y, W, H int
}

func (r Rect) Center() Point {
	return Point{X: r.X + r.W/2, Y: r.Y + r.H/2}
}

func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X < r.X+r.W && p.Y >= r.Y && p.Y < r.Y+r.H
}

// Inset shrinks r by n cells on every side.
func (r Rect) Inset(n int) Rect {
	out := Rect{X: r.X + n, Y: r.Y + n, W: r.W - 2*n, H: r.H - 2*n}
	if out.W < 0 {
		out.W = 0
	}
	if out.H < 0 {
		out.H = 0
	}
	return out
}

func (r Rect) Empty() bool {
	return r.W <= 0 || r.H <= 0
}
