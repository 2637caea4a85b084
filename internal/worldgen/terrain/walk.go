package terrain

import (
	"math"

	"worldforge.ai/internal/worldgen/rng"
)

// PathOptions controls CarvePath.
type PathOptions struct {
	Width    int     // brush radius in cells
	Terrain  Terrain // Empty keeps the existing class
	MaxSteps int
	Jitter   float64 // max angular deviation per step, radians
	// NoFlag paints terrain without setting the path flag (streams).
	NoFlag bool
}

// CarvePath walks from one point toward another one cell per step, turning by at
// most Jitter radians off the direct heading each step. Cells under the brush
// with empty occupancy get the path flag (and Terrain, if set); claimed cells are
// left untouched. The walk stops on arrival, on leaving the grid, or after
// MaxSteps. It returns the visited centers.
func (g *Grid) CarvePath(from, to Point, r *rng.RNG, opt PathOptions) []Point {
	if opt.MaxSteps <= 0 {
		opt.MaxSteps = 1
	}
	x, y := float64(from.X), float64(from.Y)
	visited := make([]Point, 0, 64)
	g.stampPath(from.X, from.Y, opt)
	visited = append(visited, from)

	for step := 0; step < opt.MaxSteps; step++ {
		dx := float64(to.X) - x
		dy := float64(to.Y) - y
		if dx*dx+dy*dy <= 1 {
			break
		}
		heading := math.Atan2(dy, dx) + (r.Float64()*2-1)*opt.Jitter
		x += math.Cos(heading)
		y += math.Sin(heading)
		cx, cy := int(math.Round(x)), int(math.Round(y))
		if !g.InBounds(cx, cy) {
			break
		}
		g.stampPath(cx, cy, opt)
		p := Point{X: cx, Y: cy}
		if n := len(visited); n == 0 || visited[n-1] != p {
			visited = append(visited, p)
		}
	}
	return visited
}

func (g *Grid) stampPath(cx, cy int, opt PathOptions) {
	g.eachInDisc(cx, cy, opt.Width, func(i int) bool {
		if g.occupancy[i] != OccEmpty {
			return true
		}
		if !opt.NoFlag {
			g.path[i] = true
		}
		if opt.Terrain != Empty {
			g.terrain[i] = opt.Terrain
		}
		return true
	})
}
