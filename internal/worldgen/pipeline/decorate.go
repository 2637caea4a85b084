package pipeline

import (
	"worldforge.ai/internal/worldgen/noise"
	"worldforge.ai/internal/worldgen/rng"
	"worldforge.ai/internal/worldgen/templates"
	"worldforge.ai/internal/worldgen/terrain"
)

// decorate scatters each decoration in hash clusters over empty, non-path
// cells of the listed terrains (any land when the list is empty). Each
// decoration draws one cluster seed from the stream. densityPermille scales
// every decoration's permille; 1000 keeps it.
func decorate(g *terrain.Grid, decs []templates.Decoration, densityPermille int, r *rng.RNG) map[string]int {
	counts := map[string]int{}
	for _, d := range decs {
		seed := r.Int63()
		if d.Type == "" || d.Permille <= 0 || densityPermille <= 0 {
			continue
		}
		allowed := map[terrain.Terrain]bool{}
		for _, name := range d.Terrain {
			if t, ok := terrain.ParseTerrain(name); ok {
				allowed[t] = true
			}
		}
		grid, radius := d.ClusterGrid, d.ClusterRadius
		if grid <= 0 {
			grid = 16
		}
		if radius <= 0 {
			radius = grid / 3
		}
		prob := noise.ScalePermille(uint64(noise.ClampPermille(d.Permille)), densityPermille)
		for y := 0; y < g.Height; y++ {
			for x := 0; x < g.Width; x++ {
				if g.Occupancy(x, y) != terrain.OccEmpty || g.IsPath(x, y) {
					continue
				}
				t := g.Terrain(x, y)
				if len(allowed) > 0 && !allowed[t] {
					continue
				}
				if len(allowed) == 0 && (t == terrain.Water || t == terrain.Empty) {
					continue
				}
				if !noise.InCluster(seed, x, y, grid, radius, prob) {
					continue
				}
				g.SetOccupancy(x, y, terrain.OccDecoration)
				counts[d.Type]++
			}
		}
	}
	return counts
}
