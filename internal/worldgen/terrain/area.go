package terrain

import "worldforge.ai/internal/worldgen/rng"

// eachInDisc calls fn for every in-range cell within Euclidean radius r of
// (cx, cy). fn returning false stops the walk early.
func (g *Grid) eachInDisc(cx, cy, r int, fn func(i int) bool) {
	if r < 0 {
		return
	}
	r2 := r * r
	for y := cy - r; y <= cy+r; y++ {
		for x := cx - r; x <= cx+r; x++ {
			dx := x - cx
			dy := y - cy
			if dx*dx+dy*dy > r2 || !g.InBounds(x, y) {
				continue
			}
			if !fn(g.index(x, y)) {
				return
			}
		}
	}
}

// DiscInBounds reports whether the whole disc of radius r around (cx, cy) lies
// inside the grid.
func (g *Grid) DiscInBounds(cx, cy, r int) bool {
	return g.InBounds(cx-r, cy-r) && g.InBounds(cx+r, cy+r)
}

// IsAreaEmpty is true iff every in-range cell within radius r is unoccupied.
func (g *Grid) IsAreaEmpty(cx, cy, r int) bool {
	empty := true
	g.eachInDisc(cx, cy, r, func(i int) bool {
		if g.occupancy[i] != OccEmpty {
			empty = false
			return false
		}
		return true
	})
	return empty
}

// ReserveArea marks the whole disc Reserved, or changes nothing and returns
// false when any in-range cell is already claimed.
func (g *Grid) ReserveArea(cx, cy, r int) bool {
	return g.ClaimArea(cx, cy, r, OccReserved)
}

// ClaimArea is the check-then-commit primitive every placement goes through.
// The emptiness check and the write happen in one call with no intervening
// mutation; keep it that way if regions are ever generated in parallel.
func (g *Grid) ClaimArea(cx, cy, r int, occ Occupancy) bool {
	if occ == OccEmpty || !g.IsAreaEmpty(cx, cy, r) {
		return false
	}
	g.eachInDisc(cx, cy, r, func(i int) bool {
		g.occupancy[i] = occ
		return true
	})
	return true
}

// ReleaseArea returns every in-range cell of the disc to OccEmpty.
func (g *Grid) ReleaseArea(cx, cy, r int) {
	g.eachInDisc(cx, cy, r, func(i int) bool {
		g.occupancy[i] = OccEmpty
		return true
	})
}

// RectFits reports whether every cell of rect is in range, empty and accepted
// by suitable (nil accepts all terrain).
func (g *Grid) RectFits(rect Rect, suitable func(Terrain) bool) bool {
	if rect.Empty() || !g.InBounds(rect.X, rect.Y) || !g.InBounds(rect.X+rect.W-1, rect.Y+rect.H-1) {
		return false
	}
	for y := rect.Y; y < rect.Y+rect.H; y++ {
		for x := rect.X; x < rect.X+rect.W; x++ {
			i := g.index(x, y)
			if g.occupancy[i] != OccEmpty {
				return false
			}
			if suitable != nil && !suitable(g.terrain[i]) {
				return false
			}
		}
	}
	return true
}

// ClaimRect atomically claims a rectangle that RectFits accepts.
func (g *Grid) ClaimRect(rect Rect, occ Occupancy, suitable func(Terrain) bool) bool {
	if occ == OccEmpty || !g.RectFits(rect, suitable) {
		return false
	}
	for y := rect.Y; y < rect.Y+rect.H; y++ {
		for x := rect.X; x < rect.X+rect.W; x++ {
			g.occupancy[g.index(x, y)] = occ
		}
	}
	return true
}

// FillRect forces terrain over every in-range cell of rect.
func (g *Grid) FillRect(rect Rect, t Terrain) {
	for y := rect.Y; y < rect.Y+rect.H; y++ {
		for x := rect.X; x < rect.X+rect.W; x++ {
			g.SetTerrain(x, y, t)
		}
	}
}

// FindEmptySpot samples up to maxAttempts centers whose disc of minRadius is
// inside the grid and empty. Returns (NoPoint, false) on exhaustion.
func (g *Grid) FindEmptySpot(minRadius, maxAttempts int, r *rng.RNG) (Point, bool) {
	if minRadius < 0 {
		minRadius = 0
	}
	spanX := g.Width - 2*minRadius
	spanY := g.Height - 2*minRadius
	if spanX <= 0 || spanY <= 0 {
		return NoPoint, false
	}
	for i := 0; i < maxAttempts; i++ {
		x := minRadius + r.Intn(spanX)
		y := minRadius + r.Intn(spanY)
		if g.IsAreaEmpty(x, y, minRadius) {
			return Point{X: x, Y: y}, true
		}
	}
	return NoPoint, false
}
