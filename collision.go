package main

import "sort"

// CheckCollision checks if two circles overlap
func CheckCollision(x1, y1, r1, x2, y2, r2 float64) bool {
	dx := x2 - x1
	dy := y2 - y1
	dist2 := dx*dx + dy*dy
	radSum := r1 + r2
	return dist2 < radSum*radSum
}

// collides reports whether a and b can damage each other: different
// factions or either one neutral
func collides(a, b *Entity) bool {
	return a.Faction != b.Faction || a.Faction == FactionNeutral
}

// resolveCollisions finds overlapping body pairs through the spatial grid and
// exchanges collision damage. Pairs are handled in spawn order; the earlier
// entity is the striker.
func (b *Battlefield) resolveCollisions() {
	b.spatial.Clear()
	for i, h := range b.order {
		if e := b.arena.get(h); e != nil {
			b.spatial.InsertCircle(e.X, e.Y, e.HitCheckRange, i)
		}
	}

	for i, h := range b.order {
		a := b.arena.get(h)
		if a == nil || a.Cells <= 0 {
			continue
		}
		b.candidates = b.spatial.QueryBuf(a.X, a.Y, a.HitCheckRange, b.candidates[:0])
		sort.Ints(b.candidates)
		last := -1
		for _, j := range b.candidates {
			if j <= i || j == last {
				continue
			}
			last = j
			o := b.arena.get(b.order[j])
			if o == nil || o.Cells <= 0 || !collides(a, o) {
				continue
			}
			if CheckCollision(a.X, a.Y, a.HitCheckRange, o.X, o.Y, o.HitCheckRange) {
				HandleCollision(a, o)
			}
		}
	}
}

// HandleCollision rasterizes striker a's cells into b's grid and exchanges
// cannon-tier damage on every overlapping pair of occupied cells. Motion is
// not affected.
func HandleCollision(a, b *Entity) {
	af := a.Frame()
	bf := b.Frame()
	p1 := bf.WorldToLocal(af.CellToWorld(0, 0))
	p2 := bf.WorldToLocal(af.CellToWorld(1, 0))
	// one column step of a expressed in b's frame; a row step is its perpendicular
	dx := p2.X - p1.X
	dy := p2.Y - p1.Y

	for y, row := range a.Grid {
		for x, c := range row {
			if c == CellEmpty {
				continue
			}
			fx, fy := float64(x), float64(y)
			local := Point{
				X: p1.X + dx*fx - dy*fy,
				Y: p1.Y + dy*fx + dx*fy,
			}
			cx, cy := bf.CellAt(local)
			if b.ApplyDamage(cx, cy, TierCannon) {
				a.ApplyDamage(x, y, TierCannon)
			}
		}
	}
}
