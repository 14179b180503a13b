package main

import "math"

// recomputeTargets rebuilds every ship's bearing lists from scratch. Each
// hostile pair is visited once and both sides get the reciprocal entry.
func (b *Battlefield) recomputeTargets() {
	for _, h := range b.order {
		if e := b.arena.get(h); e != nil && e.Ship != nil {
			e.Ship.clearTargeting()
		}
	}

	factions := b.factions()
	for i := 0; i < len(factions); i++ {
		for j := i + 1; j < len(factions); j++ {
			for _, h1 := range b.rosters[factions[i]] {
				s1 := b.arena.get(h1)
				if s1 == nil || s1.Ship == nil {
					continue
				}
				for _, h2 := range b.rosters[factions[j]] {
					s2 := b.arena.get(h2)
					if s2 == nil || s2.Ship == nil {
						continue
					}
					pairTargets(s1, s2)
				}
			}
		}
	}
}

// pairTargets records a and b in each other's lists by range band
func pairTargets(a, b *Entity) {
	dx := b.X - a.X
	dy := b.Y - a.Y
	d := math.Hypot(dx, dy)
	if d >= MediumRange {
		return
	}
	ab := WrapAngle(math.Atan2(dy, dx))
	ba := WrapAngle(math.Atan2(-dy, -dx))
	if d < CloseRange {
		a.Ship.CloseTargets = append(a.Ship.CloseTargets, ab)
		b.Ship.CloseTargets = append(b.Ship.CloseTargets, ba)
	}
	a.Ship.MediumTargets = append(a.Ship.MediumTargets, ab)
	b.Ship.MediumTargets = append(b.Ship.MediumTargets, ba)
	a.Ship.CloseShips[d] = b.ID
	b.Ship.CloseShips[d] = a.ID
}

// NearestEnemy returns the closest hostile ship recorded by the last
// targeting pass, for squad AI built on top of the battlefield
func (b *Battlefield) NearestEnemy(h Handle) (Handle, bool) {
	e := b.arena.get(h)
	if e == nil || e.Ship == nil {
		return Handle{}, false
	}
	best := math.Inf(1)
	var out Handle
	for d, t := range e.Ship.CloseShips {
		if d < best && b.arena.get(t) != nil {
			best = d
			out = t
		}
	}
	return out, !out.IsZero()
}
