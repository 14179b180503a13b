package main

import "math"

const (
	TurretCooldown = 160   // ticks between shots of one turret
	CannonCooldown = 160   // ticks between broadsides
	BroadsideArc   = 0.209 // radians either side of the bow a broadside can bear
)

// Turret is one point-defence mount and its own reload counter
type Turret struct {
	Pos      CellPos
	Cooldown int
}

// BattleshipState holds the weapon mounts of a warship
type BattleshipState struct {
	Turrets        []Turret
	Cannons        []CellPos
	CannonCooldown int
}

func (bs *BattleshipState) addTurret(pos CellPos, cooldown int) {
	bs.Turrets = append(bs.Turrets, Turret{Pos: pos, Cooldown: cooldown})
}

func (bs *BattleshipState) removeTurret(pos CellPos) {
	for i := range bs.Turrets {
		if bs.Turrets[i].Pos == pos {
			bs.Turrets = append(bs.Turrets[:i], bs.Turrets[i+1:]...)
			return
		}
	}
}

func (bs *BattleshipState) addCannon(pos CellPos) {
	bs.Cannons = append(bs.Cannons, pos)
}

func (bs *BattleshipState) removeCannon(pos CellPos) {
	for i, c := range bs.Cannons {
		if c == pos {
			bs.Cannons = append(bs.Cannons[:i], bs.Cannons[i+1:]...)
			return
		}
	}
}

// armBattleship registers every turret and cannon cell in the grid. Turret
// phases are randomised so mounts on one ship do not fire together.
func armBattleship(g Grid, b *Battlefield) *BattleshipState {
	bs := &BattleshipState{CannonCooldown: CannonCooldown}
	for y, row := range g {
		for x, c := range row {
			switch c {
			case CellTurret:
				bs.addTurret(CellPos{X: x, Y: y}, 1+b.rng.Intn(TurretCooldown))
			case CellCannon:
				bs.addCannon(CellPos{X: x, Y: y})
			}
		}
	}
	return bs
}

// fireWeapons ticks turret and cannon reloads and launches whatever is ready
func (e *Entity) fireWeapons(b *Battlefield) {
	s := e.Ship
	bs := s.Battleship
	f := e.Frame()

	if n := len(s.CloseTargets); n > 0 {
		for i := range bs.Turrets {
			t := &bs.Turrets[i]
			t.Cooldown--
			if t.Cooldown > 0 {
				continue
			}
			bearing := s.CloseTargets[b.rng.Intn(n)]
			b.fire(NewProjectile(f.CellToWorld(t.Pos.X, t.Pos.Y), bearing, e.Faction, TierTurret))
			t.Cooldown = TurretCooldown
		}
	}

	if bs.CannonCooldown > 0 {
		bs.CannonCooldown--
	}
	if bs.CannonCooldown > 0 || len(bs.Cannons) == 0 || !e.broadsideBears() {
		return
	}
	for _, c := range bs.Cannons {
		b.fire(NewProjectile(f.CellToWorld(c.X, c.Y), e.Rotation, e.Faction, TierCannon))
	}
	bs.CannonCooldown = CannonCooldown
}

// broadsideBears reports whether any medium-range bearing lies off the bow
func (e *Entity) broadsideBears() bool {
	for _, bearing := range e.Ship.MediumTargets {
		diff := math.Abs(WrapAngle(bearing) - e.Rotation)
		if diff < BroadsideArc || diff > 2*math.Pi-BroadsideArc {
			return true
		}
	}
	return false
}
