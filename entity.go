package main

import "math"

// Faction partitions entities into cooperating and hostile groups
type Faction string

const (
	FactionPlayer  Faction = "player"
	FactionPirate  Faction = "pirate"
	FactionNeutral Faction = "neutral"
)

// EntityKind is the closed set of body types
type EntityKind int

const (
	KindBattleship EntityKind = iota
	KindMiner
	KindAsteroid
)

func (k EntityKind) String() string {
	switch k {
	case KindBattleship:
		return "battleship"
	case KindMiner:
		return "miner"
	case KindAsteroid:
		return "asteroid"
	}
	return "unknown"
}

// Entity is any cell-grid body on the battlefield. Ship and Asteroid hold the
// kind-specific payload; exactly one of them is set.
type Entity struct {
	ID            Handle
	Name          string
	Kind          EntityKind
	Faction       Faction
	Grid          Grid
	X, Y          float64
	VX, VY        float64
	Rotation      float64
	HitCheckRange float64
	Hull          int
	HasHull       bool // false for asteroids and disabled wrecks
	Cells         int

	Ship     *ShipState
	Asteroid *AsteroidState
}

// newEntity fills the common body state from a grid
func newEntity(name string, kind EntityKind, faction Faction, grid Grid, pos Point) *Entity {
	e := &Entity{
		Name:          name,
		Kind:          kind,
		Faction:       faction,
		Grid:          grid,
		X:             pos.X,
		Y:             pos.Y,
		HitCheckRange: math.Hypot(float64(grid.Rows()), float64(grid.Cols())) * CellSize / 2,
	}
	cells, structural := grid.Count()
	e.Cells = cells
	if kind != KindAsteroid {
		e.HasHull = true
		e.Hull = structural / 3
	}
	return e
}

// Position returns the body centre in world space
func (e *Entity) Position() Point {
	return Point{X: e.X, Y: e.Y}
}

// Frame returns the placement of the body grid in the world
func (e *Entity) Frame() Frame {
	return Frame{X: e.X, Y: e.Y, Rotation: e.Rotation, Cols: e.Grid.Cols(), Rows: e.Grid.Rows()}
}

// IsShip reports whether the entity carries ship state
func (e *Entity) IsShip() bool {
	return e.Ship != nil
}

// Disabled reports whether the entity is a ship that has been reduced to a wreck
func (e *Entity) Disabled() bool {
	return e.Ship != nil && !e.HasHull
}

// HullValue returns the hull counter and whether the entity tracks one
func (e *Entity) HullValue() (int, bool) {
	return e.Hull, e.HasHull
}

// DistanceTo returns the distance between body centres
func (e *Entity) DistanceTo(o *Entity) float64 {
	return Distance(e.X, e.Y, o.X, o.Y)
}

// Update advances the entity one tick: motion, then its own action, then
// damage from projectiles overlapping its body.
func (e *Entity) Update(b *Battlefield) {
	switch e.Kind {
	case KindAsteroid:
		e.integrate()
		e.spin()
	default:
		e.updateShip(b)
	}
	e.takeHits(b.projectiles)
}

// integrate applies velocity to position and keeps rotation in [0, 2*PI)
func (e *Entity) integrate() {
	e.Rotation = WrapAngle(e.Rotation)
	e.X += e.VX
	e.Y += e.VY
}

// takeHits applies damage from every live enemy projectile inside the body
func (e *Entity) takeHits(projectiles []*Projectile) {
	if e.Cells <= 0 {
		return
	}
	f := e.Frame()
	for _, p := range projectiles {
		if !p.Alive || p.Faction == e.Faction {
			continue
		}
		if Distance(p.X, p.Y, e.X, e.Y) >= e.HitCheckRange {
			continue
		}
		cx, cy := f.WorldToCell(p.Position())
		if e.ApplyDamage(cx, cy, p.Tier) {
			p.Alive = false
		}
	}
}

// ApplyDamage strikes cell (x, y) with the given tier and reports whether the
// cell changed. Out-of-range cells are a miss.
func (e *Entity) ApplyDamage(x, y int, tier DamageTier) bool {
	if !e.Grid.InBounds(x, y) {
		return false
	}
	if e.Kind == KindAsteroid {
		switch e.Grid[y][x] {
		case CellHull, CellArmor:
			e.destroyCell(x, y)
			return true
		}
		return false
	}

	pos := CellPos{X: x, Y: y}
	switch e.Grid[y][x] {
	case CellEmpty:
		return false
	case CellHull:
		e.destroyCell(x, y)
		e.pushRepair(pos, CellHull)
	case CellArmor:
		if tier == TierTurret {
			e.Grid[y][x] = CellHull
			e.pushRepair(pos, CellArmor)
			return true
		}
		// cannon fire takes the armor layer and the hull beneath in one hit
		e.pushRepair(pos, CellArmor)
		e.destroyCell(x, y)
		e.pushRepair(pos, CellHull)
	case CellTurret:
		if bs := e.battleship(); bs != nil {
			bs.removeTurret(pos)
		}
		e.destroyCell(x, y)
		e.pushRepair(pos, CellTurret)
	case CellCannon:
		if bs := e.battleship(); bs != nil {
			bs.removeCannon(pos)
		}
		e.destroyCell(x, y)
		e.pushRepair(pos, CellCannon)
	default:
		return false
	}
	return true
}

// destroyCell empties a cell and updates the counters
func (e *Entity) destroyCell(x, y int) {
	e.Grid[y][x] = CellEmpty
	if e.HasHull {
		e.Hull--
	}
	if e.Cells > 0 {
		e.Cells--
	}
}

// ApplyRepair restores cell (x, y) to original, reversing one ApplyDamage
// record. Armor only goes back over hull. Reports whether anything was
// restored.
func (e *Entity) ApplyRepair(x, y int, original Cell) bool {
	if e.Ship == nil || !e.Grid.InBounds(x, y) || !original.Structural() {
		return false
	}
	pos := CellPos{X: x, Y: y}
	switch cur := e.Grid[y][x]; {
	case cur == CellEmpty && original != CellArmor:
		e.Grid[y][x] = original
		e.Cells++
		if e.HasHull {
			e.Hull++
		}
		if bs := e.battleship(); bs != nil {
			switch original {
			case CellTurret:
				bs.addTurret(pos, TurretCooldown)
			case CellCannon:
				bs.addCannon(pos)
			}
		}
	case cur == CellHull && original == CellArmor:
		e.Grid[y][x] = CellArmor
	default:
		return false
	}
	res := repairResource(original)
	if e.Ship.RepairCost[res] > 0 {
		e.Ship.RepairCost[res]--
	}
	return true
}

// Extract removes one cell for mining and returns the resource it yields
func (e *Entity) Extract(pos CellPos) (Resource, bool) {
	c := e.Grid.At(pos.X, pos.Y)
	if c == CellEmpty {
		return "", false
	}
	if e.Kind == KindAsteroid {
		if !e.ApplyDamage(pos.X, pos.Y, TierCannon) {
			return "", false
		}
		if c == CellArmor {
			return e.Asteroid.Resource, true
		}
		return "", false
	}
	if e.ApplyDamage(pos.X, pos.Y, TierCannon) {
		return ResourceScrap, true
	}
	return "", false
}

// repairResource is the material needed to rebuild a cell of the given role
func repairResource(c Cell) Resource {
	switch c {
	case CellTurret, CellCannon:
		return ResourceCrystal
	}
	return ResourceAlloy
}

// pushRepair records a destroyed layer on a combat ship
func (e *Entity) pushRepair(pos CellPos, original Cell) {
	if e.Ship == nil || !e.HasHull {
		return
	}
	res := repairResource(original)
	e.Ship.RepairStack = append(e.Ship.RepairStack, RepairRecord{Cell: pos, Original: original, Requires: res})
	e.Ship.RepairCost[res]++
}

func (e *Entity) battleship() *BattleshipState {
	if e.Ship == nil {
		return nil
	}
	return e.Ship.Battleship
}

// ToState converts to protocol state
func (e *Entity) ToState() EntityState {
	s := EntityState{
		ID:      e.ID,
		Name:    e.Name,
		Kind:    e.Kind.String(),
		Faction: string(e.Faction),
		X:       round1(e.X),
		Y:       round1(e.Y),
		R:       math.Round(e.Rotation*100) / 100,
		VX:      round1(e.VX),
		VY:      round1(e.VY),
		Cells:   e.Cells,
		Grid:    e.Grid.Ints(),
	}
	if e.HasHull {
		hull := e.Hull
		s.Hull = &hull
	}
	if e.Ship != nil {
		s.Selected = e.Ship.Selected
		if len(e.Ship.RepairStack) > 0 {
			s.RepairCost = make(map[string]int, len(e.Ship.RepairCost))
			for r, n := range e.Ship.RepairCost {
				if n > 0 {
					s.RepairCost[string(r)] = n
				}
			}
		}
		if m := e.Ship.Miner; m != nil && m.TargetCell != nil {
			o := e.BeamOrigin()
			s.Beam = &BeamState{
				Target: e.Ship.Target,
				OX:     round1(o.X),
				OY:     round1(o.Y),
				CellX:  m.TargetCell.X,
				CellY:  m.TargetCell.Y,
				Charge: m.MiningCharge,
			}
		}
	}
	return s
}
