package main

import (
	"errors"
	"math"
)

const (
	CloseRange   = 500.0 // turret engagement radius
	MediumRange  = 800.0 // cannon engagement radius
	Deceleration = 0.02  // speed shed per tick while holding station
)

// ErrNotAShip is returned when a ship command targets a body without ship state
var ErrNotAShip = errors.New("entity is not a ship")

// ShipState is the movement, orders and bookkeeping shared by every ship
type ShipState struct {
	Accel     float64
	TurnSpeed float64
	MaxSpeed  float64

	Destination *Point
	Target      Handle
	Selected    bool

	CloseTargets  []float64 // bearings to hostiles within CloseRange
	MediumTargets []float64 // bearings to hostiles within MediumRange
	CloseShips    map[float64]Handle

	RepairStack []RepairRecord
	RepairCost  map[Resource]int

	Battleship *BattleshipState
	Miner      *MinerState
}

func newShipState(t *Template) *ShipState {
	return &ShipState{
		Accel:      t.Accel,
		TurnSpeed:  t.TurnSpeed,
		MaxSpeed:   t.MaxSpeed,
		CloseShips: make(map[float64]Handle),
		RepairCost: make(map[Resource]int, len(Resources)),
	}
}

// clearTargeting drops the lists rebuilt by the targeting pass
func (s *ShipState) clearTargeting() {
	s.CloseTargets = s.CloseTargets[:0]
	s.MediumTargets = s.MediumTargets[:0]
	clear(s.CloseShips)
}

// SetDestination orders the ship to fly to p, dropping any target
func (e *Entity) SetDestination(p Point) {
	if e.Ship == nil {
		return
	}
	e.Ship.Destination = &p
	e.Ship.Target = Handle{}
	e.releaseBeam()
}

// SetTarget orders the ship to engage t, dropping any destination
func (e *Entity) SetTarget(t Handle) {
	if e.Ship == nil {
		return
	}
	if e.Ship.Target != t {
		e.releaseBeam()
	}
	e.Ship.Target = t
	e.Ship.Destination = nil
}

// ClearOrders drops both destination and target
func (e *Entity) ClearOrders() {
	if e.Ship == nil {
		return
	}
	e.Ship.Destination = nil
	e.Ship.Target = Handle{}
	e.releaseBeam()
}

// Speed returns the velocity magnitude
func (e *Entity) Speed() float64 {
	return math.Hypot(e.VX, e.VY)
}

// updateShip runs one tick of steering, motion and weapon or beam work
func (e *Entity) updateShip(b *Battlefield) {
	s := e.Ship
	var engaged *Entity
	switch {
	case e.Disabled():
		e.decelerate()
	case s.Destination != nil:
		if Distance(e.X, e.Y, s.Destination.X, s.Destination.Y) < e.HitCheckRange {
			s.Destination = nil
			e.decelerate()
		} else {
			e.moveTo(*s.Destination)
		}
	case !s.Target.IsZero():
		engaged = e.pursue(b)
	default:
		e.decelerate()
	}

	e.integrate()

	if e.Disabled() {
		return
	}
	switch {
	case s.Battleship != nil:
		e.fireWeapons(b)
	case s.Miner != nil:
		e.driveBeam(b, engaged)
	}
}

// resolveTarget looks the target up and clears it if it is gone or no
// longer a valid target for this ship's role
func (e *Entity) resolveTarget(b *Battlefield) *Entity {
	t := b.arena.get(e.Ship.Target)
	if t == nil || !e.canTarget(t) {
		e.Ship.Target = Handle{}
		e.releaseBeam()
		return nil
	}
	return t
}

// canTarget reports whether t is a legal target: warships engage hostile
// ships, miners work neutral bodies and friendly ships
func (e *Entity) canTarget(t *Entity) bool {
	if t == e || t.Cells <= 0 {
		return false
	}
	if e.Ship.Miner != nil {
		return t.Faction == FactionNeutral || t.Faction == e.Faction
	}
	return t.Faction != FactionNeutral && t.Faction != e.Faction
}

// pursue steers toward the current target. It returns the target when a
// miner is close enough to work it.
func (e *Entity) pursue(b *Battlefield) *Entity {
	t := e.resolveTarget(b)
	if t == nil {
		e.decelerate()
		return nil
	}
	tp := t.Position()
	d := e.DistanceTo(t)

	if e.Ship.Miner != nil {
		if d < e.HitCheckRange+t.HitCheckRange+MinerReach {
			e.rotateTowards(tp)
			e.decelerate()
			return t
		}
		e.releaseBeam()
		e.moveTo(tp)
		return nil
	}

	bs := e.Ship.Battleship
	switch {
	case bs != nil && len(bs.Cannons) > 0 && d < MediumRange:
		e.rotateTowards(tp)
		e.decelerate()
	case d < CloseRange:
		e.decelerate()
	default:
		e.moveTo(tp)
	}
	return nil
}

// rotateTowards turns at most TurnSpeed toward p, taking the short way round
func (e *Entity) rotateTowards(p Point) {
	want := Bearing(e.X, e.Y, p.X, p.Y)
	cur := WrapAngle(e.Rotation)
	diff := want - cur
	turn := e.Ship.TurnSpeed
	if math.Abs(diff) < turn || math.Abs(diff) > 2*math.Pi-turn {
		e.Rotation = want
		return
	}
	if diff > math.Pi || (diff < 0 && diff > -math.Pi) {
		e.Rotation = cur - turn
	} else {
		e.Rotation = cur + turn
	}
}

// moveTo turns toward p and thrusts along the current heading
func (e *Entity) moveTo(p Point) {
	e.rotateTowards(p)
	sin, cos := math.Sincos(e.Rotation)
	e.VX += e.Ship.Accel * cos
	e.VY += e.Ship.Accel * sin
	if speed := e.Speed(); speed > e.Ship.MaxSpeed {
		scale := e.Ship.MaxSpeed / speed
		e.VX *= scale
		e.VY *= scale
	}
}

// decelerate sheds Deceleration of speed without reversing direction
func (e *Entity) decelerate() {
	speed := e.Speed()
	if speed <= Deceleration {
		e.VX, e.VY = 0, 0
		return
	}
	scale := (speed - Deceleration) / speed
	e.VX *= scale
	e.VY *= scale
}

// disable turns a ship into neutral salvage
func (e *Entity) disable() {
	s := e.Ship
	e.Faction = FactionNeutral
	e.HasHull = false
	s.Selected = false
	s.Destination = nil
	s.Target = Handle{}
	s.clearTargeting()
	s.RepairStack = nil
	clear(s.RepairCost)
	e.releaseBeam()
}

// releaseBeam drops any miner beam lock
func (e *Entity) releaseBeam() {
	if e.Ship != nil && e.Ship.Miner != nil {
		e.Ship.Miner.release()
	}
}
