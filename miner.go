package main

const (
	BeamChargeTicks = 60   // ticks of beam time per extracted or repaired cell
	MinerReach      = 30.0 // beam reach beyond the two bodies' hit ranges
)

// MinerState holds the mining and repair beam
type MinerState struct {
	Drill        *CellPos
	MiningCharge int
	TargetCell   *CellPos
	locked       *RepairRecord // repair entry the beam is working on
	Pool         *ResourcePool
}

func (m *MinerState) release() {
	m.MiningCharge = 0
	m.TargetCell = nil
	m.locked = nil
}

// findDrill returns the first turret-role cell, which miners use as the beam emitter
func findDrill(g Grid) *CellPos {
	for y, row := range g {
		for x, c := range row {
			if c == CellTurret {
				return &CellPos{X: x, Y: y}
			}
		}
	}
	return nil
}

// BeamOrigin returns the world position the beam is drawn from: the drill
// cell while it stands, the hull centre once it is shot away
func (e *Entity) BeamOrigin() Point {
	m := e.Ship.Miner
	if m == nil || m.Drill == nil || e.Grid.At(m.Drill.X, m.Drill.Y) != CellTurret {
		return e.Position()
	}
	return e.Frame().CellToWorld(m.Drill.X, m.Drill.Y)
}

// driveBeam advances the beam against t, or drops it when nothing is in reach
func (e *Entity) driveBeam(b *Battlefield, t *Entity) {
	m := e.Ship.Miner
	if t == nil {
		m.release()
		return
	}
	if t.Faction == FactionNeutral {
		e.mine(b, t)
		return
	}
	e.repair(b, t)
}

// mine works the first occupied cell of a neutral body
func (e *Entity) mine(b *Battlefield, t *Entity) {
	m := e.Ship.Miner
	if m.locked != nil || (m.TargetCell != nil && t.Grid.At(m.TargetCell.X, m.TargetCell.Y) == CellEmpty) {
		m.release()
	}
	if m.TargetCell == nil {
		pos, ok := t.Grid.FirstOccupied()
		if !ok {
			return
		}
		m.TargetCell = &pos
	}
	m.MiningCharge++
	if m.MiningCharge < BeamChargeTicks {
		return
	}
	cell := *m.TargetCell
	m.release()
	if res, ok := t.Extract(cell); ok {
		m.Pool.Add(res, 1)
		b.emit(BattleEvent{Type: EventResourceMined, Entity: e.ID, Other: t.ID, Detail: string(res)})
	}
}

// repair rebuilds the most recent affordable damage on a friendly ship
func (e *Entity) repair(b *Battlefield, t *Entity) {
	m := e.Ship.Miner
	if m.locked != nil && !m.lockHolds(t.Ship.RepairStack) {
		m.release()
	}
	if m.locked == nil {
		m.release()
		rec, ok := affordableRepair(t.Ship.RepairStack, m.Pool)
		if !ok {
			return
		}
		m.locked = &rec
		cell := rec.Cell
		m.TargetCell = &cell
	}
	m.MiningCharge++
	if m.MiningCharge < BeamChargeTicks {
		return
	}
	rec := *m.locked
	m.release()
	idx := indexOfRecord(t.Ship.RepairStack, rec)
	if idx < 0 || m.Pool.Count(rec.Requires) == 0 {
		return
	}
	if !t.ApplyRepair(rec.Cell.X, rec.Cell.Y, rec.Original) {
		return
	}
	m.Pool.Take(rec.Requires, 1)
	t.Ship.RepairStack = append(t.Ship.RepairStack[:idx], t.Ship.RepairStack[idx+1:]...)
	b.emit(BattleEvent{Type: EventCellRepaired, Entity: e.ID, Other: t.ID, Detail: rec.Original.String()})
}

// lockHolds reports whether the locked record is still pending, affordable
// and the newest record for its cell
func (m *MinerState) lockHolds(stack []RepairRecord) bool {
	idx := indexOfRecord(stack, *m.locked)
	return idx >= 0 && !shadowed(stack, idx) && m.Pool.Count(m.locked.Requires) > 0
}

// affordableRepair scans from the most recent record down for one the pool
// can pay for. Records buried under a newer record for the same cell wait
// until that one is repaired.
func affordableRepair(stack []RepairRecord, pool *ResourcePool) (RepairRecord, bool) {
	for i := len(stack) - 1; i >= 0; i-- {
		if pool.Count(stack[i].Requires) > 0 && !shadowed(stack, i) {
			return stack[i], true
		}
	}
	return RepairRecord{}, false
}

// shadowed reports whether a record above stack[i] covers the same cell
func shadowed(stack []RepairRecord, i int) bool {
	for _, r := range stack[i+1:] {
		if r.Cell == stack[i].Cell {
			return true
		}
	}
	return false
}

// indexOfRecord finds the topmost record equal to rec
func indexOfRecord(stack []RepairRecord, rec RepairRecord) int {
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i] == rec {
			return i
		}
	}
	return -1
}
