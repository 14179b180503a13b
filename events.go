package main

// Battle event types written to the battle log
const (
	EventEntitySpawned = "entity_spawned"
	EventShipDisabled  = "ship_disabled"
	EventEntityRemoved = "entity_removed"
	EventResourceMined = "resource_mined"
	EventCellRepaired  = "cell_repaired"
)

// BattleEvent is one notable change in the battle
type BattleEvent struct {
	Type    string
	Tick    uint64
	Entity  Handle
	Other   Handle
	Kind    string
	Faction Faction
	Detail  string
	X, Y    float64
}

// EventSink receives battle events. Record must not block the tick.
type EventSink interface {
	Record(ev BattleEvent)
}

type nopSink struct{}

func (nopSink) Record(BattleEvent) {}
