package main

import (
	"errors"
	"fmt"
	"math/rand"
	"sort"

	"github.com/rs/zerolog"
)

// RetargetInterval is the number of ticks between targeting passes
const RetargetInterval = 5

// ErrDisabled is returned when ordering a ship that has been reduced to a wreck
var ErrDisabled = errors.New("ship is disabled")

// BattlefieldOptions configures a new battlefield
type BattlefieldOptions struct {
	Seed      int64
	WorldSize float64
	Logger    zerolog.Logger
	Sink      EventSink
}

// Battlefield owns every entity, projectile and the shared resource pool,
// and advances them through the fixed tick pipeline. It is not safe for
// concurrent use; Game serializes access.
type Battlefield struct {
	arena       arena
	order       []Handle // live entities in spawn order
	rosters     map[Faction][]Handle
	projectiles []*Projectile
	pool        *ResourcePool
	retarget    int
	tick        uint64
	rng         *rand.Rand
	spatial     *SpatialGrid
	candidates  []int
	log         zerolog.Logger
	sink        EventSink
}

// NewBattlefield creates an empty battlefield
func NewBattlefield(opts BattlefieldOptions) *Battlefield {
	size := opts.WorldSize
	if size <= 0 {
		size = DefaultWorldSize
	}
	sink := opts.Sink
	if sink == nil {
		sink = nopSink{}
	}
	return &Battlefield{
		rosters:  make(map[Faction][]Handle),
		pool:     NewResourcePool(),
		retarget: RetargetInterval,
		rng:      rand.New(rand.NewSource(opts.Seed)),
		spatial:  NewSpatialGrid(size, size),
		log:      opts.Logger,
		sink:     sink,
	}
}

// CreateEntity spawns a body of the named kind at pos
func (b *Battlefield) CreateEntity(kind string, pos Point) (Handle, error) {
	t, err := LookupTemplate(kind)
	if err != nil {
		return Handle{}, err
	}
	return b.CreateFromTemplate(t, pos)
}

// CreateFromTemplate spawns a body from an explicit template
func (b *Battlefield) CreateFromTemplate(t Template, pos Point) (Handle, error) {
	if err := t.Validate(); err != nil {
		return Handle{}, err
	}
	var e *Entity
	switch t.Kind {
	case KindAsteroid:
		e = newAsteroid(&t, pos, b)
	case KindBattleship, KindMiner:
		e = newEntity(t.Name, t.Kind, t.Faction, ParseGrid(t.Body), pos)
		e.Ship = newShipState(&t)
		if t.Kind == KindBattleship {
			e.Ship.Battleship = armBattleship(e.Grid, b)
		} else {
			e.Ship.Miner = &MinerState{Drill: findDrill(e.Grid), Pool: b.pool}
		}
	default:
		return Handle{}, fmt.Errorf("%w: kind %d", ErrUnknownKind, t.Kind)
	}

	h := b.arena.insert(e)
	b.order = append(b.order, h)
	b.rosters[e.Faction] = append(b.rosters[e.Faction], h)

	b.log.Debug().
		Str("name", e.Name).
		Str("faction", string(e.Faction)).
		Uint32("index", h.Index).
		Float64("x", pos.X).
		Float64("y", pos.Y).
		Msg("Entity spawned")
	b.emit(BattleEvent{Type: EventEntitySpawned, Entity: h, Kind: e.Name, Faction: e.Faction, X: e.X, Y: e.Y})
	return h, nil
}

// Entity resolves h, returning nil if it no longer exists
func (b *Battlefield) Entity(h Handle) *Entity {
	return b.arena.get(h)
}

// Entities returns every live entity in spawn order
func (b *Battlefield) Entities() []*Entity {
	out := make([]*Entity, 0, len(b.order))
	for _, h := range b.order {
		if e := b.arena.get(h); e != nil {
			out = append(out, e)
		}
	}
	return out
}

// Roster returns the handles of entities in faction f
func (b *Battlefield) Roster(f Faction) []Handle {
	return append([]Handle(nil), b.rosters[f]...)
}

// Faction returns the faction of h
func (b *Battlefield) Faction(h Handle) (Faction, error) {
	e := b.arena.get(h)
	if e == nil {
		return "", ErrStaleHandle
	}
	return e.Faction, nil
}

// Pool returns a snapshot of the shared resource pool
func (b *Battlefield) Pool() map[Resource]int {
	return b.pool.Snapshot()
}

// Projectiles returns the live projectiles
func (b *Battlefield) Projectiles() []*Projectile {
	return b.projectiles
}

// Tick returns the number of completed ticks
func (b *Battlefield) Tick() uint64 {
	return b.tick
}

// commandable resolves h to a ship that can take orders
func (b *Battlefield) commandable(h Handle) (*Entity, error) {
	e := b.arena.get(h)
	if e == nil {
		return nil, ErrStaleHandle
	}
	if !e.IsShip() {
		return nil, ErrNotAShip
	}
	if e.Disabled() {
		return nil, ErrDisabled
	}
	return e, nil
}

// SetDestination orders ship h to fly to p
func (b *Battlefield) SetDestination(h Handle, p Point) error {
	e, err := b.commandable(h)
	if err != nil {
		return err
	}
	e.SetDestination(p)
	return nil
}

// SetTarget orders ship h to engage target
func (b *Battlefield) SetTarget(h, target Handle) error {
	e, err := b.commandable(h)
	if err != nil {
		return err
	}
	if b.arena.get(target) == nil {
		return fmt.Errorf("target: %w", ErrStaleHandle)
	}
	e.SetTarget(target)
	return nil
}

// ClearOrders drops ship h's destination and target
func (b *Battlefield) ClearOrders(h Handle) error {
	e, err := b.commandable(h)
	if err != nil {
		return err
	}
	e.ClearOrders()
	return nil
}

// Select marks ship h as selected or not
func (b *Battlefield) Select(h Handle, on bool) error {
	e, err := b.commandable(h)
	if err != nil {
		return err
	}
	e.Ship.Selected = on
	return nil
}

// Selected returns the selected ships in spawn order
func (b *Battlefield) Selected() []Handle {
	var out []Handle
	for _, h := range b.order {
		if e := b.arena.get(h); e != nil && e.Ship != nil && e.Ship.Selected {
			out = append(out, h)
		}
	}
	return out
}

// Advance runs one tick of the pipeline: retarget, projectiles, collisions,
// entity updates, reap.
func (b *Battlefield) Advance() {
	b.tick++

	b.retarget--
	if b.retarget <= 0 {
		b.recomputeTargets()
		b.retarget = RetargetInterval
	}

	for _, p := range b.projectiles {
		p.Update()
	}
	b.compactProjectiles()

	b.resolveCollisions()

	for _, h := range b.order {
		if e := b.arena.get(h); e != nil {
			e.Update(b)
		}
	}
	b.compactProjectiles()

	b.reap()
}

// fire adds a projectile unless the battlefield is saturated
func (b *Battlefield) fire(p *Projectile) {
	if len(b.projectiles) >= maxProjectilesPerMap {
		return
	}
	b.projectiles = append(b.projectiles, p)
}

// compactProjectiles drops dead projectiles in place
func (b *Battlefield) compactProjectiles() {
	live := b.projectiles[:0]
	for _, p := range b.projectiles {
		if p.Alive {
			live = append(live, p)
		}
	}
	for i := len(live); i < len(b.projectiles); i++ {
		b.projectiles[i] = nil
	}
	b.projectiles = live
}

// reap disables ships with no hull left and removes neutral bodies with no
// cells left
func (b *Battlefield) reap() {
	removed := false
	for _, h := range b.order {
		e := b.arena.get(h)
		if e == nil {
			continue
		}
		if e.Ship != nil && e.HasHull && e.Hull <= 0 {
			b.disableShip(e)
		}
		if e.Faction == FactionNeutral && e.Cells <= 0 {
			b.log.Debug().Str("name", e.Name).Uint32("index", h.Index).Msg("Entity removed")
			b.emit(BattleEvent{Type: EventEntityRemoved, Entity: h, Kind: e.Name, Faction: e.Faction, X: e.X, Y: e.Y})
			b.arena.remove(h)
			removed = true
		}
	}
	if !removed {
		return
	}
	b.order = b.liveHandles(b.order)
	for f, roster := range b.rosters {
		b.rosters[f] = b.liveHandles(roster)
	}
}

// disableShip turns a ship into neutral salvage
func (b *Battlefield) disableShip(e *Entity) {
	from := e.Faction
	b.rosters[from] = removeHandle(b.rosters[from], e.ID)
	e.disable()
	b.rosters[FactionNeutral] = append(b.rosters[FactionNeutral], e.ID)

	b.log.Info().
		Str("name", e.Name).
		Str("faction", string(from)).
		Uint64("tick", b.tick).
		Msg("Ship disabled")
	b.emit(BattleEvent{Type: EventShipDisabled, Entity: e.ID, Kind: e.Name, Faction: from, X: e.X, Y: e.Y})
}

func (b *Battlefield) liveHandles(hs []Handle) []Handle {
	live := hs[:0]
	for _, h := range hs {
		if b.arena.get(h) != nil {
			live = append(live, h)
		}
	}
	return live
}

func removeHandle(hs []Handle, h Handle) []Handle {
	for i, x := range hs {
		if x == h {
			return append(hs[:i], hs[i+1:]...)
		}
	}
	return hs
}

// emit stamps and forwards an event to the sink
func (b *Battlefield) emit(ev BattleEvent) {
	ev.Tick = b.tick
	b.sink.Record(ev)
}

// factions returns the non-neutral factions with ships, sorted
func (b *Battlefield) factions() []Faction {
	out := make([]Faction, 0, len(b.rosters))
	for f, roster := range b.rosters {
		if f != FactionNeutral && len(roster) > 0 {
			out = append(out, f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Snapshot captures the battle for display
func (b *Battlefield) Snapshot() BattleState {
	s := BattleState{
		Tick:        b.tick,
		Entities:    make([]EntityState, 0, len(b.order)),
		Projectiles: make([]ProjectileState, 0, len(b.projectiles)),
		Pool:        make(map[string]int, len(Resources)),
	}
	for _, e := range b.Entities() {
		s.Entities = append(s.Entities, e.ToState())
	}
	for _, p := range b.projectiles {
		s.Projectiles = append(s.Projectiles, p.ToState())
	}
	for r, n := range b.pool.Snapshot() {
		s.Pool[string(r)] = n
	}
	return s
}
