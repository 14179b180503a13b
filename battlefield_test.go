package main

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// eventLog collects battle events in memory
type eventLog struct {
	events []BattleEvent
}

func (l *eventLog) Record(ev BattleEvent) {
	l.events = append(l.events, ev)
}

func (l *eventLog) at(tick uint64) []BattleEvent {
	var out []BattleEvent
	for _, ev := range l.events {
		if ev.Tick == tick {
			out = append(out, ev)
		}
	}
	return out
}

func newTestField() *Battlefield {
	return NewBattlefield(BattlefieldOptions{Seed: 1, Logger: zerolog.Nop()})
}

func spawn(t *testing.T, b *Battlefield, kind string, x, y float64) *Entity {
	t.Helper()
	h, err := b.CreateEntity(kind, Point{X: x, Y: y})
	require.NoError(t, err)
	e := b.Entity(h)
	require.NotNil(t, e)
	return e
}

func spawnTemplate(t *testing.T, b *Battlefield, tmpl Template, x, y float64) *Entity {
	t.Helper()
	h, err := b.CreateFromTemplate(tmpl, Point{X: x, Y: y})
	require.NoError(t, err)
	return b.Entity(h)
}

// shipTemplate is a warship of the given faction and body with stock handling
func shipTemplate(name string, faction Faction, body [][]int) Template {
	return Template{
		Name: name, Kind: KindBattleship, Faction: faction, Body: body,
		Accel: 0.01, TurnSpeed: 0.02, MaxSpeed: 1,
	}
}

func advance(b *Battlefield, n int) {
	for i := 0; i < n; i++ {
		b.Advance()
	}
}

// wreckAll destroys every cell of e
func wreckAll(e *Entity) {
	for y, row := range e.Grid {
		for x := range row {
			e.ApplyDamage(x, y, TierCannon)
		}
	}
}

func TestCreateEntityUnknownKind(t *testing.T) {
	b := newTestField()
	_, err := b.CreateEntity("dreadnought", Point{})
	assert.ErrorIs(t, err, ErrUnknownKind)
	assert.Empty(t, b.Entities())
}

func TestCreateFromTemplateValidates(t *testing.T) {
	b := newTestField()
	_, err := b.CreateFromTemplate(shipTemplate("ragged", FactionPlayer, [][]int{{1, 1}, {1}}), Point{})
	assert.Error(t, err)

	_, err = b.CreateFromTemplate(shipTemplate("bad_code", FactionPlayer, [][]int{{7}}), Point{})
	assert.Error(t, err)

	_, err = b.CreateFromTemplate(shipTemplate("empty", FactionPlayer, nil), Point{})
	assert.Error(t, err)
}

func TestCreateEntityRegisters(t *testing.T) {
	log := &eventLog{}
	b := NewBattlefield(BattlefieldOptions{Seed: 1, Logger: zerolog.Nop(), Sink: log})

	ship := spawn(t, b, "battleship", 100, 200)
	rock := spawn(t, b, "asteroid_alloy", 400, 200)

	assert.Equal(t, []Handle{ship.ID}, b.Roster(FactionPlayer))
	assert.Equal(t, []Handle{rock.ID}, b.Roster(FactionNeutral))
	assert.Equal(t, []*Entity{ship, rock}, b.Entities())

	f, err := b.Faction(ship.ID)
	require.NoError(t, err)
	assert.Equal(t, FactionPlayer, f)

	require.Len(t, log.events, 2)
	assert.Equal(t, EventEntitySpawned, log.events[0].Type)
	assert.Equal(t, "battleship", log.events[0].Kind)
	assert.Equal(t, ship.ID, log.events[0].Entity)
}

func TestHeadOnCollisionIsSymmetric(t *testing.T) {
	b := newTestField()
	player := spawn(t, b, "battleship", 0, 0)
	pirate := spawn(t, b, "pirate_battleship", 30, 0)

	b.Advance()

	assert.Less(t, player.Cells, 45)
	assert.Equal(t, player.Cells, pirate.Cells)
}

func TestSameFactionBodiesPassThrough(t *testing.T) {
	b := newTestField()
	a := spawn(t, b, "battleship", 0, 0)
	c := spawn(t, b, "battleship", 10, 0)

	b.Advance()

	assert.Equal(t, 45, a.Cells)
	assert.Equal(t, 45, c.Cells)
}

func TestFragileCollisionDisablesAndRemoves(t *testing.T) {
	log := &eventLog{}
	b := NewBattlefield(BattlefieldOptions{Seed: 1, Logger: zerolog.Nop(), Sink: log})
	player := spawnTemplate(t, b, shipTemplate("skiff", FactionPlayer, [][]int{{1, 1, 1, 1, 1}}), 0, 0)
	pirate := spawnTemplate(t, b, shipTemplate("dart", FactionPirate, [][]int{{1, 1, 1}}), 10, 0)
	pirateID := pirate.ID

	b.Advance()

	assert.Equal(t, FactionNeutral, player.Faction)
	assert.True(t, player.Disabled())
	assert.Equal(t, 2, player.Cells)
	assert.Equal(t, []Handle{player.ID}, b.Roster(FactionNeutral))
	assert.Empty(t, b.Roster(FactionPlayer))
	assert.Empty(t, b.Roster(FactionPirate))

	assert.Nil(t, b.Entity(pirateID))
	assert.Equal(t, []*Entity{player}, b.Entities())

	events := log.at(1)
	require.Len(t, events, 3)
	assert.Equal(t, EventShipDisabled, events[0].Type)
	assert.Equal(t, player.ID, events[0].Entity)
	assert.Equal(t, FactionPlayer, events[0].Faction)
	assert.Equal(t, EventShipDisabled, events[1].Type)
	assert.Equal(t, pirateID, events[1].Entity)
	assert.Equal(t, EventEntityRemoved, events[2].Type)
	assert.Equal(t, pirateID, events[2].Entity)
}

func TestTargetClearedAfterTargetDisabled(t *testing.T) {
	b := newTestField()
	hunter := spawn(t, b, "battleship", 0, 0)
	prey := spawnTemplate(t, b, shipTemplate("gunboat", FactionPirate, [][]int{{1, 1, 1}, {1, 1, 1}, {1, 1, 1}}), 700, 0)
	require.NoError(t, b.SetTarget(hunter.ID, prey.ID))

	prey.Hull = 0
	b.Advance()
	require.True(t, prey.Disabled())
	assert.Equal(t, prey.ID, hunter.Ship.Target, "cleared on the hunter's next update")

	b.Advance()
	assert.True(t, hunter.Ship.Target.IsZero())
}

func TestTargetClearedAfterTargetRemoved(t *testing.T) {
	b := newTestField()
	hunter := spawn(t, b, "battleship", 0, 0)
	prey := spawnTemplate(t, b, shipTemplate("gunboat", FactionPirate, [][]int{{1, 1, 1}, {1, 1, 1}, {1, 1, 1}}), 700, 0)
	preyID := prey.ID
	require.NoError(t, b.SetTarget(hunter.ID, preyID))

	wreckAll(prey)
	b.Advance()
	require.Nil(t, b.Entity(preyID))

	b.Advance()
	assert.True(t, hunter.Ship.Target.IsZero())
}

func TestReapEmptyAsteroid(t *testing.T) {
	log := &eventLog{}
	b := NewBattlefield(BattlefieldOptions{Seed: 1, Logger: zerolog.Nop(), Sink: log})
	rock := spawn(t, b, "asteroid_crystal", 500, 500)
	keep := spawn(t, b, "asteroid_alloy", 900, 900)
	rockID := rock.ID

	wreckAll(rock)
	require.Zero(t, rock.Cells)
	b.Advance()

	assert.Nil(t, b.Entity(rockID))
	assert.Equal(t, []Handle{keep.ID}, b.Roster(FactionNeutral))
	events := log.at(1)
	require.Len(t, events, 1)
	assert.Equal(t, EventEntityRemoved, events[0].Type)
}

func TestCommandErrors(t *testing.T) {
	b := newTestField()
	ship := spawn(t, b, "battleship", 0, 0)
	rock := spawn(t, b, "asteroid_alloy", 600, 0)
	wreck := spawn(t, b, "pirate_battleship", 1200, 0)
	b.disableShip(wreck)

	assert.ErrorIs(t, b.SetDestination(rock.ID, Point{}), ErrNotAShip)
	assert.ErrorIs(t, b.SetDestination(Handle{Index: 99, Gen: 1}, Point{}), ErrStaleHandle)
	assert.ErrorIs(t, b.SetDestination(wreck.ID, Point{}), ErrDisabled)
	assert.ErrorIs(t, b.SetTarget(ship.ID, Handle{Index: 99, Gen: 1}), ErrStaleHandle)
	assert.ErrorIs(t, b.ClearOrders(rock.ID), ErrNotAShip)
	assert.ErrorIs(t, b.Select(wreck.ID, true), ErrDisabled)

	_, err := b.Faction(Handle{})
	assert.ErrorIs(t, err, ErrStaleHandle)
}

func TestSelection(t *testing.T) {
	b := newTestField()
	a := spawn(t, b, "battleship", 0, 0)
	c := spawn(t, b, "miner", 300, 0)

	require.NoError(t, b.Select(c.ID, true))
	require.NoError(t, b.Select(a.ID, true))
	assert.Equal(t, []Handle{a.ID, c.ID}, b.Selected())

	require.NoError(t, b.Select(a.ID, false))
	assert.Equal(t, []Handle{c.ID}, b.Selected())

	b.disableShip(c)
	assert.Empty(t, b.Selected(), "disabling drops the selection")
}

func TestProjectileHitsCell(t *testing.T) {
	b := newTestField()
	ship := spawn(t, b, "battleship", 0, 0)
	require.Equal(t, CellHull, ship.Grid.At(5, 3))

	// one step of flight lands the shot in cell (5,3)
	b.fire(NewProjectile(Point{X: 1, Y: 0}, 0, FactionPirate, TierTurret))
	b.Advance()

	assert.Equal(t, CellEmpty, ship.Grid.At(5, 3))
	assert.Equal(t, 14, ship.Hull)
	assert.Empty(t, b.Projectiles())
}

func TestFriendlyProjectilePassesThrough(t *testing.T) {
	b := newTestField()
	ship := spawn(t, b, "battleship", 0, 0)

	b.fire(NewProjectile(Point{X: 1, Y: 0}, 0, FactionPlayer, TierCannon))
	b.Advance()

	assert.Equal(t, CellHull, ship.Grid.At(5, 3))
	require.Len(t, b.Projectiles(), 1)
	assert.Equal(t, CannonShotLifetime-1, b.Projectiles()[0].Life)
}

func TestAsteroidTakesFireFromEveryFaction(t *testing.T) {
	b := newTestField()
	rock := spawn(t, b, "asteroid_alloy", 0, 0)
	rock.Rotation = 0
	cells := rock.Cells

	b.fire(NewProjectile(Point{X: -2, Y: 0}, 0, FactionPlayer, TierTurret))
	b.fire(NewProjectile(Point{X: -17, Y: -15}, 0, FactionPirate, TierTurret))
	b.Advance()

	assert.Equal(t, cells-2, rock.Cells)
	assert.Empty(t, b.Projectiles())
}

func TestProjectileCap(t *testing.T) {
	b := newTestField()
	for i := 0; i < maxProjectilesPerMap+10; i++ {
		b.fire(NewProjectile(Point{}, 0, FactionPlayer, TierTurret))
	}
	assert.Len(t, b.Projectiles(), maxProjectilesPerMap)
}

func TestSnapshot(t *testing.T) {
	b := newTestField()
	spawn(t, b, "battleship", 0, 0)
	spawn(t, b, "asteroid_alloy", 600, 600)
	b.pool.Add(ResourceAlloy, 3)
	b.Advance()

	s := b.Snapshot()
	assert.Equal(t, uint64(1), s.Tick)
	assert.Len(t, s.Entities, 2)
	assert.Equal(t, map[string]int{"alloy": 3, "crystal": 0, "scrap": 0}, s.Pool)
}
