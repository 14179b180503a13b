package main

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
)

var (
	// ErrNoEnemy is returned when a ship told to engage has no hostile in range
	ErrNoEnemy = errors.New("no enemy in range")
	// ErrCannotEngage is returned when a miner is told to engage the nearest enemy
	ErrCannotEngage = errors.New("miners cannot engage enemies")
)

// Broadcaster is a viewer connection the game pushes state to
type Broadcaster interface {
	SendJSON(msg interface{})
	SendBinary(data []byte)
}

// Game runs one battlefield on a fixed ticker and fans its state out to
// viewers. Every access to the battlefield goes through mu.
type Game struct {
	mu       sync.Mutex
	ID       string
	field    *Battlefield
	cfg      *Config
	clients  map[Broadcaster]struct{}
	sink     EventSink
	disabled []BattleEvent // ship_disabled events raised during the current tick
	paused   bool
	running  bool
	stop     chan struct{}
	log      zerolog.Logger
}

// DefaultScenario is the opening layout used when the config lists no spawns:
// a player squadron in the west, three pirate groups in the far corners and
// an asteroid field between them.
func DefaultScenario() []SpawnConfig {
	return []SpawnConfig{
		{Kind: "battleship", X: 500, Y: 500},
		{Kind: "battleship", X: 300, Y: 600},
		{Kind: "battleship", X: 700, Y: 809},
		{Kind: "miner", X: 400, Y: 760},
		{Kind: "miner", X: 620, Y: 660},

		{Kind: "pirate_battleship", X: 1500, Y: 1500},
		{Kind: "pirate_battleship", X: 1600, Y: 1500},
		{Kind: "pirate_battleship", X: 1500, Y: 1600},
		{Kind: "pirate_battleship", X: 1400, Y: 100},
		{Kind: "pirate_battleship", X: 1400, Y: 200},
		{Kind: "pirate_battleship", X: 1500, Y: 100},
		{Kind: "pirate_battleship", X: 100, Y: 1500},
		{Kind: "pirate_battleship", X: 200, Y: 1500},
		{Kind: "pirate_battleship", X: 100, Y: 1600},

		{Kind: "asteroid_crystal", X: 1000, Y: 1000},
		{Kind: "asteroid_alloy", X: 880, Y: 1120},
		{Kind: "asteroid_alloy", X: 1130, Y: 880},
		{Kind: "asteroid_crystal", X: 1200, Y: 1150},
	}
}

// NewGame creates a battle and spawns its opening scenario. sink may be nil.
func NewGame(id string, cfg *Config, sink EventSink) (*Game, error) {
	if sink == nil {
		sink = nopSink{}
	}
	g := &Game{
		ID:      id,
		cfg:     cfg,
		clients: make(map[Broadcaster]struct{}),
		sink:    sink,
		stop:    make(chan struct{}),
		log:     Logger.With().Str("battle", id).Logger(),
	}
	g.field = NewBattlefield(BattlefieldOptions{
		Seed:      cfg.Sim.Seed,
		WorldSize: cfg.Sim.WorldSize,
		Logger:    g.log,
		Sink:      g,
	})

	spawns := cfg.Scenario.Spawns
	if len(spawns) == 0 {
		spawns = DefaultScenario()
	}
	for i, s := range spawns {
		if _, err := g.field.CreateEntity(s.Kind, Point{X: s.X, Y: s.Y}); err != nil {
			return nil, fmt.Errorf("spawn %d (%s): %w", i, s.Kind, err)
		}
	}
	g.log.Info().Int("bodies", len(spawns)).Msg("Battle created")
	return g, nil
}

// Record receives battlefield events while mu is held by the tick
func (g *Game) Record(ev BattleEvent) {
	g.sink.Record(ev)
	if ev.Type == EventShipDisabled {
		g.disabled = append(g.disabled, ev)
	}
}

// Run starts the game loop
func (g *Game) Run() {
	g.mu.Lock()
	g.running = true
	g.mu.Unlock()

	ticker := time.NewTicker(g.cfg.TickDuration())
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			g.update()
		case <-g.stop:
			return
		}
	}
}

// Stop terminates the game loop
func (g *Game) Stop() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.running {
		g.running = false
		close(g.stop)
	}
}

// update runs one game tick
func (g *Game) update() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.paused {
		return
	}
	g.field.Advance()

	for _, ev := range g.disabled {
		g.broadcastMsg(Envelope{T: MsgDisabled, Data: DisabledMsg{
			ID:      ev.Entity,
			Name:    ev.Kind,
			Faction: string(ev.Faction),
		}})
	}
	g.disabled = g.disabled[:0]

	if g.field.Tick()%g.cfg.BroadcastEvery() == 0 {
		g.broadcastState()
	}
}

// AddClient registers a viewer and greets it
func (g *Game) AddClient(c Broadcaster) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.clients[c] = struct{}{}
	c.SendJSON(Envelope{T: MsgWelcome, Data: WelcomeMsg{Battle: g.ID, Tick: g.field.Tick()}})
}

// RemoveClient forgets a viewer
func (g *Game) RemoveClient(c Broadcaster) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.clients, c)
}

// ClientCount returns the number of viewers
func (g *Game) ClientCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.clients)
}

// Tick returns the number of completed ticks
func (g *Game) Tick() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.field.Tick()
}

// Snapshot returns the current battle state
func (g *Game) Snapshot() BattleState {
	g.mu.Lock()
	defer g.mu.Unlock()
	s := g.field.Snapshot()
	s.Paused = g.paused
	return s
}

// SetDestination orders every ship in ids to fly to p
func (g *Game) SetDestination(ids []Handle, p Point) error {
	return g.each(ids, func(h Handle) error { return g.field.SetDestination(h, p) })
}

// SetTarget orders every ship in ids to engage target. A zero target sends
// each battleship after its own nearest enemy.
func (g *Game) SetTarget(ids []Handle, target Handle) error {
	return g.each(ids, func(h Handle) error {
		t := target
		if t.IsZero() {
			if e := g.field.Entity(h); e != nil && e.Kind == KindMiner {
				return ErrCannotEngage
			}
			var ok bool
			if t, ok = g.field.NearestEnemy(h); !ok {
				return ErrNoEnemy
			}
		}
		return g.field.SetTarget(h, t)
	})
}

// Select marks every ship in ids selected or not
func (g *Game) Select(ids []Handle, on bool) error {
	return g.each(ids, func(h Handle) error { return g.field.Select(h, on) })
}

// ClearOrders drops the orders of every ship in ids
func (g *Game) ClearOrders(ids []Handle) error {
	return g.each(ids, g.field.ClearOrders)
}

// SetPaused freezes or resumes the simulation
func (g *Game) SetPaused(on bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.paused == on {
		return
	}
	g.paused = on
	g.log.Info().Bool("paused", on).Uint64("tick", g.field.Tick()).Msg("Pause toggled")
	g.broadcastMsg(Envelope{T: MsgPaused, Data: PauseMsg{On: on}})
}

// each applies fn to every handle under the lock, collecting failures
func (g *Game) each(ids []Handle, fn func(Handle) error) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	var errs []error
	for _, h := range ids {
		if err := fn(h); err != nil {
			errs = append(errs, fmt.Errorf("ship %d: %w", h.Index, err))
		}
	}
	return errors.Join(errs...)
}

// broadcastState sends the current battle state to all viewers as msgpack
func (g *Game) broadcastState() {
	if len(g.clients) == 0 {
		return
	}
	state := g.field.Snapshot()
	state.Paused = g.paused
	data, err := msgpack.Marshal(&state)
	if err != nil {
		g.log.Error().Err(err).Msg("marshal state")
		return
	}
	for c := range g.clients {
		c.SendBinary(data)
	}
}

// broadcastMsg sends a message to all viewers
func (g *Game) broadcastMsg(msg Envelope) {
	for c := range g.clients {
		c.SendJSON(msg)
	}
}
