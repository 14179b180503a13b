package main

import (
	"sync"
	"sync/atomic"
	"time"
)

const (
	recorderBuffer     = 1024
	recorderBatchSize  = 50
	recorderFlushEvery = 2 * time.Second
)

type recordedEvent struct {
	BattleEvent
	at time.Time
}

// Recorder persists battle events with batched background writes. It
// implements EventSink and never blocks the tick.
type Recorder struct {
	db       *DB
	battleID string
	events   chan recordedEvent
	stop     chan struct{}
	wg       sync.WaitGroup
	dropped  atomic.Int64
	stopOnce sync.Once
}

// NewRecorder creates and starts the background writer for one battle
func NewRecorder(db *DB, battleID string) *Recorder {
	r := &Recorder{
		db:       db,
		battleID: battleID,
		events:   make(chan recordedEvent, recorderBuffer),
		stop:     make(chan struct{}),
	}
	r.wg.Add(1)
	go r.writer()
	return r
}

// Record enqueues an event for async persistence (non-blocking)
func (r *Recorder) Record(ev BattleEvent) {
	select {
	case r.events <- recordedEvent{BattleEvent: ev, at: time.Now().UTC()}:
	default:
		// channel full, drop the event
		r.dropped.Add(1)
	}
}

// Dropped returns the number of events discarded because the queue was full
func (r *Recorder) Dropped() int64 {
	return r.dropped.Load()
}

// Stop flushes pending events and shuts the writer down
func (r *Recorder) Stop() {
	r.stopOnce.Do(func() {
		close(r.stop)
		r.wg.Wait()
	})
}

// writer is the background goroutine that batches and writes events to DB
func (r *Recorder) writer() {
	defer r.wg.Done()

	batch := make([]recordedEvent, 0, recorderBatchSize)
	ticker := time.NewTicker(recorderFlushEvery)
	defer ticker.Stop()

	for {
		select {
		case ev := <-r.events:
			batch = append(batch, ev)
			if len(batch) >= recorderBatchSize {
				r.flush(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				r.flush(batch)
				batch = batch[:0]
			}
		case <-r.stop:
			// Drain what is already queued; Record never closes the channel
		drain:
			for {
				select {
				case ev := <-r.events:
					batch = append(batch, ev)
				default:
					break drain
				}
			}
			if len(batch) > 0 {
				r.flush(batch)
			}
			return
		}
	}
}

// flush writes a batch of events to the database
func (r *Recorder) flush(events []recordedEvent) {
	if r.db == nil || len(events) == 0 {
		return
	}
	tx, err := r.db.conn.Begin()
	if err != nil {
		Logger.Error().Err(err).Msg("recorder: begin tx")
		return
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO battle_events
		(battle_id, tick, event_type, entity, other, kind, faction, detail, x, y, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		Logger.Error().Err(err).Msg("recorder: prepare")
		return
	}
	defer stmt.Close()

	for _, ev := range events {
		_, err := stmt.Exec(
			r.battleID, int64(ev.Tick), ev.Type,
			int64(ev.Entity.Index), int64(ev.Other.Index),
			ev.Kind, string(ev.Faction), ev.Detail,
			ev.X, ev.Y, ev.at.Format(time.RFC3339Nano),
		)
		if err != nil {
			Logger.Error().Err(err).Str("type", ev.Type).Msg("recorder: insert")
		}
	}
	if err := tx.Commit(); err != nil {
		Logger.Error().Err(err).Msg("recorder: commit")
	}
}

// EventCounts returns counts of each event type recorded for a battle
func (db *DB) EventCounts(battleID string) (map[string]int, error) {
	rows, err := db.conn.Query(`
		SELECT event_type, COUNT(*) FROM battle_events
		WHERE battle_id = ?
		GROUP BY event_type ORDER BY COUNT(*) DESC
	`, battleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string]int)
	for rows.Next() {
		var evtType string
		var count int
		if err := rows.Scan(&evtType, &count); err != nil {
			return nil, err
		}
		result[evtType] = count
	}
	return result, rows.Err()
}

// LoggedEvent is one row of the battle log
type LoggedEvent struct {
	Tick    int64   `json:"tick"`
	Type    string  `json:"type"`
	Kind    string  `json:"kind,omitempty"`
	Faction string  `json:"faction,omitempty"`
	Detail  string  `json:"detail,omitempty"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
}

// RecentEvents returns the latest events of a battle, newest first
func (db *DB) RecentEvents(battleID string, limit int) ([]LoggedEvent, error) {
	rows, err := db.conn.Query(`
		SELECT tick, event_type, kind, faction, detail, x, y FROM battle_events
		WHERE battle_id = ?
		ORDER BY id DESC LIMIT ?
	`, battleID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []LoggedEvent
	for rows.Next() {
		var ev LoggedEvent
		if err := rows.Scan(&ev.Tick, &ev.Type, &ev.Kind, &ev.Faction, &ev.Detail, &ev.X, &ev.Y); err != nil {
			return nil, err
		}
		result = append(result, ev)
	}
	return result, rows.Err()
}
