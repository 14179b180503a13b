package main

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// DB wraps the SQLite database connection
type DB struct {
	conn *sql.DB
}

// BattleRow represents one battle run by the server
type BattleRow struct {
	ID        string
	Seed      int64
	WorldSize float64
	StartedAt time.Time
	EndedAt   sql.NullTime
	FinalTick int64
}

// OpenDB opens (or creates) the SQLite database
func OpenDB(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}

	// Enable WAL mode for better concurrency
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, err
	}
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates tables if they don't exist
func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS battles (
		id TEXT PRIMARY KEY,
		seed INTEGER NOT NULL DEFAULT 0,
		world_size REAL NOT NULL DEFAULT 0,
		started_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		ended_at DATETIME,
		final_tick INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS battle_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		battle_id TEXT NOT NULL REFERENCES battles(id),
		tick INTEGER NOT NULL,
		event_type TEXT NOT NULL,
		entity INTEGER NOT NULL DEFAULT 0,
		other INTEGER NOT NULL DEFAULT 0,
		kind TEXT NOT NULL DEFAULT '',
		faction TEXT NOT NULL DEFAULT '',
		detail TEXT NOT NULL DEFAULT '',
		x REAL NOT NULL DEFAULT 0,
		y REAL NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_battle_events_battle ON battle_events(battle_id, event_type);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// GetSetting returns a stored setting, or "" if unset
func (db *DB) GetSetting(key string) string {
	var v string
	err := db.conn.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&v)
	if err != nil {
		return ""
	}
	return v
}

// SetSetting stores a setting, replacing any previous value
func (db *DB) SetSetting(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	return err
}

// CreateBattle records the start of a battle
func (db *DB) CreateBattle(id string, seed int64, worldSize float64) error {
	_, err := db.conn.Exec(
		"INSERT INTO battles (id, seed, world_size) VALUES (?, ?, ?)",
		id, seed, worldSize,
	)
	return err
}

// EndBattle stamps the end time and final tick of a battle
func (db *DB) EndBattle(id string, finalTick uint64) error {
	_, err := db.conn.Exec(
		"UPDATE battles SET ended_at = CURRENT_TIMESTAMP, final_tick = ? WHERE id = ?",
		int64(finalTick), id,
	)
	return err
}

// GetBattle returns a battle by ID, or nil if not found
func (db *DB) GetBattle(id string) (*BattleRow, error) {
	var b BattleRow
	err := db.conn.QueryRow(
		"SELECT id, seed, world_size, started_at, ended_at, final_tick FROM battles WHERE id = ?", id,
	).Scan(&b.ID, &b.Seed, &b.WorldSize, &b.StartedAt, &b.EndedAt, &b.FinalTick)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// RecentBattles returns the most recently started battles
func (db *DB) RecentBattles(limit int) ([]BattleRow, error) {
	rows, err := db.conn.Query(
		"SELECT id, seed, world_size, started_at, ended_at, final_tick FROM battles ORDER BY started_at DESC, rowid DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []BattleRow
	for rows.Next() {
		var b BattleRow
		if err := rows.Scan(&b.ID, &b.Seed, &b.WorldSize, &b.StartedAt, &b.EndedAt, &b.FinalTick); err != nil {
			return nil, err
		}
		result = append(result, b)
	}
	return result, rows.Err()
}
