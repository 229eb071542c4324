package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

type DB struct {
	sql *sql.DB
}

func Open(path string) (*DB, error) {
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	// Ensure schema exists for convenience.
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS slots (
  name        TEXT PRIMARY KEY,
  body        BLOB NOT NULL,
  revision    INTEGER NOT NULL DEFAULT 1,
  updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS sync_events (
  id          INTEGER PRIMARY KEY,
  occurred_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  url         TEXT NOT NULL,
  mode        TEXT NOT NULL CHECK (mode IN ('json','simple')),
  status_code INTEGER NOT NULL DEFAULT 0,
  ok          INTEGER NOT NULL CHECK (ok IN (0,1)),
  detail      TEXT,
  bytes       INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_sync_time ON sync_events(occurred_at);
    `); err != nil {
		return nil, err
	}
	return &DB{sql: db}, nil
}

func (d *DB) Close() error {
	if d == nil || d.sql == nil {
		return nil
	}
	return d.sql.Close()
}

// LoadSlot returns the body stored under name, or nil if the slot is empty.
func (d *DB) LoadSlot(ctx context.Context, name string) ([]byte, error) {
	var body []byte
	err := d.sql.QueryRowContext(ctx, "SELECT body FROM slots WHERE name = ?", name).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load slot %q: %w", name, err)
	}
	return body, nil
}

// SaveSlot replaces the body stored under name and bumps its revision.
func (d *DB) SaveSlot(ctx context.Context, name string, body []byte) error {
	_, err := d.sql.ExecContext(ctx, `
INSERT INTO slots(name, body, revision, updated_at) VALUES(?, ?, 1, CURRENT_TIMESTAMP)
ON CONFLICT(name) DO UPDATE SET body = excluded.body, revision = slots.revision + 1, updated_at = CURRENT_TIMESTAMP`,
		name, body)
	if err != nil {
		return fmt.Errorf("save slot %q: %w", name, err)
	}
	return nil
}

// DeleteSlot removes a slot. Deleting a missing slot is not an error.
func (d *DB) DeleteSlot(ctx context.Context, name string) error {
	if _, err := d.sql.ExecContext(ctx, "DELETE FROM slots WHERE name = ?", name); err != nil {
		return fmt.Errorf("delete slot %q: %w", name, err)
	}
	return nil
}

// SlotInfo returns metadata for one slot. ok is false when it does not exist.
func (d *DB) SlotInfo(ctx context.Context, name string) (info SlotInfo, ok bool, err error) {
	var updatedAt string
	err = d.sql.QueryRowContext(ctx, "SELECT name, revision, length(body), updated_at FROM slots WHERE name = ?", name).
		Scan(&info.Name, &info.Revision, &info.Bytes, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return SlotInfo{}, false, nil
	}
	if err != nil {
		return SlotInfo{}, false, err
	}
	info.UpdatedAt = parseTimestamp(updatedAt)
	return info, true, nil
}

// Slot binds a slot name to the database. The result satisfies
// daystore.Persister.
func (d *DB) Slot(name string) *Slot {
	return &Slot{db: d, name: name}
}

type Slot struct {
	db   *DB
	name string
}

func (s *Slot) Name() string { return s.name }

func (s *Slot) Load(ctx context.Context) ([]byte, error) {
	return s.db.LoadSlot(ctx, s.name)
}

func (s *Slot) Save(ctx context.Context, body []byte) error {
	return s.db.SaveSlot(ctx, s.name, body)
}

func (s *Slot) Clear(ctx context.Context) error {
	return s.db.DeleteSlot(ctx, s.name)
}

// RecordSyncEvent appends an attempt to the sync log. A zero OccurredAt is
// stamped with the current time.
func (d *DB) RecordSyncEvent(ctx context.Context, ev SyncEvent) (int64, error) {
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = time.Now()
	}
	res, err := d.sql.ExecContext(ctx, `INSERT INTO sync_events(occurred_at, url, mode, status_code, ok, detail, bytes) VALUES(?,?,?,?,?,?,?)`,
		ev.OccurredAt.UTC().Format(time.RFC3339), ev.URL, ev.Mode, ev.StatusCode, boolToInt(ev.OK), nullIfEmpty(ev.Detail), ev.Bytes)
	if err != nil {
		return 0, fmt.Errorf("record sync event: %w", err)
	}
	return res.LastInsertId()
}

// ListRecentSyncEvents returns the most recent N attempts, newest first.
func (d *DB) ListRecentSyncEvents(ctx context.Context, limit int) ([]SyncEvent, error) {
	if limit <= 0 {
		limit = 50
	}
	q := "SELECT id, occurred_at, url, mode, status_code, ok, detail, bytes FROM sync_events ORDER BY id DESC LIMIT ?"
	rows, err := d.sql.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []SyncEvent{}
	for rows.Next() {
		var (
			ev            SyncEvent
			occurredAtStr string
			okInt         int
			detail        sql.NullString
		)
		if err := rows.Scan(&ev.ID, &occurredAtStr, &ev.URL, &ev.Mode, &ev.StatusCode, &okInt, &detail, &ev.Bytes); err != nil {
			return nil, err
		}
		ev.OccurredAt = parseTimestamp(occurredAtStr)
		ev.OK = okInt == 1
		ev.Detail = detail.String
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

func (d *DB) GetStats(ctx context.Context) (Stats, error) {
	var st Stats
	rows, err := d.sql.QueryContext(ctx, "SELECT name, revision, length(body), updated_at FROM slots ORDER BY name")
	if err != nil {
		return st, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			info      SlotInfo
			updatedAt string
		)
		if err := rows.Scan(&info.Name, &info.Revision, &info.Bytes, &updatedAt); err != nil {
			return st, err
		}
		info.UpdatedAt = parseTimestamp(updatedAt)
		st.Slots = append(st.Slots, info)
	}
	if err := rows.Err(); err != nil {
		return st, err
	}

	var last sql.NullString
	err = d.sql.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN ok = 0 THEN 1 ELSE 0 END), 0),
			MAX(occurred_at)
		FROM
			sync_events;
	`).Scan(&st.SyncEvents, &st.FailedSyncs, &last)
	if err != nil {
		return st, err
	}
	if last.Valid {
		st.LastSync = parseTimestamp(last.String)
	}
	return st, nil
}

// parseTimestamp accepts SQLite's CURRENT_TIMESTAMP format and RFC3339.
func parseTimestamp(s string) time.Time {
	if t, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	return time.Time{}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
