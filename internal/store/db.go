// Package store provides SQLite-backed persistence for analyzed calls and
// their events.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/setevik/fsanalyze/internal/correlator"
	"github.com/setevik/fsanalyze/internal/event"
	_ "github.com/mattn/go-sqlite3"
)

// DB wraps an SQLite connection for analysis result storage.
type DB struct {
	db *sql.DB
}

// Open opens or creates an SQLite database at the given path.
func Open(path string) (*DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating db directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Single writer connection to avoid SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database.
func (d *DB) Close() error {
	return d.db.Close()
}

// SaveCall stores a call and all its events in one transaction. Re-saving
// the same call id replaces the previous row and its events.
func (d *DB) SaveCall(call *correlator.Call) error {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var duration sql.NullFloat64
	if call.DurationKnown {
		duration = sql.NullFloat64{Float64: call.Duration, Valid: true}
	}

	_, err = tx.Exec(`
		INSERT OR REPLACE INTO calls
			(id, state, first_seen, last_seen, hangup_cause, duration,
			 truncated_start, direction, caller, client_ip, codec, anomalies)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		call.ID,
		string(call.State),
		timeString(call.FirstSeen),
		timeString(call.LastSeen),
		call.HangupCause,
		duration,
		call.TruncatedStart,
		call.Direction,
		call.Caller,
		call.ClientIP,
		call.Codec,
		len(call.Anomalies),
	)
	if err != nil {
		return fmt.Errorf("inserting call: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM events WHERE call_id = ?`, call.ID); err != nil {
		return fmt.Errorf("clearing stale events: %w", err)
	}

	for _, ev := range call.Events {
		fieldsJSON, err := json.Marshal(ev.Fields)
		if err != nil {
			fieldsJSON = []byte("{}")
		}
		_, err = tx.Exec(`
			INSERT INTO events (call_id, seq, timestamp, kind, fields_json)
			VALUES (?, ?, ?, ?, ?)`,
			call.ID,
			ev.Seq,
			timeString(ev.Timestamp),
			string(ev.Kind),
			string(fieldsJSON),
		)
		if err != nil {
			return fmt.Errorf("inserting event: %w", err)
		}
	}

	return tx.Commit()
}

// CallRecord is the stored, flattened form of a call.
type CallRecord struct {
	ID             string
	State          string
	FirstSeen      time.Time
	LastSeen       time.Time
	HangupCause    string
	Duration       float64
	DurationKnown  bool
	TruncatedStart bool
	Direction      string
	Caller         string
	ClientIP       string
	Codec          string
	Anomalies      int
}

// QueryFilter controls which calls are returned by QueryCalls.
type QueryFilter struct {
	Since time.Time
	State string
	Cause string
	Limit int
}

// QueryCalls returns stored calls matching the filter, ordered by first-seen
// timestamp descending.
func (d *DB) QueryCalls(f QueryFilter) ([]*CallRecord, error) {
	query := `SELECT id, state, first_seen, last_seen, hangup_cause, duration,
		truncated_start, direction, caller, client_ip, codec, anomalies
		FROM calls WHERE 1=1`
	var args []interface{}

	if !f.Since.IsZero() {
		query += " AND first_seen >= ?"
		args = append(args, timeString(f.Since))
	}
	if f.State != "" {
		query += " AND state = ?"
		args = append(args, f.State)
	}
	if f.Cause != "" {
		query += " AND hangup_cause = ?"
		args = append(args, f.Cause)
	}

	query += " ORDER BY first_seen DESC"

	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying calls: %w", err)
	}
	defer rows.Close()

	var calls []*CallRecord
	for rows.Next() {
		rec, err := scanCall(rows)
		if err != nil {
			return nil, err
		}
		calls = append(calls, rec)
	}
	return calls, rows.Err()
}

// EventRecord is the stored form of one event row.
type EventRecord struct {
	CallID    string
	Seq       int
	Timestamp time.Time
	Kind      event.Kind
	Fields    map[string]string
}

// CallEvents returns the stored events of one call in file order.
func (d *DB) CallEvents(callID string) ([]*EventRecord, error) {
	rows, err := d.db.Query(`
		SELECT call_id, seq, timestamp, kind, fields_json
		FROM events WHERE call_id = ? ORDER BY seq`, callID)
	if err != nil {
		return nil, fmt.Errorf("querying events: %w", err)
	}
	defer rows.Close()

	var events []*EventRecord
	for rows.Next() {
		var rec EventRecord
		var tsStr, kind, fieldsJSON string
		if err := rows.Scan(&rec.CallID, &rec.Seq, &tsStr, &kind, &fieldsJSON); err != nil {
			return nil, fmt.Errorf("scanning event row: %w", err)
		}
		rec.Timestamp, _ = time.Parse(time.RFC3339Nano, tsStr)
		rec.Kind = event.Kind(kind)
		rec.Fields = make(map[string]string)
		if fieldsJSON != "" {
			_ = json.Unmarshal([]byte(fieldsJSON), &rec.Fields)
		}
		events = append(events, &rec)
	}
	return events, rows.Err()
}

// Count returns the number of stored calls.
func (d *DB) Count() (int, error) {
	var count int
	err := d.db.QueryRow(`SELECT COUNT(*) FROM calls`).Scan(&count)
	return count, err
}

func scanCall(rows *sql.Rows) (*CallRecord, error) {
	var rec CallRecord
	var firstSeen, lastSeen string
	var duration sql.NullFloat64
	var cause, direction, caller, clientIP, codec sql.NullString

	err := rows.Scan(
		&rec.ID,
		&rec.State,
		&firstSeen,
		&lastSeen,
		&cause,
		&duration,
		&rec.TruncatedStart,
		&direction,
		&caller,
		&clientIP,
		&codec,
		&rec.Anomalies,
	)
	if err != nil {
		return nil, fmt.Errorf("scanning call row: %w", err)
	}

	rec.FirstSeen, _ = time.Parse(time.RFC3339Nano, firstSeen)
	rec.LastSeen, _ = time.Parse(time.RFC3339Nano, lastSeen)
	rec.HangupCause = cause.String
	rec.Duration = duration.Float64
	rec.DurationKnown = duration.Valid
	rec.Direction = direction.String
	rec.Caller = caller.String
	rec.ClientIP = clientIP.String
	rec.Codec = codec.String

	return &rec, nil
}

// timeString stores timestamps as RFC3339Nano UTC text; zero times as "".
func timeString(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func migrate(db *sql.DB) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS calls (
			id              TEXT PRIMARY KEY,
			state           TEXT NOT NULL,
			first_seen      TEXT,
			last_seen       TEXT,
			hangup_cause    TEXT,
			duration        REAL,
			truncated_start BOOLEAN DEFAULT FALSE,
			direction       TEXT,
			caller          TEXT,
			client_ip       TEXT,
			codec           TEXT,
			anomalies       INTEGER DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS events (
			call_id     TEXT NOT NULL,
			seq         INTEGER NOT NULL,
			timestamp   TEXT,
			kind        TEXT NOT NULL,
			fields_json TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_events_call ON events(call_id, seq)`,
		`CREATE INDEX IF NOT EXISTS idx_calls_first_seen ON calls(first_seen)`,
		`CREATE INDEX IF NOT EXISTS idx_calls_cause ON calls(hangup_cause)`,
	}

	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}

	slog.Debug("database schema up to date")
	return nil
}
