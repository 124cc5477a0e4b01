package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists the audit trail and a durable copy of emitted
// marketplace events.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the audit database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &SQLiteStore{db: db}
	if err := store.init(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *SQLiteStore) init() error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS audit_log (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            occurred_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
            request_id TEXT,
            subject TEXT,
            method TEXT NOT NULL,
            path TEXT NOT NULL,
            request_body BLOB,
            response_status INTEGER
        );`,
		`CREATE TABLE IF NOT EXISTS market_events (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            type TEXT NOT NULL,
            attributes TEXT NOT NULL,
            created_at TIMESTAMP NOT NULL
        );`,
	}
	for _, stmt := range schema {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// AuditEntry is one row of the request audit trail.
type AuditEntry struct {
	RequestID      string
	Subject        string
	Method         string
	Path           string
	RequestBody    []byte
	ResponseStatus int
	Timestamp      time.Time
}

// InsertAuditLog appends one entry to the audit trail.
func (s *SQLiteStore) InsertAuditLog(ctx context.Context, entry AuditEntry) error {
	const stmt = `INSERT INTO audit_log(request_id, subject, method, path, request_body, response_status, occurred_at) VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, stmt, entry.RequestID, entry.Subject, entry.Method, entry.Path, entry.RequestBody, entry.ResponseStatus, entry.Timestamp)
	return err
}

// InsertMarketEvent stores a durable copy of one emitted event.
func (s *SQLiteStore) InsertMarketEvent(ctx context.Context, eventType string, attributes map[string]string) error {
	encoded, err := json.Marshal(attributes)
	if err != nil {
		return err
	}
	const stmt = `INSERT INTO market_events(type, attributes, created_at) VALUES (?, ?, ?)`
	_, err = s.db.ExecContext(ctx, stmt, eventType, string(encoded), time.Now().UTC())
	return err
}

// StoredEvent is one persisted marketplace event.
type StoredEvent struct {
	ID         int64             `json:"id"`
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes,omitempty"`
	CreatedAt  time.Time         `json:"createdAt"`
}

// RecentEvents returns the newest events up to limit, oldest first.
func (s *SQLiteStore) RecentEvents(ctx context.Context, limit int) ([]StoredEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	const query = `SELECT id, type, attributes, created_at FROM market_events ORDER BY id DESC LIMIT ?`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []StoredEvent
	for rows.Next() {
		var evt StoredEvent
		var encoded string
		if err := rows.Scan(&evt.ID, &evt.Type, &encoded, &evt.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(encoded), &evt.Attributes); err != nil {
			return nil, err
		}
		out = append(out, evt)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}
