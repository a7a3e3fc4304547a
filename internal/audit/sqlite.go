package audit

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS audit_entries (
	seq           INTEGER PRIMARY KEY AUTOINCREMENT,
	id            TEXT NOT NULL,
	ts            INTEGER NOT NULL,
	user_id       TEXT NOT NULL,
	event_type    TEXT NOT NULL,
	category      TEXT NOT NULL,
	name          TEXT NOT NULL,
	description   TEXT NOT NULL,
	resource_type TEXT NOT NULL DEFAULT '',
	resource_id   TEXT NOT NULL DEFAULT '',
	severity      TEXT NOT NULL,
	success       INTEGER NOT NULL,
	metadata      TEXT NOT NULL DEFAULT '{}'
);
CREATE INDEX IF NOT EXISTS idx_audit_ts ON audit_entries (ts);
CREATE INDEX IF NOT EXISTS idx_audit_user ON audit_entries (user_id);
`

// SQLiteStore is a durable Store backed by an embedded SQLite database.
// It implements the same contract as MemoryStore so the two are
// interchangeable behind the Store interface.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLiteStore opens (or creates) the database at path and ensures the
// schema exists.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("audit: open sqlite: %w", err)
	}
	// A single writer avoids SQLITE_BUSY under concurrent appends.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("audit: create schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Append inserts one entry.
func (s *SQLiteStore) Append(e *Entry) error {
	meta := "{}"
	if len(e.Metadata) > 0 {
		b, err := json.Marshal(e.Metadata)
		if err != nil {
			return fmt.Errorf("audit: marshal metadata: %w", err)
		}
		meta = string(b)
	}

	_, err := s.db.Exec(
		`INSERT INTO audit_entries
		 (id, ts, user_id, event_type, category, name, description, resource_type, resource_id, severity, success, metadata)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Timestamp.UnixNano(), e.UserID, string(e.EventType), e.Category,
		e.Name, e.Description, e.ResourceType, e.ResourceID, e.Severity,
		boolToInt(e.Success), meta,
	)
	if err != nil {
		return fmt.Errorf("audit: insert entry: %w", err)
	}
	return nil
}

// Query returns matching entries, newest-first.
func (s *SQLiteStore) Query(f Filter) ([]Entry, error) {
	where, args := buildWhere(f)
	q := "SELECT id, ts, user_id, event_type, category, name, description, resource_type, resource_id, severity, success, metadata FROM audit_entries" +
		where + " ORDER BY seq DESC"
	if f.Limit > 0 {
		q += fmt.Sprintf(" LIMIT %d", f.Limit)
	}

	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("audit: query: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var ts int64
		var success int
		var meta string
		if err := rows.Scan(&e.ID, &ts, &e.UserID, &e.EventType, &e.Category, &e.Name,
			&e.Description, &e.ResourceType, &e.ResourceID, &e.Severity, &success, &meta); err != nil {
			return nil, fmt.Errorf("audit: scan row: %w", err)
		}
		e.Timestamp = time.Unix(0, ts)
		e.Success = success != 0
		if meta != "" && meta != "{}" {
			if err := json.Unmarshal([]byte(meta), &e.Metadata); err != nil {
				return nil, fmt.Errorf("audit: unmarshal metadata: %w", err)
			}
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// Count returns how many entries match the filter.
func (s *SQLiteStore) Count(f Filter) (int, error) {
	where, args := buildWhere(f)
	var n int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM audit_entries"+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("audit: count: %w", err)
	}
	return n, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func buildWhere(f Filter) (string, []any) {
	var conds []string
	var args []any
	if !f.From.IsZero() {
		conds = append(conds, "ts >= ?")
		args = append(args, f.From.UnixNano())
	}
	if !f.To.IsZero() {
		conds = append(conds, "ts <= ?")
		args = append(args, f.To.UnixNano())
	}
	if f.UserID != "" {
		conds = append(conds, "user_id = ?")
		args = append(args, f.UserID)
	}
	if f.EventType != "" {
		conds = append(conds, "event_type = ?")
		args = append(args, string(f.EventType))
	}
	if f.Search != "" {
		conds = append(conds, "(name LIKE ? OR description LIKE ? OR resource_type LIKE ? OR resource_id LIKE ?)")
		needle := "%" + f.Search + "%"
		args = append(args, needle, needle, needle, needle)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
