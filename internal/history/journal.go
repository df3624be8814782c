package history

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // sqlite3 driver registration

	"github.com/nerrad567/gray-logic-backplate/internal/infrastructure/config"
)

// Sentinel errors for journal operations.
var (
	// ErrDisabled indicates the journal is turned off in configuration.
	ErrDisabled = errors.New("history: journal disabled")

	// ErrClosed indicates an operation on a closed journal.
	ErrClosed = errors.New("history: journal closed")
)

// schema creates the journal table on first open. The journal is
// append-only; nothing in the gateway updates or deletes rows.
const schema = `
CREATE TABLE IF NOT EXISTS events (
	id         TEXT PRIMARY KEY,
	kind       TEXT NOT NULL,
	payload    TEXT NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_events_created_at ON events(created_at);
CREATE INDEX IF NOT EXISTS idx_events_kind ON events(kind);
`

// Entry is one journalled event.
type Entry struct {
	ID        string
	Kind      string
	Payload   []byte
	CreatedAt time.Time
}

// Journal is an append-only SQLite log of every event the gateway
// published. The gateway itself never reads it back; Recent exists for
// offline inspection tooling.
type Journal struct {
	db   *sql.DB
	path string
}

// Open creates or opens the journal database and applies the schema.
//
// Returns ErrDisabled when the journal is turned off so callers can
// treat it as optional.
func Open(cfg config.HistoryConfig) (*Journal, error) {
	if !cfg.Enabled {
		return nil, ErrDisabled
	}

	if dir := filepath.Dir(cfg.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating journal directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_busy_timeout=%d", cfg.Path, cfg.GetBusyTimeout().Milliseconds())
	if cfg.WALMode {
		dsn += "&_journal_mode=WAL"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening journal database: %w", err)
	}

	// SQLite handles one writer; more connections just contend.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging journal database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying journal schema: %w", err)
	}

	return &Journal{db: db, path: cfg.Path}, nil
}

// RecordEvent appends one published event to the journal.
func (j *Journal) RecordEvent(kind string, payload []byte) error {
	if j.db == nil {
		return ErrClosed
	}
	_, err := j.db.Exec(
		`INSERT INTO events (id, kind, payload, created_at) VALUES (?, ?, ?, ?)`,
		uuid.NewString(), kind, string(payload), time.Now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("recording event: %w", err)
	}
	return nil
}

// Recent returns the newest entries, most recent first.
func (j *Journal) Recent(limit int) ([]Entry, error) {
	if j.db == nil {
		return nil, ErrClosed
	}
	rows, err := j.db.Query(
		`SELECT id, kind, payload, created_at FROM events ORDER BY created_at DESC, id LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying journal: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var payload string
		var createdAt int64
		if err := rows.Scan(&e.ID, &e.Kind, &payload, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning journal row: %w", err)
		}
		e.Payload = []byte(payload)
		e.CreatedAt = time.UnixMilli(createdAt)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating journal rows: %w", err)
	}
	return entries, nil
}

// Close releases the database handle.
func (j *Journal) Close() error {
	if j.db == nil {
		return nil
	}
	err := j.db.Close()
	j.db = nil
	return err
}
