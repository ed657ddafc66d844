package auditlog

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteLog implements Log using a SQLite database file.
type SQLiteLog struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteLog opens (or creates) the database at path and ensures the
// command_log table exists.
func NewSQLiteLog(path string) (*SQLiteLog, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening audit log at %s: %w", path, err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS command_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		logged_at DATETIME NOT NULL,
		command TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_command_log_logged_at ON command_log(logged_at);
	`

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initializing audit log schema: %w", err)
	}

	return &SQLiteLog{db: db}, nil
}

// Append records one executed command with its timestamp.
func (l *SQLiteLog) Append(ts time.Time, command string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, err := l.db.Exec(
		"INSERT INTO command_log (logged_at, command) VALUES (?, ?)",
		ts.UTC(), command,
	); err != nil {
		return fmt.Errorf("appending audit entry: %w", err)
	}
	return nil
}

// Count reports the number of stored entries.
func (l *SQLiteLog) Count() (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var n int
	if err := l.db.QueryRow("SELECT COUNT(*) FROM command_log").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting audit entries: %w", err)
	}
	return n, nil
}

// Close closes the underlying database.
func (l *SQLiteLog) Close() error {
	return l.db.Close()
}
