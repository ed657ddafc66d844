// Package auditlog persists the raw text of every relay command for later
// inspection. Entries are write-once and never read back by the relay
// itself.
package auditlog

import "time"

// Log is an append-only sink for executed command text. Append is called
// fire-and-forget from the relay's reply path; implementations must never
// be required for a reply to succeed.
type Log interface {
	Append(ts time.Time, command string) error
	Close() error
}

// NopLog discards every entry. Used when no audit store is configured.
type NopLog struct{}

// Append discards the entry.
func (NopLog) Append(time.Time, string) error { return nil }

// Close is a no-op.
func (NopLog) Close() error { return nil }

// New returns the audit log selected by path: a SQLite-backed store when a
// path is set, otherwise the no-op log.
func New(path string) (Log, error) {
	if path == "" {
		return NopLog{}, nil
	}
	return NewSQLiteLog(path)
}
