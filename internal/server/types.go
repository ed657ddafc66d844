// Package server defines the connection abstraction and shared helpers that
// are reused across client, hub, and router logic.
package server

import (
	"errors"
	"strings"
)

// ErrDuplicateClient is returned when a connection identity is already
// registered with the hub.
var ErrDuplicateClient = errors.New("client already registered")

// Conn is one client's duplex channel as seen by the hub and router. Deliver
// must not block: it reports false when the connection can no longer accept
// the payload, which the hub treats as a disconnect.
type Conn interface {
	ID() string
	Deliver(payload []byte) bool
	Close() error
}

// isExpectedCloseError checks if an error is expected during connection
// closure.
func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "use of closed network connection") ||
		strings.Contains(errStr, "websocket: close sent") ||
		strings.Contains(errStr, "broken pipe")
}
