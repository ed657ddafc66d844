// Package server coordinates client registration, message broadcast, and
// connection cleanup for the relay via the Hub type.
package server

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Hub tracks the live set of connections and handles message broadcasting.
// Membership is the only state shared between sessions; all structural
// mutation happens under the mutex, while sends never hold it.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]Conn
	logger  *slog.Logger
	wg      sync.WaitGroup
}

// NewHub creates an empty Hub ready to manage connections.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[string]Conn),
		logger:  logger,
	}
}

// Register adds a connection to the live set. It fails with
// ErrDuplicateClient when the identity is already present; the caller is
// expected to close the rejected connection.
func (h *Hub) Register(conn Conn) error {
	h.mu.Lock()
	if _, exists := h.clients[conn.ID()]; exists {
		h.mu.Unlock()
		return ErrDuplicateClient
	}
	h.clients[conn.ID()] = conn
	count := len(h.clients)
	h.mu.Unlock()

	h.logger.Info("client registered", "client", conn.ID(), "total", count)
	return nil
}

// Unregister removes a connection from the live set and closes it. It is
// idempotent: unregistering an absent connection is a no-op, so every
// session exit path may call it safely.
func (h *Hub) Unregister(conn Conn) {
	h.mu.Lock()
	registered, exists := h.clients[conn.ID()]
	if exists && registered == conn {
		delete(h.clients, conn.ID())
	}
	count := len(h.clients)
	h.mu.Unlock()

	_ = conn.Close()

	if exists {
		h.logger.Info("client unregistered", "client", conn.ID(), "total", count)
	}
}

// Broadcast delivers payload to every registered connection except the
// sender. Membership is snapshotted first so slow peer I/O never blocks
// registry mutation; connections that fail to accept the payload are
// treated as disconnected and unregistered, and delivery to the remaining
// peers continues.
func (h *Hub) Broadcast(payload []byte, sender Conn) {
	conns := h.snapshot()

	var failed []Conn
	for _, conn := range conns {
		if sender != nil && conn.ID() == sender.ID() {
			continue
		}
		if !conn.Deliver(payload) {
			failed = append(failed, conn)
		}
	}

	for _, conn := range failed {
		h.logger.Warn("dropping unresponsive client", "client", conn.ID())
		h.Unregister(conn)
	}
}

// Len reports the number of registered connections.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) snapshot() []Conn {
	h.mu.RLock()
	defer h.mu.RUnlock()

	conns := make([]Conn, 0, len(h.clients))
	for _, conn := range h.clients {
		conns = append(conns, conn)
	}
	return conns
}

// track runs fn in a goroutine counted by the hub's WaitGroup so Shutdown
// can wait for all session pumps to finish.
func (h *Hub) track(fn func()) {
	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		fn()
	}()
}

// Shutdown closes every registered connection and waits for all session
// goroutines to complete, or until the timeout is reached.
func (h *Hub) Shutdown(timeout time.Duration) error {
	h.logger.Info("shutting down hub")

	for _, conn := range h.snapshot() {
		h.Unregister(conn)
	}

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		h.logger.Info("hub shutdown completed")
		return nil
	case <-time.After(timeout):
		h.logger.Warn("hub shutdown timeout reached, some sessions may still be running")
		return context.DeadlineExceeded
	}
}
