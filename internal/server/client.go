// Package server manages individual WebSocket sessions, handling read/write
// pumps and lifecycle control for each connection.
package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// writeWait is the deadline for a single outbound write.
	writeWait = 10 * time.Second
	// pongWait is how long a connection may stay silent before the read
	// deadline expires.
	pongWait = 60 * time.Second
	// pingPeriod must be shorter than pongWait.
	pingPeriod = 54 * time.Second
	// sendBuffer bounds the per-connection outbound queue; a peer that
	// falls this far behind is dropped.
	sendBuffer = 256
)

// Client is one WebSocket session. It owns the socket's read and write
// pumps and implements Conn for the hub and router.
type Client struct {
	id     string
	conn   *websocket.Conn
	send   chan []byte
	done   chan struct{}
	hub    *Hub
	router *Router
	addr   string
	logger *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once
}

// NewClient creates a Client for an upgraded WebSocket connection. The
// session's context is cancelled on close so in-flight command lookups are
// abandoned rather than leaked.
func NewClient(conn *websocket.Conn, hub *Hub, router *Router, addr string, maxMessageSize int64, logger *slog.Logger) *Client {
	if conn != nil && maxMessageSize > 0 {
		conn.SetReadLimit(maxMessageSize)
	}

	ctx, cancel := context.WithCancel(context.Background())
	id := uuid.NewString()

	return &Client{
		id:     id,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
		done:   make(chan struct{}),
		hub:    hub,
		router: router,
		addr:   addr,
		logger: logger.With("client", id, "addr", addr),
		ctx:    ctx,
		cancel: cancel,
	}
}

// ID returns the session's unique identity.
func (c *Client) ID() string {
	return c.id
}

// Deliver enqueues a payload for the write pump without blocking. It
// reports false when the session is closed or its buffer is full; the hub
// treats either as a disconnect.
func (c *Client) Deliver(payload []byte) bool {
	select {
	case <-c.done:
		return false
	case c.send <- payload:
		return true
	default:
		return false
	}
}

// Close marks the session closed exactly once: it cancels the session
// context, releases the write pump, and closes the socket. Safe to call
// from any exit path.
func (c *Client) Close() error {
	c.once.Do(func() {
		c.cancel()
		close(c.done)
		if c.conn != nil {
			if err := c.conn.Close(); err != nil && !isExpectedCloseError(err) {
				c.logger.Debug("error closing connection", "error", err)
			}
		}
	})
	return nil
}

// Run starts the session's read and write pumps, tracked by the hub so
// shutdown can wait for them.
func (c *Client) Run() {
	c.hub.track(c.writePump)
	c.hub.track(c.readPump)
}

// setupReadConnection configures the read deadline and pong handler.
func (c *Client) setupReadConnection() {
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Warn("error setting initial read deadline", "error", err)
	}
	c.conn.SetPongHandler(func(string) error {
		if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			c.logger.Warn("error setting read deadline in pong handler", "error", err)
		}
		return nil
	})
}

// logReadError logs the read failure that ended the session at a level
// matching how expected it was.
func (c *Client) logReadError(err error) {
	switch {
	case errors.Is(err, websocket.ErrReadLimit):
		c.logger.Warn("message exceeded maximum size")
	case websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseAbnormalClosure):
		c.logger.Info("client disconnected", "error", err)
	case errors.Is(err, io.EOF), isExpectedCloseError(err):
		c.logger.Info("connection closed", "error", err)
	case websocket.IsUnexpectedCloseError(err,
		websocket.CloseGoingAway,
		websocket.CloseAbnormalClosure,
		websocket.CloseMessageTooBig):
		c.logger.Warn("unexpected websocket error", "error", err)
	default:
		c.logger.Warn("websocket read error", "error", err)
	}
}

// readPump reads messages one at a time in receipt order and routes each
// through the router. Any read error ends the session; the deferred
// unregister runs on every exit path.
func (c *Client) readPump() {
	defer c.hub.Unregister(c)

	c.setupReadConnection()

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			c.logReadError(err)
			return
		}
		c.router.Route(c.ctx, c, raw)
	}
}

// writePump writes queued payloads and periodic pings until the session
// closes or a write fails.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.hub.Unregister(c)
	}()

	for {
		select {
		case <-c.done:
			c.writeCloseMessage()
			return
		case payload := <-c.send:
			if !c.writeTextMessage(payload) {
				return
			}
		case <-ticker.C:
			if !c.writePing() {
				return
			}
		}
	}
}

// writeCloseMessage sends a close frame to the peer.
func (c *Client) writeCloseMessage() {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return
	}
	if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
		if !isExpectedCloseError(err) {
			c.logger.Debug("error writing close message", "error", err)
		}
	}
}

// writeTextMessage writes one payload as a single text frame. Reports and
// chat lines each travel as their own frame so payload boundaries survive.
func (c *Client) writeTextMessage(payload []byte) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Warn("error setting write deadline", "error", err)
		return false
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		if !isExpectedCloseError(err) {
			c.logger.Warn("error writing message", "error", err)
		}
		return false
	}
	return true
}

// writePing keeps the connection alive between messages.
func (c *Client) writePing() bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Warn("error setting write deadline for ping", "error", err)
		return false
	}
	if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
		if !isExpectedCloseError(err) {
			c.logger.Warn("error writing ping message", "error", err)
		}
		return false
	}
	return true
}
