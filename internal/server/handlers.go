// Package server exposes HTTP handlers, including WebSocket upgrades and
// health checks.
package server

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
)

// NewWebSocketHandler returns the handler for the relay endpoint. It
// validates the request method, upgrades the connection, registers the new
// session with the hub, and starts its pumps. A duplicate identity rejects
// only the offending connection.
func NewWebSocketHandler(hub *Hub, router *Router, cfg *Config, logger *slog.Logger) http.HandlerFunc {
	checker := newOriginChecker(cfg.AllowedOrigins, logger)
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     checker.check,
	}
	maxMessageSize := cfg.MaxMessageSize

	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed. WebSocket endpoint only accepts GET requests.", http.StatusMethodNotAllowed)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warn("websocket upgrade failed", "error", err)
			return
		}

		client := NewClient(conn, hub, router, r.RemoteAddr, maxMessageSize, logger)
		if err := hub.Register(client); err != nil {
			logger.Warn("rejecting connection", "client", client.ID(), "error", err)
			_ = client.Close()
			return
		}
		client.Run()
	}
}

// HealthHandler provides a simple health check endpoint that returns server
// status.
func HealthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	_, _ = fmt.Fprintf(w, "ratechat server is running!")
}
