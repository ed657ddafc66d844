// Package server wires HTTP handlers into a ServeMux for the relay.
package server

import (
	"log/slog"
	"net/http"
)

// SetupRoutes configures and returns an HTTP ServeMux with all application
// routes: the health check and the relay endpoint.
func SetupRoutes(hub *Hub, router *Router, cfg *Config, logger *slog.Logger) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/", HealthHandler)
	mux.HandleFunc("/ws", NewWebSocketHandler(hub, router, cfg, logger))
	return mux
}
