// Package server implements the core HTTP and WebSocket relay for ratechat.
//
// The implementation is organized into specialized files for configuration,
// hub management, sessions, message routing, and HTTP handlers to keep the
// codebase maintainable and testable as the project grows.
package server
