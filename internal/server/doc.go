// Package server implements the core WebSocket chat functionality: connection
// presence tracking, room membership, and message routing.
//
// The implementation is organized into specialized files for configuration,
// the connection registry, room management, presence broadcasting, event
// routing, clients, and HTTP handlers to keep the codebase maintainable and
// testable as the project grows.
package server
