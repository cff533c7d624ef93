// Package server defines the error values shared across registry, room, and
// routing logic.
package server

import "errors"

var (
	// ErrNotFound indicates an operation referenced a connection id that is
	// not present in the registry. Callers treat it as a no-op.
	ErrNotFound = errors.New("connection not found")

	// ErrDuplicateConnection indicates a registration collision on a
	// connection id. It fails the registration attempt, not the process.
	ErrDuplicateConnection = errors.New("connection id already registered")

	// ErrInvalidRoom indicates a room name outside the configured room set.
	ErrInvalidRoom = errors.New("room is not configured")

	// ErrMalformedEvent indicates an inbound event missing a required field.
	ErrMalformedEvent = errors.New("malformed event")
)
