// Package server manages room membership transitions and status announcements
// through the RoomManager type.
package server

import (
	"encoding/json"
	"errors"
	"log"
)

// RoomManager validates room names against the configured room set, performs
// join/leave transitions on the registry, and emits status events to room
// members. Rooms carry no state of their own; membership is derived from the
// room field of registered connections.
type RoomManager struct {
	registry *Registry
	hub      *Hub
}

// NewRoomManager creates a room manager bound to the given registry and hub.
func NewRoomManager(registry *Registry, hub *Hub) *RoomManager {
	return &RoomManager{registry: registry, hub: hub}
}

// IsValidRoom reports whether the name belongs to the configured room set.
func (rm *RoomManager) IsValidRoom(name string) bool {
	return isConfiguredRoom(name)
}

// Join moves the connection into the room and announces the arrival to every
// member of that room, the joiner included. An invalid room or unknown
// connection id is logged and dropped without an error reply to the client.
func (rm *RoomManager) Join(id, username, room string) {
	if !rm.IsValidRoom(room) {
		log.Printf("Ignoring join from %s to room %q: %v", username, room, ErrInvalidRoom)
		return
	}

	members, err := rm.registry.JoinRoom(id, room)
	if err != nil {
		log.Printf("Ignoring join to %q for unknown connection %s", room, id)
		return
	}

	rm.emitStatus(members, username+" has joined "+room, EventJoin)
}

// Leave clears the connection's room field and announces the departure to the
// members of the named room as observed before the field was cleared. The
// announcement is best-effort: it is emitted even when the connection is
// unknown or was never in the room, so a stray leave never crashes a handler.
func (rm *RoomManager) Leave(id, username, room string) {
	members, err := rm.registry.LeaveRoom(id, room)
	if errors.Is(err, ErrNotFound) {
		log.Printf("Leave for unknown connection %s; emitting status for %q anyway", id, room)
	}

	rm.emitStatus(members, username+" has left "+room, EventLeave)
}

// MembersOf returns the connections currently subscribed to the room.
func (rm *RoomManager) MembersOf(room string) []*Client {
	return rm.registry.MembersOf(room)
}

func (rm *RoomManager) emitStatus(members []*Client, msg, kind string) {
	if len(members) == 0 {
		return
	}

	payload, err := json.Marshal(StatusEvent{
		Event:     EventStatus,
		Msg:       msg,
		Type:      kind,
		Timestamp: eventTimestamp(),
	})
	if err != nil {
		log.Printf("Error encoding status event: %v", err)
		return
	}

	rm.hub.sendToClients(members, payload)
}
