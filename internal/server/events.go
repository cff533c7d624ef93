// Package server defines the JSON event envelopes exchanged with clients and
// shared helpers reused across client and routing logic.
package server

import (
	"strings"
	"time"
)

// Inbound event kinds carried in the "event" field of client frames.
const (
	EventJoin    = "join"
	EventLeave   = "leave"
	EventMessage = "message"
)

// Outbound event kinds.
const (
	EventActiveUsers    = "active_users"
	EventStatus         = "status"
	EventPrivateMessage = "private_message"
)

// Chat message subtypes carried in the "type" field of inbound message events.
const (
	MessageTypeRoom    = "message"
	MessageTypePrivate = "private"
)

// DefaultRoom receives chat messages that name no room.
const DefaultRoom = "General"

// InboundEvent is the envelope for every client-to-server frame. Which fields
// are required depends on the event kind; unused fields are left empty.
type InboundEvent struct {
	Event      string `json:"event"`
	Username   string `json:"username,omitempty"`
	Room       string `json:"room,omitempty"`
	Type       string `json:"type,omitempty"`
	Msg        string `json:"msg,omitempty"`
	TargetUser string `json:"target_user,omitempty"`
}

// ActiveUsersEvent is broadcast to every connection whenever presence changes.
// Users are listed in connection order.
type ActiveUsersEvent struct {
	Event string   `json:"event"`
	Users []string `json:"users"`
}

// StatusEvent announces a join or leave transition to the members of a room.
type StatusEvent struct {
	Event     string `json:"event"`
	Msg       string `json:"msg"`
	Type      string `json:"type"`
	Timestamp string `json:"timestamp"`
}

// RoomMessageEvent carries a chat message to every member of a room.
type RoomMessageEvent struct {
	Event     string `json:"event"`
	Username  string `json:"username"`
	Room      string `json:"room"`
	Msg       string `json:"msg"`
	Timestamp string `json:"timestamp"`
}

// PrivateMessageEvent carries a direct message to exactly one connection.
type PrivateMessageEvent struct {
	Event     string `json:"event"`
	From      string `json:"from"`
	To        string `json:"to"`
	Msg       string `json:"msg"`
	Timestamp string `json:"timestamp"`
}

func eventTimestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// isExpectedCloseError checks if an error is expected during connection closure.
func isExpectedCloseError(err error) bool {
	if err == nil {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "use of closed network connection") ||
		strings.Contains(errStr, "websocket: close sent") ||
		strings.Contains(errStr, "broken pipe")
}
