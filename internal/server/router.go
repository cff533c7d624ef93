// Package server classifies inbound client events and dispatches them to the
// registry, room manager, and presence machinery via the Router type.
package server

import (
	"encoding/json"
	"log"
	"strings"
)

// Router is the dispatch table for inbound events. Every event is handled
// within a single routing step: classified, acted on, and delivered or
// dropped. Failures are contained per event; nothing a single client sends
// can terminate the process or another connection's handling.
type Router struct {
	registry *Registry
	rooms    *RoomManager
	hub      *Hub
}

// NewRouter creates a router over the given registry, room manager, and hub.
func NewRouter(registry *Registry, rooms *RoomManager, hub *Hub) *Router {
	return &Router{registry: registry, rooms: rooms, hub: hub}
}

// Dispatch parses a raw client frame and routes it by event kind. Malformed
// frames and unknown kinds are logged and dropped.
func (rt *Router) Dispatch(client *Client, raw []byte) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Recovered from panic while routing event from %s: %v", client.addr, r)
		}
	}()

	var evt InboundEvent
	if err := json.Unmarshal(raw, &evt); err != nil {
		log.Printf("Dropping malformed event from %s: %v", client.addr, err)
		return
	}

	if debugEnabled() {
		log.Printf("Routing %q event from %s (%s)", evt.Event, client.username, client.addr)
	}

	switch evt.Event {
	case EventJoin:
		if evt.Room == "" {
			log.Printf("Dropping join without room from %s: %v", client.addr, ErrMalformedEvent)
			return
		}
		rt.rooms.Join(client.id, eventUsername(client, evt), evt.Room)

	case EventLeave:
		rt.rooms.Leave(client.id, eventUsername(client, evt), evt.Room)

	case EventMessage:
		rt.handleChat(client, evt)

	default:
		log.Printf("Dropping event with unknown kind %q from %s", evt.Event, client.addr)
	}
}

// handleChat delivers a chat message either to one connection (private) or to
// every member of a room. Empty text, unknown targets, and unconfigured rooms
// are silently dropped; best-effort delivery has no error replies.
func (rt *Router) handleChat(client *Client, evt InboundEvent) {
	text := strings.TrimSpace(evt.Msg)
	if text == "" {
		return
	}

	if evt.Type == MessageTypePrivate {
		rt.deliverPrivate(client, evt.TargetUser, text)
		return
	}

	room := evt.Room
	if room == "" {
		room = DefaultRoom
	}
	if !rt.rooms.IsValidRoom(room) {
		log.Printf("Dropping message from %s for unconfigured room %q", client.username, room)
		return
	}

	payload, err := json.Marshal(RoomMessageEvent{
		Event:     EventMessage,
		Username:  client.username,
		Room:      room,
		Msg:       text,
		Timestamp: eventTimestamp(),
	})
	if err != nil {
		log.Printf("Error encoding room message from %s: %v", client.username, err)
		return
	}

	rt.hub.sendToClients(rt.rooms.MembersOf(room), payload)
}

// deliverPrivate sends a direct message to the first registered connection
// whose username matches the target. Usernames are not guaranteed unique;
// first match in connection order wins.
func (rt *Router) deliverPrivate(client *Client, target, text string) {
	if target == "" {
		log.Printf("Dropping private message from %s without target", client.username)
		return
	}

	recipient, ok := rt.registry.FindByUsername(target)
	if !ok {
		log.Printf("Dropping private message from %s to unknown user %q", client.username, target)
		return
	}

	payload, err := json.Marshal(PrivateMessageEvent{
		Event:     EventPrivateMessage,
		From:      client.username,
		To:        recipient.username,
		Msg:       text,
		Timestamp: eventTimestamp(),
	})
	if err != nil {
		log.Printf("Error encoding private message from %s: %v", client.username, err)
		return
	}

	if !rt.hub.trySend(recipient, payload) {
		log.Printf("Private message from %s to %s dropped: send buffer unavailable", client.username, recipient.username)
	}
}

// eventUsername prefers the username carried in the event and falls back to
// the connection's own identity when the field is absent.
func eventUsername(client *Client, evt InboundEvent) string {
	if evt.Username != "" {
		return evt.Username
	}
	return client.username
}
