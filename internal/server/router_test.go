package server

import (
	"encoding/json"
	"testing"
)

func dispatchJSON(t *testing.T, h *Hub, client *Client, event InboundEvent) {
	t.Helper()
	payload, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("Failed to marshal event: %v", err)
	}
	h.router.Dispatch(client, payload)
}

// TestRoomMessageDelivery verifies the core broadcast scenario: two members
// of a room both receive a chat message sent into it, and a connection
// outside the room receives nothing.
func TestRoomMessageDelivery(t *testing.T) {
	SetConfig(nil)
	h := NewHub()
	a := newTestClient("conn-a", "alice")
	b := newTestClient("conn-b", "bob")
	c := newTestClient("conn-c", "carol")
	for _, client := range []*Client{a, b, c} {
		registerTestClient(t, h, client)
	}
	h.rooms.Join(a.id, "alice", "General")
	h.rooms.Join(b.id, "bob", "General")
	for _, client := range []*Client{a, b, c} {
		drainEvents(t, client)
	}

	dispatchJSON(t, h, a, InboundEvent{Event: EventMessage, Room: "General", Msg: "hi"})

	for _, client := range []*Client{a, b} {
		event := nextEvent(t, client)
		if event["event"] != EventMessage {
			t.Fatalf("Expected message event on %s, got %v", client.username, event["event"])
		}
		if event["username"] != "alice" || event["room"] != "General" || event["msg"] != "hi" {
			t.Errorf("Unexpected message payload on %s: %v", client.username, event)
		}
	}
	expectNoEvents(t, c)
}

// TestMessageDefaultsToGeneralRoom verifies that a chat message naming no
// room is delivered to the General room.
func TestMessageDefaultsToGeneralRoom(t *testing.T) {
	SetConfig(nil)
	h := NewHub()
	a := newTestClient("conn-a", "alice")
	registerTestClient(t, h, a)
	h.rooms.Join(a.id, "alice", "General")
	drainEvents(t, a)

	dispatchJSON(t, h, a, InboundEvent{Event: EventMessage, Msg: "hello"})

	event := nextEvent(t, a)
	if event["room"] != "General" {
		t.Errorf("room = %v, want General", event["room"])
	}
}

// TestEmptyMessageDropped verifies that empty and whitespace-only chat text
// produces zero outbound events.
func TestEmptyMessageDropped(t *testing.T) {
	SetConfig(nil)
	h := NewHub()
	a := newTestClient("conn-a", "alice")
	registerTestClient(t, h, a)
	h.rooms.Join(a.id, "alice", "General")
	drainEvents(t, a)

	for _, msg := range []string{"", "   ", "\t\n"} {
		dispatchJSON(t, h, a, InboundEvent{Event: EventMessage, Room: "General", Msg: msg})
		expectNoEvents(t, a)
	}
}

// TestInvalidRoomMessageDropped verifies that a chat message for an
// unconfigured room is silently dropped.
func TestInvalidRoomMessageDropped(t *testing.T) {
	SetConfig(nil)
	h := NewHub()
	a := newTestClient("conn-a", "alice")
	registerTestClient(t, h, a)
	drainEvents(t, a)

	dispatchJSON(t, h, a, InboundEvent{Event: EventMessage, Room: "The Void", Msg: "anyone here?"})
	expectNoEvents(t, a)
}

// TestPrivateMessageDelivery verifies private delivery reaches exactly the
// target connection and never leaks into a room broadcast.
func TestPrivateMessageDelivery(t *testing.T) {
	SetConfig(nil)
	h := NewHub()
	a := newTestClient("conn-a", "alice")
	b := newTestClient("conn-b", "bob")
	c := newTestClient("conn-c", "carol")
	for _, client := range []*Client{a, b, c} {
		registerTestClient(t, h, client)
	}
	h.rooms.Join(b.id, "bob", "General")
	h.rooms.Join(c.id, "carol", "General")
	for _, client := range []*Client{a, b, c} {
		drainEvents(t, client)
	}

	dispatchJSON(t, h, a, InboundEvent{Event: EventMessage, Type: MessageTypePrivate, TargetUser: "bob", Msg: "psst"})

	event := nextEvent(t, b)
	if event["event"] != EventPrivateMessage {
		t.Fatalf("Expected private_message, got %v", event["event"])
	}
	if event["from"] != "alice" || event["to"] != "bob" || event["msg"] != "psst" {
		t.Errorf("Unexpected private payload: %v", event)
	}
	expectNoEvents(t, a)
	expectNoEvents(t, c)
}

// TestPrivateMessageFirstUsernameMatchWins pins the duplicate-username
// ambiguity: delivery goes to the earliest-registered connection with the
// target username and to no one else.
func TestPrivateMessageFirstUsernameMatchWins(t *testing.T) {
	SetConfig(nil)
	h := NewHub()
	a := newTestClient("conn-a", "alice")
	bob1 := newTestClient("conn-b1", "bob")
	bob2 := newTestClient("conn-b2", "bob")
	for _, client := range []*Client{a, bob1, bob2} {
		registerTestClient(t, h, client)
	}
	for _, client := range []*Client{a, bob1, bob2} {
		drainEvents(t, client)
	}

	dispatchJSON(t, h, a, InboundEvent{Event: EventMessage, Type: MessageTypePrivate, TargetUser: "bob", Msg: "which bob?"})

	event := nextEvent(t, bob1)
	if event["event"] != EventPrivateMessage {
		t.Fatalf("Expected private_message on first bob, got %v", event["event"])
	}
	expectNoEvents(t, bob2)
}

// TestPrivateMessageUnknownOrMissingTargetDropped verifies silent drops when
// the target is absent or unmatched.
func TestPrivateMessageUnknownOrMissingTargetDropped(t *testing.T) {
	SetConfig(nil)
	h := NewHub()
	a := newTestClient("conn-a", "alice")
	registerTestClient(t, h, a)
	drainEvents(t, a)

	dispatchJSON(t, h, a, InboundEvent{Event: EventMessage, Type: MessageTypePrivate, Msg: "to nobody"})
	dispatchJSON(t, h, a, InboundEvent{Event: EventMessage, Type: MessageTypePrivate, TargetUser: "nobody", Msg: "hello?"})
	expectNoEvents(t, a)
}

// TestJoinEventWithoutRoomDropped verifies a join frame missing its room is
// treated as malformed and dropped.
func TestJoinEventWithoutRoomDropped(t *testing.T) {
	SetConfig(nil)
	h := NewHub()
	a := newTestClient("conn-a", "alice")
	registerTestClient(t, h, a)
	drainEvents(t, a)

	dispatchJSON(t, h, a, InboundEvent{Event: EventJoin, Username: "alice"})

	if a.room != "" {
		t.Errorf("room = %q, want empty", a.room)
	}
	expectNoEvents(t, a)
}

// TestMalformedAndUnknownEventsDropped verifies that invalid JSON and
// unrecognized event kinds are contained: logged, dropped, no panic, no
// outbound events.
func TestMalformedAndUnknownEventsDropped(t *testing.T) {
	SetConfig(nil)
	h := NewHub()
	a := newTestClient("conn-a", "alice")
	registerTestClient(t, h, a)
	drainEvents(t, a)

	h.router.Dispatch(a, []byte("{this is not json"))
	h.router.Dispatch(a, nil)
	dispatchJSON(t, h, a, InboundEvent{Event: "teleport", Room: "General"})

	expectNoEvents(t, a)
}

// TestDisconnectEmitsNoLeaveStatus pins the documented asymmetry: removing a
// connection updates presence but never synthesizes a leave status event;
// only an explicit leave does.
func TestDisconnectEmitsNoLeaveStatus(t *testing.T) {
	SetConfig(nil)
	h := NewHub()
	a := newTestClient("conn-a", "alice")
	b := newTestClient("conn-b", "bob")
	registerTestClient(t, h, a)
	registerTestClient(t, h, b)
	h.rooms.Join(a.id, "alice", "General")
	h.rooms.Join(b.id, "bob", "General")
	drainEvents(t, a)
	drainEvents(t, b)

	if _, err := h.registry.Unregister(a.id); err != nil {
		t.Fatalf("Unregister failed: %v", err)
	}

	events := drainEvents(t, b)
	if statuses := eventsOfKind(events, EventStatus); len(statuses) != 0 {
		t.Errorf("Disconnect must not emit status events, got %v", statuses)
	}
	presence := eventsOfKind(events, EventActiveUsers)
	if len(presence) != 1 {
		t.Fatalf("Expected exactly one active_users event, got %d", len(presence))
	}
	if users := usersFromEvent(t, presence[0]); len(users) != 1 || users[0] != "bob" {
		t.Errorf("users = %v, want [bob]", users)
	}
	if _, ok := h.registry.Get(a.id); ok {
		t.Error("Registry still contains the disconnected connection")
	}
}
