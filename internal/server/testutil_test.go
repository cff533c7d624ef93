package server

import (
	"encoding/json"
	"testing"
	"time"
)

// newTestClient builds a client with a known id and no transport, suitable
// for exercising registry, room, and routing logic directly.
func newTestClient(id, username string) *Client {
	return &Client{
		id:          id,
		username:    username,
		connectedAt: time.Now(),
		send:        make(chan []byte, 16),
	}
}

// registerTestClient registers the client and fails the test on error.
func registerTestClient(t *testing.T, h *Hub, client *Client) {
	t.Helper()
	if err := h.registry.Register(client); err != nil {
		t.Fatalf("Failed to register client %s: %v", client.id, err)
	}
}

// drainEvents empties the client's send buffer and returns the decoded events.
func drainEvents(t *testing.T, client *Client) []map[string]interface{} {
	t.Helper()
	var events []map[string]interface{}
	for {
		select {
		case payload := <-client.send:
			var event map[string]interface{}
			if err := json.Unmarshal(payload, &event); err != nil {
				t.Fatalf("Failed to decode event %q: %v", payload, err)
			}
			events = append(events, event)
		default:
			return events
		}
	}
}

// nextEvent pops one decoded event from the client's send buffer.
func nextEvent(t *testing.T, client *Client) map[string]interface{} {
	t.Helper()
	select {
	case payload := <-client.send:
		var event map[string]interface{}
		if err := json.Unmarshal(payload, &event); err != nil {
			t.Fatalf("Failed to decode event %q: %v", payload, err)
		}
		return event
	default:
		t.Fatal("Expected a pending event but the send buffer is empty")
		return nil
	}
}

// expectNoEvents fails the test if the client has anything in its send buffer.
func expectNoEvents(t *testing.T, client *Client) {
	t.Helper()
	select {
	case payload := <-client.send:
		t.Fatalf("Expected no pending events, got %q", payload)
	default:
	}
}

// eventsOfKind filters decoded events by their "event" discriminator.
func eventsOfKind(events []map[string]interface{}, kind string) []map[string]interface{} {
	var matched []map[string]interface{}
	for _, event := range events {
		if event["event"] == kind {
			matched = append(matched, event)
		}
	}
	return matched
}
