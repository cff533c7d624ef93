// Package server derives the global online view through the
// PresenceBroadcaster type.
package server

import (
	"encoding/json"
	"log"
)

// PresenceBroadcaster emits the "who is online" view to every registered
// connection. Presence is global: the username list covers all connections
// regardless of room membership, in connection order. The registry invokes
// Announce after every successful register and unregister.
type PresenceBroadcaster struct {
	hub *Hub
}

// NewPresenceBroadcaster creates a presence broadcaster that fans out through
// the given hub.
func NewPresenceBroadcaster(hub *Hub) *PresenceBroadcaster {
	return &PresenceBroadcaster{hub: hub}
}

// Announce sends an active_users event carrying the usernames of the given
// registry snapshot to every connection in that snapshot.
func (p *PresenceBroadcaster) Announce(snapshot []*Client) {
	users := make([]string, 0, len(snapshot))
	for _, client := range snapshot {
		users = append(users, client.username)
	}

	payload, err := json.Marshal(ActiveUsersEvent{
		Event: EventActiveUsers,
		Users: users,
	})
	if err != nil {
		log.Printf("Error encoding active users event: %v", err)
		return
	}

	p.hub.sendToClients(snapshot, payload)
}
