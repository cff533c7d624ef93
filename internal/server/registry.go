// Package server tracks connection presence through the Registry type, the
// single owner of the id-to-connection map shared by rooms, routing, and
// presence broadcasting.
package server

import "sync"

// Registry is the authoritative mapping from connection id to live client.
// All presence state, including each client's current room, is guarded by a
// single read/write mutex; compound read-modify-write operations such as
// JoinRoom and LeaveRoom run under one lock acquisition. Connection order is
// preserved for the active-users payload.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]*Client
	order []string

	// onChange, when set, is invoked with the post-mutation snapshot after
	// every successful Register and Unregister.
	onChange func(snapshot []*Client)
}

// NewRegistry creates an empty connection registry.
func NewRegistry() *Registry {
	return &Registry{
		conns: make(map[string]*Client),
	}
}

// Register adds a client to the registry with no room set. It returns
// ErrDuplicateConnection if the id is already present, which the transport's
// id assignment should make unreachable.
func (r *Registry) Register(client *Client) error {
	r.mu.Lock()
	if _, exists := r.conns[client.id]; exists {
		r.mu.Unlock()
		return ErrDuplicateConnection
	}
	client.closed = false
	client.room = ""
	r.conns[client.id] = client
	r.order = append(r.order, client.id)
	snapshot := r.snapshotLocked()
	r.mu.Unlock()

	r.notify(snapshot)
	return nil
}

// Unregister removes and returns the client with the given id. It returns
// ErrNotFound if the id is absent; callers treat that as a no-op so that
// disconnect stays idempotent at the registry boundary.
func (r *Registry) Unregister(id string) (*Client, error) {
	r.mu.Lock()
	client, ok := r.conns[id]
	if !ok {
		r.mu.Unlock()
		return nil, ErrNotFound
	}
	delete(r.conns, id)
	for i, ordered := range r.order {
		if ordered == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	client.closed = true
	snapshot := r.snapshotLocked()
	r.mu.Unlock()

	r.notify(snapshot)
	return client, nil
}

// Get returns the client registered under the given id.
func (r *Registry) Get(id string) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	client, ok := r.conns[id]
	return client, ok
}

// All returns a snapshot of every registered client in connection order.
func (r *Registry) All() []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.snapshotLocked()
}

// Len returns the number of registered clients.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.conns)
}

// SetRoom mutates the room field of the client registered under id. An empty
// room clears membership. It returns ErrNotFound if the id is unknown.
func (r *Registry) SetRoom(id, room string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	client, ok := r.conns[id]
	if !ok {
		return ErrNotFound
	}
	client.room = room
	return nil
}

// JoinRoom sets the client's room and returns the members of that room as
// observed immediately after the transition, all under one lock acquisition.
func (r *Registry) JoinRoom(id, room string) ([]*Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	client, ok := r.conns[id]
	if !ok {
		return nil, ErrNotFound
	}
	client.room = room
	return r.membersLocked(room), nil
}

// LeaveRoom clears the client's room field and returns the members of the
// named room as observed immediately before the field was cleared. When the
// id is unknown the mutation is skipped but the member snapshot is still
// returned alongside ErrNotFound, so callers can keep emitting the status
// event best-effort.
func (r *Registry) LeaveRoom(id, room string) ([]*Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	members := r.membersLocked(room)
	client, ok := r.conns[id]
	if !ok {
		return members, ErrNotFound
	}
	client.room = ""
	return members, nil
}

// MembersOf returns every client whose room field equals the given name.
func (r *Registry) MembersOf(room string) []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.membersLocked(room)
}

// FindByUsername returns the first client, in connection order, whose
// username matches. Usernames are not guaranteed unique; first match wins.
func (r *Registry) FindByUsername(username string) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, id := range r.order {
		if client, ok := r.conns[id]; ok && client.username == username {
			return client, true
		}
	}
	return nil, false
}

func (r *Registry) snapshotLocked() []*Client {
	snapshot := make([]*Client, 0, len(r.order))
	for _, id := range r.order {
		if client, ok := r.conns[id]; ok {
			snapshot = append(snapshot, client)
		}
	}
	return snapshot
}

func (r *Registry) membersLocked(room string) []*Client {
	if room == "" {
		return nil
	}
	var members []*Client
	for _, id := range r.order {
		if client, ok := r.conns[id]; ok && client.room == room {
			members = append(members, client)
		}
	}
	return members
}

func (r *Registry) notify(snapshot []*Client) {
	if r.onChange != nil {
		r.onChange(snapshot)
	}
}
