// Package server coordinates connection lifecycle, event routing, and fan-out
// delivery for the chat system via the Hub type.
package server

import (
	"context"
	"log"
	"sync"
	"time"
)

// Hub owns the connection registry and wires the room manager, presence
// broadcaster, and router around it. Lifecycle transitions flow through the
// register/unregister channels; delivery fans out synchronously from the
// routing step through safe, non-blocking sends.
type Hub struct {
	registry   *Registry
	rooms      *RoomManager
	presence   *PresenceBroadcaster
	router     *Router
	register   chan *Client
	unregister chan *Client
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
	done       chan struct{}
}

// NewHub creates a Hub with its registry, room manager, presence broadcaster,
// and router fully wired. The returned Hub is ready to manage connections
// once Run is started.
func NewHub() *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	h := &Hub{
		registry:   NewRegistry(),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		ctx:        ctx,
		cancel:     cancel,
		done:       make(chan struct{}),
	}
	h.rooms = NewRoomManager(h.registry, h)
	h.presence = NewPresenceBroadcaster(h)
	h.router = NewRouter(h.registry, h.rooms, h)
	h.registry.onChange = h.presence.Announce
	return h
}

// Registry returns the hub's connection registry.
func (h *Hub) Registry() *Registry {
	return h.registry
}

// Rooms returns the hub's room manager.
func (h *Hub) Rooms() *RoomManager {
	return h.rooms
}

// Router returns the hub's event router.
func (h *Hub) Router() *Router {
	return h.router
}

// GetRegisterChan returns the channel used for registering new clients.
// This channel is write-only from the caller's perspective.
func (h *Hub) GetRegisterChan() chan<- *Client {
	return h.register
}

// GetUnregisterChan returns the channel used for unregistering clients.
// This channel is write-only from the caller's perspective.
func (h *Hub) GetUnregisterChan() chan<- *Client {
	return h.unregister
}

// trySend delivers a payload to one client's send buffer without blocking.
// The registry lock is held for the whole attempt so the membership check and
// the channel send cannot race with unregistration.
func (h *Hub) trySend(client *Client, payload []byte) bool {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Recovered from panic in trySend: %v", r)
		}
	}()

	h.registry.mu.RLock()
	defer h.registry.mu.RUnlock()

	current, exists := h.registry.conns[client.id]
	if !exists || current != client || client.closed {
		return false
	}

	select {
	case client.send <- payload:
		return true
	default:
		return false
	}
}

// sendToClients fans a payload out to the given clients and prunes any whose
// send buffer is unavailable, so a slow consumer cannot stall delivery for
// everyone else.
func (h *Hub) sendToClients(clients []*Client, payload []byte) {
	var failed []*Client
	for _, client := range clients {
		if !h.trySend(client, payload) {
			failed = append(failed, client)
		}
	}
	h.removeFailedClients(failed)
}

// removeFailedClients unregisters clients that failed to receive a delivery
// and closes their send channels.
func (h *Hub) removeFailedClients(failed []*Client) {
	for _, client := range failed {
		removed, err := h.registry.Unregister(client.id)
		if err != nil {
			continue
		}
		close(removed.send)
		log.Printf("Client %s (%s) removed due to full send buffer", removed.username, removed.addr)
	}
}

// Run starts the hub's main event loop, handling client registration and
// unregistration. This method should be called in a separate goroutine as it
// runs until Shutdown.
func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case <-h.ctx.Done():
			h.shutdownClients()
			return

		case client := <-h.register:
			if client == nil {
				log.Printf("Received nil client registration; skipping")
				continue
			}
			h.registerClient(client)

		case client := <-h.unregister:
			if client == nil {
				continue
			}
			removed, err := h.registry.Unregister(client.id)
			if err != nil {
				// Already gone; disconnect is idempotent.
				continue
			}
			close(removed.send)
			log.Printf("Client %s (%s) disconnected. Total clients: %d", removed.username, removed.addr, h.registry.Len())
		}
	}
}

// registerClient adds the client to the registry and starts its pumps. A
// duplicate id fails only this connection attempt.
func (h *Hub) registerClient(client *Client) {
	if err := h.registry.Register(client); err != nil {
		log.Printf("Rejecting connection from %s: %v", client.addr, err)
		if client.conn != nil {
			_ = client.conn.Close()
		}
		return
	}
	log.Printf("Client %s (%s) connected. Total clients: %d", client.username, client.addr, h.registry.Len())

	h.wg.Add(2)
	go func() {
		defer h.wg.Done()
		client.writePump()
	}()
	go func() {
		defer h.wg.Done()
		client.readPump()
	}()
}

// shutdownClients gracefully closes all active client connections.
func (h *Hub) shutdownClients() {
	log.Println("Shutting down all client connections...")

	clients := h.registry.All()
	for _, client := range clients {
		if client.conn != nil {
			if err := client.conn.Close(); err != nil {
				if !isExpectedCloseError(err) {
					log.Printf("Error closing client connection from %s: %v", client.addr, err)
				}
			}
		}
	}

	log.Printf("Closed %d client connections", len(clients))
}

// Shutdown initiates graceful shutdown of the hub and waits for all goroutines
// to complete. It returns after all client connections are closed and
// goroutines have finished, or when the timeout is reached.
func (h *Hub) Shutdown(timeout time.Duration) error {
	log.Println("Initiating hub shutdown...")

	h.cancel()
	<-h.done

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Println("Hub shutdown completed successfully")
		return nil
	case <-time.After(timeout):
		log.Println("Hub shutdown timeout reached, some goroutines may still be running")
		return context.DeadlineExceeded
	}
}

var hub = NewHub()
