// Package events fans view updates out to server-sent event streams.
package events

import (
	"context"
	"sync"

	"github.com/apex/log"
	"github.com/google/uuid"
)

// Event is one named update pushed to every stream.
type Event struct {
	Name string `json:"name"`
	Data any    `json:"data"`
}

// Client is one connected stream.
type Client struct {
	ID     uuid.UUID
	Events chan Event
}

// Hub tracks the connected streams.
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan Event
	done       chan struct{}
	mu         sync.RWMutex
}

// NewHub returns a hub. Run must be running for streams to receive events.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan Event, 256),
		done:       make(chan struct{}),
	}
}

// Run serves registrations and broadcasts until ctx is done.
func (h *Hub) Run(ctx context.Context) error {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				close(client.Events)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			return nil

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mu.Unlock()
			log.WithFields(log.Fields{"client": client.ID, "total": total}).Debug("sse: client registered")

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Events)
			}
			h.mu.Unlock()
			log.WithField("client", client.ID).Debug("sse: client unregistered")

		case ev := <-h.broadcast:
			h.mu.RLock()
			for client := range h.clients {
				select {
				case client.Events <- ev:
				default:
					// slow client, drop
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Register adds a stream. It returns nil once the hub has stopped.
func (h *Hub) Register() *Client {
	client := &Client{ID: uuid.New(), Events: make(chan Event, 32)}
	select {
	case h.register <- client:
		return client
	case <-h.done:
		return nil
	}
}

// Unregister removes a stream and closes its channel.
func (h *Hub) Unregister(client *Client) {
	if client == nil {
		return
	}
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Publish queues ev for every stream without blocking the caller.
func (h *Hub) Publish(name string, data any) {
	select {
	case h.broadcast <- Event{Name: name, Data: data}:
	default:
		log.WithField("event", name).Warn("sse: broadcast queue full, dropping event")
	}
}

// Clients is the number of connected streams.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
