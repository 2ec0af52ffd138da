package sse

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/portfoliofuturo/portfolio-api/internal/models"
	"github.com/portfoliofuturo/portfolio-api/pkg/dto"
)

// Client receives the auth events of one identity. A zero SessionID
// receives events for every session of that identity.
type Client struct {
	ID         string
	IdentityID uuid.UUID
	SessionID  uuid.UUID
	Send       chan dto.AuthEvent
}

func (c *Client) wants(ev models.AuthEvent) bool {
	if c.IdentityID != ev.IdentityID {
		return false
	}
	return ev.SessionID == uuid.Nil || c.SessionID == uuid.Nil || c.SessionID == ev.SessionID
}

type Hub struct {
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	broadcast  chan models.AuthEvent
	done       chan struct{}
	mu         sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan models.AuthEvent, 256),
		done:       make(chan struct{}),
	}
}

// Run dispatches until ctx is cancelled, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	defer h.shutdown()

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.ID]; ok {
				delete(h.clients, client.ID)
				close(client.Send)
			}
			h.mu.Unlock()

		case ev := <-h.broadcast:
			h.mu.RLock()
			payload := ev.ToResponse()
			for _, client := range h.clients {
				if !client.wants(ev) {
					continue
				}
				select {
				case client.Send <- payload:
				default:
					// slow consumer, drop
				}
			}
			h.mu.RUnlock()
		}
	}
}

func (h *Hub) shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, client := range h.clients {
		delete(h.clients, id)
		close(client.Send)
	}
	close(h.done)
}

func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
		close(client.Send)
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) Publish(ev models.AuthEvent) {
	select {
	case h.broadcast <- ev:
	case <-h.done:
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
