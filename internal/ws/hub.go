package ws

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"pallet-board-backend/internal/coordinator"
)

// Hub maintains the set of connected boards and broadcasts events to them.
type Hub struct {
	clients map[string]*Client

	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	done       chan struct{}

	mu sync.RWMutex
}

// NewHub creates a new Hub instance.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 64),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's main loop. It closes every client when ctx is done.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			h.mu.Unlock()
			log.Printf("Board client connected: %s", client.ID)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.ID]; ok {
				delete(h.clients, client.ID)
				close(client.send)
				log.Printf("Board client disconnected: %s", client.ID)
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.mu.Lock()
			for id, client := range h.clients {
				select {
				case client.send <- message:
				default:
					// slow reader
					delete(h.clients, id)
					close(client.send)
				}
			}
			h.mu.Unlock()

		case <-ctx.Done():
			h.mu.Lock()
			for id, client := range h.clients {
				delete(h.clients, id)
				close(client.send)
			}
			h.mu.Unlock()
			return
		}
	}
}

// Broadcast queues v for every connected client. It drops the message
// when the hub is saturated.
func (h *Hub) Broadcast(v any) bool {
	msg, err := json.Marshal(v)
	if err != nil {
		log.Printf("Error marshaling broadcast: %v", err)
		return false
	}
	select {
	case h.broadcast <- msg:
		return true
	default:
		log.Println("Broadcast queue full, dropping message")
		return false
	}
}

// Listener returns a coordinator listener forwarding every event.
func (h *Hub) Listener() coordinator.Listener {
	return func(e coordinator.Event) { h.Broadcast(e) }
}

// Len returns the number of connected clients.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
