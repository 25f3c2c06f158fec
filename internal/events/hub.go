package events

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
)

// wsMessage is the envelope written to websocket clients.
type wsMessage struct {
	ID      string         `json:"id"`
	Type    string         `json:"type"`
	Payload LifecycleEvent `json:"payload"`
}

// Hub maintains the set of connected dashboard clients and broadcasts
// lifecycle events to all of them. It implements Sink, so it plugs straight
// into the Dispatcher.
type Hub struct {
	clients map[*Client]bool

	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte

	mu sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 256),
	}
}

// Run starts the hub's main loop. Call as a goroutine: go hub.Run()
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Client's send buffer is full, close and drop it
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Publish implements Sink: marshal once, broadcast to every connected client.
func (h *Hub) Publish(_ context.Context, event LifecycleEvent) error {
	message, err := json.Marshal(wsMessage{
		ID:      uuid.NewString(),
		Type:    event.TriggerType,
		Payload: event,
	})
	if err != nil {
		return err
	}
	h.broadcast <- message
	return nil
}
