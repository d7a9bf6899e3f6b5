// Package websocket pushes live dashboard events to connected staff clients.
package websocket

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Event types
const (
	EventSessionCreated         = "session.created"
	EventSessionConfirmed       = "session.confirmed"
	EventUsageReported          = "classroom.usage_reported"
	EventUsageEnded             = "classroom.usage_ended"
	EventPasswordRequestCreated = "password_request.created"
)

// Event is a message pushed to dashboard clients
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
	// TeacherID scopes an event to one teacher. Teachers only receive events carrying their own id.
	TeacherID string    `json:"teacherId,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Hub maintains the set of active clients and broadcasts events to them
type Hub struct {
	clients map[*Client]bool

	broadcast  chan *Event
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	// guards count for readers outside the Run goroutine
	mu    sync.RWMutex
	count int

	logger zerolog.Logger
}

// NewHub creates a new Hub instance
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan *Event, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run owns the client set until ctx is cancelled
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			for client := range h.clients {
				h.remove(client)
			}
			return

		case client := <-h.register:
			h.clients[client] = true
			h.setCount(len(h.clients))
			h.logger.Info().
				Str("userID", client.userID).
				Bool("ownEventsOnly", client.ownEventsOnly).
				Msg("Event client registered")

		case client := <-h.unregister:
			if h.clients[client] {
				h.remove(client)
				h.logger.Info().Str("userID", client.userID).Msg("Event client unregistered")
			}

		case event := <-h.broadcast:
			h.deliver(event)
		}
	}
}

func (h *Hub) join(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) leave(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Publish queues an event for broadcast without blocking the caller
func (h *Hub) Publish(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	select {
	case h.broadcast <- &event:
	default:
		h.logger.Warn().Str("type", event.Type).Msg("Event queue full, dropping event")
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.count
}

func (h *Hub) setCount(n int) {
	h.mu.Lock()
	h.count = n
	h.mu.Unlock()
}

func (h *Hub) remove(client *Client) {
	delete(h.clients, client)
	close(client.send)
	h.setCount(len(h.clients))
}

// deliver fans an event out to every client allowed to see it
func (h *Hub) deliver(event *Event) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error().Err(err).Str("type", event.Type).Msg("Failed to marshal event")
		return
	}

	sent := 0
	for client := range h.clients {
		if !client.accepts(event) {
			continue
		}
		select {
		case client.send <- data:
			sent++
		default:
			// slow consumer
			h.logger.Warn().Str("userID", client.userID).Msg("Dropping slow event client")
			h.remove(client)
		}
	}

	h.logger.Debug().Str("type", event.Type).Int("clientCount", sent).Msg("Event broadcast")
}
