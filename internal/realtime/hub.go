package realtime

import (
	"encoding/json"
	"sync"

	"github.com/openwarehouse/WareFleetCore/internal/telemetry"
	"go.uber.org/zap"
)

// TokenValidator authenticates a subscriber's first frame.
type TokenValidator interface {
	ValidateToken(token string) error
}

// Hub is the single process-wide fan-out channel. Every ingested telemetry
// event is relayed to all currently-connected subscribers, best effort:
// subscribers that are slow or gone simply miss events. No buffering beyond
// the per-client send queue, no replay for late joiners.
type Hub struct {
	// Registered clients
	clients map[*Client]bool

	// Inbound messages to broadcast
	broadcast chan Message

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	mu sync.RWMutex

	logger *zap.Logger

	tokens TokenValidator
}

// NewHub creates a new Hub instance
func NewHub(logger *zap.Logger, tokens TokenValidator) *Hub {
	return &Hub{
		broadcast:  make(chan Message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
		logger:     logger,
		tokens:     tokens,
	}
}

// Run starts the hub's main event loop
func (h *Hub) Run() {
	h.logger.Info("Realtime hub started")
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.logger.Info("Live subscriber registered",
				zap.String("remote_addr", client.remoteAddr),
				zap.Int("total_clients", len(h.clients)))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.logger.Info("Live subscriber unregistered",
					zap.String("remote_addr", client.remoteAddr),
					zap.Int("total_clients", len(h.clients)))
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.mu.Lock()
			data, err := json.Marshal(message)
			if err != nil {
				h.logger.Error("Failed to marshal broadcast message",
					zap.Error(err))
				h.mu.Unlock()
				continue
			}

			for client := range h.clients {
				select {
				case client.send <- data:
					// Message sent successfully
				default:
					// Client send channel full - unregister slow/dead client
					close(client.send)
					delete(h.clients, client)
					h.logger.Warn("Subscriber send buffer full, unregistering",
						zap.String("remote_addr", client.remoteAddr))
				}
			}
			h.mu.Unlock()
		}
	}
}

// Broadcast queues a message for delivery to all connected subscribers.
// Drops the message when the hub itself is saturated.
func (h *Hub) Broadcast(msg Message) {
	select {
	case h.broadcast <- msg:
		// Message queued for broadcast
	default:
		h.logger.Warn("Hub broadcast channel full, message dropped",
			zap.String("message_type", string(msg.Type)))
	}
}

// BroadcastTelemetry relays one raw ingested event to live subscribers.
func (h *Hub) BroadcastTelemetry(ev telemetry.Event) {
	h.Broadcast(NewTelemetryMessage(ev))
}

// SubscriberCount returns the number of connected subscribers
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
