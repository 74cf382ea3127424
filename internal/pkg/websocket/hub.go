package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/rs/zerolog"

	"github.com/hubtc/portal/internal/pkg/metrics"
)

// Hub maintains the set of connected clients per conversation and delivers events to them
type Hub struct {
	// Registered clients organized by conversation ID
	clients map[int64]map[*Client]bool

	// Events to deliver to local clients
	broadcast chan Event

	// Register requests from the clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Closed when Run returns
	done chan struct{}

	// Guards clients for ClientsCount
	mu sync.RWMutex

	logger zerolog.Logger
}

// NewHub creates a new Hub instance
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		broadcast:  make(chan Event, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[int64]map[*Client]bool),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Run handles registrations and deliveries until ctx is done
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case event := <-h.broadcast:
			h.deliver(event)
		}
	}
}

// Publish delivers the event to the clients connected to this instance
func (h *Hub) Publish(ctx context.Context, event Event) error {
	select {
	case h.broadcast <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-h.done:
		return nil
	}
}

func (h *Hub) add(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) remove(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conversationID := client.conversationID
	if _, ok := h.clients[conversationID]; !ok {
		h.clients[conversationID] = make(map[*Client]bool)
	}
	h.clients[conversationID][client] = true
	metrics.WSClients.Inc()

	h.logger.Info().
		Int64("conversationID", conversationID).
		Int64("userID", client.userID).
		Msg("Client registered")
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(client)
}

// removeLocked requires h.mu held for writing
func (h *Hub) removeLocked(client *Client) {
	conversationID := client.conversationID
	clients, ok := h.clients[conversationID]
	if !ok || !clients[client] {
		return
	}

	delete(clients, client)
	close(client.send)
	metrics.WSClients.Dec()
	if len(clients) == 0 {
		delete(h.clients, conversationID)
	}

	h.logger.Info().
		Int64("conversationID", conversationID).
		Int64("userID", client.userID).
		Msg("Client unregistered")
}

// deliver sends the event to every client of its conversation. Clients whose
// buffer is full are dropped; they reconnect and resync from a snapshot.
func (h *Hub) deliver(event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		h.logger.Error().Err(err).Int64("conversationID", event.ConversationID).Msg("Failed to marshal event")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients[event.ConversationID] {
		select {
		case client.send <- data:
		default:
			h.logger.Warn().
				Int64("conversationID", event.ConversationID).
				Int64("userID", client.userID).
				Msg("Dropping slow websocket client")
			h.removeLocked(client)
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, clients := range h.clients {
		for client := range clients {
			h.removeLocked(client)
		}
	}
}

// ClientsCount returns the number of connected clients for a conversation
func (h *Hub) ClientsCount(conversationID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[conversationID])
}
