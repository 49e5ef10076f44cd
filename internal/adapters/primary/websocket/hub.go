package websocket

import (
	"log/slog"
	"sync"

	"github.com/lorrc/helpdesk-metrics-backend/internal/core/domain"
	"github.com/lorrc/helpdesk-metrics-backend/internal/core/ports"
)

// Hub maintains the set of connected clients and fans report progress
// events out to them. Every client receives every event; filtering by run
// id is the consumer's concern since at most one report runs at a time in
// practice.
type Hub struct {
	clients map[*Client]bool

	broadcast chan domain.ProgressEvent

	// Register requests from clients
	Register chan *Client

	// Unregister requests from clients
	Unregister chan *Client

	mu     sync.RWMutex
	logger *slog.Logger
}

// Ensure Hub implements the ProgressSink interface.
var _ ports.ProgressSink = (*Hub)(nil)

// NewHub creates a new WebSocket hub
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan domain.ProgressEvent, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		logger:     logger.With("component", "websocket_hub"),
	}
}

// ReportProgress queues a progress event for broadcast. Events are dropped
// rather than blocking the report pipeline when the channel is full.
func (h *Hub) ReportProgress(event domain.ProgressEvent) {
	select {
	case h.broadcast <- event:
	default:
		h.logger.Warn("broadcast channel full, dropping progress event",
			"run_id", event.RunID,
			"stage", event.Stage,
		)
	}
}

// Run starts the hub's event loop. This MUST be run as a goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.registerClient(client)

		case client := <-h.Unregister:
			h.unregisterClient(client)

		case event := <-h.broadcast:
			h.broadcastEvent(event)
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client] = true
	h.logger.Info("client registered", "total_connections", len(h.clients))
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	client.CloseSend()

	h.logger.Info("client unregistered", "total_connections", len(h.clients))
}

// broadcastEvent sends an event to every connected client.
func (h *Hub) broadcastEvent(event domain.ProgressEvent) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	for _, client := range clients {
		select {
		case client.Send <- event:
		default:
			// Client's send buffer is full, drop them. Direct call, not a
			// send to Unregister: the Run loop is the one executing here.
			h.logger.Warn("client send buffer full, unregistering")
			h.unregisterClient(client)
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
