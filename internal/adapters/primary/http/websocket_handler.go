package http

import (
	"log/slog"
	"net/http"
	"net/url"

	"github.com/gorilla/websocket"

	wsAdapter "github.com/lorrc/helpdesk-metrics-backend/internal/adapters/primary/websocket"
)

// WebSocketHandler upgrades connections for the report progress stream.
type WebSocketHandler struct {
	hub      *wsAdapter.Hub
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// WebSocketConfig holds configuration for the WebSocket handler
type WebSocketConfig struct {
	AllowedOrigins []string
	IsDevelopment  bool
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(hub *wsAdapter.Hub, cfg WebSocketConfig, logger *slog.Logger) *WebSocketHandler {
	handler := &WebSocketHandler{
		hub:    hub,
		logger: logger.With("handler", "websocket"),
	}
	handler.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     handler.makeOriginChecker(cfg),
	}
	return handler
}

// makeOriginChecker creates an origin checking function based on configuration
func (h *WebSocketHandler) makeOriginChecker(cfg WebSocketConfig) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")

		// In development mode, allow all origins.
		if cfg.IsDevelopment {
			return true
		}

		// No origin header (same-origin request or non-browser client).
		if origin == "" {
			return true
		}

		parsed, err := url.Parse(origin)
		if err != nil {
			h.logger.Warn("failed to parse websocket origin", "origin", origin)
			return false
		}
		for _, allowed := range cfg.AllowedOrigins {
			if allowedURL, err := url.Parse(allowed); err == nil &&
				parsed.Scheme == allowedURL.Scheme && parsed.Host == allowedURL.Host {
				return true
			}
		}
		return false
	}
}

// HandleProgress upgrades the connection and streams report progress events
// until the peer disconnects.
func (h *WebSocketHandler) HandleProgress(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	client := wsAdapter.NewClient(h.hub, conn, h.logger)
	h.hub.Register <- client

	go client.WritePump()
	go client.ReadPump()
}
