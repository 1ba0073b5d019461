package http

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"dropoutlens/internal/config"
	"dropoutlens/internal/infrastructure"
	ws "dropoutlens/internal/websocket"
)

// WebSocketHandler upgrades slider connections and hands them to the hub
type WebSocketHandler struct {
	hub      *ws.Hub
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

// NewWebSocketHandler creates a websocket handler. Origins are checked
// against the CORS allow list; an empty list or "*" allows any origin.
func NewWebSocketHandler(hub *ws.Hub, wsCfg config.WebSocketConfig, allowedOrigins []string, logger *slog.Logger) *WebSocketHandler {
	h := &WebSocketHandler{
		hub:    hub,
		logger: logger.With(slog.String("handler", "websocket")),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  wsCfg.ReadBufferSize,
		WriteBufferSize: wsCfg.WriteBufferSize,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return h
}

// ServeHTTP handles GET /ws/clusters
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error response
		h.logger.WarnContext(r.Context(), "websocket upgrade failed",
			slog.String("error", err.Error()),
			slog.String("origin", r.Header.Get("Origin")))
		return
	}

	ctx, traceID := infrastructure.EnsureTraceID(r.Context())
	client := h.hub.Serve(conn, traceID)
	h.logger.InfoContext(ctx, "websocket session opened",
		slog.String("client_id", client.ID()),
		slog.String("remote_addr", r.RemoteAddr))
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || len(allowed) == 0 {
			return true
		}
		for _, o := range allowed {
			if o == "*" || strings.EqualFold(o, origin) {
				return true
			}
		}
		return false
	}
}
