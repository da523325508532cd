package websocket

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"

	"finhealth/internal/config"
	"finhealth/internal/infrastructure"
)

// Handler upgrades console page connections and attaches them to the hub
type Handler struct {
	hub            *Hub
	upgrader       websocket.Upgrader
	timing         Timing
	allowedOrigins []string
	logger         *slog.Logger
}

// NewHandler creates the /ws endpoint handler
func NewHandler(hub *Hub, cfg config.WebSocketConfig, allowedOrigins []string, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	h := &Handler{
		hub:            hub,
		timing:         Timing{PingPeriod: cfg.PingPeriod, PongWait: cfg.PongWait},
		allowedOrigins: allowedOrigins,
		logger:         logger.With(slog.String("component", "websocket.handler")),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  cfg.ReadBufferSize,
		WriteBufferSize: cfg.WriteBufferSize,
		CheckOrigin:     h.checkOrigin,
		Error: func(w http.ResponseWriter, r *http.Request, status int, reason error) {
			h.logger.ErrorContext(r.Context(), "WebSocket upgrade error",
				slog.Int("status", status),
				slog.String("reason", reason.Error()),
				slog.String("origin", r.Header.Get("Origin")))
			http.Error(w, http.StatusText(status), status)
		},
	}
	return h
}

// checkOrigin accepts same-origin pages, requests without an Origin header
// and the configured allowed origins
func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	if u, err := url.Parse(origin); err == nil && strings.EqualFold(u.Host, r.Host) {
		return true
	}

	for _, allowed := range h.allowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}

	h.logger.WarnContext(r.Context(), "WebSocket origin check - origin not allowed",
		slog.String("origin", origin),
		slog.Any("allowed_origins", h.allowedOrigins))
	return false
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	traceID := infrastructure.GetTraceID(ctx)

	h.logger.InfoContext(ctx, "WebSocket upgrade request",
		slog.String("remote_addr", r.RemoteAddr),
		slog.String("origin", r.Header.Get("Origin")),
		slog.String("user_agent", r.UserAgent()))

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader already replied
		return
	}

	client := NewClient(h.hub, NewConnection(conn), traceID, h.timing, h.logger)
	if !h.hub.Register(client) {
		h.logger.WarnContext(ctx, "Hub stopped, closing WebSocket")
		conn.Close()
		return
	}

	// The pumps own the connection from here on
	go client.WritePump()
	go client.ReadPump()
}
