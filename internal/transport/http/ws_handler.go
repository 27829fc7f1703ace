package http

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"agronexus/internal/config"
	ws "agronexus/internal/websocket"
)

// WSHandler upgrades dashboard connections onto the hub.
type WSHandler struct {
	hub      *ws.Hub
	upgrader websocket.Upgrader
	timing   ws.Timing
	logger   *slog.Logger
}

// NewWSHandler creates a websocket handler restricted to the allowed origins.
// An empty list allows same-host connections only. Buffer sizes and the
// keepalive schedule come from the websocket config section.
func NewWSHandler(hub *ws.Hub, cfg config.WebSocketConfig, allowedOrigins []string, logger *slog.Logger) *WSHandler {
	if logger == nil {
		logger = slog.Default()
	}

	allowed := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[origin] = true
	}

	readBuffer := cfg.ReadBufferSize
	if readBuffer <= 0 {
		readBuffer = 1024
	}
	writeBuffer := cfg.WriteBufferSize
	if writeBuffer <= 0 {
		writeBuffer = 1024
	}

	return &WSHandler{
		hub: hub,
		timing: ws.Timing{
			PongWait:   cfg.PongWait,
			PingPeriod: cfg.PingPeriod,
		},
		logger: logger.With(slog.String("handler", "websocket")),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  readBuffer,
			WriteBufferSize: writeBuffer,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				if allowed[origin] {
					return true
				}
				// same-host pages are always fine
				return origin == "http://"+r.Host || origin == "https://"+r.Host
			},
		},
	}
}

// ServeHTTP handles GET /ws
func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WarnContext(r.Context(), "websocket upgrade failed",
			slog.String("error", err.Error()),
			slog.String("remote_addr", r.RemoteAddr))
		return
	}
	ws.ServeWS(h.hub, conn, h.timing)
}
