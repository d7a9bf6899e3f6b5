package websocket

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// Handler upgrades authenticated requests to event streams
type Handler struct {
	hub         *Hub
	upgrader    websocket.Upgrader
	scopedRoles map[string]bool
	logger      zerolog.Logger
}

// NewHandler creates a new WebSocket handler. An empty allowedOrigins accepts any origin.
// Clients whose role is in scopedRoles only receive events addressed to them.
func NewHandler(hub *Hub, allowedOrigins, scopedRoles []string, logger zerolog.Logger) *Handler {
	scoped := make(map[string]bool, len(scopedRoles))
	for _, role := range scopedRoles {
		scoped[role] = true
	}
	return &Handler{
		hub:         hub,
		scopedRoles: scoped,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		logger: logger,
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || len(allowed) == 0 {
			return true
		}
		for _, a := range allowed {
			if a == "*" || strings.EqualFold(a, origin) {
				return true
			}
		}
		return false
	}
}

// HandleConnection godoc
// @Summary Subscribe to live dashboard events
// @Description Upgrades the connection to a WebSocket that streams session, classroom and account request events. Pass the JWT as the token query parameter.
// @Tags events
// @Security BearerAuth
// @Param token query string false "JWT access token"
// @Success 101 {string} string "Switching Protocols"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Router /ws/events [get]
func (h *Handler) HandleConnection(c *gin.Context) {
	userID := c.GetString("userID")
	role := c.GetString("role")

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error().Err(err).Str("userID", userID).Msg("Failed to upgrade connection to WebSocket")
		return
	}

	client := &Client{
		hub:    h.hub,
		conn:   conn,
		send:   make(chan []byte, sendBufferSize),
		userID:        userID,
		ownEventsOnly: h.scopedRoles[role],
		logger:        h.logger,
	}
	if !h.hub.join(client) {
		_ = conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}
