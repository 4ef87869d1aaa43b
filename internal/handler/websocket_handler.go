package handler

import (
	"context"
	"strings"

	"intelliprep-notes-be/internal/auth"
	"intelliprep-notes-be/internal/pkg/logger"
	internalWS "intelliprep-notes-be/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

type WebsocketHandler struct {
	hub     *internalWS.Hub
	secret  []byte
	manager *auth.Manager
	logger  logger.ILogger
}

func NewWebsocketHandler(hub *internalWS.Hub, secret []byte, manager *auth.Manager, log logger.ILogger) *WebsocketHandler {
	return &WebsocketHandler{
		hub:     hub,
		secret:  secret,
		manager: manager,
		logger:  log,
	}
}

// ServeWs authenticates the handshake and hands the connection to the hub.
func (h *WebsocketHandler) ServeWs(c *fiber.Ctx) error {
	// Query param first (browsers cannot set headers on upgrade), then the header.
	tokenStr := c.Query("token")
	if tokenStr == "" {
		authHeader := c.Get("Authorization")
		if strings.HasPrefix(authHeader, "Bearer ") {
			tokenStr = strings.TrimPrefix(authHeader, "Bearer ")
		}
	}

	if tokenStr == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Missing token (Query 'token' or Header 'Authorization')"})
	}

	userId, err := auth.GetUserIDFromToken(tokenStr, h.secret)
	if err != nil {
		h.logger.Warn("WebsocketHandler", "Invalid token in WS handshake", map[string]interface{}{"error": err.Error()})
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
	}

	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}

	if h.manager != nil {
		h.manager.SignIn(userId)
	}

	return websocket.New(func(conn *websocket.Conn) {
		h.logger.Info("WebsocketHandler", "Starting WebSocket session", map[string]interface{}{"user_id": userId})
		// The fiber ctx is recycled once the connection is hijacked.
		internalWS.ServeWs(context.Background(), h.hub, conn, userId)
		h.logger.Info("WebsocketHandler", "WebSocket session ended", map[string]interface{}{"user_id": userId})
	})(c)
}

func (h *WebsocketHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/ws", h.ServeWs)
}
