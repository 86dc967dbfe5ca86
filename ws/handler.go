package ws

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"businessconnect_backend/internal/logger"
	"businessconnect_backend/internal/services/dto"
	"businessconnect_backend/pkg/apperrors"
)

// TokenValidator checks the access token passed in the query string, since
// browsers cannot set headers on websocket upgrades.
type TokenValidator interface {
	ValidateAccessToken(ctx context.Context, token string) (*dto.AccessClaims, error)
}

type WebSocketHandler struct {
	Manager   *WebSocketManager
	validator TokenValidator
	upgrader  websocket.Upgrader
}

// NewWebSocketHandler accepts any origin when allowedOrigins is empty or "*".
func NewWebSocketHandler(manager *WebSocketManager, validator TokenValidator, allowedOrigins string) *WebSocketHandler {
	origins := parseOrigins(allowedOrigins)
	return &WebSocketHandler{
		Manager:   manager,
		validator: validator,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if origins == nil {
					return true
				}
				return origins[r.Header.Get("Origin")]
			},
		},
	}
}

// ServeWS godoc
// @Summary Open the notification websocket
// @Tags notifications
// @Param token query string true "Access token"
// @Success 101
// @Failure 401 {object} apperrors.ErrorResponse
// @Router /ws [get]
func (h *WebSocketHandler) ServeWS(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		apperrors.HandleError(c, apperrors.NewUnauthorizedError("token query parameter is required"))
		return
	}
	claims, err := h.validator.ValidateAccessToken(c.Request.Context(), token)
	if err != nil {
		apperrors.HandleError(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn("WebSocket upgrade failed", "user_id", claims.UserID, "error", err.Error())
		return
	}

	client := newClient(h.Manager, conn, claims.UserID)
	if !h.Manager.registerClient(client) {
		_ = conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}

func parseOrigins(raw string) map[string]bool {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "*" {
		return nil
	}
	out := make(map[string]bool)
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out[o] = true
		}
	}
	return out
}
