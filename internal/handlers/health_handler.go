package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Pinger is a dependency the health check can ping.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ConnectionState is implemented by clients that track their own connection.
type ConnectionState interface {
	Connected() bool
}

type HealthHandler struct {
	db    *gorm.DB
	redis Pinger
	mongo Pinger
	nats  ConnectionState
}

// NewHealthHandler accepts nil for optional dependencies; they report "disabled".
func NewHealthHandler(db *gorm.DB, redis, mongo Pinger, nats ConnectionState) *HealthHandler {
	return &HealthHandler{db: db, redis: redis, mongo: mongo, nats: nats}
}

func (h *HealthHandler) RegisterRoutes(r gin.IRoutes) {
	r.GET("/health", h.Health)
}

// Health godoc
// @Summary Liveness and dependency status
// @Tags platform
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 503 {object} map[string]string
// @Router /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := gin.H{
		"status":   "ok",
		"database": "ok",
		"redis":    pingStatus(ctx, h.redis),
		"mongo":    pingStatus(ctx, h.mongo),
		"nats":     "disabled",
	}
	if h.nats != nil {
		status["nats"] = "ok"
		if !h.nats.Connected() {
			status["nats"] = "down"
		}
	}

	code := http.StatusOK
	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.PingContext(ctx)
	}
	if err != nil {
		status["database"] = "down"
		status["status"] = "degraded"
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, status)
}

func pingStatus(ctx context.Context, p Pinger) string {
	if p == nil {
		return "disabled"
	}
	if err := p.Ping(ctx); err != nil {
		return "down"
	}
	return "ok"
}
