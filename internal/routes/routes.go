package routes

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"businessconnect_backend/internal/handlers"
	"businessconnect_backend/internal/logger"
	"businessconnect_backend/ws"
)

// Options holds the platform endpoints that are not part of the API.
type Options struct {
	Metrics gin.HandlerFunc
	Swagger bool
	// LocalUploads serves files stored by the local storage backend.
	LocalUploadsURL  string
	LocalUploadsPath string
}

// RegisterRoutes mounts the API under /api plus /ws, /health, /metrics and /swagger.
func RegisterRoutes(
	ginRouter *gin.Engine,
	appHandlers *handlers.AppHandlers,
	wsHandler *ws.WebSocketHandler,
	opts Options,
) {
	api := ginRouter.Group("/api")
	for _, h := range appHandlers.APIHandlers() {
		h.RegisterRoutes(api)
	}

	appHandlers.HealthHandler.RegisterRoutes(ginRouter)
	appHandlers.HealthHandler.RegisterRoutes(api)

	ginRouter.GET("/ws", wsHandler.ServeWS)

	if opts.Metrics != nil {
		ginRouter.GET("/metrics", opts.Metrics)
	}
	if opts.Swagger {
		ginRouter.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}
	if opts.LocalUploadsURL != "" && opts.LocalUploadsPath != "" {
		ginRouter.Static(opts.LocalUploadsURL, opts.LocalUploadsPath)
	}

	logger.Info("Routes registered", "api_prefix", "/api", "websocket", "/ws")
}
