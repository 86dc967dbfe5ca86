package handlers

import "github.com/gin-gonic/gin"

// AppHandlers holds every HTTP handler of the application.
type AppHandlers struct {
	AuthHandler         *AuthHandler
	UserHandler         *UserHandler
	JobHandler          *JobHandler
	MarketplaceHandler  *MarketplaceHandler
	SubscriptionHandler *SubscriptionHandler
	NotificationHandler *NotificationHandler
	ForumHandler        *ForumHandler
	HealthHandler       *HealthHandler
}

// RouteRegistrar is implemented by the API handlers.
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// APIHandlers lists the handlers mounted under /api.
func (h *AppHandlers) APIHandlers() []RouteRegistrar {
	return []RouteRegistrar{
		h.AuthHandler,
		h.UserHandler,
		h.JobHandler,
		h.MarketplaceHandler,
		h.SubscriptionHandler,
		h.NotificationHandler,
		h.ForumHandler,
	}
}
