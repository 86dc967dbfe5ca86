package handlers

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"businessconnect_backend/internal/logger"
	"businessconnect_backend/internal/middleware"
	"businessconnect_backend/internal/services"
	"businessconnect_backend/internal/validator"
	"businessconnect_backend/pkg/apperrors"
	"businessconnect_backend/pkg/contextkeys"
)

// ============================================================================
// 1. Base handler
// ============================================================================

type BaseHandler struct {
	validator *validator.Validator
	tokens    middleware.TokenValidator
}

func NewBaseHandler(v *validator.Validator, tokens middleware.TokenValidator) *BaseHandler {
	return &BaseHandler{
		validator: v,
		tokens:    tokens,
	}
}

// Auth returns the middleware that requires an access token.
func (h *BaseHandler) Auth() gin.HandlerFunc {
	return middleware.AuthMiddleware(h.tokens)
}

// OptionalAuth identifies the caller when a token is sent.
func (h *BaseHandler) OptionalAuth() gin.HandlerFunc {
	return middleware.OptionalAuthMiddleware(h.tokens)
}

// GetDB returns the *gorm.DB (pool or transaction) set by DBMiddleware.
func (h *BaseHandler) GetDB(c *gin.Context) *gorm.DB {
	dbKey := string(contextkeys.DBContextKey)

	val, ok := c.Get(dbKey)
	if !ok {
		logger.CtxError(c.Request.Context(), "critical error: db key not found in context", "key", dbKey)
		panic("critical error: DBMiddleware did not set the db key")
	}

	db, ok := val.(*gorm.DB)
	if !ok {
		logger.CtxError(c.Request.Context(), "critical error: db in context is not *gorm.DB", "key", dbKey, "type", fmt.Sprintf("%T", val))
		panic("critical error: db in context has incorrect type")
	}

	return db
}

// ============================================================================
// 2. Binding and validation
// ============================================================================

func (h *BaseHandler) BindAndValidate_JSON(c *gin.Context, obj interface{}) bool {
	ctx := c.Request.Context()

	if err := c.ShouldBindJSON(obj); err != nil {
		logger.CtxWithError(ctx, "Failed to bind JSON body", err, "path", c.Request.URL.Path)
		apperrors.HandleError(c, apperrors.NewBadRequestError("Invalid request body: "+err.Error()))
		return false
	}
	return h.validate(c, obj, "body")
}

func (h *BaseHandler) BindAndValidate_Query(c *gin.Context, obj interface{}) bool {
	ctx := c.Request.Context()

	if err := c.ShouldBindQuery(obj); err != nil {
		logger.CtxWithError(ctx, "Failed to bind query params", err, "path", c.Request.URL.Path)
		apperrors.HandleError(c, apperrors.NewBadRequestError("Invalid query parameters: "+err.Error()))
		return false
	}
	return h.validate(c, obj, "query")
}

func (h *BaseHandler) validate(c *gin.Context, obj interface{}, source string) bool {
	ctx := c.Request.Context()

	if err := h.validator.Validate(obj); err != nil {
		if vErr, ok := err.(*validator.ValidationError); ok {
			logger.CtxWarn(ctx, "Validation failed", "source", source, "errors", vErr.Errors, "path", c.Request.URL.Path)
			apperrors.HandleError(c, apperrors.ValidationError(vErr.Errors))
		} else {
			logger.CtxWithError(ctx, "Internal validator error", err, "path", c.Request.URL.Path)
			apperrors.HandleError(c, apperrors.InternalError(err))
		}
		return false
	}
	return true
}

// ============================================================================
// 3. Errors
// ============================================================================

func (h *BaseHandler) HandleServiceError(c *gin.Context, err error) {
	ctx := c.Request.Context()

	var appErr *apperrors.AppError
	if apperrors.As(err, &appErr) {
		if appErr.HTTPCode < 500 {
			logger.CtxWarn(ctx, "Service error",
				"error", appErr.Message,
				"details", appErr.Details,
				"path", c.Request.URL.Path,
			)
		}
		apperrors.HandleError(c, appErr)
	} else {
		logger.CtxWithError(ctx, "Internal server error", err, "path", c.Request.URL.Path)
		apperrors.HandleError(c, apperrors.InternalError(err))
	}
}

// ============================================================================
// 4. Caller identity
// ============================================================================

func (h *BaseHandler) GetAndAuthorizeUserID(c *gin.Context) (string, bool) {
	userID := middleware.GetUserID(c)
	if userID == "" {
		logger.CtxWarn(c.Request.Context(), "Unauthorized access: userID not found in context",
			"path", c.Request.URL.Path,
			"ip", c.ClientIP(),
		)
		apperrors.HandleError(c, apperrors.NewUnauthorizedError("User not authenticated"))
		return "", false
	}
	return userID, true
}

// GetActor returns the authenticated caller or writes a 401.
func (h *BaseHandler) GetActor(c *gin.Context) (services.Actor, bool) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return services.Actor{}, false
	}
	role, _ := middleware.GetRole(c)
	return services.Actor{UserID: userID, Role: role}, true
}

// OptionalActor returns nil for anonymous callers.
func (h *BaseHandler) OptionalActor(c *gin.Context) *services.Actor {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return nil
	}
	role, _ := middleware.GetRole(c)
	return &services.Actor{UserID: userID, Role: role}
}

// ============================================================================
// 5. Parsing
// ============================================================================

func ParseParamInt(c *gin.Context, key string) (int, error) {
	valueStr := c.Param(key)
	if valueStr == "" {
		return 0, apperrors.NewBadRequestError("Missing required path parameter: " + key)
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return 0, apperrors.NewBadRequestError("Invalid path parameter: " + key + " is not an integer")
	}
	return value, nil
}
