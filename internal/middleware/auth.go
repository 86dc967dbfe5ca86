package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"businessconnect_backend/internal/logger"
	"businessconnect_backend/internal/models"
	"businessconnect_backend/internal/services/dto"
	"businessconnect_backend/pkg/apperrors"
	"businessconnect_backend/pkg/contextkeys"
)

// TokenValidator resolves an access token to its claims. It also rejects
// blacklisted tokens.
type TokenValidator interface {
	ValidateAccessToken(ctx context.Context, token string) (*dto.AccessClaims, error)
}

// AuthMiddleware requires a valid "Authorization: Bearer <token>" header.
func AuthMiddleware(tokens TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			apperrors.HandleError(c, apperrors.NewUnauthorizedError("Authorization header missing or invalid"))
			return
		}

		claims, err := tokens.ValidateAccessToken(c.Request.Context(), token)
		if err != nil {
			apperrors.HandleError(c, err)
			return
		}

		setClaims(c, claims)
		c.Next()
	}
}

// OptionalAuthMiddleware sets the claims when a valid token is present and
// lets anonymous requests through. An invalid token is treated as anonymous.
func OptionalAuthMiddleware(tokens TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, ok := bearerToken(c); ok {
			if claims, err := tokens.ValidateAccessToken(c.Request.Context(), token); err == nil {
				setClaims(c, claims)
			}
		}
		c.Next()
	}
}

// RequireRoles must run after AuthMiddleware.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	roleSet := make(map[models.UserRole]bool)
	for _, r := range roles {
		roleSet[r] = true
	}

	return func(c *gin.Context) {
		role, ok := GetRole(c)
		if !ok {
			apperrors.HandleError(c, apperrors.NewForbiddenError("Access denied: no role"))
			return
		}
		if !roleSet[role] {
			logger.CtxWarn(c.Request.Context(), "Role check failed", "role", role, "path", c.Request.URL.Path)
			apperrors.HandleError(c, apperrors.ErrInsufficientPermissions)
			return
		}
		c.Next()
	}
}

// RoleMiddleware is RequireRoles with one role.
func RoleMiddleware(requiredRole models.UserRole) gin.HandlerFunc {
	return RequireRoles(requiredRole)
}

func GetUserID(c *gin.Context) string {
	return c.GetString(contextkeys.UserIDKey)
}

func GetRole(c *gin.Context) (models.UserRole, bool) {
	roleVal, exists := c.Get(contextkeys.RoleKey)
	if !exists {
		return "", false
	}
	switch role := roleVal.(type) {
	case models.UserRole:
		return role, true
	case string:
		return models.UserRole(role), true
	}
	return "", false
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	return token, token != ""
}

func setClaims(c *gin.Context, claims *dto.AccessClaims) {
	c.Set(contextkeys.UserIDKey, claims.UserID)
	c.Set(contextkeys.RoleKey, claims.Role)
	c.Set(contextkeys.TokenKey, claims)
	c.Request = c.Request.WithContext(logger.WithUserID(c.Request.Context(), claims.UserID))
}
