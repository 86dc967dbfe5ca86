package middleware

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"businessconnect_backend/internal/logger"
	"businessconnect_backend/internal/models"
	"businessconnect_backend/internal/services/dto"
	"businessconnect_backend/pkg/apperrors"
)

func init() {
	gin.SetMode(gin.TestMode)
	logger.InitWithWriter("test", io.Discard)
}

type fakeTokens map[string]*dto.AccessClaims

func (f fakeTokens) ValidateAccessToken(_ context.Context, token string) (*dto.AccessClaims, error) {
	if claims, ok := f[token]; ok {
		return claims, nil
	}
	return nil, apperrors.ErrInvalidToken
}

var tokens = fakeTokens{
	"admin-token": {UserID: "admin-1", Role: models.UserRoleAdmin},
	"user-token":  {UserID: "user-1", Role: models.UserRoleUser},
}

func perform(r http.Handler, method, path, token string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	r := gin.New()
	r.GET("/me", AuthMiddleware(tokens), func(c *gin.Context) {
		role, _ := GetRole(c)
		c.String(http.StatusOK, GetUserID(c)+":"+string(role))
	})
	r.GET("/admin", AuthMiddleware(tokens), RequireRoles(models.UserRoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	r.GET("/feed", OptionalAuthMiddleware(tokens), func(c *gin.Context) {
		c.String(http.StatusOK, "viewer="+GetUserID(c))
	})

	w := perform(r, http.MethodGet, "/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = perform(r, http.MethodGet, "/me", "forged", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = perform(r, http.MethodGet, "/me", "user-token", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "user-1:user", w.Body.String())

	w = perform(r, http.MethodGet, "/admin", "user-token", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = perform(r, http.MethodGet, "/admin", "admin-token", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = perform(r, http.MethodGet, "/feed", "forged", nil)
	assert.Equal(t, "viewer=", w.Body.String(), "bad optional tokens are anonymous")

	w = perform(r, http.MethodGet, "/feed", "user-token", nil)
	assert.Equal(t, "viewer=user-1", w.Body.String())
}

func TestRequestIDMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(RequestIDMiddleware())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := perform(r, http.MethodGet, "/", "", map[string]string{"X-Request-ID": "abc-123"})
	assert.Equal(t, "abc-123", w.Header().Get("X-Request-ID"))

	w = perform(r, http.MethodGet, "/", "", map[string]string{"X-Request-ID": strings.Repeat("x", 100)})
	assert.Len(t, w.Header().Get("X-Request-ID"), 36, "oversized ids are replaced")
}

func TestCORSMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(CORSMiddleware("https://businessconnect.sn, https://admin.businessconnect.sn"))
	r.GET("/jobs", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := perform(r, http.MethodOptions, "/jobs", "", map[string]string{"Origin": "https://businessconnect.sn"})
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://businessconnect.sn", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	w = perform(r, http.MethodGet, "/jobs", "", map[string]string{"Origin": "https://evil.example"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))

	open := gin.New()
	open.Use(CORSMiddleware("*"))
	open.GET("/jobs", func(c *gin.Context) { c.Status(http.StatusOK) })
	w = perform(open, http.MethodGet, "/jobs", "", map[string]string{"Origin": "https://anything.example"})
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}
