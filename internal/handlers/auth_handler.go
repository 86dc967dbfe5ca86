package handlers

import (
	"github.com/gin-gonic/gin"

	"businessconnect_backend/internal/services"
	"businessconnect_backend/internal/services/dto"
	"businessconnect_backend/pkg/apperrors"
	"businessconnect_backend/pkg/contextkeys"
)

type AuthHandler struct {
	*BaseHandler
	authService services.AuthService
}

func NewAuthHandler(base *BaseHandler, authService services.AuthService) *AuthHandler {
	return &AuthHandler{
		BaseHandler: base,
		authService: authService,
	}
}

func (h *AuthHandler) RegisterRoutes(rg *gin.RouterGroup) {
	auth := rg.Group("/auth")
	{
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
		auth.POST("/refresh", h.RefreshToken)
		auth.GET("/verify-email/:token", h.VerifyEmail)
		auth.POST("/forgot-password", h.ForgotPassword)
		auth.POST("/reset-password", h.ResetPassword)
	}

	protected := auth.Group("")
	protected.Use(h.Auth())
	{
		protected.POST("/logout", h.Logout)
		protected.GET("/me", h.Me)
		protected.PUT("/change-password", h.ChangePassword)
	}
}

// Register godoc
// @Summary Create an account
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.RegisterRequest true "Account"
// @Success 201 {object} Response{data=dto.AuthResponse}
// @Failure 409 {object} apperrors.ErrorResponse
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	resp, err := h.authService.Register(c.Request.Context(), h.GetDB(c), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	respondCreated(c, resp, "Inscription réussie. Vérifiez votre email pour activer votre compte.")
}

// Login godoc
// @Summary Log in with email or phone
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "Credentials"
// @Success 200 {object} Response{data=dto.AuthResponse}
// @Failure 401 {object} apperrors.ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	resp, err := h.authService.Login(c.Request.Context(), h.GetDB(c), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	respondOK(c, resp)
}

// RefreshToken godoc
// @Summary Rotate the refresh token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.RefreshTokenRequest true "Refresh token"
// @Success 200 {object} Response{data=dto.AuthResponse}
// @Failure 401 {object} apperrors.ErrorResponse
// @Router /auth/refresh [post]
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req dto.RefreshTokenRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	resp, err := h.authService.RefreshToken(c.Request.Context(), h.GetDB(c), req.RefreshToken)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	respondOK(c, resp)
}

// Logout godoc
// @Summary Revoke the session
// @Tags auth
// @Security BearerAuth
// @Accept json
// @Param request body dto.LogoutRequest false "Refresh token to revoke"
// @Success 200 {object} Response
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	var req dto.LogoutRequest
	if c.Request.ContentLength > 0 && !h.BindAndValidate_JSON(c, &req) {
		return
	}

	claims, ok := c.MustGet(contextkeys.TokenKey).(*dto.AccessClaims)
	if !ok {
		apperrors.HandleError(c, apperrors.NewUnauthorizedError("User not authenticated"))
		return
	}

	if err := h.authService.Logout(c.Request.Context(), h.GetDB(c), claims, req.RefreshToken); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	respondMessage(c, "Déconnexion réussie")
}

// Me godoc
// @Summary Current user
// @Tags auth
// @Security BearerAuth
// @Produce json
// @Success 200 {object} Response{data=dto.UserResponse}
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	user, err := h.authService.Me(h.GetDB(c), userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	respondOK(c, user)
}

// VerifyEmail godoc
// @Summary Confirm an email address
// @Tags auth
// @Param token path string true "Verification token"
// @Success 200 {object} Response
// @Failure 400 {object} apperrors.ErrorResponse
// @Router /auth/verify-email/{token} [get]
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	if err := h.authService.VerifyEmail(c.Request.Context(), h.GetDB(c), c.Param("token")); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	respondMessage(c, "Adresse email vérifiée")
}

// ForgotPassword godoc
// @Summary Request a password reset by email or SMS
// @Tags auth
// @Accept json
// @Param request body dto.ForgotPasswordRequest true "Email or phone"
// @Success 200 {object} Response
// @Failure 429 {object} apperrors.ErrorResponse
// @Router /auth/forgot-password [post]
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req dto.ForgotPasswordRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	if err := h.authService.ForgotPassword(c.Request.Context(), h.GetDB(c), &req); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	respondMessage(c, "Si un compte correspond, des instructions de réinitialisation ont été envoyées.")
}

// ResetPassword godoc
// @Summary Set a new password with a reset token
// @Tags auth
// @Accept json
// @Param request body dto.ResetPasswordRequest true "Code or link token, the phone or email it was sent to, and the new password"
// @Success 200 {object} Response
// @Failure 400 {object} apperrors.ErrorResponse
// @Router /auth/reset-password [post]
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req dto.ResetPasswordRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	if err := h.authService.ResetPassword(c.Request.Context(), h.GetDB(c), &req); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	respondMessage(c, "Mot de passe réinitialisé")
}

// ChangePassword godoc
// @Summary Change the password of the current user
// @Tags auth
// @Security BearerAuth
// @Accept json
// @Param request body dto.ChangePasswordRequest true "Passwords"
// @Success 200 {object} Response
// @Router /auth/change-password [put]
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	var req dto.ChangePasswordRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	if err := h.authService.ChangePassword(c.Request.Context(), h.GetDB(c), userID, &req); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	respondMessage(c, "Mot de passe modifié")
}
