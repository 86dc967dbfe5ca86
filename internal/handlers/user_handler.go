package handlers

import (
	"github.com/gin-gonic/gin"

	"businessconnect_backend/internal/middleware"
	"businessconnect_backend/internal/models"
	"businessconnect_backend/internal/services"
	"businessconnect_backend/internal/services/dto"
)

type UserHandler struct {
	*BaseHandler
	userService services.UserService
}

func NewUserHandler(base *BaseHandler, userService services.UserService) *UserHandler {
	return &UserHandler{
		BaseHandler: base,
		userService: userService,
	}
}

func (h *UserHandler) RegisterRoutes(rg *gin.RouterGroup) {
	users := rg.Group("/users")
	users.Use(h.Auth())
	{
		users.GET("/me/preferences", h.GetPreferences)
		users.PUT("/me/preferences", h.UpdatePreferences)

		users.GET("", middleware.RequireRoles(models.UserRoleAdmin), h.ListUsers)
		users.GET("/:id", h.GetUser)
		users.PUT("/:id", h.UpdateUser)
		users.DELETE("/:id", h.DeleteUser)
		users.PUT("/:id/role", middleware.RequireRoles(models.UserRoleAdmin), h.UpdateRole)
		users.PUT("/:id/status", middleware.RequireRoles(models.UserRoleAdmin), h.UpdateStatus)
	}
}

// ListUsers godoc
// @Summary List users (admin)
// @Tags users
// @Security BearerAuth
// @Produce json
// @Param role query string false "Role"
// @Param status query string false "Status"
// @Param q query string false "Name or email"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} Response{data=[]dto.UserResponse}
// @Router /users [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	var req dto.UserListRequest
	if !h.BindAndValidate_Query(c, &req) {
		return
	}

	list, err := h.userService.ListUsers(h.GetDB(c), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	respondList(c, list)
}

func (h *UserHandler) GetUser(c *gin.Context) {
	actor, ok := h.GetActor(c)
	if !ok {
		return
	}

	user, err := h.userService.GetUser(h.GetDB(c), actor, c.Param("id"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	respondOK(c, user)
}

func (h *UserHandler) UpdateUser(c *gin.Context) {
	actor, ok := h.GetActor(c)
	if !ok {
		return
	}
	var req dto.UpdateUserRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	user, err := h.userService.UpdateUser(c.Request.Context(), h.GetDB(c), actor, c.Param("id"), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	respondOK(c, user)
}

func (h *UserHandler) UpdateRole(c *gin.Context) {
	actor, ok := h.GetActor(c)
	if !ok {
		return
	}
	var req dto.UpdateRoleRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	user, err := h.userService.UpdateRole(c.Request.Context(), h.GetDB(c), actor, c.Param("id"), req.Role)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	respondOK(c, user)
}

func (h *UserHandler) UpdateStatus(c *gin.Context) {
	actor, ok := h.GetActor(c)
	if !ok {
		return
	}
	var req dto.UpdateStatusRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	user, err := h.userService.UpdateStatus(c.Request.Context(), h.GetDB(c), actor, c.Param("id"), req.Status)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	respondOK(c, user)
}

func (h *UserHandler) DeleteUser(c *gin.Context) {
	actor, ok := h.GetActor(c)
	if !ok {
		return
	}

	if err := h.userService.DeleteUser(c.Request.Context(), h.GetDB(c), actor, c.Param("id")); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	respondMessage(c, "Utilisateur supprimé")
}

// GetPreferences godoc
// @Summary Notification preferences of the current user
// @Tags users
// @Security BearerAuth
// @Produce json
// @Success 200 {object} Response{data=models.UserPreferences}
// @Router /users/me/preferences [get]
func (h *UserHandler) GetPreferences(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	prefs, err := h.userService.GetPreferences(h.GetDB(c), userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	respondOK(c, prefs)
}

func (h *UserHandler) UpdatePreferences(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}
	var req dto.UpdatePreferencesRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	prefs, err := h.userService.UpdatePreferences(h.GetDB(c), userID, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	respondOK(c, prefs)
}
