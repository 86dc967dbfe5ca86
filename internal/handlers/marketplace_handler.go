package handlers

import (
	"github.com/gin-gonic/gin"

	"businessconnect_backend/internal/middleware"
	"businessconnect_backend/internal/models"
	"businessconnect_backend/internal/services"
	"businessconnect_backend/internal/services/dto"
	"businessconnect_backend/pkg/apperrors"
)

type MarketplaceHandler struct {
	*BaseHandler
	marketplaceService services.MarketplaceService
	maxUploadSize      int64
}

func NewMarketplaceHandler(base *BaseHandler, marketplaceService services.MarketplaceService, maxUploadSize int64) *MarketplaceHandler {
	if maxUploadSize <= 0 {
		maxUploadSize = 5 << 20
	}
	return &MarketplaceHandler{
		BaseHandler:        base,
		marketplaceService: marketplaceService,
		maxUploadSize:      maxUploadSize,
	}
}

func (h *MarketplaceHandler) RegisterRoutes(rg *gin.RouterGroup) {
	market := rg.Group("/marketplace")
	{
		market.GET("", h.OptionalAuth(), h.ListItems)
		market.GET("/:id", h.OptionalAuth(), h.GetItem)
	}

	protected := market.Group("")
	protected.Use(h.Auth())
	{
		protected.GET("/mine", h.MyItems)
		protected.POST("", h.CreateItem)
		protected.PUT("/:id", h.UpdateItem)
		protected.DELETE("/:id", h.DeleteItem)
		protected.PUT("/:id/status", middleware.RequireRoles(models.UserRoleAdmin), h.ModerateItem)
		protected.POST("/:id/report", h.ReportItem)
		protected.POST("/:id/images", h.AddImage)
		protected.DELETE("/:id/images/:index", h.DeleteImage)
	}
}

// ListItems godoc
// @Summary List marketplace items
// @Tags marketplace
// @Produce json
// @Param q query string false "Search"
// @Param category query string false "Category"
// @Param location query string false "Location"
// @Param min_price query number false "Minimum price"
// @Param max_price query number false "Maximum price"
// @Param status query string false "Status (admin only)"
// @Success 200 {object} Response{data=[]models.MarketplaceItem}
// @Router /marketplace [get]
func (h *MarketplaceHandler) ListItems(c *gin.Context) {
	var req dto.ItemSearchRequest
	if !h.BindAndValidate_Query(c, &req) {
		return
	}

	list, err := h.marketplaceService.ListItems(h.GetDB(c), h.OptionalActor(c), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	respondList(c, list)
}

// GetItem godoc
// @Summary Marketplace item details
// @Tags marketplace
// @Produce json
// @Param id path string true "Item ID"
// @Success 200 {object} Response{data=models.MarketplaceItem}
// @Failure 404 {object} apperrors.ErrorResponse
// @Router /marketplace/{id} [get]
func (h *MarketplaceHandler) GetItem(c *gin.Context) {
	item, err := h.marketplaceService.GetItem(c.Request.Context(), h.GetDB(c), h.OptionalActor(c), c.Param("id"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	respondOK(c, item)
}

// CreateItem godoc
// @Summary Submit an item for moderation
// @Tags marketplace
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.CreateItemRequest true "Item"
// @Success 201 {object} Response{data=models.MarketplaceItem}
// @Failure 403 {object} apperrors.ErrorResponse
// @Router /marketplace [post]
func (h *MarketplaceHandler) CreateItem(c *gin.Context) {
	actor, ok := h.GetActor(c)
	if !ok {
		return
	}
	var req dto.CreateItemRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	item, err := h.marketplaceService.CreateItem(c.Request.Context(), h.GetDB(c), actor, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	respondCreated(c, item, "Annonce soumise à modération")
}

func (h *MarketplaceHandler) UpdateItem(c *gin.Context) {
	actor, ok := h.GetActor(c)
	if !ok {
		return
	}
	var req dto.UpdateItemRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	item, err := h.marketplaceService.UpdateItem(c.Request.Context(), h.GetDB(c), actor, c.Param("id"), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	respondOK(c, item)
}

func (h *MarketplaceHandler) DeleteItem(c *gin.Context) {
	actor, ok := h.GetActor(c)
	if !ok {
		return
	}

	if err := h.marketplaceService.DeleteItem(c.Request.Context(), h.GetDB(c), actor, c.Param("id")); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	respondMessage(c, "Annonce supprimée")
}

func (h *MarketplaceHandler) MyItems(c *gin.Context) {
	actor, ok := h.GetActor(c)
	if !ok {
		return
	}
	var page dto.PageRequest
	if !h.BindAndValidate_Query(c, &page) {
		return
	}

	list, err := h.marketplaceService.MyItems(h.GetDB(c), actor, page)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	respondList(c, list)
}

// ModerateItem godoc
// @Summary Change the moderation status of an item (admin)
// @Tags marketplace
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Item ID"
// @Param request body dto.ModerateItemRequest true "Status"
// @Success 200 {object} Response{data=models.MarketplaceItem}
// @Router /marketplace/{id}/status [put]
func (h *MarketplaceHandler) ModerateItem(c *gin.Context) {
	actor, ok := h.GetActor(c)
	if !ok {
		return
	}
	var req dto.ModerateItemRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	item, err := h.marketplaceService.ModerateItem(c.Request.Context(), h.GetDB(c), actor, c.Param("id"), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	respondOK(c, item)
}

// ReportItem godoc
// @Summary Report an item
// @Tags marketplace
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Item ID"
// @Param request body dto.ReportItemRequest true "Reason"
// @Success 201 {object} Response{data=services.ReportResult}
// @Failure 409 {object} apperrors.ErrorResponse
// @Router /marketplace/{id}/report [post]
func (h *MarketplaceHandler) ReportItem(c *gin.Context) {
	actor, ok := h.GetActor(c)
	if !ok {
		return
	}
	var req dto.ReportItemRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	result, err := h.marketplaceService.ReportItem(c.Request.Context(), h.GetDB(c), actor, c.Param("id"), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	respondCreated(c, result, "Signalement enregistré")
}

// AddImage godoc
// @Summary Upload an item image
// @Tags marketplace
// @Security BearerAuth
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Item ID"
// @Param image formData file true "JPEG or PNG image"
// @Success 201 {object} Response{data=models.MarketplaceItem}
// @Failure 413 {object} apperrors.ErrorResponse
// @Router /marketplace/{id}/images [post]
func (h *MarketplaceHandler) AddImage(c *gin.Context) {
	actor, ok := h.GetActor(c)
	if !ok {
		return
	}

	// multipart overhead on top of the file itself
	if err := c.Request.ParseMultipartForm(h.maxUploadSize + 1<<20); err != nil {
		apperrors.HandleError(c, apperrors.NewBadRequestError("failed to parse form: "+err.Error()))
		return
	}
	fileHeader, err := c.FormFile("image")
	if err != nil {
		apperrors.HandleError(c, apperrors.NewBadRequestError("no image provided"))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		apperrors.HandleError(c, apperrors.InternalError(err))
		return
	}
	defer file.Close()

	upload := dto.ImageUpload{
		Filename:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Size:        fileHeader.Size,
	}

	item, err := h.marketplaceService.AddImage(c.Request.Context(), h.GetDB(c), actor, c.Param("id"), upload, file)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	respondCreated(c, item, "Image ajoutée")
}

func (h *MarketplaceHandler) DeleteImage(c *gin.Context) {
	actor, ok := h.GetActor(c)
	if !ok {
		return
	}
	index, err := ParseParamInt(c, "index")
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	item, err := h.marketplaceService.DeleteImage(c.Request.Context(), h.GetDB(c), actor, c.Param("id"), index)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	respondOK(c, item)
}
