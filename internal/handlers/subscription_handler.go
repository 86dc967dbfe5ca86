package handlers

import (
	"github.com/gin-gonic/gin"

	"businessconnect_backend/internal/logger"
	"businessconnect_backend/internal/middleware"
	"businessconnect_backend/internal/models"
	"businessconnect_backend/internal/services"
	"businessconnect_backend/internal/services/dto"
	"businessconnect_backend/pkg/apperrors"
)

type SubscriptionHandler struct {
	*BaseHandler
	subscriptionService services.SubscriptionService
}

func NewSubscriptionHandler(base *BaseHandler, subscriptionService services.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{
		BaseHandler:         base,
		subscriptionService: subscriptionService,
	}
}

func (h *SubscriptionHandler) RegisterRoutes(rg *gin.RouterGroup) {
	subs := rg.Group("/subscriptions")
	{
		subs.GET("/plans", h.GetPlans)
		subs.GET("/webhook", h.WebhookPing)
		subs.POST("/webhook", h.Webhook)
	}

	protected := subs.Group("")
	protected.Use(h.Auth())
	{
		protected.POST("/initiate", h.Initiate)
		protected.GET("/verify/:transactionId", h.Verify)
		protected.GET("/current", h.Current)
		protected.GET("/status", h.Status)
		protected.GET("/history", h.History)
		protected.POST("/cancel", h.Cancel)

		protected.GET("", middleware.RequireRoles(models.UserRoleAdmin), h.AdminList)
		protected.POST("/expire", middleware.RequireRoles(models.UserRoleAdmin), h.Expire)
	}
}

// GetPlans godoc
// @Summary Subscription catalog
// @Tags subscriptions
// @Produce json
// @Success 200 {object} Response{data=[]config.Plan}
// @Router /subscriptions/plans [get]
func (h *SubscriptionHandler) GetPlans(c *gin.Context) {
	respondOK(c, h.subscriptionService.Plans())
}

// Initiate godoc
// @Summary Start a CinetPay payment for a plan
// @Tags subscriptions
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.InitiateSubscriptionRequest true "Plan"
// @Success 201 {object} Response{data=dto.InitiateSubscriptionResponse}
// @Failure 404 {object} apperrors.ErrorResponse
// @Failure 503 {object} apperrors.ErrorResponse
// @Router /subscriptions/initiate [post]
func (h *SubscriptionHandler) Initiate(c *gin.Context) {
	actor, ok := h.GetActor(c)
	if !ok {
		return
	}
	var req dto.InitiateSubscriptionRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	resp, err := h.subscriptionService.Initiate(c.Request.Context(), h.GetDB(c), actor, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	respondCreated(c, resp, "Paiement initialisé")
}

// WebhookPing lets CinetPay check that the notify URL is reachable.
func (h *SubscriptionHandler) WebhookPing(c *gin.Context) {
	respondMessage(c, "ok")
}

// Webhook godoc
// @Summary CinetPay payment notification
// @Tags subscriptions
// @Accept x-www-form-urlencoded
// @Produce json
// @Param x-token header string false "HMAC signature"
// @Param cpm_trans_id formData string true "Transaction ID"
// @Success 200 {object} Response{data=dto.WebhookAck}
// @Failure 401 {object} apperrors.ErrorResponse
// @Router /subscriptions/webhook [post]
func (h *SubscriptionHandler) Webhook(c *gin.Context) {
	if err := c.Request.ParseForm(); err != nil {
		apperrors.HandleError(c, apperrors.NewBadRequestError("invalid form body"))
		return
	}

	req := dto.WebhookRequest{
		Token: c.GetHeader("x-token"),
		Form:  c.Request.PostForm,
	}
	result, err := h.subscriptionService.HandleWebhook(c.Request.Context(), h.GetDB(c), req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	logger.CtxInfo(c.Request.Context(), "Payment notification processed",
		"transaction_id", req.Form.Get("cpm_trans_id"), "outcome", result.Outcome)
	respondOK(c, dto.WebhookAck{Outcome: result.Outcome})
}

// Verify godoc
// @Summary Re-check a payment from the return page
// @Tags subscriptions
// @Security BearerAuth
// @Produce json
// @Param transactionId path string true "Transaction ID"
// @Success 200 {object} Response{data=dto.ReconcileResult}
// @Router /subscriptions/verify/{transactionId} [get]
func (h *SubscriptionHandler) Verify(c *gin.Context) {
	actor, ok := h.GetActor(c)
	if !ok {
		return
	}

	result, err := h.subscriptionService.Verify(c.Request.Context(), h.GetDB(c), actor, c.Param("transactionId"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	respondOK(c, result)
}

func (h *SubscriptionHandler) Current(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	sub, err := h.subscriptionService.Current(h.GetDB(c), userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	respondOK(c, sub)
}

func (h *SubscriptionHandler) Status(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	status, err := h.subscriptionService.Status(h.GetDB(c), userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	respondOK(c, status)
}

func (h *SubscriptionHandler) History(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	subs, err := h.subscriptionService.History(h.GetDB(c), userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	respondOK(c, subs)
}

func (h *SubscriptionHandler) Cancel(c *gin.Context) {
	actor, ok := h.GetActor(c)
	if !ok {
		return
	}

	sub, err := h.subscriptionService.Cancel(c.Request.Context(), h.GetDB(c), actor)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	respondWithMessage(c, sub, "Abonnement annulé")
}

func (h *SubscriptionHandler) AdminList(c *gin.Context) {
	actor, ok := h.GetActor(c)
	if !ok {
		return
	}
	var req dto.SubscriptionListRequest
	if !h.BindAndValidate_Query(c, &req) {
		return
	}

	list, err := h.subscriptionService.AdminList(h.GetDB(c), actor, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	respondList(c, list)
}

// Expire runs the expiry pass now instead of waiting for the cron.
func (h *SubscriptionHandler) Expire(c *gin.Context) {
	result, err := h.subscriptionService.ExpireDue(c.Request.Context(), h.GetDB(c))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	respondOK(c, result)
}
