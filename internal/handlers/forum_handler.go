package handlers

import (
	"github.com/gin-gonic/gin"

	"businessconnect_backend/internal/services"
	"businessconnect_backend/internal/services/dto"
)

type ForumHandler struct {
	*BaseHandler
	forumService services.ForumService
}

func NewForumHandler(base *BaseHandler, forumService services.ForumService) *ForumHandler {
	return &ForumHandler{
		BaseHandler:  base,
		forumService: forumService,
	}
}

func (h *ForumHandler) RegisterRoutes(rg *gin.RouterGroup) {
	forum := rg.Group("/forum")
	{
		forum.GET("/topics", h.ListTopics)
		forum.GET("/topics/:id", h.GetTopic)
	}

	protected := forum.Group("")
	protected.Use(h.Auth())
	{
		protected.POST("/topics", h.CreateTopic)
		protected.PUT("/topics/:id", h.UpdateTopic)
		protected.DELETE("/topics/:id", h.DeleteTopic)
		protected.POST("/topics/:id/replies", h.CreateReply)
		protected.POST("/topics/:id/like", h.ToggleLike)
		protected.DELETE("/replies/:id", h.DeleteReply)
	}
}

// ListTopics godoc
// @Summary List forum topics
// @Tags forum
// @Produce json
// @Param category query string false "Category"
// @Param q query string false "Search"
// @Success 200 {object} Response{data=[]models.Topic}
// @Router /forum/topics [get]
func (h *ForumHandler) ListTopics(c *gin.Context) {
	var req dto.TopicListRequest
	if !h.BindAndValidate_Query(c, &req) {
		return
	}

	list, err := h.forumService.ListTopics(c.Request.Context(), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	respondList(c, list)
}

// GetTopic godoc
// @Summary Topic with its replies
// @Tags forum
// @Produce json
// @Param id path string true "Topic ID"
// @Success 200 {object} Response{data=dto.TopicDetailResponse}
// @Router /forum/topics/{id} [get]
func (h *ForumHandler) GetTopic(c *gin.Context) {
	detail, err := h.forumService.GetTopic(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	respondOK(c, detail)
}

func (h *ForumHandler) CreateTopic(c *gin.Context) {
	actor, ok := h.GetActor(c)
	if !ok {
		return
	}
	var req dto.CreateTopicRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	topic, err := h.forumService.CreateTopic(c.Request.Context(), h.GetDB(c), actor, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	respondCreated(c, topic, "Sujet créé")
}

func (h *ForumHandler) UpdateTopic(c *gin.Context) {
	actor, ok := h.GetActor(c)
	if !ok {
		return
	}
	var req dto.UpdateTopicRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	topic, err := h.forumService.UpdateTopic(c.Request.Context(), actor, c.Param("id"), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	respondOK(c, topic)
}

func (h *ForumHandler) DeleteTopic(c *gin.Context) {
	actor, ok := h.GetActor(c)
	if !ok {
		return
	}

	if err := h.forumService.DeleteTopic(c.Request.Context(), actor, c.Param("id")); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	respondMessage(c, "Sujet supprimé")
}

func (h *ForumHandler) CreateReply(c *gin.Context) {
	actor, ok := h.GetActor(c)
	if !ok {
		return
	}
	var req dto.CreateReplyRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	reply, err := h.forumService.CreateReply(c.Request.Context(), h.GetDB(c), actor, c.Param("id"), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	respondCreated(c, reply, "Réponse publiée")
}

func (h *ForumHandler) DeleteReply(c *gin.Context) {
	actor, ok := h.GetActor(c)
	if !ok {
		return
	}

	if err := h.forumService.DeleteReply(c.Request.Context(), actor, c.Param("id")); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	respondMessage(c, "Réponse supprimée")
}

func (h *ForumHandler) ToggleLike(c *gin.Context) {
	actor, ok := h.GetActor(c)
	if !ok {
		return
	}

	resp, err := h.forumService.ToggleLike(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	respondOK(c, resp)
}
