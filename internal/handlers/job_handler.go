package handlers

import (
	"github.com/gin-gonic/gin"

	"businessconnect_backend/internal/middleware"
	"businessconnect_backend/internal/models"
	"businessconnect_backend/internal/services"
	"businessconnect_backend/internal/services/dto"
)

type JobHandler struct {
	*BaseHandler
	jobService services.JobService
}

func NewJobHandler(base *BaseHandler, jobService services.JobService) *JobHandler {
	return &JobHandler{
		BaseHandler: base,
		jobService:  jobService,
	}
}

func (h *JobHandler) RegisterRoutes(rg *gin.RouterGroup) {
	jobs := rg.Group("/jobs")
	{
		jobs.GET("", h.ListJobs)
		jobs.GET("/:id", h.GetJob)
	}

	protected := jobs.Group("")
	protected.Use(h.Auth())
	{
		protected.GET("/mine", h.MyJobs)
		protected.GET("/applications/mine", h.MyApplications)

		protected.POST("", middleware.RequireRoles(models.UserRoleAdmin, models.UserRoleRecruteur, models.UserRoleEmployeur), h.CreateJob)
		protected.PUT("/:id", h.UpdateJob)
		protected.DELETE("/:id", h.DeleteJob)

		protected.POST("/:id/apply", h.Apply)
		protected.GET("/:id/applications", h.ListApplications)
		protected.PUT("/:id/applications/:applicationId", h.UpdateApplicationStatus)
	}
}

// ListJobs godoc
// @Summary List open job offers
// @Tags jobs
// @Produce json
// @Param q query string false "Search in title, company and description"
// @Param type query string false "Contract type"
// @Param sector query string false "Sector"
// @Param location query string false "Location"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} Response{data=[]models.Job}
// @Router /jobs [get]
func (h *JobHandler) ListJobs(c *gin.Context) {
	var req dto.JobSearchRequest
	if !h.BindAndValidate_Query(c, &req) {
		return
	}

	list, err := h.jobService.ListJobs(h.GetDB(c), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	respondList(c, list)
}

// GetJob godoc
// @Summary Job offer details
// @Tags jobs
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} Response{data=models.Job}
// @Failure 404 {object} apperrors.ErrorResponse
// @Router /jobs/{id} [get]
func (h *JobHandler) GetJob(c *gin.Context) {
	job, err := h.jobService.GetJob(c.Request.Context(), h.GetDB(c), c.Param("id"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	respondOK(c, job)
}

// CreateJob godoc
// @Summary Publish a job offer
// @Tags jobs
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body dto.CreateJobRequest true "Job"
// @Success 201 {object} Response{data=models.Job}
// @Failure 403 {object} apperrors.ErrorResponse
// @Router /jobs [post]
func (h *JobHandler) CreateJob(c *gin.Context) {
	actor, ok := h.GetActor(c)
	if !ok {
		return
	}
	var req dto.CreateJobRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	job, err := h.jobService.CreateJob(c.Request.Context(), h.GetDB(c), actor, &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	respondCreated(c, job, "Offre publiée")
}

func (h *JobHandler) UpdateJob(c *gin.Context) {
	actor, ok := h.GetActor(c)
	if !ok {
		return
	}
	var req dto.UpdateJobRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	job, err := h.jobService.UpdateJob(c.Request.Context(), h.GetDB(c), actor, c.Param("id"), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	respondOK(c, job)
}

func (h *JobHandler) DeleteJob(c *gin.Context) {
	actor, ok := h.GetActor(c)
	if !ok {
		return
	}

	if err := h.jobService.DeleteJob(c.Request.Context(), h.GetDB(c), actor, c.Param("id")); err != nil {
		h.HandleServiceError(c, err)
		return
	}
	respondMessage(c, "Offre supprimée")
}

func (h *JobHandler) MyJobs(c *gin.Context) {
	actor, ok := h.GetActor(c)
	if !ok {
		return
	}
	var page dto.PageRequest
	if !h.BindAndValidate_Query(c, &page) {
		return
	}

	list, err := h.jobService.MyJobs(h.GetDB(c), actor, page)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	respondList(c, list)
}

// Apply godoc
// @Summary Apply to a job offer
// @Tags jobs
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Job ID"
// @Param request body dto.ApplyJobRequest true "Application"
// @Success 201 {object} Response{data=models.JobApplication}
// @Failure 400 {object} apperrors.ErrorResponse
// @Failure 409 {object} apperrors.ErrorResponse
// @Router /jobs/{id}/apply [post]
func (h *JobHandler) Apply(c *gin.Context) {
	actor, ok := h.GetActor(c)
	if !ok {
		return
	}
	var req dto.ApplyJobRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	application, err := h.jobService.Apply(c.Request.Context(), h.GetDB(c), actor, c.Param("id"), &req)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	respondCreated(c, application, "Candidature envoyée")
}

func (h *JobHandler) ListApplications(c *gin.Context) {
	actor, ok := h.GetActor(c)
	if !ok {
		return
	}

	applications, err := h.jobService.ListApplications(h.GetDB(c), actor, c.Param("id"))
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	respondOK(c, applications)
}

func (h *JobHandler) UpdateApplicationStatus(c *gin.Context) {
	actor, ok := h.GetActor(c)
	if !ok {
		return
	}
	var req dto.UpdateApplicationStatusRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	application, err := h.jobService.UpdateApplicationStatus(c.Request.Context(), h.GetDB(c), actor,
		c.Param("id"), c.Param("applicationId"), req.Status)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	respondOK(c, application)
}

func (h *JobHandler) MyApplications(c *gin.Context) {
	actor, ok := h.GetActor(c)
	if !ok {
		return
	}

	applications, err := h.jobService.MyApplications(h.GetDB(c), actor)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}
	respondOK(c, applications)
}
