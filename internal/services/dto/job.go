package dto

import (
	"time"

	"businessconnect_backend/internal/models"
)

type CreateJobRequest struct {
	Title        string         `json:"title" validate:"required,min=3,max=200"`
	Company      string         `json:"company" validate:"required,max=200"`
	Location     string         `json:"location" validate:"omitempty,max=120"`
	Type         models.JobType `json:"type" validate:"required,is-job-type"`
	Sector       string         `json:"sector" validate:"omitempty,max=120"`
	Description  string         `json:"description" validate:"required,min=10"`
	Requirements []string       `json:"requirements" validate:"omitempty,max=30,dive,min=1,max=300"`
	Salary       string         `json:"salary" validate:"omitempty,max=120"`
	ContactEmail string         `json:"contactEmail" validate:"omitempty,email"`
	ContactPhone string         `json:"contactPhone" validate:"omitempty,sn-phone"`
	Deadline     *time.Time     `json:"deadline"`
}

// UpdateJobRequest only touches the fields that are present.
type UpdateJobRequest struct {
	Title        *string         `json:"title" validate:"omitempty,min=3,max=200"`
	Company      *string         `json:"company" validate:"omitempty,max=200"`
	Location     *string         `json:"location" validate:"omitempty,max=120"`
	Type         *models.JobType `json:"type" validate:"omitempty,is-job-type"`
	Sector       *string         `json:"sector" validate:"omitempty,max=120"`
	Description  *string         `json:"description" validate:"omitempty,min=10"`
	Requirements []string        `json:"requirements" validate:"omitempty,max=30,dive,min=1,max=300"`
	Salary       *string         `json:"salary" validate:"omitempty,max=120"`
	ContactEmail *string         `json:"contactEmail" validate:"omitempty,email"`
	ContactPhone *string         `json:"contactPhone" validate:"omitempty,sn-phone"`
	Deadline     *time.Time      `json:"deadline"`
	IsActive     *bool           `json:"isActive"`
}

type JobSearchRequest struct {
	PageRequest
	Search   string         `form:"q" validate:"omitempty,max=100"`
	Type     models.JobType `form:"type" validate:"omitempty,is-job-type"`
	Sector   string         `form:"sector" validate:"omitempty,max=120"`
	Location string         `form:"location" validate:"omitempty,max=120"`
}

type ApplyJobRequest struct {
	CoverLetter string `json:"coverLetter" validate:"required,min=10,max=5000"`
	ResumeURL   string `json:"resumeUrl" validate:"omitempty,url,max=500"`
}

type UpdateApplicationStatusRequest struct {
	Status models.ApplicationStatus `json:"status" validate:"required,is-application-status"`
}
