package models

import (
	"time"

	"gorm.io/datatypes"
)

type Job struct {
	BaseModel
	Title        string                      `gorm:"size:200;not null" json:"title"`
	Company      string                      `gorm:"size:200;not null" json:"company"`
	Location     string                      `gorm:"size:120;index" json:"location"`
	Type         JobType                     `gorm:"type:varchar(20);not null;index" json:"type"`
	Sector       string                      `gorm:"size:120;index" json:"sector"`
	Description  string                      `gorm:"type:text;not null" json:"description"`
	Requirements datatypes.JSONSlice[string] `json:"requirements"`
	Salary       string                      `gorm:"size:120" json:"salary,omitempty"`
	ContactEmail string                      `gorm:"size:255" json:"contactEmail,omitempty"`
	ContactPhone string                      `gorm:"size:32" json:"contactPhone,omitempty"`
	Deadline     *time.Time                  `json:"deadline,omitempty"`
	IsActive     bool                        `gorm:"default:true;index" json:"isActive"`
	Views        int                         `gorm:"default:0" json:"views"`
	CreatedBy    string                      `gorm:"type:varchar(36);not null;index" json:"createdBy"`

	Applications []JobApplication `gorm:"foreignKey:JobID" json:"applications,omitempty"`
}

// AcceptsApplications is false for closed jobs and jobs past their deadline.
func (j *Job) AcceptsApplications(now time.Time) bool {
	if !j.IsActive {
		return false
	}
	return j.Deadline == nil || j.Deadline.After(now)
}

type JobApplication struct {
	BaseModel
	JobID       string            `gorm:"type:varchar(36);not null;uniqueIndex:idx_job_applicant" json:"jobId"`
	UserID      string            `gorm:"type:varchar(36);not null;uniqueIndex:idx_job_applicant;index" json:"userId"`
	CoverLetter string            `gorm:"type:text" json:"coverLetter"`
	ResumeURL   string            `gorm:"size:500" json:"resumeUrl,omitempty"`
	Status      ApplicationStatus `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`

	Applicant *User `gorm:"foreignKey:UserID" json:"applicant,omitempty"`
	Job       *Job  `gorm:"foreignKey:JobID" json:"job,omitempty"`
}
