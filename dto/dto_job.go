package dto

import (
	"strings"

	"jobboard/internal/models"
)

// JobInput is the employer-supplied body for creating or editing a job
type JobInput struct {
	Title          string   `json:"title" validate:"required,max=200"`
	Description    string   `json:"description" validate:"required,max=5000"`
	Barangay       string   `json:"barangay" validate:"required"`
	Address        string   `json:"address" validate:"required"`
	ContactNumber  string   `json:"contact_number" validate:"required,max=32"`
	Skills         []string `json:"skills,omitempty" validate:"omitempty,dive,max=100"`
	Experience     string   `json:"experience,omitempty"`
	ImageRef       string   `json:"image_ref,omitempty"`
	JobType        string   `json:"job_type,omitempty" validate:"omitempty,oneof=full-time part-time"`
	ApplicantLimit int      `json:"applicant_limit" validate:"min=0"`
	// JobStatus only applies on create; edits leave the operational status alone
	JobStatus string `json:"job_status,omitempty" validate:"omitempty,oneof=open closed"`
}

// Normalize trims whitespace so blank strings fail the required checks
func (in *JobInput) Normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Barangay = strings.TrimSpace(in.Barangay)
	in.Address = strings.TrimSpace(in.Address)
	in.ContactNumber = strings.TrimSpace(in.ContactNumber)
	in.Experience = strings.TrimSpace(in.Experience)
	in.ImageRef = strings.TrimSpace(in.ImageRef)
	in.JobType = strings.TrimSpace(in.JobType)
	in.JobStatus = strings.TrimSpace(in.JobStatus)

	skills := in.Skills[:0]
	for _, s := range in.Skills {
		if s = strings.TrimSpace(s); s != "" {
			skills = append(skills, s)
		}
	}
	in.Skills = skills
}

// Details converts the input into the stored job fields, full-time by default
func (in JobInput) Details() models.JobDetails {
	jobType := models.JobType(in.JobType)
	if jobType == "" {
		jobType = models.JobFullTime
	}
	return models.JobDetails{
		Title:          in.Title,
		Description:    in.Description,
		Barangay:       in.Barangay,
		Address:        in.Address,
		ContactNumber:  in.ContactNumber,
		Skills:         in.Skills,
		Experience:     in.Experience,
		ImageRef:       in.ImageRef,
		JobType:        jobType,
		ApplicantLimit: in.ApplicantLimit,
	}
}

// JobListQuery are the seeker-facing listing filters
type JobListQuery struct {
	Barangay  string `query:"barangay"`
	JobType   string `query:"job_type" validate:"omitempty,oneof=full-time part-time"`
	JobStatus string `query:"job_status" validate:"omitempty,oneof=open closed"`
	Q         string `query:"q" validate:"max=100"`
}
