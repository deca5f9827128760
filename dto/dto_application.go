package dto

import "jobboard/internal/models"

type ApplicationStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending scheduled accepted rejected"`
}

// SeekerJobApplication is the seeker's view of one job: the latest application plus older ones
type SeekerJobApplication struct {
	JobID   string               `json:"job_id"`
	Latest  models.Application   `json:"latest"`
	History []models.Application `json:"history,omitempty"`
	// CanReapply is true when the latest application was rejected
	CanReapply bool `json:"can_reapply"`
}
