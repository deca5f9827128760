package dto

type ErrorResponse struct {
	Error   string   `json:"error"`
	Details []string `json:"details,omitempty"`
}

type MessageResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// CountEvent is one frame of the live applicant count stream
type CountEvent struct {
	JobID          string `json:"job_id"`
	Count          int    `json:"count"`
	ApplicantLimit int    `json:"applicant_limit"`
	JobStatus      string `json:"job_status"`
}
