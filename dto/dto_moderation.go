package dto

import "jobboard/internal/models"

const (
	DecisionApprove = "approve"
	DecisionReject  = "reject"
)

type DecisionRequest struct {
	Decision string `json:"decision" validate:"required,oneof=approve reject"`
	Reason   string `json:"reason,omitempty" validate:"max=500"`
}

// EmployerProfile is the subset of the employer's user record shown to reviewers
type EmployerProfile struct {
	ID                  string `json:"id"`
	Name                string `json:"name"`
	Email               string `json:"email"`
	CompanyName         string `json:"company_name,omitempty"`
	ContactNumber       string `json:"contact_number,omitempty"`
	Barangay            string `json:"barangay,omitempty"`
	Address             string `json:"address,omitempty"`
	BusinessDocumentRef string `json:"business_document_ref,omitempty"`
}

func NewEmployerProfile(u *models.User) *EmployerProfile {
	if u == nil {
		return nil
	}
	return &EmployerProfile{
		ID:                  u.ID.Hex(),
		Name:                u.FullName(),
		Email:               u.Email,
		CompanyName:         u.CompanyName,
		ContactNumber:       u.ContactNumber,
		Barangay:            u.Barangay,
		Address:             u.Address,
		BusinessDocumentRef: u.BusinessDocumentRef,
	}
}

// PendingJob is a job awaiting review joined with its employer; Employer is nil when the
// profile no longer exists
type PendingJob struct {
	Job      models.Job       `json:"job"`
	Employer *EmployerProfile `json:"employer"`
}
