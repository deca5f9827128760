package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

func (s ApprovalStatus) Valid() bool {
	switch s {
	case ApprovalPending, ApprovalApproved, ApprovalRejected:
		return true
	}
	return false
}

type JobStatus string

const (
	JobOpen   JobStatus = "open"
	JobClosed JobStatus = "closed"
)

func (s JobStatus) Valid() bool {
	return s == JobOpen || s == JobClosed
}

type JobType string

const (
	JobFullTime JobType = "full-time"
	JobPartTime JobType = "part-time"
)

func (t JobType) Valid() bool {
	return t == JobFullTime || t == JobPartTime
}

// ClosedBy records who performed the last open -> closed transition
type ClosedBy string

const (
	ClosedByEmployer ClosedBy = "employer"
	ClosedBySystem   ClosedBy = "system"
)

// JobDetails are the employer-editable fields of a posting
type JobDetails struct {
	Title          string   `bson:"title" json:"title"`
	Description    string   `bson:"description" json:"description"`
	Barangay       string   `bson:"barangay" json:"barangay"`
	Address        string   `bson:"address" json:"address"`
	ContactNumber  string   `bson:"contact_number" json:"contact_number"`
	Skills         []string `bson:"skills,omitempty" json:"skills,omitempty"`
	Experience     string   `bson:"experience,omitempty" json:"experience,omitempty"`
	ImageRef       string   `bson:"image_ref,omitempty" json:"image_ref,omitempty"`
	JobType        JobType  `bson:"job_type" json:"job_type"`
	ApplicantLimit int      `bson:"applicant_limit" json:"applicant_limit"` // 0 = unlimited
}

type Job struct {
	ID          bson.ObjectID `bson:"_id,omitempty" json:"id" swaggertype:"string"`
	EmployerID  bson.ObjectID `bson:"employer_id" json:"employer_id" swaggertype:"string"`
	CompanyName string        `bson:"company_name" json:"company_name"`

	JobDetails `bson:",inline"`

	JobStatus       JobStatus      `bson:"job_status" json:"job_status"`
	ClosedBy        ClosedBy       `bson:"closed_by,omitempty" json:"closed_by,omitempty"`
	ApprovalStatus  ApprovalStatus `bson:"approval_status" json:"approval_status"`
	RejectionReason string         `bson:"rejection_reason,omitempty" json:"rejection_reason,omitempty"`

	// ReservedSlots counts admitted non-rejected applications. Apply takes a slot before
	// inserting so the applicant limit holds across concurrent submissions.
	ReservedSlots int `bson:"reserved_slots" json:"-"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// VisibleToSeekers reports whether the job may appear in seeker-facing listings
func (j *Job) VisibleToSeekers() bool {
	return j.ApprovalStatus == ApprovalApproved
}

// OwnedBy reports whether employerID posted the job
func (j *Job) OwnedBy(employerID bson.ObjectID) bool {
	return !employerID.IsZero() && j.EmployerID == employerID
}

// HasFreeSlot reports whether another application may be admitted
func (j *Job) HasFreeSlot() bool {
	return j.ApplicantLimit <= 0 || j.ReservedSlots < j.ApplicantLimit
}

// AtCapacity reports whether count has reached a positive applicant limit
func (j *Job) AtCapacity(count int) bool {
	return j.ApplicantLimit > 0 && count >= j.ApplicantLimit
}
