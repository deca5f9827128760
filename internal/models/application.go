package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type ApplicationStatus string

const (
	ApplicationPending   ApplicationStatus = "pending"
	ApplicationScheduled ApplicationStatus = "scheduled"
	ApplicationAccepted  ApplicationStatus = "accepted"
	ApplicationRejected  ApplicationStatus = "rejected"
)

func (s ApplicationStatus) Valid() bool {
	switch s {
	case ApplicationPending, ApplicationScheduled, ApplicationAccepted, ApplicationRejected:
		return true
	}
	return false
}

// Active reports whether an application with this status blocks reapplying and counts toward capacity
func (s ApplicationStatus) Active() bool {
	return s.Valid() && s != ApplicationRejected
}

// SeekerSnapshot is the seeker profile as it was when the application was submitted
type SeekerSnapshot struct {
	SeekerName    string   `bson:"seeker_name" json:"seeker_name"`
	ContactNumber string   `bson:"contact_number,omitempty" json:"contact_number,omitempty"`
	Email         string   `bson:"email,omitempty" json:"email,omitempty"`
	Skills        []string `bson:"skills,omitempty" json:"skills,omitempty"`
	ResumeRef     string   `bson:"resume_ref,omitempty" json:"resume_ref,omitempty"`
	PhotoRef      string   `bson:"photo_ref,omitempty" json:"photo_ref,omitempty"`
}

// JobSnapshot keeps the posting's details readable after the job is edited or deleted
type JobSnapshot struct {
	JobTitle       string `bson:"job_title" json:"job_title"`
	CompanyName    string `bson:"company_name" json:"company_name"`
	JobDescription string `bson:"job_description" json:"job_description"`
}

type Application struct {
	ID         bson.ObjectID `bson:"_id,omitempty" json:"id" swaggertype:"string"`
	JobID      bson.ObjectID `bson:"job_id" json:"job_id" swaggertype:"string"`
	SeekerID   bson.ObjectID `bson:"seeker_id" json:"seeker_id" swaggertype:"string"`
	EmployerID bson.ObjectID `bson:"employer_id" json:"employer_id" swaggertype:"string"`

	Seeker SeekerSnapshot `bson:"seeker" json:"seeker"`
	Job    JobSnapshot    `bson:"job" json:"job"`

	Status ApplicationStatus `bson:"status" json:"status"`
	// Active mirrors Status.Active(); the store's unique partial index keys on it
	Active bool `bson:"active" json:"-"`

	AppliedAt time.Time `bson:"applied_at" json:"applied_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// Change operations, named after the change stream operationType values
const (
	ChangeInsert  = "insert"
	ChangeUpdate  = "update"
	ChangeReplace = "replace"
	ChangeDelete  = "delete"
)

// ApplicationChange is a change signal for one application. Consumers re-query for state.
type ApplicationChange struct {
	ApplicationID bson.ObjectID
	JobID         bson.ObjectID
	Operation     string
}

// JobChange is a change signal for one job.
type JobChange struct {
	JobID     bson.ObjectID
	Operation string
}
