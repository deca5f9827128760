package models

import (
	"strings"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type Role string

const (
	RoleEmployer  Role = "employer"
	RoleJobSeeker Role = "job_seeker"
	RoleAdmin     Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleEmployer, RoleJobSeeker, RoleAdmin:
		return true
	}
	return false
}

// User is written by the auth/profile collaborators; this service only reads it.
type User struct {
	ID        bson.ObjectID `bson:"_id,omitempty" json:"id"`
	Role      Role          `bson:"role" json:"role"`
	FirstName string        `bson:"first_name" json:"first_name"`
	LastName  string        `bson:"last_name" json:"last_name"`
	Email     string        `bson:"email" json:"email"`

	ContactNumber string   `bson:"contact_number,omitempty" json:"contact_number,omitempty"`
	CompanyName   string   `bson:"company_name,omitempty" json:"company_name,omitempty"`
	Barangay      string   `bson:"barangay,omitempty" json:"barangay,omitempty"`
	Address       string   `bson:"address,omitempty" json:"address,omitempty"`
	Skills        []string `bson:"skills,omitempty" json:"skills,omitempty"`

	ResumeRef           string `bson:"resume_ref,omitempty" json:"resume_ref,omitempty"`
	PhotoRef            string `bson:"photo_ref,omitempty" json:"photo_ref,omitempty"`
	BusinessDocumentRef string `bson:"business_document_ref,omitempty" json:"business_document_ref,omitempty"`
}

func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// DisplayCompany is the name stamped onto a job when the employer posts it
func (u *User) DisplayCompany() string {
	if name := strings.TrimSpace(u.CompanyName); name != "" {
		return name
	}
	return u.FullName()
}
