package services

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"jobboard/errors"
	"jobboard/internal/models"
)

// Clock returns the current time. Stored timestamps are UTC with millisecond precision.
type Clock func() time.Time

func systemClock() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

// Actor is the authenticated caller of a command
type Actor struct {
	ID   bson.ObjectID
	Role models.Role
}

func (a Actor) IsAdmin() bool { return a.Role == models.RoleAdmin }

// EditApprovalPolicy decides what an employer edit does to a job's approval status
type EditApprovalPolicy string

const (
	// EditPreserve keeps the approval status and rejection reason as they are
	EditPreserve EditApprovalPolicy = "preserve"
	// EditResubmit sends approved and rejected jobs back to pending on edit
	EditResubmit EditApprovalPolicy = "resubmit"
)

func ParseEditApprovalPolicy(s string) (EditApprovalPolicy, error) {
	switch p := EditApprovalPolicy(s); p {
	case EditPreserve, EditResubmit:
		return p, nil
	case "":
		return EditPreserve, nil
	}
	return "", errors.NewValidationError("unknown edit policy %q", s)
}
