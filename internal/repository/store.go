package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"jobboard/internal/models"
)

// Collection names shared by the Mongo store and the index bootstrap
const (
	CollJobs          = "jobs"
	CollApplications  = "applications"
	CollUsers         = "users"
	CollNotifications = "notifications"
)

// JobFilter narrows ListJobs. Zero values match everything.
type JobFilter struct {
	ApprovalStatus models.ApprovalStatus
	EmployerID     bson.ObjectID
	Barangay       string
	JobType        models.JobType
	JobStatus      models.JobStatus
	TitleQuery     string // case-insensitive substring of the title
}

// ApplicationFilter narrows ListApplications. At least one id should be set.
type ApplicationFilter struct {
	JobID      bson.ObjectID
	SeekerID   bson.ObjectID
	EmployerID bson.ObjectID
}

// JobUpdate is an atomic conditional update of one job.
// Nil fields are left untouched; the If* guards must all hold or the update reports ErrConflict.
type JobUpdate struct {
	Details         *models.JobDetails
	ApprovalStatus  *models.ApprovalStatus
	RejectionReason *string
	JobStatus       *models.JobStatus
	ClosedBy        *models.ClosedBy

	IfApprovalIn []models.ApprovalStatus
	IfJobStatus  *models.JobStatus
	IfEmployerID bson.ObjectID
}

type JobStore interface {
	// InsertJob stores a new job, assigning an id when the job has none
	InsertJob(ctx context.Context, job *models.Job) error
	GetJob(ctx context.Context, id bson.ObjectID) (*models.Job, error)
	// UpdateJob applies u when its guards hold and returns the updated job
	UpdateJob(ctx context.Context, id bson.ObjectID, u JobUpdate, at time.Time) (*models.Job, error)
	DeleteJob(ctx context.Context, id bson.ObjectID) error
	// ListJobs returns matching jobs, newest first
	ListJobs(ctx context.Context, f JobFilter) ([]models.Job, error)
	// ReserveApplicantSlot atomically takes one applicant slot on an approved, open job with
	// room under its limit. ErrConflict when any of those does not hold.
	ReserveApplicantSlot(ctx context.Context, id bson.ObjectID) error
	// ReleaseApplicantSlot gives a slot back. Missing jobs and empty counters are ignored.
	ReleaseApplicantSlot(ctx context.Context, id bson.ObjectID) error
}

type ApplicationStore interface {
	// InsertApplication fails with ErrAlreadyApplied when the seeker already holds an active
	// application for the job
	InsertApplication(ctx context.Context, app *models.Application) error
	GetApplication(ctx context.Context, id bson.ObjectID) (*models.Application, error)
	// ListApplications returns matching applications ordered by applied_at then id, oldest first
	ListApplications(ctx context.Context, f ApplicationFilter) ([]models.Application, error)
	// CountActiveApplications counts the job's applications whose status is not rejected
	CountActiveApplications(ctx context.Context, jobID bson.ObjectID) (int, error)
	// UpdateApplicationStatus moves an application from one status to another, ErrConflict when
	// the stored status is no longer from
	UpdateApplicationStatus(ctx context.Context, id bson.ObjectID, from, to models.ApplicationStatus, at time.Time) (*models.Application, error)
}

type UserStore interface {
	GetUser(ctx context.Context, id bson.ObjectID) (*models.User, error)
	UpsertUser(ctx context.Context, user *models.User) error
}

type NotificationStore interface {
	InsertNotification(ctx context.Context, n *models.Notification) error
	// ListNotifications returns the user's notifications, newest first; limit <= 0 means all
	ListNotifications(ctx context.Context, userID bson.ObjectID, limit int) ([]models.Notification, error)
}

// Watcher delivers change signals. Channels close when ctx is done or the feed fails.
type Watcher interface {
	WatchApplications(ctx context.Context, jobID bson.ObjectID) (<-chan models.ApplicationChange, error)
	WatchJobs(ctx context.Context, jobID bson.ObjectID) (<-chan models.JobChange, error)
}

// Store is the document store the services run against
type Store interface {
	JobStore
	ApplicationStore
	UserStore
	NotificationStore
	Watcher
}

// Ptr returns a pointer to v, for building JobUpdate values
func Ptr[T any](v T) *T { return &v }

func approvalAllowed(current models.ApprovalStatus, allowed []models.ApprovalStatus) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, s := range allowed {
		if s == current {
			return true
		}
	}
	return false
}
