package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.uber.org/zap"

	"jobboard/dto"
	"jobboard/internal/models"
	"jobboard/internal/repository"
)

type fixture struct {
	store      *repository.MemoryStore
	notifier   *Notifier
	jobs       *JobService
	apps       *ApplicationService
	moderation *ModerationService

	employer bson.ObjectID
	admin    bson.ObjectID
}

// steppingClock advances one millisecond per call so every write gets a distinct timestamp
func steppingClock() Clock {
	var mu sync.Mutex
	t := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Millisecond)
		return t
	}
}

func newFixture(t *testing.T, policy EditApprovalPolicy) *fixture {
	t.Helper()
	log := zap.NewNop().Sugar()
	store := repository.NewMemoryStore()
	clock := steppingClock()

	notifier := NewNotifier(store, log)
	notifier.now = clock
	jobs := NewJobService(store, notifier, log, policy)
	jobs.now = clock
	apps := NewApplicationService(store, jobs, notifier, log)
	apps.now = clock

	f := &fixture{
		store:      store,
		notifier:   notifier,
		jobs:       jobs,
		apps:       apps,
		moderation: NewModerationService(store, jobs, notifier, log),
	}
	f.employer = f.user(t, models.RoleEmployer, "Maria", "Panaderia Maria")
	f.admin = f.user(t, models.RoleAdmin, "Admin", "")
	return f
}

func (f *fixture) user(t *testing.T, role models.Role, name, company string) bson.ObjectID {
	t.Helper()
	u := &models.User{
		Role:          role,
		FirstName:     name,
		LastName:      "Santos",
		Email:         name + "@example.com",
		ContactNumber: "09170000000",
		CompanyName:   company,
		Skills:        []string{"customer service"},
		ResumeRef:     "files/" + name + "/resume.pdf",
	}
	require.NoError(t, f.store.UpsertUser(context.Background(), u))
	return u.ID
}

func (f *fixture) seeker(t *testing.T, name string) bson.ObjectID {
	return f.user(t, models.RoleJobSeeker, name, "")
}

func jobInput(limit int) dto.JobInput {
	return dto.JobInput{
		Title:          "Bakery Helper",
		Description:    "Early shift, kneading and packing",
		Barangay:       "San Isidro",
		Address:        "45 Mabini St",
		ContactNumber:  "09171234567",
		Skills:         []string{"baking"},
		JobType:        "part-time",
		ApplicantLimit: limit,
	}
}

func (f *fixture) pendingJob(t *testing.T, limit int) *models.Job {
	t.Helper()
	job, err := f.jobs.Create(context.Background(), f.employer, jobInput(limit))
	require.NoError(t, err)
	return job
}

func (f *fixture) approvedJob(t *testing.T, limit int) *models.Job {
	t.Helper()
	job := f.pendingJob(t, limit)
	approved, err := f.jobs.Approve(context.Background(), job.ID)
	require.NoError(t, err)
	return approved
}

func (f *fixture) job(t *testing.T, id bson.ObjectID) *models.Job {
	t.Helper()
	job, err := f.store.GetJob(context.Background(), id)
	require.NoError(t, err)
	return job
}

func (f *fixture) reviewer() Actor {
	return Actor{ID: f.admin, Role: models.RoleAdmin}
}
