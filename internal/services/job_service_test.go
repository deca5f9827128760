package services

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"jobboard/dto"
	"jobboard/errors"
	"jobboard/internal/models"
	"jobboard/internal/repository"
)

func TestCreateAlwaysStartsPending(t *testing.T) {
	f := newFixture(t, EditPreserve)
	ctx := context.Background()

	for _, status := range []string{"", "open", "closed"} {
		in := jobInput(3)
		in.JobStatus = status
		job, err := f.jobs.Create(ctx, f.employer, in)
		require.NoError(t, err)

		assert.Equal(t, models.ApprovalPending, job.ApprovalStatus)
		assert.True(t, job.ApprovalStatus.Valid())
		assert.Empty(t, job.RejectionReason)
		if status == "closed" {
			assert.Equal(t, models.JobClosed, job.JobStatus)
		} else {
			assert.Equal(t, models.JobOpen, job.JobStatus)
		}
	}
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t, EditPreserve)

	tests := []struct {
		name   string
		mutate func(in *dto.JobInput)
	}{
		{"blank title", func(in *dto.JobInput) { in.Title = "   " }},
		{"missing description", func(in *dto.JobInput) { in.Description = "" }},
		{"missing contact number", func(in *dto.JobInput) { in.ContactNumber = "" }},
		{"missing address", func(in *dto.JobInput) { in.Address = "" }},
		{"missing barangay", func(in *dto.JobInput) { in.Barangay = "\t" }},
		{"negative limit", func(in *dto.JobInput) { in.ApplicantLimit = -1 }},
		{"unknown job type", func(in *dto.JobInput) { in.JobType = "seasonal" }},
		{"unknown job status", func(in *dto.JobInput) { in.JobStatus = "paused" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := jobInput(1)
			tt.mutate(&in)
			_, err := f.jobs.Create(context.Background(), f.employer, in)
			assert.True(t, errors.IsValidation(err), "got %v", err)
		})
	}

	jobs, err := f.jobs.ListByEmployer(context.Background(), f.employer)
	require.NoError(t, err)
	assert.Empty(t, jobs, "invalid input must never be persisted")
}

func TestCreateDefaultsAndTrimming(t *testing.T) {
	f := newFixture(t, EditPreserve)
	in := jobInput(0)
	in.JobType = ""
	in.Title = "  Bakery Helper  "
	in.Skills = []string{" baking ", "", "  "}

	job, err := f.jobs.Create(context.Background(), f.employer, in)
	require.NoError(t, err)
	assert.Equal(t, models.JobFullTime, job.JobType)
	assert.Equal(t, "Bakery Helper", job.Title)
	assert.Equal(t, []string{"baking"}, job.Skills)
	assert.Equal(t, 0, job.ApplicantLimit)
}

func TestCreateCopiesCompanyName(t *testing.T) {
	f := newFixture(t, EditPreserve)
	ctx := context.Background()
	job := f.pendingJob(t, 1)
	assert.Equal(t, "Panaderia Maria", job.CompanyName)

	employer, err := f.store.GetUser(ctx, f.employer)
	require.NoError(t, err)
	employer.CompanyName = "Maria's Bakeshop"
	require.NoError(t, f.store.UpsertUser(ctx, employer))

	assert.Equal(t, "Panaderia Maria", f.job(t, job.ID).CompanyName)

	soleProp := f.user(t, models.RoleEmployer, "Pedro", "")
	own, err := f.jobs.Create(ctx, soleProp, jobInput(1))
	require.NoError(t, err)
	assert.Equal(t, "Pedro Santos", own.CompanyName)
}

func TestCreateRequiresEmployer(t *testing.T) {
	f := newFixture(t, EditPreserve)
	ctx := context.Background()

	_, err := f.jobs.Create(ctx, f.seeker(t, "Juan"), jobInput(1))
	assert.True(t, errors.IsForbidden(err))

	_, err = f.jobs.Create(ctx, bson.NewObjectID(), jobInput(1))
	assert.True(t, errors.IsNotFound(err))
}

// Scenario C
func TestApprovalGatesSeekerListing(t *testing.T) {
	f := newFixture(t, EditPreserve)
	ctx := context.Background()

	job := f.pendingJob(t, 0)
	listed, err := f.jobs.ListApproved(ctx, dto.JobListQuery{})
	require.NoError(t, err)
	assert.Empty(t, listed)

	_, err = f.jobs.Approve(ctx, job.ID)
	require.NoError(t, err)
	listed, err = f.jobs.ListApproved(ctx, dto.JobListQuery{})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, job.ID, listed[0].ID)

	other := f.pendingJob(t, 0)
	rejected, err := f.jobs.Reject(ctx, other.ID, "duplicate posting")
	require.NoError(t, err)
	assert.Equal(t, models.ApprovalRejected, rejected.ApprovalStatus)

	listed, err = f.jobs.ListApproved(ctx, dto.JobListQuery{})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.NotEqual(t, other.ID, listed[0].ID)

	own, err := f.jobs.ListByEmployer(ctx, f.employer)
	require.NoError(t, err)
	require.Len(t, own, 2)
	var found bool
	for _, j := range own {
		if j.ID == other.ID {
			found = true
			assert.Equal(t, "duplicate posting", j.RejectionReason)
		}
	}
	assert.True(t, found)
}

func TestListApprovedFilters(t *testing.T) {
	f := newFixture(t, EditPreserve)
	ctx := context.Background()
	f.approvedJob(t, 0)

	in := jobInput(0)
	in.Title = "Rice Delivery Driver"
	in.Barangay = "Poblacion"
	in.JobType = "full-time"
	driver, err := f.jobs.Create(ctx, f.employer, in)
	require.NoError(t, err)
	_, err = f.jobs.Approve(ctx, driver.ID)
	require.NoError(t, err)

	listed, err := f.jobs.ListApproved(ctx, dto.JobListQuery{Q: "driver", Barangay: "Poblacion", JobType: "full-time"})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, driver.ID, listed[0].ID)

	_, err = f.jobs.ListApproved(ctx, dto.JobListQuery{JobType: "temporary"})
	assert.True(t, errors.IsValidation(err))
}

func TestGetVisible(t *testing.T) {
	f := newFixture(t, EditPreserve)
	ctx := context.Background()
	job := f.pendingJob(t, 0)
	stranger := Actor{ID: f.seeker(t, "Juan"), Role: models.RoleJobSeeker}

	_, err := f.jobs.GetVisible(ctx, stranger, job.ID)
	assert.True(t, errors.IsNotFound(err))

	_, err = f.jobs.GetVisible(ctx, Actor{ID: f.employer, Role: models.RoleEmployer}, job.ID)
	assert.NoError(t, err)
	_, err = f.jobs.GetVisible(ctx, f.reviewer(), job.ID)
	assert.NoError(t, err)
}

func TestRejectRequiresReason(t *testing.T) {
	f := newFixture(t, EditPreserve)
	job := f.pendingJob(t, 0)

	_, err := f.jobs.Reject(context.Background(), job.ID, "   ")
	assert.True(t, errors.IsValidation(err))
	assert.Equal(t, models.ApprovalPending, f.job(t, job.ID).ApprovalStatus)
}

func TestApprovalTransitions(t *testing.T) {
	f := newFixture(t, EditPreserve)
	ctx := context.Background()

	job := f.pendingJob(t, 0)
	_, err := f.jobs.Reject(ctx, job.ID, "missing salary")
	require.NoError(t, err)

	// Re-rejecting updates the reason
	again, err := f.jobs.Reject(ctx, job.ID, "missing salary range")
	require.NoError(t, err)
	assert.Equal(t, "missing salary range", again.RejectionReason)

	approved, err := f.jobs.Approve(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ApprovalApproved, approved.ApprovalStatus)
	assert.Empty(t, approved.RejectionReason)

	same, err := f.jobs.Approve(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, approved.UpdatedAt, same.UpdatedAt, "approving twice must not write")

	_, err = f.jobs.Reject(ctx, job.ID, "changed my mind")
	assert.True(t, errors.IsInvalidTransition(err))

	_, err = f.jobs.Approve(ctx, bson.NewObjectID())
	assert.True(t, errors.IsNotFound(err))
}

// Scenario D
func TestEditPreservesApprovalByDefault(t *testing.T) {
	f := newFixture(t, EditPreserve)
	job := f.approvedJob(t, 0)

	in := jobInput(0)
	in.Description = "Now includes weekend shifts"
	edited, err := f.jobs.Edit(context.Background(), f.employer, job.ID, in)
	require.NoError(t, err)

	assert.Equal(t, models.ApprovalApproved, edited.ApprovalStatus)
	assert.Equal(t, "Now includes weekend shifts", edited.Description)
	assert.Equal(t, job.CreatedAt, edited.CreatedAt)
	assert.Equal(t, job.CompanyName, edited.CompanyName)
	assert.Equal(t, job.JobStatus, edited.JobStatus)
}

func TestEditResubmitPolicy(t *testing.T) {
	f := newFixture(t, EditResubmit)
	ctx := context.Background()

	approved := f.approvedJob(t, 0)
	edited, err := f.jobs.Edit(ctx, f.employer, approved.ID, jobInput(0))
	require.NoError(t, err)
	assert.Equal(t, models.ApprovalPending, edited.ApprovalStatus)

	rejected := f.pendingJob(t, 0)
	_, err = f.jobs.Reject(ctx, rejected.ID, "blurry photo")
	require.NoError(t, err)
	edited, err = f.jobs.Edit(ctx, f.employer, rejected.ID, jobInput(0))
	require.NoError(t, err)
	assert.Equal(t, models.ApprovalPending, edited.ApprovalStatus)
	assert.Empty(t, edited.RejectionReason)
}

func TestEditPreservePolicyKeepsRejection(t *testing.T) {
	f := newFixture(t, EditPreserve)
	ctx := context.Background()
	job := f.pendingJob(t, 0)
	_, err := f.jobs.Reject(ctx, job.ID, "blurry photo")
	require.NoError(t, err)

	edited, err := f.jobs.Edit(ctx, f.employer, job.ID, jobInput(0))
	require.NoError(t, err)
	assert.Equal(t, models.ApprovalRejected, edited.ApprovalStatus)
	assert.Equal(t, "blurry photo", edited.RejectionReason)
}

func TestEditOwnershipAndValidation(t *testing.T) {
	f := newFixture(t, EditPreserve)
	ctx := context.Background()
	job := f.approvedJob(t, 0)
	other := f.user(t, models.RoleEmployer, "Rosa", "Rosa Hardware")

	_, err := f.jobs.Edit(ctx, other, job.ID, jobInput(0))
	assert.True(t, errors.IsForbidden(err))

	bad := jobInput(0)
	bad.Title = ""
	_, err = f.jobs.Edit(ctx, f.employer, job.ID, bad)
	assert.True(t, errors.IsValidation(err))
	assert.Equal(t, "Bakery Helper", f.job(t, job.ID).Title)
}

func TestEditLoweringLimitClosesFullJob(t *testing.T) {
	f := newFixture(t, EditPreserve)
	ctx := context.Background()
	job := f.approvedJob(t, 5)
	for _, name := range []string{"Ana", "Ben"} {
		_, err := f.apps.Apply(ctx, f.seeker(t, name), job.ID)
		require.NoError(t, err)
	}

	edited, err := f.jobs.Edit(ctx, f.employer, job.ID, jobInput(2))
	require.NoError(t, err)
	assert.Equal(t, models.JobClosed, edited.JobStatus)
	assert.Equal(t, models.ClosedBySystem, edited.ClosedBy)
}

func TestToggleStatus(t *testing.T) {
	f := newFixture(t, EditPreserve)
	ctx := context.Background()

	pending := f.pendingJob(t, 0)
	_, err := f.jobs.ToggleStatus(ctx, f.employer, pending.ID)
	assert.True(t, errors.IsInvalidTransition(err))

	job := f.approvedJob(t, 0)
	closed, err := f.jobs.ToggleStatus(ctx, f.employer, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobClosed, closed.JobStatus)
	assert.Equal(t, models.ClosedByEmployer, closed.ClosedBy)

	reopened, err := f.jobs.ToggleStatus(ctx, f.employer, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobOpen, reopened.JobStatus)
	assert.Empty(t, reopened.ClosedBy)

	_, err = f.jobs.ToggleStatus(ctx, f.admin, job.ID)
	assert.True(t, errors.IsForbidden(err))
}

func TestResubmit(t *testing.T) {
	f := newFixture(t, EditPreserve)
	ctx := context.Background()
	job := f.pendingJob(t, 0)

	_, err := f.jobs.Resubmit(ctx, f.employer, job.ID)
	assert.True(t, errors.IsInvalidTransition(err))

	_, err = f.jobs.Reject(ctx, job.ID, "duplicate posting")
	require.NoError(t, err)
	resubmitted, err := f.jobs.Resubmit(ctx, f.employer, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ApprovalPending, resubmitted.ApprovalStatus)
	assert.Empty(t, resubmitted.RejectionReason)
}

func TestDeleteKeepsApplicationHistory(t *testing.T) {
	f := newFixture(t, EditPreserve)
	ctx := context.Background()
	job := f.approvedJob(t, 0)
	seeker := f.seeker(t, "Juan")
	_, err := f.apps.Apply(ctx, seeker, job.ID)
	require.NoError(t, err)

	other := f.user(t, models.RoleEmployer, "Rosa", "Rosa Hardware")
	assert.True(t, errors.IsForbidden(f.jobs.Delete(ctx, other, job.ID)))

	require.NoError(t, f.jobs.Delete(ctx, f.employer, job.ID))
	_, err = f.jobs.Get(ctx, job.ID)
	assert.True(t, errors.IsNotFound(err))

	mine, err := f.apps.ListBySeeker(ctx, seeker)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "Bakery Helper", mine[0].Latest.Job.JobTitle)
}

func TestShouldAutoClose(t *testing.T) {
	open := func(limit int) *models.Job {
		return &models.Job{JobDetails: models.JobDetails{ApplicantLimit: limit}, JobStatus: models.JobOpen}
	}
	closed := open(2)
	closed.JobStatus = models.JobClosed

	assert.False(t, ShouldAutoClose(nil, 10))
	assert.False(t, ShouldAutoClose(open(0), 0))
	assert.False(t, ShouldAutoClose(open(0), 1000))
	assert.False(t, ShouldAutoClose(open(3), 2))
	assert.True(t, ShouldAutoClose(open(3), 3))
	assert.True(t, ShouldAutoClose(open(3), 4))
	assert.False(t, ShouldAutoClose(closed, 5))
}

func TestAutoCloseNeverFiresWithoutLimit(t *testing.T) {
	f := newFixture(t, EditPreserve)
	ctx := context.Background()
	job := f.approvedJob(t, 0)

	for _, count := range []int{0, 1, 50, 10000} {
		closed, err := f.jobs.AutoClose(ctx, job.ID, count)
		require.NoError(t, err)
		assert.False(t, closed)
	}
	assert.Equal(t, models.JobOpen, f.job(t, job.ID).JobStatus)
}

func TestAutoCloseIsIdempotent(t *testing.T) {
	f := newFixture(t, EditPreserve)
	ctx := context.Background()
	job := f.approvedJob(t, 2)

	closed, err := f.jobs.AutoClose(ctx, job.ID, 1)
	require.NoError(t, err)
	assert.False(t, closed)

	closed, err = f.jobs.AutoClose(ctx, job.ID, 2)
	require.NoError(t, err)
	assert.True(t, closed)
	after := f.job(t, job.ID)
	assert.Equal(t, models.JobClosed, after.JobStatus)
	assert.Equal(t, models.ClosedBySystem, after.ClosedBy)

	closed, err = f.jobs.AutoClose(ctx, job.ID, 2)
	require.NoError(t, err)
	assert.False(t, closed)
	assert.Equal(t, after.UpdatedAt, f.job(t, job.ID).UpdatedAt)

	notes, err := f.notifier.List(ctx, f.employer, 0)
	require.NoError(t, err)
	var autoClosed int
	for _, n := range notes {
		if n.Type == NotiJobAutoClosed {
			autoClosed++
		}
	}
	assert.Equal(t, 1, autoClosed)
}

func TestAutoCloseStaysClosedUntilManualReopen(t *testing.T) {
	f := newFixture(t, EditPreserve)
	ctx := context.Background()
	job := f.approvedJob(t, 1)

	closed, err := f.jobs.AutoClose(ctx, job.ID, 1)
	require.NoError(t, err)
	require.True(t, closed)

	// Count dropping does not reopen
	closed, err = f.jobs.AutoClose(ctx, job.ID, 0)
	require.NoError(t, err)
	assert.False(t, closed)
	assert.Equal(t, models.JobClosed, f.job(t, job.ID).JobStatus)

	reopened, err := f.jobs.ToggleStatus(ctx, f.employer, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobOpen, reopened.JobStatus)
}

// closeCounter counts successful system closes that reach the store
type closeCounter struct {
	*repository.MemoryStore
	closes atomic.Int32
}

func (c *closeCounter) UpdateJob(ctx context.Context, id bson.ObjectID, u repository.JobUpdate, at time.Time) (*models.Job, error) {
	job, err := c.MemoryStore.UpdateJob(ctx, id, u, at)
	if err == nil && u.ClosedBy != nil && *u.ClosedBy == models.ClosedBySystem {
		c.closes.Add(1)
	}
	return job, err
}

func TestConcurrentAutoCloseWritesOnce(t *testing.T) {
	f := newFixture(t, EditPreserve)
	job := f.approvedJob(t, 3)

	counter := &closeCounter{MemoryStore: f.store}
	jobs := NewJobService(counter, nil, f.jobs.log, EditPreserve)

	var wg sync.WaitGroup
	var wins atomic.Int32
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			closed, err := jobs.AutoClose(context.Background(), job.ID, 3)
			assert.NoError(t, err)
			if closed {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), wins.Load())
	assert.Equal(t, int32(1), counter.closes.Load())
	assert.Equal(t, models.JobClosed, f.job(t, job.ID).JobStatus)
}
