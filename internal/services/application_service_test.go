package services

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.uber.org/zap"

	"jobboard/errors"
	"jobboard/internal/models"
	"jobboard/internal/repository"
)

// Scenario A
func TestApplyClosesJobAtLimit(t *testing.T) {
	f := newFixture(t, EditPreserve)
	ctx := context.Background()
	job := f.approvedJob(t, 2)

	first, err := f.apps.Apply(ctx, f.seeker(t, "Ana"), job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationPending, first.Status)
	assert.Equal(t, models.JobOpen, f.job(t, job.ID).JobStatus)

	second, err := f.apps.Apply(ctx, f.seeker(t, "Ben"), job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationPending, second.Status)

	after := f.job(t, job.ID)
	assert.Equal(t, models.JobClosed, after.JobStatus)
	assert.Equal(t, models.ClosedBySystem, after.ClosedBy)

	_, err = f.apps.Apply(ctx, f.seeker(t, "Carla"), job.ID)
	assert.True(t, errors.IsJobClosed(err), "got %v", err)
}

func TestRejectedApplicationsDoNotCountTowardLimit(t *testing.T) {
	f := newFixture(t, EditPreserve)
	ctx := context.Background()
	job := f.approvedJob(t, 2)

	first, err := f.apps.Apply(ctx, f.seeker(t, "Ana"), job.ID)
	require.NoError(t, err)
	_, err = f.apps.SetStatus(ctx, f.reviewer(), first.ID, models.ApplicationRejected)
	require.NoError(t, err)

	_, err = f.apps.Apply(ctx, f.seeker(t, "Ben"), job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobOpen, f.job(t, job.ID).JobStatus)

	_, err = f.apps.Apply(ctx, f.seeker(t, "Carla"), job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobClosed, f.job(t, job.ID).JobStatus)
}

// Scenario B
func TestReapplyAfterRejection(t *testing.T) {
	f := newFixture(t, EditPreserve)
	ctx := context.Background()
	job := f.approvedJob(t, 0)
	seeker := f.seeker(t, "Juan")

	old, err := f.apps.Apply(ctx, seeker, job.ID)
	require.NoError(t, err)
	_, err = f.apps.SetStatus(ctx, f.reviewer(), old.ID, models.ApplicationRejected)
	require.NoError(t, err)

	fresh, err := f.apps.Apply(ctx, seeker, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationPending, fresh.Status)
	assert.NotEqual(t, old.ID, fresh.ID)

	stale, err := f.store.GetApplication(ctx, old.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationRejected, stale.Status)

	latest, err := f.apps.Latest(ctx, seeker, job.ID)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, fresh.ID, latest.ID)
}

func TestApplyAlreadyAppliedIffLatestActive(t *testing.T) {
	for _, status := range []models.ApplicationStatus{
		models.ApplicationPending,
		models.ApplicationScheduled,
		models.ApplicationAccepted,
		models.ApplicationRejected,
	} {
		t.Run(string(status), func(t *testing.T) {
			f := newFixture(t, EditPreserve)
			ctx := context.Background()
			job := f.approvedJob(t, 0)
			seeker := f.seeker(t, "Juan")

			app, err := f.apps.Apply(ctx, seeker, job.ID)
			require.NoError(t, err)
			if status != models.ApplicationPending {
				_, err = f.apps.SetStatus(ctx, f.reviewer(), app.ID, status)
				require.NoError(t, err)
			}

			_, err = f.apps.Apply(ctx, seeker, job.ID)
			if status == models.ApplicationRejected {
				assert.NoError(t, err)
			} else {
				assert.True(t, errors.IsAlreadyApplied(err), "got %v", err)
			}
		})
	}
}

func TestApplyWithoutHistorySucceeds(t *testing.T) {
	f := newFixture(t, EditPreserve)
	job := f.approvedJob(t, 0)

	app, err := f.apps.Apply(context.Background(), f.seeker(t, "Juan"), job.ID)
	require.NoError(t, err)
	assert.True(t, app.Active)
	assert.Equal(t, job.EmployerID, app.EmployerID)
}

func TestApplyToClosedJobRegardlessOfApproval(t *testing.T) {
	f := newFixture(t, EditPreserve)
	ctx := context.Background()
	seeker := f.seeker(t, "Juan")

	in := jobInput(0)
	in.JobStatus = "closed"
	pendingClosed, err := f.jobs.Create(ctx, f.employer, in)
	require.NoError(t, err)
	_, err = f.apps.Apply(ctx, seeker, pendingClosed.ID)
	assert.True(t, errors.IsJobClosed(err))

	_, err = f.jobs.Reject(ctx, pendingClosed.ID, "incomplete")
	require.NoError(t, err)
	_, err = f.apps.Apply(ctx, seeker, pendingClosed.ID)
	assert.True(t, errors.IsJobClosed(err))

	approved := f.approvedJob(t, 0)
	_, err = f.jobs.ToggleStatus(ctx, f.employer, approved.ID)
	require.NoError(t, err)
	_, err = f.apps.Apply(ctx, seeker, approved.ID)
	assert.True(t, errors.IsJobClosed(err))
}

func TestApplyToUnapprovedJobIsNotFound(t *testing.T) {
	f := newFixture(t, EditPreserve)
	ctx := context.Background()
	job := f.pendingJob(t, 0)

	_, err := f.apps.Apply(ctx, f.seeker(t, "Juan"), job.ID)
	assert.True(t, errors.IsNotFound(err))

	_, err = f.apps.Apply(ctx, f.seeker(t, "Ana"), bson.NewObjectID())
	assert.True(t, errors.IsNotFound(err))
}

func TestApplyRequiresJobSeeker(t *testing.T) {
	f := newFixture(t, EditPreserve)
	job := f.approvedJob(t, 0)

	_, err := f.apps.Apply(context.Background(), f.employer, job.ID)
	assert.True(t, errors.IsForbidden(err))
}

func TestConcurrentApplyFromOneSeekerAdmitsOne(t *testing.T) {
	f := newFixture(t, EditPreserve)
	job := f.approvedJob(t, 0)
	seeker := f.seeker(t, "Juan")

	const attempts = 16
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.apps.Apply(context.Background(), seeker, job.ID)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.True(t, errors.IsAlreadyApplied(err), "got %v", err)
	}
	assert.Equal(t, 1, succeeded)

	n, err := f.store.CountActiveApplications(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

// slowJobReads widens the gap between an applicant's precondition read and the insert
type slowJobReads struct {
	*repository.MemoryStore
}

func (s slowJobReads) GetJob(ctx context.Context, id bson.ObjectID) (*models.Job, error) {
	time.Sleep(5 * time.Millisecond)
	return s.MemoryStore.GetJob(ctx, id)
}

func TestConcurrentApplyFromManySeekersHonoursLimit(t *testing.T) {
	f := newFixture(t, EditPreserve)
	ctx := context.Background()
	job := f.approvedJob(t, 1)
	apps := NewApplicationService(slowJobReads{f.store}, f.jobs, f.notifier, zap.NewNop().Sugar())

	const seekers = 10
	ids := make([]bson.ObjectID, seekers)
	for i := range ids {
		ids[i] = f.seeker(t, fmt.Sprintf("Seeker%d", i))
	}

	var admitted, refused atomic.Int32
	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id bson.ObjectID) {
			defer wg.Done()
			_, err := apps.Apply(ctx, id, job.ID)
			switch {
			case err == nil:
				admitted.Add(1)
			case errors.IsJobClosed(err):
				refused.Add(1)
			default:
				t.Errorf("unexpected apply error: %v", err)
			}
		}(id)
	}
	wg.Wait()

	assert.EqualValues(t, 1, admitted.Load())
	assert.EqualValues(t, seekers-1, refused.Load())

	n, err := f.store.CountActiveApplications(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	stored := f.job(t, job.ID)
	assert.Equal(t, models.JobClosed, stored.JobStatus)
	assert.Equal(t, 1, stored.ReservedSlots)
}

func TestRejectionFreesApplicantSlot(t *testing.T) {
	f := newFixture(t, EditPreserve)
	ctx := context.Background()
	job := f.approvedJob(t, 2)

	first, err := f.apps.Apply(ctx, f.seeker(t, "Ana"), job.ID)
	require.NoError(t, err)
	_, err = f.apps.SetStatus(ctx, f.reviewer(), first.ID, models.ApplicationRejected)
	require.NoError(t, err)
	assert.Equal(t, 0, f.job(t, job.ID).ReservedSlots)

	// Moving between active statuses keeps the slot
	second, err := f.apps.Apply(ctx, f.seeker(t, "Ben"), job.ID)
	require.NoError(t, err)
	_, err = f.apps.SetStatus(ctx, f.reviewer(), second.ID, models.ApplicationScheduled)
	require.NoError(t, err)
	assert.Equal(t, 1, f.job(t, job.ID).ReservedSlots)

	_, err = f.apps.Apply(ctx, f.seeker(t, "Cora"), job.ID)
	require.NoError(t, err)
	stored := f.job(t, job.ID)
	assert.Equal(t, 2, stored.ReservedSlots)
	assert.Equal(t, models.JobClosed, stored.JobStatus)
}

func TestReopenedFullJobRefusesApplicants(t *testing.T) {
	f := newFixture(t, EditPreserve)
	ctx := context.Background()
	job := f.approvedJob(t, 1)

	_, err := f.apps.Apply(ctx, f.seeker(t, "Ana"), job.ID)
	require.NoError(t, err)
	require.Equal(t, models.JobClosed, f.job(t, job.ID).JobStatus)

	_, err = f.jobs.ToggleStatus(ctx, f.employer, job.ID)
	require.NoError(t, err)
	_, err = f.apps.Apply(ctx, f.seeker(t, "Ben"), job.ID)
	assert.True(t, errors.IsJobClosed(err), "got %v", err)

	// Raising the limit makes room again
	in := jobInput(2)
	_, err = f.jobs.Edit(ctx, f.employer, job.ID, in)
	require.NoError(t, err)
	_, err = f.apps.Apply(ctx, f.seeker(t, "Ben"), job.ID)
	assert.NoError(t, err)
}

func TestApplicationSnapshotsSurviveEdits(t *testing.T) {
	f := newFixture(t, EditPreserve)
	ctx := context.Background()
	job := f.approvedJob(t, 0)
	seeker := f.seeker(t, "Juan")

	app, err := f.apps.Apply(ctx, seeker, job.ID)
	require.NoError(t, err)
	assert.Equal(t, "Juan Santos", app.Seeker.SeekerName)
	assert.Equal(t, "files/Juan/resume.pdf", app.Seeker.ResumeRef)
	assert.Equal(t, "Panaderia Maria", app.Job.CompanyName)

	in := jobInput(0)
	in.Title = "Senior Bakery Helper"
	_, err = f.jobs.Edit(ctx, f.employer, job.ID, in)
	require.NoError(t, err)

	stored, err := f.store.GetApplication(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, "Bakery Helper", stored.Job.JobTitle)
}

func TestSetStatus(t *testing.T) {
	f := newFixture(t, EditPreserve)
	ctx := context.Background()
	job := f.approvedJob(t, 0)
	seeker := f.seeker(t, "Juan")
	app, err := f.apps.Apply(ctx, seeker, job.ID)
	require.NoError(t, err)

	owner := Actor{ID: f.employer, Role: models.RoleEmployer}
	scheduled, err := f.apps.SetStatus(ctx, owner, app.ID, models.ApplicationScheduled)
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationScheduled, scheduled.Status)

	// Non-rejected states move freely
	back, err := f.apps.SetStatus(ctx, owner, app.ID, models.ApplicationPending)
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationPending, back.Status)

	rival := Actor{ID: f.user(t, models.RoleEmployer, "Rosa", "Rosa Hardware"), Role: models.RoleEmployer}
	_, err = f.apps.SetStatus(ctx, rival, app.ID, models.ApplicationAccepted)
	assert.True(t, errors.IsForbidden(err))

	_, err = f.apps.SetStatus(ctx, Actor{ID: seeker, Role: models.RoleJobSeeker}, app.ID, models.ApplicationAccepted)
	assert.True(t, errors.IsForbidden(err))

	_, err = f.apps.SetStatus(ctx, owner, app.ID, models.ApplicationStatus("hired"))
	assert.True(t, errors.IsValidation(err))

	rejected, err := f.apps.SetStatus(ctx, owner, app.ID, models.ApplicationRejected)
	require.NoError(t, err)
	assert.False(t, rejected.Active)

	_, err = f.apps.SetStatus(ctx, f.reviewer(), app.ID, models.ApplicationAccepted)
	assert.True(t, errors.IsInvalidTransition(err))

	notes, err := f.notifier.List(ctx, seeker, 0)
	require.NoError(t, err)
	require.Len(t, notes, 3)
	assert.Equal(t, NotiApplicationStatus, notes[0].Type)
	assert.Contains(t, notes[0].Body, "rejected")
}

func TestApplyNotifiesEmployer(t *testing.T) {
	f := newFixture(t, EditPreserve)
	ctx := context.Background()
	job := f.approvedJob(t, 0)
	app, err := f.apps.Apply(ctx, f.seeker(t, "Juan"), job.ID)
	require.NoError(t, err)

	notes, err := f.notifier.List(ctx, f.employer, 0)
	require.NoError(t, err)
	require.NotEmpty(t, notes)
	assert.Equal(t, NotiApplicationReceived, notes[0].Type)
	assert.Equal(t, app.ID, notes[0].Ref.ID)
	assert.Equal(t, "Juan Santos applied to Bakery Helper.", notes[0].Body)
}

func TestListBySeekerGroupsByJob(t *testing.T) {
	f := newFixture(t, EditPreserve)
	ctx := context.Background()
	seeker := f.seeker(t, "Juan")
	bakery := f.approvedJob(t, 0)
	store := f.approvedJob(t, 0)

	first, err := f.apps.Apply(ctx, seeker, bakery.ID)
	require.NoError(t, err)
	_, err = f.apps.SetStatus(ctx, f.reviewer(), first.ID, models.ApplicationRejected)
	require.NoError(t, err)
	second, err := f.apps.Apply(ctx, seeker, bakery.ID)
	require.NoError(t, err)
	other, err := f.apps.Apply(ctx, seeker, store.ID)
	require.NoError(t, err)

	mine, err := f.apps.ListBySeeker(ctx, seeker)
	require.NoError(t, err)
	require.Len(t, mine, 2)

	// Most recent first
	assert.Equal(t, other.ID, mine[0].Latest.ID)
	assert.False(t, mine[0].CanReapply)
	assert.Empty(t, mine[0].History)

	assert.Equal(t, second.ID, mine[1].Latest.ID)
	require.Len(t, mine[1].History, 1)
	assert.Equal(t, first.ID, mine[1].History[0].ID)
}

func TestListByJobAccess(t *testing.T) {
	f := newFixture(t, EditPreserve)
	ctx := context.Background()
	job := f.approvedJob(t, 0)
	_, err := f.apps.Apply(ctx, f.seeker(t, "Juan"), job.ID)
	require.NoError(t, err)

	apps, err := f.apps.ListByJob(ctx, Actor{ID: f.employer, Role: models.RoleEmployer}, job.ID)
	require.NoError(t, err)
	assert.Len(t, apps, 1)

	apps, err = f.apps.ListByJob(ctx, f.reviewer(), job.ID)
	require.NoError(t, err)
	assert.Len(t, apps, 1)

	_, err = f.apps.ListByJob(ctx, Actor{ID: bson.NewObjectID(), Role: models.RoleEmployer}, job.ID)
	assert.True(t, errors.IsForbidden(err))
}
