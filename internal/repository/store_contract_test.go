package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"

	"jobboard/errors"
	"jobboard/internal/models"
	"jobboard/internal/repository"
)

func now() time.Time { return time.Now().UTC().Truncate(time.Millisecond) }

func newJob(employer bson.ObjectID, title string, approval models.ApprovalStatus) *models.Job {
	ts := now()
	return &models.Job{
		EmployerID:  employer,
		CompanyName: "Sari-Sari Co",
		JobDetails: models.JobDetails{
			Title:          title,
			Description:    "Help at the store",
			Barangay:       "San Isidro",
			Address:        "12 Rizal St",
			ContactNumber:  "09171234567",
			JobType:        models.JobFullTime,
			ApplicantLimit: 2,
		},
		JobStatus:      models.JobOpen,
		ApprovalStatus: approval,
		CreatedAt:      ts,
		UpdatedAt:      ts,
	}
}

func newApplication(job *models.Job, seeker bson.ObjectID, appliedAt time.Time) *models.Application {
	return &models.Application{
		JobID:      job.ID,
		SeekerID:   seeker,
		EmployerID: job.EmployerID,
		Seeker:     models.SeekerSnapshot{SeekerName: "Juan Dela Cruz"},
		Job:        models.JobSnapshot{JobTitle: job.Title, CompanyName: job.CompanyName},
		Status:     models.ApplicationPending,
		AppliedAt:  appliedAt,
		UpdatedAt:  appliedAt,
	}
}

// runStoreContract exercises behaviour every Store implementation must share
func runStoreContract(t *testing.T, newStore func(t *testing.T) repository.Store) {
	t.Run("job lifecycle", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		employer := bson.NewObjectID()

		job := newJob(employer, "Cashier", models.ApprovalPending)
		require.NoError(t, store.InsertJob(ctx, job))
		require.False(t, job.ID.IsZero())

		got, err := store.GetJob(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, "Cashier", got.Title)
		assert.Equal(t, models.ApprovalPending, got.ApprovalStatus)

		_, err = store.GetJob(ctx, bson.NewObjectID())
		assert.True(t, errors.IsNotFound(err))

		// Guard mismatch is a conflict, not a write
		_, err = store.UpdateJob(ctx, job.ID, repository.JobUpdate{
			ApprovalStatus: repository.Ptr(models.ApprovalRejected),
			IfApprovalIn:   []models.ApprovalStatus{models.ApprovalApproved},
		}, now())
		assert.True(t, errors.Is(err, errors.ErrConflict))

		updated, err := store.UpdateJob(ctx, job.ID, repository.JobUpdate{
			ApprovalStatus:  repository.Ptr(models.ApprovalRejected),
			RejectionReason: repository.Ptr("duplicate posting"),
			IfApprovalIn:    []models.ApprovalStatus{models.ApprovalPending},
		}, now())
		require.NoError(t, err)
		assert.Equal(t, models.ApprovalRejected, updated.ApprovalStatus)
		assert.Equal(t, "duplicate posting", updated.RejectionReason)

		cleared, err := store.UpdateJob(ctx, job.ID, repository.JobUpdate{
			ApprovalStatus:  repository.Ptr(models.ApprovalApproved),
			RejectionReason: repository.Ptr(""),
		}, now())
		require.NoError(t, err)
		assert.Empty(t, cleared.RejectionReason)

		_, err = store.UpdateJob(ctx, bson.NewObjectID(), repository.JobUpdate{}, now())
		assert.True(t, errors.IsNotFound(err))

		require.NoError(t, store.DeleteJob(ctx, job.ID))
		assert.True(t, errors.IsNotFound(store.DeleteJob(ctx, job.ID)))
	})

	t.Run("conditional close happens once", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		job := newJob(bson.NewObjectID(), "Barista", models.ApprovalApproved)
		require.NoError(t, store.InsertJob(ctx, job))

		closeIfOpen := repository.JobUpdate{
			JobStatus:   repository.Ptr(models.JobClosed),
			ClosedBy:    repository.Ptr(models.ClosedBySystem),
			IfJobStatus: repository.Ptr(models.JobOpen),
		}
		closed, err := store.UpdateJob(ctx, job.ID, closeIfOpen, now())
		require.NoError(t, err)
		assert.Equal(t, models.JobClosed, closed.JobStatus)
		assert.Equal(t, models.ClosedBySystem, closed.ClosedBy)

		_, err = store.UpdateJob(ctx, job.ID, closeIfOpen, now())
		assert.True(t, errors.Is(err, errors.ErrConflict))
	})

	t.Run("applicant slots respect the limit", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		job := newJob(bson.NewObjectID(), "Stock Clerk", models.ApprovalApproved)
		require.NoError(t, store.InsertJob(ctx, job))

		require.NoError(t, store.ReserveApplicantSlot(ctx, job.ID))
		require.NoError(t, store.ReserveApplicantSlot(ctx, job.ID))
		err := store.ReserveApplicantSlot(ctx, job.ID)
		assert.True(t, errors.Is(err, errors.ErrConflict), "got %v", err)

		require.NoError(t, store.ReleaseApplicantSlot(ctx, job.ID))
		require.NoError(t, store.ReserveApplicantSlot(ctx, job.ID))

		stored, err := store.GetJob(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, stored.ReservedSlots)

		_, err = store.UpdateJob(ctx, job.ID, repository.JobUpdate{JobStatus: repository.Ptr(models.JobClosed)}, now())
		require.NoError(t, err)
		require.NoError(t, store.ReleaseApplicantSlot(ctx, job.ID))
		err = store.ReserveApplicantSlot(ctx, job.ID)
		assert.True(t, errors.Is(err, errors.ErrConflict), "closed job: got %v", err)

		pending := newJob(bson.NewObjectID(), "Stock Clerk", models.ApprovalPending)
		require.NoError(t, store.InsertJob(ctx, pending))
		err = store.ReserveApplicantSlot(ctx, pending.ID)
		assert.True(t, errors.Is(err, errors.ErrConflict), "pending job: got %v", err)

		unlimited := newJob(bson.NewObjectID(), "Stock Clerk", models.ApprovalApproved)
		unlimited.ApplicantLimit = 0
		require.NoError(t, store.InsertJob(ctx, unlimited))
		for i := 0; i < 5; i++ {
			require.NoError(t, store.ReserveApplicantSlot(ctx, unlimited.ID))
		}

		err = store.ReserveApplicantSlot(ctx, bson.NewObjectID())
		assert.True(t, errors.IsNotFound(err), "got %v", err)
		assert.NoError(t, store.ReleaseApplicantSlot(ctx, bson.NewObjectID()))

		// Releasing an empty counter does not go negative
		empty := newJob(bson.NewObjectID(), "Stock Clerk", models.ApprovalApproved)
		require.NoError(t, store.InsertJob(ctx, empty))
		require.NoError(t, store.ReleaseApplicantSlot(ctx, empty.ID))
		stored, err = store.GetJob(ctx, empty.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, stored.ReservedSlots)
	})

	t.Run("list jobs filters", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		employer := bson.NewObjectID()

		approved := newJob(employer, "Night Cashier", models.ApprovalApproved)
		pending := newJob(employer, "Driver", models.ApprovalPending)
		other := newJob(bson.NewObjectID(), "Cashier Trainee", models.ApprovalApproved)
		other.Barangay = "Poblacion"
		other.JobType = models.JobPartTime
		for _, j := range []*models.Job{approved, pending, other} {
			require.NoError(t, store.InsertJob(ctx, j))
		}

		jobs, err := store.ListJobs(ctx, repository.JobFilter{ApprovalStatus: models.ApprovalApproved})
		require.NoError(t, err)
		assert.Len(t, jobs, 2)

		jobs, err = store.ListJobs(ctx, repository.JobFilter{EmployerID: employer})
		require.NoError(t, err)
		assert.Len(t, jobs, 2)

		jobs, err = store.ListJobs(ctx, repository.JobFilter{
			ApprovalStatus: models.ApprovalApproved,
			TitleQuery:     "cashier",
			Barangay:       "Poblacion",
			JobType:        models.JobPartTime,
		})
		require.NoError(t, err)
		require.Len(t, jobs, 1)
		assert.Equal(t, other.ID, jobs[0].ID)

		jobs, err = store.ListJobs(ctx, repository.JobFilter{TitleQuery: "("})
		require.NoError(t, err)
		assert.Empty(t, jobs)
	})

	t.Run("one active application per seeker and job", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		job := newJob(bson.NewObjectID(), "Cook", models.ApprovalApproved)
		require.NoError(t, store.InsertJob(ctx, job))
		seeker := bson.NewObjectID()

		first := newApplication(job, seeker, now())
		require.NoError(t, store.InsertApplication(ctx, first))
		assert.True(t, first.Active)

		err := store.InsertApplication(ctx, newApplication(job, seeker, now()))
		assert.True(t, errors.IsAlreadyApplied(err))

		// A different seeker is unaffected
		require.NoError(t, store.InsertApplication(ctx, newApplication(job, bson.NewObjectID(), now())))

		n, err := store.CountActiveApplications(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		rejected, err := store.UpdateApplicationStatus(ctx, first.ID,
			models.ApplicationPending, models.ApplicationRejected, now())
		require.NoError(t, err)
		assert.Equal(t, models.ApplicationRejected, rejected.Status)

		again := newApplication(job, seeker, now().Add(time.Second))
		require.NoError(t, store.InsertApplication(ctx, again))

		n, err = store.CountActiveApplications(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		history, err := store.ListApplications(ctx, repository.ApplicationFilter{JobID: job.ID, SeekerID: seeker})
		require.NoError(t, err)
		require.Len(t, history, 2)
		assert.Equal(t, first.ID, history[0].ID)
		assert.Equal(t, again.ID, history[1].ID)

		byEmployer, err := store.ListApplications(ctx, repository.ApplicationFilter{EmployerID: job.EmployerID})
		require.NoError(t, err)
		assert.Len(t, byEmployer, 3)
	})

	t.Run("application status compare and set", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		job := newJob(bson.NewObjectID(), "Welder", models.ApprovalApproved)
		require.NoError(t, store.InsertJob(ctx, job))
		app := newApplication(job, bson.NewObjectID(), now())
		require.NoError(t, store.InsertApplication(ctx, app))

		_, err := store.UpdateApplicationStatus(ctx, app.ID,
			models.ApplicationScheduled, models.ApplicationAccepted, now())
		assert.True(t, errors.Is(err, errors.ErrConflict))

		_, err = store.UpdateApplicationStatus(ctx, bson.NewObjectID(),
			models.ApplicationPending, models.ApplicationAccepted, now())
		assert.True(t, errors.IsNotFound(err))

		got, err := store.GetApplication(ctx, app.ID)
		require.NoError(t, err)
		assert.Equal(t, models.ApplicationPending, got.Status)
	})

	t.Run("users and notifications", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		user := &models.User{Role: models.RoleEmployer, FirstName: "Maria", CompanyName: "Bakery"}
		require.NoError(t, store.UpsertUser(ctx, user))
		user.CompanyName = "Bakery & Cafe"
		require.NoError(t, store.UpsertUser(ctx, user))

		got, err := store.GetUser(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, "Bakery & Cafe", got.CompanyName)

		for i, title := range []string{"first", "second", "third"} {
			require.NoError(t, store.InsertNotification(ctx, &models.Notification{
				UserID:    user.ID,
				Title:     title,
				CreatedAt: now().Add(time.Duration(i) * time.Second),
			}))
		}
		notes, err := store.ListNotifications(ctx, user.ID, 2)
		require.NoError(t, err)
		require.Len(t, notes, 2)
		assert.Equal(t, "third", notes[0].Title)
		assert.Equal(t, "second", notes[1].Title)
	})

	t.Run("watch applications", func(t *testing.T) {
		store := newStore(t)
		job := newJob(bson.NewObjectID(), "Guard", models.ApprovalApproved)
		require.NoError(t, store.InsertJob(context.Background(), job))

		ctx, cancel := context.WithCancel(context.Background())
		changes, err := store.WatchApplications(ctx, job.ID)
		if err != nil {
			cancel()
			t.Skipf("change feed unavailable: %v", err)
		}

		app := newApplication(job, bson.NewObjectID(), now())
		require.NoError(t, store.InsertApplication(context.Background(), app))

		select {
		case change := <-changes:
			assert.Equal(t, app.ID, change.ApplicationID)
			assert.Equal(t, job.ID, change.JobID)
			assert.Equal(t, models.ChangeInsert, change.Operation)
		case <-time.After(5 * time.Second):
			t.Fatal("no change delivered")
		}

		cancel()
		require.Eventually(t, func() bool {
			select {
			case _, open := <-changes:
				return !open
			default:
				return false
			}
		}, 5*time.Second, 10*time.Millisecond)
	})
}
