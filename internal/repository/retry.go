package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.uber.org/zap"

	"jobboard/errors"
	"jobboard/internal/models"
)

// RetryStore retries store calls that fail with ErrStoreUnavailable, doubling the
// delay after each attempt. Domain errors are returned on the first attempt.
// Slot reservation and release are counter increments and pass through unretried.
type RetryStore struct {
	Store
	attempts int
	backoff  time.Duration
	log      *zap.SugaredLogger
}

// WithRetry wraps store. attempts < 1 is treated as a single attempt.
func WithRetry(store Store, attempts int, backoff time.Duration, log *zap.SugaredLogger) *RetryStore {
	if attempts < 1 {
		attempts = 1
	}
	return &RetryStore{Store: store, attempts: attempts, backoff: backoff, log: log}
}

func (r *RetryStore) retry(ctx context.Context, op string, f func() error) error {
	sleep := r.backoff
	var err error
	for i := 0; i < r.attempts; i++ {
		err = f()
		if err == nil || !errors.IsStoreUnavailable(err) {
			return err
		}
		if i == r.attempts-1 {
			break
		}

		r.log.Warnw("Store unavailable, retrying", "op", op, "attempt", i+1, "backoff", sleep, "error", err)
		timer := time.NewTimer(sleep)
		select {
		case <-ctx.Done():
			timer.Stop()
			return errors.WithStack(err)
		case <-timer.C:
		}
		sleep *= 2
	}
	return errors.Wrapf(err, "%s failed after %d attempts", op, r.attempts)
}

func (r *RetryStore) InsertJob(ctx context.Context, job *models.Job) error {
	// Fix the id up front so a retry cannot create a second copy
	if job.ID.IsZero() {
		job.ID = bson.NewObjectID()
	}
	var attempted bool
	return r.retry(ctx, "insert job", func() error {
		err := r.Store.InsertJob(ctx, job)
		if attempted && errors.Is(err, errors.ErrConflict) {
			return nil
		}
		attempted = true
		return err
	})
}

func (r *RetryStore) GetJob(ctx context.Context, id bson.ObjectID) (job *models.Job, err error) {
	err = r.retry(ctx, "get job", func() error {
		job, err = r.Store.GetJob(ctx, id)
		return err
	})
	return job, err
}

func (r *RetryStore) UpdateJob(ctx context.Context, id bson.ObjectID, u JobUpdate, at time.Time) (job *models.Job, err error) {
	err = r.retry(ctx, "update job", func() error {
		job, err = r.Store.UpdateJob(ctx, id, u, at)
		return err
	})
	return job, err
}

func (r *RetryStore) DeleteJob(ctx context.Context, id bson.ObjectID) error {
	return r.retry(ctx, "delete job", func() error {
		return r.Store.DeleteJob(ctx, id)
	})
}

func (r *RetryStore) ListJobs(ctx context.Context, f JobFilter) (jobs []models.Job, err error) {
	err = r.retry(ctx, "list jobs", func() error {
		jobs, err = r.Store.ListJobs(ctx, f)
		return err
	})
	return jobs, err
}

// InsertApplication re-validates through the store on every attempt. When an earlier
// attempt actually landed, the retry trips the active-application constraint; that
// case is recognised by the client-assigned id and reported as success.
func (r *RetryStore) InsertApplication(ctx context.Context, app *models.Application) error {
	if app.ID.IsZero() {
		app.ID = bson.NewObjectID()
	}
	var attempted bool
	return r.retry(ctx, "insert application", func() error {
		err := r.Store.InsertApplication(ctx, app)
		if attempted && (errors.IsAlreadyApplied(err) || errors.Is(err, errors.ErrConflict)) {
			if stored, gerr := r.Store.GetApplication(ctx, app.ID); gerr == nil && stored.ID == app.ID {
				return nil
			}
		}
		attempted = true
		return err
	})
}

func (r *RetryStore) GetApplication(ctx context.Context, id bson.ObjectID) (app *models.Application, err error) {
	err = r.retry(ctx, "get application", func() error {
		app, err = r.Store.GetApplication(ctx, id)
		return err
	})
	return app, err
}

func (r *RetryStore) ListApplications(ctx context.Context, f ApplicationFilter) (apps []models.Application, err error) {
	err = r.retry(ctx, "list applications", func() error {
		apps, err = r.Store.ListApplications(ctx, f)
		return err
	})
	return apps, err
}

func (r *RetryStore) CountActiveApplications(ctx context.Context, jobID bson.ObjectID) (n int, err error) {
	err = r.retry(ctx, "count applications", func() error {
		n, err = r.Store.CountActiveApplications(ctx, jobID)
		return err
	})
	return n, err
}

func (r *RetryStore) UpdateApplicationStatus(ctx context.Context, id bson.ObjectID, from, to models.ApplicationStatus, at time.Time) (app *models.Application, err error) {
	err = r.retry(ctx, "update application status", func() error {
		app, err = r.Store.UpdateApplicationStatus(ctx, id, from, to, at)
		return err
	})
	return app, err
}

func (r *RetryStore) GetUser(ctx context.Context, id bson.ObjectID) (user *models.User, err error) {
	err = r.retry(ctx, "get user", func() error {
		user, err = r.Store.GetUser(ctx, id)
		return err
	})
	return user, err
}

func (r *RetryStore) UpsertUser(ctx context.Context, user *models.User) error {
	if user.ID.IsZero() {
		user.ID = bson.NewObjectID()
	}
	return r.retry(ctx, "upsert user", func() error {
		return r.Store.UpsertUser(ctx, user)
	})
}

func (r *RetryStore) InsertNotification(ctx context.Context, n *models.Notification) error {
	if n.ID.IsZero() {
		n.ID = bson.NewObjectID()
	}
	var attempted bool
	return r.retry(ctx, "insert notification", func() error {
		err := r.Store.InsertNotification(ctx, n)
		if attempted && errors.Is(err, errors.ErrConflict) {
			return nil
		}
		attempted = true
		return err
	})
}

func (r *RetryStore) ListNotifications(ctx context.Context, userID bson.ObjectID, limit int) (out []models.Notification, err error) {
	err = r.retry(ctx, "list notifications", func() error {
		out, err = r.Store.ListNotifications(ctx, userID, limit)
		return err
	})
	return out, err
}
