package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.uber.org/zap"

	"jobboard/errors"
	"jobboard/internal/models"
	"jobboard/internal/repository"
)

// CountUpdate is one recomputed applicant count for a job
type CountUpdate struct {
	JobID          bson.ObjectID
	Count          int
	ApplicantLimit int
	JobStatus      models.JobStatus
	// AutoClosed is set on the update whose count closed the job
	AutoClosed bool
	At         time.Time
}

// CountWatcher keeps live applicant counts for the jobs being viewed and feeds each
// recomputed count through ShouldAutoClose.
type CountWatcher struct {
	store    repository.Store
	jobs     *JobService
	debounce time.Duration
	log      *zap.SugaredLogger

	mu   sync.Mutex
	subs map[string]*CountSubscription
}

func NewCountWatcher(store repository.Store, jobs *JobService, debounce time.Duration, log *zap.SugaredLogger) *CountWatcher {
	return &CountWatcher{
		store:    store,
		jobs:     jobs,
		debounce: debounce,
		log:      log,
		subs:     make(map[string]*CountSubscription),
	}
}

// CountSubscription is a live count for one job. It ends when the context given to
// Subscribe is cancelled, Close is called, or the job is deleted.
type CountSubscription struct {
	ID    string
	JobID bson.ObjectID

	updates chan CountUpdate
	cancel  context.CancelFunc
	done    chan struct{}
}

// Updates delivers the most recent count; a reader that falls behind only sees the latest.
// The channel is closed when the subscription ends.
func (s *CountSubscription) Updates() <-chan CountUpdate { return s.updates }

// Done is closed once the subscription has released its store feeds
func (s *CountSubscription) Done() <-chan struct{} { return s.done }

// Close ends the subscription and waits for it to release its store feeds
func (s *CountSubscription) Close() {
	s.cancel()
	<-s.done
}

// publish replaces any unread update; run is the only sender
func (s *CountSubscription) publish(u CountUpdate) {
	select {
	case <-s.updates:
	default:
	}
	s.updates <- u
}

// Subscribe starts watching the job's applications. The first update carries the
// current count.
func (w *CountWatcher) Subscribe(ctx context.Context, jobID bson.ObjectID) (*CountSubscription, error) {
	if _, err := w.store.GetJob(ctx, jobID); err != nil {
		return nil, err
	}

	subCtx, cancel := context.WithCancel(ctx)
	appChanges, err := w.store.WatchApplications(subCtx, jobID)
	if err != nil {
		cancel()
		return nil, errors.Wrapf(err, "failed to watch applications for job %s", jobID.Hex())
	}
	jobChanges, err := w.store.WatchJobs(subCtx, jobID)
	if err != nil {
		cancel()
		return nil, errors.Wrapf(err, "failed to watch job %s", jobID.Hex())
	}

	sub := &CountSubscription{
		ID:      uuid.NewString(),
		JobID:   jobID,
		updates: make(chan CountUpdate, 1),
		cancel:  cancel,
		done:    make(chan struct{}),
	}

	w.mu.Lock()
	w.subs[sub.ID] = sub
	w.mu.Unlock()

	w.log.Debugw("Count subscription opened", "subscription_id", sub.ID, "job_id", jobID.Hex())
	go w.run(subCtx, sub, appChanges, jobChanges)
	return sub, nil
}

func (w *CountWatcher) run(ctx context.Context, sub *CountSubscription, appChanges <-chan models.ApplicationChange, jobChanges <-chan models.JobChange) {
	defer func() {
		sub.cancel()
		w.mu.Lock()
		delete(w.subs, sub.ID)
		w.mu.Unlock()
		close(sub.updates)
		close(sub.done)
		w.log.Debugw("Count subscription closed", "subscription_id", sub.ID, "job_id", sub.JobID.Hex())
	}()

	if !w.recompute(ctx, sub, true) {
		return
	}

	// Changes arriving within one debounce window are folded into a single recount.
	// Only application changes run the auto-close rule; job changes refresh the status.
	var (
		timer    *time.Timer
		timerC   <-chan time.Time
		evaluate bool
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	trigger := func(fromApplications bool) bool {
		evaluate = evaluate || fromApplications
		if w.debounce <= 0 {
			ok := w.recompute(ctx, sub, evaluate)
			evaluate = false
			return ok
		}
		if timerC == nil {
			timer = time.NewTimer(w.debounce)
			timerC = timer.C
		}
		return true
	}

	for {
		select {
		case <-ctx.Done():
			return

		case _, ok := <-appChanges:
			if !ok || !trigger(true) {
				return
			}

		case change, ok := <-jobChanges:
			if !ok || change.Operation == models.ChangeDelete {
				return
			}
			if !trigger(false) {
				return
			}

		case <-timerC:
			timerC = nil
			if !w.recompute(ctx, sub, evaluate) {
				return
			}
			evaluate = false
		}
	}
}

// recompute counts fresh and publishes. It reports false when the subscription should end.
func (w *CountWatcher) recompute(ctx context.Context, sub *CountSubscription, evaluate bool) bool {
	count, err := w.store.CountActiveApplications(ctx, sub.JobID)
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		w.log.Warnw("Applicant count failed", "job_id", sub.JobID.Hex(), "error", err)
		return true
	}

	job, err := w.store.GetJob(ctx, sub.JobID)
	if errors.IsNotFound(err) {
		return false
	}
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		w.log.Warnw("Job reload failed", "job_id", sub.JobID.Hex(), "error", err)
		return true
	}

	update := CountUpdate{
		JobID:          sub.JobID,
		Count:          count,
		ApplicantLimit: job.ApplicantLimit,
		JobStatus:      job.JobStatus,
		At:             time.Now().UTC(),
	}
	if evaluate && ShouldAutoClose(job, count) {
		closed, err := w.jobs.AutoClose(ctx, sub.JobID, count)
		if err != nil {
			w.log.Warnw("Auto-close failed", "job_id", sub.JobID.Hex(), "count", count, "error", err)
		}
		if closed {
			update.AutoClosed = true
			update.JobStatus = models.JobClosed
		}
	}

	sub.publish(update)
	return true
}

// Active reports how many subscriptions are still open
func (w *CountWatcher) Active() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.subs)
}

// Shutdown closes every open subscription
func (w *CountWatcher) Shutdown() {
	w.mu.Lock()
	subs := make([]*CountSubscription, 0, len(w.subs))
	for _, s := range w.subs {
		subs = append(subs, s)
	}
	w.mu.Unlock()

	for _, s := range subs {
		s.Close()
	}
	if len(subs) > 0 {
		w.log.Infow("Count watcher stopped", "subscriptions", len(subs))
	}
}
