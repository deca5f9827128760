package repository

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"jobboard/errors"
	"jobboard/internal/models"
)

const subscriberBuffer = 16

// MemoryStore is an in-process Store for tests and local development.
// It enforces the same one-active-application rule as the Mongo unique index.
type MemoryStore struct {
	mu            sync.Mutex
	jobs          map[bson.ObjectID]models.Job
	applications  map[bson.ObjectID]models.Application
	users         map[bson.ObjectID]models.User
	notifications []models.Notification

	nextSub int
	appSubs map[bson.ObjectID]map[int]chan models.ApplicationChange
	jobSubs map[bson.ObjectID]map[int]chan models.JobChange
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		jobs:         make(map[bson.ObjectID]models.Job),
		applications: make(map[bson.ObjectID]models.Application),
		users:        make(map[bson.ObjectID]models.User),
		appSubs:      make(map[bson.ObjectID]map[int]chan models.ApplicationChange),
		jobSubs:      make(map[bson.ObjectID]map[int]chan models.JobChange),
	}
}

func cloneJob(j models.Job) models.Job {
	j.Skills = slices.Clone(j.Skills)
	return j
}

func cloneApplication(a models.Application) models.Application {
	a.Seeker.Skills = slices.Clone(a.Seeker.Skills)
	return a
}

// ---- jobs ----

func (s *MemoryStore) InsertJob(ctx context.Context, job *models.Job) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if job.ID.IsZero() {
		job.ID = bson.NewObjectID()
	}
	if _, ok := s.jobs[job.ID]; ok {
		return errors.Wrapf(errors.ErrConflict, "job %s already exists", job.ID.Hex())
	}
	s.jobs[job.ID] = cloneJob(*job)
	s.publishJob(job.ID, models.ChangeInsert)
	return nil
}

func (s *MemoryStore) GetJob(ctx context.Context, id bson.ObjectID) (*models.Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, errors.NewNotFoundError("job %s not found", id.Hex())
	}
	job = cloneJob(job)
	return &job, nil
}

func (s *MemoryStore) UpdateJob(ctx context.Context, id bson.ObjectID, u JobUpdate, at time.Time) (*models.Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, errors.NewNotFoundError("job %s not found", id.Hex())
	}
	if !approvalAllowed(job.ApprovalStatus, u.IfApprovalIn) ||
		(u.IfJobStatus != nil && job.JobStatus != *u.IfJobStatus) ||
		(!u.IfEmployerID.IsZero() && job.EmployerID != u.IfEmployerID) {
		return nil, errors.Wrapf(errors.ErrConflict, "job %s changed concurrently", id.Hex())
	}

	if u.Details != nil {
		job.JobDetails = *u.Details
	}
	if u.ApprovalStatus != nil {
		job.ApprovalStatus = *u.ApprovalStatus
	}
	if u.RejectionReason != nil {
		job.RejectionReason = *u.RejectionReason
	}
	if u.JobStatus != nil {
		job.JobStatus = *u.JobStatus
	}
	if u.ClosedBy != nil {
		job.ClosedBy = *u.ClosedBy
	}
	job.UpdatedAt = at

	job = cloneJob(job)
	s.jobs[id] = job
	s.publishJob(id, models.ChangeUpdate)

	out := cloneJob(job)
	return &out, nil
}

func (s *MemoryStore) DeleteJob(ctx context.Context, id bson.ObjectID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.jobs[id]; !ok {
		return errors.NewNotFoundError("job %s not found", id.Hex())
	}
	delete(s.jobs, id)
	s.publishJob(id, models.ChangeDelete)
	return nil
}

func (s *MemoryStore) ListJobs(ctx context.Context, f JobFilter) ([]models.Job, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	query := strings.ToLower(f.TitleQuery)
	out := []models.Job{}
	for _, j := range s.jobs {
		switch {
		case f.ApprovalStatus != "" && j.ApprovalStatus != f.ApprovalStatus,
			!f.EmployerID.IsZero() && j.EmployerID != f.EmployerID,
			f.Barangay != "" && j.Barangay != f.Barangay,
			f.JobType != "" && j.JobType != f.JobType,
			f.JobStatus != "" && j.JobStatus != f.JobStatus,
			query != "" && !strings.Contains(strings.ToLower(j.Title), query):
			continue
		}
		out = append(out, cloneJob(j))
	}
	sort.Slice(out, func(a, b int) bool {
		if !out[a].CreatedAt.Equal(out[b].CreatedAt) {
			return out[a].CreatedAt.After(out[b].CreatedAt)
		}
		return out[a].ID.Hex() > out[b].ID.Hex()
	})
	return out, nil
}

func (s *MemoryStore) ReserveApplicantSlot(ctx context.Context, id bson.ObjectID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return errors.NewNotFoundError("job %s not found", id.Hex())
	}
	if job.ApprovalStatus != models.ApprovalApproved || job.JobStatus != models.JobOpen || !job.HasFreeSlot() {
		return errors.Wrapf(errors.ErrConflict, "job %s has no free applicant slot", id.Hex())
	}
	job.ReservedSlots++
	s.jobs[id] = job
	return nil
}

func (s *MemoryStore) ReleaseApplicantSlot(ctx context.Context, id bson.ObjectID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if job, ok := s.jobs[id]; ok && job.ReservedSlots > 0 {
		job.ReservedSlots--
		s.jobs[id] = job
	}
	return nil
}

// ---- applications ----

func (s *MemoryStore) InsertApplication(ctx context.Context, app *models.Application) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if app.ID.IsZero() {
		app.ID = bson.NewObjectID()
	}
	app.Active = app.Status.Active()
	if _, ok := s.applications[app.ID]; ok {
		return errors.Wrapf(errors.ErrConflict, "application %s already exists", app.ID.Hex())
	}
	if app.Active {
		for _, existing := range s.applications {
			if existing.Active && existing.JobID == app.JobID && existing.SeekerID == app.SeekerID {
				return errors.Wrapf(errors.ErrAlreadyApplied,
					"seeker %s already holds an active application for job %s", app.SeekerID.Hex(), app.JobID.Hex())
			}
		}
	}
	s.applications[app.ID] = cloneApplication(*app)
	s.publishApplication(app.JobID, app.ID, models.ChangeInsert)
	return nil
}

func (s *MemoryStore) GetApplication(ctx context.Context, id bson.ObjectID) (*models.Application, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	app, ok := s.applications[id]
	if !ok {
		return nil, errors.NewNotFoundError("application %s not found", id.Hex())
	}
	app = cloneApplication(app)
	return &app, nil
}

func (s *MemoryStore) ListApplications(ctx context.Context, f ApplicationFilter) ([]models.Application, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []models.Application{}
	for _, a := range s.applications {
		switch {
		case !f.JobID.IsZero() && a.JobID != f.JobID,
			!f.SeekerID.IsZero() && a.SeekerID != f.SeekerID,
			!f.EmployerID.IsZero() && a.EmployerID != f.EmployerID:
			continue
		}
		out = append(out, cloneApplication(a))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].AppliedAt.Equal(out[j].AppliedAt) {
			return out[i].AppliedAt.Before(out[j].AppliedAt)
		}
		return out[i].ID.Hex() < out[j].ID.Hex()
	})
	return out, nil
}

func (s *MemoryStore) CountActiveApplications(ctx context.Context, jobID bson.ObjectID) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, a := range s.applications {
		if a.JobID == jobID && a.Status != models.ApplicationRejected {
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) UpdateApplicationStatus(ctx context.Context, id bson.ObjectID, from, to models.ApplicationStatus, at time.Time) (*models.Application, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	app, ok := s.applications[id]
	if !ok {
		return nil, errors.NewNotFoundError("application %s not found", id.Hex())
	}
	if app.Status != from {
		return nil, errors.Wrapf(errors.ErrConflict, "application %s is no longer %s", id.Hex(), from)
	}
	app.Status = to
	app.Active = to.Active()
	app.UpdatedAt = at
	s.applications[id] = app
	s.publishApplication(app.JobID, id, models.ChangeUpdate)

	out := cloneApplication(app)
	return &out, nil
}

// ---- users ----

func (s *MemoryStore) GetUser(ctx context.Context, id bson.ObjectID) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, errors.NewNotFoundError("user %s not found", id.Hex())
	}
	u.Skills = slices.Clone(u.Skills)
	return &u, nil
}

func (s *MemoryStore) UpsertUser(ctx context.Context, user *models.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if user.ID.IsZero() {
		user.ID = bson.NewObjectID()
	}
	u := *user
	u.Skills = slices.Clone(u.Skills)
	s.users[u.ID] = u
	return nil
}

// ---- notifications ----

func (s *MemoryStore) InsertNotification(ctx context.Context, n *models.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if n.ID.IsZero() {
		n.ID = bson.NewObjectID()
	}
	s.notifications = append(s.notifications, *n)
	return nil
}

func (s *MemoryStore) ListNotifications(ctx context.Context, userID bson.ObjectID, limit int) ([]models.Notification, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []models.Notification{}
	// Appended in insertion order, so walking backwards is newest first
	for i := len(s.notifications) - 1; i >= 0; i-- {
		if s.notifications[i].UserID != userID {
			continue
		}
		out = append(out, s.notifications[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// ---- subscriptions ----

func (s *MemoryStore) WatchApplications(ctx context.Context, jobID bson.ObjectID) (<-chan models.ApplicationChange, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan models.ApplicationChange, subscriberBuffer)
	id := s.nextSub
	s.nextSub++
	if s.appSubs[jobID] == nil {
		s.appSubs[jobID] = make(map[int]chan models.ApplicationChange)
	}
	s.appSubs[jobID][id] = ch

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.appSubs[jobID], id)
		if len(s.appSubs[jobID]) == 0 {
			delete(s.appSubs, jobID)
		}
		close(ch)
	}()
	return ch, nil
}

func (s *MemoryStore) WatchJobs(ctx context.Context, jobID bson.ObjectID) (<-chan models.JobChange, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan models.JobChange, subscriberBuffer)
	id := s.nextSub
	s.nextSub++
	if s.jobSubs[jobID] == nil {
		s.jobSubs[jobID] = make(map[int]chan models.JobChange)
	}
	s.jobSubs[jobID][id] = ch

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.jobSubs[jobID], id)
		if len(s.jobSubs[jobID]) == 0 {
			delete(s.jobSubs, jobID)
		}
		close(ch)
	}()
	return ch, nil
}

// Subscribers returns the number of open subscriptions, for leak checks
func (s *MemoryStore) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, subs := range s.appSubs {
		n += len(subs)
	}
	for _, subs := range s.jobSubs {
		n += len(subs)
	}
	return n
}

// publish* must be called with mu held. A full buffer drops the signal; the
// subscriber already has a pending change to react to.
func (s *MemoryStore) publishApplication(jobID, appID bson.ObjectID, op string) {
	for _, ch := range s.appSubs[jobID] {
		select {
		case ch <- models.ApplicationChange{ApplicationID: appID, JobID: jobID, Operation: op}:
		default:
		}
	}
}

func (s *MemoryStore) publishJob(jobID bson.ObjectID, op string) {
	for _, ch := range s.jobSubs[jobID] {
		select {
		case ch <- models.JobChange{JobID: jobID, Operation: op}:
		default:
		}
	}
}
