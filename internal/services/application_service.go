package services

import (
	"context"
	"sort"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.uber.org/zap"

	"jobboard/dto"
	"jobboard/errors"
	"jobboard/internal/models"
	"jobboard/internal/repository"
)

// ApplicationService owns submission and review of applications
type ApplicationService struct {
	store    repository.Store
	jobs     *JobService
	notifier *Notifier
	log      *zap.SugaredLogger
	now      Clock
}

func NewApplicationService(store repository.Store, jobs *JobService, notifier *Notifier, log *zap.SugaredLogger) *ApplicationService {
	return &ApplicationService{
		store:    store,
		jobs:     jobs,
		notifier: notifier,
		log:      log,
		now:      systemClock,
	}
}

// Apply submits a new application for the seeker. Preconditions are checked against
// fresh reads. The insert is then guarded twice: an applicant slot is reserved on the job
// first, so concurrent seekers cannot push it past its limit, and the store's
// one-active-application constraint stops a seeker's own concurrent submissions.
func (s *ApplicationService) Apply(ctx context.Context, seekerID, jobID bson.ObjectID) (*models.Application, error) {
	seeker, err := s.store.GetUser(ctx, seekerID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load seeker")
	}
	if seeker.Role != models.RoleJobSeeker {
		return nil, errors.NewForbiddenError("user %s is not a job seeker", seekerID.Hex())
	}

	job, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}

	history, err := s.store.ListApplications(ctx, repository.ApplicationFilter{JobID: jobID, SeekerID: seekerID})
	if err != nil {
		return nil, errors.Wrap(err, "failed to load application history")
	}
	if err := CanApply(ResolveLatest(seekerID, jobID, history)); err != nil {
		return nil, err
	}

	if job.JobStatus == models.JobClosed {
		return nil, errors.Wrapf(errors.ErrJobClosed, "job %s is not accepting applications", jobID.Hex())
	}
	if !job.VisibleToSeekers() {
		return nil, errors.NewNotFoundError("job %s not found", jobID.Hex())
	}

	ts := s.now()
	app := &models.Application{
		JobID:      jobID,
		SeekerID:   seekerID,
		EmployerID: job.EmployerID,
		Seeker: models.SeekerSnapshot{
			SeekerName:    seeker.FullName(),
			ContactNumber: seeker.ContactNumber,
			Email:         seeker.Email,
			Skills:        seeker.Skills,
			ResumeRef:     seeker.ResumeRef,
			PhotoRef:      seeker.PhotoRef,
		},
		Job: models.JobSnapshot{
			JobTitle:       job.Title,
			CompanyName:    job.CompanyName,
			JobDescription: job.Description,
		},
		Status:    models.ApplicationPending,
		Active:    true,
		AppliedAt: ts,
		UpdatedAt: ts,
	}
	if err := s.store.ReserveApplicantSlot(ctx, jobID); err != nil {
		return nil, s.reserveFailed(ctx, jobID, err)
	}
	if err := s.store.InsertApplication(ctx, app); err != nil {
		s.releaseSlot(ctx, jobID)
		if errors.IsAlreadyApplied(err) {
			s.log.Infow("Concurrent application rejected by store", "job_id", jobID.Hex(), "seeker_id", seekerID.Hex())
			return nil, err
		}
		return nil, errors.Wrap(err, "failed to submit application")
	}

	s.log.Infow("Application submitted",
		"application_id", app.ID.Hex(), "job_id", jobID.Hex(), "seeker_id", seekerID.Hex())
	s.notifier.Notify(ctx, job.EmployerID, NotiApplicationReceived,
		models.Ref{Entity: "application", ID: app.ID},
		models.NotiParams{JobTitle: job.Title, SeekerName: app.Seeker.SeekerName})

	// The application is stored; a failed capacity check is picked up by the next change
	if _, err := s.jobs.EvaluateCapacity(ctx, jobID); err != nil {
		s.log.Warnw("Capacity check after apply failed", "job_id", jobID.Hex(), "error", err)
	}
	return app, nil
}

// reserveFailed explains a lost slot reservation from a fresh read of the job
func (s *ApplicationService) reserveFailed(ctx context.Context, jobID bson.ObjectID, err error) error {
	if !errors.Is(err, errors.ErrConflict) {
		return errors.Wrap(err, "failed to reserve applicant slot")
	}
	job, gerr := s.store.GetJob(ctx, jobID)
	if gerr != nil {
		return gerr
	}
	if job.JobStatus == models.JobOpen && !job.VisibleToSeekers() {
		return errors.NewNotFoundError("job %s not found", jobID.Hex())
	}
	s.log.Infow("Application refused, no free slot", "job_id", jobID.Hex(),
		"job_status", job.JobStatus, "reserved", job.ReservedSlots, "limit", job.ApplicantLimit)
	return errors.Wrapf(errors.ErrJobClosed, "job %s is not accepting applications", jobID.Hex())
}

// releaseSlot runs even when the caller's context is already cancelled; a skipped release
// would shrink the job's capacity for good
func (s *ApplicationService) releaseSlot(ctx context.Context, jobID bson.ObjectID) {
	if err := s.store.ReleaseApplicantSlot(context.WithoutCancel(ctx), jobID); err != nil {
		s.log.Warnw("Failed to release applicant slot", "job_id", jobID.Hex(), "error", err)
	}
}

// SetStatus is the review action of an admin or the job's employer. Any active status
// may move to any other status; rejected is final.
func (s *ApplicationService) SetStatus(ctx context.Context, actor Actor, applicationID bson.ObjectID, status models.ApplicationStatus) (*models.Application, error) {
	if !status.Valid() {
		return nil, errors.NewValidationError("unknown application status %q", status)
	}

	app, err := s.store.GetApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && !(actor.Role == models.RoleEmployer && app.EmployerID == actor.ID) {
		return nil, errors.NewForbiddenError("application %s belongs to another employer", applicationID.Hex())
	}
	if app.Status == models.ApplicationRejected {
		return nil, errors.NewInvalidTransitionError("application", string(app.Status), string(status))
	}
	if app.Status == status {
		return app, nil
	}

	updated, err := s.store.UpdateApplicationStatus(ctx, applicationID, app.Status, status, s.now())
	if err != nil {
		return nil, errors.Wrapf(err, "failed to update application %s", applicationID.Hex())
	}
	if app.Status.Active() && !status.Active() {
		s.releaseSlot(ctx, app.JobID)
	}

	s.log.Infow("Application status changed",
		"application_id", applicationID.Hex(), "job_id", app.JobID.Hex(),
		"from", app.Status, "to", status, "actor_id", actor.ID.Hex())
	s.notifier.Notify(ctx, app.SeekerID, NotiApplicationStatus,
		models.Ref{Entity: "application", ID: applicationID},
		models.NotiParams{JobTitle: app.Job.JobTitle, Status: status})
	return updated, nil
}

// Latest returns the application that governs the seeker's standing on the job, or nil
func (s *ApplicationService) Latest(ctx context.Context, seekerID, jobID bson.ObjectID) (*models.Application, error) {
	history, err := s.store.ListApplications(ctx, repository.ApplicationFilter{JobID: jobID, SeekerID: seekerID})
	if err != nil {
		return nil, errors.Wrap(err, "failed to load application history")
	}
	return ResolveLatest(seekerID, jobID, history), nil
}

// ListBySeeker groups the seeker's applications per job, most recently applied first
func (s *ApplicationService) ListBySeeker(ctx context.Context, seekerID bson.ObjectID) ([]dto.SeekerJobApplication, error) {
	apps, err := s.store.ListApplications(ctx, repository.ApplicationFilter{SeekerID: seekerID})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list seeker applications")
	}

	latest := LatestByJob(seekerID, apps)
	out := make([]dto.SeekerJobApplication, 0, len(latest))
	for jobID, l := range latest {
		entry := dto.SeekerJobApplication{
			JobID:      jobID.Hex(),
			Latest:     *l,
			CanReapply: CanApply(l) == nil,
		}
		for _, a := range apps {
			if a.JobID == jobID && a.ID != l.ID {
				entry.History = append(entry.History, a)
			}
		}
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool {
		return newer(&out[i].Latest, &out[j].Latest)
	})
	return out, nil
}

// ListByJob returns every application for the job to its employer or an admin
func (s *ApplicationService) ListByJob(ctx context.Context, actor Actor, jobID bson.ObjectID) ([]models.Application, error) {
	job, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && !job.OwnedBy(actor.ID) {
		return nil, errors.NewForbiddenError("job %s belongs to another employer", jobID.Hex())
	}
	apps, err := s.store.ListApplications(ctx, repository.ApplicationFilter{JobID: jobID})
	return apps, errors.Wrap(err, "failed to list job applications")
}
