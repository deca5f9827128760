package services

import (
	"context"
	"strings"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.uber.org/zap"

	"jobboard/dto"
	"jobboard/errors"
	"jobboard/internal/models"
	"jobboard/internal/repository"
)

// JobService owns the job lifecycle: posting, editing, moderation decisions,
// open/closed toggling and capacity-driven auto-close.
type JobService struct {
	store      repository.Store
	notifier   *Notifier
	log        *zap.SugaredLogger
	editPolicy EditApprovalPolicy
	now        Clock
}

func NewJobService(store repository.Store, notifier *Notifier, log *zap.SugaredLogger, policy EditApprovalPolicy) *JobService {
	if policy == "" {
		policy = EditPreserve
	}
	return &JobService{
		store:      store,
		notifier:   notifier,
		log:        log,
		editPolicy: policy,
		now:        systemClock,
	}
}

func (s *JobService) EditPolicy() EditApprovalPolicy { return s.editPolicy }

// Create posts a new job for review. The employer's company name is copied onto the job.
func (s *JobService) Create(ctx context.Context, employerID bson.ObjectID, input dto.JobInput) (*models.Job, error) {
	input.Normalize()
	if err := Validate(input); err != nil {
		return nil, err
	}

	employer, err := s.store.GetUser(ctx, employerID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load employer")
	}
	if employer.Role != models.RoleEmployer {
		return nil, errors.NewForbiddenError("user %s is not an employer", employerID.Hex())
	}

	status := models.JobOpen
	if input.JobStatus != "" {
		status = models.JobStatus(input.JobStatus)
	}

	ts := s.now()
	job := &models.Job{
		EmployerID:     employerID,
		CompanyName:    employer.DisplayCompany(),
		JobDetails:     input.Details(),
		JobStatus:      status,
		ApprovalStatus: models.ApprovalPending,
		CreatedAt:      ts,
		UpdatedAt:      ts,
	}
	if status == models.JobClosed {
		job.ClosedBy = models.ClosedByEmployer
	}
	if err := s.store.InsertJob(ctx, job); err != nil {
		return nil, errors.Wrap(err, "failed to create job")
	}

	s.log.Infow("Job created", "job_id", job.ID.Hex(), "employer_id", employerID.Hex(), "limit", job.ApplicantLimit)
	return job, nil
}

// Edit replaces the employer-editable fields. What happens to the approval status is
// decided by the configured EditApprovalPolicy; job status is never touched.
func (s *JobService) Edit(ctx context.Context, employerID, jobID bson.ObjectID, input dto.JobInput) (*models.Job, error) {
	input.Normalize()
	if err := Validate(input); err != nil {
		return nil, err
	}

	job, err := s.ownedJob(ctx, employerID, jobID)
	if err != nil {
		return nil, err
	}

	details := input.Details()
	update := repository.JobUpdate{
		Details:      &details,
		IfEmployerID: employerID,
	}
	if s.editPolicy == EditResubmit && job.ApprovalStatus != models.ApprovalPending {
		update.ApprovalStatus = repository.Ptr(models.ApprovalPending)
		update.RejectionReason = repository.Ptr("")
		update.IfApprovalIn = []models.ApprovalStatus{job.ApprovalStatus}
	}

	updated, err := s.store.UpdateJob(ctx, jobID, update, s.now())
	if err != nil {
		return nil, errors.Wrapf(err, "failed to edit job %s", jobID.Hex())
	}
	s.log.Infow("Job edited",
		"job_id", jobID.Hex(), "policy", s.editPolicy,
		"approval_before", job.ApprovalStatus, "approval_after", updated.ApprovalStatus)

	// A lowered limit may already be reached
	if updated.ApplicantLimit != job.ApplicantLimit {
		if closed, err := s.EvaluateCapacity(ctx, jobID); err != nil {
			s.log.Warnw("Capacity check after edit failed", "job_id", jobID.Hex(), "error", err)
		} else if closed {
			return s.store.GetJob(ctx, jobID)
		}
	}
	return updated, nil
}

// ToggleStatus flips an approved job between open and closed
func (s *JobService) ToggleStatus(ctx context.Context, employerID, jobID bson.ObjectID) (*models.Job, error) {
	job, err := s.ownedJob(ctx, employerID, jobID)
	if err != nil {
		return nil, err
	}
	if job.ApprovalStatus != models.ApprovalApproved {
		return nil, errors.WithHint(
			errors.Wrapf(errors.ErrInvalidTransition, "job %s is %s", jobID.Hex(), job.ApprovalStatus),
			"only approved jobs can be opened or closed")
	}

	next, closedBy := models.JobClosed, models.ClosedByEmployer
	if job.JobStatus == models.JobClosed {
		next, closedBy = models.JobOpen, ""
	}

	updated, err := s.store.UpdateJob(ctx, jobID, repository.JobUpdate{
		JobStatus:    repository.Ptr(next),
		ClosedBy:     repository.Ptr(closedBy),
		IfJobStatus:  repository.Ptr(job.JobStatus),
		IfApprovalIn: []models.ApprovalStatus{models.ApprovalApproved},
	}, s.now())
	if err != nil {
		return nil, errors.Wrapf(err, "failed to toggle job %s", jobID.Hex())
	}

	s.log.Infow("Job status toggled", "job_id", jobID.Hex(), "from", job.JobStatus, "to", next)
	return updated, nil
}

// Resubmit sends a rejected job back to the review queue
func (s *JobService) Resubmit(ctx context.Context, employerID, jobID bson.ObjectID) (*models.Job, error) {
	job, err := s.ownedJob(ctx, employerID, jobID)
	if err != nil {
		return nil, err
	}
	if job.ApprovalStatus != models.ApprovalRejected {
		return nil, errors.NewInvalidTransitionError("job", string(job.ApprovalStatus), string(models.ApprovalPending))
	}

	updated, err := s.store.UpdateJob(ctx, jobID, repository.JobUpdate{
		ApprovalStatus:  repository.Ptr(models.ApprovalPending),
		RejectionReason: repository.Ptr(""),
		IfApprovalIn:    []models.ApprovalStatus{models.ApprovalRejected},
	}, s.now())
	if err != nil {
		return nil, errors.Wrapf(err, "failed to resubmit job %s", jobID.Hex())
	}
	s.log.Infow("Job resubmitted", "job_id", jobID.Hex())
	return updated, nil
}

// Delete removes the job. Applications stay behind as history.
func (s *JobService) Delete(ctx context.Context, employerID, jobID bson.ObjectID) error {
	if _, err := s.ownedJob(ctx, employerID, jobID); err != nil {
		return err
	}
	if err := s.store.DeleteJob(ctx, jobID); err != nil {
		return errors.Wrapf(err, "failed to delete job %s", jobID.Hex())
	}
	s.log.Infow("Job deleted", "job_id", jobID.Hex(), "employer_id", employerID.Hex())
	return nil
}

// Approve makes the job visible to seekers. Approving an approved job is a no-op.
func (s *JobService) Approve(ctx context.Context, jobID bson.ObjectID) (*models.Job, error) {
	job, _, err := s.approve(ctx, jobID)
	return job, err
}

// approve also reports whether this call changed the job
func (s *JobService) approve(ctx context.Context, jobID bson.ObjectID) (*models.Job, bool, error) {
	job, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, false, err
	}
	if job.ApprovalStatus == models.ApprovalApproved {
		return job, false, nil
	}

	updated, err := s.store.UpdateJob(ctx, jobID, repository.JobUpdate{
		ApprovalStatus:  repository.Ptr(models.ApprovalApproved),
		RejectionReason: repository.Ptr(""),
		IfApprovalIn:    []models.ApprovalStatus{models.ApprovalPending, models.ApprovalRejected},
	}, s.now())
	if errors.Is(err, errors.ErrConflict) {
		// Another admin got there first
		if current, gerr := s.store.GetJob(ctx, jobID); gerr == nil && current.ApprovalStatus == models.ApprovalApproved {
			return current, false, nil
		}
	}
	if err != nil {
		return nil, false, errors.Wrapf(err, "failed to approve job %s", jobID.Hex())
	}

	s.log.Infow("Job approved", "job_id", jobID.Hex(), "from", job.ApprovalStatus)
	return updated, true, nil
}

// Reject hides the job from seekers and records why. An approved job cannot be rejected.
func (s *JobService) Reject(ctx context.Context, jobID bson.ObjectID, reason string) (*models.Job, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, errors.NewValidationError("a rejection reason is required")
	}

	job, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.ApprovalStatus == models.ApprovalApproved {
		return nil, errors.NewInvalidTransitionError("job", string(job.ApprovalStatus), string(models.ApprovalRejected))
	}

	updated, err := s.store.UpdateJob(ctx, jobID, repository.JobUpdate{
		ApprovalStatus:  repository.Ptr(models.ApprovalRejected),
		RejectionReason: repository.Ptr(reason),
		IfApprovalIn:    []models.ApprovalStatus{models.ApprovalPending, models.ApprovalRejected},
	}, s.now())
	if errors.Is(err, errors.ErrConflict) {
		if current, gerr := s.store.GetJob(ctx, jobID); gerr == nil && current.ApprovalStatus == models.ApprovalApproved {
			return nil, errors.NewInvalidTransitionError("job", string(current.ApprovalStatus), string(models.ApprovalRejected))
		}
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to reject job %s", jobID.Hex())
	}

	s.log.Infow("Job rejected", "job_id", jobID.Hex(), "from", job.ApprovalStatus, "reason", reason)
	return updated, nil
}

// ShouldAutoClose is the capacity rule: a positive limit that has been reached on a job
// that is still open
func ShouldAutoClose(job *models.Job, count int) bool {
	return job != nil && job.JobStatus != models.JobClosed && job.AtCapacity(count)
}

// AutoClose closes the job when count has reached its limit. The job is re-read and
// the close is conditional on the job still being open, so concurrent callers write
// at most once and a job that is already closed is left alone.
func (s *JobService) AutoClose(ctx context.Context, jobID bson.ObjectID, count int) (bool, error) {
	job, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		return false, err
	}
	if !ShouldAutoClose(job, count) {
		return false, nil
	}

	_, err = s.store.UpdateJob(ctx, jobID, repository.JobUpdate{
		JobStatus:   repository.Ptr(models.JobClosed),
		ClosedBy:    repository.Ptr(models.ClosedBySystem),
		IfJobStatus: repository.Ptr(models.JobOpen),
	}, s.now())
	if errors.Is(err, errors.ErrConflict) {
		return false, nil
	}
	if err != nil {
		return false, errors.Wrapf(err, "failed to auto-close job %s", jobID.Hex())
	}

	s.log.Infow("Job auto-closed", "job_id", jobID.Hex(), "count", count, "limit", job.ApplicantLimit)
	s.notifier.Notify(ctx, job.EmployerID, NotiJobAutoClosed,
		models.Ref{Entity: "job", ID: jobID},
		models.NotiParams{JobTitle: job.Title, Count: job.ApplicantLimit})
	return true, nil
}

// EvaluateCapacity counts the job's active applications now and applies AutoClose
func (s *JobService) EvaluateCapacity(ctx context.Context, jobID bson.ObjectID) (bool, error) {
	count, err := s.store.CountActiveApplications(ctx, jobID)
	if err != nil {
		return false, errors.Wrapf(err, "failed to count applications for job %s", jobID.Hex())
	}
	return s.AutoClose(ctx, jobID, count)
}

// Get returns a job regardless of its approval status
func (s *JobService) Get(ctx context.Context, jobID bson.ObjectID) (*models.Job, error) {
	return s.store.GetJob(ctx, jobID)
}

// GetVisible returns the job if the viewer may see it: approved jobs are public,
// others only to their employer and admins
func (s *JobService) GetVisible(ctx context.Context, viewer Actor, jobID bson.ObjectID) (*models.Job, error) {
	job, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.VisibleToSeekers() || viewer.IsAdmin() || job.OwnedBy(viewer.ID) {
		return job, nil
	}
	return nil, errors.NewNotFoundError("job %s not found", jobID.Hex())
}

// ListApproved is the seeker-facing listing
func (s *JobService) ListApproved(ctx context.Context, q dto.JobListQuery) ([]models.Job, error) {
	if err := Validate(q); err != nil {
		return nil, err
	}
	jobs, err := s.store.ListJobs(ctx, repository.JobFilter{
		ApprovalStatus: models.ApprovalApproved,
		Barangay:       strings.TrimSpace(q.Barangay),
		JobType:        models.JobType(q.JobType),
		JobStatus:      models.JobStatus(q.JobStatus),
		TitleQuery:     strings.TrimSpace(q.Q),
	})
	return jobs, errors.Wrap(err, "failed to list approved jobs")
}

// ListByEmployer returns every job the employer posted, rejected ones included
func (s *JobService) ListByEmployer(ctx context.Context, employerID bson.ObjectID) ([]models.Job, error) {
	jobs, err := s.store.ListJobs(ctx, repository.JobFilter{EmployerID: employerID})
	return jobs, errors.Wrap(err, "failed to list employer jobs")
}

// ListPending returns the review queue
func (s *JobService) ListPending(ctx context.Context) ([]models.Job, error) {
	jobs, err := s.store.ListJobs(ctx, repository.JobFilter{ApprovalStatus: models.ApprovalPending})
	return jobs, errors.Wrap(err, "failed to list pending jobs")
}

func (s *JobService) ownedJob(ctx context.Context, employerID, jobID bson.ObjectID) (*models.Job, error) {
	job, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if !job.OwnedBy(employerID) {
		return nil, errors.NewForbiddenError("job %s belongs to another employer", jobID.Hex())
	}
	return job, nil
}
