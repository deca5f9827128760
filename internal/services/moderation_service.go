package services

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.uber.org/zap"

	"jobboard/dto"
	"jobboard/errors"
	"jobboard/internal/models"
	"jobboard/internal/repository"
)

// ModerationService is the admin review gate in front of the seeker listing
type ModerationService struct {
	store    repository.Store
	jobs     *JobService
	notifier *Notifier
	log      *zap.SugaredLogger
}

func NewModerationService(store repository.Store, jobs *JobService, notifier *Notifier, log *zap.SugaredLogger) *ModerationService {
	return &ModerationService{store: store, jobs: jobs, notifier: notifier, log: log}
}

// ListPending returns the review queue joined with each job's employer profile.
// The join is one user lookup per job, run sequentially; the lookup count is logged
// so the N+1 cost stays visible.
func (s *ModerationService) ListPending(ctx context.Context) ([]dto.PendingJob, error) {
	jobs, err := s.jobs.ListPending(ctx)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	out := make([]dto.PendingJob, 0, len(jobs))
	missing := 0
	for _, job := range jobs {
		employer, err := s.store.GetUser(ctx, job.EmployerID)
		if errors.IsNotFound(err) {
			missing++
			out = append(out, dto.PendingJob{Job: job})
			continue
		}
		if err != nil {
			return nil, errors.Wrapf(err, "failed to load employer of job %s", job.ID.Hex())
		}
		out = append(out, dto.PendingJob{Job: job, Employer: dto.NewEmployerProfile(employer)})
	}

	s.log.Infow("Pending jobs joined with employers",
		"jobs", len(jobs), "lookups", len(jobs), "missing_employers", missing, "elapsed", time.Since(start))
	return out, nil
}

// Decide applies an admin's approve or reject decision and tells the employer
func (s *ModerationService) Decide(ctx context.Context, adminID, jobID bson.ObjectID, decision, reason string) (*models.Job, error) {
	var (
		job     *models.Job
		err     error
		typ     models.NotiType
		changed = true
	)
	switch strings.ToLower(strings.TrimSpace(decision)) {
	case dto.DecisionApprove:
		job, changed, err = s.jobs.approve(ctx, jobID)
		typ = NotiJobApproved
	case dto.DecisionReject:
		job, err = s.jobs.Reject(ctx, jobID, reason)
		typ = NotiJobRejected
	default:
		return nil, errors.NewValidationError("decision must be approve or reject, got %q", decision)
	}
	if err != nil {
		return nil, err
	}
	if !changed {
		s.log.Infow("Job already approved", "job_id", jobID.Hex(), "admin_id", adminID.Hex())
		return job, nil
	}

	s.log.Infow("Moderation decision", "job_id", jobID.Hex(), "admin_id", adminID.Hex(), "decision", decision)
	s.notifier.Notify(ctx, job.EmployerID, typ,
		models.Ref{Entity: "job", ID: jobID},
		models.NotiParams{JobTitle: job.Title, Reason: job.RejectionReason})
	return job, nil
}
