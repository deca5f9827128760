package services

import (
	"bytes"

	"go.mongodb.org/mongo-driver/v2/bson"

	"jobboard/errors"
	"jobboard/internal/models"
)

// newer orders applications by applied_at. On equal timestamps an active application
// wins: a seeker can only reapply once the previous one is rejected, so the active one is
// always the later insert. Remaining ties are between rejected applications and fall back
// to id order. ObjectIDs only follow insertion order within one process, so across API
// instances that last step picks a stable but arbitrary winner; eligibility is the same
// either way.
func newer(a, b *models.Application) bool {
	if !a.AppliedAt.Equal(b.AppliedAt) {
		return a.AppliedAt.After(b.AppliedAt)
	}
	if aa, ba := a.Status.Active(), b.Status.Active(); aa != ba {
		return aa
	}
	return bytes.Compare(a.ID[:], b.ID[:]) > 0
}

// ResolveLatest returns the seeker's most recent application for the job, or nil when
// there is none. Every eligibility check and status display goes through here.
func ResolveLatest(seekerID, jobID bson.ObjectID, apps []models.Application) *models.Application {
	var latest *models.Application
	for i := range apps {
		a := &apps[i]
		if a.SeekerID != seekerID || a.JobID != jobID {
			continue
		}
		if latest == nil || newer(a, latest) {
			latest = a
		}
	}
	if latest == nil {
		return nil
	}
	out := *latest
	return &out
}

// LatestByJob resolves the latest application per job for one seeker
func LatestByJob(seekerID bson.ObjectID, apps []models.Application) map[bson.ObjectID]*models.Application {
	out := make(map[bson.ObjectID]*models.Application)
	for i := range apps {
		a := &apps[i]
		if a.SeekerID != seekerID {
			continue
		}
		if cur, ok := out[a.JobID]; !ok || newer(a, cur) {
			out[a.JobID] = a
		}
	}
	for jobID, a := range out {
		cp := *a
		out[jobID] = &cp
	}
	return out
}

// CanApply is the reapply rule: allowed with no history or when the latest application was rejected
func CanApply(latest *models.Application) error {
	if latest == nil || !latest.Status.Active() {
		return nil
	}
	return errors.WithDetailf(
		errors.Wrapf(errors.ErrAlreadyApplied, "application %s is %s", latest.ID.Hex(), latest.Status),
		"applied at %s", latest.AppliedAt.Format("2006-01-02 15:04"))
}
