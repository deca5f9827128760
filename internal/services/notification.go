package services

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.uber.org/zap"

	"jobboard/errors"
	m "jobboard/internal/models"
	"jobboard/internal/repository"
)

const (
	NotiJobApproved         m.NotiType = "JOB_APPROVED"
	NotiJobRejected         m.NotiType = "JOB_REJECTED"
	NotiJobAutoClosed       m.NotiType = "JOB_AUTO_CLOSED"
	NotiApplicationReceived m.NotiType = "APPLICATION_RECEIVED"
	NotiApplicationStatus   m.NotiType = "APPLICATION_STATUS_CHANGED"
)

func BuildTitleBody(t m.NotiType, p m.NotiParams) (title, body string, err error) {
	if p.JobTitle == "" {
		return "", "", errors.Newf("%s: missing JobTitle", t)
	}

	switch t {
	case NotiJobApproved:
		return "Job post approved",
			fmt.Sprintf("%s is now visible to job seekers.", p.JobTitle), nil

	case NotiJobRejected:
		if p.Reason == "" {
			return "", "", errors.New("missing Reason")
		}
		return "Job post rejected",
			fmt.Sprintf("%s was not approved: %s", p.JobTitle, p.Reason), nil

	case NotiJobAutoClosed:
		return "Job post closed",
			fmt.Sprintf("%s reached its limit of %d applicants and was closed.", p.JobTitle, p.Count), nil

	case NotiApplicationReceived:
		if p.SeekerName == "" {
			return "", "", errors.New("missing SeekerName")
		}
		return "New applicant",
			fmt.Sprintf("%s applied to %s.", p.SeekerName, p.JobTitle), nil

	case NotiApplicationStatus:
		if p.Status == "" {
			return "", "", errors.New("missing Status")
		}
		return "Application update",
			fmt.Sprintf("Your application for %s is now %s.", p.JobTitle, p.Status), nil
	}
	return "", "", errors.Newf("unknown noti type: %s", t)
}

// Notifier writes in-app notifications. Delivery is best effort: Notify logs failures
// and never fails the command that triggered it.
type Notifier struct {
	store repository.NotificationStore
	log   *zap.SugaredLogger
	now   Clock
}

func NewNotifier(store repository.NotificationStore, log *zap.SugaredLogger) *Notifier {
	return &Notifier{store: store, log: log, now: systemClock}
}

// NotifyOne creates a notification for a single user
func (n *Notifier) NotifyOne(ctx context.Context, userID bson.ObjectID, typ m.NotiType, ref m.Ref, p m.NotiParams) error {
	if userID.IsZero() {
		return errors.New("notifyOne: zero userID")
	}
	title, body, err := BuildTitleBody(typ, p)
	if err != nil {
		return err
	}
	return n.store.InsertNotification(ctx, &m.Notification{
		UserID:    userID,
		Type:      typ,
		Title:     title,
		Body:      body,
		Ref:       ref,
		Read:      false,
		CreatedAt: n.now(),
	})
}

// Notify is NotifyOne with failures logged instead of returned
func (n *Notifier) Notify(ctx context.Context, userID bson.ObjectID, typ m.NotiType, ref m.Ref, p m.NotiParams) {
	if n == nil {
		return
	}
	if err := n.NotifyOne(ctx, userID, typ, ref, p); err != nil {
		n.log.Warnw("Notification not delivered",
			"user_id", userID.Hex(), "type", typ, "ref_id", ref.ID.Hex(), "error", err)
	}
}

// List returns the user's notifications, newest first
func (n *Notifier) List(ctx context.Context, userID bson.ObjectID, limit int) ([]m.Notification, error) {
	notes, err := n.store.ListNotifications(ctx, userID, limit)
	return notes, errors.Wrap(err, "failed to list notifications")
}
