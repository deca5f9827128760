package bootstrap

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"jobboard/errors"
	"jobboard/internal/repository"
)

// UniqActiveApplication is the index backing the one-active-application-per-seeker rule.
const UniqActiveApplication = "uniq_active_job_seeker"

// EnsureIndexes creates every index the store relies on. Safe to run repeatedly.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	if err := ensureJobIndexes(ctx, db); err != nil {
		return err
	}
	if err := ensureApplicationIndexes(ctx, db); err != nil {
		return err
	}
	return ensureNotificationIndexes(ctx, db)
}

func ensureJobIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(repository.CollJobs).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "approval_status", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("approval_created"),
		},
		{
			Keys:    bson.D{{Key: "employer_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("employer_created"),
		},
	})
	return errors.Wrap(err, "failed to create job indexes")
}

func ensureApplicationIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(repository.CollApplications).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "job_id", Value: 1},
				{Key: "seeker_id", Value: 1},
			},
			Options: options.Index().
				SetUnique(true).
				SetName(UniqActiveApplication).
				SetPartialFilterExpression(bson.M{"active": true}),
		},
		{
			Keys:    bson.D{{Key: "seeker_id", Value: 1}, {Key: "applied_at", Value: -1}},
			Options: options.Index().SetName("seeker_applied"),
		},
		{
			Keys:    bson.D{{Key: "job_id", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index().SetName("job_status"),
		},
	})
	return errors.Wrap(err, "failed to create application indexes")
}

func ensureNotificationIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(repository.CollNotifications).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
		Options: options.Index().SetName("user_created"),
	})
	return errors.Wrap(err, "failed to create notification indexes")
}
