package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"jobboard/internal/models"
)

type changeEvent struct {
	OperationType string `bson:"operationType"`
	DocumentKey   struct {
		ID bson.ObjectID `bson:"_id"`
	} `bson:"documentKey"`
	FullDocument *struct {
		JobID bson.ObjectID `bson:"job_id"`
	} `bson:"fullDocument"`
}

// WatchApplications streams changes to the job's applications from a change stream
func (s *MongoStore) WatchApplications(ctx context.Context, jobID bson.ObjectID) (<-chan models.ApplicationChange, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "fullDocument.job_id", Value: jobID}}}},
	}
	stream, err := s.applications.Watch(ctx, pipeline,
		options.ChangeStream().SetFullDocument(options.UpdateLookup))
	if err != nil {
		return nil, classify(err, "watch applications")
	}

	out := make(chan models.ApplicationChange, 16)
	go func() {
		defer close(out)
		defer stream.Close(context.Background())

		for stream.Next(ctx) {
			var ev changeEvent
			if err := stream.Decode(&ev); err != nil {
				s.log.Warnw("Undecodable application change", "job_id", jobID.Hex(), "error", err)
				continue
			}
			change := models.ApplicationChange{
				ApplicationID: ev.DocumentKey.ID,
				JobID:         jobID,
				Operation:     ev.OperationType,
			}
			select {
			case out <- change:
			case <-ctx.Done():
				return
			}
		}
		if err := stream.Err(); err != nil && ctx.Err() == nil {
			s.log.Warnw("Application change stream ended", "job_id", jobID.Hex(), "error", err)
		}
	}()
	return out, nil
}

// WatchJobs streams changes to a single job document, deletes included
func (s *MongoStore) WatchJobs(ctx context.Context, jobID bson.ObjectID) (<-chan models.JobChange, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "documentKey._id", Value: jobID}}}},
	}
	stream, err := s.jobs.Watch(ctx, pipeline)
	if err != nil {
		return nil, classify(err, "watch jobs")
	}

	out := make(chan models.JobChange, 16)
	go func() {
		defer close(out)
		defer stream.Close(context.Background())

		for stream.Next(ctx) {
			var ev changeEvent
			if err := stream.Decode(&ev); err != nil {
				s.log.Warnw("Undecodable job change", "job_id", jobID.Hex(), "error", err)
				continue
			}
			select {
			case out <- models.JobChange{JobID: ev.DocumentKey.ID, Operation: ev.OperationType}:
			case <-ctx.Done():
				return
			}
		}
		if err := stream.Err(); err != nil && ctx.Err() == nil {
			s.log.Warnw("Job change stream ended", "job_id", jobID.Hex(), "error", err)
		}
	}()
	return out, nil
}
