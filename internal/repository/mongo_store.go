package repository

import (
	"context"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.uber.org/zap"

	"jobboard/errors"
	"jobboard/internal/models"
)

// MongoStore is the production Store. Change streams need a replica set.
type MongoStore struct {
	jobs          *mongo.Collection
	applications  *mongo.Collection
	users         *mongo.Collection
	notifications *mongo.Collection
	log           *zap.SugaredLogger
}

func NewMongoStore(db *mongo.Database, log *zap.SugaredLogger) *MongoStore {
	return &MongoStore{
		jobs:          db.Collection(CollJobs),
		applications:  db.Collection(CollApplications),
		users:         db.Collection(CollUsers),
		notifications: db.Collection(CollNotifications),
		log:           log,
	}
}

// ---- jobs ----

func (s *MongoStore) InsertJob(ctx context.Context, job *models.Job) error {
	if job.ID.IsZero() {
		job.ID = bson.NewObjectID()
	}
	_, err := s.jobs.InsertOne(ctx, job)
	return classify(err, "insert job")
}

func (s *MongoStore) GetJob(ctx context.Context, id bson.ObjectID) (*models.Job, error) {
	var job models.Job
	err := s.jobs.FindOne(ctx, bson.M{"_id": id}).Decode(&job)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errors.NewNotFoundError("job %s not found", id.Hex())
	}
	if err != nil {
		return nil, classify(err, "get job")
	}
	return &job, nil
}

func (s *MongoStore) UpdateJob(ctx context.Context, id bson.ObjectID, u JobUpdate, at time.Time) (*models.Job, error) {
	filter := bson.M{"_id": id}
	if len(u.IfApprovalIn) > 0 {
		filter["approval_status"] = bson.M{"$in": u.IfApprovalIn}
	}
	if u.IfJobStatus != nil {
		filter["job_status"] = *u.IfJobStatus
	}
	if !u.IfEmployerID.IsZero() {
		filter["employer_id"] = u.IfEmployerID
	}

	set := bson.M{"updated_at": at}
	unset := bson.M{}
	if d := u.Details; d != nil {
		set["title"] = d.Title
		set["description"] = d.Description
		set["barangay"] = d.Barangay
		set["address"] = d.Address
		set["contact_number"] = d.ContactNumber
		set["skills"] = d.Skills
		set["experience"] = d.Experience
		set["image_ref"] = d.ImageRef
		set["job_type"] = d.JobType
		set["applicant_limit"] = d.ApplicantLimit
	}
	if u.ApprovalStatus != nil {
		set["approval_status"] = *u.ApprovalStatus
	}
	if u.RejectionReason != nil {
		if *u.RejectionReason == "" {
			unset["rejection_reason"] = ""
		} else {
			set["rejection_reason"] = *u.RejectionReason
		}
	}
	if u.JobStatus != nil {
		set["job_status"] = *u.JobStatus
	}
	if u.ClosedBy != nil {
		set["closed_by"] = *u.ClosedBy
	}

	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	var job models.Job
	err := s.jobs.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&job)
	if errors.Is(err, mongo.ErrNoDocuments) {
		// Either the job is gone or a guard failed; tell the two apart
		n, cerr := s.jobs.CountDocuments(ctx, bson.M{"_id": id})
		if cerr != nil {
			return nil, classify(cerr, "update job")
		}
		if n == 0 {
			return nil, errors.NewNotFoundError("job %s not found", id.Hex())
		}
		return nil, errors.Wrapf(errors.ErrConflict, "job %s changed concurrently", id.Hex())
	}
	if err != nil {
		return nil, classify(err, "update job")
	}
	return &job, nil
}

func (s *MongoStore) DeleteJob(ctx context.Context, id bson.ObjectID) error {
	res, err := s.jobs.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return classify(err, "delete job")
	}
	if res.DeletedCount == 0 {
		return errors.NewNotFoundError("job %s not found", id.Hex())
	}
	return nil
}

func (s *MongoStore) ListJobs(ctx context.Context, f JobFilter) ([]models.Job, error) {
	filter := bson.M{}
	if f.ApprovalStatus != "" {
		filter["approval_status"] = f.ApprovalStatus
	}
	if !f.EmployerID.IsZero() {
		filter["employer_id"] = f.EmployerID
	}
	if f.Barangay != "" {
		filter["barangay"] = f.Barangay
	}
	if f.JobType != "" {
		filter["job_type"] = f.JobType
	}
	if f.JobStatus != "" {
		filter["job_status"] = f.JobStatus
	}
	if f.TitleQuery != "" {
		filter["title"] = bson.M{"$regex": regexp.QuoteMeta(f.TitleQuery), "$options": "i"}
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	cursor, err := s.jobs.Find(ctx, filter, opts)
	if err != nil {
		return nil, classify(err, "list jobs")
	}
	jobs := []models.Job{}
	if err := cursor.All(ctx, &jobs); err != nil {
		return nil, classify(err, "decode jobs")
	}
	return jobs, nil
}

func (s *MongoStore) ReserveApplicantSlot(ctx context.Context, id bson.ObjectID) error {
	filter := bson.M{
		"_id":             id,
		"approval_status": models.ApprovalApproved,
		"job_status":      models.JobOpen,
		"$or": bson.A{
			bson.M{"applicant_limit": bson.M{"$lte": 0}},
			bson.M{"$expr": bson.M{"$lt": bson.A{
				bson.M{"$ifNull": bson.A{"$reserved_slots", 0}},
				"$applicant_limit",
			}}},
		},
	}
	res, err := s.jobs.UpdateOne(ctx, filter, bson.M{"$inc": bson.M{"reserved_slots": 1}})
	if err != nil {
		return classify(err, "reserve applicant slot")
	}
	if res.MatchedCount == 0 {
		n, cerr := s.jobs.CountDocuments(ctx, bson.M{"_id": id})
		if cerr != nil {
			return classify(cerr, "reserve applicant slot")
		}
		if n == 0 {
			return errors.NewNotFoundError("job %s not found", id.Hex())
		}
		return errors.Wrapf(errors.ErrConflict, "job %s has no free applicant slot", id.Hex())
	}
	return nil
}

func (s *MongoStore) ReleaseApplicantSlot(ctx context.Context, id bson.ObjectID) error {
	_, err := s.jobs.UpdateOne(ctx,
		bson.M{"_id": id, "reserved_slots": bson.M{"$gt": 0}},
		bson.M{"$inc": bson.M{"reserved_slots": -1}},
	)
	return classify(err, "release applicant slot")
}

// ---- applications ----

func (s *MongoStore) InsertApplication(ctx context.Context, app *models.Application) error {
	if app.ID.IsZero() {
		app.ID = bson.NewObjectID()
	}
	app.Active = app.Status.Active()
	_, err := s.applications.InsertOne(ctx, app)
	if mongo.IsDuplicateKeyError(err) {
		return errors.Wrapf(errors.ErrAlreadyApplied,
			"seeker %s already holds an active application for job %s", app.SeekerID.Hex(), app.JobID.Hex())
	}
	return classify(err, "insert application")
}

func (s *MongoStore) GetApplication(ctx context.Context, id bson.ObjectID) (*models.Application, error) {
	var app models.Application
	err := s.applications.FindOne(ctx, bson.M{"_id": id}).Decode(&app)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errors.NewNotFoundError("application %s not found", id.Hex())
	}
	if err != nil {
		return nil, classify(err, "get application")
	}
	return &app, nil
}

func (s *MongoStore) ListApplications(ctx context.Context, f ApplicationFilter) ([]models.Application, error) {
	filter := bson.M{}
	if !f.JobID.IsZero() {
		filter["job_id"] = f.JobID
	}
	if !f.SeekerID.IsZero() {
		filter["seeker_id"] = f.SeekerID
	}
	if !f.EmployerID.IsZero() {
		filter["employer_id"] = f.EmployerID
	}

	opts := options.Find().SetSort(bson.D{{Key: "applied_at", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := s.applications.Find(ctx, filter, opts)
	if err != nil {
		return nil, classify(err, "list applications")
	}
	apps := []models.Application{}
	if err := cursor.All(ctx, &apps); err != nil {
		return nil, classify(err, "decode applications")
	}
	return apps, nil
}

func (s *MongoStore) CountActiveApplications(ctx context.Context, jobID bson.ObjectID) (int, error) {
	n, err := s.applications.CountDocuments(ctx, bson.M{
		"job_id": jobID,
		"status": bson.M{"$ne": models.ApplicationRejected},
	})
	if err != nil {
		return 0, classify(err, "count applications")
	}
	return int(n), nil
}

func (s *MongoStore) UpdateApplicationStatus(ctx context.Context, id bson.ObjectID, from, to models.ApplicationStatus, at time.Time) (*models.Application, error) {
	var app models.Application
	err := s.applications.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "status": from},
		bson.M{"$set": bson.M{"status": to, "active": to.Active(), "updated_at": at}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&app)
	if errors.Is(err, mongo.ErrNoDocuments) {
		if _, gerr := s.GetApplication(ctx, id); gerr != nil {
			return nil, gerr
		}
		return nil, errors.Wrapf(errors.ErrConflict, "application %s is no longer %s", id.Hex(), from)
	}
	if err != nil {
		return nil, classify(err, "update application status")
	}
	return &app, nil
}

// ---- users ----

func (s *MongoStore) GetUser(ctx context.Context, id bson.ObjectID) (*models.User, error) {
	var user models.User
	err := s.users.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errors.NewNotFoundError("user %s not found", id.Hex())
	}
	if err != nil {
		return nil, classify(err, "get user")
	}
	return &user, nil
}

func (s *MongoStore) UpsertUser(ctx context.Context, user *models.User) error {
	if user.ID.IsZero() {
		user.ID = bson.NewObjectID()
	}
	_, err := s.users.ReplaceOne(ctx, bson.M{"_id": user.ID}, user, options.Replace().SetUpsert(true))
	return classify(err, "upsert user")
}

// ---- notifications ----

func (s *MongoStore) InsertNotification(ctx context.Context, n *models.Notification) error {
	if n.ID.IsZero() {
		n.ID = bson.NewObjectID()
	}
	_, err := s.notifications.InsertOne(ctx, n)
	return classify(err, "insert notification")
}

func (s *MongoStore) ListNotifications(ctx context.Context, userID bson.ObjectID, limit int) ([]models.Notification, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cursor, err := s.notifications.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, classify(err, "list notifications")
	}
	out := []models.Notification{}
	if err := cursor.All(ctx, &out); err != nil {
		return nil, classify(err, "decode notifications")
	}
	return out, nil
}
