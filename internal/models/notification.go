package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type NotiType string

type Ref struct {
	Entity string        `bson:"entity" json:"entity"` // "job" | "application"
	ID     bson.ObjectID `bson:"id"     json:"id"`
}

type Notification struct {
	ID        bson.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    bson.ObjectID `bson:"user_id"       json:"user_id"`
	Type      NotiType      `bson:"type"          json:"type"`
	Title     string        `bson:"title"         json:"title"`
	Body      string        `bson:"body"          json:"body"`
	Ref       Ref           `bson:"ref"           json:"ref"`
	Read      bool          `bson:"read"          json:"read"`
	CreatedAt time.Time     `bson:"created_at"    json:"created_at"`
}

// NotiParams carries the values the title/body templates need
type NotiParams struct {
	JobTitle   string
	SeekerName string
	Reason     string
	Status     ApplicationStatus
	Count      int
}
