package database

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"jobboard/errors"
	"jobboard/logger"
)

const connectTimeout = 10 * time.Second

// ConnectMongo opens a client and pings the primary before handing back the database
func ConnectMongo(ctx context.Context, uri string, dbName string) (*mongo.Client, *mongo.Database, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(connectTimeout)

	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, nil, errors.WrapStoreUnavailable(err, "mongo connect")
	}

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, errors.WrapStoreUnavailable(err, "mongo ping")
	}

	logger.Infow("Connected to MongoDB", "database", dbName)
	return client, client.Database(dbName), nil
}

// Disconnect closes the client, logging instead of failing on shutdown
func Disconnect(client *mongo.Client) {
	if client == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Disconnect(ctx); err != nil {
		logger.Warnw("MongoDB disconnect failed", "error", err)
	}
}
