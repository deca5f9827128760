package commands

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/mongo"

	"jobboard/bootstrap"
	"jobboard/config"
	"jobboard/database"
	"jobboard/errors"
	"jobboard/internal/repository"
	"jobboard/logger"
)

// Set from the root command's persistent flags
var (
	ConfigPath string
	JSONLogs   bool
)

// loadConfig reads the configuration and sets up the global logger
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(ConfigPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load configuration")
	}
	if err := logger.Initialize(cfg.Log.JSON || JSONLogs); err != nil {
		return nil, errors.Wrap(err, "failed to initialize logger")
	}
	return cfg, nil
}

// openStore builds the configured store. Mongo gets its indexes ensured and is
// wrapped in the retry decorator. The returned func releases the connection.
func openStore(ctx context.Context, cfg *config.Config) (repository.Store, func(), error) {
	log := logger.Named("store")

	if cfg.Store.Driver == config.DriverMemory {
		log.Warnw("Using the in-memory store; data is lost on exit")
		return repository.NewMemoryStore(), func() {}, nil
	}

	client, db, err := connectMongo(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	if err := bootstrap.EnsureIndexes(ctx, db); err != nil {
		database.Disconnect(client)
		return nil, nil, errors.Wrap(err, "failed to ensure indexes")
	}

	store := repository.WithRetry(
		repository.NewMongoStore(db, log),
		cfg.Store.RetryAttempts, cfg.RetryBackoff(), log,
	)
	return store, func() { database.Disconnect(client) }, nil
}

func connectMongo(ctx context.Context, cfg *config.Config) (*mongo.Client, *mongo.Database, error) {
	client, db, err := database.ConnectMongo(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
	if err != nil {
		return nil, nil, errors.WithHint(
			errors.Wrap(err, "failed to connect to MongoDB"),
			"check mongo.uri / MONGO_URI, or set JOBBOARD_STORE_DRIVER=memory for local runs")
	}
	return client, db, nil
}
