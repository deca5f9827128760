package config

import (
	"strconv"

	"jobboard/errors"
)

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if port, err := strconv.Atoi(c.Server.Port); err != nil || port <= 0 || port > 65535 {
		return errors.Newf("server.port must be a port number, got %q", c.Server.Port)
	}

	switch c.Store.Driver {
	case DriverMongo:
		if c.Mongo.URI == "" {
			return errors.New("mongo.uri cannot be empty when store.driver is mongo")
		}
		if c.Mongo.Database == "" {
			return errors.New("mongo.database cannot be empty when store.driver is mongo")
		}
	case DriverMemory:
	default:
		return errors.Newf("store.driver must be %q or %q, got %q", DriverMongo, DriverMemory, c.Store.Driver)
	}

	if c.Store.RetryAttempts < 1 {
		return errors.Newf("store.retry_attempts must be >= 1, got %d", c.Store.RetryAttempts)
	}
	if c.Store.RetryBackoffMS < 0 {
		return errors.Newf("store.retry_backoff_ms must be >= 0, got %d", c.Store.RetryBackoffMS)
	}

	if c.Jobs.EditPolicy != "preserve" && c.Jobs.EditPolicy != "resubmit" {
		return errors.Newf("jobs.edit_policy must be preserve or resubmit, got %q", c.Jobs.EditPolicy)
	}

	if c.Watcher.DebounceMS < 0 {
		return errors.Newf("watcher.debounce_ms must be >= 0, got %d", c.Watcher.DebounceMS)
	}
	if c.Apply.RatePerMinute < 0 {
		return errors.Newf("apply.rate_per_minute must be >= 0, got %d", c.Apply.RatePerMinute)
	}

	return nil
}
