package config

import "github.com/spf13/viper"

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "3000")

	v.SetDefault("mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("mongo.database", "jobboard")

	v.SetDefault("store.driver", DriverMongo)
	v.SetDefault("store.retry_attempts", 3)
	v.SetDefault("store.retry_backoff_ms", 100)

	// Empty on purpose: serve refuses to start without a secret
	v.SetDefault("auth.jwt_secret", "")

	// Edits to an approved job keep it approved unless configured otherwise
	v.SetDefault("jobs.edit_policy", "preserve")

	v.SetDefault("watcher.debounce_ms", 200)
	v.SetDefault("apply.rate_per_minute", 10)
	v.SetDefault("log.json", false)
}
