package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"jobboard/errors"
)

// Config represents the job board service configuration
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Mongo   MongoConfig   `mapstructure:"mongo"`
	Store   StoreConfig   `mapstructure:"store"`
	Auth    AuthConfig    `mapstructure:"auth"`
	Jobs    JobsConfig    `mapstructure:"jobs"`
	Watcher WatcherConfig `mapstructure:"watcher"`
	Apply   ApplyConfig   `mapstructure:"apply"`
	Log     LogConfig     `mapstructure:"log"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
}

type MongoConfig struct {
	URI      string `mapstructure:"uri"`
	Database string `mapstructure:"database"`
}

// StoreConfig selects the document store and its retry policy for transient failures
type StoreConfig struct {
	Driver         string `mapstructure:"driver"` // mongo | memory
	RetryAttempts  int    `mapstructure:"retry_attempts"`
	RetryBackoffMS int    `mapstructure:"retry_backoff_ms"`
}

type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
}

// JobsConfig holds job lifecycle policy knobs
type JobsConfig struct {
	EditPolicy string `mapstructure:"edit_policy"` // preserve | resubmit
}

type WatcherConfig struct {
	DebounceMS int `mapstructure:"debounce_ms"` // 0 = evaluate every change immediately
}

type ApplyConfig struct {
	RatePerMinute int `mapstructure:"rate_per_minute"` // 0 = unlimited
}

type LogConfig struct {
	JSON bool `mapstructure:"json"`
}

const (
	DriverMongo  = "mongo"
	DriverMemory = "memory"

	envPrefix = "JOBBOARD"
)

// Load reads configuration from .env, an optional TOML file and the environment.
// Precedence (lowest to highest): defaults < config file < environment.
func Load(configPath string) (*Config, error) {
	// A missing .env is normal outside local development
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindLegacyEnvVars(v)
	SetDefaults(v)

	if configPath == "" {
		if _, err := os.Stat("jobboard.toml"); err == nil {
			configPath = "jobboard.toml"
		}
	}
	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "failed to read config file %s", configPath)
		}
	}

	return LoadWithViper(v)
}

// LoadWithViper unmarshals and validates configuration from a prepared Viper instance
func LoadWithViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// bindLegacyEnvVars keeps the plain MONGO_URI / MONGO_DB / PORT / JWT_SECRET names working
func bindLegacyEnvVars(v *viper.Viper) {
	_ = v.BindEnv("server.port", envPrefix+"_SERVER_PORT", "PORT")
	_ = v.BindEnv("mongo.uri", envPrefix+"_MONGO_URI", "MONGO_URI")
	_ = v.BindEnv("mongo.database", envPrefix+"_MONGO_DATABASE", "MONGO_DB")
	_ = v.BindEnv("auth.jwt_secret", envPrefix+"_AUTH_JWT_SECRET", "JWT_SECRET")
}

// RetryBackoff is the first delay between store retries
func (c *Config) RetryBackoff() time.Duration {
	return time.Duration(c.Store.RetryBackoffMS) * time.Millisecond
}

// DebounceWindow is the quiet period the applicant count watcher waits for
func (c *Config) DebounceWindow() time.Duration {
	return time.Duration(c.Watcher.DebounceMS) * time.Millisecond
}
