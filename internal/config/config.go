package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Storage backends for achievement records
const (
	BackendPostgres = "postgres"
	BackendBadger   = "badger"
	BackendMemory   = "memory"
)

// Analytics sinks
const (
	SinkDatabase = "database"
	SinkLog      = "log"
)

// Config holds all application configuration
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Storage    StorageConfig
	Milestones MilestonesConfig
	Analytics  AnalyticsConfig
	Steps      StepsConfig
	Logging    LoggingConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port            string
	Environment     string
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	AutoMigrate     bool
}

// StorageConfig selects where achievement records are kept
type StorageConfig struct {
	Backend    string // postgres, badger or memory
	BadgerPath string // empty runs Badger in memory
}

// MilestonesConfig holds milestone engine configuration
type MilestonesConfig struct {
	StoreTimeout     time.Duration
	AnalyticsTimeout time.Duration
	EnableReset      bool
}

// AnalyticsConfig holds analytics event configuration
type AnalyticsConfig struct {
	Enabled    bool
	Sink       string // database or log
	BufferSize int
}

// StepsConfig holds step statistics configuration
type StepsConfig struct {
	DefaultDailyGoal int
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string // json or console
}

// Load reads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.AutomaticEnv()

	if err := bindEnvVars(v); err != nil {
		return nil, fmt.Errorf("failed to bind environment variables: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.shutdowntimeout", 30*time.Second)

	// Database defaults
	v.SetDefault("database.maxopenconns", 25)
	v.SetDefault("database.maxidleconns", 5)
	v.SetDefault("database.connmaxlifetime", 5*time.Minute)
	v.SetDefault("database.automigrate", true)

	v.SetDefault("storage.backend", BackendPostgres)
	v.SetDefault("storage.badgerpath", "")

	v.SetDefault("milestones.storetimeout", 2*time.Second)
	v.SetDefault("milestones.analyticstimeout", time.Second)
	v.SetDefault("milestones.enablereset", false)

	v.SetDefault("analytics.enabled", true)
	v.SetDefault("analytics.sink", SinkDatabase)
	v.SetDefault("analytics.buffersize", 1024)

	v.SetDefault("steps.defaultdailygoal", 10000)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// bindEnvVars binds environment variables to config keys
func bindEnvVars(v *viper.Viper) error {
	bindings := map[string][]string{
		"server.port":                 {"PORT"},
		"server.environment":          {"ENV", "ENVIRONMENT"},
		"server.shutdowntimeout":      {"SHUTDOWN_TIMEOUT"},
		"database.url":                {"DATABASE_URL"},
		"database.maxopenconns":       {"DATABASE_MAX_OPEN_CONNS"},
		"database.automigrate":        {"DATABASE_AUTO_MIGRATE"},
		"storage.backend":             {"ACHIEVEMENT_STORE"},
		"storage.badgerpath":          {"BADGER_PATH"},
		"milestones.storetimeout":     {"MILESTONE_STORE_TIMEOUT"},
		"milestones.analyticstimeout": {"MILESTONE_ANALYTICS_TIMEOUT"},
		"milestones.enablereset":      {"MILESTONE_ENABLE_RESET"},
		"analytics.enabled":           {"ANALYTICS_ENABLED"},
		"analytics.sink":              {"ANALYTICS_SINK"},
		"analytics.buffersize":        {"ANALYTICS_BUFFER_SIZE"},
		"steps.defaultdailygoal":      {"DEFAULT_DAILY_GOAL"},
		"logging.level":               {"LOG_LEVEL"},
		"logging.format":              {"LOG_FORMAT"},
	}

	for key, envs := range bindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("database.url is required")
	}

	switch c.Storage.Backend {
	case BackendPostgres, BackendBadger, BackendMemory:
	default:
		return fmt.Errorf("storage.backend must be one of postgres, badger, memory: got %q", c.Storage.Backend)
	}

	if c.Analytics.Enabled {
		switch c.Analytics.Sink {
		case SinkDatabase, SinkLog:
		default:
			return fmt.Errorf("analytics.sink must be database or log: got %q", c.Analytics.Sink)
		}
		if c.Analytics.BufferSize <= 0 {
			return fmt.Errorf("analytics.buffersize must be positive")
		}
	}

	if c.Steps.DefaultDailyGoal <= 0 {
		return fmt.Errorf("steps.defaultdailygoal must be positive")
	}

	if c.Milestones.StoreTimeout <= 0 || c.Milestones.AnalyticsTimeout <= 0 {
		return fmt.Errorf("milestone timeouts must be positive")
	}

	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console: got %q", c.Logging.Format)
	}

	return nil
}

// IsProduction reports whether the service runs in production
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}
