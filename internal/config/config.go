package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"time"

	"anchortest/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Bootstrap  BootstrapConfig
	Experiment ExperimentConfig
	Database   DatabaseConfig
	Server     ServerConfig
	Log        LogConfig
}

// BootstrapConfig holds resampling test settings
type BootstrapConfig struct {
	Replicates      int
	Workers         int
	BaseSeed        uint64
	DistanceWorkers int
}

// ExperimentConfig holds experiment runner settings
type ExperimentConfig struct {
	PlanPath       string
	MaxRetries     int
	RetryThreshold float64
	Concurrency    int
	Seed           uint64
}

// DatabaseConfig holds database connection settings. An empty URL selects
// the in-memory result repository.
type DatabaseConfig struct {
	URL            string
	ConnectTimeout time.Duration
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port    string
	GinMode string
	OpsPort string
}

// LogConfig holds logger settings
type LogConfig struct {
	Level  string
	Format string
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{
		Bootstrap:  loadBootstrapConfig(),
		Experiment: loadExperimentConfig(),
		Database:   loadDatabaseConfig(),
		Server:     loadServerConfig(),
		Log:        loadLogConfig(),
	}

	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

func loadBootstrapConfig() BootstrapConfig {
	return BootstrapConfig{
		Replicates:      getEnvIntOrDefault("BOOTSTRAP_REPLICATES", 500),
		Workers:         getEnvIntOrDefault("BOOTSTRAP_WORKERS", runtime.GOMAXPROCS(0)),
		BaseSeed:        getEnvUintOrDefault("BOOTSTRAP_BASE_SEED", 0),
		DistanceWorkers: getEnvIntOrDefault("DISTANCE_WORKERS", 1),
	}
}

func loadExperimentConfig() ExperimentConfig {
	return ExperimentConfig{
		PlanPath:       getEnvOrDefault("EXPERIMENT_PLAN", ""),
		MaxRetries:     getEnvIntOrDefault("EXPERIMENT_MAX_RETRIES", 5),
		RetryThreshold: getEnvFloatOrDefault("EXPERIMENT_RETRY_THRESHOLD", 0.1),
		Concurrency:    getEnvIntOrDefault("EXPERIMENT_CONCURRENCY", 1),
		Seed:           getEnvUintOrDefault("EXPERIMENT_SEED", 1),
	}
}

func loadDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		URL:            getEnvOrDefault("DATABASE_URL", ""),
		ConnectTimeout: getEnvDurationOrDefault("DATABASE_CONNECT_TIMEOUT", 10*time.Second),
	}
}

func loadServerConfig() ServerConfig {
	return ServerConfig{
		Port:    getEnvOrDefault("PORT", "8080"),
		GinMode: getEnvOrDefault("GIN_MODE", "release"),
		OpsPort: getEnvOrDefault("OPS_PORT", "9090"),
	}
}

func loadLogConfig() LogConfig {
	return LogConfig{
		Level:  getEnvOrDefault("LOG_LEVEL", "info"),
		Format: getEnvOrDefault("LOG_FORMAT", "json"),
	}
}

// Validate checks value ranges
func (c *Config) Validate() error {
	if c.Bootstrap.Replicates < 1 {
		return errors.ConfigInvalid(fmt.Sprintf("BOOTSTRAP_REPLICATES must be positive, got %d", c.Bootstrap.Replicates))
	}
	if c.Bootstrap.Workers < 1 {
		return errors.ConfigInvalid(fmt.Sprintf("BOOTSTRAP_WORKERS must be positive, got %d", c.Bootstrap.Workers))
	}
	if c.Bootstrap.DistanceWorkers < 1 {
		return errors.ConfigInvalid(fmt.Sprintf("DISTANCE_WORKERS must be positive, got %d", c.Bootstrap.DistanceWorkers))
	}
	if c.Experiment.MaxRetries < 0 {
		return errors.ConfigInvalid(fmt.Sprintf("EXPERIMENT_MAX_RETRIES must not be negative, got %d", c.Experiment.MaxRetries))
	}
	if t := c.Experiment.RetryThreshold; t <= 0 || t >= 1 {
		return errors.ConfigInvalid(fmt.Sprintf("EXPERIMENT_RETRY_THRESHOLD must be in (0, 1), got %v", t))
	}
	if c.Experiment.Concurrency < 1 {
		return errors.ConfigInvalid(fmt.Sprintf("EXPERIMENT_CONCURRENCY must be positive, got %d", c.Experiment.Concurrency))
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return errors.ConfigInvalid(fmt.Sprintf("LOG_FORMAT must be json or console, got %q", c.Log.Format))
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvUintOrDefault(key string, defaultValue uint64) uint64 {
	if value := os.Getenv(key); value != "" {
		if uintValue, err := strconv.ParseUint(value, 10, 64); err == nil {
			return uintValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
