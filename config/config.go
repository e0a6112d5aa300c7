package config

import (
	"os"
	"time"
)

// Config holds the application configuration
type Config struct {
	// Database
	DatabaseURL string
	// StorageBackend selects "postgres" or "memory"
	StorageBackend string

	// Server
	ServerPort string

	// Tier catalog; empty means built-in defaults
	TierConfigPath string

	// Runner selects "local" or "aws"
	Runner string

	// AWS, used when Runner is "aws"
	AWSRegion      string
	TrainerAMI     string
	TrainerProfile string
	CallbackURL    string

	// Pricing refresh interval; 0 disables the refresh worker
	PricingRefresh time.Duration
}

// Load loads configuration from environment variables
func Load() *Config {
	return &Config{
		DatabaseURL:    getEnv("DATABASE_URL", "postgres://localhost/automl?sslmode=disable"),
		StorageBackend: getEnv("STORAGE_BACKEND", "postgres"),
		ServerPort:     getEnv("SERVER_PORT", "8080"),
		TierConfigPath: getEnv("TIER_CONFIG_PATH", ""),
		Runner:         getEnv("RUNNER", "local"),
		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		TrainerAMI:     getEnv("TRAINER_AMI", ""),
		TrainerProfile: getEnv("TRAINER_INSTANCE_PROFILE", ""),
		CallbackURL:    getEnv("CALLBACK_URL", "http://localhost:8080/v1/runner/callback"),
		PricingRefresh: getDuration("PRICING_REFRESH", 0),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
