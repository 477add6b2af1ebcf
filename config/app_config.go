package config

import (
	"os"
	"strconv"
	"time"
)

// AppConfig holds service-level settings. Everything comes from environment
// variables; a .env file is loaded by main before this runs.
type AppConfig struct {
	Host            string
	Port            string
	AllowedOrigins  string
	DatabaseURL     string
	RateLimitRPS    float64
	RequestTimeout  time.Duration
	SnapshotEnabled bool
	AuditSchedule   string // cron spec (with seconds) for the selector drift auditor
}

// LoadAppConfig reads the service configuration from the environment.
func LoadAppConfig() *AppConfig {
	return &AppConfig{
		Host:            getEnv("HOST", "0.0.0.0"),
		Port:            getEnv("PORT", "8080"),
		AllowedOrigins:  getEnv("ALLOWED_ORIGINS", "http://localhost:3000"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		RateLimitRPS:    getEnvFloat("RATE_LIMIT_RPS", 10),
		RequestTimeout:  getEnvDuration("REQUEST_TIMEOUT", 30*time.Second),
		SnapshotEnabled: getEnvBool("SNAPSHOT_ENABLED", true),
		AuditSchedule:   getEnv("AUDIT_SCHEDULE", "0 0 */12 * * *"),
	}
}

// Helper functions for environment variables
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
