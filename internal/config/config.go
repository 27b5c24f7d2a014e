// Package config loads service configuration from the environment.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all runtime configuration.
type Config struct {
	Port     string
	LogLevel string

	// Document store. When UseFirestore is false the service runs on an
	// embedded SQLite file, which is the local development default.
	UseFirestore       bool
	FirestoreProjectID string
	FirestoreAPIKey    string
	FirestoreBaseURL   string
	SQLitePath         string

	AgentAPIURL string

	HTTPTimeout    time.Duration
	MaxRetries     int
	InitialBackoff time.Duration
	MaxConcurrency int

	CacheTTL time.Duration

	ShareSecret     string
	ShareDefaultTTL time.Duration

	OTLPEndpoint string
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		UseFirestore:       getEnvBool("USE_FIRESTORE", false),
		FirestoreProjectID: getEnv("FIRESTORE_PROJECT_ID", ""),
		FirestoreAPIKey:    getEnv("FIRESTORE_API_KEY", ""),
		FirestoreBaseURL:   getEnv("FIRESTORE_BASE_URL", "https://firestore.googleapis.com/v1"),
		SQLitePath:         getEnv("SQLITE_PATH", "harnkan.db"),

		AgentAPIURL: getEnv("AGENT_API_URL", "http://localhost:9000"),

		HTTPTimeout:    getEnvDuration("HTTP_TIMEOUT", 10*time.Second),
		MaxRetries:     getEnvInt("MAX_RETRIES", 3),
		InitialBackoff: getEnvDuration("INITIAL_BACKOFF", 100*time.Millisecond),
		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 50),

		CacheTTL: getEnvDuration("CACHE_TTL", 5*time.Minute),

		ShareSecret:     getEnv("SHARE_SECRET", "dev-secret-change-me"),
		ShareDefaultTTL: getEnvDuration("SHARE_DEFAULT_TTL", 24*time.Hour),

		OTLPEndpoint: getEnv("OTLP_ENDPOINT", "localhost:4317"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
