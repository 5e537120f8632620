package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application.
type Config struct {
	Port string
	Env  string

	// Backend REST API origin. Every page uses this one origin.
	APIBaseURL     string
	BackendTimeout time.Duration // 0 leaves the transport default in place

	// User accounts: Postgres when DatabaseURL is set, SQLite otherwise.
	DatabaseURL string
	SQLitePath  string

	// Sessions, flash notices, view slots and rate limiting.
	RedisURL      string
	SessionSecret string
	SessionTTL    time.Duration

	MaxUploadBytes int64

	// Rate limiting
	RateLimitWhitelist []string // IPs or CIDRs exempt from rate limiting
	AutoBlockEnabled   bool     // Enable auto-blocking after repeated violations
}

// Load reads configuration from environment variables.
// In development, it loads from .env file if present.
// In production, it panics on missing required variables.
func Load() *Config {
	// Load .env file if it exists (for development)
	_ = godotenv.Load()

	cfg := &Config{
		Port:             getEnv("PORT", "8080"),
		Env:              getEnv("ENV", "development"),
		APIBaseURL:       strings.TrimRight(getEnv("API_BASE_URL", "http://localhost:5001"), "/"),
		BackendTimeout:   getDuration("BACKEND_TIMEOUT", 0),
		DatabaseURL:      os.Getenv("DATABASE_URL"),
		SQLitePath:       getEnv("SQLITE_PATH", "./data/dashboard.db"),
		RedisURL:         os.Getenv("REDIS_URL"),
		SessionSecret:    os.Getenv("SESSION_SECRET"),
		SessionTTL:       getDuration("SESSION_TTL", 7*24*time.Hour),
		MaxUploadBytes:   getInt64("MAX_UPLOAD_MB", 20) << 20,
		AutoBlockEnabled: getEnv("AUTO_BLOCK_ENABLED", "false") == "true",
	}

	// Parse whitelist (comma-separated IPs or CIDRs)
	if whitelist := os.Getenv("RATE_LIMIT_WHITELIST"); whitelist != "" {
		for _, entry := range strings.Split(whitelist, ",") {
			entry = strings.TrimSpace(entry)
			if entry != "" {
				cfg.RateLimitWhitelist = append(cfg.RateLimitWhitelist, entry)
			}
		}
	}

	if cfg.Env == "production" {
		if cfg.SessionSecret == "" {
			panic("SESSION_SECRET is required in production")
		}
		if cfg.RedisURL == "" {
			panic("REDIS_URL is required in production")
		}
	}
	if cfg.SessionSecret == "" {
		cfg.SessionSecret = "development-session-secret"
	}

	return cfg
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
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

func getInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.ParseInt(value, 10, 64); err == nil && n > 0 {
			return n
		}
	}
	return defaultValue
}
