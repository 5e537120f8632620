package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "ENV", "API_BASE_URL", "BACKEND_TIMEOUT", "DATABASE_URL", "REDIS_URL", "SESSION_SECRET", "SESSION_TTL", "MAX_UPLOAD_MB", "RATE_LIMIT_WHITELIST"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	if cfg.Port != "8080" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if !cfg.IsDevelopment() {
		t.Errorf("Env = %q, want development", cfg.Env)
	}
	if cfg.APIBaseURL != "http://localhost:5001" {
		t.Errorf("APIBaseURL = %q", cfg.APIBaseURL)
	}
	if cfg.BackendTimeout != 0 {
		t.Errorf("BackendTimeout = %v, want 0", cfg.BackendTimeout)
	}
	if cfg.SessionTTL != 7*24*time.Hour {
		t.Errorf("SessionTTL = %v", cfg.SessionTTL)
	}
	if cfg.MaxUploadBytes != 20<<20 {
		t.Errorf("MaxUploadBytes = %d", cfg.MaxUploadBytes)
	}
	if cfg.SessionSecret == "" {
		t.Error("development should fall back to a session secret")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("ENV", "staging")
	t.Setenv("API_BASE_URL", "https://api.example.com/")
	t.Setenv("BACKEND_TIMEOUT", "5s")
	t.Setenv("MAX_UPLOAD_MB", "3")
	t.Setenv("RATE_LIMIT_WHITELIST", "10.0.0.1, 192.168.0.0/16 ,")

	cfg := Load()
	if cfg.APIBaseURL != "https://api.example.com" {
		t.Errorf("APIBaseURL = %q", cfg.APIBaseURL)
	}
	if cfg.BackendTimeout != 5*time.Second {
		t.Errorf("BackendTimeout = %v", cfg.BackendTimeout)
	}
	if cfg.MaxUploadBytes != 3<<20 {
		t.Errorf("MaxUploadBytes = %d", cfg.MaxUploadBytes)
	}
	if len(cfg.RateLimitWhitelist) != 2 || cfg.RateLimitWhitelist[1] != "192.168.0.0/16" {
		t.Errorf("RateLimitWhitelist = %v", cfg.RateLimitWhitelist)
	}
}

func TestLoadProductionRequiresSecret(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("SESSION_SECRET", "")
	t.Setenv("REDIS_URL", "redis://localhost:6379")

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic without SESSION_SECRET in production")
		}
	}()
	Load()
}
