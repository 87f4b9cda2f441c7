package config

import (
	"testing"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range []string{"LISTEN_ADDR", "NASA_API_KEY", "NASA_FEED_URL", "JWT_EXPIRE_MINUTES"} {
		t.Setenv(key, "")
	}
	cfg := LoadConfig()

	if cfg.ListenAddr == "" {
		t.Error("listen addr must have a default")
	}
	if cfg.NasaAPIKey != "DEMO_KEY" {
		t.Errorf("api key default = %q, want DEMO_KEY", cfg.NasaAPIKey)
	}
	if cfg.NasaFeedURL != "https://api.nasa.gov/neo/rest/v1/feed" {
		t.Errorf("feed url default = %q", cfg.NasaFeedURL)
	}
	if cfg.JWTExpireMinutes != 120 {
		t.Errorf("jwt expiry default = %d, want 120", cfg.JWTExpireMinutes)
	}
	if len(cfg.AllowedOrigins) == 0 {
		t.Error("allowed origins must not be empty")
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("NASA_API_KEY", "REAL_KEY")
	t.Setenv("JWT_EXPIRE_MINUTES", "30")
	t.Setenv("LISTEN_ADDR", ":9999")

	cfg := LoadConfig()
	if cfg.NasaAPIKey != "REAL_KEY" {
		t.Errorf("api key = %q, want REAL_KEY", cfg.NasaAPIKey)
	}
	if cfg.JWTExpireMinutes != 30 {
		t.Errorf("jwt expiry = %d, want 30", cfg.JWTExpireMinutes)
	}
	if cfg.ListenAddr != ":9999" {
		t.Errorf("listen addr = %q, want :9999", cfg.ListenAddr)
	}
}

func TestGetEnvIntIgnoresGarbage(t *testing.T) {
	t.Setenv("JWT_EXPIRE_MINUTES", "not-a-number")
	cfg := LoadConfig()
	if cfg.JWTExpireMinutes != 120 {
		t.Errorf("jwt expiry = %d, want default 120", cfg.JWTExpireMinutes)
	}
}
