package infra

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("PORT", "")
	t.Setenv("AUDIO_POLL_INTERVAL_SECONDS", "")
	t.Setenv("AUDIO_POLL_TIMEOUT_SECONDS", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("Port mismatch: got %q want %q", cfg.Port, "8080")
	}
	if cfg.PollInterval != 5*time.Second {
		t.Fatalf("PollInterval mismatch: got %v want %v", cfg.PollInterval, 5*time.Second)
	}
	if cfg.PollTimeout != 420*time.Second {
		t.Fatalf("PollTimeout mismatch: got %v want %v", cfg.PollTimeout, 420*time.Second)
	}
	if cfg.SunoModel != "V4_5" {
		t.Fatalf("SunoModel mismatch: got %q want %q", cfg.SunoModel, "V4_5")
	}
}

func TestLoadConfigRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "test-secret")

	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected error when DATABASE_URL is missing")
	}
}

func TestConfigCallbackURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("PUBLIC_BASE_URL", "https://songs.example.com")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	expected := "https://songs.example.com/v1/audio/callback"
	if got := cfg.CallbackURL(); got != expected {
		t.Fatalf("CallbackURL mismatch: got %q want %q", got, expected)
	}
}
