package config

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.ChatbotBaseURL != "http://127.0.0.1:8000" {
		t.Fatalf("unexpected chatbot url: %s", cfg.ChatbotBaseURL)
	}
	if cfg.ChatbotConnectTimeout != 10*time.Second || cfg.ChatbotResponseTimeout != 60*time.Second {
		t.Fatalf("unexpected chatbot timeouts: %v %v", cfg.ChatbotConnectTimeout, cfg.ChatbotResponseTimeout)
	}
	if cfg.DatabaseURL != "" {
		t.Fatalf("expected empty database url by default")
	}
	if cfg.Location() != time.Local {
		t.Fatalf("expected local timezone by default")
	}
}

func TestLoadConfigRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	if _, err := LoadConfig(); err == nil {
		t.Fatalf("expected error when JWT_SECRET is missing")
	}
}

func TestLocationFallsBackOnInvalidZone(t *testing.T) {
	cfg := &Config{AppTimezone: "Mars/Olympus"}
	if cfg.Location() != time.Local {
		t.Fatalf("expected fallback to local")
	}
	cfg.AppTimezone = "UTC"
	if cfg.Location().String() != "UTC" {
		t.Fatalf("expected UTC, got %s", cfg.Location())
	}
}
