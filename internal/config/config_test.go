package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("API_BASE_URL", "http://api.example.test/")
	t.Setenv("REQUEST_TIMEOUT_SECONDS", "not-a-number")
	t.Setenv("ALLOWED_ORIGINS", " http://a.test , ,http://b.test")

	cfg := Load()

	if cfg.APIBaseURL != "http://api.example.test" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.APIBaseURL)
	}
	if cfg.RequestTimeout != 30*time.Second {
		t.Fatalf("expected fallback timeout, got %s", cfg.RequestTimeout)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "http://b.test" {
		t.Fatalf("unexpected origins %v", cfg.AllowedOrigins)
	}
}

func TestAuthFlagKey(t *testing.T) {
	if got := CacheKey.AuthFlagKey("lab"); got != "console:lab:is_authenticated" {
		t.Fatalf("unexpected key %q", got)
	}
}

func TestCORSOriginsDefaultsToOwnOrigins(t *testing.T) {
	cfg := &Config{
		APIBaseURL:    "http://localhost:8000/api",
		PublicBaseURL: "https://quiz.example.test/app",
	}
	got := cfg.CORSOrigins()
	if len(got) != 2 || got[0] != "http://localhost:8000" || got[1] != "https://quiz.example.test" {
		t.Fatalf("unexpected origins %v", got)
	}

	if got := (&Config{ServerPort: "9000"}).CORSOrigins(); len(got) != 1 || got[0] != "http://localhost:9000" {
		t.Fatalf("expected port fallback, got %v", got)
	}

	explicit := &Config{AllowedOrigins: []string{"http://a.test"}, APIBaseURL: "http://localhost:8000"}
	if got := explicit.CORSOrigins(); len(got) != 1 || got[0] != "http://a.test" {
		t.Fatalf("expected configured origins to win, got %v", got)
	}
}

func TestSessionCookiesKey(t *testing.T) {
	if got := CacheKey.SessionCookiesKey("lab"); got != "console:lab:session_cookies" {
		t.Fatalf("unexpected key %q", got)
	}
}
