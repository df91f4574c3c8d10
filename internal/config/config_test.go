package config

import (
	"testing"
	"time"
)

func TestConfigLoad_Defaults(t *testing.T) {
	t.Setenv("MUSUI_BUILD_TARGET", "cloud-dev")
	t.Setenv("MUSUI_DB_DRIVER", "")

	cfg, err := New()
	if err != nil {
		t.Fatalf("config load: %v", err)
	}
	if cfg.HTTPPort != 8080 || cfg.SessionCookie != "musui-auth-token" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.LocalStoreTTL() != 2*time.Hour {
		t.Fatalf("unexpected local store ttl: %v", cfg.LocalStoreTTL())
	}
	if cfg.MaxPhotoBytes != 5<<20 {
		t.Fatalf("unexpected max photo bytes: %d", cfg.MaxPhotoBytes)
	}
}

func TestConfigLoad_EnvOverride(t *testing.T) {
	t.Setenv("MUSUI_HTTP_PORT", "9999")
	t.Setenv("MUSUI_CORS_ORIGINS", "http://a.test,http://b.test")
	t.Setenv("MUSUI_RATE_LIMIT_RPS", "2.5")

	cfg, err := New()
	if err != nil {
		t.Fatalf("config load: %v", err)
	}
	if cfg.GetHTTPAddr() != ":9999" {
		t.Fatalf("port override failed, got %s", cfg.GetHTTPAddr())
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "http://b.test" {
		t.Fatalf("cors origins: %v", cfg.CORSOrigins)
	}
	if cfg.RateLimitRPS != 2.5 {
		t.Fatalf("rate limit override failed, got %v", cfg.RateLimitRPS)
	}
}

func TestConfigLoad_PlaceholdersCountAsUnset(t *testing.T) {
	t.Setenv("MUSUI_AUTH_URL", "https://your-project-ref.supabase.co")
	t.Setenv("MUSUI_AUTH_ANON_KEY", "your-anon-key")
	t.Setenv("MUSUI_AUTH_JWT_SECRET", "")
	t.Setenv("MUSUI_DEV_AUTH", "false")

	cfg, err := New()
	if err != nil {
		t.Fatalf("config load: %v", err)
	}
	if cfg.AuthURL != "" || cfg.AuthAnonKey != "" {
		t.Fatalf("placeholders kept: %q %q", cfg.AuthURL, cfg.AuthAnonKey)
	}
	if cfg.AuthConfigured() {
		t.Fatalf("auth should not be configured")
	}
}

func TestNewForTesting(t *testing.T) {
	cfg := NewForTesting()
	if !cfg.IsTesting() || cfg.DBDriver != DriverNone || cfg.AdminConfigured() {
		t.Fatalf("unexpected testing config: %+v", cfg)
	}
}
