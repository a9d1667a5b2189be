package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENV", "development")
	t.Setenv("ALLOWED_ORIGINS", "")
	t.Setenv("FRONTEND_URL", "http://localhost:5173")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("expected default port 8080 got %q", cfg.Port)
	}
	if cfg.AccessTokenTTL != 15*time.Minute {
		t.Fatalf("expected 15m access ttl got %s", cfg.AccessTokenTTL)
	}
	if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != "http://localhost:5173" {
		t.Fatalf("expected frontend fallback origin got %v", cfg.AllowedOrigins)
	}
	if cfg.IsProduction() {
		t.Fatal("expected development environment")
	}
}

func TestLoadAllowedOrigins(t *testing.T) {
	t.Setenv("ENV", "development")
	t.Setenv("ALLOWED_ORIGINS", "https://app.example.com, https://www.example.com,,https://APP.example.com")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.AllowedOrigins) != 2 {
		t.Fatalf("expected 2 deduplicated origins got %v", cfg.AllowedOrigins)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name: "development with default secret",
			cfg:  Config{Environment: "development", JWTSecret: "your-secret-key-change-in-production", NotifyBackend: "redis", AccessTokenTTL: time.Minute, RefreshTokenTTL: time.Hour},
		},
		{
			name:    "production with default secret",
			cfg:     Config{Environment: "production", JWTSecret: "your-secret-key-change-in-production", NotifyBackend: "redis", AccessTokenTTL: time.Minute, RefreshTokenTTL: time.Hour},
			wantErr: true,
		},
		{
			name: "production with secret",
			cfg:  Config{Environment: "production", JWTSecret: "s3cret", NotifyBackend: "nats", AccessTokenTTL: time.Minute, RefreshTokenTTL: time.Hour},
		},
		{
			name:    "unknown notify backend",
			cfg:     Config{Environment: "development", NotifyBackend: "kafka", AccessTokenTTL: time.Minute, RefreshTokenTTL: time.Hour},
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.wantErr && err == nil {
				t.Fatal("expected error")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}
