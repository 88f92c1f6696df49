package config

import (
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "MAX_UPLOAD_BYTES", "SESSION_TTL", "BACKGROUND_DIR", "BACKGROUND_WIDTH", "CONVERT_TIMEOUT", "STATS_WINDOW"} {
		t.Setenv(k, "")
	}
	cfg := Load()
	if cfg.Port != "8090" {
		t.Errorf("expected port 8090, got %q", cfg.Port)
	}
	if cfg.SessionTTL != time.Hour {
		t.Errorf("expected 1h TTL, got %s", cfg.SessionTTL)
	}
	if cfg.BackgroundDir != "pics" || cfg.BackgroundWidth != 1920 {
		t.Errorf("unexpected background settings %q %d", cfg.BackgroundDir, cfg.BackgroundWidth)
	}
	if cfg.ConvertTimeout != time.Minute {
		t.Errorf("expected 1m convert timeout, got %s", cfg.ConvertTimeout)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected defaults to validate, got %v", err)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("SESSION_TTL", "15m")
	t.Setenv("BACKGROUND_WIDTH", "-5")
	t.Setenv("MAX_UPLOAD_BYTES", "not-a-number")
	t.Setenv("PDF_FALLBACK_PDFTOTEXT", "false")

	cfg := Load()
	if cfg.Port != "9000" {
		t.Errorf("expected 9000, got %q", cfg.Port)
	}
	if cfg.SessionTTL != 15*time.Minute {
		t.Errorf("expected 15m, got %s", cfg.SessionTTL)
	}
	if cfg.BackgroundWidth != 1920 {
		t.Errorf("expected negative width to fall back, got %d", cfg.BackgroundWidth)
	}
	if cfg.MaxUploadBytes != 20971520 {
		t.Errorf("expected default upload limit, got %d", cfg.MaxUploadBytes)
	}
	if cfg.PDFFallbackPdftotext {
		t.Error("expected pdftotext fallback disabled")
	}
}

func TestValidate(t *testing.T) {
	base := Config{Port: "8090"}
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"ok", func(*Config) {}, false},
		{"bad port", func(c *Config) { c.Port = "http" }, true},
		{"webhook ok", func(c *Config) { c.WebhookURL = "https://hooks.example.org/render" }, false},
		{"webhook relative", func(c *Config) { c.WebhookURL = "/render" }, true},
		{"missing dialects file", func(c *Config) { c.DialectsFile = filepath.Join(t.TempDir(), "nope.yaml") }, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base
			tc.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("expected error=%v, got %v", tc.wantErr, err)
			}
		})
	}
}
