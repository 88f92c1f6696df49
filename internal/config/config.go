package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port string

	// Auth
	APIKey string

	// Upload limits
	MaxUploadBytes int64

	// Session state
	SessionTTL time.Duration

	// Dialect tables; empty means the embedded defaults.
	DialectsFile string

	// Backgrounds
	BackgroundDir   string
	BackgroundWidth int

	// .doc conversion
	SofficePath    string
	ConvertTimeout time.Duration

	// Render history
	HistoryDB string

	// Render webhook
	WebhookURL     string
	WebhookToken   string
	WebhookTimeout time.Duration

	// Render latency window
	StatsWindow int

	// PDF
	PDFFallbackPdftotext bool
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		APIKey: os.Getenv("SLIDENAULI_API_KEY"),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 20971520), // 20MB

		SessionTTL: envDuration("SESSION_TTL", 1*time.Hour),

		DialectsFile: os.Getenv("DIALECTS_FILE"),

		BackgroundDir:   envOr("BACKGROUND_DIR", "pics"),
		BackgroundWidth: envInt("BACKGROUND_WIDTH", 1920),

		SofficePath:    os.Getenv("SOFFICE_PATH"),
		ConvertTimeout: envDuration("CONVERT_TIMEOUT", 60*time.Second),

		HistoryDB: os.Getenv("HISTORY_DB"),

		WebhookURL:     os.Getenv("WEBHOOK_URL"),
		WebhookToken:   os.Getenv("WEBHOOK_TOKEN"),
		WebhookTimeout: envDuration("WEBHOOK_TIMEOUT", 10*time.Second),

		StatsWindow: envInt("STATS_WINDOW", 1000),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),
	}

	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 20971520
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 1 * time.Hour
	}
	if cfg.BackgroundWidth <= 0 {
		cfg.BackgroundWidth = 1920
	}
	if cfg.ConvertTimeout <= 0 {
		cfg.ConvertTimeout = 60 * time.Second
	}
	if cfg.WebhookTimeout <= 0 {
		cfg.WebhookTimeout = 10 * time.Second
	}
	if cfg.StatsWindow <= 0 {
		cfg.StatsWindow = 1000
	}

	return cfg
}

// Validate checks values that cannot be defaulted. Every external service is
// optional, so only malformed settings are rejected.
func (c Config) Validate() error {
	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("PORT must be numeric, got %q", c.Port)
	}
	if c.WebhookURL != "" {
		u, err := url.Parse(c.WebhookURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("WEBHOOK_URL must be an absolute http(s) URL, got %q", c.WebhookURL)
		}
	}
	if c.DialectsFile != "" {
		if _, err := os.Stat(c.DialectsFile); err != nil {
			return fmt.Errorf("DIALECTS_FILE: %w", err)
		}
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
