package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.TextModel != "gemini-2.0-flash" {
		t.Errorf("TextModel = %q", cfg.TextModel)
	}
	if cfg.SessionTTL != 60*time.Minute {
		t.Errorf("SessionTTL = %v, want 60m", cfg.SessionTTL)
	}
}

func TestLoadMissingAPIKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")

	if _, err := Load(); err == nil {
		t.Error("Load() succeeded without GEMINI_API_KEY")
	}
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			Port:           "8080",
			GeminiAPIKey:   "key",
			TempDir:        "./data",
			SessionTTL:     time.Hour,
			MaxUploadBytes: 1,
			MaxBodyBytes:   1,
		}
	}

	valid := base()
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty port", func(c *Config) { c.Port = "" }},
		{"missing api key", func(c *Config) { c.GeminiAPIKey = "" }},
		{"empty temp dir", func(c *Config) { c.TempDir = "" }},
		{"zero ttl", func(c *Config) { c.SessionTTL = 0 }},
		{"zero upload limit", func(c *Config) { c.MaxUploadBytes = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base()
			tt.mutate(&c)
			if err := c.Validate(); err == nil {
				t.Error("Validate() accepted invalid config")
			}
		})
	}
}

func TestAllowedOrigins(t *testing.T) {
	dev := Config{FrontendURL: "http://localhost:5173"}
	if got := dev.AllowedOrigins(); len(got) != 1 || got[0] != "*" {
		t.Errorf("AllowedOrigins() in dev = %v, want [*]", got)
	}

	prod := Config{FrontendURL: "https://matcorner.example.com"}
	if got := prod.AllowedOrigins(); len(got) != 1 || got[0] != prod.FrontendURL {
		t.Errorf("AllowedOrigins() in prod = %v, want [%s]", got, prod.FrontendURL)
	}
}

func TestIsDevelopment(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"", true},
		{"http://localhost:5173", true},
		{"http://127.0.0.1:3000", true},
		{"https://matcorner.example.com", false},
	}

	for _, tt := range tests {
		c := Config{FrontendURL: tt.url}
		if got := c.IsDevelopment(); got != tt.want {
			t.Errorf("IsDevelopment(%q) = %v, want %v", tt.url, got, tt.want)
		}
	}
}
