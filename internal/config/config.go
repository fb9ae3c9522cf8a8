// Package config provides application configuration.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all application configuration.
type Config struct {
	Port        string `env:"PORT" envDefault:"8080"`
	FrontendURL string `env:"FRONTEND_URL"`

	// GeminiAPIKey is a hard precondition: the server refuses to start
	// without it rather than failing lazily on the first AI call.
	GeminiAPIKey string `env:"GEMINI_API_KEY"`
	TextModel    string `env:"GEMINI_TEXT_MODEL" envDefault:"gemini-2.0-flash"`
	VisionModel  string `env:"GEMINI_VISION_MODEL" envDefault:"gemini-2.0-flash"`
	ImageModel   string `env:"GEMINI_IMAGE_MODEL" envDefault:"imagen-3.0-generate-002"`

	TempDir        string        `env:"TEMP_DIR" envDefault:"./data/sessions"`
	SessionTTL     time.Duration `env:"SESSION_TTL" envDefault:"60m"`
	MaxUploadBytes int64         `env:"MAX_UPLOAD_BYTES" envDefault:"52428800"`
	MaxBodyBytes   int64         `env:"MAX_BODY_BYTES" envDefault:"1048576"`

	FFmpegPath  string `env:"FFMPEG_PATH" envDefault:"ffmpeg"`
	FFprobePath string `env:"FFPROBE_PATH" envDefault:"ffprobe"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.GeminiAPIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required")
	}
	if c.TempDir == "" {
		return fmt.Errorf("TEMP_DIR cannot be empty")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be > 0")
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be > 0")
	}
	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("MAX_BODY_BYTES must be > 0")
	}
	return nil
}

// AllowedOrigins returns the CORS origins to accept. In development any
// origin is accepted; in production only the configured frontend is.
func (c *Config) AllowedOrigins() []string {
	if c.IsDevelopment() {
		return []string{"*"}
	}
	return []string{c.FrontendURL}
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.FrontendURL == "" ||
		strings.Contains(c.FrontendURL, "localhost") ||
		strings.Contains(c.FrontendURL, "127.0.0.1")
}
