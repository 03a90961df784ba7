// Package config loads server settings from the environment.
//
// SOURCES (later wins):
//  1. envDefault tags below
//  2. a .env file in the working directory, if present (local development)
//  3. real environment variables
//
// godotenv.Load never overrides a variable that is already set, which is what
// gives real environment variables priority over the .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds every setting the server reads at startup.
type Config struct {
	Port   int    `env:"PORT" envDefault:"8080"`
	DBPath string `env:"DB_PATH" envDefault:"data/videoguides.db"`

	// Sessions
	JWTSecret  string        `env:"JWT_SECRET"`
	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"24h"`

	// GitHub OAuth App
	GitHubClientID     string `env:"GITHUB_CLIENT_ID"`
	GitHubClientSecret string `env:"GITHUB_CLIENT_SECRET"`
	GitHubCallbackURL  string `env:"GITHUB_CALLBACK_URL"`

	// Video processor
	ProcessorURL     string        `env:"PROCESSOR_URL" envDefault:"https://processvideo-ttn5cmpe7q-uc.a.run.app"`
	ProcessorAPIKey  string        `env:"X_API_KEY"`
	ProcessorTimeout time.Duration `env:"PROCESSOR_TIMEOUT" envDefault:"5m"`

	// Credits granted when a user logs in for the first time.
	DefaultCredits int `env:"DEFAULT_CREDITS" envDefault:"3"`

	Log LogConfig `envPrefix:"LOG_"`
}

// LogConfig controls the slog logger built in internal/logging.
type LogConfig struct {
	Level  string `env:"LEVEL" envDefault:"info"` // debug, info, warn, error
	Format string `env:"FORMAT" envDefault:"text"` // text or json
	// File, when set, receives a copy of every log line, rotated by size.
	File       string `env:"FILE"`
	MaxSizeMB  int    `env:"MAX_SIZE_MB" envDefault:"100"`
	MaxBackups int    `env:"MAX_BACKUPS" envDefault:"5"`
	MaxAgeDays int    `env:"MAX_AGE_DAYS" envDefault:"28"`
}

// Load reads an optional .env file and then parses the environment.
// A missing .env is fine; a malformed one is an error.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config: loading %s: %w", f, err)
		}
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("config: parsing environment: %w", err)
	}

	if cfg.GitHubCallbackURL == "" {
		cfg.GitHubCallbackURL = fmt.Sprintf("http://localhost:%d/auth/github/callback", cfg.Port)
	}

	return &cfg, nil
}

// Validate reports every setting that would stop the server from working.
// Errors are joined so one run shows all of them.
func (c *Config) Validate() error {
	var errs []error

	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port))
	}
	if strings.TrimSpace(c.DBPath) == "" {
		errs = append(errs, errors.New("DB_PATH must not be empty"))
	}
	if len(c.JWTSecret) < 16 {
		errs = append(errs, errors.New("JWT_SECRET must be at least 16 characters"))
	}
	if c.GitHubClientID == "" || c.GitHubClientSecret == "" {
		errs = append(errs, errors.New("GITHUB_CLIENT_ID and GITHUB_CLIENT_SECRET are required"))
	}
	if strings.TrimSpace(c.ProcessorURL) == "" {
		errs = append(errs, errors.New("PROCESSOR_URL must not be empty"))
	}
	if c.ProcessorAPIKey == "" {
		errs = append(errs, errors.New("X_API_KEY is required"))
	}
	if c.ProcessorTimeout <= 0 {
		errs = append(errs, fmt.Errorf("PROCESSOR_TIMEOUT must be positive, got %s", c.ProcessorTimeout))
	}
	if c.DefaultCredits < 0 {
		errs = append(errs, fmt.Errorf("DEFAULT_CREDITS cannot be negative, got %d", c.DefaultCredits))
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be text or json, got %q", c.Log.Format))
	}

	return errors.Join(errs...)
}
