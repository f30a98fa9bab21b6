package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	APIBaseURL          string `env:"STUDYBRIDGE_API_URL" envDefault:"http://localhost:8080"`
	StatePath           string `env:"STUDYBRIDGE_STATE_PATH"`
	PollIntervalSeconds int    `env:"POLL_INTERVAL_SECONDS" envDefault:"5"`
	HTTPTimeoutSeconds  int    `env:"HTTP_TIMEOUT_SECONDS" envDefault:"10"`
	SendRetries         int    `env:"SEND_RETRIES" envDefault:"2"`
	LogLevel            string `env:"LOG_LEVEL" envDefault:"info"`
}

func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSeconds) * time.Second
}

func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutSeconds) * time.Second
}

// ResolveStatePath returns the session database location, defaulting to the
// user config directory when STUDYBRIDGE_STATE_PATH is unset.
func (c *Config) ResolveStatePath() (string, error) {
	if c.StatePath != "" {
		return c.StatePath, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve state path: %w", err)
	}
	return filepath.Join(base, "studybridge", "session.db"), nil
}

func (c *Config) Validate() error {
	if c.APIBaseURL == "" {
		return fmt.Errorf("STUDYBRIDGE_API_URL must not be empty")
	}
	if c.PollIntervalSeconds < 1 {
		return fmt.Errorf("POLL_INTERVAL_SECONDS must be at least 1, got %d", c.PollIntervalSeconds)
	}
	if c.HTTPTimeoutSeconds < 1 {
		return fmt.Errorf("HTTP_TIMEOUT_SECONDS must be at least 1, got %d", c.HTTPTimeoutSeconds)
	}
	if c.SendRetries < 0 {
		return fmt.Errorf("SEND_RETRIES must not be negative, got %d", c.SendRetries)
	}
	return nil
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
