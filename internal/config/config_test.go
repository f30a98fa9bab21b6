package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigMethods(t *testing.T) {
	t.Run("PollInterval converts seconds to duration", func(t *testing.T) {
		cfg := &Config{PollIntervalSeconds: 5}
		assert.Equal(t, 5*time.Second, cfg.PollInterval())
	})

	t.Run("HTTPTimeout converts seconds to duration", func(t *testing.T) {
		cfg := &Config{HTTPTimeoutSeconds: 10}
		assert.Equal(t, 10*time.Second, cfg.HTTPTimeout())
	})

	t.Run("ResolveStatePath prefers explicit path", func(t *testing.T) {
		cfg := &Config{StatePath: "/tmp/custom.db"}
		path, err := cfg.ResolveStatePath()
		require.NoError(t, err)
		assert.Equal(t, "/tmp/custom.db", path)
	})

	t.Run("ResolveStatePath defaults under user config dir", func(t *testing.T) {
		cfg := &Config{}
		path, err := cfg.ResolveStatePath()
		require.NoError(t, err)
		assert.Equal(t, filepath.Join("studybridge", "session.db"), filepath.Join(filepath.Base(filepath.Dir(path)), filepath.Base(path)))
	})
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			APIBaseURL:          "http://localhost:8080",
			PollIntervalSeconds: 5,
			HTTPTimeoutSeconds:  10,
			SendRetries:         2,
		}
	}

	t.Run("accepts valid config", func(t *testing.T) {
		assert.NoError(t, valid().Validate())
	})

	t.Run("rejects empty API URL", func(t *testing.T) {
		cfg := valid()
		cfg.APIBaseURL = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("rejects sub-second poll interval", func(t *testing.T) {
		cfg := valid()
		cfg.PollIntervalSeconds = 0
		assert.Error(t, cfg.Validate())
	})

	t.Run("rejects zero timeout", func(t *testing.T) {
		cfg := valid()
		cfg.HTTPTimeoutSeconds = 0
		assert.Error(t, cfg.Validate())
	})

	t.Run("rejects negative retries", func(t *testing.T) {
		cfg := valid()
		cfg.SendRetries = -1
		assert.Error(t, cfg.Validate())
	})
}

func TestLoad(t *testing.T) {
	originalEnv := map[string]string{
		"STUDYBRIDGE_API_URL":    os.Getenv("STUDYBRIDGE_API_URL"),
		"STUDYBRIDGE_STATE_PATH": os.Getenv("STUDYBRIDGE_STATE_PATH"),
		"POLL_INTERVAL_SECONDS":  os.Getenv("POLL_INTERVAL_SECONDS"),
		"HTTP_TIMEOUT_SECONDS":   os.Getenv("HTTP_TIMEOUT_SECONDS"),
		"SEND_RETRIES":           os.Getenv("SEND_RETRIES"),
		"LOG_LEVEL":              os.Getenv("LOG_LEVEL"),
	}

	defer func() {
		for k, v := range originalEnv {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	}()

	t.Run("loads config with defaults", func(t *testing.T) {
		for k := range originalEnv {
			os.Unsetenv(k)
		}

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "http://localhost:8080", cfg.APIBaseURL)
		assert.Equal(t, 5, cfg.PollIntervalSeconds)
		assert.Equal(t, 10, cfg.HTTPTimeoutSeconds)
		assert.Equal(t, 2, cfg.SendRetries)
		assert.Equal(t, "info", cfg.LogLevel)
	})

	t.Run("loads custom values", func(t *testing.T) {
		os.Setenv("STUDYBRIDGE_API_URL", "https://api.example.org")
		os.Setenv("POLL_INTERVAL_SECONDS", "2")
		os.Setenv("LOG_LEVEL", "debug")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "https://api.example.org", cfg.APIBaseURL)
		assert.Equal(t, 2, cfg.PollIntervalSeconds)
		assert.Equal(t, "debug", cfg.LogLevel)
	})
}
