package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
		require.NoError(t, err)
		assert.Equal(t, ":8080", cfg.Addr)
		assert.Equal(t, "memory", cfg.RateLimit.Storage)
		assert.Equal(t, time.Minute, cfg.RateLimit.Period)
		assert.Empty(t, cfg.Database.URL)
	})

	t.Run("env file values", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), ".env")
		require.NoError(t, os.WriteFile(path, []byte("CONTRACTDESK_ADDR=:9090\nRATE_LIMIT_REQUESTS=10\n"), 0o600))
		t.Cleanup(func() {
			os.Unsetenv("CONTRACTDESK_ADDR")
			os.Unsetenv("RATE_LIMIT_REQUESTS")
		})

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, ":9090", cfg.Addr)
		assert.Equal(t, int64(10), cfg.RateLimit.Requests)
	})

	t.Run("production requires a signing key", func(t *testing.T) {
		t.Setenv("APP_ENV", "production")
		_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "JWT_SIGNING_KEY")
	})

	t.Run("redis storage requires url", func(t *testing.T) {
		t.Setenv("RATE_LIMIT_STORAGE", "redis")
		_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "redis url")
	})
}
