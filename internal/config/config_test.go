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
	t.Run("Reads the config file", func(t *testing.T) {
		// Given: a config file overriding a few values
		path := filepath.Join(t.TempDir(), "config.yml")
		content := "log-level: debug\ntcp-port: \"7000\"\nwrite-timeout: 1s\nredis:\n  enabled: true\n  host: redis\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		// When: Load is called
		conf, err := Load(path)

		// Then: file values win and the rest is defaulted
		require.NoError(t, err)
		assert.Equal(t, "debug", conf.LogLevel)
		assert.Equal(t, "7000", conf.TCPPort)
		assert.Equal(t, "9090", conf.HTTPPort)
		assert.Equal(t, time.Second, conf.WriteTimeout)
		assert.True(t, conf.Redis.Enabled)
		assert.Equal(t, "redis:6379", conf.Redis.GetRedisAddr())
	})

	t.Run("Falls back to the environment without a file", func(t *testing.T) {
		// Given: no config file and a port in the environment
		t.Setenv("TCP_PORT", "7100")

		// When: Load is called with a missing path
		conf, err := Load(filepath.Join(t.TempDir(), "missing.yml"))

		// Then: defaults and environment are used
		require.NoError(t, err)
		assert.Equal(t, "7100", conf.TCPPort)
		assert.Equal(t, "info", conf.LogLevel)
		assert.Equal(t, 5*time.Second, conf.WriteTimeout)
		assert.False(t, conf.Redis.Enabled)
	})

	t.Run("Reports a broken file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yml")
		require.NoError(t, os.WriteFile(path, []byte("write-timeout: soon\n"), 0o600))

		_, err := Load(path)

		require.Error(t, err)
		assert.Panics(t, func() { MustLoad(path) })
	})
}
