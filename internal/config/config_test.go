package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbiehn/promptpoll"
	"github.com/tbiehn/promptpoll/internal/config"
)

var envKeys = []string{
	"PROMPTPOLL_ENDPOINT", "PROMPTPOLL_MODEL", "OPENAI_API_KEY", "PROMPTPOLL_TIMEOUT",
	"PROMPTPOLL_MAX_PARALLEL", "PROMPTPOLL_OUTPUT_DIR", "PROMPTPOLL_LOG_FILE",
	"PROMPTPOLL_LOG_LEVEL", "PROMPTPOLL_RETRIES",
}

// clearEnv unsets every key for the test; godotenv never overrides a variable that is present, even if empty.
func clearEnv(t *testing.T) {
	for _, key := range envKeys {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, promptpoll.DefaultEndpoint, cfg.Endpoint)
	assert.Equal(t, promptpoll.DefaultModel, cfg.Model)
	assert.Equal(t, 100*time.Second, cfg.Timeout)
	assert.Equal(t, 100, cfg.MaxParallel)
	assert.Equal(t, 0, cfg.Retries)
	assert.Equal(t, "results", cfg.OutputDir)
	assert.Equal(t, "app.log", cfg.LogFile)

	settings := cfg.Settings()
	assert.Equal(t, cfg.Model, settings.Model)
	assert.Equal(t, cfg.Timeout, settings.Timeout)
	assert.Equal(t, cfg.MaxParallel, settings.MaxParallel)
}

func TestLoadFromEnvFile(t *testing.T) {
	clearEnv(t)
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte(
		"PROMPTPOLL_MODEL=gpt-4o-mini\nPROMPTPOLL_MAX_PARALLEL=10\nPROMPTPOLL_TIMEOUT=30s\n",
	), 0o600))

	cfg, err := config.Load(envFile)
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", cfg.Model)
	assert.Equal(t, 10, cfg.MaxParallel)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
}

func TestLoadRejectsMalformedValues(t *testing.T) {
	tests := map[string]string{
		"PROMPTPOLL_MAX_PARALLEL": "lots",
		"PROMPTPOLL_TIMEOUT":      "soon",
		"PROMPTPOLL_RETRIES":      "-1",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(key, value)

			_, err := config.Load("")
			assert.Error(t, err)
		})
	}
}

func TestValidate(t *testing.T) {
	cfg := &config.Config{Endpoint: "http://x", Model: "m", Timeout: time.Second, MaxParallel: 0}
	assert.Error(t, cfg.Validate())

	cfg.MaxParallel = 1
	assert.NoError(t, cfg.Validate())
}
