package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points the loader at an empty env file so stray .env files in the
// working directory do not leak into the test.
func isolate(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, nil, 0o600))
	t.Setenv("READER_ENV_FILE", path)
	return path
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "release", cfg.Server.Mode)
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, 10, cfg.Browser.MaxPages)
	assert.Equal(t, 30*time.Second, cfg.Scraper.DefaultTimeout)
	assert.Equal(t, 120*time.Second, cfg.Scraper.MaxTimeout)
	assert.Equal(t, []string{"Image", "Stylesheet", "Font", "Media"}, cfg.Scraper.BlockedResourceTypes)
	assert.Equal(t, 4, cfg.Scraper.MaxSnapshots)
	assert.Equal(t, 500*time.Millisecond, cfg.Scraper.SettleInterval)
	assert.True(t, cfg.Engine.EnableMultiEngine)
	assert.Equal(t, 5*time.Second, cfg.Engine.HTTPTimeout)
	assert.Equal(t, time.Hour, cfg.Engine.DomainMemoryTTL)
	assert.Equal(t, 5.0, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_EnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("READER_PORT", "9090")
	t.Setenv("READER_HEADLESS", "false")
	t.Setenv("READER_API_KEYS", " key-a , ,key-b ")
	t.Setenv("READER_SETTLE_INTERVAL", "250ms")
	t.Setenv("READER_RATE_RPS", "0.5")
	t.Setenv("READER_MAX_PAGES", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.False(t, cfg.Browser.Headless)
	assert.Equal(t, []string{"key-a", "key-b"}, cfg.Auth.APIKeys)
	assert.Equal(t, 250*time.Millisecond, cfg.Scraper.SettleInterval)
	assert.Equal(t, 0.5, cfg.RateLimit.RequestsPerSecond)
	// Unparsable values fall back to the default.
	assert.Equal(t, 10, cfg.Browser.MaxPages)
}

func TestLoad_EnvFile(t *testing.T) {
	path := isolate(t)
	require.NoError(t, os.WriteFile(path, []byte("READER_LOG_LEVEL=debug\nREADER_PORT=7000\n"), 0o600))
	t.Setenv("READER_PORT", "7100")

	// godotenv.Load sets variables for the whole process; restore them.
	t.Setenv("READER_LOG_LEVEL", "")
	require.NoError(t, os.Unsetenv("READER_LOG_LEVEL"))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	// Variables already in the environment win over the file.
	assert.Equal(t, 7100, cfg.Server.Port)
}

func TestLoad_MissingEnvFileIgnored(t *testing.T) {
	t.Setenv("READER_ENV_FILE", filepath.Join(t.TempDir(), "absent.env"))

	_, err := Load()
	assert.NoError(t, err)
}

func TestValidate(t *testing.T) {
	isolate(t)

	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "port out of range", env: map[string]string{"READER_PORT": "70000"}},
		{name: "no pages", env: map[string]string{"READER_MAX_PAGES": "0"}},
		{name: "no snapshots", env: map[string]string{"READER_MAX_SNAPSHOTS": "0"}},
		{name: "max below default", env: map[string]string{"READER_MAX_TIMEOUT": "10s"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
