package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"API_BASE_URL", "REQUEST_TIMEOUT", "PORT", "TEMPLATE_DIR", "STATIC_DIR",
	"DB_PATH", "LOG_LEVEL", "LOG_FORMAT", "CURRENCY_SYMBOL",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func noEnvFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "missing.env")
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg := Load(noEnvFile(t))
	assert.Equal(t, "http://localhost:8080", cfg.APIBaseURL)
	assert.Equal(t, 15*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "8081", cfg.Port)
	assert.Equal(t, "web/templates", cfg.TemplateDir)
	assert.Equal(t, "web/static", cfg.StaticDir)
	assert.Equal(t, "session.db", cfg.DBPath)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "£", cfg.CurrencySymbol)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("API_BASE_URL", "https://api.example.com/")
	t.Setenv("REQUEST_TIMEOUT", "3s")
	t.Setenv("PORT", "9000")
	t.Setenv("CURRENCY_SYMBOL", "$")

	cfg := Load(noEnvFile(t))
	assert.Equal(t, "https://api.example.com", cfg.APIBaseURL, "trailing slash is trimmed")
	assert.Equal(t, 3*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "$", cfg.CurrencySymbol)
}

func TestLoadInvalidDurationUsesDefault(t *testing.T) {
	clearEnv(t)
	t.Setenv("REQUEST_TIMEOUT", "soon")

	cfg := Load(noEnvFile(t))
	assert.Equal(t, 15*time.Second, cfg.RequestTimeout)
}

func TestLoadDotEnvFile(t *testing.T) {
	clearEnv(t)
	const key = "FINANCE_CLIENT_TEST_TEMPLATE_DIR"
	// godotenv never overrides variables that exist, even empty ones.
	envFile := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(envFile, []byte(key+"=from-file\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv(key) })

	Load(envFile)
	assert.Equal(t, "from-file", os.Getenv(key))
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			APIBaseURL:     "http://localhost:8080",
			RequestTimeout: time.Second,
			Port:           "8081",
			DBPath:         "session.db",
			LogLevel:       "info",
			LogFormat:      "text",
			CurrencySymbol: "£",
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"ftp scheme", func(c *Config) { c.APIBaseURL = "ftp://host" }, "must be 'http' or 'https'"},
		{"no host", func(c *Config) { c.APIBaseURL = "http://" }, "missing host"},
		{"port not a number", func(c *Config) { c.Port = "http" }, "must be a number"},
		{"port out of range", func(c *Config) { c.Port = "70000" }, "between 1 and 65535"},
		{"empty db path", func(c *Config) { c.DBPath = "" }, "database path cannot be empty"},
		{"negative timeout", func(c *Config) { c.RequestTimeout = -time.Second }, "must not be negative"},
		{"bad log format", func(c *Config) { c.LogFormat = "xml" }, "invalid log format"},
		{"empty currency", func(c *Config) { c.CurrencySymbol = "" }, "currency symbol"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	t.Run("collects every problem", func(t *testing.T) {
		cfg := base()
		cfg.Port = "0"
		cfg.DBPath = ""
		err := cfg.Validate()
		require.Error(t, err)
		assert.Equal(t, 2, strings.Count(err.Error(), "\n- "))
	})
}
