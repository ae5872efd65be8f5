package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds client configuration
type Config struct {
	// Backend
	APIBaseURL     string
	RequestTimeout time.Duration

	// Web client
	Port        string
	TemplateDir string
	StaticDir   string

	// Durable client storage
	DBPath string

	// Logging
	LogLevel  string
	LogFormat string

	// Display
	CurrencySymbol string
}

// Load reads an optional .env file and then the environment.
func Load(envFiles ...string) *Config {
	// A missing .env is normal; values then come from the environment only.
	_ = godotenv.Load(envFiles...)

	return &Config{
		APIBaseURL:     strings.TrimRight(getEnv("API_BASE_URL", "http://localhost:8080"), "/"),
		RequestTimeout: getEnvDuration("REQUEST_TIMEOUT", 15*time.Second),

		Port:        getEnv("PORT", "8081"),
		TemplateDir: getEnv("TEMPLATE_DIR", "web/templates"),
		StaticDir:   getEnv("STATIC_DIR", "web/static"),

		DBPath: getEnv("DB_PATH", "session.db"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		CurrencySymbol: getEnv("CURRENCY_SYMBOL", "£"),
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if u, err := url.Parse(c.APIBaseURL); err != nil {
		errors = append(errors, fmt.Sprintf("invalid API base URL '%s': %v", c.APIBaseURL, err))
	} else if u.Scheme != "http" && u.Scheme != "https" {
		errors = append(errors, fmt.Sprintf("invalid API base URL scheme '%s': must be 'http' or 'https'", u.Scheme))
	} else if u.Host == "" {
		errors = append(errors, fmt.Sprintf("invalid API base URL '%s': missing host", c.APIBaseURL))
	}

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.DBPath == "" {
		errors = append(errors, "database path cannot be empty")
	}

	if c.RequestTimeout < 0 {
		errors = append(errors, fmt.Sprintf("invalid request timeout %v: must not be negative", c.RequestTimeout))
	}

	if c.LogFormat != "text" && c.LogFormat != "json" {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be 'text' or 'json'", c.LogFormat))
	}

	if c.CurrencySymbol == "" {
		errors = append(errors, "currency symbol cannot be empty")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
