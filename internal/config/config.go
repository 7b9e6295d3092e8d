package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration
type Config struct {
	// GitHub
	GitHubToken   string
	Organizations []string
	ExcludedUsers []string

	// Collection window
	Since time.Time
	Until time.Time

	// Storage
	StorageType string // "sqlite" or "postgres"
	SQLitePath  string
	PostgresURL string
	SummaryPath string

	// API Server
	APIPort string
	APIHost string

	// CLI
	APIEndpoint string
}

// Load loads the configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		GitHubToken:   getEnv("GITHUB_TOKEN", ""),
		Organizations: splitList(getEnv("GITHUB_ORGS", "")),
		ExcludedUsers: splitList(getEnv("EXCLUDED_USERS", "")),
		StorageType:   getEnv("STORAGE_TYPE", "sqlite"),
		SQLitePath:    getEnv("SQLITE_PATH", "./contriboard.db"),
		PostgresURL:   getEnv("POSTGRES_URL", ""),
		SummaryPath:   getEnv("SUMMARY_PATH", "./summary.json"),
		APIPort:       getEnv("API_PORT", "8080"),
		APIHost:       getEnv("API_HOST", "localhost"),
		APIEndpoint:   getEnv("API_ENDPOINT", "http://localhost:8080"),
	}

	var err error
	if cfg.Since, err = parseDate(getEnv("SINCE", "")); err != nil {
		return nil, &ConfigError{Field: "SINCE", Message: "must be an RFC 3339 date, e.g. 2024-01-01"}
	}
	if cfg.Until, err = parseDate(getEnv("UNTIL", "")); err != nil {
		return nil, &ConfigError{Field: "UNTIL", Message: "must be an RFC 3339 date, e.g. 2024-12-31"}
	}

	return cfg, nil
}

// getEnv returns the value of an environment variable or a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// splitList splits a comma separated list, trimming whitespace and
// dropping empty entries while preserving order
func splitList(value string) []string {
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parseDate parses a date in YYYY-MM-DD or full RFC 3339 form.
// An empty value yields the zero time.
func parseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, value)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.GitHubToken == "" {
		return &ConfigError{Field: "GITHUB_TOKEN", Message: "GitHub token is required"}
	}
	if len(c.Organizations) == 0 {
		return &ConfigError{Field: "GITHUB_ORGS", Message: "at least one organization is required"}
	}
	if c.StorageType != "sqlite" && c.StorageType != "postgres" {
		return &ConfigError{Field: "STORAGE_TYPE", Message: "must be 'sqlite' or 'postgres'"}
	}
	if c.StorageType == "postgres" && c.PostgresURL == "" {
		return &ConfigError{Field: "POSTGRES_URL", Message: "PostgreSQL URL is required when STORAGE_TYPE is 'postgres'"}
	}
	if !c.Until.IsZero() && !c.Since.IsZero() && c.Until.Before(c.Since) {
		return &ConfigError{Field: "UNTIL", Message: "must not be earlier than SINCE"}
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}
