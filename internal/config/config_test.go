package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "ghp_test")
	t.Setenv("GITHUB_ORGS", "acme")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.StorageType)
	assert.Equal(t, "./contriboard.db", cfg.SQLitePath)
	assert.Equal(t, "./summary.json", cfg.SummaryPath)
	assert.Equal(t, "8080", cfg.APIPort)
	assert.True(t, cfg.Since.IsZero())
	assert.True(t, cfg.Until.IsZero())
}

func TestLoadListsPreserveOrder(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "ghp_test")
	t.Setenv("GITHUB_ORGS", "acme, acme-labs ,,acme-infra")
	t.Setenv("EXCLUDED_USERS", "dependabot[bot], release-bot")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"acme", "acme-labs", "acme-infra"}, cfg.Organizations)
	assert.Equal(t, []string{"dependabot[bot]", "release-bot"}, cfg.ExcludedUsers)
}

func TestLoadWindow(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "ghp_test")
	t.Setenv("GITHUB_ORGS", "acme")
	t.Setenv("SINCE", "2024-01-01")
	t.Setenv("UNTIL", "2024-06-30T23:59:59Z")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), cfg.Since)
	assert.Equal(t, time.Date(2024, 6, 30, 23, 59, 59, 0, time.UTC), cfg.Until)
}

func TestLoadRejectsBadDate(t *testing.T) {
	t.Setenv("SINCE", "January 2024")

	_, err := Load()
	require.Error(t, err)

	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "SINCE", cfgErr.Field)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			GitHubToken:   "ghp_test",
			Organizations: []string{"acme"},
			StorageType:   "sqlite",
		}
	}

	tests := []struct {
		name      string
		mutate    func(*Config)
		wantField string
	}{
		{"valid", func(c *Config) {}, ""},
		{"missing token", func(c *Config) { c.GitHubToken = "" }, "GITHUB_TOKEN"},
		{"missing orgs", func(c *Config) { c.Organizations = nil }, "GITHUB_ORGS"},
		{"bad storage type", func(c *Config) { c.StorageType = "mysql" }, "STORAGE_TYPE"},
		{"postgres without url", func(c *Config) { c.StorageType = "postgres" }, "POSTGRES_URL"},
		{"inverted window", func(c *Config) {
			c.Since = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
			c.Until = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		}, "UNTIL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			var cfgErr *ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.wantField, cfgErr.Field)
		})
	}
}
