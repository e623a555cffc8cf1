package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	require.NotEmpty(t, cfg.Scraper.Mirrors)
	assert.Equal(t, "https://old.reddit.com", cfg.Scraper.Mirrors[0])
	assert.Equal(t, 100, cfg.Scraper.PageSize)
	assert.Equal(t, 5*time.Minute, cfg.Scraper.MonitorInterval)
	assert.Equal(t, 20, cfg.RateLimit.RequestsPerMinute)
	assert.Equal(t, 5, cfg.Comments.MaxDepth)
	assert.Equal(t, "data", cfg.Output.DataDir)
	assert.True(t, cfg.Output.DatabaseEnabled)
	assert.Equal(t, ":8501", cfg.Dashboard.Addr)
	assert.False(t, cfg.Notifications.Enabled())

	assert.NoError(t, cfg.Validate())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("DISCORD_WEBHOOK_URL", "https://discord.com/api/webhooks/1/abc")
	t.Setenv("TELEGRAM_BOT_TOKEN", "123:token")
	t.Setenv("TELEGRAM_CHAT_ID", "-100200")
	t.Setenv("REDSCRAPER_DATA_DIR", "/tmp/rsdata")
	t.Setenv("REDSCRAPER_MIRRORS", "https://a.example.com, https://b.example.com")
	t.Setenv("REDSCRAPER_REQUESTS_PER_MINUTE", "45")
	t.Setenv("REDSCRAPER_LOG_LEVEL", "debug")

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromEnv())

	assert.Equal(t, "https://discord.com/api/webhooks/1/abc", cfg.Notifications.DiscordWebhookURL)
	assert.Equal(t, "123:token", cfg.Notifications.TelegramBotToken)
	assert.Equal(t, "-100200", cfg.Notifications.TelegramChatID)
	assert.True(t, cfg.Notifications.Enabled())
	assert.Equal(t, "/tmp/rsdata", cfg.Output.DataDir)
	assert.Equal(t, filepath.Join("/tmp/rsdata", "redscraper.db"), cfg.Output.DatabasePath)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.Scraper.Mirrors)
	assert.Equal(t, 45, cfg.RateLimit.RequestsPerMinute)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
scraper:
  page_size: 50
  user_agent: "custom-agent"
rate_limit:
  requests_per_minute: 10
comments:
  max_depth: 3
output:
  data_dir: /tmp/other
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromFile(path))

	assert.Equal(t, 50, cfg.Scraper.PageSize)
	assert.Equal(t, "custom-agent", cfg.Scraper.UserAgent)
	assert.Equal(t, 10, cfg.RateLimit.RequestsPerMinute)
	assert.Equal(t, 3, cfg.Comments.MaxDepth)
	assert.Equal(t, "/tmp/other", cfg.Output.DataDir)
	// Untouched sections keep their defaults.
	assert.Equal(t, DefaultMirrors, cfg.Scraper.Mirrors)
}

func TestLoadFromFileInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(":\n  - not valid"), 0644))

	cfg := DefaultConfig()
	assert.Error(t, cfg.LoadFromFile(path))
}

func TestMergeCommandLineFlags(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MergeCommandLineFlags(map[string]interface{}{
		"discord-webhook":     "https://discord.com/api/webhooks/2/def",
		"telegram-token":      "456:token",
		"telegram-chat":       "789",
		"data-dir":            "/tmp/flagdata",
		"requests-per-minute": 30,
		"log-level":           "warn",
		"no-database":         true,
	})

	assert.Equal(t, "https://discord.com/api/webhooks/2/def", cfg.Notifications.DiscordWebhookURL)
	assert.Equal(t, "456:token", cfg.Notifications.TelegramBotToken)
	assert.Equal(t, "789", cfg.Notifications.TelegramChatID)
	assert.Equal(t, "/tmp/flagdata", cfg.Output.DataDir)
	assert.Equal(t, filepath.Join("/tmp/flagdata", "redscraper.db"), cfg.Output.DatabasePath)
	assert.Equal(t, 30, cfg.RateLimit.RequestsPerMinute)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.False(t, cfg.Output.DatabaseEnabled)
}

func TestMergeCommandLineFlagsIgnoresZeroValues(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MergeCommandLineFlags(map[string]interface{}{
		"discord-webhook":     "",
		"requests-per-minute": 0,
		"no-database":         false,
	})

	assert.Empty(t, cfg.Notifications.DiscordWebhookURL)
	assert.Equal(t, 20, cfg.RateLimit.RequestsPerMinute)
	assert.True(t, cfg.Output.DatabaseEnabled)
}

func TestFlagsOverrideEnv(t *testing.T) {
	t.Setenv("REDSCRAPER_LOG_LEVEL", "debug")

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromEnv())
	cfg.MergeCommandLineFlags(map[string]interface{}{"log-level": "error"})

	assert.Equal(t, "error", cfg.Logging.Level)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no mirrors", func(c *Config) { c.Scraper.Mirrors = nil }},
		{"non-http mirror", func(c *Config) { c.Scraper.Mirrors = []string{"ftp://example.com"} }},
		{"empty user agent", func(c *Config) { c.Scraper.UserAgent = "" }},
		{"page size too large", func(c *Config) { c.Scraper.PageSize = 101 }},
		{"page size zero", func(c *Config) { c.Scraper.PageSize = 0 }},
		{"zero rpm", func(c *Config) { c.RateLimit.RequestsPerMinute = 0 }},
		{"negative cooldown", func(c *Config) { c.RateLimit.Cooldown = -time.Second }},
		{"negative default limit", func(c *Config) { c.Scraper.DefaultLimit = -1 }},
		{"negative media cap", func(c *Config) { c.Media.MaxImagesPerPost = -1 }},
		{"negative comment depth", func(c *Config) { c.Comments.MaxDepth = -1 }},
		{"empty data dir", func(c *Config) { c.Output.DataDir = "" }},
		{"db enabled without path", func(c *Config) { c.Output.DatabasePath = "" }},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }},
		{"sub-second monitor interval", func(c *Config) { c.Scraper.MonitorInterval = time.Millisecond }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestSaveRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Scraper.PageSize = 25
	require.NoError(t, cfg.Save(path))

	loaded := DefaultConfig()
	require.NoError(t, loaded.LoadFromFile(path))
	assert.Equal(t, 25, loaded.Scraper.PageSize)
}
