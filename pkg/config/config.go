package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the Reddit scraper
type Config struct {
	// Scraper settings: mirrors, user agent, pagination
	Scraper ScraperConfig `yaml:"scraper" json:"scraper"`

	// Rate limiting configuration
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Media download settings
	Media MediaConfig `yaml:"media" json:"media"`

	// Comment scraping settings
	Comments CommentConfig `yaml:"comments" json:"comments"`

	// Output settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Notification settings
	Notifications NotificationConfig `yaml:"notifications" json:"notifications"`

	// Dashboard settings
	Dashboard DashboardConfig `yaml:"dashboard" json:"dashboard"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// ScraperConfig holds mirror list and fetch behavior
type ScraperConfig struct {
	Mirrors         []string      `yaml:"mirrors" json:"mirrors"`
	UserAgent       string        `yaml:"user_agent" json:"user_agent"`
	RequestTimeout  time.Duration `yaml:"request_timeout" json:"request_timeout"`
	PageSize        int           `yaml:"page_size" json:"page_size"`
	DefaultLimit    int           `yaml:"default_limit" json:"default_limit"`
	MonitorInterval time.Duration `yaml:"monitor_interval" json:"monitor_interval"`
}

// RateLimitConfig holds pacing between page fetches and retry behavior
type RateLimitConfig struct {
	RequestsPerMinute int           `yaml:"requests_per_minute" json:"requests_per_minute"`
	Cooldown          time.Duration `yaml:"cooldown" json:"cooldown"`
	RetryWait         time.Duration `yaml:"retry_wait" json:"retry_wait"`
	MaxRetries        int           `yaml:"max_retries" json:"max_retries"`
}

// MediaConfig holds per-post media download caps
type MediaConfig struct {
	MaxImagesPerPost  int           `yaml:"max_images_per_post" json:"max_images_per_post"`
	MaxGalleryImages  int           `yaml:"max_gallery_images" json:"max_gallery_images"`
	MaxVideosPerPost  int           `yaml:"max_videos_per_post" json:"max_videos_per_post"`
	DownloadTimeout   time.Duration `yaml:"download_timeout" json:"download_timeout"`
}

// CommentConfig holds comment traversal settings
type CommentConfig struct {
	MaxDepth     int `yaml:"max_depth" json:"max_depth"`
	PerPostLimit int `yaml:"per_post_limit" json:"per_post_limit"`
}

// OutputConfig holds persisted data locations
type OutputConfig struct {
	DataDir         string `yaml:"data_dir" json:"data_dir"`
	DatabasePath    string `yaml:"database_path" json:"database_path"`
	DatabaseEnabled bool   `yaml:"database_enabled" json:"database_enabled"`
}

// NotificationConfig holds webhook and bot credentials
type NotificationConfig struct {
	DiscordWebhookURL string `yaml:"discord_webhook_url" json:"discord_webhook_url"`
	TelegramBotToken  string `yaml:"telegram_bot_token" json:"telegram_bot_token"`
	TelegramChatID    string `yaml:"telegram_chat_id" json:"telegram_chat_id"`
	OnComplete        bool   `yaml:"on_complete" json:"on_complete"`
}

// Enabled reports whether at least one notification channel is configured
func (n NotificationConfig) Enabled() bool {
	return n.DiscordWebhookURL != "" || (n.TelegramBotToken != "" && n.TelegramChatID != "")
}

// DashboardConfig holds the stats server settings
type DashboardConfig struct {
	Addr string `yaml:"addr" json:"addr"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultMirrors is the ordered fallback list: old.reddit.com first,
// redlib instances after it.
var DefaultMirrors = []string{
	"https://old.reddit.com",
	"https://redlib.catsarch.com",
	"https://redlib.vsls.cz",
	"https://r.nf",
	"https://libreddit.northboot.xyz",
	"https://redlib.tux.pizza",
}

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Scraper: ScraperConfig{
			Mirrors:         append([]string(nil), DefaultMirrors...),
			UserAgent:       defaultUserAgent,
			RequestTimeout:  15 * time.Second,
			PageSize:        100,
			DefaultLimit:    100,
			MonitorInterval: 5 * time.Minute,
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 20,
			Cooldown:          3 * time.Second,
			RetryWait:         30 * time.Second,
			MaxRetries:        3,
		},
		Media: MediaConfig{
			MaxImagesPerPost: 5,
			MaxGalleryImages: 10,
			MaxVideosPerPost: 2,
			DownloadTimeout:  30 * time.Second,
		},
		Comments: CommentConfig{
			MaxDepth:     5,
			PerPostLimit: 100,
		},
		Output: OutputConfig{
			DataDir:         "data",
			DatabasePath:    filepath.Join("data", "redscraper.db"),
			DatabaseEnabled: true,
		},
		Notifications: NotificationConfig{
			OnComplete: true,
		},
		Dashboard: DashboardConfig{
			Addr: ":8501",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	// Notification credentials keep their legacy variable names
	if webhook := os.Getenv("DISCORD_WEBHOOK_URL"); webhook != "" {
		c.Notifications.DiscordWebhookURL = webhook
	}
	if token := os.Getenv("TELEGRAM_BOT_TOKEN"); token != "" {
		c.Notifications.TelegramBotToken = token
	}
	if chatID := os.Getenv("TELEGRAM_CHAT_ID"); chatID != "" {
		c.Notifications.TelegramChatID = chatID
	}

	if dataDir := os.Getenv("REDSCRAPER_DATA_DIR"); dataDir != "" {
		c.Output.DataDir = dataDir
		c.Output.DatabasePath = filepath.Join(dataDir, "redscraper.db")
	}
	if userAgent := os.Getenv("REDSCRAPER_USER_AGENT"); userAgent != "" {
		c.Scraper.UserAgent = userAgent
	}
	if mirrors := os.Getenv("REDSCRAPER_MIRRORS"); mirrors != "" {
		var list []string
		for _, m := range strings.Split(mirrors, ",") {
			if m = strings.TrimSpace(m); m != "" {
				list = append(list, m)
			}
		}
		if len(list) > 0 {
			c.Scraper.Mirrors = list
		}
	}
	if rpm := os.Getenv("REDSCRAPER_REQUESTS_PER_MINUTE"); rpm != "" {
		var val int
		fmt.Sscanf(rpm, "%d", &val)
		if val > 0 {
			c.RateLimit.RequestsPerMinute = val
		}
	}
	if logLevel := os.Getenv("REDSCRAPER_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	locations := []string{
		".redscraper.yaml",
		".redscraper.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "redscraper", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".config", "redscraper", "config.yml"),
		filepath.Join(os.Getenv("HOME"), ".redscraper.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if len(c.Scraper.Mirrors) == 0 {
		errs = append(errs, errors.New("at least one mirror is required"))
	}
	for _, m := range c.Scraper.Mirrors {
		if !strings.HasPrefix(m, "http://") && !strings.HasPrefix(m, "https://") {
			errs = append(errs, fmt.Errorf("mirror %q must be an http(s) URL", m))
		}
	}
	if c.Scraper.UserAgent == "" {
		errs = append(errs, errors.New("user agent is required"))
	}
	if c.Scraper.PageSize <= 0 || c.Scraper.PageSize > 100 {
		errs = append(errs, errors.New("page size must be between 1 and 100"))
	}
	if c.Scraper.RequestTimeout <= 0 {
		errs = append(errs, errors.New("request timeout must be positive"))
	}
	if c.Scraper.MonitorInterval < time.Second {
		errs = append(errs, errors.New("monitor interval must be at least one second"))
	}
	if c.Scraper.DefaultLimit < 0 {
		errs = append(errs, errors.New("default limit cannot be negative"))
	}

	if c.RateLimit.RequestsPerMinute <= 0 {
		errs = append(errs, errors.New("requests per minute must be positive"))
	}
	if c.RateLimit.MaxRetries < 0 {
		errs = append(errs, errors.New("max retries cannot be negative"))
	}
	if c.RateLimit.Cooldown < 0 {
		errs = append(errs, errors.New("cooldown cannot be negative"))
	}

	if c.Media.MaxImagesPerPost < 0 || c.Media.MaxGalleryImages < 0 || c.Media.MaxVideosPerPost < 0 {
		errs = append(errs, errors.New("media caps cannot be negative"))
	}
	if c.Media.DownloadTimeout <= 0 {
		errs = append(errs, errors.New("download timeout must be positive"))
	}

	if c.Comments.MaxDepth < 0 {
		errs = append(errs, errors.New("comment depth cannot be negative"))
	}

	if c.Output.DataDir == "" {
		errs = append(errs, errors.New("data directory is required"))
	}
	if c.Output.DatabaseEnabled && c.Output.DatabasePath == "" {
		errs = append(errs, errors.New("database path is required when the database is enabled"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if webhook, ok := flags["discord-webhook"].(string); ok && webhook != "" {
		c.Notifications.DiscordWebhookURL = webhook
	}
	if token, ok := flags["telegram-token"].(string); ok && token != "" {
		c.Notifications.TelegramBotToken = token
	}
	if chatID, ok := flags["telegram-chat"].(string); ok && chatID != "" {
		c.Notifications.TelegramChatID = chatID
	}
	if dataDir, ok := flags["data-dir"].(string); ok && dataDir != "" {
		c.Output.DataDir = dataDir
		c.Output.DatabasePath = filepath.Join(dataDir, "redscraper.db")
	}
	if rpm, ok := flags["requests-per-minute"].(int); ok && rpm > 0 {
		c.RateLimit.RequestsPerMinute = rpm
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
	if noDB, ok := flags["no-database"].(bool); ok && noDB {
		c.Output.DatabaseEnabled = false
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".redscraper.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
