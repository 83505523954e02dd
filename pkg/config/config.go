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

// Config holds all configuration options for the bot
type Config struct {
	// Telegram transport settings
	Telegram TelegramConfig `yaml:"telegram" json:"telegram"`

	// Scraping provider settings
	Providers ProvidersConfig `yaml:"providers" json:"providers"`

	// Snapshot cache settings
	Cache CacheConfig `yaml:"cache" json:"cache"`

	// Page rendering settings
	Pagination PaginationConfig `yaml:"pagination" json:"pagination"`

	// Deferred message cleanup settings
	Cleanup CleanupConfig `yaml:"cleanup" json:"cleanup"`

	// Provider rate limiting
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Snapshot and obligation store
	Storage StorageConfig `yaml:"storage" json:"storage"`

	// Optional debug HTTP server
	HTTP HTTPConfig `yaml:"http" json:"http"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// TelegramConfig holds bot transport configuration
type TelegramConfig struct {
	Token              string        `yaml:"token" json:"token"`
	PollTimeout        time.Duration `yaml:"poll_timeout" json:"poll_timeout"`
	DropPendingUpdates bool          `yaml:"drop_pending_updates" json:"drop_pending_updates"`
	SendPacing         time.Duration `yaml:"send_pacing" json:"send_pacing"`
	PromptTimeout      time.Duration `yaml:"prompt_timeout" json:"prompt_timeout"`
	DefaultPlatform    string        `yaml:"default_platform" json:"default_platform"`
	LinkPreview        bool          `yaml:"link_preview" json:"link_preview"`
}

// ProvidersConfig groups per-platform provider settings
type ProvidersConfig struct {
	X         XProviderConfig         `yaml:"x" json:"x"`
	Instagram InstagramProviderConfig `yaml:"instagram" json:"instagram"`
}

// XProviderConfig holds RapidAPI scraping provider settings for X
type XProviderConfig struct {
	APIKey     string        `yaml:"api_key" json:"api_key"`
	APIHost    string        `yaml:"api_host" json:"api_host"`
	BaseURL    string        `yaml:"base_url" json:"base_url"`
	Timeout    time.Duration `yaml:"timeout" json:"timeout"`
	LinkDomain string        `yaml:"link_domain" json:"link_domain"`
}

// InstagramProviderConfig holds Instagram web API settings
type InstagramProviderConfig struct {
	SessionID string        `yaml:"session_id" json:"session_id"`
	CSRFToken string        `yaml:"csrf_token" json:"csrf_token"`
	UserAgent string        `yaml:"user_agent" json:"user_agent"`
	BaseURL   string        `yaml:"base_url" json:"base_url"`
	Timeout   time.Duration `yaml:"timeout" json:"timeout"`
}

// CacheConfig controls the snapshot freshness decision
type CacheConfig struct {
	FreshnessWindow time.Duration `yaml:"freshness_window" json:"freshness_window"`
	PostLimit       int           `yaml:"post_limit" json:"post_limit"`
}

// PaginationConfig controls page rendering
type PaginationConfig struct {
	PageSize int `yaml:"page_size" json:"page_size"`
}

// CleanupConfig controls deferred message deletion
type CleanupConfig struct {
	Delay         time.Duration `yaml:"delay" json:"delay"`
	SweepInterval time.Duration `yaml:"sweep_interval" json:"sweep_interval"`
}

// RateLimitConfig holds provider rate limiting configuration
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute" json:"requests_per_minute"`
	MaxRetries        int `yaml:"max_retries" json:"max_retries"`
}

// StorageConfig selects and configures the snapshot store backend
type StorageConfig struct {
	Backend     string `yaml:"backend" json:"backend"`
	Path        string `yaml:"path" json:"path"`
	PostgresDSN string `yaml:"postgres_dsn" json:"postgres_dsn"`
}

// HTTPConfig controls the optional debug HTTP server
type HTTPConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Addr    string `yaml:"addr" json:"addr"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level   string `yaml:"level" json:"level"`
	File    string `yaml:"file" json:"file"`
	JSON    bool   `yaml:"json" json:"json"`
	NoColor bool   `yaml:"no_color" json:"no_color"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		Telegram: TelegramConfig{
			PollTimeout:        60 * time.Second,
			DropPendingUpdates: true,
			SendPacing:         500 * time.Millisecond,
			PromptTimeout:      60 * time.Second,
			DefaultPlatform:    "x",
			LinkPreview:        true,
		},
		Providers: ProvidersConfig{
			X: XProviderConfig{
				APIHost:    "twitter-x-api.p.rapidapi.com",
				BaseURL:    "https://twitter-x-api.p.rapidapi.com",
				Timeout:    30 * time.Second,
				LinkDomain: "fixupx.com",
			},
			Instagram: InstagramProviderConfig{
				UserAgent: "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
				BaseURL:   "https://www.instagram.com",
				Timeout:   30 * time.Second,
			},
		},
		Cache: CacheConfig{
			FreshnessWindow: 24 * time.Hour,
			PostLimit:       10,
		},
		Pagination: PaginationConfig{
			PageSize: 5,
		},
		Cleanup: CleanupConfig{
			Delay:         24 * time.Hour,
			SweepInterval: time.Minute,
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 30,
			MaxRetries:        3,
		},
		Storage: StorageConfig{
			Backend: "sqlite",
			Path:    filepath.Join(home, ".local", "share", "postwatch", "postwatch.db"),
		},
		HTTP: HTTPConfig{
			Enabled: false,
			Addr:    ":8080",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if token := os.Getenv("POSTWATCH_BOT_TOKEN"); token != "" {
		c.Telegram.Token = token
	}
	if platform := os.Getenv("POSTWATCH_DEFAULT_PLATFORM"); platform != "" {
		c.Telegram.DefaultPlatform = platform
	}

	if apiKey := os.Getenv("POSTWATCH_X_API_KEY"); apiKey != "" {
		c.Providers.X.APIKey = apiKey
	}
	if apiHost := os.Getenv("POSTWATCH_X_API_HOST"); apiHost != "" {
		c.Providers.X.APIHost = apiHost
		c.Providers.X.BaseURL = "https://" + apiHost
	}
	if sessionID := os.Getenv("POSTWATCH_IG_SESSION_ID"); sessionID != "" {
		c.Providers.Instagram.SessionID = sessionID
	}
	if csrfToken := os.Getenv("POSTWATCH_IG_CSRF_TOKEN"); csrfToken != "" {
		c.Providers.Instagram.CSRFToken = csrfToken
	}
	if userAgent := os.Getenv("POSTWATCH_IG_USER_AGENT"); userAgent != "" {
		c.Providers.Instagram.UserAgent = userAgent
	}

	if window := os.Getenv("POSTWATCH_FRESHNESS_WINDOW"); window != "" {
		if d, err := time.ParseDuration(window); err == nil && d > 0 {
			c.Cache.FreshnessWindow = d
		}
	}
	if limit := os.Getenv("POSTWATCH_POST_LIMIT"); limit != "" {
		var val int
		fmt.Sscanf(limit, "%d", &val)
		if val > 0 {
			c.Cache.PostLimit = val
		}
	}
	if size := os.Getenv("POSTWATCH_PAGE_SIZE"); size != "" {
		var val int
		fmt.Sscanf(size, "%d", &val)
		if val > 0 {
			c.Pagination.PageSize = val
		}
	}
	if delay := os.Getenv("POSTWATCH_CLEANUP_DELAY"); delay != "" {
		if d, err := time.ParseDuration(delay); err == nil && d > 0 {
			c.Cleanup.Delay = d
		}
	}
	if rpm := os.Getenv("POSTWATCH_REQUESTS_PER_MINUTE"); rpm != "" {
		var val int
		fmt.Sscanf(rpm, "%d", &val)
		if val > 0 {
			c.RateLimit.RequestsPerMinute = val
		}
	}

	if backend := os.Getenv("POSTWATCH_STORAGE_BACKEND"); backend != "" {
		c.Storage.Backend = backend
	}
	if path := os.Getenv("POSTWATCH_STORAGE_PATH"); path != "" {
		c.Storage.Path = path
	}
	if dsn := os.Getenv("POSTWATCH_POSTGRES_DSN"); dsn != "" {
		c.Storage.PostgresDSN = dsn
	}

	if httpAddr := os.Getenv("POSTWATCH_HTTP_ADDR"); httpAddr != "" {
		c.HTTP.Addr = httpAddr
		c.HTTP.Enabled = true
	}

	if logLevel := os.Getenv("POSTWATCH_LOG_LEVEL"); logLevel != "" {
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
	// Check in order of precedence
	locations := []string{
		"postwatch.yaml",
		"postwatch.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "postwatch", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".config", "postwatch", "config.yml"),
		filepath.Join(os.Getenv("HOME"), ".postwatch.yaml"),
		filepath.Join(os.Getenv("HOME"), ".postwatch.yml"),
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

	if c.Telegram.Token == "" {
		errs = append(errs, errors.New("Telegram bot token is required"))
	}
	if c.Telegram.PollTimeout <= 0 {
		errs = append(errs, errors.New("poll timeout must be positive"))
	}
	if c.Telegram.SendPacing < 0 {
		errs = append(errs, errors.New("send pacing cannot be negative"))
	}
	switch strings.ToLower(c.Telegram.DefaultPlatform) {
	case "x", "instagram":
	default:
		errs = append(errs, errors.New("default platform must be x or instagram"))
	}

	if c.Cache.FreshnessWindow <= 0 {
		errs = append(errs, errors.New("freshness window must be positive"))
	}
	if c.Cache.PostLimit <= 0 {
		errs = append(errs, errors.New("post limit must be positive"))
	}

	if c.Pagination.PageSize <= 0 {
		errs = append(errs, errors.New("page size must be positive"))
	}

	if c.Cleanup.Delay <= 0 {
		errs = append(errs, errors.New("cleanup delay must be positive"))
	}
	if c.Cleanup.SweepInterval <= 0 {
		errs = append(errs, errors.New("cleanup sweep interval must be positive"))
	}

	if c.RateLimit.RequestsPerMinute <= 0 {
		errs = append(errs, errors.New("requests per minute must be positive"))
	}
	if c.RateLimit.MaxRetries < 0 {
		errs = append(errs, errors.New("max retries cannot be negative"))
	}

	switch strings.ToLower(c.Storage.Backend) {
	case "sqlite":
		if c.Storage.Path == "" {
			errs = append(errs, errors.New("storage path is required for sqlite backend"))
		}
	case "postgres":
		if c.Storage.PostgresDSN == "" {
			errs = append(errs, errors.New("postgres DSN is required for postgres backend"))
		}
	default:
		errs = append(errs, errors.New("storage backend must be sqlite or postgres"))
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

	// Create directory if it doesn't exist
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
	if token, ok := flags["token"].(string); ok && token != "" {
		c.Telegram.Token = token
	}
	if platform, ok := flags["platform"].(string); ok && platform != "" {
		c.Telegram.DefaultPlatform = platform
	}
	if storagePath, ok := flags["storage-path"].(string); ok && storagePath != "" {
		c.Storage.Path = storagePath
	}
	if httpAddr, ok := flags["http-addr"].(string); ok && httpAddr != "" {
		c.HTTP.Addr = httpAddr
		c.HTTP.Enabled = true
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
	if noColor, ok := flags["no-color"].(bool); ok && noColor {
		c.Logging.NoColor = true
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".postwatch.env"))

	// Start with defaults
	config := DefaultConfig()

	// Load from config file
	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	// Override with environment variables (includes values from .env)
	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Override with command line flags
	config.MergeCommandLineFlags(flags)

	// Validate final configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
