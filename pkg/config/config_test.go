package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.Cache.FreshnessWindow != 24*time.Hour {
		t.Errorf("Expected default freshness window to be 24h, got %v", config.Cache.FreshnessWindow)
	}

	if config.Pagination.PageSize != 5 {
		t.Errorf("Expected default page size to be 5, got %d", config.Pagination.PageSize)
	}

	if config.Cleanup.Delay != 24*time.Hour {
		t.Errorf("Expected default cleanup delay to be 24h, got %v", config.Cleanup.Delay)
	}

	if config.Telegram.DefaultPlatform != "x" {
		t.Errorf("Expected default platform to be x, got %s", config.Telegram.DefaultPlatform)
	}

	if config.Storage.Backend != "sqlite" {
		t.Errorf("Expected default storage backend to be sqlite, got %s", config.Storage.Backend)
	}

	if !config.Telegram.DropPendingUpdates {
		t.Error("Expected drop_pending_updates to default to true")
	}
}

func TestLoadFromEnv(t *testing.T) {
	os.Setenv("POSTWATCH_BOT_TOKEN", "123:test-token")
	os.Setenv("POSTWATCH_X_API_KEY", "test-rapidapi-key")
	os.Setenv("POSTWATCH_FRESHNESS_WINDOW", "30m")
	os.Setenv("POSTWATCH_PAGE_SIZE", "7")
	os.Setenv("POSTWATCH_REQUESTS_PER_MINUTE", "15")
	os.Setenv("POSTWATCH_LOG_LEVEL", "debug")

	defer func() {
		os.Unsetenv("POSTWATCH_BOT_TOKEN")
		os.Unsetenv("POSTWATCH_X_API_KEY")
		os.Unsetenv("POSTWATCH_FRESHNESS_WINDOW")
		os.Unsetenv("POSTWATCH_PAGE_SIZE")
		os.Unsetenv("POSTWATCH_REQUESTS_PER_MINUTE")
		os.Unsetenv("POSTWATCH_LOG_LEVEL")
	}()

	config := DefaultConfig()
	if err := config.LoadFromEnv(); err != nil {
		t.Fatalf("Failed to load from environment: %v", err)
	}

	if config.Telegram.Token != "123:test-token" {
		t.Errorf("Expected bot token to be 123:test-token, got %s", config.Telegram.Token)
	}

	if config.Providers.X.APIKey != "test-rapidapi-key" {
		t.Errorf("Expected X API key to be test-rapidapi-key, got %s", config.Providers.X.APIKey)
	}

	if config.Cache.FreshnessWindow != 30*time.Minute {
		t.Errorf("Expected freshness window to be 30m, got %v", config.Cache.FreshnessWindow)
	}

	if config.Pagination.PageSize != 7 {
		t.Errorf("Expected page size to be 7, got %d", config.Pagination.PageSize)
	}

	if config.RateLimit.RequestsPerMinute != 15 {
		t.Errorf("Expected requests per minute to be 15, got %d", config.RateLimit.RequestsPerMinute)
	}

	if config.Logging.Level != "debug" {
		t.Errorf("Expected log level to be debug, got %s", config.Logging.Level)
	}
}

func TestLoadFromEnvIgnoresInvalidValues(t *testing.T) {
	os.Setenv("POSTWATCH_FRESHNESS_WINDOW", "not-a-duration")
	os.Setenv("POSTWATCH_PAGE_SIZE", "-3")
	defer func() {
		os.Unsetenv("POSTWATCH_FRESHNESS_WINDOW")
		os.Unsetenv("POSTWATCH_PAGE_SIZE")
	}()

	config := DefaultConfig()
	if err := config.LoadFromEnv(); err != nil {
		t.Fatalf("Failed to load from environment: %v", err)
	}

	if config.Cache.FreshnessWindow != 24*time.Hour {
		t.Errorf("Invalid duration should keep the default, got %v", config.Cache.FreshnessWindow)
	}
	if config.Pagination.PageSize != 5 {
		t.Errorf("Negative page size should keep the default, got %d", config.Pagination.PageSize)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `
telegram:
  token: "file-token"
  default_platform: "instagram"
cache:
  freshness_window: 2h
  post_limit: 20
pagination:
  page_size: 3
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	config := DefaultConfig()
	if err := config.LoadFromFile(path); err != nil {
		t.Fatalf("Failed to load config file: %v", err)
	}

	if config.Telegram.Token != "file-token" {
		t.Errorf("Expected token file-token, got %s", config.Telegram.Token)
	}
	if config.Telegram.DefaultPlatform != "instagram" {
		t.Errorf("Expected default platform instagram, got %s", config.Telegram.DefaultPlatform)
	}
	if config.Cache.FreshnessWindow != 2*time.Hour {
		t.Errorf("Expected freshness window 2h, got %v", config.Cache.FreshnessWindow)
	}
	if config.Cache.PostLimit != 20 {
		t.Errorf("Expected post limit 20, got %d", config.Cache.PostLimit)
	}
	if config.Pagination.PageSize != 3 {
		t.Errorf("Expected page size 3, got %d", config.Pagination.PageSize)
	}
}

func TestLoadFromFileMissingIsNotAnError(t *testing.T) {
	config := DefaultConfig()
	if err := config.LoadFromFile(""); err != nil {
		t.Errorf("Missing config file should not be an error, got %v", err)
	}
}

func TestValidate(t *testing.T) {
	config := DefaultConfig()
	config.Telegram.Token = "123:abc"

	if err := config.Validate(); err != nil {
		t.Errorf("Default config with a token should be valid: %v", err)
	}
}

func TestValidateCollectsErrors(t *testing.T) {
	config := DefaultConfig()
	config.Telegram.Token = ""
	config.Pagination.PageSize = 0
	config.Cache.FreshnessWindow = 0
	config.Storage.Backend = "mongodb"

	err := config.Validate()
	if err == nil {
		t.Fatal("Expected validation to fail")
	}

	msg := err.Error()
	for _, expected := range []string{"bot token", "page size", "freshness window", "storage backend"} {
		if !strings.Contains(msg, expected) {
			t.Errorf("Expected validation error to mention %q, got: %s", expected, msg)
		}
	}
}

func TestSaveAndReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.yaml")

	config := DefaultConfig()
	config.Telegram.Token = "save-token"
	config.Pagination.PageSize = 8

	if err := config.Save(path); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	reloaded := DefaultConfig()
	if err := reloaded.LoadFromFile(path); err != nil {
		t.Fatalf("Failed to reload config: %v", err)
	}

	if reloaded.Telegram.Token != "save-token" {
		t.Errorf("Expected token save-token after reload, got %s", reloaded.Telegram.Token)
	}
	if reloaded.Pagination.PageSize != 8 {
		t.Errorf("Expected page size 8 after reload, got %d", reloaded.Pagination.PageSize)
	}
}

func TestMergeCommandLineFlags(t *testing.T) {
	config := DefaultConfig()

	config.MergeCommandLineFlags(map[string]interface{}{
		"token":     "flag-token",
		"platform":  "instagram",
		"log-level": "warn",
		"no-color":  true,
	})

	if config.Telegram.Token != "flag-token" {
		t.Errorf("Expected flag token to win, got %s", config.Telegram.Token)
	}
	if config.Telegram.DefaultPlatform != "instagram" {
		t.Errorf("Expected platform instagram, got %s", config.Telegram.DefaultPlatform)
	}
	if config.Logging.Level != "warn" {
		t.Errorf("Expected log level warn, got %s", config.Logging.Level)
	}
	if !config.Logging.NoColor {
		t.Error("Expected no-color flag to be applied")
	}
}
