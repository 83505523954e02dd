package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"postwatch/internal/dispatch"
	"postwatch/internal/httpserver"
	"postwatch/pkg/auth"
	"postwatch/pkg/bot"
	"postwatch/pkg/config"
	"postwatch/pkg/fetcher"
	"postwatch/pkg/igapi"
	"postwatch/pkg/logger"
	"postwatch/pkg/ratelimit"
	"postwatch/pkg/storage"
	"postwatch/pkg/xapi"
)

// runCmd represents the run command. The root command without a
// subcommand does the same thing.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the bot and serve updates until interrupted",
	Long: `Start the Telegram bot and serve updates until interrupted.

Credentials are resolved from command line flags, environment variables,
the configuration file, and finally the credential store. Run
'postwatch auth login' first if none of those carry a bot token yet.`,
	RunE: runBot,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runBot(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.GetLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := storage.Open(ctx, cfg.Storage, log)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer store.Close()

	// Both providers share one bucket so the bot as a whole stays under
	// the configured request rate.
	limiter := ratelimit.NewTokenBucket(cfg.RateLimit.RequestsPerMinute, time.Minute)

	providers := []fetcher.Provider{
		igapi.NewClient(cfg.Providers.Instagram, cfg.RateLimit.MaxRetries, limiter, log),
	}
	if cfg.Providers.X.APIKey != "" {
		providers = append(providers, xapi.NewClient(cfg.Providers.X, cfg.RateLimit.MaxRetries, limiter, log))
	} else {
		log.Warn("no X API key configured, X lookups will be unavailable")
	}

	orchestrator := fetcher.New(providers, store, fetcher.Options{
		FreshnessWindow: cfg.Cache.FreshnessWindow,
		PostLimit:       cfg.Cache.PostLimit,
		Logger:          log,
	})

	api, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		return fmt.Errorf("failed to connect to Telegram: %w", err)
	}

	dispatcher := dispatch.New(dispatch.DefaultQueueSize, dispatch.DefaultIdleAfter, log)
	b := bot.New(cfg, api, orchestrator, store, dispatcher, log)

	var debugSrv *httpserver.Server
	if cfg.HTTP.Enabled {
		debugSrv = httpserver.New(cfg.HTTP.Addr, store, log)
		go func() {
			if err := debugSrv.Start(); err != nil {
				log.ErrorWithFields("debug HTTP server stopped", map[string]interface{}{
					"error": err.Error(),
				})
			}
		}()
	}

	log.InfoWithFields("postwatch started", map[string]interface{}{
		"username":  api.Self.UserName,
		"storage":   cfg.Storage.Backend,
		"providers": len(providers),
	})

	runErr := b.Run(ctx)

	if debugSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := debugSrv.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("debug HTTP server shutdown failed")
		}
		cancel()
	}

	log.Info("postwatch stopped")
	return runErr
}

// loadConfig assembles configuration from every source, then fills any
// secrets still missing from the credential store before validating.
func loadConfig() (*config.Config, error) {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".postwatch.env"))

	cfg := config.DefaultConfig()
	if err := cfg.LoadFromFile(configFile); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}
	if err := cfg.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}
	cfg.MergeCommandLineFlags(map[string]interface{}{
		"log-level": logLevel,
		"no-color":  noColor,
	})

	fillCredentials(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// fillCredentials pulls stored credentials for any secret the other
// sources left empty. Store failures are not fatal here; validation
// reports a missing bot token with a clearer message than the store
// could.
func fillCredentials(cfg *config.Config) {
	if cfg.Telegram.Token != "" && cfg.Providers.X.APIKey != "" && cfg.Providers.Instagram.SessionID != "" {
		return
	}

	manager, err := auth.NewManager()
	if err != nil {
		return
	}
	creds, err := manager.RetrieveDefault()
	if err != nil {
		return
	}

	if cfg.Telegram.Token == "" {
		cfg.Telegram.Token = creds.BotToken
	}
	if cfg.Providers.X.APIKey == "" {
		cfg.Providers.X.APIKey = creds.XAPIKey
	}
	if cfg.Providers.Instagram.SessionID == "" {
		cfg.Providers.Instagram.SessionID = creds.IGSessionID
	}
	if cfg.Providers.Instagram.CSRFToken == "" {
		cfg.Providers.Instagram.CSRFToken = creds.IGCSRFToken
	}
	if creds.UserAgent != "" {
		cfg.Providers.Instagram.UserAgent = creds.UserAgent
	}
}
