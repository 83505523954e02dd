// Package logger provides a structured logging interface for the bot.
//
// It wraps the zerolog library to provide a clean, easy-to-use API with support for:
// - Multiple log levels (Debug, Info, Warn, Error, Fatal)
// - Structured logging with fields
// - Pretty console output with colors
// - Optional JSON output and file output
// - Context support for request tracing
// - Global logger instance for easy access
//
// Basic Usage:
//
//	import "postwatch/pkg/logger"
//
//	// Initialize the global logger
//	cfg := &config.LoggingConfig{
//	    Level: "info",
//	}
//	err := logger.Initialize(cfg)
//
//	// Use the global logger
//	logger.Info("Bot started")
//	logger.WithField("handle", "nasa").Info("Fetching latest posts")
//	logger.WithError(err).Error("Provider call failed")
//
// Every inbound update gets its own correlation id attached as a field,
// so one update's fetch, sends and cleanup registrations share a trace:
//
//	log := logger.GetLogger().WithField("update_id", uuid.NewString())
package logger
