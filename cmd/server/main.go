// Package main is the entry point for the restaurant guide server.
//
// The main package stays minimal. Its job is to:
// 1. Read configuration (environment, optionally a .env file)
// 2. Create the logger
// 3. Build and start the server
//
// All actual logic lives in imported packages (internal/server,
// internal/handler, ...).
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/sakif/restaurant-guide/internal/config"
	"github.com/sakif/restaurant-guide/internal/server"
)

func main() {
	// === 1. READ CONFIGURATION ===
	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// === 2. SET UP LOGGING ===
	// Text logs for humans in development, JSON for log shippers in
	// production. LOG_LEVEL takes debug, info, warn or error.
	logger := newLogger(cfg)
	slog.SetDefault(logger)

	if cfg.Auth.DevSecrets {
		logger.Warn("JWT secrets not set, using development secrets")
	}

	// === 3. CREATE AND START THE SERVER ===
	// Opening the store and probing Redis/RabbitMQ gets a bounded window;
	// the context is not used after startup.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	srv, err := server.New(ctx, cfg, logger)
	cancel()
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start() blocks until the server is shut down (via Ctrl+C or SIGTERM)
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	if cfg.IsProduction() {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
