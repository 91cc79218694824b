// Package main implements the entry point for the lexvault scheduling
// server: the authoritative store for decks, cards, and review events,
// and the endpoint offline clients sync against.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/lexvault/lexvault/internal/config"
	"github.com/lexvault/lexvault/internal/platform/logger"
)

func main() {
	migrateOnly := pflag.Bool("migrate-only", false, "run database migrations and exit")
	pflag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger, err := logger.Setup(cfg.Server)
	if err != nil {
		log.Fatalf("Failed to set up logger: %v", err)
	}

	appLogger.Info("server configuration loaded",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Server.LogLevel))

	if err := run(cfg, appLogger, *migrateOnly); err != nil {
		appLogger.Error("server exited with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(cfg *config.Config, appLogger *slog.Logger, migrateOnly bool) error {
	app, err := newApplication(cfg, appLogger)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer app.cleanup()

	if migrateOnly {
		appLogger.Info("migrations complete, exiting")
		return nil
	}

	return app.startHTTPServer(context.Background(), app.setupRouter())
}
