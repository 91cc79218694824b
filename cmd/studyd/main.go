// Package main implements studyd, the offline study client. It runs
// entirely against a local sqlite mirror; reviews recorded offline are
// pushed to the server by a background reconciler whenever connectivity
// allows.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/pflag"

	"github.com/lexvault/lexvault/internal/config"
	"github.com/lexvault/lexvault/internal/domain/srs"
	"github.com/lexvault/lexvault/internal/mirror"
	"github.com/lexvault/lexvault/internal/platform/logger"
	"github.com/lexvault/lexvault/internal/service/study"
	syncpkg "github.com/lexvault/lexvault/internal/sync"
)

func main() {
	deckFlag := pflag.String("deck", "", "deck ID to study (required)")
	mirrorFlag := pflag.String("mirror", "", "path to the mirror database (overrides config)")
	ignoreLimit := pflag.Bool("ignore-daily-limit", false, "study new cards past the daily cap")
	noSync := pflag.Bool("no-sync", false, "skip background sync even if a server is configured")
	pflag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger, err := logger.Setup(cfg.Server)
	if err != nil {
		log.Fatalf("Failed to set up logger: %v", err)
	}

	deckID, err := uuid.Parse(*deckFlag)
	if err != nil {
		fmt.Fprintln(os.Stderr, "studyd: --deck must be a valid deck ID")
		os.Exit(2)
	}

	mirrorPath := cfg.Mirror.Path
	if *mirrorFlag != "" {
		mirrorPath = *mirrorFlag
	}
	if mirrorPath == "" {
		fmt.Fprintln(os.Stderr, "studyd: no mirror path configured")
		os.Exit(2)
	}

	if err := run(cfg, appLogger, deckID, mirrorPath, *ignoreLimit, *noSync); err != nil {
		appLogger.Error("studyd exited with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(
	cfg *config.Config,
	appLogger *slog.Logger,
	deckID uuid.UUID,
	mirrorPath string,
	ignoreLimit bool,
	noSync bool,
) error {
	db, err := mirror.Open(mirrorPath)
	if err != nil {
		return fmt.Errorf("failed to open mirror: %w", err)
	}
	defer func() { _ = db.Close() }()

	studyService := study.NewStudyService(
		study.NewDeckRepositoryAdapter(db.Decks()),
		study.NewCardRepositoryAdapter(db.Cards(), db.Conn()),
		study.NewNoteRepositoryAdapter(db.Notes()),
		study.NewReviewRepositoryAdapter(db.Reviews()),
		srs.NewService(),
		appLogger,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Sync.ServerURL != "" && !noSync {
		client := syncpkg.NewHTTPClient(cfg.Sync)
		reconciler := syncpkg.NewReconciler(db, client, cfg.Sync, appLogger)

		// One synchronous cycle first so the session starts from the
		// freshest server state reachable right now.
		if err := reconciler.SyncOnce(ctx); err != nil {
			appLogger.Warn("initial sync failed, studying offline",
				slog.String("error", err.Error()))
		}
		go reconciler.Run(ctx)
	}

	session := newStudySession(studyService, deckID, ignoreLimit, os.Stdin, os.Stdout)
	return session.run(ctx)
}
