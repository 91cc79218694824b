package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/lexvault/lexvault/internal/config"
	"github.com/lexvault/lexvault/internal/domain/srs"
	"github.com/lexvault/lexvault/internal/platform/postgres"
	"github.com/lexvault/lexvault/internal/service/auth"
	"github.com/lexvault/lexvault/internal/service/study"
	"github.com/lexvault/lexvault/internal/store"
)

// application holds the wired dependencies of the server process.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	deckStore   store.DeckStore
	noteStore   store.NoteStore
	cardStore   store.CardStore
	reviewStore store.ReviewStore

	studyService  study.StudyService
	tokenVerifier auth.TokenVerifier
}

// newApplication connects to the database, runs migrations, and wires
// the stores and services.
func newApplication(cfg *config.Config, log *slog.Logger) (*application, error) {
	db, err := setupDatabase(cfg, log)
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	if err := postgres.MigrateUp(ctx, db, log); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	deckStore := postgres.NewPostgresDeckStore(db, log)
	noteStore := postgres.NewPostgresNoteStore(db, log)
	cardStore := postgres.NewPostgresCardStore(db, log)
	reviewStore := postgres.NewPostgresReviewStore(db, log)

	studyService := study.NewStudyService(
		study.NewDeckRepositoryAdapter(deckStore),
		study.NewCardRepositoryAdapter(cardStore, db),
		study.NewNoteRepositoryAdapter(noteStore),
		study.NewReviewRepositoryAdapter(reviewStore),
		srs.NewService(),
		log,
	)

	tokenVerifier, err := auth.NewTokenVerifier(cfg.Auth)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create token verifier: %w", err)
	}

	return &application{
		config:        cfg,
		logger:        log,
		db:            db,
		deckStore:     deckStore,
		noteStore:     noteStore,
		cardStore:     cardStore,
		reviewStore:   reviewStore,
		studyService:  studyService,
		tokenVerifier: tokenVerifier,
	}, nil
}

// cleanup releases process-wide resources.
func (app *application) cleanup() {
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("failed to close database", slog.String("error", err.Error()))
		}
	}
}
