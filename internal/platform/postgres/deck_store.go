package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/lexvault/lexvault/internal/domain"
	"github.com/lexvault/lexvault/internal/platform/logger"
	"github.com/lexvault/lexvault/internal/store"
)

// PostgresDeckStore implements the store.DeckStore interface
// using a PostgreSQL database as the storage backend.
type PostgresDeckStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresDeckStore creates a new PostgreSQL implementation of the DeckStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresDeckStore(db store.DBTX, logger *slog.Logger) *PostgresDeckStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresDeckStore{
		db:     db,
		logger: logger.With(slog.String("component", "deck_store")),
	}
}

// Ensure PostgresDeckStore implements store.DeckStore interface
var _ store.DeckStore = (*PostgresDeckStore)(nil)

// Create implements store.DeckStore.Create
// It saves a new deck and its scheduling configuration as a JSONB document.
func (s *PostgresDeckStore) Create(ctx context.Context, deck *domain.Deck) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := deck.Validate(); err != nil {
		log.Warn("deck validation failed during create",
			slog.String("error", err.Error()),
			slog.String("deck_id", deck.ID.String()))
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	configJSON, err := json.Marshal(deck.Config)
	if err != nil {
		return fmt.Errorf("failed to marshal deck config: %w", err)
	}

	query := `
		INSERT INTO decks (id, owner_id, name, config, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = s.db.ExecContext(
		ctx,
		query,
		deck.ID,
		deck.OwnerID,
		deck.Name,
		configJSON,
		deck.CreatedAt,
		deck.UpdatedAt,
	)

	if err != nil {
		log.Error("failed to create deck",
			slog.String("error", err.Error()),
			slog.String("deck_id", deck.ID.String()))
		return MapError(err)
	}

	log.Info("deck created successfully",
		slog.String("deck_id", deck.ID.String()),
		slog.String("owner_id", deck.OwnerID.String()))
	return nil
}

// GetByID implements store.DeckStore.GetByID
// Returns store.ErrDeckNotFound if the deck does not exist.
func (s *PostgresDeckStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Deck, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, owner_id, name, config, created_at, updated_at
		FROM decks
		WHERE id = $1
	`

	deck, err := scanDeck(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("deck not found", slog.String("deck_id", id.String()))
			return nil, store.ErrDeckNotFound
		}
		log.Error("failed to get deck",
			slog.String("error", err.Error()),
			slog.String("deck_id", id.String()))
		return nil, MapError(err)
	}

	return deck, nil
}

// ListByOwner implements store.DeckStore.ListByOwner
func (s *PostgresDeckStore) ListByOwner(
	ctx context.Context,
	ownerID uuid.UUID,
) ([]*domain.Deck, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, owner_id, name, config, created_at, updated_at
		FROM decks
		WHERE owner_id = $1
		ORDER BY created_at
	`

	rows, err := s.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		log.Error("failed to list decks",
			slog.String("error", err.Error()),
			slog.String("owner_id", ownerID.String()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	decks := make([]*domain.Deck, 0)
	for rows.Next() {
		deck, err := scanDeck(rows)
		if err != nil {
			return nil, MapError(err)
		}
		decks = append(decks, deck)
	}

	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	return decks, nil
}

// Update implements store.DeckStore.Update
// Only the deck's name is updatable; configuration changes go through
// UpdateConfig so they hit write-time validation.
func (s *PostgresDeckStore) Update(ctx context.Context, deck *domain.Deck) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := deck.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		UPDATE decks
		SET name = $2, updated_at = NOW()
		WHERE id = $1
	`

	result, err := s.db.ExecContext(ctx, query, deck.ID, deck.Name)
	if err != nil {
		log.Error("failed to update deck",
			slog.String("error", err.Error()),
			slog.String("deck_id", deck.ID.String()))
		return MapError(err)
	}

	return CheckRowsAffected(result, "deck")
}

// UpdateConfig implements store.DeckStore.UpdateConfig
// The configuration is validated before it is written so an invalid
// config never reaches the scheduling function.
func (s *PostgresDeckStore) UpdateConfig(
	ctx context.Context,
	deckID uuid.UUID,
	cfg *domain.DeckConfig,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if cfg == nil {
		return fmt.Errorf("%w: nil deck config", store.ErrInvalidEntity)
	}
	if err := cfg.Validate(); err != nil {
		log.Warn("deck config rejected at write time",
			slog.String("error", err.Error()),
			slog.String("deck_id", deckID.String()))
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	configJSON, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal deck config: %w", err)
	}

	query := `
		UPDATE decks
		SET config = $2, updated_at = NOW()
		WHERE id = $1
	`

	result, err := s.db.ExecContext(ctx, query, deckID, configJSON)
	if err != nil {
		log.Error("failed to update deck config",
			slog.String("error", err.Error()),
			slog.String("deck_id", deckID.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "deck"); err != nil {
		return err
	}

	log.Info("deck config updated",
		slog.String("deck_id", deckID.String()),
		slog.String("model", string(cfg.Model)))
	return nil
}

// Delete implements store.DeckStore.Delete
// Notes, cards, and review events in the deck are removed by cascade.
func (s *PostgresDeckStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM decks WHERE id = $1`, id)
	if err != nil {
		log.Error("failed to delete deck",
			slog.String("error", err.Error()),
			slog.String("deck_id", id.String()))
		return MapError(err)
	}

	return CheckRowsAffected(result, "deck")
}

// WithTx implements store.DeckStore.WithTx
func (s *PostgresDeckStore) WithTx(tx *sql.Tx) store.DeckStore {
	return &PostgresDeckStore{
		db:     tx,
		logger: s.logger,
	}
}

// rowScanner abstracts *sql.Row and *sql.Rows for shared scan helpers.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanDeck(row rowScanner) (*domain.Deck, error) {
	var deck domain.Deck
	var configJSON []byte

	err := row.Scan(
		&deck.ID,
		&deck.OwnerID,
		&deck.Name,
		&configJSON,
		&deck.CreatedAt,
		&deck.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	cfg := &domain.DeckConfig{}
	if err := json.Unmarshal(configJSON, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal deck config: %w", err)
	}
	deck.Config = cfg

	return &deck, nil
}
