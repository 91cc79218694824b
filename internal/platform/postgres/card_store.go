package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/lexvault/lexvault/internal/domain"
	"github.com/lexvault/lexvault/internal/platform/logger"
	"github.com/lexvault/lexvault/internal/store"
)

// cardColumns is the canonical column list shared by every card query.
const cardColumns = `id, note_id, deck_id, card_type, queue,
	ease_factor, interval_days, repetitions,
	stability, difficulty, lapses, learning_step,
	due_at, next_review_at, created_at, updated_at`

// PostgresCardStore implements the store.CardStore interface
// using a PostgreSQL database as the storage backend.
type PostgresCardStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresCardStore creates a new PostgreSQL implementation of the CardStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresCardStore(db store.DBTX, logger *slog.Logger) *PostgresCardStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresCardStore{
		db:     db,
		logger: logger.With(slog.String("component", "card_store")),
	}
}

// Ensure PostgresCardStore implements store.CardStore interface
var _ store.CardStore = (*PostgresCardStore)(nil)

// CreateMultiple implements store.CardStore.CreateMultiple
// It saves the full fan-out of a note. Run it within a transaction via
// WithTx so a note never ends up with a partial card set.
func (s *PostgresCardStore) CreateMultiple(ctx context.Context, cards []*domain.Card) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	for _, card := range cards {
		if err := card.Validate(); err != nil {
			log.Warn("card validation failed during create",
				slog.String("error", err.Error()),
				slog.String("card_id", card.ID.String()))
			return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
		}
	}

	query := `
		INSERT INTO cards (` + cardColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	for _, card := range cards {
		_, err := s.db.ExecContext(
			ctx,
			query,
			card.ID,
			card.NoteID,
			card.DeckID,
			card.Type,
			card.Queue,
			card.EaseFactor,
			card.IntervalDays,
			card.Repetitions,
			card.Stability,
			card.Difficulty,
			card.Lapses,
			card.LearningStep,
			card.DueAt,
			card.NextReviewAt,
			card.CreatedAt,
			card.UpdatedAt,
		)
		if err != nil {
			log.Error("failed to create card",
				slog.String("error", err.Error()),
				slog.String("card_id", card.ID.String()),
				slog.String("note_id", card.NoteID.String()))
			return MapError(err)
		}
	}

	log.Info("cards created successfully",
		slog.Int("count", len(cards)))
	return nil
}

// GetByID implements store.CardStore.GetByID
// Returns store.ErrCardNotFound if the card does not exist.
func (s *PostgresCardStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM cards WHERE id = $1`
	return s.getOne(ctx, query, id)
}

// GetForUpdate implements store.CardStore.GetForUpdate
// It acquires a row-level lock so concurrent ratings against the same
// card serialize. Must run inside a transaction.
func (s *PostgresCardStore) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM cards WHERE id = $1 FOR UPDATE`
	return s.getOne(ctx, query, id)
}

func (s *PostgresCardStore) getOne(
	ctx context.Context,
	query string,
	id uuid.UUID,
) (*domain.Card, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	card, err := scanCard(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("card not found", slog.String("card_id", id.String()))
			return nil, store.ErrCardNotFound
		}
		log.Error("failed to get card",
			slog.String("error", err.Error()),
			slog.String("card_id", id.String()))
		return nil, MapError(err)
	}

	return card, nil
}

// Update implements store.CardStore.Update
// It persists the full scheduling state of the card.
// Returns store.ErrCardNotFound if the card does not exist.
func (s *PostgresCardStore) Update(ctx context.Context, card *domain.Card) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := card.Validate(); err != nil {
		log.Warn("card validation failed during update",
			slog.String("error", err.Error()),
			slog.String("card_id", card.ID.String()))
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		UPDATE cards
		SET queue = $2,
			ease_factor = $3,
			interval_days = $4,
			repetitions = $5,
			stability = $6,
			difficulty = $7,
			lapses = $8,
			learning_step = $9,
			due_at = $10,
			next_review_at = $11,
			updated_at = $12
		WHERE id = $1
	`

	result, err := s.db.ExecContext(
		ctx,
		query,
		card.ID,
		card.Queue,
		card.EaseFactor,
		card.IntervalDays,
		card.Repetitions,
		card.Stability,
		card.Difficulty,
		card.Lapses,
		card.LearningStep,
		card.DueAt,
		card.NextReviewAt,
		card.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to update card",
			slog.String("error", err.Error()),
			slog.String("card_id", card.ID.String()))
		return MapError(err)
	}

	return CheckRowsAffected(result, "card")
}

// ListByDeck implements store.CardStore.ListByDeck
func (s *PostgresCardStore) ListByDeck(
	ctx context.Context,
	deckID uuid.UUID,
) ([]*domain.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM cards WHERE deck_id = $1`
	return s.list(ctx, query, deckID)
}

// ListByNote implements store.CardStore.ListByNote
func (s *PostgresCardStore) ListByNote(
	ctx context.Context,
	noteID uuid.UUID,
) ([]*domain.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM cards WHERE note_id = $1`
	return s.list(ctx, query, noteID)
}

// ListUpdatedSince implements store.CardStore.ListUpdatedSince
// Results are ordered by updated_at so sync pulls can advance their
// cursor monotonically.
func (s *PostgresCardStore) ListUpdatedSince(
	ctx context.Context,
	deckID uuid.UUID,
	since time.Time,
) ([]*domain.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM cards
		WHERE deck_id = $1 AND updated_at > $2
		ORDER BY updated_at`
	return s.list(ctx, query, deckID, since)
}

func (s *PostgresCardStore) list(
	ctx context.Context,
	query string,
	args ...any,
) ([]*domain.Card, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to list cards", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	cards := make([]*domain.Card, 0)
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, MapError(err)
		}
		cards = append(cards, card)
	}

	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	return cards, nil
}

// Delete implements store.CardStore.Delete
// Review events referencing the card are removed by cascade.
func (s *PostgresCardStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM cards WHERE id = $1`, id)
	if err != nil {
		log.Error("failed to delete card",
			slog.String("error", err.Error()),
			slog.String("card_id", id.String()))
		return MapError(err)
	}

	return CheckRowsAffected(result, "card")
}

// WithTx implements store.CardStore.WithTx
func (s *PostgresCardStore) WithTx(tx *sql.Tx) store.CardStore {
	return &PostgresCardStore{
		db:     tx,
		logger: s.logger,
	}
}

func scanCard(row rowScanner) (*domain.Card, error) {
	var card domain.Card
	var dueAt, nextReviewAt sql.NullTime

	err := row.Scan(
		&card.ID,
		&card.NoteID,
		&card.DeckID,
		&card.Type,
		&card.Queue,
		&card.EaseFactor,
		&card.IntervalDays,
		&card.Repetitions,
		&card.Stability,
		&card.Difficulty,
		&card.Lapses,
		&card.LearningStep,
		&dueAt,
		&nextReviewAt,
		&card.CreatedAt,
		&card.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if dueAt.Valid {
		t := dueAt.Time
		card.DueAt = &t
	}
	if nextReviewAt.Valid {
		t := nextReviewAt.Time
		card.NextReviewAt = &t
	}

	return &card, nil
}
