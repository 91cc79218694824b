package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/lexvault/lexvault/internal/domain"
	"github.com/lexvault/lexvault/internal/platform/logger"
	"github.com/lexvault/lexvault/internal/store"
)

const reviewColumns = `id, card_id, deck_id, session_id, rating, queue_before,
	time_spent_ms, user_answer, recording_ref, reviewed_at`

// PostgresReviewStore implements the store.ReviewStore interface
// using a PostgreSQL database as the storage backend. The review_events
// table is append-only; no update or delete statements exist here.
type PostgresReviewStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresReviewStore creates a new PostgreSQL implementation of the ReviewStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresReviewStore(db store.DBTX, logger *slog.Logger) *PostgresReviewStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresReviewStore{
		db:     db,
		logger: logger.With(slog.String("component", "review_store")),
	}
}

// Ensure PostgresReviewStore implements store.ReviewStore interface
var _ store.ReviewStore = (*PostgresReviewStore)(nil)

// Append implements store.ReviewStore.Append
// Returns store.ErrReviewEventExists when the event ID is already recorded,
// so retried sync pushes stay idempotent.
func (s *PostgresReviewStore) Append(ctx context.Context, event *domain.ReviewEvent) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := event.Validate(); err != nil {
		log.Warn("review event validation failed during append",
			slog.String("error", err.Error()),
			slog.String("event_id", event.ID.String()))
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO review_events (` + reviewColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := s.db.ExecContext(
		ctx,
		query,
		event.ID,
		event.CardID,
		event.DeckID,
		event.SessionID,
		event.Rating,
		event.QueueBefore,
		event.TimeSpentMs,
		event.UserAnswer,
		event.RecordingRef,
		event.ReviewedAt,
	)

	if err != nil {
		if IsUniqueViolation(err) {
			log.Debug("review event already recorded",
				slog.String("event_id", event.ID.String()))
			return fmt.Errorf("%w: %v", store.ErrReviewEventExists, err)
		}

		log.Error("failed to append review event",
			slog.String("error", err.Error()),
			slog.String("event_id", event.ID.String()),
			slog.String("card_id", event.CardID.String()))
		return MapError(err)
	}

	log.Debug("review event appended",
		slog.String("event_id", event.ID.String()),
		slog.String("card_id", event.CardID.String()),
		slog.String("rating", string(event.Rating)))
	return nil
}

// ListByCard implements store.ReviewStore.ListByCard
// Events come back ordered by reviewed_at ascending, the order replay consumes.
func (s *PostgresReviewStore) ListByCard(
	ctx context.Context,
	cardID uuid.UUID,
) ([]*domain.ReviewEvent, error) {
	query := `SELECT ` + reviewColumns + ` FROM review_events
		WHERE card_id = $1
		ORDER BY reviewed_at`
	return s.list(ctx, query, cardID)
}

// CountNewIntroducedBetween implements store.ReviewStore.CountNewIntroducedBetween
// The daily throttle is this pure aggregate; it never consults card state.
func (s *PostgresReviewStore) CountNewIntroducedBetween(
	ctx context.Context,
	deckID uuid.UUID,
	from, to time.Time,
) (int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT COUNT(*)
		FROM review_events
		WHERE deck_id = $1
		  AND queue_before = $2
		  AND reviewed_at >= $3
		  AND reviewed_at < $4
	`

	var count int
	err := s.db.QueryRowContext(ctx, query, deckID, domain.QueueNew, from, to).Scan(&count)
	if err != nil {
		log.Error("failed to count introduced cards",
			slog.String("error", err.Error()),
			slog.String("deck_id", deckID.String()))
		return 0, MapError(err)
	}

	return count, nil
}

// ListByDeckSince implements store.ReviewStore.ListByDeckSince
func (s *PostgresReviewStore) ListByDeckSince(
	ctx context.Context,
	deckID uuid.UUID,
	since time.Time,
) ([]*domain.ReviewEvent, error) {
	query := `SELECT ` + reviewColumns + ` FROM review_events
		WHERE deck_id = $1 AND reviewed_at > $2
		ORDER BY reviewed_at`
	return s.list(ctx, query, deckID, since)
}

func (s *PostgresReviewStore) list(
	ctx context.Context,
	query string,
	args ...any,
) ([]*domain.ReviewEvent, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to list review events", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	events := make([]*domain.ReviewEvent, 0)
	for rows.Next() {
		event, err := scanReviewEvent(rows)
		if err != nil {
			return nil, MapError(err)
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	return events, nil
}

// WithTx implements store.ReviewStore.WithTx
func (s *PostgresReviewStore) WithTx(tx *sql.Tx) store.ReviewStore {
	return &PostgresReviewStore{
		db:     tx,
		logger: s.logger,
	}
}

func scanReviewEvent(row rowScanner) (*domain.ReviewEvent, error) {
	var event domain.ReviewEvent
	var sessionID uuid.NullUUID
	var timeSpent sql.NullInt64
	var userAnswer, recordingRef sql.NullString

	err := row.Scan(
		&event.ID,
		&event.CardID,
		&event.DeckID,
		&sessionID,
		&event.Rating,
		&event.QueueBefore,
		&timeSpent,
		&userAnswer,
		&recordingRef,
		&event.ReviewedAt,
	)
	if err != nil {
		return nil, err
	}

	if sessionID.Valid {
		id := sessionID.UUID
		event.SessionID = &id
	}
	if timeSpent.Valid {
		v := int(timeSpent.Int64)
		event.TimeSpentMs = &v
	}
	if userAnswer.Valid {
		v := userAnswer.String
		event.UserAnswer = &v
	}
	if recordingRef.Valid {
		v := recordingRef.String
		event.RecordingRef = &v
	}

	return &event, nil
}
