package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/lexvault/lexvault/internal/domain"
)

// ReviewStore defines the interface for the append-only review event log.
// Events are never updated or deleted through this interface; the log is
// the source of truth card state is derived from.
type ReviewStore interface {
	// Append records a review event.
	// Returns ErrReviewEventExists if an event with the same ID has already
	// been recorded, so retried sync pushes stay idempotent.
	Append(ctx context.Context, event *domain.ReviewEvent) error

	// ListByCard retrieves every event for the card ordered by ReviewedAt
	// ascending. Replay consumes this ordering directly.
	ListByCard(ctx context.Context, cardID uuid.UUID) ([]*domain.ReviewEvent, error)

	// CountNewIntroducedBetween counts events in the deck whose QueueBefore
	// is the New queue and whose ReviewedAt falls in [from, to). The daily
	// throttle is this aggregate over the local calendar day; it never
	// consults card state.
	CountNewIntroducedBetween(ctx context.Context, deckID uuid.UUID, from, to time.Time) (int, error)

	// ListByDeckSince retrieves events in the deck recorded strictly after
	// the given cursor, ordered by ReviewedAt ascending. Used by sync pulls.
	ListByDeckSince(ctx context.Context, deckID uuid.UUID, since time.Time) ([]*domain.ReviewEvent, error)

	// WithTx returns a new ReviewStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) ReviewStore
}
