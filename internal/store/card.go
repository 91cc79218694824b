package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/lexvault/lexvault/internal/domain"
)

// CardStore defines the interface for card data persistence.
type CardStore interface {
	// CreateMultiple saves multiple cards to the store, typically the full
	// fan-out of a new note.
	// IMPORTANT: This method MUST be run within a transaction for atomicity.
	// Use WithTx together with store.RunInTransaction so a note never ends
	// up with a partial card set.
	//
	// All cards must be valid according to domain validation rules.
	// Returns validation errors if any card data is invalid.
	CreateMultiple(ctx context.Context, cards []*domain.Card) error

	// GetByID retrieves a card by its unique ID.
	// Returns ErrCardNotFound if the card does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Card, error)

	// GetForUpdate retrieves a card with a row-level lock using SELECT FOR UPDATE.
	// Use it within a transaction when the card is about to be rescheduled,
	// so two concurrent ratings against the same card serialize instead of
	// clobbering each other.
	// Returns ErrCardNotFound if the card does not exist.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Card, error)

	// Update persists the full scheduling state of an existing card.
	// Returns ErrCardNotFound if the card does not exist.
	// Returns validation errors if the card data is invalid.
	Update(ctx context.Context, card *domain.Card) error

	// ListByDeck retrieves every card in the given deck. The study selector
	// works over this pool; ordering is unspecified because the selector
	// imposes its own priority.
	ListByDeck(ctx context.Context, deckID uuid.UUID) ([]*domain.Card, error)

	// ListByNote retrieves the cards fanned out from a single note.
	ListByNote(ctx context.Context, noteID uuid.UUID) ([]*domain.Card, error)

	// ListUpdatedSince retrieves cards in the deck whose UpdatedAt is strictly
	// after the given cursor, ordered by UpdatedAt ascending. Used by sync pulls.
	ListUpdatedSince(ctx context.Context, deckID uuid.UUID, since time.Time) ([]*domain.Card, error)

	// Delete removes a card from the store by its ID.
	// Returns ErrCardNotFound if the card does not exist.
	// Review events referencing the card are removed by the schema's
	// ON DELETE CASCADE constraints.
	Delete(ctx context.Context, id uuid.UUID) error

	// WithTx returns a new CardStore instance that uses the provided transaction.
	// This allows for multiple operations to be executed within a single transaction.
	// The transaction should be created and managed by the caller (typically a service).
	WithTx(tx *sql.Tx) CardStore
}
