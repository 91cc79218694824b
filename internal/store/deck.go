package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/lexvault/lexvault/internal/domain"
)

// DeckStore defines the interface for deck data persistence. The scheduler
// reads decks mostly for their configuration; content-level deck CRUD is
// still exposed so clients can create and rename decks.
type DeckStore interface {
	// Create saves a new deck together with its configuration.
	// It handles domain validation internally.
	Create(ctx context.Context, deck *domain.Deck) error

	// GetByID retrieves a deck, including its scheduling configuration.
	// Returns ErrDeckNotFound if the deck does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Deck, error)

	// ListByOwner retrieves all decks owned by the given user.
	// Returns an empty slice if the user has no decks.
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Deck, error)

	// Update saves changes to an existing deck's name.
	// Returns ErrDeckNotFound if the deck does not exist.
	Update(ctx context.Context, deck *domain.Deck) error

	// UpdateConfig replaces the deck's scheduling configuration. The config
	// is validated before it is written; invalid configurations are rejected
	// with ErrInvalidEntity and never reach the scheduling function.
	UpdateConfig(ctx context.Context, deckID uuid.UUID, cfg *domain.DeckConfig) error

	// Delete removes a deck and, through cascade constraints, its notes,
	// cards, and review events.
	// Returns ErrDeckNotFound if the deck does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// WithTx returns a new DeckStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) DeckStore
}
