package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/lexvault/lexvault/internal/domain"
)

// NoteStore defines the interface for note data persistence.
type NoteStore interface {
	// Create saves a new note to the store.
	// It handles domain validation internally. Card fan-out is a service
	// concern and happens in the same transaction via CardStore.
	Create(ctx context.Context, note *domain.Note) error

	// GetByID retrieves a note by its unique ID.
	// Returns ErrNoteNotFound if the note does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Note, error)

	// ListByDeck retrieves all notes in the given deck.
	ListByDeck(ctx context.Context, deckID uuid.UUID) ([]*domain.Note, error)

	// Update saves changes to an existing note's content fields.
	// Returns ErrNoteNotFound if the note does not exist.
	Update(ctx context.Context, note *domain.Note) error

	// Delete removes a note and, through cascade constraints, its cards.
	// Returns ErrNoteNotFound if the note does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// WithTx returns a new NoteStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) NoteStore
}
