package study

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/lexvault/lexvault/internal/domain"
	"github.com/lexvault/lexvault/internal/store"
)

// DeckRepository provides the deck reads the study service needs.
type DeckRepository interface {
	// GetByID retrieves a deck including its scheduling configuration.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Deck, error)
}

// CardRepository provides card access with transaction support.
type CardRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Card, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Card, error)
	Update(ctx context.Context, card *domain.Card) error
	ListByDeck(ctx context.Context, deckID uuid.UUID) ([]*domain.Card, error)

	// WithTx returns a new repository instance that uses the provided transaction.
	WithTx(tx *sql.Tx) CardRepository

	// DB returns the underlying database connection.
	DB() *sql.DB
}

// NoteRepository provides the note reads needed to build study prompts.
type NoteRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Note, error)
}

// ReviewRepository provides event-log access with transaction support.
type ReviewRepository interface {
	Append(ctx context.Context, event *domain.ReviewEvent) error
	ListByCard(ctx context.Context, cardID uuid.UUID) ([]*domain.ReviewEvent, error)
	CountNewIntroducedBetween(ctx context.Context, deckID uuid.UUID, from, to time.Time) (int, error)

	// WithTx returns a new repository instance that uses the provided transaction.
	WithTx(tx *sql.Tx) ReviewRepository
}

// NewCardRepositoryAdapter adapts a store.CardStore to the CardRepository
// interface, carrying the connection for transaction management.
func NewCardRepositoryAdapter(cardStore store.CardStore, db *sql.DB) CardRepository {
	return &cardRepositoryAdapter{cardStore: cardStore, db: db}
}

type cardRepositoryAdapter struct {
	cardStore store.CardStore
	db        *sql.DB
}

func (a *cardRepositoryAdapter) GetByID(ctx context.Context, id uuid.UUID) (*domain.Card, error) {
	return a.cardStore.GetByID(ctx, id)
}

func (a *cardRepositoryAdapter) GetForUpdate(
	ctx context.Context,
	id uuid.UUID,
) (*domain.Card, error) {
	return a.cardStore.GetForUpdate(ctx, id)
}

func (a *cardRepositoryAdapter) Update(ctx context.Context, card *domain.Card) error {
	return a.cardStore.Update(ctx, card)
}

func (a *cardRepositoryAdapter) ListByDeck(
	ctx context.Context,
	deckID uuid.UUID,
) ([]*domain.Card, error) {
	return a.cardStore.ListByDeck(ctx, deckID)
}

func (a *cardRepositoryAdapter) WithTx(tx *sql.Tx) CardRepository {
	return &cardRepositoryAdapter{cardStore: a.cardStore.WithTx(tx), db: a.db}
}

func (a *cardRepositoryAdapter) DB() *sql.DB {
	return a.db
}

// NewDeckRepositoryAdapter adapts a store.DeckStore to the DeckRepository interface.
func NewDeckRepositoryAdapter(deckStore store.DeckStore) DeckRepository {
	return &deckRepositoryAdapter{deckStore: deckStore}
}

type deckRepositoryAdapter struct {
	deckStore store.DeckStore
}

func (a *deckRepositoryAdapter) GetByID(ctx context.Context, id uuid.UUID) (*domain.Deck, error) {
	return a.deckStore.GetByID(ctx, id)
}

// NewNoteRepositoryAdapter adapts a store.NoteStore to the NoteRepository interface.
func NewNoteRepositoryAdapter(noteStore store.NoteStore) NoteRepository {
	return &noteRepositoryAdapter{noteStore: noteStore}
}

type noteRepositoryAdapter struct {
	noteStore store.NoteStore
}

func (a *noteRepositoryAdapter) GetByID(ctx context.Context, id uuid.UUID) (*domain.Note, error) {
	return a.noteStore.GetByID(ctx, id)
}

// NewReviewRepositoryAdapter adapts a store.ReviewStore to the ReviewRepository interface.
func NewReviewRepositoryAdapter(reviewStore store.ReviewStore) ReviewRepository {
	return &reviewRepositoryAdapter{reviewStore: reviewStore}
}

type reviewRepositoryAdapter struct {
	reviewStore store.ReviewStore
}

func (a *reviewRepositoryAdapter) Append(ctx context.Context, event *domain.ReviewEvent) error {
	return a.reviewStore.Append(ctx, event)
}

func (a *reviewRepositoryAdapter) ListByCard(
	ctx context.Context,
	cardID uuid.UUID,
) ([]*domain.ReviewEvent, error) {
	return a.reviewStore.ListByCard(ctx, cardID)
}

func (a *reviewRepositoryAdapter) CountNewIntroducedBetween(
	ctx context.Context,
	deckID uuid.UUID,
	from, to time.Time,
) (int, error) {
	return a.reviewStore.CountNewIntroducedBetween(ctx, deckID, from, to)
}

func (a *reviewRepositoryAdapter) WithTx(tx *sql.Tx) ReviewRepository {
	return &reviewRepositoryAdapter{reviewStore: a.reviewStore.WithTx(tx)}
}
