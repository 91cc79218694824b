package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/lexvault/lexvault/internal/domain"
	"github.com/lexvault/lexvault/internal/platform/logger"
	"github.com/lexvault/lexvault/internal/store"
)

// PostgresNoteStore implements the store.NoteStore interface
// using a PostgreSQL database as the storage backend.
type PostgresNoteStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresNoteStore creates a new PostgreSQL implementation of the NoteStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresNoteStore(db store.DBTX, logger *slog.Logger) *PostgresNoteStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresNoteStore{
		db:     db,
		logger: logger.With(slog.String("component", "note_store")),
	}
}

// Ensure PostgresNoteStore implements store.NoteStore interface
var _ store.NoteStore = (*PostgresNoteStore)(nil)

// Create implements store.NoteStore.Create
// Returns store.ErrInvalidEntity if the deck doesn't exist (foreign key violation).
func (s *PostgresNoteStore) Create(ctx context.Context, note *domain.Note) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := note.Validate(); err != nil {
		log.Warn("note validation failed during create",
			slog.String("error", err.Error()),
			slog.String("note_id", note.ID.String()))
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO notes (id, deck_id, term, meaning, reading, audio_ref, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		note.ID,
		note.DeckID,
		note.Term,
		note.Meaning,
		note.Reading,
		note.AudioRef,
		note.CreatedAt,
		note.UpdatedAt,
	)

	if err != nil {
		if IsForeignKeyViolation(err) {
			log.Warn("foreign key violation during note creation",
				slog.String("error", err.Error()),
				slog.String("note_id", note.ID.String()),
				slog.String("deck_id", note.DeckID.String()))
			return fmt.Errorf("%w: deck with ID %s not found",
				store.ErrInvalidEntity, note.DeckID)
		}

		log.Error("failed to create note",
			slog.String("error", err.Error()),
			slog.String("note_id", note.ID.String()))
		return MapError(err)
	}

	log.Info("note created successfully",
		slog.String("note_id", note.ID.String()),
		slog.String("deck_id", note.DeckID.String()))
	return nil
}

// GetByID implements store.NoteStore.GetByID
// Returns store.ErrNoteNotFound if the note does not exist.
func (s *PostgresNoteStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Note, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, deck_id, term, meaning, reading, audio_ref, created_at, updated_at
		FROM notes
		WHERE id = $1
	`

	var note domain.Note
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&note.ID,
		&note.DeckID,
		&note.Term,
		&note.Meaning,
		&note.Reading,
		&note.AudioRef,
		&note.CreatedAt,
		&note.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("note not found", slog.String("note_id", id.String()))
			return nil, store.ErrNoteNotFound
		}
		log.Error("failed to get note",
			slog.String("error", err.Error()),
			slog.String("note_id", id.String()))
		return nil, MapError(err)
	}

	return &note, nil
}

// ListByDeck implements store.NoteStore.ListByDeck
func (s *PostgresNoteStore) ListByDeck(
	ctx context.Context,
	deckID uuid.UUID,
) ([]*domain.Note, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, deck_id, term, meaning, reading, audio_ref, created_at, updated_at
		FROM notes
		WHERE deck_id = $1
		ORDER BY created_at
	`

	rows, err := s.db.QueryContext(ctx, query, deckID)
	if err != nil {
		log.Error("failed to list notes",
			slog.String("error", err.Error()),
			slog.String("deck_id", deckID.String()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	notes := make([]*domain.Note, 0)
	for rows.Next() {
		var note domain.Note
		err := rows.Scan(
			&note.ID,
			&note.DeckID,
			&note.Term,
			&note.Meaning,
			&note.Reading,
			&note.AudioRef,
			&note.CreatedAt,
			&note.UpdatedAt,
		)
		if err != nil {
			return nil, MapError(err)
		}
		notes = append(notes, &note)
	}

	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}

	return notes, nil
}

// Update implements store.NoteStore.Update
// Returns store.ErrNoteNotFound if the note does not exist.
func (s *PostgresNoteStore) Update(ctx context.Context, note *domain.Note) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := note.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		UPDATE notes
		SET term = $2, meaning = $3, reading = $4, audio_ref = $5, updated_at = NOW()
		WHERE id = $1
	`

	result, err := s.db.ExecContext(
		ctx,
		query,
		note.ID,
		note.Term,
		note.Meaning,
		note.Reading,
		note.AudioRef,
	)
	if err != nil {
		log.Error("failed to update note",
			slog.String("error", err.Error()),
			slog.String("note_id", note.ID.String()))
		return MapError(err)
	}

	return CheckRowsAffected(result, "note")
}

// Delete implements store.NoteStore.Delete
// The note's cards are removed by cascade.
func (s *PostgresNoteStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM notes WHERE id = $1`, id)
	if err != nil {
		log.Error("failed to delete note",
			slog.String("error", err.Error()),
			slog.String("note_id", id.String()))
		return MapError(err)
	}

	return CheckRowsAffected(result, "note")
}

// WithTx implements store.NoteStore.WithTx
func (s *PostgresNoteStore) WithTx(tx *sql.Tx) store.NoteStore {
	return &PostgresNoteStore{
		db:     tx,
		logger: s.logger,
	}
}
