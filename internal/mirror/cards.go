package mirror

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lexvault/lexvault/internal/domain"
	"github.com/lexvault/lexvault/internal/store"
)

const cardColumns = `id, note_id, deck_id, card_type, queue,
	ease_factor, interval_days, repetitions,
	stability, difficulty, lapses, learning_step,
	due_at, next_review_at, created_at, updated_at`

// noteStore is the sqlite implementation of store.NoteStore.
type noteStore struct {
	db store.DBTX
}

var _ store.NoteStore = (*noteStore)(nil)

func (s *noteStore) Create(ctx context.Context, note *domain.Note) error {
	if err := note.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notes (id, deck_id, term, meaning, reading, audio_ref, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, note.ID, note.DeckID, note.Term, note.Meaning, note.Reading, note.AudioRef,
		note.CreatedAt, note.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert note %s: %w", note.ID, err)
	}
	return nil
}

func (s *noteStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Note, error) {
	var note domain.Note
	err := s.db.QueryRowContext(ctx, `
		SELECT id, deck_id, term, meaning, reading, audio_ref, created_at, updated_at
		FROM notes WHERE id = ?
	`, id).Scan(
		&note.ID, &note.DeckID, &note.Term, &note.Meaning,
		&note.Reading, &note.AudioRef, &note.CreatedAt, &note.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, store.ErrNoteNotFound
		}
		return nil, fmt.Errorf("failed to find note %s: %w", id, err)
	}
	return &note, nil
}

func (s *noteStore) ListByDeck(ctx context.Context, deckID uuid.UUID) ([]*domain.Note, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, deck_id, term, meaning, reading, audio_ref, created_at, updated_at
		FROM notes WHERE deck_id = ? ORDER BY created_at
	`, deckID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	notes := make([]*domain.Note, 0)
	for rows.Next() {
		var note domain.Note
		err := rows.Scan(
			&note.ID, &note.DeckID, &note.Term, &note.Meaning,
			&note.Reading, &note.AudioRef, &note.CreatedAt, &note.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		notes = append(notes, &note)
	}
	return notes, rows.Err()
}

func (s *noteStore) Update(ctx context.Context, note *domain.Note) error {
	if err := note.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE notes SET term = ?, meaning = ?, reading = ?, audio_ref = ?, updated_at = ?
		WHERE id = ?
	`, note.Term, note.Meaning, note.Reading, note.AudioRef, time.Now().UTC(), note.ID)
	if err != nil {
		return fmt.Errorf("failed to update note %s: %w", note.ID, err)
	}
	return checkAffected(result, store.ErrNoteNotFound)
}

func (s *noteStore) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM notes WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete note %s: %w", id, err)
	}
	return checkAffected(result, store.ErrNoteNotFound)
}

func (s *noteStore) WithTx(tx *sql.Tx) store.NoteStore {
	return &noteStore{db: tx}
}

// UpsertNote writes a server-authoritative note row, replacing any local copy.
func (db *DB) UpsertNote(ctx context.Context, note *domain.Note) error {
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO notes (id, deck_id, term, meaning, reading, audio_ref, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			term = excluded.term,
			meaning = excluded.meaning,
			reading = excluded.reading,
			audio_ref = excluded.audio_ref,
			updated_at = excluded.updated_at
	`, note.ID, note.DeckID, note.Term, note.Meaning, note.Reading, note.AudioRef,
		note.CreatedAt, note.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert note %s: %w", note.ID, err)
	}
	return nil
}

// cardStore is the sqlite implementation of store.CardStore.
type cardStore struct {
	db store.DBTX
}

var _ store.CardStore = (*cardStore)(nil)

func (s *cardStore) CreateMultiple(ctx context.Context, cards []*domain.Card) error {
	for _, card := range cards {
		if err := card.Validate(); err != nil {
			return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
		}
	}

	for _, card := range cards {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO cards (`+cardColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, card.ID, card.NoteID, card.DeckID, card.Type, card.Queue,
			card.EaseFactor, card.IntervalDays, card.Repetitions,
			card.Stability, card.Difficulty, card.Lapses, card.LearningStep,
			card.DueAt, card.NextReviewAt, card.CreatedAt, card.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert card %s: %w", card.ID, err)
		}
	}
	return nil
}

func (s *cardStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Card, error) {
	card, err := scanCard(s.db.QueryRowContext(ctx,
		`SELECT `+cardColumns+` FROM cards WHERE id = ?`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, store.ErrCardNotFound
		}
		return nil, fmt.Errorf("failed to find card %s: %w", id, err)
	}
	return card, nil
}

// GetForUpdate is plain GetByID on sqlite: the single-connection pool
// already serializes writers.
func (s *cardStore) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Card, error) {
	return s.GetByID(ctx, id)
}

func (s *cardStore) Update(ctx context.Context, card *domain.Card) error {
	if err := card.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE cards
		SET queue = ?, ease_factor = ?, interval_days = ?, repetitions = ?,
			stability = ?, difficulty = ?, lapses = ?, learning_step = ?,
			due_at = ?, next_review_at = ?, updated_at = ?
		WHERE id = ?
	`, card.Queue, card.EaseFactor, card.IntervalDays, card.Repetitions,
		card.Stability, card.Difficulty, card.Lapses, card.LearningStep,
		card.DueAt, card.NextReviewAt, card.UpdatedAt, card.ID)
	if err != nil {
		return fmt.Errorf("failed to update card %s: %w", card.ID, err)
	}
	return checkAffected(result, store.ErrCardNotFound)
}

func (s *cardStore) ListByDeck(ctx context.Context, deckID uuid.UUID) ([]*domain.Card, error) {
	return s.list(ctx, `SELECT `+cardColumns+` FROM cards WHERE deck_id = ?`, deckID)
}

func (s *cardStore) ListByNote(ctx context.Context, noteID uuid.UUID) ([]*domain.Card, error) {
	return s.list(ctx, `SELECT `+cardColumns+` FROM cards WHERE note_id = ?`, noteID)
}

func (s *cardStore) ListUpdatedSince(
	ctx context.Context,
	deckID uuid.UUID,
	since time.Time,
) ([]*domain.Card, error) {
	return s.list(ctx, `SELECT `+cardColumns+` FROM cards
		WHERE deck_id = ? AND updated_at > ? ORDER BY updated_at`, deckID, since)
}

func (s *cardStore) list(ctx context.Context, query string, args ...any) ([]*domain.Card, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list cards: %w", err)
	}
	defer func() { _ = rows.Close() }()

	cards := make([]*domain.Card, 0)
	for rows.Next() {
		card, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		cards = append(cards, card)
	}
	return cards, rows.Err()
}

func (s *cardStore) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM cards WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete card %s: %w", id, err)
	}
	return checkAffected(result, store.ErrCardNotFound)
}

func (s *cardStore) WithTx(tx *sql.Tx) store.CardStore {
	return &cardStore{db: tx}
}

// HasPendingEvents reports whether the card has locally recorded review
// events not yet pushed. Pulls must not overwrite such cards; the server
// will send the reconciled state after the push lands.
func (db *DB) HasPendingEvents(ctx context.Context, cardID uuid.UUID) (bool, error) {
	var n int
	err := db.conn.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM review_events WHERE card_id = ? AND pending_sync = 1
	`, cardID).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to count pending events for card %s: %w", cardID, err)
	}
	return n > 0, nil
}

// ApplyServerCard writes a server-authoritative card row unless the card
// has pending local events. Returns true when the row was written.
func (db *DB) ApplyServerCard(ctx context.Context, card *domain.Card) (bool, error) {
	pending, err := db.HasPendingEvents(ctx, card.ID)
	if err != nil {
		return false, err
	}
	if pending {
		return false, nil
	}

	_, err = db.conn.ExecContext(ctx, `
		INSERT INTO cards (`+cardColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			queue = excluded.queue,
			ease_factor = excluded.ease_factor,
			interval_days = excluded.interval_days,
			repetitions = excluded.repetitions,
			stability = excluded.stability,
			difficulty = excluded.difficulty,
			lapses = excluded.lapses,
			learning_step = excluded.learning_step,
			due_at = excluded.due_at,
			next_review_at = excluded.next_review_at,
			updated_at = excluded.updated_at
	`, card.ID, card.NoteID, card.DeckID, card.Type, card.Queue,
		card.EaseFactor, card.IntervalDays, card.Repetitions,
		card.Stability, card.Difficulty, card.Lapses, card.LearningStep,
		card.DueAt, card.NextReviewAt, card.CreatedAt, card.UpdatedAt)
	if err != nil {
		return false, fmt.Errorf("failed to upsert card %s: %w", card.ID, err)
	}
	return true, nil
}

func scanCard(row rowScanner) (*domain.Card, error) {
	var card domain.Card
	var dueAt, nextReviewAt sql.NullTime

	err := row.Scan(
		&card.ID, &card.NoteID, &card.DeckID, &card.Type, &card.Queue,
		&card.EaseFactor, &card.IntervalDays, &card.Repetitions,
		&card.Stability, &card.Difficulty, &card.Lapses, &card.LearningStep,
		&dueAt, &nextReviewAt, &card.CreatedAt, &card.UpdatedAt,
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
