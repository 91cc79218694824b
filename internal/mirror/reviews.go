package mirror

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lexvault/lexvault/internal/domain"
	"github.com/lexvault/lexvault/internal/store"
)

const reviewColumns = `id, card_id, deck_id, session_id, rating, queue_before,
	time_spent_ms, user_answer, recording_ref, reviewed_at`

// reviewStore is the sqlite implementation of store.ReviewStore. Events
// appended through it are flagged pending_sync = 1; only the reconciler
// clears the flag after a successful push.
type reviewStore struct {
	db store.DBTX
}

var _ store.ReviewStore = (*reviewStore)(nil)

func (s *reviewStore) Append(ctx context.Context, event *domain.ReviewEvent) error {
	if err := event.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO review_events (`+reviewColumns+`, pending_sync)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1)
	`, event.ID, event.CardID, event.DeckID, event.SessionID,
		event.Rating, event.QueueBefore, event.TimeSpentMs,
		event.UserAnswer, event.RecordingRef, event.ReviewedAt)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("%w: %v", store.ErrReviewEventExists, err)
		}
		return fmt.Errorf("failed to append review event %s: %w", event.ID, err)
	}
	return nil
}

func (s *reviewStore) ListByCard(
	ctx context.Context,
	cardID uuid.UUID,
) ([]*domain.ReviewEvent, error) {
	return s.list(ctx, `SELECT `+reviewColumns+` FROM review_events
		WHERE card_id = ? ORDER BY reviewed_at`, cardID)
}

func (s *reviewStore) CountNewIntroducedBetween(
	ctx context.Context,
	deckID uuid.UUID,
	from, to time.Time,
) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM review_events
		WHERE deck_id = ? AND queue_before = ? AND reviewed_at >= ? AND reviewed_at < ?
	`, deckID, domain.QueueNew, from, to).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count introduced cards: %w", err)
	}
	return count, nil
}

func (s *reviewStore) ListByDeckSince(
	ctx context.Context,
	deckID uuid.UUID,
	since time.Time,
) ([]*domain.ReviewEvent, error) {
	return s.list(ctx, `SELECT `+reviewColumns+` FROM review_events
		WHERE deck_id = ? AND reviewed_at > ? ORDER BY reviewed_at`, deckID, since)
}

func (s *reviewStore) list(
	ctx context.Context,
	query string,
	args ...any,
) ([]*domain.ReviewEvent, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list review events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	events := make([]*domain.ReviewEvent, 0)
	for rows.Next() {
		event, err := scanReviewEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

func (s *reviewStore) WithTx(tx *sql.Tx) store.ReviewStore {
	return &reviewStore{db: tx}
}

// PendingReviewEvents returns locally recorded events not yet pushed,
// oldest first, capped at limit. Push order must follow reviewed_at order
// so the server replays them deterministically.
func (db *DB) PendingReviewEvents(ctx context.Context, limit int) ([]*domain.ReviewEvent, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT `+reviewColumns+` FROM review_events
		WHERE pending_sync = 1 ORDER BY reviewed_at LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	events := make([]*domain.ReviewEvent, 0)
	for rows.Next() {
		event, err := scanReviewEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

// MarkEventsSynced clears the pending flag on the given events after a
// successful push.
func (db *DB) MarkEventsSynced(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}

	placeholders := strings.Repeat("?, ", len(ids)-1) + "?"
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	_, err := db.conn.ExecContext(ctx, `
		UPDATE review_events SET pending_sync = 0 WHERE id IN (`+placeholders+`)
	`, args...)
	if err != nil {
		return fmt.Errorf("failed to mark events synced: %w", err)
	}
	return nil
}

// ApplyServerEvent records an event received from a pull as already synced.
// Duplicate IDs are ignored so overlapping pull windows stay harmless.
func (db *DB) ApplyServerEvent(ctx context.Context, event *domain.ReviewEvent) error {
	_, err := db.conn.ExecContext(ctx, `
		INSERT OR IGNORE INTO review_events (`+reviewColumns+`, pending_sync)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0)
	`, event.ID, event.CardID, event.DeckID, event.SessionID,
		event.Rating, event.QueueBefore, event.TimeSpentMs,
		event.UserAnswer, event.RecordingRef, event.ReviewedAt)
	if err != nil {
		return fmt.Errorf("failed to apply server event %s: %w", event.ID, err)
	}
	return nil
}

// PullCursor returns the reviewed-at/updated-at watermark of the last
// completed pull, or the zero time when no pull has happened yet.
func (db *DB) PullCursor(ctx context.Context) (time.Time, error) {
	var cursor sql.NullTime
	err := db.conn.QueryRowContext(ctx,
		`SELECT pull_cursor FROM sync_state WHERE id = 1`).Scan(&cursor)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to read pull cursor: %w", err)
	}
	if !cursor.Valid {
		return time.Time{}, nil
	}
	return cursor.Time, nil
}

// SetPullCursor advances the pull watermark after a completed pull.
func (db *DB) SetPullCursor(ctx context.Context, cursor time.Time) error {
	_, err := db.conn.ExecContext(ctx,
		`UPDATE sync_state SET pull_cursor = ? WHERE id = 1`, cursor)
	if err != nil {
		return fmt.Errorf("failed to set pull cursor: %w", err)
	}
	return nil
}

// SetLastPushAt records when the last successful push completed.
func (db *DB) SetLastPushAt(ctx context.Context, at time.Time) error {
	_, err := db.conn.ExecContext(ctx,
		`UPDATE sync_state SET last_push_at = ? WHERE id = 1`, at)
	if err != nil {
		return fmt.Errorf("failed to set last push time: %w", err)
	}
	return nil
}

func scanReviewEvent(row rowScanner) (*domain.ReviewEvent, error) {
	var event domain.ReviewEvent
	var sessionID uuid.NullUUID
	var timeSpent sql.NullInt64
	var userAnswer, recordingRef sql.NullString

	err := row.Scan(
		&event.ID, &event.CardID, &event.DeckID, &sessionID,
		&event.Rating, &event.QueueBefore, &timeSpent,
		&userAnswer, &recordingRef, &event.ReviewedAt,
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
