// Package study implements the scheduling service the API server and the
// offline client share. It runs on any backend that satisfies the
// repository interfaces, which is what lets the same code path serve HTTP
// requests against Postgres and local study sessions against the sqlite
// mirror.
package study

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lexvault/lexvault/internal/domain"
	"github.com/lexvault/lexvault/internal/domain/srs"
)

// Common error types for StudyService
var (
	// ErrNoCardsDue indicates that nothing in the deck is currently studyable.
	ErrNoCardsDue = errors.New("no cards due for review")

	// ErrCardNotFound indicates that the card does not exist.
	ErrCardNotFound = errors.New("card not found")

	// ErrDeckNotFound indicates that the deck does not exist.
	ErrDeckNotFound = errors.New("deck not found")

	// ErrInvalidRating indicates an unrecognized rating was submitted.
	ErrInvalidRating = errors.New("invalid rating")
)

// NextCardOptions parameterize a GetNextCard call.
type NextCardOptions struct {
	// ExcludedNoteIDs keeps sibling cards of recently shown notes out of
	// the selection.
	ExcludedNoteIDs []uuid.UUID

	// IgnoreDailyLimit bypasses the new-card throttle. Always opt-in.
	IgnoreDailyLimit bool
}

// NextCard is the full study prompt for one card: the card itself, its
// note content, the would-be outcome of each rating, and queue counts.
type NextCard struct {
	Card     *domain.Card          `json:"card"`
	Note     *domain.Note          `json:"note"`
	Counts   srs.Counts            `json:"counts"`
	Previews []srs.IntervalPreview `json:"interval_previews"`
}

// ReviewSubmission carries a rating and its optional session metadata.
// The scheduler never interprets the metadata; it is persisted on the
// event and pushed through sync untouched.
type ReviewSubmission struct {
	Rating       domain.Rating `json:"rating"`
	SessionID    *uuid.UUID    `json:"session_id,omitempty"`
	TimeSpentMs  *int          `json:"time_spent_ms,omitempty"`
	UserAnswer   *string       `json:"user_answer,omitempty"`
	RecordingRef *string       `json:"recording_ref,omitempty"`
}

// ReviewResult reports where a rated card landed and what work remains.
type ReviewResult struct {
	Card         *domain.Card `json:"card"`
	Counts       srs.Counts   `json:"counts"`
	NextQueue    domain.Queue `json:"next_queue"`
	NextInterval int          `json:"next_interval_days"`
	NextDue      time.Time    `json:"next_due"`
}

// StudyService provides the scheduling operations of the system: picking
// the next card, recording ratings, and the maintenance operations built
// on the event log.
type StudyService interface {
	// GetNextCard picks the next card to study in the deck, along with
	// interval previews for its four answer buttons and queue counts.
	// Returns ErrNoCardsDue when nothing is eligible; counts for the deck
	// are still meaningful in that case via GetQueueCounts.
	GetNextCard(ctx context.Context, deckID uuid.UUID, opts NextCardOptions) (*NextCard, error)

	// SubmitReview records a rating for the card: it appends the review
	// event and persists the rescheduled card state in one transaction,
	// then reports the card's new queue, interval, and due time.
	SubmitReview(ctx context.Context, cardID uuid.UUID, sub ReviewSubmission) (*ReviewResult, error)

	// GetQueueCounts reports {new, learning, review} for the deck without
	// selecting a card.
	GetQueueCounts(ctx context.Context, deckID uuid.UUID) (srs.Counts, error)

	// PostponeCard pushes a Review-queue card's scheduled date forward by
	// the given number of days without recording a review.
	PostponeCard(ctx context.Context, cardID uuid.UUID, days int) (*domain.Card, error)

	// RebuildCard discards the card's stored scheduling state and
	// recomputes it by replaying the card's full review event history.
	// This is the recovery path for corrupted card state and the
	// conflict-resolution primitive used by sync.
	RebuildCard(ctx context.Context, cardID uuid.UUID) (*domain.Card, error)
}

// ServiceError wraps errors from the study service with operation context,
// so consumers differentiate failures with errors.As instead of string
// matching.
type ServiceError struct {
	// Operation is the operation that failed (e.g., "get_next_card")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s operation failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("%s operation failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}
