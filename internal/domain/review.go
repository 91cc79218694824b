package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Rating represents the user's assessment of recall quality for a review.
type Rating string

// Possible rating values.
const (
	RatingAgain Rating = "again"
	RatingHard  Rating = "hard"
	RatingGood  Rating = "good"
	RatingEasy  Rating = "easy"
)

// IsValid reports whether r is one of the four defined ratings.
func (r Rating) IsValid() bool {
	switch r {
	case RatingAgain, RatingHard, RatingGood, RatingEasy:
		return true
	default:
		return false
	}
}

// Review event validation errors.
var (
	ErrReviewEventIDEmpty   = errors.New("review event ID cannot be empty")
	ErrReviewEventCardEmpty = errors.New("review event card ID cannot be empty")
	ErrReviewEventNoTime    = errors.New("review event must have a reviewed_at timestamp")
)

// ReviewEvent is the append-only record of a single rating submission.
// Events are immutable once written and are the sole audit trail from
// which card state can be rebuilt by replay.
type ReviewEvent struct {
	ID        uuid.UUID  `json:"id"`
	CardID    uuid.UUID  `json:"card_id"`
	DeckID    uuid.UUID  `json:"deck_id"`
	SessionID *uuid.UUID `json:"session_id,omitempty"`
	Rating    Rating     `json:"rating"`

	// QueueBefore records the queue the card was in when the rating was
	// submitted. The daily throttle counts events with QueueBefore == QueueNew
	// as a pure aggregate, without consulting card state.
	QueueBefore Queue `json:"queue_before"`

	TimeSpentMs  *int      `json:"time_spent_ms,omitempty"`
	UserAnswer   *string   `json:"user_answer,omitempty"`
	RecordingRef *string   `json:"recording_ref,omitempty"`
	ReviewedAt   time.Time `json:"reviewed_at"`
}

// NewReviewEvent creates a review event for a rating submitted against a card.
// The card supplies the deck scope and the queue-before marker.
func NewReviewEvent(card *Card, rating Rating, reviewedAt time.Time) (*ReviewEvent, error) {
	ev := &ReviewEvent{
		ID:          uuid.New(),
		CardID:      card.ID,
		DeckID:      card.DeckID,
		Rating:      rating,
		QueueBefore: card.Queue,
		ReviewedAt:  reviewedAt,
	}

	if err := ev.Validate(); err != nil {
		return nil, err
	}

	return ev, nil
}

// Validate checks the structural integrity of the event.
func (e *ReviewEvent) Validate() error {
	if e.ID == uuid.Nil {
		return ErrReviewEventIDEmpty
	}

	if e.CardID == uuid.Nil {
		return ErrReviewEventCardEmpty
	}

	if !e.Rating.IsValid() {
		return ErrInvalidRating
	}

	if !e.QueueBefore.IsValid() {
		return ErrInvalidQueue
	}

	if e.ReviewedAt.IsZero() {
		return ErrReviewEventNoTime
	}

	return nil
}
