package srs

import (
	"errors"
	"time"

	"github.com/lexvault/lexvault/internal/domain"
)

// Service errors.
var (
	ErrInvalidPostponeDays = errors.New("postpone days must be at least 1")
	ErrNotInReview         = errors.New("only review-queue cards can be postponed")
)

// Service is the interface the rest of the application schedules through.
// It is a thin seam over the pure functions in this package, kept so
// callers can be tested against a fake scheduler.
type Service interface {
	// Schedule computes the card state a rating produces.
	Schedule(
		card *domain.Card,
		rating domain.Rating,
		cfg *domain.DeckConfig,
		now time.Time,
	) (*domain.Card, error)

	// Preview computes the would-be result for all four ratings.
	Preview(card *domain.Card, cfg *domain.DeckConfig, now time.Time) ([]IntervalPreview, error)

	// Replay rebuilds a card from its review event history.
	Replay(
		card *domain.Card,
		events []*domain.ReviewEvent,
		cfg *domain.DeckConfig,
	) (*domain.Card, error)

	// Postpone pushes a Review card's scheduled date forward by the
	// given number of days without recording a review.
	Postpone(card *domain.Card, days int, now time.Time) (*domain.Card, error)
}

type defaultService struct{}

// NewService returns the standard scheduler implementation.
func NewService() Service {
	return defaultService{}
}

func (defaultService) Schedule(
	card *domain.Card,
	rating domain.Rating,
	cfg *domain.DeckConfig,
	now time.Time,
) (*domain.Card, error) {
	return Schedule(card, rating, cfg, now)
}

func (defaultService) Preview(
	card *domain.Card,
	cfg *domain.DeckConfig,
	now time.Time,
) ([]IntervalPreview, error) {
	return PreviewIntervals(card, cfg, now)
}

func (defaultService) Replay(
	card *domain.Card,
	events []*domain.ReviewEvent,
	cfg *domain.DeckConfig,
) (*domain.Card, error) {
	return Replay(card, events, cfg)
}

func (defaultService) Postpone(
	card *domain.Card,
	days int,
	now time.Time,
) (*domain.Card, error) {
	if card == nil {
		return nil, ErrNilCard
	}

	if days < 1 {
		return nil, ErrInvalidPostponeDays
	}

	if card.Queue != domain.QueueReview || card.NextReviewAt == nil {
		return nil, ErrNotInReview
	}

	c := card.Clone()
	next := card.NextReviewAt.AddDate(0, 0, days)
	c.NextReviewAt = &next
	c.UpdatedAt = now
	return c, nil
}
