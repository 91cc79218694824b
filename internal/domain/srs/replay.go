package srs

import (
	"fmt"
	"sort"
	"time"

	"github.com/lexvault/lexvault/internal/domain"
)

// InitialState returns the card as it was before its first review: New
// queue, zero progress, ease seeded from the deck's starting ease.
// Identity and creation time are preserved.
func InitialState(card *domain.Card, cfg *domain.DeckConfig) *domain.Card {
	c := card.Clone()
	c.Queue = domain.QueueNew
	c.EaseFactor = cfg.StartingEase
	c.IntervalDays = 0
	c.Repetitions = 0
	c.Stability = 0
	c.Difficulty = 0
	c.Lapses = 0
	c.LearningStep = 0
	c.DueAt = nil
	c.NextReviewAt = nil
	return c
}

// Replay rebuilds a card's state by running its full review history
// through the scheduling function, oldest event first. Because the
// scheduling function is deterministic, the result is exactly the card
// state those reviews produced. Review events are the source of truth
// and the stored card record is a cache recomputable by this function.
//
// Replay is the conflict-resolution strategy for concurrent reviews from
// multiple devices (events merge by reviewed_at order) and the disaster
// recovery path when stored card state is lost or corrupted.
func Replay(
	card *domain.Card,
	events []*domain.ReviewEvent,
	cfg *domain.DeckConfig,
) (*domain.Card, error) {
	ordered := make([]*domain.ReviewEvent, len(events))
	copy(ordered, events)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].ReviewedAt.Before(ordered[j].ReviewedAt)
	})

	c := InitialState(card, cfg)
	for _, ev := range ordered {
		if ev.CardID != card.ID {
			return nil, fmt.Errorf("replay: event %s belongs to card %s, not %s",
				ev.ID, ev.CardID, card.ID)
		}

		next, err := Schedule(c, ev.Rating, cfg, ev.ReviewedAt)
		if err != nil {
			return nil, fmt.Errorf("replay: event %s: %w", ev.ID, err)
		}
		c = next
	}

	return c, nil
}

// IntervalPreview describes the state a card would land in if it were
// rated a particular way right now. Previews label the UI's four answer
// buttons; nothing is committed.
type IntervalPreview struct {
	Rating       domain.Rating `json:"rating"`
	Queue        domain.Queue  `json:"queue"`
	IntervalDays int           `json:"interval_days"`
	Due          time.Time     `json:"due"`
}

// allRatings in button order.
var allRatings = []domain.Rating{
	domain.RatingAgain,
	domain.RatingHard,
	domain.RatingGood,
	domain.RatingEasy,
}

// PreviewIntervals runs the scheduling function once per candidate rating
// and reports the resulting queue, interval, and due time. The computed
// card states are discarded.
func PreviewIntervals(
	card *domain.Card,
	cfg *domain.DeckConfig,
	now time.Time,
) ([]IntervalPreview, error) {
	previews := make([]IntervalPreview, 0, len(allRatings))
	for _, rating := range allRatings {
		next, err := Schedule(card, rating, cfg, now)
		if err != nil {
			return nil, fmt.Errorf("preview %s: %w", rating, err)
		}

		p := IntervalPreview{
			Rating:       rating,
			Queue:        next.Queue,
			IntervalDays: next.IntervalDays,
		}
		switch {
		case next.DueAt != nil:
			p.Due = *next.DueAt
		case next.NextReviewAt != nil:
			p.Due = *next.NextReviewAt
		}
		previews = append(previews, p)
	}

	return previews, nil
}
