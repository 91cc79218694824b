package srs

import (
	"time"

	"github.com/lexvault/lexvault/internal/domain"
)

// Classification describes a card's current scheduling position.
type Classification struct {
	Queue domain.Queue

	// IsDue reports whether the card may be presented now. For New cards
	// it is always true; the daily throttle is applied by the selector,
	// not here.
	IsDue bool

	// DueIn is the time remaining until the card becomes due. Zero when
	// the card is already due or has no timed deadline (New queue).
	DueIn time.Duration
}

// Classify derives a card's queue and due-ness from its state and the
// wall clock.
//
// Learning and Relearning cards are compared as instants: due once DueAt
// has passed. Review cards are compared at calendar granularity: a card
// scheduled for today is due all day, not only after a particular time.
// The asymmetry is deliberate and must not be unified.
func Classify(card *domain.Card, now time.Time) Classification {
	cls := Classification{Queue: card.Queue}

	switch {
	case card.Queue == domain.QueueNew:
		cls.IsDue = true

	case card.Queue.InSteps():
		if card.DueAt == nil {
			return cls
		}
		if !card.DueAt.After(now) {
			cls.IsDue = true
		} else {
			cls.DueIn = card.DueAt.Sub(now)
		}

	case card.Queue == domain.QueueReview:
		if card.NextReviewAt == nil {
			return cls
		}
		if !card.NextReviewAt.After(EndOfDay(now)) {
			cls.IsDue = true
		} else {
			cls.DueIn = card.NextReviewAt.Sub(now)
		}
	}

	return cls
}

// StartOfDay returns local midnight at the start of t's calendar day, in
// t's location. Day boundaries are local, not UTC.
func StartOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

// EndOfDay returns the last instant of t's calendar day.
func EndOfDay(t time.Time) time.Time {
	return StartOfDay(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

// RemainingNewCapacity computes how many more New cards may be introduced
// today given the deck's daily cap and the number already introduced
// since local midnight.
func RemainingNewCapacity(newCardsPerDay, introducedToday int) int {
	remaining := newCardsPerDay - introducedToday
	if remaining < 0 {
		return 0
	}
	return remaining
}
