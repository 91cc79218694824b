package srs

import (
	"time"

	"github.com/google/uuid"
	"github.com/lexvault/lexvault/internal/domain"
)

// Counts reports how much work a study pool currently holds, for display
// next to the answer buttons. New is the raw number of new cards in the
// pool after note exclusion, before the daily throttle. Callers use it
// to distinguish "nothing due" from "new cards available but capped".
type Counts struct {
	New      int `json:"new"`
	Learning int `json:"learning"`
	Review   int `json:"review"`
}

// SelectOptions parameterize a next-card selection.
type SelectOptions struct {
	// ExcludedNoteIDs removes every card belonging to these notes, so
	// sibling card types of a just-seen note are not shown back to back.
	ExcludedNoteIDs []uuid.UUID

	// NewCapacity is the remaining daily-throttle allowance for New
	// cards, normally RemainingNewCapacity(cap, introducedToday).
	NewCapacity int

	// IgnoreDailyLimit bypasses the throttle. It exists for explicit
	// "study ahead" actions and must always be opt-in, never a default.
	IgnoreDailyLimit bool
}

// SelectNext picks the next card to present from the pool, or nil when
// nothing is eligible. Priority is strict:
//
//  1. Learning/Relearning cards whose instant deadline has passed,
//     earliest deadline first, since they have the tightest schedules.
//  2. Review cards due today, earliest scheduled date first.
//  3. New cards, oldest first, while throttle capacity remains.
//
// Counts are returned in every case, including a nil selection.
func SelectNext(pool []*domain.Card, now time.Time, opts SelectOptions) (*domain.Card, Counts) {
	excluded := make(map[uuid.UUID]struct{}, len(opts.ExcludedNoteIDs))
	for _, id := range opts.ExcludedNoteIDs {
		excluded[id] = struct{}{}
	}

	var counts Counts
	var bestLearning, bestReview, bestNew *domain.Card

	for _, card := range pool {
		if _, skip := excluded[card.NoteID]; skip {
			continue
		}

		cls := Classify(card, now)
		switch {
		case card.Queue == domain.QueueNew:
			counts.New++
			if bestNew == nil || card.CreatedAt.Before(bestNew.CreatedAt) {
				bestNew = card
			}

		case card.Queue.InSteps():
			if !cls.IsDue {
				continue
			}
			counts.Learning++
			if bestLearning == nil || card.DueAt.Before(*bestLearning.DueAt) {
				bestLearning = card
			}

		case card.Queue == domain.QueueReview:
			if !cls.IsDue {
				continue
			}
			counts.Review++
			if bestReview == nil || card.NextReviewAt.Before(*bestReview.NextReviewAt) {
				bestReview = card
			}
		}
	}

	switch {
	case bestLearning != nil:
		return bestLearning, counts
	case bestReview != nil:
		return bestReview, counts
	case bestNew != nil && (opts.IgnoreDailyLimit || opts.NewCapacity > 0):
		return bestNew, counts
	default:
		return nil, counts
	}
}
