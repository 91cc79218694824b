package srs

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/lexvault/lexvault/internal/domain"
)

// Ease factor adjustments applied by the SM-2 variant in the Review queue.
const (
	againEasePenalty = 0.20
	hardEasePenalty  = 0.15
	easyEaseReward   = 0.15
)

// minimumHardDelay is the floor for the "re-add half the current step"
// rule on a Hard rating while in a steps queue.
const minimumHardDelay = time.Minute

// Scheduling errors.
var (
	ErrNilCard   = errors.New("card cannot be nil")
	ErrNilConfig = errors.New("deck configuration cannot be nil")
)

// Schedule is the pure scheduling function: it maps (card state, rating,
// deck configuration, now) to the card's next state. It has no side
// effects and never performs I/O; the input card is not mutated.
//
// The configuration is assumed to have passed write-time validation. A
// card that violates its structural invariants is rejected with
// domain.ErrCorruptCardState wrapped in the returned error, signaling a
// data-integrity bug rather than a user error.
func Schedule(
	card *domain.Card,
	rating domain.Rating,
	cfg *domain.DeckConfig,
	now time.Time,
) (*domain.Card, error) {
	if card == nil {
		return nil, ErrNilCard
	}

	if cfg == nil {
		return nil, ErrNilConfig
	}

	if !rating.IsValid() {
		return nil, domain.ErrInvalidRating
	}

	if err := card.Validate(); err != nil {
		return nil, fmt.Errorf("scheduling rejected: %w", err)
	}

	c := card.Clone()

	switch cfg.Model {
	case domain.ModelFSRS:
		scheduleFSRS(c, rating, cfg, now)
	default:
		scheduleSM2(c, rating, cfg, now)
	}

	c.UpdatedAt = now

	return c, nil
}

// scheduleSM2 applies the SM-2 lineage transitions.
func scheduleSM2(c *domain.Card, rating domain.Rating, cfg *domain.DeckConfig, now time.Time) {
	switch {
	case c.Queue == domain.QueueNew:
		if rating == domain.RatingEasy {
			// Easy skips all learning steps and graduates directly.
			graduate(c, cfg.EasyIntervalDays, now)
			return
		}
		// Any other first rating enters Learning at step 0; the rating
		// itself is then applied under the step rules, so a Good moves
		// straight past the first step.
		enterSteps(c, domain.QueueLearning, cfg, now)
		applyStepRating(c, rating, cfg, now, sm2Graduator(cfg))

	case c.Queue.InSteps():
		applyStepRating(c, rating, cfg, now, sm2Graduator(cfg))

	case c.Queue == domain.QueueReview:
		reviewSM2(c, rating, cfg, now)
	}
}

// graduator computes the day interval a card receives when it leaves a
// steps queue. The SM-2 and FSRS variants differ only here, so the step
// machinery is shared between them.
type graduator func(c *domain.Card, easy bool) int

// sm2Graduator uses the deck's fixed graduating and easy intervals.
func sm2Graduator(cfg *domain.DeckConfig) graduator {
	return func(_ *domain.Card, easy bool) int {
		if easy {
			return cfg.EasyIntervalDays
		}
		return cfg.GraduatingIntervalDays
	}
}

// enterSteps moves a card into the given steps queue at step 0 with the
// first step's delay.
func enterSteps(c *domain.Card, q domain.Queue, cfg *domain.DeckConfig, now time.Time) {
	c.Queue = q
	c.LearningStep = 0
	due := now.Add(cfg.Steps(q)[0])
	c.DueAt = &due
	c.NextReviewAt = nil
}

// applyStepRating handles a rating for a card in Learning or Relearning.
func applyStepRating(
	c *domain.Card,
	rating domain.Rating,
	cfg *domain.DeckConfig,
	now time.Time,
	grad graduator,
) {
	steps := cfg.Steps(c.Queue)

	// A config edit may have shrunk the step list under the card.
	if c.LearningStep >= len(steps) {
		c.LearningStep = len(steps) - 1
	}

	var due time.Time
	switch rating {
	case domain.RatingAgain:
		c.LearningStep = 0
		due = now.Add(steps[0])

	case domain.RatingHard:
		// Stay at the current step; wait half its duration again.
		half := steps[c.LearningStep] / 2
		if half < minimumHardDelay {
			half = minimumHardDelay
		}
		due = now.Add(half)

	case domain.RatingGood:
		c.LearningStep++
		if c.LearningStep >= len(steps) {
			graduate(c, grad(c, false), now)
			return
		}
		due = now.Add(steps[c.LearningStep])

	case domain.RatingEasy:
		graduate(c, grad(c, true), now)
		return
	}

	c.DueAt = &due
	c.NextReviewAt = nil
}

// graduate promotes a card into the Review queue with the given interval.
// The next review is scheduled at calendar granularity: today plus the
// interval, normalized to local midnight.
func graduate(c *domain.Card, intervalDays int, now time.Time) {
	if intervalDays < 1 {
		intervalDays = 1
	}

	c.Queue = domain.QueueReview
	c.IntervalDays = intervalDays
	c.LearningStep = 0

	next := StartOfDay(now).AddDate(0, 0, intervalDays)
	c.NextReviewAt = &next
	c.DueAt = nil
}

// reviewSM2 handles a rating for a card in the Review queue under SM-2.
func reviewSM2(c *domain.Card, rating domain.Rating, cfg *domain.DeckConfig, now time.Time) {
	switch rating {
	case domain.RatingAgain:
		c.Lapses++
		c.EaseFactor = clampEase(c.EaseFactor-againEasePenalty, cfg)
		c.Repetitions = 0
		enterSteps(c, domain.QueueRelearning, cfg, now)
		return

	case domain.RatingHard:
		c.EaseFactor = clampEase(c.EaseFactor-hardEasePenalty, cfg)
		c.IntervalDays = roundInterval(
			float64(c.IntervalDays) * cfg.HardMultiplier * cfg.IntervalModifier,
		)

	case domain.RatingGood:
		c.IntervalDays = roundInterval(
			float64(c.IntervalDays) * c.EaseFactor * cfg.IntervalModifier,
		)
		c.Repetitions++

	case domain.RatingEasy:
		c.EaseFactor = clampEase(c.EaseFactor+easyEaseReward, cfg)
		c.IntervalDays = roundInterval(
			float64(c.IntervalDays) * c.EaseFactor * cfg.EasyBonus * cfg.IntervalModifier,
		)
		c.Repetitions++
	}

	next := StartOfDay(now).AddDate(0, 0, c.IntervalDays)
	c.NextReviewAt = &next
	c.DueAt = nil
}

// clampEase keeps the ease factor inside the deck's configured bounds.
func clampEase(ef float64, cfg *domain.DeckConfig) float64 {
	if ef < cfg.MinimumEase {
		return cfg.MinimumEase
	}
	if ef > cfg.MaximumEase {
		return cfg.MaximumEase
	}
	return ef
}

// roundInterval rounds a computed interval to whole days with a one-day
// floor; graduated cards are never scheduled closer than tomorrow.
func roundInterval(days float64) int {
	rounded := int(math.Round(days))
	if rounded < 1 {
		return 1
	}
	return rounded
}
