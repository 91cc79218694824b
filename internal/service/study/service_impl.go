package study

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/lexvault/lexvault/internal/domain"
	"github.com/lexvault/lexvault/internal/domain/srs"
	"github.com/lexvault/lexvault/internal/platform/logger"
	"github.com/lexvault/lexvault/internal/store"
)

// Verify interface compliance at compile time
var _ StudyService = (*studyServiceImpl)(nil)

// studyServiceImpl implements the StudyService interface.
type studyServiceImpl struct {
	deckRepo   DeckRepository
	cardRepo   CardRepository
	noteRepo   NoteRepository
	reviewRepo ReviewRepository
	srsService srs.Service
	logger     *slog.Logger

	// now is swapped out in tests; everything time-dependent flows
	// through it so throttle-day boundaries are controllable.
	now func() time.Time
}

// NewStudyService creates a new StudyService implementation.
func NewStudyService(
	deckRepo DeckRepository,
	cardRepo CardRepository,
	noteRepo NoteRepository,
	reviewRepo ReviewRepository,
	srsService srs.Service,
	logger *slog.Logger,
) StudyService {
	if deckRepo == nil {
		panic("deckRepo cannot be nil")
	}
	if cardRepo == nil {
		panic("cardRepo cannot be nil")
	}
	if noteRepo == nil {
		panic("noteRepo cannot be nil")
	}
	if reviewRepo == nil {
		panic("reviewRepo cannot be nil")
	}
	if srsService == nil {
		panic("srsService cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &studyServiceImpl{
		deckRepo:   deckRepo,
		cardRepo:   cardRepo,
		noteRepo:   noteRepo,
		reviewRepo: reviewRepo,
		srsService: srsService,
		logger:     logger.With(slog.String("component", "study_service")),
		now:        time.Now,
	}
}

// GetNextCard implements StudyService.GetNextCard.
func (s *studyServiceImpl) GetNextCard(
	ctx context.Context,
	deckID uuid.UUID,
	opts NextCardOptions,
) (*NextCard, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	now := s.now()

	deck, err := s.getDeck(ctx, deckID)
	if err != nil {
		return nil, err
	}

	pool, err := s.cardRepo.ListByDeck(ctx, deckID)
	if err != nil {
		return nil, fmt.Errorf("failed to load study pool: %w", err)
	}

	capacity, err := s.remainingNewCapacity(ctx, deck, now)
	if err != nil {
		return nil, err
	}

	card, counts := srs.SelectNext(pool, now, srs.SelectOptions{
		ExcludedNoteIDs:  opts.ExcludedNoteIDs,
		NewCapacity:      capacity,
		IgnoreDailyLimit: opts.IgnoreDailyLimit,
	})
	if card == nil {
		log.Debug("no cards due",
			slog.String("deck_id", deckID.String()),
			slog.Int("new", counts.New),
			slog.Int("learning", counts.Learning),
			slog.Int("review", counts.Review))
		return nil, ErrNoCardsDue
	}

	note, err := s.noteRepo.GetByID(ctx, card.NoteID)
	if err != nil {
		return nil, fmt.Errorf("failed to load note for card %s: %w", card.ID, err)
	}

	previews, err := s.srsService.Preview(card, deck.Config, now)
	if err != nil {
		return nil, fmt.Errorf("failed to compute interval previews: %w", err)
	}

	log.Debug("selected next card",
		slog.String("deck_id", deckID.String()),
		slog.String("card_id", card.ID.String()),
		slog.String("queue", string(card.Queue)))

	return &NextCard{
		Card:     card,
		Note:     note,
		Counts:   counts,
		Previews: previews,
	}, nil
}

// SubmitReview implements StudyService.SubmitReview.
// The card update and the event append happen in one transaction; the
// review event is the durable record, the card row the derived cache.
func (s *studyServiceImpl) SubmitReview(
	ctx context.Context,
	cardID uuid.UUID,
	sub ReviewSubmission,
) (*ReviewResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	now := s.now()

	if !sub.Rating.IsValid() {
		log.Warn("invalid rating submitted",
			slog.String("card_id", cardID.String()),
			slog.String("rating", string(sub.Rating)))
		return nil, ErrInvalidRating
	}

	var updated *domain.Card
	var deckID uuid.UUID
	err := s.runInTransaction(ctx, func(
		ctx context.Context,
		cardRepo CardRepository,
		reviewRepo ReviewRepository,
	) error {
		card, err := cardRepo.GetForUpdate(ctx, cardID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrCardNotFound
			}
			return fmt.Errorf("failed to get card: %w", err)
		}
		deckID = card.DeckID

		deck, err := s.getDeck(ctx, card.DeckID)
		if err != nil {
			return err
		}

		event, err := domain.NewReviewEvent(card, sub.Rating, now)
		if err != nil {
			return fmt.Errorf("failed to build review event: %w", err)
		}
		event.SessionID = sub.SessionID
		event.TimeSpentMs = sub.TimeSpentMs
		event.UserAnswer = sub.UserAnswer
		event.RecordingRef = sub.RecordingRef

		next, err := s.srsService.Schedule(card, sub.Rating, deck.Config, now)
		if err != nil {
			return fmt.Errorf("failed to schedule card: %w", err)
		}

		if err := cardRepo.Update(ctx, next); err != nil {
			return fmt.Errorf("failed to persist card state: %w", err)
		}
		if err := reviewRepo.Append(ctx, event); err != nil {
			return fmt.Errorf("failed to append review event: %w", err)
		}

		updated = next
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrCardNotFound) || errors.Is(err, ErrDeckNotFound) {
			return nil, err
		}
		log.Error("failed to submit review",
			slog.String("error", err.Error()),
			slog.String("card_id", cardID.String()))
		return nil, &ServiceError{Operation: "submit_review", Message: "transaction failed", Err: err}
	}

	counts, err := s.GetQueueCounts(ctx, deckID)
	if err != nil {
		// The review is committed; counts are cosmetic. Log and move on.
		log.Warn("failed to refresh queue counts after review",
			slog.String("error", err.Error()),
			slog.String("deck_id", deckID.String()))
	}

	result := &ReviewResult{
		Card:         updated,
		Counts:       counts,
		NextQueue:    updated.Queue,
		NextInterval: updated.IntervalDays,
	}
	switch {
	case updated.DueAt != nil:
		result.NextDue = *updated.DueAt
	case updated.NextReviewAt != nil:
		result.NextDue = *updated.NextReviewAt
	}

	log.Info("review recorded",
		slog.String("card_id", cardID.String()),
		slog.String("rating", string(sub.Rating)),
		slog.String("next_queue", string(result.NextQueue)),
		slog.Int("next_interval_days", result.NextInterval))

	return result, nil
}

// GetQueueCounts implements StudyService.GetQueueCounts.
func (s *studyServiceImpl) GetQueueCounts(
	ctx context.Context,
	deckID uuid.UUID,
) (srs.Counts, error) {
	now := s.now()

	if _, err := s.getDeck(ctx, deckID); err != nil {
		return srs.Counts{}, err
	}

	pool, err := s.cardRepo.ListByDeck(ctx, deckID)
	if err != nil {
		return srs.Counts{}, fmt.Errorf("failed to load study pool: %w", err)
	}

	_, counts := srs.SelectNext(pool, now, srs.SelectOptions{})
	return counts, nil
}

// PostponeCard implements StudyService.PostponeCard.
func (s *studyServiceImpl) PostponeCard(
	ctx context.Context,
	cardID uuid.UUID,
	days int,
) (*domain.Card, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	now := s.now()

	var updated *domain.Card
	err := s.runInTransaction(ctx, func(
		ctx context.Context,
		cardRepo CardRepository,
		_ ReviewRepository,
	) error {
		card, err := cardRepo.GetForUpdate(ctx, cardID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrCardNotFound
			}
			return fmt.Errorf("failed to get card: %w", err)
		}

		next, err := s.srsService.Postpone(card, days, now)
		if err != nil {
			return err
		}

		if err := cardRepo.Update(ctx, next); err != nil {
			return fmt.Errorf("failed to persist card state: %w", err)
		}

		updated = next
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrCardNotFound) ||
			errors.Is(err, srs.ErrInvalidPostponeDays) ||
			errors.Is(err, srs.ErrNotInReview) {
			return nil, err
		}
		log.Error("failed to postpone card",
			slog.String("error", err.Error()),
			slog.String("card_id", cardID.String()))
		return nil, &ServiceError{Operation: "postpone_card", Message: "transaction failed", Err: err}
	}

	log.Info("card postponed",
		slog.String("card_id", cardID.String()),
		slog.Int("days", days))
	return updated, nil
}

// RebuildCard implements StudyService.RebuildCard.
func (s *studyServiceImpl) RebuildCard(
	ctx context.Context,
	cardID uuid.UUID,
) (*domain.Card, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var rebuilt *domain.Card
	err := s.runInTransaction(ctx, func(
		ctx context.Context,
		cardRepo CardRepository,
		reviewRepo ReviewRepository,
	) error {
		card, err := cardRepo.GetForUpdate(ctx, cardID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrCardNotFound
			}
			return fmt.Errorf("failed to get card: %w", err)
		}

		deck, err := s.getDeck(ctx, card.DeckID)
		if err != nil {
			return err
		}

		events, err := reviewRepo.ListByCard(ctx, cardID)
		if err != nil {
			return fmt.Errorf("failed to load review history: %w", err)
		}

		next, err := s.srsService.Replay(card, events, deck.Config)
		if err != nil {
			return fmt.Errorf("failed to replay review history: %w", err)
		}

		if err := cardRepo.Update(ctx, next); err != nil {
			return fmt.Errorf("failed to persist rebuilt state: %w", err)
		}

		rebuilt = next
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrCardNotFound) || errors.Is(err, ErrDeckNotFound) {
			return nil, err
		}
		log.Error("failed to rebuild card",
			slog.String("error", err.Error()),
			slog.String("card_id", cardID.String()))
		return nil, &ServiceError{Operation: "rebuild_card", Message: "transaction failed", Err: err}
	}

	log.Info("card rebuilt from event log",
		slog.String("card_id", cardID.String()),
		slog.String("queue", string(rebuilt.Queue)))
	return rebuilt, nil
}

// getDeck loads a deck and maps the store's not-found to the service's.
func (s *studyServiceImpl) getDeck(ctx context.Context, deckID uuid.UUID) (*domain.Deck, error) {
	deck, err := s.deckRepo.GetByID(ctx, deckID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrDeckNotFound
		}
		return nil, fmt.Errorf("failed to get deck: %w", err)
	}
	return deck, nil
}

// remainingNewCapacity computes today's unused new-card allowance for the
// deck. "Today" is the local calendar day of now, and introductions are
// counted from the event log alone: events whose queue_before is New.
func (s *studyServiceImpl) remainingNewCapacity(
	ctx context.Context,
	deck *domain.Deck,
	now time.Time,
) (int, error) {
	from := srs.StartOfDay(now)
	to := from.AddDate(0, 0, 1)

	introduced, err := s.reviewRepo.CountNewIntroducedBetween(ctx, deck.ID, from, to)
	if err != nil {
		return 0, fmt.Errorf("failed to count today's introductions: %w", err)
	}

	return srs.RemainingNewCapacity(deck.Config.NewCardsPerDay, introduced), nil
}

// runInTransaction runs the given function against transactional
// repositories, committing on success and rolling back on error.
func (s *studyServiceImpl) runInTransaction(
	ctx context.Context,
	fn func(context.Context, CardRepository, ReviewRepository) error,
) error {
	return store.RunInTransaction(ctx, s.cardRepo.DB(), func(ctx context.Context, tx *sql.Tx) error {
		return fn(ctx, s.cardRepo.WithTx(tx), s.reviewRepo.WithTx(tx))
	})
}
