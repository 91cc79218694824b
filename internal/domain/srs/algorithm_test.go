package srs

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lexvault/lexvault/internal/domain"
)

// testConfig returns a validated SM-2 deck configuration with the classic
// two-step learning phase.
func testConfig(t *testing.T) *domain.DeckConfig {
	t.Helper()
	cfg := domain.DefaultDeckConfig(uuid.New())
	if err := cfg.Validate(); err != nil {
		t.Fatalf("test config invalid: %v", err)
	}
	return cfg
}

// newTestCard returns a New-queue card belonging to the given config's deck.
func newTestCard(t *testing.T, cfg *domain.DeckConfig) *domain.Card {
	t.Helper()
	card, err := domain.NewCard(uuid.New(), cfg.DeckID, domain.CardTypeRecognition, cfg.StartingEase)
	if err != nil {
		t.Fatalf("failed to create card: %v", err)
	}
	return card
}

// reviewTestCard returns a Review-queue card with the given interval and ease.
func reviewTestCard(t *testing.T, cfg *domain.DeckConfig, intervalDays int, ease float64) *domain.Card {
	t.Helper()
	card := newTestCard(t, cfg)
	card.Queue = domain.QueueReview
	card.IntervalDays = intervalDays
	card.EaseFactor = ease
	card.Repetitions = 1
	next := StartOfDay(time.Now()).AddDate(0, 0, intervalDays)
	card.NextReviewAt = &next
	return card
}

func TestScheduleNewCardEntersLearning(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t)
	now := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

	testCases := []struct {
		name     string
		rating   domain.Rating
		queue    domain.Queue
		step     int
		dueAfter time.Duration
	}{
		{
			name:     "Again waits the full first step",
			rating:   domain.RatingAgain,
			queue:    domain.QueueLearning,
			step:     0,
			dueAfter: time.Minute,
		},
		{
			name:     "Hard waits half the first step with a one-minute floor",
			rating:   domain.RatingHard,
			queue:    domain.QueueLearning,
			step:     0,
			dueAfter: time.Minute,
		},
		{
			name:     "Good moves straight past the first step",
			rating:   domain.RatingGood,
			queue:    domain.QueueLearning,
			step:     1,
			dueAfter: 10 * time.Minute,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			card := newTestCard(t, cfg)
			next, err := Schedule(card, tc.rating, cfg, now)
			if err != nil {
				t.Fatalf("Schedule returned error: %v", err)
			}

			if next.Queue != tc.queue {
				t.Errorf("expected queue %s, got %s", tc.queue, next.Queue)
			}
			if next.LearningStep != tc.step {
				t.Errorf("expected step %d, got %d", tc.step, next.LearningStep)
			}
			if next.DueAt == nil {
				t.Fatal("expected DueAt to be set for a learning card")
			}
			if got := next.DueAt.Sub(now); got != tc.dueAfter {
				t.Errorf("expected due after %v, got %v", tc.dueAfter, got)
			}
			if next.NextReviewAt != nil {
				t.Error("learning card must not carry a calendar review date")
			}
			// Input card must not be mutated.
			if card.Queue != domain.QueueNew {
				t.Error("Schedule mutated its input card")
			}
		})
	}
}

// Two Goods with steps [1m, 10m] and graduating interval 1 take a new card
// all the way into Review, scheduled for tomorrow.
func TestScheduleGoodGoodGraduates(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t)
	now := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

	card := newTestCard(t, cfg)

	first, err := Schedule(card, domain.RatingGood, cfg, now)
	if err != nil {
		t.Fatalf("first Good: %v", err)
	}

	second, err := Schedule(first, domain.RatingGood, cfg, now.Add(10*time.Minute))
	if err != nil {
		t.Fatalf("second Good: %v", err)
	}

	if second.Queue != domain.QueueReview {
		t.Fatalf("expected Review queue, got %s", second.Queue)
	}
	if second.IntervalDays != cfg.GraduatingIntervalDays {
		t.Errorf("expected interval %d, got %d", cfg.GraduatingIntervalDays, second.IntervalDays)
	}

	wantNext := StartOfDay(now).AddDate(0, 0, 1)
	if second.NextReviewAt == nil || !second.NextReviewAt.Equal(wantNext) {
		t.Errorf("expected next review %v, got %v", wantNext, second.NextReviewAt)
	}
	if second.DueAt != nil {
		t.Error("review card must not carry an instant deadline")
	}
}

// Easy on a new card skips every learning step.
func TestScheduleNewCardEasyGraduatesDirectly(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t)
	now := time.Now()

	card := newTestCard(t, cfg)
	next, err := Schedule(card, domain.RatingEasy, cfg, now)
	if err != nil {
		t.Fatalf("Schedule returned error: %v", err)
	}

	if next.Queue != domain.QueueReview {
		t.Fatalf("expected Review queue, got %s", next.Queue)
	}
	if next.IntervalDays != cfg.EasyIntervalDays {
		t.Errorf("expected interval %d, got %d", cfg.EasyIntervalDays, next.IntervalDays)
	}
}

// Again on a review card lapses it into Relearning with the ease penalty.
func TestScheduleReviewAgainLapses(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t)
	now := time.Now()

	card := reviewTestCard(t, cfg, 10, 2.5)
	next, err := Schedule(card, domain.RatingAgain, cfg, now)
	if err != nil {
		t.Fatalf("Schedule returned error: %v", err)
	}

	if next.Queue != domain.QueueRelearning {
		t.Fatalf("expected Relearning queue, got %s", next.Queue)
	}
	if next.Lapses != 1 {
		t.Errorf("expected 1 lapse, got %d", next.Lapses)
	}
	if next.EaseFactor != 2.3 {
		t.Errorf("expected ease 2.3, got %f", next.EaseFactor)
	}
	if next.LearningStep != 0 {
		t.Errorf("expected step 0, got %d", next.LearningStep)
	}
	if next.Repetitions != 0 {
		t.Errorf("expected repetitions reset, got %d", next.Repetitions)
	}
	if next.DueAt == nil {
		t.Fatal("relearning card must carry an instant deadline")
	}
	if got := next.DueAt.Sub(now); got != cfg.RelearningSteps[0] {
		t.Errorf("expected due after %v, got %v", cfg.RelearningSteps[0], got)
	}
}

func TestScheduleReviewOutcomes(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t)
	now := time.Now()

	testCases := []struct {
		name         string
		rating       domain.Rating
		wantInterval int
		wantEase     float64
		wantReps     int
	}{
		{
			name:         "Hard shrinks growth and ease",
			rating:       domain.RatingHard,
			wantInterval: 12, // 10 * 1.2
			wantEase:     2.35,
			wantReps:     1,
		},
		{
			name:         "Good multiplies by ease",
			rating:       domain.RatingGood,
			wantInterval: 25, // 10 * 2.5
			wantEase:     2.5,
			wantReps:     2,
		},
		{
			name:         "Easy multiplies by ease and bonus with capped ease",
			rating:       domain.RatingEasy,
			wantInterval: 33, // 10 * 2.5 (capped) * 1.3 = 32.5 → 33
			wantEase:     2.5,
			wantReps:     2,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			card := reviewTestCard(t, cfg, 10, 2.5)
			next, err := Schedule(card, tc.rating, cfg, now)
			if err != nil {
				t.Fatalf("Schedule returned error: %v", err)
			}

			if next.Queue != domain.QueueReview {
				t.Fatalf("expected Review queue, got %s", next.Queue)
			}
			if next.IntervalDays != tc.wantInterval {
				t.Errorf("expected interval %d, got %d", tc.wantInterval, next.IntervalDays)
			}
			if next.EaseFactor != tc.wantEase {
				t.Errorf("expected ease %f, got %f", tc.wantEase, next.EaseFactor)
			}
			if next.Repetitions != tc.wantReps {
				t.Errorf("expected repetitions %d, got %d", tc.wantReps, next.Repetitions)
			}

			wantNext := StartOfDay(now).AddDate(0, 0, next.IntervalDays)
			if next.NextReviewAt == nil || !next.NextReviewAt.Equal(wantNext) {
				t.Errorf("expected next review %v, got %v", wantNext, next.NextReviewAt)
			}
		})
	}
}

// Hard in a steps queue re-adds half the current step, never less than a
// minute.
func TestScheduleLearningHardDelay(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t)
	cfg.LearningSteps = []time.Duration{time.Minute, 30 * time.Minute}
	now := time.Now()

	card := newTestCard(t, cfg)
	card.Queue = domain.QueueLearning
	card.LearningStep = 1
	due := now
	card.DueAt = &due

	next, err := Schedule(card, domain.RatingHard, cfg, now)
	if err != nil {
		t.Fatalf("Schedule returned error: %v", err)
	}

	if next.LearningStep != 1 {
		t.Errorf("Hard must stay at the current step, got %d", next.LearningStep)
	}
	if got := next.DueAt.Sub(now); got != 15*time.Minute {
		t.Errorf("expected due after 15m, got %v", got)
	}
}

// For every rating sequence the ease factor stays inside the configured
// bounds, and a New card never carries repetitions.
func TestSchedulePropertiesOverRatingSequences(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t)
	now := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)

	sequences := [][]domain.Rating{
		{domain.RatingGood, domain.RatingGood, domain.RatingAgain, domain.RatingAgain, domain.RatingAgain},
		{domain.RatingEasy, domain.RatingEasy, domain.RatingEasy, domain.RatingEasy},
		{domain.RatingAgain, domain.RatingHard, domain.RatingGood, domain.RatingEasy, domain.RatingAgain, domain.RatingGood},
		{domain.RatingGood, domain.RatingGood, domain.RatingGood, domain.RatingHard, domain.RatingHard, domain.RatingHard, domain.RatingHard},
	}

	for _, seq := range sequences {
		card := newTestCard(t, cfg)
		clock := now
		for i, rating := range seq {
			next, err := Schedule(card, rating, cfg, clock)
			if err != nil {
				t.Fatalf("step %d (%s): %v", i, rating, err)
			}

			if next.EaseFactor < cfg.MinimumEase || next.EaseFactor > cfg.MaximumEase {
				t.Fatalf("step %d (%s): ease %f left bounds [%f, %f]",
					i, rating, next.EaseFactor, cfg.MinimumEase, cfg.MaximumEase)
			}
			if next.Queue == domain.QueueNew && next.Repetitions != 0 {
				t.Fatalf("step %d: new card carries repetitions %d", i, next.Repetitions)
			}
			if err := next.Validate(); err != nil {
				t.Fatalf("step %d (%s): transition produced invalid card: %v", i, rating, err)
			}

			card = next
			clock = clock.Add(12 * time.Hour)
		}
	}
}

// Good with ease >= 1.0 never shrinks a review interval.
func TestScheduleGoodIntervalMonotonic(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t)
	now := time.Now()

	for _, interval := range []int{1, 2, 5, 10, 50, 365} {
		for _, ease := range []float64{1.3, 1.8, 2.5} {
			card := reviewTestCard(t, cfg, interval, ease)
			next, err := Schedule(card, domain.RatingGood, cfg, now)
			if err != nil {
				t.Fatalf("Schedule returned error: %v", err)
			}
			if next.IntervalDays < interval {
				t.Errorf("interval shrank from %d to %d at ease %f",
					interval, next.IntervalDays, ease)
			}
		}
	}
}

// Calling Schedule twice with identical inputs yields identical outputs.
func TestScheduleDeterminism(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t)
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

	for _, rating := range []domain.Rating{
		domain.RatingAgain, domain.RatingHard, domain.RatingGood, domain.RatingEasy,
	} {
		card := reviewTestCard(t, cfg, 7, 2.1)

		first, err := Schedule(card, rating, cfg, now)
		if err != nil {
			t.Fatalf("first call: %v", err)
		}
		second, err := Schedule(card, rating, cfg, now)
		if err != nil {
			t.Fatalf("second call: %v", err)
		}

		if first.Queue != second.Queue ||
			first.IntervalDays != second.IntervalDays ||
			first.EaseFactor != second.EaseFactor ||
			first.Repetitions != second.Repetitions {
			t.Errorf("rating %s: two identical calls diverged: %+v vs %+v",
				rating, first, second)
		}
	}
}

func TestScheduleRejectsBadInput(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t)
	now := time.Now()

	if _, err := Schedule(nil, domain.RatingGood, cfg, now); err == nil {
		t.Error("expected error for nil card")
	}

	card := newTestCard(t, cfg)
	if _, err := Schedule(card, domain.RatingGood, nil, now); err == nil {
		t.Error("expected error for nil config")
	}
	if _, err := Schedule(card, domain.Rating("perfect"), cfg, now); err == nil {
		t.Error("expected error for unknown rating")
	}

	// A new card with repetitions is corrupted state, not a user error.
	corrupt := newTestCard(t, cfg)
	corrupt.Repetitions = 3
	if _, err := Schedule(corrupt, domain.RatingGood, cfg, now); err == nil {
		t.Error("expected error for corrupt card state")
	}
}

// A shrunken step list must not panic a card stranded on a removed step.
func TestScheduleClampsStaleLearningStep(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t)
	cfg.LearningSteps = []time.Duration{time.Minute}
	now := time.Now()

	card := newTestCard(t, cfg)
	card.Queue = domain.QueueLearning
	card.LearningStep = 5 // points past the shrunken list
	due := now
	card.DueAt = &due

	next, err := Schedule(card, domain.RatingGood, cfg, now)
	if err != nil {
		t.Fatalf("Schedule returned error: %v", err)
	}
	if next.Queue != domain.QueueReview {
		t.Errorf("expected graduation from the final step, got %s", next.Queue)
	}
}
