package srs

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lexvault/lexvault/internal/domain"
)

// Replaying a card's full history through the scheduling function must
// reproduce the stored card state exactly.
func TestReplayEquivalence(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t)
	start := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)

	ratings := []domain.Rating{
		domain.RatingGood,
		domain.RatingGood,
		domain.RatingGood,
		domain.RatingAgain,
		domain.RatingGood,
		domain.RatingGood,
		domain.RatingEasy,
	}

	card := newTestCard(t, cfg)
	live := card.Clone()
	clock := start
	var events []*domain.ReviewEvent

	for _, rating := range ratings {
		ev, err := domain.NewReviewEvent(live, rating, clock)
		if err != nil {
			t.Fatalf("failed to create event: %v", err)
		}
		events = append(events, ev)

		next, err := Schedule(live, rating, cfg, clock)
		if err != nil {
			t.Fatalf("schedule: %v", err)
		}
		live = next
		clock = clock.Add(26 * time.Hour)
	}

	rebuilt, err := Replay(card, events, cfg)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}

	if rebuilt.Queue != live.Queue ||
		rebuilt.IntervalDays != live.IntervalDays ||
		rebuilt.EaseFactor != live.EaseFactor ||
		rebuilt.Repetitions != live.Repetitions ||
		rebuilt.Lapses != live.Lapses ||
		rebuilt.LearningStep != live.LearningStep {
		t.Errorf("replay diverged from live state:\nlive:    %+v\nrebuilt: %+v", live, rebuilt)
	}

	switch {
	case live.NextReviewAt != nil:
		if rebuilt.NextReviewAt == nil || !rebuilt.NextReviewAt.Equal(*live.NextReviewAt) {
			t.Errorf("replayed next review %v != live %v", rebuilt.NextReviewAt, live.NextReviewAt)
		}
	case live.DueAt != nil:
		if rebuilt.DueAt == nil || !rebuilt.DueAt.Equal(*live.DueAt) {
			t.Errorf("replayed due %v != live %v", rebuilt.DueAt, live.DueAt)
		}
	}
}

// Events arriving out of order (e.g. merged from two devices) are applied
// in reviewed_at order.
func TestReplaySortsByReviewedAt(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t)
	start := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)

	card := newTestCard(t, cfg)

	first := &domain.ReviewEvent{
		ID: uuid.New(), CardID: card.ID, DeckID: card.DeckID,
		Rating: domain.RatingGood, QueueBefore: domain.QueueNew, ReviewedAt: start,
	}
	second := &domain.ReviewEvent{
		ID: uuid.New(), CardID: card.ID, DeckID: card.DeckID,
		Rating: domain.RatingGood, QueueBefore: domain.QueueLearning,
		ReviewedAt: start.Add(15 * time.Minute),
	}

	shuffled, err := Replay(card, []*domain.ReviewEvent{second, first}, cfg)
	if err != nil {
		t.Fatalf("replay: %v", err)
	}

	if shuffled.Queue != domain.QueueReview {
		t.Errorf("two Goods in order must graduate; got queue %s", shuffled.Queue)
	}
}

func TestReplayRejectsForeignEvents(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t)

	card := newTestCard(t, cfg)
	foreign := &domain.ReviewEvent{
		ID: uuid.New(), CardID: uuid.New(), DeckID: card.DeckID,
		Rating: domain.RatingGood, QueueBefore: domain.QueueNew, ReviewedAt: time.Now(),
	}

	if _, err := Replay(card, []*domain.ReviewEvent{foreign}, cfg); err == nil {
		t.Error("expected error replaying another card's event")
	}
}

func TestPreviewIntervalsCoversAllRatings(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t)
	now := time.Now()

	card := reviewTestCard(t, cfg, 10, 2.5)
	before := *card.NextReviewAt

	previews, err := PreviewIntervals(card, cfg, now)
	if err != nil {
		t.Fatalf("preview: %v", err)
	}

	if len(previews) != 4 {
		t.Fatalf("expected 4 previews, got %d", len(previews))
	}

	byRating := make(map[domain.Rating]IntervalPreview, 4)
	for _, p := range previews {
		byRating[p.Rating] = p
	}

	if byRating[domain.RatingAgain].Queue != domain.QueueRelearning {
		t.Error("Again preview must land in Relearning")
	}
	if byRating[domain.RatingGood].IntervalDays != 25 {
		t.Errorf("Good preview interval: expected 25, got %d",
			byRating[domain.RatingGood].IntervalDays)
	}
	if byRating[domain.RatingHard].IntervalDays != 12 {
		t.Errorf("Hard preview interval: expected 12, got %d",
			byRating[domain.RatingHard].IntervalDays)
	}

	// Previews are discarded; the card must be untouched.
	if !card.NextReviewAt.Equal(before) || card.Queue != domain.QueueReview {
		t.Error("preview mutated the card")
	}
}
