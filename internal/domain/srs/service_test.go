package srs

import (
	"errors"
	"testing"
	"time"
)

func TestServicePostpone(t *testing.T) {
	t.Parallel()
	svc := NewService()
	cfg := testConfig(t)
	now := time.Now()

	card := reviewTestCard(t, cfg, 10, 2.5)
	scheduled := *card.NextReviewAt

	postponed, err := svc.Postpone(card, 3, now)
	if err != nil {
		t.Fatalf("postpone: %v", err)
	}

	want := scheduled.AddDate(0, 0, 3)
	if !postponed.NextReviewAt.Equal(want) {
		t.Errorf("expected next review %v, got %v", want, postponed.NextReviewAt)
	}
	if !card.NextReviewAt.Equal(scheduled) {
		t.Error("postpone mutated its input card")
	}
	if postponed.IntervalDays != card.IntervalDays {
		t.Error("postpone must not touch the interval")
	}
}

func TestServicePostponeValidation(t *testing.T) {
	t.Parallel()
	svc := NewService()
	cfg := testConfig(t)
	now := time.Now()

	if _, err := svc.Postpone(nil, 1, now); !errors.Is(err, ErrNilCard) {
		t.Errorf("expected ErrNilCard, got %v", err)
	}

	card := reviewTestCard(t, cfg, 10, 2.5)
	if _, err := svc.Postpone(card, 0, now); !errors.Is(err, ErrInvalidPostponeDays) {
		t.Errorf("expected ErrInvalidPostponeDays, got %v", err)
	}

	learning := newTestCard(t, cfg)
	if _, err := svc.Postpone(learning, 1, now); !errors.Is(err, ErrNotInReview) {
		t.Errorf("expected ErrNotInReview, got %v", err)
	}
}
