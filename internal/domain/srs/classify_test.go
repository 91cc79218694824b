package srs

import (
	"testing"
	"time"

	"github.com/lexvault/lexvault/internal/domain"
)

func TestClassifyLearningUsesInstants(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t)
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	card := newTestCard(t, cfg)
	card.Queue = domain.QueueLearning
	due := now.Add(5 * time.Minute)
	card.DueAt = &due

	cls := Classify(card, now)
	if cls.IsDue {
		t.Error("learning card must not be due before its instant deadline")
	}
	if cls.DueIn != 5*time.Minute {
		t.Errorf("expected DueIn 5m, got %v", cls.DueIn)
	}

	cls = Classify(card, now.Add(5*time.Minute))
	if !cls.IsDue {
		t.Error("learning card must be due exactly at its deadline")
	}
}

// A review card scheduled for today is due all day, even if the scheduled
// midnight already passed or the evening has not arrived yet.
func TestClassifyReviewUsesCalendarDays(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t)

	morning := time.Date(2026, 3, 14, 0, 30, 0, 0, time.UTC)
	evening := time.Date(2026, 3, 14, 23, 30, 0, 0, time.UTC)
	scheduled := StartOfDay(morning) // today at midnight

	card := reviewTestCard(t, cfg, 3, 2.5)
	card.NextReviewAt = &scheduled

	if cls := Classify(card, morning); !cls.IsDue {
		t.Error("review card scheduled today must be due in the morning")
	}
	if cls := Classify(card, evening); !cls.IsDue {
		t.Error("review card scheduled today must still be due in the evening")
	}

	tomorrow := scheduled.AddDate(0, 0, 1)
	card.NextReviewAt = &tomorrow
	if cls := Classify(card, evening); cls.IsDue {
		t.Error("review card scheduled tomorrow must not be due tonight")
	}
}

func TestClassifyNewAlwaysDue(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t)

	card := newTestCard(t, cfg)
	cls := Classify(card, time.Now())
	if !cls.IsDue {
		t.Error("new cards are always due; the throttle is the selector's job")
	}
	if cls.Queue != domain.QueueNew {
		t.Errorf("expected queue new, got %s", cls.Queue)
	}
}

// Day boundaries are local to the clock's location, not UTC.
func TestDayBoundariesAreLocal(t *testing.T) {
	t.Parallel()
	tokyo := time.FixedZone("UTC+9", 9*3600)

	// 01:00 on the 15th in Tokyo is still the 14th in UTC.
	now := time.Date(2026, 3, 15, 1, 0, 0, 0, tokyo)

	start := StartOfDay(now)
	if start.Day() != 15 || start.Hour() != 0 {
		t.Errorf("expected local midnight on the 15th, got %v", start)
	}

	end := EndOfDay(now)
	if end.Day() != 15 || end.Hour() != 23 {
		t.Errorf("expected end of the local 15th, got %v", end)
	}
}

func TestRemainingNewCapacity(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name       string
		perDay     int
		introduced int
		want       int
	}{
		{name: "full capacity", perDay: 20, introduced: 0, want: 20},
		{name: "partially used", perDay: 20, introduced: 15, want: 5},
		{name: "exhausted", perDay: 20, introduced: 20, want: 0},
		{name: "overshoot clamps to zero", perDay: 20, introduced: 25, want: 0},
		{name: "zero cap", perDay: 0, introduced: 0, want: 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := RemainingNewCapacity(tc.perDay, tc.introduced); got != tc.want {
				t.Errorf("expected %d, got %d", tc.want, got)
			}
		})
	}
}
