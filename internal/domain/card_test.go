package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestNewCard(t *testing.T) {
	t.Parallel()
	noteID := uuid.New()
	deckID := uuid.New()

	card, err := NewCard(noteID, deckID, CardTypeRecognition, 2.5)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if card.ID == uuid.Nil {
		t.Error("Expected non-nil UUID")
	}
	if card.Queue != QueueNew {
		t.Errorf("Expected new queue, got %s", card.Queue)
	}
	if card.EaseFactor != 2.5 {
		t.Errorf("Expected starting ease 2.5, got %f", card.EaseFactor)
	}
	if card.Repetitions != 0 {
		t.Errorf("New card must have zero repetitions, got %d", card.Repetitions)
	}
	if card.DueAt != nil || card.NextReviewAt != nil {
		t.Error("New card must carry neither due field")
	}

	if _, err := NewCard(uuid.Nil, deckID, CardTypeRecognition, 2.5); !errors.Is(err, ErrCardNoteIDEmpty) {
		t.Errorf("Expected ErrCardNoteIDEmpty, got %v", err)
	}
	if _, err := NewCard(noteID, uuid.Nil, CardTypeRecognition, 2.5); !errors.Is(err, ErrCardDeckIDEmpty) {
		t.Errorf("Expected ErrCardDeckIDEmpty, got %v", err)
	}
	if _, err := NewCard(noteID, deckID, CardType("cloze"), 2.5); !errors.Is(err, ErrInvalidCardType) {
		t.Errorf("Expected ErrInvalidCardType, got %v", err)
	}
}

func TestCardValidateQueueInvariants(t *testing.T) {
	t.Parallel()
	now := time.Now()

	base := func() *Card {
		card, err := NewCard(uuid.New(), uuid.New(), CardTypeProduction, 2.5)
		if err != nil {
			t.Fatalf("NewCard: %v", err)
		}
		return card
	}

	testCases := []struct {
		name    string
		mutate  func(*Card)
		wantErr error
	}{
		{
			name:    "new card with repetitions is corrupt",
			mutate:  func(c *Card) { c.Repetitions = 2 },
			wantErr: ErrCorruptCardState,
		},
		{
			name:    "new card with an instant deadline",
			mutate:  func(c *Card) { c.DueAt = &now },
			wantErr: ErrCardDueConflict,
		},
		{
			name: "learning card without an instant deadline",
			mutate: func(c *Card) {
				c.Queue = QueueLearning
			},
			wantErr: ErrCardDueConflict,
		},
		{
			name: "learning card with a calendar date",
			mutate: func(c *Card) {
				c.Queue = QueueLearning
				c.DueAt = &now
				c.NextReviewAt = &now
			},
			wantErr: ErrCardDueConflict,
		},
		{
			name: "review card without a calendar date",
			mutate: func(c *Card) {
				c.Queue = QueueReview
			},
			wantErr: ErrCardDueConflict,
		},
		{
			name: "valid relearning card",
			mutate: func(c *Card) {
				c.Queue = QueueRelearning
				c.DueAt = &now
			},
			wantErr: nil,
		},
		{
			name: "valid review card",
			mutate: func(c *Card) {
				c.Queue = QueueReview
				c.NextReviewAt = &now
			},
			wantErr: nil,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			card := base()
			tc.mutate(card)
			err := card.Validate()
			if tc.wantErr == nil {
				if err != nil {
					t.Errorf("Expected valid card, got %v", err)
				}
				return
			}
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("Expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestCardClone(t *testing.T) {
	t.Parallel()

	card, err := NewCard(uuid.New(), uuid.New(), CardTypeListening, 2.5)
	if err != nil {
		t.Fatalf("NewCard: %v", err)
	}
	card.Queue = QueueLearning
	due := time.Now()
	card.DueAt = &due

	clone := card.Clone()
	shifted := due.Add(time.Hour)
	clone.DueAt = &shifted
	clone.EaseFactor = 1.3

	if !card.DueAt.Equal(due) {
		t.Error("mutating a clone's due time leaked into the original")
	}
	if card.EaseFactor != 2.5 {
		t.Error("mutating a clone's ease leaked into the original")
	}
}
