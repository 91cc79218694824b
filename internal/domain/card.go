package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Queue is a card's coarse scheduling phase.
type Queue string

// Possible queue values.
const (
	QueueNew        Queue = "new"
	QueueLearning   Queue = "learning"
	QueueReview     Queue = "review"
	QueueRelearning Queue = "relearning"
)

// IsValid reports whether q is one of the four defined queues.
func (q Queue) IsValid() bool {
	switch q {
	case QueueNew, QueueLearning, QueueReview, QueueRelearning:
		return true
	default:
		return false
	}
}

// InSteps reports whether cards in this queue work through learning or
// relearning steps and are scheduled by instant (DueAt) rather than by
// calendar date.
func (q Queue) InSteps() bool {
	return q == QueueLearning || q == QueueRelearning
}

// CardType identifies which facet of a note a card drills. A note always
// fans out to this fixed, closed set of types.
type CardType string

// The closed set of card types.
const (
	CardTypeRecognition CardType = "recognition"
	CardTypeProduction  CardType = "production"
	CardTypeListening   CardType = "listening"
)

// AllCardTypes lists every card type a note produces, in creation order.
var AllCardTypes = []CardType{CardTypeRecognition, CardTypeProduction, CardTypeListening}

// IsValid reports whether t is a member of the closed card type set.
func (t CardType) IsValid() bool {
	switch t {
	case CardTypeRecognition, CardTypeProduction, CardTypeListening:
		return true
	default:
		return false
	}
}

// Card-specific validation errors.
var (
	ErrCardIDEmpty     = errors.New("card ID cannot be empty")
	ErrCardNoteIDEmpty = errors.New("card note ID cannot be empty")
	ErrCardDeckIDEmpty = errors.New("card deck ID cannot be empty")
	ErrCardDueConflict = errors.New(
		"card must carry exactly the due field its queue prescribes",
	)
)

// Card is the atomic schedulable unit: one per (note, card type) pair.
// It carries both SM-2 lineage fields (ease factor, interval, repetitions)
// and FSRS lineage fields (stability, difficulty); which subset is live is
// selected by the owning deck's SchedulingModel. A card is mutated only by
// the scheduling function in response to a rating, and is itself a derived
// cache: replaying its review events from a fresh new-state card must
// reproduce it exactly.
type Card struct {
	ID     uuid.UUID `json:"id"`
	NoteID uuid.UUID `json:"note_id"`
	DeckID uuid.UUID `json:"deck_id"`
	Type   CardType  `json:"card_type"`

	Queue Queue `json:"queue"`

	// SM-2 lineage progress.
	EaseFactor   float64 `json:"ease_factor"`
	IntervalDays int     `json:"interval_days"`
	Repetitions  int     `json:"repetitions"`

	// FSRS lineage progress.
	Stability  float64 `json:"stability"`
	Difficulty float64 `json:"difficulty"`
	Lapses     int     `json:"lapses"`

	// LearningStep indexes into the deck's learning or relearning steps
	// while the card is in a steps queue.
	LearningStep int `json:"learning_step"`

	// DueAt is the absolute instant the card becomes due while in
	// Learning or Relearning. Nil otherwise.
	DueAt *time.Time `json:"due_at,omitempty"`

	// NextReviewAt is the calendar date of the next review while in the
	// Review queue. Time-of-day is not scheduled once a card graduates;
	// the value is normalized to local midnight. Nil otherwise.
	NextReviewAt *time.Time `json:"next_review_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewCard creates a card in the New queue for the given note, deck, and
// type, seeded with the deck's starting ease.
func NewCard(noteID, deckID uuid.UUID, cardType CardType, startingEase float64) (*Card, error) {
	now := time.Now().UTC()
	card := &Card{
		ID:         uuid.New(),
		NoteID:     noteID,
		DeckID:     deckID,
		Type:       cardType,
		Queue:      QueueNew,
		EaseFactor: startingEase,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := card.Validate(); err != nil {
		return nil, err
	}

	return card, nil
}

// Validate checks identity fields and the structural queue invariants:
// exactly one of DueAt / NextReviewAt is set for steps / review queues,
// neither is set for New, and a New card has zero repetitions.
func (c *Card) Validate() error {
	if c.ID == uuid.Nil {
		return ErrCardIDEmpty
	}

	if c.NoteID == uuid.Nil {
		return ErrCardNoteIDEmpty
	}

	if c.DeckID == uuid.Nil {
		return ErrCardDeckIDEmpty
	}

	if !c.Type.IsValid() {
		return ErrInvalidCardType
	}

	if !c.Queue.IsValid() {
		return ErrInvalidQueue
	}

	switch {
	case c.Queue == QueueNew:
		if c.DueAt != nil || c.NextReviewAt != nil {
			return ErrCardDueConflict
		}
		if c.Repetitions != 0 {
			return ErrCorruptCardState
		}
	case c.Queue.InSteps():
		if c.DueAt == nil || c.NextReviewAt != nil {
			return ErrCardDueConflict
		}
	case c.Queue == QueueReview:
		if c.NextReviewAt == nil || c.DueAt != nil {
			return ErrCardDueConflict
		}
	}

	return nil
}

// Clone returns a deep copy of the card. The scheduling function operates
// on clones so callers' cards are never mutated in place.
func (c *Card) Clone() *Card {
	out := *c
	if c.DueAt != nil {
		v := *c.DueAt
		out.DueAt = &v
	}
	if c.NextReviewAt != nil {
		v := *c.NextReviewAt
		out.NextReviewAt = &v
	}
	return &out
}
