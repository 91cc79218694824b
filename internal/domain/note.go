package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Note validation errors.
var (
	ErrNoteIDEmpty     = errors.New("note ID cannot be empty")
	ErrNoteDeckIDEmpty = errors.New("note deck ID cannot be empty")
	ErrNoteTermEmpty   = errors.New("note term cannot be empty")
)

// Note is a vocabulary entry. Each note fans out to the fixed set of card
// types; its cards live and die with it. Note content editing is owned by
// an external collaborator, so the scheduler treats notes as read-mostly.
type Note struct {
	ID        uuid.UUID `json:"id"`
	DeckID    uuid.UUID `json:"deck_id"`
	Term      string    `json:"term"`
	Meaning   string    `json:"meaning"`
	Reading   string    `json:"reading,omitempty"`
	AudioRef  string    `json:"audio_ref,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks the note's required fields.
func (n *Note) Validate() error {
	if n.ID == uuid.Nil {
		return ErrNoteIDEmpty
	}

	if n.DeckID == uuid.Nil {
		return ErrNoteDeckIDEmpty
	}

	if n.Term == "" {
		return ErrNoteTermEmpty
	}

	return nil
}

// FanOut creates one New-queue card per card type for the note, seeded
// with the deck's starting ease. Cards are created alongside their note
// and only ever deleted with it.
func (n *Note) FanOut(cfg *DeckConfig) ([]*Card, error) {
	cards := make([]*Card, 0, len(AllCardTypes))
	for _, ct := range AllCardTypes {
		card, err := NewCard(n.ID, n.DeckID, ct, cfg.StartingEase)
		if err != nil {
			return nil, err
		}
		cards = append(cards, card)
	}
	return cards, nil
}
