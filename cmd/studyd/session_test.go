package main

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexvault/lexvault/internal/domain"
	"github.com/lexvault/lexvault/internal/domain/srs"
	"github.com/lexvault/lexvault/internal/mirror"
	"github.com/lexvault/lexvault/internal/service/study"
)

func newSessionFixture(t *testing.T) (*mirror.DB, study.StudyService, uuid.UUID) {
	t.Helper()

	db, err := mirror.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	deckID := uuid.New()
	deck := &domain.Deck{
		ID:        deckID,
		OwnerID:   uuid.New(),
		Name:      "Session deck",
		Config:    domain.DefaultDeckConfig(deckID),
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	require.NoError(t, db.Decks().Create(ctx, deck))

	note := &domain.Note{
		ID:        uuid.New(),
		DeckID:    deckID,
		Term:      "山",
		Meaning:   "mountain",
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	require.NoError(t, db.Notes().Create(ctx, note))

	cards, err := note.FanOut(deck.Config)
	require.NoError(t, err)
	require.NoError(t, db.Cards().CreateMultiple(ctx, cards))

	service := study.NewStudyService(
		study.NewDeckRepositoryAdapter(db.Decks()),
		study.NewCardRepositoryAdapter(db.Cards(), db.Conn()),
		study.NewNoteRepositoryAdapter(db.Notes()),
		study.NewReviewRepositoryAdapter(db.Reviews()),
		srs.NewService(),
		slog.Default(),
	)
	return db, service, deckID
}

func TestSessionReviewsOneCardAndQuits(t *testing.T) {
	db, service, deckID := newSessionFixture(t)

	// Reveal, rate good, then quit at the next rating prompt.
	input := "\n3\n\nq\n"
	var out bytes.Buffer
	session := newStudySession(service, deckID, false, strings.NewReader(input), &out)

	require.NoError(t, session.run(context.Background()))

	assert.Contains(t, out.String(), "1 cards reviewed")

	pending, err := db.PendingReviewEvents(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, domain.RatingGood, pending[0].Rating)
	assert.NotNil(t, pending[0].SessionID, "session metadata rides on the event")
	assert.NotNil(t, pending[0].TimeSpentMs)
}

func TestSessionReportsNothingDue(t *testing.T) {
	db, service, deckID := newSessionFixture(t)

	// Exhaust the daily allowance so only the throttle blocks.
	deck, err := db.Decks().GetByID(context.Background(), deckID)
	require.NoError(t, err)
	deck.Config.NewCardsPerDay = 0
	require.NoError(t, db.Decks().UpdateConfig(context.Background(), deckID, deck.Config))

	var out bytes.Buffer
	session := newStudySession(service, deckID, false, strings.NewReader(""), &out)
	require.NoError(t, session.run(context.Background()))

	assert.Contains(t, out.String(), "behind the daily limit")
}

func TestSessionInvalidRatingReprompts(t *testing.T) {
	_, service, deckID := newSessionFixture(t)

	input := "\nx\n3\n"
	var out bytes.Buffer
	session := newStudySession(service, deckID, false, strings.NewReader(input), &out)
	require.NoError(t, session.run(context.Background()))

	assert.Contains(t, out.String(), "enter 1-4 or q")
	assert.Contains(t, out.String(), "1 cards reviewed")
}
