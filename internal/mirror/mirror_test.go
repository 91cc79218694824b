package mirror

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexvault/lexvault/internal/domain"
	"github.com/lexvault/lexvault/internal/store"
)

func openTestMirror(t *testing.T) *DB {
	t.Helper()
	db, err := Open(":memory:")
	require.NoError(t, err, "opening in-memory mirror should succeed")
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func seedDeck(t *testing.T, db *DB) *domain.Deck {
	t.Helper()
	deckID := uuid.New()
	deck := &domain.Deck{
		ID:        deckID,
		OwnerID:   uuid.New(),
		Name:      "JLPT N5",
		Config:    domain.DefaultDeckConfig(deckID),
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	require.NoError(t, db.Decks().Create(context.Background(), deck))
	return deck
}

func seedNoteWithCards(t *testing.T, db *DB, deck *domain.Deck) (*domain.Note, []*domain.Card) {
	t.Helper()
	ctx := context.Background()

	note := &domain.Note{
		ID:        uuid.New(),
		DeckID:    deck.ID,
		Term:      "水",
		Meaning:   "water",
		Reading:   "みず",
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	require.NoError(t, db.Notes().Create(ctx, note))

	cards, err := note.FanOut(deck.Config)
	require.NoError(t, err)
	require.NoError(t, db.Cards().CreateMultiple(ctx, cards))
	return note, cards
}

func TestMirrorRoundTrip(t *testing.T) {
	db := openTestMirror(t)
	ctx := context.Background()

	deck := seedDeck(t, db)
	note, cards := seedNoteWithCards(t, db, deck)

	got, err := db.Decks().GetByID(ctx, deck.ID)
	require.NoError(t, err)
	assert.Equal(t, deck.Name, got.Name)
	assert.Equal(t, deck.Config.NewCardsPerDay, got.Config.NewCardsPerDay)
	assert.Equal(t, deck.Config.LearningSteps, got.Config.LearningSteps)

	gotNote, err := db.Notes().GetByID(ctx, note.ID)
	require.NoError(t, err)
	assert.Equal(t, "水", gotNote.Term)

	pool, err := db.Cards().ListByDeck(ctx, deck.ID)
	require.NoError(t, err)
	assert.Len(t, pool, len(cards))
	for _, card := range pool {
		assert.Equal(t, domain.QueueNew, card.Queue)
		assert.Nil(t, card.DueAt)
	}
}

func TestMirrorNotFound(t *testing.T) {
	db := openTestMirror(t)
	ctx := context.Background()

	_, err := db.Decks().GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, store.ErrDeckNotFound)

	_, err = db.Cards().GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, store.ErrCardNotFound)

	_, err = db.Notes().GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, store.ErrNoteNotFound)
}

func TestLocalEventsArePending(t *testing.T) {
	db := openTestMirror(t)
	ctx := context.Background()

	deck := seedDeck(t, db)
	_, cards := seedNoteWithCards(t, db, deck)
	card := cards[0]

	ev, err := domain.NewReviewEvent(card, domain.RatingGood, time.Now().UTC())
	require.NoError(t, err)
	require.NoError(t, db.Reviews().Append(ctx, ev))

	pending, err := db.PendingReviewEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, ev.ID, pending[0].ID)

	hasPending, err := db.HasPendingEvents(ctx, card.ID)
	require.NoError(t, err)
	assert.True(t, hasPending)

	// Duplicate appends are rejected, keeping retried pushes idempotent.
	err = db.Reviews().Append(ctx, ev)
	assert.ErrorIs(t, err, store.ErrReviewEventExists)

	require.NoError(t, db.MarkEventsSynced(ctx, []uuid.UUID{ev.ID}))

	pending, err = db.PendingReviewEvents(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestPendingEventsOrderedByReviewedAt(t *testing.T) {
	db := openTestMirror(t)
	ctx := context.Background()

	deck := seedDeck(t, db)
	_, cards := seedNoteWithCards(t, db, deck)
	card := cards[0]

	base := time.Now().UTC()
	var want []uuid.UUID
	// Append out of chronological order.
	for _, offset := range []time.Duration{2 * time.Hour, 0, time.Hour} {
		ev, err := domain.NewReviewEvent(card, domain.RatingGood, base.Add(offset))
		require.NoError(t, err)
		require.NoError(t, db.Reviews().Append(ctx, ev))
		want = append(want, ev.ID)
	}

	pending, err := db.PendingReviewEvents(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 3)
	assert.Equal(t, want[1], pending[0].ID, "oldest event must come first")
	assert.Equal(t, want[2], pending[1].ID)
	assert.Equal(t, want[0], pending[2].ID)
}

func TestApplyServerCardSkipsDirtyCards(t *testing.T) {
	db := openTestMirror(t)
	ctx := context.Background()

	deck := seedDeck(t, db)
	_, cards := seedNoteWithCards(t, db, deck)
	clean, dirty := cards[0], cards[1]

	ev, err := domain.NewReviewEvent(dirty, domain.RatingAgain, time.Now().UTC())
	require.NoError(t, err)
	require.NoError(t, db.Reviews().Append(ctx, ev))

	serverClean := clean.Clone()
	serverClean.Queue = domain.QueueReview
	serverClean.IntervalDays = 3
	next := time.Now().UTC().Add(72 * time.Hour)
	serverClean.NextReviewAt = &next

	written, err := db.ApplyServerCard(ctx, serverClean)
	require.NoError(t, err)
	assert.True(t, written, "clean card must be overwritten by the pull")

	serverDirty := dirty.Clone()
	serverDirty.EaseFactor = 1.9
	written, err = db.ApplyServerCard(ctx, serverDirty)
	require.NoError(t, err)
	assert.False(t, written, "card with pending local events must be left alone")

	got, err := db.Cards().GetByID(ctx, dirty.ID)
	require.NoError(t, err)
	assert.Equal(t, dirty.EaseFactor, got.EaseFactor)
}

func TestApplyServerEventIsIdempotentAndClean(t *testing.T) {
	db := openTestMirror(t)
	ctx := context.Background()

	deck := seedDeck(t, db)
	_, cards := seedNoteWithCards(t, db, deck)

	ev, err := domain.NewReviewEvent(cards[0], domain.RatingEasy, time.Now().UTC())
	require.NoError(t, err)

	require.NoError(t, db.ApplyServerEvent(ctx, ev))
	require.NoError(t, db.ApplyServerEvent(ctx, ev), "replayed pulls must not error")

	events, err := db.Reviews().ListByCard(ctx, cards[0].ID)
	require.NoError(t, err)
	assert.Len(t, events, 1)

	pending, err := db.PendingReviewEvents(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending, "pulled events are already synced")
}

func TestPullCursorRoundTrip(t *testing.T) {
	db := openTestMirror(t)
	ctx := context.Background()

	cursor, err := db.PullCursor(ctx)
	require.NoError(t, err)
	assert.True(t, cursor.IsZero(), "fresh mirror starts at the zero cursor")

	want := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	require.NoError(t, db.SetPullCursor(ctx, want))

	cursor, err = db.PullCursor(ctx)
	require.NoError(t, err)
	assert.True(t, want.Equal(cursor))
}

func TestResetClearsEverything(t *testing.T) {
	db := openTestMirror(t)
	ctx := context.Background()

	deck := seedDeck(t, db)
	_, cards := seedNoteWithCards(t, db, deck)

	ev, err := domain.NewReviewEvent(cards[0], domain.RatingGood, time.Now().UTC())
	require.NoError(t, err)
	require.NoError(t, db.Reviews().Append(ctx, ev))
	require.NoError(t, db.SetPullCursor(ctx, time.Now().UTC()))

	require.NoError(t, db.Reset(ctx))

	_, err = db.Decks().GetByID(ctx, deck.ID)
	assert.ErrorIs(t, err, store.ErrDeckNotFound)

	cursor, err := db.PullCursor(ctx)
	require.NoError(t, err)
	assert.True(t, cursor.IsZero())

	require.NoError(t, db.CheckIntegrity(ctx))
}

func TestCountNewIntroducedBetween(t *testing.T) {
	db := openTestMirror(t)
	ctx := context.Background()

	deck := seedDeck(t, db)
	_, cards := seedNoteWithCards(t, db, deck)

	day := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	// Two introductions inside the window, one outside, one non-new inside.
	for i, c := range []struct {
		queue domain.Queue
		at    time.Time
	}{
		{domain.QueueNew, day.Add(9 * time.Hour)},
		{domain.QueueNew, day.Add(20 * time.Hour)},
		{domain.QueueNew, day.Add(-time.Hour)},
		{domain.QueueReview, day.Add(12 * time.Hour)},
	} {
		card := cards[i%len(cards)].Clone()
		card.Queue = c.queue
		if c.queue == domain.QueueReview {
			next := day
			card.NextReviewAt = &next
		}
		ev, err := domain.NewReviewEvent(card, domain.RatingGood, c.at)
		require.NoError(t, err)
		require.NoError(t, db.Reviews().Append(ctx, ev))
	}

	count, err := db.Reviews().CountNewIntroducedBetween(ctx, deck.ID, day, day.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
