package sync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lexvault/lexvault/internal/config"
	"github.com/lexvault/lexvault/internal/domain"
	"github.com/lexvault/lexvault/internal/mirror"
)

type fakeClient struct {
	pushed    [][]*domain.ReviewEvent
	pushErr   error
	pullResp  *PullResponse
	pullErr   error
	pullSince []time.Time
}

func (c *fakeClient) PushEvents(ctx context.Context, events []*domain.ReviewEvent) error {
	if c.pushErr != nil {
		return c.pushErr
	}
	c.pushed = append(c.pushed, events)
	return nil
}

func (c *fakeClient) Pull(ctx context.Context, since time.Time) (*PullResponse, error) {
	c.pullSince = append(c.pullSince, since)
	if c.pullErr != nil {
		return nil, c.pullErr
	}
	if c.pullResp != nil {
		return c.pullResp, nil
	}
	return &PullResponse{ServerTime: time.Now().UTC()}, nil
}

func openTestMirror(t *testing.T) *mirror.DB {
	t.Helper()
	db, err := mirror.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func seedDeckAndCard(t *testing.T, db *mirror.DB) (*domain.Deck, *domain.Card) {
	t.Helper()
	ctx := context.Background()

	deckID := uuid.New()
	deck := &domain.Deck{
		ID:        deckID,
		OwnerID:   uuid.New(),
		Name:      "N5 kanji",
		Config:    domain.DefaultDeckConfig(deckID),
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	require.NoError(t, db.Decks().Create(ctx, deck))

	note := &domain.Note{
		ID:        uuid.New(),
		DeckID:    deck.ID,
		Term:      "水",
		Meaning:   "water",
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	require.NoError(t, db.Notes().Create(ctx, note))

	cards, err := note.FanOut(deck.Config)
	require.NoError(t, err)
	require.NoError(t, db.Cards().CreateMultiple(ctx, cards))
	return deck, cards[0]
}

func recordLocalReview(t *testing.T, db *mirror.DB, card *domain.Card, at time.Time) *domain.ReviewEvent {
	t.Helper()
	ev, err := domain.NewReviewEvent(card, domain.RatingGood, at)
	require.NoError(t, err)
	require.NoError(t, db.Reviews().Append(context.Background(), ev))
	return ev
}

func TestPushMarksEventsSynced(t *testing.T) {
	db := openTestMirror(t)
	_, card := seedDeckAndCard(t, db)
	client := &fakeClient{}
	r := NewReconciler(db, client, config.SyncConfig{PushBatch: 10}, nil)

	base := time.Now().UTC().Add(-time.Hour)
	first := recordLocalReview(t, db, card, base)
	second := recordLocalReview(t, db, card, base.Add(time.Minute))

	pushed, err := r.Push(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, pushed)

	require.Len(t, client.pushed, 1)
	require.Len(t, client.pushed[0], 2)
	assert.Equal(t, first.ID, client.pushed[0][0].ID, "events upload in reviewed_at order")
	assert.Equal(t, second.ID, client.pushed[0][1].ID)

	// Nothing is pending after a successful push.
	pending, err := db.PendingReviewEvents(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestPushBatchesLargeBacklogs(t *testing.T) {
	db := openTestMirror(t)
	_, card := seedDeckAndCard(t, db)
	client := &fakeClient{}
	r := NewReconciler(db, client, config.SyncConfig{PushBatch: 2}, nil)

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		recordLocalReview(t, db, card, base.Add(time.Duration(i)*time.Minute))
	}

	pushed, err := r.Push(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, pushed)
	assert.Len(t, client.pushed, 3)
}

func TestPushKeepsEventsPendingOnFailure(t *testing.T) {
	db := openTestMirror(t)
	_, card := seedDeckAndCard(t, db)
	client := &fakeClient{pushErr: errors.New("server unreachable")}
	r := NewReconciler(db, client, config.SyncConfig{}, nil)

	recordLocalReview(t, db, card, time.Now().UTC())

	_, err := r.Push(context.Background())
	require.Error(t, err)

	pending, err := db.PendingReviewEvents(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, pending, 1, "failed pushes leave events pending for retry")
}

func TestPullAppliesChangesAndAdvancesCursor(t *testing.T) {
	db := openTestMirror(t)
	client := &fakeClient{}
	r := NewReconciler(db, client, config.SyncConfig{}, nil)
	ctx := context.Background()

	deckID := uuid.New()
	deck := &domain.Deck{
		ID:        deckID,
		OwnerID:   uuid.New(),
		Name:      "Server deck",
		Config:    domain.DefaultDeckConfig(deckID),
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	note := &domain.Note{
		ID:        uuid.New(),
		DeckID:    deck.ID,
		Term:      "犬",
		Meaning:   "dog",
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	cards, err := note.FanOut(deck.Config)
	require.NoError(t, err)

	serverTime := time.Now().UTC().Truncate(time.Second)
	client.pullResp = &PullResponse{
		Decks:      []*domain.Deck{deck},
		Notes:      []*domain.Note{note},
		Cards:      cards,
		ServerTime: serverTime,
	}

	applied, err := r.Pull(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2+len(cards), applied)

	got, err := db.Decks().GetByID(ctx, deck.ID)
	require.NoError(t, err)
	assert.Equal(t, deck.Name, got.Name)

	cursor, err := db.PullCursor(ctx)
	require.NoError(t, err)
	assert.True(t, cursor.Equal(serverTime), "cursor advances to server time")

	// The first pull asked for everything.
	require.Len(t, client.pullSince, 1)
	assert.True(t, client.pullSince[0].IsZero())

	// A second pull resumes from the stored cursor.
	_, err = r.Pull(ctx)
	require.NoError(t, err)
	require.Len(t, client.pullSince, 2)
	assert.True(t, client.pullSince[1].Equal(serverTime))
}

func TestPullSkipsDirtyCards(t *testing.T) {
	db := openTestMirror(t)
	_, card := seedDeckAndCard(t, db)
	client := &fakeClient{}
	r := NewReconciler(db, client, config.SyncConfig{}, nil)
	ctx := context.Background()

	// A local, unpushed review makes the card dirty.
	recordLocalReview(t, db, card, time.Now().UTC())

	serverCopy := card.Clone()
	serverCopy.Repetitions = 42
	client.pullResp = &PullResponse{
		Cards:      []*domain.Card{serverCopy},
		ServerTime: time.Now().UTC(),
	}

	applied, err := r.Pull(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, applied)

	got, err := db.Cards().GetByID(ctx, card.ID)
	require.NoError(t, err)
	assert.NotEqual(t, 42, got.Repetitions, "dirty card keeps its local state")
}

func TestSyncOncePushesBeforePulling(t *testing.T) {
	db := openTestMirror(t)
	_, card := seedDeckAndCard(t, db)
	client := &fakeClient{}
	r := NewReconciler(db, client, config.SyncConfig{}, nil)

	recordLocalReview(t, db, card, time.Now().UTC())

	require.NoError(t, r.SyncOnce(context.Background()))
	assert.Len(t, client.pushed, 1)
	assert.Len(t, client.pullSince, 1)
}

func TestRecoverNoopOnHealthyMirror(t *testing.T) {
	db := openTestMirror(t)
	client := &fakeClient{}
	r := NewReconciler(db, client, config.SyncConfig{}, nil)

	require.NoError(t, r.Recover(context.Background()))
	assert.Empty(t, client.pullSince, "a healthy mirror triggers no resync")
}
