package sync

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/lexvault/lexvault/internal/config"
	"github.com/lexvault/lexvault/internal/mirror"
)

const (
	defaultInterval  = time.Minute
	defaultBackoff   = 5 * time.Minute
	defaultPushBatch = 100
)

// Reconciler drives the push/pull cycle between a local mirror and the
// server. It owns no data of its own; the mirror's pending_sync flags
// and pull cursor are the only state, so reconciliation survives
// process restarts.
type Reconciler struct {
	mirror    *mirror.DB
	client    Client
	interval  time.Duration
	maxWait   time.Duration
	pushBatch int
	logger    *slog.Logger
}

// NewReconciler creates a reconciler. It panics if the mirror or client
// is nil. Zero config values fall back to defaults.
func NewReconciler(
	m *mirror.DB,
	client Client,
	cfg config.SyncConfig,
	logger *slog.Logger,
) *Reconciler {
	if m == nil {
		panic("sync: mirror cannot be nil")
	}
	if client == nil {
		panic("sync: client cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	r := &Reconciler{
		mirror:    m,
		client:    client,
		interval:  cfg.Interval,
		maxWait:   cfg.MaxBackoff,
		pushBatch: cfg.PushBatch,
		logger:    logger.With(slog.String("component", "sync_reconciler")),
	}
	if r.interval <= 0 {
		r.interval = defaultInterval
	}
	if r.maxWait <= 0 {
		r.maxWait = defaultBackoff
	}
	if r.pushBatch <= 0 {
		r.pushBatch = defaultPushBatch
	}
	return r
}

// SyncOnce runs a single push/pull cycle. Push runs first so the
// server's answer to the subsequent pull already reflects this
// client's own events.
func (r *Reconciler) SyncOnce(ctx context.Context) error {
	pushed, err := r.Push(ctx)
	if err != nil {
		return fmt.Errorf("push failed: %w", err)
	}

	pulled, err := r.Pull(ctx)
	if err != nil {
		return fmt.Errorf("pull failed: %w", err)
	}

	if pushed > 0 || pulled > 0 {
		r.logger.InfoContext(ctx, "sync cycle complete",
			slog.Int("events_pushed", pushed),
			slog.Int("rows_pulled", pulled))
	}
	return nil
}

// Push uploads pending review events in reviewed_at order, batch by
// batch, marking each batch synced only after the server accepts it.
// It returns the number of events pushed.
func (r *Reconciler) Push(ctx context.Context) (int, error) {
	total := 0
	for {
		events, err := r.mirror.PendingReviewEvents(ctx, r.pushBatch)
		if err != nil {
			return total, fmt.Errorf("failed to load pending events: %w", err)
		}
		if len(events) == 0 {
			break
		}

		if err := r.client.PushEvents(ctx, events); err != nil {
			return total, err
		}

		ids := make([]uuid.UUID, len(events))
		for i, ev := range events {
			ids[i] = ev.ID
		}
		if err := r.mirror.MarkEventsSynced(ctx, ids); err != nil {
			return total, fmt.Errorf("failed to mark events synced: %w", err)
		}
		total += len(events)

		if len(events) < r.pushBatch {
			break
		}
	}

	if total > 0 {
		if err := r.mirror.SetLastPushAt(ctx, time.Now().UTC()); err != nil {
			return total, fmt.Errorf("failed to record push time: %w", err)
		}
	}
	return total, nil
}

// Pull fetches server changes since the mirror's cursor and applies
// them. Cards with pending local events are left untouched; the next
// push/pull cycle converges them once the server has replayed the
// local events. It returns the number of rows applied.
func (r *Reconciler) Pull(ctx context.Context) (int, error) {
	cursor, err := r.mirror.PullCursor(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to read pull cursor: %w", err)
	}

	pulled, err := r.client.Pull(ctx, cursor)
	if err != nil {
		return 0, err
	}

	applied := 0
	for _, deck := range pulled.Decks {
		if err := r.mirror.UpsertDeck(ctx, deck); err != nil {
			return applied, fmt.Errorf("failed to apply deck %s: %w", deck.ID, err)
		}
		applied++
	}
	for _, note := range pulled.Notes {
		if err := r.mirror.UpsertNote(ctx, note); err != nil {
			return applied, fmt.Errorf("failed to apply note %s: %w", note.ID, err)
		}
		applied++
	}
	skipped := 0
	for _, card := range pulled.Cards {
		ok, err := r.mirror.ApplyServerCard(ctx, card)
		if err != nil {
			return applied, fmt.Errorf("failed to apply card %s: %w", card.ID, err)
		}
		if !ok {
			skipped++
			continue
		}
		applied++
	}
	for _, event := range pulled.Events {
		if err := r.mirror.ApplyServerEvent(ctx, event); err != nil {
			return applied, fmt.Errorf("failed to apply event %s: %w", event.ID, err)
		}
		applied++
	}

	if skipped > 0 {
		r.logger.DebugContext(ctx, "skipped cards with pending local events",
			slog.Int("count", skipped))
	}

	if !pulled.ServerTime.IsZero() {
		if err := r.mirror.SetPullCursor(ctx, pulled.ServerTime); err != nil {
			return applied, fmt.Errorf("failed to advance pull cursor: %w", err)
		}
	}
	return applied, nil
}

// Recover verifies the mirror's integrity and, when the file is
// corrupt, wipes it and resets the pull cursor so the next sync
// repopulates everything from the server.
func (r *Reconciler) Recover(ctx context.Context) error {
	err := r.mirror.CheckIntegrity(ctx)
	if err == nil {
		return nil
	}
	r.logger.WarnContext(ctx, "mirror integrity check failed, rebuilding from server",
		slog.String("error", err.Error()))

	if err := r.mirror.Reset(ctx); err != nil {
		return fmt.Errorf("failed to reset corrupt mirror: %w", err)
	}
	return r.SyncOnce(ctx)
}

// Run synchronizes on the configured interval until the context is
// cancelled. Failed cycles back off exponentially up to MaxBackoff,
// and a successful cycle restores the normal interval.
func (r *Reconciler) Run(ctx context.Context) {
	if err := r.Recover(ctx); err != nil {
		r.logger.ErrorContext(ctx, "mirror recovery failed",
			slog.String("error", err.Error()))
	}

	wait := r.interval
	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}

		if err := r.SyncOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			wait *= 2
			if wait > r.maxWait {
				wait = r.maxWait
			}
			r.logger.WarnContext(ctx, "sync cycle failed",
				slog.String("error", err.Error()),
				slog.Duration("retry_in", wait))
			continue
		}
		wait = r.interval
	}
}
