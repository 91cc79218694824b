package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/lexvault/lexvault/internal/api/middleware"
	"github.com/lexvault/lexvault/internal/api/shared"
	"github.com/lexvault/lexvault/internal/platform/logger"
	"github.com/lexvault/lexvault/internal/redact"
	"github.com/lexvault/lexvault/internal/service/study"
	"github.com/lexvault/lexvault/internal/store"
	syncsvc "github.com/lexvault/lexvault/internal/sync"
)

// SyncHandler serves the endpoints offline clients reconcile against.
// Pushed events are the source of truth; the server appends them and
// recomputes the affected cards by replaying their event history, so a
// client that reviewed offline and the server always converge on the
// same card state.
type SyncHandler struct {
	deckStore    store.DeckStore
	noteStore    store.NoteStore
	cardStore    store.CardStore
	reviewStore  store.ReviewStore
	studyService study.StudyService
	logger       *slog.Logger
}

// NewSyncHandler creates a new SyncHandler. It panics on nil
// dependencies.
func NewSyncHandler(
	deckStore store.DeckStore,
	noteStore store.NoteStore,
	cardStore store.CardStore,
	reviewStore store.ReviewStore,
	studyService study.StudyService,
	log *slog.Logger,
) *SyncHandler {
	if deckStore == nil || noteStore == nil || cardStore == nil || reviewStore == nil {
		panic("stores cannot be nil for SyncHandler")
	}
	if studyService == nil {
		panic("study service cannot be nil for SyncHandler")
	}
	if log == nil {
		panic("logger cannot be nil for SyncHandler")
	}

	return &SyncHandler{
		deckStore:    deckStore,
		noteStore:    noteStore,
		cardStore:    cardStore,
		reviewStore:  reviewStore,
		studyService: studyService,
		logger:       log.With(slog.String("component", "sync_handler")),
	}
}

// PushEvents handles POST /sync/events requests. Events the server has
// already seen count as duplicates and are skipped; everything else is
// appended and the owning card is rebuilt from its full history.
func (h *SyncHandler) PushEvents(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req syncsvc.PushEventsRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	// Append everything first, then rebuild each touched card exactly
	// once: a batch of N offline reviews on one card replays its
	// history a single time.
	accepted, duplicates := 0, 0
	dirtyCards := make([]uuid.UUID, 0, len(req.Events))
	seenCards := make(map[uuid.UUID]struct{}, len(req.Events))
	for _, event := range req.Events {
		if err := event.Validate(); err != nil {
			log.Warn("rejecting invalid pushed event",
				slog.String("event_id", event.ID.String()),
				slog.String("error", redact.Error(err)))
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid review event")
			return
		}

		err := h.reviewStore.Append(r.Context(), event)
		if errors.Is(err, store.ErrReviewEventExists) {
			duplicates++
			continue
		}
		if err != nil {
			shared.RespondWithErrorAndLog(w, r,
				http.StatusInternalServerError, "Failed to store events", err)
			return
		}
		accepted++

		if _, ok := seenCards[event.CardID]; !ok {
			seenCards[event.CardID] = struct{}{}
			dirtyCards = append(dirtyCards, event.CardID)
		}
	}

	for _, cardID := range dirtyCards {
		if _, err := h.studyService.RebuildCard(r.Context(), cardID); err != nil {
			shared.RespondWithErrorAndLog(w, r,
				http.StatusInternalServerError, "Failed to apply events", err)
			return
		}
	}

	log.Info("sync push processed",
		slog.Int("accepted", accepted),
		slog.Int("duplicates", duplicates))
	shared.RespondWithJSON(w, r, http.StatusCreated, PushEventsResponse{
		Accepted:   accepted,
		Duplicates: duplicates,
	})
}

// PullChanges handles GET /sync/changes requests. It returns every row
// of the caller's decks changed since the cursor in the since query
// parameter (RFC 3339; omitted means everything), stamped with the
// server clock for use as the next cursor.
func (h *SyncHandler) PullChanges(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found")
		return
	}

	var since time.Time
	if raw := r.URL.Query().Get("since"); raw != "" {
		parsed, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid since timestamp")
			return
		}
		since = parsed
	}

	// Captured before the queries so rows written mid-pull land after
	// the cursor the client stores.
	serverTime := time.Now().UTC()

	decks, err := h.deckStore.ListByOwner(r.Context(), userID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r,
			http.StatusInternalServerError, "Failed to load changes", err)
		return
	}

	resp := syncsvc.PullResponse{ServerTime: serverTime}
	for _, deck := range decks {
		if deck.UpdatedAt.After(since) {
			resp.Decks = append(resp.Decks, deck)
		}

		notes, err := h.noteStore.ListByDeck(r.Context(), deck.ID)
		if err != nil {
			shared.RespondWithErrorAndLog(w, r,
				http.StatusInternalServerError, "Failed to load changes", err)
			return
		}
		for _, note := range notes {
			if note.UpdatedAt.After(since) {
				resp.Notes = append(resp.Notes, note)
			}
		}

		cards, err := h.cardStore.ListUpdatedSince(r.Context(), deck.ID, since)
		if err != nil {
			shared.RespondWithErrorAndLog(w, r,
				http.StatusInternalServerError, "Failed to load changes", err)
			return
		}
		resp.Cards = append(resp.Cards, cards...)

		events, err := h.reviewStore.ListByDeckSince(r.Context(), deck.ID, since)
		if err != nil {
			shared.RespondWithErrorAndLog(w, r,
				http.StatusInternalServerError, "Failed to load changes", err)
			return
		}
		resp.Events = append(resp.Events, events...)
	}

	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}
