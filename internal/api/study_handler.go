package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/lexvault/lexvault/internal/api/shared"
	"github.com/lexvault/lexvault/internal/domain"
	"github.com/lexvault/lexvault/internal/platform/logger"
	"github.com/lexvault/lexvault/internal/redact"
	"github.com/lexvault/lexvault/internal/service/study"
)

// StudyHandler handles study-related HTTP requests.
type StudyHandler struct {
	studyService study.StudyService
	logger       *slog.Logger
}

// NewStudyHandler creates a new StudyHandler. It panics on nil
// dependencies.
func NewStudyHandler(studyService study.StudyService, log *slog.Logger) *StudyHandler {
	if studyService == nil {
		panic("study service cannot be nil for StudyHandler")
	}
	if log == nil {
		panic("logger cannot be nil for StudyHandler")
	}

	return &StudyHandler{
		studyService: studyService,
		logger:       log.With(slog.String("component", "study_handler")),
	}
}

// GetNextCard handles GET /study/next requests. It picks the next card
// due in the deck given by the deck_id query parameter. Optional
// parameters: exclude_note_ids (comma-separated UUIDs) and
// ignore_daily_limit (boolean).
func (h *StudyHandler) GetNextCard(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	deckID, err := uuid.Parse(r.URL.Query().Get("deck_id"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Valid deck_id is required")
		return
	}

	opts := study.NextCardOptions{
		IgnoreDailyLimit: r.URL.Query().Get("ignore_daily_limit") == "true",
	}
	if raw := r.URL.Query().Get("exclude_note_ids"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			noteID, err := uuid.Parse(strings.TrimSpace(part))
			if err != nil {
				shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid exclude_note_ids")
				return
			}
			opts.ExcludedNoteIDs = append(opts.ExcludedNoteIDs, noteID)
		}
	}

	next, err := h.studyService.GetNextCard(r.Context(), deckID, opts)
	if errors.Is(err, study.ErrNoCardsDue) {
		log.Debug("no cards due", slog.String("deck_id", deckID.String()))
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err != nil {
		statusCode := MapErrorToStatusCode(err)
		safeMessage := GetSafeErrorMessage(err)
		if statusCode == http.StatusInternalServerError {
			safeMessage = "Failed to get next card"
		}
		shared.RespondWithErrorAndLog(w, r, statusCode, safeMessage, err)
		return
	}

	log.Debug("selected next card",
		slog.String("deck_id", deckID.String()),
		slog.String("card_id", next.Card.ID.String()),
		slog.String("queue", string(next.Card.Queue)))
	shared.RespondWithJSON(w, r, http.StatusOK, next)
}

// SubmitReview handles POST /study/cards/{id}/review requests.
func (h *StudyHandler) SubmitReview(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	cardID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid card ID format")
		return
	}

	var req SubmitReviewRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		log.Warn("invalid request format",
			slog.String("error", redact.Error(err)),
			slog.String("card_id", cardID.String()))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.Validate.Struct(req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	sub := study.ReviewSubmission{
		Rating:       domain.Rating(req.Rating),
		TimeSpentMs:  req.TimeSpentMs,
		UserAnswer:   req.UserAnswer,
		RecordingRef: req.RecordingRef,
	}
	if req.SessionID != nil {
		sessionID, err := uuid.Parse(*req.SessionID)
		if err != nil {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid session_id format")
			return
		}
		sub.SessionID = &sessionID
	}

	result, err := h.studyService.SubmitReview(r.Context(), cardID, sub)
	if err != nil {
		statusCode := MapErrorToStatusCode(err)
		safeMessage := GetSafeErrorMessage(err)
		if statusCode == http.StatusInternalServerError {
			safeMessage = "Failed to submit review"
		}
		shared.RespondWithErrorAndLog(w, r, statusCode, safeMessage, err)
		return
	}

	log.Debug("review submitted",
		slog.String("card_id", cardID.String()),
		slog.String("rating", req.Rating),
		slog.String("next_queue", string(result.NextQueue)))
	shared.RespondWithJSON(w, r, http.StatusOK, result)
}

// PostponeCard handles POST /study/cards/{id}/postpone requests.
func (h *StudyHandler) PostponeCard(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	cardID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid card ID format")
		return
	}

	var req PostponeCardRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.Validate.Struct(req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	card, err := h.studyService.PostponeCard(r.Context(), cardID, req.Days)
	if err != nil {
		statusCode := MapErrorToStatusCode(err)
		safeMessage := GetSafeErrorMessage(err)
		if statusCode == http.StatusInternalServerError {
			safeMessage = "Failed to postpone card"
		}
		shared.RespondWithErrorAndLog(w, r, statusCode, safeMessage, err)
		return
	}

	log.Debug("card postponed",
		slog.String("card_id", cardID.String()),
		slog.Int("days", req.Days))
	shared.RespondWithJSON(w, r, http.StatusOK, card)
}

// RebuildCard handles POST /study/cards/{id}/rebuild requests. It
// recomputes the card's scheduling state from its review event history.
func (h *StudyHandler) RebuildCard(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	cardID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid card ID format")
		return
	}

	card, err := h.studyService.RebuildCard(r.Context(), cardID)
	if err != nil {
		statusCode := MapErrorToStatusCode(err)
		safeMessage := GetSafeErrorMessage(err)
		if statusCode == http.StatusInternalServerError {
			safeMessage = "Failed to rebuild card"
		}
		shared.RespondWithErrorAndLog(w, r, statusCode, safeMessage, err)
		return
	}

	log.Info("card rebuilt from event history", slog.String("card_id", cardID.String()))
	shared.RespondWithJSON(w, r, http.StatusOK, card)
}

// GetQueueCounts handles GET /study/decks/{id}/counts requests.
func (h *StudyHandler) GetQueueCounts(w http.ResponseWriter, r *http.Request) {
	deckID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid deck ID format")
		return
	}

	counts, err := h.studyService.GetQueueCounts(r.Context(), deckID)
	if err != nil {
		statusCode := MapErrorToStatusCode(err)
		safeMessage := GetSafeErrorMessage(err)
		if statusCode == http.StatusInternalServerError {
			safeMessage = "Failed to get queue counts"
		}
		shared.RespondWithErrorAndLog(w, r, statusCode, safeMessage, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, counts)
}
