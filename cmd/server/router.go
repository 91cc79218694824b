package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/lexvault/lexvault/internal/api"
	apiMiddleware "github.com/lexvault/lexvault/internal/api/middleware"
)

// setupRouter configures the application router with all routes and
// middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware)

	studyHandler := api.NewStudyHandler(app.studyService, app.logger)
	syncHandler := api.NewSyncHandler(
		app.deckStore,
		app.noteStore,
		app.cardStore,
		app.reviewStore,
		app.studyService,
		app.logger,
	)
	authMiddleware := apiMiddleware.NewAuthMiddleware(app.tokenVerifier)

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			// Study endpoints
			r.Get("/study/next", studyHandler.GetNextCard)
			r.Post("/study/cards/{id}/review", studyHandler.SubmitReview)
			r.Post("/study/cards/{id}/postpone", studyHandler.PostponeCard)
			r.Post("/study/cards/{id}/rebuild", studyHandler.RebuildCard)
			r.Get("/study/decks/{id}/counts", studyHandler.GetQueueCounts)

			// Sync endpoints for offline clients
			r.Post("/sync/events", syncHandler.PushEvents)
			r.Get("/sync/changes", syncHandler.PullChanges)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("failed to write health check response", "error", err)
		}
	})

	return r
}
