package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(recoveryMiddleware)
	r.Use(loggingMiddleware)
	r.Use(securityHeadersMiddleware)

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)

	r.Route("/api", func(r chi.Router) {
		r.Get("/study/next", s.handleNextCard)
		r.Post("/study/answer", s.handleAnswer)
		r.Get("/study/counts", s.handleCounts)
		r.Post("/study/reset", s.handleReset)

		r.Post("/cards/suspend", s.handleSuspend)
		r.Post("/cards/unsuspend", s.handleUnsuspend)
		r.Post("/cards/bury", s.handleBury)
		r.Post("/cards/unbury-all", s.handleUnburyAll)
		r.Post("/cards/forget", s.handleForget)
		r.Post("/cards/reposition", s.handleReposition)
		r.Post("/notes/{id}/bury", s.handleBuryNote)

		r.Get("/decks", s.handleDeckList)
		r.Get("/decks/tree", s.handleDeckTree)
		r.Post("/decks", s.handleCreateDeck)
		r.Get("/decks/{id}", s.handleDeckDetail)
		r.Post("/decks/{id}/select", s.handleSelectDeck)
		r.Get("/decks/{id}/config", s.handleDeckConfig)
		r.Put("/decks/{id}/config", s.handleSaveDeckConfig)
		r.Post("/decks/{id}/rebuild", s.handleRebuildFiltered)
		r.Post("/decks/{id}/empty", s.handleEmptyFiltered)
	})

	return r
}
