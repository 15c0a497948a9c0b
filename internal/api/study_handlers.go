package api

import (
	"net/http"
	"time"

	"github.com/marcusv/decksched/internal/logger"
	"github.com/marcusv/decksched/internal/models"
)

func (s *Server) handleNextCard(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	log.Debug("fetching next card")

	card, counts, err := s.Study.NextCard(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]any{
		"card":   card,
		"counts": counts,
	})
}

type answerRequest struct {
	CardID      int64   `json:"card_id"`
	Grade       int     `json:"grade"`
	TookSeconds float64 `json:"took_seconds"`
}

func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	var req answerRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	if req.TookSeconds < 0 {
		req.TookSeconds = 0
	}
	log.Debug("answering card: id=%d, grade=%d", req.CardID, req.Grade)

	took := time.Duration(req.TookSeconds * float64(time.Second))
	if err := s.Study.Answer(r.Context(), req.CardID, models.Grade(req.Grade), took); err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleCounts(w http.ResponseWriter, r *http.Request) {
	counts, err := s.Study.Counts(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]any{"counts": counts})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := s.Study.Reset(r.Context()); err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]any{"ok": true})
}
