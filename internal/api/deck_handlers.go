package api

import (
	"net/http"

	"github.com/marcusv/decksched/internal/errors"
	"github.com/marcusv/decksched/internal/logger"
	"github.com/marcusv/decksched/internal/models"
)

func (s *Server) handleDeckList(w http.ResponseWriter, r *http.Request) {
	rows, err := s.Decks.List(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]any{"decks": rows})
}

func (s *Server) handleDeckTree(w http.ResponseWriter, r *http.Request) {
	tree, err := s.Decks.Tree(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]any{"tree": tree})
}

type createDeckRequest struct {
	Name    string `json:"name"`
	Dynamic bool   `json:"dynamic"`
}

func (s *Server) handleCreateDeck(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	var req createDeckRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	log.Debug("creating deck: name=%q, dynamic=%v", req.Name, req.Dynamic)

	deck, err := s.Decks.Create(r.Context(), req.Name, req.Dynamic)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusCreated, map[string]any{"deck": deck})
}

func (s *Server) handleDeckDetail(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	deck, err := s.Decks.Get(r.Context(), id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]any{"deck": deck})
}

func (s *Server) handleSelectDeck(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	logger.FromContext(r.Context()).Debug("selecting deck: id=%d", id)
	if err := s.Decks.Select(r.Context(), id); err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleDeckConfig(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	cfg, err := s.Decks.Config(r.Context(), id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]any{"config": cfg})
}

func (s *Server) handleSaveDeckConfig(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		handleError(w, r, err)
		return
	}

	var cfg models.DeckConfig
	if err := decodeJSON(r, &cfg); err != nil {
		handleError(w, r, err)
		return
	}

	// the config being saved must be the one the deck references
	current, err := s.Decks.Config(r.Context(), id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	cfg.ID = current.ID
	if err := s.Decks.SaveConfig(r.Context(), &cfg); err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]any{"config": cfg})
}

type rebuildRequest struct {
	CardIDs []int64 `json:"card_ids"`
}

func (s *Server) handleRebuildFiltered(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		handleError(w, r, err)
		return
	}

	var req rebuildRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	if len(req.CardIDs) == 0 {
		handleError(w, r, errors.NewValidationError("card_ids", "must not be empty"))
		return
	}

	moved, err := s.Study.RebuildFiltered(r.Context(), id, req.CardIDs)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]any{"moved": moved})
}

func (s *Server) handleEmptyFiltered(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	if err := s.Study.EmptyFiltered(r.Context(), id); err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]any{"ok": true})
}
