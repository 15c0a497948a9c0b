package api

import (
	"net/http"

	"github.com/marcusv/decksched/internal/errors"
	"github.com/marcusv/decksched/internal/logger"
)

type cardIDsRequest struct {
	IDs []int64 `json:"ids"`
}

func (s *Server) decodeCardIDs(r *http.Request) ([]int64, error) {
	var req cardIDsRequest
	if err := decodeJSON(r, &req); err != nil {
		return nil, err
	}
	if len(req.IDs) == 0 {
		return nil, errors.NewValidationError("ids", "must not be empty")
	}
	return req.IDs, nil
}

func (s *Server) handleSuspend(w http.ResponseWriter, r *http.Request) {
	ids, err := s.decodeCardIDs(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	if err := s.Study.Suspend(r.Context(), ids); err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleUnsuspend(w http.ResponseWriter, r *http.Request) {
	ids, err := s.decodeCardIDs(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	if err := s.Study.Unsuspend(r.Context(), ids); err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleBury(w http.ResponseWriter, r *http.Request) {
	ids, err := s.decodeCardIDs(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	if err := s.Study.Bury(r.Context(), ids); err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleBuryNote(w http.ResponseWriter, r *http.Request) {
	noteID, err := idParam(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	logger.FromContext(r.Context()).Debug("burying note: id=%d", noteID)
	if err := s.Study.BuryNote(r.Context(), noteID); err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleUnburyAll(w http.ResponseWriter, r *http.Request) {
	if err := s.Study.UnburyAll(r.Context()); err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handleForget(w http.ResponseWriter, r *http.Request) {
	ids, err := s.decodeCardIDs(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	if err := s.Study.Forget(r.Context(), ids); err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]any{"ok": true})
}

type repositionRequest struct {
	Start int64   `json:"start"`
	IDs   []int64 `json:"ids"`
}

func (s *Server) handleReposition(w http.ResponseWriter, r *http.Request) {
	var req repositionRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}
	if len(req.IDs) == 0 {
		handleError(w, r, errors.NewValidationError("ids", "must not be empty"))
		return
	}
	if req.Start < 0 {
		handleError(w, r, errors.NewValidationError("start", "must not be negative"))
		return
	}
	if err := s.Study.Reposition(r.Context(), req.Start, req.IDs); err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]any{"ok": true})
}
