package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"strava-filter/internal/analysis"
	"strava-filter/internal/store"
)

// Settings is the editable per-user configuration
type Settings struct {
	Thresholds      analysis.Thresholds `json:"thresholds"`
	TitleGeneration *bool               `json:"title_generation,omitempty"`
}

// userID parses the {id} path parameter, writing a 400 on failure
func userID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return 0, false
	}
	return id, true
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}
	d, err := s.dashboard.Get(r.Context(), id)
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}
	s.writeSettings(w, r, id)
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}

	var req Settings
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	// Make sure the user exists before reporting validation errors
	if _, err := s.store.GetUser(r.Context(), id); err != nil {
		s.storeError(w, err)
		return
	}

	if len(req.Thresholds) > 0 {
		if err := s.store.UpdateThresholds(r.Context(), id, req.Thresholds); err != nil {
			if errors.Is(err, store.ErrUserNotFound) {
				s.storeError(w, err)
				return
			}
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	if req.TitleGeneration != nil {
		if err := s.store.SetTitleGeneration(r.Context(), id, *req.TitleGeneration); err != nil {
			s.storeError(w, err)
			return
		}
	}

	log.Info().Int64("user_id", id).Msg("settings updated")
	s.writeSettings(w, r, id)
}

func (s *Server) writeSettings(w http.ResponseWriter, r *http.Request, id int64) {
	u, err := s.store.GetUser(r.Context(), id)
	if err != nil {
		s.storeError(w, err)
		return
	}
	titles := u.TitleGeneration
	writeJSON(w, http.StatusOK, Settings{Thresholds: u.Thresholds(), TitleGeneration: &titles})
}

func (s *Server) storeError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrUserNotFound) {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	log.Error().Err(err).Msg("store error")
	writeError(w, http.StatusInternalServerError, "internal error")
}
