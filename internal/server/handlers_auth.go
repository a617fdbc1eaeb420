package server

import (
	"fmt"
	"net/http"

	"github.com/rs/zerolog/log"

	"strava-filter/internal/auth"
	"strava-filter/internal/store"
)

func (s *Server) handleAuthorize(w http.ResponseWriter, r *http.Request) {
	state := s.states.New()
	http.Redirect(w, r, auth.AuthCodeURL(s.oauth, state), http.StatusFound)
}

func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if errParam := q.Get("error"); errParam != "" {
		writeError(w, http.StatusBadRequest, "authorization failed: "+errParam)
		return
	}
	if !s.states.Consume(q.Get("state")) {
		writeError(w, http.StatusBadRequest, "invalid or expired state")
		return
	}
	code := q.Get("code")
	if code == "" {
		writeError(w, http.StatusBadRequest, "no authorization code received")
		return
	}

	result, err := auth.Exchange(r.Context(), s.oauth, code)
	if err != nil {
		log.Error().Err(err).Msg("token exchange failed")
		writeError(w, http.StatusBadGateway, "failed to authorize with strava")
		return
	}

	user, err := s.store.UpsertUserFromToken(r.Context(), store.TokenGrant{
		StravaID:     result.Athlete.ID,
		Username:     result.Athlete.Username,
		AccessToken:  result.Token.AccessToken,
		RefreshToken: result.Token.RefreshToken,
		Expiry:       result.Token.Expiry,
	}, s.defaults)
	if err != nil {
		log.Error().Err(err).Int64("athlete_id", result.Athlete.ID).Msg("saving user")
		writeError(w, http.StatusInternalServerError, "failed to save user")
		return
	}

	if err := s.startSession(w, user.ID); err != nil {
		log.Error().Err(err).Int64("user_id", user.ID).Msg("starting session")
		writeError(w, http.StatusInternalServerError, "failed to start session")
		return
	}

	log.Info().
		Int64("athlete_id", user.StravaID).
		Int64("user_id", user.ID).
		Str("scope", result.Scope).
		Msg("athlete connected")
	http.Redirect(w, r, fmt.Sprintf("/api/users/%d/dashboard", user.ID), http.StatusSeeOther)
}
