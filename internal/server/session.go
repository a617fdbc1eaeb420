package server

import (
	"net/http"

	"github.com/gorilla/securecookie"
	"github.com/rs/zerolog/log"
)

// SessionCookie carries the signed-in athlete's user id
const SessionCookie = "strava_filter_session"

// sessionMaxAge is 30 days in seconds
const sessionMaxAge = 30 * 24 * 60 * 60

type session struct {
	UserID int64 `json:"uid"`
}

func newSessionCodec(key []byte) *securecookie.SecureCookie {
	if len(key) == 0 {
		log.Warn().Msg("no session secret configured, logins will not survive a restart")
		key = securecookie.GenerateRandomKey(32)
	}
	codec := securecookie.New(key, nil)
	codec.MaxAge(sessionMaxAge)
	codec.SetSerializer(securecookie.JSONEncoder{})
	return codec
}

// startSession signs userID in on this browser
func (s *Server) startSession(w http.ResponseWriter, userID int64) error {
	value, err := s.sessions.Encode(SessionCookie, session{UserID: userID})
	if err != nil {
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    value,
		Path:     "/",
		MaxAge:   sessionMaxAge,
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (s *Server) endSession(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

// sessionUser returns the user id from a valid session cookie
func (s *Server) sessionUser(r *http.Request) (int64, bool) {
	c, err := r.Cookie(SessionCookie)
	if err != nil {
		return 0, false
	}
	var sess session
	if err := s.sessions.Decode(SessionCookie, c.Value, &sess); err != nil {
		log.Debug().Err(err).Msg("rejected session cookie")
		return 0, false
	}
	return sess.UserID, sess.UserID > 0
}

// requireOwner lets a request through only when the session belongs to the
// user named by the {id} path parameter
func (s *Server) requireOwner(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		current, ok := s.sessionUser(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "login required")
			return
		}
		id, ok := userID(w, r)
		if !ok {
			return
		}
		if id != current {
			log.Warn().
				Int64("session_user", current).
				Int64("user_id", id).
				Str("request_id", RequestIDFrom(r.Context())).
				Msg("access to another user's data denied")
			writeError(w, http.StatusForbidden, "forbidden")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	id, ok := s.sessionUser(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "login required")
		return
	}
	s.endSession(w)
	log.Info().Int64("user_id", id).Msg("athlete logged out")
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}
