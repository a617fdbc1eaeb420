package server

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/securecookie"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"strava-filter/internal/auth"
	"strava-filter/internal/service"
	"strava-filter/internal/store"
)

// Options holds the server's dependencies
type Options struct {
	Store *store.Store
	OAuth *oauth2.Config
	// VerifyToken must match hub.verify_token on subscription validation
	VerifyToken string
	// WebhookSecret enables X-Strava-Signature checks when set
	WebhookSecret string
	// Defaults apply to athletes authorizing for the first time
	Defaults store.UserDefaults
	// SessionKey signs login cookies; a random key is used when empty
	SessionKey []byte
	// SecureCookies sets the Secure flag, for deployments behind https
	SecureCookies bool
	// RateLimits, when set, is reported by /healthz
	RateLimits RateLimitReporter
}

// RateLimitReporter exposes the remaining Strava API budget
type RateLimitReporter interface {
	RateLimitStatus() (shortRemaining, dailyRemaining int)
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	store         *store.Store
	dashboard     *service.DashboardService
	oauth         *oauth2.Config
	states        *auth.StateStore
	verifyToken   string
	webhookSecret string
	defaults      store.UserDefaults
	sessions      *securecookie.SecureCookie
	secureCookies bool
	rateLimits    RateLimitReporter
	router        chi.Router
}

// New creates a new Server with all routes configured.
func New(opts Options) *Server {
	s := &Server{
		store:         opts.Store,
		dashboard:     service.NewDashboardService(opts.Store),
		oauth:         opts.OAuth,
		states:        auth.NewStateStore(),
		verifyToken:   opts.VerifyToken,
		webhookSecret: opts.WebhookSecret,
		defaults:      opts.Defaults,
		sessions:      newSessionCodec(opts.SessionKey),
		secureCookies: opts.SecureCookies,
		rateLimits:    opts.RateLimits,
		router:        chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(RequestID)
	s.router.Use(RequestLogging)
	s.router.Use(middleware.Recoverer)

	s.router.Get("/healthz", s.handleHealth)

	// Strava push subscription
	s.router.Get("/webhook", s.handleWebhookVerify)
	s.router.Post("/webhook", s.handleWebhookEvent)

	s.router.Route("/auth", func(r chi.Router) {
		r.Get("/authorize", s.handleAuthorize)
		r.Get("/callback", s.handleCallback)
		r.Get("/logout", s.handleLogout)
	})

	s.router.Route("/api/users/{id}", func(r chi.Router) {
		r.Use(s.requireOwner)
		r.Get("/dashboard", s.handleDashboard)
		r.Get("/settings", s.handleGetSettings)
		r.Put("/settings", s.handleUpdateSettings)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(); err != nil {
		log.Error().Err(err).Msg("health check failed")
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	queue, err := s.store.QueueCounts(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("counting queue")
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	resp := healthResponse{Status: "ok", Queue: queue}
	if s.rateLimits != nil {
		short, daily := s.rateLimits.RateLimitStatus()
		resp.RateLimit = &rateLimitStatus{ShortRemaining: short, DailyRemaining: daily}
	}
	writeJSON(w, http.StatusOK, resp)
}

type healthResponse struct {
	Status    string           `json:"status"`
	Queue     store.QueueStats `json:"queue"`
	RateLimit *rateLimitStatus `json:"rate_limit,omitempty"`
}

type rateLimitStatus struct {
	ShortRemaining int `json:"short_remaining"`
	DailyRemaining int `json:"daily_remaining"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
