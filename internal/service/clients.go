package service

import (
	"context"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"strava-filter/internal/auth"
	"strava-filter/internal/store"
	"strava-filter/internal/strava"
)

// StravaClients builds per-athlete API clients. Tokens refreshed along the
// way are written back to the store, and every client shares one rate limiter.
type StravaClients struct {
	oauth   *oauth2.Config
	store   *store.Store
	limiter *strava.RateLimiter
	opts    []strava.Option
}

// NewStravaClients creates a client factory. Extra options are applied to
// every client after the shared rate limiter.
func NewStravaClients(oauthCfg *oauth2.Config, st *store.Store, opts ...strava.Option) *StravaClients {
	return &StravaClients{
		oauth:   oauthCfg,
		store:   st,
		limiter: strava.NewRateLimiter(),
		opts:    opts,
	}
}

// ForUser returns a client authorized as user. It satisfies ClientFactory.
func (c *StravaClients) ForUser(ctx context.Context, user *store.User) ActivityClient {
	token := &oauth2.Token{
		AccessToken:  user.AccessToken,
		RefreshToken: user.RefreshToken,
		Expiry:       user.TokenExpiry,
		TokenType:    "Bearer",
	}
	userID := user.ID
	ts := auth.NewTokenSource(ctx, c.oauth, token, func(t *oauth2.Token) error {
		log.Debug().Int64("user_id", userID).Time("expiry", t.Expiry).Msg("persisting refreshed token")
		return c.store.UpdateTokens(context.WithoutCancel(ctx), userID, t.AccessToken, t.RefreshToken, t.Expiry)
	})

	opts := append([]strava.Option{strava.WithRateLimiter(c.limiter)}, c.opts...)
	return strava.NewClient(ts, opts...)
}

// RateLimitStatus reports the shared limiter's remaining budget
func (c *StravaClients) RateLimitStatus() (shortRemaining, dailyRemaining int) {
	return c.limiter.Status()
}
