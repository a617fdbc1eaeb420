package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/oauth2"
)

// RefreshLeeway is how long before expiry a token is refreshed
const RefreshLeeway = 60 * time.Second

// TokenSource wraps oauth2.TokenSource with persistence
// It refreshes tokens close to expiry and calls onRefresh with each new token
type TokenSource struct {
	ctx       context.Context
	config    *oauth2.Config
	token     *oauth2.Token
	onRefresh func(*oauth2.Token) error
	mu        sync.Mutex
}

// NewTokenSource creates a TokenSource for one athlete. ctx bounds the
// refresh requests; onRefresh persists refreshed tokens and may be nil.
func NewTokenSource(ctx context.Context, cfg *oauth2.Config, token *oauth2.Token, onRefresh func(*oauth2.Token) error) *TokenSource {
	return &TokenSource{
		ctx:       ctx,
		config:    cfg,
		token:     token,
		onRefresh: onRefresh,
	}
}

// Token returns a valid token, refreshing if necessary
func (ts *TokenSource) Token() (*oauth2.Token, error) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if ts.token == nil {
		return nil, errors.New("no token to refresh")
	}
	if !needsRefresh(ts.token) {
		return ts.token, nil
	}

	// Force the refresh grant; oauth2 would otherwise reuse a token it
	// still considers valid
	stale := *ts.token
	stale.Expiry = time.Unix(1, 0)
	newToken, err := ts.config.TokenSource(ts.ctx, &stale).Token()
	if err != nil {
		return nil, fmt.Errorf("refreshing token: %w", err)
	}

	if ts.onRefresh != nil {
		if err := ts.onRefresh(newToken); err != nil {
			return nil, fmt.Errorf("persisting refreshed token: %w", err)
		}
	}

	ts.token = newToken
	return newToken, nil
}

// IsExpired checks if the current token is expired or will expire within the leeway
func (ts *TokenSource) IsExpired() bool {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return needsRefresh(ts.token)
}

func needsRefresh(token *oauth2.Token) bool {
	return token == nil || time.Until(token.Expiry) <= RefreshLeeway
}
