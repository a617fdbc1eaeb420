package auth

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/oauth2"
)

const (
	// Strava OAuth endpoints
	AuthURL  = "https://www.strava.com/oauth/authorize"
	TokenURL = "https://www.strava.com/oauth/token"
)

// Scopes needed to read private activities and rename or hide them
// (Strava uses comma-separated scopes)
var Scopes = []string{
	"activity:write,activity:read_all",
}

// Config holds the OAuth client credentials
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string // e.g., "https://filter.example.com/auth/callback"
	// TokenURL overrides the Strava token endpoint, for tests
	TokenURL string
}

// NewOAuthConfig creates an oauth2.Config from our Config
func NewOAuthConfig(cfg Config) *oauth2.Config {
	tokenURL := cfg.TokenURL
	if tokenURL == "" {
		tokenURL = TokenURL
	}
	return &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:   AuthURL,
			TokenURL:  tokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
		RedirectURL: cfg.RedirectURL,
		Scopes:      Scopes,
	}
}

// AuthCodeURL is where the athlete is sent to grant access
func AuthCodeURL(cfg *oauth2.Config, state string) string {
	return cfg.AuthCodeURL(state, oauth2.SetAuthURLParam("approval_prompt", "auto"))
}

// AuthResult contains the token and athlete info from successful auth
type AuthResult struct {
	Token   *oauth2.Token
	Athlete Athlete
	Scope   string
}

// Athlete is the athlete summary Strava embeds in the token response
type Athlete struct {
	ID       int64
	Username string
}

// ErrNoAthlete is returned when the token response carries no athlete
var ErrNoAthlete = errors.New("token response has no athlete")

// Exchange trades an authorization code for tokens
func Exchange(ctx context.Context, cfg *oauth2.Config, code string) (*AuthResult, error) {
	token, err := cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("exchanging code for token: %w", err)
	}

	athlete := ExtractAthlete(token)
	if athlete.ID == 0 {
		return nil, ErrNoAthlete
	}

	scope, _ := token.Extra("scope").(string)
	return &AuthResult{Token: token, Athlete: athlete, Scope: scope}, nil
}

// ExtractAthlete extracts the athlete from the token extras
// Strava includes athlete info in the token response
func ExtractAthlete(token *oauth2.Token) Athlete {
	var a Athlete
	athlete, ok := token.Extra("athlete").(map[string]interface{})
	if !ok {
		return a
	}
	if id, ok := athlete["id"].(float64); ok {
		a.ID = int64(id)
	}
	if name, ok := athlete["username"].(string); ok {
		a.Username = name
	}
	return a
}
