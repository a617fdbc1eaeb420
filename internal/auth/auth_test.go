package auth

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/oauth2"
)

func tokenServer(t *testing.T, body string, calls *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls != nil {
			atomic.AddInt32(calls, 1)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("parsing form: %v", err)
		}
		if r.PostForm.Get("client_id") != "id" {
			t.Errorf("client_id not sent in params")
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestAuthCodeURL(t *testing.T) {
	cfg := NewOAuthConfig(Config{ClientID: "id", ClientSecret: "secret", RedirectURL: "https://x.example/auth/callback"})

	u, err := url.Parse(AuthCodeURL(cfg, "state-1"))
	if err != nil {
		t.Fatal(err)
	}
	q := u.Query()
	checks := map[string]string{
		"client_id":       "id",
		"state":           "state-1",
		"scope":           "activity:write,activity:read_all",
		"approval_prompt": "auto",
		"response_type":   "code",
		"redirect_uri":    "https://x.example/auth/callback",
	}
	for k, want := range checks {
		if got := q.Get(k); got != want {
			t.Errorf("%s = %q, want %q", k, got, want)
		}
	}
}

func TestExchange(t *testing.T) {
	srv := tokenServer(t, `{"access_token":"a1","refresh_token":"r1","expires_in":21600,"token_type":"Bearer",
		"athlete":{"id":7,"username":"jo"}}`, nil)
	cfg := NewOAuthConfig(Config{ClientID: "id", ClientSecret: "secret", TokenURL: srv.URL})

	result, err := Exchange(context.Background(), cfg, "code")
	if err != nil {
		t.Fatalf("Exchange() error: %v", err)
	}
	if result.Token.AccessToken != "a1" || result.Token.RefreshToken != "r1" {
		t.Errorf("token = %+v", result.Token)
	}
	if result.Athlete.ID != 7 || result.Athlete.Username != "jo" {
		t.Errorf("athlete = %+v", result.Athlete)
	}
}

func TestExchangeWithoutAthlete(t *testing.T) {
	srv := tokenServer(t, `{"access_token":"a1","refresh_token":"r1","expires_in":21600,"token_type":"Bearer"}`, nil)
	cfg := NewOAuthConfig(Config{ClientID: "id", ClientSecret: "secret", TokenURL: srv.URL})

	if _, err := Exchange(context.Background(), cfg, "code"); !errors.Is(err, ErrNoAthlete) {
		t.Errorf("Exchange() error = %v, want ErrNoAthlete", err)
	}
}

func TestExtractAthleteMissing(t *testing.T) {
	if a := ExtractAthlete(&oauth2.Token{}); a.ID != 0 || a.Username != "" {
		t.Errorf("ExtractAthlete() = %+v, want zero", a)
	}
}

func TestTokenSource(t *testing.T) {
	tests := []struct {
		name        string
		expiresIn   time.Duration
		wantRefresh bool
	}{
		{"fresh token is reused", time.Hour, false},
		{"token inside leeway is refreshed", 10 * time.Second, true},
		{"expired token is refreshed", -time.Hour, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			srv := tokenServer(t, `{"access_token":"new","refresh_token":"r2","expires_in":21600,"token_type":"Bearer"}`, &calls)
			cfg := NewOAuthConfig(Config{ClientID: "id", ClientSecret: "secret", TokenURL: srv.URL})

			var persisted *oauth2.Token
			ts := NewTokenSource(context.Background(), cfg, &oauth2.Token{
				AccessToken:  "old",
				RefreshToken: "r1",
				Expiry:       time.Now().Add(tt.expiresIn),
			}, func(tok *oauth2.Token) error {
				persisted = tok
				return nil
			})

			tok, err := ts.Token()
			if err != nil {
				t.Fatalf("Token() error: %v", err)
			}

			refreshed := atomic.LoadInt32(&calls) == 1
			if refreshed != tt.wantRefresh {
				t.Errorf("refreshed = %v, want %v", refreshed, tt.wantRefresh)
			}
			if tt.wantRefresh {
				if tok.AccessToken != "new" || persisted == nil || persisted.RefreshToken != "r2" {
					t.Errorf("refresh not applied: token=%+v persisted=%+v", tok, persisted)
				}
				if ts.IsExpired() {
					t.Error("refreshed token should not be expired")
				}
			} else if tok.AccessToken != "old" || persisted != nil {
				t.Errorf("fresh token should be reused untouched")
			}
		})
	}
}

func TestTokenSourcePersistFailure(t *testing.T) {
	srv := tokenServer(t, `{"access_token":"new","refresh_token":"r2","expires_in":21600,"token_type":"Bearer"}`, nil)
	cfg := NewOAuthConfig(Config{ClientID: "id", ClientSecret: "secret", TokenURL: srv.URL})

	ts := NewTokenSource(context.Background(), cfg, &oauth2.Token{RefreshToken: "r1"}, func(*oauth2.Token) error {
		return errors.New("disk full")
	})
	if _, err := ts.Token(); err == nil {
		t.Error("expected error when persisting fails")
	}
}

func TestStateStore(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s := NewStateStore()
	s.now = func() time.Time { return now }

	state := s.New()
	if state == "" {
		t.Fatal("New() returned empty state")
	}
	if s.Consume("forged") {
		t.Error("unknown state accepted")
	}
	if !s.Consume(state) {
		t.Error("issued state rejected")
	}
	if s.Consume(state) {
		t.Error("state accepted twice")
	}

	expired := s.New()
	now = now.Add(StateTTL)
	if s.Consume(expired) {
		t.Error("expired state accepted")
	}

	s.New()
	now = now.Add(StateTTL + time.Second)
	s.New() // sweeps the previous one
	if len(s.states) != 1 {
		t.Errorf("expired states not swept: %d left", len(s.states))
	}
}
