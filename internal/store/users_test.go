package store

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"strava-filter/internal/analysis"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func createUser(t *testing.T, s *Store, stravaID int64) *User {
	t.Helper()
	u, err := s.UpsertUserFromToken(context.Background(), TokenGrant{
		StravaID:     stravaID,
		Username:     "runner",
		AccessToken:  "access",
		RefreshToken: "refresh",
		Expiry:       time.Date(2024, 1, 1, 18, 0, 0, 0, time.UTC),
	}, UserDefaults{Thresholds: analysis.DefaultThresholds(), TitleGeneration: true})
	if err != nil {
		t.Fatalf("UpsertUserFromToken() error: %v", err)
	}
	return u
}

func TestUpsertUserFromToken(t *testing.T) {
	s := NewTestStore(t)
	ctx := context.Background()

	u := createUser(t, s, 1001)
	if u.ID == 0 || u.StravaID != 1001 || u.Username != "runner" {
		t.Errorf("created user = %+v", u)
	}
	if u.RunThreshold != 3600 || u.RideThreshold != 7200 || u.WalkThreshold != 10800 {
		t.Errorf("default thresholds = %d/%d/%d", u.RunThreshold, u.RideThreshold, u.WalkThreshold)
	}
	if !u.TitleGeneration {
		t.Error("TitleGeneration should come from defaults")
	}
	if !u.TokenExpiry.Equal(time.Date(2024, 1, 1, 18, 0, 0, 0, time.UTC)) {
		t.Errorf("TokenExpiry = %v", u.TokenExpiry)
	}
	if u.LastActivityAt != nil {
		t.Errorf("LastActivityAt = %v, want nil", u.LastActivityAt)
	}

	// Customize, then re-authorize: settings survive, tokens change
	if err := s.UpdateThresholds(ctx, u.ID, analysis.Thresholds{"Run": 1200}); err != nil {
		t.Fatalf("UpdateThresholds() error: %v", err)
	}
	again, err := s.UpsertUserFromToken(ctx, TokenGrant{
		StravaID:     1001,
		AccessToken:  "access-2",
		RefreshToken: "refresh-2",
		Expiry:       time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
	}, UserDefaults{Thresholds: analysis.Thresholds{"Run": 1, "Ride": 1, "Walk": 1}})
	if err != nil {
		t.Fatalf("second UpsertUserFromToken() error: %v", err)
	}
	if again.ID != u.ID {
		t.Errorf("re-authorization created a new user: %d vs %d", again.ID, u.ID)
	}
	if again.AccessToken != "access-2" || again.RefreshToken != "refresh-2" {
		t.Errorf("tokens not updated: %+v", again)
	}
	if again.RunThreshold != 1200 || again.RideThreshold != 7200 {
		t.Errorf("settings overwritten: run=%d ride=%d", again.RunThreshold, again.RideThreshold)
	}
	if again.Username != "runner" {
		t.Errorf("empty username should keep the old one, got %q", again.Username)
	}
}

func TestGetUserNotFound(t *testing.T) {
	s := NewTestStore(t)
	ctx := context.Background()

	if _, err := s.GetUser(ctx, 99); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("GetUser() error = %v, want ErrUserNotFound", err)
	}
	if _, err := s.GetUserByStravaID(ctx, 99); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("GetUserByStravaID() error = %v, want ErrUserNotFound", err)
	}
	if err := s.UpdateTokens(ctx, 99, "a", "r", time.Now()); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("UpdateTokens() error = %v, want ErrUserNotFound", err)
	}
	if err := s.ApplyDelta(ctx, 99, analysis.NewDelta(true, true), time.Now()); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("ApplyDelta() error = %v, want ErrUserNotFound", err)
	}
}

func TestUpdateThresholds(t *testing.T) {
	s := NewTestStore(t)
	ctx := context.Background()
	u := createUser(t, s, 1)

	tests := []struct {
		name        string
		thresholds  analysis.Thresholds
		expectError bool
		expected    analysis.Thresholds
	}{
		{
			name:       "partial update",
			thresholds: analysis.Thresholds{"Ride": 5400},
			expected:   analysis.Thresholds{"Run": 3600, "Ride": 5400, "Walk": 10800},
		},
		{
			name:        "unknown type",
			thresholds:  analysis.Thresholds{"Swim": 600},
			expectError: true,
			expected:    analysis.Thresholds{"Run": 3600, "Ride": 5400, "Walk": 10800},
		},
		{
			name:        "negative value",
			thresholds:  analysis.Thresholds{"Walk": -5},
			expectError: true,
			expected:    analysis.Thresholds{"Run": 3600, "Ride": 5400, "Walk": 10800},
		},
		{
			name:       "zero disables hiding",
			thresholds: analysis.Thresholds{"Run": 0},
			expected:   analysis.Thresholds{"Run": 0, "Ride": 5400, "Walk": 10800},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.UpdateThresholds(ctx, u.ID, tt.thresholds)
			if (err != nil) != tt.expectError {
				t.Fatalf("UpdateThresholds() error = %v, expectError %v", err, tt.expectError)
			}
			got, err := s.GetUser(ctx, u.ID)
			if err != nil {
				t.Fatal(err)
			}
			th := got.Thresholds()
			for k, v := range tt.expected {
				if th[k] != v {
					t.Errorf("%s threshold = %d, want %d", k, th[k], v)
				}
			}
		})
	}
}

func TestSetTitleGeneration(t *testing.T) {
	s := NewTestStore(t)
	ctx := context.Background()
	u := createUser(t, s, 1)

	if err := s.SetTitleGeneration(ctx, u.ID, false); err != nil {
		t.Fatalf("SetTitleGeneration() error: %v", err)
	}
	got, _ := s.GetUser(ctx, u.ID)
	if got.TitleGeneration {
		t.Error("title generation should be off")
	}
}

func TestApplyDeltaAndDashboardStats(t *testing.T) {
	s := NewTestStore(t)
	ctx := context.Background()
	u := createUser(t, s, 1)

	at := time.Date(2024, 3, 1, 7, 30, 0, 0, time.UTC)
	deltas := []analysis.Delta{
		analysis.NewDelta(true, true),
		analysis.NewDelta(false, true),
		analysis.NewDelta(false, false),
	}
	for _, d := range deltas {
		if err := s.ApplyDelta(ctx, u.ID, d, at); err != nil {
			t.Fatalf("ApplyDelta() error: %v", err)
		}
	}

	stats, err := s.DashboardStats(ctx, u.ID)
	if err != nil {
		t.Fatalf("DashboardStats() error: %v", err)
	}
	if stats.Processed != 3 || stats.Hidden != 1 || stats.Titled != 2 {
		t.Errorf("stats = %+v", stats)
	}
	if math.Abs(stats.HidePercentage-100.0/3) > 1e-9 {
		t.Errorf("HidePercentage = %v", stats.HidePercentage)
	}
	if stats.LastActivityAt == nil || !stats.LastActivityAt.Equal(at) {
		t.Errorf("LastActivityAt = %v, want %v", stats.LastActivityAt, at)
	}
}

func TestDashboardStatsNoActivities(t *testing.T) {
	s := NewTestStore(t)
	u := createUser(t, s, 1)

	stats, err := s.DashboardStats(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("DashboardStats() error: %v", err)
	}
	if stats.HidePercentage != 0 || stats.Processed != 0 {
		t.Errorf("stats = %+v, want zero", stats)
	}
}
