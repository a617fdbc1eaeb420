package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"strava-filter/internal/analysis"
)

const userColumns = `id, strava_id, COALESCE(username, ''), access_token, refresh_token, token_expiry,
	run_threshold, ride_threshold, walk_threshold, title_generation,
	activities_processed, activities_hidden, activities_titled, last_activity_at, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*User, error) {
	var (
		u            User
		tokenExpiry  int64
		titleGen     int
		lastActivity sql.NullInt64
		createdAt    int64
	)
	err := row.Scan(&u.ID, &u.StravaID, &u.Username, &u.AccessToken, &u.RefreshToken, &tokenExpiry,
		&u.RunThreshold, &u.RideThreshold, &u.WalkThreshold, &titleGen,
		&u.ActivitiesProcessed, &u.ActivitiesHidden, &u.ActivitiesTitled, &lastActivity, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	u.TokenExpiry = time.Unix(tokenExpiry, 0).UTC()
	u.TitleGeneration = titleGen != 0
	u.LastActivityAt = timeFromNull(lastActivity)
	u.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &u, nil
}

// UpsertUserFromToken creates the user on first authorization, or refreshes
// the tokens and username of an existing one. Settings and counters of an
// existing user are left alone.
func (s *Store) UpsertUserFromToken(ctx context.Context, grant TokenGrant, defaults UserDefaults) (*User, error) {
	th := defaults.Thresholds
	if th == nil {
		th = analysis.DefaultThresholds()
	}
	now := s.now().Unix()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (strava_id, username, access_token, refresh_token, token_expiry,
			run_threshold, ride_threshold, walk_threshold, title_generation, created_at, updated_at)
		VALUES (?, NULLIF(?, ''), ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(strava_id) DO UPDATE SET
			username = COALESCE(excluded.username, users.username),
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			token_expiry = excluded.token_expiry,
			updated_at = excluded.updated_at
	`, grant.StravaID, grant.Username, grant.AccessToken, grant.RefreshToken, grant.Expiry.Unix(),
		th["Run"], th["Ride"], th["Walk"], boolToInt(defaults.TitleGeneration), now, now)
	if err != nil {
		return nil, fmt.Errorf("upserting user %d: %w", grant.StravaID, err)
	}

	return s.GetUserByStravaID(ctx, grant.StravaID)
}

// GetUser retrieves a user by internal id
func (s *Store) GetUser(ctx context.Context, id int64) (*User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

// GetUserByStravaID retrieves a user by Strava athlete id
func (s *Store) GetUserByStravaID(ctx context.Context, stravaID int64) (*User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE strava_id = ?`, stravaID)
	return scanUser(row)
}

// UpdateThresholds replaces the hide thresholds for the given activity types.
// Types not present in thresholds keep their current value.
func (s *Store) UpdateThresholds(ctx context.Context, userID int64, thresholds analysis.Thresholds) error {
	current, err := s.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	merged := current.Thresholds()
	for k, v := range thresholds {
		if _, ok := merged[k]; !ok {
			return fmt.Errorf("unsupported activity type %q", k)
		}
		if v < 0 {
			return fmt.Errorf("threshold for %s must not be negative", k)
		}
		merged[k] = v
	}

	return s.execUser(ctx, userID, `
		UPDATE users
		SET run_threshold = ?, ride_threshold = ?, walk_threshold = ?, updated_at = ?
		WHERE id = ?
	`, merged["Run"], merged["Ride"], merged["Walk"], s.now().Unix(), userID)
}

// SetTitleGeneration turns automatic renaming on or off for a user
func (s *Store) SetTitleGeneration(ctx context.Context, userID int64, enabled bool) error {
	return s.execUser(ctx, userID, `
		UPDATE users SET title_generation = ?, updated_at = ? WHERE id = ?
	`, boolToInt(enabled), s.now().Unix(), userID)
}

// UpdateTokens stores refreshed OAuth tokens
func (s *Store) UpdateTokens(ctx context.Context, userID int64, accessToken, refreshToken string, expiresAt time.Time) error {
	return s.execUser(ctx, userID, `
		UPDATE users
		SET access_token = ?, refresh_token = ?, token_expiry = ?, updated_at = ?
		WHERE id = ?
	`, accessToken, refreshToken, expiresAt.Unix(), s.now().Unix(), userID)
}

// ApplyDelta adds a processing delta to the user's lifetime counters
func (s *Store) ApplyDelta(ctx context.Context, userID int64, delta analysis.Delta, at time.Time) error {
	return applyDelta(ctx, s.db, userID, delta, at)
}

// DashboardStats returns the user's counters and hide percentage
func (s *Store) DashboardStats(ctx context.Context, userID int64) (*DashboardStats, error) {
	u, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	stats := &DashboardStats{
		Processed:      u.ActivitiesProcessed,
		Hidden:         u.ActivitiesHidden,
		Titled:         u.ActivitiesTitled,
		LastActivityAt: u.LastActivityAt,
	}
	if stats.Processed > 0 {
		stats.HidePercentage = float64(stats.Hidden) / float64(stats.Processed) * 100
	}
	return stats, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func applyDelta(ctx context.Context, db execer, userID int64, delta analysis.Delta, at time.Time) error {
	result, err := db.ExecContext(ctx, `
		UPDATE users
		SET activities_processed = activities_processed + ?,
			activities_hidden = activities_hidden + ?,
			activities_titled = activities_titled + ?,
			last_activity_at = ?,
			updated_at = ?
		WHERE id = ?
	`, delta.Processed, delta.Hidden, delta.Titled, at.Unix(), at.Unix(), userID)
	return checkUserUpdated(result, err)
}

func (s *Store) execUser(ctx context.Context, userID int64, query string, args ...any) error {
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("updating user %d: %w", userID, err)
	}
	return checkUserUpdated(result, nil)
}

func checkUserUpdated(result sql.Result, err error) error {
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrUserNotFound
	}
	return nil
}
