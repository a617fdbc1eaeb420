package store

import (
	"context"
	"fmt"
	"time"

	"strava-filter/internal/analysis"
)

// InsertActivityLog stores one processing outcome
func (s *Store) InsertActivityLog(ctx context.Context, l *ActivityLog) (int64, error) {
	return insertActivityLog(ctx, s.db, s.logTime(l), l)
}

// RecordProcessing stores the log and applies the delta in one transaction
func (s *Store) RecordProcessing(ctx context.Context, l *ActivityLog, delta analysis.Delta) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	at := s.logTime(l)
	id, err := insertActivityLog(ctx, tx, at, l)
	if err != nil {
		return 0, err
	}
	if err := applyDelta(ctx, tx, l.UserID, delta, at); err != nil {
		return 0, fmt.Errorf("applying delta: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing: %w", err)
	}
	return id, nil
}

// RecentActivityLogs returns the user's most recent logs, newest first
func (s *Store) RecentActivityLogs(ctx context.Context, userID int64, limit int) ([]ActivityLog, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, strava_activity_id, activity_type, activity_name, generated_title,
			elapsed_time, distance, was_hidden, was_titled, processed_at
		FROM activity_logs
		WHERE user_id = ?
		ORDER BY processed_at DESC, id DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying activity logs: %w", err)
	}
	defer rows.Close()

	var logs []ActivityLog
	for rows.Next() {
		var (
			l           ActivityLog
			hidden      int
			titled      int
			processedAt int64
		)
		if err := rows.Scan(&l.ID, &l.UserID, &l.StravaActivityID, &l.ActivityType, &l.ActivityName,
			&l.GeneratedTitle, &l.ElapsedTime, &l.Distance, &hidden, &titled, &processedAt); err != nil {
			return nil, err
		}
		l.WasHidden = hidden != 0
		l.WasTitled = titled != 0
		l.ProcessedAt = time.Unix(processedAt, 0).UTC()
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

func (s *Store) logTime(l *ActivityLog) time.Time {
	if l.ProcessedAt.IsZero() {
		return s.now()
	}
	return l.ProcessedAt
}

func insertActivityLog(ctx context.Context, db execer, at time.Time, l *ActivityLog) (int64, error) {
	result, err := db.ExecContext(ctx, `
		INSERT INTO activity_logs (user_id, strava_activity_id, activity_type, activity_name,
			generated_title, elapsed_time, distance, was_hidden, was_titled, processed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, l.UserID, l.StravaActivityID, l.ActivityType, l.ActivityName, l.GeneratedTitle,
		l.ElapsedTime, l.Distance, boolToInt(l.WasHidden), boolToInt(l.WasTitled), at.Unix())
	if err != nil {
		return 0, fmt.Errorf("inserting activity log: %w", err)
	}
	return result.LastInsertId()
}
