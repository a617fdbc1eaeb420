package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// MaxAttempts is how many times a queued activity is tried before it is
// marked failed
const MaxAttempts = 3

// RetryBackoff is the wait before the second attempt; it doubles for each
// further attempt
const RetryBackoff = time.Minute

// RetryDelay is how long an item that failed its attempts-th try waits
// before it can be dequeued again
func RetryDelay(attempts int) time.Duration {
	if attempts < 1 {
		attempts = 1
	}
	return RetryBackoff << (attempts - 1)
}

// errProcessingTimeout is recorded on items that stalled on their last attempt
const errProcessingTimeout = "processing timed out"

// InsertWebhookEvent stores a raw webhook delivery
func (s *Store) InsertWebhookEvent(ctx context.Context, e WebhookEvent) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO webhook_events (object_id, object_type, aspect_type, owner_id, raw_payload, received_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, e.ObjectID, e.ObjectType, e.AspectType, e.OwnerID, e.RawPayload, s.now().Unix())
	if err != nil {
		return 0, fmt.Errorf("inserting webhook event: %w", err)
	}
	return result.LastInsertId()
}

// EnqueueActivity queues an activity for processing. It reports false when
// the activity is already waiting or in progress.
func (s *Store) EnqueueActivity(ctx context.Context, activityID, ownerID int64) (bool, error) {
	now := s.now().Unix()
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO activity_queue (activity_id, owner_id, status, enqueued_at, updated_at)
		SELECT ?, ?, 'pending', ?, ?
		WHERE NOT EXISTS (
			SELECT 1 FROM activity_queue
			WHERE activity_id = ? AND status IN ('pending', 'processing')
		)
	`, activityID, ownerID, now, now, activityID)
	if err != nil {
		return false, fmt.Errorf("enqueueing activity %d: %w", activityID, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// DequeueActivity claims the oldest pending activity whose retry delay has
// passed. Returns ErrQueueEmpty when there is none.
func (s *Store) DequeueActivity(ctx context.Context) (*QueueItem, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var item QueueItem
	err = tx.QueryRowContext(ctx, `
		SELECT id, activity_id, owner_id, attempts
		FROM activity_queue
		WHERE status = 'pending' AND available_at <= ?
		ORDER BY id
		LIMIT 1
	`, s.now().Unix()).Scan(&item.ID, &item.ActivityID, &item.OwnerID, &item.Attempts)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrQueueEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("selecting queue item: %w", err)
	}

	item.Attempts++
	if _, err := tx.ExecContext(ctx, `
		UPDATE activity_queue SET status = 'processing', attempts = ?, updated_at = ? WHERE id = ?
	`, item.Attempts, s.now().Unix(), item.ID); err != nil {
		return nil, fmt.Errorf("claiming queue item: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing: %w", err)
	}
	return &item, nil
}

// MarkProcessed finishes a claimed queue item
func (s *Store) MarkProcessed(ctx context.Context, queueID int64) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE activity_queue SET status = 'done', last_error = NULL, updated_at = ? WHERE id = ?
	`, s.now().Unix(), queueID)
	return err
}

// MarkFailed records a processing error. When retry is set and attempts
// remain, the item goes back to pending after RetryDelay; otherwise it is
// parked as failed. Returns the resulting status.
func (s *Store) MarkFailed(ctx context.Context, queueID int64, cause error, retry bool) (string, error) {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}

	now := s.now()
	status := QueueFailed
	availableAt := now
	if retry {
		var attempts int
		if err := s.db.QueryRowContext(ctx, `SELECT attempts FROM activity_queue WHERE id = ?`, queueID).Scan(&attempts); err != nil {
			return "", fmt.Errorf("reading attempts: %w", err)
		}
		if attempts < MaxAttempts {
			status = QueuePending
			availableAt = now.Add(RetryDelay(attempts))
		}
	}

	_, err := s.db.ExecContext(ctx, `
		UPDATE activity_queue SET status = ?, last_error = ?, available_at = ?, updated_at = ? WHERE id = ?
	`, status, msg, availableAt.Unix(), now.Unix(), queueID)
	if err != nil {
		return "", err
	}
	return status, nil
}

// RequeueStale handles items stuck in processing since before cutoff, e.g.
// after a crash. Items with attempts left go back to pending; the rest are
// marked failed. Returns how many were requeued and how many failed.
func (s *Store) RequeueStale(ctx context.Context, cutoff time.Time) (requeued, failed int64, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	now := s.now().Unix()
	result, err := tx.ExecContext(ctx, `
		UPDATE activity_queue SET status = 'failed', last_error = ?, updated_at = ?
		WHERE status = 'processing' AND updated_at < ? AND attempts >= ?
	`, errProcessingTimeout, now, cutoff.Unix(), MaxAttempts)
	if err != nil {
		return 0, 0, fmt.Errorf("failing stale items: %w", err)
	}
	if failed, err = result.RowsAffected(); err != nil {
		return 0, 0, err
	}

	result, err = tx.ExecContext(ctx, `
		UPDATE activity_queue SET status = 'pending', available_at = ?, updated_at = ?
		WHERE status = 'processing' AND updated_at < ?
	`, now, now, cutoff.Unix())
	if err != nil {
		return 0, 0, fmt.Errorf("requeueing stale items: %w", err)
	}
	if requeued, err = result.RowsAffected(); err != nil {
		return 0, 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("committing: %w", err)
	}
	return requeued, failed, nil
}

// PruneQueue deletes finished queue rows and webhook events older than cutoff.
// Pending and in-progress rows are never pruned.
func (s *Store) PruneQueue(ctx context.Context, cutoff time.Time) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		DELETE FROM activity_queue WHERE status IN ('done', 'failed') AND updated_at < ?
	`, cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("pruning queue: %w", err)
	}
	pruned, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM webhook_events WHERE received_at < ?`, cutoff.Unix()); err != nil {
		return 0, fmt.Errorf("pruning webhook events: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing: %w", err)
	}
	return pruned, nil
}

// QueueCounts counts queue rows by status
func (s *Store) QueueCounts(ctx context.Context) (QueueStats, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM activity_queue GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := QueueStats{}
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		stats[status] = n
	}
	return stats, rows.Err()
}
