package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"strava-filter/internal/service"
	"strava-filter/internal/store"
	"strava-filter/internal/strava"
)

// Processor handles one queued activity for its owner
type Processor interface {
	Process(ctx context.Context, user *store.User, activityID int64) (*service.Result, error)
}

// Worker drains the activity queue
type Worker struct {
	Store     *store.Store
	Processor Processor
}

// ProcessNext handles the oldest pending activity. It reports false when the
// queue was empty.
func (w *Worker) ProcessNext(ctx context.Context) (bool, error) {
	item, err := w.Store.DequeueActivity(ctx)
	if errors.Is(err, store.ErrQueueEmpty) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	logger := log.With().
		Int64("queue_id", item.ID).
		Int64("activity_id", item.ActivityID).
		Int64("athlete_id", item.OwnerID).
		Int("attempt", item.Attempts).
		Logger()

	user, err := w.Store.GetUserByStravaID(ctx, item.OwnerID)
	if err != nil {
		// Events for athletes who never authorized cannot succeed later
		retry := !errors.Is(err, store.ErrUserNotFound)
		return true, w.fail(ctx, item, fmt.Errorf("resolving owner: %w", err), retry)
	}

	if _, err := w.Processor.Process(ctx, user, item.ActivityID); err != nil {
		return true, w.fail(ctx, item, err, retryable(err))
	}

	if err := w.Store.MarkProcessed(ctx, item.ID); err != nil {
		return true, err
	}
	logger.Debug().Msg("queue item done")
	return true, nil
}

func (w *Worker) fail(ctx context.Context, item *store.QueueItem, cause error, retry bool) error {
	status, err := w.Store.MarkFailed(ctx, item.ID, cause, retry)
	if err != nil {
		return fmt.Errorf("marking queue item %d failed: %w", item.ID, err)
	}
	log.Warn().
		Err(cause).
		Int64("activity_id", item.ActivityID).
		Int("attempt", item.Attempts).
		Str("status", status).
		Msg("activity processing failed")
	return nil
}

// retryable reports whether a processing error may go away on its own
func retryable(err error) bool {
	switch {
	case errors.Is(err, context.Canceled):
		return true
	case errors.Is(err, strava.ErrNotFound), strava.IsUnauthorized(err):
		return false
	case strava.IsRateLimited(err):
		return true
	default:
		var apiErr *strava.APIError
		if errors.As(err, &apiErr) {
			return apiErr.StatusCode >= 500
		}
		// network and storage errors
		return true
	}
}

// Run processes queue items until ctx is done, sleeping idle between polls
// of an empty queue
func (w *Worker) Run(ctx context.Context, idle time.Duration) error {
	log.Info().Dur("idle", idle).Msg("worker started")
	for {
		processed, err := w.ProcessNext(ctx)
		if err != nil {
			log.Error().Err(err).Msg("worker error")
		}
		if processed && err == nil {
			continue
		}

		select {
		case <-ctx.Done():
			log.Info().Msg("worker stopped")
			return ctx.Err()
		case <-time.After(idle):
		}
	}
}
