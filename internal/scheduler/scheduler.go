package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"strava-filter/internal/store"
)

// StaleAfter is how long an item may sit in processing before it is
// returned to the queue
const StaleAfter = 15 * time.Minute

// Scheduler runs queue housekeeping on a cron schedule
type Scheduler struct {
	cron      *cron.Cron
	store     *store.Store
	retention time.Duration
	now       func() time.Time
}

// New creates a scheduler that prunes finished queue rows older than retention
func New(st *store.Store, retention time.Duration) *Scheduler {
	return &Scheduler{
		cron:      cron.New(),
		store:     st,
		retention: retention,
		now:       time.Now,
	}
}

// Schedule registers the housekeeping job. spec is a standard cron
// expression or a descriptor such as "@daily".
func (s *Scheduler) Schedule(spec string) error {
	if _, err := s.cron.AddFunc(spec, func() {
		if err := s.RunOnce(context.Background()); err != nil {
			log.Error().Err(err).Msg("queue housekeeping failed")
		}
	}); err != nil {
		return fmt.Errorf("invalid retention schedule %q: %w", spec, err)
	}
	return nil
}

// Start runs the cron scheduler in its own goroutine
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops the scheduler and waits for a running job to finish
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// RunOnce requeues stale items and prunes old ones
func (s *Scheduler) RunOnce(ctx context.Context) error {
	now := s.now()

	requeued, failed, err := s.store.RequeueStale(ctx, now.Add(-StaleAfter))
	if err != nil {
		return fmt.Errorf("requeueing stale items: %w", err)
	}

	pruned, err := s.store.PruneQueue(ctx, now.Add(-s.retention))
	if err != nil {
		return fmt.Errorf("pruning queue: %w", err)
	}

	log.Info().
		Int64("requeued", requeued).
		Int64("timed_out", failed).
		Int64("pruned", pruned).
		Dur("retention", s.retention).
		Msg("queue housekeeping")
	return nil
}
