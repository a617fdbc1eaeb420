package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"strava-filter/internal/analysis"
	"strava-filter/internal/store"
	"strava-filter/internal/strava"
)

// ActivityClient is the part of the Strava API the processor needs
type ActivityClient interface {
	GetActivity(ctx context.Context, activityID int64) (*strava.Activity, error)
	GetActivityStreams(ctx context.Context, activityID int64) (*strava.Streams, error)
	HideFromHome(ctx context.Context, activityID int64) error
	UpdateTitle(ctx context.Context, activityID int64, title string) error
}

// ClientFactory returns a client acting on behalf of user
type ClientFactory func(ctx context.Context, user *store.User) ActivityClient

// ActivityService applies the hide policy and title generation to new activities
type ActivityService struct {
	clients ClientFactory
	store   *store.Store
}

// NewActivityService creates an activity service
func NewActivityService(clients ClientFactory, st *store.Store) *ActivityService {
	return &ActivityService{
		clients: clients,
		store:   st,
	}
}

// Result describes what processing one activity did
type Result struct {
	ActivityID     int64
	LogID          int64
	Decision       analysis.Decision
	Hidden         bool
	Titled         bool
	StreamsMissing bool
}

// Process fetches an activity, decides what to do with it, carries the
// actions out on Strava and records the outcome
func (s *ActivityService) Process(ctx context.Context, user *store.User, activityID int64) (*Result, error) {
	if user == nil {
		return nil, errors.New("process activity: nil user")
	}
	client := s.clients(ctx, user)

	activity, streams, err := fetch(ctx, client, activityID)
	if err != nil {
		return nil, err
	}

	result := &Result{
		ActivityID:     activityID,
		StreamsMissing: streams == nil,
		Decision:       analysis.Decide(activity.Snapshot(), streams.SampleSet(), user.Thresholds()),
	}
	logger := log.With().
		Int64("activity_id", activityID).
		Int64("athlete_id", user.StravaID).
		Logger()

	if result.Decision.Hide {
		if !activity.HideFromHome {
			if err := client.HideFromHome(ctx, activityID); err != nil {
				return nil, fmt.Errorf("hiding activity: %w", err)
			}
		}
		result.Hidden = true
	}

	title := result.Decision.Title
	if user.TitleGeneration && title != "" && title != activity.Name {
		if err := client.UpdateTitle(ctx, activityID, title); err != nil {
			return nil, fmt.Errorf("renaming activity: %w", err)
		}
		result.Titled = true
	}

	entry := &store.ActivityLog{
		UserID:           user.ID,
		StravaActivityID: activityID,
		ActivityType:     activity.Type,
		ActivityName:     activity.Name,
		GeneratedTitle:   title,
		ElapsedTime:      activity.ElapsedTime,
		Distance:         activity.Distance,
		WasHidden:        result.Hidden,
		WasTitled:        result.Titled,
	}
	result.LogID, err = s.store.RecordProcessing(ctx, entry, analysis.NewDelta(result.Hidden, result.Titled))
	if err != nil {
		return nil, fmt.Errorf("recording activity %d: %w", activityID, err)
	}

	logger.Info().
		Str("type", activity.Type).
		Int("elapsed", activity.ElapsedTime).
		Int("samples", streams.Len()).
		Bool("hidden", result.Hidden).
		Bool("titled", result.Titled).
		Str("title", title).
		Msg("processed activity")
	return result, nil
}

// fetch loads the activity and its streams concurrently. Streams are
// optional: on failure the title falls back to metadata only.
func fetch(ctx context.Context, client ActivityClient, activityID int64) (*strava.Activity, *strava.Streams, error) {
	var (
		activity *strava.Activity
		streams  *strava.Streams
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a, err := client.GetActivity(gctx, activityID)
		if err != nil {
			return err
		}
		activity = a
		return nil
	})
	g.Go(func() error {
		st, err := client.GetActivityStreams(gctx, activityID)
		if err != nil {
			log.Warn().Err(err).Int64("activity_id", activityID).Msg("streams unavailable, using metadata only")
			return nil
		}
		streams = st
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return activity, streams, nil
}
