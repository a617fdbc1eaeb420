package service

import (
	"context"
	"fmt"

	"strava-filter/internal/store"
)

// RecentLimit is how many activity logs the dashboard shows
const RecentLimit = 10

// Dashboard is a user's processing summary
type Dashboard struct {
	Stats  *store.DashboardStats `json:"stats"`
	Recent []RecentActivity      `json:"recent"`
}

// RecentActivity is one processed activity as shown on the dashboard
type RecentActivity struct {
	ActivityID     int64   `json:"activity_id"`
	Type           string  `json:"type"`
	Name           string  `json:"name"`
	GeneratedTitle string  `json:"generated_title,omitempty"`
	ElapsedTime    int     `json:"elapsed_time"`
	DistanceKm     float64 `json:"distance_km"`
	Hidden         bool    `json:"hidden"`
	Titled         bool    `json:"titled"`
	ProcessedAt    string  `json:"processed_at"`
}

// DashboardService reads the per-user summary
type DashboardService struct {
	store *store.Store
}

// NewDashboardService creates a dashboard service
func NewDashboardService(st *store.Store) *DashboardService {
	return &DashboardService{store: st}
}

// Get returns counters and the most recent activity logs for a user
func (s *DashboardService) Get(ctx context.Context, userID int64) (*Dashboard, error) {
	stats, err := s.store.DashboardStats(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading stats: %w", err)
	}

	logs, err := s.store.RecentActivityLogs(ctx, userID, RecentLimit)
	if err != nil {
		return nil, fmt.Errorf("loading recent activities: %w", err)
	}

	d := &Dashboard{Stats: stats, Recent: make([]RecentActivity, 0, len(logs))}
	for _, l := range logs {
		d.Recent = append(d.Recent, RecentActivity{
			ActivityID:     l.StravaActivityID,
			Type:           l.ActivityType,
			Name:           l.ActivityName,
			GeneratedTitle: l.GeneratedTitle,
			ElapsedTime:    l.ElapsedTime,
			DistanceKm:     l.Distance / 1000,
			Hidden:         l.WasHidden,
			Titled:         l.WasTitled,
			ProcessedAt:    l.ProcessedAt.Format("2006-01-02 15:04"),
		})
	}
	return d, nil
}
