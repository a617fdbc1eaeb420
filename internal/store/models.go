package store

import (
	"time"

	"strava-filter/internal/analysis"
)

// User is an athlete who authorized the app
type User struct {
	ID                  int64
	StravaID            int64
	Username            string
	AccessToken         string
	RefreshToken        string
	TokenExpiry         time.Time
	RunThreshold        int // seconds
	RideThreshold       int // seconds
	WalkThreshold       int // seconds
	TitleGeneration     bool
	ActivitiesProcessed int
	ActivitiesHidden    int
	ActivitiesTitled    int
	LastActivityAt      *time.Time // nullable
	CreatedAt           time.Time
}

// Thresholds returns the user's hide thresholds keyed by activity type
func (u *User) Thresholds() analysis.Thresholds {
	return analysis.Thresholds{
		"Run":  u.RunThreshold,
		"Ride": u.RideThreshold,
		"Walk": u.WalkThreshold,
	}
}

// TokenGrant is what an OAuth exchange yields for one athlete
type TokenGrant struct {
	StravaID     int64
	Username     string
	AccessToken  string
	RefreshToken string
	Expiry       time.Time
}

// UserDefaults are applied only when a user is first created
type UserDefaults struct {
	Thresholds      analysis.Thresholds
	TitleGeneration bool
}

// ActivityLog records the outcome of processing one activity
type ActivityLog struct {
	ID               int64
	UserID           int64
	StravaActivityID int64
	ActivityType     string
	ActivityName     string
	GeneratedTitle   string
	ElapsedTime      int     // seconds
	Distance         float64 // meters
	WasHidden        bool
	WasTitled        bool
	ProcessedAt      time.Time
}

// WebhookEvent is one push delivery from Strava
type WebhookEvent struct {
	ID         int64
	ObjectID   int64
	ObjectType string
	AspectType string
	OwnerID    int64
	RawPayload string
	ReceivedAt time.Time
}

// Queue statuses
const (
	QueuePending    = "pending"
	QueueProcessing = "processing"
	QueueDone       = "done"
	QueueFailed     = "failed"
)

// QueueItem is an activity claimed by the worker
type QueueItem struct {
	ID         int64
	ActivityID int64
	OwnerID    int64 // Strava athlete id
	Attempts   int
}

// DashboardStats summarizes a user's lifetime counters
type DashboardStats struct {
	Processed      int        `json:"processed"`
	Hidden         int        `json:"hidden"`
	Titled         int        `json:"titled"`
	HidePercentage float64    `json:"hide_percentage"`
	LastActivityAt *time.Time `json:"last_activity_at,omitempty"`
}

// QueueStats counts queue rows by status
type QueueStats map[string]int
