package store

import (
	"context"
	"testing"
	"time"

	"strava-filter/internal/analysis"
)

func TestRecordProcessing(t *testing.T) {
	s := NewTestStore(t)
	ctx := context.Background()
	u := createUser(t, s, 42)

	base := time.Date(2024, 5, 1, 6, 0, 0, 0, time.UTC)
	for i := 0; i < 12; i++ {
		l := &ActivityLog{
			UserID:           u.ID,
			StravaActivityID: int64(100 + i),
			ActivityType:     "Run",
			ActivityName:     "Morning Run",
			GeneratedTitle:   "Run 5.0km",
			ElapsedTime:      1500,
			Distance:         5000,
			WasHidden:        i%2 == 0,
			WasTitled:        true,
			ProcessedAt:      base.Add(time.Duration(i) * time.Hour),
		}
		if _, err := s.RecordProcessing(ctx, l, analysis.NewDelta(l.WasHidden, l.WasTitled)); err != nil {
			t.Fatalf("RecordProcessing() error: %v", err)
		}
	}

	logs, err := s.RecentActivityLogs(ctx, u.ID, 10)
	if err != nil {
		t.Fatalf("RecentActivityLogs() error: %v", err)
	}
	if len(logs) != 10 {
		t.Fatalf("len(logs) = %d, want 10", len(logs))
	}
	if logs[0].StravaActivityID != 111 {
		t.Errorf("newest log = %d, want 111", logs[0].StravaActivityID)
	}
	if !logs[0].ProcessedAt.Equal(base.Add(11 * time.Hour)) {
		t.Errorf("ProcessedAt = %v", logs[0].ProcessedAt)
	}
	if logs[0].WasHidden || !logs[1].WasHidden {
		t.Errorf("was_hidden not round-tripped: %v %v", logs[0].WasHidden, logs[1].WasHidden)
	}

	stats, err := s.DashboardStats(ctx, u.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Processed != 12 || stats.Hidden != 6 || stats.Titled != 12 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestRecordProcessingUnknownUserRollsBack(t *testing.T) {
	s := NewTestStore(t)
	ctx := context.Background()
	u := createUser(t, s, 42)

	// Foreign key fails the insert for an unknown user
	_, err := s.RecordProcessing(ctx, &ActivityLog{UserID: u.ID + 100, ActivityType: "Run"}, analysis.NewDelta(false, false))
	if err == nil {
		t.Fatal("expected error for unknown user")
	}

	logs, err := s.RecentActivityLogs(ctx, u.ID+100, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(logs) != 0 {
		t.Errorf("log row leaked from failed transaction: %+v", logs)
	}
}

func TestInsertActivityLogDefaultsTime(t *testing.T) {
	s := NewTestStore(t)
	now := time.Date(2024, 7, 4, 12, 0, 0, 0, time.UTC)
	s.SetClock(fixedClock(now))
	ctx := context.Background()
	u := createUser(t, s, 1)

	if _, err := s.InsertActivityLog(ctx, &ActivityLog{UserID: u.ID, ActivityType: "Ride", GeneratedTitle: "Ride 20.0km"}); err != nil {
		t.Fatalf("InsertActivityLog() error: %v", err)
	}
	logs, err := s.RecentActivityLogs(ctx, u.ID, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(logs) != 1 || !logs[0].ProcessedAt.Equal(now) {
		t.Errorf("logs = %+v", logs)
	}
}
