package worker

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"strava-filter/internal/analysis"
	"strava-filter/internal/service"
	"strava-filter/internal/store"
	"strava-filter/internal/strava"
)

type fakeProcessor struct {
	err   error
	calls []int64
	users []int64
}

func (f *fakeProcessor) Process(ctx context.Context, user *store.User, activityID int64) (*service.Result, error) {
	f.calls = append(f.calls, activityID)
	f.users = append(f.users, user.StravaID)
	if f.err != nil {
		return nil, f.err
	}
	return &service.Result{ActivityID: activityID}, nil
}

func setup(t *testing.T) (*store.Store, *store.User) {
	t.Helper()
	st := store.NewTestStore(t)
	u, err := st.UpsertUserFromToken(context.Background(), store.TokenGrant{StravaID: 500, AccessToken: "a", RefreshToken: "r", Expiry: time.Now()},
		store.UserDefaults{Thresholds: analysis.DefaultThresholds()})
	if err != nil {
		t.Fatal(err)
	}
	return st, u
}

func TestWorkerProcessesQueue(t *testing.T) {
	ctx := context.Background()
	st, _ := setup(t)
	proc := &fakeProcessor{}
	w := &Worker{Store: st, Processor: proc}

	if _, err := st.EnqueueActivity(ctx, 42, 500); err != nil {
		t.Fatal(err)
	}

	processed, err := w.ProcessNext(ctx)
	if err != nil {
		t.Fatalf("ProcessNext() error: %v", err)
	}
	if !processed {
		t.Fatal("expected queue item to be processed")
	}
	if len(proc.calls) != 1 || proc.calls[0] != 42 || proc.users[0] != 500 {
		t.Errorf("calls = %v users = %v", proc.calls, proc.users)
	}

	counts, _ := st.QueueCounts(ctx)
	if counts[store.QueueDone] != 1 {
		t.Errorf("counts = %v, want one done", counts)
	}

	processed, err = w.ProcessNext(ctx)
	if err != nil || processed {
		t.Errorf("empty queue: processed=%v err=%v", processed, err)
	}
}

func TestWorkerFailures(t *testing.T) {
	tests := []struct {
		name       string
		owner      int64
		err        error
		wantStatus string
	}{
		{"unknown owner", 999, nil, store.QueueFailed},
		{"rate limited", 500, &strava.APIError{StatusCode: http.StatusTooManyRequests}, store.QueuePending},
		{"server error", 500, &strava.APIError{StatusCode: http.StatusBadGateway}, store.QueuePending},
		{"network error", 500, errors.New("dial tcp: connection refused"), store.QueuePending},
		{"activity deleted", 500, &strava.APIError{StatusCode: http.StatusNotFound}, store.QueueFailed},
		{"token revoked", 500, &strava.APIError{StatusCode: http.StatusUnauthorized}, store.QueueFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			st, _ := setup(t)
			w := &Worker{Store: st, Processor: &fakeProcessor{err: tt.err}}

			st.EnqueueActivity(ctx, 1, tt.owner)
			processed, err := w.ProcessNext(ctx)
			if err != nil {
				t.Fatalf("ProcessNext() error: %v", err)
			}
			if !processed {
				t.Error("processed should be true when an item was claimed")
			}

			counts, _ := st.QueueCounts(ctx)
			if counts[tt.wantStatus] != 1 {
				t.Errorf("counts = %v, want one %s", counts, tt.wantStatus)
			}
		})
	}
}

func TestWorkerGivesUpAfterMaxAttempts(t *testing.T) {
	ctx := context.Background()
	st, _ := setup(t)
	proc := &fakeProcessor{err: errors.New("timeout")}
	w := &Worker{Store: st, Processor: proc}

	now := time.Now()
	st.SetClock(func() time.Time { return now })

	st.EnqueueActivity(ctx, 1, 500)
	for i := 0; i < store.MaxAttempts+1; i++ {
		if _, err := w.ProcessNext(ctx); err != nil {
			t.Fatal(err)
		}
		now = now.Add(time.Hour)
	}
	if len(proc.calls) != store.MaxAttempts {
		t.Errorf("attempts = %d, want %d", len(proc.calls), store.MaxAttempts)
	}
	counts, _ := st.QueueCounts(ctx)
	if counts[store.QueueFailed] != 1 {
		t.Errorf("counts = %v", counts)
	}
}

func TestWorkerRunStopsOnCancel(t *testing.T) {
	st, _ := setup(t)
	proc := &fakeProcessor{}
	w := &Worker{Store: st, Processor: proc}

	st.EnqueueActivity(context.Background(), 1, 500)
	st.EnqueueActivity(context.Background(), 2, 500)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	err := w.Run(ctx, 10*time.Millisecond)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Run() error = %v, want deadline exceeded", err)
	}
	if len(proc.calls) != 2 {
		t.Errorf("calls = %v, want both activities", proc.calls)
	}
}

func TestWorkerBacksOffAfterRetryableFailure(t *testing.T) {
	ctx := context.Background()
	st, _ := setup(t)
	now := time.Now()
	st.SetClock(func() time.Time { return now })

	proc := &fakeProcessor{err: &strava.APIError{StatusCode: http.StatusTooManyRequests}}
	w := &Worker{Store: st, Processor: proc}
	st.EnqueueActivity(ctx, 1, 500)

	if _, err := w.ProcessNext(ctx); err != nil {
		t.Fatal(err)
	}
	processed, err := w.ProcessNext(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if processed || len(proc.calls) != 1 {
		t.Fatalf("rate limited item retried immediately: calls = %v", proc.calls)
	}

	now = now.Add(store.RetryDelay(1))
	proc.err = nil
	if processed, err := w.ProcessNext(ctx); err != nil || !processed {
		t.Fatalf("ProcessNext() after backoff = %v, %v", processed, err)
	}
	if len(proc.calls) != 2 {
		t.Errorf("calls = %v, want a second attempt after the backoff", proc.calls)
	}
}
