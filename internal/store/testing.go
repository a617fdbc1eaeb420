package store

import (
	"testing"
	"time"
)

// NewTestStore opens a migrated in-memory Store that is closed when the test ends.
// This is only intended for use in tests.
func NewTestStore(t testing.TB) *Store {
	t.Helper()

	s, err := Open(MemoryPath)
	if err != nil {
		t.Fatalf("Failed to open test store: %v", err)
	}
	t.Cleanup(func() {
		s.Close()
	})
	return s
}

// SetClock replaces the store's time source. This is only intended for use in tests.
func (s *Store) SetClock(now func() time.Time) {
	s.now = now
}
