package auth

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// StateTTL is how long an authorization attempt may take
const StateTTL = 5 * time.Minute

// StateStore issues and checks the OAuth state parameter for CSRF protection.
// States are single use.
type StateStore struct {
	mu     sync.Mutex
	states map[string]time.Time
	ttl    time.Duration
	now    func() time.Time
}

// NewStateStore creates an empty store with StateTTL expiry
func NewStateStore() *StateStore {
	return &StateStore{
		states: make(map[string]time.Time),
		ttl:    StateTTL,
		now:    time.Now,
	}
}

// New issues a fresh state
func (s *StateStore) New() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.sweep(now)

	state := uuid.NewString()
	s.states[state] = now.Add(s.ttl)
	return state
}

// Consume reports whether state was issued and has not expired, and forgets it
func (s *StateStore) Consume(state string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	expires, ok := s.states[state]
	if !ok {
		return false
	}
	delete(s.states, state)
	return s.now().Before(expires)
}

func (s *StateStore) sweep(now time.Time) {
	for state, expires := range s.states {
		if !now.Before(expires) {
			delete(s.states, state)
		}
	}
}
