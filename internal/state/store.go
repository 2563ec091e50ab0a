package state

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/five82/shelf/internal/inventory"
)

// Snapshot represents the latest connection state available to the UI.
type Snapshot struct {
	User                inventory.User
	HasUser             bool
	LastChecked         time.Time
	LastError           error
	ConsecutiveFailures int  // Number of consecutive probe failures
	SessionExpired      bool // Backend answered 401; credentials are gone
}

// IsOffline returns true when the backend has been unreachable for multiple probes.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// Store coordinates concurrent updates to the snapshot.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
}

// Update records the result of a session probe. When err is non-nil the
// previous user is kept but the error is recorded for visibility, except for
// ErrUnauthorized, which drops the user and marks the session expired.
func (s *Store) Update(user *inventory.User, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot.LastChecked = time.Now()

	if err != nil {
		s.snapshot.LastError = err
		if errors.Is(err, inventory.ErrUnauthorized) {
			s.snapshot.User = inventory.User{}
			s.snapshot.HasUser = false
			s.snapshot.SessionExpired = true
			s.snapshot.ConsecutiveFailures = 0
			return
		}
		s.snapshot.ConsecutiveFailures++
		return
	}

	if user != nil {
		s.snapshot.User = *user
		s.snapshot.HasUser = true
		s.snapshot.SessionExpired = false
	}
	s.snapshot.LastError = nil
	s.snapshot.ConsecutiveFailures = 0
}

// SignedIn records a fresh login without waiting for the next probe.
func (s *Store) SignedIn(user inventory.User) {
	s.Update(&user, nil)
}

// SignedOut forgets the user, for an explicit logout.
func (s *Store) SignedOut() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = Snapshot{LastChecked: time.Now()}
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	return snap
}
