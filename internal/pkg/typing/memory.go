package typing

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is a single-instance Store. Stale entries are dropped by Sweep.
type MemoryStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	signals map[int64]map[int64]time.Time
}

// NewMemoryStore creates an in-memory store whose sweeper drops entries older than ttl
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:     ttl,
		now:     time.Now,
		signals: make(map[int64]map[int64]time.Time),
	}
}

func (s *MemoryStore) Touch(_ context.Context, conversationID, userID int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, ok := s.signals[conversationID]
	if !ok {
		users = make(map[int64]time.Time)
		s.signals[conversationID] = users
	}
	if prev, ok := users[userID]; !ok || at.After(prev) {
		users[userID] = at
	}
	return nil
}

func (s *MemoryStore) Active(_ context.Context, conversationID int64, since time.Time) ([]Signal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	active := make([]Signal, 0)
	for userID, at := range s.signals[conversationID] {
		if !at.Before(since) {
			active = append(active, Signal{UserID: userID, At: at})
		}
	}
	sortSignals(active)
	return active, nil
}

// Sweep removes entries older than the TTL and returns how many were dropped
func (s *MemoryStore) Sweep() int {
	cutoff := s.now().Add(-s.ttl)

	s.mu.Lock()
	defer s.mu.Unlock()

	dropped := 0
	for conversationID, users := range s.signals {
		for userID, at := range users {
			if at.Before(cutoff) {
				delete(users, userID)
				dropped++
			}
		}
		if len(users) == 0 {
			delete(s.signals, conversationID)
		}
	}
	return dropped
}

// Run sweeps every interval until ctx is done
func (s *MemoryStore) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

func sortSignals(signals []Signal) {
	sort.Slice(signals, func(i, j int) bool {
		if signals[i].At.Equal(signals[j].At) {
			return signals[i].UserID < signals[j].UserID
		}
		return signals[i].At.After(signals[j].At)
	})
}
