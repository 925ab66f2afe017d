package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps keys in process memory. Entries do not survive a restart.
// Expired keys are swept on every Mark so the map only holds live deadlines.
type MemoryStore struct {
	mu        sync.Mutex
	deadlines map[string]time.Time
	now       func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{deadlines: map[string]time.Time{}, now: time.Now}
}

func (s *MemoryStore) Mark(_ context.Context, key string, ttl time.Duration) error {
	if ttl <= 0 {
		return ErrNoExpiry
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for k, d := range s.deadlines {
		if !now.Before(d) {
			delete(s.deadlines, k)
		}
	}
	deadline := now.Add(ttl)
	if cur, ok := s.deadlines[key]; ok && cur.After(deadline) {
		return nil
	}
	s.deadlines[key] = deadline
	return nil
}

func (s *MemoryStore) Marked(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.deadlines[key]
	if !ok {
		return false, nil
	}
	if !s.now().Before(d) {
		delete(s.deadlines, key)
		return false, nil
	}
	return true, nil
}

func (s *MemoryStore) Ping(context.Context) error {
	return nil
}

func (s *MemoryStore) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.deadlines)
}
