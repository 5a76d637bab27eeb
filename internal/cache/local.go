package cache

import (
	"context"
	"sync"
	"time"
)

// localCounterStore is the in-process fallback used while the Redis backend
// is unreachable. It honors the CounterStore contract (monotonic increments,
// zero floor) but provides no cross-process sharing and ignores TTLs.
type localCounterStore struct {
	mu       sync.Mutex
	counters map[string]int64
}

func newLocalCounterStore() *localCounterStore {
	return &localCounterStore{counters: make(map[string]int64)}
}

func (s *localCounterStore) Get(_ context.Context, key string) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.counters[key]
	return v, ok, nil
}

func (s *localCounterStore) Set(_ context.Context, key string, value int64, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters[key] = value
	return nil
}

func (s *localCounterStore) Increment(_ context.Context, key string, delta int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters[key] += delta
	return s.counters[key], nil
}

func (s *localCounterStore) Decrement(_ context.Context, key string, delta int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.counters[key] - delta
	if v < 0 {
		v = 0
	}
	s.counters[key] = v
	return v, nil
}

func (s *localCounterStore) Invalidate(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.counters, key)
	return nil
}
