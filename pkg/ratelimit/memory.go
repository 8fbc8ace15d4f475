package ratelimit

import (
	"context"
	"sync"
	"time"
)

const cleanupInterval = 10 * time.Minute

// MemoryStore keeps a timestamp log per key in process memory.
type MemoryStore struct {
	mu       sync.Mutex
	requests map[string][]time.Time
	limit    int
	window   time.Duration
	now      func() time.Time
	stopCh   chan struct{}
	stopOnce sync.Once
}

func NewMemoryStore(cfg Config) (*MemoryStore, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	store := newMemoryStore(cfg, time.Now)
	go store.cleanup()

	return store, nil
}

func newMemoryStore(cfg Config, now func() time.Time) *MemoryStore {
	return &MemoryStore{
		requests: make(map[string][]time.Time),
		limit:    cfg.Limit,
		window:   cfg.Window,
		now:      now,
		stopCh:   make(chan struct{}),
	}
}

func (s *MemoryStore) cleanup() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.evictExpired()
		case <-s.stopCh:
			return
		}
	}
}

func (s *MemoryStore) evictExpired() {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for key, timestamps := range s.requests {
		if len(timestamps) == 0 || now.Sub(timestamps[len(timestamps)-1]) >= s.window {
			delete(s.requests, key)
		}
	}
}

func (s *MemoryStore) Allow(_ context.Context, key string) (Decision, error) {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	valid := s.requests[key][:0:0]
	for _, ts := range s.requests[key] {
		if now.Sub(ts) < s.window {
			valid = append(valid, ts)
		}
	}

	decision := Decision{
		Limit:  s.limit,
		Window: s.window,
	}

	if len(valid) < s.limit {
		valid = append(valid, now)
		decision.Allowed = true
	}
	s.requests[key] = valid

	decision.Remaining = s.limit - len(valid)
	decision.ResetAt = valid[0].Add(s.window)

	return decision, nil
}

func (s *MemoryStore) Reset(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.requests, key)
	return nil
}

// ResetAll forgets every key.
func (s *MemoryStore) ResetAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.requests = make(map[string][]time.Time)
}

// Close stops the cleanup goroutine. Safe to call more than once.
func (s *MemoryStore) Close() error {
	s.stopOnce.Do(func() { close(s.stopCh) })
	return nil
}
