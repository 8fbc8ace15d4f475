// Package ratelimit counts requests per key over a sliding window.
package ratelimit

import (
	"context"
	"fmt"
	"time"
)

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Decision is the outcome of one counted request.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	Window    time.Duration
	ResetAt   time.Time
}

// RetryAfter is the time until the oldest counted request leaves the window.
func (d Decision) RetryAfter(now time.Time) time.Duration {
	if wait := d.ResetAt.Sub(now); wait > 0 {
		return wait
	}
	return 0
}

// Store counts requests. Reset forgets a key, which tests use to start from a
// clean window.
type Store interface {
	Allow(ctx context.Context, key string) (Decision, error)
	Reset(ctx context.Context, key string) error
	Close() error
}

type Config struct {
	Limit  int
	Window time.Duration
	// Prefix separates limiters sharing one backend (e.g. "general", "booking")
	Prefix string
}

func (c Config) validate() error {
	if c.Limit <= 0 {
		return fmt.Errorf("rate limit must be positive, got: %d", c.Limit)
	}
	if c.Window <= 0 {
		return fmt.Errorf("rate limit window must be positive, got: %s", c.Window)
	}
	return nil
}
