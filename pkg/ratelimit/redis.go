package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// slidingWindowScript trims the window, admits the request if there is room
// and reports (allowed, count, resetAtMillis). Runs atomically on the server.
var slidingWindowScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local member = ARGV[4]

redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
local count = redis.call('ZCARD', key)
local allowed = 0
if count < limit then
  redis.call('ZADD', key, now, member)
  count = count + 1
  allowed = 1
end
redis.call('PEXPIRE', key, window)

local reset = now + window
local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
if oldest[2] then
  reset = tonumber(oldest[2]) + window
end
return {allowed, count, reset}
`)

// RedisStore shares request counts between instances through a sorted set per key.
type RedisStore struct {
	client *redis.Client
	limit  int
	window time.Duration
	prefix string
	now    func() time.Time
}

func NewRedisStore(client *redis.Client, cfg Config) (*RedisStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client cannot be nil")
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "default"
	}

	return &RedisStore{
		client: client,
		limit:  cfg.Limit,
		window: cfg.Window,
		prefix: "ratelimit:" + prefix + ":",
		now:    time.Now,
	}, nil
}

func (s *RedisStore) Allow(ctx context.Context, key string) (Decision, error) {
	now := s.now()
	member := fmt.Sprintf("%d-%s", now.UnixMilli(), uuid.NewString())

	res, err := slidingWindowScript.Run(ctx, s.client,
		[]string{s.prefix + key},
		now.UnixMilli(), s.window.Milliseconds(), s.limit, member,
	).Int64Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("rate limit script failed: %w", err)
	}
	if len(res) != 3 {
		return Decision{}, fmt.Errorf("rate limit script returned %d values", len(res))
	}

	remaining := s.limit - int(res[1])
	if remaining < 0 {
		remaining = 0
	}

	return Decision{
		Allowed:   res[0] == 1,
		Limit:     s.limit,
		Remaining: remaining,
		Window:    s.window,
		ResetAt:   time.UnixMilli(res[2]),
	}, nil
}

func (s *RedisStore) Reset(ctx context.Context, key string) error {
	return s.client.Del(ctx, s.prefix+key).Err()
}

// Close is a no-op; the shared client is closed by its owner.
func (s *RedisStore) Close() error {
	return nil
}
