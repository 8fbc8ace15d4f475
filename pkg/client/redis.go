package client

import (
	"context"
	"time"

	"lodge/pkg/logger"

	"github.com/redis/go-redis/v9"
)

func NewRedisClient(log *logger.Logger, redisURL string, connTimeout time.Duration) *redis.Client {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Fatal("Failed to parse Redis URL", "error", err, "uri", RedactURI(redisURL))
	}

	rdb := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), connTimeout)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatal("Failed to ping Redis", "error", err)
	}

	log.Info("Successfully connected to Redis")
	return rdb
}
