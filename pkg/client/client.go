package client

import (
	"context"
	"regexp"
	"time"

	"lodge/pkg/logger"

	"github.com/redis/go-redis/v9"
)

var credentialRegex = regexp.MustCompile(`(://)[^:/@]+:[^@]+@`)

// Client holds the long-lived connections the service opens at startup.
// Each one is optional and stays nil when its backend is not configured.
type Client struct {
	Mongo *MongoClient
	Redis *redis.Client
	log   *logger.Logger
}

func NewClient() *Client {
	return &Client{}
}

func (c *Client) SetMongo(log *logger.Logger, mongoURI string, mongoConnTimeout time.Duration) {
	c.log = log
	c.Mongo = NewMongoClient(log, mongoURI, mongoConnTimeout)
}

func (c *Client) SetRedis(log *logger.Logger, redisURL string, connTimeout time.Duration) {
	c.log = log
	c.Redis = NewRedisClient(log, redisURL, connTimeout)
}

func (c *Client) GracefulShutdown(ctx context.Context) {
	if c.Mongo != nil {
		if err := c.Mongo.Disconnect(ctx); err != nil && c.log != nil {
			c.log.Error("Failed to disconnect MongoDB", "error", err)
		}
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil && c.log != nil {
			c.log.Error("Failed to close Redis client", "error", err)
		}
	}
}

// RedactURI hides user:password credentials in a connection string.
func RedactURI(uri string) string {
	return credentialRegex.ReplaceAllString(uri, "${1}***:***@")
}
