package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"businessconnect_backend/internal/logger"
)

// Client wraps redis.Client and fails safe: when redis is down or not
// configured, reads behave like misses and writes are dropped.
type Client struct {
	client *redis.Client
}

// New returns nil when addr is empty; a nil *Client is valid and inert.
func New(addr, password string, db int) *Client {
	if addr == "" {
		return nil
	}
	return &Client{client: redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})}
}

// NewFromRedis wraps an existing client.
func NewFromRedis(rdb *redis.Client) *Client {
	return &Client{client: rdb}
}

func (c *Client) Enabled() bool {
	return c != nil && c.client != nil
}

// Ping reports connectivity; used by /health.
func (c *Client) Ping(ctx context.Context) error {
	if !c.Enabled() {
		return errors.New("redis not configured")
	}
	return c.client.Ping(ctx).Err()
}

// Get returns the value or nil on miss / redis failure.
func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	if !c.Enabled() {
		return nil, nil
	}
	res, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		logger.CtxWarn(ctx, "redis get failed, treating as miss", "key", key, "error", err)
		return nil, nil
	}
	return res, nil
}

func (c *Client) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if !c.Enabled() {
		return nil
	}
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		logger.CtxWarn(ctx, "redis set failed", "key", key, "error", err)
	}
	return nil
}

func (c *Client) Delete(ctx context.Context, keys ...string) error {
	if !c.Enabled() || len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		logger.CtxWarn(ctx, "redis del failed", "keys", keys, "error", err)
	}
	return nil
}

// Incr increments a counter and starts its TTL on first use.
// ok is false when redis is unavailable so callers can skip limits.
func (c *Client) Incr(ctx context.Context, key string, ttl time.Duration) (count int64, ok bool) {
	if !c.Enabled() {
		return 0, false
	}
	count, err := c.client.Incr(ctx, key).Result()
	if err != nil {
		logger.CtxWarn(ctx, "redis incr failed", "key", key, "error", err)
		return 0, false
	}
	if count == 1 {
		c.client.Expire(ctx, key, ttl)
	}
	return count, true
}

func (c *Client) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.client.Close()
}
