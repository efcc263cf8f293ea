package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"customerhub/internal/config"
)

// Client wraps redis.Client and fails safe: redis errors behave like misses.
// A nil *Client is valid and caches nothing.
type Client struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// New creates a cache client, or returns nil when no address is configured.
func New(cfg config.RedisConfig, logger *slog.Logger) *Client {
	if cfg.Addr == "" {
		return nil
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		client: redis.NewClient(&redis.Options{
			Addr:     cfg.Addr,
			Password: cfg.Password,
			DB:       cfg.DB,
		}),
		ttl:    cfg.TTL,
		logger: logger,
	}
}

// Ping checks connectivity. Used at startup to warn about an unreachable cache.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.client.Ping(ctx).Err()
}

// GetJSON decodes the cached value at key into dst and reports whether it was found.
func (c *Client) GetJSON(ctx context.Context, key string, dst any) bool {
	if c == nil {
		return false
	}
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.DebugContext(ctx, "cache get failed", slog.String("key", key), slog.String("error", err.Error()))
		}
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		c.logger.DebugContext(ctx, "cache decode failed", slog.String("key", key), slog.String("error", err.Error()))
		return false
	}
	return true
}

// SetJSON stores value at key for the configured TTL, ignoring redis errors.
func (c *Client) SetJSON(ctx context.Context, key string, value any) {
	if c == nil {
		return
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		c.logger.DebugContext(ctx, "cache set failed", slog.String("key", key), slog.String("error", err.Error()))
	}
}

// Delete removes keys, ignoring redis errors.
func (c *Client) Delete(ctx context.Context, keys ...string) {
	if c == nil || len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.DebugContext(ctx, "cache delete failed", slog.Any("keys", keys), slog.String("error", err.Error()))
	}
}

// Close releases the underlying connections.
func (c *Client) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}

// CustomerInfoKey is the key of a customer's cached info view.
func CustomerInfoKey(id uuid.UUID) string {
	return "customer:info:" + id.String()
}
