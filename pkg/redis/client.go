package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// PRICING SHEETS IN REDIS

const sheetKeyPrefix = "pricing:sheet:"

type Client struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// New creates a new Redis client
func New(addr, password string, db int, ttl time.Duration) *Client {
	return NewWithClient(redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		PoolSize:     10,
		MinIdleConns: 1,
	}), ttl)
}

// NewWithClient wraps an existing go-redis client.
func NewWithClient(client redis.UniversalClient, ttl time.Duration) *Client {
	return &Client{client: client, ttl: ttl}
}

// Ping checks the connection
func (c *Client) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (c *Client) Close() {
	if c.client != nil {
		_ = c.client.Close()
	}
}

// GetSheet returns the cached raw sheet, or nil on a miss
func (c *Client) GetSheet(ctx context.Context, name string) ([]byte, error) {
	data, err := c.client.Get(ctx, buildSheetKey(name)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get sheet %s: %w", name, err)
	}
	return data, nil
}

// SetSheet caches a raw sheet with the client's TTL
func (c *Client) SetSheet(ctx context.Context, name string, data []byte) error {
	if err := c.client.Set(ctx, buildSheetKey(name), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("set sheet %s: %w", name, err)
	}
	return nil
}

// InvalidateSheet drops a cached sheet so the next load refetches it
func (c *Client) InvalidateSheet(ctx context.Context, name string) error {
	return c.client.Del(ctx, buildSheetKey(name)).Err()
}

func buildSheetKey(name string) string {
	return sheetKeyPrefix + name
}
