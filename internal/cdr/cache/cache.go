// Package cache provides a short-lived Redis cache for switch call records.
// The declaration screen refetches the same trailing window on every load;
// caching keeps that off the switch.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"callcenter_backend/internal/cdr/client"
	"callcenter_backend/platform/logger"

	"github.com/redis/go-redis/v9"
)

// Cache stores fetched call-record windows per (agent, months) pair.
type Cache struct {
	rdb *redis.Client
	ttl time.Duration
	log *logger.Logger
}

// New creates a cache from a Redis URL. Returns an error only when the URL
// cannot be parsed; connection failures degrade to cache misses.
func New(redisURL string, ttl time.Duration, log *logger.Logger) (*Cache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return NewFromClient(redis.NewClient(opt), ttl, log), nil
}

// NewFromClient creates a cache around an existing Redis client.
func NewFromClient(rdb *redis.Client, ttl time.Duration, log *logger.Logger) *Cache {
	return &Cache{rdb: rdb, ttl: ttl, log: log}
}

func key(agentCode string, months int) string {
	return fmt.Sprintf("cdr:%s:%d", agentCode, months)
}

// Get returns the cached window and true on a hit. Redis errors count as misses.
func (c *Cache) Get(ctx context.Context, agentCode string, months int) ([]client.RawCall, bool) {
	data, err := c.rdb.Get(ctx, key(agentCode, months)).Bytes()
	if err != nil {
		if err != redis.Nil && c.log != nil {
			c.log.Warn("cdr cache read failed", "error", err)
		}
		return nil, false
	}

	var calls []client.RawCall
	if err := json.Unmarshal(data, &calls); err != nil {
		return nil, false
	}
	return calls, true
}

// Set stores the window best-effort.
func (c *Cache) Set(ctx context.Context, agentCode string, months int, calls []client.RawCall) {
	data, err := json.Marshal(calls)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key(agentCode, months), data, c.ttl).Err(); err != nil && c.log != nil {
		c.log.Warn("cdr cache write failed", "error", err)
	}
}
