package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/projeval-api/internal/observability"
)

const leaderboardCacheKey = "leaderboard:top"

func dashboardCacheKey(userID uint) string {
	return fmt.Sprintf("dashboard:user:%d", userID)
}

// CacheInvalidator drops cached read models after writes.
type CacheInvalidator interface {
	InvalidateLeaderboard(ctx context.Context)
	InvalidateDashboards(ctx context.Context, userIDs ...uint)
}

// Cache is a JSON read-through cache on Redis. A nil client disables it.
type Cache struct {
	client *redis.Client
	logger zerolog.Logger
}

// NewCache wraps the Redis client.
func NewCache(client *redis.Client, logger zerolog.Logger) *Cache {
	return &Cache{
		client: client,
		logger: logger.With().Str("component", "cache").Logger(),
	}
}

func (c *Cache) enabled() bool {
	return c != nil && c.client != nil
}

func (c *Cache) getJSON(ctx context.Context, name, key string, dest interface{}) bool {
	if !c.enabled() {
		return false
	}

	cached, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn().Err(err).Str("key", key).Msg("failed to read cache")
		}
		observability.CacheLookups().WithLabelValues(name, "miss").Inc()
		return false
	}

	if err := json.Unmarshal([]byte(cached), dest); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("discarding undecodable cache entry")
		observability.CacheLookups().WithLabelValues(name, "miss").Inc()
		return false
	}

	observability.CacheLookups().WithLabelValues(name, "hit").Inc()
	return true
}

func (c *Cache) setJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if !c.enabled() || ttl <= 0 {
		return
	}

	payload, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("failed to encode cache entry")
		return
	}
	if err := c.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("failed to store cache entry")
	}
}

func (c *Cache) delete(ctx context.Context, keys ...string) {
	if !c.enabled() || len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn().Err(err).Strs("keys", keys).Msg("failed to invalidate cache")
	}
}

// InvalidateLeaderboard drops the cached top-5.
func (c *Cache) InvalidateLeaderboard(ctx context.Context) {
	c.delete(ctx, leaderboardCacheKey)
}

// InvalidateDashboards drops the cached dashboards of the given users.
func (c *Cache) InvalidateDashboards(ctx context.Context, userIDs ...uint) {
	keys := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		if id != 0 {
			keys = append(keys, dashboardCacheKey(id))
		}
	}
	c.delete(ctx, keys...)
}
