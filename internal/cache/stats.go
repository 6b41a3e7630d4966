package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/zarick1/natours/internal/domain"
)

const statsKey = "natours:tour:stats"

// StatsCache keeps the tour-stats aggregate in Redis so repeat requests
// skip the GROUP BY. A cache failure is never surfaced to the caller; the
// worst case is recomputing the aggregate.
type StatsCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewStatsCache creates a Redis-backed stats cache.
func NewStatsCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) *StatsCache {
	return &StatsCache{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

// GetTourStats returns the cached aggregate and whether it was present.
func (c *StatsCache) GetTourStats(ctx context.Context) ([]domain.TourStats, bool) {
	raw, err := c.client.Get(ctx, statsKey).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.WarnContext(ctx, "stats cache read failed", slog.String("error", err.Error()))
		}
		return nil, false
	}

	var stats []domain.TourStats
	if err := json.Unmarshal(raw, &stats); err != nil {
		c.logger.WarnContext(ctx, "stats cache entry corrupt", slog.String("error", err.Error()))
		return nil, false
	}

	return stats, true
}

// SetTourStats stores the aggregate with the configured TTL.
func (c *StatsCache) SetTourStats(ctx context.Context, stats []domain.TourStats) {
	raw, err := json.Marshal(stats)
	if err != nil {
		c.logger.WarnContext(ctx, "stats cache marshal failed", slog.String("error", err.Error()))
		return
	}

	if err := c.client.Set(ctx, statsKey, raw, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "stats cache write failed", slog.String("error", err.Error()))
	}
}

// InvalidateTourStats drops the cached aggregate. Called whenever a tour or
// review changes so the next read recomputes.
func (c *StatsCache) InvalidateTourStats(ctx context.Context) {
	if err := c.client.Del(ctx, statsKey).Err(); err != nil {
		c.logger.WarnContext(ctx, "stats cache invalidate failed", slog.String("error", err.Error()))
	}
}
