package cache

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zarick1/natours/internal/domain"
)

func newStatsCacheFixture(t *testing.T) (*StatsCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewStatsCache(client, time.Minute, log), mr
}

func sampleStats() []domain.TourStats {
	return []domain.TourStats{
		{Difficulty: domain.DifficultyEasy, NumTours: 4, NumRatings: 120, AvgRating: 4.67, AvgPrice: 497, MinPrice: 397, MaxPrice: 697},
		{Difficulty: domain.DifficultyDifficult, NumTours: 2, NumRatings: 41, AvgRating: 4.5, AvgPrice: 1497, MinPrice: 997, MaxPrice: 1997},
	}
}

func TestStatsCache_RoundTrip(t *testing.T) {
	cache, _ := newStatsCacheFixture(t)
	ctx := context.Background()

	_, ok := cache.GetTourStats(ctx)
	assert.False(t, ok, "empty cache should miss")

	cache.SetTourStats(ctx, sampleStats())

	got, ok := cache.GetTourStats(ctx)
	require.True(t, ok)
	assert.Equal(t, sampleStats(), got)
}

func TestStatsCache_Invalidate(t *testing.T) {
	cache, _ := newStatsCacheFixture(t)
	ctx := context.Background()

	cache.SetTourStats(ctx, sampleStats())
	cache.InvalidateTourStats(ctx)

	_, ok := cache.GetTourStats(ctx)
	assert.False(t, ok)
}

func TestStatsCache_EntryExpires(t *testing.T) {
	cache, mr := newStatsCacheFixture(t)
	ctx := context.Background()

	cache.SetTourStats(ctx, sampleStats())
	mr.FastForward(2 * time.Minute)

	_, ok := cache.GetTourStats(ctx)
	assert.False(t, ok)
}

func TestStatsCache_CorruptEntryMisses(t *testing.T) {
	cache, mr := newStatsCacheFixture(t)
	ctx := context.Background()

	require.NoError(t, mr.Set("natours:tour:stats", "not-json"))

	_, ok := cache.GetTourStats(ctx)
	assert.False(t, ok)
}
