package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitalia-health/vitalia-ai-go/internal/database"
	"github.com/vitalia-health/vitalia-ai-go/internal/models"
)

func newTestCache(t *testing.T) (*CorrelationCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := &database.RedisClient{Client: redis.NewClient(&redis.Options{Addr: mr.Addr()})}
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return NewCorrelationCache(client, 15*time.Minute, logger), mr
}

func testAnalysis(userID uuid.UUID, timeframe models.Timeframe) *models.MicrobiomeMoodCorrelation {
	return &models.MicrobiomeMoodCorrelation{
		UserID:        userID,
		Timeframe:     timeframe,
		AnalyzedAt:    time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC),
		PairedSamples: 6,
		DiversityMood: models.Correlation{Coefficient: 0.62, SampleSize: 6, Confidence: models.ConfidenceMedium},
	}
}

func TestCorrelationCache_RoundTrip(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()
	userID := uuid.New()

	_, ok := c.Get(ctx, userID, models.TimeframeMonth)
	assert.False(t, ok)

	c.Set(ctx, testAnalysis(userID, models.TimeframeMonth))

	got, ok := c.Get(ctx, userID, models.TimeframeMonth)
	require.True(t, ok)
	assert.Equal(t, userID, got.UserID)
	assert.Equal(t, 6, got.PairedSamples)
	assert.Equal(t, 0.62, got.DiversityMood.Coefficient)

	// A different timeframe is a separate entry.
	_, ok = c.Get(ctx, userID, models.TimeframeWeek)
	assert.False(t, ok)
}

func TestCorrelationCache_EntriesExpire(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()
	userID := uuid.New()

	c.Set(ctx, testAnalysis(userID, models.TimeframeWeek))
	mr.FastForward(16 * time.Minute)

	_, ok := c.Get(ctx, userID, models.TimeframeWeek)
	assert.False(t, ok)
}

func TestCorrelationCache_InvalidateDropsAllTimeframes(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()
	userID := uuid.New()
	other := uuid.New()

	for _, tf := range []models.Timeframe{models.TimeframeWeek, models.TimeframeMonth, models.TimeframeQuarter} {
		c.Set(ctx, testAnalysis(userID, tf))
	}
	c.Set(ctx, testAnalysis(other, models.TimeframeMonth))

	c.Invalidate(ctx, userID)

	for _, tf := range []models.Timeframe{models.TimeframeWeek, models.TimeframeMonth, models.TimeframeQuarter} {
		_, ok := c.Get(ctx, userID, tf)
		assert.False(t, ok, "timeframe %s should be invalidated", tf)
	}
	// Other users' entries survive.
	_, ok := c.Get(ctx, other, models.TimeframeMonth)
	assert.True(t, ok)
}

func TestCorrelationCache_CorruptEntryIsAMiss(t *testing.T) {
	c, mr := newTestCache(t)
	userID := uuid.New()

	require.NoError(t, mr.Set(correlationKey(userID, models.TimeframeMonth), "{not json"))

	_, ok := c.Get(context.Background(), userID, models.TimeframeMonth)
	assert.False(t, ok)
}

func TestCorrelationCache_NilSafe(t *testing.T) {
	var c *CorrelationCache
	ctx := context.Background()

	_, ok := c.Get(ctx, uuid.New(), models.TimeframeMonth)
	assert.False(t, ok)
	c.Set(ctx, testAnalysis(uuid.New(), models.TimeframeMonth))
	c.Invalidate(ctx, uuid.New())
}
