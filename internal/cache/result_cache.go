package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/vitalia-health/vitalia-ai-go/internal/database"
	"github.com/vitalia-health/vitalia-ai-go/internal/models"
)

// CorrelationCache caches computed gut-brain correlation results so repeated
// dashboard loads inside the TTL window skip the repository and the math.
// Cache failures are logged and treated as misses; the analysis is cheap
// enough to recompute.
type CorrelationCache struct {
	client *database.RedisClient
	ttl    time.Duration
	logger *logrus.Logger
}

// NewCorrelationCache creates a cache with the given TTL.
func NewCorrelationCache(client *database.RedisClient, ttl time.Duration, logger *logrus.Logger) *CorrelationCache {
	return &CorrelationCache{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

func correlationKey(userID uuid.UUID, timeframe models.Timeframe) string {
	return fmt.Sprintf("gutbrain:correlation:%s:%s", userID, timeframe)
}

// Get returns the cached analysis, or (nil, false) on a miss.
func (c *CorrelationCache) Get(ctx context.Context, userID uuid.UUID, timeframe models.Timeframe) (*models.MicrobiomeMoodCorrelation, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	raw, err := c.client.Get(ctx, correlationKey(userID, timeframe))
	if err != nil {
		if err != redis.Nil {
			c.logger.WithError(err).Warn("Correlation cache read failed")
		}
		return nil, false
	}
	var analysis models.MicrobiomeMoodCorrelation
	if err := json.Unmarshal([]byte(raw), &analysis); err != nil {
		c.logger.WithError(err).Warn("Correlation cache entry corrupt, discarding")
		return nil, false
	}
	return &analysis, true
}

// Set stores an analysis under its user/timeframe key.
func (c *CorrelationCache) Set(ctx context.Context, analysis *models.MicrobiomeMoodCorrelation) {
	if c == nil || c.client == nil || analysis == nil {
		return
	}
	raw, err := json.Marshal(analysis)
	if err != nil {
		c.logger.WithError(err).Warn("Failed to marshal correlation for cache")
		return
	}
	if err := c.client.Set(ctx, correlationKey(analysis.UserID, analysis.Timeframe), raw, c.ttl); err != nil {
		c.logger.WithError(err).Warn("Correlation cache write failed")
	}
}

// Invalidate drops all cached timeframes for a user, called after new data
// is ingested.
func (c *CorrelationCache) Invalidate(ctx context.Context, userID uuid.UUID) {
	if c == nil || c.client == nil {
		return
	}
	keys := make([]string, 0, 3)
	for _, tf := range []models.Timeframe{models.TimeframeWeek, models.TimeframeMonth, models.TimeframeQuarter} {
		keys = append(keys, correlationKey(userID, tf))
	}
	if err := c.client.Delete(ctx, keys...); err != nil {
		c.logger.WithError(err).Warn("Correlation cache invalidation failed")
	}
}
