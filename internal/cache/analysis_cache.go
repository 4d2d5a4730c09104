// Package cache provides a Redis-backed cache for analysis results, keyed
// by (mode, filters). Analysis is cheap but the backing record query is
// not; a short TTL keeps repeated dashboard loads off Postgres without ever
// serving stale results beyond the window.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ignite/sendtime-optimizer/internal/analyzer"
)

// AnalysisCache caches serialized AnalysisResults.
type AnalysisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// New creates an AnalysisCache. A zero ttl defaults to five minutes.
func New(client *redis.Client, ttl time.Duration) *AnalysisCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &AnalysisCache{client: client, ttl: ttl}
}

// Key builds the cache key for one (mode, filters) combination.
func Key(mode analyzer.Mode, f analyzer.Filters) string {
	return fmt.Sprintf("analysis:%s:%s:%s:%s", mode, f.BusinessUnit, f.OrganizationType, f.CampaignType)
}

// Get returns the cached result for the key, or (nil, nil) on a miss.
// Redis errors are returned so callers can fall through to recompute.
func (c *AnalysisCache) Get(ctx context.Context, mode analyzer.Mode, f analyzer.Filters) (*analyzer.AnalysisResult, error) {
	data, err := c.client.Get(ctx, Key(mode, f)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cache get: %w", err)
	}

	var result analyzer.AnalysisResult
	if err := json.Unmarshal(data, &result); err != nil {
		// A corrupt entry is treated as a miss; it will be overwritten.
		return nil, nil
	}
	return &result, nil
}

// Set stores a result under its (mode, filters) key with the cache TTL.
func (c *AnalysisCache) Set(ctx context.Context, result *analyzer.AnalysisResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("cache marshal: %w", err)
	}
	if err := c.client.Set(ctx, Key(result.Mode, result.Filters), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// Invalidate drops every cached analysis entry. Called after a new import
// lands so the next read reflects the fresh records.
func (c *AnalysisCache) Invalidate(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, "analysis:*", 0).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("cache scan: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("cache del: %w", err)
	}
	return nil
}
