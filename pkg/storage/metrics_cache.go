package storage

import (
	"fmt"
	"strings"
	"time"

	"keyword-radar/pkg/opportunity"
)

// MetricsCache keeps provider responses per seed so repeated analyses
// inside the TTL skip the paid provider calls
type MetricsCache struct {
	cache *MemoryCache
}

func NewMetricsCache(size int, ttl time.Duration) *MetricsCache {
	return &MetricsCache{cache: NewMemoryCacheWithTTL(size, ttl)}
}

// MetricsKey builds the cache key for a seed in a market
func MetricsKey(locationCode int, languageCode, seed string) string {
	return fmt.Sprintf("%d:%s:%s", locationCode, strings.ToLower(languageCode), strings.TrimSpace(seed))
}

func (c *MetricsCache) Get(key string) ([]opportunity.RawKeyword, bool) {
	value, ok := c.cache.Get(key)
	if !ok {
		return nil, false
	}
	records, ok := value.([]opportunity.RawKeyword)
	return records, ok
}

// Put stores a copy of records so later mutation by the caller is not visible
func (c *MetricsCache) Put(key string, records []opportunity.RawKeyword) {
	stored := make([]opportunity.RawKeyword, len(records))
	copy(stored, records)
	_ = c.cache.Set(key, stored)
}

func (c *MetricsCache) Stats() CacheStats {
	return c.cache.Stats()
}

func (c *MetricsCache) Close() {
	c.cache.Close()
}
