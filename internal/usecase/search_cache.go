package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/roomscout/backend/internal/domain"
)

// CachedSearchProvider is a read-through cache in front of a SearchProvider.
// Only successful, non-empty responses are cached.
type CachedSearchProvider struct {
	next   domain.SearchProvider
	cache  domain.CacheRepository
	ttl    time.Duration
	logger zerolog.Logger
}

// NewCachedSearchProvider wraps next with cache
func NewCachedSearchProvider(next domain.SearchProvider, cache domain.CacheRepository, ttl time.Duration) *CachedSearchProvider {
	if ttl <= 0 {
		ttl = 168 * time.Hour // 7 days
	}
	return &CachedSearchProvider{
		next:   next,
		cache:  cache,
		ttl:    ttl,
		logger: log.With().Str("component", "search-cache").Logger(),
	}
}

// Search returns cached results for query when present, otherwise
// delegates and stores the response.
func (c *CachedSearchProvider) Search(ctx context.Context, query string) ([]domain.SearchResult, error) {
	key := searchCacheKey(query)

	if raw, err := c.cache.Get(ctx, key); err == nil {
		var results []domain.SearchResult
		if err := json.Unmarshal(raw, &results); err == nil {
			c.logger.Debug().Str("query", query).Int("results", len(results)).Msg("cache hit")
			return results, nil
		}
		c.logger.Warn().Str("key", key).Msg("dropping undecodable cache entry")
		_ = c.cache.Delete(ctx, key)
	}

	results, err := c.next.Search(ctx, query)
	if err != nil || len(results) == 0 {
		return results, err
	}

	if raw, err := json.Marshal(results); err == nil {
		if err := c.cache.Set(ctx, key, raw, c.ttl); err != nil {
			// Caching is best effort
			c.logger.Warn().Err(err).Str("key", key).Msg("cache write failed")
		}
	}

	return results, nil
}

// searchCacheKey creates a normalized cache key from a query.
// Format: "search:{normalized_query}"
func searchCacheKey(query string) string {
	return fmt.Sprintf("search:%s", normalizeForCacheKey(query))
}
