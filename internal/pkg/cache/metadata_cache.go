package cache

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"token_aggregator/internal/app/port"
	"token_aggregator/internal/domain/entity"
	"token_aggregator/internal/pkg/metrics"
)

// Compile-time check
var _ port.MetadataCache = (*TTLMetadataCache)(nil)

// DefaultTTL bounds how long a fetched metadata entry is served without a
// refetch.
const DefaultTTL = 30 * time.Second

// TTLMetadataCache is a time-bounded token metadata store shared across
// requests. There is no per-key locking: two concurrent misses for the same
// id may both hit upstream and the last write wins, which is accepted since
// metadata is idempotent per token id. Entries expire lazily; a stale entry
// is overwritten by the next successful fetch, never proactively evicted.
type TTLMetadataCache struct {
	store  *gocache.Cache
	ttl    time.Duration
	logger port.Logger
}

// NewTTLMetadataCache builds a cache with the given TTL. A non-positive TTL
// falls back to DefaultTTL. Constructed once in main and injected; never a
// package-level singleton.
func NewTTLMetadataCache(ttl time.Duration, logger port.Logger) *TTLMetadataCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	// Cleanup interval 0 disables the janitor: expiry is lazy by design.
	return &TTLMetadataCache{
		store:  gocache.New(ttl, 0),
		ttl:    ttl,
		logger: logger,
	}
}

// GetOrFetch implements port.MetadataCache.
func (c *TTLMetadataCache) GetOrFetch(ctx context.Context, tokenID string, fetch port.MetadataFetcher) (*entity.TokenMetadata, bool) {
	if x, found := c.store.Get(tokenID); found {
		if md, ok := x.(*entity.TokenMetadata); ok {
			metrics.MetadataCacheHits.Inc()
			return md, true
		}
	}
	metrics.MetadataCacheMisses.Inc()

	md, err := fetch(ctx, tokenID)
	if err != nil {
		c.logger.Debug("metadata fetch failed, treating as absent", "token_id", tokenID, "error", err)
		return nil, false
	}
	if md == nil {
		return nil, false
	}

	c.store.Set(tokenID, md, c.ttl)
	return md, true
}
