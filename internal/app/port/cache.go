package port

import (
	"context"

	"token_aggregator/internal/domain/entity"
)

// MetadataFetcher loads token metadata from upstream. (nil, nil) means the
// metadata is legitimately absent.
type MetadataFetcher func(ctx context.Context, tokenID string) (*entity.TokenMetadata, error)

// MetadataCache is a time-bounded store of token metadata shared across
// requests for the process lifetime.
type MetadataCache interface {
	// GetOrFetch returns the cached value when its age is below the TTL,
	// without invoking fetch. On miss or stale entry it invokes fetch; success
	// is stored and returned, failure or absence returns (nil, false) and
	// leaves any prior entry untouched. Concurrent misses for the same key may
	// both invoke fetch; the last write wins.
	GetOrFetch(ctx context.Context, tokenID string, fetch MetadataFetcher) (*entity.TokenMetadata, bool)
}
