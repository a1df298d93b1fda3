package cache

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"token_aggregator/internal/domain/entity"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

func TestGetOrFetchCachesWithinTTL(t *testing.T) {
	c := NewTTLMetadataCache(time.Minute, nopLogger{})

	calls := 0
	fetch := func(ctx context.Context, tokenID string) (*entity.TokenMetadata, error) {
		calls++
		return &entity.TokenMetadata{Symbol: "wNEAR", Decimals: 24}, nil
	}

	md, ok := c.GetOrFetch(context.Background(), "wrap.near", fetch)
	require.True(t, ok)
	require.Equal(t, "wNEAR", md.Symbol)

	md, ok = c.GetOrFetch(context.Background(), "wrap.near", fetch)
	require.True(t, ok)
	require.Equal(t, "wNEAR", md.Symbol)
	require.Equal(t, 1, calls, "second lookup within TTL must be served from cache")
}

func TestGetOrFetchRefetchesAfterExpiry(t *testing.T) {
	c := NewTTLMetadataCache(40*time.Millisecond, nopLogger{})

	calls := 0
	fetch := func(ctx context.Context, tokenID string) (*entity.TokenMetadata, error) {
		calls++
		return &entity.TokenMetadata{Symbol: "USDt", Decimals: 6}, nil
	}

	_, ok := c.GetOrFetch(context.Background(), "usdt.tether-token.near", fetch)
	require.True(t, ok)

	time.Sleep(60 * time.Millisecond)

	_, ok = c.GetOrFetch(context.Background(), "usdt.tether-token.near", fetch)
	require.True(t, ok)
	require.Equal(t, 2, calls, "expired entry must trigger a refetch")
}

func TestGetOrFetchDoesNotCacheFailures(t *testing.T) {
	c := NewTTLMetadataCache(time.Minute, nopLogger{})

	calls := 0
	failing := func(ctx context.Context, tokenID string) (*entity.TokenMetadata, error) {
		calls++
		return nil, errors.New("rpc unavailable")
	}

	_, ok := c.GetOrFetch(context.Background(), "token.v2.ref-finance.near", failing)
	require.False(t, ok)

	// A later successful fetch must not be shadowed by the earlier failure.
	good := func(ctx context.Context, tokenID string) (*entity.TokenMetadata, error) {
		calls++
		return &entity.TokenMetadata{Symbol: "REF", Decimals: 18}, nil
	}
	md, ok := c.GetOrFetch(context.Background(), "token.v2.ref-finance.near", good)
	require.True(t, ok)
	require.Equal(t, "REF", md.Symbol)
	require.Equal(t, 2, calls)
}

func TestGetOrFetchTreatsNilMetadataAsAbsent(t *testing.T) {
	c := NewTTLMetadataCache(time.Minute, nopLogger{})

	calls := 0
	absent := func(ctx context.Context, tokenID string) (*entity.TokenMetadata, error) {
		calls++
		return nil, nil
	}

	_, ok := c.GetOrFetch(context.Background(), "not-a-token.near", absent)
	require.False(t, ok)

	// Absence is not negatively cached either.
	_, ok = c.GetOrFetch(context.Background(), "not-a-token.near", absent)
	require.False(t, ok)
	require.Equal(t, 2, calls)
}
