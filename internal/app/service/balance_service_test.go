package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"token_aggregator/internal/app/port"
	"token_aggregator/internal/app/provider"
	"token_aggregator/internal/domain/entity"
)

func newNearLikeAdapter() *fakeContractAdapter {
	return &fakeContractAdapter{
		chain: "near",
		ids:   []string{"freeairdrop.near", "wrap.near"},
		metadata: map[string]*entity.TokenMetadata{
			"wrap.near":        {Symbol: "wNEAR", Decimals: 6, Icon: "data:image/svg+xml,..."},
			"freeairdrop.near": {Symbol: "FREE AIRDROP", Decimals: 18},
		},
		balances: map[string]*entity.TokenBalance{
			"wrap.near":        {Raw: "1500000", Decimals: 6},
			"freeairdrop.near": {Raw: "999", Decimals: 18},
		},
		verified:  map[string]bool{"wrap.near": true},
		invalid:   map[string]string{"INVALID": "uppercase characters are not allowed"},
		nativeRaw: "2000000000000000000000000",
		nativeDec: 24,
	}
}

func newTestBalanceService(adapters ...port.ChainAdapter) port.BalanceService {
	registry := provider.NewAdapterRegistry(adapters...)
	return NewBalanceService(registry, newTestAggregator(DefaultConcurrencyWindow),
		DefaultMaxBatchAddresses, nopLogger{})
}

func TestAccountBalance(t *testing.T) {
	svc := newTestBalanceService(newNearLikeAdapter())

	got, err := svc.AccountBalance(context.Background(), "near", "alice.near")
	require.NoError(t, err)

	assert.Equal(t, "near", got.Chain)
	assert.Equal(t, "alice.near", got.Address)
	assert.Equal(t, "TST", got.Native.Symbol)
	assert.Equal(t, "2000000000000000000000000", got.Native.RawBalance)
	assert.Equal(t, "2.00000", got.Native.FormattedBalance)

	// The planted promotional token is filtered out; the verified one stays.
	require.Len(t, got.Tokens, 1)
	assert.Equal(t, "wrap.near", got.Tokens[0].ID)
	assert.Equal(t, "1.5000", got.Tokens[0].FormattedBalance)
	assert.True(t, got.Tokens[0].Verified)
}

func TestAccountBalanceUnsupportedChain(t *testing.T) {
	svc := newTestBalanceService(newNearLikeAdapter())

	_, err := svc.AccountBalance(context.Background(), "ethereum", "0xabc")
	var validation *entity.AddressValidationError
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, "ethereum", validation.Chain)
}

func TestAccountBalanceInvalidAddress(t *testing.T) {
	svc := newTestBalanceService(newNearLikeAdapter())

	_, err := svc.AccountBalance(context.Background(), "near", "INVALID")
	var validation *entity.AddressValidationError
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, "INVALID", validation.Address)
}

func TestAccountBalancesRejectsOversizedBatch(t *testing.T) {
	svc := newTestBalanceService(newNearLikeAdapter())

	addresses := make([]string, DefaultMaxBatchAddresses+1)
	for i := range addresses {
		addresses[i] = fmt.Sprintf("user%d.near", i)
	}

	results, err := svc.AccountBalances(context.Background(), "near", addresses)
	var limit *entity.BatchLimitError
	require.ErrorAs(t, err, &limit)
	assert.Equal(t, DefaultMaxBatchAddresses, limit.Limit)
	assert.Equal(t, DefaultMaxBatchAddresses+1, limit.Got)
	assert.Nil(t, results, "an oversized batch produces no per-item results")
}

func TestAccountBalancesPartialFailures(t *testing.T) {
	svc := newTestBalanceService(newNearLikeAdapter())

	results, err := svc.AccountBalances(context.Background(), "near",
		[]string{"alice.near", "INVALID", "bob.near"})
	require.NoError(t, err, "per-item failures never fail the batch")
	require.Len(t, results, 3)

	assert.Equal(t, entity.BatchItemSuccess, results[0].Status)
	assert.Equal(t, "alice.near", results[0].Address)
	require.NotNil(t, results[0].Data)

	assert.Equal(t, entity.BatchItemFailed, results[1].Status)
	assert.Equal(t, "INVALID", results[1].Address)
	assert.NotEmpty(t, results[1].Error)
	assert.Nil(t, results[1].Data)

	assert.Equal(t, entity.BatchItemSuccess, results[2].Status)
}

func TestAccountBalancesAtLimitSucceeds(t *testing.T) {
	svc := newTestBalanceService(newNearLikeAdapter())

	addresses := make([]string, DefaultMaxBatchAddresses)
	for i := range addresses {
		addresses[i] = fmt.Sprintf("user%d.near", i)
	}

	results, err := svc.AccountBalances(context.Background(), "near", addresses)
	require.NoError(t, err)
	require.Len(t, results, DefaultMaxBatchAddresses)
	for i, r := range results {
		assert.Equal(t, addresses[i], r.Address, "result order follows request order")
		assert.Equal(t, entity.BatchItemSuccess, r.Status)
	}
}

func TestVerifiedTokensSortsVerifiedFirst(t *testing.T) {
	adapter := newNearLikeAdapter()
	// Two clean unverified tokens enumerated before the verified one.
	adapter.ids = []string{"ref.near", "aurora.near", "wrap.near"}
	adapter.metadata["ref.near"] = &entity.TokenMetadata{Symbol: "REF", Decimals: 18, Icon: "data:..."}
	adapter.metadata["aurora.near"] = &entity.TokenMetadata{Symbol: "AURORA", Decimals: 18, Icon: "data:..."}
	adapter.balances["ref.near"] = &entity.TokenBalance{Raw: "1000000000000000000", Decimals: 18}
	adapter.balances["aurora.near"] = &entity.TokenBalance{Raw: "2000000000000000000", Decimals: 18}

	svc := newTestBalanceService(adapter)
	got, err := svc.VerifiedTokens(context.Background(), "alice.near")
	require.NoError(t, err)

	require.Len(t, got.Tokens, 3)
	assert.Equal(t, "wrap.near", got.Tokens[0].ID)
	// The sort is stable: unverified tokens keep their enumeration order.
	assert.Equal(t, "ref.near", got.Tokens[1].ID)
	assert.Equal(t, "aurora.near", got.Tokens[2].ID)
}
