package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"token_aggregator/internal/app/port"
	"token_aggregator/internal/domain/entity"
	"token_aggregator/internal/pkg/cache"
	"token_aggregator/internal/pkg/spamfilter"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// fakeContractAdapter is a contract-call chain double. It instruments the
// balance fetches so tests can observe how many pairs run concurrently and
// when each one ran.
type fakeContractAdapter struct {
	chain        string
	ids          []string
	metadata     map[string]*entity.TokenMetadata
	balances     map[string]*entity.TokenBalance
	verified     map[string]bool
	invalid      map[string]string
	nativeRaw    string
	nativeDec    uint32
	candidateErr error
	delay        time.Duration

	mu          sync.Mutex
	inFlight    int
	maxInFlight int
	starts      map[string]time.Time
	ends        map[string]time.Time
}

var (
	_ port.ChainAdapter          = (*fakeContractAdapter)(nil)
	_ port.TokenMetadataProvider = (*fakeContractAdapter)(nil)
)

func (f *fakeContractAdapter) Chain() string {
	if f.chain == "" {
		return "testchain"
	}
	return f.chain
}

func (f *fakeContractAdapter) ValidateAddress(address string) error {
	if reason, ok := f.invalid[address]; ok {
		return &entity.AddressValidationError{Chain: f.Chain(), Address: address, Reason: reason}
	}
	return nil
}

func (f *fakeContractAdapter) NativeBalance(ctx context.Context, account string) (entity.TokenBalance, error) {
	return entity.TokenBalance{Raw: f.nativeRaw, Decimals: f.nativeDec}, nil
}

func (f *fakeContractAdapter) NativeSymbol() string { return "TST" }

func (f *fakeContractAdapter) NativeDisplayPrecision() int { return 5 }

func (f *fakeContractAdapter) CandidateTokenIDs(ctx context.Context, account string) ([]string, error) {
	if f.candidateErr != nil {
		return nil, f.candidateErr
	}
	return f.ids, nil
}

func (f *fakeContractAdapter) TokenMetadata(ctx context.Context, tokenID string) (*entity.TokenMetadata, error) {
	time.Sleep(f.delay)
	return f.metadata[tokenID], nil
}

func (f *fakeContractAdapter) TokenBalance(ctx context.Context, account, tokenID string) (*entity.TokenBalance, error) {
	f.mu.Lock()
	if f.starts == nil {
		f.starts = make(map[string]time.Time)
		f.ends = make(map[string]time.Time)
	}
	f.starts[tokenID] = time.Now()
	f.inFlight++
	if f.inFlight > f.maxInFlight {
		f.maxInFlight = f.inFlight
	}
	f.mu.Unlock()

	time.Sleep(f.delay)

	f.mu.Lock()
	f.inFlight--
	f.ends[tokenID] = time.Now()
	f.mu.Unlock()
	return f.balances[tokenID], nil
}

func (f *fakeContractAdapter) IsVerified(tokenID string) bool { return f.verified[tokenID] }

// fakeIndexedAdapter is an ownership-indexed chain double: holdings come from
// a single enumeration call and there is no metadata lookup.
type fakeIndexedAdapter struct {
	holdings []entity.TokenHolding
	verified map[string]bool
	err      error
}

var (
	_ port.ChainAdapter    = (*fakeIndexedAdapter)(nil)
	_ port.TokenEnumerator = (*fakeIndexedAdapter)(nil)
)

func (f *fakeIndexedAdapter) Chain() string                        { return "indexed" }
func (f *fakeIndexedAdapter) ValidateAddress(string) error         { return nil }
func (f *fakeIndexedAdapter) NativeSymbol() string                 { return "IDX" }
func (f *fakeIndexedAdapter) NativeDisplayPrecision() int          { return 9 }
func (f *fakeIndexedAdapter) IsVerified(tokenID string) bool       { return f.verified[tokenID] }
func (f *fakeIndexedAdapter) NativeBalance(ctx context.Context, account string) (entity.TokenBalance, error) {
	return entity.TokenBalance{Raw: "0", Decimals: 9}, nil
}

func (f *fakeIndexedAdapter) TokenHoldings(ctx context.Context, account string) ([]entity.TokenHolding, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.holdings, nil
}

// bareAdapter supports only the native asset.
type bareAdapter struct{}

var _ port.ChainAdapter = bareAdapter{}

func (bareAdapter) Chain() string                { return "bare" }
func (bareAdapter) ValidateAddress(string) error { return nil }
func (bareAdapter) NativeSymbol() string         { return "BARE" }
func (bareAdapter) NativeDisplayPrecision() int  { return 8 }
func (bareAdapter) NativeBalance(ctx context.Context, account string) (entity.TokenBalance, error) {
	return entity.TokenBalance{Raw: "800", Decimals: 8}, nil
}

func newTestAggregator(window int) port.TokenAggregator {
	return NewAggregatorService(
		cache.NewTTLMetadataCache(time.Minute, nopLogger{}),
		spamfilter.New(spamfilter.Config{}),
		window,
		nopLogger{},
	)
}

func goodMetadata(symbol string) *entity.TokenMetadata {
	return &entity.TokenMetadata{Symbol: symbol, Decimals: 6, Icon: "data:image/svg+xml,..."}
}

func TestAggregateTokensWindowedFanOut(t *testing.T) {
	const (
		total  = 12
		window = 5
		delay  = 30 * time.Millisecond
	)

	adapter := &fakeContractAdapter{
		metadata: make(map[string]*entity.TokenMetadata),
		balances: make(map[string]*entity.TokenBalance),
		delay:    delay,
	}
	for i := 0; i < total; i++ {
		id := fmt.Sprintf("token-%02d.test", i)
		adapter.ids = append(adapter.ids, id)
		adapter.metadata[id] = goodMetadata(fmt.Sprintf("TK%02d", i))
		adapter.balances[id] = &entity.TokenBalance{Raw: "1500000", Decimals: 6}
	}

	tokens, err := newTestAggregator(window).AggregateTokens(context.Background(), adapter, "alice.test")
	require.NoError(t, err)
	require.Len(t, tokens, total)

	// Output order follows candidate order.
	for i, tok := range tokens {
		assert.Equal(t, adapter.ids[i], tok.ID)
		assert.Equal(t, "1.5000", tok.FormattedBalance)
	}

	// At most one window of balance fetches in flight at a time.
	assert.LessOrEqual(t, adapter.maxInFlight, window)
	assert.Greater(t, adapter.maxInFlight, 1, "fetches within a window run concurrently")

	// The join barrier keeps windows strictly sequential: every fetch of a
	// window starts only after the previous window fully resolved.
	windowEnd := func(lo, hi int) time.Time {
		var last time.Time
		for _, id := range adapter.ids[lo:hi] {
			if adapter.ends[id].After(last) {
				last = adapter.ends[id]
			}
		}
		return last
	}
	for _, bound := range []struct{ prevLo, prevHi, lo, hi int }{
		{0, 5, 5, 10},
		{5, 10, 10, 12},
	} {
		prevDone := windowEnd(bound.prevLo, bound.prevHi)
		for _, id := range adapter.ids[bound.lo:bound.hi] {
			assert.False(t, adapter.starts[id].Before(prevDone),
				"%s started before the previous window joined", id)
		}
	}
}

func TestAggregateTokensDropsAbsentMetadataAndBalance(t *testing.T) {
	adapter := &fakeContractAdapter{
		ids: []string{"good.test", "no-metadata.test", "no-balance.test"},
		metadata: map[string]*entity.TokenMetadata{
			"good.test":       goodMetadata("GOOD"),
			"no-balance.test": goodMetadata("NOBAL"),
		},
		balances: map[string]*entity.TokenBalance{
			"good.test":        {Raw: "42000000", Decimals: 6},
			"no-metadata.test": {Raw: "1", Decimals: 6},
		},
	}

	tokens, err := newTestAggregator(DefaultConcurrencyWindow).AggregateTokens(context.Background(), adapter, "alice.test")
	require.NoError(t, err)
	require.Len(t, tokens, 1)
	assert.Equal(t, "good.test", tokens[0].ID)
	assert.Equal(t, "42.0000", tokens[0].FormattedBalance)
}

func TestAggregateTokensAppliesClassifier(t *testing.T) {
	adapter := &fakeContractAdapter{
		ids: []string{"wrap.test", "freeairdrop.test", "bare.test"},
		metadata: map[string]*entity.TokenMetadata{
			"wrap.test":        goodMetadata("wTST"),
			"freeairdrop.test": {Symbol: "FREE AIRDROP", Decimals: 18},
			"bare.test":        {Symbol: "BARE", Decimals: 18},
		},
		balances: map[string]*entity.TokenBalance{
			"wrap.test":        {Raw: "1500000", Decimals: 6},
			"freeairdrop.test": {Raw: "999", Decimals: 18},
			"bare.test":        {Raw: "1", Decimals: 18},
		},
		verified: map[string]bool{"wrap.test": true},
	}

	tokens, err := newTestAggregator(DefaultConcurrencyWindow).AggregateTokens(context.Background(), adapter, "alice.test")
	require.NoError(t, err)
	require.Len(t, tokens, 1)
	assert.Equal(t, "wrap.test", tokens[0].ID)
	assert.True(t, tokens[0].Verified)
}

func TestAggregateTokensAllowListOverridesSpamPattern(t *testing.T) {
	adapter := &fakeContractAdapter{
		ids: []string{"freeairdrop.test"},
		metadata: map[string]*entity.TokenMetadata{
			"freeairdrop.test": {Symbol: "FREE AIRDROP", Decimals: 6},
		},
		balances: map[string]*entity.TokenBalance{
			"freeairdrop.test": {Raw: "1000000", Decimals: 6},
		},
		verified: map[string]bool{"freeairdrop.test": true},
	}

	tokens, err := newTestAggregator(DefaultConcurrencyWindow).AggregateTokens(context.Background(), adapter, "alice.test")
	require.NoError(t, err)
	require.Len(t, tokens, 1)
	assert.True(t, tokens[0].Verified)
	assert.Equal(t, "1.0000", tokens[0].FormattedBalance)
}

func TestAggregateTokensPropagatesEnumerationFailure(t *testing.T) {
	wantErr := &entity.UpstreamError{Chain: "testchain", Op: "likelyTokens", Err: errors.New("boom")}
	adapter := &fakeContractAdapter{candidateErr: wantErr}

	_, err := newTestAggregator(DefaultConcurrencyWindow).AggregateTokens(context.Background(), adapter, "alice.test")
	var upstream *entity.UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, "likelyTokens", upstream.Op)
}

func TestAggregateTokensEnumerationPath(t *testing.T) {
	adapter := &fakeIndexedAdapter{
		holdings: []entity.TokenHolding{
			{TokenID: "So11111111111111111111111111111111111111112", Raw: "2500000", Decimals: 6},
			{TokenID: "free-claim-mint", Raw: "1000", Decimals: 3},
		},
		verified: map[string]bool{"So11111111111111111111111111111111111111112": true},
	}

	tokens, err := newTestAggregator(DefaultConcurrencyWindow).AggregateTokens(context.Background(), adapter, "owner")
	require.NoError(t, err)
	require.Len(t, tokens, 1)
	assert.Equal(t, "So11111111111111111111111111111111111111112", tokens[0].ID)
	assert.Equal(t, "2.5000", tokens[0].FormattedBalance)
	assert.True(t, tokens[0].Verified)
}

func TestAggregateTokensNoTokenCapability(t *testing.T) {
	tokens, err := newTestAggregator(DefaultConcurrencyWindow).AggregateTokens(context.Background(), bareAdapter{}, "1BoatSLRHtKNngkdXEeobR76b53LETtpyT")
	require.NoError(t, err)
	assert.Empty(t, tokens)
}
