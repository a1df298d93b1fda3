package service

import (
	"context"
	"sync"

	"token_aggregator/internal/app/port"
	"token_aggregator/internal/domain/entity"
	"token_aggregator/internal/pkg/metrics"
	"token_aggregator/internal/pkg/spamfilter"
	"token_aggregator/internal/pkg/utils"
)

// DefaultConcurrencyWindow bounds the number of fetch-pairs in flight inside
// one aggregation.
const DefaultConcurrencyWindow = 5

// aggregatorService implements port.TokenAggregator with windowed fan-out:
// candidate ids are processed in consecutive windows of fixed size, and a
// window fully joins before the next one starts. That bounds outstanding
// upstream requests at exactly the window size, at the cost of head-of-line
// blocking on the slowest member of each window.
type aggregatorService struct {
	cache      port.MetadataCache
	classifier *spamfilter.Classifier
	window     int
	logger     port.Logger
}

// NewAggregatorService creates the token aggregation orchestrator.
func NewAggregatorService(
	cache port.MetadataCache,
	classifier *spamfilter.Classifier,
	window int,
	logger port.Logger,
) port.TokenAggregator {
	if window <= 0 {
		window = DefaultConcurrencyWindow
	}
	return &aggregatorService{
		cache:      cache,
		classifier: classifier,
		window:     window,
		logger:     logger,
	}
}

// AggregateTokens implements port.TokenAggregator, dispatching on the
// adapter's token capability. Single-asset chains yield no tokens.
func (s *aggregatorService) AggregateTokens(ctx context.Context, adapter port.ChainAdapter, account string) ([]entity.Token, error) {
	if p, ok := adapter.(port.TokenMetadataProvider); ok {
		return s.aggregateWithMetadata(ctx, adapter.Chain(), p, account)
	}
	if e, ok := adapter.(port.TokenEnumerator); ok {
		return s.aggregateFromEnumeration(ctx, adapter.Chain(), e, account)
	}
	return nil, nil
}

// fetchPair is the joined outcome of one candidate id's metadata and balance
// fetches. Either side being nil drops the id.
type fetchPair struct {
	metadata *entity.TokenMetadata
	balance  *entity.TokenBalance
}

func (s *aggregatorService) aggregateWithMetadata(ctx context.Context, chain string, p port.TokenMetadataProvider, account string) ([]entity.Token, error) {
	candidates, err := p.CandidateTokenIDs(ctx, account)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	s.logger.Debug("Aggregating tokens",
		"chain", chain, "account", account,
		"candidates", len(candidates), "window", s.window)

	tokens := make([]entity.Token, 0, len(candidates))
	for start := 0; start < len(candidates); start += s.window {
		end := start + s.window
		if end > len(candidates) {
			end = len(candidates)
		}
		window := candidates[start:end]

		results := make([]fetchPair, len(window))
		var wg sync.WaitGroup
		for i, id := range window {
			wg.Add(1)
			go func(i int, id string) {
				defer wg.Done()
				results[i] = s.fetchPairFor(ctx, p, account, id)
			}(i, id)
		}
		// Join barrier: the next window is not issued until every member of
		// this one resolved.
		wg.Wait()

		for i, id := range window {
			tok, ok := s.buildToken(chain, p, id, results[i])
			if !ok {
				continue
			}
			tokens = append(tokens, tok)
		}
	}
	return tokens, nil
}

// fetchPairFor runs the metadata fetch (through the shared cache) and the
// balance fetch (direct, uncached) concurrently and joins them.
func (s *aggregatorService) fetchPairFor(ctx context.Context, p port.TokenMetadataProvider, account, id string) fetchPair {
	var pair fetchPair
	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		if md, ok := s.cache.GetOrFetch(ctx, id, p.TokenMetadata); ok {
			pair.metadata = md
		}
	}()
	go func() {
		defer wg.Done()
		bal, err := p.TokenBalance(ctx, account, id)
		if err == nil {
			pair.balance = bal
		}
	}()
	wg.Wait()
	return pair
}

// buildToken merges a resolved fetch pair into an output token, formats the
// balance and applies the classifier. Absent metadata or balance drops the id
// silently; no error is surfaced for individual tokens.
func (s *aggregatorService) buildToken(chain string, p port.TokenMetadataProvider, id string, pair fetchPair) (entity.Token, bool) {
	if pair.metadata == nil {
		metrics.TokensFilteredTotal.WithLabelValues(chain, metrics.ReasonNoMetadata).Inc()
		return entity.Token{}, false
	}
	if pair.balance == nil {
		metrics.TokensFilteredTotal.WithLabelValues(chain, metrics.ReasonNoBalance).Inc()
		return entity.Token{}, false
	}

	formatted, err := utils.FormatBaseUnits(pair.balance.Raw, pair.metadata.Decimals, utils.TokenDisplayPrecision)
	if err != nil {
		s.logger.Warn("Dropping token with unformattable balance",
			"chain", chain, "token_id", id, "raw", pair.balance.Raw, "error", err)
		return entity.Token{}, false
	}

	tok := entity.Token{
		ID:               id,
		Symbol:           pair.metadata.Symbol,
		Decimals:         pair.metadata.Decimals,
		RawBalance:       pair.balance.Raw,
		FormattedBalance: formatted,
		Icon:             pair.metadata.Icon,
		Reference:        pair.metadata.Reference,
		Verified:         p.IsVerified(id),
	}
	if !s.classifier.Include(tok, tok.Verified) {
		metrics.TokensFilteredTotal.WithLabelValues(chain, metrics.ReasonSpam).Inc()
		return entity.Token{}, false
	}
	return tok, true
}

// aggregateFromEnumeration handles ownership-indexed chains: one enumeration
// call already produced ids, balances and decimals, with non-fungible entries
// excluded by the adapter. With no metadata to consult, classification runs
// the two-step path against the raw token identifier.
func (s *aggregatorService) aggregateFromEnumeration(ctx context.Context, chain string, e port.TokenEnumerator, account string) ([]entity.Token, error) {
	holdings, err := e.TokenHoldings(ctx, account)
	if err != nil {
		return nil, err
	}

	tokens := make([]entity.Token, 0, len(holdings))
	for _, h := range holdings {
		verified := e.IsVerified(h.TokenID)
		if !s.classifier.IncludeID(h.TokenID, verified) {
			metrics.TokensFilteredTotal.WithLabelValues(chain, metrics.ReasonSpam).Inc()
			continue
		}
		formatted, err := utils.FormatBaseUnits(h.Raw, h.Decimals, utils.TokenDisplayPrecision)
		if err != nil {
			s.logger.Warn("Dropping holding with unformattable balance",
				"chain", chain, "token_id", h.TokenID, "raw", h.Raw, "error", err)
			continue
		}
		tokens = append(tokens, entity.Token{
			ID:               h.TokenID,
			Decimals:         h.Decimals,
			RawBalance:       h.Raw,
			FormattedBalance: formatted,
			Verified:         verified,
		})
	}
	return tokens, nil
}
