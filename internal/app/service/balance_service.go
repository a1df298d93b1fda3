package service

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"

	"token_aggregator/internal/app/port"
	"token_aggregator/internal/app/provider"
	"token_aggregator/internal/domain/entity"
	"token_aggregator/internal/pkg/utils"
)

// DefaultMaxBatchAddresses caps multi-address lookups; exceeding it fails the
// whole request with a single error.
const DefaultMaxBatchAddresses = 20

// verifiedTokensChain is the chain served by the verified-tokens endpoint.
const verifiedTokensChain = "near"

// balanceService implements port.BalanceService on top of the adapter
// registry and the token aggregator.
type balanceService struct {
	registry   *provider.AdapterRegistry
	aggregator port.TokenAggregator
	maxBatch   int
	logger     port.Logger
}

// NewBalanceService creates the application service behind the HTTP handlers.
func NewBalanceService(
	registry *provider.AdapterRegistry,
	aggregator port.TokenAggregator,
	maxBatch int,
	logger port.Logger,
) port.BalanceService {
	if maxBatch <= 0 {
		maxBatch = DefaultMaxBatchAddresses
	}
	return &balanceService{
		registry:   registry,
		aggregator: aggregator,
		maxBatch:   maxBatch,
		logger:     logger,
	}
}

// AccountBalance implements port.BalanceService.
func (s *balanceService) AccountBalance(ctx context.Context, chain, address string) (*entity.AccountBalances, error) {
	adapter, ok := s.registry.Get(chain)
	if !ok {
		return nil, &entity.AddressValidationError{Chain: chain, Reason: "unsupported chain"}
	}
	return s.resolve(ctx, adapter, address)
}

// AccountBalances implements port.BalanceService. The limit check happens
// before any per-item work; within the limit, items resolve concurrently and
// fail independently.
func (s *balanceService) AccountBalances(ctx context.Context, chain string, addresses []string) ([]entity.AddressBalanceResult, error) {
	if len(addresses) > s.maxBatch {
		return nil, &entity.BatchLimitError{Limit: s.maxBatch, Got: len(addresses)}
	}
	adapter, ok := s.registry.Get(chain)
	if !ok {
		return nil, &entity.AddressValidationError{Chain: chain, Reason: "unsupported chain"}
	}

	results := make([]entity.AddressBalanceResult, len(addresses))
	g := new(errgroup.Group)
	g.SetLimit(s.maxBatch)
	for i, address := range addresses {
		i, address := i, address
		g.Go(func() error {
			balances, err := s.resolve(ctx, adapter, address)
			if err != nil {
				// A failed address is a per-item marker, never a batch error.
				results[i] = entity.AddressBalanceResult{
					Address: address,
					Status:  entity.BatchItemFailed,
					Error:   err.Error(),
				}
				return nil
			}
			results[i] = entity.AddressBalanceResult{
				Address: address,
				Status:  entity.BatchItemSuccess,
				Data:    balances,
			}
			return nil
		})
	}
	// Items never return errors to the group; Wait is a pure join.
	_ = g.Wait()
	return results, nil
}

// VerifiedTokens implements port.BalanceService: the contract-call chain's
// aggregation with the token list sorted verified-first.
func (s *balanceService) VerifiedTokens(ctx context.Context, account string) (*entity.AccountBalances, error) {
	adapter, ok := s.registry.Get(verifiedTokensChain)
	if !ok {
		return nil, &entity.AddressValidationError{Chain: verifiedTokensChain, Reason: "unsupported chain"}
	}
	balances, err := s.resolve(ctx, adapter, account)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(balances.Tokens, func(i, j int) bool {
		return balances.Tokens[i].Verified && !balances.Tokens[j].Verified
	})
	return balances, nil
}

// resolve runs the shared single-address flow: validate, fetch and format the
// native balance, then aggregate the token list.
func (s *balanceService) resolve(ctx context.Context, adapter port.ChainAdapter, address string) (*entity.AccountBalances, error) {
	if err := adapter.ValidateAddress(address); err != nil {
		return nil, err
	}

	native, err := adapter.NativeBalance(ctx, address)
	if err != nil {
		return nil, err
	}
	formatted, err := formatNative(adapter, native)
	if err != nil {
		return nil, err
	}

	tokens, err := s.aggregator.AggregateTokens(ctx, adapter, address)
	if err != nil {
		return nil, err
	}

	return &entity.AccountBalances{
		Chain:   adapter.Chain(),
		Address: address,
		Native: entity.NativeBalance{
			Symbol:           adapter.NativeSymbol(),
			RawBalance:       native.Raw,
			Decimals:         native.Decimals,
			FormattedBalance: formatted,
		},
		Tokens: tokens,
	}, nil
}

func formatNative(adapter port.ChainAdapter, bal entity.TokenBalance) (string, error) {
	return utils.FormatBaseUnits(bal.Raw, bal.Decimals, adapter.NativeDisplayPrecision())
}
