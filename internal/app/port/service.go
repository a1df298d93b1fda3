package port

import (
	"context"

	"token_aggregator/internal/domain/entity"
)

// TokenAggregator discovers, fetches, classifies and formats the fungible
// token holdings of one account on one chain.
type TokenAggregator interface {
	AggregateTokens(ctx context.Context, adapter ChainAdapter, account string) ([]entity.Token, error)
}

// BalanceService is the application-facing API behind the HTTP handlers.
type BalanceService interface {
	// AccountBalance returns the native balance and, for multi-token chains,
	// the classified token list for a single address.
	AccountBalance(ctx context.Context, chain, address string) (*entity.AccountBalances, error)

	// AccountBalances resolves up to the configured maximum of addresses on
	// one chain. Exceeding the limit fails the whole request; individual
	// address failures are reported per item.
	AccountBalances(ctx context.Context, chain string, addresses []string) ([]entity.AddressBalanceResult, error)

	// VerifiedTokens returns the account's native balance plus its classified
	// token list sorted verified-first (contract-call chain family).
	VerifiedTokens(ctx context.Context, account string) (*entity.AccountBalances, error)
}
