package port

import (
	"context"

	"token_aggregator/internal/domain/entity"
)

// ChainAdapter is the base capability every supported chain implements.
// Implementations are constructed once at startup from immutable per-chain
// configuration; adding a chain means adding an implementation, not a branch.
type ChainAdapter interface {
	// Chain returns the lowercase chain identifier used in routes ("near", "solana", ...).
	Chain() string

	// ValidateAddress checks the chain-specific address format. The returned
	// error identifies the violated rule.
	ValidateAddress(address string) error

	// NativeBalance fetches the base-currency balance in base units.
	NativeBalance(ctx context.Context, account string) (entity.TokenBalance, error)

	// NativeSymbol returns the display symbol of the base currency.
	NativeSymbol() string

	// NativeDisplayPrecision returns the number of fractional digits used when
	// formatting the native balance of this chain family.
	NativeDisplayPrecision() int
}

// TokenMetadataProvider is the capability of contract-call chains: token
// metadata and balances are read per token id, and candidates are enumerated
// from the verified set plus an external discovery index.
//
// TokenMetadata and TokenBalance return (nil, nil) when the value is simply
// not retrievable for that token; that is a legitimate outcome, not an error,
// and the affected token is dropped from output.
type TokenMetadataProvider interface {
	CandidateTokenIDs(ctx context.Context, account string) ([]string, error)
	TokenMetadata(ctx context.Context, tokenID string) (*entity.TokenMetadata, error)
	TokenBalance(ctx context.Context, account, tokenID string) (*entity.TokenBalance, error)
	IsVerified(tokenID string) bool
}

// TokenEnumerator is the capability of ownership-indexed chains: one
// enumeration call yields every token holding of the account, and no metadata
// lookup exists. Classification of these holdings therefore runs only the
// allow-list and pattern steps against the raw token identifier; this is a
// per-adapter capability limitation, not a bug.
//
// Implementations exclude non-fungible entries (decimals == 0 and raw == "1")
// before returning.
type TokenEnumerator interface {
	TokenHoldings(ctx context.Context, account string) ([]entity.TokenHolding, error)
	IsVerified(tokenID string) bool
}
