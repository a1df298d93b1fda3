package solana

import (
	"context"
	"strconv"

	"github.com/mr-tron/base58"

	"token_aggregator/internal/app/port"
	"token_aggregator/internal/domain/entity"
	"token_aggregator/internal/infrastructure/jsonrpc"
	"token_aggregator/internal/pkg/metrics"
	"token_aggregator/internal/pkg/utils"
)

const (
	chainName = "solana"

	// pubkeyLength is the decoded size of a Solana address.
	pubkeyLength = 32
)

// Compile-time capability checks
var (
	_ port.ChainAdapter    = (*Adapter)(nil)
	_ port.TokenEnumerator = (*Adapter)(nil)
)

// Config carries the immutable per-chain settings of the adapter.
type Config struct {
	NativeSymbol string
	// TokenProgramID identifies the fungible-token program whose accounts the
	// ownership enumeration is filtered to.
	TokenProgramID string
	VerifiedMints  []string
}

// Adapter implements the token-account chain capability: candidate ids and
// balances come from a single ownership enumeration, and no contract metadata
// call exists. Classification of its holdings therefore runs the two-step
// (allow-list / pattern) path only.
type Adapter struct {
	rpc      *jsonrpc.Client
	cfg      Config
	verified map[string]struct{}
	logger   port.Logger
}

// NewAdapter builds the adapter from its RPC client and immutable config.
func NewAdapter(rpc *jsonrpc.Client, cfg Config, logger port.Logger) *Adapter {
	verified := make(map[string]struct{}, len(cfg.VerifiedMints))
	for _, mint := range cfg.VerifiedMints {
		verified[mint] = struct{}{}
	}
	return &Adapter{rpc: rpc, cfg: cfg, verified: verified, logger: logger}
}

// Chain implements port.ChainAdapter.
func (a *Adapter) Chain() string { return chainName }

// NativeSymbol implements port.ChainAdapter.
func (a *Adapter) NativeSymbol() string { return a.cfg.NativeSymbol }

// NativeDisplayPrecision implements port.ChainAdapter.
func (a *Adapter) NativeDisplayPrecision() int { return utils.LamportsDisplayPrecision }

// ValidateAddress implements port.ChainAdapter: the address must be base58
// and decode to a 32-byte public key.
func (a *Adapter) ValidateAddress(address string) error {
	decoded, err := base58.Decode(address)
	if err != nil {
		return &entity.AddressValidationError{
			Chain:   chainName,
			Address: address,
			Reason:  "address is not valid base58",
		}
	}
	if len(decoded) != pubkeyLength {
		return &entity.AddressValidationError{
			Chain:   chainName,
			Address: address,
			Reason:  "address must decode to a 32-byte public key",
		}
	}
	return nil
}

type getBalanceResult struct {
	Value uint64 `json:"value"`
}

type tokenAccountsResult struct {
	Value []struct {
		Account struct {
			Data struct {
				Parsed struct {
					Info struct {
						Mint        string `json:"mint"`
						TokenAmount struct {
							Amount   string `json:"amount"`
							Decimals uint32 `json:"decimals"`
						} `json:"tokenAmount"`
					} `json:"info"`
				} `json:"parsed"`
			} `json:"data"`
		} `json:"account"`
	} `json:"value"`
}

// NativeBalance implements port.ChainAdapter; the result is in lamports.
func (a *Adapter) NativeBalance(ctx context.Context, account string) (entity.TokenBalance, error) {
	var res getBalanceResult
	err := a.rpc.Call(ctx, "getBalance", []any{account}, &res)
	if err != nil {
		metrics.UpstreamCallsTotal.WithLabelValues(chainName, "getBalance", "error").Inc()
		return entity.TokenBalance{}, &entity.UpstreamError{Chain: chainName, Op: "getBalance", Err: err}
	}
	metrics.UpstreamCallsTotal.WithLabelValues(chainName, "getBalance", "success").Inc()
	return entity.TokenBalance{
		Raw:      strconv.FormatUint(res.Value, 10),
		Decimals: utils.LamportsDisplayPrecision,
	}, nil
}

// TokenHoldings implements port.TokenEnumerator. One getTokenAccountsByOwner
// call yields every holding of the account under the configured token
// program. Entries with decimals == 0 and a raw amount of "1" are unit
// collectibles, not fungible holdings, and are excluded here so they never
// reach classification.
func (a *Adapter) TokenHoldings(ctx context.Context, account string) ([]entity.TokenHolding, error) {
	params := []any{
		account,
		map[string]string{"programId": a.cfg.TokenProgramID},
		map[string]string{"encoding": "jsonParsed"},
	}

	var res tokenAccountsResult
	if err := a.rpc.Call(ctx, "getTokenAccountsByOwner", params, &res); err != nil {
		metrics.UpstreamCallsTotal.WithLabelValues(chainName, "getTokenAccountsByOwner", "error").Inc()
		return nil, &entity.UpstreamError{Chain: chainName, Op: "getTokenAccountsByOwner", Err: err}
	}
	metrics.UpstreamCallsTotal.WithLabelValues(chainName, "getTokenAccountsByOwner", "success").Inc()

	holdings := make([]entity.TokenHolding, 0, len(res.Value))
	for _, entry := range res.Value {
		info := entry.Account.Data.Parsed.Info
		if info.Mint == "" {
			continue
		}
		if info.TokenAmount.Decimals == 0 && info.TokenAmount.Amount == "1" {
			metrics.TokensFilteredTotal.WithLabelValues(chainName, metrics.ReasonNonFungible).Inc()
			continue
		}
		holdings = append(holdings, entity.TokenHolding{
			TokenID:  info.Mint,
			Raw:      info.TokenAmount.Amount,
			Decimals: info.TokenAmount.Decimals,
		})
	}
	return holdings, nil
}

// IsVerified implements port.TokenEnumerator.
func (a *Adapter) IsVerified(tokenID string) bool {
	_, ok := a.verified[tokenID]
	return ok
}
