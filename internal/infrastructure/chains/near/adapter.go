package near

import (
	"context"
	"encoding/base64"
	"regexp"

	"token_aggregator/internal/app/port"
	"token_aggregator/internal/domain/entity"
	"token_aggregator/internal/infrastructure/jsonrpc"
	"token_aggregator/internal/pkg/metrics"
	"token_aggregator/internal/pkg/utils"

	jsoniter "github.com/json-iterator/go"
)

var jsonCodec = jsoniter.ConfigCompatibleWithStandardLibrary

const chainName = "near"

// Account ids are 2..64 characters of lowercase alphanumeric segments joined
// by separators, e.g. "alice.near" or "wrap.near".
const (
	minAccountIDLen = 2
	maxAccountIDLen = 64
)

var accountIDPattern = regexp.MustCompile(`^(([a-z\d]+[-_])*[a-z\d]+\.)*([a-z\d]+[-_])*[a-z\d]+$`)

// Compile-time capability checks
var (
	_ port.ChainAdapter          = (*Adapter)(nil)
	_ port.TokenMetadataProvider = (*Adapter)(nil)
)

// Config carries the immutable per-chain settings of the adapter.
type Config struct {
	NativeSymbol   string
	NativeDecimals uint32
	VerifiedTokens []entity.VerifiedToken
}

// Adapter implements the contract-call chain capability: native balance via a
// view-account query, token metadata and balances via read-only contract
// functions whose arguments and results travel as base64/byte payloads, and
// candidate ids from the verified set plus the token-discovery index.
type Adapter struct {
	rpc        *jsonrpc.Client
	index      TokenIndexClient
	cfg        Config
	verified   map[string]struct{}
	verifiedID []string
	logger     port.Logger
}

// NewAdapter builds the adapter from its collaborators and immutable config.
func NewAdapter(rpc *jsonrpc.Client, index TokenIndexClient, cfg Config, logger port.Logger) *Adapter {
	verified := make(map[string]struct{}, len(cfg.VerifiedTokens))
	order := make([]string, 0, len(cfg.VerifiedTokens))
	for _, tok := range cfg.VerifiedTokens {
		if _, seen := verified[tok.ID]; seen {
			continue
		}
		verified[tok.ID] = struct{}{}
		order = append(order, tok.ID)
	}
	return &Adapter{
		rpc:        rpc,
		index:      index,
		cfg:        cfg,
		verified:   verified,
		verifiedID: order,
		logger:     logger,
	}
}

// Chain implements port.ChainAdapter.
func (a *Adapter) Chain() string { return chainName }

// NativeSymbol implements port.ChainAdapter.
func (a *Adapter) NativeSymbol() string { return a.cfg.NativeSymbol }

// NativeDisplayPrecision implements port.ChainAdapter.
func (a *Adapter) NativeDisplayPrecision() int { return utils.YoctoNearDisplayPrecision }

// ValidateAddress implements port.ChainAdapter.
func (a *Adapter) ValidateAddress(address string) error {
	if len(address) < minAccountIDLen || len(address) > maxAccountIDLen {
		return &entity.AddressValidationError{
			Chain:   chainName,
			Address: address,
			Reason:  "account id must be between 2 and 64 characters",
		}
	}
	if !accountIDPattern.MatchString(address) {
		return &entity.AddressValidationError{
			Chain:   chainName,
			Address: address,
			Reason:  "account id contains characters outside the allowed set",
		}
	}
	return nil
}

// queryParams is the params object of the NEAR "query" RPC method.
type queryParams struct {
	RequestType string `json:"request_type"`
	Finality    string `json:"finality,omitempty"`
	AccountID   string `json:"account_id"`
	MethodName  string `json:"method_name,omitempty"`
	ArgsBase64  string `json:"args_base64,omitempty"`
}

type viewAccountResult struct {
	Amount string `json:"amount"`
}

// callFunctionResult carries the return value of a read-only contract call as
// a byte array that decodes to UTF-8 JSON.
type callFunctionResult struct {
	Raw []int `json:"result"`
}

func (r *callFunctionResult) bytes() []byte {
	buf := make([]byte, len(r.Raw))
	for i, b := range r.Raw {
		buf[i] = byte(b)
	}
	return buf
}

// ftMetadata mirrors the NEP-148 ft_metadata payload; only the fields the
// aggregation core consumes are kept.
type ftMetadata struct {
	Symbol    string `json:"symbol"`
	Decimals  uint32 `json:"decimals"`
	Icon      string `json:"icon"`
	Reference string `json:"reference"`
}

// NativeBalance implements port.ChainAdapter.
func (a *Adapter) NativeBalance(ctx context.Context, account string) (entity.TokenBalance, error) {
	var res viewAccountResult
	err := a.rpc.Call(ctx, "query", queryParams{
		RequestType: "view_account",
		Finality:    "final",
		AccountID:   account,
	}, &res)
	if err != nil {
		metrics.UpstreamCallsTotal.WithLabelValues(chainName, "view_account", "error").Inc()
		return entity.TokenBalance{}, &entity.UpstreamError{Chain: chainName, Op: "view_account", Err: err}
	}
	metrics.UpstreamCallsTotal.WithLabelValues(chainName, "view_account", "success").Inc()
	return entity.TokenBalance{Raw: res.Amount, Decimals: a.cfg.NativeDecimals}, nil
}

// CandidateTokenIDs implements port.TokenMetadataProvider: the verified set
// first, in registry order, then whatever the discovery index knows about the
// account, deduplicated.
func (a *Adapter) CandidateTokenIDs(ctx context.Context, account string) ([]string, error) {
	candidates := make([]string, 0, len(a.verifiedID))
	seen := make(map[string]struct{}, len(a.verifiedID))
	for _, id := range a.verifiedID {
		candidates = append(candidates, id)
		seen[id] = struct{}{}
	}

	if a.index == nil {
		return candidates, nil
	}

	likely, err := a.index.LikelyTokens(ctx, account)
	if err != nil {
		metrics.UpstreamCallsTotal.WithLabelValues(chainName, "likely_tokens", "error").Inc()
		return nil, &entity.UpstreamError{Chain: chainName, Op: "likely_tokens", Err: err}
	}
	metrics.UpstreamCallsTotal.WithLabelValues(chainName, "likely_tokens", "success").Inc()

	for _, id := range likely {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		candidates = append(candidates, id)
	}
	return candidates, nil
}

// TokenMetadata implements port.TokenMetadataProvider. Any failure to call or
// decode ft_metadata yields absent: tokens without retrievable metadata are a
// legitimate outcome and simply drop out of aggregation.
func (a *Adapter) TokenMetadata(ctx context.Context, tokenID string) (*entity.TokenMetadata, error) {
	payload, err := a.callFunction(ctx, tokenID, "ft_metadata", []byte("{}"))
	if err != nil {
		metrics.UpstreamCallsTotal.WithLabelValues(chainName, "ft_metadata", "error").Inc()
		a.logger.Debug("ft_metadata unavailable", "token_id", tokenID, "error", err)
		return nil, nil
	}
	metrics.UpstreamCallsTotal.WithLabelValues(chainName, "ft_metadata", "success").Inc()

	var md ftMetadata
	if err := jsonCodec.Unmarshal(payload, &md); err != nil {
		a.logger.Warn("ft_metadata returned undecodable payload", "token_id", tokenID, "error", err)
		return nil, nil
	}
	return &entity.TokenMetadata{
		Symbol:    md.Symbol,
		Decimals:  md.Decimals,
		Icon:      md.Icon,
		Reference: md.Reference,
	}, nil
}

// TokenBalance implements port.TokenMetadataProvider. The decimals of the
// returned balance are unknown at this level; the aggregator merges them in
// from the token metadata.
func (a *Adapter) TokenBalance(ctx context.Context, account, tokenID string) (*entity.TokenBalance, error) {
	args, err := jsonCodec.Marshal(map[string]string{"account_id": account})
	if err != nil {
		return nil, err
	}
	payload, err := a.callFunction(ctx, tokenID, "ft_balance_of", args)
	if err != nil {
		metrics.UpstreamCallsTotal.WithLabelValues(chainName, "ft_balance_of", "error").Inc()
		a.logger.Debug("ft_balance_of unavailable", "token_id", tokenID, "account", account, "error", err)
		return nil, nil
	}
	metrics.UpstreamCallsTotal.WithLabelValues(chainName, "ft_balance_of", "success").Inc()

	// The contract returns a JSON string, e.g. "1500000".
	var raw string
	if err := jsonCodec.Unmarshal(payload, &raw); err != nil {
		a.logger.Warn("ft_balance_of returned undecodable payload", "token_id", tokenID, "error", err)
		return nil, nil
	}
	return &entity.TokenBalance{Raw: raw}, nil
}

// IsVerified implements port.TokenMetadataProvider.
func (a *Adapter) IsVerified(tokenID string) bool {
	_, ok := a.verified[tokenID]
	return ok
}

// callFunction invokes a read-only contract method. Arguments are sent
// base64-encoded; the result arrives as a byte array holding UTF-8 JSON.
func (a *Adapter) callFunction(ctx context.Context, contractID, method string, args []byte) ([]byte, error) {
	var res callFunctionResult
	err := a.rpc.Call(ctx, "query", queryParams{
		RequestType: "call_function",
		Finality:    "final",
		AccountID:   contractID,
		MethodName:  method,
		ArgsBase64:  base64.StdEncoding.EncodeToString(args),
	}, &res)
	if err != nil {
		return nil, err
	}
	return res.bytes(), nil
}
