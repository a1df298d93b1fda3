package utxo

import (
	"context"
	"fmt"
	"math/big"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"

	"token_aggregator/internal/app/port"
	"token_aggregator/internal/domain/entity"
	"token_aggregator/internal/pkg/metrics"
	"token_aggregator/internal/pkg/utils"
)

// Compile-time check
var _ port.ChainAdapter = (*Adapter)(nil)

// Config carries the immutable settings of one prefix/length-validated chain.
type Config struct {
	Name        string
	Symbol      string
	ExplorerURL string
	// Prefixes is the set of accepted address prefixes; an address must start
	// with one of them.
	Prefixes []string
	// MinLength/MaxLength is the inclusive accepted address length range.
	MinLength int
	MaxLength int
	Decimals  uint32
}

// Adapter serves single-asset UTXO chains: address validation is a prefix and
// length check, and the native balance is one explorer call reshaped into the
// common balance form. There is no token capability on these chains.
type Adapter struct {
	cfg        Config
	httpClient *resty.Client
	logger     port.Logger
}

// NewAdapter builds the adapter from immutable config.
func NewAdapter(cfg Config, logger port.Logger) *Adapter {
	httpClient := resty.New().SetBaseURL(strings.TrimRight(cfg.ExplorerURL, "/"))
	return &Adapter{cfg: cfg, httpClient: httpClient, logger: logger}
}

// Chain implements port.ChainAdapter.
func (a *Adapter) Chain() string { return strings.ToLower(a.cfg.Name) }

// NativeSymbol implements port.ChainAdapter.
func (a *Adapter) NativeSymbol() string { return a.cfg.Symbol }

// NativeDisplayPrecision implements port.ChainAdapter.
func (a *Adapter) NativeDisplayPrecision() int { return utils.SatoshiDisplayPrecision }

// ValidateAddress implements port.ChainAdapter: accept iff the address starts
// with one of the configured prefixes and its length falls inside the
// configured inclusive range. The error names the violated rule.
func (a *Adapter) ValidateAddress(address string) error {
	if len(address) < a.cfg.MinLength || len(address) > a.cfg.MaxLength {
		return &entity.AddressValidationError{
			Chain:   a.Chain(),
			Address: address,
			Reason: fmt.Sprintf("address length must be between %d and %d characters",
				a.cfg.MinLength, a.cfg.MaxLength),
		}
	}
	for _, prefix := range a.cfg.Prefixes {
		if strings.HasPrefix(address, prefix) {
			return nil
		}
	}
	return &entity.AddressValidationError{
		Chain:   a.Chain(),
		Address: address,
		Reason:  fmt.Sprintf("address must start with one of: %s", strings.Join(a.cfg.Prefixes, ", ")),
	}
}

// addressStatsResponse is the explorer's per-address summary; the confirmed
// balance is funded minus spent output sums.
type addressStatsResponse struct {
	ChainStats struct {
		FundedTxoSum int64 `json:"funded_txo_sum"`
		SpentTxoSum  int64 `json:"spent_txo_sum"`
	} `json:"chain_stats"`
}

// NativeBalance implements port.ChainAdapter with a single explorer REST call.
func (a *Adapter) NativeBalance(ctx context.Context, account string) (entity.TokenBalance, error) {
	var stats addressStatsResponse
	resp, err := a.httpClient.R().
		SetContext(ctx).
		SetPathParam("address", account).
		SetResult(&stats).
		Get("/address/{address}")
	if err != nil {
		metrics.UpstreamCallsTotal.WithLabelValues(a.Chain(), "address_stats", "error").Inc()
		return entity.TokenBalance{}, &entity.UpstreamError{
			Chain: a.Chain(),
			Op:    "address_stats",
			Err:   errors.Wrapf(err, "[NativeBalance] %s", account),
		}
	}
	if resp.StatusCode() != http.StatusOK {
		metrics.UpstreamCallsTotal.WithLabelValues(a.Chain(), "address_stats", "error").Inc()
		return entity.TokenBalance{}, &entity.UpstreamError{
			Chain: a.Chain(),
			Op:    "address_stats",
			Err:   errors.New(fmt.Sprintf("[NativeBalance] Status: %d - Request: %s", resp.StatusCode(), resp.Request.URL)),
		}
	}
	metrics.UpstreamCallsTotal.WithLabelValues(a.Chain(), "address_stats", "success").Inc()

	balance := new(big.Int).Sub(
		big.NewInt(stats.ChainStats.FundedTxoSum),
		big.NewInt(stats.ChainStats.SpentTxoSum),
	)
	if balance.Sign() < 0 {
		balance.SetInt64(0)
	}
	return entity.TokenBalance{Raw: balance.String(), Decimals: a.cfg.Decimals}, nil
}
