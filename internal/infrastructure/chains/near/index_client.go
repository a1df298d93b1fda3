package near

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
)

// TokenIndexClient queries the external token-discovery index for the token
// contracts an account has likely interacted with.
type TokenIndexClient interface {
	LikelyTokens(ctx context.Context, account string) ([]string, error)
}

type tokenIndexClientImpl struct {
	httpClient *resty.Client
	timeout    time.Duration
}

// NewTokenIndexClient creates a client for the token-discovery index. Every
// lookup runs under the given timeout; this is the only outbound call in the
// system with an explicit deadline.
func NewTokenIndexClient(baseURL string, timeout time.Duration) TokenIndexClient {
	httpClient := resty.New().SetBaseURL(strings.TrimRight(baseURL, "/"))
	return &tokenIndexClientImpl{httpClient: httpClient, timeout: timeout}
}

// LikelyTokens implements TokenIndexClient.
func (c *tokenIndexClientImpl) LikelyTokens(ctx context.Context, account string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var tokens []string
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetPathParam("account", account).
		SetResult(&tokens).
		Get("/account/{account}/likelyTokens")
	if err != nil {
		return nil, errors.Wrapf(err, "[LikelyTokens] %s", account)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, errors.New(fmt.Sprintf("[LikelyTokens] Status: %d - Request: %s", resp.StatusCode(), resp.Request.URL))
	}
	return tokens, nil
}
