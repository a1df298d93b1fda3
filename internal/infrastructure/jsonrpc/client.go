package jsonrpc

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var jsonCodec = jsoniter.ConfigCompatibleWithStandardLibrary

const defaultRequestTimeout = 30 * time.Second

// Client is a JSON-RPC 2.0 client over fasthttp, shared by the chain adapters.
// An optional token-bucket limiter throttles outbound calls per endpoint.
type Client struct {
	client    *fasthttp.Client
	endpoint  string
	timeout   time.Duration
	limiter   *rate.Limiter
	logger    *zap.Logger
	requestID atomic.Uint64
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the default per-call timeout used when the context carries
// no deadline.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithRateLimit throttles outbound calls to rps requests per second.
// A non-positive rps disables throttling.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// NewClient creates a JSON-RPC client for the given endpoint.
func NewClient(endpoint string, logger *zap.Logger, opts ...Option) *Client {
	c := &Client{
		client:   &fasthttp.Client{},
		endpoint: endpoint,
		timeout:  defaultRequestTimeout,
		logger:   logger.Named("JSONRPCClient"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      uint64 `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// Error is a JSON-RPC 2.0 error object.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("RPC error %d: %s", e.Code, e.Message)
}

// Call performs a single JSON-RPC call and unmarshals the result into result.
// There are no retries: a failed call is terminal for its caller.
func (c *Client) Call(ctx context.Context, method string, params any, result any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}
	}

	reqBody := rpcRequest{
		JSONRPC: "2.0",
		ID:      c.requestID.Add(1),
		Method:  method,
		Params:  params,
	}
	body, err := jsonCodec.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(c.endpoint)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.SetBody(body)

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	if deadline, ok := ctx.Deadline(); ok {
		err = c.client.DoDeadline(req, resp, deadline)
	} else {
		err = c.client.DoTimeout(req, resp, c.timeout)
	}
	if err != nil {
		c.logger.Debug("RPC transport failure",
			zap.String("endpoint", c.endpoint),
			zap.String("method", method),
			zap.Error(err))
		return fmt.Errorf("request to %s failed: %w", c.endpoint, err)
	}

	if resp.StatusCode() != fasthttp.StatusOK {
		return fmt.Errorf("RPC endpoint %s returned status %d: %s",
			c.endpoint, resp.StatusCode(), string(resp.Body()))
	}

	var rpcResp rpcResponse
	if err := jsonCodec.Unmarshal(resp.Body(), &rpcResp); err != nil {
		return fmt.Errorf("failed to unmarshal RPC response from %s: %w", c.endpoint, err)
	}
	if rpcResp.Error != nil {
		return rpcResp.Error
	}
	if result == nil || len(rpcResp.Result) == 0 {
		return nil
	}
	if err := jsonCodec.Unmarshal(rpcResp.Result, result); err != nil {
		return fmt.Errorf("failed to unmarshal RPC result for %s: %w", method, err)
	}
	return nil
}
