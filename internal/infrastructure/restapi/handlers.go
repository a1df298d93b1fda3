package restapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"token_aggregator/internal/app/port"
	"token_aggregator/internal/domain/entity"
)

// APIResponse is the envelope of every endpoint.
type APIResponse struct {
	Success   bool   `json:"success"`
	Data      any    `json:"data,omitempty"`
	Message   string `json:"message,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// BalanceHandler serves the balance and token endpoints.
type BalanceHandler struct {
	svc    port.BalanceService
	logger port.Logger
}

// NewBalanceHandler creates the handler around the balance service.
func NewBalanceHandler(svc port.BalanceService, logger port.Logger) *BalanceHandler {
	return &BalanceHandler{svc: svc, logger: logger}
}

func respondOK(c *gin.Context, data any, message string) {
	c.JSON(http.StatusOK, APIResponse{
		Success:   true,
		Data:      data,
		Message:   message,
		Timestamp: time.Now().UnixMilli(),
	})
}

// respondFailure maps every request-scoped failure to HTTP 400 with a
// human-readable message. Batch partial failures never end up here; they are
// per-item markers inside a 200.
func respondFailure(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, APIResponse{
		Success:   false,
		Message:   message,
		Timestamp: time.Now().UnixMilli(),
	})
}

// GetBalanceHandler handles GET /balance/:chain/:address.
func (h *BalanceHandler) GetBalanceHandler(c *gin.Context) {
	chain := c.Param("chain")
	address := c.Param("address")

	balances, err := h.svc.AccountBalance(c.Request.Context(), chain, address)
	if err != nil {
		h.logger.Warn("Balance lookup failed", "chain", chain, "address", address, "error", err)
		respondFailure(c, err.Error())
		return
	}
	respondOK(c, balances, "Balance retrieved successfully.")
}

// PostBalancesHandler handles POST /balances/:chain. Exceeding the address
// limit fails the whole request with one error; within the limit, failures
// are reported per item under a 200.
func (h *BalanceHandler) PostBalancesHandler(c *gin.Context) {
	chain := c.Param("chain")

	var req entity.BatchBalancesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFailure(c, "invalid request body: "+err.Error())
		return
	}
	if len(req.Addresses) == 0 {
		respondFailure(c, "addresses must not be empty")
		return
	}

	results, err := h.svc.AccountBalances(c.Request.Context(), chain, req.Addresses)
	if err != nil {
		var limitErr *entity.BatchLimitError
		if errors.As(err, &limitErr) {
			respondFailure(c, limitErr.Error())
			return
		}
		h.logger.Warn("Batch balance lookup failed", "chain", chain, "error", err)
		respondFailure(c, err.Error())
		return
	}
	respondOK(c, results, "Batch processed.")
}

// GetVerifiedTokensHandler handles GET /verified-tokens/:account.
func (h *BalanceHandler) GetVerifiedTokensHandler(c *gin.Context) {
	account := c.Param("account")

	balances, err := h.svc.VerifiedTokens(c.Request.Context(), account)
	if err != nil {
		h.logger.Warn("Verified tokens lookup failed", "account", account, "error", err)
		respondFailure(c, err.Error())
		return
	}
	respondOK(c, balances, "Verified tokens retrieved successfully.")
}
