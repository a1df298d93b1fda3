package entity

// Per-address status markers in batch responses.
const (
	BatchItemSuccess = "success"
	BatchItemFailed  = "failed"
)

// BatchBalancesRequest is the body of a multi-address balance lookup.
type BatchBalancesRequest struct {
	Addresses []string `json:"addresses"`
}

// AddressBalanceResult is the outcome for a single address within a batch.
// A failed address carries its error message instead of failing the batch.
type AddressBalanceResult struct {
	Address string           `json:"address"`
	Status  string           `json:"status"`
	Error   string           `json:"error,omitempty"`
	Data    *AccountBalances `json:"data,omitempty"`
}
