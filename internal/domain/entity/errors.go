package entity

import "fmt"

// AddressValidationError reports a malformed or unsupported address. It is
// surfaced to the caller as-is and never retried.
type AddressValidationError struct {
	Chain   string
	Address string
	Reason  string
}

func (e *AddressValidationError) Error() string {
	if e.Address == "" {
		return fmt.Sprintf("%s: %s", e.Chain, e.Reason)
	}
	return fmt.Sprintf("invalid %s address %q: %s", e.Chain, e.Address, e.Reason)
}

// UpstreamError wraps a failed call to an external collaborator (RPC node,
// explorer, token index). A single failed call is terminal for its request or
// batch item; nothing in the system retries.
type UpstreamError struct {
	Chain string
	Op    string
	Err   error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Chain, e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// BatchLimitError fails a whole batch request that exceeds the address limit.
// No per-item processing happens in that case.
type BatchLimitError struct {
	Limit int
	Got   int
}

func (e *BatchLimitError) Error() string {
	return fmt.Sprintf("batch request exceeds limit: %d addresses, maximum is %d", e.Got, e.Limit)
}
