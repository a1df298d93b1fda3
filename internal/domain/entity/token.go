package entity

// TokenMetadata holds the descriptive metadata of a fungible token as reported
// by its contract or a static registry. It is treated as immutable once fetched.
type TokenMetadata struct {
	Symbol    string `json:"symbol"`
	Decimals  uint32 `json:"decimals"`
	Icon      string `json:"icon,omitempty"`
	Reference string `json:"reference,omitempty"`
}

// TokenBalance is a raw on-chain balance: an arbitrary-precision non-negative
// integer in base units plus the decimal exponent needed to interpret it.
type TokenBalance struct {
	Raw      string `json:"raw"`
	Decimals uint32 `json:"decimals"`
}

// TokenHolding is one entry returned by ownership-indexed enumeration on
// chains without a contract metadata call (e.g. SPL token accounts).
type TokenHolding struct {
	TokenID  string
	Raw      string
	Decimals uint32
}

// Token is the merged output unit: identity, metadata, raw and formatted
// balance, and the verification flag. Only tokens that passed classification
// appear in API responses.
type Token struct {
	ID               string `json:"id"`
	Symbol           string `json:"symbol,omitempty"`
	Decimals         uint32 `json:"decimals"`
	RawBalance       string `json:"raw_balance"`
	FormattedBalance string `json:"formatted_balance"`
	Icon             string `json:"icon,omitempty"`
	Reference        string `json:"reference,omitempty"`
	Verified         bool   `json:"verified"`
}

// VerifiedToken is a registry entry for a token known to be legitimate.
// The set is loaded at startup and never mutated at runtime.
type VerifiedToken struct {
	ID     string `json:"id" yaml:"id"`
	Symbol string `json:"symbol" yaml:"symbol"`
}
