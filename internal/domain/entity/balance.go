package entity

// NativeBalance is the base-currency balance of an account, formatted with the
// display precision of its chain family.
type NativeBalance struct {
	Symbol           string `json:"symbol"`
	RawBalance       string `json:"raw_balance"`
	Decimals         uint32 `json:"decimals"`
	FormattedBalance string `json:"formatted_balance"`
}

// AccountBalances aggregates everything the service knows about one account on
// one chain: the native balance plus, for multi-token chains, the filtered
// token list.
type AccountBalances struct {
	Chain   string        `json:"chain"`
	Address string        `json:"address"`
	Native  NativeBalance `json:"native"`
	Tokens  []Token       `json:"tokens,omitempty"`
}
