package utils

import (
	"fmt"
	"math/big"
)

// Display precisions per chain family. Generic tokens always use four
// fractional digits; native units follow their family's convention.
const (
	TokenDisplayPrecision     = 4
	LamportsDisplayPrecision  = 9
	YoctoNearDisplayPrecision = 5
	SatoshiDisplayPrecision   = 8
)

// ParseRawAmount parses an arbitrary-precision non-negative integer encoded
// as a decimal string, the wire form of all base-unit balances.
func ParseRawAmount(raw string) (*big.Int, error) {
	if raw == "" {
		return nil, fmt.Errorf("empty amount")
	}
	amount, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		return nil, fmt.Errorf("amount %q is not a decimal integer", raw)
	}
	if amount.Sign() < 0 {
		return nil, fmt.Errorf("amount %q is negative", raw)
	}
	return amount, nil
}

// FormatBaseUnits converts a base-unit amount and its decimal exponent into a
// human-readable string with exactly precision fractional digits, rounding
// half-up. The division is done in arbitrary precision; nothing is pushed
// through a float, so very large balances keep every digit.
// Example: raw="1500000", decimals=6, precision=4 => "1.5000".
func FormatBaseUnits(raw string, decimals uint32, precision int) (string, error) {
	amount, err := ParseRawAmount(raw)
	if err != nil {
		return "", err
	}
	if precision < 0 {
		precision = 0
	}

	divisor := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	value := new(big.Rat).SetFrac(amount, divisor)

	// FloatString rounds the last digit to nearest, halves away from zero.
	return value.FloatString(precision), nil
}
