package tokens

import (
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"
)

// DisplayPrecision is the number of fractional digits shown in amount fields.
const DisplayPrecision = 6

// Rounding controls the direction a display amount is rounded in.
type Rounding int

const (
	// RoundDown truncates toward zero. Used for the output side of an
	// ExactIn trade so the user is never promised more than the route pays.
	RoundDown Rounding = iota
	// RoundUp rounds away from zero. Used for the input side of an
	// ExactOut trade so the user is never quoted less than the route costs.
	RoundUp
)

// ParseFixed converts a human-decimal string into integer base units at the
// given precision. Fractional digits beyond the token's precision are
// truncated, not rounded.
func ParseFixed(amount string, decimals uint8) (*big.Int, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("parse amount %q: %w", amount, err)
	}
	if d.Sign() < 0 {
		return nil, fmt.Errorf("parse amount %q: negative amounts not allowed", amount)
	}
	return d.Shift(int32(decimals)).Truncate(0).BigInt(), nil
}

// FormatFixed converts integer base units back into a human-decimal string.
// ParseFixed(FormatFixed(x)) round-trips exactly for any x.
func FormatFixed(amount *big.Int, decimals uint8) string {
	if amount == nil {
		return "0"
	}
	return decimal.NewFromBigInt(amount, -int32(decimals)).String()
}

// Normalize converts integer base units into an exact decimal value.
func Normalize(amount *big.Int, decimals uint8) decimal.Decimal {
	if amount == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(amount, -int32(decimals))
}

// FormatDisplay renders a normalized amount for an input field: fixed at
// DisplayPrecision fractional digits, rounded in the requested direction,
// empty string when the value is not positive.
func FormatDisplay(amount decimal.Decimal, mode Rounding) string {
	if amount.Sign() <= 0 {
		return ""
	}
	var fixed decimal.Decimal
	switch mode {
	case RoundUp:
		fixed = amount.Shift(DisplayPrecision).Ceil().Shift(-DisplayPrecision)
	default:
		fixed = amount.Truncate(DisplayPrecision)
	}
	if fixed.Sign() <= 0 {
		return ""
	}
	return fixed.StringFixed(DisplayPrecision)
}
