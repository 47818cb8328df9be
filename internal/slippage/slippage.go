// Package slippage converts a nominal trade amount and a tolerance fraction
// into a worst-case bound. All arithmetic stays in integer fixed point: the
// (1 + tolerance) factor is scaled to 18 decimals regardless of the token's
// own precision, so a 0.01 tolerance on 1000 units yields exactly 1010.
package slippage

import (
	"math/big"

	"github.com/shopspring/decimal"
)

var scaleOne = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

func factor(tolerance decimal.Decimal) *big.Int {
	if tolerance.Sign() < 0 {
		tolerance = decimal.Zero
	}
	return decimal.NewFromInt(1).Add(tolerance).Shift(18).Truncate(0).BigInt()
}

// MaxIn returns amount * (1 + tolerance): the most input the user accepts
// paying on an ExactOut trade.
func MaxIn(amount *big.Int, tolerance decimal.Decimal) *big.Int {
	out := new(big.Int).Mul(amount, factor(tolerance))
	return out.Div(out, scaleOne)
}

// MinOut returns amount / (1 + tolerance): the least output the user accepts
// receiving on an ExactIn trade.
func MinOut(amount *big.Int, tolerance decimal.Decimal) *big.Int {
	out := new(big.Int).Mul(amount, scaleOne)
	return out.Div(out, factor(tolerance))
}
