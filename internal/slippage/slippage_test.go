package slippage

import (
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestMaxIn(t *testing.T) {
	// 1% tolerance on 1000 base units is exactly 1010.
	got := MaxIn(big.NewInt(1000), decimal.RequireFromString("0.01"))
	assert.Equal(t, "1010", got.String())

	// 18-decimal amounts scale the same way.
	amount, _ := new(big.Int).SetString("1000000000000000000000", 10)
	got = MaxIn(amount, decimal.RequireFromString("0.01"))
	assert.Equal(t, "1010000000000000000000", got.String())
}

func TestMinOut(t *testing.T) {
	// 1000 / 1.01 truncates to 990.
	got := MinOut(big.NewInt(1000), decimal.RequireFromString("0.01"))
	assert.Equal(t, "990", got.String())

	got = MinOut(big.NewInt(98500000), decimal.RequireFromString("0.01"))
	assert.Equal(t, "97524752", got.String())
}

func TestZeroTolerance(t *testing.T) {
	amount := big.NewInt(123456789)
	assert.Equal(t, amount.String(), MaxIn(amount, decimal.Zero).String())
	assert.Equal(t, amount.String(), MinOut(amount, decimal.Zero).String())
}

func TestNegativeToleranceClamped(t *testing.T) {
	amount := big.NewInt(1000)
	neg := decimal.RequireFromString("-0.5")
	assert.Equal(t, "1000", MaxIn(amount, neg).String())
	assert.Equal(t, "1000", MinOut(amount, neg).String())
}

func TestBoundsDirection(t *testing.T) {
	amounts := []*big.Int{big.NewInt(1), big.NewInt(999), big.NewInt(1_000_000_000)}
	tolerances := []string{"0.0001", "0.005", "0.01", "0.1", "1"}

	for _, amount := range amounts {
		for _, tol := range tolerances {
			d := decimal.RequireFromString(tol)
			maxIn := MaxIn(amount, d)
			minOut := MinOut(amount, d)
			assert.True(t, maxIn.Cmp(amount) >= 0, "MaxIn(%s, %s) below amount", amount, tol)
			assert.True(t, minOut.Cmp(amount) <= 0, "MinOut(%s, %s) above amount", amount, tol)
		}
	}
}
