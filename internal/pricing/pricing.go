// Package pricing computes the price impact of a routed trade against the
// marginal market price. All ratio arithmetic is decimal, never floating
// point, so chained divisions do not accumulate rounding error.
package pricing

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

var (
	// MinPriceImpact is the floor reported for any executed trade. A genuinely
	// executed trade never shows zero or negative impact after rounding.
	MinPriceImpact = decimal.RequireFromString("0.0001")

	// HighPriceImpactThreshold flags trades that should be gated upstream.
	HighPriceImpactThreshold = decimal.RequireFromString("0.05")

	one = decimal.NewFromInt(1)
)

// AdjustFunc converts a normalized amount of a token into the equivalent
// amount of the asset its market price is actually observed in.
type AdjustFunc func(ctx context.Context, amount decimal.Decimal) (decimal.Decimal, error)

// Calculator derives price impact from a quote. Tokens whose liquidity is a
// wrapped representation of another asset register an adjuster; everything
// else uses the amount as-is.
type Calculator struct {
	minImpact     decimal.Decimal
	highThreshold decimal.Decimal
	adjusters     map[common.Address]AdjustFunc
}

func NewCalculator() *Calculator {
	return &Calculator{
		minImpact:     MinPriceImpact,
		highThreshold: HighPriceImpactThreshold,
		adjusters:     make(map[common.Address]AdjustFunc),
	}
}

// RegisterAdjuster installs the allow-listed conversion for one token. The
// rule is keyed strictly by token identity.
func (c *Calculator) RegisterAdjuster(token common.Address, fn AdjustFunc) {
	c.adjusters[token] = fn
}

func (c *Calculator) adjust(ctx context.Context, token common.Address, amount decimal.Decimal) (decimal.Decimal, error) {
	if fn, ok := c.adjusters[token]; ok {
		return fn(ctx, amount)
	}
	return amount, nil
}

// Impact computes max(effectivePrice/marketSP - 1, MinPriceImpact) where
// effectivePrice = amountIn / adjusted(amountOut). Amounts are normalized
// (human-decimal) values; outToken selects the adjustment rule.
func (c *Calculator) Impact(ctx context.Context, amountIn, amountOut decimal.Decimal, outToken common.Address, marketSP decimal.Decimal) (decimal.Decimal, error) {
	adjusted, err := c.adjust(ctx, outToken, amountOut)
	if err != nil {
		return decimal.Zero, fmt.Errorf("adjust amount for %s: %w", outToken.Hex(), err)
	}
	if adjusted.Sign() <= 0 {
		return decimal.Zero, fmt.Errorf("non-positive return amount")
	}
	if marketSP.Sign() <= 0 {
		return decimal.Zero, fmt.Errorf("non-positive market price")
	}

	effectivePrice := amountIn.Div(adjusted)
	impact := effectivePrice.Div(marketSP).Sub(one)
	if impact.LessThan(c.minImpact) {
		impact = c.minImpact
	}
	return impact, nil
}

// High reports whether an impact crosses the high-price-impact threshold.
func (c *Calculator) High(impact decimal.Decimal) bool {
	return impact.GreaterThanOrEqual(c.highThreshold)
}
