package pricing

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// PriceFeed supplies fiat reference prices. It is only used to derive the
// native-asset-to-token price ratio for routing cost calibration.
type PriceFeed interface {
	PriceFor(token common.Address) float64
}

// StaticFeed is a fixed in-memory PriceFeed.
type StaticFeed map[common.Address]float64

func (f StaticFeed) PriceFor(token common.Address) float64 {
	return f[token]
}

// NativePriceIn returns the price of the native asset denominated in token,
// using stored fiat prices. Zero when the token has no known price.
func NativePriceIn(feed PriceFeed, native, token common.Address) decimal.Decimal {
	tokenPrice := feed.PriceFor(token)
	if tokenPrice == 0 {
		return decimal.Zero
	}
	return decimal.NewFromFloat(feed.PriceFor(native) / tokenPrice)
}
