package sor

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// SwapType fixes which side of a trade the user specifies.
type SwapType int

const (
	SwapExactIn SwapType = iota
	SwapExactOut
)

func (s SwapType) String() string {
	if s == SwapExactOut {
		return "ExactOut"
	}
	return "ExactIn"
}

// LiquiditySelection constrains which routing backends the oracle may
// consider. It is passed through unchanged; the core attaches no meaning to
// the values beyond Best being the default.
type LiquiditySelection string

const (
	LiquidityBest LiquiditySelection = "best"
	LiquidityV1   LiquiditySelection = "v1"
	LiquidityV2   LiquiditySelection = "v2"
)

// Quote is the routing oracle's best-route result for one invocation. A quote
// is produced fresh on every recomputation and superseded entirely by the
// next one.
type Quote struct {
	HasSwaps bool

	TokenIn  common.Address
	TokenOut common.Address
	SwapType SwapType

	// ReturnAmount is in base units at ReturnDecimals: the output amount for
	// ExactIn, the required input amount for ExactOut.
	ReturnAmount   *big.Int
	ReturnDecimals uint8

	// MarketSP is the normalized marginal (spot) price of the route: in-token
	// per out-token for an infinitesimal trade.
	MarketSP decimal.Decimal
}

// EmptyQuote is the no-route result used when the oracle is bypassed or finds
// nothing.
func EmptyQuote() *Quote {
	return &Quote{ReturnAmount: new(big.Int), ReturnDecimals: 18, MarketSP: decimal.Zero}
}

// BestSwapRequest carries everything the routing oracle needs for one
// best-route query. Amount is the normalized (human-decimal) driving amount.
type BestSwapRequest struct {
	TokenIn        common.Address
	TokenOut       common.Address
	DecimalsIn     uint8
	DecimalsOut    uint8
	SwapType       SwapType
	Amount         decimal.Decimal
	AmountDecimals uint8
	Liquidity      LiquiditySelection
}

// Manager is the black-box routing oracle. Implementations retry or aggregate
// across route sources internally; the core treats each result as final for
// that invocation and discards superseded results itself.
type Manager interface {
	// FetchPools replaces the oracle's internal liquidity snapshot.
	FetchPools(ctx context.Context) error
	// HasPoolData reports whether at least one snapshot has been loaded.
	HasPoolData() bool
	// SetCostOutputToken tunes routing cost estimates before quoting.
	SetCostOutputToken(ctx context.Context, token common.Address, decimals uint8, nativePriceInToken decimal.Decimal) error
	// BestSwap returns the best route for the request.
	BestSwap(ctx context.Context, req BestSwapRequest) (*Quote, error)
}
