package trading

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"github.com/defiplex/tradecore/internal/sor"
)

// Snapshot is a read-only copy of the session state. The embedded quote is
// shared and must not be mutated.
type Snapshot struct {
	ExactIn   bool
	TokenIn   common.Address
	TokenOut  common.Address
	AmountIn  string
	AmountOut string
	Liquidity sor.LiquiditySelection

	SlippageRate decimal.Decimal

	Quote           *sor.Quote
	PriceImpact     decimal.Decimal
	HighPriceImpact bool

	LoadingQuote bool
	PoolsLoading bool
	Trading      bool
	Confirming   bool

	SubmissionError  string
	SlippageExceeded bool
	LatestTxHash     string
}

// Snapshot returns the current session state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return Snapshot{
		ExactIn:          e.exactIn,
		TokenIn:          e.tokenIn,
		TokenOut:         e.tokenOut,
		AmountIn:         e.amountIn,
		AmountOut:        e.amountOut,
		Liquidity:        e.liquidity,
		SlippageRate:     e.slippage,
		Quote:            e.quote,
		PriceImpact:      e.priceImpact,
		HighPriceImpact:  e.highPriceImpact,
		LoadingQuote:     e.loadingQuote,
		PoolsLoading:     e.poolsLoading,
		Trading:          e.trading,
		Confirming:       e.confirming,
		SubmissionError:  e.submissionError,
		SlippageExceeded: e.slippageExceeded,
		LatestTxHash:     e.latestTxHash,
	}
}

// Mutators update one input field each. Callers invoke HandleAmountChange
// after the fields for an edit are in place; mutation alone does not trigger
// recomputation.

func (e *Engine) SetExactIn(exactIn bool) {
	e.mu.Lock()
	e.exactIn = exactIn
	e.mu.Unlock()
}

func (e *Engine) SetTokenIn(addr common.Address) {
	e.mu.Lock()
	e.tokenIn = addr
	e.mu.Unlock()
}

func (e *Engine) SetTokenOut(addr common.Address) {
	e.mu.Lock()
	e.tokenOut = addr
	e.mu.Unlock()
}

func (e *Engine) SetAmountIn(amount string) {
	e.mu.Lock()
	e.amountIn = amount
	e.mu.Unlock()
}

func (e *Engine) SetAmountOut(amount string) {
	e.mu.Lock()
	e.amountOut = amount
	e.mu.Unlock()
}

func (e *Engine) SetLiquidity(sel sor.LiquiditySelection) {
	e.mu.Lock()
	e.liquidity = sel
	e.mu.Unlock()
}

func (e *Engine) SetSlippageRate(rate decimal.Decimal) {
	e.mu.Lock()
	e.slippage = rate
	e.mu.Unlock()
}

// ResetState clears the validation and submission error state.
func (e *Engine) ResetState() {
	e.mu.Lock()
	e.highPriceImpact = false
	e.submissionError = ""
	e.slippageExceeded = false
	e.mu.Unlock()
}
