package trading

import (
	"context"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/defiplex/tradecore/internal/history"
	"github.com/defiplex/tradecore/internal/slippage"
	"github.com/defiplex/tradecore/internal/sor"
	"github.com/defiplex/tradecore/internal/tokens"
	"github.com/defiplex/tradecore/internal/wrap"
)

// TxHandle identifies an accepted submission.
type TxHandle struct {
	Hash string
}

// WatchCallbacks receive the confirmation outcome of a submitted transaction,
// independent of the initial submission acceptance.
type WatchCallbacks struct {
	OnConfirmed func(hash string)
	OnFailed    func(hash string)
}

// Submitter is the transaction submission service. Wallet connectivity and
// on-chain mechanics live behind it.
type Submitter interface {
	Wrap(ctx context.Context, wrapper common.Address, amount *big.Int) (*TxHandle, error)
	Unwrap(ctx context.Context, wrapper common.Address, amount *big.Int) (*TxHandle, error)
	// SwapIn submits an ExactIn trade: input fixed, minOut is the floor.
	SwapIn(ctx context.Context, quote *sor.Quote, amountIn, minOut *big.Int) (*TxHandle, error)
	// SwapOut submits an ExactOut trade: output fixed, maxIn is the ceiling.
	SwapOut(ctx context.Context, quote *sor.Quote, maxIn, amountOut *big.Int) (*TxHandle, error)
	Watch(ctx context.Context, h *TxHandle, cb WatchCallbacks) error
}

// Outcome is the terminal confirmation result of one submission.
type Outcome struct {
	Hash      string
	Confirmed bool
}

// Trade submits the current session's trade: a wrap/unwrap for classified
// pairs, otherwise a market swap bounded by the slippage tolerance. onOutcome
// (optional) fires once with the confirmation result.
func (e *Engine) Trade(ctx context.Context, onOutcome func(Outcome)) error {
	if e.deps.Submitter == nil {
		return &Error{Kind: KindSubmission, Err: fmt.Errorf("no submitter configured")}
	}

	e.mu.Lock()
	e.trading = true
	e.confirming = true
	e.submissionError = ""
	e.slippageExceeded = false
	in := inputs{
		exactIn:   e.exactIn,
		tokenIn:   e.tokenIn,
		tokenOut:  e.tokenOut,
		amountIn:  e.amountIn,
		amountOut: e.amountOut,
		liquidity: e.liquidity,
	}
	tolerance := e.slippage
	quote := e.quote
	e.mu.Unlock()

	tin, okIn := e.deps.Tokens.Lookup(in.tokenIn)
	tout, okOut := e.deps.Tokens.Lookup(in.tokenOut)
	if !okIn || !okOut {
		return e.failSubmission(fmt.Errorf("unresolved token pair"))
	}

	inScaled, err := tokens.ParseFixed(in.amountIn, tin.Decimals)
	if err != nil {
		return e.failSubmission(err)
	}

	wt := e.deps.Wrapper.Classify(in.tokenIn, in.tokenOut)

	var h *TxHandle
	var action string
	switch {
	case wt == wrap.Wrap:
		// Deterministic conversion: no slippage bound applies.
		action = "wrap"
		h, err = e.deps.Submitter.Wrap(ctx, in.tokenOut, inScaled)

	case wt == wrap.Unwrap:
		action = "unwrap"
		h, err = e.deps.Submitter.Unwrap(ctx, in.tokenIn, inScaled)

	case in.exactIn:
		action = "trade"
		if quote == nil || !quote.HasSwaps || quote.SwapType != sor.SwapExactIn {
			return e.failSubmission(fmt.Errorf("no valid route for the current trade"))
		}
		outScaled, perr := tokens.ParseFixed(in.amountOut, tout.Decimals)
		if perr != nil {
			return e.failSubmission(perr)
		}
		minOut := slippage.MinOut(outScaled, tolerance)
		h, err = e.deps.Submitter.SwapIn(ctx, quote, inScaled, minOut)

	default:
		action = "trade"
		if quote == nil || !quote.HasSwaps || quote.SwapType != sor.SwapExactOut {
			return e.failSubmission(fmt.Errorf("no valid route for the current trade"))
		}
		outScaled, perr := tokens.ParseFixed(in.amountOut, tout.Decimals)
		if perr != nil {
			return e.failSubmission(perr)
		}
		maxIn := slippage.MaxIn(inScaled, tolerance)
		h, err = e.deps.Submitter.SwapOut(ctx, quote, maxIn, outScaled)
	}
	if err != nil {
		return e.failSubmission(err)
	}

	return e.afterSubmit(ctx, h, action, in, tin, tout, onOutcome)
}

func (e *Engine) failSubmission(err error) error {
	slip := e.cfg.SlippageErrorSignature != "" &&
		strings.Contains(err.Error(), e.cfg.SlippageErrorSignature)

	e.mu.Lock()
	e.submissionError = err.Error()
	e.trading = false
	e.confirming = false
	if slip {
		e.slippageExceeded = true
	}
	e.mu.Unlock()

	kind := KindSubmission
	if slip {
		kind = KindSlippageExceeded
	}
	return &Error{Kind: kind, Err: err}
}

func (e *Engine) afterSubmit(ctx context.Context, h *TxHandle, action string, in inputs, tin, tout tokens.Token, onOutcome func(Outcome)) error {
	e.mu.Lock()
	e.confirming = false
	impact := e.priceImpact
	tolerance := e.slippage
	e.mu.Unlock()

	var summary string
	if action == "wrap" || action == "unwrap" {
		summary = fmt.Sprintf("%s %s %s to %s", action, in.amountIn, tin.Symbol, tout.Symbol)
	} else {
		summary = fmt.Sprintf("%s %s -> %s %s", in.amountIn, tin.Symbol, in.amountOut, tout.Symbol)
	}

	if e.deps.Recorder != nil {
		maxIn, minOut, berr := e.Bounds()
		rec := &history.TradeRecord{
			Hash:         h.Hash,
			Timestamp:    time.Now().UTC(),
			Action:       action,
			Summary:      summary,
			TokenIn:      tin.Symbol,
			TokenOut:     tout.Symbol,
			AmountIn:     in.amountIn,
			AmountOut:    in.amountOut,
			ExactIn:      in.exactIn,
			PriceImpact:  impact.String(),
			SlippageRate: tolerance.String(),
		}
		if berr == nil {
			rec.MaximumIn = maxIn.String()
			rec.MinimumOut = minOut.String()
		}
		if rerr := e.deps.Recorder.Record(ctx, rec); rerr != nil {
			e.log.WithError(rerr).Warn("failed to record trade")
		}
	}

	e.log.WithField("hash", h.Hash).Info("transaction submitted")

	return e.deps.Submitter.Watch(ctx, h, WatchCallbacks{
		OnConfirmed: func(hash string) {
			e.mu.Lock()
			e.trading = false
			e.latestTxHash = hash
			e.mu.Unlock()
			if onOutcome != nil {
				onOutcome(Outcome{Hash: hash, Confirmed: true})
			}
		},
		OnFailed: func(hash string) {
			e.mu.Lock()
			e.trading = false
			e.mu.Unlock()
			e.log.WithField("hash", hash).Warn("transaction failed")
			if onOutcome != nil {
				onOutcome(Outcome{Hash: hash, Confirmed: false})
			}
		},
	})
}

// Bounds returns the worst-case maximum-in and minimum-out for the current
// amounts and slippage rate, in base units.
func (e *Engine) Bounds() (maxIn, minOut *big.Int, err error) {
	e.mu.RLock()
	in := inputs{
		tokenIn:   e.tokenIn,
		tokenOut:  e.tokenOut,
		amountIn:  e.amountIn,
		amountOut: e.amountOut,
	}
	tolerance := e.slippage
	e.mu.RUnlock()

	tin, okIn := e.deps.Tokens.Lookup(in.tokenIn)
	tout, okOut := e.deps.Tokens.Lookup(in.tokenOut)
	if !okIn || !okOut {
		return nil, nil, fmt.Errorf("unresolved token pair")
	}

	inScaled := new(big.Int)
	if in.amountIn != "" {
		if inScaled, err = tokens.ParseFixed(in.amountIn, tin.Decimals); err != nil {
			return nil, nil, err
		}
	}
	outScaled := new(big.Int)
	if in.amountOut != "" {
		if outScaled, err = tokens.ParseFixed(in.amountOut, tout.Decimals); err != nil {
			return nil, nil, err
		}
	}

	return slippage.MaxIn(inScaled, tolerance), slippage.MinOut(outScaled, tolerance), nil
}
