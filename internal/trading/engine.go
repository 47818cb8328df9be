// Package trading holds the amount-change orchestrator and trade executor:
// the reactive core that turns user edits into routed quotes with price
// impact, and finalized quotes into bounded swap submissions.
package trading

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/defiplex/tradecore/internal/history"
	"github.com/defiplex/tradecore/internal/pricing"
	"github.com/defiplex/tradecore/internal/sor"
	"github.com/defiplex/tradecore/internal/tokens"
	"github.com/defiplex/tradecore/internal/wrap"
)

const (
	DefaultThrottleWindow      = 300 * time.Millisecond
	DefaultPoolRefreshInterval = 30 * time.Second
	DefaultSlippageSignature   = "BAL#507"
)

// Config holds engine tuning.
type Config struct {
	// NativeAsset is the sentinel address of the chain's native asset, used
	// for routing cost calibration.
	NativeAsset common.Address

	// ThrottleWindow coalesces rapid recomputation triggers: the first
	// trigger in a window runs immediately, the rest collapse into one
	// trailing run.
	ThrottleWindow time.Duration

	// PoolRefreshInterval drives the background pool re-fetch loop.
	PoolRefreshInterval time.Duration

	// RefetchPools enables the background refresh loop in Start.
	RefetchPools bool

	// HandleAmountsOnFetchPools re-runs the amount pipeline after every pool
	// fetch so displayed quotes track fresh balances.
	HandleAmountsOnFetchPools bool

	// SlippageErrorSignature marks a submission failure as bound-exceeded
	// when it appears in the error message.
	SlippageErrorSignature string
}

// DefaultConfig returns engine defaults matching production behavior.
func DefaultConfig(native common.Address) Config {
	return Config{
		NativeAsset:               native,
		ThrottleWindow:            DefaultThrottleWindow,
		PoolRefreshInterval:       DefaultPoolRefreshInterval,
		RefetchPools:              true,
		HandleAmountsOnFetchPools: true,
		SlippageErrorSignature:    DefaultSlippageSignature,
	}
}

// Deps are the engine's collaborators. SOR, Tokens, Wrapper and Impact are
// required; the rest degrade gracefully when nil.
type Deps struct {
	SOR       sor.Manager
	Tokens    tokens.Resolver
	Wrapper   *wrap.Classifier
	Impact    *pricing.Calculator
	Prices    pricing.PriceFeed
	Submitter Submitter
	Recorder  history.Recorder
	Logger    *logrus.Logger
}

// Engine owns one trading session: the explicit state object behind the two
// amount fields, and the recomputation pipeline that keeps the dependent
// field, quote and price impact current.
type Engine struct {
	cfg  Config
	deps Deps
	log  *logrus.Logger

	mu sync.RWMutex
	// inputs
	exactIn   bool
	tokenIn   common.Address
	tokenOut  common.Address
	amountIn  string
	amountOut string
	liquidity sor.LiquiditySelection
	slippage  decimal.Decimal
	// derived
	quote            *sor.Quote
	priceImpact      decimal.Decimal
	highPriceImpact  bool
	loadingQuote     bool
	poolsLoading     bool
	trading          bool
	confirming       bool
	submissionError  string
	slippageExceeded bool
	latestTxHash     string
	// seq tags each recomputation cycle; results from any cycle that is no
	// longer the latest issued are discarded instead of cancelled.
	seq uint64

	limiter *rate.Limiter

	trailingMu  sync.Mutex
	trailingSet bool

	runMu   sync.Mutex
	running bool
}

func NewEngine(cfg Config, deps Deps) (*Engine, error) {
	if deps.SOR == nil {
		return nil, fmt.Errorf("sor manager is required")
	}
	if deps.Tokens == nil {
		return nil, fmt.Errorf("token resolver is required")
	}
	if deps.Wrapper == nil {
		return nil, fmt.Errorf("wrap classifier is required")
	}
	if deps.Impact == nil {
		return nil, fmt.Errorf("price impact calculator is required")
	}
	if deps.Logger == nil {
		deps.Logger = logrus.New()
	}
	if cfg.ThrottleWindow <= 0 {
		cfg.ThrottleWindow = DefaultThrottleWindow
	}
	if cfg.PoolRefreshInterval <= 0 {
		cfg.PoolRefreshInterval = DefaultPoolRefreshInterval
	}

	return &Engine{
		cfg:          cfg,
		deps:         deps,
		log:          deps.Logger,
		exactIn:      true,
		liquidity:    sor.LiquidityBest,
		quote:        sor.EmptyQuote(),
		priceImpact:  decimal.Zero,
		poolsLoading: true,
		limiter:      rate.NewLimiter(rate.Every(cfg.ThrottleWindow), 1),
	}, nil
}

// inputs is the immutable per-cycle view of the user-editable fields.
type inputs struct {
	exactIn   bool
	tokenIn   common.Address
	tokenOut  common.Address
	amountIn  string
	amountOut string
	liquidity sor.LiquiditySelection
}

func (in inputs) drivingAmount() string {
	if in.exactIn {
		return in.amountIn
	}
	return in.amountOut
}

// cycleResult is the outcome of one recomputation cycle, committed atomically
// if the cycle is still the latest.
type cycleResult struct {
	amountIn        string
	amountOut       string
	quote           *sor.Quote
	priceImpact     decimal.Decimal
	highPriceImpact bool
}

func (r *cycleResult) clearDependent(in inputs) {
	if in.exactIn {
		r.amountOut = ""
	} else {
		r.amountIn = ""
	}
}

// HandleAmountChange is the single recomputation entry point, invoked on
// every relevant field change and after pool refreshes. The loading flag is
// raised synchronously; the computation itself is throttled so a burst of
// edits produces a leading run plus at most one trailing run over the latest
// state.
func (e *Engine) HandleAmountChange(ctx context.Context) error {
	e.mu.Lock()
	e.loadingQuote = true
	e.mu.Unlock()

	if e.limiter.Allow() {
		return e.recompute(ctx)
	}
	e.scheduleTrailing()
	return nil
}

func (e *Engine) scheduleTrailing() {
	e.trailingMu.Lock()
	if e.trailingSet {
		e.trailingMu.Unlock()
		return
	}
	e.trailingSet = true
	e.trailingMu.Unlock()

	time.AfterFunc(e.cfg.ThrottleWindow, func() {
		e.trailingMu.Lock()
		e.trailingSet = false
		e.trailingMu.Unlock()

		if err := e.recompute(context.Background()); err != nil {
			e.log.WithError(err).Warn("trailing recompute failed")
		}
	})
}

func (e *Engine) recompute(ctx context.Context) error {
	e.mu.Lock()
	e.seq++
	seq := e.seq
	in := inputs{
		exactIn:   e.exactIn,
		tokenIn:   e.tokenIn,
		tokenOut:  e.tokenOut,
		amountIn:  e.amountIn,
		amountOut: e.amountOut,
		liquidity: e.liquidity,
	}
	e.mu.Unlock()

	res, err := e.computeCycle(ctx, in)
	if err != nil {
		// The loading flag must never survive a failed cycle, but a newer
		// cycle owns it once this one is superseded.
		e.mu.Lock()
		if seq == e.seq {
			e.loadingQuote = false
		}
		e.mu.Unlock()
		return err
	}

	e.commit(seq, res)
	return nil
}

func (e *Engine) commit(seq uint64, res *cycleResult) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if seq != e.seq {
		e.log.WithFields(logrus.Fields{"seq": seq, "latest": e.seq}).Debug("discarding superseded quote")
		return false
	}
	e.amountIn = res.amountIn
	e.amountOut = res.amountOut
	e.quote = res.quote
	e.priceImpact = res.priceImpact
	e.highPriceImpact = res.highPriceImpact
	e.loadingQuote = false
	return true
}

func (e *Engine) computeCycle(ctx context.Context, in inputs) (*cycleResult, error) {
	res := &cycleResult{
		amountIn:    in.amountIn,
		amountOut:   in.amountOut,
		quote:       sor.EmptyQuote(),
		priceImpact: decimal.Zero,
	}

	drive := in.drivingAmount()
	if drive == "" || drive == "0" {
		res.amountIn = drive
		res.amountOut = drive
		return res, nil
	}

	var zero common.Address
	if in.tokenIn == zero || in.tokenOut == zero {
		res.clearDependent(in)
		return res, nil
	}
	tin, okIn := e.deps.Tokens.Lookup(in.tokenIn)
	tout, okOut := e.deps.Tokens.Lookup(in.tokenOut)
	if !okIn || !okOut {
		res.clearDependent(in)
		return res, nil
	}

	if wt := e.deps.Wrapper.Classify(in.tokenIn, in.tokenOut); wt != wrap.None {
		return res, e.computeWrap(ctx, in, res, wt, tin, tout, drive)
	}

	if !e.deps.SOR.HasPoolData() {
		res.clearDependent(in)
		return res, nil
	}

	// Calibrate routing cost for the receiving-side token before quoting.
	costToken := tout
	if !in.exactIn {
		costToken = tin
	}
	if e.deps.Prices != nil {
		price := pricing.NativePriceIn(e.deps.Prices, e.cfg.NativeAsset, costToken.Address)
		if err := e.deps.SOR.SetCostOutputToken(ctx, costToken.Address, costToken.Decimals, price); err != nil {
			return nil, &Error{Kind: KindRouting, Err: fmt.Errorf("set swap cost: %w", err)}
		}
	}

	amt, err := decimal.NewFromString(drive)
	if err != nil {
		return nil, &Error{Kind: KindConversion, Err: fmt.Errorf("parse amount %q: %w", drive, err)}
	}

	swapType := sor.SwapExactIn
	amountDecimals := tin.Decimals
	if !in.exactIn {
		swapType = sor.SwapExactOut
		amountDecimals = tout.Decimals
	}

	e.log.WithFields(logrus.Fields{
		"tokenIn":  tin.Symbol,
		"tokenOut": tout.Symbol,
		"swapType": swapType.String(),
		"amount":   drive,
	}).Debug("requesting best swap")

	q, err := e.deps.SOR.BestSwap(ctx, sor.BestSwapRequest{
		TokenIn:        in.tokenIn,
		TokenOut:       in.tokenOut,
		DecimalsIn:     tin.Decimals,
		DecimalsOut:    tout.Decimals,
		SwapType:       swapType,
		Amount:         amt,
		AmountDecimals: amountDecimals,
		Liquidity:      in.liquidity,
	})
	if err != nil {
		return nil, &Error{Kind: KindRouting, Err: fmt.Errorf("best swap: %w", err)}
	}
	res.quote = q

	if in.exactIn {
		outNorm := tokens.Normalize(q.ReturnAmount, tout.Decimals)
		res.amountOut = tokens.FormatDisplay(outNorm, tokens.RoundDown)
		if q.HasSwaps {
			impact, err := e.deps.Impact.Impact(ctx, amt, outNorm, in.tokenOut, q.MarketSP)
			if err != nil {
				return nil, &Error{Kind: KindConversion, Err: err}
			}
			res.priceImpact = impact
			res.highPriceImpact = e.deps.Impact.High(impact)
		}
	} else {
		inNorm := tokens.Normalize(q.ReturnAmount, tin.Decimals)
		res.amountIn = tokens.FormatDisplay(inNorm, tokens.RoundUp)
		if q.HasSwaps {
			impact, err := e.deps.Impact.Impact(ctx, inNorm, amt, in.tokenOut, q.MarketSP)
			if err != nil {
				return nil, &Error{Kind: KindConversion, Err: err}
			}
			res.priceImpact = impact
			res.highPriceImpact = e.deps.Impact.High(impact)
		}
	}

	return res, nil
}

// computeWrap fills the dependent field for a wrap/unwrap pair. The routing
// oracle is never consulted and price impact stays zero.
func (e *Engine) computeWrap(ctx context.Context, in inputs, res *cycleResult, wt wrap.Type, tin, tout tokens.Token, drive string) error {
	driveDecimals := tin.Decimals
	if !in.exactIn {
		driveDecimals = tout.Decimals
	}
	scaled, err := tokens.ParseFixed(drive, driveDecimals)
	if err != nil {
		return &Error{Kind: KindConversion, Err: err}
	}

	wrapper := e.deps.Wrapper.Wrapper(in.tokenIn, in.tokenOut, wt)
	if in.exactIn {
		out, err := e.deps.Wrapper.Output(ctx, wrapper, wt, scaled)
		if err != nil {
			return &Error{Kind: KindConversion, Err: err}
		}
		res.amountOut = tokens.FormatFixed(out, tin.Decimals)
	} else {
		// Invert the conversion to find the input that yields the requested
		// output.
		inverse := wrap.Wrap
		if wt == wrap.Wrap {
			inverse = wrap.Unwrap
		}
		inAmt, err := e.deps.Wrapper.Output(ctx, wrapper, inverse, scaled)
		if err != nil {
			return &Error{Kind: KindConversion, Err: err}
		}
		res.amountIn = tokens.FormatFixed(inAmt, tout.Decimals)
	}

	res.quote = sor.EmptyQuote()
	res.priceImpact = decimal.Zero
	res.highPriceImpact = false
	return nil
}

// FetchPools refreshes the routing oracle's liquidity snapshot and, when
// configured, re-runs the amount pipeline against the fresh data.
func (e *Engine) FetchPools(ctx context.Context) error {
	if err := e.deps.SOR.FetchPools(ctx); err != nil {
		return &Error{Kind: KindRouting, Err: fmt.Errorf("fetch pools: %w", err)}
	}

	e.mu.Lock()
	e.poolsLoading = false
	e.mu.Unlock()

	if e.cfg.HandleAmountsOnFetchPools {
		return e.HandleAmountChange(ctx)
	}
	return nil
}

// Start runs the periodic pool refresh loop until the context is cancelled.
// Each tick behaves exactly like a user edit, throttling included.
func (e *Engine) Start(ctx context.Context) error {
	e.runMu.Lock()
	if e.running {
		e.runMu.Unlock()
		return fmt.Errorf("engine already running")
	}
	e.running = true
	e.runMu.Unlock()

	defer func() {
		e.runMu.Lock()
		e.running = false
		e.runMu.Unlock()
	}()

	if err := e.FetchPools(ctx); err != nil {
		e.log.WithError(err).Warn("initial pool fetch failed")
	}

	ticker := time.NewTicker(e.cfg.PoolRefreshInterval)
	defer ticker.Stop()

	e.log.WithField("interval", e.cfg.PoolRefreshInterval).Info("starting pool refresh loop")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if !e.cfg.RefetchPools {
				continue
			}
			if err := e.FetchPools(ctx); err != nil {
				e.log.WithError(err).Error("pool refresh failed")
			}
		}
	}
}
