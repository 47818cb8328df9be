package trading

import (
	"context"
	"fmt"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/defiplex/tradecore/internal/history"
	"github.com/defiplex/tradecore/internal/sor"
)

// fakeSubmitter records submissions and confirms every watched transaction.
type fakeSubmitter struct {
	submitErr error
	failTx    bool

	wrapCalls   int
	unwrapCalls int
	swapInCalls int
	swapOutCall int

	lastWrapper  common.Address
	lastAmountIn *big.Int
	lastMinOut   *big.Int
	lastMaxIn    *big.Int
	lastOut      *big.Int
}

func (f *fakeSubmitter) handle() (*TxHandle, error) {
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	return &TxHandle{Hash: "0xdeadbeef"}, nil
}

func (f *fakeSubmitter) Wrap(ctx context.Context, wrapper common.Address, amount *big.Int) (*TxHandle, error) {
	f.wrapCalls++
	f.lastWrapper = wrapper
	f.lastAmountIn = amount
	return f.handle()
}

func (f *fakeSubmitter) Unwrap(ctx context.Context, wrapper common.Address, amount *big.Int) (*TxHandle, error) {
	f.unwrapCalls++
	f.lastWrapper = wrapper
	f.lastAmountIn = amount
	return f.handle()
}

func (f *fakeSubmitter) SwapIn(ctx context.Context, quote *sor.Quote, amountIn, minOut *big.Int) (*TxHandle, error) {
	f.swapInCalls++
	f.lastAmountIn = amountIn
	f.lastMinOut = minOut
	return f.handle()
}

func (f *fakeSubmitter) SwapOut(ctx context.Context, quote *sor.Quote, maxIn, amountOut *big.Int) (*TxHandle, error) {
	f.swapOutCall++
	f.lastMaxIn = maxIn
	f.lastOut = amountOut
	return f.handle()
}

func (f *fakeSubmitter) Watch(ctx context.Context, h *TxHandle, cb WatchCallbacks) error {
	if f.failTx {
		cb.OnFailed(h.Hash)
		return nil
	}
	cb.OnConfirmed(h.Hash)
	return nil
}

// memRecorder captures records in memory.
type memRecorder struct {
	records []*history.TradeRecord
}

func (m *memRecorder) Record(ctx context.Context, rec *history.TradeRecord) error {
	m.records = append(m.records, rec)
	return nil
}

func newTradeEngine(t *testing.T, sub Submitter, rec history.Recorder) (*Engine, *fakeSOR) {
	t.Helper()
	oracle := &fakeSOR{hasPools: true, quote: routedQuote("98500000", 6, "0.99")}
	e := newTestEngine(t, oracle, func(_ *Config, d *Deps) {
		d.Submitter = sub
		d.Recorder = rec
	})
	e.SetSlippageRate(decimal.RequireFromString("0.01"))
	return e, oracle
}

func TestTrade_ExactInUsesMinOut(t *testing.T) {
	sub := &fakeSubmitter{}
	e, _ := newTradeEngine(t, sub, nil)

	e.SetTokenIn(daiAddr)
	e.SetTokenOut(usdcAddr)
	e.SetAmountIn("100")
	require.NoError(t, e.HandleAmountChange(context.Background()))

	var outcome Outcome
	require.NoError(t, e.Trade(context.Background(), func(o Outcome) { outcome = o }))

	assert.Equal(t, 1, sub.swapInCalls)
	assert.Equal(t, "100000000000000000000", sub.lastAmountIn.String())
	// 98.5 USDC / 1.01 truncated to base units.
	assert.Equal(t, "97524752", sub.lastMinOut.String())

	assert.True(t, outcome.Confirmed)
	s := e.Snapshot()
	assert.False(t, s.Trading)
	assert.False(t, s.Confirming)
	assert.Equal(t, "0xdeadbeef", s.LatestTxHash)
}

func TestTrade_ExactOutUsesMaxIn(t *testing.T) {
	sub := &fakeSubmitter{}
	oracle := &fakeSOR{hasPools: true, quote: routedQuote("1000000000000000000000", 18, "0.99")}
	e := newTestEngine(t, oracle, func(_ *Config, d *Deps) {
		d.Submitter = sub
	})
	e.SetSlippageRate(decimal.RequireFromString("0.01"))

	e.SetTokenIn(daiAddr)
	e.SetTokenOut(usdcAddr)
	e.SetExactIn(false)
	e.SetAmountOut("985")
	require.NoError(t, e.HandleAmountChange(context.Background()))
	require.Equal(t, "1000.000000", e.Snapshot().AmountIn)

	require.NoError(t, e.Trade(context.Background(), nil))

	assert.Equal(t, 1, sub.swapOutCall)
	// 1000 DAI * 1.01 in base units.
	assert.Equal(t, "1010000000000000000000", sub.lastMaxIn.String())
	assert.Equal(t, "985000000", sub.lastOut.String())
}

func TestTrade_WrapPair(t *testing.T) {
	sub := &fakeSubmitter{}
	e, oracle := newTradeEngine(t, sub, nil)

	e.SetTokenIn(nativeAddr)
	e.SetTokenOut(wethAddr)
	e.SetAmountIn("1")
	require.NoError(t, e.HandleAmountChange(context.Background()))

	require.NoError(t, e.Trade(context.Background(), nil))

	assert.Equal(t, 1, sub.wrapCalls)
	assert.Equal(t, 0, sub.swapInCalls)
	assert.Equal(t, wethAddr, sub.lastWrapper)
	assert.Equal(t, "1000000000000000000", sub.lastAmountIn.String())
	assert.Equal(t, 0, oracle.calls())
}

func TestTrade_UnwrapPair(t *testing.T) {
	sub := &fakeSubmitter{}
	e, _ := newTradeEngine(t, sub, nil)

	e.SetTokenIn(wethAddr)
	e.SetTokenOut(nativeAddr)
	e.SetAmountIn("2.5")
	require.NoError(t, e.HandleAmountChange(context.Background()))

	require.NoError(t, e.Trade(context.Background(), nil))

	assert.Equal(t, 1, sub.unwrapCalls)
	assert.Equal(t, wethAddr, sub.lastWrapper)
	assert.Equal(t, "2500000000000000000", sub.lastAmountIn.String())
}

func TestTrade_SlippageSignature(t *testing.T) {
	sub := &fakeSubmitter{submitErr: fmt.Errorf("execution reverted: BAL#507")}
	e, _ := newTradeEngine(t, sub, nil)

	e.SetTokenIn(daiAddr)
	e.SetTokenOut(usdcAddr)
	e.SetAmountIn("100")
	require.NoError(t, e.HandleAmountChange(context.Background()))

	err := e.Trade(context.Background(), nil)
	require.Error(t, err)
	kind, ok := KindOf(err)
	assert.True(t, ok)
	assert.Equal(t, KindSlippageExceeded, kind)

	s := e.Snapshot()
	assert.True(t, s.SlippageExceeded)
	assert.Contains(t, s.SubmissionError, "BAL#507")
	assert.False(t, s.Trading)
	assert.False(t, s.Confirming)
}

func TestTrade_SubmissionError(t *testing.T) {
	sub := &fakeSubmitter{submitErr: fmt.Errorf("insufficient funds")}
	e, _ := newTradeEngine(t, sub, nil)

	e.SetTokenIn(daiAddr)
	e.SetTokenOut(usdcAddr)
	e.SetAmountIn("100")
	require.NoError(t, e.HandleAmountChange(context.Background()))

	err := e.Trade(context.Background(), nil)
	require.Error(t, err)
	kind, _ := KindOf(err)
	assert.Equal(t, KindSubmission, kind)

	s := e.Snapshot()
	assert.False(t, s.SlippageExceeded)
	assert.Equal(t, "insufficient funds", s.SubmissionError)
}

func TestTrade_DirectionMismatch(t *testing.T) {
	sub := &fakeSubmitter{}
	e, _ := newTradeEngine(t, sub, nil)

	e.SetTokenIn(daiAddr)
	e.SetTokenOut(usdcAddr)
	e.SetAmountIn("100")
	require.NoError(t, e.HandleAmountChange(context.Background()))

	// The held quote was computed for ExactIn; flipping the direction without
	// requoting must not submit.
	e.SetExactIn(false)
	err := e.Trade(context.Background(), nil)
	require.Error(t, err)
	assert.Equal(t, 0, sub.swapOutCall)
	assert.NotEmpty(t, e.Snapshot().SubmissionError)
}

func TestTrade_NoSubmitter(t *testing.T) {
	e, _ := newTradeEngine(t, nil, nil)
	err := e.Trade(context.Background(), nil)
	require.Error(t, err)
	kind, _ := KindOf(err)
	assert.Equal(t, KindSubmission, kind)
}

func TestTrade_FailedConfirmation(t *testing.T) {
	sub := &fakeSubmitter{failTx: true}
	e, _ := newTradeEngine(t, sub, nil)

	e.SetTokenIn(daiAddr)
	e.SetTokenOut(usdcAddr)
	e.SetAmountIn("100")
	require.NoError(t, e.HandleAmountChange(context.Background()))

	var outcome Outcome
	require.NoError(t, e.Trade(context.Background(), func(o Outcome) { outcome = o }))

	assert.False(t, outcome.Confirmed)
	assert.Equal(t, "0xdeadbeef", outcome.Hash)
	s := e.Snapshot()
	assert.False(t, s.Trading)
	assert.Empty(t, s.LatestTxHash)
}

func TestTrade_RecordsHistory(t *testing.T) {
	sub := &fakeSubmitter{}
	rec := &memRecorder{}
	e, _ := newTradeEngine(t, sub, rec)

	e.SetTokenIn(daiAddr)
	e.SetTokenOut(usdcAddr)
	e.SetAmountIn("100")
	require.NoError(t, e.HandleAmountChange(context.Background()))
	require.NoError(t, e.Trade(context.Background(), nil))

	require.Len(t, rec.records, 1)
	r := rec.records[0]
	assert.Equal(t, "0xdeadbeef", r.Hash)
	assert.Equal(t, "trade", r.Action)
	assert.Equal(t, "DAI", r.TokenIn)
	assert.Equal(t, "USDC", r.TokenOut)
	assert.Equal(t, "100", r.AmountIn)
	assert.Equal(t, "98.500000", r.AmountOut)
	assert.True(t, r.ExactIn)
	assert.Equal(t, "0.01", r.SlippageRate)
	assert.NotEmpty(t, r.MaximumIn)
	assert.Equal(t, "97524752", r.MinimumOut)
	assert.Contains(t, r.Summary, "DAI")
	assert.Contains(t, r.Summary, "USDC")
}

func TestTrade_WrapSummary(t *testing.T) {
	sub := &fakeSubmitter{}
	rec := &memRecorder{}
	e, _ := newTradeEngine(t, sub, rec)

	e.SetTokenIn(nativeAddr)
	e.SetTokenOut(wethAddr)
	e.SetAmountIn("1")
	require.NoError(t, e.HandleAmountChange(context.Background()))
	require.NoError(t, e.Trade(context.Background(), nil))

	require.Len(t, rec.records, 1)
	assert.Equal(t, "wrap", rec.records[0].Action)
	assert.Equal(t, "wrap 1 ETH to WETH", rec.records[0].Summary)
}

func TestBounds(t *testing.T) {
	e, _ := newTradeEngine(t, nil, nil)

	e.SetTokenIn(daiAddr)
	e.SetTokenOut(usdcAddr)
	e.SetAmountIn("1000")
	e.SetAmountOut("98.5")

	maxIn, minOut, err := e.Bounds()
	require.NoError(t, err)
	assert.Equal(t, "1010000000000000000000", maxIn.String())
	assert.Equal(t, "97524752", minOut.String())
}

func TestBounds_UnresolvedPair(t *testing.T) {
	e, _ := newTradeEngine(t, nil, nil)
	_, _, err := e.Bounds()
	assert.Error(t, err)
}
