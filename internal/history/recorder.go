// Package history is the transaction-history side channel. Recording is
// best-effort: the trade executor never fails a submission because a sink is
// down.
package history

import (
	"context"
	"time"
)

// TradeRecord is one submitted trade, wrap, or unwrap.
type TradeRecord struct {
	Hash      string    `json:"hash"`
	Timestamp time.Time `json:"timestamp"`
	Action    string    `json:"action"` // "trade", "wrap" or "unwrap"
	Summary   string    `json:"summary"`

	TokenIn   string `json:"token_in"`
	TokenOut  string `json:"token_out"`
	AmountIn  string `json:"amount_in"`
	AmountOut string `json:"amount_out"`
	ExactIn   bool   `json:"exact_in"`

	PriceImpact  string `json:"price_impact"`
	SlippageRate string `json:"slippage_rate"`
	MaximumIn    string `json:"maximum_in"`
	MinimumOut   string `json:"minimum_out"`
}

// Recorder persists trade records.
type Recorder interface {
	Record(ctx context.Context, rec *TradeRecord) error
}

type multi []Recorder

// Multi fans a record out to several sinks, returning the first error after
// attempting all of them.
func Multi(recorders ...Recorder) Recorder {
	return multi(recorders)
}

func (m multi) Record(ctx context.Context, rec *TradeRecord) error {
	var first error
	for _, r := range m {
		if r == nil {
			continue
		}
		if err := r.Record(ctx, rec); err != nil && first == nil {
			first = err
		}
	}
	return first
}
