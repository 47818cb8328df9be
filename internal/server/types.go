package server

// ErrorResponse is the standardized error payload.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    int    `json:"code"`
	Details any    `json:"details,omitempty"` // dev mode only
}

// HealthResponse reports service liveness.
type HealthResponse struct {
	OK bool `json:"ok"`
}

// TradeStateResponse is the JSON view of a session snapshot.
type TradeStateResponse struct {
	ExactIn   bool   `json:"exactIn"`
	TokenIn   string `json:"tokenIn"`
	TokenOut  string `json:"tokenOut"`
	AmountIn  string `json:"amountIn"`
	AmountOut string `json:"amountOut"`
	Liquidity string `json:"liquidity"`

	HasSwaps        bool   `json:"hasSwaps"`
	MarketSP        string `json:"marketSpNormalised"`
	PriceImpact     string `json:"priceImpact"`
	HighPriceImpact bool   `json:"highPriceImpact"`

	LoadingQuote bool `json:"loadingQuote"`
	PoolsLoading bool `json:"poolsLoading"`
	Trading      bool `json:"trading"`
	Confirming   bool `json:"confirming"`

	SubmissionError  string `json:"submissionError,omitempty"`
	SlippageExceeded bool   `json:"slippageExceeded"`
	LatestTxHash     string `json:"latestTxHash,omitempty"`
}

// BoundsResponse carries the worst-case execution bounds for the current
// quote and tolerance.
type BoundsResponse struct {
	MaximumIn  string `json:"maximumInAmount"`
	MinimumOut string `json:"minimumOutAmount"`
}

// TradesRecentResponse wraps the recent trade history.
type TradesRecentResponse struct {
	Items any `json:"items"`
}
