package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/defiplex/tradecore/internal/history"
	"github.com/defiplex/tradecore/internal/sor"
	"github.com/defiplex/tradecore/internal/trading"
)

// Handlers contains all dependencies for API endpoint handlers.
type Handlers struct {
	Engine  *trading.Engine        // Trading session engine
	History *history.RedisRecorder // Optional recent-trades reader
	DevMode bool                   // Enable detailed error responses
	Logger  *logrus.Logger         // Structured logger
}

// err returns a standardized JSON error response. Dev mode adds details.
func (h *Handlers) err(c echo.Context, code int, msg string, details any) error {
	resp := ErrorResponse{Error: msg, Code: code}
	if h.DevMode && details != nil {
		resp.Details = details
	}
	return c.JSON(code, resp)
}

func (h *Handlers) withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = 10 * time.Second
	}
	return context.WithTimeout(ctx, d)
}

// Health returns a simple health check.
func (h *Handlers) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{OK: true})
}

func snapshotResponse(s trading.Snapshot) TradeStateResponse {
	resp := TradeStateResponse{
		ExactIn:          s.ExactIn,
		TokenIn:          s.TokenIn.Hex(),
		TokenOut:         s.TokenOut.Hex(),
		AmountIn:         s.AmountIn,
		AmountOut:        s.AmountOut,
		Liquidity:        string(s.Liquidity),
		PriceImpact:      s.PriceImpact.String(),
		HighPriceImpact:  s.HighPriceImpact,
		LoadingQuote:     s.LoadingQuote,
		PoolsLoading:     s.PoolsLoading,
		Trading:          s.Trading,
		Confirming:       s.Confirming,
		SubmissionError:  s.SubmissionError,
		SlippageExceeded: s.SlippageExceeded,
		LatestTxHash:     s.LatestTxHash,
	}
	if s.Quote != nil {
		resp.HasSwaps = s.Quote.HasSwaps
		resp.MarketSP = s.Quote.MarketSP.String()
	}
	return resp
}

// State returns the current session snapshot without recomputing anything.
func (h *Handlers) State(c echo.Context) error {
	return c.JSON(http.StatusOK, snapshotResponse(h.Engine.Snapshot()))
}

// Quote applies the requested trade inputs to the session and runs one
// recomputation cycle, returning the resulting state.
func (h *Handlers) Quote(c echo.Context) error {
	tokenIn := strings.TrimSpace(c.QueryParam("tokenIn"))
	tokenOut := strings.TrimSpace(c.QueryParam("tokenOut"))
	amount := strings.TrimSpace(c.QueryParam("amount"))
	swapType := strings.TrimSpace(c.QueryParam("swapType"))

	if !common.IsHexAddress(tokenIn) {
		return h.err(c, http.StatusBadRequest, "invalid tokenIn", map[string]any{"tokenIn": "must be a hex address"})
	}
	if !common.IsHexAddress(tokenOut) {
		return h.err(c, http.StatusBadRequest, "invalid tokenOut", map[string]any{"tokenOut": "must be a hex address"})
	}
	if swapType != "" && swapType != "ExactIn" && swapType != "ExactOut" {
		return h.err(c, http.StatusBadRequest, "invalid swapType", map[string]any{"swapType": "must be ExactIn or ExactOut"})
	}
	exactIn := swapType != "ExactOut"

	h.Engine.SetTokenIn(common.HexToAddress(tokenIn))
	h.Engine.SetTokenOut(common.HexToAddress(tokenOut))
	h.Engine.SetExactIn(exactIn)
	if exactIn {
		h.Engine.SetAmountIn(amount)
	} else {
		h.Engine.SetAmountOut(amount)
	}
	if liq := strings.TrimSpace(c.QueryParam("liquidity")); liq != "" {
		h.Engine.SetLiquidity(sor.LiquiditySelection(liq))
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	if err := h.Engine.HandleAmountChange(ctx); err != nil {
		if kind, ok := trading.KindOf(err); ok && kind == trading.KindRouting {
			return h.err(c, http.StatusBadGateway, "routing failed", map[string]any{"err": err.Error()})
		}
		return h.err(c, http.StatusUnprocessableEntity, "quote failed", map[string]any{"err": err.Error()})
	}

	return c.JSON(http.StatusOK, snapshotResponse(h.Engine.Snapshot()))
}

// Bounds returns the worst-case execution bounds for the current session.
func (h *Handlers) Bounds(c echo.Context) error {
	maxIn, minOut, err := h.Engine.Bounds()
	if err != nil {
		return h.err(c, http.StatusUnprocessableEntity, "bounds unavailable", map[string]any{"err": err.Error()})
	}
	return c.JSON(http.StatusOK, BoundsResponse{
		MaximumIn:  maxIn.String(),
		MinimumOut: minOut.String(),
	})
}

// PoolsRefresh forces a routing-oracle pool re-fetch.
func (h *Handlers) PoolsRefresh(c echo.Context) error {
	ctx, cancel := h.withTimeout(c.Request().Context(), 30*time.Second)
	defer cancel()

	if err := h.Engine.FetchPools(ctx); err != nil {
		return h.err(c, http.StatusBadGateway, "pool refresh failed", map[string]any{"err": err.Error()})
	}
	return c.JSON(http.StatusOK, HealthResponse{OK: true})
}

// Trade submits the current session's trade.
func (h *Handlers) Trade(c echo.Context) error {
	ctx, cancel := h.withTimeout(c.Request().Context(), 60*time.Second)
	defer cancel()

	if err := h.Engine.Trade(ctx, nil); err != nil {
		var terr *trading.Error
		if errors.As(err, &terr) && terr.Kind == trading.KindSlippageExceeded {
			return h.err(c, http.StatusConflict, "slippage exceeded, re-quote required", map[string]any{"err": err.Error()})
		}
		return h.err(c, http.StatusBadGateway, "submission failed", map[string]any{"err": err.Error()})
	}
	return c.JSON(http.StatusOK, snapshotResponse(h.Engine.Snapshot()))
}

// TradesRecent returns the most recently recorded trades, newest first.
func (h *Handlers) TradesRecent(c echo.Context) error {
	if h.History == nil {
		return h.err(c, http.StatusBadRequest, "trade history is not configured", nil)
	}

	limit := 100
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return h.err(c, http.StatusBadRequest, "invalid limit", map[string]any{"limit": "must be an integer"})
		}
		limit = n
	}
	if limit < 1 || limit > 200 {
		return h.err(c, http.StatusBadRequest, "invalid limit", map[string]any{"limit": "min 1 max 200"})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.History.Recent(ctx, limit)
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to load trades", map[string]any{"err": err.Error()})
	}
	return c.JSON(http.StatusOK, TradesRecentResponse{Items: items})
}
