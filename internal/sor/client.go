package sor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// ClientConfig holds configuration for the HTTP routing-oracle client.
type ClientConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	// RequestsPerSecond paces quote requests against the oracle service.
	// Zero disables pacing.
	RequestsPerSecond float64
	Logger            *logrus.Logger
}

// Client implements Manager against a smart-order-router HTTP service. The
// service owns path finding and its pool cache; this client only tracks
// whether a snapshot has been loaded and translates the wire format.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	limiter *rate.Limiter
	logger  *logrus.Logger

	mu          sync.RWMutex
	hasPoolData bool
}

func NewClient(cfg ClientConfig) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = 12 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  strings.TrimSpace(cfg.APIKey),
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: limiter,
		logger:  cfg.Logger,
	}
}

// HTTPError is a non-2xx response from the oracle service.
type HTTPError struct {
	StatusCode int
	Body       []byte
}

func (e *HTTPError) Error() string {
	b := strings.TrimSpace(string(e.Body))
	if b == "" {
		return fmt.Sprintf("sor http %d", e.StatusCode)
	}
	return fmt.Sprintf("sor http %d: %s", e.StatusCode, b)
}

type quoteResponse struct {
	HasSwaps           bool   `json:"hasSwaps"`
	TokenIn            string `json:"tokenIn"`
	TokenOut           string `json:"tokenOut"`
	ReturnAmount       string `json:"returnAmount"`
	ReturnDecimals     uint8  `json:"returnDecimals"`
	MarketSPNormalized string `json:"marketSpNormalised"`
}

type costOutputTokenRequest struct {
	Token              string `json:"token"`
	Decimals           uint8  `json:"decimals"`
	NativePriceInToken string `json:"nativePriceInToken"`
}

// FetchPools asks the service to refresh its liquidity snapshot. The first
// successful refresh marks the oracle ready.
func (c *Client) FetchPools(ctx context.Context) error {
	start := time.Now()
	if err := c.post(ctx, "/pools/fetch", nil, nil); err != nil {
		return fmt.Errorf("fetch pools: %w", err)
	}
	c.mu.Lock()
	c.hasPoolData = true
	c.mu.Unlock()
	c.logger.WithField("took", time.Since(start)).Debug("pools fetched")
	return nil
}

func (c *Client) HasPoolData() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hasPoolData
}

func (c *Client) SetCostOutputToken(ctx context.Context, token common.Address, decimals uint8, nativePriceInToken decimal.Decimal) error {
	body := costOutputTokenRequest{
		Token:              token.Hex(),
		Decimals:           decimals,
		NativePriceInToken: nativePriceInToken.String(),
	}
	if err := c.post(ctx, "/cost-output-token", body, nil); err != nil {
		return fmt.Errorf("set cost output token: %w", err)
	}
	return nil
}

func (c *Client) BestSwap(ctx context.Context, req BestSwapRequest) (*Quote, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	q := url.Values{}
	q.Set("tokenIn", req.TokenIn.Hex())
	q.Set("tokenOut", req.TokenOut.Hex())
	q.Set("decimalsIn", fmt.Sprintf("%d", req.DecimalsIn))
	q.Set("decimalsOut", fmt.Sprintf("%d", req.DecimalsOut))
	q.Set("swapType", req.SwapType.String())
	q.Set("amount", req.Amount.String())
	q.Set("amountDecimals", fmt.Sprintf("%d", req.AmountDecimals))
	if req.Liquidity != "" {
		q.Set("liquidity", string(req.Liquidity))
	}

	var resp quoteResponse
	if err := c.get(ctx, "/quote?"+q.Encode(), &resp); err != nil {
		return nil, fmt.Errorf("best swap: %w", err)
	}

	returnAmount := new(big.Int)
	if resp.ReturnAmount != "" {
		if _, ok := returnAmount.SetString(resp.ReturnAmount, 10); !ok {
			return nil, fmt.Errorf("best swap: bad returnAmount %q", resp.ReturnAmount)
		}
	}
	marketSP := decimal.Zero
	if resp.MarketSPNormalized != "" {
		sp, err := decimal.NewFromString(resp.MarketSPNormalized)
		if err != nil {
			return nil, fmt.Errorf("best swap: bad marketSpNormalised %q: %w", resp.MarketSPNormalized, err)
		}
		marketSP = sp
	}

	return &Quote{
		HasSwaps:       resp.HasSwaps,
		TokenIn:        common.HexToAddress(resp.TokenIn),
		TokenOut:       common.HexToAddress(resp.TokenOut),
		SwapType:       req.SwapType,
		ReturnAmount:   returnAmount,
		ReturnDecimals: resp.ReturnDecimals,
		MarketSP:       marketSP,
	}, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("content-type", "application/json")
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	req.Header.Set("accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("x-api-key", c.apiKey)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	body, _ := io.ReadAll(res.Body)
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return &HTTPError{StatusCode: res.StatusCode, Body: body}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode sor response: %w", err)
	}
	return nil
}
