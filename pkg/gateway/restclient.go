package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

type RESTClient struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

type Option func(*RESTClient)

// WithRateLimit caps outgoing requests; rps <= 0 disables the limit.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *RESTClient) {
		if rps <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 0)
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), max(burst, 1))
	}
}

func NewRESTClient(baseURL string, timeout time.Duration, opts ...Option) *RESTClient {
	c := &RESTClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Inf, 0),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Watchlist fetches the latest bar for every symbol on the server watchlist.
func (c *RESTClient) Watchlist(ctx context.Context) (*WatchlistResponse, error) {
	var out WatchlistResponse
	if err := c.do(ctx, http.MethodGet, "/api/watchlist", nil, &out); err != nil {
		return nil, err
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return &out, nil
}

// Detail fetches descriptive metadata for ticker.
func (c *RESTClient) Detail(ctx context.Context, ticker string) (*StockDetails, error) {
	var out StockDetails
	if err := c.do(ctx, http.MethodGet, "/api/stock/"+url.PathEscape(ticker), nil, &out); err != nil {
		return nil, err
	}
	if out.Ticker == "" {
		out.Ticker = ticker
	}
	if out.Ticker != ticker {
		return nil, fmt.Errorf("%w: asked for %s, got %s", ErrMalformed, ticker, out.Ticker)
	}
	return &out, nil
}

// Chart fetches the OHLCV series for ticker over period (e.g. "3m").
func (c *RESTClient) Chart(ctx context.Context, ticker, period string) (*ChartResponse, error) {
	q := url.Values{"period": {period}}
	path := "/api/stock/" + url.PathEscape(ticker) + "/chart"

	var out ChartResponse
	if err := c.do(ctx, http.MethodGet, path, q, &out); err != nil {
		return nil, err
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return &out, nil
}

// Status fetches backend task and service status.
func (c *RESTClient) Status(ctx context.Context) (SystemStatus, error) {
	var out SystemStatus
	if err := c.do(ctx, http.MethodGet, "/api/system-status", nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		return nil, fmt.Errorf("%w: empty status body", ErrMalformed)
	}
	return out, nil
}

func (c *RESTClient) AddSymbol(ctx context.Context, ticker string) error {
	return c.do(ctx, http.MethodPost, "/api/watchlist/add", url.Values{"ticker": {ticker}}, nil)
}

func (c *RESTClient) RemoveSymbol(ctx context.Context, ticker string) error {
	return c.do(ctx, http.MethodDelete, "/api/watchlist/"+url.PathEscape(ticker), nil, nil)
}

// do issues one request and decodes a JSON body into out when out is non-nil.
func (c *RESTClient) do(ctx context.Context, method, path string, query url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit: %w", err)
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	// Construct the request with context for timeout/cancel support
	req, err := http.NewRequestWithContext(ctx, method, endpoint, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("making request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &StatusError{Code: resp.StatusCode, Body: string(body)}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrMalformed, err)
	}
	return nil
}
