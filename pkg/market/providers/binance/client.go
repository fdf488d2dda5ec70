package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"signalforge/pkg/market"
)

const (
	defaultHTTPTimeout = 10 * time.Second
	maxKlineLimit      = 1000
)

// Client wraps the spot REST kline endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
	apiKey     string
}

// Option configures a new Client.
type Option func(*Client)

// WithHTTPClient injects a custom http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithBaseURL overrides the default REST endpoint URL.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = u
		}
	}
}

// WithAPIKey sets the API key header. Kline endpoints are public, so the key
// is optional and only raises the request weight allowance.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		c.apiKey = key
	}
}

// NewClient constructs a Binance REST client.
func NewClient(opts ...Option) *Client {
	client := &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// GetKlines fetches up to limit klines ending at the current bar.
func (c *Client) GetKlines(ctx context.Context, symbol string, timeframe market.Timeframe, limit int) ([]market.Kline, error) {
	interval, err := intervalFor(timeframe)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > maxKlineLimit {
		return nil, fmt.Errorf("binance: limit must be in 1..%d", maxKlineLimit)
	}
	query := url.Values{}
	query.Set("symbol", symbol)
	query.Set("interval", interval)
	query.Set("limit", strconv.Itoa(limit))
	return c.fetchKlines(ctx, query)
}

// GetKlinesRange fetches klines between start and end inclusive.
func (c *Client) GetKlinesRange(ctx context.Context, symbol string, timeframe market.Timeframe, start, end time.Time) ([]market.Kline, error) {
	interval, err := intervalFor(timeframe)
	if err != nil {
		return nil, err
	}
	if !end.After(start) {
		return nil, fmt.Errorf("binance: range end must be after start")
	}
	query := url.Values{}
	query.Set("symbol", symbol)
	query.Set("interval", interval)
	query.Set("startTime", strconv.FormatInt(start.UnixMilli(), 10))
	query.Set("endTime", strconv.FormatInt(end.UnixMilli(), 10))
	query.Set("limit", strconv.Itoa(maxKlineLimit))
	return c.fetchKlines(ctx, query)
}

func (c *Client) fetchKlines(ctx context.Context, query url.Values) ([]market.Kline, error) {
	endpoint := c.baseURL + "/api/v3/klines?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("binance: build request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("X-MBX-APIKEY", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &market.TransportError{Provider: providerType, Err: err}
	}
	body, err := market.ReadBody(providerType, resp)
	if err != nil {
		return nil, err
	}

	var raw []rawKline
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, &market.ValidationError{Provider: providerType, Field: "body", Reason: err.Error()}
	}
	klines := make([]market.Kline, 0, len(raw))
	for i, item := range raw {
		k, err := parseKline(item)
		if err != nil {
			return nil, &market.ValidationError{
				Provider: providerType,
				Field:    fmt.Sprintf("klines[%d]", i),
				Reason:   err.Error(),
			}
		}
		klines = append(klines, k)
	}
	return klines, nil
}
