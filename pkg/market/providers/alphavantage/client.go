package alphavantage

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"signalforge/pkg/market"
)

const (
	providerType       = "alphavantage"
	defaultBaseURL     = "https://www.alphavantage.co"
	defaultHTTPTimeout = 10 * time.Second
	datetimeLayout     = "2006-01-02 15:04:05"
	dateLayout         = "2006-01-02"
)

// intradayIntervals maps normalized timeframes onto FX_INTRADAY interval
// strings. Daily bars use the FX_DAILY function instead; 4h has no
// Alpha Vantage equivalent and is rejected.
var intradayIntervals = map[market.Timeframe]string{
	market.Timeframe1m:  "1min",
	market.Timeframe5m:  "5min",
	market.Timeframe15m: "15min",
	market.Timeframe30m: "30min",
	market.Timeframe1h:  "60min",
}

// Client wraps the Alpha Vantage FX endpoints.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
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

// WithBaseURL overrides the default endpoint URL.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = u
		}
	}
}

// NewClient constructs an Alpha Vantage client. The API key is mandatory.
func NewClient(apiKey string, opts ...Option) *Client {
	client := &Client{
		baseURL:    defaultBaseURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// splitPair converts "USDJPY" into the from/to currency parameters.
func splitPair(symbol string) (string, string, error) {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	if len(s) != 6 {
		return "", "", fmt.Errorf("alphavantage: cannot split symbol %q into a currency pair", symbol)
	}
	return s[:3], s[3:], nil
}

// barFields is one keyed bar object; Alpha Vantage numbers its field names.
type barFields struct {
	Open  string `json:"1. open"`
	High  string `json:"2. high"`
	Low   string `json:"3. low"`
	Close string `json:"4. close"`
}

// GetSeries fetches the latest limit bars.
func (c *Client) GetSeries(ctx context.Context, symbol string, timeframe market.Timeframe, limit int) ([]market.Kline, error) {
	klines, err := c.fetchAll(ctx, symbol, timeframe, limit > 100)
	if err != nil {
		return nil, err
	}
	if len(klines) > limit {
		klines = klines[len(klines)-limit:]
	}
	return klines, nil
}

// GetSeriesRange fetches bars between start and end inclusive. The API has no
// range parameters, so the full series is fetched and filtered locally.
func (c *Client) GetSeriesRange(ctx context.Context, symbol string, timeframe market.Timeframe, start, end time.Time) ([]market.Kline, error) {
	klines, err := c.fetchAll(ctx, symbol, timeframe, true)
	if err != nil {
		return nil, err
	}
	startMs, endMs := start.UnixMilli(), end.UnixMilli()
	filtered := klines[:0]
	for _, k := range klines {
		if k.OpenTime >= startMs && k.OpenTime <= endMs {
			filtered = append(filtered, k)
		}
	}
	return filtered, nil
}

func (c *Client) fetchAll(ctx context.Context, symbol string, timeframe market.Timeframe, full bool) ([]market.Kline, error) {
	from, to, err := splitPair(symbol)
	if err != nil {
		return nil, err
	}
	query := url.Values{}
	query.Set("from_symbol", from)
	query.Set("to_symbol", to)
	query.Set("apikey", c.apiKey)
	if full {
		query.Set("outputsize", "full")
	}
	if timeframe == market.Timeframe1d {
		query.Set("function", "FX_DAILY")
	} else {
		interval, ok := intradayIntervals[timeframe]
		if !ok {
			return nil, fmt.Errorf("alphavantage: unsupported timeframe %q", timeframe)
		}
		query.Set("function", "FX_INTRADAY")
		query.Set("interval", interval)
	}

	endpoint := c.baseURL + "/query?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("alphavantage: build request: %w", err)
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
	return parseSeries(body, timeframe)
}

func parseSeries(body []byte, timeframe market.Timeframe) ([]market.Kline, error) {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, &market.ValidationError{Provider: providerType, Field: "body", Reason: err.Error()}
	}

	// Throttling and bad requests arrive as HTTP 200 with an explanatory field.
	for _, field := range []string{"Note", "Information"} {
		if _, ok := envelope[field]; ok {
			return nil, &market.RateLimitError{Provider: providerType}
		}
	}
	if raw, ok := envelope["Error Message"]; ok {
		var msg string
		_ = json.Unmarshal(raw, &msg)
		return nil, &market.ValidationError{Provider: providerType, Field: "request", Reason: msg}
	}

	var series map[string]barFields
	for key, raw := range envelope {
		if strings.HasPrefix(key, "Time Series FX") {
			if err := json.Unmarshal(raw, &series); err != nil {
				return nil, &market.ValidationError{Provider: providerType, Field: key, Reason: err.Error()}
			}
			break
		}
	}
	if len(series) == 0 {
		return nil, &market.ValidationError{Provider: providerType, Field: "body", Reason: "no time series in response"}
	}

	step := timeframe.Duration()
	klines := make([]market.Kline, 0, len(series))
	for stamp, bar := range series {
		ts, err := parseDatetime(stamp)
		if err != nil {
			return nil, &market.ValidationError{Provider: providerType, Field: "timestamp " + stamp, Reason: err.Error()}
		}
		klines = append(klines, market.Kline{
			OpenTime:  ts.UnixMilli(),
			Open:      bar.Open,
			High:      bar.High,
			Low:       bar.Low,
			Close:     bar.Close,
			CloseTime: ts.Add(step).UnixMilli() - 1,
		})
	}
	sort.Slice(klines, func(i, j int) bool { return klines[i].OpenTime < klines[j].OpenTime })
	return klines, nil
}

func parseDatetime(value string) (time.Time, error) {
	if ts, err := time.Parse(datetimeLayout, value); err == nil {
		return ts.UTC(), nil
	}
	ts, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, err
	}
	return ts.UTC(), nil
}
