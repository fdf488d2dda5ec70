package twelvedata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"signalforge/pkg/market"
)

const (
	providerType       = "twelvedata"
	defaultBaseURL     = "https://api.twelvedata.com"
	defaultHTTPTimeout = 10 * time.Second
	datetimeLayout     = "2006-01-02 15:04:05"
	dateLayout         = "2006-01-02"
)

// intervals maps normalized timeframes onto Twelve Data interval strings.
var intervals = map[market.Timeframe]string{
	market.Timeframe1m:  "1min",
	market.Timeframe5m:  "5min",
	market.Timeframe15m: "15min",
	market.Timeframe30m: "30min",
	market.Timeframe1h:  "1h",
	market.Timeframe4h:  "4h",
	market.Timeframe1d:  "1day",
}

// Client wraps the Twelve Data time_series endpoint.
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

// NewClient constructs a Twelve Data client. The API key is mandatory.
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

// mapSymbol converts "EURUSD" into the provider's "EUR/USD" form.
func mapSymbol(symbol string) string {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	if strings.Contains(s, "/") || len(s) != 6 {
		return s
	}
	return s[:3] + "/" + s[3:]
}

// timeSeriesResponse is the keyed envelope: "values" holds bars newest-first.
type timeSeriesResponse struct {
	Status  string     `json:"status"`
	Code    int        `json:"code"`
	Message string     `json:"message"`
	Values  []barValue `json:"values"`
}

type barValue struct {
	Datetime string `json:"datetime"`
	Open     string `json:"open"`
	High     string `json:"high"`
	Low      string `json:"low"`
	Close    string `json:"close"`
	Volume   string `json:"volume"`
}

// GetTimeSeries fetches the latest limit bars for symbol/timeframe.
func (c *Client) GetTimeSeries(ctx context.Context, symbol string, timeframe market.Timeframe, limit int) ([]market.Kline, error) {
	interval, ok := intervals[timeframe]
	if !ok {
		return nil, fmt.Errorf("twelvedata: unsupported timeframe %q", timeframe)
	}
	query := url.Values{}
	query.Set("symbol", mapSymbol(symbol))
	query.Set("interval", interval)
	query.Set("outputsize", strconv.Itoa(limit))
	query.Set("timezone", "UTC")
	return c.fetch(ctx, query, timeframe)
}

// GetTimeSeriesRange fetches bars between start and end inclusive.
func (c *Client) GetTimeSeriesRange(ctx context.Context, symbol string, timeframe market.Timeframe, start, end time.Time) ([]market.Kline, error) {
	interval, ok := intervals[timeframe]
	if !ok {
		return nil, fmt.Errorf("twelvedata: unsupported timeframe %q", timeframe)
	}
	query := url.Values{}
	query.Set("symbol", mapSymbol(symbol))
	query.Set("interval", interval)
	query.Set("start_date", start.UTC().Format(datetimeLayout))
	query.Set("end_date", end.UTC().Format(datetimeLayout))
	query.Set("timezone", "UTC")
	return c.fetch(ctx, query, timeframe)
}

func (c *Client) fetch(ctx context.Context, query url.Values, timeframe market.Timeframe) ([]market.Kline, error) {
	query.Set("apikey", c.apiKey)
	endpoint := c.baseURL + "/time_series?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("twelvedata: build request: %w", err)
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

	var payload timeSeriesResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &market.ValidationError{Provider: providerType, Field: "body", Reason: err.Error()}
	}
	// Twelve Data reports some failures with HTTP 200 and an error status.
	if payload.Status == "error" {
		return nil, market.ClassifyStatus(providerType, payload.Code, payload.Message)
	}
	if len(payload.Values) == 0 {
		return nil, &market.ValidationError{Provider: providerType, Field: "values", Reason: "empty series"}
	}

	klines := make([]market.Kline, 0, len(payload.Values))
	step := timeframe.Duration()
	for i, v := range payload.Values {
		ts, err := parseDatetime(v.Datetime)
		if err != nil {
			return nil, &market.ValidationError{
				Provider: providerType,
				Field:    fmt.Sprintf("values[%d].datetime", i),
				Reason:   err.Error(),
			}
		}
		klines = append(klines, market.Kline{
			OpenTime:  ts.UnixMilli(),
			Open:      v.Open,
			High:      v.High,
			Low:       v.Low,
			Close:     v.Close,
			Volume:    v.Volume,
			CloseTime: ts.Add(step).UnixMilli() - 1,
		})
	}
	// Values arrive newest-first; callers expect ascending open time.
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
