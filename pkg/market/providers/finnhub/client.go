package finnhub

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"signalforge/pkg/market"
)

const (
	providerType       = "finnhub"
	defaultBaseURL     = "https://finnhub.io/api/v1"
	defaultHTTPTimeout = 10 * time.Second
)

// resolutions maps normalized timeframes onto Finnhub resolution strings.
// Finnhub has no 4h resolution.
var resolutions = map[market.Timeframe]string{
	market.Timeframe1m:  "1",
	market.Timeframe5m:  "5",
	market.Timeframe15m: "15",
	market.Timeframe30m: "30",
	market.Timeframe1h:  "60",
	market.Timeframe1d:  "D",
}

// Client wraps the Finnhub forex candle endpoint.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	nowFn      func() time.Time
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

// WithClock injects a clock for latest-N window computation in tests.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.nowFn = now
		}
	}
}

// NewClient constructs a Finnhub client. The token is mandatory.
func NewClient(token string, opts ...Option) *Client {
	client := &Client{
		baseURL:    defaultBaseURL,
		token:      token,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
		nowFn:      time.Now,
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// mapSymbol converts "USDCHF" into the provider's "OANDA:USD_CHF" form.
func mapSymbol(symbol string) string {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	if strings.Contains(s, ":") {
		return s
	}
	if len(s) == 6 {
		return "OANDA:" + s[:3] + "_" + s[3:]
	}
	return s
}

// candleResponse carries parallel arrays indexed by timestamp.
type candleResponse struct {
	Status  string    `json:"s"`
	Times   []int64   `json:"t"`
	Opens   []float64 `json:"o"`
	Highs   []float64 `json:"h"`
	Lows    []float64 `json:"l"`
	Closes  []float64 `json:"c"`
	Volumes []float64 `json:"v"`
}

// GetCandles fetches the latest limit candles by sizing a window backwards
// from now; the endpoint is range-only.
func (c *Client) GetCandles(ctx context.Context, symbol string, timeframe market.Timeframe, limit int) ([]market.Kline, error) {
	step := timeframe.Duration()
	if step <= 0 {
		return nil, fmt.Errorf("finnhub: unsupported timeframe %q", timeframe)
	}
	end := c.nowFn().UTC()
	// Over-fetch to survive market-closed gaps, then trim.
	start := end.Add(-step * time.Duration(limit*2+10))
	klines, err := c.GetCandlesRange(ctx, symbol, timeframe, start, end)
	if err != nil {
		return nil, err
	}
	if len(klines) > limit {
		klines = klines[len(klines)-limit:]
	}
	return klines, nil
}

// GetCandlesRange fetches candles between start and end inclusive.
func (c *Client) GetCandlesRange(ctx context.Context, symbol string, timeframe market.Timeframe, start, end time.Time) ([]market.Kline, error) {
	resolution, ok := resolutions[timeframe]
	if !ok {
		return nil, fmt.Errorf("finnhub: unsupported timeframe %q", timeframe)
	}
	query := url.Values{}
	query.Set("symbol", mapSymbol(symbol))
	query.Set("resolution", resolution)
	query.Set("from", strconv.FormatInt(start.Unix(), 10))
	query.Set("to", strconv.FormatInt(end.Unix(), 10))
	query.Set("token", c.token)

	endpoint := c.baseURL + "/forex/candle?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("finnhub: build request: %w", err)
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

	var payload candleResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &market.ValidationError{Provider: providerType, Field: "body", Reason: err.Error()}
	}
	if payload.Status == "no_data" {
		return nil, &market.ValidationError{Provider: providerType, Field: "s", Reason: "no data for range"}
	}
	if payload.Status != "ok" {
		return nil, &market.ValidationError{Provider: providerType, Field: "s", Reason: "unexpected status " + payload.Status}
	}

	n := len(payload.Times)
	if len(payload.Opens) != n || len(payload.Highs) != n || len(payload.Lows) != n || len(payload.Closes) != n {
		return nil, &market.ValidationError{Provider: providerType, Field: "arrays", Reason: "parallel array lengths differ"}
	}

	step := timeframe.Duration()
	klines := make([]market.Kline, 0, n)
	for i := 0; i < n; i++ {
		var volume string
		if i < len(payload.Volumes) {
			volume = formatFloat(payload.Volumes[i])
		}
		openTime := time.Unix(payload.Times[i], 0).UTC()
		klines = append(klines, market.Kline{
			OpenTime:  openTime.UnixMilli(),
			Open:      formatFloat(payload.Opens[i]),
			High:      formatFloat(payload.Highs[i]),
			Low:       formatFloat(payload.Lows[i]),
			Close:     formatFloat(payload.Closes[i]),
			Volume:    volume,
			CloseTime: openTime.Add(step).UnixMilli() - 1,
		})
	}
	return klines, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
