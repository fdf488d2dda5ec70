package alphavantage

import (
	"context"
	"net/http"
	"time"

	"signalforge/pkg/cache"
	"signalforge/pkg/market"
)

// Provider implements market.Provider over the Alpha Vantage FX API.
type Provider struct {
	name    string
	client  *Client
	fetcher *market.Fetcher
}

func init() {
	market.RegisterProvider(providerType, func(name string, cfg *market.ProviderConfig) (market.Provider, error) {
		if cfg.APIKey == "" {
			return nil, market.ErrProviderDisabled
		}
		options := []Option{}
		if cfg.BaseURL != "" {
			options = append(options, WithBaseURL(cfg.BaseURL))
		}
		if cfg.HTTPTimeout > 0 {
			options = append(options, WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}))
		}
		return &Provider{
			name:    name,
			client:  NewClient(cfg.APIKey, options...),
			fetcher: market.NewFetcher(name, cfg),
		}, nil
	})
}

// Name implements market.Provider.
func (p *Provider) Name() string { return p.name }

// FetchCandles implements market.Provider.
func (p *Provider) FetchCandles(ctx context.Context, symbol string, timeframe market.Timeframe, limit int) ([]market.Kline, error) {
	key := cache.CandlesKey(p.name, symbol, string(timeframe), limit)
	return p.fetcher.Do(ctx, key, timeframe, false, func(ctx context.Context) ([]market.Kline, error) {
		return p.client.GetSeries(ctx, symbol, timeframe, limit)
	})
}

// FetchCandlesRange implements market.Provider.
func (p *Provider) FetchCandlesRange(ctx context.Context, symbol string, timeframe market.Timeframe, start, end time.Time) ([]market.Kline, error) {
	key := cache.CandlesRangeKey(p.name, symbol, string(timeframe), start.UnixMilli(), end.UnixMilli())
	return p.fetcher.Do(ctx, key, timeframe, true, func(ctx context.Context) ([]market.Kline, error) {
		return p.client.GetSeriesRange(ctx, symbol, timeframe, start, end)
	})
}
