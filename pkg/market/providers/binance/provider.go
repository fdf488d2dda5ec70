package binance

import (
	"context"
	"net/http"
	"time"

	"signalforge/pkg/cache"
	"signalforge/pkg/market"
)

const providerType = "binance"

// Provider implements market.Provider and market.LiveStreamer for the spot
// exchange. REST fetches run through the shared cache/limiter/retry pipeline;
// live subscriptions are managed per (symbol, timeframe) socket.
type Provider struct {
	name    string
	client  *Client
	fetcher *market.Fetcher
	streams *Streams
}

func init() {
	market.RegisterProvider(providerType, func(name string, cfg *market.ProviderConfig) (market.Provider, error) {
		options := []Option{}
		if cfg.BaseURL != "" {
			options = append(options, WithBaseURL(cfg.BaseURL))
		}
		if cfg.APIKey != "" {
			options = append(options, WithAPIKey(cfg.APIKey))
		}
		if cfg.HTTPTimeout > 0 {
			options = append(options, WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}))
		}
		return &Provider{
			name:    name,
			client:  NewClient(options...),
			fetcher: market.NewFetcher(name, cfg),
			streams: NewStreams(cfg.StreamURL),
		}, nil
	})
}

// Name implements market.Provider.
func (p *Provider) Name() string { return p.name }

// FetchCandles implements market.Provider.
func (p *Provider) FetchCandles(ctx context.Context, symbol string, timeframe market.Timeframe, limit int) ([]market.Kline, error) {
	key := cache.CandlesKey(p.name, symbol, string(timeframe), limit)
	return p.fetcher.Do(ctx, key, timeframe, false, func(ctx context.Context) ([]market.Kline, error) {
		return p.client.GetKlines(ctx, symbol, timeframe, limit)
	})
}

// FetchCandlesRange implements market.Provider.
func (p *Provider) FetchCandlesRange(ctx context.Context, symbol string, timeframe market.Timeframe, start, end time.Time) ([]market.Kline, error) {
	key := cache.CandlesRangeKey(p.name, symbol, string(timeframe), start.UnixMilli(), end.UnixMilli())
	return p.fetcher.Do(ctx, key, timeframe, true, func(ctx context.Context) ([]market.Kline, error) {
		return p.client.GetKlinesRange(ctx, symbol, timeframe, start, end)
	})
}

// Subscribe implements market.LiveStreamer.
func (p *Provider) Subscribe(symbol string, timeframe market.Timeframe) (<-chan market.CandleUpdate, func(), error) {
	return p.streams.Subscribe(symbol, timeframe)
}

// Close implements market.LiveStreamer.
func (p *Provider) Close() { p.streams.Close() }
