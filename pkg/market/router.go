package market

import (
	"context"
	"errors"
	"time"

	"github.com/zeromicro/go-zero/core/logx"
)

// Router maps a symbol to its owning provider and delegates fetch calls.
// When the owning provider is absent (disabled) or its retry path is
// exhausted, the router degrades to a deterministic synthetic series so
// downstream consumers keep working; the substitution is announced through
// logging only, never through the returned type.
type Router struct {
	providers map[string]Provider
	nowFn     func() time.Time
}

// NewRouter constructs a router over the configured providers.
func NewRouter(providers map[string]Provider) *Router {
	if providers == nil {
		providers = make(map[string]Provider)
	}
	return &Router{providers: providers, nowFn: time.Now}
}

// Provider resolves the owning provider for a symbol.
func (r *Router) Provider(symbol string) (Provider, error) {
	info, ok := LookupSymbol(symbol)
	if !ok {
		return nil, ErrSymbolNotFound
	}
	provider, ok := r.providers[info.Provider]
	if !ok {
		return nil, ErrProviderDisabled
	}
	return provider, nil
}

// Streamer returns the live streaming client for a symbol, if its owning
// provider supports one.
func (r *Router) Streamer(symbol string) (LiveStreamer, bool) {
	provider, err := r.Provider(symbol)
	if err != nil {
		return nil, false
	}
	streamer, ok := provider.(LiveStreamer)
	return streamer, ok
}

// FetchCandles delegates to the owning provider and falls back to synthetic
// data when the provider is unavailable or fails terminally.
func (r *Router) FetchCandles(ctx context.Context, symbol string, timeframe Timeframe, limit int) ([]Kline, error) {
	provider, err := r.Provider(symbol)
	if err != nil {
		if errors.Is(err, ErrSymbolNotFound) {
			return nil, err
		}
		logx.WithContext(ctx).Infof("router: %s has no active provider, serving synthetic series", symbol)
		RecordFetch("synthetic", "fallback")
		return SyntheticSeries(symbol, timeframe, limit, r.nowFn()), nil
	}

	klines, err := provider.FetchCandles(ctx, symbol, timeframe, limit)
	if err != nil {
		logx.WithContext(ctx).Errorf("router: %s fetch via %s failed, serving synthetic series: %v",
			symbol, provider.Name(), err)
		RecordFetch(provider.Name(), "fallback")
		return SyntheticSeries(symbol, timeframe, limit, r.nowFn()), nil
	}
	return klines, nil
}

// FetchCandlesRange delegates a historical range fetch. Range queries do not
// fall back to synthetic data; backtests must not train on fabricated bars.
func (r *Router) FetchCandlesRange(ctx context.Context, symbol string, timeframe Timeframe, start, end time.Time) ([]Kline, error) {
	provider, err := r.Provider(symbol)
	if err != nil {
		return nil, err
	}
	return provider.FetchCandlesRange(ctx, symbol, timeframe, start, end)
}

// Close shuts down every streaming-capable provider.
func (r *Router) Close() {
	for _, provider := range r.providers {
		if streamer, ok := provider.(LiveStreamer); ok {
			streamer.Close()
		}
	}
}
