package market

import (
	"context"
	"io"
	"net/http"

	"signalforge/pkg/cache"
)

// Fetcher bundles the per-provider fetch pipeline: cache lookup, sliding
// rate-limit wait, the HTTP call with retry, series validation, and TTL-class
// caching of the transformed result. Provider clients embed one Fetcher each;
// nothing is shared across providers.
type Fetcher struct {
	provider string
	cache    *cache.Cache
	limiter  *SlidingLimiter
	retry    *RetryHandler
	ttl      cache.TTLSet
}

// NewFetcher wires the pipeline from provider configuration.
func NewFetcher(provider string, cfg *ProviderConfig) *Fetcher {
	var limiter *SlidingLimiter
	if cfg.RateLimit.MaxRequests > 0 && cfg.RateLimit.WindowMinutes > 0 {
		limiter = NewSlidingLimiter(cfg.RateLimit.MaxRequests, cfg.RateLimit.Window())
	}
	return &Fetcher{
		provider: provider,
		cache:    cache.New(),
		limiter:  limiter,
		retry:    NewRetryHandler(cfg.Retry.RetryConfig()),
		ttl:      cache.NewTTLSet(cfg.CacheTTL.Short, cfg.CacheTTL.Medium, cfg.CacheTTL.Long, cfg.CacheTTL.Ranged),
	}
}

// Cache exposes the provider cache, mainly for invalidation in tests.
func (f *Fetcher) Cache() *cache.Cache { return f.cache }

// Do runs the full pipeline for one candle request. fetch performs the raw
// HTTP call and transform; it runs under the rate limiter and retry policy.
// Validation failures are terminal and never cached. ranged selects the
// historical TTL instead of the timeframe's volatility class.
func (f *Fetcher) Do(ctx context.Context, key string, timeframe Timeframe, ranged bool,
	fetch func(ctx context.Context) ([]Kline, error)) ([]Kline, error) {

	if cached, ok := f.cache.Get(key); ok {
		RecordCache(f.provider, "hit")
		return cached.([]Kline), nil
	}
	RecordCache(f.provider, "miss")

	var klines []Kline
	err := f.retry.Do(ctx, func() error {
		if f.limiter != nil {
			if err := f.limiter.Wait(ctx); err != nil {
				return err
			}
		}
		fetched, err := fetch(ctx)
		if err != nil {
			return err
		}
		if err := ValidateSeries(f.provider, fetched); err != nil {
			return err
		}
		klines = fetched
		return nil
	})
	if err != nil {
		RecordFetch(f.provider, "error")
		return nil, err
	}
	RecordFetch(f.provider, "ok")

	f.store(key, timeframe, ranged, klines)
	return klines, nil
}

func (f *Fetcher) store(key string, timeframe Timeframe, ranged bool, klines []Kline) {
	if ranged {
		f.cache.Set(key, klines, f.ttl.Ranged)
		return
	}
	switch class := cache.ClassForTimeframe(string(timeframe)); class {
	case cache.TTLMidnight:
		f.cache.SetUntilMidnightUTC(key, klines)
	default:
		f.cache.Set(key, klines, f.ttl.Duration(class))
	}
}

// ReadBody drains an HTTP response body, mapping status codes onto the typed
// error taxonomy. Shared by every REST provider client.
func ReadBody(provider string, resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Provider: provider, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, classifyStatus(provider, resp.StatusCode, string(body))
	}
	return body, nil
}
