package market

import (
	"context"
	"time"
)

// Provider fetches normalized OHLCV series from one external data source.
// Implementations own their cache, rate limiter and retry policy.
type Provider interface {
	// Name returns the provider identifier used in routing and cache keys.
	Name() string
	// FetchCandles returns the latest limit candles, ascending by open time.
	FetchCandles(ctx context.Context, symbol string, timeframe Timeframe, limit int) ([]Kline, error)
	// FetchCandlesRange returns candles between start and end inclusive,
	// ascending by open time. Fully historical ranges cache longer than
	// latest-N requests because past data never changes.
	FetchCandlesRange(ctx context.Context, symbol string, timeframe Timeframe, start, end time.Time) ([]Kline, error)
}

// LiveStreamer is implemented by providers that additionally push live candle
// updates over a persistent socket. Reconnection is an internal retry loop;
// subscribers only observe updates and channel closure.
type LiveStreamer interface {
	// Subscribe opens (or reuses) the stream for (symbol, timeframe) and
	// returns an update channel plus a cancel function. Duplicate subscribe
	// calls for the same key reuse the existing stream.
	Subscribe(symbol string, timeframe Timeframe) (<-chan CandleUpdate, func(), error)
	// Close tears down every stream and suppresses further reconnects.
	Close()
}
