package market

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signalforge/pkg/cache"
)

func testFetcher() *Fetcher {
	return NewFetcher("test", &ProviderConfig{
		Retry:    RetrySettings{MaxAttempts: 3, BaseDelay: time.Millisecond, Multiplier: 2},
		CacheTTL: CacheTTLSettings{Short: 60, Medium: 300, Long: 900, Ranged: 3600},
	})
}

func testSeries(n int) []Kline {
	return SyntheticSeries("BTCUSDT", Timeframe1h, n, time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC))
}

func TestFetcherCachesSuccess(t *testing.T) {
	f := testFetcher()
	want := testSeries(5)
	calls := 0
	fetch := func(ctx context.Context) ([]Kline, error) {
		calls++
		return want, nil
	}
	key := cache.CandlesKey("test", "BTCUSDT", "1h", 5)

	got, err := f.Do(context.Background(), key, Timeframe1h, false, fetch)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, 1, calls)

	// Second call is served from cache.
	got, err = f.Do(context.Background(), key, Timeframe1h, false, fetch)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, 1, calls)
}

func TestFetcherNeverCachesInvalidSeries(t *testing.T) {
	f := testFetcher()
	bad := testSeries(2)
	bad[1].High = "0.0001" // below open and close
	calls := 0
	fetch := func(ctx context.Context) ([]Kline, error) {
		calls++
		return bad, nil
	}
	key := cache.CandlesKey("test", "BTCUSDT", "1h", 2)

	_, err := f.Do(context.Background(), key, Timeframe1h, false, fetch)
	require.Error(t, err)
	var ve *ValidationError
	assert.ErrorAs(t, err, &ve)
	assert.Equal(t, 1, calls, "validation failures are not retried")
	assert.False(t, f.Cache().Has(key), "invalid data must not be cached")
}

func TestFetcherRetriesTransientThenSucceeds(t *testing.T) {
	f := testFetcher()
	want := testSeries(3)
	calls := 0
	fetch := func(ctx context.Context) ([]Kline, error) {
		calls++
		if calls < 3 {
			return nil, &TransportError{Provider: "test", Status: 503}
		}
		return want, nil
	}

	got, err := f.Do(context.Background(), cache.CandlesKey("test", "BTCUSDT", "1h", 3), Timeframe1h, false, fetch)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, 3, calls)
}

func TestFetcherRangedUsesLongTTL(t *testing.T) {
	f := testFetcher()
	want := testSeries(3)
	key := cache.CandlesRangeKey("test", "BTCUSDT", "1h", 0, 1)

	_, err := f.Do(context.Background(), key, Timeframe1h, true, func(ctx context.Context) ([]Kline, error) {
		return want, nil
	})
	require.NoError(t, err)
	assert.True(t, f.Cache().Has(key))
}
