package twelvedata

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signalforge/pkg/market"
)

const seriesBody = `{
	"meta": {"symbol": "XAU/USD", "interval": "1h"},
	"values": [
		{"datetime": "2026-03-02 11:00:00", "open": "2351.0", "high": "2356.0", "low": "2350.0", "close": "2355.5", "volume": "820"},
		{"datetime": "2026-03-02 10:00:00", "open": "2350.0", "high": "2352.0", "low": "2348.5", "close": "2351.0", "volume": "910"}
	],
	"status": "ok"
}`

func TestGetTimeSeries(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/time_series", r.URL.Path)
		gotQuery = r.URL.RawQuery
		fmt.Fprint(w, seriesBody)
	}))
	defer server.Close()

	client := NewClient("test-key", WithBaseURL(server.URL))
	klines, err := client.GetTimeSeries(context.Background(), "XAUUSD", market.Timeframe1h, 2)
	require.NoError(t, err)
	require.Len(t, klines, 2)

	assert.Contains(t, gotQuery, "symbol=XAU%2FUSD")
	assert.Contains(t, gotQuery, "interval=1h")
	assert.Contains(t, gotQuery, "apikey=test-key")

	// Newest-first input comes back in ascending order.
	assert.Less(t, klines[0].OpenTime, klines[1].OpenTime)
	assert.Equal(t, "2351.0", klines[0].Close)
	assert.Equal(t, "2355.5", klines[1].Close)
	assert.Equal(t, klines[0].OpenTime+time.Hour.Milliseconds()-1, klines[0].CloseTime)
	require.NoError(t, market.ValidateSeries("twelvedata", klines))
}

func TestGetTimeSeriesRange(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		fmt.Fprint(w, seriesBody)
	}))
	defer server.Close()

	start := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	client := NewClient("test-key", WithBaseURL(server.URL))
	_, err := client.GetTimeSeriesRange(context.Background(), "XAUUSD", market.Timeframe1h, start, end)
	require.NoError(t, err)
	assert.Contains(t, gotQuery, "start_date=2026-03-02+10%3A00%3A00")
	assert.Contains(t, gotQuery, "end_date=2026-03-02+12%3A00%3A00")
}

// The API reports some failures as HTTP 200 with an error envelope.
func TestGetTimeSeriesEmbeddedError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":"error","code":429,"message":"API credits exhausted"}`)
	}))
	defer server.Close()

	client := NewClient("test-key", WithBaseURL(server.URL))
	_, err := client.GetTimeSeries(context.Background(), "XAUUSD", market.Timeframe1h, 2)
	var rl *market.RateLimitError
	assert.True(t, errors.As(err, &rl))

	assert.True(t, market.Retryable(err))
}

func TestGetTimeSeriesEmptyValues(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":"ok","values":[]}`)
	}))
	defer server.Close()

	client := NewClient("test-key", WithBaseURL(server.URL))
	_, err := client.GetTimeSeries(context.Background(), "XAUUSD", market.Timeframe1h, 2)
	var ve *market.ValidationError
	assert.True(t, errors.As(err, &ve))
}

func TestGetTimeSeriesUnsupportedTimeframe(t *testing.T) {
	client := NewClient("test-key")
	_, err := client.GetTimeSeries(context.Background(), "XAUUSD", market.Timeframe("7h"), 2)
	assert.Error(t, err)
}

func TestMapSymbol(t *testing.T) {
	assert.Equal(t, "EUR/USD", mapSymbol("EURUSD"))
	assert.Equal(t, "EUR/USD", mapSymbol(" eurusd "))
	assert.Equal(t, "XAU/USD", mapSymbol("XAU/USD"))
	assert.Equal(t, "BTCUSDT", mapSymbol("BTCUSDT"), "non-six-letter symbols pass through")
}

func TestParseDatetimeDailyBars(t *testing.T) {
	ts, err := parseDatetime("2026-03-02")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), ts)

	_, err = parseDatetime("02/03/2026")
	assert.Error(t, err)
}
