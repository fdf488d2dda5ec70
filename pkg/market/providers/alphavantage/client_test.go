package alphavantage

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

const intradayBody = `{
	"Meta Data": {"1. Information": "FX Intraday (60min) Time Series"},
	"Time Series FX (60min)": {
		"2026-03-02 11:00:00": {"1. open": "1.0850", "2. high": "1.0862", "3. low": "1.0845", "4. close": "1.0858"},
		"2026-03-02 10:00:00": {"1. open": "1.0840", "2. high": "1.0855", "3. low": "1.0838", "4. close": "1.0850"},
		"2026-03-02 09:00:00": {"1. open": "1.0830", "2. high": "1.0845", "3. low": "1.0828", "4. close": "1.0840"}
	}
}`

func TestGetSeries(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/query", r.URL.Path)
		gotQuery = r.URL.RawQuery
		fmt.Fprint(w, intradayBody)
	}))
	defer server.Close()

	client := NewClient("test-key", WithBaseURL(server.URL))
	klines, err := client.GetSeries(context.Background(), "EURUSD", market.Timeframe1h, 2)
	require.NoError(t, err)

	assert.Contains(t, gotQuery, "function=FX_INTRADAY")
	assert.Contains(t, gotQuery, "from_symbol=EUR")
	assert.Contains(t, gotQuery, "to_symbol=USD")
	assert.Contains(t, gotQuery, "interval=60min")

	// Keyed map input comes back ascending, trimmed to the newest limit bars.
	require.Len(t, klines, 2)
	assert.Less(t, klines[0].OpenTime, klines[1].OpenTime)
	assert.Equal(t, "1.0858", klines[1].Close)
}

func TestGetSeriesDailyFunction(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		fmt.Fprint(w, `{
			"Time Series FX (Daily)": {
				"2026-03-02": {"1. open": "1.0850", "2. high": "1.0862", "3. low": "1.0845", "4. close": "1.0858"}
			}
		}`)
	}))
	defer server.Close()

	client := NewClient("test-key", WithBaseURL(server.URL))
	klines, err := client.GetSeries(context.Background(), "EURUSD", market.Timeframe1d, 10)
	require.NoError(t, err)
	require.Len(t, klines, 1)
	assert.Contains(t, gotQuery, "function=FX_DAILY")
	assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC).UnixMilli(), klines[0].OpenTime)
}

func TestGetSeriesRangeFiltersLocally(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, intradayBody)
	}))
	defer server.Close()

	start := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 2, 11, 0, 0, 0, time.UTC)
	client := NewClient("test-key", WithBaseURL(server.URL))
	klines, err := client.GetSeriesRange(context.Background(), "EURUSD", market.Timeframe1h, start, end)
	require.NoError(t, err)
	require.Len(t, klines, 2, "the 09:00 bar falls outside the window")
	assert.Equal(t, start.UnixMilli(), klines[0].OpenTime)
}

// Throttling arrives as HTTP 200 with a "Note" field.
func TestGetSeriesThrottleNote(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"Note": "Thank you for using Alpha Vantage! Our standard API rate limit is 25 requests per day."}`)
	}))
	defer server.Close()

	client := NewClient("test-key", WithBaseURL(server.URL))
	_, err := client.GetSeries(context.Background(), "EURUSD", market.Timeframe1h, 10)
	var rl *market.RateLimitError
	assert.True(t, errors.As(err, &rl))
}

func TestGetSeriesErrorMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"Error Message": "Invalid API call."}`)
	}))
	defer server.Close()

	client := NewClient("test-key", WithBaseURL(server.URL))
	_, err := client.GetSeries(context.Background(), "EURUSD", market.Timeframe1h, 10)
	var ve *market.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Contains(t, ve.Reason, "Invalid API call")
}

func TestGetSeriesRejectsBadInput(t *testing.T) {
	client := NewClient("test-key")
	_, err := client.GetSeries(context.Background(), "GOLD", market.Timeframe1h, 10)
	assert.Error(t, err, "symbols that are not currency pairs are rejected")

	_, err = client.GetSeries(context.Background(), "EURUSD", market.Timeframe4h, 10)
	assert.Error(t, err, "no intraday interval maps to 4h")
}

func TestSplitPair(t *testing.T) {
	from, to, err := splitPair(" usdjpy ")
	require.NoError(t, err)
	assert.Equal(t, "USD", from)
	assert.Equal(t, "JPY", to)
}
