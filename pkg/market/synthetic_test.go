package market

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyntheticSeriesDeterministic(t *testing.T) {
	now := time.Date(2026, 2, 10, 14, 37, 21, 0, time.UTC)

	a := SyntheticSeries("BTCUSDT", Timeframe1h, 50, now)
	b := SyntheticSeries("BTCUSDT", Timeframe1h, 50, now)
	require.Len(t, a, 50)
	assert.Equal(t, a, b, "same inputs must yield identical bars")

	// Calls within the same bucket align to the same boundary.
	c := SyntheticSeries("BTCUSDT", Timeframe1h, 50, now.Add(10*time.Minute))
	assert.Equal(t, a, c)

	// Different symbols diverge.
	d := SyntheticSeries("ETHUSDT", Timeframe1h, 50, now)
	assert.NotEqual(t, a[0].Close, d[0].Close)
}

func TestSyntheticSeriesValid(t *testing.T) {
	now := time.Date(2026, 2, 10, 14, 0, 0, 0, time.UTC)
	klines := SyntheticSeries("EURUSD", Timeframe15m, 100, now)
	require.Len(t, klines, 100)
	require.NoError(t, ValidateSeries("synthetic", klines))
}

func TestSyntheticSeriesSeedsFromBasePrice(t *testing.T) {
	now := time.Date(2026, 2, 10, 14, 0, 0, 0, time.UTC)
	klines := SyntheticSeries("BTCUSDT", Timeframe1d, 1, now)
	require.Len(t, klines, 1)
	n, err := klines[0].Normalize()
	require.NoError(t, err)
	// First bar opens at the directory base price.
	assert.InDelta(t, 65000, n.Open, 1)
}

func TestSyntheticSeriesEmpty(t *testing.T) {
	assert.Nil(t, SyntheticSeries("BTCUSDT", Timeframe1h, 0, time.Now()))
}
