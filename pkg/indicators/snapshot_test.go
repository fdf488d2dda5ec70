package indicators

import (
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signalforge/pkg/market"
)

// bullishKlines builds a steadily rising series with valid OHLC structure.
func bullishKlines(n int) []market.Kline {
	klines := make([]market.Kline, 0, n)
	step := int64(3600_000)
	prev := 100.0
	for i := 0; i < n; i++ {
		close := 100 * math.Pow(1.003, float64(i))
		open := prev
		high := math.Max(open, close) * 1.002
		low := math.Min(open, close) * 0.998
		volume := 1000 + 5*float64(i)
		openTime := int64(1_700_000_000_000) + int64(i)*step
		klines = append(klines, market.Kline{
			OpenTime:  openTime,
			Open:      formatF(open),
			High:      formatF(high),
			Low:       formatF(low),
			Close:     formatF(close),
			Volume:    formatF(volume),
			CloseTime: openTime + step - 1,
		})
		prev = close
	}
	return klines
}

func formatF(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

func TestComputeBullishSeries(t *testing.T) {
	klines := bullishKlines(250)
	snap, err := Compute("BTCUSDT", market.Timeframe1h, klines, DefaultConfig())
	require.NoError(t, err)
	require.NotNil(t, snap)

	assert.Equal(t, "BTCUSDT", snap.Asset)
	assert.Equal(t, market.Timeframe1h, snap.Timeframe)
	assert.Equal(t, klines[len(klines)-1].OpenTime, snap.Timestamp)

	require.NotNil(t, snap.RSI)
	assert.Greater(t, snap.RSI.Value, 50.0)

	require.NotNil(t, snap.MACD)
	assert.True(t, snap.MACD.Bullish)
	assert.False(t, snap.MACD.Bearish)
	assert.InDelta(t, snap.MACD.MACD-snap.MACD.Signal, snap.MACD.Histogram, 1e-9)

	require.NotNil(t, snap.Bollinger)
	assert.Greater(t, snap.Bollinger.Upper, snap.Bollinger.Middle)
	assert.Less(t, snap.Bollinger.Lower, snap.Bollinger.Middle)

	require.NotNil(t, snap.ATR)
	assert.Greater(t, snap.ATR.Value, 0.0)

	require.NotNil(t, snap.Volume)
	assert.Greater(t, snap.Volume.Ratio, 0.0)

	// All default periods fit in 250 bars.
	for _, period := range []int{20, 50, 200} {
		_, ok := snap.SMA[period]
		assert.True(t, ok, "sma %d", period)
	}
	assert.Greater(t, snap.EMA[9], snap.EMA[21], "fast EMA leads in an uptrend")
}

func TestComputeInsufficientSeries(t *testing.T) {
	klines := bullishKlines(10)
	snap, err := Compute("BTCUSDT", market.Timeframe1h, klines, DefaultConfig())
	require.NoError(t, err)
	assert.Nil(t, snap, "short series yields nil, not an error")
}

func TestComputeOmitsOversizedPeriods(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SMAPeriods = []int{20, 500}
	cfg.EMAPeriods = []int{9, 500}
	snap, err := Compute("BTCUSDT", market.Timeframe1h, bullishKlines(250), cfg)
	require.NoError(t, err)
	require.NotNil(t, snap)

	_, ok := snap.SMA[500]
	assert.False(t, ok, "oversized period silently omitted")
	_, ok = snap.SMA[20]
	assert.True(t, ok)
	_, ok = snap.EMA[500]
	assert.False(t, ok)
}

func TestComputeUnparseableCandle(t *testing.T) {
	klines := bullishKlines(50)
	klines[10].Close = "not-a-number"
	_, err := Compute("BTCUSDT", market.Timeframe1h, klines, DefaultConfig())
	assert.Error(t, err)
}

func TestComputeAllSkipsShortTimeframes(t *testing.T) {
	series := map[market.Timeframe][]market.Kline{
		market.Timeframe1h: bullishKlines(250),
		market.Timeframe4h: bullishKlines(10),
	}
	snaps := ComputeAll("BTCUSDT", series, DefaultConfig())
	require.Len(t, snaps, 1)
	_, ok := snaps[market.Timeframe1h]
	assert.True(t, ok)
}

func TestMinBars(t *testing.T) {
	cfg := DefaultConfig()
	// MACD 26+9 dominates the defaults.
	assert.Equal(t, 35, cfg.MinBars())

	cfg.BollingerPeriod = 100
	assert.Equal(t, 100, cfg.MinBars())
}
