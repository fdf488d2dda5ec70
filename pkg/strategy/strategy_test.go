package strategy

import (
	"encoding/json"
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signalforge/pkg/indicators"
	"signalforge/pkg/market"
)

// risingKlines builds a steadily appreciating series with valid OHLC structure.
func risingKlines(n int) []market.Kline {
	klines := make([]market.Kline, 0, n)
	step := int64(3600_000)
	prev := 100.0
	format := func(v float64) string { return strconv.FormatFloat(v, 'f', 6, 64) }
	for i := 0; i < n; i++ {
		close := 100 * math.Pow(1.003, float64(i))
		open := prev
		openTime := int64(1_700_000_000_000) + int64(i)*step
		klines = append(klines, market.Kline{
			OpenTime:  openTime,
			Open:      format(open),
			High:      format(math.Max(open, close) * 1.002),
			Low:       format(math.Min(open, close) * 0.998),
			Close:     format(close),
			Volume:    format(1000 + 5*float64(i)),
			CloseTime: openTime + step - 1,
		})
		prev = close
	}
	return klines
}

type fixedStats struct {
	stats Stats
}

func (f fixedStats) Lookup(Type, string, market.Timeframe) (Stats, bool) {
	return f.stats, true
}

func TestDailyBuyOnUptrend(t *testing.T) {
	snap, err := indicators.Compute("BTCUSDT", market.Timeframe1d, risingKlines(250), indicators.DefaultConfig())
	require.NoError(t, err)
	require.NotNil(t, snap)

	signals := NewDaily(Config{}).Evaluate(snap)
	require.Len(t, signals, 1)

	sig := signals[0]
	assert.Equal(t, TypeDaily, sig.Strategy)
	assert.Equal(t, SideBuy, sig.Side)
	assert.Equal(t, "BTCUSDT", sig.Asset)
	assert.Equal(t, market.Timeframe1d, sig.Timeframe)
	assert.Equal(t, StatusActive, sig.Status)
	assert.Equal(t, snap.Timestamp, sig.GeneratedAt)

	// Crypto offsets keep a 2:1 reward-to-risk ratio around the entry.
	assert.Greater(t, sig.TakeProfit, sig.EntryPrice)
	assert.Less(t, sig.StopLoss, sig.EntryPrice)
	reward := sig.TakeProfit - sig.EntryPrice
	risk := sig.EntryPrice - sig.StopLoss
	assert.InDelta(t, 2.0, reward/risk, 1e-9)
	assert.InDelta(t, sig.EntryPrice*1.03, sig.TakeProfit, 1e-6)

	var meta Metadata
	require.NoError(t, json.Unmarshal([]byte(sig.Metadata), &meta))
	assert.Equal(t, "ema_trend", meta.Rule)
	assert.Greater(t, meta.Confidence, 0.0)
	require.Len(t, meta.Targets, 3)
	assert.InDelta(t, sig.TakeProfit, meta.Targets[1], 1e-9)
}

func TestDailyNilSnapshot(t *testing.T) {
	assert.Empty(t, NewDaily(Config{}).Evaluate(nil))
	assert.Empty(t, NewScalping(Config{}).Evaluate(nil))
}

func TestDailyRSIReversal(t *testing.T) {
	snap := &indicators.Snapshot{
		Asset:     "XAUUSD",
		Timeframe: market.Timeframe4h,
		LastPrice: 2400,
		RSI:       &indicators.RSIValue{Value: 24, Oversold: true},
		MACD:      &indicators.MACDValue{Histogram: 0.4},
	}
	signals := NewDaily(Config{}).Evaluate(snap)
	require.Len(t, signals, 1)
	assert.Equal(t, SideBuy, signals[0].Side)

	var meta Metadata
	require.NoError(t, json.Unmarshal([]byte(signals[0].Metadata), &meta))
	assert.Equal(t, "rsi_reversal", meta.Rule)

	// Commodity offsets, not crypto.
	assert.InDelta(t, 2400*1.015, signals[0].TakeProfit, 1e-6)
}

func TestScalpingFastMomentum(t *testing.T) {
	snap := &indicators.Snapshot{
		Asset:     "BTCUSDT",
		Timeframe: market.Timeframe5m,
		LastPrice: 65000,
		RSI:       &indicators.RSIValue{Value: 61},
		Volume:    &indicators.VolumeValue{Ratio: 1.3},
		EMA:       map[int]float64{9: 65100, 21: 64800},
	}
	signals := NewScalping(Config{}).Evaluate(snap)
	require.Len(t, signals, 1)

	sig := signals[0]
	assert.Equal(t, TypeScalping, sig.Strategy)
	assert.Equal(t, SideBuy, sig.Side)

	// Scalping halves the class offsets: 3% becomes 1.5% for crypto.
	assert.InDelta(t, 65000*1.015, sig.TakeProfit, 1e-6)
	assert.InDelta(t, 65000*0.9925, sig.StopLoss, 1e-6)
}

func TestScalpingSkipsOverboughtMomentum(t *testing.T) {
	snap := &indicators.Snapshot{
		Asset:     "BTCUSDT",
		Timeframe: market.Timeframe5m,
		LastPrice: 65000,
		RSI:       &indicators.RSIValue{Value: 78, Overbought: true},
		Volume:    &indicators.VolumeValue{Ratio: 1.3},
		EMA:       map[int]float64{9: 65100, 21: 64800},
	}
	assert.Empty(t, NewScalping(Config{}).Evaluate(snap))
}

func TestScalpingSqueezeBreakout(t *testing.T) {
	base := indicators.Snapshot{
		Asset:     "EURUSD",
		Timeframe: market.Timeframe15m,
		LastPrice: 1.0850,
	}

	up := base
	up.Bollinger = &indicators.BollingerValue{Width: 0.03, PercentB: 1.2}
	signals := NewScalping(Config{}).Evaluate(&up)
	require.Len(t, signals, 1)
	assert.Equal(t, SideBuy, signals[0].Side)

	down := base
	down.Bollinger = &indicators.BollingerValue{Width: 0.03, PercentB: -0.2}
	signals = NewScalping(Config{}).Evaluate(&down)
	require.Len(t, signals, 1)
	assert.Equal(t, SideSell, signals[0].Side)

	// Wide bands are no squeeze regardless of the close position.
	wide := base
	wide.Bollinger = &indicators.BollingerValue{Width: 0.30, PercentB: 1.2}
	assert.Empty(t, NewScalping(Config{}).Evaluate(&wide))
}

func TestMaxSignalsCapPreservesOrder(t *testing.T) {
	// Both scalping rules fire; the cap keeps the first.
	snap := &indicators.Snapshot{
		Asset:     "BTCUSDT",
		Timeframe: market.Timeframe5m,
		LastPrice: 65000,
		RSI:       &indicators.RSIValue{Value: 61},
		Volume:    &indicators.VolumeValue{Ratio: 1.3},
		EMA:       map[int]float64{9: 65100, 21: 64800},
		Bollinger: &indicators.BollingerValue{Width: 0.03, PercentB: 1.2},
	}
	all := NewScalping(Config{}).Evaluate(snap)
	require.Len(t, all, 2)

	capped := NewScalping(Config{MaxSignals: 1}).Evaluate(snap)
	require.Len(t, capped, 1)

	var meta Metadata
	require.NoError(t, json.Unmarshal([]byte(capped[0].Metadata), &meta))
	assert.Equal(t, "fast_momentum", meta.Rule)
}

func TestStatsFlowIntoMetadata(t *testing.T) {
	snap := &indicators.Snapshot{
		Asset:     "BTCUSDT",
		Timeframe: market.Timeframe5m,
		LastPrice: 65000,
		RSI:       &indicators.RSIValue{Value: 61},
		Volume:    &indicators.VolumeValue{Ratio: 1.3},
		EMA:       map[int]float64{9: 65100, 21: 64800},
	}
	provider := fixedStats{stats: Stats{WinRate: 0.95, TotalTrades: 30, Expectancy: 0.4}}

	signals := NewScalping(Config{Stats: provider}).Evaluate(snap)
	require.Len(t, signals, 1)

	var meta Metadata
	require.NoError(t, json.Unmarshal([]byte(signals[0].Metadata), &meta))
	require.NotNil(t, meta.Backtest)
	assert.InDelta(t, 0.95, meta.Backtest.WinRate, 1e-9)
	assert.Equal(t, 30, meta.Backtest.TotalTrades)

	// A strong win rate lifts confidence over the no-history baseline.
	baseline := NewScalping(Config{}).Evaluate(snap)
	var baseMeta Metadata
	require.NoError(t, json.Unmarshal([]byte(baseline[0].Metadata), &baseMeta))
	assert.Greater(t, meta.Confidence, baseMeta.Confidence)
}
