package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signalforge/pkg/indicators"
	"signalforge/pkg/market"
)

func TestClassOffsetsKeepRewardRisk(t *testing.T) {
	for _, class := range []market.AssetClass{market.AssetCrypto, market.AssetForex, market.AssetCommodity} {
		off := ClassOffsets(class)
		assert.InDelta(t, 2.0, off.TakeProfitPct/off.StopLossPct, 1e-9, string(class))
	}
	// Forex is tighter than crypto.
	assert.Less(t, ClassOffsets(market.AssetForex).TakeProfitPct, ClassOffsets(market.AssetCrypto).TakeProfitPct)
}

func TestLevels(t *testing.T) {
	off := Offsets{TakeProfitPct: 3.0, StopLossPct: 1.5}

	tp, sl := Levels(SideBuy, 100, off)
	assert.InDelta(t, 103, tp, 1e-9)
	assert.InDelta(t, 98.5, sl, 1e-9)

	tp, sl = Levels(SideSell, 100, off)
	assert.InDelta(t, 97, tp, 1e-9)
	assert.InDelta(t, 101.5, sl, 1e-9)
}

func TestPipLevels(t *testing.T) {
	tp, sl := PipLevels(SideBuy, 1.0850, 0.0001, 40, 20)
	assert.InDelta(t, 1.0890, tp, 1e-9)
	assert.InDelta(t, 1.0830, sl, 1e-9)

	tp, sl = PipLevels(SideSell, 1.0850, 0.0001, 40, 20)
	assert.InDelta(t, 1.0810, tp, 1e-9)
	assert.InDelta(t, 1.0870, sl, 1e-9)
}

func TestBuildUsesPipOffsetsForForex(t *testing.T) {
	snap := &indicators.Snapshot{Asset: "EURUSD", Timeframe: market.Timeframe1h, LastPrice: 1.0850}
	sig := build(TypeDaily, snap, SideBuy, "ema_trend", ClassOffsets(market.AssetForex), nil)
	assert.InDelta(t, 1.0850+0.0001*60, sig.TakeProfit, 1e-9)
	assert.InDelta(t, 1.0850-0.0001*30, sig.StopLoss, 1e-9)

	// Scalping halves the pip distances along with the percentages.
	sig = build(TypeScalping, snap, SideSell, "fast_momentum", ClassOffsets(market.AssetForex).Scaled(scalpOffsetFactor), nil)
	assert.InDelta(t, 1.0850-0.0001*30, sig.TakeProfit, 1e-9)
	assert.InDelta(t, 1.0850+0.0001*15, sig.StopLoss, 1e-9)

	// JPY pairs carry a coarser pip size.
	jpy := &indicators.Snapshot{Asset: "USDJPY", Timeframe: market.Timeframe1h, LastPrice: 149.50}
	sig = build(TypeDaily, jpy, SideBuy, "ema_trend", ClassOffsets(market.AssetForex), nil)
	assert.InDelta(t, 149.50+0.01*60, sig.TakeProfit, 1e-9)

	// Crypto has no pip distances and keeps percentage levels.
	crypto := &indicators.Snapshot{Asset: "BTCUSDT", Timeframe: market.Timeframe1h, LastPrice: 65000}
	sig = build(TypeDaily, crypto, SideBuy, "ema_trend", ClassOffsets(market.AssetCrypto), nil)
	assert.InDelta(t, 65000*1.03, sig.TakeProfit, 1e-6)
}

func TestTargetsLadder(t *testing.T) {
	targets := Targets(100, 106)
	require.Len(t, targets, 3)
	assert.InDelta(t, 103, targets[0], 1e-9)
	assert.InDelta(t, 106, targets[1], 1e-9)
	assert.InDelta(t, 109, targets[2], 1e-9)

	// Sell direction: take-profit below entry, ladder descends.
	targets = Targets(100, 94)
	assert.InDelta(t, 97, targets[0], 1e-9)
	assert.InDelta(t, 91, targets[2], 1e-9)
}

func TestConfidenceBounds(t *testing.T) {
	assert.InDelta(t, 100, Confidence(1.0, &Stats{WinRate: 1, TotalTrades: 50}, 4), 1e-9)
	assert.InDelta(t, 0, Confidence(0, nil, 0), 1e-9)

	mid := Confidence(0.5, nil, 1)
	assert.Greater(t, mid, 0.0)
	assert.Less(t, mid, 100.0)
}

func TestConfidenceBlendsWinRate(t *testing.T) {
	without := Confidence(0.6, nil, 1)
	strong := Confidence(0.6, &Stats{WinRate: 0.9, TotalTrades: 40}, 1)
	weak := Confidence(0.6, &Stats{WinRate: 0.1, TotalTrades: 40}, 1)
	assert.Greater(t, strong, weak)

	// Zero-trade stats are ignored rather than dragging the score down.
	assert.InDelta(t, without, Confidence(0.6, &Stats{}, 1), 1e-9)
}

func TestConfluence(t *testing.T) {
	snap := &indicators.Snapshot{
		LastPrice: 105,
		RSI:       &indicators.RSIValue{Value: 62},
		MACD:      &indicators.MACDValue{Bullish: true},
		SMA:       map[int]float64{20: 100},
		Bollinger: &indicators.BollingerValue{PercentB: 0.8},
		Volume:    &indicators.VolumeValue{Ratio: 1.4},
	}
	assert.InDelta(t, 1.0, Confluence(snap, SideBuy), 1e-9)
	// Volume agreement is direction-neutral; everything else flips.
	assert.InDelta(t, 0.2, Confluence(snap, SideSell), 1e-9)

	// Missing indicators leave the denominator, not count against it.
	partial := &indicators.Snapshot{
		LastPrice: 105,
		RSI:       &indicators.RSIValue{Value: 62},
	}
	assert.InDelta(t, 1.0, Confluence(partial, SideBuy), 1e-9)
	assert.InDelta(t, 0, Confluence(&indicators.Snapshot{}, SideBuy), 1e-9)
}
