package strategy

import (
	"math"

	"signalforge/pkg/indicators"
	"signalforge/pkg/market"
)

// Offsets are distances from entry to take-profit and stop-loss. The
// percentage fields always hold a usable fallback; the pip fields are set for
// classes quoted in pips and take precedence when the symbol carries a pip
// size.
type Offsets struct {
	TakeProfitPct float64
	StopLossPct   float64

	TakeProfitPips float64
	StopLossPips   float64
}

// ClassOffsets returns the default offsets per asset class, keeping a 2:1
// reward-to-risk ratio everywhere: crypto moves wide, forex tight.
func ClassOffsets(class market.AssetClass) Offsets {
	switch class {
	case market.AssetCrypto:
		return Offsets{TakeProfitPct: 3.0, StopLossPct: 1.5}
	case market.AssetCommodity:
		return Offsets{TakeProfitPct: 1.5, StopLossPct: 0.75}
	default:
		return Offsets{TakeProfitPct: 0.6, StopLossPct: 0.3, TakeProfitPips: 60, StopLossPips: 30}
	}
}

// Scaled returns the offsets shrunk by a factor, for shorter-horizon
// strategies that target smaller moves at the same reward-to-risk ratio.
func (o Offsets) Scaled(factor float64) Offsets {
	return Offsets{
		TakeProfitPct:  o.TakeProfitPct * factor,
		StopLossPct:    o.StopLossPct * factor,
		TakeProfitPips: o.TakeProfitPips * factor,
		StopLossPips:   o.StopLossPips * factor,
	}
}

// Levels computes take-profit and stop-loss prices from percentage offsets.
func Levels(side Side, entry float64, off Offsets) (takeProfit, stopLoss float64) {
	tp := entry * off.TakeProfitPct / 100
	sl := entry * off.StopLossPct / 100
	if side == SideSell {
		return entry - tp, entry + sl
	}
	return entry + tp, entry - sl
}

// PipLevels computes take-profit and stop-loss prices from pip distances, for
// forex symbols whose SymbolInfo carries a pip size.
func PipLevels(side Side, entry, pipSize, tpPips, slPips float64) (takeProfit, stopLoss float64) {
	tp := pipSize * tpPips
	sl := pipSize * slPips
	if side == SideSell {
		return entry - tp, entry + sl
	}
	return entry + tp, entry - sl
}

// Targets builds a three-step take-profit ladder between entry and the final
// take-profit level.
func Targets(entry, takeProfit float64) []float64 {
	distance := takeProfit - entry
	return []float64{
		entry + distance*0.5,
		entry + distance,
		entry + distance*1.5,
	}
}

// Confluence measures the fraction of available secondary indicators agreeing
// with the trade direction. Indicators missing from the snapshot are excluded
// from the denominator rather than counted against the signal.
func Confluence(snap *indicators.Snapshot, side Side) float64 {
	var agree, available float64
	bullish := side == SideBuy

	if snap.RSI != nil {
		available++
		if (bullish && snap.RSI.Value > 50) || (!bullish && snap.RSI.Value < 50) {
			agree++
		}
	}
	if snap.MACD != nil {
		available++
		if (bullish && snap.MACD.Bullish) || (!bullish && snap.MACD.Bearish) {
			agree++
		}
	}
	if sma, ok := snap.SMA[20]; ok {
		available++
		if (bullish && snap.LastPrice > sma) || (!bullish && snap.LastPrice < sma) {
			agree++
		}
	}
	if snap.Bollinger != nil {
		available++
		if (bullish && snap.Bollinger.PercentB > 0.5) || (!bullish && snap.Bollinger.PercentB < 0.5) {
			agree++
		}
	}
	if snap.Volume != nil {
		available++
		if snap.Volume.Ratio > 1 {
			agree++
		}
	}

	if available == 0 {
		return 0
	}
	return agree / available
}

// Confidence blends indicator confluence, the historical win rate when one
// exists, and volume confirmation into a [0, 100] score.
func Confidence(confluence float64, stats *Stats, volumeRatio float64) float64 {
	volumeScore := math.Min(volumeRatio/2, 1)
	var score float64
	if stats != nil && stats.TotalTrades > 0 {
		score = 0.5*confluence + 0.3*stats.WinRate + 0.2*volumeScore
	} else {
		score = 0.7*confluence + 0.3*volumeScore
	}
	return math.Max(0, math.Min(100, score*100))
}

// build assembles a Signal from a fired rule. Percentage offsets are the
// default; forex symbols with a known pip size use pip distances instead.
func build(strategyType Type, snap *indicators.Snapshot, side Side, rule string, off Offsets, stats *Stats) Signal {
	entry := snap.LastPrice
	takeProfit, stopLoss := Levels(side, entry, off)
	if info, ok := market.LookupSymbol(snap.Asset); ok && info.Class == market.AssetForex && info.PipSize > 0 && off.TakeProfitPips > 0 {
		takeProfit, stopLoss = PipLevels(side, entry, info.PipSize, off.TakeProfitPips, off.StopLossPips)
	}

	var volumeRatio float64
	if snap.Volume != nil {
		volumeRatio = snap.Volume.Ratio
	}
	confluence := Confluence(snap, side)

	meta := Metadata{
		Rule:        rule,
		Confidence:  Confidence(confluence, stats, volumeRatio),
		Confluence:  confluence,
		VolumeRatio: volumeRatio,
		Targets:     Targets(entry, takeProfit),
		Backtest:    stats,
	}
	if snap.RSI != nil {
		meta.RSI = snap.RSI.Value
	}
	if snap.MACD != nil {
		meta.MACDHist = snap.MACD.Histogram
	}

	return Signal{
		Asset:       snap.Asset,
		Timeframe:   snap.Timeframe,
		Strategy:    strategyType,
		Side:        side,
		EntryPrice:  entry,
		TakeProfit:  takeProfit,
		StopLoss:    stopLoss,
		Status:      StatusActive,
		GeneratedAt: snap.Timestamp,
		Metadata:    meta.encode(),
	}
}
