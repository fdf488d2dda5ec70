package strategy

import (
	"signalforge/pkg/indicators"
	"signalforge/pkg/market"
)

// Daily is the longer-horizon strategy: EMA crossover with MACD confirmation
// for trend entries, RSI extremes with momentum turn for reversals.
type Daily struct {
	cfg Config
}

// NewDaily constructs the daily strategy.
func NewDaily(cfg Config) *Daily {
	return &Daily{cfg: cfg}
}

// Name implements Strategy.
func (d *Daily) Name() Type { return TypeDaily }

// Evaluate implements Strategy. A nil snapshot yields no signals.
func (d *Daily) Evaluate(snap *indicators.Snapshot) []Signal {
	if snap == nil {
		return nil
	}
	stats := statsFor(d.cfg.Stats, TypeDaily, snap.Asset, snap.Timeframe)
	offsets := ClassOffsets(market.ClassOf(snap.Asset))

	var signals []Signal

	emaFast, haveFast := snap.EMA[9]
	emaSlow, haveSlow := snap.EMA[21]
	if haveFast && haveSlow && snap.RSI != nil && snap.MACD != nil {
		switch {
		case emaFast > emaSlow && snap.MACD.Bullish && snap.RSI.Value > 50:
			signals = append(signals, build(TypeDaily, snap, SideBuy, "ema_trend", offsets, stats))
		case emaFast < emaSlow && snap.MACD.Bearish && snap.RSI.Value < 50:
			signals = append(signals, build(TypeDaily, snap, SideSell, "ema_trend", offsets, stats))
		}
	}

	// Reversal entries need the RSI at an extreme and the histogram already
	// turning back the other way.
	if snap.RSI != nil && snap.MACD != nil {
		switch {
		case snap.RSI.Oversold && snap.MACD.Histogram > 0:
			signals = append(signals, build(TypeDaily, snap, SideBuy, "rsi_reversal", offsets, stats))
		case snap.RSI.Overbought && snap.MACD.Histogram < 0:
			signals = append(signals, build(TypeDaily, snap, SideSell, "rsi_reversal", offsets, stats))
		}
	}

	return capSignals(signals, d.cfg.maxSignals())
}
