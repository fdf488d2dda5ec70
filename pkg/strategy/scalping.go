package strategy

import (
	"signalforge/pkg/indicators"
	"signalforge/pkg/market"
)

// scalpOffsetFactor shrinks the class offsets for short-horizon targets while
// preserving the reward-to-risk ratio.
const scalpOffsetFactor = 0.5

// squeezeWidth is the Bollinger bandwidth below which the bands count as
// squeezed ahead of a breakout.
const squeezeWidth = 0.05

// Scalping is the short-horizon strategy: fast EMA/RSI momentum entries and
// Bollinger-squeeze breakouts.
type Scalping struct {
	cfg Config
}

// NewScalping constructs the scalping strategy.
func NewScalping(cfg Config) *Scalping {
	return &Scalping{cfg: cfg}
}

// Name implements Strategy.
func (s *Scalping) Name() Type { return TypeScalping }

// Evaluate implements Strategy. A nil snapshot yields no signals.
func (s *Scalping) Evaluate(snap *indicators.Snapshot) []Signal {
	if snap == nil {
		return nil
	}
	stats := statsFor(s.cfg.Stats, TypeScalping, snap.Asset, snap.Timeframe)
	offsets := ClassOffsets(market.ClassOf(snap.Asset)).Scaled(scalpOffsetFactor)

	var signals []Signal

	emaFast, haveFast := snap.EMA[9]
	emaSlow, haveSlow := snap.EMA[21]
	if haveFast && haveSlow && snap.RSI != nil && snap.Volume != nil {
		switch {
		case emaFast > emaSlow && snap.RSI.Value > 50 && !snap.RSI.Overbought && snap.Volume.Ratio >= 1:
			signals = append(signals, build(TypeScalping, snap, SideBuy, "fast_momentum", offsets, stats))
		case emaFast < emaSlow && snap.RSI.Value < 50 && !snap.RSI.Oversold && snap.Volume.Ratio >= 1:
			signals = append(signals, build(TypeScalping, snap, SideSell, "fast_momentum", offsets, stats))
		}
	}

	// A close outside squeezed bands is traded as a breakout in the close's
	// direction.
	if snap.Bollinger != nil && snap.Bollinger.Width < squeezeWidth {
		switch {
		case snap.Bollinger.PercentB > 1:
			signals = append(signals, build(TypeScalping, snap, SideBuy, "squeeze_breakout", offsets, stats))
		case snap.Bollinger.PercentB < 0:
			signals = append(signals, build(TypeScalping, snap, SideSell, "squeeze_breakout", offsets, stats))
		}
	}

	return capSignals(signals, s.cfg.maxSignals())
}
