package strategy

import (
	"signalforge/pkg/indicators"
	"signalforge/pkg/market"
)

const defaultMaxSignals = 3

// Strategy evaluates one indicator snapshot and emits zero or more signals.
// Implementations are stateless between calls; backtest stats arrive through
// the configured StatsProvider.
type Strategy interface {
	Name() Type
	Evaluate(snap *indicators.Snapshot) []Signal
}

// Config is shared strategy configuration.
type Config struct {
	// MaxSignals caps the signals one Evaluate call may return. Rule
	// evaluation order is preserved; the cap truncates, it does not re-rank.
	MaxSignals int
	// Stats supplies historical win rates for confidence scoring. Nil is
	// fine; confidence then leans on confluence and volume alone.
	Stats StatsProvider
}

func (c Config) maxSignals() int {
	if c.MaxSignals > 0 {
		return c.MaxSignals
	}
	return defaultMaxSignals
}

// statsFor resolves backtest stats, or nil when no provider or no history.
func statsFor(p StatsProvider, strategyType Type, asset string, timeframe market.Timeframe) *Stats {
	if p == nil {
		return nil
	}
	stats, ok := p.Lookup(strategyType, asset, timeframe)
	if !ok {
		return nil
	}
	return &stats
}

// cap truncates a signal list to the configured maximum.
func capSignals(signals []Signal, max int) []Signal {
	if len(signals) > max {
		return signals[:max]
	}
	return signals
}
