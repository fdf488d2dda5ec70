package backtest

import (
	"context"
	"fmt"
	"math"

	"signalforge/pkg/indicators"
	"signalforge/pkg/market"
	"signalforge/pkg/strategy"
)

const (
	defaultWindowSize    = 200
	defaultStep          = 5
	defaultLookAhead     = 50
	defaultInitialEquity = 10000
)

// Config tunes a walk-forward run.
type Config struct {
	// WindowSize is the number of bars visible to the strategy at each step.
	WindowSize int
	// Step advances the window this many bars between evaluations.
	Step int
	// LookAhead caps how many bars past the window the simulation may scan
	// for a take-profit or stop-loss touch.
	LookAhead int
	// InitialEquity seeds the multiplicative equity curve.
	InitialEquity float64
	// Indicators configures the snapshot computed for each window.
	Indicators indicators.Config
}

func (c Config) withDefaults() Config {
	if c.WindowSize <= 0 {
		c.WindowSize = defaultWindowSize
	}
	if c.Step <= 0 {
		c.Step = defaultStep
	}
	if c.LookAhead <= 0 {
		c.LookAhead = defaultLookAhead
	}
	if c.InitialEquity <= 0 {
		c.InitialEquity = defaultInitialEquity
	}
	if c.Indicators.MinBars() <= 1 {
		c.Indicators = indicators.DefaultConfig()
	}
	return c
}

// Engine replays historical candles through a strategy window by window.
type Engine struct {
	cfg Config
}

// NewEngine constructs an engine, filling unset config fields with defaults.
func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg.withDefaults()}
}

// trade is one simulated signal outcome. PnL is a signed percentage.
type trade struct {
	pnl float64
	won bool
}

// Run walks the series with a sliding window, re-evaluating the strategy at
// each step as if the window's last bar were "now", then simulates forward
// bars to resolve each emitted signal. The run is deterministic for a given
// series and configuration.
func (e *Engine) Run(ctx context.Context, strat strategy.Strategy, asset string, timeframe market.Timeframe, klines []market.Kline) (Metrics, error) {
	metrics := Metrics{
		Strategy:    strat.Name(),
		Asset:       asset,
		Timeframe:   timeframe,
		FinalEquity: e.cfg.InitialEquity,
	}
	if len(klines) < e.cfg.WindowSize+1 {
		return metrics, fmt.Errorf("backtest: %s %s: need at least %d bars, have %d",
			asset, timeframe, e.cfg.WindowSize+1, len(klines))
	}
	bars, err := market.Normalize(klines)
	if err != nil {
		return metrics, err
	}

	var trades []trade
	equity := e.cfg.InitialEquity
	curve := []float64{equity}

	for start := 0; start+e.cfg.WindowSize < len(klines); start += e.cfg.Step {
		if err := ctx.Err(); err != nil {
			return metrics, err
		}
		end := start + e.cfg.WindowSize
		snap, err := indicators.Compute(asset, timeframe, klines[start:end], e.cfg.Indicators)
		if err != nil {
			return metrics, err
		}
		if snap == nil {
			continue
		}
		for _, sig := range strat.Evaluate(snap) {
			t := simulate(sig, bars[end:], e.cfg.LookAhead)
			trades = append(trades, t)
			equity *= 1 + t.pnl/100
			curve = append(curve, equity)
		}
	}

	fill(&metrics, trades, curve, equity)
	return metrics, nil
}

// simulate scans forward bars for the first take-profit or stop-loss touch.
// When one bar spans both levels the stop-loss wins the tie, keeping the
// estimate conservative. A signal that touches neither inside the look-ahead
// cap is closed at the last scanned bar's close.
func simulate(sig strategy.Signal, future []market.Normalized, lookAhead int) trade {
	if len(future) > lookAhead {
		future = future[:lookAhead]
	}
	entry := sig.EntryPrice
	long := sig.Side == strategy.SideBuy

	for _, bar := range future {
		if long {
			if bar.Low <= sig.StopLoss {
				return trade{pnl: pct(entry, sig.StopLoss)}
			}
			if bar.High >= sig.TakeProfit {
				return trade{pnl: pct(entry, sig.TakeProfit), won: true}
			}
			continue
		}
		if bar.High >= sig.StopLoss {
			return trade{pnl: -pct(entry, sig.StopLoss)}
		}
		if bar.Low <= sig.TakeProfit {
			return trade{pnl: -pct(entry, sig.TakeProfit), won: true}
		}
	}

	// Expired: close at the last simulated bar.
	if len(future) == 0 {
		return trade{}
	}
	exit := future[len(future)-1].Close
	pnl := pct(entry, exit)
	if !long {
		pnl = -pnl
	}
	return trade{pnl: pnl, won: pnl > 0}
}

// pct is the signed percent move from entry to exit.
func pct(entry, exit float64) float64 {
	if entry == 0 {
		return 0
	}
	return (exit - entry) / entry * 100
}

func fill(m *Metrics, trades []trade, curve []float64, equity float64) {
	m.TotalTrades = len(trades)
	m.FinalEquity = equity
	if len(trades) == 0 {
		return
	}
	var sumPnl, sumWin, sumLoss float64
	for _, t := range trades {
		sumPnl += t.pnl
		if t.won {
			m.Wins++
			sumWin += t.pnl
		} else {
			m.Losses++
			sumLoss += t.pnl
		}
	}
	m.WinRate = float64(m.Wins) / float64(m.TotalTrades)
	m.Expectancy = sumPnl / float64(m.TotalTrades)
	if m.Wins > 0 {
		m.AvgWin = sumWin / float64(m.Wins)
	}
	if m.Losses > 0 {
		m.AvgLoss = sumLoss / float64(m.Losses)
	}
	m.MaxDrawdown = maxDrawdownPct(curve)
}

func maxDrawdownPct(curve []float64) float64 {
	if len(curve) == 0 {
		return 0
	}
	peak := curve[0]
	var mdd float64
	for _, v := range curve {
		if v > peak {
			peak = v
		}
		if peak <= 0 {
			continue
		}
		if dd := (peak - v) / peak; dd > mdd {
			mdd = dd
		}
	}
	return mdd * 100
}

// round2 trims a percentage for report output.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
