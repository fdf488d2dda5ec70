package orchestrator

import (
	"context"
	"sync"
	"time"

	"github.com/zeromicro/go-zero/core/logx"

	"signalforge/pkg/backtest"
	"signalforge/pkg/indicators"
	"signalforge/pkg/journal"
	"signalforge/pkg/market"
	"signalforge/pkg/strategy"
)

const (
	defaultHistoryBars  = 250
	defaultBacktestBars = 1000
)

// Config tunes the orchestrator.
type Config struct {
	// HistoryBars is how many candles each live evaluation fetches. Must
	// cover the indicator configuration's minimum; shorter pairs are skipped.
	HistoryBars int
	// BacktestBars is how many candles each backtest run fetches.
	BacktestBars int
	// Indicators configures every snapshot computation.
	Indicators indicators.Config
	// Backtest configures the walk-forward engine.
	Backtest backtest.Config
	// Strategy is shared strategy configuration; its Stats field is
	// overwritten with the orchestrator's own metrics store.
	Strategy strategy.Config
	// BacktestTimeframes is the timeframe universe for the full backtest
	// pass. Defaults to 1h, 4h and 1d.
	BacktestTimeframes []market.Timeframe
	// JournalDir enables run journaling when non-empty.
	JournalDir string
}

func (c Config) withDefaults() Config {
	if c.HistoryBars <= 0 {
		c.HistoryBars = defaultHistoryBars
	}
	if c.BacktestBars <= 0 {
		c.BacktestBars = defaultBacktestBars
	}
	if c.Indicators.MinBars() <= 1 {
		c.Indicators = indicators.DefaultConfig()
	}
	if len(c.BacktestTimeframes) == 0 {
		c.BacktestTimeframes = []market.Timeframe{market.Timeframe1h, market.Timeframe4h, market.Timeframe1d}
	}
	return c
}

// Orchestrator is the sole entry point external schedulers call. It owns the
// metrics store, rebuilds it from backtests on first use, and generates
// signals with per-pair failure isolation.
type Orchestrator struct {
	router  *market.Router
	engine  *backtest.Engine
	store   *backtest.MetricsStore
	daily   strategy.Strategy
	scalp   strategy.Strategy
	journal *journal.Writer
	cfg     Config

	bootstrapOnce sync.Once
}

// New constructs an orchestrator over the given router.
func New(router *market.Router, cfg Config) *Orchestrator {
	cfg = cfg.withDefaults()
	cfg.Backtest.Indicators = cfg.Indicators
	store := backtest.NewMetricsStore()
	cfg.Strategy.Stats = store

	o := &Orchestrator{
		router: router,
		engine: backtest.NewEngine(cfg.Backtest),
		store:  store,
		daily:  strategy.NewDaily(cfg.Strategy),
		scalp:  strategy.NewScalping(cfg.Strategy),
		cfg:    cfg,
	}
	if cfg.JournalDir != "" {
		o.journal = journal.NewWriter(cfg.JournalDir)
	}
	return o
}

// Metrics exposes the current backtest metrics, for reporting binaries.
func (o *Orchestrator) Metrics() []backtest.Metrics {
	return o.store.All()
}

// GenerateDailySignals evaluates the daily strategy for every asset and
// timeframe pair. One pair's failure is logged and skipped, never aborting
// the batch.
func (o *Orchestrator) GenerateDailySignals(ctx context.Context, assets []string, timeframes []market.Timeframe) ([]strategy.Signal, error) {
	return o.generate(ctx, o.daily, assets, timeframes)
}

// GenerateScalpingSignals evaluates the scalping strategy for every asset and
// timeframe pair, with the same per-pair isolation.
func (o *Orchestrator) GenerateScalpingSignals(ctx context.Context, assets []string, timeframes []market.Timeframe) ([]strategy.Signal, error) {
	return o.generate(ctx, o.scalp, assets, timeframes)
}

func (o *Orchestrator) generate(ctx context.Context, strat strategy.Strategy, assets []string, timeframes []market.Timeframe) ([]strategy.Signal, error) {
	o.bootstrapOnce.Do(func() {
		if err := o.RefreshBacktests(ctx); err != nil {
			logx.Errorf("orchestrator: backtest bootstrap failed: %v", err)
		}
	})

	started := time.Now()
	var signals []strategy.Signal
	var skips []journal.Skip

	// Sequential on purpose: each provider's rate limiter stays the only
	// throttle in play.
	for _, asset := range assets {
		for _, timeframe := range timeframes {
			if err := ctx.Err(); err != nil {
				return signals, err
			}
			klines, err := o.router.FetchCandles(ctx, asset, timeframe, o.cfg.HistoryBars)
			if err != nil {
				logx.Errorf("orchestrator: %s %s fetch failed, skipping: %v", asset, timeframe, err)
				skips = append(skips, journal.Skip{Asset: asset, Timeframe: string(timeframe), Reason: err.Error()})
				continue
			}
			snap, err := indicators.Compute(asset, timeframe, klines, o.cfg.Indicators)
			if err != nil {
				logx.Errorf("orchestrator: %s %s indicators failed, skipping: %v", asset, timeframe, err)
				skips = append(skips, journal.Skip{Asset: asset, Timeframe: string(timeframe), Reason: err.Error()})
				continue
			}
			if snap == nil {
				skips = append(skips, journal.Skip{Asset: asset, Timeframe: string(timeframe), Reason: "insufficient candles"})
				continue
			}
			signals = append(signals, strat.Evaluate(snap)...)
		}
	}

	o.writeJournal(strat.Name(), assets, timeframes, signals, skips, time.Since(started))
	return signals, nil
}

// RefreshBacktests runs a full walk-forward pass over the symbol directory
// and swaps the metrics store wholesale. Individual pair failures are logged
// and skipped.
func (o *Orchestrator) RefreshBacktests(ctx context.Context) error {
	var results []backtest.Metrics
	for _, info := range market.Symbols() {
		for _, timeframe := range o.cfg.BacktestTimeframes {
			if err := ctx.Err(); err != nil {
				return err
			}
			klines, err := o.router.FetchCandles(ctx, info.Symbol, timeframe, o.cfg.BacktestBars)
			if err != nil {
				logx.Errorf("orchestrator: backtest fetch %s %s failed: %v", info.Symbol, timeframe, err)
				continue
			}
			for _, strat := range []strategy.Strategy{o.daily, o.scalp} {
				metrics, err := o.engine.Run(ctx, strat, info.Symbol, timeframe, klines)
				if err != nil {
					logx.Infof("orchestrator: backtest %s %s %s skipped: %v", strat.Name(), info.Symbol, timeframe, err)
					continue
				}
				results = append(results, metrics)
			}
		}
	}
	o.store.ReplaceAll(results)
	logx.Infof("orchestrator: backtest pass complete, %d metric sets", len(results))
	return nil
}

func (o *Orchestrator) writeJournal(strategyType strategy.Type, assets []string, timeframes []market.Timeframe, signals []strategy.Signal, skips []journal.Skip, elapsed time.Duration) {
	if o.journal == nil {
		return
	}
	tfs := make([]string, len(timeframes))
	for i, tf := range timeframes {
		tfs[i] = string(tf)
	}
	rec := &journal.RunRecord{
		Strategy:   strategyType,
		Assets:     assets,
		Timeframes: tfs,
		Signals:    signals,
		Skipped:    skips,
		Duration:   elapsed,
	}
	if _, err := o.journal.WriteRun(rec); err != nil {
		logx.Errorf("orchestrator: journal write failed: %v", err)
	}
}
