package orchestrator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signalforge/pkg/backtest"
	"signalforge/pkg/market"
	"signalforge/pkg/strategy"
)

// testConfig keeps backtest passes small so tests stay fast.
func testConfig() Config {
	return Config{
		HistoryBars:        250,
		BacktestBars:       300,
		Backtest:           backtest.Config{WindowSize: 50, Step: 10, LookAhead: 20},
		BacktestTimeframes: []market.Timeframe{market.Timeframe1h},
	}
}

func TestGenerateDailySignals(t *testing.T) {
	// No providers configured: every fetch serves the synthetic series, so
	// the whole pipeline runs deterministically offline.
	o := New(market.NewRouter(nil), testConfig())

	signals, err := o.GenerateDailySignals(context.Background(), []string{"BTCUSDT", "EURUSD"}, []market.Timeframe{market.Timeframe1h})
	require.NoError(t, err)

	for _, sig := range signals {
		assert.Equal(t, strategy.TypeDaily, sig.Strategy)
		assert.Contains(t, []string{"BTCUSDT", "EURUSD"}, sig.Asset)
		assert.Greater(t, sig.EntryPrice, 0.0)
	}

	// The first generate call bootstraps the backtest metrics store.
	metrics := o.Metrics()
	assert.NotEmpty(t, metrics)
	for _, m := range metrics {
		assert.Equal(t, market.Timeframe1h, m.Timeframe)
	}
}

func TestGenerateSkipsUnknownAssets(t *testing.T) {
	o := New(market.NewRouter(nil), testConfig())

	signals, err := o.GenerateScalpingSignals(context.Background(), []string{"UNKNOWN"}, []market.Timeframe{market.Timeframe5m})
	require.NoError(t, err, "a bad pair is skipped, never fatal")
	assert.Empty(t, signals)
}

func TestGenerateHonorsContext(t *testing.T) {
	o := New(market.NewRouter(nil), testConfig())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := o.GenerateDailySignals(ctx, []string{"BTCUSDT"}, []market.Timeframe{market.Timeframe1h})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRefreshBacktestsReplacesStore(t *testing.T) {
	o := New(market.NewRouter(nil), testConfig())

	require.NoError(t, o.RefreshBacktests(context.Background()))
	first := o.Metrics()
	require.NotEmpty(t, first)

	// Two strategies per directory symbol on one timeframe.
	assert.Equal(t, 2*len(market.Symbols()), len(first))

	require.NoError(t, o.RefreshBacktests(context.Background()))
	assert.Equal(t, first, o.Metrics(), "synthetic input keeps the pass deterministic")
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	assert.Equal(t, defaultHistoryBars, cfg.HistoryBars)
	assert.Equal(t, defaultBacktestBars, cfg.BacktestBars)
	assert.Equal(t, 35, cfg.Indicators.MinBars())
	assert.Len(t, cfg.BacktestTimeframes, 3)
}
