package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"signalforge/internal/cli"
	"signalforge/internal/config"
	"signalforge/pkg/backtest"
	"signalforge/pkg/indicators"
	"signalforge/pkg/market"
	"signalforge/pkg/orchestrator"
	"signalforge/pkg/strategy"

	// Import for side-effects: registers the market providers.
	_ "signalforge/pkg/market/providers/alphavantage"
	_ "signalforge/pkg/market/providers/binance"
	_ "signalforge/pkg/market/providers/finnhub"
	_ "signalforge/pkg/market/providers/twelvedata"
)

var configFile = flag.String("f", "etc/signalforge.yaml", "the config file")

var defaultDailyTimeframes = []market.Timeframe{market.Timeframe4h, market.Timeframe1d}
var defaultScalpTimeframes = []market.Timeframe{market.Timeframe5m, market.Timeframe15m}

func main() {
	flag.Parse()
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)

	appCfg, err := config.Load(*configFile)
	if err != nil {
		log.Printf("[main] Warning: failed to load app config: %v", err)
		log.Printf("[main] Using default configuration")
		appCfg = &config.Config{Env: "test"}
		if err := appCfg.Validate(); err != nil {
			log.Fatalf("[main] invalid default configuration: %v", err)
		}
	}

	log.Printf("[main] Configuration loaded:")
	for _, line := range cli.ConfigSummaryLines(appCfg) {
		log.Printf("  - %s", line)
	}

	marketCfg := appCfg.Market.Value
	if marketCfg == nil {
		marketCfg = config.MustLoadMarket()
	}
	providers, err := marketCfg.BuildProviders()
	if err != nil {
		log.Fatalf("[main] Failed to build market providers: %v", err)
	}
	router := market.NewRouter(providers)
	defer router.Close()

	orch := orchestrator.New(router, orchestratorConfig(appCfg))

	assets := appCfg.Strategy.Assets
	if len(assets) == 0 {
		for _, info := range market.Symbols() {
			assets = append(assets, info.Symbol)
		}
	}
	dailyTFs := timeframes(appCfg.Strategy.DailyTimeframes, defaultDailyTimeframes)
	scalpTFs := timeframes(appCfg.Strategy.ScalpingTimeframes, defaultScalpTimeframes)
	interval := time.Duration(appCfg.Strategy.IntervalMinutes) * time.Minute

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf("[main] Signal scheduler started: %d assets, interval %s. Press Ctrl+C to stop.",
		len(assets), interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	runOnce(ctx, orch, assets, dailyTFs, scalpTFs)
	for {
		select {
		case <-ctx.Done():
			log.Println("[main] Shutdown signal received, closing streams")
			return
		case <-ticker.C:
			runOnce(ctx, orch, assets, dailyTFs, scalpTFs)
		}
	}
}

func runOnce(ctx context.Context, orch *orchestrator.Orchestrator, assets []string, dailyTFs, scalpTFs []market.Timeframe) {
	if ctx.Err() != nil {
		return
	}
	start := time.Now()
	daily, err := orch.GenerateDailySignals(ctx, assets, dailyTFs)
	if err != nil {
		log.Printf("[daily] [ERROR] %v", err)
	} else {
		logSignals("daily", daily, time.Since(start))
	}

	start = time.Now()
	scalp, err := orch.GenerateScalpingSignals(ctx, assets, scalpTFs)
	if err != nil {
		log.Printf("[scalping] [ERROR] %v", err)
	} else {
		logSignals("scalping", scalp, time.Since(start))
	}
}

func logSignals(name string, signals []strategy.Signal, elapsed time.Duration) {
	log.Printf("[%s] [OK] %d signals, took %dms", name, len(signals), elapsed.Milliseconds())
	for _, sig := range signals {
		log.Printf("  - %s %s %s entry=%.5f tp=%.5f sl=%.5f",
			sig.Side, sig.Asset, sig.Timeframe, sig.EntryPrice, sig.TakeProfit, sig.StopLoss)
	}
}

func orchestratorConfig(appCfg *config.Config) orchestrator.Config {
	return orchestrator.Config{
		BacktestBars: appCfg.Backtest.Bars,
		Indicators:   indicators.DefaultConfig(),
		Backtest: backtest.Config{
			WindowSize:    appCfg.Backtest.WindowSize,
			Step:          appCfg.Backtest.Step,
			LookAhead:     appCfg.Backtest.LookAhead,
			InitialEquity: appCfg.Backtest.InitialEquity,
		},
		Strategy:   strategy.Config{MaxSignals: appCfg.Strategy.MaxSignals},
		JournalDir: appCfg.JournalDir,
	}
}

func timeframes(raw []string, fallback []market.Timeframe) []market.Timeframe {
	if len(raw) == 0 {
		return fallback
	}
	out := make([]market.Timeframe, 0, len(raw))
	for _, s := range raw {
		tf := market.Timeframe(s)
		if !tf.Valid() {
			log.Printf("[main] Warning: ignoring unknown timeframe %q", s)
			continue
		}
		out = append(out, tf)
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
