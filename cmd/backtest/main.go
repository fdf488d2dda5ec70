package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

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

var (
	configFile = flag.String("f", "etc/signalforge.yaml", "the config file")
	reportPath = flag.String("o", "", "write JSON report to this path (overrides config)")
)

func main() {
	flag.Parse()
	log.SetFlags(log.Ldate | log.Ltime)

	appCfg := config.MustLoad(*configFile)
	cli.LogConfigSummary(appCfg)

	marketCfg := appCfg.Market.Value
	if marketCfg == nil {
		marketCfg = config.MustLoadMarket()
	}
	providers, err := marketCfg.BuildProviders()
	if err != nil {
		log.Fatalf("[backtest] Failed to build market providers: %v", err)
	}
	router := market.NewRouter(providers)
	defer router.Close()

	engineCfg := backtest.Config{
		WindowSize:    appCfg.Backtest.WindowSize,
		Step:          appCfg.Backtest.Step,
		LookAhead:     appCfg.Backtest.LookAhead,
		InitialEquity: appCfg.Backtest.InitialEquity,
		Indicators:    indicators.DefaultConfig(),
	}
	orch := orchestrator.New(router, orchestrator.Config{
		BacktestBars: appCfg.Backtest.Bars,
		Indicators:   indicators.DefaultConfig(),
		Backtest:     engineCfg,
		Strategy:     strategy.Config{MaxSignals: appCfg.Strategy.MaxSignals},
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := orch.RefreshBacktests(ctx); err != nil {
		log.Fatalf("[backtest] Run failed: %v", err)
	}
	results := orch.Metrics()
	backtest.PrintTable(os.Stdout, results)

	path := *reportPath
	if path == "" {
		path = appCfg.Backtest.ReportPath
	}
	if path != "" {
		engine := backtest.NewEngine(engineCfg)
		if err := engine.WriteReport(path, results); err != nil {
			log.Fatalf("[backtest] Write report: %v", err)
		}
		log.Printf("[backtest] Report written to %s", path)
	}
}
