package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"signalforge/internal/config"
	"signalforge/pkg/market"

	// Import for side-effects: registers the market providers.
	_ "signalforge/pkg/market/providers/alphavantage"
	_ "signalforge/pkg/market/providers/binance"
	_ "signalforge/pkg/market/providers/finnhub"
	_ "signalforge/pkg/market/providers/twelvedata"
)

var (
	configFile = flag.String("f", "etc/signalforge.yaml", "the config file")
	symbolsArg = flag.String("symbols", "BTCUSDT,ETHUSDT", "comma-separated symbols to tail")
	tfArg      = flag.String("tf", "1m", "timeframe to subscribe")
)

func main() {
	flag.Parse()
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds)

	appCfg, err := config.Load(*configFile)
	if err != nil {
		log.Printf("[stream] Warning: failed to load app config: %v", err)
	}
	marketCfg := (*market.Config)(nil)
	if appCfg != nil {
		marketCfg = appCfg.Market.Value
	}
	if marketCfg == nil {
		marketCfg = config.MustLoadMarket()
	}

	providers, err := marketCfg.BuildProviders()
	if err != nil {
		log.Fatalf("[stream] Failed to build market providers: %v", err)
	}
	router := market.NewRouter(providers)
	defer router.Close()

	timeframe := market.Timeframe(*tfArg)
	if !timeframe.Valid() {
		log.Fatalf("[stream] Unknown timeframe %q", *tfArg)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	for _, symbol := range strings.Split(*symbolsArg, ",") {
		symbol = strings.TrimSpace(symbol)
		if symbol == "" {
			continue
		}
		streamer, ok := router.Streamer(symbol)
		if !ok {
			log.Printf("[stream] %s has no streaming provider, skipping", symbol)
			continue
		}
		updates, cancel, err := streamer.Subscribe(symbol, timeframe)
		if err != nil {
			log.Printf("[stream] Subscribe %s %s failed: %v", symbol, timeframe, err)
			continue
		}
		wg.Add(1)
		go func(symbol string) {
			defer wg.Done()
			defer cancel()
			tail(ctx, symbol, updates)
		}(symbol)
	}

	log.Println("[stream] Tailing live candles. Press Ctrl+C to stop.")
	<-ctx.Done()
	log.Println("[stream] Shutdown signal received, closing streams")
	router.Close()
	wg.Wait()
}

func tail(ctx context.Context, symbol string, updates <-chan market.CandleUpdate) {
	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				log.Printf("[stream] %s stream ended", symbol)
				return
			}
			state := "forming"
			if update.Final {
				state = "closed"
			}
			log.Printf("[stream] %s %s %s o=%s h=%s l=%s c=%s v=%s",
				update.Symbol, update.Timeframe, state,
				update.Kline.Open, update.Kline.High, update.Kline.Low,
				update.Kline.Close, update.Kline.Volume)
		}
	}
}
