package market

import "strings"

// symbolDirectory is the static routing table: symbol -> asset class, owning
// provider type and synthetic-fallback seed price. Forex symbols carry their
// pip size for pip-distance TP/SL offsets downstream.
var symbolDirectory = map[string]SymbolInfo{
	"BTCUSDT":  {Symbol: "BTCUSDT", Class: AssetCrypto, Provider: "binance", BasePrice: 65000},
	"ETHUSDT":  {Symbol: "ETHUSDT", Class: AssetCrypto, Provider: "binance", BasePrice: 3200},
	"SOLUSDT":  {Symbol: "SOLUSDT", Class: AssetCrypto, Provider: "binance", BasePrice: 150},
	"BNBUSDT":  {Symbol: "BNBUSDT", Class: AssetCrypto, Provider: "binance", BasePrice: 580},
	"XRPUSDT":  {Symbol: "XRPUSDT", Class: AssetCrypto, Provider: "binance", BasePrice: 0.52},
	"DOGEUSDT": {Symbol: "DOGEUSDT", Class: AssetCrypto, Provider: "binance", BasePrice: 0.12},

	"EURUSD": {Symbol: "EURUSD", Class: AssetForex, Provider: "twelvedata", BasePrice: 1.085, PipSize: 0.0001},
	"GBPUSD": {Symbol: "GBPUSD", Class: AssetForex, Provider: "twelvedata", BasePrice: 1.27, PipSize: 0.0001},
	"USDJPY": {Symbol: "USDJPY", Class: AssetForex, Provider: "alphavantage", BasePrice: 149.5, PipSize: 0.01},
	"AUDUSD": {Symbol: "AUDUSD", Class: AssetForex, Provider: "alphavantage", BasePrice: 0.655, PipSize: 0.0001},
	"USDCHF": {Symbol: "USDCHF", Class: AssetForex, Provider: "finnhub", BasePrice: 0.88, PipSize: 0.0001},

	"XAUUSD": {Symbol: "XAUUSD", Class: AssetCommodity, Provider: "twelvedata", BasePrice: 2350, PipSize: 0.01},
	"XAGUSD": {Symbol: "XAGUSD", Class: AssetCommodity, Provider: "finnhub", BasePrice: 28.5, PipSize: 0.001},
	"WTIUSD": {Symbol: "WTIUSD", Class: AssetCommodity, Provider: "finnhub", BasePrice: 78.0, PipSize: 0.01},
}

// LookupSymbol resolves static metadata for a symbol. The second return is
// false for symbols outside the directory.
func LookupSymbol(symbol string) (SymbolInfo, bool) {
	info, ok := symbolDirectory[strings.ToUpper(strings.TrimSpace(symbol))]
	return info, ok
}

// Symbols returns every known symbol, in no particular order.
func Symbols() []SymbolInfo {
	out := make([]SymbolInfo, 0, len(symbolDirectory))
	for _, info := range symbolDirectory {
		out = append(out, info)
	}
	return out
}

// ClassOf resolves the asset class for a symbol, defaulting to crypto for
// unknown USDT-quoted symbols and forex otherwise.
func ClassOf(symbol string) AssetClass {
	if info, ok := LookupSymbol(symbol); ok {
		return info.Class
	}
	if strings.HasSuffix(strings.ToUpper(symbol), "USDT") {
		return AssetCrypto
	}
	return AssetForex
}
