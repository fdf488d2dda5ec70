package market

import (
	"strconv"
	"time"
)

// Kline is one OHLCV bar as delivered by a provider, normalized to the
// signalforge vocabulary. Prices and volumes keep their wire precision as
// decimal strings; OpenTime and CloseTime are epoch milliseconds. A Kline is
// immutable once produced and series are always ordered ascending by OpenTime.
type Kline struct {
	OpenTime            int64  `json:"openTime"`
	Open                string `json:"open"`
	High                string `json:"high"`
	Low                 string `json:"low"`
	Close               string `json:"close"`
	Volume              string `json:"volume"`
	CloseTime           int64  `json:"closeTime"`
	QuoteVolume         string `json:"quoteVolume,omitempty"`
	TradeCount          int64  `json:"trades,omitempty"`
	TakerBuyBaseVolume  string `json:"takerBuyBaseVolume,omitempty"`
	TakerBuyQuoteVolume string `json:"takerBuyQuoteVolume,omitempty"`
}

// Normalized is the numeric projection of a Kline used by the indicator
// engine. Derived on demand, never persisted.
type Normalized struct {
	Timestamp int64
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
}

// Normalize converts a Kline series into its numeric projection. Parse
// failures surface as a ValidationError naming the offending field.
func Normalize(klines []Kline) ([]Normalized, error) {
	out := make([]Normalized, 0, len(klines))
	for i, k := range klines {
		n, err := k.Normalize()
		if err != nil {
			return nil, &ValidationError{Field: "klines[" + strconv.Itoa(i) + "]", Reason: err.Error()}
		}
		out = append(out, n)
	}
	return out, nil
}

// Normalize converts a single Kline into its numeric projection.
func (k Kline) Normalize() (Normalized, error) {
	var n Normalized
	var err error
	n.Timestamp = k.OpenTime
	if n.Open, err = strconv.ParseFloat(k.Open, 64); err != nil {
		return n, err
	}
	if n.High, err = strconv.ParseFloat(k.High, 64); err != nil {
		return n, err
	}
	if n.Low, err = strconv.ParseFloat(k.Low, 64); err != nil {
		return n, err
	}
	if n.Close, err = strconv.ParseFloat(k.Close, 64); err != nil {
		return n, err
	}
	if k.Volume == "" {
		n.Volume = 0
		return n, nil
	}
	if n.Volume, err = strconv.ParseFloat(k.Volume, 64); err != nil {
		return n, err
	}
	return n, nil
}

// Timeframe is the normalized bucket-size vocabulary. Providers map these to
// their own interval/resolution strings both ways.
type Timeframe string

const (
	Timeframe1m  Timeframe = "1m"
	Timeframe5m  Timeframe = "5m"
	Timeframe15m Timeframe = "15m"
	Timeframe30m Timeframe = "30m"
	Timeframe1h  Timeframe = "1h"
	Timeframe4h  Timeframe = "4h"
	Timeframe1d  Timeframe = "1d"
)

var timeframeDurations = map[Timeframe]time.Duration{
	Timeframe1m:  time.Minute,
	Timeframe5m:  5 * time.Minute,
	Timeframe15m: 15 * time.Minute,
	Timeframe30m: 30 * time.Minute,
	Timeframe1h:  time.Hour,
	Timeframe4h:  4 * time.Hour,
	Timeframe1d:  24 * time.Hour,
}

// Duration returns the bucket size, or zero for an unknown timeframe.
func (t Timeframe) Duration() time.Duration {
	return timeframeDurations[t]
}

// Valid reports whether the timeframe belongs to the normalized vocabulary.
func (t Timeframe) Valid() bool {
	_, ok := timeframeDurations[t]
	return ok
}

// AssetClass groups symbols by market, which decides the owning provider and
// the default take-profit/stop-loss offsets downstream.
type AssetClass string

const (
	AssetCrypto    AssetClass = "crypto"
	AssetForex     AssetClass = "forex"
	AssetCommodity AssetClass = "commodity"
)

// SymbolInfo is static per-symbol metadata used for routing and for the
// synthetic fallback series.
type SymbolInfo struct {
	Symbol    string
	Class     AssetClass
	Provider  string
	BasePrice float64 // seed for the synthetic fallback generator
	PipSize   float64 // pip distance for forex TP/SL offsets, zero otherwise
}

// CandleUpdate is one live streaming event. Final marks a closed bar; a
// non-final update carries the still-forming candle.
type CandleUpdate struct {
	Symbol    string
	Timeframe Timeframe
	Kline     Kline
	Final     bool
	Received  time.Time
}
