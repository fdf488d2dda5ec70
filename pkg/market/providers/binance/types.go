package binance

import (
	"encoding/json"
	"fmt"

	"signalforge/pkg/market"
)

const (
	defaultBaseURL   = "https://api.binance.com"
	defaultStreamURL = "wss://stream.binance.com:9443/ws"
)

// intervals maps the normalized timeframe vocabulary onto Binance interval
// strings. The two vocabularies happen to coincide, but the mapping stays
// explicit so an unsupported timeframe fails loudly.
var intervals = map[market.Timeframe]string{
	market.Timeframe1m:  "1m",
	market.Timeframe5m:  "5m",
	market.Timeframe15m: "15m",
	market.Timeframe30m: "30m",
	market.Timeframe1h:  "1h",
	market.Timeframe4h:  "4h",
	market.Timeframe1d:  "1d",
}

func intervalFor(tf market.Timeframe) (string, error) {
	interval, ok := intervals[tf]
	if !ok {
		return "", fmt.Errorf("binance: unsupported timeframe %q", tf)
	}
	return interval, nil
}

// rawKline is one fixed-position kline array from the REST endpoint:
// [openTime, open, high, low, close, volume, closeTime, quoteVolume,
// trades, takerBuyBase, takerBuyQuote, ignore].
type rawKline []json.RawMessage

const rawKlineFields = 11

// parseKline transforms one wire array into a Kline, checking field presence
// and types. Numeric sanity is enforced later by the shared series validator.
func parseKline(raw rawKline) (market.Kline, error) {
	var k market.Kline
	if len(raw) < rawKlineFields {
		return k, fmt.Errorf("kline array has %d fields, want %d", len(raw), rawKlineFields)
	}
	if err := json.Unmarshal(raw[0], &k.OpenTime); err != nil {
		return k, fmt.Errorf("openTime: %w", err)
	}
	for i, dst := range []*string{&k.Open, &k.High, &k.Low, &k.Close, &k.Volume} {
		if err := json.Unmarshal(raw[i+1], dst); err != nil {
			return k, fmt.Errorf("price field %d: %w", i+1, err)
		}
	}
	if err := json.Unmarshal(raw[6], &k.CloseTime); err != nil {
		return k, fmt.Errorf("closeTime: %w", err)
	}
	if err := json.Unmarshal(raw[7], &k.QuoteVolume); err != nil {
		return k, fmt.Errorf("quoteVolume: %w", err)
	}
	if err := json.Unmarshal(raw[8], &k.TradeCount); err != nil {
		return k, fmt.Errorf("trades: %w", err)
	}
	if err := json.Unmarshal(raw[9], &k.TakerBuyBaseVolume); err != nil {
		return k, fmt.Errorf("takerBuyBase: %w", err)
	}
	if err := json.Unmarshal(raw[10], &k.TakerBuyQuoteVolume); err != nil {
		return k, fmt.Errorf("takerBuyQuote: %w", err)
	}
	return k, nil
}

// streamEnvelope is the streaming JSON envelope for kline events.
type streamEnvelope struct {
	EventType string      `json:"e"`
	EventTime int64       `json:"E"`
	Symbol    string      `json:"s"`
	Kline     streamKline `json:"k"`
}

// streamKline is the nested kline payload; IsFinal marks a closed bar.
type streamKline struct {
	OpenTime            int64  `json:"t"`
	CloseTime           int64  `json:"T"`
	Symbol              string `json:"s"`
	Interval            string `json:"i"`
	Open                string `json:"o"`
	Close               string `json:"c"`
	High                string `json:"h"`
	Low                 string `json:"l"`
	Volume              string `json:"v"`
	TradeCount          int64  `json:"n"`
	IsFinal             bool   `json:"x"`
	QuoteVolume         string `json:"q"`
	TakerBuyBaseVolume  string `json:"V"`
	TakerBuyQuoteVolume string `json:"Q"`
}

func (s streamKline) toKline() market.Kline {
	return market.Kline{
		OpenTime:            s.OpenTime,
		Open:                s.Open,
		High:                s.High,
		Low:                 s.Low,
		Close:               s.Close,
		Volume:              s.Volume,
		CloseTime:           s.CloseTime,
		QuoteVolume:         s.QuoteVolume,
		TradeCount:          s.TradeCount,
		TakerBuyBaseVolume:  s.TakerBuyBaseVolume,
		TakerBuyQuoteVolume: s.TakerBuyQuoteVolume,
	}
}

func (s streamEnvelope) validate() error {
	if s.EventType != "kline" {
		return fmt.Errorf("unexpected event type %q", s.EventType)
	}
	if s.Symbol == "" || s.Kline.Interval == "" {
		return fmt.Errorf("kline event missing symbol or interval")
	}
	if s.Kline.Open == "" || s.Kline.High == "" || s.Kline.Low == "" || s.Kline.Close == "" {
		return fmt.Errorf("kline event missing price fields")
	}
	return nil
}
