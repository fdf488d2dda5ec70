package indicators

import (
	"math"

	"github.com/zeromicro/go-zero/core/logx"

	"signalforge/pkg/market"
)

// Config selects the indicator periods for one snapshot computation.
type Config struct {
	RSIPeriod     int     `json:"rsiPeriod"`
	RSIOverbought float64 `json:"rsiOverbought"`
	RSIOversold   float64 `json:"rsiOversold"`

	MACDFast   int `json:"macdFast"`
	MACDSlow   int `json:"macdSlow"`
	MACDSignal int `json:"macdSignal"`

	BollingerPeriod int     `json:"bollingerPeriod"`
	BollingerStdDev float64 `json:"bollingerStdDev"`

	SMAPeriods []int `json:"smaPeriods"`
	EMAPeriods []int `json:"emaPeriods"`

	ATRPeriod    int `json:"atrPeriod"`
	VolumePeriod int `json:"volumePeriod"`
}

// DefaultConfig returns the standard parameterization: RSI 14 with 70/30
// bands, MACD 12/26/9, Bollinger 20 at 2 sigma, ATR 14 and a 20-bar volume
// baseline.
func DefaultConfig() Config {
	return Config{
		RSIPeriod:       14,
		RSIOverbought:   70,
		RSIOversold:     30,
		MACDFast:        12,
		MACDSlow:        26,
		MACDSignal:      9,
		BollingerPeriod: 20,
		BollingerStdDev: 2.0,
		SMAPeriods:      []int{20, 50, 200},
		EMAPeriods:      []int{9, 21, 50},
		ATRPeriod:       14,
		VolumePeriod:    20,
	}
}

// MinBars returns the shortest series length for which every configured
// indicator is defined on the final bar.
func (c Config) MinBars() int {
	min := c.RSIPeriod + 1
	if n := c.MACDSlow + c.MACDSignal; n > min {
		min = n
	}
	if c.BollingerPeriod > min {
		min = c.BollingerPeriod
	}
	if n := c.ATRPeriod + 1; n > min {
		min = n
	}
	if c.VolumePeriod > min {
		min = c.VolumePeriod
	}
	return min
}

// RSIValue is the momentum reading on the last bar.
type RSIValue struct {
	Value      float64 `json:"value"`
	Overbought bool    `json:"overbought"`
	Oversold   bool    `json:"oversold"`
}

// MACDValue carries the trend lines on the last bar. Histogram is always
// MACD minus Signal; Bullish requires both a positive histogram and the MACD
// line above the signal line, Bearish is the mirror.
type MACDValue struct {
	MACD      float64 `json:"macd"`
	Signal    float64 `json:"signal"`
	Histogram float64 `json:"histogram"`
	Bullish   bool    `json:"bullish"`
	Bearish   bool    `json:"bearish"`
}

// BollingerValue carries the band levels on the last bar. Width is the
// upper-lower spread relative to the middle band; PercentB locates the last
// price within the bands (0 at lower, 1 at upper).
type BollingerValue struct {
	Upper    float64 `json:"upper"`
	Middle   float64 `json:"middle"`
	Lower    float64 `json:"lower"`
	Width    float64 `json:"width"`
	PercentB float64 `json:"percentB"`
}

// ATRValue is the volatility reading on the last bar.
type ATRValue struct {
	Value float64 `json:"value"`
}

// VolumeValue compares the last bar's volume to its recent average. Ratio is
// zero when the average is zero.
type VolumeValue struct {
	Current float64 `json:"current"`
	Average float64 `json:"average"`
	Ratio   float64 `json:"ratio"`
}

// Snapshot is the full indicator state computed from one candle series.
// Individual indicator pointers are nil when the series is long enough for
// the snapshot overall but too short for that indicator's configuration.
type Snapshot struct {
	Asset     string           `json:"asset"`
	Timeframe market.Timeframe `json:"timeframe"`
	Timestamp int64            `json:"timestamp"`
	LastPrice float64          `json:"lastPrice"`
	RSI       *RSIValue        `json:"rsi,omitempty"`
	MACD      *MACDValue       `json:"macd,omitempty"`
	Bollinger *BollingerValue  `json:"bollinger,omitempty"`
	ATR       *ATRValue        `json:"atr,omitempty"`
	Volume    *VolumeValue     `json:"volume,omitempty"`
	SMA       map[int]float64  `json:"sma,omitempty"`
	EMA       map[int]float64  `json:"ema,omitempty"`
}

// Compute derives a Snapshot from an ascending candle series. It returns
// (nil, nil) when the series is shorter than cfg.MinBars; strategies treat a
// nil snapshot as "stand aside". Unparseable candles are an error.
func Compute(asset string, timeframe market.Timeframe, klines []market.Kline, cfg Config) (*Snapshot, error) {
	if len(klines) < cfg.MinBars() {
		return nil, nil
	}
	bars, err := market.Normalize(klines)
	if err != nil {
		return nil, err
	}

	n := len(bars)
	closes := make([]float64, n)
	highs := make([]float64, n)
	lows := make([]float64, n)
	volumes := make([]float64, n)
	for i, b := range bars {
		closes[i] = b.Close
		highs[i] = b.High
		lows[i] = b.Low
		volumes[i] = b.Volume
	}

	snap := &Snapshot{
		Asset:     asset,
		Timeframe: timeframe,
		Timestamp: bars[n-1].Timestamp,
		LastPrice: closes[n-1],
	}

	if v := Last(RSI(closes, cfg.RSIPeriod)); !math.IsNaN(v) {
		snap.RSI = &RSIValue{
			Value:      v,
			Overbought: v > cfg.RSIOverbought,
			Oversold:   v < cfg.RSIOversold,
		}
	}

	macdLine, signalLine, histogram := MACD(closes, cfg.MACDFast, cfg.MACDSlow, cfg.MACDSignal)
	if m, s, h := Last(macdLine), Last(signalLine), Last(histogram); !math.IsNaN(m) && !math.IsNaN(s) && !math.IsNaN(h) {
		snap.MACD = &MACDValue{
			MACD:      m,
			Signal:    s,
			Histogram: h,
			Bullish:   h > 0 && m > s,
			Bearish:   h < 0 && m < s,
		}
	}

	middle, upper, lower := Bollinger(closes, cfg.BollingerPeriod, cfg.BollingerStdDev)
	if m, u, l := Last(middle), Last(upper), Last(lower); !math.IsNaN(m) && m != 0 {
		band := &BollingerValue{
			Upper:  u,
			Middle: m,
			Lower:  l,
			Width:  (u - l) / m,
		}
		if u != l {
			band.PercentB = (snap.LastPrice - l) / (u - l)
		}
		snap.Bollinger = band
	}

	if v := Last(ATR(highs, lows, closes, cfg.ATRPeriod)); !math.IsNaN(v) {
		snap.ATR = &ATRValue{Value: v}
	}

	if avg := Last(SMA(volumes, cfg.VolumePeriod)); !math.IsNaN(avg) {
		vol := &VolumeValue{Current: volumes[n-1], Average: avg}
		if avg > 0 {
			vol.Ratio = vol.Current / avg
		}
		snap.Volume = vol
	}

	// Periods longer than the series are omitted from the maps rather than
	// failing the whole snapshot.
	snap.SMA = lastByPeriod(closes, cfg.SMAPeriods, SMA)
	snap.EMA = lastByPeriod(closes, cfg.EMAPeriods, EMA)

	return snap, nil
}

// ComputeAll computes one snapshot per timeframe, skipping series that are
// too short or unparseable. It never fails wholesale.
func ComputeAll(asset string, series map[market.Timeframe][]market.Kline, cfg Config) map[market.Timeframe]*Snapshot {
	out := make(map[market.Timeframe]*Snapshot, len(series))
	for timeframe, klines := range series {
		snap, err := Compute(asset, timeframe, klines, cfg)
		if err != nil {
			logx.Errorf("indicators: %s %s snapshot failed: %v", asset, timeframe, err)
			continue
		}
		if snap == nil {
			continue
		}
		out[timeframe] = snap
	}
	return out
}

func lastByPeriod(closes []float64, periods []int, fn func([]float64, int) []float64) map[int]float64 {
	if len(periods) == 0 {
		return nil
	}
	out := make(map[int]float64, len(periods))
	for _, period := range periods {
		if v := Last(fn(closes, period)); !math.IsNaN(v) {
			out[period] = v
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
