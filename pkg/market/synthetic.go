package market

import (
	"hash/fnv"
	"math"
	"math/rand"
	"strconv"
	"time"
)

// SyntheticSeries generates a deterministic mock candle series for a symbol.
// The generator is seeded from the symbol name and its directory base price,
// so repeated calls for the same inputs yield the same bars. Used as the
// router's last-resort fallback when every provider path is exhausted.
func SyntheticSeries(symbol string, timeframe Timeframe, limit int, now time.Time) []Kline {
	if limit <= 0 {
		return nil
	}
	base := 100.0
	if info, ok := LookupSymbol(symbol); ok && info.BasePrice > 0 {
		base = info.BasePrice
	}

	h := fnv.New64a()
	h.Write([]byte(symbol))
	rng := rand.New(rand.NewSource(int64(h.Sum64()) ^ int64(base*1000)))

	step := timeframe.Duration()
	if step <= 0 {
		step = time.Hour
	}
	// Align the last bar to the bucket boundary so successive calls within the
	// same bucket produce identical series.
	end := now.UTC().Truncate(step)
	start := end.Add(-step * time.Duration(limit))

	klines := make([]Kline, 0, limit)
	price := base
	for i := 0; i < limit; i++ {
		openTime := start.Add(step * time.Duration(i))
		drift := (rng.Float64() - 0.5) * 0.02 // +/-1% per bar
		open := price
		close := open * (1 + drift)
		high := math.Max(open, close) * (1 + rng.Float64()*0.005)
		low := math.Min(open, close) * (1 - rng.Float64()*0.005)
		volume := base * (50 + rng.Float64()*100)

		klines = append(klines, Kline{
			OpenTime:  openTime.UnixMilli(),
			Open:      formatPrice(open),
			High:      formatPrice(high),
			Low:       formatPrice(low),
			Close:     formatPrice(close),
			Volume:    formatPrice(volume),
			CloseTime: openTime.Add(step).UnixMilli() - 1,
		})
		price = close
	}
	return klines
}

func formatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', 8, 64)
}
