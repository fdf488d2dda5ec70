package indicators

import "math"

// Series functions operate on ordered price slices and return NaN-padded
// results aligned with the input; position i is NaN until the indicator has
// enough history to be defined there.

// SMA produces the simple moving average for the supplied prices.
func SMA(prices []float64, period int) []float64 {
	result := nanSlice(len(prices))
	if period <= 0 || len(prices) < period {
		return result
	}
	var sum float64
	for i, p := range prices {
		sum += p
		if i >= period {
			sum -= prices[i-period]
		}
		if i >= period-1 {
			result[i] = sum / float64(period)
		}
	}
	return result
}

// EMA produces the exponential moving average, seeded with the SMA of the
// first full window.
func EMA(prices []float64, period int) []float64 {
	result := nanSlice(len(prices))
	if period <= 0 || len(prices) < period {
		return result
	}
	multiplier := 2.0 / float64(period+1)

	var seed float64
	for i := 0; i < period; i++ {
		seed += prices[i]
	}
	seed /= float64(period)
	result[period-1] = seed

	for i := period; i < len(prices); i++ {
		prev := result[i-1]
		if math.IsNaN(prices[i]) {
			result[i] = prev
			continue
		}
		result[i] = (prices[i]-prev)*multiplier + prev
	}
	return result
}

// emaOfSeries runs an EMA over a series that may lead with NaN values, such
// as a MACD line. The seed window starts at the first defined value.
func emaOfSeries(values []float64, period int) []float64 {
	result := nanSlice(len(values))
	if period <= 0 {
		return result
	}
	start := -1
	for i, v := range values {
		if !math.IsNaN(v) {
			start = i
			break
		}
	}
	if start == -1 || len(values)-start < period {
		return result
	}
	multiplier := 2.0 / float64(period+1)
	var seed float64
	for i := start; i < start+period; i++ {
		seed += values[i]
	}
	seed /= float64(period)
	result[start+period-1] = seed
	for i := start + period; i < len(values); i++ {
		result[i] = (values[i]-result[i-1])*multiplier + result[i-1]
	}
	return result
}

// RSI computes the Relative Strength Index with Wilder smoothing. Values are
// bounded to [0, 100] by construction.
func RSI(prices []float64, period int) []float64 {
	result := nanSlice(len(prices))
	if period <= 0 || len(prices) <= period {
		return result
	}

	var gainSum, lossSum float64
	for i := 1; i <= period; i++ {
		change := prices[i] - prices[i-1]
		if change > 0 {
			gainSum += change
		} else {
			lossSum -= change
		}
	}
	avgGain := gainSum / float64(period)
	avgLoss := lossSum / float64(period)
	result[period] = rsiFrom(avgGain, avgLoss)

	for i := period + 1; i < len(prices); i++ {
		change := prices[i] - prices[i-1]
		gain := math.Max(change, 0)
		loss := math.Max(-change, 0)
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		result[i] = rsiFrom(avgGain, avgLoss)
	}
	return result
}

func rsiFrom(avgGain, avgLoss float64) float64 {
	switch {
	case avgLoss == 0 && avgGain == 0:
		return 50.0
	case avgLoss == 0:
		return 100.0
	case avgGain == 0:
		return 0.0
	default:
		rs := avgGain / avgLoss
		return 100.0 - (100.0 / (1.0 + rs))
	}
}

// MACD returns the MACD, signal and histogram series. The histogram equals
// macd − signal at every defined position.
func MACD(prices []float64, fast, slow, signal int) (macd, signalLine, histogram []float64) {
	macd = nanSlice(len(prices))
	emaFast := EMA(prices, fast)
	emaSlow := EMA(prices, slow)
	for i := range prices {
		if math.IsNaN(emaFast[i]) || math.IsNaN(emaSlow[i]) {
			continue
		}
		macd[i] = emaFast[i] - emaSlow[i]
	}
	signalLine = emaOfSeries(macd, signal)
	histogram = nanSlice(len(prices))
	for i := range histogram {
		if math.IsNaN(macd[i]) || math.IsNaN(signalLine[i]) {
			continue
		}
		histogram[i] = macd[i] - signalLine[i]
	}
	return macd, signalLine, histogram
}

// Bollinger returns middle/upper/lower band series for the given period and
// standard-deviation factor.
func Bollinger(prices []float64, period int, stdDev float64) (middle, upper, lower []float64) {
	middle = SMA(prices, period)
	upper = nanSlice(len(prices))
	lower = nanSlice(len(prices))
	if period <= 0 || len(prices) < period {
		return middle, upper, lower
	}
	for i := period - 1; i < len(prices); i++ {
		mean := middle[i]
		var variance float64
		for j := i - period + 1; j <= i; j++ {
			d := prices[j] - mean
			variance += d * d
		}
		sigma := math.Sqrt(variance / float64(period))
		upper[i] = mean + stdDev*sigma
		lower[i] = mean - stdDev*sigma
	}
	return middle, upper, lower
}

// TrueRange returns the true-range series for OHLC bars.
func TrueRange(highs, lows, closes []float64) []float64 {
	n := len(highs)
	tr := make([]float64, n)
	for i := 0; i < n; i++ {
		if i == 0 {
			tr[i] = highs[i] - lows[i]
			continue
		}
		highLow := highs[i] - lows[i]
		highClose := math.Abs(highs[i] - closes[i-1])
		lowClose := math.Abs(lows[i] - closes[i-1])
		tr[i] = math.Max(highLow, math.Max(highClose, lowClose))
	}
	return tr
}

// ATR computes the Wilder average true range.
func ATR(highs, lows, closes []float64, period int) []float64 {
	result := nanSlice(len(highs))
	if period <= 0 || len(highs) < period+1 {
		return result
	}
	tr := TrueRange(highs, lows, closes)

	var seed float64
	for i := 1; i <= period; i++ {
		seed += tr[i]
	}
	seed /= float64(period)
	result[period] = seed
	for i := period + 1; i < len(tr); i++ {
		result[i] = (result[i-1]*float64(period-1) + tr[i]) / float64(period)
	}
	return result
}

// Last returns the final value of a series, or NaN for an empty one.
func Last(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	return values[len(values)-1]
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
