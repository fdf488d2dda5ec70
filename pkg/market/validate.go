package market

import (
	"fmt"
	"math"
)

// ValidateKline checks one candle against the structural invariants:
// high >= max(open, close, low), low <= min(open, close), all prices
// positive, volume non-negative, openTime < closeTime, no NaN.
func ValidateKline(provider string, k Kline) error {
	n, err := k.Normalize()
	if err != nil {
		return &ValidationError{Provider: provider, Field: "kline", Reason: err.Error()}
	}
	return validateNormalized(provider, n, k.CloseTime)
}

// ValidateSeries checks every candle plus ascending open-time ordering.
func ValidateSeries(provider string, klines []Kline) error {
	var prevOpen int64 = math.MinInt64
	for i, k := range klines {
		if err := ValidateKline(provider, k); err != nil {
			return err
		}
		if k.OpenTime <= prevOpen {
			return &ValidationError{
				Provider: provider,
				Field:    fmt.Sprintf("klines[%d].openTime", i),
				Reason:   "series not strictly ascending",
			}
		}
		prevOpen = k.OpenTime
	}
	return nil
}

func validateNormalized(provider string, n Normalized, closeTime int64) error {
	fail := func(field, reason string) error {
		return &ValidationError{Provider: provider, Field: field, Reason: reason}
	}
	for _, v := range []struct {
		name  string
		value float64
	}{
		{"open", n.Open}, {"high", n.High}, {"low", n.Low}, {"close", n.Close},
	} {
		if math.IsNaN(v.value) || math.IsInf(v.value, 0) {
			return fail(v.name, "not a finite number")
		}
		if v.value <= 0 {
			return fail(v.name, "price must be positive")
		}
	}
	if math.IsNaN(n.Volume) || n.Volume < 0 {
		return fail("volume", "must be non-negative")
	}
	if n.High < n.Open || n.High < n.Close || n.High < n.Low {
		return fail("high", "below open, close or low")
	}
	if n.Low > n.Open || n.Low > n.Close {
		return fail("low", "above open or close")
	}
	if closeTime != 0 && n.Timestamp >= closeTime {
		return fail("openTime", "not before closeTime")
	}
	return nil
}
