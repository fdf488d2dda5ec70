package cache

import (
	"strconv"
	"strings"
	"time"
)

// Namespace is the key prefix for all signalforge cache entries.
const Namespace = "signalforge"

// TTLClass represents a config-driven TTL bucket. The class of a candle
// request follows the volatility of its timeframe: intraday bars churn and
// expire quickly, multi-hour bars last longer, and daily bars are pinned to
// the next UTC midnight because the bar itself only changes once a day.
type TTLClass string

const (
	TTLShort    TTLClass = "short"
	TTLMedium   TTLClass = "medium"
	TTLLong     TTLClass = "long"
	TTLMidnight TTLClass = "midnight"
)

// TTLSet normalises cache TTLs from config into time.Duration values.
// Ranged covers historical time-ranged queries, which outlive every latest-N
// class because data fully in the past never changes.
type TTLSet struct {
	Short  time.Duration
	Medium time.Duration
	Long   time.Duration
	Ranged time.Duration
}

// NewTTLSet converts config TTLs (in seconds) into durations, applying
// defaults for unset values.
func NewTTLSet(short, medium, long, ranged int) TTLSet {
	return TTLSet{
		Short:  durationOrDefault(short, 30*time.Second),
		Medium: durationOrDefault(medium, 5*time.Minute),
		Long:   durationOrDefault(long, time.Hour),
		Ranged: durationOrDefault(ranged, 6*time.Hour),
	}
}

func durationOrDefault(seconds int, fallback time.Duration) time.Duration {
	if seconds <= 0 {
		return fallback
	}
	return time.Duration(seconds) * time.Second
}

// Duration returns the configured duration for the given TTL class.
// TTLMidnight has no fixed duration; callers use SetUntilMidnightUTC instead.
func (t TTLSet) Duration(class TTLClass) time.Duration {
	switch class {
	case TTLShort:
		return t.Short
	case TTLMedium:
		return t.Medium
	case TTLLong:
		return t.Long
	default:
		return 0
	}
}

// ClassForTimeframe maps a normalized timeframe string to its TTL class.
func ClassForTimeframe(timeframe string) TTLClass {
	switch timeframe {
	case "1m", "3m", "5m":
		return TTLShort
	case "15m", "30m", "1h":
		return TTLMedium
	case "2h", "4h", "6h", "12h":
		return TTLLong
	case "1d", "1w":
		return TTLMidnight
	default:
		return TTLMedium
	}
}

// Key joins ordered parts with a fixed delimiter under the signalforge
// namespace, skipping empty parts. Two logically different requests never
// collide because every request dimension contributes its own part.
func Key(parts ...string) string {
	values := make([]string, 0, len(parts)+1)
	values = append(values, Namespace)
	for _, part := range parts {
		clean := strings.TrimSpace(part)
		if clean == "" {
			continue
		}
		values = append(values, clean)
	}
	return strings.Join(values, ":")
}

// CandlesKey identifies a latest-N candle request.
func CandlesKey(provider, symbol, timeframe string, limit int) string {
	return Key("candles", provider, symbol, timeframe, strconv.Itoa(limit))
}

// CandlesRangeKey identifies a historical time-ranged candle request.
func CandlesRangeKey(provider, symbol, timeframe string, startMs, endMs int64) string {
	return Key("candles", "range", provider, symbol, timeframe,
		strconv.FormatInt(startMs, 10), strconv.FormatInt(endMs, 10))
}
