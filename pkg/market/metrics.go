package market

import "github.com/zeromicro/go-zero/core/metric"

var (
	fetchMetric = metric.NewCounterVec(&metric.CounterVecOpts{
		Namespace: "signalforge",
		Subsystem: "market",
		Name:      "fetch_total",
		Help:      "Provider fetch outcomes.",
		Labels:    []string{"provider", "outcome"},
	})

	cacheMetric = metric.NewCounterVec(&metric.CounterVecOpts{
		Namespace: "signalforge",
		Subsystem: "market",
		Name:      "cache_total",
		Help:      "Candle cache lookups.",
		Labels:    []string{"provider", "result"},
	})
)

// RecordFetch counts a provider fetch outcome ("ok", "error", "fallback").
func RecordFetch(provider, outcome string) {
	fetchMetric.Inc(provider, outcome)
}

// RecordCache counts a candle cache lookup ("hit" or "miss").
func RecordCache(provider, result string) {
	cacheMetric.Inc(provider, result)
}
