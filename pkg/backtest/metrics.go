package backtest

import (
	"sort"
	"sync"

	"signalforge/pkg/market"
	"signalforge/pkg/strategy"
)

// Metrics summarizes one walk-forward run for a strategy/asset/timeframe
// combination. WinRate is a fraction in [0, 1]; Expectancy, AvgWin, AvgLoss
// and MaxDrawdown are percentages.
type Metrics struct {
	Strategy    strategy.Type    `json:"strategy"`
	Asset       string           `json:"asset"`
	Timeframe   market.Timeframe `json:"timeframe"`
	TotalTrades int              `json:"totalTrades"`
	Wins        int              `json:"wins"`
	Losses      int              `json:"losses"`
	WinRate     float64          `json:"winRate"`
	Expectancy  float64          `json:"expectancy"`
	AvgWin      float64          `json:"avgWin"`
	AvgLoss     float64          `json:"avgLoss"`
	MaxDrawdown float64          `json:"maxDrawdown"`
	FinalEquity float64          `json:"finalEquity"`
}

// Key returns the store key, "{strategy}_{asset}_{timeframe}".
func (m Metrics) Key() string {
	return MetricsKey(m.Strategy, m.Asset, m.Timeframe)
}

// MetricsKey builds the canonical metrics key.
func MetricsKey(strategyType strategy.Type, asset string, timeframe market.Timeframe) string {
	return string(strategyType) + "_" + asset + "_" + string(timeframe)
}

// MetricsStore holds the latest metrics per key. A new run replaces its key
// wholesale; entries are never partially updated. The store implements
// strategy.StatsProvider so live strategies can blend win rates into their
// confidence scores.
type MetricsStore struct {
	mu      sync.RWMutex
	entries map[string]Metrics
}

// NewMetricsStore constructs an empty store.
func NewMetricsStore() *MetricsStore {
	return &MetricsStore{entries: make(map[string]Metrics)}
}

// Put replaces the metrics for the entry's key.
func (s *MetricsStore) Put(m Metrics) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[m.Key()] = m
}

// ReplaceAll swaps the whole store for the given run results.
func (s *MetricsStore) ReplaceAll(results []Metrics) {
	next := make(map[string]Metrics, len(results))
	for _, m := range results {
		next[m.Key()] = m
	}
	s.mu.Lock()
	s.entries = next
	s.mu.Unlock()
}

// Lookup implements strategy.StatsProvider.
func (s *MetricsStore) Lookup(strategyType strategy.Type, asset string, timeframe market.Timeframe) (strategy.Stats, bool) {
	s.mu.RLock()
	m, ok := s.entries[MetricsKey(strategyType, asset, timeframe)]
	s.mu.RUnlock()
	if !ok {
		return strategy.Stats{}, false
	}
	return strategy.Stats{
		WinRate:     m.WinRate,
		TotalTrades: m.TotalTrades,
		Expectancy:  m.Expectancy,
		AvgWin:      m.AvgWin,
		AvgLoss:     m.AvgLoss,
	}, true
}

// All returns every stored entry, ordered by key for stable output.
func (s *MetricsStore) All() []Metrics {
	s.mu.RLock()
	out := make([]Metrics, 0, len(s.entries))
	for _, m := range s.entries {
		out = append(out, m)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Key() < out[j].Key() })
	return out
}

// Len returns the number of stored entries.
func (s *MetricsStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
