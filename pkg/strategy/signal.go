package strategy

import (
	"encoding/json"

	"signalforge/pkg/market"
)

// Type names a strategy variant. It is part of the backtest metrics key.
type Type string

const (
	TypeDaily    Type = "daily"
	TypeScalping Type = "scalping"
)

// Side is the trade direction of a signal.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Status tracks a signal's lifecycle. The engine only ever emits active
// signals; downstream collaborators own the later transitions.
type Status string

const (
	StatusActive Status = "active"
	StatusFilled Status = "filled"
	StatusClosed Status = "closed"
)

// Signal is one actionable trade recommendation. Metadata is a stringified
// JSON document so persistence and notification layers can store it opaquely
// without recomputing indicators.
type Signal struct {
	Asset       string           `json:"asset"`
	Timeframe   market.Timeframe `json:"timeframe"`
	Strategy    Type             `json:"strategy"`
	Side        Side             `json:"side"`
	EntryPrice  float64          `json:"entryPrice"`
	TakeProfit  float64          `json:"takeProfit"`
	StopLoss    float64          `json:"stopLoss"`
	Status      Status           `json:"status"`
	GeneratedAt int64            `json:"generatedAt"`
	Metadata    string           `json:"metadata"`
}

// Stats is the backtest summary a strategy blends into its confidence score.
// WinRate is a fraction in [0, 1].
type Stats struct {
	WinRate     float64 `json:"winRate"`
	TotalTrades int     `json:"totalTrades"`
	Expectancy  float64 `json:"expectancy"`
	AvgWin      float64 `json:"avgWin"`
	AvgLoss     float64 `json:"avgLoss"`
}

// StatsProvider resolves historical backtest stats for a strategy/asset/
// timeframe combination. A nil provider means no history is available yet.
type StatsProvider interface {
	Lookup(strategy Type, asset string, timeframe market.Timeframe) (Stats, bool)
}

// Metadata is the structured form behind Signal.Metadata.
type Metadata struct {
	Rule        string    `json:"rule"`
	Confidence  float64   `json:"confidence"`
	Confluence  float64   `json:"confluence"`
	VolumeRatio float64   `json:"volumeRatio,omitempty"`
	RSI         float64   `json:"rsi,omitempty"`
	MACDHist    float64   `json:"macdHistogram,omitempty"`
	Targets     []float64 `json:"targets,omitempty"`
	Backtest    *Stats    `json:"backtest,omitempty"`
}

func (m Metadata) encode() string {
	raw, err := json.Marshal(m)
	if err != nil {
		return "{}"
	}
	return string(raw)
}
