package backtest

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"
)

// Report is the JSON artifact of one full backtest pass.
type Report struct {
	GeneratedAt time.Time `json:"generatedAt"`
	WindowSize  int       `json:"windowSize"`
	LookAhead   int       `json:"lookAhead"`
	Results     []Metrics `json:"results"`
}

// WriteReport serializes a run's metrics to path as indented JSON.
func (e *Engine) WriteReport(path string, results []Metrics) error {
	report := Report{
		GeneratedAt: time.Now().UTC(),
		WindowSize:  e.cfg.WindowSize,
		LookAhead:   e.cfg.LookAhead,
		Results:     results,
	}
	raw, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o600)
}

// PrintTable renders run results as an aligned text table.
func PrintTable(w io.Writer, results []Metrics) {
	fmt.Fprintf(w, "%-32s %7s %7s %9s %9s %9s %9s\n",
		"KEY", "TRADES", "WIN%", "EXPECT%", "AVGWIN%", "AVGLOSS%", "MAXDD%")
	for _, m := range results {
		fmt.Fprintf(w, "%-32s %7d %7.1f %9.2f %9.2f %9.2f %9.2f\n",
			m.Key(), m.TotalTrades, round2(m.WinRate*100),
			round2(m.Expectancy), round2(m.AvgWin), round2(m.AvgLoss), round2(m.MaxDrawdown))
	}
}
