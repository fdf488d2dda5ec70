package journal

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"signalforge/pkg/strategy"
)

// RunRecord captures one signal-generation batch for offline audit.
type RunRecord struct {
	Timestamp  time.Time         `json:"timestamp"`
	Strategy   strategy.Type     `json:"strategy"`
	RunNumber  int               `json:"run_number"`
	Assets     []string          `json:"assets,omitempty"`
	Timeframes []string          `json:"timeframes,omitempty"`
	Signals    []strategy.Signal `json:"signals,omitempty"`
	Skipped    []Skip            `json:"skipped,omitempty"`
	Duration   time.Duration     `json:"duration_ns,omitempty"`
}

// Skip names an asset/timeframe pair the batch passed over and why.
type Skip struct {
	Asset     string `json:"asset"`
	Timeframe string `json:"timeframe"`
	Reason    string `json:"reason"`
}

// Writer persists run records to a directory as JSON files. Safe for
// concurrent use.
type Writer struct {
	dir   string
	nowFn func() time.Time

	mu  sync.Mutex
	seq int
}

// NewWriter constructs a journal writer.
func NewWriter(dir string) *Writer {
	if dir == "" {
		dir = "journal"
	}
	_ = os.MkdirAll(dir, 0o755)
	return &Writer{dir: dir, nowFn: time.Now}
}

// WriteRun writes a run record to a timestamped JSON file and returns its path.
func (w *Writer) WriteRun(rec *RunRecord) (string, error) {
	if rec == nil {
		return "", fmt.Errorf("journal: nil record")
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = w.nowFn()
	}
	w.mu.Lock()
	w.seq++
	seq := w.seq
	w.mu.Unlock()
	rec.RunNumber = seq
	name := fmt.Sprintf("run_%s_%05d.json", rec.Timestamp.UTC().Format("20060102_150405"), seq)
	path := filepath.Join(w.dir, name)
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}
