package cli

import (
	"fmt"
	"strings"

	"github.com/zeromicro/go-zero/core/logx"

	"signalforge/internal/config"
	"signalforge/pkg/confkit"
)

// ConfigSummaryLines returns human readable lines describing the loaded app config.
func ConfigSummaryLines(cfg *config.Config) []string {
	if cfg == nil {
		return []string{"Configuration: <nil>"}
	}

	lines := []string{
		fmt.Sprintf("Environment: %s", cfg.Env),
		fmt.Sprintf("Journal: %s", presence(strings.TrimSpace(cfg.JournalDir) != "")),
		fmt.Sprintf("TTL (short/medium/long/ranged): %ds / %ds / %ds / %ds",
			cfg.TTL.Short, cfg.TTL.Medium, cfg.TTL.Long, cfg.TTL.Ranged),
		fmt.Sprintf("Assets: %s", listOrDefault(cfg.Strategy.Assets)),
		fmt.Sprintf("Daily timeframes: %s", listOrDefault(cfg.Strategy.DailyTimeframes)),
		fmt.Sprintf("Scalping timeframes: %s", listOrDefault(cfg.Strategy.ScalpingTimeframes)),
		fmt.Sprintf("Backtest window/step/lookahead: %d / %d / %d",
			cfg.Backtest.WindowSize, cfg.Backtest.Step, cfg.Backtest.LookAhead),
		sectionLine("Market config", cfg.Market),
	}

	return lines
}

// LogConfigSummary emits the configuration summary using logx.
func LogConfigSummary(cfg *config.Config) {
	lines := ConfigSummaryLines(cfg)
	if len(lines) == 0 {
		return
	}
	logx.Info("configuration summary")
	for _, line := range lines {
		logx.Infof("config • %s", line)
	}
}

func presence(ok bool) string {
	if ok {
		return "configured"
	}
	return "not configured"
}

func listOrDefault(items []string) string {
	if len(items) == 0 {
		return "defaults"
	}
	return strings.Join(items, ", ")
}

func sectionLine[T any](name string, section confkit.Section[T]) string {
	switch {
	case strings.TrimSpace(section.File) != "":
		return fmt.Sprintf("%s: %s", name, section.File)
	case section.Value != nil:
		return fmt.Sprintf("%s: inline", name)
	default:
		return fmt.Sprintf("%s: not configured", name)
	}
}
