package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/zeromicro/go-zero/core/conf"

	"signalforge/pkg/confkit"
	marketpkg "signalforge/pkg/market"
)

// CacheTTL holds the per-volatility-class cache lifetimes in seconds. Ranged
// covers historical time-range queries, which never change once past. These
// values are the defaults for providers whose market config omits cache_ttl.
type CacheTTL struct {
	Short  int `json:",default=60"`
	Medium int `json:",default=300"`
	Long   int `json:",default=900"`
	Ranged int `json:",default=3600"`
}

// StrategyConf drives the signal scheduler.
type StrategyConf struct {
	Assets             []string `json:",optional"`
	DailyTimeframes    []string `json:",optional"`
	ScalpingTimeframes []string `json:",optional"`
	MaxSignals         int      `json:",default=3"`
	IntervalMinutes    int      `json:",default=15"`
}

// BacktestConf tunes the walk-forward engine.
type BacktestConf struct {
	WindowSize    int     `json:",default=200"`
	Step          int     `json:",default=5"`
	LookAhead     int     `json:",default=50"`
	InitialEquity float64 `json:",default=10000"`
	Bars          int     `json:",default=1000"`
	ReportPath    string  `json:",optional"`
}

type Config struct {
	// Env indicates the running environment: test | dev | prod.
	Env        string       `json:",default=test"`
	JournalDir string       `json:",optional"`
	TTL        CacheTTL
	Strategy   StrategyConf
	Backtest   BacktestConf

	Market confkit.Section[marketpkg.Config] `json:",optional"`

	mainPath string
	baseDir  string
}

func (c *Config) IsTestEnv() bool {
	return c.Env == "test" || c.Env == ""
}

func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}
	return cfg
}

func Load(path string) (*Config, error) {
	confkit.LoadDotenvOnce()

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path %s: %w", path, err)
	}

	var cfg Config
	if err := conf.Load(absPath, &cfg, conf.UseEnv()); err != nil {
		return nil, fmt.Errorf("load config %s: %w", absPath, err)
	}

	cfg.mainPath = absPath
	cfg.baseDir = filepath.Dir(absPath)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.hydrateSections(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Env)) {
	case "", "test", "dev", "prod":
		if strings.TrimSpace(c.Env) == "" {
			c.Env = "test"
		}
	default:
		return errors.New("config: env must be one of test|dev|prod")
	}
	if err := c.validateTTL(); err != nil {
		return err
	}
	if c.Strategy.MaxSignals <= 0 {
		return errors.New("config: strategy.maxSignals must be positive")
	}
	if c.Strategy.IntervalMinutes <= 0 {
		return errors.New("config: strategy.intervalMinutes must be positive")
	}
	if c.Backtest.WindowSize <= 0 || c.Backtest.Bars <= c.Backtest.WindowSize {
		return errors.New("config: backtest.bars must exceed backtest.windowSize")
	}
	return nil
}

func (c *Config) validateTTL() error {
	if c.TTL.Short <= 0 {
		return errors.New("config: ttl.short must be positive")
	}
	if c.TTL.Medium <= 0 {
		return errors.New("config: ttl.medium must be positive")
	}
	if c.TTL.Long <= 0 {
		return errors.New("config: ttl.long must be positive")
	}
	if c.TTL.Ranged <= 0 {
		return errors.New("config: ttl.ranged must be positive")
	}
	return nil
}

func (c *Config) hydrateSections() error {
	if err := c.Market.Hydrate(c.baseDir, marketpkg.LoadConfig); err != nil {
		return fmt.Errorf("load market config: %w", err)
	}
	c.applyTTLDefaults()
	return nil
}

// applyTTLDefaults backfills provider cache TTLs from the app-level TTL
// section. Per-provider settings in the market config win field by field.
func (c *Config) applyTTLDefaults() {
	if c.Market.Value == nil {
		return
	}
	for _, provider := range c.Market.Value.Providers {
		if provider.CacheTTL.Short == 0 {
			provider.CacheTTL.Short = c.TTL.Short
		}
		if provider.CacheTTL.Medium == 0 {
			provider.CacheTTL.Medium = c.TTL.Medium
		}
		if provider.CacheTTL.Long == 0 {
			provider.CacheTTL.Long = c.TTL.Long
		}
		if provider.CacheTTL.Ranged == 0 {
			provider.CacheTTL.Ranged = c.TTL.Ranged
		}
	}
}

func (c *Config) MainPath() string {
	return c.mainPath
}

func (c *Config) BaseDir() string {
	return c.baseDir
}
