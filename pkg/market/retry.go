package market

import (
	"context"
	"time"
)

const (
	defaultRetryAttempts = 3
	defaultRetryBase     = 500 * time.Millisecond
	defaultRetryFactor   = 2.0
	defaultRetryCeiling  = 30 * time.Second
)

// RetryConfig encapsulates exponential backoff settings for provider fetches.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Multiplier  float64
	MaxDelay    time.Duration
}

// RetryHandler executes provider calls with backoff. Only rate-limit (429)
// and transient transport (5xx/408/network) errors are retried; validation
// and authorization failures surface immediately.
type RetryHandler struct {
	cfg RetryConfig
}

// NewRetryHandler constructs a handler with sane defaults.
func NewRetryHandler(cfg RetryConfig) *RetryHandler {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultRetryAttempts
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = defaultRetryBase
	}
	if cfg.Multiplier <= 1 {
		cfg.Multiplier = defaultRetryFactor
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = defaultRetryCeiling
	}
	return &RetryHandler{cfg: cfg}
}

// Do runs fn until it succeeds, fails terminally, or exhausts the attempt
// ceiling, in which case the last error is surfaced. The delay before attempt
// n is base * multiplier^(n-1), capped at MaxDelay.
func (r *RetryHandler) Do(ctx context.Context, fn func() error) error {
	delay := r.cfg.BaseDelay
	var lastErr error
	for attempt := 1; attempt <= r.cfg.MaxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !Retryable(err) || attempt == r.cfg.MaxAttempts {
			return lastErr
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay = time.Duration(float64(delay) * r.cfg.Multiplier)
		if delay > r.cfg.MaxDelay {
			delay = r.cfg.MaxDelay
		}
	}
	return lastErr
}
