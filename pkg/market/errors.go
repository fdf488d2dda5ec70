package market

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for provider failures that must never be retried.
var (
	// ErrUnauthorized maps 401/403 responses; the provider is unusable with
	// the configured credentials.
	ErrUnauthorized = errors.New("market: unauthorized")
	// ErrGeoRestricted maps 451 responses.
	ErrGeoRestricted = errors.New("market: geo-restricted")
	// ErrProviderDisabled marks a provider with no credentials configured.
	ErrProviderDisabled = errors.New("market: provider disabled")
	// ErrSymbolNotFound indicates the requested symbol is not routed anywhere.
	ErrSymbolNotFound = errors.New("market: symbol not found")
)

// ValidationError reports a malformed or implausible candle payload. Invalid
// data is never cached and never retried.
type ValidationError struct {
	Provider string
	Field    string
	Reason   string
}

func (e *ValidationError) Error() string {
	if e.Provider == "" {
		return fmt.Sprintf("market: invalid candle data: %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("market: %s: invalid candle data: %s: %s", e.Provider, e.Field, e.Reason)
}

// RateLimitError reports a 429 response. The retry layer waits and retries it
// up to the attempt ceiling.
type RateLimitError struct {
	Provider   string
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("market: %s: rate limited", e.Provider)
}

// TransportError reports a transient transport failure (5xx, 408, network).
// Status is zero for network-level errors.
type TransportError struct {
	Provider string
	Status   int
	Err      error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("market: %s: http status %d: %v", e.Provider, e.Status, e.Err)
	}
	return fmt.Sprintf("market: %s: transport: %v", e.Provider, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// classifyStatus maps an HTTP status code to the typed error taxonomy.
// Client errors other than 429 are terminal; 5xx and 408 are retryable.
func classifyStatus(provider string, status int, body string) error {
	switch {
	case status == 401 || status == 403:
		return fmt.Errorf("%w: %s: status %d", ErrUnauthorized, provider, status)
	case status == 451:
		return fmt.Errorf("%w: %s", ErrGeoRestricted, provider)
	case status == 429:
		return &RateLimitError{Provider: provider}
	case status == 408 || status >= 500:
		return &TransportError{Provider: provider, Status: status, Err: errors.New(body)}
	default:
		return fmt.Errorf("market: %s: http status %d: %s", provider, status, body)
	}
}

// ClassifyStatus exposes the taxonomy to provider clients.
func ClassifyStatus(provider string, status int, body string) error {
	return classifyStatus(provider, status, body)
}

// Retryable reports whether an error belongs to the wait-then-retry classes.
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	var rl *RateLimitError
	if errors.As(err, &rl) {
		return true
	}
	var tr *TransportError
	return errors.As(err, &tr)
}
