package reliability

import (
	"time"

	"github.com/vietddude/toolguard/eventlog"
)

// Defaults applied by Execute when the corresponding Config field is unset.
const (
	DefaultTimeout    = 8 * time.Second
	DefaultRetryDelay = 300 * time.Millisecond
)

// Config holds the per-invocation reliability knobs. It is immutable for the
// duration of one Execute call.
type Config struct {
	// OperationName identifies the wrapped operation in events and records.
	// Required, non-empty.
	OperationName string

	// Timeout bounds each individual attempt. Unset means DefaultTimeout;
	// negative values are rejected before any attempt starts.
	Timeout time.Duration

	// MaxRetries is the number of re-attempts after the first one.
	// 0 means exactly one attempt, the safe default for operations with
	// non-idempotent side effects.
	MaxRetries int

	// RetryDelay is the backoff base; the wait before retry k (1-indexed)
	// is RetryDelay * 2^(k-1). Unset means DefaultRetryDelay.
	RetryDelay time.Duration

	// RetryableKinds is the opt-in set of error kinds worth another attempt.
	// Empty means no failure is retried, regardless of MaxRetries.
	RetryableKinds []ErrorKind

	// UserMessage overrides the per-kind default user-facing message.
	UserMessage string

	// UserID and SessionID are bound into every event emitted for this
	// invocation. Optional.
	UserID    string
	SessionID string

	// Logger receives lifecycle events. Nil falls back to slog.Default().
	Logger *eventlog.Logger
}

func (c Config) withDefaults() Config {
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.RetryDelay == 0 {
		c.RetryDelay = DefaultRetryDelay
	}
	if c.Logger == nil {
		c.Logger = eventlog.New(nil)
	}
	return c
}

// validate runs after withDefaults and rejects malformed configurations
// synchronously, before the first attempt. Retrying a malformed configuration
// can never succeed.
func (c Config) validate() error {
	if c.OperationName == "" {
		return NewValidationError("operationName must not be empty")
	}
	if c.Timeout <= 0 {
		return NewValidationError("timeout must be positive, got %s", c.Timeout)
	}
	if c.MaxRetries < 0 {
		return NewValidationError("maxRetries must not be negative, got %d", c.MaxRetries)
	}
	if c.RetryDelay <= 0 {
		return NewValidationError("retryDelay must be positive, got %s", c.RetryDelay)
	}
	return nil
}

func (c Config) retryable(kind ErrorKind) bool {
	for _, k := range c.RetryableKinds {
		if k == kind {
			return true
		}
	}
	return false
}
