package reliability

import (
	"context"
	"fmt"
	"time"

	"github.com/vietddude/toolguard/eventlog"
	"github.com/vietddude/toolguard/metrics"
)

// RetryPolicy drives RunWithRetry. Retryability is opt-in per call via
// RetryableKinds: operations with non-idempotent side effects declare an
// empty set and get exactly one attempt.
type RetryPolicy struct {
	OperationName  string
	MaxRetries     int
	RetryDelay     time.Duration
	RetryableKinds []ErrorKind
	Logger         *eventlog.Logger
}

func (p RetryPolicy) allows(kind ErrorKind) bool {
	for _, k := range p.RetryableKinds {
		if k == kind {
			return true
		}
	}
	return false
}

// RunWithRetry repeats attempt with exponential backoff, but only for error
// kinds the policy marks retryable. Attempt indices are zero-based; the wait
// before retry k (1-indexed) is RetryDelay * 2^(k-1). The coordinator imposes
// no deadline of its own; per-attempt deadlines belong to the caller.
func RunWithRetry[T any](ctx context.Context, policy RetryPolicy, attempt func(ctx context.Context, attemptIndex int) (T, error)) (T, error) {
	var zero T
	if policy.MaxRetries < 0 {
		return zero, NewValidationError("maxRetries must not be negative, got %d", policy.MaxRetries)
	}
	if policy.RetryDelay <= 0 {
		return zero, NewValidationError("retryDelay must be positive, got %s", policy.RetryDelay)
	}
	log := policy.Logger
	if log == nil {
		log = eventlog.New(nil)
	}

	for attemptIndex := 0; ; attemptIndex++ {
		value, err := attempt(ctx, attemptIndex)
		if err == nil {
			return value, nil
		}

		cls := Classify(err)
		if !policy.allows(cls.Kind) {
			return zero, err
		}

		if attemptIndex == policy.MaxRetries {
			if attemptIndex > 0 {
				log.RetryExhausted(policy.OperationName, attemptIndex+1, string(cls.Kind))
			}
			return zero, fmt.Errorf("operation %q failed after %d attempts: %w",
				policy.OperationName, attemptIndex+1, err)
		}

		delay := policy.RetryDelay << attemptIndex
		log.RetryScheduled(policy.OperationName, attemptIndex+1, policy.MaxRetries, string(cls.Kind), delay)
		metrics.RetriesTotal.WithLabelValues(policy.OperationName).Inc()

		// Each wait owns its own timer; timers are never pooled.
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, fmt.Errorf("retry wait for %q interrupted: %w", policy.OperationName, ctx.Err())
		case <-timer.C:
		}
	}
}
