package reliability

import (
	"context"
	"errors"
	"time"

	"github.com/vietddude/toolguard/eventlog"
	"github.com/vietddude/toolguard/metrics"
)

// Execute runs op under the full reliability envelope: synchronous config
// validation, a fresh per-attempt timeout guard (a single slow call must not
// consume the whole retry budget), selective retry with exponential backoff,
// and translation of every failure into a FailureReport. It never panics and
// never returns a raw error; callers only ever observe Ok or Err.
//
// Exactly one success or error event is emitted per call, in addition to the
// per-attempt timeout/retry events.
func Execute[T any](ctx context.Context, cfg Config, op Operation[T]) Result[T] {
	cfg = cfg.withDefaults()
	// Operation name travels in each event's own fields; the scope binds
	// only the caller identity.
	log := cfg.Logger.With("", cfg.UserID, cfg.SessionID)
	start := time.Now()

	if err := cfg.validate(); err != nil {
		return settleErr[T](cfg, log, err, time.Since(start))
	}

	policy := RetryPolicy{
		OperationName:  cfg.OperationName,
		MaxRetries:     cfg.MaxRetries,
		RetryDelay:     cfg.RetryDelay,
		RetryableKinds: cfg.RetryableKinds,
		Logger:         log,
	}

	attempts := 0
	value, err := RunWithRetry(ctx, policy, func(ctx context.Context, attemptIndex int) (T, error) {
		attempts = attemptIndex + 1
		v, attemptErr := RunWithTimeout(ctx, cfg.OperationName, cfg.Timeout, op)
		if attemptErr != nil && errors.Is(attemptErr, context.DeadlineExceeded) && ctx.Err() == nil {
			log.Timeout(cfg.OperationName, attempts, cfg.Timeout)
		}
		return v, attemptErr
	})

	duration := time.Since(start)
	if err != nil {
		return settleErr[T](cfg, log, err, duration)
	}

	log.Success(cfg.OperationName, attempts, attempts > 1, duration)
	metrics.InvocationsTotal.WithLabelValues(cfg.OperationName, "success").Inc()
	metrics.InvocationDuration.WithLabelValues(cfg.OperationName).Observe(duration.Seconds())
	return Ok(value)
}

func settleErr[T any](cfg Config, log *eventlog.Logger, err error, duration time.Duration) Result[T] {
	report := NewFailureReport(err, cfg.OperationName, cfg.UserMessage)
	log.Error(cfg.OperationName, string(report.Kind), report.Retryable, duration, nil)
	metrics.InvocationsTotal.WithLabelValues(cfg.OperationName, "error").Inc()
	metrics.ErrorsTotal.WithLabelValues(cfg.OperationName, string(report.Kind)).Inc()
	metrics.InvocationDuration.WithLabelValues(cfg.OperationName).Observe(duration.Seconds())
	return Err[T](report)
}
