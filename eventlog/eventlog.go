// Package eventlog emits structured lifecycle events for reliability-wrapped
// operations. One emitter exists per event kind; records carry fixed field
// names so any structured-log aggregator can consume them. Emission never
// fails the caller: logging is observability, not business logic.
package eventlog

import (
	"context"
	"log/slog"
	"time"

	"github.com/lmittmann/tint"
	"github.com/vietddude/stylelog"
)

// Event kinds. These values appear verbatim in the "event" field.
const (
	EventTimeout        = "timeout"
	EventRetryScheduled = "retry_scheduled"
	EventRetryExhausted = "retry_exhausted"
	EventSuccess        = "success"
	EventError          = "error"
)

// Logger wraps an slog.Logger with the event vocabulary of this layer.
// The zero value is not usable; use New.
type Logger struct {
	log *slog.Logger
}

// New creates a Logger on top of the given slog.Logger.
// A nil argument falls back to slog.Default().
func New(l *slog.Logger) *Logger {
	if l == nil {
		l = slog.Default()
	}
	return &Logger{log: l}
}

// Init installs the process-wide slog handler used by binaries in this
// module. Library consumers that already configure slog should not call it.
func Init(level slog.Level) {
	stylelog.InitDefault(&tint.Options{
		Level:      level,
		TimeFormat: time.RFC3339,
	})
}

// With returns a scoped logger that pre-binds invocation context so repeated
// call sites don't restate it. Empty values are omitted.
func (l *Logger) With(operationName, userID, sessionID string) *Logger {
	attrs := make([]any, 0, 6)
	if operationName != "" {
		attrs = append(attrs, "operationName", operationName)
	}
	if userID != "" {
		attrs = append(attrs, "userId", userID)
	}
	if sessionID != "" {
		attrs = append(attrs, "sessionId", sessionID)
	}
	if len(attrs) == 0 {
		return l
	}
	return &Logger{log: l.log.With(attrs...)}
}

// Timeout records that a single attempt hit its deadline.
func (l *Logger) Timeout(operationName string, attemptNumber int, timeout time.Duration) {
	l.emit(slog.LevelWarn, "Operation attempt timed out",
		"event", EventTimeout,
		"operationName", operationName,
		"attemptNumber", attemptNumber,
		"durationMs", timeout.Milliseconds(),
	)
}

// RetryScheduled records that another attempt will run after the given delay.
func (l *Logger) RetryScheduled(operationName string, attemptNumber, maxRetries int, errorCode string, delay time.Duration) {
	l.emit(slog.LevelWarn, "Retrying operation",
		"event", EventRetryScheduled,
		"operationName", operationName,
		"attemptNumber", attemptNumber,
		"maxRetries", maxRetries,
		"errorCode", errorCode,
		"delayMs", delay.Milliseconds(),
	)
}

// RetryExhausted records that the retry budget was consumed without success.
func (l *Logger) RetryExhausted(operationName string, attempts int, errorCode string) {
	l.emit(slog.LevelError, "Retries exhausted",
		"event", EventRetryExhausted,
		"operationName", operationName,
		"attemptNumber", attempts,
		"errorCode", errorCode,
	)
}

// Success records a settled invocation that produced a value.
func (l *Logger) Success(operationName string, attemptNumber int, hadRetries bool, duration time.Duration) {
	l.emit(slog.LevelInfo, "Operation succeeded",
		"event", EventSuccess,
		"operationName", operationName,
		"attemptNumber", attemptNumber,
		"hadRetries", hadRetries,
		"durationMs", duration.Milliseconds(),
	)
}

// Error records a terminally failed invocation. Metadata is redacted before
// emission; pass nil when there is nothing to attach.
func (l *Logger) Error(operationName, errorCode string, retryable bool, duration time.Duration, metadata map[string]any) {
	attrs := []any{
		"event", EventError,
		"operationName", operationName,
		"errorCode", errorCode,
		"retryable", retryable,
		"durationMs", duration.Milliseconds(),
	}
	if len(metadata) > 0 {
		attrs = append(attrs, "metadata", Redact(metadata))
	}
	l.emit(slog.LevelError, "Operation failed", attrs...)
}

func (l *Logger) emit(level slog.Level, msg string, attrs ...any) {
	// A broken sink must never surface here.
	defer func() { _ = recover() }()
	l.log.Log(context.Background(), level, msg, attrs...)
}
