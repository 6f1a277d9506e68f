package reliability

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"
)

// Operation is a unit of asynchronous work wrapped by this layer. The context
// carries the per-attempt deadline and doubles as the cancellation handle:
// the operation is expected to observe ctx.Done() and release its resources.
type Operation[T any] func(ctx context.Context) (T, error)

// RunWithTimeout bounds one attempt of op to the given deadline. On expiry
// the attempt context is cancelled so underlying I/O can abort, and the
// timeout failure is surfaced immediately; the abort is best-effort cleanup,
// never a precondition for returning. A late result is discarded.
func RunWithTimeout[T any](ctx context.Context, operationName string, timeout time.Duration, op Operation[T]) (T, error) {
	var zero T
	if timeout <= 0 {
		return zero, NewValidationError("timeout must be positive, got %s", timeout)
	}

	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type outcome struct {
		value T
		err   error
	}
	// Buffered so the attempt goroutine can always complete its send and
	// exit, even after the deadline path has returned.
	done := make(chan outcome, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: &panicError{value: r, stack: debug.Stack()}}
			}
		}()
		value, err := op(attemptCtx)
		done <- outcome{value: value, err: err}
	}()

	select {
	case out := <-done:
		return out.value, out.err
	case <-attemptCtx.Done():
		if ctx.Err() != nil {
			// The caller's context ended, not the per-attempt deadline.
			return zero, fmt.Errorf("operation %q cancelled: %w", operationName, ctx.Err())
		}
		return zero, fmt.Errorf("operation %q timed out after %s: %w",
			operationName, timeout, context.DeadlineExceeded)
	}
}
