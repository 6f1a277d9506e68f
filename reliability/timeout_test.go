package reliability

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRunWithTimeout_SettlesFirst(t *testing.T) {
	value, err := RunWithTimeout(context.Background(), "fast", time.Second, func(ctx context.Context) (string, error) {
		return "done", nil
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if value != "done" {
		t.Errorf("value = %q, want done", value)
	}
}

func TestRunWithTimeout_Expiry(t *testing.T) {
	// The operation ignores its context entirely and resolves after 500ms;
	// the guard must still return at the 50ms deadline, and the late
	// resolution must have no observable effect.
	start := time.Now()
	_, err := RunWithTimeout(context.Background(), "slow", 50*time.Millisecond, func(ctx context.Context) (int, error) {
		time.Sleep(500 * time.Millisecond)
		return 42, nil
	})
	elapsed := time.Since(start)

	if err == nil {
		t.Fatal("expected timeout error")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("error = %v, want DeadlineExceeded", err)
	}
	if cls := Classify(err); cls.Kind != KindTimeout || !cls.Retryable {
		t.Errorf("classification = %+v, want retryable timeout", cls)
	}
	if elapsed > 300*time.Millisecond {
		t.Errorf("returned after %s, want ~50ms", elapsed)
	}
}

func TestRunWithTimeout_SignalsCancellation(t *testing.T) {
	signalled := make(chan struct{})
	_, err := RunWithTimeout(context.Background(), "cancellable", 30*time.Millisecond, func(ctx context.Context) (int, error) {
		<-ctx.Done()
		close(signalled)
		return 0, ctx.Err()
	})
	if err == nil {
		t.Fatal("expected timeout error")
	}

	// Cancellation is best-effort but must arrive.
	select {
	case <-signalled:
	case <-time.After(time.Second):
		t.Fatal("operation never observed cancellation")
	}
}

func TestRunWithTimeout_NonPositiveTimeout(t *testing.T) {
	called := false
	_, err := RunWithTimeout(context.Background(), "bad", 0, func(ctx context.Context) (int, error) {
		called = true
		return 0, nil
	})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("error = %v, want validation error", err)
	}
	if called {
		t.Error("operation ran despite invalid timeout")
	}
}

func TestRunWithTimeout_RecoversPanic(t *testing.T) {
	_, err := RunWithTimeout(context.Background(), "panicky", time.Second, func(ctx context.Context) (int, error) {
		panic("unexpected state")
	})
	if err == nil {
		t.Fatal("expected error from panic")
	}
	if cls := Classify(err); cls.Kind != KindUnknown || cls.Retryable {
		t.Errorf("classification = %+v, want non-retryable unknown", cls)
	}
}

func TestRunWithTimeout_CallerCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := RunWithTimeout(ctx, "cancelled", time.Second, func(ctx context.Context) (int, error) {
		<-ctx.Done()
		return 0, ctx.Err()
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want Canceled", err)
	}
}
