package recorder

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vietddude/toolguard/eventlog"
	"github.com/vietddude/toolguard/metrics"
)

// recordOperation names the recorder's own writes in error events.
const recordOperation = "record_invocation"

// defaultWriteTimeout bounds a single background write.
const defaultWriteTimeout = 10 * time.Second

// Fallback parks entries that the primary store rejected, for a later drain.
type Fallback interface {
	Park(ctx context.Context, entry *InvocationLogEntry) error
}

// Recorder writes invocation outcomes to an injected Store on detached
// goroutines. Every internal failure — missing configuration, write failure,
// marshal error — is routed to the event logger and swallowed.
type Recorder struct {
	store        Store
	fallback     Fallback
	log          *eventlog.Logger
	writeTimeout time.Duration

	wg sync.WaitGroup
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithFallback parks entries in the given buffer when the primary store
// rejects them.
func WithFallback(fb Fallback) Option {
	return func(r *Recorder) { r.fallback = fb }
}

// WithLogger routes contained failures to the given event logger.
func WithLogger(log *eventlog.Logger) Option {
	return func(r *Recorder) { r.log = log }
}

// WithWriteTimeout bounds each background write.
func WithWriteTimeout(d time.Duration) Option {
	return func(r *Recorder) { r.writeTimeout = d }
}

// New creates a Recorder. A nil store is tolerated: recording then degrades
// to an error event per call, which keeps misconfiguration contained instead
// of failing callers.
func New(store Store, opts ...Option) *Recorder {
	r := &Recorder{
		store:        store,
		log:          eventlog.New(nil),
		writeTimeout: defaultWriteTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record persists entry asynchronously and returns immediately. The caller's
// continuation never observes the write's fate; failures only reach the event
// logger. Category inference and metadata sanitization run before persistence.
func (r *Recorder) Record(entry *InvocationLogEntry) {
	if entry == nil {
		return
	}
	if r.store == nil {
		r.containFailure("missing_configuration", entry.OperationName, nil)
		return
	}

	row := *entry
	if row.ID == "" {
		row.ID = uuid.New().String()
	}
	if row.Category == "" {
		row.Category = InferCategory(row.OperationName)
	}
	row.Metadata = SanitizeMetadata(row.Metadata)

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer func() { _ = recover() }()

		ctx, cancel := context.WithTimeout(context.Background(), r.writeTimeout)
		defer cancel()

		err := r.store.Insert(ctx, &row)
		if err == nil {
			return
		}
		r.containFailure("insert_failed", row.OperationName, err)

		if r.fallback == nil {
			return
		}
		if parkErr := r.fallback.Park(ctx, &row); parkErr != nil {
			r.containFailure("fallback_failed", row.OperationName, parkErr)
		}
	}()
}

// Close waits for in-flight writes to settle. Call it on shutdown.
func (r *Recorder) Close() {
	r.wg.Wait()
}

func (r *Recorder) containFailure(reason, operationName string, err error) {
	metrics.RecorderFailuresTotal.WithLabelValues(reason).Inc()
	meta := map[string]any{"reason": reason, "sourceOperation": operationName}
	if err != nil {
		meta["cause"] = err.Error()
	}
	r.log.Error(recordOperation, reason, false, 0, meta)
}
