package recorder

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/vietddude/toolguard/eventlog"
)

type stubStore struct {
	mu      sync.Mutex
	rows    []*InvocationLogEntry
	failErr error
}

func (s *stubStore) Insert(_ context.Context, entry *InvocationLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return s.failErr
	}
	s.rows = append(s.rows, entry)
	return nil
}

func (s *stubStore) inserted() []*InvocationLogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*InvocationLogEntry{}, s.rows...)
}

type stubFallback struct {
	mu      sync.Mutex
	parked  []*InvocationLogEntry
	failErr error
}

func (f *stubFallback) Park(_ context.Context, entry *InvocationLogEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failErr != nil {
		return f.failErr
	}
	f.parked = append(f.parked, entry)
	return nil
}

// captureHandler records error events so tests can assert on contained
// failures without a real sink.
type captureHandler struct {
	mu   *sync.Mutex
	recs *[]map[string]any
}

func newCaptureHandler() *captureHandler {
	return &captureHandler{mu: &sync.Mutex{}, recs: &[]map[string]any{}}
}

func (h *captureHandler) Enabled(_ context.Context, _ slog.Level) bool { return true }

func (h *captureHandler) Handle(_ context.Context, r slog.Record) error {
	fields := make(map[string]any, r.NumAttrs())
	r.Attrs(func(a slog.Attr) bool {
		fields[a.Key] = a.Value.Any()
		return true
	})
	h.mu.Lock()
	*h.recs = append(*h.recs, fields)
	h.mu.Unlock()
	return nil
}

func (h *captureHandler) WithAttrs(_ []slog.Attr) slog.Handler { return h }
func (h *captureHandler) WithGroup(_ string) slog.Handler      { return h }

func (h *captureHandler) reasons() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []string
	for _, rec := range *h.recs {
		if meta, ok := rec["metadata"].(map[string]any); ok {
			if reason, ok := meta["reason"].(string); ok {
				out = append(out, reason)
			}
		}
	}
	return out
}

func sampleEntry() *InvocationLogEntry {
	started := time.Now().Add(-time.Second)
	return &InvocationLogEntry{
		OperationName: "food_search",
		StartedAt:     started,
		FinishedAt:    started.Add(420 * time.Millisecond),
		DurationMs:    420,
		Success:       true,
		UserID:        "user-1",
		Metadata:      map[string]any{"query": "pasta"},
	}
}

func TestRecorder_PersistsEntry(t *testing.T) {
	store := &stubStore{}
	rec := New(store)

	rec.Record(sampleEntry())
	rec.Close()

	rows := store.inserted()
	if len(rows) != 1 {
		t.Fatalf("inserted rows = %d, want 1", len(rows))
	}
	row := rows[0]
	if row.ID == "" {
		t.Error("ID must be assigned when empty")
	}
	if row.Category != "food_data" {
		t.Errorf("Category = %q, want food_data (inferred)", row.Category)
	}
	if row.Metadata["query"] != "pasta" {
		t.Errorf("Metadata = %v", row.Metadata)
	}
}

func TestRecorder_DoesNotOverrideExplicitFields(t *testing.T) {
	store := &stubStore{}
	rec := New(store)

	entry := sampleEntry()
	entry.ID = "fixed-id"
	entry.Category = "custom"
	rec.Record(entry)
	rec.Close()

	rows := store.inserted()
	if len(rows) != 1 {
		t.Fatalf("inserted rows = %d, want 1", len(rows))
	}
	if rows[0].ID != "fixed-id" {
		t.Errorf("ID = %q, want fixed-id", rows[0].ID)
	}
	if rows[0].Category != "custom" {
		t.Errorf("Category = %q, want custom", rows[0].Category)
	}
}

func TestRecorder_SanitizesBeforePersisting(t *testing.T) {
	store := &stubStore{}
	rec := New(store)

	entry := sampleEntry()
	entry.Metadata = map[string]any{
		"api_key": "sk-live-1234",
		"note":    strings.Repeat("x", 1500),
	}
	rec.Record(entry)
	rec.Close()

	rows := store.inserted()
	if len(rows) != 1 {
		t.Fatalf("inserted rows = %d, want 1", len(rows))
	}
	meta := rows[0].Metadata
	if _, present := meta["api_key"]; present {
		t.Error("denied key persisted")
	}
	note := meta["note"].(string)
	if !strings.HasSuffix(note, "...[truncated]") {
		t.Errorf("long string not truncated: %d chars", len(note))
	}
	// The caller's map is left untouched.
	if entry.Metadata["api_key"] != "sk-live-1234" {
		t.Error("caller metadata was mutated")
	}
}

func TestRecorder_NilEntryIgnored(t *testing.T) {
	store := &stubStore{}
	rec := New(store)
	rec.Record(nil)
	rec.Close()
	if len(store.inserted()) != 0 {
		t.Error("nil entry must not be persisted")
	}
}

func TestRecorder_MissingStoreContained(t *testing.T) {
	h := newCaptureHandler()
	rec := New(nil, WithLogger(eventlog.New(slog.New(h))))

	rec.Record(sampleEntry())
	rec.Close()

	reasons := h.reasons()
	if len(reasons) != 1 || reasons[0] != "missing_configuration" {
		t.Errorf("contained reasons = %v, want [missing_configuration]", reasons)
	}
}

func TestRecorder_InsertFailureParksInFallback(t *testing.T) {
	h := newCaptureHandler()
	store := &stubStore{failErr: errors.New("connection refused")}
	fb := &stubFallback{}
	rec := New(store,
		WithFallback(fb),
		WithLogger(eventlog.New(slog.New(h))),
		WithWriteTimeout(time.Second),
	)

	rec.Record(sampleEntry())
	rec.Close()

	fb.mu.Lock()
	parked := len(fb.parked)
	fb.mu.Unlock()
	if parked != 1 {
		t.Fatalf("parked = %d, want 1", parked)
	}
	reasons := h.reasons()
	if len(reasons) != 1 || reasons[0] != "insert_failed" {
		t.Errorf("contained reasons = %v, want [insert_failed]", reasons)
	}
}

func TestRecorder_FallbackFailureContained(t *testing.T) {
	h := newCaptureHandler()
	store := &stubStore{failErr: errors.New("connection refused")}
	fb := &stubFallback{failErr: errors.New("redis down")}
	rec := New(store, WithFallback(fb), WithLogger(eventlog.New(slog.New(h))))

	// Must not panic or block; both failures only reach the event log.
	rec.Record(sampleEntry())
	rec.Close()

	reasons := h.reasons()
	if len(reasons) != 2 {
		t.Fatalf("contained reasons = %v, want insert_failed then fallback_failed", reasons)
	}
	if reasons[0] != "insert_failed" || reasons[1] != "fallback_failed" {
		t.Errorf("contained reasons = %v", reasons)
	}
}

func TestRecorder_ConcurrentRecords(t *testing.T) {
	store := &stubStore{}
	rec := New(store)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec.Record(sampleEntry())
		}()
	}
	wg.Wait()
	rec.Close()

	if got := len(store.inserted()); got != 20 {
		t.Errorf("inserted rows = %d, want 20", got)
	}
}
