// Package recorder persists invocation outcomes for later aggregation.
// Recording is fire-and-forget: internal failures are logged and swallowed so
// a broken sink can never fail the caller or alter an already-returned result.
package recorder

import (
	"context"
	"time"
)

// InvocationLogEntry is one append-only row describing a settled invocation.
// This layer creates entries exactly once and never updates or deletes them.
type InvocationLogEntry struct {
	ID            string         `json:"id" db:"id"`
	OperationName string         `json:"operation_name" db:"operation_name"`
	Category      string         `json:"category" db:"category"`
	StartedAt     time.Time      `json:"started_at" db:"started_at"`
	FinishedAt    time.Time      `json:"finished_at" db:"finished_at"`
	DurationMs    int64          `json:"duration_ms" db:"duration_ms"`
	Success       bool           `json:"success" db:"success"`
	ErrorKind     string         `json:"error_kind,omitempty" db:"error_kind"`
	UserID        string         `json:"user_id,omitempty" db:"user_id"`
	SessionID     string         `json:"session_id,omitempty" db:"session_id"`
	Provider      string         `json:"provider,omitempty" db:"provider"`
	Metadata      map[string]any `json:"metadata,omitempty" db:"-"`
}

// Store is the injected persistence collaborator. Rows are independent and
// append-only, so concurrent writers never need to coordinate.
type Store interface {
	Insert(ctx context.Context, entry *InvocationLogEntry) error
}
