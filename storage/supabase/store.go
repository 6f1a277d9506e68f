// Package supabase implements the invocation-log sink over the Supabase
// PostgREST API. It needs exactly two externally supplied values: the project
// endpoint and a service-role key. Their absence is a configuration error the
// recorder contains; nothing here ever reaches a tool caller.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/vietddude/toolguard/recorder"
	"github.com/vietddude/toolguard/reliability"
)

// DefaultTable is the append-only table receiving invocation rows.
const DefaultTable = "invocation_logs"

// Config holds the REST sink configuration. URL and ServiceRoleKey default
// from the SUPABASE_URL / SUPABASE_SERVICE_ROLE_KEY environment when loaded
// through the config package.
type Config struct {
	URL            string        `yaml:"url"`
	ServiceRoleKey string        `yaml:"service_role_key"`
	Table          string        `yaml:"table"`
	Timeout        time.Duration `yaml:"timeout"`
}

// Store writes invocation-log rows through PostgREST.
type Store struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

// NewStore validates the configuration and builds the REST sink.
func NewStore(cfg Config) (*Store, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("supabase url is required")
	}
	if cfg.ServiceRoleKey == "" {
		return nil, fmt.Errorf("supabase service role key is required")
	}
	table := cfg.Table
	if table == "" {
		table = DefaultTable
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	return &Store{
		endpoint: fmt.Sprintf("%s/rest/v1/%s", cfg.URL, table),
		apiKey:   cfg.ServiceRoleKey,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}, nil
}

// Insert appends one row via PostgREST.
func (s *Store) Insert(ctx context.Context, entry *recorder.InvocationLogEntry) error {
	payload, err := json.Marshal([]*recorder.InvocationLogEntry{entry})
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", s.apiKey)
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Prefer", "return=minimal")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("insert call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("insert rejected: %w", reliability.NewUpstreamError(resp.StatusCode, string(body)))
	}
	return nil
}

// Health probes the REST endpoint.
func (s *Store) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, s.endpoint, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("apikey", s.apiKey)
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("health call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return reliability.NewUpstreamError(resp.StatusCode, "")
	}
	return nil
}

// Close cleans up idle connections.
func (s *Store) Close() error {
	s.httpClient.CloseIdleConnections()
	return nil
}
