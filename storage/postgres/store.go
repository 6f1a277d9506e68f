// Package postgres implements the durable invocation-log sink on PostgreSQL.
package postgres

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx via database/sql
	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"

	"github.com/vietddude/toolguard/recorder"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Config holds PostgreSQL connection configuration.
type Config struct {
	URL      string `yaml:"url"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// Store writes invocation-log rows to PostgreSQL.
type Store struct {
	db *sqlx.DB
}

// NewStore opens a connection pool and verifies it.
func NewStore(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("database url is required")
	}

	db, err := sqlx.Open("pgx", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if cfg.MaxConns > 0 {
		db.SetMaxOpenConns(cfg.MaxConns)
	} else {
		db.SetMaxOpenConns(10)
	}
	if cfg.MinConns > 0 {
		db.SetMaxIdleConns(cfg.MinConns)
	} else {
		db.SetMaxIdleConns(2)
	}
	db.SetConnMaxLifetime(time.Hour)
	db.SetConnMaxIdleTime(30 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// Migrate applies the embedded schema migrations.
// Note: goose needs the direct *sql.DB which sqlx.DB wraps.
func (s *Store) Migrate() error {
	goose.SetBaseFS(migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	if err := goose.Up(s.db.DB, "migrations"); err != nil {
		return fmt.Errorf("failed to migrate db: %w", err)
	}
	return nil
}

const insertEntry = `
INSERT INTO invocation_logs
	(id, operation_name, category, started_at, finished_at, duration_ms,
	 success, error_kind, user_id, session_id, provider, metadata)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

// Insert appends one invocation-log row. Rows are never updated or deleted.
func (s *Store) Insert(ctx context.Context, entry *recorder.InvocationLogEntry) error {
	meta, err := json.Marshal(entry.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}
	if entry.Metadata == nil {
		meta = []byte("{}")
	}

	_, err = s.db.ExecContext(ctx, insertEntry,
		entry.ID,
		entry.OperationName,
		entry.Category,
		entry.StartedAt,
		entry.FinishedAt,
		entry.DurationMs,
		entry.Success,
		entry.ErrorKind,
		entry.UserID,
		entry.SessionID,
		entry.Provider,
		meta,
	)
	if err != nil {
		return fmt.Errorf("failed to insert invocation log: %w", err)
	}
	return nil
}

// Health checks if the database is reachable.
func (s *Store) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}
