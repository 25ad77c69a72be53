// Package store keeps a PostgreSQL history of search and apply runs.
package store

import (
	"context"
	"fmt"
	"time"

	"locale-tool/internal/textutil"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

var schema = []string{`
CREATE TABLE IF NOT EXISTS locale_runs (
	id            UUID PRIMARY KEY,
	file_path     TEXT NOT NULL,
	content_hash  TEXT NOT NULL,
	operation     TEXT NOT NULL,
	template_kind TEXT NOT NULL DEFAULT '',
	replacements  INTEGER NOT NULL DEFAULT 0,
	untemplated   INTEGER NOT NULL DEFAULT 0,
	success       BOOLEAN NOT NULL,
	error         TEXT NOT NULL DEFAULT '',
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
	`CREATE INDEX IF NOT EXISTS locale_runs_created_at_idx ON locale_runs (created_at DESC)`,
}

// Run is one recorded search or apply.
type Run struct {
	ID           uuid.UUID `json:"id"`
	FilePath     string    `json:"file_path"`
	ContentHash  string    `json:"content_hash"`
	Operation    string    `json:"operation"`
	TemplateKind string    `json:"template_kind,omitempty"`
	Replacements int       `json:"replacements"`
	Untemplated  int       `json:"untemplated"`
	Success      bool      `json:"success"`
	Error        string    `json:"error,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// NewRun starts a Run for content read from filePath. An empty content
// leaves ContentHash empty.
func NewRun(filePath, operation, content string) Run {
	r := Run{
		ID:        uuid.New(),
		FilePath:  filePath,
		Operation: operation,
		CreatedAt: time.Now().UTC(),
	}
	if content != "" {
		r.ContentHash = textutil.Hash(content)
	}
	return r
}

// RunStore persists runs.
type RunStore struct {
	pool *pgxpool.Pool
}

// NewRunStore creates a store on an existing pool.
func NewRunStore(pool *pgxpool.Pool) *RunStore {
	return &RunStore{pool: pool}
}

// Connect opens and pings a pool for databaseURL.
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect PostgreSQL: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping PostgreSQL: %w", err)
	}
	log.Info().Msg("Connected to PostgreSQL")
	return pool, nil
}

// EnsureSchema creates the runs table if needed.
func (s *RunStore) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("create runs schema: %w", err)
		}
	}
	return nil
}

// Record inserts a run.
func (s *RunStore) Record(ctx context.Context, r Run) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO locale_runs
			(id, file_path, content_hash, operation, template_kind, replacements, untemplated, success, error, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, r.ID, r.FilePath, r.ContentHash, r.Operation, r.TemplateKind,
		r.Replacements, r.Untemplated, r.Success, r.Error, r.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", r.ID, err)
	}
	return nil
}

// Recent returns the latest runs, newest first.
func (s *RunStore) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, file_path, content_hash, operation, template_kind,
		       replacements, untemplated, success, error, created_at
		FROM locale_runs
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}

	runs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Run, error) {
		var r Run
		err := row.Scan(&r.ID, &r.FilePath, &r.ContentHash, &r.Operation, &r.TemplateKind,
			&r.Replacements, &r.Untemplated, &r.Success, &r.Error, &r.CreatedAt)
		return r, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan runs: %w", err)
	}
	return runs, nil
}

// Recorder records runs. Use Discard when history is disabled.
type Recorder interface {
	Record(ctx context.Context, r Run) error
}

type discard struct{}

func (discard) Record(context.Context, Run) error { return nil }

// Discard drops every run.
var Discard Recorder = discard{}
