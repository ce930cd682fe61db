package pg

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/DjordjeVuckovic/perf-automation/internal/perf/result"
	"github.com/jackc/pgx/v5"
)

const schema = `
CREATE TABLE IF NOT EXISTS perf_results (
    id                      UUID PRIMARY KEY,
    run_id                  UUID NOT NULL,
    service                 TEXT NOT NULL,
    test                    TEXT NOT NULL,
    language                TEXT NOT NULL,
    language_version        TEXT NOT NULL,
    project                 TEXT NOT NULL,
    language_test_name      TEXT NOT NULL,
    arguments               TEXT NOT NULL,
    primary_package         TEXT NOT NULL,
    primary_package_version TEXT NOT NULL,
    package_versions        JSONB NOT NULL,
    started_at              TIMESTAMPTZ NOT NULL,
    ended_at                TIMESTAMPTZ,
    setup_exception         TEXT NOT NULL DEFAULT '',
    ops_per_second_max      DOUBLE PRECISION,
    iterations              JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS perf_results_run_id_idx ON perf_results (run_id);
`

const upsert = `
INSERT INTO perf_results (
    id, run_id, service, test, language, language_version, project, language_test_name, arguments,
    primary_package, primary_package_version, package_versions, started_at, ended_at, setup_exception,
    ops_per_second_max, iterations
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
ON CONFLICT (id) DO UPDATE SET
    ended_at = EXCLUDED.ended_at,
    setup_exception = EXCLUDED.setup_exception,
    ops_per_second_max = EXCLUDED.ops_per_second_max,
    iterations = EXCLUDED.iterations
`

// Sink stores finished results in the perf_results table.
type Sink struct {
	pool *ConnectionPool
}

// NewSink connects and makes sure the results table exists.
func NewSink(ctx context.Context, cfg PoolConfig) (*Sink, error) {
	pool, err := NewConnectionPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	s := &Sink{pool: pool}
	if err := s.EnsureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *Sink) Name() string { return "pg" }

func (s *Sink) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.GetConn().Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create perf_results table: %w", err)
	}
	return nil
}

func (s *Sink) Publish(ctx context.Context, res *result.Result) error {
	args, err := rowArgs(res)
	if err != nil {
		return err
	}
	if _, err := s.pool.GetConn().Exec(ctx, upsert, args...); err != nil {
		return fmt.Errorf("failed to upsert result %s: %w", res.ID, err)
	}
	return nil
}

// PublishAll upserts a whole collection in one batch round trip.
func (s *Sink) PublishAll(ctx context.Context, results []*result.Result) error {
	if len(results) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, res := range results {
		args, err := rowArgs(res)
		if err != nil {
			return err
		}
		batch.Queue(upsert, args...)
	}

	br := s.pool.GetConn().SendBatch(ctx, batch)
	for _, res := range results {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return fmt.Errorf("failed to upsert result %s: %w", res.ID, err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("failed to close batch: %w", err)
	}

	slog.Info("Results stored", "sink", s.Name(), "count", len(results))
	return nil
}

func (s *Sink) Close() error {
	s.pool.Close()
	return nil
}

func rowArgs(res *result.Result) ([]any, error) {
	packageVersions, err := json.Marshal(res.PackageVersions)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal package versions: %w", err)
	}
	iterations, err := json.Marshal(res.Iterations)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal iterations: %w", err)
	}

	var best *float64
	if v, ok := res.OperationsPerSecondMax(); ok {
		best = &v
	}

	return []any{
		res.ID,
		res.RunID,
		res.Service,
		res.Test,
		string(res.Language),
		res.LanguageVersion,
		res.Project,
		res.LanguageTestName,
		res.Arguments,
		res.PrimaryPackage,
		res.PrimaryPackageVersion(),
		packageVersions,
		res.Start,
		res.End,
		res.SetupException,
		best,
		iterations,
	}, nil
}
