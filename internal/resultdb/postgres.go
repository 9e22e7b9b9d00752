// Package resultdb persists evaluation results to PostgreSQL.
package resultdb

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ludo-technologies/cloneval/domain"
)

//go:embed schema.sql
var schemaSQL string

const upsertResultSQL = `
	INSERT INTO evaluation_results
	(run_id, clone_type, seed, recall, mrr, map, precision_at_k, queries,
	 ground_truth_path, detector_path, sample_path, error, duration_ms)
	VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb, $8, $9, $10, $11, $12, $13)
	ON CONFLICT (run_id, clone_type, seed) DO UPDATE SET
		recall = EXCLUDED.recall,
		mrr = EXCLUDED.mrr,
		map = EXCLUDED.map,
		precision_at_k = EXCLUDED.precision_at_k,
		queries = EXCLUDED.queries,
		error = EXCLUDED.error,
		duration_ms = EXCLUDED.duration_ms,
		created_at = NOW();
`

// Pool is the subset of *pgxpool.Pool the store needs
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore is a domain.ResultSink backed by PostgreSQL
type PostgresStore struct {
	pool Pool
}

var _ domain.ResultSink = (*PostgresStore)(nil)

// Connect opens a connection pool, pings it and applies the schema
func Connect(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, domain.NewStorageError("unable to connect to results database", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, domain.NewStorageError("results database ping failed", err)
	}

	store := NewPostgresStore(pool)
	if err := store.InitSchema(ctx); err != nil {
		store.pool.Close()
		return nil, err
	}
	return store, nil
}

// NewPostgresStore wraps an existing pool
func NewPostgresStore(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// InitSchema executes the embedded schema DDL
func (s *PostgresStore) InitSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return domain.NewStorageError("failed to apply results schema", err)
	}
	return nil
}

// Append upserts one unit result keyed by (run_id, clone_type, seed)
func (s *PostgresStore) Append(ctx context.Context, result *domain.EvaluationResult) error {
	m := result.Metrics.Rounded()

	precision := make(map[string]float64, len(m.PrecisionAtK))
	for k, v := range m.PrecisionAtK {
		precision[strconv.Itoa(k)] = v
	}
	precisionJSON, err := json.Marshal(precision)
	if err != nil {
		return fmt.Errorf("failed to encode precision: %w", err)
	}

	_, err = s.pool.Exec(ctx, upsertResultSQL,
		result.RunID,
		string(result.Unit.Category),
		result.Unit.Seed,
		m.Recall,
		m.MRR,
		m.MAP,
		string(precisionJSON),
		result.Queries,
		result.Unit.GroundTruthPath,
		result.Unit.DetectorPath,
		result.Unit.SamplePath,
		result.Error,
		result.DurationMs,
	)
	if err != nil {
		return domain.NewStorageError(fmt.Sprintf("failed to store result %s", result.Unit.Name()), err)
	}
	return nil
}

// Close closes the connection pool
func (s *PostgresStore) Close() error {
	if s.pool != nil {
		s.pool.Close()
	}
	return nil
}
