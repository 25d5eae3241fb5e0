package storage

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"

	"StarReport/internal/domain"
	"StarReport/internal/ports"
)

// PostgresRepository persists pipeline runs and their week buckets into
// Postgres for audit and trend queries across runs.
type PostgresRepository struct {
	db      *sql.DB
	builder sq.StatementBuilderType
}

var _ ports.RunRepository = (*PostgresRepository)(nil)

// NewPostgresRepository wires a sql.DB implementation.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{
		db:      db,
		builder: sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// Open dials Postgres and verifies the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// SaveRun upserts the run row and replaces its bucket rows. Re-ingesting
// the same run id must not duplicate rows.
func (r *PostgresRepository) SaveRun(ctx context.Context, run domain.RunResult) error {
	if r.db == nil {
		return nil
	}

	runInsert := r.builder.
		Insert("star_runs").
		Columns("id", "repo", "report_url", "started_at", "finished_at").
		Values(run.ID, run.Repo, run.URL, run.StartedAt, run.FinishedAt).
		Suffix(`ON CONFLICT (id) DO UPDATE
                SET report_url = EXCLUDED.report_url,
                    finished_at = EXCLUDED.finished_at`)

	query, args, err := runInsert.ToSql()
	if err != nil {
		return fmt.Errorf("build run insert: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert run %s: %w", run.ID, err)
	}

	deleteBuckets := r.builder.Delete("star_week_buckets").Where(sq.Eq{"run_id": run.ID})
	query, args, err = deleteBuckets.ToSql()
	if err != nil {
		return fmt.Errorf("build bucket delete: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("clear buckets for run %s: %w", run.ID, err)
	}

	if len(run.Buckets) == 0 {
		return nil
	}

	bucketInsert := r.builder.
		Insert("star_week_buckets").
		Columns("run_id", "week_start", "real_count", "fake_count", "total_count")
	for _, bucket := range run.Buckets {
		bucketInsert = bucketInsert.Values(run.ID, bucket.WeekStart, bucket.Real, bucket.Fake, bucket.Total)
	}

	query, args, err = bucketInsert.ToSql()
	if err != nil {
		return fmt.Errorf("build bucket insert: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert buckets for run %s: %w", run.ID, err)
	}

	return nil
}
