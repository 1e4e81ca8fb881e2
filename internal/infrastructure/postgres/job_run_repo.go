package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pawnline/loanengine/internal/domain/model"
	"github.com/pawnline/loanengine/internal/domain/port"
)

var _ port.JobRunRepository = (*JobRunRepo)(nil)

// JobRunRepo records batch job summaries.
type JobRunRepo struct {
	pool *pgxpool.Pool
}

func NewJobRunRepo(pool *pgxpool.Pool) *JobRunRepo {
	return &JobRunRepo{pool: pool}
}

func (r *JobRunRepo) Save(ctx context.Context, run model.JobRun) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO job_runs (id, job, branch_id, as_of, processed, skipped, failed, started_at, finished_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		run.ID, run.Job, run.BranchID, run.AsOf,
		run.Processed, run.Skipped, run.Failed, run.StartedAt, run.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("save job run: %w", err)
	}
	return nil
}

// FindRecent returns the latest runs of job, newest first.
func (r *JobRunRepo) FindRecent(ctx context.Context, job string, limit int) ([]model.JobRun, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, job, branch_id, as_of, processed, skipped, failed, started_at, finished_at
		FROM job_runs
		WHERE job = $1
		ORDER BY started_at DESC
		LIMIT $2`, job, limit)
	if err != nil {
		return nil, fmt.Errorf("query job runs: %w", err)
	}
	defer rows.Close()

	var out []model.JobRun
	for rows.Next() {
		var run model.JobRun
		if err := rows.Scan(
			&run.ID, &run.Job, &run.BranchID, &run.AsOf,
			&run.Processed, &run.Skipped, &run.Failed, &run.StartedAt, &run.FinishedAt,
		); err != nil {
			return nil, fmt.Errorf("scan job run: %w", err)
		}
		out = append(out, run)
	}
	return out, rows.Err()
}
