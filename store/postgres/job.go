package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/raynmakers/vigil"
	"github.com/raynmakers/vigil/job"
)

// PutJob inserts or replaces an active job record. On replace the original
// created_at is preserved so quota usage counting stays anchored to the
// first insert.
func (s *Store) PutJob(ctx context.Context, j *job.Job) error {
	createdAt := j.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	updatedAt := j.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = createdAt
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO pipeline_jobs (
			job_id, job_type, status, retry_count, inputs, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (job_type, job_id) DO UPDATE SET
			status = EXCLUDED.status,
			retry_count = EXCLUDED.retry_count,
			inputs = EXCLUDED.inputs,
			updated_at = EXCLUDED.updated_at`,
		j.ID, j.Type.String(), string(j.Status), j.RetryCount, j.Inputs,
		createdAt, updatedAt,
	)
	if err != nil {
		return fmt.Errorf("vigil/postgres: put job: %w", err)
	}
	return nil
}

// GetJob retrieves an active job by type and producer-assigned ID.
func (s *Store) GetJob(ctx context.Context, typ job.Type, jobID string) (*job.Job, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT job_id, job_type, status, retry_count, inputs, created_at, updated_at
		FROM pipeline_jobs
		WHERE job_type = $1 AND job_id = $2`,
		typ.String(), jobID,
	)

	j, err := scanJob(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, vigil.ErrJobNotFound
		}
		return nil, fmt.Errorf("vigil/postgres: get job: %w", err)
	}
	return j, nil
}

// DeleteJob removes an active job record.
func (s *Store) DeleteJob(ctx context.Context, typ job.Type, jobID string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM pipeline_jobs WHERE job_type = $1 AND job_id = $2`,
		typ.String(), jobID,
	)
	if err != nil {
		return fmt.Errorf("vigil/postgres: delete job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return vigil.ErrJobNotFound
	}
	return nil
}

// ListStaleJobs returns non-terminal jobs of the given type whose UpdatedAt
// is at or before cutoff, oldest first.
func (s *Store) ListStaleJobs(ctx context.Context, typ job.Type, cutoff time.Time, limit int) ([]*job.Job, error) {
	query := `
		SELECT job_id, job_type, status, retry_count, inputs, created_at, updated_at
		FROM pipeline_jobs
		WHERE job_type = $1
		  AND updated_at <= $2
		  AND status NOT IN ('completed', 'cancelled')
		ORDER BY updated_at ASC`
	args := []any{typ.String(), cutoff}

	if limit > 0 {
		query += " LIMIT $3"
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("vigil/postgres: list stale %s: %w", typ.Collection(), err)
	}
	defer rows.Close()

	return collectJobs(rows)
}

// CountJobs returns the number of active jobs of the given type.
func (s *Store) CountJobs(ctx context.Context, typ job.Type) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM pipeline_jobs WHERE job_type = $1`,
		typ.String(),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("vigil/postgres: count %s: %w", typ.Collection(), err)
	}
	return count, nil
}

func scanJob(row pgx.Row) (*job.Job, error) {
	var (
		j       job.Job
		typeStr string
		status  string
	)
	err := row.Scan(
		&j.ID, &typeStr, &status, &j.RetryCount, &j.Inputs,
		&j.CreatedAt, &j.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	j.Type = job.Type(typeStr)
	j.Status = job.Status(status)
	return &j, nil
}

func collectJobs(rows pgx.Rows) ([]*job.Job, error) {
	var jobs []*job.Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("vigil/postgres: scan job row: %w", err)
		}
		jobs = append(jobs, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("vigil/postgres: iterate job rows: %w", err)
	}
	return jobs, nil
}
