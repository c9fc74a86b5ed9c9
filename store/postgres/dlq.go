package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/raynmakers/vigil"
	"github.com/raynmakers/vigil/dlq"
	"github.com/raynmakers/vigil/id"
	"github.com/raynmakers/vigil/job"
)

// RouteDeadLetter persists the entry and removes the active job record in
// one transaction: either both land or neither does. The unique constraint
// on job_id makes the insert the idempotency gate under concurrency.
func (s *Store) RouteDeadLetter(ctx context.Context, entry *dlq.Entry) (dlq.CleanupStatus, error) {
	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	updatedAt := entry.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = createdAt
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return dlq.CleanupNone, fmt.Errorf("vigil/postgres: begin route: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	_, err = tx.Exec(ctx, `
		INSERT INTO dead_letters (
			id, job_id, job_type, severity, recovery_priority,
			error_type, error_message, retry_count, last_attempt_at, inputs,
			metadata, recovery_hints, routed_at, processing_attempts, replayed_at,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15,
			$16, $17
		)`,
		entry.ID.String(), entry.JobID, entry.JobType.String(),
		string(entry.Severity), string(entry.Priority),
		entry.Failure.ErrorType, entry.Failure.ErrorMessage,
		entry.Failure.RetryCount, entry.Failure.LastAttemptAt, entry.Failure.Inputs,
		entry.Metadata, entry.Hints, entry.RoutedAt, entry.Attempts, entry.ReplayedAt,
		createdAt, updatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation on job_id
			return dlq.CleanupNone, vigil.ErrDeadLetterExists
		}
		return dlq.CleanupNone, fmt.Errorf("vigil/postgres: route dead letter: %w", err)
	}

	tag, err := tx.Exec(ctx,
		`DELETE FROM pipeline_jobs WHERE job_type = $1 AND job_id = $2`,
		entry.JobType.String(), entry.JobID,
	)
	if err != nil {
		return dlq.CleanupNone, fmt.Errorf("vigil/postgres: route cleanup: %w", err)
	}
	cleanup := dlq.CleanupSkipped
	if tag.RowsAffected() > 0 {
		cleanup = dlq.CleanupDeleted
	}

	if err := tx.Commit(ctx); err != nil {
		return dlq.CleanupNone, fmt.Errorf("vigil/postgres: commit route: %w", err)
	}
	return cleanup, nil
}

// GetDeadLetter retrieves an entry by ID.
func (s *Store) GetDeadLetter(ctx context.Context, entryID id.DeadLetterID) (*dlq.Entry, error) {
	row := s.pool.QueryRow(ctx,
		selectDeadLetter+` WHERE id = $1`,
		entryID.String(),
	)

	e, err := scanDeadLetter(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, vigil.ErrDeadLetterNotFound
		}
		return nil, fmt.Errorf("vigil/postgres: get dead letter: %w", err)
	}
	return e, nil
}

// GetDeadLetterByJobID retrieves the entry for an original job ID.
func (s *Store) GetDeadLetterByJobID(ctx context.Context, jobID string) (*dlq.Entry, error) {
	row := s.pool.QueryRow(ctx,
		selectDeadLetter+` WHERE job_id = $1`,
		jobID,
	)

	e, err := scanDeadLetter(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, vigil.ErrDeadLetterNotFound
		}
		return nil, fmt.Errorf("vigil/postgres: get dead letter by job: %w", err)
	}
	return e, nil
}

// ListDeadLetters returns entries matching the given options, most recently
// routed first.
func (s *Store) ListDeadLetters(ctx context.Context, opts dlq.ListOpts) ([]*dlq.Entry, error) {
	query := selectDeadLetter + ` WHERE 1=1`
	args := []any{}
	argIdx := 1

	if opts.JobType != "" {
		query += fmt.Sprintf(" AND job_type = $%d", argIdx)
		args = append(args, opts.JobType.String())
		argIdx++
	}
	if opts.Severity != "" {
		query += fmt.Sprintf(" AND severity = $%d", argIdx)
		args = append(args, string(opts.Severity))
		argIdx++
	}

	query += " ORDER BY routed_at DESC"

	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, opts.Limit)
		argIdx++
	}
	if opts.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIdx)
		args = append(args, opts.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("vigil/postgres: list dead letters: %w", err)
	}
	defer rows.Close()

	var entries []*dlq.Entry
	for rows.Next() {
		e, scanErr := scanDeadLetter(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("vigil/postgres: scan dead letter row: %w", scanErr)
		}
		entries = append(entries, e)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("vigil/postgres: iterate dead letter rows: %w", err)
	}
	return entries, nil
}

// MarkReplayed stamps ReplayedAt on an entry.
func (s *Store) MarkReplayed(ctx context.Context, entryID id.DeadLetterID) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE dead_letters SET replayed_at = NOW(), updated_at = NOW() WHERE id = $1`,
		entryID.String(),
	)
	if err != nil {
		return fmt.Errorf("vigil/postgres: mark replayed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return vigil.ErrDeadLetterNotFound
	}
	return nil
}

// PurgeDeadLetters removes entries with RoutedAt before the given time.
// Returns the number of entries removed.
func (s *Store) PurgeDeadLetters(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM dead_letters WHERE routed_at < $1`,
		before,
	)
	if err != nil {
		return 0, fmt.Errorf("vigil/postgres: purge dead letters: %w", err)
	}
	return tag.RowsAffected(), nil
}

// CountDeadLetters returns the number of entries matching the options.
func (s *Store) CountDeadLetters(ctx context.Context, opts dlq.CountOpts) (int64, error) {
	query := `SELECT COUNT(*) FROM dead_letters WHERE 1=1`
	args := []any{}
	argIdx := 1

	if opts.JobType != "" {
		query += fmt.Sprintf(" AND job_type = $%d", argIdx)
		args = append(args, opts.JobType.String())
		argIdx++
	}
	if opts.Severity != "" {
		query += fmt.Sprintf(" AND severity = $%d", argIdx)
		args = append(args, string(opts.Severity))
	}

	var count int64
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("vigil/postgres: count dead letters: %w", err)
	}
	return count, nil
}

const selectDeadLetter = `
	SELECT
		id, job_id, job_type, severity, recovery_priority,
		error_type, error_message, retry_count, last_attempt_at, inputs,
		metadata, recovery_hints, routed_at, processing_attempts, replayed_at,
		created_at, updated_at
	FROM dead_letters`

func scanDeadLetter(row pgx.Row) (*dlq.Entry, error) {
	var (
		e        dlq.Entry
		idStr    string
		typeStr  string
		severity string
		priority string
	)
	err := row.Scan(
		&idStr, &e.JobID, &typeStr, &severity, &priority,
		&e.Failure.ErrorType, &e.Failure.ErrorMessage,
		&e.Failure.RetryCount, &e.Failure.LastAttemptAt, &e.Failure.Inputs,
		&e.Metadata, &e.Hints, &e.RoutedAt, &e.Attempts, &e.ReplayedAt,
		&e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	parsedID, parseErr := id.Parse(idStr)
	if parseErr != nil {
		return nil, fmt.Errorf("vigil/postgres: parse dead letter id %q: %w", idStr, parseErr)
	}
	e.ID = parsedID
	e.JobType = job.Type(typeStr)
	e.Severity = dlq.Severity(severity)
	e.Priority = dlq.Priority(priority)

	return &e, nil
}
