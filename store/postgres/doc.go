// Package postgres implements store.Store using pgx/v5 with raw SQL.
// Job collections map onto one pipeline_jobs table keyed by (job_type,
// job_id); routing runs the entry insert and the active-record delete in
// a single transaction.
package postgres
