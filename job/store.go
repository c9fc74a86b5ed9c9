package job

import (
	"context"
	"time"
)

// Store defines the persistence contract for active job records.
type Store interface {
	// PutJob inserts or replaces an active job record in its type's
	// collection.
	PutJob(ctx context.Context, j *Job) error

	// GetJob retrieves an active job by type and producer-assigned ID.
	// Returns vigil.ErrJobNotFound when no record exists.
	GetJob(ctx context.Context, typ Type, jobID string) (*Job, error)

	// DeleteJob removes an active job record. Returns vigil.ErrJobNotFound
	// when no record exists.
	DeleteJob(ctx context.Context, typ Type, jobID string) error

	// ListStaleJobs returns non-terminal jobs of the given type whose
	// UpdatedAt is at or before cutoff, oldest first, capped at limit.
	// Zero limit means no cap.
	ListStaleJobs(ctx context.Context, typ Type, cutoff time.Time, limit int) ([]*Job, error)

	// CountJobs returns the number of active jobs of the given type.
	CountJobs(ctx context.Context, typ Type) (int64, error)
}
