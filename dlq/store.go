package dlq

import (
	"context"
	"time"

	"github.com/raynmakers/vigil/id"
	"github.com/raynmakers/vigil/job"
)

// ListOpts controls pagination and filtering for dead letter list queries.
type ListOpts struct {
	// Limit is the maximum number of entries to return. Zero means no limit.
	Limit int
	// Offset is the number of entries to skip.
	Offset int
	// JobType filters by original job type. Empty means all types.
	JobType job.Type
	// Severity filters by severity. Empty means all severities.
	Severity Severity
}

// CountOpts controls filtering for dead letter count queries.
type CountOpts struct {
	// JobType filters by original job type. Empty means all types.
	JobType job.Type
	// Severity filters by severity. Empty means all severities.
	Severity Severity
}

// Store defines the persistence contract for the dead letter collection.
type Store interface {
	// RouteDeadLetter persists the entry and removes the active job record
	// from the collection for entry.JobType, as one batch where the backend
	// supports it. Returns vigil.ErrDeadLetterExists when an entry for the
	// same JobID is already present. The CleanupStatus reports the fate of
	// the active record; a failed delete is returned as CleanupFailed with
	// a nil error because the entry itself was written.
	RouteDeadLetter(ctx context.Context, entry *Entry) (CleanupStatus, error)

	// GetDeadLetter retrieves an entry by ID. Returns
	// vigil.ErrDeadLetterNotFound when no entry exists.
	GetDeadLetter(ctx context.Context, entryID id.DeadLetterID) (*Entry, error)

	// GetDeadLetterByJobID retrieves the entry for an original job ID.
	// Returns vigil.ErrDeadLetterNotFound when no entry exists.
	GetDeadLetterByJobID(ctx context.Context, jobID string) (*Entry, error)

	// ListDeadLetters returns entries matching the given options, most
	// recently routed first.
	ListDeadLetters(ctx context.Context, opts ListOpts) ([]*Entry, error)

	// MarkReplayed stamps ReplayedAt on an entry.
	MarkReplayed(ctx context.Context, entryID id.DeadLetterID) error

	// PurgeDeadLetters removes entries routed before the given time.
	// Returns the number of entries removed.
	PurgeDeadLetters(ctx context.Context, before time.Time) (int64, error)

	// CountDeadLetters returns the number of entries matching the options.
	CountDeadLetters(ctx context.Context, opts CountOpts) (int64, error)
}
