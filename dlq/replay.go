package dlq

import (
	"context"
	"fmt"

	"github.com/raynmakers/vigil"
	"github.com/raynmakers/vigil/id"
	"github.com/raynmakers/vigil/job"
)

// Replay re-creates the original job for a dead letter entry and stamps the
// entry as replayed. The job restarts in queued status with a zero retry
// count and the inputs captured at failure time. The entry is kept for
// audit until purged.
func (r *Router) Replay(ctx context.Context, entryID id.DeadLetterID) (*job.Job, error) {
	entry, err := r.store.GetDeadLetter(ctx, entryID)
	if err != nil {
		return nil, err
	}

	j := &job.Job{
		Entity: vigil.NewEntity(),
		ID:     entry.JobID,
		Type:   entry.JobType,
		Status: job.StatusQueued,
		Inputs: entry.Failure.Inputs,
	}

	if err := r.jobs.PutJob(ctx, j); err != nil {
		return nil, fmt.Errorf("vigil/dlq: replay %s: %w", entryID, err)
	}

	if err := r.store.MarkReplayed(ctx, entryID); err != nil {
		// The job is already requeued. Log but don't fail.
		r.logger.Warn("replay bookkeeping failed",
			"dlq_id", entryID.String(), "error", err)

		return j, err
	}

	r.logger.Info("dead letter entry replayed",
		"dlq_id", entryID.String(), "job_id", entry.JobID)

	if r.hooks != nil {
		r.hooks.EmitDeadLetterReplayed(ctx, entryID, entry.JobID)
	}

	return j, nil
}
