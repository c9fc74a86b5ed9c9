package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/raynmakers/vigil"
	"github.com/raynmakers/vigil/job"
)

// PutJob stores the job as a msgpack value and maintains the collection's
// id, staleness, and creation indexes in one MULTI/EXEC batch.
func (s *Store) PutJob(ctx context.Context, j *job.Job) error {
	cp := *j
	now := time.Now().UTC()
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = now
	}
	if cp.UpdatedAt.IsZero() {
		cp.UpdatedAt = cp.CreatedAt
	}

	b, err := msgpack.Marshal(toJobModel(&cp))
	if err != nil {
		return fmt.Errorf("vigil/redis: encode job: %w", err)
	}

	collection := cp.Type.Collection()
	pipe := s.client.TxPipeline()
	pipe.Set(ctx, jobKey(collection, cp.ID), b, 0)
	pipe.SAdd(ctx, idsKey(collection), cp.ID)
	pipe.ZAddNX(ctx, createdKey(collection), goredis.Z{Score: scoreOf(cp.CreatedAt), Member: cp.ID})
	if cp.Status.Terminal() {
		pipe.ZRem(ctx, staleKey(collection), cp.ID)
	} else {
		pipe.ZAdd(ctx, staleKey(collection), goredis.Z{Score: scoreOf(cp.UpdatedAt), Member: cp.ID})
	}
	if _, err = pipe.Exec(ctx); err != nil {
		return fmt.Errorf("vigil/redis: put job: %w", err)
	}
	return nil
}

// GetJob retrieves a job by type and ID.
func (s *Store) GetJob(ctx context.Context, typ job.Type, jobID string) (*job.Job, error) {
	b, err := s.client.Get(ctx, jobKey(typ.Collection(), jobID)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, vigil.ErrJobNotFound
		}
		return nil, fmt.Errorf("vigil/redis: get job: %w", err)
	}
	var m jobModel
	if err := msgpack.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("vigil/redis: decode job: %w", err)
	}
	return fromJobModel(&m), nil
}

// DeleteJob removes a job and its index entries. The creation ledger is
// left alone so quota usage counting survives the delete.
func (s *Store) DeleteJob(ctx context.Context, typ job.Type, jobID string) error {
	collection := typ.Collection()

	pipe := s.client.TxPipeline()
	delCmd := pipe.Del(ctx, jobKey(collection, jobID))
	pipe.SRem(ctx, idsKey(collection), jobID)
	pipe.ZRem(ctx, staleKey(collection), jobID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("vigil/redis: delete job: %w", err)
	}
	if delCmd.Val() == 0 {
		return vigil.ErrJobNotFound
	}
	return nil
}

// ListStaleJobs returns non-terminal jobs of the given type not updated
// since the cutoff, oldest first.
func (s *Store) ListStaleJobs(ctx context.Context, typ job.Type, cutoff time.Time, limit int) ([]*job.Job, error) {
	rng := &goredis.ZRangeBy{Min: "-inf", Max: scoreArg(cutoff)}
	if limit > 0 {
		rng.Count = int64(limit)
	}
	ids, err := s.client.ZRangeByScore(ctx, staleKey(typ.Collection()), rng).Result()
	if err != nil {
		return nil, fmt.Errorf("vigil/redis: list stale jobs: %w", err)
	}

	jobs := make([]*job.Job, 0, len(ids))
	for _, jobID := range ids {
		j, getErr := s.GetJob(ctx, typ, jobID)
		if getErr != nil {
			if errors.Is(getErr, vigil.ErrJobNotFound) {
				continue // skip missing
			}
			return nil, getErr
		}
		// Scores carry millisecond precision; recheck the exact boundary.
		if j.UpdatedAt.After(cutoff) {
			continue
		}
		jobs = append(jobs, j)
	}
	return jobs, nil
}

// CountJobs returns the number of jobs of the given type.
func (s *Store) CountJobs(ctx context.Context, typ job.Type) (int64, error) {
	count, err := s.client.SCard(ctx, idsKey(typ.Collection())).Result()
	if err != nil {
		return 0, fmt.Errorf("vigil/redis: count jobs: %w", err)
	}
	return count, nil
}
