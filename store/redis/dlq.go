package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/raynmakers/vigil"
	"github.com/raynmakers/vigil/dlq"
	"github.com/raynmakers/vigil/id"
)

// RouteDeadLetter persists the entry and removes the active job record.
// The job index slot is claimed with HSETNX first, which makes routing
// idempotent per job ID without a transaction across the whole sequence.
func (s *Store) RouteDeadLetter(ctx context.Context, entry *dlq.Entry) (dlq.CleanupStatus, error) {
	cp := *entry
	now := time.Now().UTC()
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = now
	}
	if cp.UpdatedAt.IsZero() {
		cp.UpdatedAt = cp.CreatedAt
	}
	eID := cp.ID.String()

	claimed, err := s.client.HSetNX(ctx, dlqJobIndexKey, cp.JobID, eID).Result()
	if err != nil {
		return dlq.CleanupNone, fmt.Errorf("vigil/redis: route claim job: %w", err)
	}
	if !claimed {
		return dlq.CleanupNone, vigil.ErrDeadLetterExists
	}

	b, err := msgpack.Marshal(toDeadLetterModel(&cp))
	if err != nil {
		s.client.HDel(ctx, dlqJobIndexKey, cp.JobID) // release the claim
		return dlq.CleanupNone, fmt.Errorf("vigil/redis: encode dead letter: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, dlqKey(eID), b, 0)
	pipe.ZAdd(ctx, dlqRoutedKey, goredis.Z{Score: scoreOf(cp.RoutedAt), Member: eID})
	pipe.ZAddNX(ctx, createdKey(dlq.Collection), goredis.Z{Score: scoreOf(cp.CreatedAt), Member: eID})
	if _, err = pipe.Exec(ctx); err != nil {
		s.client.HDel(ctx, dlqJobIndexKey, cp.JobID) // release the claim
		return dlq.CleanupNone, fmt.Errorf("vigil/redis: route dead letter: %w", err)
	}

	// The entry is durable from here on. A failed cleanup is reported,
	// not returned: the stale active record is what the scanner exists
	// to catch.
	collection := cp.JobType.Collection()
	pipe = s.client.TxPipeline()
	delCmd := pipe.Del(ctx, jobKey(collection, cp.JobID))
	pipe.SRem(ctx, idsKey(collection), cp.JobID)
	pipe.ZRem(ctx, staleKey(collection), cp.JobID)
	if _, err = pipe.Exec(ctx); err != nil {
		s.logger.Error("dead letter routed but job cleanup failed",
			"job_id", cp.JobID,
			"job_type", cp.JobType.String(),
			"error", err,
		)
		return dlq.CleanupFailed, nil
	}
	if delCmd.Val() == 0 {
		return dlq.CleanupSkipped, nil
	}
	return dlq.CleanupDeleted, nil
}

// GetDeadLetter retrieves a dead letter entry by ID.
func (s *Store) GetDeadLetter(ctx context.Context, entryID id.DeadLetterID) (*dlq.Entry, error) {
	return s.getDeadLetterByKey(ctx, dlqKey(entryID.String()))
}

// GetDeadLetterByJobID retrieves the entry routed for the given job ID.
func (s *Store) GetDeadLetterByJobID(ctx context.Context, jobID string) (*dlq.Entry, error) {
	eID, err := s.client.HGet(ctx, dlqJobIndexKey, jobID).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, vigil.ErrDeadLetterNotFound
		}
		return nil, fmt.Errorf("vigil/redis: get dead letter by job: %w", err)
	}
	return s.getDeadLetterByKey(ctx, dlqKey(eID))
}

// ListDeadLetters returns entries matching the given options, most
// recently routed first.
func (s *Store) ListDeadLetters(ctx context.Context, opts dlq.ListOpts) ([]*dlq.Entry, error) {
	ids, err := s.client.ZRevRange(ctx, dlqRoutedKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("vigil/redis: list dead letters: %w", err)
	}

	entries := make([]*dlq.Entry, 0, len(ids))
	for _, eID := range ids {
		e, getErr := s.getDeadLetterByKey(ctx, dlqKey(eID))
		if getErr != nil {
			continue // skip missing
		}
		if opts.JobType != "" && e.JobType != opts.JobType {
			continue
		}
		if opts.Severity != "" && e.Severity != opts.Severity {
			continue
		}
		entries = append(entries, e)
	}

	if opts.Offset > 0 && opts.Offset < len(entries) {
		entries = entries[opts.Offset:]
	} else if opts.Offset >= len(entries) && opts.Offset > 0 {
		return nil, nil
	}
	if opts.Limit > 0 && opts.Limit < len(entries) {
		entries = entries[:opts.Limit]
	}
	return entries, nil
}

// MarkReplayed stamps the entry with the replay time.
func (s *Store) MarkReplayed(ctx context.Context, entryID id.DeadLetterID) error {
	key := dlqKey(entryID.String())
	b, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return vigil.ErrDeadLetterNotFound
		}
		return fmt.Errorf("vigil/redis: mark replayed get: %w", err)
	}

	var m deadLetterModel
	if err = msgpack.Unmarshal(b, &m); err != nil {
		return fmt.Errorf("vigil/redis: decode dead letter: %w", err)
	}
	now := time.Now().UTC()
	m.ReplayedAt = &now
	m.UpdatedAt = now

	nb, err := msgpack.Marshal(&m)
	if err != nil {
		return fmt.Errorf("vigil/redis: encode dead letter: %w", err)
	}
	if err = s.client.Set(ctx, key, nb, 0).Err(); err != nil {
		return fmt.Errorf("vigil/redis: mark replayed: %w", err)
	}
	return nil
}

// PurgeDeadLetters removes entries routed strictly before the given time.
func (s *Store) PurgeDeadLetters(ctx context.Context, before time.Time) (int64, error) {
	ids, err := s.client.ZRangeByScore(ctx, dlqRoutedKey, &goredis.ZRangeBy{
		Min: "-inf",
		Max: "(" + scoreArg(before),
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("vigil/redis: purge dead letters range: %w", err)
	}

	var purged int64
	for _, eID := range ids {
		key := dlqKey(eID)
		// The entry carries the job ID needed to free its index slot.
		e, getErr := s.getDeadLetterByKey(ctx, key)
		if getErr != nil {
			if errors.Is(getErr, vigil.ErrDeadLetterNotFound) {
				s.client.ZRem(ctx, dlqRoutedKey, eID)
				continue
			}
			return purged, getErr
		}

		pipe := s.client.TxPipeline()
		pipe.Del(ctx, key)
		pipe.ZRem(ctx, dlqRoutedKey, eID)
		pipe.HDel(ctx, dlqJobIndexKey, e.JobID)
		if _, pErr := pipe.Exec(ctx); pErr != nil {
			return purged, fmt.Errorf("vigil/redis: purge dead letters: %w", pErr)
		}
		purged++
	}
	return purged, nil
}

// CountDeadLetters returns the number of entries matching the given options.
func (s *Store) CountDeadLetters(ctx context.Context, opts dlq.CountOpts) (int64, error) {
	if opts.JobType == "" && opts.Severity == "" {
		count, err := s.client.ZCard(ctx, dlqRoutedKey).Result()
		if err != nil {
			return 0, fmt.Errorf("vigil/redis: count dead letters: %w", err)
		}
		return count, nil
	}

	ids, err := s.client.ZRange(ctx, dlqRoutedKey, 0, -1).Result()
	if err != nil {
		return 0, fmt.Errorf("vigil/redis: count dead letters range: %w", err)
	}
	var count int64
	for _, eID := range ids {
		e, getErr := s.getDeadLetterByKey(ctx, dlqKey(eID))
		if getErr != nil {
			continue // skip missing
		}
		if opts.JobType != "" && e.JobType != opts.JobType {
			continue
		}
		if opts.Severity != "" && e.Severity != opts.Severity {
			continue
		}
		count++
	}
	return count, nil
}

// ── helpers ──

func (s *Store) getDeadLetterByKey(ctx context.Context, key string) (*dlq.Entry, error) {
	b, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, vigil.ErrDeadLetterNotFound
		}
		return nil, fmt.Errorf("vigil/redis: get dead letter: %w", err)
	}
	var m deadLetterModel
	if err := msgpack.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("vigil/redis: decode dead letter: %w", err)
	}
	return fromDeadLetterModel(&m)
}
