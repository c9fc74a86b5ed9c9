package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/raynmakers/vigil"
	"github.com/raynmakers/vigil/dlq"
	"github.com/raynmakers/vigil/job"
	"github.com/raynmakers/vigil/video"
)

// CountCreatedSince counts records created in the collection at or after
// since. Collection names are mapped onto known tables; table identifiers
// cannot be parameterized, so anything outside the map is rejected with
// vigil.ErrUnknownCollection rather than interpolated.
func (s *Store) CountCreatedSince(ctx context.Context, collection string, since time.Time) (int64, error) {
	query, args, err := usageQuery(collection, since)
	if err != nil {
		return 0, err
	}

	var count int64
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("vigil/postgres: count created in %s: %w", collection, err)
	}
	return count, nil
}

func usageQuery(collection string, since time.Time) (string, []any, error) {
	switch collection {
	case video.Collection:
		return `SELECT COUNT(*) FROM videos WHERE created_at >= $1`, []any{since}, nil
	case "transcripts":
		return `SELECT COUNT(*) FROM transcripts WHERE created_at >= $1`, []any{since}, nil
	case dlq.Collection:
		return `SELECT COUNT(*) FROM dead_letters WHERE created_at >= $1`, []any{since}, nil
	}

	// Job collections share the pipeline_jobs table, filtered by type.
	for _, typ := range job.AllTypes() {
		if typ.Collection() == collection {
			return `SELECT COUNT(*) FROM pipeline_jobs WHERE job_type = $1 AND created_at >= $2`,
				[]any{typ.String(), since}, nil
		}
	}

	return "", nil, fmt.Errorf("vigil/postgres: %w: %s", vigil.ErrUnknownCollection, collection)
}
