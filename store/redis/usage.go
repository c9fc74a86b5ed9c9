package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// CountCreatedSince counts records created in the collection at or after
// since. Creation times live in an append-only sorted set, so the count
// survives deletion of the record itself. Collections this store never
// writes (transcripts) are fed by their producers through RecordCreated;
// an unknown collection simply counts zero.
func (s *Store) CountCreatedSince(ctx context.Context, collection string, since time.Time) (int64, error) {
	count, err := s.client.ZCount(ctx, createdKey(collection), scoreArg(since), "+inf").Result()
	if err != nil {
		return 0, fmt.Errorf("vigil/redis: count created: %w", err)
	}
	return count, nil
}

// RecordCreated appends a creation timestamp to the collection's ledger.
// The first write per record ID wins; replacing a record later never moves
// its creation time.
func (s *Store) RecordCreated(ctx context.Context, collection, recordID string, at time.Time) error {
	err := s.client.ZAddNX(ctx, createdKey(collection), goredis.Z{Score: scoreOf(at), Member: recordID}).Err()
	if err != nil {
		return fmt.Errorf("vigil/redis: record created: %w", err)
	}
	return nil
}
