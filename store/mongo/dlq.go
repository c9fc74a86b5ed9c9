package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	mongod "go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/raynmakers/vigil"
	"github.com/raynmakers/vigil/dlq"
	"github.com/raynmakers/vigil/id"
)

// RouteDeadLetter persists the entry and removes the active job record. The
// unique index on job_id makes the insert the idempotency gate: a concurrent
// duplicate loses the race and maps to vigil.ErrDeadLetterExists.
func (s *Store) RouteDeadLetter(ctx context.Context, entry *dlq.Entry) (dlq.CleanupStatus, error) {
	m := toDeadLetterModel(entry)
	t := now()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = t
	}
	if m.UpdatedAt.IsZero() {
		m.UpdatedAt = m.CreatedAt
	}

	col := s.db.Collection(dlq.Collection)
	if _, err := col.InsertOne(ctx, m); err != nil {
		if mongod.IsDuplicateKeyError(err) {
			return dlq.CleanupNone, vigil.ErrDeadLetterExists
		}
		return dlq.CleanupNone, fmt.Errorf("vigil/mongo: route dead letter: %w", err)
	}

	// The entry is durable from here on. A failed cleanup is reported, not
	// returned: the stale active record is what the scanner exists to catch.
	jobs := s.db.Collection(entry.JobType.Collection())
	res, err := jobs.DeleteOne(ctx, bson.M{"_id": entry.JobID})
	if err != nil {
		s.logger.Error("vigil/mongo: dead letter cleanup failed",
			slog.String("job_id", entry.JobID),
			slog.String("collection", entry.JobType.Collection()),
			slog.String("error", err.Error()))
		return dlq.CleanupFailed, nil
	}
	if res.DeletedCount == 0 {
		return dlq.CleanupSkipped, nil
	}
	return dlq.CleanupDeleted, nil
}

// GetDeadLetter retrieves an entry by ID.
func (s *Store) GetDeadLetter(ctx context.Context, entryID id.DeadLetterID) (*dlq.Entry, error) {
	col := s.db.Collection(dlq.Collection)
	var m deadLetterModel
	err := col.FindOne(ctx, bson.M{"_id": entryID.String()}).Decode(&m)
	if err != nil {
		if errors.Is(err, mongod.ErrNoDocuments) {
			return nil, vigil.ErrDeadLetterNotFound
		}
		return nil, fmt.Errorf("vigil/mongo: get dead letter: %w", err)
	}
	return fromDeadLetterModel(&m)
}

// GetDeadLetterByJobID retrieves the entry for an original job ID.
func (s *Store) GetDeadLetterByJobID(ctx context.Context, jobID string) (*dlq.Entry, error) {
	col := s.db.Collection(dlq.Collection)
	var m deadLetterModel
	err := col.FindOne(ctx, bson.M{"job_id": jobID}).Decode(&m)
	if err != nil {
		if errors.Is(err, mongod.ErrNoDocuments) {
			return nil, vigil.ErrDeadLetterNotFound
		}
		return nil, fmt.Errorf("vigil/mongo: get dead letter by job: %w", err)
	}
	return fromDeadLetterModel(&m)
}

// ListDeadLetters returns entries matching the given options, most recently
// routed first.
func (s *Store) ListDeadLetters(ctx context.Context, opts dlq.ListOpts) ([]*dlq.Entry, error) {
	col := s.db.Collection(dlq.Collection)
	filter := bson.M{}

	if opts.JobType != "" {
		filter["job_type"] = opts.JobType.String()
	}
	if opts.Severity != "" {
		filter["severity"] = string(opts.Severity)
	}

	findOpts := options.Find().SetSort(bson.D{{Key: "routed_at", Value: -1}})
	if opts.Limit > 0 {
		findOpts.SetLimit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		findOpts.SetSkip(int64(opts.Offset))
	}

	cursor, err := col.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("vigil/mongo: list dead letters: %w", err)
	}
	defer cursor.Close(ctx)

	var models []deadLetterModel
	if err := cursor.All(ctx, &models); err != nil {
		return nil, fmt.Errorf("vigil/mongo: list dead letters decode: %w", err)
	}

	entries := make([]*dlq.Entry, 0, len(models))
	for i := range models {
		e, convErr := fromDeadLetterModel(&models[i])
		if convErr != nil {
			return nil, fmt.Errorf("vigil/mongo: list dead letters convert: %w", convErr)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// MarkReplayed stamps ReplayedAt on an entry.
func (s *Store) MarkReplayed(ctx context.Context, entryID id.DeadLetterID) error {
	col := s.db.Collection(dlq.Collection)
	t := now()

	res, err := col.UpdateOne(ctx,
		bson.M{"_id": entryID.String()},
		bson.M{"$set": bson.M{"replayed_at": t, "updated_at": t}},
	)
	if err != nil {
		return fmt.Errorf("vigil/mongo: mark replayed: %w", err)
	}
	if res.MatchedCount == 0 {
		return vigil.ErrDeadLetterNotFound
	}
	return nil
}

// PurgeDeadLetters removes entries with RoutedAt before the given time.
// Returns the number of entries removed.
func (s *Store) PurgeDeadLetters(ctx context.Context, before time.Time) (int64, error) {
	col := s.db.Collection(dlq.Collection)
	res, err := col.DeleteMany(ctx, bson.M{
		"routed_at": bson.M{"$lt": before},
	})
	if err != nil {
		return 0, fmt.Errorf("vigil/mongo: purge dead letters: %w", err)
	}
	return res.DeletedCount, nil
}

// CountDeadLetters returns the number of entries matching the options.
func (s *Store) CountDeadLetters(ctx context.Context, opts dlq.CountOpts) (int64, error) {
	col := s.db.Collection(dlq.Collection)
	filter := bson.M{}

	if opts.JobType != "" {
		filter["job_type"] = opts.JobType.String()
	}
	if opts.Severity != "" {
		filter["severity"] = string(opts.Severity)
	}

	count, err := col.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("vigil/mongo: count dead letters: %w", err)
	}
	return count, nil
}
