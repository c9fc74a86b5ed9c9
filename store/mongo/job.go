package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	mongod "go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/raynmakers/vigil"
	"github.com/raynmakers/vigil/job"
)

// PutJob inserts or replaces an active job record in its type's collection.
func (s *Store) PutJob(ctx context.Context, j *job.Job) error {
	m := toJobModel(j)
	t := now()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = t
	}
	if m.UpdatedAt.IsZero() {
		m.UpdatedAt = m.CreatedAt
	}

	col := s.db.Collection(j.Type.Collection())
	_, err := col.ReplaceOne(ctx, bson.M{"_id": m.ID}, m, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("vigil/mongo: put job: %w", err)
	}
	return nil
}

// GetJob retrieves an active job by type and producer-assigned ID.
func (s *Store) GetJob(ctx context.Context, typ job.Type, jobID string) (*job.Job, error) {
	col := s.db.Collection(typ.Collection())
	var m jobModel
	err := col.FindOne(ctx, bson.M{"_id": jobID}).Decode(&m)
	if err != nil {
		if errors.Is(err, mongod.ErrNoDocuments) {
			return nil, vigil.ErrJobNotFound
		}
		return nil, fmt.Errorf("vigil/mongo: get job: %w", err)
	}
	return fromJobModel(&m), nil
}

// DeleteJob removes an active job record.
func (s *Store) DeleteJob(ctx context.Context, typ job.Type, jobID string) error {
	col := s.db.Collection(typ.Collection())
	res, err := col.DeleteOne(ctx, bson.M{"_id": jobID})
	if err != nil {
		return fmt.Errorf("vigil/mongo: delete job: %w", err)
	}
	if res.DeletedCount == 0 {
		return vigil.ErrJobNotFound
	}
	return nil
}

// ListStaleJobs returns non-terminal jobs of the given type whose UpdatedAt
// is at or before cutoff, oldest first. Terminal statuses are excluded
// server-side.
func (s *Store) ListStaleJobs(ctx context.Context, typ job.Type, cutoff time.Time, limit int) ([]*job.Job, error) {
	col := s.db.Collection(typ.Collection())
	filter := bson.M{
		"updated_at": bson.M{"$lte": cutoff},
		"status": bson.M{"$nin": bson.A{
			string(job.StatusCompleted),
			string(job.StatusCancelled),
		}},
	}

	findOpts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: 1}})
	if limit > 0 {
		findOpts.SetLimit(int64(limit))
	}

	cursor, err := col.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("vigil/mongo: list stale %s: %w", typ.Collection(), err)
	}
	defer cursor.Close(ctx)

	var models []jobModel
	if err := cursor.All(ctx, &models); err != nil {
		return nil, fmt.Errorf("vigil/mongo: list stale %s decode: %w", typ.Collection(), err)
	}

	jobs := make([]*job.Job, 0, len(models))
	for i := range models {
		jobs = append(jobs, fromJobModel(&models[i]))
	}
	return jobs, nil
}

// CountJobs returns the number of active jobs of the given type.
func (s *Store) CountJobs(ctx context.Context, typ job.Type) (int64, error) {
	count, err := s.db.Collection(typ.Collection()).CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("vigil/mongo: count %s: %w", typ.Collection(), err)
	}
	return count, nil
}
