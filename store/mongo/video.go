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
	"github.com/raynmakers/vigil/video"
)

// PutVideo inserts or replaces a video record.
func (s *Store) PutVideo(ctx context.Context, v *video.Video) error {
	m := toVideoModel(v)
	t := now()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = t
	}
	if m.UpdatedAt.IsZero() {
		m.UpdatedAt = m.CreatedAt
	}

	col := s.db.Collection(video.Collection)
	_, err := col.ReplaceOne(ctx, bson.M{"_id": m.ID}, m, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("vigil/mongo: put video: %w", err)
	}
	return nil
}

// GetVideo retrieves a video by platform ID.
func (s *Store) GetVideo(ctx context.Context, videoID string) (*video.Video, error) {
	col := s.db.Collection(video.Collection)
	var m videoModel
	err := col.FindOne(ctx, bson.M{"_id": videoID}).Decode(&m)
	if err != nil {
		if errors.Is(err, mongod.ErrNoDocuments) {
			return nil, vigil.ErrVideoNotFound
		}
		return nil, fmt.Errorf("vigil/mongo: get video: %w", err)
	}
	return fromVideoModel(&m), nil
}

// ListStaleVideos returns non-terminal videos whose UpdatedAt is at or
// before cutoff, oldest first. Terminal statuses are excluded server-side.
func (s *Store) ListStaleVideos(ctx context.Context, cutoff time.Time, limit int) ([]*video.Video, error) {
	col := s.db.Collection(video.Collection)
	filter := bson.M{
		"updated_at": bson.M{"$lte": cutoff},
		"status": bson.M{"$nin": bson.A{
			string(video.StatusIndexed),
			string(video.StatusFailed),
		}},
	}

	findOpts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: 1}})
	if limit > 0 {
		findOpts.SetLimit(int64(limit))
	}

	cursor, err := col.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, fmt.Errorf("vigil/mongo: list stale videos: %w", err)
	}
	defer cursor.Close(ctx)

	var models []videoModel
	if err := cursor.All(ctx, &models); err != nil {
		return nil, fmt.Errorf("vigil/mongo: list stale videos decode: %w", err)
	}

	videos := make([]*video.Video, 0, len(models))
	for i := range models {
		videos = append(videos, fromVideoModel(&models[i]))
	}
	return videos, nil
}

// CountVideos returns the number of video records.
func (s *Store) CountVideos(ctx context.Context) (int64, error) {
	count, err := s.db.Collection(video.Collection).CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("vigil/mongo: count videos: %w", err)
	}
	return count, nil
}
