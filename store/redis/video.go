package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/raynmakers/vigil"
	"github.com/raynmakers/vigil/video"
)

// PutVideo stores the video record and maintains the videos collection
// indexes in one MULTI/EXEC batch.
func (s *Store) PutVideo(ctx context.Context, v *video.Video) error {
	cp := *v
	now := time.Now().UTC()
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = now
	}
	if cp.UpdatedAt.IsZero() {
		cp.UpdatedAt = cp.CreatedAt
	}

	b, err := msgpack.Marshal(toVideoModel(&cp))
	if err != nil {
		return fmt.Errorf("vigil/redis: encode video: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, videoKey(cp.ID), b, 0)
	pipe.SAdd(ctx, idsKey(video.Collection), cp.ID)
	pipe.ZAddNX(ctx, createdKey(video.Collection), goredis.Z{Score: scoreOf(cp.CreatedAt), Member: cp.ID})
	if cp.Status.Terminal() {
		pipe.ZRem(ctx, staleKey(video.Collection), cp.ID)
	} else {
		pipe.ZAdd(ctx, staleKey(video.Collection), goredis.Z{Score: scoreOf(cp.UpdatedAt), Member: cp.ID})
	}
	if _, err = pipe.Exec(ctx); err != nil {
		return fmt.Errorf("vigil/redis: put video: %w", err)
	}
	return nil
}

// GetVideo retrieves a video by ID.
func (s *Store) GetVideo(ctx context.Context, videoID string) (*video.Video, error) {
	b, err := s.client.Get(ctx, videoKey(videoID)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, vigil.ErrVideoNotFound
		}
		return nil, fmt.Errorf("vigil/redis: get video: %w", err)
	}
	var m videoModel
	if err := msgpack.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("vigil/redis: decode video: %w", err)
	}
	return fromVideoModel(&m), nil
}

// ListStaleVideos returns non-terminal videos not updated since the
// cutoff, oldest first.
func (s *Store) ListStaleVideos(ctx context.Context, cutoff time.Time, limit int) ([]*video.Video, error) {
	rng := &goredis.ZRangeBy{Min: "-inf", Max: scoreArg(cutoff)}
	if limit > 0 {
		rng.Count = int64(limit)
	}
	ids, err := s.client.ZRangeByScore(ctx, staleKey(video.Collection), rng).Result()
	if err != nil {
		return nil, fmt.Errorf("vigil/redis: list stale videos: %w", err)
	}

	videos := make([]*video.Video, 0, len(ids))
	for _, videoID := range ids {
		v, getErr := s.GetVideo(ctx, videoID)
		if getErr != nil {
			if errors.Is(getErr, vigil.ErrVideoNotFound) {
				continue // skip missing
			}
			return nil, getErr
		}
		// Scores carry millisecond precision; recheck the exact boundary.
		if v.UpdatedAt.After(cutoff) {
			continue
		}
		videos = append(videos, v)
	}
	return videos, nil
}

// CountVideos returns the number of video records.
func (s *Store) CountVideos(ctx context.Context) (int64, error) {
	count, err := s.client.SCard(ctx, idsKey(video.Collection)).Result()
	if err != nil {
		return 0, fmt.Errorf("vigil/redis: count videos: %w", err)
	}
	return count, nil
}
