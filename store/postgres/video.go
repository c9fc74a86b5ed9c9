package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/raynmakers/vigil"
	"github.com/raynmakers/vigil/video"
)

// PutVideo inserts or replaces a video record. On replace the original
// created_at is preserved so quota usage counting stays anchored to the
// first insert.
func (s *Store) PutVideo(ctx context.Context, v *video.Video) error {
	createdAt := v.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	updatedAt := v.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = createdAt
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO videos (
			video_id, platform, title, channel, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (video_id) DO UPDATE SET
			platform = EXCLUDED.platform,
			title = EXCLUDED.title,
			channel = EXCLUDED.channel,
			status = EXCLUDED.status,
			updated_at = EXCLUDED.updated_at`,
		v.ID, v.Platform, v.Title, v.Channel, string(v.Status),
		createdAt, updatedAt,
	)
	if err != nil {
		return fmt.Errorf("vigil/postgres: put video: %w", err)
	}
	return nil
}

// GetVideo retrieves a video by platform ID.
func (s *Store) GetVideo(ctx context.Context, videoID string) (*video.Video, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT video_id, platform, title, channel, status, created_at, updated_at
		FROM videos
		WHERE video_id = $1`,
		videoID,
	)

	v, err := scanVideo(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, vigil.ErrVideoNotFound
		}
		return nil, fmt.Errorf("vigil/postgres: get video: %w", err)
	}
	return v, nil
}

// ListStaleVideos returns non-terminal videos whose UpdatedAt is at or
// before cutoff, oldest first.
func (s *Store) ListStaleVideos(ctx context.Context, cutoff time.Time, limit int) ([]*video.Video, error) {
	query := `
		SELECT video_id, platform, title, channel, status, created_at, updated_at
		FROM videos
		WHERE updated_at <= $1
		  AND status NOT IN ('indexed', 'failed')
		ORDER BY updated_at ASC`
	args := []any{cutoff}

	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("vigil/postgres: list stale videos: %w", err)
	}
	defer rows.Close()

	var videos []*video.Video
	for rows.Next() {
		v, scanErr := scanVideo(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("vigil/postgres: scan video row: %w", scanErr)
		}
		videos = append(videos, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("vigil/postgres: iterate video rows: %w", err)
	}
	return videos, nil
}

// CountVideos returns the number of video records.
func (s *Store) CountVideos(ctx context.Context) (int64, error) {
	var count int64
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM videos`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("vigil/postgres: count videos: %w", err)
	}
	return count, nil
}

func scanVideo(row pgx.Row) (*video.Video, error) {
	var (
		v      video.Video
		status string
	)
	err := row.Scan(
		&v.ID, &v.Platform, &v.Title, &v.Channel, &status,
		&v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	v.Status = video.Status(status)
	return &v, nil
}
