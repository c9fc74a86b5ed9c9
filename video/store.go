package video

import (
	"context"
	"time"
)

// Store defines the persistence contract for video records.
type Store interface {
	// PutVideo inserts or replaces a video record.
	PutVideo(ctx context.Context, v *Video) error

	// GetVideo retrieves a video by platform ID. Returns
	// vigil.ErrVideoNotFound when no record exists.
	GetVideo(ctx context.Context, videoID string) (*Video, error)

	// ListStaleVideos returns non-terminal videos whose UpdatedAt is at or
	// before cutoff, oldest first, capped at limit. Zero limit means no cap.
	ListStaleVideos(ctx context.Context, cutoff time.Time, limit int) ([]*Video, error)

	// CountVideos returns the number of video records.
	CountVideos(ctx context.Context) (int64, error)
}
