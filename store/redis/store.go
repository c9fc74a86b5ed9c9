package redis

import (
	"context"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/raynmakers/vigil/store"
)

var _ store.Store = (*Store)(nil)

// Store keeps every Vigil collection in Redis: records as hashes,
// indexes as sorted sets.
type Store struct {
	client redis.Cmdable
	logger *slog.Logger
}

// Option configures the Store.
type Option func(*Store)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// New wraps an existing Redis client in a Store. The caller keeps
// ownership of the client and is responsible for closing it.
func New(client redis.Cmdable, opts ...Option) *Store {
	s := &Store{client: client, logger: slog.Default()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Migrate is a no-op: Redis needs no schema.
func (s *Store) Migrate(context.Context) error { return nil }

// Ping issues a Redis PING.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close is a no-op -- the caller owns the Redis client lifecycle.
func (s *Store) Close() error { return nil }
