package mongo

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	mongod "go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/raynmakers/vigil/dlq"
	"github.com/raynmakers/vigil/job"
	"github.com/raynmakers/vigil/store"
	"github.com/raynmakers/vigil/video"
)

var _ store.Store = (*Store)(nil)

// Store is a MongoDB implementation of store.Store. The caller owns the
// client lifecycle; Store never closes it.
type Store struct {
	db     *mongod.Database
	logger *slog.Logger
}

// Option configures the Store.
type Option func(*Store)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// New creates a new MongoDB store over the given database handle. The
// caller owns the client lifecycle -- the Store will not close it on
// Close().
func New(db *mongod.Database, opts ...Option) *Store {
	s := &Store{
		db:     db,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Migrate creates indexes for all vigil collections.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := migrationIndexes()

	for col, models := range indexes {
		if len(models) == 0 {
			continue
		}

		_, err := s.db.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("vigil/mongo: migrate %s indexes: %w", col, err)
		}
	}

	return nil
}

// Ping round-trips to the server to verify the connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Client().Ping(ctx, nil)
}

// Close is a no-op because the caller owns the client lifecycle.
func (s *Store) Close() error {
	return nil
}

// ── helpers ──────────────────────────────────────────────────────

// now is the timestamp source for created_at/updated_at stamping.
func now() time.Time {
	return time.Now().UTC()
}

// migrationIndexes returns the index definitions for all vigil collections.
// The transcripts collection is owned by the pipeline and only counted, so
// it gets no indexes here.
func migrationIndexes() map[string][]mongod.IndexModel {
	indexes := make(map[string][]mongod.IndexModel)

	// Each job collection needs the stale sweep and the quota usage count.
	for _, typ := range job.AllTypes() {
		indexes[typ.Collection()] = []mongod.IndexModel{
			{Keys: bson.D{
				{Key: "status", Value: 1},
				{Key: "updated_at", Value: 1},
			}},
			{Keys: bson.D{{Key: "created_at", Value: 1}}},
		}
	}

	indexes[video.Collection] = []mongod.IndexModel{
		{Keys: bson.D{
			{Key: "status", Value: 1},
			{Key: "updated_at", Value: 1},
		}},
		{Keys: bson.D{{Key: "created_at", Value: 1}}},
	}

	indexes[dlq.Collection] = []mongod.IndexModel{
		// One dead letter entry per original job.
		{
			Keys:    bson.D{{Key: "job_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		// Triage listing: most recently routed first.
		{Keys: bson.D{{Key: "routed_at", Value: -1}}},
		{Keys: bson.D{
			{Key: "job_type", Value: 1},
			{Key: "severity", Value: 1},
		}},
		{Keys: bson.D{{Key: "created_at", Value: 1}}},
	}

	return indexes
}
