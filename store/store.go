package store

import (
	"context"

	"github.com/raynmakers/vigil/dlq"
	"github.com/raynmakers/vigil/job"
	"github.com/raynmakers/vigil/quota"
	"github.com/raynmakers/vigil/video"
)

// Store is the union of every subsystem's persistence contract. A backend
// implements it once over one shared keyed document store.
type Store interface {
	job.Store
	video.Store
	dlq.Store
	quota.UsageSource

	// Migrate creates or updates the backend schema. No-op for
	// schemaless backends.
	Migrate(ctx context.Context) error

	// Ping checks backend connectivity.
	Ping(ctx context.Context) error

	// Close releases resources the store owns. Stores wrapping a
	// caller-owned client leave the client open.
	Close() error
}
