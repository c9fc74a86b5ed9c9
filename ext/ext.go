package ext

import (
	"context"

	"github.com/raynmakers/vigil/dlq"
	"github.com/raynmakers/vigil/id"
	"github.com/raynmakers/vigil/quota"
	"github.com/raynmakers/vigil/scan"
)

// Extension is the base interface all extensions must implement.
type Extension interface {
	// Name returns a unique human-readable name for the extension.
	Name() string
}

// ──────────────────────────────────────────────────
// Recovery lifecycle hooks
// ──────────────────────────────────────────────────

// DeadLetterRouted is called after a failed job enters the dead letter
// collection.
type DeadLetterRouted interface {
	OnDeadLetterRouted(ctx context.Context, entry *dlq.Entry) error
}

// DeadLetterReplayed is called after a dead letter entry is replayed as a
// fresh active job.
type DeadLetterReplayed interface {
	OnDeadLetterReplayed(ctx context.Context, entryID id.DeadLetterID, jobID string) error
}

// ScanCompleted is called after a stuck-record sweep finishes.
type ScanCompleted interface {
	OnScanCompleted(ctx context.Context, res *scan.Result) error
}

// ──────────────────────────────────────────────────
// Quota lifecycle hooks
// ──────────────────────────────────────────────────

// QuotaAlert is called when a service crosses the quota alert threshold.
type QuotaAlert interface {
	OnQuotaAlert(ctx context.Context, alert *quota.Alert) error
}

// ──────────────────────────────────────────────────
// Other lifecycle hooks
// ──────────────────────────────────────────────────

// SweepFailed is called when a scheduled sweep invocation fails.
type SweepFailed interface {
	OnSweepFailed(ctx context.Context, component string, err error) error
}

// Shutdown is called during graceful shutdown.
type Shutdown interface {
	OnShutdown(ctx context.Context) error
}
