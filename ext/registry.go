package ext

import (
	"context"
	"log/slog"

	"github.com/raynmakers/vigil/dlq"
	"github.com/raynmakers/vigil/id"
	"github.com/raynmakers/vigil/quota"
	"github.com/raynmakers/vigil/scan"
)

// Named entry types pair a hook implementation with the extension name
// captured at registration time. This avoids type-asserting back to
// Extension inside the emit methods.
type deadLetterRoutedEntry struct {
	name string
	hook DeadLetterRouted
}

type deadLetterReplayedEntry struct {
	name string
	hook DeadLetterReplayed
}

type scanCompletedEntry struct {
	name string
	hook ScanCompleted
}

type quotaAlertEntry struct {
	name string
	hook QuotaAlert
}

type sweepFailedEntry struct {
	name string
	hook SweepFailed
}

type shutdownEntry struct {
	name string
	hook Shutdown
}

// Registry holds registered extensions and dispatches lifecycle events
// to them. It type-caches extensions at registration time so emit calls
// iterate only over extensions that implement the relevant hook.
//
// The Registry satisfies the narrow Hooks interfaces the dlq, scan, and
// quota packages accept.
type Registry struct {
	extensions []Extension
	logger     *slog.Logger

	// Type-cached slices for each lifecycle hook.
	deadLetterRouted   []deadLetterRoutedEntry
	deadLetterReplayed []deadLetterReplayedEntry
	scanCompleted      []scanCompletedEntry
	quotaAlert         []quotaAlertEntry
	sweepFailed        []sweepFailedEntry
	shutdown           []shutdownEntry
}

var (
	_ dlq.Hooks   = (*Registry)(nil)
	_ scan.Hooks  = (*Registry)(nil)
	_ quota.Hooks = (*Registry)(nil)
)

// NewRegistry creates an extension registry with the given logger.
func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{logger: logger}
}

// Register adds an extension and type-asserts it into all applicable
// hook caches. Extensions are notified in registration order.
func (r *Registry) Register(e Extension) {
	r.extensions = append(r.extensions, e)
	name := e.Name()

	if h, ok := e.(DeadLetterRouted); ok {
		r.deadLetterRouted = append(r.deadLetterRouted, deadLetterRoutedEntry{name, h})
	}
	if h, ok := e.(DeadLetterReplayed); ok {
		r.deadLetterReplayed = append(r.deadLetterReplayed, deadLetterReplayedEntry{name, h})
	}
	if h, ok := e.(ScanCompleted); ok {
		r.scanCompleted = append(r.scanCompleted, scanCompletedEntry{name, h})
	}
	if h, ok := e.(QuotaAlert); ok {
		r.quotaAlert = append(r.quotaAlert, quotaAlertEntry{name, h})
	}
	if h, ok := e.(SweepFailed); ok {
		r.sweepFailed = append(r.sweepFailed, sweepFailedEntry{name, h})
	}
	if h, ok := e.(Shutdown); ok {
		r.shutdown = append(r.shutdown, shutdownEntry{name, h})
	}
}

// Extensions returns all registered extensions.
func (r *Registry) Extensions() []Extension { return r.extensions }

// ──────────────────────────────────────────────────
// Event emitters
// ──────────────────────────────────────────────────

// EmitDeadLetterRouted notifies all extensions that implement DeadLetterRouted.
func (r *Registry) EmitDeadLetterRouted(ctx context.Context, entry *dlq.Entry) {
	for _, e := range r.deadLetterRouted {
		if err := e.hook.OnDeadLetterRouted(ctx, entry); err != nil {
			r.logHookError("OnDeadLetterRouted", e.name, err)
		}
	}
}

// EmitDeadLetterReplayed notifies all extensions that implement DeadLetterReplayed.
func (r *Registry) EmitDeadLetterReplayed(ctx context.Context, entryID id.DeadLetterID, jobID string) {
	for _, e := range r.deadLetterReplayed {
		if err := e.hook.OnDeadLetterReplayed(ctx, entryID, jobID); err != nil {
			r.logHookError("OnDeadLetterReplayed", e.name, err)
		}
	}
}

// EmitScanCompleted notifies all extensions that implement ScanCompleted.
func (r *Registry) EmitScanCompleted(ctx context.Context, res *scan.Result) {
	for _, e := range r.scanCompleted {
		if err := e.hook.OnScanCompleted(ctx, res); err != nil {
			r.logHookError("OnScanCompleted", e.name, err)
		}
	}
}

// EmitQuotaAlert notifies all extensions that implement QuotaAlert.
func (r *Registry) EmitQuotaAlert(ctx context.Context, alert *quota.Alert) {
	for _, e := range r.quotaAlert {
		if err := e.hook.OnQuotaAlert(ctx, alert); err != nil {
			r.logHookError("OnQuotaAlert", e.name, err)
		}
	}
}

// EmitSweepFailed notifies all extensions that implement SweepFailed.
func (r *Registry) EmitSweepFailed(ctx context.Context, component string, sweepErr error) {
	for _, e := range r.sweepFailed {
		if err := e.hook.OnSweepFailed(ctx, component, sweepErr); err != nil {
			r.logHookError("OnSweepFailed", e.name, err)
		}
	}
}

// EmitShutdown notifies all extensions that implement Shutdown.
func (r *Registry) EmitShutdown(ctx context.Context) {
	for _, e := range r.shutdown {
		if err := e.hook.OnShutdown(ctx); err != nil {
			r.logHookError("OnShutdown", e.name, err)
		}
	}
}

// logHookError logs a warning when a lifecycle hook returns an error.
// Errors from hooks are never propagated — they must not block recovery.
func (r *Registry) logHookError(hook, extName string, err error) {
	r.logger.Warn("extension hook error",
		slog.String("hook", hook),
		slog.String("extension", extName),
		slog.String("error", err.Error()),
	)
}
