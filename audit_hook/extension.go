package audithook

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/raynmakers/vigil/dlq"
	"github.com/raynmakers/vigil/ext"
	"github.com/raynmakers/vigil/id"
	"github.com/raynmakers/vigil/quota"
	"github.com/raynmakers/vigil/scan"
)

// Compile-time interface checks.
var (
	_ ext.Extension          = (*Extension)(nil)
	_ ext.DeadLetterRouted   = (*Extension)(nil)
	_ ext.DeadLetterReplayed = (*Extension)(nil)
	_ ext.ScanCompleted      = (*Extension)(nil)
	_ ext.QuotaAlert         = (*Extension)(nil)
	_ ext.SweepFailed        = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
// It is defined locally so that the audit_hook package does not import any
// particular audit product — callers inject the concrete backend at wiring
// time through a [RecorderFunc] adapter.
type Recorder interface {
	// Record persists a fully-formed audit event.
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a local representation of an audit event. Callers provide a
// RecorderFunc adapter that bridges to their audit backend.
type AuditEvent struct {
	// What happened
	Action   string `json:"action"`
	Resource string `json:"resource"`
	Category string `json:"category"`

	// Details
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
//
// Example bridging to a structured log sink:
//
//	audithook.RecorderFunc(func(ctx context.Context, evt *audithook.AuditEvent) error {
//	    logger.InfoContext(ctx, evt.Action,
//	        "resource", evt.Resource,
//	        "resource_id", evt.ResourceID,
//	        "severity", evt.Severity,
//	    )
//	    return nil
//	})
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Severity constants for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// Outcome constants for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Extension bridges Vigil lifecycle events to an audit trail backend.
// Each lifecycle hook emits a structured audit event through the [Recorder].
type Extension struct {
	recorder Recorder
	enabled  map[string]struct{} // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements ext.Extension.
func (e *Extension) Name() string { return "audit-hook" }

// ── Recovery lifecycle hooks ────────────────────────

// OnDeadLetterRouted implements ext.DeadLetterRouted. The audit severity
// follows the entry severity so that high-severity failures surface as
// critical audit records.
func (e *Extension) OnDeadLetterRouted(ctx context.Context, entry *dlq.Entry) error {
	return e.record(ctx, ActionDeadLetterRouted, entrySeverity(entry.Severity), OutcomeFailure,
		ResourceDeadLetter, entry.ID.String(), CategoryRecovery, nil,
		"job_id", entry.JobID,
		"job_type", entry.JobType.String(),
		"severity", string(entry.Severity),
		"recovery_priority", string(entry.Priority),
		"error_type", entry.Failure.ErrorType,
		"retry_count", entry.Failure.RetryCount,
	)
}

// OnDeadLetterReplayed implements ext.DeadLetterReplayed.
func (e *Extension) OnDeadLetterReplayed(ctx context.Context, entryID id.DeadLetterID, jobID string) error {
	return e.record(ctx, ActionDeadLetterReplayed, SeverityInfo, OutcomeSuccess,
		ResourceDeadLetter, entryID.String(), CategoryRecovery, nil,
		"job_id", jobID,
	)
}

// OnScanCompleted implements ext.ScanCompleted. A sweep that found critical
// stuck records is recorded as a warning.
func (e *Extension) OnScanCompleted(ctx context.Context, res *scan.Result) error {
	severity := SeverityInfo
	if res.CriticalCount > 0 {
		severity = SeverityWarning
	}
	return e.record(ctx, ActionScanCompleted, severity, OutcomeSuccess,
		ResourceScan, res.ScanID.String(), CategoryScan, nil,
		"total_stuck", res.TotalStuck,
		"stale_count", res.StaleCount,
		"critical_count", res.CriticalCount,
		"health_score", res.Health.Score,
		"duration_ms", res.Duration.Milliseconds(),
	)
}

// ── Quota lifecycle hooks ───────────────────────────

// OnQuotaAlert implements ext.QuotaAlert. Critical alerts mean the window is
// effectively saturated and new requests will fail, so they audit as failures.
func (e *Extension) OnQuotaAlert(ctx context.Context, alert *quota.Alert) error {
	severity, outcome := SeverityWarning, OutcomeSuccess
	if alert.Severity == quota.AlertCritical {
		severity, outcome = SeverityCritical, OutcomeFailure
	}
	return e.record(ctx, ActionQuotaAlert, severity, outcome,
		ResourceService, alert.Service, CategoryQuota, nil,
		"utilization", alert.Utilization,
		"message", alert.Message,
		"recommended_action", alert.Action,
		"time_to_reset_ms", alert.TimeToReset.Milliseconds(),
	)
}

// ── Sweep lifecycle hooks ───────────────────────────

// OnSweepFailed implements ext.SweepFailed.
func (e *Extension) OnSweepFailed(ctx context.Context, component string, sweepErr error) error {
	return e.record(ctx, ActionSweepFailed, SeverityCritical, OutcomeFailure,
		ResourceSweep, component, CategorySweep, sweepErr,
		"component", component,
	)
}

// ── Internal helpers ────────────────────────────────

// entrySeverity maps a dead letter severity onto an audit severity level.
func entrySeverity(s dlq.Severity) string {
	switch s {
	case dlq.SeverityHigh:
		return SeverityCritical
	case dlq.SeverityMedium:
		return SeverityWarning
	default:
		return SeverityInfo
	}
}

// record builds and sends an audit event if the action is enabled.
// The kvPairs argument is a list of key-value pairs added to Metadata.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil {
		if _, ok := e.enabled[action]; !ok {
			return nil
		}
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
