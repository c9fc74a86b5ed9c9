// Package audithook is a Vigil extension that bridges recovery lifecycle
// events to an append-only audit trail backend.
//
// Every dead letter routing, replay, scan completion, and quota alert emits
// a structured audit event through the [Recorder] interface. The extension
// assigns severity levels from the recovery payload itself (info for routine
// sweeps, warning for degraded scans and threshold alerts, critical for
// high-severity dead letters and saturated quotas) and rich metadata (job id,
// job type, utilization, health score, errors).
//
// # Usage
//
//	audithook.New(audithook.RecorderFunc(func(ctx context.Context, evt *audithook.AuditEvent) error {
//	    return trail.Append(ctx, evt.Action, evt.Resource, evt.ResourceID, evt.Metadata)
//	}))
//
// # Selective filtering
//
//	audithook.New(recorder,
//	    audithook.WithActions(
//	        audithook.ActionDeadLetterRouted,
//	        audithook.ActionQuotaAlert,
//	    ),
//	)
package audithook
