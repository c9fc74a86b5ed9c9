package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/raynmakers/vigil/dlq"
	"github.com/raynmakers/vigil/ext"
	"github.com/raynmakers/vigil/id"
	"github.com/raynmakers/vigil/quota"
	"github.com/raynmakers/vigil/scan"
)

// meterName is the instrumentation scope name for vigil metrics.
const meterName = "github.com/raynmakers/vigil"

// Compile-time interface checks.
var (
	_ ext.Extension          = (*MetricsExtension)(nil)
	_ ext.DeadLetterRouted   = (*MetricsExtension)(nil)
	_ ext.DeadLetterReplayed = (*MetricsExtension)(nil)
	_ ext.ScanCompleted      = (*MetricsExtension)(nil)
	_ ext.QuotaAlert         = (*MetricsExtension)(nil)
	_ ext.SweepFailed        = (*MetricsExtension)(nil)
)

// MetricsExtension records system-wide lifecycle metrics through OpenTelemetry.
// Register it as a Vigil extension to automatically track dead letter routing
// rates, replay counts, stuck-record sweep results, quota alerts, and sweep
// failures.
//
// Instruments:
//   - vigil.dead_letter.routed (Int64Counter): entries routed, with
//     attributes: job_type, severity, recovery_priority
//   - vigil.dead_letter.replayed (Int64Counter): entries replayed
//   - vigil.scan.stuck_records (Int64Counter): records found per sweep,
//     with attribute: state ("stale" or "critical")
//   - vigil.scan.duration (Float64Histogram): sweep time in seconds,
//     with attribute: impact
//   - vigil.quota.alerts (Int64Counter): alerts raised, with attributes:
//     service, severity
//   - vigil.quota.utilization (Float64Histogram): utilization observed at
//     alert time, with attribute: service
//   - vigil.sweep.failures (Int64Counter): failed sweep invocations, with
//     attribute: component
type MetricsExtension struct {
	routed        metric.Int64Counter
	replayed      metric.Int64Counter
	stuckRecords  metric.Int64Counter
	scanDuration  metric.Float64Histogram
	quotaAlerts   metric.Int64Counter
	utilization   metric.Float64Histogram
	sweepFailures metric.Int64Counter
}

// NewMetricsExtension creates a MetricsExtension using the global OTel
// MeterProvider. If no MeterProvider is configured, noop instruments are
// used and the extension becomes a pass-through.
func NewMetricsExtension() *MetricsExtension {
	return NewMetricsExtensionWithMeter(otel.Meter(meterName))
}

// NewMetricsExtensionWithMeter creates a MetricsExtension with the provided
// meter. This variant allows injecting a specific MeterProvider for testing.
func NewMetricsExtensionWithMeter(meter metric.Meter) *MetricsExtension {
	// Create instruments once at construction time. OTel instruments are
	// safe for concurrent use. On error, the API returns noop instruments
	// so the extension degrades gracefully.
	routed, _ := meter.Int64Counter(
		"vigil.dead_letter.routed",
		metric.WithDescription("Total dead letter entries routed"),
		metric.WithUnit("{entry}"),
	)
	replayed, _ := meter.Int64Counter(
		"vigil.dead_letter.replayed",
		metric.WithDescription("Total dead letter entries replayed as fresh jobs"),
		metric.WithUnit("{entry}"),
	)
	stuckRecords, _ := meter.Int64Counter(
		"vigil.scan.stuck_records",
		metric.WithDescription("Total stuck records found by sweeps"),
		metric.WithUnit("{record}"),
	)
	scanDuration, _ := meter.Float64Histogram(
		"vigil.scan.duration",
		metric.WithDescription("Duration of stuck-record sweeps in seconds"),
		metric.WithUnit("s"),
	)
	quotaAlerts, _ := meter.Int64Counter(
		"vigil.quota.alerts",
		metric.WithDescription("Total quota alerts raised"),
		metric.WithUnit("{alert}"),
	)
	utilization, _ := meter.Float64Histogram(
		"vigil.quota.utilization",
		metric.WithDescription("Quota window utilization observed at alert time"),
		metric.WithUnit("1"),
	)
	sweepFailures, _ := meter.Int64Counter(
		"vigil.sweep.failures",
		metric.WithDescription("Total failed sweep invocations"),
		metric.WithUnit("{failure}"),
	)

	return &MetricsExtension{
		routed:        routed,
		replayed:      replayed,
		stuckRecords:  stuckRecords,
		scanDuration:  scanDuration,
		quotaAlerts:   quotaAlerts,
		utilization:   utilization,
		sweepFailures: sweepFailures,
	}
}

// Name implements ext.Extension.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// ── Recovery lifecycle hooks ────────────────────────

// OnDeadLetterRouted implements ext.DeadLetterRouted.
func (m *MetricsExtension) OnDeadLetterRouted(ctx context.Context, entry *dlq.Entry) error {
	m.routed.Add(ctx, 1, metric.WithAttributes(
		attribute.String("job_type", entry.JobType.String()),
		attribute.String("severity", string(entry.Severity)),
		attribute.String("recovery_priority", string(entry.Priority)),
	))
	return nil
}

// OnDeadLetterReplayed implements ext.DeadLetterReplayed.
func (m *MetricsExtension) OnDeadLetterReplayed(ctx context.Context, _ id.DeadLetterID, _ string) error {
	m.replayed.Add(ctx, 1)
	return nil
}

// OnScanCompleted implements ext.ScanCompleted.
func (m *MetricsExtension) OnScanCompleted(ctx context.Context, res *scan.Result) error {
	if res.StaleCount > 0 {
		m.stuckRecords.Add(ctx, int64(res.StaleCount), metric.WithAttributes(
			attribute.String("state", string(scan.StateStale)),
		))
	}
	if res.CriticalCount > 0 {
		m.stuckRecords.Add(ctx, int64(res.CriticalCount), metric.WithAttributes(
			attribute.String("state", string(scan.StateCritical)),
		))
	}
	m.scanDuration.Record(ctx, res.Duration.Seconds(), metric.WithAttributes(
		attribute.String("impact", string(res.Health.Level)),
	))
	return nil
}

// ── Quota lifecycle hooks ───────────────────────────

// OnQuotaAlert implements ext.QuotaAlert.
func (m *MetricsExtension) OnQuotaAlert(ctx context.Context, alert *quota.Alert) error {
	m.quotaAlerts.Add(ctx, 1, metric.WithAttributes(
		attribute.String("service", alert.Service),
		attribute.String("severity", string(alert.Severity)),
	))
	m.utilization.Record(ctx, alert.Utilization, metric.WithAttributes(
		attribute.String("service", alert.Service),
	))
	return nil
}

// ── Sweep lifecycle hooks ───────────────────────────

// OnSweepFailed implements ext.SweepFailed.
func (m *MetricsExtension) OnSweepFailed(ctx context.Context, component string, _ error) error {
	m.sweepFailures.Add(ctx, 1, metric.WithAttributes(
		attribute.String("component", component),
	))
	return nil
}
