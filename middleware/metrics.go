package middleware

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name for vigil metrics.
const meterName = "github.com/raynmakers/vigil"

// Metrics returns middleware that measures every invocation through the
// global OTel MeterProvider. Two instruments are published, both tagged
// with component, operation and status ("ok" or "error"):
//
//   - vigil.invocations (Int64Counter): invocation count
//   - vigil.invocation.duration (Float64Histogram): wall time in seconds
//
// Without a configured MeterProvider the instruments are noops.
func Metrics() Middleware {
	return MetricsWithMeter(otel.Meter(meterName))
}

// MetricsWithMeter is [Metrics] with an explicit meter, for tests.
func MetricsWithMeter(meter metric.Meter) Middleware {
	// Instruments are built once and shared across invocations. The
	// constructor errors are ignored: the OTel API hands back usable
	// noop instruments even on failure.
	invocations, _ := meter.Int64Counter(
		"vigil.invocations",
		metric.WithDescription("Total number of component invocations"),
		metric.WithUnit("{invocation}"),
	)
	duration, _ := meter.Float64Histogram(
		"vigil.invocation.duration",
		metric.WithDescription("Duration of component invocations in seconds"),
		metric.WithUnit("s"),
	)

	return func(ctx context.Context, inv *Invocation, next Handler) error {
		start := time.Now()
		err := next(ctx)

		status := "ok"
		if err != nil {
			status = "error"
		}
		attrs := metric.WithAttributes(
			attribute.String("component", inv.Component),
			attribute.String("operation", inv.Operation),
			attribute.String("status", status),
		)
		invocations.Add(ctx, 1, attrs)
		duration.Record(ctx, time.Since(start).Seconds(), attrs)

		return err
	}
}
