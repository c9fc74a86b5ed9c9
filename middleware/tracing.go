package middleware

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// tracerName is the instrumentation scope name for vigil tracing.
const tracerName = "github.com/raynmakers/vigil"

// Tracing returns middleware that opens one OpenTelemetry span per
// invocation, named "vigil.<component>.<operation>" (for example
// "vigil.scanner.sweep"). Without a globally configured TracerProvider the
// noop tracer makes this a pass-through.
//
// Attributes carry vigil.component, vigil.operation and vigil.scheduled.
// A failed invocation records the error and marks the span codes.Error.
func Tracing() Middleware {
	return TracingWithTracer(otel.Tracer(tracerName))
}

// TracingWithTracer is [Tracing] with an explicit tracer, for tests or
// processes running more than one TracerProvider.
func TracingWithTracer(tracer trace.Tracer) Middleware {
	return func(ctx context.Context, inv *Invocation, next Handler) error {
		ctx, span := tracer.Start(ctx, "vigil."+inv.Component+"."+inv.Operation,
			trace.WithSpanKind(trace.SpanKindInternal),
			trace.WithAttributes(
				attribute.String("vigil.component", inv.Component),
				attribute.String("vigil.operation", inv.Operation),
				attribute.Bool("vigil.scheduled", inv.Scheduled),
			),
		)
		defer span.End()

		if err := next(ctx); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return err
		}
		span.SetStatus(codes.Ok, "")
		return nil
	}
}
