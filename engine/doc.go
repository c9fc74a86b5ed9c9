// Package engine wires all Vigil subsystems together and provides the
// primary application-level API for recovery and quota governance.
//
// The engine package exists to break a fundamental import cycle: the root
// vigil package defines Entity (imported by job, dlq, scan, quota, etc.)
// and therefore cannot import those packages back. Engine sits above all
// subsystem packages and below the application layer.
//
// # Building an Engine
//
//	v, err := vigil.New(
//	    vigil.WithStore(pgStore),
//	    vigil.WithScanSchedule("*/5 * * * *"),
//	)
//
//	eng, err := engine.Build(v,
//	    engine.WithExtension(myExtension),
//	    engine.WithMiddleware(middleware.Logging(logger)),
//	    engine.WithBackoff(backoff.NewExponential(time.Second, time.Minute)),
//	    engine.WithGuardConfig(quota.GuardConfig{
//	        Service:    "speech_to_text",
//	        DailyLimit: 100,
//	    }),
//	)
//
// # Using the Subsystems
//
//	// Route a terminally failed job.
//	res, err := eng.Router().Route(ctx, dlq.RouteRequest{...})
//
//	// Sweep for stuck records on demand.
//	result, err := eng.Scanner().Scan(ctx, scan.Request{})
//
//	// Report quota state.
//	report, err := eng.Monitor().Monitor(ctx, quota.Request{})
//
//	// Ask before spending provider budget.
//	if eng.Guard().Allow("speech_to_text", 1) { ... }
//
// # Lifecycle
//
// Start launches the sweep runner, which invokes the scanner and monitor
// on their cron schedules. Stop drains the runner, notifies shutdown
// extensions, and closes the store.
//
//	if err := eng.Start(ctx); err != nil { ... }
//	defer eng.Stop(ctx)
//
// # Options
//
//   - [WithExtension] — register a lifecycle extension
//   - [WithMiddleware] — add a middleware to the invocation chain
//   - [WithBackoff] — set the sweep retry backoff strategy
//   - [WithSweepRetries] — bound retries of a failed sweep
//   - [WithClassification] — replace the router's severity grading
//   - [WithMetadataConfig] — replace the router's triage cost model
//   - [WithScannerConfig] — replace scanner thresholds and limits
//   - [WithQuotaConfig] — replace tracked services and cutoffs
//   - [WithGuardConfig] — configure per-service spend brakes
//   - [WithTracerProvider] — set the OpenTelemetry tracer provider
//   - [WithMeterProvider] — set the OpenTelemetry meter provider
package engine
