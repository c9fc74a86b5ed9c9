package engine

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/raynmakers/vigil"
	"github.com/raynmakers/vigil/backoff"
	"github.com/raynmakers/vigil/dlq"
	"github.com/raynmakers/vigil/ext"
	"github.com/raynmakers/vigil/job"
	mw "github.com/raynmakers/vigil/middleware"
	"github.com/raynmakers/vigil/observability"
	"github.com/raynmakers/vigil/quota"
	"github.com/raynmakers/vigil/runner"
	"github.com/raynmakers/vigil/scan"
	"github.com/raynmakers/vigil/video"
)

// Engine wraps a Vigil coordinator with typed subsystem access.
// Use Build() to create one from a coordinator.
type Engine struct {
	v          *vigil.Vigil
	extensions *ext.Registry
	router     *dlq.Router
	scanner    *scan.Scanner
	monitor    *quota.Monitor
	guard      *quota.Guard
	run        *runner.Runner
	bo         backoff.Strategy
	retries    int
	mws        []mw.Middleware
	logger     *slog.Logger

	// Subsystem configs (optional; defaults apply when unset).
	classification    dlq.Classification
	classificationSet bool
	metaCfg           dlq.MetadataConfig
	metaCfgSet        bool
	scanCfg           scan.Config
	scanCfgSet        bool
	quotaCfg          quota.Config
	guardConfigs      []quota.GuardConfig

	// OpenTelemetry providers (optional; nil means use global).
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
}

// Option configures an Engine.
type Option func(*Engine)

// WithExtension registers an extension with the engine.
func WithExtension(e ext.Extension) Option {
	return func(eng *Engine) {
		eng.extensions.Register(e)
	}
}

// WithMiddleware adds middleware to the engine's invocation chain.
func WithMiddleware(m mw.Middleware) Option {
	return func(eng *Engine) {
		eng.mws = append(eng.mws, m)
	}
}

// WithBackoff sets the retry backoff strategy for failed scheduled sweeps.
// If not set, backoff.DefaultStrategy() (exponential with jitter) is used.
func WithBackoff(b backoff.Strategy) Option {
	return func(eng *Engine) {
		eng.bo = b
	}
}

// WithSweepRetries sets how many times a failed scheduled sweep is retried
// before the failure is reported through the extension registry.
func WithSweepRetries(n int) Option {
	return func(eng *Engine) {
		eng.retries = n
	}
}

// WithClassification replaces the router's severity grading.
func WithClassification(c dlq.Classification) Option {
	return func(eng *Engine) {
		eng.classification = c
		eng.classificationSet = true
	}
}

// WithMetadataConfig replaces the router's triage cost model.
func WithMetadataConfig(m dlq.MetadataConfig) Option {
	return func(eng *Engine) {
		eng.metaCfg = m
		eng.metaCfgSet = true
	}
}

// WithScannerConfig replaces the scanner defaults wholesale.
func WithScannerConfig(cfg scan.Config) Option {
	return func(eng *Engine) {
		eng.scanCfg = cfg
		eng.scanCfgSet = true
	}
}

// WithQuotaConfig replaces the quota monitor configuration: tracked
// services, default alert threshold, and band cutoffs.
func WithQuotaConfig(cfg quota.Config) Option {
	return func(eng *Engine) {
		eng.quotaCfg = cfg
	}
}

// WithGuardConfig registers per-service spend brakes. When no guard
// configs are provided, the guard is derived from the quota config's
// service budgets.
func WithGuardConfig(configs ...quota.GuardConfig) Option {
	return func(eng *Engine) {
		eng.guardConfigs = append(eng.guardConfigs, configs...)
	}
}

// WithTracerProvider sets a custom OTel TracerProvider for the engine.
// When set, the tracing middleware uses this provider instead of the global one.
// If not set, the global otel.GetTracerProvider() is used.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(eng *Engine) {
		eng.tracerProvider = tp
	}
}

// WithMeterProvider sets a custom OTel MeterProvider for the engine.
// When set, both the metrics middleware and the observability extension
// use this provider instead of the global one.
// If not set, the global otel.GetMeterProvider() is used.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(eng *Engine) {
		eng.meterProvider = mp
	}
}

// Build creates an Engine from an existing coordinator.
// The coordinator's store must implement the job, video, dlq, and quota
// store interfaces.
func Build(v *vigil.Vigil, opts ...Option) (*Engine, error) {
	logger := v.Logger()
	store := v.Store()

	if store == nil {
		return nil, vigil.ErrNoStore
	}

	// Type-assert the store to get the job.Store interface.
	js, ok := store.(job.Store)
	if !ok {
		return nil, fmt.Errorf("vigil: store does not implement job.Store")
	}

	// Type-assert the store to get the video.Store interface.
	vs, ok := store.(video.Store)
	if !ok {
		return nil, fmt.Errorf("vigil: store does not implement video.Store")
	}

	// Type-assert the store to get the dlq.Store interface.
	ds, ok := store.(dlq.Store)
	if !ok {
		return nil, fmt.Errorf("vigil: store does not implement dlq.Store")
	}

	// Type-assert the store to get the quota.UsageSource interface.
	us, ok := store.(quota.UsageSource)
	if !ok {
		return nil, fmt.Errorf("vigil: store does not implement quota.UsageSource")
	}

	eng := &Engine{
		v:          v,
		extensions: ext.NewRegistry(logger),
		logger:     logger,
		scanCfg:    scan.DefaultConfig(),
		quotaCfg:   quota.DefaultConfig(),
		retries:    2,
	}

	for _, opt := range opts {
		opt(eng)
	}

	// Default backoff strategy if none provided.
	if eng.bo == nil {
		eng.bo = backoff.DefaultStrategy()
	}

	cfg := v.Config()

	// Thread the coordinator's read limit through to the scanner unless a
	// full scanner config was supplied.
	if !eng.scanCfgSet && cfg.ReadLimit > 0 {
		eng.scanCfg.ReadLimit = cfg.ReadLimit
	}

	// Create the recovery components. The extension registry is the hook
	// sink for all of them.
	routerOpts := []dlq.RouterOption{
		dlq.WithLogger(logger),
		dlq.WithHooks(eng.extensions),
	}
	if eng.classificationSet {
		routerOpts = append(routerOpts, dlq.WithClassification(eng.classification))
	}
	if eng.metaCfgSet {
		routerOpts = append(routerOpts, dlq.WithMetadataConfig(eng.metaCfg))
	}
	eng.router = dlq.NewRouter(ds, js, routerOpts...)
	eng.scanner = scan.NewScanner(js, vs, eng.router,
		scan.WithLogger(logger),
		scan.WithConfig(eng.scanCfg),
		scan.WithHooks(eng.extensions),
	)
	eng.monitor = quota.NewMonitor(us,
		quota.WithLogger(logger),
		quota.WithConfig(eng.quotaCfg),
		quota.WithHooks(eng.extensions),
	)

	// The guard shares the monitor's budget definitions unless explicit
	// brake configs were provided.
	if len(eng.guardConfigs) > 0 {
		eng.guard = quota.NewGuard(eng.guardConfigs...)
	} else {
		eng.guard = quota.GuardFromServices(eng.quotaCfg.Services)
	}

	// Build tracing middleware (custom provider or global).
	var tracingMw mw.Middleware
	if eng.tracerProvider != nil {
		tracer := eng.tracerProvider.Tracer("github.com/raynmakers/vigil")
		tracingMw = mw.TracingWithTracer(tracer)
	} else {
		tracingMw = mw.Tracing()
	}

	// Build metrics middleware (custom provider or global).
	var metricsMw mw.Middleware
	if eng.meterProvider != nil {
		meter := eng.meterProvider.Meter("github.com/raynmakers/vigil")
		metricsMw = mw.MetricsWithMeter(meter)
	} else {
		metricsMw = mw.Metrics()
	}

	// Register the observability metrics extension.
	var obsExt *observability.MetricsExtension
	if eng.meterProvider != nil {
		meter := eng.meterProvider.Meter("github.com/raynmakers/vigil/observability")
		obsExt = observability.NewMetricsExtensionWithMeter(meter)
	} else {
		obsExt = observability.NewMetricsExtension()
	}
	eng.extensions.Register(obsExt)

	// Build default middleware stack: recover → tracing → metrics → logging → timeout.
	defaultMws := []mw.Middleware{
		mw.Recover(logger),
		tracingMw,
		metricsMw,
		mw.Logging(logger),
		mw.Timeout(logger),
	}
	allMws := make([]mw.Middleware, 0, len(defaultMws)+len(eng.mws))
	allMws = append(allMws, defaultMws...)
	allMws = append(allMws, eng.mws...)

	// Create the sweep runner with the two periodic tasks.
	eng.run = runner.New(logger,
		runner.WithMiddleware(mw.Chain(allMws...)),
		runner.WithBackoff(eng.bo, eng.retries),
		runner.WithEmitter(eng.extensions),
	)
	if err := eng.run.Add(runner.Task{
		Component: "scanner",
		Operation: "sweep",
		Schedule:  cfg.ScanSchedule,
		Timeout:   cfg.InvocationTimeout,
		Invoke: func(ctx context.Context) error {
			_, err := eng.scanner.Scan(ctx, scan.Request{EscalateCritical: true})
			return err
		},
	}); err != nil {
		return nil, err
	}
	if err := eng.run.Add(runner.Task{
		Component: "monitor",
		Operation: "report",
		Schedule:  cfg.MonitorSchedule,
		Timeout:   cfg.InvocationTimeout,
		Invoke: func(ctx context.Context) error {
			_, err := eng.monitor.Monitor(ctx, quota.Request{IncludePredictions: true})
			return err
		},
	}); err != nil {
		return nil, err
	}

	// Wire back into the coordinator.
	v.SetRunner(eng.run)
	v.SetExtensions(eng.extensions)

	return eng, nil
}

// Start begins periodic sweeps.
func (eng *Engine) Start(ctx context.Context) error {
	return eng.v.Start(ctx)
}

// Stop gracefully shuts down the engine.
func (eng *Engine) Stop(ctx context.Context) error {
	return eng.v.Stop(ctx)
}

// Vigil returns the underlying coordinator.
func (eng *Engine) Vigil() *vigil.Vigil { return eng.v }

// Extensions returns the extension registry.
func (eng *Engine) Extensions() *ext.Registry { return eng.extensions }

// Router returns the dead letter router.
func (eng *Engine) Router() *dlq.Router { return eng.router }

// Scanner returns the stuck-record scanner.
func (eng *Engine) Scanner() *scan.Scanner { return eng.scanner }

// Monitor returns the quota monitor.
func (eng *Engine) Monitor() *quota.Monitor { return eng.monitor }

// Guard returns the quota spend guard.
func (eng *Engine) Guard() *quota.Guard { return eng.guard }

// Runner returns the sweep runner.
func (eng *Engine) Runner() *runner.Runner { return eng.run }
