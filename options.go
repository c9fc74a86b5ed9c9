package vigil

import (
	"context"
	"log/slog"
)

// Option configures a Vigil coordinator.
type Option func(*Vigil) error

// Storer is the minimal store interface held by the coordinator.
// It covers lifecycle operations only. The full composite interface
// (store.Store) is used in subsystem layers that don't create import
// cycles. Implementations satisfy store.Store which embeds all
// subsystem stores.
type Storer interface {
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

// sweepRunner is an internal interface for the schedule loop lifecycle.
type sweepRunner interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// extensionEmitter is an internal interface for extension lifecycle events.
type extensionEmitter interface {
	EmitShutdown(ctx context.Context)
}

// Vigil is the central coordinator for dead letter routing, stuck-job
// scanning, and quota monitoring.
//
// Create one with New() and functional options. Vigil holds references to
// subsystem components via internal interfaces to avoid import cycles. Use
// engine.Build to wire everything together.
type Vigil struct {
	config     Config
	logger     *slog.Logger
	store      Storer
	extensions extensionEmitter
	runner     sweepRunner

	// started tracks whether Start has been called.
	started bool
}

// New creates a new Vigil coordinator with the given options.
func New(opts ...Option) (*Vigil, error) {
	v := &Vigil{
		config: DefaultConfig(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(v); err != nil {
			return nil, err
		}
	}
	return v, nil
}

// Logger returns the coordinator's logger.
func (v *Vigil) Logger() *slog.Logger { return v.logger }

// Store returns the coordinator's store.
func (v *Vigil) Store() Storer { return v.store }

// Config returns a copy of the coordinator's configuration.
func (v *Vigil) Config() Config { return v.config }

// SetRunner sets the schedule loop (called by the engine package).
func (v *Vigil) SetRunner(r sweepRunner) { v.runner = r }

// SetExtensions sets the extension emitter (called by the engine package).
func (v *Vigil) SetExtensions(e extensionEmitter) { v.extensions = e }

// Start begins periodic sweeps.
func (v *Vigil) Start(ctx context.Context) error {
	if v.store == nil {
		return ErrNoStore
	}
	if v.runner != nil {
		if err := v.runner.Start(ctx); err != nil {
			return err
		}
	}
	v.started = true
	return nil
}

// Stop gracefully shuts down the coordinator.
func (v *Vigil) Stop(ctx context.Context) error {
	if v.runner != nil && v.started {
		if err := v.runner.Stop(ctx); err != nil {
			v.logger.Error("runner stop error", "error", err)
		}
	}
	if v.extensions != nil {
		v.extensions.EmitShutdown(ctx)
	}
	if v.store != nil {
		return v.store.Close()
	}
	return nil
}

// WithConfig replaces the coordinator's configuration wholesale.
func WithConfig(cfg Config) Option {
	return func(v *Vigil) error {
		v.config = cfg
		return nil
	}
}

// WithScanSchedule sets the cron expression for stuck-job scans.
func WithScanSchedule(expr string) Option {
	return func(v *Vigil) error {
		v.config.ScanSchedule = expr
		return nil
	}
}

// WithMonitorSchedule sets the cron expression for quota reports.
func WithMonitorSchedule(expr string) Option {
	return func(v *Vigil) error {
		v.config.MonitorSchedule = expr
		return nil
	}
}

// WithReadLimit caps per-collection reads for a single sweep.
func WithReadLimit(n int) Option {
	return func(v *Vigil) error {
		v.config.ReadLimit = n
		return nil
	}
}

// WithLogger sets the structured logger for the coordinator.
func WithLogger(l *slog.Logger) Option {
	return func(v *Vigil) error {
		v.logger = l
		return nil
	}
}

// WithStore sets the persistence backend for the coordinator.
// The store must implement Storer at minimum; typically it will be a
// store.Store which embeds all subsystem store interfaces.
func WithStore(s Storer) Option {
	return func(v *Vigil) error {
		v.store = s
		return nil
	}
}
