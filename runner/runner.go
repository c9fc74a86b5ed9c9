// Package runner fires the scheduled component invocations: stuck-record
// sweeps and quota reports run on cron expressions from a single tick
// loop. There is no leader election and no run locking -- sweeps and
// reports are idempotent, so overlapping runs across replicas converge on
// the same state.
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	cronlib "github.com/robfig/cron/v3"

	"github.com/raynmakers/vigil/backoff"
	"github.com/raynmakers/vigil/middleware"
)

// InvokeFunc runs one scheduled component operation.
type InvokeFunc func(ctx context.Context) error

// Emitter emits runner lifecycle events.
// ext.Registry satisfies this interface via EmitSweepFailed.
type Emitter interface {
	EmitSweepFailed(ctx context.Context, component string, err error)
}

// Task binds a component operation to a cron schedule.
type Task struct {
	// Component is the subsystem name carried on the invocation
	// ("scanner", "monitor").
	Component string
	// Operation is the operation name ("sweep", "report").
	Operation string
	// Schedule is a cron expression. Standard 5-field syntax and
	// descriptors like "@every 5m" are accepted.
	Schedule string
	// Timeout bounds each invocation. Zero means no deadline.
	Timeout time.Duration
	// Invoke runs the operation.
	Invoke InvokeFunc
}

// Option configures a Runner.
type Option func(*Runner)

// WithTickInterval sets how often the runner checks for due tasks.
func WithTickInterval(d time.Duration) Option {
	return func(r *Runner) { r.tickInterval = d }
}

// WithMiddleware sets the middleware chain applied to every invocation.
func WithMiddleware(mw middleware.Middleware) Option {
	return func(r *Runner) { r.chain = mw }
}

// WithBackoff sets the retry strategy and the number of retries after a
// failed invocation.
func WithBackoff(strategy backoff.Strategy, maxRetries int) Option {
	return func(r *Runner) {
		r.strategy = strategy
		r.maxRetries = maxRetries
	}
}

// WithEmitter sets the lifecycle event emitter.
func WithEmitter(e Emitter) Option {
	return func(r *Runner) { r.emitter = e }
}

// cronParser supports standard 5-field cron and descriptors like "@every 5m".
var cronParser = cronlib.NewParser(
	cronlib.Minute | cronlib.Hour | cronlib.Dom | cronlib.Month | cronlib.Dow | cronlib.Descriptor,
)

// ParseSchedule parses a cron expression and returns the schedule.
// Exported for use by engine configuration validation.
func ParseSchedule(expr string) (cronlib.Schedule, error) {
	return cronParser.Parse(expr)
}

type task struct {
	component string
	operation string
	timeout   time.Duration
	schedule  cronlib.Schedule
	invoke    InvokeFunc

	// next is read and written only by the tick goroutine.
	next time.Time
}

// Runner runs registered tasks on a tick loop.
type Runner struct {
	logger       *slog.Logger
	tickInterval time.Duration
	chain        middleware.Middleware
	strategy     backoff.Strategy
	maxRetries   int
	emitter      Emitter

	tasks []*task

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// New creates a Runner.
func New(logger *slog.Logger, opts ...Option) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Runner{
		logger:       logger,
		tickInterval: 1 * time.Second,
		chain:        middleware.Chain(),
		strategy:     backoff.DefaultStrategy(),
		maxRetries:   2,
		stopCh:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Add registers a task. Must be called before Start.
func (r *Runner) Add(t Task) error {
	sched, err := ParseSchedule(t.Schedule)
	if err != nil {
		return fmt.Errorf("vigil/runner: parse schedule %q for %s.%s: %w",
			t.Schedule, t.Component, t.Operation, err)
	}
	r.tasks = append(r.tasks, &task{
		component: t.Component,
		operation: t.Operation,
		timeout:   t.Timeout,
		schedule:  sched,
		invoke:    t.Invoke,
	})
	return nil
}

// Start launches the tick loop.
func (r *Runner) Start(_ context.Context) error {
	now := time.Now().UTC()
	for _, t := range r.tasks {
		t.next = t.schedule.Next(now)
	}

	r.wg.Add(1)
	go r.tickLoop()
	r.logger.Info("runner started",
		slog.Int("tasks", len(r.tasks)),
		slog.Duration("tick_interval", r.tickInterval),
	)
	return nil
}

// Stop signals the runner to stop and waits for the tick loop to finish.
func (r *Runner) Stop(_ context.Context) error {
	close(r.stopCh)
	r.wg.Wait()
	r.logger.Info("runner stopped")
	return nil
}

// tickLoop fires on each tick interval and runs due tasks.
func (r *Runner) tickLoop() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopCh:
			return
		case <-ticker.C:
			r.tick()
		}
	}
}

func (r *Runner) tick() {
	now := time.Now().UTC()
	for _, t := range r.tasks {
		if t.next.After(now) {
			continue
		}
		r.fire(t)
		// Schedule off the completion time so a long sweep does not
		// queue up a burst of immediate re-fires.
		t.next = t.schedule.Next(time.Now().UTC())
	}
}

// fire runs one task through the middleware chain, retrying transient
// failures per the backoff strategy.
func (r *Runner) fire(t *task) {
	ctx := context.Background()
	inv := &middleware.Invocation{
		Component: t.component,
		Operation: t.operation,
		Timeout:   t.timeout,
		Scheduled: true,
	}

	var err error
	for attempt := 0; ; attempt++ {
		err = r.chain(ctx, inv, middleware.Handler(t.invoke))
		if err == nil {
			return
		}
		if attempt >= r.maxRetries {
			break
		}

		delay := r.strategy.Delay(attempt + 1)
		r.logger.Warn("scheduled invocation failed, retrying",
			slog.String("component", t.component),
			slog.String("operation", t.operation),
			slog.Int("attempt", attempt+1),
			slog.Duration("delay", delay),
			slog.String("error", err.Error()),
		)
		select {
		case <-r.stopCh:
			return
		case <-time.After(delay):
		}
	}

	r.logger.Error("scheduled invocation exhausted retries",
		slog.String("component", t.component),
		slog.String("operation", t.operation),
		slog.Int("attempts", r.maxRetries+1),
		slog.String("error", err.Error()),
	)
	if r.emitter != nil {
		r.emitter.EmitSweepFailed(ctx, t.component, err)
	}
}
