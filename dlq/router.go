package dlq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/raynmakers/vigil"
	"github.com/raynmakers/vigil/id"
	"github.com/raynmakers/vigil/job"
)

// Hooks receives router lifecycle notifications. The extension registry
// implements it; a nil Hooks disables notifications.
type Hooks interface {
	EmitDeadLetterRouted(ctx context.Context, entry *Entry)
	EmitDeadLetterReplayed(ctx context.Context, entryID id.DeadLetterID, jobID string)
}

// RouterOption configures a Router.
type RouterOption func(*Router)

// WithLogger sets the router's structured logger.
func WithLogger(l *slog.Logger) RouterOption {
	return func(r *Router) { r.logger = l }
}

// WithClassification replaces the severity grading rules.
func WithClassification(c Classification) RouterOption {
	return func(r *Router) { r.class = c }
}

// WithMetadataConfig replaces the triage metadata cost model.
func WithMetadataConfig(m MetadataConfig) RouterOption {
	return func(r *Router) { r.meta = m }
}

// WithHooks sets the lifecycle hook sink.
func WithHooks(h Hooks) RouterOption {
	return func(r *Router) { r.hooks = h }
}

// Router moves terminally failed jobs into the dead letter collection.
type Router struct {
	store  Store
	jobs   job.Store
	logger *slog.Logger
	class  Classification
	meta   MetadataConfig
	hooks  Hooks
}

// NewRouter creates a Router over the given stores.
func NewRouter(store Store, jobs job.Store, opts ...RouterOption) *Router {
	r := &Router{
		store:  store,
		jobs:   jobs,
		logger: slog.Default(),
		class:  DefaultClassification(),
		meta:   DefaultMetadataConfig(),
	}
	for _, opt := range opts {
		opt(r)
	}

	return r
}

// RouteRequest describes a terminally failed job to be routed.
type RouteRequest struct {
	JobID   string            `json:"job_id"`
	JobType string            `json:"job_type"`
	Failure FailureContext    `json:"failure_context"`
	Hints   map[string]string `json:"recovery_hints,omitempty"`
}

// Route moves a failed job into the dead letter collection. It validates
// the request before touching the store, short-circuits when the job is
// already routed, grades severity and recovery priority, attaches
// type-specific triage metadata, and removes the active job record.
func (r *Router) Route(ctx context.Context, req RouteRequest) (*RouteResult, error) {
	if strings.TrimSpace(req.JobID) == "" {
		return nil, fmt.Errorf("vigil/dlq: route: %w", vigil.ErrMissingJobID)
	}
	if err := req.Failure.Validate(); err != nil {
		return nil, fmt.Errorf("vigil/dlq: route %s: %w", req.JobID, err)
	}

	typ := job.ParseType(req.JobType)

	// Idempotency check before any write.
	existing, err := r.store.GetDeadLetterByJobID(ctx, req.JobID)
	switch {
	case err == nil:
		r.logger.Info("job already routed to dead letter collection",
			slog.String("job_id", req.JobID),
			slog.String("dlq_id", existing.ID.String()))

		return &RouteResult{Status: RouteStatusAlreadyExists, Entry: existing, Cleanup: CleanupNone}, nil
	case !errors.Is(err, vigil.ErrDeadLetterNotFound):
		return nil, fmt.Errorf("vigil/dlq: route %s: existence check: %w", req.JobID, err)
	}

	sev := r.class.Severity(req.Failure)
	entry := &Entry{
		Entity:   vigil.NewEntity(),
		ID:       id.NewDeadLetterID(),
		JobID:    req.JobID,
		JobType:  typ,
		Severity: sev,
		Priority: RecoveryPriority(sev, typ),
		Failure:  req.Failure,
		Metadata: BuildMetadata(r.meta, typ, req.Failure.Inputs),
		Hints:    req.Hints,
		RoutedAt: time.Now().UTC(),
		Attempts: req.Failure.RetryCount + 1,
	}

	cleanup, err := r.store.RouteDeadLetter(ctx, entry)
	if errors.Is(err, vigil.ErrDeadLetterExists) {
		// Lost a race with a concurrent route of the same job. Report the
		// surviving entry instead.
		existing, getErr := r.store.GetDeadLetterByJobID(ctx, req.JobID)
		if getErr != nil {
			return nil, fmt.Errorf("vigil/dlq: route %s: %w", req.JobID, getErr)
		}

		return &RouteResult{Status: RouteStatusAlreadyExists, Entry: existing, Cleanup: CleanupNone}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("vigil/dlq: route %s: %w", req.JobID, err)
	}

	if cleanup == CleanupFailed {
		r.logger.Warn("active job cleanup failed after routing",
			slog.String("job_id", req.JobID),
			slog.String("collection", typ.Collection()))
	}

	r.logger.Info("job routed to dead letter collection",
		slog.String("job_id", req.JobID),
		slog.String("dlq_id", entry.ID.String()),
		slog.String("job_type", typ.String()),
		slog.String("severity", string(entry.Severity)),
		slog.String("recovery_priority", string(entry.Priority)))

	if r.hooks != nil {
		r.hooks.EmitDeadLetterRouted(ctx, entry)
	}

	return &RouteResult{Status: RouteStatusRouted, Entry: entry, Cleanup: cleanup}, nil
}

// Exists reports whether a dead letter entry exists for the given job ID.
func (r *Router) Exists(ctx context.Context, jobID string) (bool, error) {
	_, err := r.store.GetDeadLetterByJobID(ctx, jobID)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, vigil.ErrDeadLetterNotFound):
		return false, nil
	default:
		return false, err
	}
}

// DLQStore returns the underlying dead letter store for direct access to
// List, Get, Purge, and Count operations.
func (r *Router) DLQStore() Store {
	return r.store
}
