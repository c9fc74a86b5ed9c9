package dlq

import (
	"fmt"
	"time"

	"github.com/raynmakers/vigil"
	"github.com/raynmakers/vigil/id"
	"github.com/raynmakers/vigil/job"
)

// Collection is the store collection holding dead letter entries.
const Collection = "dead_letters"

// Severity grades how dangerous a failure class is.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Rank orders severities for comparison; higher is worse. Unknown values
// rank lowest.
func (s Severity) Rank() int {
	switch s {
	case SeverityHigh:
		return 2
	case SeverityMedium:
		return 1
	default:
		return 0
	}
}

// Priority orders recovery work across dead letter entries.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Rank orders priorities for comparison; higher is more urgent. Unknown
// values rank lowest.
func (p Priority) Rank() int {
	switch p {
	case PriorityUrgent:
		return 3
	case PriorityHigh:
		return 2
	case PriorityMedium:
		return 1
	default:
		return 0
	}
}

// FailureContext is the producer-reported description of a terminal failure.
type FailureContext struct {
	ErrorType     string         `json:"error_type"`
	ErrorMessage  string         `json:"error_message"`
	RetryCount    int            `json:"retry_count"`
	LastAttemptAt *time.Time     `json:"last_attempt_at,omitempty"`
	Inputs        map[string]any `json:"inputs,omitempty"`
}

// Validate reports whether the context carries the required fields.
func (fc FailureContext) Validate() error {
	if fc.ErrorType == "" {
		return fmt.Errorf("%w: error_type", vigil.ErrMissingFailureContext)
	}
	if fc.ErrorMessage == "" {
		return fmt.Errorf("%w: error_message", vigil.ErrMissingFailureContext)
	}

	return nil
}

// Entry represents a terminally failed job moved to the dead letter
// collection for inspection, triage, or replay.
type Entry struct {
	vigil.Entity

	ID         id.DeadLetterID   `json:"id"`
	JobID      string            `json:"job_id"`
	JobType    job.Type          `json:"job_type"`
	Severity   Severity          `json:"severity"`
	Priority   Priority          `json:"recovery_priority"`
	Failure    FailureContext    `json:"failure_context"`
	Metadata   map[string]any    `json:"metadata,omitempty"`
	Hints      map[string]string `json:"recovery_hints,omitempty"`
	RoutedAt   time.Time         `json:"routed_at"`
	Attempts   int               `json:"processing_attempts"`
	ReplayedAt *time.Time        `json:"replayed_at,omitempty"`
}

// RouteStatus reports the outcome of a routing attempt.
type RouteStatus string

const (
	// RouteStatusRouted means a new dead letter entry was created.
	RouteStatusRouted RouteStatus = "routed"
	// RouteStatusAlreadyExists means the job had been routed before; nothing
	// was written.
	RouteStatusAlreadyExists RouteStatus = "already_exists"
)

// CleanupStatus reports what happened to the active job record after its
// dead letter entry was written.
type CleanupStatus string

const (
	// CleanupDeleted means the active record was removed.
	CleanupDeleted CleanupStatus = "deleted"
	// CleanupSkipped means no active record existed.
	CleanupSkipped CleanupStatus = "skipped"
	// CleanupFailed means the delete failed; the error was logged and the
	// routing still succeeded.
	CleanupFailed CleanupStatus = "failed"
	// CleanupNone means no cleanup ran because no entry was written.
	CleanupNone CleanupStatus = "none"
)

// RouteResult is the outcome of Router.Route.
type RouteResult struct {
	Status  RouteStatus   `json:"status"`
	Entry   *Entry        `json:"entry"`
	Cleanup CleanupStatus `json:"cleanup"`
}
