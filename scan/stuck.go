package scan

import (
	"time"

	"github.com/raynmakers/vigil/id"
	"github.com/raynmakers/vigil/job"
)

// State classifies how far past the thresholds a record has aged.
type State string

const (
	// StateStale means the record aged past the staleness threshold.
	StateStale State = "stale"
	// StateCritical means the record aged past the critical threshold.
	StateCritical State = "critical"
)

// Category is the normalized cause bucket used to look up recommended
// actions.
type Category string

const (
	CategoryQuota      Category = "quota"
	CategoryTimeout    Category = "timeout"
	CategoryDependency Category = "dependency"
	CategoryUnknown    Category = "unknown"
)

// Cause is the diagnosed reason a record stopped making progress.
type Cause struct {
	Category Category `json:"category"`
	Detail   string   `json:"detail"`
}

// StuckRecord is one flagged job or video.
type StuckRecord struct {
	ID         string    `json:"id"`
	Collection string    `json:"collection"`
	JobType    job.Type  `json:"job_type,omitempty"`
	Status     string    `json:"status"`
	State      State     `json:"state"`
	AgeHours   float64   `json:"age_hours"`
	RetryCount int       `json:"retry_count,omitempty"`
	UpdatedAt  time.Time `json:"updated_at"`
	Cause      Cause     `json:"cause"`

	// inputs are carried for escalation only; they end up in the dead
	// letter entry, not the scan result.
	inputs map[string]any
}

// Escalation records the outcome of routing one critical job to the dead
// letter collection.
type Escalation struct {
	JobID         string          `json:"job_id"`
	Collection    string          `json:"collection"`
	Cause         Cause           `json:"cause"`
	Action        string          `json:"recommended_action"`
	AlreadyRouted bool            `json:"already_routed,omitempty"`
	Routed        bool            `json:"routed"`
	DLQID         id.DeadLetterID `json:"dlq_id,omitzero"`
	Error         string          `json:"error,omitempty"`
}

// Thresholds echoes the effective thresholds a sweep ran with.
type Thresholds struct {
	Staleness time.Duration `json:"staleness"`
	Critical  time.Duration `json:"critical"`
}

// Result is the outcome of one scan sweep.
type Result struct {
	ScanID          id.ScanID        `json:"scan_id"`
	StartedAt       time.Time        `json:"started_at"`
	Duration        time.Duration    `json:"duration"`
	Thresholds      Thresholds       `json:"thresholds"`
	TotalStuck      int              `json:"total_stuck"`
	StaleCount      int              `json:"stale_count"`
	CriticalCount   int              `json:"critical_count"`
	Records         []StuckRecord    `json:"records"`
	Analysis        Analysis         `json:"analysis"`
	Health          HealthImpact     `json:"health_impact"`
	Recommendations []Recommendation `json:"recommendations"`
	Escalations     []Escalation     `json:"escalations,omitempty"`

	// StatusBreakdown maps collection to status to count. Populated only
	// when requested.
	StatusBreakdown map[string]map[string]int `json:"status_breakdown,omitempty"`
}
