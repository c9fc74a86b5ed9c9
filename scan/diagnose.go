package scan

import (
	"time"

	"github.com/raynmakers/vigil/job"
)

// diagnosisRule matches a flagged record by job type, status, and age.
// Zero fields match anything; rules are evaluated in order and the first
// match wins.
type diagnosisRule struct {
	jobType job.Type
	status  string
	minAge  time.Duration
	cause   Cause
}

// diagnosisRules is ordered from most to least specific. Video records
// match with an empty job type.
var diagnosisRules = []diagnosisRule{
	{
		jobType: job.TypeChannelScrape,
		status:  "processing",
		cause:   Cause{Category: CategoryTimeout, Detail: "channel scrape ran past its expected window"},
	},
	{
		jobType: job.TypeSingleVideoFetch,
		status:  "queued",
		cause:   Cause{Category: CategoryDependency, Detail: "video platform API slow or unavailable"},
	},
	{
		status: "transcription_queued",
		cause:  Cause{Category: CategoryQuota, Detail: "transcription backlog or speech-to-text quota exhaustion"},
	},
	{
		status: "summary_queued",
		cause:  Cause{Category: CategoryDependency, Detail: "summarization blocked by a dependency or budget constraint"},
	},
	{
		status: "transcribing",
		cause:  Cause{Category: CategoryTimeout, Detail: "transcription request exceeded expected turnaround"},
	},
	{
		status: "summarizing",
		cause:  Cause{Category: CategoryTimeout, Detail: "summarization request exceeded expected turnaround"},
	},
	{
		status: "discovered",
		cause:  Cause{Category: CategoryDependency, Detail: "discovered but never queued; the scraping producer may be down"},
	},
	{
		status: "retrying",
		cause:  Cause{Category: CategoryDependency, Detail: "retry loop not converging"},
	},
	{
		status: "failed",
		cause:  Cause{Category: CategoryUnknown, Detail: "terminal failure was never routed to the dead letter collection"},
	},
	{
		status: "processing",
		minAge: 48 * time.Hour,
		cause:  Cause{Category: CategoryTimeout, Detail: "worker likely crashed mid-processing"},
	},
	{
		status: "processing",
		cause:  Cause{Category: CategoryDependency, Detail: "worker backlog; processing capacity exhausted"},
	},
	{
		status: "queued",
		cause:  Cause{Category: CategoryDependency, Detail: "no worker picked this job up"},
	},
}

// unknownCause is the fallback when no rule matches.
var unknownCause = Cause{Category: CategoryUnknown, Detail: "processing delay of unknown cause"}

// recommendedActions maps a cause category to the operator action attached
// to escalations.
var recommendedActions = map[Category]string{
	CategoryQuota:      "pause producers and verify provider quota and budget before resubmitting",
	CategoryTimeout:    "retry with a longer timeout or a smaller batch",
	CategoryDependency: "check downstream service health before replaying",
	CategoryUnknown:    "inspect job inputs and service logs",
}

// RecommendedAction returns the operator action for a cause category.
func RecommendedAction(cat Category) string {
	if action, ok := recommendedActions[cat]; ok {
		return action
	}

	return recommendedActions[CategoryUnknown]
}

// Diagnose looks up the cause for a flagged record. typ is empty for video
// records.
func Diagnose(typ job.Type, status string, age time.Duration) Cause {
	for _, rule := range diagnosisRules {
		if rule.jobType != "" && rule.jobType != typ {
			continue
		}
		if rule.status != "" && rule.status != status {
			continue
		}
		if rule.minAge > 0 && age < rule.minAge {
			continue
		}

		return rule.cause
	}

	return unknownCause
}

// escalationErrorType synthesizes the failure class for an escalated job so
// the router grades it consistently with producer-reported failures.
func escalationErrorType(cat Category) string {
	switch cat {
	case CategoryQuota:
		return "quota_exceeded"
	case CategoryTimeout:
		return "processing_timeout"
	case CategoryDependency:
		return "dependency_failure"
	default:
		return "stuck_unknown"
	}
}
