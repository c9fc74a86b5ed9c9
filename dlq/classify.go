package dlq

import (
	"strings"

	"github.com/raynmakers/vigil/job"
)

// Classification controls how failure contexts are graded into severities.
// Matching is done on the normalized error type (lowercased, trimmed,
// spaces and hyphens folded to underscores) by substring.
type Classification struct {
	// HighSeverity lists error-type markers graded high.
	HighSeverity []string

	// MediumSeverity lists error-type markers graded medium.
	MediumSeverity []string

	// RetryEscalation is the retry count at which an otherwise low failure
	// is raised to medium. Zero disables escalation.
	RetryEscalation int
}

// DefaultClassification returns the stock severity grading.
func DefaultClassification() Classification {
	return Classification{
		HighSeverity: []string{
			"authorization",
			"authentication",
			"permission",
			"corruption",
			"security",
			"critical",
		},
		MediumSeverity: []string{
			"quota",
			"budget",
			"config",
			"dependency",
		},
		RetryEscalation: 5,
	}
}

// Severity grades a failure context. High markers win over medium markers;
// retry escalation applies only when no marker matched.
func (c Classification) Severity(fc FailureContext) Severity {
	errType := normalizeErrorType(fc.ErrorType)

	for _, marker := range c.HighSeverity {
		if strings.Contains(errType, marker) {
			return SeverityHigh
		}
	}
	for _, marker := range c.MediumSeverity {
		if strings.Contains(errType, marker) {
			return SeverityMedium
		}
	}
	if c.RetryEscalation > 0 && fc.RetryCount >= c.RetryEscalation {
		return SeverityMedium
	}

	return SeverityLow
}

// RecoveryPriority derives the recovery ordering from severity and the
// job's latency class. High severity is always urgent; below that, realtime
// job types are bumped one band above batch work of the same severity.
func RecoveryPriority(sev Severity, typ job.Type) Priority {
	switch {
	case sev == SeverityHigh:
		return PriorityUrgent
	case sev == SeverityMedium && typ.Realtime():
		return PriorityHigh
	case sev == SeverityLow && typ.Realtime():
		return PriorityMedium
	default:
		return PriorityLow
	}
}

func normalizeErrorType(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, " ", "_")

	return s
}
