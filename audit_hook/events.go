package audithook

// Audit event actions. Each constant corresponds to one ext lifecycle hook
// and becomes the Action field of the audit event.
const (
	ActionDeadLetterRouted   = "dead_letter.routed"
	ActionDeadLetterReplayed = "dead_letter.replayed"
	ActionScanCompleted      = "scan.completed"
	ActionQuotaAlert         = "quota.alert"
	ActionSweepFailed        = "sweep.failed"
)

// Audit event categories group related actions.
const (
	CategoryRecovery = "vigil.recovery"
	CategoryScan     = "vigil.scan"
	CategoryQuota    = "vigil.quota"
	CategorySweep    = "vigil.sweep"
)

// Resource types used as the Resource field in audit events.
const (
	ResourceDeadLetter = "dead_letter"
	ResourceScan       = "scan"
	ResourceService    = "quota_service"
	ResourceSweep      = "sweep"
)

// AllActions returns every action this extension can emit.
func AllActions() []string {
	return []string{
		ActionDeadLetterRouted,
		ActionDeadLetterReplayed,
		ActionScanCompleted,
		ActionQuotaAlert,
		ActionSweepFailed,
	}
}
