// Package dlq provides the dead letter collection for pipeline jobs that
// have terminally failed, and the Router that moves them there with triage
// metadata attached.
//
// # Entry
//
// An [Entry] captures everything an operator needs to triage a failure:
//   - JobID / JobType: original job identity
//   - Failure: the failure context reported by the producer (error type,
//     message, retry count, last attempt, original inputs)
//   - Severity: low, medium, or high, graded from the failure class
//   - Priority: recovery ordering derived from severity and latency class
//   - Metadata: type-specific triage facts (affected channels or videos,
//     estimated quota units, estimated transcription cost, target platforms)
//   - Hints: optional operator-supplied recovery hints passed through as-is
//
// # Router
//
// [Router.Route] is idempotent: a job that already has a dead letter entry
// is reported as already routed and nothing is written. Otherwise the entry
// is persisted and the active job record is removed in one store batch.
// Cleanup of the active record is best-effort; a missing record or a failed
// delete never fails the routing (see [CleanupStatus]).
//
// # Severity
//
// Severity comes from substring markers on the normalized error type:
// authorization and security failures, data corruption, and system-critical
// errors grade high; quota, budget, configuration, and dependency failures
// grade medium; everything else is low unless the retry count has reached
// the escalation threshold, which also grades medium.
//
// # Replay
//
// Replaying an entry re-creates the original job in queued status with a
// zero retry count and stamps ReplayedAt on the entry. The entry itself is
// kept for audit until purged.
//
// # Admin API
//
// The dead letter collection is exposed via the HTTP API:
//   - POST /v1/deadletters/route      — route a failed job
//   - GET  /v1/deadletters            — list entries
//   - GET  /v1/deadletters/{entryId}  — get a single entry
//   - POST /v1/deadletters/{entryId}/replay — replay one entry
//   - POST /v1/deadletters/purge      — purge old entries
//   - GET  /v1/deadletters/count      — entry count
package dlq
