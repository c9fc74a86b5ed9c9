// Package scan detects pipeline records that have stopped making progress
// and turns them into diagnoses, health signals, and dead letter
// escalations.
//
// # Model
//
// A record is stale once its UpdatedAt is older than the staleness
// threshold and critical once it passes the critical threshold. Terminal
// records are never flagged. Every job collection and the video collection
// are read independently and merged; no writes happen until every read has
// succeeded, so a failed sweep has no side effects.
//
// # Diagnosis
//
// Each flagged record gets a [Cause]: a normalized category (quota,
// timeout, dependency, unknown) plus a human detail line, looked up from a
// rule table keyed by job type, status, and age. A video parked in
// transcription_queued points at transcription backlog or quota exhaustion;
// one parked in summary_queued points at a summarization dependency or
// budget constraint.
//
// # Escalation
//
// When requested, each critical job is routed to the dead letter collection
// with a synthesized failure context encoding its diagnosed cause, but only
// if no entry exists for it yet. Escalation failures are recorded on the
// result and never abort the sweep.
//
// # Health
//
// The sweep reports a 0-100 health impact score weighted toward critical
// records, an impact level, a processing efficiency figure, and a short
// list of prioritized recommendations with rationale.
package scan
