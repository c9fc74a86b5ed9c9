// Package ext defines the extension system for Vigil.
//
// An extension observes lifecycle events — a dead letter routed, a sweep
// finished, a quota threshold crossed — and reacts however it likes:
// audit trails, pager alerts, counters. Every hook is its own small
// interface, so an extension implements exactly the events it cares
// about and nothing more.
//
// # Implementing an Extension
//
//	type MyExtension struct{}
//
//	func (e *MyExtension) Name() string { return "my-extension" }
//
//	// Opt in to specific hooks by implementing their interfaces.
//	func (e *MyExtension) OnDeadLetterRouted(ctx context.Context, entry *dlq.Entry) error {
//	    log.Printf("routed %s severity=%s", entry.JobID, entry.Severity)
//	    return nil
//	}
//
// # Hooks
//
//   - [DeadLetterRouted] — a failed job entered the dead letter collection
//   - [DeadLetterReplayed] — a dead letter entry was replayed as a new job
//   - [ScanCompleted] — a stuck-record sweep finished
//   - [QuotaAlert] — a service crossed the quota alert threshold
//   - [SweepFailed] — a scheduled sweep invocation failed
//   - [Shutdown] — the coordinator is shutting down gracefully
//
// A [Registry] holds the registered extensions and fans each event out
// to those implementing the matching hook interface.
package ext
