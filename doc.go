// Package vigil provides the recovery and quota governance layer for a
// media-agent pipeline. It watches the pipeline's shared document store and
// offers three operations: routing terminally failed jobs to a dead letter
// collection with triage metadata, scanning in-flight records for staleness
// and escalating critical cases, and tracking per-service quota consumption
// to predict exhaustion before it happens.
//
// Vigil is designed as a library, not a service. Import it, configure a
// store backend, and invoke Route, Scan, or Monitor directly, or run the
// bundled scheduler for periodic sweeps.
//
// # Quick Start
//
//	v, err := vigil.New(
//	    vigil.WithStore(st),
//	    vigil.WithLogger(slog.Default()),
//	)
//
// # Architecture
//
// Vigil follows a composable store pattern where each subsystem (job,
// video, dlq, quota) defines its own store interface. A single backend
// implements all of them. Invocations are stateless and overlap-safe:
// idempotent routing, not locking, makes concurrent sweeps harmless.
//
// All entity IDs use TypeID — type-prefixed, K-sortable, UUIDv7-based,
// compile-time safe identifiers.
package vigil
