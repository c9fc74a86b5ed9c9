// Package quota tracks daily consumption of external service budgets and
// predicts exhaustion before providers start rejecting requests.
//
// # Model
//
// Each configured service maps to a store collection: the number of records
// created since the window start (midnight in the service's reset timezone)
// is that service's usage. Utilization is usage over the daily limit,
// graded into healthy, moderate, warning, and critical bands.
//
// A failed usage count fails the whole report. Zero is a real reading, not
// a fallback; substituting it for an error would hide exactly the outages
// this package exists to surface.
//
// # Predictions
//
// When requested, the monitor extrapolates the observed hourly rate across
// the full window and grades the projected utilization into a risk level.
// Right after a reset the elapsed window is too short to divide by, so
// predictions are omitted rather than invented.
//
// # Guard
//
// [Guard] is the enforcement side: a token-bucket brake producers consult
// before spending quota. Daily limits are spread across the day so a burst
// cannot drain the budget by noon.
package quota
