// Package middleware provides composable middleware for component
// invocations.
//
// Every operation the engine runs — a scan sweep, a quota report, a dead
// letter route — passes through one [Middleware] chain as an
// [Invocation]. [Chain] composes middleware right-to-left, so the first
// element of the slice ends up outermost:
//
//	// logging → recover → handler
//	chain := middleware.Chain(middleware.Logging(logger), middleware.Recover(logger))
//
// # Built-in Middleware
//
//   - [Logging] — start/completion lines with component, operation and duration
//   - [Recover] — turns panics into errors
//   - [Timeout] — applies the invocation's deadline to its context
//   - [Tracing] — one OpenTelemetry span per invocation
//   - [Metrics] — OpenTelemetry duration histogram and outcome counter
//
// # Writing Custom Middleware
//
//	func MyMiddleware() middleware.Middleware {
//	    return func(ctx context.Context, inv *middleware.Invocation, next middleware.Handler) error {
//	        // pre-processing
//	        err := next(ctx)
//	        // post-processing
//	        return err
//	    }
//	}
//
// A middleware that does not call next short-circuits the chain; do that
// only on purpose (rate limiting, circuit breaking).
package middleware
