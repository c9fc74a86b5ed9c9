package middleware

import (
	"context"
	"time"
)

// Handler is the terminal function that runs the component operation.
type Handler func(ctx context.Context) error

// Invocation identifies one component operation passing through the chain.
type Invocation struct {
	// Component is the subsystem being invoked ("scanner", "monitor",
	// "router").
	Component string
	// Operation is the operation name ("sweep", "report", "route").
	Operation string
	// Timeout bounds the invocation. Zero means no deadline.
	Timeout time.Duration
	// Scheduled is true when the runner triggered the invocation rather
	// than an API call.
	Scheduled bool
}

// Middleware wraps a Handler with cross-cutting logic.
// It receives the current context, the invocation being executed, and the
// next handler to call. Middleware MUST call next to continue the chain
// (unless short-circuiting on error).
type Middleware func(ctx context.Context, inv *Invocation, next Handler) error

// Chain composes multiple middleware into a single Middleware.
// Middleware are applied right-to-left: the first middleware in the
// list is the outermost wrapper.
//
// Example: Chain(logging, recover, timeout) executes as:
//
//	logging → recover → timeout → handler
func Chain(mws ...Middleware) Middleware {
	return func(ctx context.Context, inv *Invocation, next Handler) error {
		// Build the chain from the end backwards.
		h := next
		for i := len(mws) - 1; i >= 0; i-- {
			mw := mws[i]
			prev := h
			h = func(ctx context.Context) error {
				return mw(ctx, inv, prev)
			}
		}
		return h(ctx)
	}
}
