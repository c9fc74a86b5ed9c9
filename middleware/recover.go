package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
)

// Recover converts a panic anywhere in the handler chain into an ordinary
// error so one misbehaving component cannot take down the scheduler. The
// panic value and stack are logged at error level. When the panic value is
// itself an error it is wrapped, so errors.Is and errors.As still see it.
func Recover(logger *slog.Logger) Middleware {
	return func(ctx context.Context, inv *Invocation, next Handler) (retErr error) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			logger.Error("invocation panicked",
				slog.String("component", inv.Component),
				slog.String("operation", inv.Operation),
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())),
			)
			if err, ok := r.(error); ok {
				retErr = fmt.Errorf("panic in %s.%s: %w", inv.Component, inv.Operation, err)
				return
			}
			retErr = fmt.Errorf("panic in %s.%s: %v", inv.Component, inv.Operation, r)
		}()
		return next(ctx)
	}
}
