package middleware

import (
	"context"
	"log/slog"
	"time"
)

// Logging returns middleware that logs invocation start and completion.
// Failures log at error level with the error attached.
func Logging(logger *slog.Logger) Middleware {
	return func(ctx context.Context, inv *Invocation, next Handler) error {
		log := logger.With(
			slog.String("component", inv.Component),
			slog.String("operation", inv.Operation),
		)
		log.Info("invocation started", slog.Bool("scheduled", inv.Scheduled))

		start := time.Now()
		err := next(ctx)
		elapsed := time.Since(start)

		if err != nil {
			log.Error("invocation failed",
				slog.Duration("elapsed", elapsed),
				slog.String("error", err.Error()),
			)
			return err
		}
		log.Info("invocation completed", slog.Duration("elapsed", elapsed))
		return nil
	}
}
