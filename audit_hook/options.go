package audithook

import "log/slog"

// Option configures an Extension.
type Option func(*Extension)

// WithLogger routes the extension's own diagnostics to l.
func WithLogger(l *slog.Logger) Option {
	return func(e *Extension) { e.logger = l }
}

// WithActions narrows the audit trail to the listed actions; everything
// else is skipped without logging. Omitting the option records all 5
// actions. Names that match no known action have no effect.
//
// Example:
//
//	audithook.New(recorder,
//	    audithook.WithActions(
//	        audithook.ActionDeadLetterRouted,
//	        audithook.ActionQuotaAlert,
//	    ),
//	)
func WithActions(actions ...string) Option {
	return func(e *Extension) {
		e.enabled = make(map[string]struct{}, len(actions))
		for _, a := range actions {
			e.enabled[a] = struct{}{}
		}
	}
}
