package log

import (
	"context"
	"log/slog"
	"strings"
)

// SlogAdapter writes capture events to an slog.Logger.
type SlogAdapter struct {
	logger *slog.Logger
}

// NewSlogAdapter creates a new SlogAdapter that writes to the given slog.Logger.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger}
}

// Log writes the event to the slog logger at Debug level.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("session_id", event.SessionID),
		slog.String("category", event.Category.String()),
	}

	if event.Scheme != "" {
		attrs = append(attrs, slog.String("scheme", event.Scheme))
	}
	if event.Namespace != "" {
		attrs = append(attrs,
			slog.String("namespace", event.Namespace),
			slog.String("event", event.EventID),
		)
	}

	switch {
	case event.Routed != nil:
		if event.Routed.Detail != "" {
			attrs = append(attrs, slog.String("detail", event.Routed.Detail))
		}
		if len(event.Routed.Actions) > 0 {
			attrs = append(attrs, slog.String("actions", strings.Join(event.Routed.Actions, ",")))
		}
		attrs = append(attrs,
			slog.Bool("ignored", event.Routed.Ignored),
			slog.String("outcome", event.Routed.Outcome),
		)
	case event.Transition != nil:
		attrs = append(attrs,
			slog.String("entity", event.Transition.Entity.String()),
			slog.String("old_state", event.Transition.OldState),
			slog.String("new_state", event.Transition.NewState),
		)
		if event.Transition.Reason != "" {
			attrs = append(attrs, slog.String("reason", event.Transition.Reason))
		}
	case event.Error != nil:
		attrs = append(attrs,
			slog.String("error_msg", event.Error.Message),
			slog.String("error_context", event.Error.Context),
		)
	}

	a.logger.LogAttrs(context.Background(), slog.LevelDebug, "provisioning", attrs...)
}

// Compile-time interface satisfaction check.
var _ Logger = (*SlogAdapter)(nil)
