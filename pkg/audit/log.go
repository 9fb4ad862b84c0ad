package audit

import (
	"context"
	"log/slog"
)

// LogSink writes events as structured log records.
// Denials and warnings are logged at warn level, failures at error, the rest at info.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink creates a sink writing to l.
func NewLogSink(l *slog.Logger) *LogSink {
	if l == nil {
		l = slog.Default()
	}
	return &LogSink{logger: l.With(slog.String("component", "audit"))}
}

func (s *LogSink) Emit(ctx context.Context, e Event) {
	level := slog.LevelInfo
	switch e.Outcome {
	case OutcomeDenied, OutcomeWarning:
		level = slog.LevelWarn
	case OutcomeFailure:
		level = slog.LevelError
	}

	attrs := []slog.Attr{
		slog.String("event_id", e.ID),
		slog.String("tenant_id", e.TenantID),
		slog.String("action", e.Action),
		slog.String("resource", e.Resource),
		slog.String("outcome", string(e.Outcome)),
	}
	if len(e.Details) > 0 {
		attrs = append(attrs, slog.Any("details", e.Details))
	}

	s.logger.LogAttrs(ctx, level, "audit_event", attrs...)
}
