package audit

import (
	"context"
	"log/slog"
)

// LogSink writes each record as one structured log line.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink creates a LogSink. A nil logger means slog.Default.
func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

func (s *LogSink) Record(ctx context.Context, e *Event) error {
	attrs := []slog.Attr{
		slog.String("action", e.Action),
		slog.String("actor", e.Actor.ID),
		slog.String("outcome", e.Outcome),
	}
	if e.CategoryName != "" {
		attrs = append(attrs, slog.String("category", e.CategoryName))
	}
	if e.Item != "" {
		attrs = append(attrs, slog.String("item", e.Item))
	}
	if e.Before != nil {
		attrs = append(attrs, slog.Int64("before", *e.Before))
	}
	if e.After != nil {
		attrs = append(attrs, slog.Int64("after", *e.After))
	}
	if e.Reason != "" {
		attrs = append(attrs, slog.String("reason", e.Reason))
	}

	level := slog.LevelInfo
	if e.Outcome == OutcomeFailure {
		level = slog.LevelWarn
	}
	s.logger.LogAttrs(ctx, level, "audit", attrs...)
	return nil
}
