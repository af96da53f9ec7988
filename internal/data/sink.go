package data

import (
	"context"

	"techform/internal/jsonlog"
)

// Sink receives form values that passed validation.
type Sink interface {
	Submit(ctx context.Context, values FormValues) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, values FormValues) error

// Submit calls f(ctx, values).
func (f SinkFunc) Submit(ctx context.Context, values FormValues) error {
	return f(ctx, values)
}

// NopSink discards submissions.
type NopSink struct{}

// Submit does nothing.
func (NopSink) Submit(context.Context, FormValues) error { return nil }

// LogSink records each submission in the structured log. The password is never logged.
type LogSink struct {
	logger *jsonlog.Logger
}

// NewLogSink returns a LogSink writing to logger.
func NewLogSink(logger *jsonlog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// Submit logs the name, email and technology titles at INFO.
func (s *LogSink) Submit(ctx context.Context, values FormValues) error {
	titles := make([]string, 0, len(values.Techs))
	for _, t := range values.Techs {
		titles = append(titles, t.Title)
	}

	s.logger.InfoWithContext(ctx, "form submitted",
		"name", values.Name,
		"email", values.Email,
		"techs", titles)
	return nil
}
