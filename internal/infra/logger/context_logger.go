package logger

import (
	"context"
	"log/slog"
)

type ContextKey string

const (
	// Business context keys propagated through the question pipeline.
	QueryIDKey  ContextKey = "qanoon.query.id"
	StageKey    ContextKey = "qanoon.query.stage"
	LanguageKey ContextKey = "qanoon.query.language"
)

// ContextLogger attaches pipeline context values as structured fields.
type ContextLogger struct {
	logger *slog.Logger
}

func NewContextLogger(base *slog.Logger) *ContextLogger {
	return &ContextLogger{logger: base}
}

// WithContext returns a logger carrying whichever pipeline fields are
// present in ctx.
func (cl *ContextLogger) WithContext(ctx context.Context) *slog.Logger {
	var fields []any

	if queryID := ctx.Value(QueryIDKey); queryID != nil {
		fields = append(fields, string(QueryIDKey), queryID)
	}
	if stage := ctx.Value(StageKey); stage != nil {
		fields = append(fields, string(StageKey), stage)
	}
	if lang := ctx.Value(LanguageKey); lang != nil {
		fields = append(fields, string(LanguageKey), lang)
	}

	if len(fields) == 0 {
		return cl.logger
	}
	return cl.logger.With(fields...)
}

// WithQueryID adds the per-question id to context.
func WithQueryID(ctx context.Context, queryID string) context.Context {
	return context.WithValue(ctx, QueryIDKey, queryID)
}

// WithStage records the current pipeline stage in context.
func WithStage(ctx context.Context, stage string) context.Context {
	return context.WithValue(ctx, StageKey, stage)
}

// WithLanguage records the detected question language in context.
func WithLanguage(ctx context.Context, lang string) context.Context {
	return context.WithValue(ctx, LanguageKey, lang)
}
