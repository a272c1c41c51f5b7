package logger

import (
	"context"
	"log/slog"
	"os"

	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel/log/global"
	"go.opentelemetry.io/otel/trace"

	"projectchat.app/relay/core/config"
)

// Setup installs the process-wide slog default. Call after otel.Setup so the
// OTLP log bridge finds the global LoggerProvider.
func Setup(cfg config.Config) {
	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}
	if cfg.IsDevelopment() {
		opts.Level = slog.LevelDebug
	}

	var handler slog.Handler
	switch {
	case cfg.IsProduction() && cfg.OTel.Enabled():
		handler = otelslog.NewHandler(
			cfg.OTel.ServiceName,
			otelslog.WithLoggerProvider(global.GetLoggerProvider()),
		)
	case cfg.IsProduction():
		handler = NewTraceHandler(slog.NewJSONHandler(os.Stdout, opts))
	default:
		handler = NewTraceHandler(slog.NewTextHandler(os.Stdout, opts))
	}

	slog.SetDefault(slog.New(handler))
}

type TraceHandler struct {
	slog.Handler
}

func NewTraceHandler(h slog.Handler) *TraceHandler {
	return &TraceHandler{Handler: h}
}

func (h *TraceHandler) Handle(ctx context.Context, r slog.Record) error {
	if span := trace.SpanFromContext(ctx); span.SpanContext().IsValid() {
		sc := span.SpanContext()
		r.AddAttrs(
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}

	r.AddAttrs(fieldAttrs(GetLogFields(ctx))...)

	return h.Handler.Handle(ctx, r)
}

func (h *TraceHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &TraceHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *TraceHandler) WithGroup(name string) slog.Handler {
	return &TraceHandler{Handler: h.Handler.WithGroup(name)}
}

func fieldAttrs(fields LogFields) []slog.Attr {
	var attrs []slog.Attr
	if fields.PrincipalID != nil {
		attrs = append(attrs, slog.Int64("principal_id", *fields.PrincipalID))
	}
	if fields.ProjectID != nil {
		attrs = append(attrs, slog.Int64("project_id", *fields.ProjectID))
	}
	if fields.ConversationID != nil {
		attrs = append(attrs, slog.Int64("conversation_id", *fields.ConversationID))
	}
	if fields.RequestID != nil {
		attrs = append(attrs, slog.String("request_id", *fields.RequestID))
	}
	if fields.MessageID != nil {
		attrs = append(attrs, slog.String("message_id", *fields.MessageID))
	}
	if fields.TaskType != nil {
		attrs = append(attrs, slog.String("task_type", *fields.TaskType))
	}
	if fields.Component != "" {
		attrs = append(attrs, slog.String("component", fields.Component))
	}
	return attrs
}
