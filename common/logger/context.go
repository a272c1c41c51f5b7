package logger

import "context"

type contextKey string

const logFieldsKey contextKey = "log_fields"

// LogFields are added to every record logged with a context carrying them.
// Handlers and services enrich the context once; downstream code just logs.
type LogFields struct {
	PrincipalID    *int64  // Authenticated principal
	ProjectID      *int64  // Project the exchange targets
	ConversationID *int64  // Conversation being appended to
	RequestID      *string // X-Request-ID of the inbound HTTP request
	MessageID      *string // Redis stream message ID
	TaskType       *string // Queue task type (e.g. "conversation_title")
	Component      string  // OTel style component name, e.g. "relay.service.exchange"
}

// WithLogFields enriches ctx with log fields. Later non-nil values win.
func WithLogFields(ctx context.Context, fields LogFields) context.Context {
	merged := mergeFields(GetLogFields(ctx), fields)
	return context.WithValue(ctx, logFieldsKey, merged)
}

// GetLogFields returns the fields on ctx, or the zero value.
func GetLogFields(ctx context.Context) LogFields {
	if fields, ok := ctx.Value(logFieldsKey).(LogFields); ok {
		return fields
	}
	return LogFields{}
}

func mergeFields(existing, next LogFields) LogFields {
	result := existing

	if next.PrincipalID != nil {
		result.PrincipalID = next.PrincipalID
	}
	if next.ProjectID != nil {
		result.ProjectID = next.ProjectID
	}
	if next.ConversationID != nil {
		result.ConversationID = next.ConversationID
	}
	if next.RequestID != nil {
		result.RequestID = next.RequestID
	}
	if next.MessageID != nil {
		result.MessageID = next.MessageID
	}
	if next.TaskType != nil {
		result.TaskType = next.TaskType
	}
	if next.Component != "" {
		result.Component = next.Component
	}

	return result
}

// Ptr returns a pointer to v, for inline LogFields literals.
func Ptr[T any](v T) *T {
	return &v
}

// Truncate cuts s to maxLen bytes and appends "..." when it was longer.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
