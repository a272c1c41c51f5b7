package queue

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

type Producer interface {
	EnqueueTitle(ctx context.Context, task TitleTask) error
	Close() error
}

type redisProducer struct {
	client *redis.Client
	stream string
	logger *slog.Logger
}

func NewRedisProducer(client *redis.Client, stream string, logger *slog.Logger) Producer {
	if logger == nil {
		logger = slog.Default()
	}
	return &redisProducer{
		client: client,
		stream: stream,
		logger: logger,
	}
}

func (p *redisProducer) EnqueueTitle(ctx context.Context, task TitleTask) error {
	attempt := task.Attempt
	if attempt <= 0 {
		attempt = 1
	}

	fields := map[string]any{
		"task_type":       string(TaskTypeConversationTitle),
		"conversation_id": task.ConversationID,
		"project_id":      task.ProjectID,
		"attempt":         attempt,
	}

	if task.TraceID != nil && *task.TraceID != "" {
		fields["trace_id"] = *task.TraceID
	}

	if err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: fields,
	}).Err(); err != nil {
		return fmt.Errorf("enqueue title task: %w", err)
	}

	p.logger.InfoContext(ctx, "enqueued title task", "conversation_id", task.ConversationID, "project_id", task.ProjectID, "attempt", attempt)
	return nil
}

func (p *redisProducer) Close() error {
	return p.client.Close()
}

// NoopProducer drops every task. The server uses it when Redis is not configured,
// which leaves conversations with their derived titles.
type NoopProducer struct{}

func (NoopProducer) EnqueueTitle(ctx context.Context, task TitleTask) error {
	slog.DebugContext(ctx, "title task dropped, no queue configured", "conversation_id", task.ConversationID)
	return nil
}

func (NoopProducer) Close() error {
	return nil
}
