package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"projectchat.app/relay/common/llm"
	"projectchat.app/relay/common/logger"
	"projectchat.app/relay/internal/queue"
)

type Config struct {
	MaxAttempts int
}

type Worker struct {
	consumer  Consumer
	processor Processor
	cfg       Config

	stopCh    chan struct{}
	stoppedCh chan struct{}
}

func New(consumer Consumer, processor Processor, cfg Config) *Worker {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	return &Worker{
		consumer:  consumer,
		processor: processor,
		cfg:       cfg,
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

func (w *Worker) Run(ctx context.Context) error {
	defer close(w.stoppedCh)

	ctx = logger.WithLogFields(ctx, logger.LogFields{
		Component: "relay.worker",
	})

	slog.InfoContext(ctx, "worker started", "max_attempts", w.cfg.MaxAttempts)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stopCh:
			slog.InfoContext(ctx, "worker stopping")
			return nil
		default:
			if err := w.processOneBatch(ctx); err != nil {
				slog.ErrorContext(ctx, "batch processing error", "error", err)
				time.Sleep(time.Second)
			}
		}
	}
}

func (w *Worker) Stop() {
	close(w.stopCh)
	<-w.stoppedCh
}

func (w *Worker) processOneBatch(ctx context.Context) error {
	messages, err := w.consumer.Read(ctx)
	if err != nil {
		return fmt.Errorf("reading from stream: %w", err)
	}

	for _, msg := range messages {
		w.Handle(ctx, msg)
	}

	return nil
}

// Handle processes msg and settles it: ack on success, requeue or dead-letter on
// failure. The reclaimer uses it for stale pending messages.
func (w *Worker) Handle(ctx context.Context, msg queue.Message) error {
	msgID := msg.ID
	taskType := string(msg.TaskType)
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		MessageID:      &msgID,
		TaskType:       &taskType,
		ConversationID: &msg.ConversationID,
		ProjectID:      &msg.ProjectID,
	})

	sc := logger.StartSpanFromTraceID(ctx, msg.TraceID, "worker.task")
	defer sc.End()
	ctx = sc.Context()
	sc.SetAttributes(
		attribute.String("task.type", taskType),
		attribute.Int("task.attempt", msg.Attempt),
	)

	if err := w.processMessageSafe(ctx, msg); err != nil {
		sc.RecordError(err)
		slog.ErrorContext(ctx, "message processing failed", "error", err, "attempt", msg.Attempt)
		w.handleFailedMessage(ctx, msg, err)
		return err
	}

	if err := w.consumer.Ack(ctx, msg); err != nil {
		// the reclaimer will redeliver; title updates are idempotent
		slog.WarnContext(ctx, "failed to ACK message", "error", err)
	}
	return nil
}

func (w *Worker) processMessageSafe(ctx context.Context, msg queue.Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "panic recovered in message processing", "panic", r)
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	slog.InfoContext(ctx, "processing message", "attempt", msg.Attempt)

	start := time.Now()
	if err := w.processor.Process(ctx, msg); err != nil {
		return err
	}

	slog.InfoContext(ctx, "message processed", "duration_ms", time.Since(start).Milliseconds())
	return nil
}

func (w *Worker) handleFailedMessage(ctx context.Context, msg queue.Message, err error) {
	if msg.Attempt >= w.cfg.MaxAttempts || !llm.IsRetryable(ctx, err) {
		slog.ErrorContext(ctx, "giving up, sending to DLQ", "attempts", msg.Attempt)
		if dlqErr := w.consumer.SendDLQ(ctx, msg, err.Error()); dlqErr != nil {
			slog.ErrorContext(ctx, "failed to send to DLQ", "error", dlqErr)
		}
		return
	}

	slog.WarnContext(ctx, "requeuing failed message", "attempt", msg.Attempt)
	if requeueErr := w.consumer.Requeue(ctx, msg, err.Error()); requeueErr != nil {
		slog.ErrorContext(ctx, "failed to requeue message", "error", requeueErr)
	}
}
