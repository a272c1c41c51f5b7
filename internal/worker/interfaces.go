package worker

import (
	"context"

	"projectchat.app/relay/internal/model"
	"projectchat.app/relay/internal/queue"
)

// Consumer abstracts the message queue for testability.
type Consumer interface {
	Read(ctx context.Context) ([]queue.Message, error)
	Ack(ctx context.Context, msg queue.Message) error
	Requeue(ctx context.Context, msg queue.Message, errMsg string) error
	SendDLQ(ctx context.Context, msg queue.Message, errMsg string) error
}

// Processor handles one task. A nil return acks the message.
type Processor interface {
	Process(ctx context.Context, msg queue.Message) error
}

// TitleStore is the slice of store.ConversationStore the title task needs.
type TitleStore interface {
	FirstUserMessage(ctx context.Context, conversationID int64) (*model.Message, error)
	SetTitle(ctx context.Context, conversationID int64, title string) error
}
