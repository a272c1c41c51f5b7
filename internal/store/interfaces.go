package store

import (
	"context"
	"errors"

	"projectchat.app/relay/internal/model"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// DefaultHistoryLimit is the number of conversations RecentHistory returns when
// the caller passes no limit.
const DefaultHistoryLimit = 10

// ProjectStore reads projects owned by the project management service.
type ProjectStore interface {
	// GetForOwner returns ErrNotFound both when the project is missing and when
	// ownerID does not own it.
	GetForOwner(ctx context.Context, projectID, ownerID int64) (*model.Project, error)
}

// ConversationStore holds the bounded message history of each project. Every
// append is a single transaction; appends to one conversation are serialized.
type ConversationStore interface {
	// AppendUser appends a user message to the project's conversation, creating
	// the conversation if the project has none.
	AppendUser(ctx context.Context, projectID int64, msg model.Message) (*model.AppendResult, error)
	// AppendAssistant appends an assistant message to an existing conversation.
	AppendAssistant(ctx context.Context, conversationID int64, msg model.Message) error
	// RecentHistory returns up to limit conversations, most recently updated first.
	RecentHistory(ctx context.Context, projectID int64, limit int) ([]model.Conversation, error)
	FirstUserMessage(ctx context.Context, conversationID int64) (*model.Message, error)
	SetTitle(ctx context.Context, conversationID int64, title string) error
}
