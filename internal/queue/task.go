package queue

type TaskType string

const (
	// TaskTypeConversationTitle asks the worker to replace a conversation's derived
	// title with a generated one.
	TaskTypeConversationTitle TaskType = "conversation_title"
)

// TitleTask is enqueued when a project's conversation is created.
type TitleTask struct {
	ConversationID int64
	ProjectID      int64
	TraceID        *string
	Attempt        int
}
