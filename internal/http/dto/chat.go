package dto

import (
	"time"

	"projectchat.app/relay/internal/model"
)

// SendMessageRequest is validated by the exchange service; a missing message
// binds as "".
type SendMessageRequest struct {
	Message string `json:"message"`
}

type MessageResponse struct {
	Role      model.Role `json:"role"`
	Content   string     `json:"content"`
	Truncated bool       `json:"truncated,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}

type ConversationResponse struct {
	ID        int64             `json:"id,string"`
	ProjectID int64             `json:"project_id,string"`
	Title     *string           `json:"title,omitempty"`
	Messages  []MessageResponse `json:"messages"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

func ToConversationResponse(c model.Conversation) ConversationResponse {
	messages := make([]MessageResponse, len(c.Messages))
	for i, m := range c.Messages {
		messages[i] = MessageResponse{
			Role:      m.Role,
			Content:   m.Content,
			Truncated: m.Truncated,
			Timestamp: m.CreatedAt,
		}
	}
	return ConversationResponse{
		ID:        c.ID,
		ProjectID: c.ProjectID,
		Title:     c.Title,
		Messages:  messages,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func ToConversationResponses(conversations []model.Conversation) []ConversationResponse {
	result := make([]ConversationResponse, len(conversations))
	for i, c := range conversations {
		result[i] = ToConversationResponse(c)
	}
	return result
}
