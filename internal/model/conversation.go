package model

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// MaxConversationMessages bounds stored history per conversation. On overflow the
// oldest messages are dropped.
const MaxConversationMessages = 50

// MaxTitleLength bounds derived conversation titles, in runes.
const MaxTitleLength = 60

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// Message is immutable once appended. Build it with NewMessage.
type Message struct {
	ID        int64     `json:"id,string"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Truncated bool      `json:"truncated,omitempty"`
	CreatedAt time.Time `json:"timestamp"`
}

// NewMessage stamps a message with its id and creation time.
func NewMessage(id int64, role Role, content string, now time.Time) Message {
	return Message{
		ID:        id,
		Role:      role,
		Content:   content,
		CreatedAt: now.UTC(),
	}
}

// Conversation is the bounded, ordered history of a project. Messages are in
// chronological order.
type Conversation struct {
	ID        int64     `json:"id,string"`
	ProjectID int64     `json:"project_id,string"`
	Title     *string   `json:"title,omitempty"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewConversation builds the conversation created by the first message of a project.
func NewConversation(id, projectID int64, first Message) Conversation {
	title := DeriveTitle(first.Content)
	conv := Conversation{
		ID:        id,
		ProjectID: projectID,
		Messages:  []Message{first},
		CreatedAt: first.CreatedAt,
		UpdatedAt: first.CreatedAt,
	}
	if title != "" {
		conv.Title = &title
	}
	return conv
}

// Append adds msg and drops the oldest messages beyond MaxConversationMessages.
func (c *Conversation) Append(msg Message) {
	c.Messages = append(c.Messages, msg)
	if overflow := len(c.Messages) - MaxConversationMessages; overflow > 0 {
		c.Messages = append([]Message(nil), c.Messages[overflow:]...)
	}
	c.UpdatedAt = msg.CreatedAt
}

// TrimCutoff returns the highest sequence number to delete once the message at seq
// has been stored, keeping exactly the newest MaxConversationMessages. Sequence
// numbers start at 1; a result <= 0 means nothing is deleted.
func TrimCutoff(seq int64) int64 {
	return seq - MaxConversationMessages
}

// AppendResult describes where AppendUser stored the message.
type AppendResult struct {
	ConversationID int64
	Seq            int64
	// Created is true when this append created the project's conversation.
	Created bool
}

// DeriveTitle turns the first user message into a short title: whitespace is
// collapsed and the text is cut at a word boundary to MaxTitleLength runes.
func DeriveTitle(text string) string {
	collapsed := strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(collapsed) <= MaxTitleLength {
		return collapsed
	}

	runes := []rune(collapsed)
	cut := runes[:MaxTitleLength-1]
	if !unicode.IsSpace(runes[MaxTitleLength-1]) {
		if i := lastSpace(cut); i > MaxTitleLength/2 {
			cut = cut[:i]
		}
	}
	return strings.TrimRightFunc(string(cut), unicode.IsSpace) + "…"
}

func lastSpace(runes []rune) int {
	for i := len(runes) - 1; i >= 0; i-- {
		if unicode.IsSpace(runes[i]) {
			return i
		}
	}
	return -1
}
