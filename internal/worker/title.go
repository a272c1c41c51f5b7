package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"projectchat.app/relay/common/llm"
	"projectchat.app/relay/common/logger"
	"projectchat.app/relay/internal/model"
	"projectchat.app/relay/internal/queue"
	"projectchat.app/relay/internal/store"
)

const (
	maxTitleWords     = 8
	maxTitlePromptLen = 2000
)

const titleSystemPrompt = `You name chat conversations.
Given the first message of a conversation, reply with a short title of at most 8 words that says what the conversation is about.
No quotes, no trailing punctuation, no emojis. Use the language of the message.`

type titleResponse struct {
	Title string `json:"title" jsonschema:"description=Conversation title of at most 8 words"`
}

// TitleProcessor replaces the title derived from a conversation's first message
// with a generated one.
type TitleProcessor struct {
	llm         llm.Client
	store       TitleStore
	temperature *float64
	maxTokens   int
}

func NewTitleProcessor(client llm.Client, store TitleStore, temperature float64, maxTokens int) *TitleProcessor {
	return &TitleProcessor{
		llm:         client,
		store:       store,
		temperature: llm.Temp(temperature),
		maxTokens:   maxTokens,
	}
}

func (p *TitleProcessor) Process(ctx context.Context, msg queue.Message) error {
	if msg.TaskType != queue.TaskTypeConversationTitle {
		return fmt.Errorf("title processor: unexpected task type %q", msg.TaskType)
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{
		Component: "relay.worker.title",
	})

	first, err := p.store.FirstUserMessage(ctx, msg.ConversationID)
	if errors.Is(err, store.ErrNotFound) {
		slog.InfoContext(ctx, "conversation has no user message, skipping title")
		return nil
	}
	if err != nil {
		return fmt.Errorf("loading first message: %w", err)
	}

	var out titleResponse
	if _, err := p.llm.Chat(ctx, llm.Request{
		SystemPrompt: titleSystemPrompt,
		UserPrompt:   logger.Truncate(first.Content, maxTitlePromptLen),
		SchemaName:   "conversation_title",
		Schema:       llm.GenerateSchema[titleResponse](),
		MaxTokens:    p.maxTokens,
		Temperature:  p.temperature,
	}, &out); err != nil {
		return fmt.Errorf("generating title: %w", err)
	}

	title := cleanTitle(out.Title)
	if title == "" {
		slog.WarnContext(ctx, "model returned an empty title, keeping derived title")
		return nil
	}

	if err := p.store.SetTitle(ctx, msg.ConversationID, title); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			slog.InfoContext(ctx, "conversation gone before title was stored")
			return nil
		}
		return fmt.Errorf("storing title: %w", err)
	}

	slog.InfoContext(ctx, "conversation titled", "title", title, "model", p.llm.Model())
	return nil
}

// cleanTitle strips wrapping quotes and trailing punctuation, keeps the first
// maxTitleWords words and applies the stored title length bound.
func cleanTitle(raw string) string {
	title := strings.Trim(strings.TrimSpace(raw), "\"'`“”‘’")
	words := strings.Fields(title)
	if len(words) > maxTitleWords {
		words = words[:maxTitleWords]
	}
	title = strings.TrimRight(strings.Join(words, " "), ".!?,;:")
	return model.DeriveTitle(title)
}
