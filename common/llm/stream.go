package llm

import (
	"context"
	"io"
	"log/slog"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/packages/ssestream"
)

// Message roles accepted by StreamChat.
const (
	RoleSystem = "system"
	RoleUser   = "user"
)

// StreamClient issues streaming chat completions.
type StreamClient interface {
	StreamChat(ctx context.Context, req StreamRequest) ChunkStream
	Model() string
}

type StreamRequest struct {
	Messages    []Message
	MaxTokens   int      // 0 = provider default
	Temperature *float64 // nil = model default
}

type Message struct {
	Role    string
	Content string
}

// Chunk is one streamed delta. Text may be empty (role-only or final chunks);
// FinishReason is set on the chunk that ends the choice.
type Chunk struct {
	Text         string
	FinishReason string
}

// ChunkStream yields chunks until io.EOF. Close must be called even after io.EOF
// and releases the underlying HTTP response. Not safe for concurrent use.
type ChunkStream interface {
	Next() (Chunk, error)
	Close() error
}

type streamClient struct {
	openai openai.Client
	model  string
}

func NewStreamClient(cfg Config) (StreamClient, error) {
	oc, model, err := newOpenAIClient(cfg)
	if err != nil {
		return nil, err
	}
	return &streamClient{openai: oc, model: model}, nil
}

// StreamChat starts the request immediately. Connection and HTTP status failures
// surface from the first Next call.
func (c *streamClient) StreamChat(ctx context.Context, req StreamRequest) ChunkStream {
	params := openai.ChatCompletionNewParams{
		Model:    c.model,
		Messages: convertMessages(req.Messages),
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}
	if req.Temperature != nil {
		params.Temperature = openai.Float(*req.Temperature)
	}

	slog.DebugContext(ctx, "llm stream requested", "model", c.model, "messages", len(req.Messages))

	return &openaiChunkStream{stream: c.openai.Chat.Completions.NewStreaming(ctx, params)}
}

func (c *streamClient) Model() string {
	return c.model
}

func convertMessages(msgs []Message) []openai.ChatCompletionMessageParamUnion {
	result := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, msg := range msgs {
		switch msg.Role {
		case RoleSystem:
			result = append(result, openai.SystemMessage(msg.Content))
		case RoleUser:
			result = append(result, openai.UserMessage(msg.Content))
		}
	}
	return result
}

type openaiChunkStream struct {
	stream *ssestream.Stream[openai.ChatCompletionChunk]
}

func (s *openaiChunkStream) Next() (Chunk, error) {
	for s.stream.Next() {
		chunk := s.stream.Current()
		if len(chunk.Choices) == 0 {
			continue
		}
		choice := chunk.Choices[0]
		return Chunk{
			Text:         choice.Delta.Content,
			FinishReason: string(choice.FinishReason),
		}, nil
	}
	if err := s.stream.Err(); err != nil {
		return Chunk{}, err
	}
	return Chunk{}, io.EOF
}

func (s *openaiChunkStream) Close() error {
	return s.stream.Close()
}
