package service_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"

	"projectchat.app/relay/common/llm"
	"projectchat.app/relay/internal/model"
	"projectchat.app/relay/internal/queue"
)

type mockProjectStore struct {
	getForOwnerFn func(ctx context.Context, projectID, ownerID int64) (*model.Project, error)
}

func (m *mockProjectStore) GetForOwner(ctx context.Context, projectID, ownerID int64) (*model.Project, error) {
	if m.getForOwnerFn != nil {
		return m.getForOwnerFn(ctx, projectID, ownerID)
	}
	return nil, nil
}

// mockConversationStore records appends in memory, keyed by project.
type mockConversationStore struct {
	appendUserFn      func(ctx context.Context, projectID int64, msg model.Message) (*model.AppendResult, error)
	appendAssistantFn func(ctx context.Context, conversationID int64, msg model.Message) error
	recentHistoryFn   func(ctx context.Context, projectID int64, limit int) ([]model.Conversation, error)

	mu       sync.Mutex
	messages []model.Message
	calls    int
}

func (m *mockConversationStore) AppendUser(ctx context.Context, projectID int64, msg model.Message) (*model.AppendResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.appendUserFn != nil {
		return m.appendUserFn(ctx, projectID, msg)
	}
	m.messages = append(m.messages, msg)
	return &model.AppendResult{ConversationID: 500, Seq: int64(len(m.messages)), Created: len(m.messages) == 1}, nil
}

func (m *mockConversationStore) AppendAssistant(ctx context.Context, conversationID int64, msg model.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.appendAssistantFn != nil {
		return m.appendAssistantFn(ctx, conversationID, msg)
	}
	m.messages = append(m.messages, msg)
	return nil
}

func (m *mockConversationStore) RecentHistory(ctx context.Context, projectID int64, limit int) ([]model.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.recentHistoryFn != nil {
		return m.recentHistoryFn(ctx, projectID, limit)
	}
	return []model.Conversation{}, nil
}

func (m *mockConversationStore) FirstUserMessage(context.Context, int64) (*model.Message, error) {
	return nil, errors.New("not implemented")
}

func (m *mockConversationStore) SetTitle(context.Context, int64, string) error {
	return errors.New("not implemented")
}

func (m *mockConversationStore) stored() []model.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Message(nil), m.messages...)
}

// mockStreamClient replays chunks and then ends with final (io.EOF when nil).
type mockStreamClient struct {
	chunks []llm.Chunk
	final  error

	requests []llm.StreamRequest
	streams  []*scriptedStream
}

func (m *mockStreamClient) StreamChat(_ context.Context, req llm.StreamRequest) llm.ChunkStream {
	m.requests = append(m.requests, req)
	s := &scriptedStream{chunks: m.chunks, final: m.final}
	m.streams = append(m.streams, s)
	return s
}

func (m *mockStreamClient) Model() string {
	return "test-model"
}

type scriptedStream struct {
	chunks []llm.Chunk
	final  error
	pos    int
	closed bool
}

func (s *scriptedStream) Next() (llm.Chunk, error) {
	if s.closed {
		return llm.Chunk{}, errors.New("stream closed")
	}
	if s.pos < len(s.chunks) {
		c := s.chunks[s.pos]
		s.pos++
		return c, nil
	}
	if s.final != nil {
		return llm.Chunk{}, s.final
	}
	return llm.Chunk{}, io.EOF
}

func (s *scriptedStream) Close() error {
	s.closed = true
	return nil
}

func textChunks(finish string, parts ...string) []llm.Chunk {
	chunks := make([]llm.Chunk, 0, len(parts)+1)
	for _, p := range parts {
		chunks = append(chunks, llm.Chunk{Text: p})
	}
	if finish != "" {
		chunks = append(chunks, llm.Chunk{FinishReason: finish})
	}
	return chunks
}

type mockSink struct {
	beginErr error
	// writeErrAt fails the nth Write (1-based); 0 never fails.
	writeErrAt int

	begun  bool
	writes int
	body   strings.Builder
}

func (m *mockSink) Begin() error {
	if m.beginErr != nil {
		return m.beginErr
	}
	m.begun = true
	return nil
}

func (m *mockSink) Write(chunk string) error {
	m.writes++
	if m.writeErrAt > 0 && m.writes == m.writeErrAt {
		return errors.New("broken pipe")
	}
	m.body.WriteString(chunk)
	return nil
}

type mockProducer struct {
	enqueueFn func(ctx context.Context, task queue.TitleTask) error
	tasks     []queue.TitleTask
}

func (m *mockProducer) EnqueueTitle(ctx context.Context, task queue.TitleTask) error {
	m.tasks = append(m.tasks, task)
	if m.enqueueFn != nil {
		return m.enqueueFn(ctx, task)
	}
	return nil
}

func (m *mockProducer) Close() error {
	return nil
}
