package worker_test

import (
	"context"
	"encoding/json"

	"projectchat.app/relay/common/llm"
	"projectchat.app/relay/internal/model"
	"projectchat.app/relay/internal/queue"
)

type mockConsumer struct {
	readFn func(ctx context.Context) ([]queue.Message, error)

	acked     []queue.Message
	requeued  []queue.Message
	dlq       []queue.Message
	lastError string
}

func (m *mockConsumer) Read(ctx context.Context) ([]queue.Message, error) {
	if m.readFn != nil {
		return m.readFn(ctx)
	}
	return nil, nil
}

func (m *mockConsumer) Ack(_ context.Context, msg queue.Message) error {
	m.acked = append(m.acked, msg)
	return nil
}

func (m *mockConsumer) Requeue(_ context.Context, msg queue.Message, errMsg string) error {
	m.requeued = append(m.requeued, msg)
	m.lastError = errMsg
	return nil
}

func (m *mockConsumer) SendDLQ(_ context.Context, msg queue.Message, errMsg string) error {
	m.dlq = append(m.dlq, msg)
	m.lastError = errMsg
	return nil
}

type mockProcessor struct {
	processFn func(ctx context.Context, msg queue.Message) error
	calls     int
}

func (m *mockProcessor) Process(ctx context.Context, msg queue.Message) error {
	m.calls++
	if m.processFn != nil {
		return m.processFn(ctx, msg)
	}
	return nil
}

type mockTitleStore struct {
	firstUserMessageFn func(ctx context.Context, conversationID int64) (*model.Message, error)
	setTitleFn         func(ctx context.Context, conversationID int64, title string) error
	setTitleCalls      int
}

func (m *mockTitleStore) FirstUserMessage(ctx context.Context, conversationID int64) (*model.Message, error) {
	if m.firstUserMessageFn != nil {
		return m.firstUserMessageFn(ctx, conversationID)
	}
	return nil, nil
}

func (m *mockTitleStore) SetTitle(ctx context.Context, conversationID int64, title string) error {
	m.setTitleCalls++
	if m.setTitleFn != nil {
		return m.setTitleFn(ctx, conversationID, title)
	}
	return nil
}

// mockLLM answers Chat by JSON-encoding reply into result.
type mockLLM struct {
	reply    any
	err      error
	requests []llm.Request
}

func (m *mockLLM) Chat(_ context.Context, req llm.Request, result any) (*llm.Response, error) {
	m.requests = append(m.requests, req)
	if m.err != nil {
		return nil, m.err
	}
	raw, err := json.Marshal(m.reply)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, result); err != nil {
		return nil, err
	}
	return &llm.Response{}, nil
}

func (m *mockLLM) Model() string {
	return "test-model"
}
