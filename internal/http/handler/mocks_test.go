package handler_test

import (
	"context"

	"projectchat.app/relay/internal/model"
	"projectchat.app/relay/internal/service"
)

type mockExchangeService struct {
	sendFn    func(ctx context.Context, req service.ExchangeRequest, sink service.StreamSink) (*service.ExchangeResult, error)
	historyFn func(ctx context.Context, principal model.Principal, projectID int64) ([]model.Conversation, error)

	sendCalls int
}

func (m *mockExchangeService) Send(ctx context.Context, req service.ExchangeRequest, sink service.StreamSink) (*service.ExchangeResult, error) {
	m.sendCalls++
	if m.sendFn != nil {
		return m.sendFn(ctx, req, sink)
	}
	return &service.ExchangeResult{}, nil
}

func (m *mockExchangeService) History(ctx context.Context, principal model.Principal, projectID int64) ([]model.Conversation, error) {
	if m.historyFn != nil {
		return m.historyFn(ctx, principal, projectID)
	}
	return []model.Conversation{}, nil
}
