package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"projectchat.app/relay/common/id"
	"projectchat.app/relay/common/logger"
	"projectchat.app/relay/internal/completion"
	"projectchat.app/relay/internal/model"
	"projectchat.app/relay/internal/queue"
	"projectchat.app/relay/internal/store"
)

type ExchangeState int

const (
	StateIdle ExchangeState = iota
	StateAuthenticated
	StateAuthorized
	StateUserTurnPersisted
	StateStreaming
	StateCompleted
	StateFailed
)

func (s ExchangeState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAuthenticated:
		return "authenticated"
	case StateAuthorized:
		return "authorized"
	case StateUserTurnPersisted:
		return "user_turn_persisted"
	case StateStreaming:
		return "streaming"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// StreamSink is the client side of an exchange. Begin commits the response
// headers; after it no structured error can reach the client. Write delivers one
// increment and flushes it.
type StreamSink interface {
	Begin() error
	Write(chunk string) error
}

// CompletionRelay is satisfied by *completion.Relay.
type CompletionRelay interface {
	Stream(ctx context.Context, instructions []string, message string) (*completion.Stream, error)
}

type PartialReplyPolicy int

const (
	// DiscardPartial stores nothing for an exchange whose reply broke off.
	DiscardPartial PartialReplyPolicy = iota
	// PersistPartial stores the text delivered so far, marked truncated.
	PersistPartial
)

type ExchangeConfig struct {
	PartialReplies PartialReplyPolicy
}

type ExchangeRequest struct {
	Principal model.Principal
	ProjectID int64
	Message   string
}

type ExchangeResult struct {
	ConversationID int64
	// Created is true when this exchange started the project's conversation.
	Created bool
	// Reply is exactly the text written to the sink.
	Reply string
	// Persisted reports whether an assistant message was stored.
	Persisted bool
	State     ExchangeState
}

type ExchangeService interface {
	// Send runs one exchange. A returned error wraps one of ErrProjectNotFound,
	// ErrValidation, ErrPersistence, completion.ErrUpstreamUnavailable or
	// completion.ErrUpstreamInterrupted; the result is non-nil once the user turn
	// has been stored.
	Send(ctx context.Context, req ExchangeRequest, sink StreamSink) (*ExchangeResult, error)
	History(ctx context.Context, principal model.Principal, projectID int64) ([]model.Conversation, error)
}

type exchangeService struct {
	resolver      OwnershipResolver
	conversations store.ConversationStore
	relay         CompletionRelay
	producer      queue.Producer
	cfg           ExchangeConfig
	now           func() time.Time
}

func NewExchangeService(
	resolver OwnershipResolver,
	conversations store.ConversationStore,
	relay CompletionRelay,
	producer queue.Producer,
	cfg ExchangeConfig,
) ExchangeService {
	if producer == nil {
		producer = queue.NoopProducer{}
	}
	return &exchangeService{
		resolver:      resolver,
		conversations: conversations,
		relay:         relay,
		producer:      producer,
		cfg:           cfg,
		now:           time.Now,
	}
}

// exchange tracks one Send call for logging.
type exchange struct {
	state   ExchangeState
	started time.Time
}

func (e *exchange) advance(ctx context.Context, next ExchangeState) {
	slog.DebugContext(ctx, "exchange state", "from", e.state.String(), "to", next.String())
	e.state = next
}

func (s *exchangeService) Send(ctx context.Context, req ExchangeRequest, sink StreamSink) (*ExchangeResult, error) {
	sc := logger.StartSpan(ctx, "chat.exchange")
	defer sc.End()
	ctx = sc.Context()
	sc.SetAttributes(
		attribute.Int64("project.id", req.ProjectID),
		attribute.Int64("principal.id", req.Principal.ID),
	)

	ctx = logger.WithLogFields(ctx, logger.LogFields{
		PrincipalID: &req.Principal.ID,
		ProjectID:   &req.ProjectID,
		Component:   "relay.service.exchange",
	})

	ex := &exchange{state: StateAuthenticated, started: s.now()}

	result, err := s.run(ctx, ex, req, sink)
	if err != nil {
		sc.RecordError(err)
		ex.advance(ctx, StateFailed)
		slog.WarnContext(ctx, "exchange failed",
			"error", err,
			"duration_ms", time.Since(ex.started).Milliseconds())
	} else {
		ex.advance(ctx, StateCompleted)
		slog.InfoContext(ctx, "exchange completed",
			"reply_len", len(result.Reply),
			"persisted", result.Persisted,
			"duration_ms", time.Since(ex.started).Milliseconds())
	}
	if result != nil {
		result.State = ex.state
	}
	return result, err
}

func (s *exchangeService) run(ctx context.Context, ex *exchange, req ExchangeRequest, sink StreamSink) (*ExchangeResult, error) {
	project, err := s.resolver.Resolve(ctx, req.ProjectID, req.Principal.ID)
	if err != nil {
		return nil, err
	}
	ex.advance(ctx, StateAuthorized)

	if strings.TrimSpace(req.Message) == "" {
		return nil, fmt.Errorf("%w: message is required", ErrValidation)
	}

	userMsg := model.NewMessage(id.New(), model.RoleUser, req.Message, s.now())
	appended, err := s.conversations.AppendUser(ctx, project.ID, userMsg)
	if err != nil {
		return nil, fmt.Errorf("%w: appending user message: %w", ErrPersistence, err)
	}
	ex.advance(ctx, StateUserTurnPersisted)

	ctx = logger.WithLogFields(ctx, logger.LogFields{
		ConversationID: &appended.ConversationID,
	})

	result := &ExchangeResult{
		ConversationID: appended.ConversationID,
		Created:        appended.Created,
	}

	if appended.Created {
		s.enqueueTitle(ctx, appended.ConversationID, project.ID)
	}

	stream, err := s.relay.Stream(ctx, project.Prompts, req.Message)
	if err != nil {
		return result, err
	}
	defer stream.Close()

	first, err := stream.Next()
	if errors.Is(err, io.EOF) {
		// nothing to store; the client still gets a 200 with an empty body
		if err := sink.Begin(); err != nil {
			return result, fmt.Errorf("starting response: %w", err)
		}
		slog.InfoContext(ctx, "upstream returned an empty reply")
		return result, nil
	}
	if err != nil {
		return result, err
	}

	if err := sink.Begin(); err != nil {
		return result, fmt.Errorf("starting response: %w", err)
	}
	ex.advance(ctx, StateStreaming)

	var reply strings.Builder
	for chunk := first; ; {
		if err := sink.Write(chunk); err != nil {
			result.Reply = reply.String()
			s.keepPartial(ctx, result)
			return result, fmt.Errorf("writing to client: %w", err)
		}
		reply.WriteString(chunk)

		chunk, err = stream.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			result.Reply = reply.String()
			s.keepPartial(ctx, result)
			return result, err
		}
	}

	result.Reply = reply.String()

	// the reply was fully delivered; a client leaving now must not lose it
	persistCtx := context.WithoutCancel(ctx)
	assistantMsg := model.NewMessage(id.New(), model.RoleAssistant, result.Reply, s.now())
	if err := s.conversations.AppendAssistant(persistCtx, appended.ConversationID, assistantMsg); err != nil {
		slog.ErrorContext(ctx, "failed to store assistant reply, client saw a complete stream",
			"error", fmt.Errorf("%w: %w", ErrPersistence, err))
		return result, nil
	}
	result.Persisted = true

	return result, nil
}

// keepPartial applies the partial reply policy to an exchange that broke off
// after streaming began.
func (s *exchangeService) keepPartial(ctx context.Context, result *ExchangeResult) {
	if s.cfg.PartialReplies != PersistPartial || result.Reply == "" {
		return
	}

	msg := model.NewMessage(id.New(), model.RoleAssistant, result.Reply, s.now())
	msg.Truncated = true

	if err := s.conversations.AppendAssistant(context.WithoutCancel(ctx), result.ConversationID, msg); err != nil {
		slog.ErrorContext(ctx, "failed to store partial reply", "error", err)
		return
	}
	result.Persisted = true
	slog.InfoContext(ctx, "stored partial reply", "reply_len", len(result.Reply))
}

func (s *exchangeService) enqueueTitle(ctx context.Context, conversationID, projectID int64) {
	task := queue.TitleTask{
		ConversationID: conversationID,
		ProjectID:      projectID,
	}
	if traceID := logger.TraceIDFromContext(ctx); traceID != "" {
		task.TraceID = &traceID
	}

	if err := s.producer.EnqueueTitle(context.WithoutCancel(ctx), task); err != nil {
		slog.WarnContext(ctx, "failed to enqueue title task", "error", err)
	}
}

func (s *exchangeService) History(ctx context.Context, principal model.Principal, projectID int64) ([]model.Conversation, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		PrincipalID: &principal.ID,
		ProjectID:   &projectID,
		Component:   "relay.service.exchange",
	})

	project, err := s.resolver.Resolve(ctx, projectID, principal.ID)
	if err != nil {
		return nil, err
	}

	conversations, err := s.conversations.RecentHistory(ctx, project.ID, store.DefaultHistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("%w: loading history: %w", ErrPersistence, err)
	}

	return conversations, nil
}
