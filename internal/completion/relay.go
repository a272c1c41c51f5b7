// Package completion relays streamed replies from the upstream text-generation
// provider.
package completion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"projectchat.app/relay/common/llm"
)

var (
	// ErrUpstreamUnavailable means the provider failed before any text was produced.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	// ErrUpstreamInterrupted means the stream broke after at least one increment.
	// Increments already returned stay valid.
	ErrUpstreamInterrupted = errors.New("upstream interrupted")
)

const (
	DefaultPersona     = "You are a helpful assistant."
	DefaultIdleTimeout = 60 * time.Second
)

var (
	errIdleTimeout = errors.New("no data from upstream within idle timeout")
	errClosed      = errors.New("stream closed")
	errNoFinish    = errors.New("stream ended without a finish reason")
)

type Config struct {
	// IdleTimeout bounds the wait for each chunk, including the response headers.
	// Zero means DefaultIdleTimeout; negative disables it.
	IdleTimeout time.Duration
	// DefaultPersona is the system prompt used when a project has no instructions.
	DefaultPersona string
	Temperature    *float64
	MaxTokens      int
}

type Relay struct {
	client llm.StreamClient
	cfg    Config
}

func NewRelay(client llm.StreamClient, cfg Config) *Relay {
	if cfg.IdleTimeout == 0 {
		cfg.IdleTimeout = DefaultIdleTimeout
	}
	if cfg.DefaultPersona == "" {
		cfg.DefaultPersona = DefaultPersona
	}
	return &Relay{client: client, cfg: cfg}
}

// BuildSystemPrompt joins the project's instructions with newlines and falls back
// to persona when the result is empty.
func BuildSystemPrompt(instructions []string, persona string) string {
	prompt := strings.Join(instructions, "\n")
	if prompt == "" {
		return persona
	}
	return prompt
}

// Stream sends one system + user message pair upstream and returns the reply as
// a stream of text increments. The stream is bound to ctx: cancelling ctx aborts
// the upstream read. Callers must Close the stream.
func (r *Relay) Stream(ctx context.Context, instructions []string, message string) (*Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstreamUnavailable, err)
	}

	streamCtx, cancel := context.WithCancelCause(ctx)
	s := &Stream{
		ctx:    streamCtx,
		cancel: cancel,
		idle:   r.cfg.IdleTimeout,
	}
	if s.idle > 0 {
		s.timer = time.AfterFunc(s.idle, func() { cancel(errIdleTimeout) })
	}

	s.chunks = r.client.StreamChat(streamCtx, llm.StreamRequest{
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: BuildSystemPrompt(instructions, r.cfg.DefaultPersona)},
			{Role: llm.RoleUser, Content: message},
		},
		MaxTokens:   r.cfg.MaxTokens,
		Temperature: r.cfg.Temperature,
	})

	slog.DebugContext(ctx, "completion stream opened",
		"model", r.client.Model(),
		"instructions", len(instructions))

	return s, nil
}

// Stream yields the reply in order. It is not restartable and not safe for
// concurrent use.
type Stream struct {
	ctx    context.Context
	cancel context.CancelCauseFunc
	chunks llm.ChunkStream
	timer  *time.Timer
	idle   time.Duration

	emitted  int
	finished bool
	err      error

	closeOnce sync.Once
	closeErr  error
}

// Next returns the next non-empty increment, or io.EOF once the upstream has
// finished. Failures wrap ErrUpstreamUnavailable when nothing was emitted yet and
// ErrUpstreamInterrupted otherwise; the same error is returned on every later call.
func (s *Stream) Next() (string, error) {
	if s.err != nil {
		return "", s.err
	}

	for {
		s.arm()
		chunk, err := s.chunks.Next()
		s.disarm()

		if errors.Is(err, io.EOF) {
			if !s.finished {
				return "", s.fail(errNoFinish)
			}
			s.err = io.EOF
			return "", io.EOF
		}
		if err != nil {
			return "", s.fail(err)
		}

		if chunk.FinishReason != "" {
			s.finished = true
		}
		if chunk.Text == "" {
			continue
		}

		s.emitted++
		return chunk.Text, nil
	}
}

// Emitted reports how many increments Next has returned.
func (s *Stream) Emitted() int {
	return s.emitted
}

// Close cancels the upstream request and releases the connection. It is safe to
// call more than once.
func (s *Stream) Close() error {
	s.closeOnce.Do(func() {
		s.disarm()
		s.cancel(errClosed)
		s.closeErr = s.chunks.Close()
	})
	return s.closeErr
}

func (s *Stream) arm() {
	if s.timer != nil {
		s.timer.Reset(s.idle)
	}
}

func (s *Stream) disarm() {
	if s.timer != nil {
		s.timer.Stop()
	}
}

func (s *Stream) fail(err error) error {
	if cause := context.Cause(s.ctx); errors.Is(cause, errIdleTimeout) {
		err = fmt.Errorf("%w after %s", cause, s.idle)
	}

	sentinel := ErrUpstreamInterrupted
	if s.emitted == 0 {
		sentinel = ErrUpstreamUnavailable
	}
	s.err = fmt.Errorf("%w: %w", sentinel, err)
	return s.err
}
