package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"projectchat.app/relay/common/id"
	"projectchat.app/relay/internal/completion"
	"projectchat.app/relay/internal/http/dto"
	"projectchat.app/relay/internal/http/middleware"
	"projectchat.app/relay/internal/service"
)

type ChatHandler struct {
	exchanges service.ExchangeService
}

func NewChatHandler(exchanges service.ExchangeService) *ChatHandler {
	return &ChatHandler{exchanges: exchanges}
}

// Send relays one message and streams the reply as plain text. Failures before
// the first byte are JSON errors; later ones only cut the body short.
func (h *ChatHandler) Send(c *gin.Context) {
	ctx := c.Request.Context()

	principal := middleware.GetPrincipal(ctx)
	if principal == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	projectID, err := id.Parse(c.Param("projectId"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
		return
	}

	var req dto.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.WarnContext(ctx, "invalid request body", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
		return
	}

	sink := &streamSink{c: c}
	_, err = h.exchanges.Send(ctx, service.ExchangeRequest{
		Principal: *principal,
		ProjectID: projectID,
		Message:   req.Message,
	}, sink)
	if err == nil {
		return
	}

	if sink.begun {
		slog.ErrorContext(ctx, "chat stream ended early", "error", err)
		_ = c.Error(err)
		return
	}
	writeExchangeError(c, err)
}

func (h *ChatHandler) History(c *gin.Context) {
	ctx := c.Request.Context()

	principal := middleware.GetPrincipal(ctx)
	if principal == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	projectID, err := id.Parse(c.Param("projectId"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
		return
	}

	conversations, err := h.exchanges.History(ctx, *principal, projectID)
	if err != nil {
		writeExchangeError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToConversationResponses(conversations))
}

func writeExchangeError(c *gin.Context, err error) {
	ctx := c.Request.Context()
	_ = c.Error(err)

	switch {
	case errors.Is(err, service.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
	case errors.Is(err, service.ErrProjectNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "project not found"})
	case ctx.Err() != nil && errors.Is(err, context.Canceled):
		slog.InfoContext(ctx, "client went away before the reply started", "error", err)
		c.Abort()
	case errors.Is(err, completion.ErrUpstreamUnavailable):
		slog.ErrorContext(ctx, "upstream unavailable", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "chat service unavailable"})
	case errors.Is(err, service.ErrPersistence):
		slog.ErrorContext(ctx, "persistence failure", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store conversation"})
	default:
		slog.ErrorContext(ctx, "chat request failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

// streamSink writes reply increments straight to the gin response, flushing each.
type streamSink struct {
	c     *gin.Context
	begun bool
}

func (s *streamSink) Begin() error {
	h := s.c.Writer.Header()
	h.Set("Content-Type", "text/plain; charset=utf-8")
	h.Set("Cache-Control", "no-cache")
	h.Set("X-Accel-Buffering", "no")
	h.Set("X-Content-Type-Options", "nosniff")

	s.c.Status(http.StatusOK)
	s.c.Writer.WriteHeaderNow()
	s.c.Writer.Flush()
	s.begun = true

	return s.c.Request.Context().Err()
}

func (s *streamSink) Write(chunk string) error {
	if err := s.c.Request.Context().Err(); err != nil {
		return err
	}
	if _, err := s.c.Writer.WriteString(chunk); err != nil {
		return err
	}
	s.c.Writer.Flush()
	return nil
}
