package handler_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"projectchat.app/relay/internal/auth"
	"projectchat.app/relay/internal/completion"
	"projectchat.app/relay/internal/http/handler"
	"projectchat.app/relay/internal/http/middleware"
	"projectchat.app/relay/internal/model"
	"projectchat.app/relay/internal/service"
)

const (
	jwtSecret = "handler-secret"
	projectID = int64(1876543210987654321)
)

var _ = Describe("ChatHandler", func() {
	var (
		router *gin.Engine
		svc    *mockExchangeService
		bearer string
	)

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		router = gin.New()
		svc = &mockExchangeService{}

		h := handler.NewChatHandler(svc)
		chat := router.Group("/api/chat", middleware.RequireAuth(auth.NewGate(jwtSecret)))
		chat.POST("/:projectId", h.Send)
		chat.GET("/:projectId/history", h.History)

		signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"userId": "11",
			"email":  "owner@example.com",
			"exp":    time.Now().Add(time.Hour).Unix(),
		}).SignedString([]byte(jwtSecret))
		Expect(err).NotTo(HaveOccurred())
		bearer = "Bearer " + signed
	})

	post := func(path, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", bearer)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	get := func(path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Authorization", bearer)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	chatPath := fmt.Sprintf("/api/chat/%d", projectID)

	Describe("Send", func() {
		It("streams the reply as plain text", func() {
			svc.sendFn = func(_ context.Context, req service.ExchangeRequest, sink service.StreamSink) (*service.ExchangeResult, error) {
				Expect(req.Principal.ID).To(Equal(int64(11)))
				Expect(req.ProjectID).To(Equal(projectID))
				Expect(req.Message).To(Equal("Hello"))

				Expect(sink.Begin()).To(Succeed())
				Expect(sink.Write("Hi")).To(Succeed())
				Expect(sink.Write(" there")).To(Succeed())
				return &service.ExchangeResult{Reply: "Hi there", State: service.StateCompleted}, nil
			}

			w := post(chatPath, `{"message":"Hello"}`)

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Header().Get("Content-Type")).To(Equal("text/plain; charset=utf-8"))
			Expect(w.Header().Get("Cache-Control")).To(Equal("no-cache"))
			Expect(w.Header().Get("X-Accel-Buffering")).To(Equal("no"))
			Expect(w.Body.String()).To(Equal("Hi there"))
			Expect(w.Flushed).To(BeTrue())
		})

		It("answers an empty reply with an empty 200", func() {
			svc.sendFn = func(_ context.Context, _ service.ExchangeRequest, sink service.StreamSink) (*service.ExchangeResult, error) {
				Expect(sink.Begin()).To(Succeed())
				return &service.ExchangeResult{}, nil
			}

			w := post(chatPath, `{"message":"Hello"}`)

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Body.String()).To(BeEmpty())
		})

		It("truncates the body when the reply breaks off", func() {
			svc.sendFn = func(_ context.Context, _ service.ExchangeRequest, sink service.StreamSink) (*service.ExchangeResult, error) {
				Expect(sink.Begin()).To(Succeed())
				Expect(sink.Write("Par")).To(Succeed())
				return &service.ExchangeResult{Reply: "Par"}, fmt.Errorf("%w: connection reset", completion.ErrUpstreamInterrupted)
			}

			w := post(chatPath, `{"message":"Hello"}`)

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Body.String()).To(Equal("Par"))
		})

		It("requires authentication", func() {
			bearer = ""

			w := post(chatPath, `{"message":"Hello"}`)

			Expect(w.Code).To(Equal(http.StatusUnauthorized))
			Expect(svc.sendCalls).To(BeZero())
		})

		It("treats a malformed project id as not found", func() {
			w := post("/api/chat/not-an-id", `{"message":"Hello"}`)

			Expect(w.Code).To(Equal(http.StatusNotFound))
			Expect(w.Body.String()).To(MatchJSON(`{"error":"project not found"}`))
			Expect(svc.sendCalls).To(BeZero())
		})

		It("rejects a malformed body", func() {
			w := post(chatPath, `{"message":`)

			Expect(w.Code).To(Equal(http.StatusBadRequest))
			Expect(w.Body.String()).To(MatchJSON(`{"error":"message is required"}`))
			Expect(svc.sendCalls).To(BeZero())
		})

		DescribeTable("maps failures before streaming to JSON errors",
			func(err error, status int, body string) {
				svc.sendFn = func(context.Context, service.ExchangeRequest, service.StreamSink) (*service.ExchangeResult, error) {
					return nil, err
				}

				w := post(chatPath, `{"message":"Hello"}`)

				Expect(w.Code).To(Equal(status))
				Expect(w.Header().Get("Content-Type")).To(ContainSubstring("application/json"))
				Expect(w.Body.String()).To(MatchJSON(body))
			},
			Entry("blank message", fmt.Errorf("%w: message is required", service.ErrValidation),
				http.StatusBadRequest, `{"error":"message is required"}`),
			Entry("foreign project", service.ErrProjectNotFound,
				http.StatusNotFound, `{"error":"project not found"}`),
			Entry("upstream down", fmt.Errorf("%w: 401", completion.ErrUpstreamUnavailable),
				http.StatusInternalServerError, `{"error":"chat service unavailable"}`),
			Entry("database down", fmt.Errorf("%w: timeout", service.ErrPersistence),
				http.StatusInternalServerError, `{"error":"failed to store conversation"}`),
			Entry("anything else", errors.New("boom"),
				http.StatusInternalServerError, `{"error":"internal server error"}`),
		)
	})

	Describe("History", func() {
		It("returns conversations with string ids", func() {
			created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
			title := "Hello"
			svc.historyFn = func(_ context.Context, principal model.Principal, pid int64) ([]model.Conversation, error) {
				Expect(principal.ID).To(Equal(int64(11)))
				Expect(pid).To(Equal(projectID))
				return []model.Conversation{{
					ID:        1900000000000000001,
					ProjectID: projectID,
					Title:     &title,
					Messages: []model.Message{
						{ID: 1, Role: model.RoleUser, Content: "Hello", CreatedAt: created},
						{ID: 2, Role: model.RoleAssistant, Content: "Hi there", CreatedAt: created.Add(time.Second)},
					},
					CreatedAt: created,
					UpdatedAt: created.Add(time.Second),
				}}, nil
			}

			w := get(chatPath + "/history")

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Body.String()).To(MatchJSON(fmt.Sprintf(`[{
				"id": "1900000000000000001",
				"project_id": "%d",
				"title": "Hello",
				"messages": [
					{"role": "user", "content": "Hello", "timestamp": "2025-03-01T12:00:00Z"},
					{"role": "assistant", "content": "Hi there", "timestamp": "2025-03-01T12:00:01Z"}
				],
				"created_at": "2025-03-01T12:00:00Z",
				"updated_at": "2025-03-01T12:00:01Z"
			}]`, projectID)))
		})

		It("returns an empty array for a project without conversations", func() {
			w := get(chatPath + "/history")

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Body.String()).To(MatchJSON(`[]`))
		})

		It("hides projects the caller does not own", func() {
			svc.historyFn = func(context.Context, model.Principal, int64) ([]model.Conversation, error) {
				return nil, service.ErrProjectNotFound
			}

			w := get(chatPath + "/history")

			Expect(w.Code).To(Equal(http.StatusNotFound))
		})
	})
})
