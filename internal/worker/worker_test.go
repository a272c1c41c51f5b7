package worker_test

import (
	"context"
	"errors"
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"projectchat.app/relay/internal/queue"
	"projectchat.app/relay/internal/worker"
)

var _ = Describe("Worker", func() {
	var (
		ctx       context.Context
		consumer  *mockConsumer
		processor *mockProcessor
		w         *worker.Worker
		msg       queue.Message
	)

	BeforeEach(func() {
		ctx = context.Background()
		consumer = &mockConsumer{}
		processor = &mockProcessor{}
		w = worker.New(consumer, processor, worker.Config{MaxAttempts: 3})
		msg = queue.Message{
			ID:             "1-0",
			TaskType:       queue.TaskTypeConversationTitle,
			ConversationID: 42,
			ProjectID:      7,
			Attempt:        1,
		}
	})

	Describe("Handle", func() {
		It("acks a processed message", func() {
			Expect(w.Handle(ctx, msg)).To(Succeed())

			Expect(processor.calls).To(Equal(1))
			Expect(consumer.acked).To(HaveLen(1))
			Expect(consumer.requeued).To(BeEmpty())
			Expect(consumer.dlq).To(BeEmpty())
		})

		It("requeues a retryable failure", func() {
			processor.processFn = func(context.Context, queue.Message) error {
				return errors.New("connection reset by peer")
			}

			Expect(w.Handle(ctx, msg)).NotTo(Succeed())

			Expect(consumer.requeued).To(HaveLen(1))
			Expect(consumer.lastError).To(ContainSubstring("connection reset"))
			Expect(consumer.acked).To(BeEmpty())
			Expect(consumer.dlq).To(BeEmpty())
		})

		It("dead-letters once attempts are exhausted", func() {
			processor.processFn = func(context.Context, queue.Message) error {
				return errors.New("connection reset by peer")
			}
			msg.Attempt = 3

			Expect(w.Handle(ctx, msg)).NotTo(Succeed())

			Expect(consumer.dlq).To(HaveLen(1))
			Expect(consumer.requeued).To(BeEmpty())
		})

		It("dead-letters failures that cannot succeed on retry", func() {
			processor.processFn = func(context.Context, queue.Message) error {
				return fmt.Errorf("generating title: %w", context.Canceled)
			}

			Expect(w.Handle(ctx, msg)).NotTo(Succeed())

			Expect(consumer.dlq).To(HaveLen(1))
			Expect(consumer.requeued).To(BeEmpty())
		})

		It("recovers from a panicking processor", func() {
			processor.processFn = func(context.Context, queue.Message) error {
				panic("boom")
			}

			var err error
			Expect(func() { err = w.Handle(ctx, msg) }).NotTo(Panic())

			Expect(err).To(MatchError(ContainSubstring("panic: boom")))
			Expect(consumer.requeued).To(HaveLen(1))
		})
	})

	Describe("Run", func() {
		It("processes batches until stopped", func() {
			delivered := make(chan struct{})
			first := true
			consumer.readFn = func(context.Context) ([]queue.Message, error) {
				if first {
					first = false
					close(delivered)
					return []queue.Message{msg}, nil
				}
				return nil, nil
			}

			done := make(chan error, 1)
			go func() { done <- w.Run(ctx) }()

			Eventually(delivered).Should(BeClosed())
			w.Stop()

			Eventually(done).Should(Receive(BeNil()))
			Expect(processor.calls).To(Equal(1))
		})
	})
})
