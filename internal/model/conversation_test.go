package model_test

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"projectchat.app/relay/internal/model"
)

var _ = Describe("Conversation", func() {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	newMsg := func(i int) model.Message {
		role := model.RoleUser
		if i%2 == 1 {
			role = model.RoleAssistant
		}
		return model.NewMessage(int64(i+1), role, fmt.Sprintf("m%d", i), base.Add(time.Duration(i)*time.Second))
	}

	Describe("NewConversation", func() {
		It("holds the first message and a derived title", func() {
			first := model.NewMessage(10, model.RoleUser, "  Hello   there  ", base)
			conv := model.NewConversation(1, 2, first)

			Expect(conv.ID).To(Equal(int64(1)))
			Expect(conv.ProjectID).To(Equal(int64(2)))
			Expect(conv.Messages).To(Equal([]model.Message{first}))
			Expect(conv.Title).NotTo(BeNil())
			Expect(*conv.Title).To(Equal("Hello there"))
			Expect(conv.CreatedAt).To(Equal(base))
			Expect(conv.UpdatedAt).To(Equal(base))
		})
	})

	Describe("Append", func() {
		DescribeTable("never exceeds the bound and keeps the newest messages in order",
			func(total int) {
				conv := model.NewConversation(1, 2, newMsg(0))
				for i := 1; i < total; i++ {
					conv.Append(newMsg(i))
					Expect(len(conv.Messages)).To(BeNumerically("<=", model.MaxConversationMessages))
				}

				expected := total
				if expected > model.MaxConversationMessages {
					expected = model.MaxConversationMessages
				}
				Expect(conv.Messages).To(HaveLen(expected))

				first := total - expected
				for j, msg := range conv.Messages {
					Expect(msg.Content).To(Equal(fmt.Sprintf("m%d", first+j)))
				}
				Expect(conv.UpdatedAt).To(Equal(conv.Messages[len(conv.Messages)-1].CreatedAt))
			},
			Entry("one message", 1),
			Entry("below the bound", 49),
			Entry("exactly the bound", 50),
			Entry("one over the bound", 51),
			Entry("far over the bound", 173),
		)
	})

	Describe("TrimCutoff", func() {
		DescribeTable("deletes everything older than the newest 50",
			func(seq, cutoff int64) {
				Expect(model.TrimCutoff(seq)).To(Equal(cutoff))
			},
			Entry("first message", int64(1), int64(-49)),
			Entry("fiftieth message", int64(50), int64(0)),
			Entry("fifty-first message drops seq 1", int64(51), int64(1)),
			Entry("long conversation", int64(1000), int64(950)),
		)

		It("leaves exactly the bound when applied to a contiguous history", func() {
			for last := int64(1); last <= 120; last++ {
				kept := 0
				for seq := int64(1); seq <= last; seq++ {
					if seq > model.TrimCutoff(last) {
						kept++
					}
				}
				Expect(kept).To(Equal(min(int(last), model.MaxConversationMessages)))
			}
		})
	})
})

var _ = Describe("Role", func() {
	It("accepts only user and assistant", func() {
		Expect(model.RoleUser.Valid()).To(BeTrue())
		Expect(model.RoleAssistant.Valid()).To(BeTrue())
		Expect(model.Role("system").Valid()).To(BeFalse())
	})
})

var _ = Describe("DeriveTitle", func() {
	It("collapses whitespace in short messages", func() {
		Expect(model.DeriveTitle("How do I\n\tdeploy?")).To(Equal("How do I deploy?"))
	})

	It("returns empty for whitespace", func() {
		Expect(model.DeriveTitle(" \n ")).To(BeEmpty())
	})

	It("cuts long messages at a word boundary", func() {
		title := model.DeriveTitle(strings.Repeat("lorem ipsum ", 20))
		Expect(utf8.RuneCountInString(title)).To(BeNumerically("<=", model.MaxTitleLength))
		Expect(title).To(HaveSuffix("ipsum…"))
	})

	It("cuts a single long word by runes", func() {
		title := model.DeriveTitle(strings.Repeat("ü", 200))
		Expect(utf8.RuneCountInString(title)).To(Equal(model.MaxTitleLength))
		Expect(title).To(HaveSuffix("…"))
	})
})

var _ = Describe("Project", func() {
	It("is owned only by its owner", func() {
		p := &model.Project{ID: 1, OwnerID: 7}
		Expect(p.OwnedBy(7)).To(BeTrue())
		Expect(p.OwnedBy(8)).To(BeFalse())

		var missing *model.Project
		Expect(missing.OwnedBy(7)).To(BeFalse())
	})

	It("reports prompts over the length limit", func() {
		p := &model.Project{Prompts: []string{
			"Be brief.",
			strings.Repeat("é", model.MaxPromptLength),
			strings.Repeat("a", model.MaxPromptLength+1),
		}}
		Expect(p.OversizedPrompts()).To(Equal([]int{2}))

		Expect((&model.Project{}).OversizedPrompts()).To(BeEmpty())
	})
})
