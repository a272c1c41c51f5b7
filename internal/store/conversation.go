package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"projectchat.app/relay/common/id"
	"projectchat.app/relay/core/db/sqlc"
	"projectchat.app/relay/internal/model"
)

type conversationStore struct {
	queries *sqlc.Queries
	tx      Transactor
}

func newConversationStore(queries *sqlc.Queries, tx Transactor) ConversationStore {
	return &conversationStore{queries: queries, tx: tx}
}

// AppendUser upserts the project's conversation row and appends in one transaction.
// The upsert locks the row (insert or ON CONFLICT update) until commit, so concurrent
// appends to the same project queue behind each other and the unique index on
// project_id rules out a second conversation.
func (s *conversationStore) AppendUser(ctx context.Context, projectID int64, msg model.Message) (*model.AppendResult, error) {
	if msg.Role != model.RoleUser {
		return nil, fmt.Errorf("append user: unexpected role %q", msg.Role)
	}

	candidate := model.NewConversation(id.New(), projectID, msg)

	var result model.AppendResult
	err := s.tx.WithTx(ctx, func(q *sqlc.Queries) error {
		row, err := q.UpsertProjectConversation(ctx, sqlc.UpsertProjectConversationParams{
			ID:        candidate.ID,
			ProjectID: projectID,
			Title:     candidate.Title,
			CreatedAt: timestamptz(msg.CreatedAt),
		})
		if err != nil {
			return fmt.Errorf("upserting conversation: %w", err)
		}

		if err := insertAndTrim(ctx, q, row.ID, row.LastSeq, msg); err != nil {
			return err
		}

		result = model.AppendResult{
			ConversationID: row.ID,
			Seq:            row.LastSeq,
			Created:        row.Inserted,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &result, nil
}

func (s *conversationStore) AppendAssistant(ctx context.Context, conversationID int64, msg model.Message) error {
	if msg.Role != model.RoleAssistant {
		return fmt.Errorf("append assistant: unexpected role %q", msg.Role)
	}

	return s.tx.WithTx(ctx, func(q *sqlc.Queries) error {
		seq, err := q.BumpConversationSeq(ctx, sqlc.BumpConversationSeqParams{
			ID:        conversationID,
			UpdatedAt: timestamptz(msg.CreatedAt),
		})
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("locking conversation: %w", err)
		}

		return insertAndTrim(ctx, q, conversationID, seq, msg)
	})
}

func insertAndTrim(ctx context.Context, q *sqlc.Queries, conversationID, seq int64, msg model.Message) error {
	if err := q.InsertConversationMessage(ctx, sqlc.InsertConversationMessageParams{
		ID:             msg.ID,
		ConversationID: conversationID,
		Seq:            seq,
		Role:           string(msg.Role),
		Content:        msg.Content,
		Truncated:      msg.Truncated,
		CreatedAt:      timestamptz(msg.CreatedAt),
	}); err != nil {
		return fmt.Errorf("inserting message: %w", err)
	}

	cutoff := model.TrimCutoff(seq)
	if cutoff <= 0 {
		return nil
	}

	dropped, err := q.TrimConversationMessages(ctx, sqlc.TrimConversationMessagesParams{
		ConversationID: conversationID,
		Seq:            cutoff,
	})
	if err != nil {
		return fmt.Errorf("trimming messages: %w", err)
	}
	if dropped > 0 {
		slog.DebugContext(ctx, "dropped oldest messages", "conversation_id", conversationID, "dropped", dropped)
	}
	return nil
}

func (s *conversationStore) RecentHistory(ctx context.Context, projectID int64, limit int) ([]model.Conversation, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	rows, err := s.queries.ListProjectConversations(ctx, sqlc.ListProjectConversationsParams{
		ProjectID: projectID,
		Limit:     int32(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("listing conversations: %w", err)
	}
	if len(rows) == 0 {
		return []model.Conversation{}, nil
	}

	ids := make([]int64, len(rows))
	for i, row := range rows {
		ids[i] = row.ID
	}

	messages, err := s.queries.ListConversationMessages(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("listing messages: %w", err)
	}

	return toConversationModels(rows, messages), nil
}

func (s *conversationStore) FirstUserMessage(ctx context.Context, conversationID int64) (*model.Message, error) {
	row, err := s.queries.GetFirstUserMessage(ctx, conversationID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	msg := toMessageModel(row)
	return &msg, nil
}

func (s *conversationStore) SetTitle(ctx context.Context, conversationID int64, title string) error {
	affected, err := s.queries.SetConversationTitle(ctx, sqlc.SetConversationTitleParams{
		ID:    conversationID,
		Title: &title,
	})
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// toConversationModels keeps the order of rows; messages must be sorted by
// (conversation_id, seq).
func toConversationModels(rows []sqlc.Conversation, messages []sqlc.ConversationMessage) []model.Conversation {
	byConversation := make(map[int64][]sqlc.ConversationMessage, len(rows))
	for _, m := range messages {
		byConversation[m.ConversationID] = append(byConversation[m.ConversationID], m)
	}

	result := make([]model.Conversation, 0, len(rows))
	for _, row := range rows {
		conv := model.Conversation{
			ID:        row.ID,
			ProjectID: row.ProjectID,
			Title:     row.Title,
			Messages:  []model.Message{},
			CreatedAt: row.CreatedAt.Time,
		}
		for _, m := range byConversation[row.ID] {
			conv.Append(toMessageModel(m))
		}
		conv.UpdatedAt = row.UpdatedAt.Time
		result = append(result, conv)
	}
	return result
}

func toMessageModel(row sqlc.ConversationMessage) model.Message {
	return model.Message{
		ID:        row.ID,
		Role:      model.Role(row.Role),
		Content:   row.Content,
		Truncated: row.Truncated,
		CreatedAt: row.CreatedAt.Time,
	}
}

func timestamptz(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: true}
}
