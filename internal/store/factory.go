package store

import (
	"context"

	"projectchat.app/relay/core/db/sqlc"
)

// Transactor runs fn inside a database transaction. *db.DB implements it.
type Transactor interface {
	WithTx(ctx context.Context, fn func(q *sqlc.Queries) error) error
}

type Stores struct {
	queries *sqlc.Queries
	tx      Transactor
}

func NewStores(queries *sqlc.Queries, tx Transactor) *Stores {
	return &Stores{queries: queries, tx: tx}
}

func (s *Stores) Projects() ProjectStore {
	return newProjectStore(s.queries)
}

func (s *Stores) Conversations() ConversationStore {
	return newConversationStore(s.queries, s.tx)
}
