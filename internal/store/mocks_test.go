package store

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"projectchat.app/relay/core/db/sqlc"
)

type queryCall struct {
	name string
	args []any
}

// mockDB implements sqlc.DBTX. Queries are identified by their sqlc name.
type mockDB struct {
	calls    []queryCall
	rowFns   map[string]func(args []any) pgx.Row
	execTags map[string]string
	execErrs map[string]error
}

func newMockDB() *mockDB {
	return &mockDB{
		rowFns:   map[string]func(args []any) pgx.Row{},
		execTags: map[string]string{},
		execErrs: map[string]error{},
	}
}

func (m *mockDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	name := queryName(sql)
	m.calls = append(m.calls, queryCall{name: name, args: args})
	if err := m.execErrs[name]; err != nil {
		return pgconn.CommandTag{}, err
	}
	return pgconn.NewCommandTag(m.execTags[name]), nil
}

func (m *mockDB) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	name := queryName(sql)
	m.calls = append(m.calls, queryCall{name: name, args: args})
	return nil, fmt.Errorf("unexpected query %s", name)
}

func (m *mockDB) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	name := queryName(sql)
	m.calls = append(m.calls, queryCall{name: name, args: args})
	if fn := m.rowFns[name]; fn != nil {
		return fn(args)
	}
	return mockRow{err: fmt.Errorf("unexpected query %s", name)}
}

func (m *mockDB) names() []string {
	names := make([]string, len(m.calls))
	for i, c := range m.calls {
		names[i] = c.name
	}
	return names
}

func (m *mockDB) argsOf(name string) []any {
	for _, c := range m.calls {
		if c.name == name {
			return c.args
		}
	}
	return nil
}

// queryName reads "X" from the "-- name: X :kind" header sqlc puts on every query.
func queryName(sql string) string {
	header, _, _ := strings.Cut(sql, "\n")
	fields := strings.Fields(header)
	if len(fields) < 3 || fields[1] != "name:" {
		return sql
	}
	return fields[2]
}

type mockRow struct {
	values []any
	err    error
}

func (r mockRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) != len(r.values) {
		return fmt.Errorf("scan: %d destinations for %d values", len(dest), len(r.values))
	}
	for i, v := range r.values {
		reflect.ValueOf(dest[i]).Elem().Set(reflect.ValueOf(v))
	}
	return nil
}

// mockTx runs fn against db and records how the transaction ended.
type mockTx struct {
	db         *mockDB
	committed  int
	rolledBack int
}

func (t *mockTx) WithTx(_ context.Context, fn func(q *sqlc.Queries) error) error {
	if err := fn(sqlc.New(t.db)); err != nil {
		t.rolledBack++
		return err
	}
	t.committed++
	return nil
}
