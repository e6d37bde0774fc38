// Package access holds the statement abstractions the rest of the storage layer
// is built on: executables with bind closures, queries with map closures, and
// the connection interface they run against.
package access

import (
	"context"
	"database/sql"
	"strings"

	"github.com/skmedix/Plan-PlayerAnalytics/internal/dbtype"
)

// Conn is the handle statements execute against: a pooled database, a pinned
// connection or a transaction, tagged with its dialect.
type Conn interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
	Type() dbtype.Type
}

// Binder receives positional statement arguments; both Params and Batch
// implement it so row binders work for single and batched statements.
type Binder interface {
	Add(values ...any)
}

// Params collects positional arguments of a statement.
type Params struct {
	args []any
}

// Add appends positional values in order.
func (p *Params) Add(values ...any) {
	p.args = append(p.args, values...)
}

// Args returns the collected values.
func (p *Params) Args() []any { return p.args }

// Batch collects argument rows for a batched statement.
type Batch struct {
	rows [][]any
}

// Add queues one row of positional values.
func (b *Batch) Add(values ...any) {
	b.rows = append(b.rows, values)
}

// Len is the number of queued rows.
func (b *Batch) Len() int { return len(b.rows) }

var mutations = []string{"INSERT", "UPDATE", "DELETE", "REPLACE"}

// Operation returns the leading SQL keyword in upper case.
func Operation(query string) string {
	q := strings.TrimSpace(query)
	if i := strings.IndexAny(q, " \t\n\r("); i > 0 {
		q = q[:i]
	}

	return strings.ToUpper(q)
}

// IsMutation reports whether the statement reports rows affected.
func IsMutation(query string) bool {
	op := Operation(query)
	for _, m := range mutations {
		if op == m {
			return true
		}
	}

	return false
}

// Table returns the first table name a statement refers to, or "" when none is found.
func Table(query string) string {
	fields := strings.Fields(query)
	for i := 0; i < len(fields)-1; i++ {
		switch strings.ToUpper(fields[i]) {
		case "FROM", "INTO", "UPDATE", "TABLE", "EXISTS":
			name := strings.Trim(fields[i+1], "(),;`\"")
			if name != "" && !strings.EqualFold(name, "IF") && !strings.EqualFold(name, "NOT") {
				return name
			}
		}
	}

	return ""
}
