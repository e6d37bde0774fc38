// Package transactions defines units of database work and the handle they
// run against. The storage package executes them atomically.
package transactions

import (
	"context"
	"database/sql"
	"strconv"

	"github.com/skmedix/Plan-PlayerAnalytics/internal/access"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/dbtype"
)

// State is the lifecycle position of a transaction.
type State int

// Transaction lifecycle: Created, then Skipped or Running, then Committed or RolledBack.
const (
	Created State = iota
	Skipped
	Running
	Committed
	RolledBack
)

func (s State) String() string {
	switch s {
	case Created:
		return "created"
	case Skipped:
		return "skipped"
	case Running:
		return "running"
	case Committed:
		return "committed"
	case RolledBack:
		return "rolled_back"
	}

	return "State(" + strconv.Itoa(int(s)) + ")"
}

// Database is the view of a database a transaction is given.
type Database interface {
	Type() dbtype.Type
	IsOpen() bool
	// Conn is the pooled connection, used to read from another database.
	Conn() access.Conn
}

// Transaction is an atomic unit of work.
type Transaction interface {
	Name() string
	// ShouldBeExecuted is checked before a transaction is opened and must not
	// have side effects.
	ShouldBeExecuted(db Database) bool
	// PerformOperations runs the statements in order. Returning an error rolls
	// every change back.
	PerformOperations(ctx context.Context, tx *Tx) error
}

// Func builds a Transaction from closures. A nil Should always executes.
type Func struct {
	Label   string
	Should  func(db Database) bool
	Perform func(ctx context.Context, tx *Tx) error
}

// Name returns the label.
func (f Func) Name() string { return f.Label }

// ShouldBeExecuted calls Should when set.
func (f Func) ShouldBeExecuted(db Database) bool {
	return f.Should == nil || f.Should(db)
}

// PerformOperations calls Perform.
func (f Func) PerformOperations(ctx context.Context, tx *Tx) error {
	return f.Perform(ctx, tx)
}

// Executes is a transaction running the executables in order.
func Executes(name string, execs ...access.Executable) Transaction {
	return Func{
		Label: name,
		Perform: func(ctx context.Context, tx *Tx) error {
			return tx.ExecuteAll(ctx, execs...)
		},
	}
}

// Tx binds a running transaction to the single connection it owns. It
// implements access.Conn so queries can run inside the transaction.
type Tx struct {
	conn access.Conn
	db   Database
}

// NewTx wraps the transactional connection of db.
func NewTx(conn access.Conn, db Database) *Tx {
	return &Tx{conn: conn, db: db}
}

// Database returns the database the transaction runs on.
func (tx *Tx) Database() Database { return tx.db }

// Type returns the dialect.
func (tx *Tx) Type() dbtype.Type { return tx.conn.Type() }

// ExecContext runs a statement within the transaction.
func (tx *Tx) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return tx.conn.ExecContext(ctx, query, args...)
}

// QueryContext runs a query within the transaction.
func (tx *Tx) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return tx.conn.QueryContext(ctx, query, args...)
}

// PrepareContext prepares a statement within the transaction.
func (tx *Tx) PrepareContext(ctx context.Context, query string) (*sql.Stmt, error) {
	return tx.conn.PrepareContext(ctx, query)
}

// Execute runs an executable within the transaction.
func (tx *Tx) Execute(ctx context.Context, e access.Executable) (bool, error) {
	return e.Execute(ctx, tx)
}

// ExecuteAll runs executables in order and stops at the first failure.
func (tx *Tx) ExecuteAll(ctx context.Context, execs ...access.Executable) error {
	_, err := access.Sequence(execs...).Execute(ctx, tx)
	return err
}

// Query runs a query within the transaction.
func Query[T any](ctx context.Context, tx *Tx, q access.Query[T]) (T, error) {
	return q.ExecuteQuery(ctx, tx)
}

// QueryFrom runs a query on another database's pool.
func QueryFrom[T any](ctx context.Context, db Database, q access.Query[T]) (T, error) {
	if !db.IsOpen() {
		var zero T
		return zero, &access.OpError{Op: "query", Err: access.ErrClosed}
	}

	return q.ExecuteQuery(ctx, db.Conn())
}
