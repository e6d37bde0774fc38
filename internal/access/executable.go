package access

import (
	"context"
	"time"

	"github.com/skmedix/Plan-PlayerAnalytics/internal/metrics"
)

// Executable is a unit of write work. The returned bool reports whether any
// row was affected; statements that are not mutations report false.
type Executable interface {
	Execute(ctx context.Context, conn Conn) (bool, error)
}

// ExecutableFunc adapts a closure to Executable.
type ExecutableFunc func(ctx context.Context, conn Conn) (bool, error)

// Execute calls f.
func (f ExecutableFunc) Execute(ctx context.Context, conn Conn) (bool, error) {
	return f(ctx, conn)
}

// Sequence runs executables in order and reports whether any of them changed rows.
// The first failure stops the sequence.
func Sequence(execs ...Executable) Executable {
	return ExecutableFunc(func(ctx context.Context, conn Conn) (bool, error) {
		changed := false
		for _, e := range execs {
			ok, err := e.Execute(ctx, conn)
			if err != nil {
				return changed, err
			}
			changed = changed || ok
		}

		return changed, nil
	})
}

// Exec is a statement without parameters (DDL, pragmas, bulk deletes).
type Exec string

// Execute runs the statement directly on the connection.
func (e Exec) Execute(ctx context.Context, conn Conn) (bool, error) {
	query := string(e)
	start := time.Now()

	res, err := conn.ExecContext(ctx, query)
	record(query, start, err)
	if err != nil {
		return false, Wrap("execute", query, err)
	}
	if !IsMutation(query) {
		return false, nil
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, Wrap("execute", query, err)
	}

	return n > 0, nil
}

// ExecStatement is parameterized SQL with a bind closure.
type ExecStatement struct {
	SQL  string
	Bind func(p *Params)
}

// Execute prepares, binds and runs the statement. The prepared handle is
// released on every path.
func (s ExecStatement) Execute(ctx context.Context, conn Conn) (bool, error) {
	start := time.Now()
	changed, err := s.execute(ctx, conn)
	record(s.SQL, start, err)
	if err != nil {
		return false, Wrap("execute", s.SQL, err)
	}

	return changed, nil
}

func (s ExecStatement) execute(ctx context.Context, conn Conn) (bool, error) {
	var p Params
	if s.Bind != nil {
		s.Bind(&p)
	}

	stmt, err := conn.PrepareContext(ctx, s.SQL)
	if err != nil {
		return false, err
	}
	defer func() { _ = stmt.Close() }()

	res, err := stmt.ExecContext(ctx, p.args...)
	if err != nil {
		return false, err
	}
	if !IsMutation(s.SQL) {
		return false, nil
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return n > 0, nil
}

// ExecBatchStatement binds the same SQL for many rows and executes them over a
// single prepared handle. An empty batch does nothing.
type ExecBatchStatement struct {
	SQL  string
	Bind func(b *Batch)
}

// Execute runs every queued row and reports whether any row was written.
func (s ExecBatchStatement) Execute(ctx context.Context, conn Conn) (bool, error) {
	var b Batch
	if s.Bind != nil {
		s.Bind(&b)
	}
	if b.Len() == 0 {
		return false, nil
	}

	start := time.Now()
	changed, err := s.execute(ctx, conn, &b)
	record(s.SQL, start, err)
	if err != nil {
		return false, Wrap("batch", s.SQL, err)
	}

	return changed, nil
}

func (s ExecBatchStatement) execute(ctx context.Context, conn Conn, b *Batch) (bool, error) {
	stmt, err := conn.PrepareContext(ctx, s.SQL)
	if err != nil {
		return false, err
	}
	defer func() { _ = stmt.Close() }()

	var affected int64
	for _, args := range b.rows {
		res, err := stmt.ExecContext(ctx, args...)
		if err != nil {
			return false, err
		}
		if n, err := res.RowsAffected(); err == nil {
			affected += n
		}
	}

	return affected > 0, nil
}

func record(query string, start time.Time, err error) {
	metrics.RecordDBQuery(Operation(query), Table(query), time.Since(start), err)
}
