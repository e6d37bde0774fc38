package access

import (
	"context"
	"database/sql"
	"time"
)

// Query produces a value from the database.
type Query[T any] interface {
	ExecuteQuery(ctx context.Context, conn Conn) (T, error)
}

// QueryFunc adapts a closure to Query.
type QueryFunc[T any] func(ctx context.Context, conn Conn) (T, error)

// ExecuteQuery calls f.
func (f QueryFunc[T]) ExecuteQuery(ctx context.Context, conn Conn) (T, error) {
	return f(ctx, conn)
}

// Rows is the cursor handed to map closures. It enforces the statement's
// fetch size: reading past it stops iteration and Err reports ErrTooManyRows.
type Rows struct {
	rows  *sql.Rows
	limit int
	read  int
	err   error
}

// Next advances to the next row.
func (r *Rows) Next() bool {
	if r.err != nil || !r.rows.Next() {
		return false
	}

	r.read++
	if r.limit > 0 && r.read > r.limit {
		r.err = ErrTooManyRows
		return false
	}

	return true
}

// Scan copies the current row into dest.
func (r *Rows) Scan(dest ...any) error {
	return r.rows.Scan(dest...)
}

// Columns returns the result column names.
func (r *Rows) Columns() ([]string, error) {
	return r.rows.Columns()
}

// Err returns the fetch-size violation or the driver iteration error.
func (r *Rows) Err() error {
	if r.err != nil {
		return r.err
	}

	return r.rows.Err()
}

// QueryStatement is parameterized SQL with a bind closure and a map closure.
// FetchSize, when positive, is a hard cap on the number of rows read.
type QueryStatement[T any] struct {
	SQL       string
	FetchSize int
	Bind      func(p *Params)
	Map       func(rows *Rows) (T, error)
}

// ExecuteQuery prepares, binds and runs the query and maps its rows. The
// statement and the result set are released on every path.
func (s QueryStatement[T]) ExecuteQuery(ctx context.Context, conn Conn) (T, error) {
	start := time.Now()
	v, err := s.query(ctx, conn)
	record(s.SQL, start, err)
	if err != nil {
		var zero T
		return zero, Wrap("query", s.SQL, err)
	}

	return v, nil
}

func (s QueryStatement[T]) query(ctx context.Context, conn Conn) (T, error) {
	var zero T
	var p Params
	if s.Bind != nil {
		s.Bind(&p)
	}

	stmt, err := conn.PrepareContext(ctx, s.SQL)
	if err != nil {
		return zero, err
	}
	defer func() { _ = stmt.Close() }()

	rows, err := stmt.QueryContext(ctx, p.args...)
	if err != nil {
		return zero, err
	}
	defer func() { _ = rows.Close() }()

	cursor := &Rows{rows: rows, limit: s.FetchSize}
	v, err := s.Map(cursor)
	if err != nil {
		return zero, err
	}
	if err := cursor.Err(); err != nil {
		return zero, err
	}

	return v, nil
}

// QueryAll is a QueryStatement without parameters.
func QueryAll[T any](query string, fetchSize int, mapper func(rows *Rows) (T, error)) QueryStatement[T] {
	return QueryStatement[T]{SQL: query, FetchSize: fetchSize, Map: mapper}
}

// ScanAll maps every row with scan and collects the results.
func ScanAll[T any](rows *Rows, scan func(rows *Rows) (T, error)) ([]T, error) {
	var out []T
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}

	return out, nil
}

// ScanInt reads a single integer column of the first row, or 0 without rows.
func ScanInt(rows *Rows) (int, error) {
	var n sql.NullInt64
	if rows.Next() {
		if err := rows.Scan(&n); err != nil {
			return 0, err
		}
	}

	return int(n.Int64), nil
}

// ScanExists reports whether the query returned at least one row.
func ScanExists(rows *Rows) (bool, error) {
	return rows.Next(), nil
}

// Count builds a query reading a single integer.
func Count(query string, bind func(p *Params)) QueryStatement[int] {
	return QueryStatement[int]{SQL: query, Bind: bind, Map: ScanInt}
}

// Exists builds a query reporting whether any row matches.
func Exists(query string, bind func(p *Params)) QueryStatement[bool] {
	return QueryStatement[bool]{SQL: query, Bind: bind, Map: ScanExists}
}
