package storage

import (
	"context"
	"database/sql"

	"github.com/skmedix/Plan-PlayerAnalytics/internal/dbtype"
)

// handle is the part of *sql.DB, *sql.Conn and *sql.Tx statements need.
type handle interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
}

// dialectConn tags a handle with its dialect and rewrites placeholders on
// the way to the driver.
type dialectConn struct {
	h   handle
	typ dbtype.Type
}

func (c dialectConn) Type() dbtype.Type { return c.typ }

func (c dialectConn) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return c.h.ExecContext(ctx, c.typ.Rebind(query), args...)
}

func (c dialectConn) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return c.h.QueryContext(ctx, c.typ.Rebind(query), args...)
}

func (c dialectConn) PrepareContext(ctx context.Context, query string) (*sql.Stmt, error) {
	return c.h.PrepareContext(ctx, c.typ.Rebind(query))
}
