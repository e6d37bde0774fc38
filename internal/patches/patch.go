// Package patches migrates an existing database of any earlier layout to
// the current schema. Each patch detects from the live schema whether it is
// needed, so no version number is stored.
package patches

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/access"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/dbtype"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/metrics"
)

// Patch is one idempotent migration step.
type Patch interface {
	Name() string
	// HasBeenApplied inspects the schema without changing it.
	HasBeenApplied(ctx context.Context, c *Conn) (bool, error)
	// ApplyPatch performs the migration. It can be rerun after an interruption.
	ApplyPatch(ctx context.Context, c *Conn) error
}

type patch struct {
	name    string
	applied func(ctx context.Context, c *Conn) (bool, error)
	apply   func(ctx context.Context, c *Conn) error
}

func (p patch) Name() string { return p.name }

func (p patch) HasBeenApplied(ctx context.Context, c *Conn) (bool, error) {
	return p.applied(ctx, c)
}

func (p patch) ApplyPatch(ctx context.Context, c *Conn) error {
	return p.apply(ctx, c)
}

// Conn is a single pinned connection patches run on. Schema names the
// MySQL database used in information_schema lookups.
type Conn struct {
	access.Conn
	Schema string
}

// Run applies every patch that has not been applied yet, in order. Any
// failure is an *access.InitError.
func Run(ctx context.Context, c *Conn, list []Patch) error {
	for _, p := range list {
		applied, err := p.HasBeenApplied(ctx, c)
		if err != nil {
			return &access.InitError{Stage: "inspect " + p.Name(), Err: err}
		}
		if applied {
			continue
		}

		log.Info().Str("patch", p.Name()).Msg("Applying database patch...")

		if err := c.apply(ctx, p); err != nil {
			return &access.InitError{Stage: "patch " + p.Name(), Err: err}
		}

		applied, err = p.HasBeenApplied(ctx, c)
		if err != nil {
			return &access.InitError{Stage: "inspect " + p.Name(), Err: err}
		}
		if !applied {
			return &access.InitError{Stage: "patch " + p.Name(), Err: fmt.Errorf("%s was not applied", p.Name())}
		}

		metrics.RecordPatch(p.Name())
	}

	return nil
}

// apply runs the patch with foreign key checks turned off where the
// dialect enforces them during DDL.
func (c *Conn) apply(ctx context.Context, p Patch) (err error) {
	if stmt := c.Type().DisableForeignKeyChecks(); stmt != "" {
		if _, err := c.ExecContext(ctx, stmt); err != nil {
			return err
		}
		defer func() {
			if _, enableErr := c.ExecContext(ctx, c.Type().EnableForeignKeyChecks()); err == nil {
				err = enableErr
			}
		}()
	}

	return p.ApplyPatch(ctx, c)
}

func (c *Conn) exec(ctx context.Context, statements ...string) error {
	for _, stmt := range statements {
		if _, err := access.Exec(stmt).Execute(ctx, c); err != nil {
			return err
		}
	}

	return nil
}

// HasTable reports whether the table exists.
func (c *Conn) HasTable(ctx context.Context, table string) (bool, error) {
	return access.Exists(c.Type().HasTableQuery(), func(p *access.Params) {
		if c.Type() == dbtype.MySQL {
			p.Add(c.Schema)
		}
		p.Add(table)
	}).ExecuteQuery(ctx, c)
}

// HasColumn reports whether the table has the column. A missing table has no columns.
func (c *Conn) HasColumn(ctx context.Context, table, column string) (bool, error) {
	if c.Type() == dbtype.SQLite {
		columns, err := c.sqliteColumns(ctx, table)
		if err != nil {
			return false, err
		}
		for _, name := range columns {
			if strings.EqualFold(name, column) {
				return true, nil
			}
		}
		return false, nil
	}

	return access.Exists(c.Type().HasColumnQuery(), func(p *access.Params) {
		if c.Type() == dbtype.MySQL {
			p.Add(c.Schema)
		}
		p.Add(table, column)
	}).ExecuteQuery(ctx, c)
}

func (c *Conn) sqliteColumns(ctx context.Context, table string) ([]string, error) {
	return access.QueryAll(dbtype.TableInfoQuery(table), 0, func(rows *access.Rows) ([]string, error) {
		cols, err := rows.Columns()
		if err != nil {
			return nil, err
		}
		nameAt := -1
		for i, col := range cols {
			if col == "name" {
				nameAt = i
			}
		}
		if nameAt < 0 {
			return nil, fmt.Errorf("table_info of %s has no name column", table)
		}

		var names []string
		for rows.Next() {
			values := make([]any, len(cols))
			dest := make([]any, len(cols))
			for i := range values {
				dest[i] = &values[i]
			}
			if err := rows.Scan(dest...); err != nil {
				return nil, err
			}
			names = append(names, fmt.Sprint(values[nameAt]))
		}
		return names, nil
	}).ExecuteQuery(ctx, c)
}

// HasIndex reports whether the named index exists on the table.
func (c *Conn) HasIndex(ctx context.Context, table, index string) (bool, error) {
	return access.Exists(c.Type().HasIndexQuery(), func(p *access.Params) {
		if c.Type() == dbtype.MySQL {
			p.Add(c.Schema, table)
		}
		p.Add(index)
	}).ExecuteQuery(ctx, c)
}

// AddColumn adds a column unless it already exists. definition starts with the column name.
func (c *Conn) AddColumn(ctx context.Context, table, definition string) error {
	exists, err := c.HasColumn(ctx, table, columnName(definition))
	if err != nil || exists {
		return err
	}

	return c.exec(ctx, c.Type().AddColumn(table, definition))
}

func columnName(definition string) string {
	name, _, _ := strings.Cut(strings.TrimSpace(definition), " ")
	return name
}

// DropTable removes a table if it exists.
func (c *Conn) DropTable(ctx context.Context, table string) error {
	return c.exec(ctx, c.Type().DropTableIfExists(table))
}

// RenameTable renames a table.
func (c *Conn) RenameTable(ctx context.Context, from, to string) error {
	return c.exec(ctx, c.Type().RenameTable(from, to))
}

// DropForeignKeys removes every MySQL constraint referencing the table so
// it can be renamed and dropped. Other dialects keep name-based references.
func (c *Conn) DropForeignKeys(ctx context.Context, referenced string) error {
	if c.Type() != dbtype.MySQL {
		return nil
	}

	found, err := c.foreignKeys(ctx, referenced)
	if err != nil {
		return err
	}

	for _, k := range found {
		if err := c.exec(ctx, c.Type().DropForeignKey(k.table, k.name)); err != nil {
			return err
		}
	}

	return nil
}

// EnsureNoForeignKeys fails when a MySQL constraint still references the table.
func (c *Conn) EnsureNoForeignKeys(ctx context.Context, referenced string) error {
	if c.Type() != dbtype.MySQL {
		return nil
	}

	found, err := c.foreignKeys(ctx, referenced)
	if err != nil {
		return err
	}
	if len(found) > 0 {
		return fmt.Errorf("%s is still referenced by %s.%s", referenced, found[0].table, found[0].name)
	}

	return nil
}

type constraint struct{ table, name string }

func (c *Conn) foreignKeys(ctx context.Context, referenced string) ([]constraint, error) {
	return access.QueryStatement[[]constraint]{
		SQL:  c.Type().ForeignKeysQuery(),
		Bind: func(p *access.Params) { p.Add(c.Schema, referenced) },
		Map: func(rows *access.Rows) ([]constraint, error) {
			return access.ScanAll(rows, func(rows *access.Rows) (constraint, error) {
				var k constraint
				err := rows.Scan(&k.table, &k.name)
				return k, err
			})
		},
	}.ExecuteQuery(ctx, c)
}

// TempTableName is the name a table is moved to while it is rebuilt.
func TempTableName(table string) string {
	return "temp_" + strings.TrimPrefix(table, "plan_")
}

// Count reads a single integer.
func (c *Conn) Count(ctx context.Context, query string, args ...any) (int, error) {
	return access.Count(query, func(p *access.Params) { p.Add(args...) }).ExecuteQuery(ctx, c)
}
