// Package tables owns the canonical schema: table and column names, the
// dialect-specific CREATE TABLE statements, and the row binders and scanners
// of every table.
package tables

import (
	"strconv"
	"strings"

	"github.com/skmedix/Plan-PlayerAnalytics/internal/dbtype"
)

// Column types.
const (
	Int    = "integer"
	Long   = "bigint"
	Bool   = "boolean"
	Double = "double"
)

// Varchar returns a varchar type of the given length.
func Varchar(n int) string {
	return "varchar(" + strconv.Itoa(n) + ")"
}

// LongText is a text column large enough for configuration files.
func LongText(t dbtype.Type) string {
	if t == dbtype.MySQL {
		return "MEDIUMTEXT"
	}

	return "TEXT"
}

// CreateTable builds a CREATE TABLE IF NOT EXISTS statement. Modifiers
// (NotNull, Unique, Default) apply to the most recently added column.
type CreateTable struct {
	dbType      dbtype.Type
	name        string
	columns     []string
	foreignKeys []string
	primaryKey  string
}

// NewCreateTable starts a statement for the table.
func NewCreateTable(name string, t dbtype.Type) *CreateTable {
	return &CreateTable{dbType: t, name: name}
}

// PrimaryKey adds an auto-increment integer key column.
func (c *CreateTable) PrimaryKey(column string) *CreateTable {
	inline, trailing := c.dbType.PrimaryKey(column)
	c.columns = append(c.columns, column+" "+inline)
	c.primaryKey = trailing

	return c
}

// Column adds a column of the given type.
func (c *CreateTable) Column(name, typ string) *CreateTable {
	c.columns = append(c.columns, name+" "+typ)
	return c
}

// NotNull marks the last column NOT NULL.
func (c *CreateTable) NotNull() *CreateTable {
	return c.modify(" NOT NULL")
}

// Unique marks the last column UNIQUE.
func (c *CreateTable) Unique() *CreateTable {
	return c.modify(" UNIQUE")
}

// Default sets the default value literal of the last column.
func (c *CreateTable) Default(value string) *CreateTable {
	return c.modify(" DEFAULT " + value)
}

// ForeignKey references a column of another table.
func (c *CreateTable) ForeignKey(column, refTable, refColumn string) *CreateTable {
	c.foreignKeys = append(c.foreignKeys, "FOREIGN KEY("+column+") REFERENCES "+refTable+"("+refColumn+")")
	return c
}

func (c *CreateTable) modify(suffix string) *CreateTable {
	if n := len(c.columns); n > 0 {
		c.columns[n-1] += suffix
	}

	return c
}

// String renders the statement.
func (c *CreateTable) String() string {
	parts := make([]string, 0, len(c.columns)+len(c.foreignKeys)+1)
	parts = append(parts, c.columns...)
	parts = append(parts, c.foreignKeys...)
	if c.primaryKey != "" {
		parts = append(parts, c.primaryKey)
	}

	return "CREATE TABLE IF NOT EXISTS " + c.name + " (" + strings.Join(parts, ", ") + ")"
}
