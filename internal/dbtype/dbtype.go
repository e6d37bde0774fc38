// Package dbtype describes the SQL dialects supported by the storage layer and
// the statements that differ between them.
package dbtype

import (
	"fmt"
	"strconv"
	"strings"
)

// Type is the active SQL dialect.
type Type int

// Supported dialects.
const (
	SQLite Type = iota
	MySQL
	H2
)

// ParseType resolves a configuration value (case-insensitive) to a Type.
func ParseType(name string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "sqlite", "sqlite3":
		return SQLite, nil
	case "mysql", "mariadb":
		return MySQL, nil
	case "h2":
		return H2, nil
	}

	return 0, fmt.Errorf("unsupported database type %q", name)
}

// Name returns the display name of the dialect.
func (t Type) Name() string {
	switch t {
	case SQLite:
		return "SQLite"
	case MySQL:
		return "MySQL"
	case H2:
		return "H2"
	}

	return "Type(" + strconv.Itoa(int(t)) + ")"
}

func (t Type) String() string { return t.Name() }

// DriverName is the database/sql driver used for the dialect.
// H2 is reached through its PostgreSQL wire-protocol server.
func (t Type) DriverName() string {
	switch t {
	case MySQL:
		return "mysql"
	case H2:
		return "postgres"
	default:
		return "sqlite"
	}
}

// SupportsMySQLQueries reports whether MySQL specific statements are understood.
func (t Type) SupportsMySQLQueries() bool {
	return t == MySQL
}

// PrimaryKey returns the column fragment that follows the id column name,
// and the clause appended after all columns (empty when the key is inline).
func (t Type) PrimaryKey(column string) (inline, trailing string) {
	if t == SQLite {
		return "integer PRIMARY KEY", ""
	}

	return "integer NOT NULL AUTO_INCREMENT", "PRIMARY KEY (" + column + ")"
}

// DisableForeignKeyChecks returns the statement turning off FK enforcement, or "" when not applicable.
func (t Type) DisableForeignKeyChecks() string {
	if t == MySQL {
		return "SET FOREIGN_KEY_CHECKS=0"
	}

	return ""
}

// EnableForeignKeyChecks returns the statement turning FK enforcement back on, or "" when not applicable.
func (t Type) EnableForeignKeyChecks() string {
	if t == MySQL {
		return "SET FOREIGN_KEY_CHECKS=1"
	}

	return ""
}

// HasTableQuery returns SQL that yields a row when the table exists. H2 keeps
// identifiers upper case, so its lookups compare case-insensitively.
// Parameters: table name (MySQL: schema, table name).
func (t Type) HasTableQuery() string {
	switch t {
	case MySQL:
		return "SELECT TABLE_NAME FROM information_schema.TABLES WHERE TABLE_SCHEMA=? AND TABLE_NAME=?"
	case H2:
		return "SELECT TABLE_NAME FROM INFORMATION_SCHEMA.TABLES WHERE UPPER(TABLE_NAME)=UPPER(?)"
	default:
		return "SELECT tbl_name FROM sqlite_master WHERE type='table' AND tbl_name=?"
	}
}

// HasColumnQuery returns SQL that yields a row when the column exists.
// Parameters: table name, column name (MySQL: schema first).
// SQLite has no parameterised column lookup; see TableInfoQuery.
func (t Type) HasColumnQuery() string {
	switch t {
	case MySQL:
		return "SELECT COLUMN_NAME FROM information_schema.COLUMNS WHERE TABLE_SCHEMA=? AND TABLE_NAME=? AND COLUMN_NAME=?"
	case H2:
		return "SELECT COLUMN_NAME FROM INFORMATION_SCHEMA.COLUMNS WHERE UPPER(TABLE_NAME)=UPPER(?) AND UPPER(COLUMN_NAME)=UPPER(?)"
	default:
		return ""
	}
}

// TableInfoQuery is the SQLite column listing of a table.
func TableInfoQuery(table string) string {
	return "PRAGMA table_info(" + table + ")"
}

// HasIndexQuery returns SQL that yields a row when the named index exists.
// Parameters: index name (MySQL: schema, table, index).
func (t Type) HasIndexQuery() string {
	switch t {
	case MySQL:
		return "SELECT INDEX_NAME FROM information_schema.STATISTICS WHERE TABLE_SCHEMA=? AND TABLE_NAME=? AND INDEX_NAME=?"
	case H2:
		return "SELECT INDEX_NAME FROM INFORMATION_SCHEMA.INDEXES WHERE UPPER(INDEX_NAME)=UPPER(?)"
	default:
		return "SELECT name FROM sqlite_master WHERE type='index' AND name=?"
	}
}

// ForeignKeysQuery lists the constraints referencing a table (MySQL only).
// Parameters: schema, referenced table. Columns: TABLE_NAME, CONSTRAINT_NAME.
func (t Type) ForeignKeysQuery() string {
	if t != MySQL {
		return ""
	}

	return "SELECT TABLE_NAME, CONSTRAINT_NAME FROM information_schema.KEY_COLUMN_USAGE " +
		"WHERE REFERENCED_TABLE_SCHEMA=? AND REFERENCED_TABLE_NAME=?"
}

// DropForeignKey returns the statement removing a foreign key constraint.
func (t Type) DropForeignKey(table, constraint string) string {
	return "ALTER TABLE " + table + " DROP FOREIGN KEY " + constraint
}

// RenameTable returns the statement renaming a table.
func (t Type) RenameTable(from, to string) string {
	if t == MySQL {
		return "RENAME TABLE " + from + " TO " + to
	}

	return "ALTER TABLE " + from + " RENAME TO " + to
}

// AddColumn returns the statement adding a column with its definition.
func (t Type) AddColumn(table, column string) string {
	if t == MySQL {
		return "ALTER TABLE " + table + " ADD " + column
	}

	return "ALTER TABLE " + table + " ADD COLUMN " + column
}

// DropTableIfExists returns the statement removing a table.
func (t Type) DropTableIfExists(table string) string {
	return "DROP TABLE IF EXISTS " + table
}

// CreateUniqueIndex returns the statement creating a unique index.
func (t Type) CreateUniqueIndex(name, table string, columns ...string) string {
	return "CREATE UNIQUE INDEX " + name + " ON " + table + " (" + strings.Join(columns, ", ") + ")"
}

// Upsert returns the clause appended to an INSERT so that a conflict on the
// unique key updates the given columns from the inserted values.
// Increments lists columns that are added to instead of replaced.
func (t Type) Upsert(key []string, replace []string, increments ...string) string {
	var b strings.Builder
	if t == SQLite {
		b.WriteString(" ON CONFLICT (")
		b.WriteString(strings.Join(key, ", "))
		b.WriteString(") DO UPDATE SET ")
	} else {
		// H2 understands the MySQL form in MODE=MySQL
		b.WriteString(" ON DUPLICATE KEY UPDATE ")
	}

	first := true
	sep := func() {
		if !first {
			b.WriteString(", ")
		}
		first = false
	}
	for _, c := range replace {
		sep()
		b.WriteString(c)
		b.WriteString("=")
		b.WriteString(t.inserted(c))
	}
	for _, c := range increments {
		sep()
		b.WriteString(c)
		b.WriteString("=")
		b.WriteString(c)
		b.WriteString("+")
		b.WriteString(t.inserted(c))
	}

	return b.String()
}

func (t Type) inserted(column string) string {
	if t == SQLite {
		return "excluded." + column
	}

	return "VALUES(" + column + ")"
}

// Rebind converts '?' placeholders into the dialect's placeholder style.
// Question marks inside single-quoted literals are left untouched.
func (t Type) Rebind(query string) string {
	if t != H2 || !strings.Contains(query, "?") {
		return query
	}

	var (
		b      strings.Builder
		n      int
		quoted bool
	)
	b.Grow(len(query) + 8)
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case c == '\'':
			quoted = !quoted
			b.WriteByte(c)
		case c == '?' && !quoted:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteByte(c)
		}
	}

	return b.String()
}
