package tables

import (
	"database/sql"

	"github.com/skmedix/Plan-PlayerAnalytics/internal/access"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/dbtype"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/models"
)

// CreateServerTable is the DDL of plan_servers.
func CreateServerTable(t dbtype.Type) string {
	return NewCreateTable(ServerTable, t).
		PrimaryKey("id").
		Column("uuid", Varchar(36)).NotNull().Unique().
		Column("name", Varchar(100)).
		Column("web_address", Varchar(100)).
		Column("is_installed", Bool).NotNull().Default("1").
		Column("max_players", Int).NotNull().Default("-1").
		String()
}

const (
	InsertServerSQL = "INSERT INTO plan_servers (uuid, name, web_address, is_installed, max_players) VALUES (?, ?, ?, ?, ?)"

	UpdateServerSQL = "UPDATE plan_servers SET name=?, web_address=?, is_installed=?, max_players=? WHERE uuid=?"

	SelectServersSQL = "SELECT id, uuid, name, web_address, is_installed, max_players FROM plan_servers"

	// SelectServerIDSQL is a scalar subquery resolving a server uuid to its id.
	SelectServerIDSQL = "(SELECT plan_servers.id FROM plan_servers WHERE plan_servers.uuid=? LIMIT 1)"
)

var serverKey = []string{"uuid"}

// UpsertServerSQL stores a server, updating the row of an already known uuid.
func UpsertServerSQL(t dbtype.Type) string {
	return InsertServerSQL + t.Upsert(serverKey, []string{"name", "web_address", "is_installed", "max_players"})
}

// BindServer adds the InsertServerSQL parameters.
func BindServer(p access.Binder, s models.Server) {
	p.Add(s.UUID, s.Name, s.WebAddress, s.Installed, s.MaxPlayers)
}

// ScanServer reads a SelectServersSQL row.
func ScanServer(rows *access.Rows) (models.Server, error) {
	var (
		s          models.Server
		name, addr sql.NullString
	)
	if err := rows.Scan(&s.ID, &s.UUID, &name, &addr, &s.Installed, &s.MaxPlayers); err != nil {
		return s, err
	}
	s.Name = name.String
	s.WebAddress = addr.String

	return s, nil
}
