package tables

import (
	"github.com/skmedix/Plan-PlayerAnalytics/internal/access"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/dbtype"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/models"
)

// CreateSecurityTable is the DDL of plan_security.
func CreateSecurityTable(t dbtype.Type) string {
	return NewCreateTable(SecurityTable, t).
		Column("username", Varchar(100)).NotNull().Unique().
		Column("salted_pass_hash", Varchar(100)).NotNull().Unique().
		Column("permission_level", Int).NotNull().
		String()
}

const (
	InsertWebUserSQL = "INSERT INTO plan_security (username, salted_pass_hash, permission_level) VALUES (?, ?, ?)"

	SelectWebUsersSQL = "SELECT username, salted_pass_hash, permission_level FROM plan_security"

	DeleteWebUserSQL = "DELETE FROM plan_security WHERE username=?"
)

// BindWebUser adds the InsertWebUserSQL parameters.
func BindWebUser(p access.Binder, u models.WebUser) {
	p.Add(u.Username, u.PasswordHash, u.PermissionLevel)
}

// ScanWebUser reads a SelectWebUsersSQL row.
func ScanWebUser(rows *access.Rows) (models.WebUser, error) {
	var u models.WebUser
	err := rows.Scan(&u.Username, &u.PasswordHash, &u.PermissionLevel)
	return u, err
}

// CreateSettingsTable is the DDL of plan_settings.
func CreateSettingsTable(t dbtype.Type) string {
	return NewCreateTable(SettingsTable, t).
		PrimaryKey("id").
		Column("server_uuid", Varchar(39)).NotNull().Unique().
		Column("updated", Long).NotNull().
		Column("content", LongText(t)).NotNull().
		String()
}

var settingsKey = []string{"server_uuid"}

const (
	InsertSettingsSQL = "INSERT INTO plan_settings (server_uuid, updated, content) VALUES (?, ?, ?)"

	SelectSettingsSQL = "SELECT server_uuid, updated, content FROM plan_settings"
)

// UpsertSettingsSQL stores a server's configuration, replacing a previous copy.
func UpsertSettingsSQL(t dbtype.Type) string {
	return InsertSettingsSQL + t.Upsert(settingsKey, []string{"updated", "content"})
}

// BindSettings adds the InsertSettingsSQL parameters.
func BindSettings(p access.Binder, c models.ServerConfig) {
	p.Add(c.ServerUUID, c.Updated, c.Content)
}

// ScanSettings reads a SelectSettingsSQL row.
func ScanSettings(rows *access.Rows) (models.ServerConfig, error) {
	var c models.ServerConfig
	err := rows.Scan(&c.ServerUUID, &c.Updated, &c.Content)
	return c, err
}
