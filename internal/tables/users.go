package tables

import (
	"database/sql"

	"github.com/google/uuid"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/access"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/dbtype"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/models"
)

// CreateUsersTable is the DDL of plan_users.
func CreateUsersTable(t dbtype.Type) string {
	return NewCreateTable(UsersTable, t).
		PrimaryKey("id").
		Column("uuid", Varchar(36)).NotNull().Unique().
		Column("registered", Long).NotNull().
		Column("name", Varchar(16)).NotNull().
		Column("times_kicked", Int).NotNull().Default("0").
		String()
}

const (
	InsertUserSQL = "INSERT INTO plan_users (uuid, registered, name) VALUES (?, ?, ?)"

	InsertUserWithKicksSQL = "INSERT INTO plan_users (uuid, registered, name, times_kicked) VALUES (?, ?, ?, ?)"

	UpdateUserNameSQL = "UPDATE plan_users SET name=? WHERE uuid=?"

	KickUserSQL = "UPDATE plan_users SET times_kicked=times_kicked+1 WHERE uuid=?"

	SelectUsersSQL = "SELECT uuid, name, registered, times_kicked FROM plan_users"
)

// BindUser adds the InsertUserWithKicksSQL parameters.
func BindUser(p access.Binder, u models.BaseUser) {
	p.Add(u.UUID, u.Registered, u.Name, u.TimesKicked)
}

// ScanUser reads a SelectUsersSQL row.
func ScanUser(rows *access.Rows) (models.BaseUser, error) {
	var u models.BaseUser
	err := rows.Scan(&u.UUID, &u.Name, &u.Registered, &u.TimesKicked)
	return u, err
}

// CreateUserInfoTable is the DDL of plan_user_info.
func CreateUserInfoTable(t dbtype.Type) string {
	return NewCreateTable(UserInfoTable, t).
		PrimaryKey("id").
		Column("uuid", Varchar(36)).NotNull().
		Column("registered", Long).NotNull().
		Column("opped", Bool).NotNull().Default("0").
		Column("banned", Bool).NotNull().Default("0").
		Column("server_uuid", Varchar(36)).NotNull().
		String()
}

const (
	InsertUserInfoSQL = "INSERT INTO plan_user_info (uuid, registered, server_uuid, banned, opped) VALUES (?, ?, ?, ?, ?)"

	UpdateBannedSQL = "UPDATE plan_user_info SET banned=? WHERE uuid=? AND server_uuid=?"

	UpdateOppedSQL = "UPDATE plan_user_info SET opped=? WHERE uuid=? AND server_uuid=?"

	SelectUserInfoSQL = "SELECT uuid, server_uuid, registered, opped, banned FROM plan_user_info"
)

// BindUserInfo adds the InsertUserInfoSQL parameters.
func BindUserInfo(p access.Binder, u models.UserInfo) {
	p.Add(u.PlayerUUID, u.Registered, u.ServerUUID, u.Banned, u.Operator)
}

// ScanUserInfo reads a SelectUserInfoSQL row.
func ScanUserInfo(rows *access.Rows) (models.UserInfo, error) {
	var u models.UserInfo
	err := rows.Scan(&u.PlayerUUID, &u.ServerUUID, &u.Registered, &u.Operator, &u.Banned)
	return u, err
}

// CreateGeoInfoTable is the DDL of plan_ips.
func CreateGeoInfoTable(t dbtype.Type) string {
	return NewCreateTable(GeoInfoTable, t).
		PrimaryKey("id").
		Column("uuid", Varchar(36)).NotNull().
		Column("ip", Varchar(39)).NotNull().
		Column("ip_hash", Varchar(200)).
		Column("geolocation", Varchar(50)).NotNull().
		Column("last_used", Long).NotNull().Default("0").
		String()
}

var geoInfoKey = []string{"uuid", "ip_hash"}

const (
	InsertGeoInfoSQL = "INSERT INTO plan_ips (uuid, ip, ip_hash, geolocation, last_used) VALUES (?, ?, ?, ?, ?)"

	SelectGeoInfoSQL = "SELECT uuid, ip, ip_hash, geolocation, last_used FROM plan_ips"
)

// UpsertGeoInfoSQL inserts a sighting, or refreshes the row of the same (uuid, ip_hash).
func UpsertGeoInfoSQL(t dbtype.Type) string {
	return InsertGeoInfoSQL + t.Upsert(geoInfoKey, []string{"ip", "geolocation", "last_used"})
}

// BindGeoInfo adds the InsertGeoInfoSQL parameters.
func BindGeoInfo(p access.Binder, player uuid.UUID, g models.GeoInfo) {
	p.Add(player, g.IP, g.IPHash, g.Geolocation, g.LastUsed)
}

// ScanGeoInfo reads a SelectGeoInfoSQL row.
func ScanGeoInfo(rows *access.Rows) (uuid.UUID, models.GeoInfo, error) {
	var (
		player uuid.UUID
		g      models.GeoInfo
		hash   sql.NullString
	)
	err := rows.Scan(&player, &g.IP, &hash, &g.Geolocation, &g.LastUsed)
	g.IPHash = hash.String

	return player, g, err
}

// CreateNicknamesTable is the DDL of plan_nicknames.
func CreateNicknamesTable(t dbtype.Type) string {
	return NewCreateTable(NicknamesTable, t).
		PrimaryKey("id").
		Column("uuid", Varchar(36)).NotNull().
		Column("nickname", Varchar(75)).NotNull().
		Column("server_uuid", Varchar(36)).NotNull().
		Column("last_used", Long).NotNull().
		String()
}

var nicknameKey = []string{"uuid", "server_uuid", "nickname"}

const (
	InsertNicknameSQL = "INSERT INTO plan_nicknames (uuid, server_uuid, nickname, last_used) VALUES (?, ?, ?, ?)"

	SelectNicknamesSQL = "SELECT uuid, nickname, server_uuid, last_used FROM plan_nicknames"
)

// UpsertNicknameSQL inserts a nickname, or refreshes last_used of an existing one.
func UpsertNicknameSQL(t dbtype.Type) string {
	return InsertNicknameSQL + t.Upsert(nicknameKey, []string{"last_used"})
}

// BindNickname adds the InsertNicknameSQL parameters.
func BindNickname(p access.Binder, player uuid.UUID, n models.Nickname) {
	p.Add(player, n.ServerUUID, n.Name, n.Date)
}

// ScanNickname reads a SelectNicknamesSQL row.
func ScanNickname(rows *access.Rows) (uuid.UUID, models.Nickname, error) {
	var (
		player uuid.UUID
		n      models.Nickname
	)
	err := rows.Scan(&player, &n.Name, &n.ServerUUID, &n.Date)

	return player, n, err
}
