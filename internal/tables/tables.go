package tables

import "github.com/skmedix/Plan-PlayerAnalytics/internal/dbtype"

// Table names are part of the on-disk contract.
const (
	ServerTable     = "plan_servers"
	UsersTable      = "plan_users"
	UserInfoTable   = "plan_user_info"
	GeoInfoTable    = "plan_ips"
	NicknamesTable  = "plan_nicknames"
	SessionsTable   = "plan_sessions"
	KillsTable      = "plan_kills"
	PingTable       = "plan_ping"
	CommandUseTable = "plan_commandusages"
	TPSTable        = "plan_tps"
	WorldTable      = "plan_worlds"
	WorldTimesTable = "plan_world_times"
	SecurityTable   = "plan_security"
	SettingsTable   = "plan_settings"
)

// CreateStatements returns the DDL of every table in foreign key order.
func CreateStatements(t dbtype.Type) []string {
	return []string{
		CreateServerTable(t),
		CreateUsersTable(t),
		CreateUserInfoTable(t),
		CreateGeoInfoTable(t),
		CreateNicknamesTable(t),
		CreateSessionsTable(t),
		CreateKillsTable(t),
		CreatePingTable(t),
		CreateCommandUseTable(t),
		CreateTPSTable(t),
		CreateWorldTable(t),
		CreateWorldTimesTable(t),
		CreateSecurityTable(t),
		CreateSettingsTable(t),
	}
}

// RemovalOrder lists the tables children first, so deleting in this order
// never violates a foreign key.
var RemovalOrder = []string{
	SettingsTable,
	SecurityTable,
	WorldTimesTable,
	WorldTable,
	TPSTable,
	CommandUseTable,
	PingTable,
	KillsTable,
	SessionsTable,
	NicknamesTable,
	GeoInfoTable,
	UserInfoTable,
	UsersTable,
	ServerTable,
}

// Unique indexes backing the native upserts.
const (
	GeoInfoUniqueIndex    = "plan_ips_uuid_hash_index"
	NicknamesUniqueIndex  = "plan_nicknames_unique_index"
	CommandUseUniqueIndex = "plan_commandusages_unique_index"
)

// UniqueIndex describes an index required by an upsert.
type UniqueIndex struct {
	Name    string
	Table   string
	Columns []string
}

// UniqueIndexes lists the indexes created by the unique keys patch.
var UniqueIndexes = []UniqueIndex{
	{GeoInfoUniqueIndex, GeoInfoTable, geoInfoKey},
	{NicknamesUniqueIndex, NicknamesTable, nicknameKey},
	{CommandUseUniqueIndex, CommandUseTable, commandUseKey},
}
