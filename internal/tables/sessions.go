package tables

import (
	"github.com/skmedix/Plan-PlayerAnalytics/internal/access"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/dbtype"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/models"
)

// CreateSessionsTable is the DDL of plan_sessions.
func CreateSessionsTable(t dbtype.Type) string {
	return NewCreateTable(SessionsTable, t).
		PrimaryKey("id").
		Column("uuid", Varchar(36)).NotNull().
		Column("server_uuid", Varchar(36)).NotNull().
		Column("session_start", Long).NotNull().
		Column("session_end", Long).NotNull().
		Column("mob_kills", Int).NotNull().
		Column("deaths", Int).NotNull().
		Column("afk_time", Long).NotNull().
		String()
}

const (
	InsertSessionSQL = "INSERT INTO plan_sessions (uuid, session_start, session_end, deaths, mob_kills, afk_time, server_uuid) VALUES (?, ?, ?, ?, ?, ?, ?)"

	SelectSessionsSQL = "SELECT id, uuid, server_uuid, session_start, session_end, mob_kills, deaths, afk_time FROM plan_sessions"

	// SelectSessionIDSQL resolves (uuid, session_start, session_end) to the id of a stored session.
	SelectSessionIDSQL = "(SELECT plan_sessions.id FROM plan_sessions WHERE plan_sessions.uuid=? AND plan_sessions.session_start=? AND plan_sessions.session_end=? LIMIT 1)"
)

// BindSession adds the InsertSessionSQL parameters.
func BindSession(p access.Binder, s *models.Session) {
	p.Add(s.PlayerUUID, s.Start, s.End, s.Deaths, s.MobKills, s.AFKTime, s.ServerUUID)
}

// ScanSession reads a SelectSessionsSQL row.
func ScanSession(rows *access.Rows) (*models.Session, error) {
	s := &models.Session{}
	if err := rows.Scan(&s.ID, &s.PlayerUUID, &s.ServerUUID, &s.Start, &s.End, &s.MobKills, &s.Deaths, &s.AFKTime); err != nil {
		return nil, err
	}

	return s, nil
}

// CreateKillsTable is the DDL of plan_kills.
func CreateKillsTable(t dbtype.Type) string {
	return NewCreateTable(KillsTable, t).
		PrimaryKey("id").
		Column("killer_uuid", Varchar(36)).NotNull().
		Column("victim_uuid", Varchar(36)).NotNull().
		Column("server_uuid", Varchar(36)).NotNull().
		Column("weapon", Varchar(30)).NotNull().
		Column("date", Long).NotNull().
		Column("session_id", Int).NotNull().
		ForeignKey("session_id", SessionsTable, "id").
		String()
}

const (
	InsertKillSQL = "INSERT INTO plan_kills (session_id, killer_uuid, victim_uuid, server_uuid, date, weapon) VALUES (" +
		SelectSessionIDSQL + ", ?, ?, ?, ?, ?)"

	SelectKillsSQL = "SELECT plan_kills.session_id, killer_uuid, victim_uuid, plan_users.name, weapon, date FROM plan_kills " +
		"LEFT JOIN plan_users ON plan_users.uuid=plan_kills.victim_uuid"
)

// BindKill adds the InsertKillSQL parameters for a kill of the session.
func BindKill(p access.Binder, s *models.Session, k models.PlayerKill) {
	weapon := k.Weapon
	if len(weapon) > 30 {
		weapon = weapon[:30]
	}
	p.Add(s.PlayerUUID, s.Start, s.End, k.Killer, k.Victim, s.ServerUUID, k.Date, weapon)
}

// CreateWorldTable is the DDL of plan_worlds.
func CreateWorldTable(t dbtype.Type) string {
	return NewCreateTable(WorldTable, t).
		PrimaryKey("id").
		Column("world_name", Varchar(100)).NotNull().
		Column("server_uuid", Varchar(36)).NotNull().
		String()
}

const (
	InsertWorldSQL = "INSERT INTO plan_worlds (world_name, server_uuid) VALUES (?, ?)"

	SelectWorldsSQL = "SELECT world_name, server_uuid FROM plan_worlds"

	// SelectWorldIDSQL resolves (world_name, server_uuid) to a world id.
	SelectWorldIDSQL = "(SELECT plan_worlds.id FROM plan_worlds WHERE plan_worlds.world_name=? AND plan_worlds.server_uuid=? LIMIT 1)"
)

// CreateWorldTimesTable is the DDL of plan_world_times.
func CreateWorldTimesTable(t dbtype.Type) string {
	return NewCreateTable(WorldTimesTable, t).
		PrimaryKey("id").
		Column("uuid", Varchar(36)).NotNull().
		Column("world_id", Int).NotNull().
		Column("server_uuid", Varchar(36)).NotNull().
		Column("session_id", Int).NotNull().
		Column("survival_time", Long).NotNull().Default("0").
		Column("creative_time", Long).NotNull().Default("0").
		Column("adventure_time", Long).NotNull().Default("0").
		Column("spectator_time", Long).NotNull().Default("0").
		ForeignKey("world_id", WorldTable, "id").
		ForeignKey("session_id", SessionsTable, "id").
		String()
}

const (
	InsertWorldTimesSQL = "INSERT INTO plan_world_times (session_id, world_id, uuid, server_uuid, " +
		"survival_time, creative_time, adventure_time, spectator_time) VALUES (" +
		SelectSessionIDSQL + ", " + SelectWorldIDSQL + ", ?, ?, ?, ?, ?, ?)"

	SelectWorldTimesSQL = "SELECT session_id, plan_worlds.world_name, " +
		"survival_time, creative_time, adventure_time, spectator_time FROM plan_world_times " +
		"INNER JOIN plan_worlds ON plan_worlds.id=plan_world_times.world_id"
)

// BindWorldTimes adds the InsertWorldTimesSQL parameters of one world.
func BindWorldTimes(p access.Binder, s *models.Session, world string, gm models.GMTimes) {
	p.Add(
		s.PlayerUUID, s.Start, s.End,
		world, s.ServerUUID,
		s.PlayerUUID, s.ServerUUID,
		gm[models.Survival], gm[models.Creative], gm[models.Adventure], gm[models.Spectator],
	)
}

// ScanWorldTimes reads a SelectWorldTimesSQL row.
func ScanWorldTimes(rows *access.Rows) (sessionID int, world string, gm models.GMTimes, err error) {
	var survival, creative, adventure, spectator int64
	if err = rows.Scan(&sessionID, &world, &survival, &creative, &adventure, &spectator); err != nil {
		return 0, "", nil, err
	}
	gm = models.GMTimes{
		models.Survival:  survival,
		models.Creative:  creative,
		models.Adventure: adventure,
		models.Spectator: spectator,
	}

	return sessionID, world, gm, nil
}
