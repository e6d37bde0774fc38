package patches

import (
	"context"
	"strings"

	"github.com/skmedix/Plan-PlayerAnalytics/internal/dbtype"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/tables"
)

// oldRef marks a reference to the renamed table in copy expressions.
const oldRef = "{old}."

// rebuild describes a table rebuilt into a new layout: the old table is
// renamed aside, the current layout is created, rows are copied over and
// the old table is dropped. A leftover renamed table marks an interrupted
// run and the copy is redone from it.
type rebuild struct {
	name   string
	table  string
	create func(t dbtype.Type) string
	// columns of the current layout present after the rebuild
	required []string
	// columns of the old layout gone after the rebuild
	legacy []string
	// into lists the copied columns, from the matching source expressions
	into []string
	from []string
	// where filters source rows that cannot be converted
	where []string
	// prepare runs on the renamed table before copying
	prepare func(ctx context.Context, c *Conn, temp string) error
}

func (r rebuild) patch() Patch {
	return patch{name: r.name, applied: r.applied, apply: r.apply}
}

func (r rebuild) applied(ctx context.Context, c *Conn) (bool, error) {
	for _, column := range r.required {
		ok, err := c.HasColumn(ctx, r.table, column)
		if err != nil || !ok {
			return false, err
		}
	}
	for _, column := range r.legacy {
		found, err := c.HasColumn(ctx, r.table, column)
		if err != nil || found {
			return false, err
		}
	}

	interrupted, err := c.HasTable(ctx, TempTableName(r.table))
	return !interrupted, err
}

func (r rebuild) apply(ctx context.Context, c *Conn) error {
	temp := TempTableName(r.table)

	resume, err := c.HasTable(ctx, temp)
	if err != nil {
		return err
	}
	if !resume {
		legacy, err := r.hasLegacyColumn(ctx, c)
		if err != nil || !legacy {
			return err
		}
		if err := c.DropForeignKeys(ctx, r.table); err != nil {
			return err
		}
		if err := c.EnsureNoForeignKeys(ctx, r.table); err != nil {
			return err
		}
		if err := c.RenameTable(ctx, r.table, temp); err != nil {
			return err
		}
	}

	if err := c.exec(ctx, r.create(c.Type())); err != nil {
		return err
	}
	if resume {
		// rows of the interrupted copy
		if err := c.exec(ctx, "DELETE FROM "+r.table); err != nil {
			return err
		}
	}
	if r.prepare != nil {
		if err := r.prepare(ctx, c, temp); err != nil {
			return err
		}
	}

	if err := c.exec(ctx, r.copySQL(temp)); err != nil {
		return err
	}

	return c.DropTable(ctx, temp)
}

func (r rebuild) hasLegacyColumn(ctx context.Context, c *Conn) (bool, error) {
	for _, column := range r.legacy {
		found, err := c.HasColumn(ctx, r.table, column)
		if err != nil || found {
			return found, err
		}
	}

	return false, nil
}

func (r rebuild) copySQL(temp string) string {
	sql := "INSERT INTO " + r.table + " (" + strings.Join(r.into, ", ") + ") SELECT " +
		strings.Join(r.from, ", ") + " FROM " + temp
	if len(r.where) > 0 {
		sql += " WHERE " + strings.Join(r.where, " AND ")
	}

	return strings.ReplaceAll(sql, oldRef, temp+".")
}

// col refers to a column of the renamed table.
func col(name string) string { return oldRef + name }

// Old tables referenced players and servers by integer id. The rebuilds
// resolve those ids to uuids while copying and skip rows that do not resolve.

func userOf(column string) string {
	return "(SELECT plan_users.uuid FROM plan_users WHERE plan_users.id=" + col(column) + " LIMIT 1)"
}

func serverOf(column string) string {
	return "(SELECT plan_servers.uuid FROM plan_servers WHERE plan_servers.id=" + col(column) + " LIMIT 1)"
}

func userKnown(column string) string   { return col(column) + " IN (SELECT id FROM plan_users)" }
func serverKnown(column string) string { return col(column) + " IN (SELECT id FROM plan_servers)" }

// WorldsOptimization keys worlds by server uuid.
func WorldsOptimization() Patch {
	return rebuild{
		name:     "WorldsOptimization",
		table:    tables.WorldTable,
		create:   tables.CreateWorldTable,
		required: []string{"id", "server_uuid"},
		legacy:   []string{"server_id"},
		into:     []string{"id", "world_name", "server_uuid"},
		from:     []string{col("id"), col("world_name"), serverOf("server_id")},
		where:    []string{serverKnown("server_id")},
	}.patch()
}

// WorldTimesOptimization keys world times by player and server uuid.
func WorldTimesOptimization() Patch {
	return rebuild{
		name:     "WorldTimesOptimization",
		table:    tables.WorldTimesTable,
		create:   tables.CreateWorldTimesTable,
		required: []string{"id", "uuid", "server_uuid"},
		legacy:   []string{"user_id", "server_id"},
		into: []string{"uuid", "world_id", "server_uuid", "session_id",
			"survival_time", "creative_time", "adventure_time", "spectator_time"},
		from: []string{userOf("user_id"), col("world_id"), serverOf("server_id"), col("session_id"),
			col("survival_time"), col("creative_time"), col("adventure_time"), col("spectator_time")},
		where: []string{userKnown("user_id"), serverKnown("server_id")},
	}.patch()
}

// KillsOptimization keys kills by killer, victim and server uuid.
func KillsOptimization() Patch {
	return rebuild{
		name:     "KillsOptimization",
		table:    tables.KillsTable,
		create:   tables.CreateKillsTable,
		required: []string{"id", "killer_uuid", "victim_uuid", "server_uuid"},
		legacy:   []string{"killer_id", "victim_id", "server_id"},
		into:     []string{"killer_uuid", "victim_uuid", "server_uuid", "weapon", "date", "session_id"},
		from: []string{userOf("killer_id"), userOf("victim_id"), serverOf("server_id"),
			col("weapon"), col("date"), col("session_id")},
		where: []string{userKnown("killer_id"), userKnown("victim_id"), serverKnown("server_id")},
	}.patch()
}

// SessionsOptimization keys sessions by player and server uuid. Session
// ids are kept since kills and world times refer to them.
func SessionsOptimization() Patch {
	return rebuild{
		name:     "SessionsOptimization",
		table:    tables.SessionsTable,
		create:   tables.CreateSessionsTable,
		required: []string{"id", "uuid", "server_uuid"},
		legacy:   []string{"user_id", "server_id"},
		into: []string{"id", "uuid", "server_uuid", "session_start", "session_end",
			"mob_kills", "deaths", "afk_time"},
		from: []string{col("id"), userOf("user_id"), serverOf("server_id"), col("session_start"), col("session_end"),
			col("mob_kills"), col("deaths"), col("afk_time")},
		where: []string{userKnown("user_id"), serverKnown("server_id")},
	}.patch()
}

// PingOptimization keys ping summaries by player and server uuid.
func PingOptimization() Patch {
	return rebuild{
		name:     "PingOptimization",
		table:    tables.PingTable,
		create:   tables.CreatePingTable,
		required: []string{"id", "uuid", "server_uuid"},
		legacy:   []string{"user_id", "server_id"},
		into:     []string{"uuid", "server_uuid", "date", "max_ping", "min_ping", "avg_ping"},
		from: []string{userOf("user_id"), serverOf("server_id"), col("date"),
			col("max_ping"), col("min_ping"), col("avg_ping")},
		where: []string{userKnown("user_id"), serverKnown("server_id")},
	}.patch()
}

// NicknamesOptimization keys nicknames by player and server uuid.
func NicknamesOptimization() Patch {
	return rebuild{
		name:     "NicknamesOptimization",
		table:    tables.NicknamesTable,
		create:   tables.CreateNicknamesTable,
		required: []string{"id", "uuid", "server_uuid"},
		legacy:   []string{"user_id", "server_id"},
		into:     []string{"uuid", "nickname", "server_uuid", "last_used"},
		from:     []string{userOf("user_id"), col("nickname"), serverOf("server_id"), col("last_used")},
		where:    []string{userKnown("user_id"), serverKnown("server_id")},
	}.patch()
}

// UserInfoOptimization keys per-server player records by uuid.
func UserInfoOptimization() Patch {
	return rebuild{
		name:     "UserInfoOptimization",
		table:    tables.UserInfoTable,
		create:   tables.CreateUserInfoTable,
		required: []string{"id", "uuid", "server_uuid"},
		legacy:   []string{"user_id", "server_id"},
		into:     []string{"uuid", "registered", "opped", "banned", "server_uuid"},
		from: []string{userOf("user_id"), col("registered"), col("opped"), col("banned"),
			serverOf("server_id")},
		where: []string{userKnown("user_id"), serverKnown("server_id")},
	}.patch()
}

// GeoInfoOptimization keys addresses by player uuid. Hashes are carried
// over when the old table already had them.
func GeoInfoOptimization() Patch {
	return rebuild{
		name:     "GeoInfoOptimization",
		table:    tables.GeoInfoTable,
		create:   tables.CreateGeoInfoTable,
		required: []string{"id", "uuid", "ip_hash"},
		legacy:   []string{"user_id"},
		into:     []string{"uuid", "ip", "ip_hash", "geolocation", "last_used"},
		from:     []string{userOf("user_id"), col("ip"), col("ip_hash"), col("geolocation"), col("last_used")},
		where:    []string{userKnown("user_id")},
		prepare: func(ctx context.Context, c *Conn, temp string) error {
			return c.AddColumn(ctx, temp, "ip_hash varchar(200)")
		},
	}.patch()
}
