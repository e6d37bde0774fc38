package patches

import (
	"context"
	"strings"

	"github.com/skmedix/Plan-PlayerAnalytics/internal/access"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/models"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/tables"
)

// All returns every patch in the order it must run. Column additions come
// first, then the table rebuilds, then data corrections on the final layout.
func All() []Patch {
	return []Patch{
		GeoInfoLastUsed(),
		SessionAFKTime(),
		KillsServerID(),
		WorldTimesServerID(),
		WorldsServerID(),
		NicknameLastSeen(),
		VersionTableRemoval(),
		DiskUsage(),
		WorldsOptimization(),
		WorldTimesOptimization(),
		KillsOptimization(),
		SessionsOptimization(),
		PingOptimization(),
		NicknamesOptimization(),
		UserInfoOptimization(),
		GeoInfoOptimization(),
		TransferTableRemoval(),
		IPHash(),
		BadAFKThresholdValue(),
		UniqueKeys(),
	}
}

// addColumn is a patch that only adds a column.
func addColumn(name, table, definition string) Patch {
	column := columnName(definition)

	return patch{
		name: name,
		applied: func(ctx context.Context, c *Conn) (bool, error) {
			return c.HasColumn(ctx, table, column)
		},
		apply: func(ctx context.Context, c *Conn) error {
			return c.AddColumn(ctx, table, definition)
		},
	}
}

// dropTable is a patch removing a table that is no longer used.
func dropTable(name, table string) Patch {
	return patch{
		name: name,
		applied: func(ctx context.Context, c *Conn) (bool, error) {
			exists, err := c.HasTable(ctx, table)
			return !exists, err
		},
		apply: func(ctx context.Context, c *Conn) error {
			return c.DropTable(ctx, table)
		},
	}
}

// GeoInfoLastUsed adds the last sighting date of an address.
func GeoInfoLastUsed() Patch {
	return addColumn("GeoInfoLastUsed", tables.GeoInfoTable, "last_used bigint NOT NULL DEFAULT 0")
}

// SessionAFKTime adds the AFK time of a session.
func SessionAFKTime() Patch {
	return addColumn("SessionAFKTime", tables.SessionsTable, "afk_time bigint NOT NULL DEFAULT 0")
}

// DiskUsage adds the free disk space of a TPS sample.
func DiskUsage() Patch {
	return addColumn("DiskUsage", tables.TPSTable, "free_disk_space bigint NOT NULL DEFAULT -1")
}

// VersionTableRemoval drops the old schema version table.
func VersionTableRemoval() Patch {
	return dropTable("VersionTableRemoval", "plan_version")
}

// TransferTableRemoval drops the old cross-server transfer table.
func TransferTableRemoval() Patch {
	return dropTable("TransferTableRemoval", "plan_transfer")
}

// sessionServerID gives a table with a session_id column the server id of
// the session. Rows of unknown sessions are removed. The patch is
// superseded once the table is keyed by server uuid.
func sessionServerID(name, table string) Patch {
	return patch{
		name: name,
		applied: func(ctx context.Context, c *Conn) (bool, error) {
			return hasServerIDs(ctx, c, table)
		},
		apply: func(ctx context.Context, c *Conn) error {
			superseded, err := c.HasColumn(ctx, table, "server_uuid")
			if err != nil || superseded {
				return err
			}
			if err := c.AddColumn(ctx, table, "server_id integer NOT NULL DEFAULT 0"); err != nil {
				return err
			}

			return c.exec(ctx,
				"UPDATE "+table+" SET server_id=COALESCE((SELECT plan_sessions.server_id FROM plan_sessions"+
					" WHERE plan_sessions.id="+table+".session_id LIMIT 1), 0) WHERE server_id=0",
				"DELETE FROM "+table+" WHERE server_id=0",
			)
		},
	}
}

func hasServerIDs(ctx context.Context, c *Conn, table string) (bool, error) {
	superseded, err := c.HasColumn(ctx, table, "server_uuid")
	if err != nil || superseded {
		return superseded, err
	}
	present, err := c.HasColumn(ctx, table, "server_id")
	if err != nil || !present {
		return false, err
	}

	missing, err := c.Count(ctx, "SELECT COUNT(1) FROM "+table+" WHERE server_id=0")
	return missing == 0, err
}

// KillsServerID records the server of every kill.
func KillsServerID() Patch {
	return sessionServerID("KillsServerID", tables.KillsTable)
}

// WorldTimesServerID records the server of every world time row.
func WorldTimesServerID() Patch {
	return sessionServerID("WorldTimesServerID", tables.WorldTimesTable)
}

// WorldsServerID splits worlds shared by every server into one world per
// server and points world times at the copy of their own server.
func WorldsServerID() Patch {
	return patch{
		name: "WorldsServerID",
		applied: func(ctx context.Context, c *Conn) (bool, error) {
			return hasServerIDs(ctx, c, tables.WorldTable)
		},
		apply: func(ctx context.Context, c *Conn) error {
			superseded, err := c.HasColumn(ctx, tables.WorldTable, "server_uuid")
			if err != nil || superseded {
				return err
			}
			if err := c.AddColumn(ctx, tables.WorldTable, "server_id integer NOT NULL DEFAULT 0"); err != nil {
				return err
			}

			perServer := "SELECT w2.id FROM plan_worlds w2 WHERE w2.server_id=plan_world_times.server_id" +
				" AND w2.world_name=(SELECT w.world_name FROM plan_worlds w WHERE w.id=plan_world_times.world_id)"

			return c.exec(ctx,
				"INSERT INTO plan_worlds (world_name, server_id)"+
					" SELECT DISTINCT w.world_name, wt.server_id FROM plan_world_times wt"+
					" INNER JOIN plan_worlds w ON w.id=wt.world_id"+
					" WHERE w.server_id=0 AND wt.server_id!=0 AND NOT EXISTS"+
					" (SELECT 1 FROM plan_worlds w2 WHERE w2.world_name=w.world_name AND w2.server_id=wt.server_id)",
				"UPDATE plan_world_times SET world_id=("+perServer+" LIMIT 1)"+
					" WHERE world_id IN (SELECT id FROM plan_worlds WHERE server_id=0) AND EXISTS ("+perServer+")",
				"DELETE FROM plan_worlds WHERE server_id=0",
			)
		},
	}
}

// NicknameLastSeen adds the last use date of a nickname, filled from the
// old action log when it is still around.
func NicknameLastSeen() Patch {
	return patch{
		name: "NicknameLastSeen",
		applied: func(ctx context.Context, c *Conn) (bool, error) {
			return c.HasColumn(ctx, tables.NicknamesTable, "last_used")
		},
		apply: func(ctx context.Context, c *Conn) error {
			if err := c.AddColumn(ctx, tables.NicknamesTable, "last_used bigint NOT NULL DEFAULT 0"); err != nil {
				return err
			}

			superseded, err := c.HasColumn(ctx, tables.NicknamesTable, "uuid")
			if err != nil || superseded {
				return err
			}
			actions, err := c.HasTable(ctx, "plan_actions")
			if err != nil || !actions {
				return err
			}

			// action 3 is a nickname change with the name in additional_info
			lastChange := "SELECT MAX(a.date) FROM plan_actions a WHERE a.action_id=3" +
				" AND a.user_id=plan_nicknames.user_id AND a.server_id=plan_nicknames.server_id" +
				" AND a.additional_info=plan_nicknames.nickname"

			return c.exec(ctx,
				"UPDATE plan_nicknames SET last_used=("+lastChange+") WHERE EXISTS ("+lastChange+")",
				c.Type().DropTableIfExists("plan_actions"),
			)
		},
	}
}

// IPHash fills the hash of addresses stored before hashes were recorded.
func IPHash() Patch {
	return patch{
		name: "IPHash",
		applied: func(ctx context.Context, c *Conn) (bool, error) {
			missing, err := c.Count(ctx, "SELECT COUNT(1) FROM plan_ips WHERE ip_hash IS NULL")
			return missing == 0, err
		},
		apply: func(ctx context.Context, c *Conn) error {
			type address struct {
				id int
				ip string
			}
			found, err := access.QueryAll("SELECT id, ip FROM plan_ips WHERE ip_hash IS NULL", 0,
				func(rows *access.Rows) ([]address, error) {
					return access.ScanAll(rows, func(rows *access.Rows) (address, error) {
						var a address
						err := rows.Scan(&a.id, &a.ip)
						return a, err
					})
				}).ExecuteQuery(ctx, c)
			if err != nil || len(found) == 0 {
				return err
			}

			_, err = access.ExecBatchStatement{
				SQL: "UPDATE plan_ips SET ip_hash=? WHERE id=?",
				Bind: func(b *access.Batch) {
					for _, a := range found {
						b.Add(models.HashIP(a.ip), a.id)
					}
				},
			}.Execute(ctx, c)

			return err
		},
	}
}

const fullAFKCondition = "ABS(afk_time - (session_end - session_start)) < 5 AND afk_time != 0"

// BadAFKThresholdValue clears the AFK time of sessions recorded as AFK for
// their whole length.
func BadAFKThresholdValue() Patch {
	return patch{
		name: "BadAFKThresholdValue",
		applied: func(ctx context.Context, c *Conn) (bool, error) {
			found, err := c.Count(ctx, "SELECT COUNT(1) FROM plan_sessions WHERE "+fullAFKCondition)
			return found == 0, err
		},
		apply: func(ctx context.Context, c *Conn) error {
			return c.exec(ctx, "UPDATE plan_sessions SET afk_time=0 WHERE "+fullAFKCondition)
		},
	}
}

// UniqueKeys creates the indexes native upserts rely on. Existing
// duplicates are merged first: command counters are summed and otherwise
// the newest row is kept.
func UniqueKeys() Patch {
	return patch{
		name: "UniqueKeys",
		applied: func(ctx context.Context, c *Conn) (bool, error) {
			for _, idx := range tables.UniqueIndexes {
				exists, err := c.HasIndex(ctx, idx.Table, idx.Name)
				if err != nil || !exists {
					return false, err
				}
			}
			return true, nil
		},
		apply: func(ctx context.Context, c *Conn) error {
			for _, idx := range tables.UniqueIndexes {
				exists, err := c.HasIndex(ctx, idx.Table, idx.Name)
				if err != nil {
					return err
				}
				if exists {
					continue
				}

				if idx.Table == tables.CommandUseTable {
					if err := sumCommandUsage(ctx, c); err != nil {
						return err
					}
				}
				if err := c.exec(ctx, deduplicate(idx)); err != nil {
					return err
				}
				if idx.Table == tables.CommandUseTable {
					if err := c.DropTable(ctx, commandTotals); err != nil {
						return err
					}
				}
				if err := c.exec(ctx, c.Type().CreateUniqueIndex(idx.Name, idx.Table, idx.Columns...)); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

// deduplicate keeps the highest id of every key. The derived table lets
// MySQL read the table it deletes from.
func deduplicate(idx tables.UniqueIndex) string {
	key := strings.Join(idx.Columns, ", ")

	return "DELETE FROM " + idx.Table + " WHERE id NOT IN (SELECT id FROM (SELECT MAX(id) AS id FROM " +
		idx.Table + " GROUP BY " + key + ") kept)"
}

// commandTotals holds the merged counters while duplicates are removed.
// While it exists the totals it holds are authoritative, so an interrupted
// merge is redone from it instead of summing the counters again.
const commandTotals = "temp_commandusage_totals"

// sumCommandUsage moves the total of duplicated command counters onto the
// row deduplicate keeps.
func sumCommandUsage(ctx context.Context, c *Conn) error {
	exists, err := c.HasTable(ctx, commandTotals)
	if err != nil {
		return err
	}
	if !exists {
		if err := c.exec(ctx, "CREATE TABLE "+commandTotals+" AS"+
			" SELECT MAX(id) AS id, SUM(times_used) AS total FROM "+tables.CommandUseTable+
			" GROUP BY server_id, command HAVING COUNT(1) > 1"); err != nil {
			return err
		}
	}

	return c.exec(ctx, "UPDATE "+tables.CommandUseTable+
		" SET times_used=(SELECT total FROM "+commandTotals+" WHERE "+commandTotals+".id="+tables.CommandUseTable+".id)"+
		" WHERE id IN (SELECT id FROM "+commandTotals+")")
}
