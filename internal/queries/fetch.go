package queries

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/access"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/models"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/tables"
)

// FetchServers returns every server in registration order.
func FetchServers() access.Query[[]models.Server] {
	return access.QueryAll(tables.SelectServersSQL+" ORDER BY id", 0, func(rows *access.Rows) ([]models.Server, error) {
		return access.ScanAll(rows, tables.ScanServer)
	})
}

// FetchUsers returns the base user of every player.
func FetchUsers() access.Query[[]models.BaseUser] {
	return access.QueryAll(tables.SelectUsersSQL+" ORDER BY uuid", 0, func(rows *access.Rows) ([]models.BaseUser, error) {
		return access.ScanAll(rows, tables.ScanUser)
	})
}

// FetchUserInfos returns per-server registrations keyed by server.
func FetchUserInfos() access.Query[map[uuid.UUID][]models.UserInfo] {
	return access.QueryAll(tables.SelectUserInfoSQL+" ORDER BY uuid", 0, mapUserInfos)
}

// FetchUserInfosOfPlayer returns the registrations of one player keyed by server.
func FetchUserInfosOfPlayer(player uuid.UUID) access.Query[map[uuid.UUID][]models.UserInfo] {
	return access.QueryStatement[map[uuid.UUID][]models.UserInfo]{
		SQL:  tables.SelectUserInfoSQL + " WHERE uuid=?",
		Bind: func(p *access.Params) { p.Add(player) },
		Map:  mapUserInfos,
	}
}

// FetchUserInfosOfServer returns the registrations on one server keyed by server.
func FetchUserInfosOfServer(server uuid.UUID) access.Query[map[uuid.UUID][]models.UserInfo] {
	return access.QueryStatement[map[uuid.UUID][]models.UserInfo]{
		SQL:  tables.SelectUserInfoSQL + " WHERE server_uuid=?",
		Bind: func(p *access.Params) { p.Add(server) },
		Map:  mapUserInfos,
	}
}

func mapUserInfos(rows *access.Rows) (map[uuid.UUID][]models.UserInfo, error) {
	out := make(map[uuid.UUID][]models.UserInfo)
	for rows.Next() {
		info, err := tables.ScanUserInfo(rows)
		if err != nil {
			return nil, err
		}
		out[info.ServerUUID] = append(out[info.ServerUUID], info)
	}

	return out, nil
}

// FetchGeoInfos returns geolocation rows keyed by player.
func FetchGeoInfos() access.Query[map[uuid.UUID][]models.GeoInfo] {
	return access.QueryAll(tables.SelectGeoInfoSQL+" ORDER BY last_used", 0, mapGeoInfos)
}

// FetchGeoInfosOfPlayer returns the geolocation rows of one player, oldest first.
func FetchGeoInfosOfPlayer(player uuid.UUID) access.Query[[]models.GeoInfo] {
	return access.QueryStatement[[]models.GeoInfo]{
		SQL:  tables.SelectGeoInfoSQL + " WHERE uuid=? ORDER BY last_used",
		Bind: func(p *access.Params) { p.Add(player) },
		Map: func(rows *access.Rows) ([]models.GeoInfo, error) {
			byPlayer, err := mapGeoInfos(rows)
			return byPlayer[player], err
		},
	}
}

func mapGeoInfos(rows *access.Rows) (map[uuid.UUID][]models.GeoInfo, error) {
	out := make(map[uuid.UUID][]models.GeoInfo)
	for rows.Next() {
		player, g, err := tables.ScanGeoInfo(rows)
		if err != nil {
			return nil, err
		}
		out[player] = append(out[player], g)
	}

	return out, nil
}

// FetchNicknames returns nicknames keyed by player.
func FetchNicknames() access.Query[map[uuid.UUID][]models.Nickname] {
	return access.QueryAll(tables.SelectNicknamesSQL+" ORDER BY last_used", 0, mapNicknames)
}

// FetchNicknamesOfPlayer returns the nicknames of one player, oldest first.
func FetchNicknamesOfPlayer(player uuid.UUID) access.Query[[]models.Nickname] {
	return access.QueryStatement[[]models.Nickname]{
		SQL:  tables.SelectNicknamesSQL + " WHERE uuid=? ORDER BY last_used",
		Bind: func(p *access.Params) { p.Add(player) },
		Map: func(rows *access.Rows) ([]models.Nickname, error) {
			byPlayer, err := mapNicknames(rows)
			return byPlayer[player], err
		},
	}
}

func mapNicknames(rows *access.Rows) (map[uuid.UUID][]models.Nickname, error) {
	out := make(map[uuid.UUID][]models.Nickname)
	for rows.Next() {
		player, n, err := tables.ScanNickname(rows)
		if err != nil {
			return nil, err
		}
		out[player] = append(out[player], n)
	}

	return out, nil
}

// FetchAllSessions returns every stored session with its kills and world times.
func FetchAllSessions() access.Query[[]*models.Session] {
	return fetchSessions("", nil)
}

// FetchSessionsOfPlayer returns the stored sessions of one player.
func FetchSessionsOfPlayer(player uuid.UUID) access.Query[[]*models.Session] {
	return fetchSessions("uuid=?", player)
}

// FetchSessionsOfServer returns the stored sessions played on one server.
func FetchSessionsOfServer(server uuid.UUID) access.Query[[]*models.Session] {
	return fetchSessions("server_uuid=?", server)
}

// fetchSessions reads sessions matching an optional condition on
// plan_sessions, then attaches world times and kills in two more queries.
func fetchSessions(where string, arg any) access.Query[[]*models.Session] {
	bind := func(p *access.Params) {
		if arg != nil {
			p.Add(arg)
		}
	}
	sessionsSQL := tables.SelectSessionsSQL
	detailFilter := ""
	if where != "" {
		sessionsSQL += " WHERE " + where
		detailFilter = " WHERE session_id IN (SELECT id FROM plan_sessions WHERE " + where + ")"
	}

	return access.QueryFunc[[]*models.Session](func(ctx context.Context, conn access.Conn) ([]*models.Session, error) {
		sessions, err := access.QueryStatement[[]*models.Session]{
			SQL:  sessionsSQL + " ORDER BY session_start",
			Bind: bind,
			Map: func(rows *access.Rows) ([]*models.Session, error) {
				return access.ScanAll(rows, tables.ScanSession)
			},
		}.ExecuteQuery(ctx, conn)
		if err != nil || len(sessions) == 0 {
			return sessions, err
		}

		byID := make(map[int]*models.Session, len(sessions))
		for _, s := range sessions {
			s.WorldTimes = models.NewWorldTimes()
			byID[s.ID] = s
		}

		_, err = access.QueryStatement[struct{}]{
			SQL:  tables.SelectWorldTimesSQL + detailFilter,
			Bind: bind,
			Map: func(rows *access.Rows) (struct{}, error) {
				for rows.Next() {
					id, world, gm, err := tables.ScanWorldTimes(rows)
					if err != nil {
						return struct{}{}, err
					}
					if s, ok := byID[id]; ok {
						for mode, ms := range gm {
							s.WorldTimes.Put(world, mode, ms)
						}
					}
				}
				return struct{}{}, nil
			},
		}.ExecuteQuery(ctx, conn)
		if err != nil {
			return nil, err
		}

		_, err = access.QueryStatement[struct{}]{
			SQL:  tables.SelectKillsSQL + detailFilter + " ORDER BY date",
			Bind: bind,
			Map: func(rows *access.Rows) (struct{}, error) {
				for rows.Next() {
					var (
						id   int
						k    models.PlayerKill
						name sql.NullString
					)
					if err := rows.Scan(&id, &k.Killer, &k.Victim, &name, &k.Weapon, &k.Date); err != nil {
						return struct{}{}, err
					}
					k.VictimName = name.String
					if s, ok := byID[id]; ok {
						s.AddPlayerKill(k)
					}
				}
				return struct{}{}, nil
			},
		}.ExecuteQuery(ctx, conn)
		if err != nil {
			return nil, err
		}

		return sessions, nil
	})
}

// FetchWorlds returns world names keyed by server.
func FetchWorlds() access.Query[map[uuid.UUID][]string] {
	return access.QueryAll(tables.SelectWorldsSQL+" ORDER BY world_name", 0, func(rows *access.Rows) (map[uuid.UUID][]string, error) {
		out := make(map[uuid.UUID][]string)
		for rows.Next() {
			var (
				name   string
				server uuid.UUID
			)
			if err := rows.Scan(&name, &server); err != nil {
				return nil, err
			}
			out[server] = append(out[server], name)
		}
		return out, nil
	})
}

// FetchTPS returns every performance sample keyed by server.
func FetchTPS() access.Query[map[uuid.UUID][]models.TPS] {
	return access.QueryAll(tables.SelectTPSWithServerSQL+" ORDER BY date", 0, func(rows *access.Rows) (map[uuid.UUID][]models.TPS, error) {
		out := make(map[uuid.UUID][]models.TPS)
		for rows.Next() {
			server, t, err := tables.ScanServerTPS(rows)
			if err != nil {
				return nil, err
			}
			out[server] = append(out[server], t)
		}
		return out, nil
	})
}

// FetchTPSOfServer returns the samples of one server, oldest first.
func FetchTPSOfServer(server uuid.UUID) access.Query[[]models.TPS] {
	return access.QueryStatement[[]models.TPS]{
		SQL:  tables.SelectTPSSQL + " WHERE server_id=" + tables.SelectServerIDSQL + " ORDER BY date",
		Bind: func(p *access.Params) { p.Add(server) },
		Map: func(rows *access.Rows) ([]models.TPS, error) {
			return access.ScanAll(rows, tables.ScanTPS)
		},
	}
}

// FetchPings returns every ping summary.
func FetchPings() access.Query[[]models.Ping] {
	return access.QueryAll(tables.SelectPingSQL+" ORDER BY date, uuid", 0, scanPings)
}

// FetchPingsOfPlayer returns the ping summaries of one player.
func FetchPingsOfPlayer(player uuid.UUID) access.Query[[]models.Ping] {
	return access.QueryStatement[[]models.Ping]{
		SQL:  tables.SelectPingSQL + " WHERE uuid=? ORDER BY date",
		Bind: func(p *access.Params) { p.Add(player) },
		Map:  scanPings,
	}
}

// FetchPingsOfServer returns the ping summaries measured on one server.
func FetchPingsOfServer(server uuid.UUID) access.Query[[]models.Ping] {
	return access.QueryStatement[[]models.Ping]{
		SQL:  tables.SelectPingSQL + " WHERE server_uuid=? ORDER BY date",
		Bind: func(p *access.Params) { p.Add(server) },
		Map:  scanPings,
	}
}

func scanPings(rows *access.Rows) ([]models.Ping, error) {
	return access.ScanAll(rows, tables.ScanPing)
}

// FetchCommandUsage returns command counters keyed by server.
func FetchCommandUsage() access.Query[map[uuid.UUID]map[string]int] {
	const query = "SELECT plan_servers.uuid, command, times_used FROM plan_commandusages " +
		"INNER JOIN plan_servers ON plan_servers.id=plan_commandusages.server_id"

	return access.QueryAll(query, 0, func(rows *access.Rows) (map[uuid.UUID]map[string]int, error) {
		out := make(map[uuid.UUID]map[string]int)
		for rows.Next() {
			var (
				server  uuid.UUID
				command string
				times   int
			)
			if err := rows.Scan(&server, &command, &times); err != nil {
				return nil, err
			}
			if out[server] == nil {
				out[server] = make(map[string]int)
			}
			out[server][command] = times
		}
		return out, nil
	})
}

// FetchCommandUsageOfServer returns the command counters of one server.
func FetchCommandUsageOfServer(server uuid.UUID) access.Query[map[string]int] {
	return access.QueryStatement[map[string]int]{
		SQL:  tables.SelectCommandUseSQL,
		Bind: func(p *access.Params) { p.Add(server) },
		Map: func(rows *access.Rows) (map[string]int, error) {
			out := make(map[string]int)
			for rows.Next() {
				var (
					command string
					times   int
				)
				if err := rows.Scan(&command, &times); err != nil {
					return nil, err
				}
				out[command] = times
			}
			return out, nil
		},
	}
}

// FetchWebUsers returns every web interface account.
func FetchWebUsers() access.Query[[]models.WebUser] {
	return access.QueryAll(tables.SelectWebUsersSQL+" ORDER BY username", 0, func(rows *access.Rows) ([]models.WebUser, error) {
		return access.ScanAll(rows, tables.ScanWebUser)
	})
}

// FetchSettings returns every stored server configuration.
func FetchSettings() access.Query[[]models.ServerConfig] {
	return access.QueryAll(tables.SelectSettingsSQL+" ORDER BY server_uuid", 0, func(rows *access.Rows) ([]models.ServerConfig, error) {
		return access.ScanAll(rows, tables.ScanSettings)
	})
}
