package queries

import (
	"context"

	"github.com/google/uuid"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/access"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/models"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/tables"
)

// Bulk inserts used when copying whole databases. They assume empty
// destination tables and perform no conflict handling.

// StoreAllServers inserts every server.
func StoreAllServers(servers []models.Server) access.Executable {
	return access.ExecBatchStatement{
		SQL: tables.InsertServerSQL,
		Bind: func(b *access.Batch) {
			for _, s := range servers {
				tables.BindServer(b, s)
			}
		},
	}
}

// StoreAllUsers inserts every base user including kick counts.
func StoreAllUsers(users []models.BaseUser) access.Executable {
	return access.ExecBatchStatement{
		SQL: tables.InsertUserWithKicksSQL,
		Bind: func(b *access.Batch) {
			for _, u := range users {
				tables.BindUser(b, u)
			}
		},
	}
}

// StoreAllUserInfos inserts per-server registrations, keyed by server.
func StoreAllUserInfos(infos map[uuid.UUID][]models.UserInfo) access.Executable {
	return access.ExecBatchStatement{
		SQL: tables.InsertUserInfoSQL,
		Bind: func(b *access.Batch) {
			for _, list := range infos {
				for _, info := range list {
					tables.BindUserInfo(b, info)
				}
			}
		},
	}
}

// StoreAllGeoInfos inserts geolocation rows, keyed by player.
func StoreAllGeoInfos(geo map[uuid.UUID][]models.GeoInfo) access.Executable {
	return access.ExecBatchStatement{
		SQL: tables.InsertGeoInfoSQL,
		Bind: func(b *access.Batch) {
			for player, list := range geo {
				for _, g := range list {
					tables.BindGeoInfo(b, player, g)
				}
			}
		},
	}
}

// StoreAllNicknames inserts nicknames, keyed by player.
func StoreAllNicknames(nicknames map[uuid.UUID][]models.Nickname) access.Executable {
	return access.ExecBatchStatement{
		SQL: tables.InsertNicknameSQL,
		Bind: func(b *access.Batch) {
			for player, list := range nicknames {
				for _, n := range list {
					tables.BindNickname(b, player, n)
				}
			}
		},
	}
}

// StoreAllWorlds inserts world names, keyed by server.
func StoreAllWorlds(worlds map[uuid.UUID][]string) access.Executable {
	return access.ExecBatchStatement{
		SQL: tables.InsertWorldSQL,
		Bind: func(b *access.Batch) {
			for server, names := range worlds {
				for _, name := range names {
					b.Add(name, server)
				}
			}
		},
	}
}

// StoreAllSessions inserts ended sessions followed by their world times and
// kills. Worlds must be stored beforehand.
func StoreAllSessions(sessions []*models.Session) access.Executable {
	return access.ExecutableFunc(func(ctx context.Context, conn access.Conn) (bool, error) {
		for _, s := range sessions {
			if !s.Ended() {
				return false, ErrSessionNotEnded
			}
		}

		rows := access.ExecBatchStatement{
			SQL: tables.InsertSessionSQL,
			Bind: func(b *access.Batch) {
				for _, s := range sessions {
					tables.BindSession(b, s)
				}
			},
		}
		execs := append([]access.Executable{rows}, storeSessionDetails(sessions)...)

		return access.Sequence(execs...).Execute(ctx, conn)
	})
}

// StoreAllTPS inserts performance samples, keyed by server.
func StoreAllTPS(tps map[uuid.UUID][]models.TPS) access.Executable {
	return access.ExecBatchStatement{
		SQL: tables.InsertTPSSQL,
		Bind: func(b *access.Batch) {
			for server, list := range tps {
				for _, t := range list {
					tables.BindTPS(b, server, t)
				}
			}
		},
	}
}

// StoreAllPings inserts ping summaries.
func StoreAllPings(pings []models.Ping) access.Executable {
	return access.ExecBatchStatement{
		SQL: tables.InsertPingSQL,
		Bind: func(b *access.Batch) {
			for _, p := range pings {
				tables.BindPing(b, p)
			}
		},
	}
}

// StoreAllCommandUsage inserts command counters, keyed by server.
func StoreAllCommandUsage(usage map[uuid.UUID]map[string]int) access.Executable {
	return access.ExecBatchStatement{
		SQL: tables.InsertCommandUseSQL,
		Bind: func(b *access.Batch) {
			for server, commands := range usage {
				for command, times := range commands {
					b.Add(command, times, server)
				}
			}
		},
	}
}

// StoreAllWebUsers inserts web interface accounts.
func StoreAllWebUsers(users []models.WebUser) access.Executable {
	return access.ExecBatchStatement{
		SQL: tables.InsertWebUserSQL,
		Bind: func(b *access.Batch) {
			for _, u := range users {
				tables.BindWebUser(b, u)
			}
		},
	}
}

// StoreAllSettings inserts stored server configurations.
func StoreAllSettings(configs []models.ServerConfig) access.Executable {
	return access.ExecBatchStatement{
		SQL: tables.InsertSettingsSQL,
		Bind: func(b *access.Batch) {
			for _, c := range configs {
				tables.BindSettings(b, c)
			}
		},
	}
}
