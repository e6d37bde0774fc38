// Package queries builds the executables and queries used by transactions,
// containers and maintenance tasks on top of the table definitions.
package queries

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/access"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/models"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/tables"
)

var (
	// ErrSessionNotEnded is returned when an active session is about to be stored.
	ErrSessionNotEnded = errors.New("session has not ended")
	// ErrSessionLength is returned for sessions ending at or before their start.
	ErrSessionLength = errors.New("session ends before it starts")
)

// RegisterUser inserts the network-wide identity of a player.
func RegisterUser(player uuid.UUID, registered int64, name string) access.Executable {
	return access.ExecStatement{
		SQL: tables.InsertUserSQL,
		Bind: func(p *access.Params) {
			p.Add(player, registered, name)
		},
	}
}

// UpdatePlayerName changes the stored name of a player.
func UpdatePlayerName(player uuid.UUID, name string) access.Executable {
	return access.ExecStatement{
		SQL: tables.UpdateUserNameSQL,
		Bind: func(p *access.Params) {
			p.Add(name, player)
		},
	}
}

// KickPlayer increments the kick counter of a player.
func KickPlayer(player uuid.UUID) access.Executable {
	return access.ExecStatement{
		SQL: tables.KickUserSQL,
		Bind: func(p *access.Params) {
			p.Add(player)
		},
	}
}

// RegisterUserInfo inserts the registration of a player on a server.
func RegisterUserInfo(player, server uuid.UUID, registered int64) access.Executable {
	return access.ExecStatement{
		SQL: tables.InsertUserInfoSQL,
		Bind: func(p *access.Params) {
			tables.BindUserInfo(p, models.UserInfo{PlayerUUID: player, ServerUUID: server, Registered: registered})
		},
	}
}

// UpdateBanStatus sets the banned flag of a player on a server.
func UpdateBanStatus(player, server uuid.UUID, banned bool) access.Executable {
	return access.ExecStatement{
		SQL: tables.UpdateBannedSQL,
		Bind: func(p *access.Params) {
			p.Add(banned, player, server)
		},
	}
}

// UpdateOperatorStatus sets the operator flag of a player on a server.
func UpdateOperatorStatus(player, server uuid.UUID, op bool) access.Executable {
	return access.ExecStatement{
		SQL: tables.UpdateOppedSQL,
		Bind: func(p *access.Params) {
			p.Add(op, player, server)
		},
	}
}

// StoreSession writes an ended session with its world times and kills.
// The worlds the session visited are registered first.
func StoreSession(s *models.Session) access.Executable {
	return access.ExecutableFunc(func(ctx context.Context, conn access.Conn) (bool, error) {
		if !s.Ended() {
			return false, ErrSessionNotEnded
		}
		if s.End <= s.Start {
			return false, fmt.Errorf("%w: start %d, end %d", ErrSessionLength, s.Start, s.End)
		}

		execs := []access.Executable{
			access.ExecStatement{
				SQL: tables.InsertSessionSQL,
				Bind: func(p *access.Params) {
					tables.BindSession(p, s)
				},
			},
		}
		if s.WorldTimes != nil {
			for world := range s.WorldTimes.Times {
				execs = append(execs, StoreWorldName(s.ServerUUID, world))
			}
		}
		execs = append(execs, storeSessionDetails([]*models.Session{s})...)

		return access.Sequence(execs...).Execute(ctx, conn)
	})
}

// storeSessionDetails batches the world times and kills of stored sessions.
// Worlds and sessions must already be present.
func storeSessionDetails(sessions []*models.Session) []access.Executable {
	worldTimes := access.ExecBatchStatement{
		SQL: tables.InsertWorldTimesSQL,
		Bind: func(b *access.Batch) {
			for _, s := range sessions {
				if s.WorldTimes == nil {
					continue
				}
				for world, gm := range s.WorldTimes.Times {
					tables.BindWorldTimes(b, s, world, gm)
				}
			}
		},
	}
	kills := access.ExecBatchStatement{
		SQL: tables.InsertKillSQL,
		Bind: func(b *access.Batch) {
			for _, s := range sessions {
				for _, k := range s.PlayerKills {
					tables.BindKill(b, s, k)
				}
			}
		},
	}

	return []access.Executable{worldTimes, kills}
}

// StoreWorldName registers a world of a server unless it is already known.
func StoreWorldName(server uuid.UUID, world string) access.Executable {
	return access.ExecutableFunc(func(ctx context.Context, conn access.Conn) (bool, error) {
		exists, err := access.Exists(
			"SELECT id FROM plan_worlds WHERE world_name=? AND server_uuid=?",
			func(p *access.Params) { p.Add(world, server) },
		).ExecuteQuery(ctx, conn)
		if err != nil || exists {
			return false, err
		}

		return access.ExecStatement{
			SQL: tables.InsertWorldSQL,
			Bind: func(p *access.Params) {
				p.Add(world, server)
			},
		}.Execute(ctx, conn)
	})
}

// StoreGeoInfo inserts a geolocation sighting or refreshes the existing row
// of the same player and address hash.
func StoreGeoInfo(player uuid.UUID, g models.GeoInfo) access.Executable {
	return access.ExecutableFunc(func(ctx context.Context, conn access.Conn) (bool, error) {
		return access.ExecStatement{
			SQL: tables.UpsertGeoInfoSQL(conn.Type()),
			Bind: func(p *access.Params) {
				tables.BindGeoInfo(p, player, g)
			},
		}.Execute(ctx, conn)
	})
}

// StoreNickname inserts a nickname or refreshes its last use.
func StoreNickname(player uuid.UUID, n models.Nickname) access.Executable {
	return access.ExecutableFunc(func(ctx context.Context, conn access.Conn) (bool, error) {
		return access.ExecStatement{
			SQL: tables.UpsertNicknameSQL(conn.Type()),
			Bind: func(p *access.Params) {
				tables.BindNickname(p, player, n)
			},
		}.Execute(ctx, conn)
	})
}

// StoreCommandUse counts one use of a command on a server.
func StoreCommandUse(server uuid.UUID, command string) access.Executable {
	return access.ExecutableFunc(func(ctx context.Context, conn access.Conn) (bool, error) {
		return access.ExecStatement{
			SQL: tables.UpsertCommandUseSQL(conn.Type()),
			Bind: func(p *access.Params) {
				p.Add(tables.TruncateCommand(command), 1, server)
			},
		}.Execute(ctx, conn)
	})
}

// InsertTPS appends a performance sample of a server.
func InsertTPS(server uuid.UUID, t models.TPS) access.Executable {
	return access.ExecStatement{
		SQL: tables.InsertTPSSQL,
		Bind: func(p *access.Params) {
			tables.BindTPS(p, server, t)
		},
	}
}

// InsertPing appends a ping summary.
func InsertPing(ping models.Ping) access.Executable {
	return access.ExecStatement{
		SQL: tables.InsertPingSQL,
		Bind: func(p *access.Params) {
			tables.BindPing(p, ping)
		},
	}
}

// StoreServerInfo inserts a server or updates the row with the same uuid.
func StoreServerInfo(s models.Server) access.Executable {
	return access.ExecutableFunc(func(ctx context.Context, conn access.Conn) (bool, error) {
		return access.ExecStatement{
			SQL: tables.UpsertServerSQL(conn.Type()),
			Bind: func(p *access.Params) {
				tables.BindServer(p, s)
			},
		}.Execute(ctx, conn)
	})
}

// RegisterWebUser inserts a web interface account.
func RegisterWebUser(u models.WebUser) access.Executable {
	return access.ExecStatement{
		SQL: tables.InsertWebUserSQL,
		Bind: func(p *access.Params) {
			tables.BindWebUser(p, u)
		},
	}
}

// RemoveWebUser deletes a web interface account.
func RemoveWebUser(username string) access.Executable {
	return access.ExecStatement{
		SQL: tables.DeleteWebUserSQL,
		Bind: func(p *access.Params) {
			p.Add(username)
		},
	}
}

// StoreConfig stores the configuration file of a server.
func StoreConfig(c models.ServerConfig) access.Executable {
	return access.ExecutableFunc(func(ctx context.Context, conn access.Conn) (bool, error) {
		return access.ExecStatement{
			SQL: tables.UpsertSettingsSQL(conn.Type()),
			Bind: func(p *access.Params) {
				tables.BindSettings(p, c)
			},
		}.Execute(ctx, conn)
	})
}
