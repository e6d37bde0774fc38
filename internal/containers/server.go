package containers

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/models"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/mutators"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/queries"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/transactions"
)

const recentPeakWindow = 2 * 24 * time.Hour

// Server returns a container of one server. The server record is read
// immediately; an unknown server yields an empty container.
func Server(ctx context.Context, src Source, server uuid.UUID) (*Container, error) {
	c := New()

	info, err := transactions.QueryFrom(ctx, src.DB, queries.FetchServer(server))
	if err != nil || info == nil {
		return c, err
	}

	Put(c, ServerUUID, server)
	Put(c, ServerName, info.Name)
	PutCaching(c, ServerPlayers, func() ([]*Container, error) {
		players, err := transactions.QueryFrom(ctx, src.DB, queries.FetchPlayersOfServer(server))
		if err != nil {
			return nil, err
		}
		out := make([]*Container, 0, len(players))
		for _, player := range players {
			out = append(out, Player(ctx, src, player))
		}
		return out, nil
	})
	PutSupplier(c, ServerPlayerCount, derive(c, ServerPlayers, func(players []*Container) int {
		return len(players)
	}))

	PutCaching(c, ServerTPS, fetch(ctx, src, queries.FetchTPSOfServer(server)))
	PutCaching(c, ServerPing, fetch(ctx, src, queries.FetchPingsOfServer(server)))
	PutCaching(c, AllTimePeak, fetch(ctx, src, queries.AllTimePeakPlayerCount(server)))
	PutCaching(c, RecentPeak, func() (*models.DateValue, error) {
		after := src.now() - recentPeakWindow.Milliseconds()
		return transactions.QueryFrom(ctx, src.DB, queries.PeakPlayerCount(server, after))
	})
	PutCaching(c, CommandUsage, fetch(ctx, src, queries.FetchCommandUsageOfServer(server)))
	PutCaching(c, Operators, fetch(ctx, src, queries.Operators(server)))

	PutCaching(c, ServerSessions, func() ([]*models.Session, error) {
		sessions, err := transactions.QueryFrom(ctx, src.DB, queries.FetchSessionsOfServer(server))
		if err != nil {
			return nil, err
		}
		if src.Sessions != nil {
			sessions = append(sessions, src.Sessions.ActiveFor(server)...)
		}
		return sessions, nil
	})
	sessions := func(all []*models.Session) mutators.Sessions {
		return mutators.NewSessions(all).At(src.now())
	}
	PutCaching(c, ServerWorldTimes, derive(c, ServerSessions, func(all []*models.Session) *models.WorldTimes {
		return sessions(all).TotalWorldTimes()
	}))
	PutCaching(c, ServerPlayerKills, derive(c, ServerSessions, func(all []*models.Session) []models.PlayerKill {
		return sessions(all).PlayerKills()
	}))
	PutSupplier(c, ServerPlayerKillCount, derive(c, ServerPlayerKills, func(kills []models.PlayerKill) int {
		return len(kills)
	}))
	PutCaching(c, MobKillCount, derive(c, ServerSessions, func(all []*models.Session) int {
		return sessions(all).MobKillCount()
	}))
	PutCaching(c, DeathCount, derive(c, ServerSessions, func(all []*models.Session) int {
		return sessions(all).DeathCount()
	}))

	return c, nil
}

// Network returns a container spanning every server.
func Network(ctx context.Context, src Source) *Container {
	c := New()

	PutCaching(c, NetworkServers, fetch(ctx, src, queries.FetchServers()))
	PutCaching(c, NetworkServerViews, func() (map[uuid.UUID]*Container, error) {
		servers, err := GetUnsafe(c, NetworkServers)
		if err != nil {
			return nil, err
		}
		out := make(map[uuid.UUID]*Container, len(servers))
		for _, s := range servers {
			sc, err := Server(ctx, src, s.UUID)
			if err != nil {
				return nil, err
			}
			out[s.UUID] = sc
		}
		return out, nil
	})
	PutCaching(c, NetworkPlayers, func() ([]*Container, error) {
		players, err := transactions.QueryFrom(ctx, src.DB, queries.FetchPlayerUUIDs())
		if err != nil {
			return nil, err
		}
		out := make([]*Container, 0, len(players))
		for _, player := range players {
			out = append(out, Player(ctx, src, player))
		}
		return out, nil
	})
	PutSupplier(c, NetworkPlayerCount, derive(c, NetworkPlayers, func(players []*Container) int {
		return len(players)
	}))
	PutCaching(c, NetworkSessions, func() ([]*models.Session, error) {
		sessions, err := transactions.QueryFrom(ctx, src.DB, queries.FetchAllSessions())
		if err != nil {
			return nil, err
		}
		if src.Sessions != nil {
			sessions = append(sessions, src.Sessions.Active()...)
		}
		return sessions, nil
	})
	PutCaching(c, NetworkWorldTimes, derive(c, NetworkSessions, func(all []*models.Session) *models.WorldTimes {
		return mutators.NewSessions(all).At(src.now()).TotalWorldTimes()
	}))
	PutCaching(c, NetworkTPS, fetch(ctx, src, queries.FetchTPS()))

	return c
}
