package containers

import (
	"context"

	"github.com/google/uuid"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/access"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/models"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/mutators"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/queries"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/transactions"
)

// ActiveSessions is the in-memory view of sessions that have not ended yet.
type ActiveSessions interface {
	Get(player uuid.UUID) (*models.Session, bool)
	ActiveFor(server uuid.UUID) []*models.Session
	Active() []*models.Session
}

// Source is what the container builders read from.
type Source struct {
	DB transactions.Database
	// Sessions adds active sessions to stored ones; nil means none.
	Sessions   ActiveSessions
	Thresholds mutators.Thresholds
	// Now defaults to the current time.
	Now func() int64
}

func (s Source) now() int64 {
	if s.Now == nil {
		return models.NowMillis()
	}
	return s.Now()
}

func fetch[T any](ctx context.Context, src Source, q access.Query[T]) Supplier[T] {
	return func() (T, error) {
		return transactions.QueryFrom(ctx, src.DB, q)
	}
}

// derive builds a supplier from the value of another key.
func derive[T, R any](c *Container, key Key[T], fn func(T) R) Supplier[R] {
	return func() (R, error) {
		value, err := GetUnsafe(c, key)
		if err != nil {
			var zero R
			return zero, err
		}
		return fn(value), nil
	}
}

// Player returns a container of one player. Nothing is queried until a
// value is read.
func Player(ctx context.Context, src Source, player uuid.UUID) *Container {
	c := New()

	Put(c, PlayerUUID, player)
	PutCaching(c, baseUser, fetch(ctx, src, queries.FetchBaseUser(player)))
	PutSupplier(c, PlayerName, derive(c, baseUser, func(u *models.BaseUser) string {
		if u == nil {
			return ""
		}
		return u.Name
	}))
	PutSupplier(c, Registered, derive(c, baseUser, func(u *models.BaseUser) int64 {
		if u == nil {
			return 0
		}
		return u.Registered
	}))
	PutSupplier(c, KickCount, derive(c, baseUser, func(u *models.BaseUser) int {
		if u == nil {
			return 0
		}
		return u.TimesKicked
	}))

	PutCaching(c, GeoInfo, fetch(ctx, src, queries.FetchGeoInfosOfPlayer(player)))
	PutCaching(c, Nicknames, fetch(ctx, src, queries.FetchNicknamesOfPlayer(player)))
	PutCaching(c, PlayerPing, fetch(ctx, src, queries.FetchPingsOfPlayer(player)))
	PutCaching(c, PerServer, func() (map[uuid.UUID]models.UserInfo, error) {
		infos, err := transactions.QueryFrom(ctx, src.DB, queries.FetchUserInfosOfPlayer(player))
		if err != nil {
			return nil, err
		}
		out := make(map[uuid.UUID]models.UserInfo, len(infos))
		for server, list := range infos {
			if len(list) > 0 {
				out[server] = list[0]
			}
		}
		return out, nil
	})
	PutSupplier(c, Operator, derive(c, PerServer, func(infos map[uuid.UUID]models.UserInfo) bool {
		for _, info := range infos {
			if info.Operator {
				return true
			}
		}
		return false
	}))
	PutSupplier(c, Banned, derive(c, PerServer, func(infos map[uuid.UUID]models.UserInfo) bool {
		for _, info := range infos {
			if info.Banned {
				return true
			}
		}
		return false
	}))

	PutCaching(c, PlayerSessions, func() ([]*models.Session, error) {
		sessions, err := transactions.QueryFrom(ctx, src.DB, queries.FetchSessionsOfPlayer(player))
		if err != nil {
			return nil, err
		}
		if src.Sessions != nil {
			if active, ok := src.Sessions.Get(player); ok {
				sessions = append(sessions, active)
			}
		}
		return sessions, nil
	})
	sessions := func(all []*models.Session) mutators.Sessions {
		return mutators.NewSessions(all).At(src.now())
	}
	PutCaching(c, PlayerWorldTimes, derive(c, PlayerSessions, func(all []*models.Session) *models.WorldTimes {
		return sessions(all).TotalWorldTimes()
	}))
	PutSupplier(c, LastSeen, derive(c, PlayerSessions, func(all []*models.Session) int64 {
		return sessions(all).LastSeen()
	}))
	PutSupplier(c, Playtime, derive(c, PlayerSessions, func(all []*models.Session) int64 {
		return sessions(all).Playtime()
	}))
	PutCaching(c, Activity, derive(c, PlayerSessions, func(all []*models.Session) mutators.ActivityIndex {
		return mutators.NewActivityIndex(all, src.now(), src.Thresholds)
	}))
	PutCaching(c, PlayerKills, derive(c, PlayerSessions, func(all []*models.Session) []models.PlayerKill {
		return sessions(all).PlayerKills()
	}))
	PutSupplier(c, PlayerKillCount, derive(c, PlayerKills, func(kills []models.PlayerKill) int {
		return len(kills)
	}))

	return c
}
