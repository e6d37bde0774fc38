package transactions

import (
	"context"

	"github.com/google/uuid"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/models"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/mutators"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/queries"
)

// PlayerRegister registers a player on first sight and keeps the stored
// name current afterwards.
func PlayerRegister(player uuid.UUID, registered int64, name string) Transaction {
	return Func{
		Label: "PlayerRegister",
		Perform: func(ctx context.Context, tx *Tx) error {
			return registerPlayer(ctx, tx, player, registered, name)
		},
	}
}

func registerPlayer(ctx context.Context, tx *Tx, player uuid.UUID, registered int64, name string) error {
	stored, err := Query(ctx, tx, queries.FetchPlayerName(player))
	if err != nil {
		return err
	}

	switch {
	case stored == "":
		_, err = tx.Execute(ctx, queries.RegisterUser(player, registered, name))
	case stored != name && name != "":
		_, err = tx.Execute(ctx, queries.UpdatePlayerName(player, name))
	}

	return err
}

// PlayerServerRegister registers a player and their first join of a server.
func PlayerServerRegister(player, server uuid.UUID, registered int64, name string) Transaction {
	return Func{
		Label: "PlayerServerRegister",
		Perform: func(ctx context.Context, tx *Tx) error {
			if err := registerPlayer(ctx, tx, player, registered, name); err != nil {
				return err
			}

			known, err := Query(ctx, tx, queries.IsPlayerRegisteredOnServer(player, server))
			if err != nil || known {
				return err
			}
			_, err = tx.Execute(ctx, queries.RegisterUserInfo(player, server, registered))

			return err
		},
	}
}

// SessionEnd stores an ended session. Storing an active session fails with
// queries.ErrSessionNotEnded, one without length with queries.ErrSessionLength.
func SessionEnd(s *models.Session) Transaction {
	return Executes("SessionEnd", queries.StoreSession(s))
}

// GeoInfoStore records a sighting of a player from an address.
func GeoInfoStore(player uuid.UUID, geo models.GeoInfo) Transaction {
	return Executes("GeoInfoStore", queries.StoreGeoInfo(player, geo))
}

// NicknameStore records a display name of a player.
func NicknameStore(player uuid.UUID, nickname models.Nickname) Transaction {
	return Executes("NicknameStore", queries.StoreNickname(player, nickname))
}

// CommandStore counts one use of a command.
func CommandStore(server uuid.UUID, command string) Transaction {
	return Executes("CommandStore", queries.StoreCommandUse(server, command))
}

// TPSStore appends a performance sample.
func TPSStore(server uuid.UUID, tps models.TPS) Transaction {
	return Executes("TPSStore", queries.InsertTPS(server, tps))
}

// PingStore summarizes a sampling window of round trip times. Windows
// without samples are not stored.
func PingStore(player, server uuid.UUID, date int64, samples []int) Transaction {
	return Func{
		Label: "PingStore",
		Should: func(Database) bool {
			return len(samples) > 0
		},
		Perform: func(ctx context.Context, tx *Tx) error {
			low, high := samples[0], samples[0]
			for _, v := range samples[1:] {
				low = min(low, v)
				high = max(high, v)
			}

			_, err := tx.Execute(ctx, queries.InsertPing(models.Ping{
				PlayerUUID: player,
				ServerUUID: server,
				Date:       date,
				Average:    float64(mutators.MeanPing(samples)),
				Min:        low,
				Max:        high,
			}))

			return err
		},
	}
}

// WorldNameStore registers a world of a server.
func WorldNameStore(server uuid.UUID, world string) Transaction {
	return Executes("WorldNameStore", queries.StoreWorldName(server, world))
}

// ServerInfoStore stores or updates the information of a server.
func ServerInfoStore(s models.Server) Transaction {
	return Executes("ServerInfoStore", queries.StoreServerInfo(s))
}

// KickStore counts a kick of a player.
func KickStore(player uuid.UUID) Transaction {
	return Executes("KickStore", queries.KickPlayer(player))
}

// BanStatus updates the banned flag of a player on a server.
func BanStatus(player, server uuid.UUID, banned bool) Transaction {
	return Executes("BanStatus", queries.UpdateBanStatus(player, server, banned))
}

// OperatorStatus updates the operator flag of a player on a server.
func OperatorStatus(player, server uuid.UUID, op bool) Transaction {
	return Executes("OperatorStatus", queries.UpdateOperatorStatus(player, server, op))
}

// RegisterWebUser adds a web interface account.
func RegisterWebUser(u models.WebUser) Transaction {
	return Executes("RegisterWebUser", queries.RegisterWebUser(u))
}

// RemoveWebUser deletes a web interface account.
func RemoveWebUser(username string) Transaction {
	return Executes("RemoveWebUser", queries.RemoveWebUser(username))
}

// StoreConfig stores a server's configuration unless the stored copy has
// the same content.
func StoreConfig(c models.ServerConfig) Transaction {
	return Func{
		Label: "StoreConfig",
		Perform: func(ctx context.Context, tx *Tx) error {
			stored, err := Query(ctx, tx, queries.FetchServerConfig(c.ServerUUID))
			if err != nil {
				return err
			}
			if stored != nil && stored.Content == c.Content {
				return nil
			}
			_, err = tx.Execute(ctx, queries.StoreConfig(c))

			return err
		},
	}
}
