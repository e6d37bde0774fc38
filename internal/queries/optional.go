package queries

import (
	"github.com/google/uuid"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/access"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/models"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/tables"
)

// Lookups of at most one row. Absent results are reported as nil, "" or
// uuid.Nil rather than as errors.

// FetchServer returns the server with the uuid, or nil.
func FetchServer(server uuid.UUID) access.Query[*models.Server] {
	return access.QueryStatement[*models.Server]{
		SQL:       tables.SelectServersSQL + " WHERE uuid=?",
		FetchSize: 1,
		Bind:      func(p *access.Params) { p.Add(server) },
		Map: func(rows *access.Rows) (*models.Server, error) {
			if !rows.Next() {
				return nil, nil
			}
			s, err := tables.ScanServer(rows)
			if err != nil {
				return nil, err
			}
			return &s, nil
		},
	}
}

// FetchBaseUser returns the base user of a player, or nil.
func FetchBaseUser(player uuid.UUID) access.Query[*models.BaseUser] {
	return access.QueryStatement[*models.BaseUser]{
		SQL:       tables.SelectUsersSQL + " WHERE uuid=?",
		FetchSize: 1,
		Bind:      func(p *access.Params) { p.Add(player) },
		Map: func(rows *access.Rows) (*models.BaseUser, error) {
			if !rows.Next() {
				return nil, nil
			}
			u, err := tables.ScanUser(rows)
			if err != nil {
				return nil, err
			}
			return &u, nil
		},
	}
}

// FetchPlayerName returns the stored name of a player, or "".
func FetchPlayerName(player uuid.UUID) access.Query[string] {
	return access.QueryStatement[string]{
		SQL:       "SELECT name FROM plan_users WHERE uuid=?",
		FetchSize: 1,
		Bind:      func(p *access.Params) { p.Add(player) },
		Map: func(rows *access.Rows) (string, error) {
			var name string
			if rows.Next() {
				if err := rows.Scan(&name); err != nil {
					return "", err
				}
			}
			return name, nil
		},
	}
}

// FetchPlayerUUID resolves a player name (case-insensitive), or returns uuid.Nil.
func FetchPlayerUUID(name string) access.Query[uuid.UUID] {
	return access.QueryStatement[uuid.UUID]{
		SQL:       "SELECT uuid FROM plan_users WHERE UPPER(name)=UPPER(?) LIMIT 1",
		FetchSize: 1,
		Bind:      func(p *access.Params) { p.Add(name) },
		Map: func(rows *access.Rows) (uuid.UUID, error) {
			var id uuid.UUID
			if rows.Next() {
				if err := rows.Scan(&id); err != nil {
					return uuid.Nil, err
				}
			}
			return id, nil
		},
	}
}

// IsPlayerRegistered reports whether the player has a base user.
func IsPlayerRegistered(player uuid.UUID) access.Query[bool] {
	return access.Exists("SELECT id FROM plan_users WHERE uuid=?", func(p *access.Params) {
		p.Add(player)
	})
}

// IsPlayerRegisteredOnServer reports whether the player has joined the server.
func IsPlayerRegisteredOnServer(player, server uuid.UUID) access.Query[bool] {
	return access.Exists("SELECT id FROM plan_user_info WHERE uuid=? AND server_uuid=?", func(p *access.Params) {
		p.Add(player, server)
	})
}

// FetchWebUser returns the web account with the name, or nil.
func FetchWebUser(username string) access.Query[*models.WebUser] {
	return access.QueryStatement[*models.WebUser]{
		SQL:       tables.SelectWebUsersSQL + " WHERE username=?",
		FetchSize: 1,
		Bind:      func(p *access.Params) { p.Add(username) },
		Map: func(rows *access.Rows) (*models.WebUser, error) {
			if !rows.Next() {
				return nil, nil
			}
			u, err := tables.ScanWebUser(rows)
			if err != nil {
				return nil, err
			}
			return &u, nil
		},
	}
}

// FetchServerConfig returns the stored configuration of a server, or nil.
func FetchServerConfig(server uuid.UUID) access.Query[*models.ServerConfig] {
	return access.QueryStatement[*models.ServerConfig]{
		SQL:       tables.SelectSettingsSQL + " WHERE server_uuid=?",
		FetchSize: 1,
		Bind:      func(p *access.Params) { p.Add(server) },
		Map: func(rows *access.Rows) (*models.ServerConfig, error) {
			if !rows.Next() {
				return nil, nil
			}
			c, err := tables.ScanSettings(rows)
			if err != nil {
				return nil, err
			}
			return &c, nil
		},
	}
}

// FetchPlayersOfServer lists the players registered on a server.
func FetchPlayersOfServer(server uuid.UUID) access.Query[[]uuid.UUID] {
	return access.QueryStatement[[]uuid.UUID]{
		SQL:  "SELECT uuid FROM plan_user_info WHERE server_uuid=? ORDER BY registered",
		Bind: func(p *access.Params) { p.Add(server) },
		Map: func(rows *access.Rows) ([]uuid.UUID, error) {
			return access.ScanAll(rows, scanUUID)
		},
	}
}

// FetchPlayerUUIDs lists every registered player.
func FetchPlayerUUIDs() access.Query[[]uuid.UUID] {
	return access.QueryAll("SELECT uuid FROM plan_users ORDER BY registered", 0, func(rows *access.Rows) ([]uuid.UUID, error) {
		return access.ScanAll(rows, scanUUID)
	})
}

// FetchInactivePlayers lists players registered before the date without a
// session ending at or after it.
func FetchInactivePlayers(before int64) access.Query[[]uuid.UUID] {
	return access.QueryStatement[[]uuid.UUID]{
		SQL: "SELECT uuid FROM plan_users WHERE registered<? AND uuid NOT IN " +
			"(SELECT uuid FROM plan_sessions WHERE session_end>=?)",
		Bind: func(p *access.Params) { p.Add(before, before) },
		Map: func(rows *access.Rows) ([]uuid.UUID, error) {
			return access.ScanAll(rows, scanUUID)
		},
	}
}

func scanUUID(rows *access.Rows) (uuid.UUID, error) {
	var id uuid.UUID
	err := rows.Scan(&id)
	return id, err
}
