package queries

import (
	"github.com/google/uuid"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/access"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/models"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/tables"
)

// UserCount counts registered players on the whole network.
func UserCount() access.Query[int] {
	return access.Count("SELECT COUNT(1) FROM plan_users", nil)
}

// ServerUserCounts counts registered players of each server.
func ServerUserCounts() access.Query[map[uuid.UUID]int] {
	return countsByServer("SELECT server_uuid, COUNT(1) FROM plan_user_info GROUP BY server_uuid")
}

// SessionCounts counts stored sessions of each server.
func SessionCounts() access.Query[map[uuid.UUID]int] {
	return countsByServer("SELECT server_uuid, COUNT(1) FROM plan_sessions GROUP BY server_uuid")
}

// KillCounts counts player kills of each server.
func KillCounts() access.Query[map[uuid.UUID]int] {
	return countsByServer("SELECT server_uuid, COUNT(1) FROM plan_kills GROUP BY server_uuid")
}

func countsByServer(query string) access.Query[map[uuid.UUID]int] {
	return access.QueryAll(query, 0, func(rows *access.Rows) (map[uuid.UUID]int, error) {
		out := make(map[uuid.UUID]int)
		for rows.Next() {
			var (
				server uuid.UUID
				n      int
			)
			if err := rows.Scan(&server, &n); err != nil {
				return nil, err
			}
			out[server] = n
		}
		return out, nil
	})
}

// Operators lists the operators of a server.
func Operators(server uuid.UUID) access.Query[[]uuid.UUID] {
	return access.QueryStatement[[]uuid.UUID]{
		SQL:  "SELECT uuid FROM plan_user_info WHERE server_uuid=? AND opped=?",
		Bind: func(p *access.Params) { p.Add(server, true) },
		Map: func(rows *access.Rows) ([]uuid.UUID, error) {
			return access.ScanAll(rows, scanUUID)
		},
	}
}

// CommandUseCount sums the command uses of a server.
func CommandUseCount(server uuid.UUID) access.Query[int] {
	return access.Count(
		"SELECT SUM(times_used) FROM plan_commandusages WHERE server_id="+tables.SelectServerIDSQL,
		func(p *access.Params) { p.Add(server) },
	)
}

// PeakPlayerCount returns the sample with most players online after a date,
// or nil when the server has no samples in that range.
func PeakPlayerCount(server uuid.UUID, after int64) access.Query[*models.DateValue] {
	return access.QueryStatement[*models.DateValue]{
		SQL: "SELECT date, players_online FROM plan_tps WHERE server_id=" + tables.SelectServerIDSQL +
			" AND date>=? ORDER BY players_online DESC, date DESC LIMIT 1",
		FetchSize: 1,
		Bind:      func(p *access.Params) { p.Add(server, after) },
		Map: func(rows *access.Rows) (*models.DateValue, error) {
			if !rows.Next() {
				return nil, nil
			}
			var dv models.DateValue
			if err := rows.Scan(&dv.Date, &dv.Value); err != nil {
				return nil, err
			}
			return &dv, nil
		},
	}
}

// AllTimePeakPlayerCount returns the highest player count ever sampled.
func AllTimePeakPlayerCount(server uuid.UUID) access.Query[*models.DateValue] {
	return PeakPlayerCount(server, 0)
}
