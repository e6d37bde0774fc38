// Package export renders containers as raw data JSON documents.
package export

import (
	"io"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/containers"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/models"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/mutators"
)

// Player is the raw data of one player.
type Player struct {
	UUID          uuid.UUID                     `json:"uuid"`
	Name          string                        `json:"name"`
	Registered    int64                         `json:"registered"`
	KickCount     int                           `json:"kick_count"`
	LastSeen      int64                         `json:"last_seen"`
	Playtime      int64                         `json:"playtime"`
	ActivityIndex float64                       `json:"activity_index"`
	ActivityGroup string                        `json:"activity_group"`
	Operator      bool                          `json:"operator"`
	Banned        bool                          `json:"banned"`
	GeoInfo       []models.GeoInfo              `json:"geo_info"`
	Nicknames     []models.Nickname             `json:"nicknames"`
	PerServer     map[uuid.UUID]models.UserInfo `json:"per_server"`
	Sessions      []*models.Session             `json:"sessions"`
	WorldTimes    map[string]models.GMTimes     `json:"world_times"`
	PlayerKills   []models.PlayerKill           `json:"player_kills"`
	Ping          []models.Ping                 `json:"ping"`
}

// Server is the raw data of one server.
type Server struct {
	UUID            uuid.UUID                 `json:"uuid"`
	Name            string                    `json:"name"`
	PlayerCount     int                       `json:"player_count"`
	Operators       []uuid.UUID               `json:"operators"`
	AllTimePeak     *models.DateValue         `json:"all_time_peak,omitempty"`
	RecentPeak      *models.DateValue         `json:"recent_peak,omitempty"`
	CommandUsage    map[string]int            `json:"command_usage"`
	TPS             []models.TPS              `json:"tps"`
	Sessions        int                       `json:"session_count"`
	PlayerKillCount int                       `json:"player_kill_count"`
	MobKillCount    int                       `json:"mob_kill_count"`
	DeathCount      int                       `json:"death_count"`
	WorldTimes      map[string]models.GMTimes `json:"world_times"`
}

// Network is the raw data of every server together.
type Network struct {
	Servers     []Server                  `json:"servers"`
	PlayerCount int                       `json:"player_count"`
	Sessions    int                       `json:"session_count"`
	WorldTimes  map[string]models.GMTimes `json:"world_times"`
}

// PlayerData reads every key of a player container.
func PlayerData(c *containers.Container) (Player, error) {
	var (
		p Player
		r = reader{c: c}
	)
	p.UUID = get(&r, containers.PlayerUUID)
	p.Name = get(&r, containers.PlayerName)
	p.Registered = get(&r, containers.Registered)
	p.KickCount = get(&r, containers.KickCount)
	p.LastSeen = get(&r, containers.LastSeen)
	p.Playtime = get(&r, containers.Playtime)
	activity := get(&r, containers.Activity)
	p.ActivityIndex = activity.Value
	p.ActivityGroup = mutators.ActivityGroup(activity.Value)
	p.Operator = get(&r, containers.Operator)
	p.Banned = get(&r, containers.Banned)
	p.GeoInfo = get(&r, containers.GeoInfo)
	p.Nicknames = get(&r, containers.Nicknames)
	p.PerServer = get(&r, containers.PerServer)
	p.Sessions = get(&r, containers.PlayerSessions)
	p.WorldTimes = times(get(&r, containers.PlayerWorldTimes))
	p.PlayerKills = get(&r, containers.PlayerKills)
	p.Ping = get(&r, containers.PlayerPing)
	if r.err != nil {
		return Player{}, r.err
	}

	return p, nil
}

// ServerData reads every key of a server container.
func ServerData(c *containers.Container) (Server, error) {
	var (
		s Server
		r = reader{c: c}
	)
	s.UUID = get(&r, containers.ServerUUID)
	s.Name = get(&r, containers.ServerName)
	s.PlayerCount = get(&r, containers.ServerPlayerCount)
	s.Operators = get(&r, containers.Operators)
	s.AllTimePeak = get(&r, containers.AllTimePeak)
	s.RecentPeak = get(&r, containers.RecentPeak)
	s.CommandUsage = get(&r, containers.CommandUsage)
	s.TPS = get(&r, containers.ServerTPS)
	s.Sessions = len(get(&r, containers.ServerSessions))
	s.PlayerKillCount = get(&r, containers.ServerPlayerKillCount)
	s.MobKillCount = get(&r, containers.MobKillCount)
	s.DeathCount = get(&r, containers.DeathCount)
	s.WorldTimes = times(get(&r, containers.ServerWorldTimes))
	if r.err != nil {
		return Server{}, r.err
	}

	return s, nil
}

// NetworkData reads a network container and the server containers in it.
func NetworkData(c *containers.Container) (Network, error) {
	var (
		n Network
		r = reader{c: c}
	)
	servers := get(&r, containers.NetworkServers)
	views := get(&r, containers.NetworkServerViews)
	n.PlayerCount = get(&r, containers.NetworkPlayerCount)
	n.Sessions = len(get(&r, containers.NetworkSessions))
	n.WorldTimes = times(get(&r, containers.NetworkWorldTimes))
	if r.err != nil {
		return Network{}, r.err
	}

	n.Servers = make([]Server, 0, len(servers))
	for _, info := range servers {
		view, ok := views[info.UUID]
		if !ok {
			continue
		}
		s, err := ServerData(view)
		if err != nil {
			return Network{}, err
		}
		n.Servers = append(n.Servers, s)
	}

	return n, nil
}

// Write encodes v as indented JSON.
func Write(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Marshal encodes v as compact JSON.
func Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

// reader keeps the first error of a series of reads.
type reader struct {
	c   *containers.Container
	err error
}

// get reads a key, leaving the zero value for unsupported keys so partial
// containers still export.
func get[T any](r *reader, key containers.Key[T]) T {
	var zero T
	if r.err != nil {
		return zero
	}
	value, _, err := containers.GetValue(r.c, key)
	if err != nil {
		r.err = err
		return zero
	}

	return value
}

func times(wt *models.WorldTimes) map[string]models.GMTimes {
	if wt == nil {
		return nil
	}
	return wt.Times
}
