package containers

import (
	"github.com/google/uuid"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/models"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/mutators"
)

// Player container keys.
var (
	PlayerUUID       = NewKey[uuid.UUID]("uuid")
	PlayerName       = NewKey[string]("name")
	Registered       = NewKey[int64]("registered")
	KickCount        = NewKey[int]("kick_count")
	GeoInfo          = NewKey[[]models.GeoInfo]("geo_info")
	Nicknames        = NewKey[[]models.Nickname]("nicknames")
	PerServer        = NewKey[map[uuid.UUID]models.UserInfo]("per_server")
	PlayerSessions   = NewKey[[]*models.Session]("sessions")
	PlayerWorldTimes = NewKey[*models.WorldTimes]("world_times")
	LastSeen         = NewKey[int64]("last_seen")
	Playtime         = NewKey[int64]("playtime")
	Activity         = NewKey[mutators.ActivityIndex]("activity_index")
	PlayerKills      = NewKey[[]models.PlayerKill]("player_kills")
	PlayerKillCount  = NewKey[int]("player_kill_count")
	Operator         = NewKey[bool]("operator")
	Banned           = NewKey[bool]("banned")
	PlayerPing       = NewKey[[]models.Ping]("ping")

	baseUser = NewKey[*models.BaseUser]("base_user")
)

// Server container keys.
var (
	ServerUUID            = NewKey[uuid.UUID]("server_uuid")
	ServerName            = NewKey[string]("server_name")
	ServerPlayers         = NewKey[[]*Container]("players")
	ServerPlayerCount     = NewKey[int]("player_count")
	ServerTPS             = NewKey[[]models.TPS]("tps")
	ServerPing            = NewKey[[]models.Ping]("ping")
	AllTimePeak           = NewKey[*models.DateValue]("all_time_peak_players")
	RecentPeak            = NewKey[*models.DateValue]("recent_peak_players")
	CommandUsage          = NewKey[map[string]int]("command_usage")
	ServerWorldTimes      = NewKey[*models.WorldTimes]("world_times")
	Operators             = NewKey[[]uuid.UUID]("operators")
	ServerSessions        = NewKey[[]*models.Session]("sessions")
	ServerPlayerKills     = NewKey[[]models.PlayerKill]("player_kills")
	ServerPlayerKillCount = NewKey[int]("player_kill_count")
	MobKillCount          = NewKey[int]("mob_kill_count")
	DeathCount            = NewKey[int]("death_count")
)

// Network container keys.
var (
	NetworkServers     = NewKey[[]models.Server]("servers")
	NetworkServerViews = NewKey[map[uuid.UUID]*Container]("server_containers")
	NetworkPlayers     = NewKey[[]*Container]("players")
	NetworkPlayerCount = NewKey[int]("player_count")
	NetworkSessions    = NewKey[[]*models.Session]("sessions")
	NetworkWorldTimes  = NewKey[*models.WorldTimes]("world_times")
	NetworkTPS         = NewKey[map[uuid.UUID][]models.TPS]("tps")
)
