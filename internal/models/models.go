// Package models defines the entities persisted by the storage layer.
// Timestamps are epoch milliseconds, matching the on-disk columns.
package models

import (
	"github.com/google/uuid"
)

// BaseUser is the network-wide identity of a player.
type BaseUser struct {
	UUID        uuid.UUID `json:"uuid"`
	Name        string    `json:"name"`
	Registered  int64     `json:"registered"`
	TimesKicked int       `json:"times_kicked"`
}

// UserInfo is the per-server registration of a player.
type UserInfo struct {
	PlayerUUID uuid.UUID `json:"player_uuid"`
	ServerUUID uuid.UUID `json:"server_uuid"`
	Registered int64     `json:"registered"`
	Operator   bool      `json:"operator"`
	Banned     bool      `json:"banned"`
}

// Server is a game server or proxy reporting data.
type Server struct {
	ID         int       `json:"id,omitempty"`
	UUID       uuid.UUID `json:"uuid"`
	Name       string    `json:"name"`
	WebAddress string    `json:"web_address"`
	Installed  bool      `json:"installed"`
	MaxPlayers int       `json:"max_players"`
}

// Nickname is a display name a player used on a server.
type Nickname struct {
	Name       string    `json:"name"`
	ServerUUID uuid.UUID `json:"server_uuid"`
	Date       int64     `json:"date"`
}

// Ping is a round-trip measurement summary over a sampling window.
type Ping struct {
	PlayerUUID uuid.UUID `json:"player_uuid"`
	ServerUUID uuid.UUID `json:"server_uuid"`
	Date       int64     `json:"date"`
	Average    float64   `json:"avg"`
	Min        int       `json:"min"`
	Max        int       `json:"max"`
}

// TPS is one sample of a server's performance time series.
type TPS struct {
	Date          int64   `json:"date"`
	TicksPerSec   float64 `json:"tps"`
	Players       int     `json:"players"`
	CPUUsage      float64 `json:"cpu"`
	UsedMemory    int64   `json:"ram"`
	Entities      int     `json:"entities"`
	ChunksLoaded  int     `json:"chunks"`
	FreeDiskSpace int64   `json:"disk"`
}

// DateValue is a numeric value at a point in time (peak player counts).
type DateValue struct {
	Date  int64 `json:"date"`
	Value int   `json:"value"`
}

// ServerConfig is a server's configuration file stored in the database.
type ServerConfig struct {
	ServerUUID uuid.UUID `json:"server_uuid"`
	Updated    int64     `json:"updated"`
	Content    string    `json:"content"`
}
