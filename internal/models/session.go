package models

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// Session is one continuous interval a player was connected to a server.
// End is zero while the session is active; it is stored only after it ends.
type Session struct {
	ID          int          `json:"id,omitempty"`
	PlayerUUID  uuid.UUID    `json:"player_uuid"`
	ServerUUID  uuid.UUID    `json:"server_uuid"`
	Start       int64        `json:"start"`
	End         int64        `json:"end,omitempty"`
	Deaths      int          `json:"deaths"`
	MobKills    int          `json:"mob_kills"`
	AFKTime     int64        `json:"afk_time"`
	WorldTimes  *WorldTimes  `json:"world_times,omitempty"`
	PlayerKills []PlayerKill `json:"player_kills,omitempty"`
}

// NewSession starts an active session in the given world and game mode.
func NewSession(player, server uuid.UUID, start int64, world, gameMode string) *Session {
	wt := NewWorldTimes()
	if world != "" {
		wt.SetState(world, gameMode, start)
	}

	return &Session{
		PlayerUUID: player,
		ServerUUID: server,
		Start:      start,
		WorldTimes: wt,
	}
}

// EndSession closes the session and its world time tracking.
func (s *Session) EndSession(end int64) {
	s.End = end
	if s.WorldTimes != nil {
		s.WorldTimes.End(end)
	}
}

// Clone returns a deep copy of the session.
func (s *Session) Clone() *Session {
	c := *s
	c.WorldTimes = s.WorldTimes.Clone()
	c.PlayerKills = slices.Clone(s.PlayerKills)

	return &c
}

// Snapshot is a copy of an active session with world times accounted up
// to now. Ended sessions are copied unchanged.
func (s *Session) Snapshot(now int64) *Session {
	c := s.Clone()
	if !c.Ended() && c.WorldTimes != nil {
		c.WorldTimes.flush(now)
	}

	return c
}

// Ended reports whether the session has an end timestamp.
func (s *Session) Ended() bool {
	return s.End != 0
}

// EndOr returns the end timestamp, or now for an active session.
func (s *Session) EndOr(now int64) int64 {
	if s.End == 0 {
		return now
	}

	return s.End
}

// Length is end minus start; active sessions are measured up to the current time.
func (s *Session) Length() int64 {
	return s.EndOr(NowMillis()) - s.Start
}

// ActiveTime is the length without time spent AFK.
func (s *Session) ActiveTime() int64 {
	return s.Length() - s.AFKTime
}

// AddPlayerKill records a kill made during the session.
func (s *Session) AddPlayerKill(kill PlayerKill) {
	s.PlayerKills = append(s.PlayerKills, kill)
}

// AddAFKTime accumulates time spent away from keyboard.
func (s *Session) AddAFKTime(ms int64) {
	s.AFKTime += ms
}

// ChangeState moves world time tracking into another world or game mode.
func (s *Session) ChangeState(world, gameMode string, at int64) {
	if s.WorldTimes == nil {
		s.WorldTimes = NewWorldTimes()
	}
	s.WorldTimes.SetState(world, gameMode, at)
}

// Equal compares the persisted fields of two sessions, ignoring the database id.
func (s *Session) Equal(o *Session) bool {
	if s == nil || o == nil {
		return s == o
	}
	if s.PlayerUUID != o.PlayerUUID || s.ServerUUID != o.ServerUUID ||
		s.Start != o.Start || s.End != o.End ||
		s.Deaths != o.Deaths || s.MobKills != o.MobKills || s.AFKTime != o.AFKTime {
		return false
	}
	if len(s.PlayerKills) != len(o.PlayerKills) {
		return false
	}
	for i := range s.PlayerKills {
		a, b := s.PlayerKills[i], o.PlayerKills[i]
		if a.Killer != b.Killer || a.Victim != b.Victim || a.Weapon != b.Weapon || a.Date != b.Date {
			return false
		}
	}

	return s.WorldTimes.Equal(o.WorldTimes)
}

// PlayerKill is a kill of another player.
type PlayerKill struct {
	Killer     uuid.UUID `json:"killer"`
	Victim     uuid.UUID `json:"victim"`
	VictimName string    `json:"victim_name,omitempty"`
	Weapon     string    `json:"weapon"`
	Date       int64     `json:"date"`
}

// NowMillis is the current time in epoch milliseconds.
func NowMillis() int64 {
	return time.Now().UnixMilli()
}
