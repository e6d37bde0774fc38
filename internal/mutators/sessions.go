package mutators

import (
	"github.com/google/uuid"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/models"
)

// Sessions aggregates a set of sessions. Filters return new mutators and
// leave the receiver untouched.
type Sessions struct {
	sessions []*models.Session
	now      func() int64
}

// NewSessions wraps sessions; open sessions are measured up to the current time.
func NewSessions(sessions []*models.Session) Sessions {
	return Sessions{sessions: sessions, now: models.NowMillis}
}

// At returns a copy that treats now as the current time for open sessions.
func (m Sessions) At(now int64) Sessions {
	m.now = func() int64 { return now }
	return m
}

// All returns the wrapped sessions.
func (m Sessions) All() []*models.Session { return m.sessions }

// Count is the number of sessions.
func (m Sessions) Count() int { return len(m.sessions) }

// FilterBy keeps the sessions matching the predicate.
func (m Sessions) FilterBy(keep func(*models.Session) bool) Sessions {
	out := make([]*models.Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		if keep(s) {
			out = append(out, s)
		}
	}

	return Sessions{sessions: out, now: m.now}
}

// FilterSessionsBetween keeps the sessions overlapping [after, before].
func (m Sessions) FilterSessionsBetween(after, before int64) Sessions {
	return m.FilterBy(Between(after, before, m.now()))
}

// FilterPlayedOnServer keeps the sessions of one server.
func (m Sessions) FilterPlayedOnServer(server uuid.UUID) Sessions {
	return m.FilterBy(func(s *models.Session) bool { return s.ServerUUID == server })
}

// PlayedBetween reports whether any session overlaps [after, before].
func (m Sessions) PlayedBetween(after, before int64) bool {
	match := Between(after, before, m.now())
	for _, s := range m.sessions {
		if match(s) {
			return true
		}
	}

	return false
}

// Between is the overlap predicate: a session overlaps [after, before] when
// its start or its end falls inside the window. Open sessions end at now.
func Between(after, before, now int64) func(*models.Session) bool {
	return func(s *models.Session) bool {
		start, end := s.Start, s.EndOr(now)
		return (after <= start && start <= before) || (after <= end && end <= before)
	}
}

func (m Sessions) length(s *models.Session) int64 {
	return s.EndOr(m.now()) - s.Start
}

// Playtime sums session lengths.
func (m Sessions) Playtime() int64 {
	var total int64
	for _, s := range m.sessions {
		total += m.length(s)
	}

	return total
}

// AFKTime sums time spent away from keyboard.
func (m Sessions) AFKTime() int64 {
	var total int64
	for _, s := range m.sessions {
		total += s.AFKTime
	}

	return total
}

// ActivePlaytime is playtime without AFK time.
func (m Sessions) ActivePlaytime() int64 {
	return m.Playtime() - m.AFKTime()
}

// LongestSessionLength returns the longest session, or -1 without sessions.
func (m Sessions) LongestSessionLength() int64 {
	longest := int64(-1)
	for _, s := range m.sessions {
		longest = max(longest, m.length(s))
	}

	return longest
}

// AverageSessionLength returns the mean session length, or 0 without sessions.
func (m Sessions) AverageSessionLength() int64 {
	return int64(Average(m.lengths()))
}

// MedianSessionLength returns the median session length, or -1 without sessions.
func (m Sessions) MedianSessionLength() int64 {
	return int64(Median(m.lengths()))
}

func (m Sessions) lengths() []int64 {
	out := make([]int64, len(m.sessions))
	for i, s := range m.sessions {
		out[i] = m.length(s)
	}

	return out
}

// UniquePlayers counts distinct players.
func (m Sessions) UniquePlayers() int {
	seen := make(map[uuid.UUID]struct{}, len(m.sessions))
	for _, s := range m.sessions {
		seen[s.PlayerUUID] = struct{}{}
	}

	return len(seen)
}

// UniqueJoinsPerDay counts distinct players per start of day (UTC epoch ms).
func (m Sessions) UniqueJoinsPerDay() map[int64]int {
	out := make(map[int64]int)
	for day, sessions := range GroupByStartOfDay(m.sessions, func(s *models.Session) int64 { return s.Start }) {
		out[day] = Sessions{sessions: sessions, now: m.now}.UniquePlayers()
	}

	return out
}

// AverageUniqueJoinsPerDay averages UniqueJoinsPerDay over days with joins.
func (m Sessions) AverageUniqueJoinsPerDay() int {
	perDay := m.UniqueJoinsPerDay()
	counts := make([]int, 0, len(perDay))
	for _, n := range perDay {
		counts = append(counts, n)
	}

	return int(Average(counts))
}

// PlayerKills lists kills of all sessions.
func (m Sessions) PlayerKills() []models.PlayerKill {
	var out []models.PlayerKill
	for _, s := range m.sessions {
		out = append(out, s.PlayerKills...)
	}

	return out
}

// PlayerKillCount counts kills of all sessions.
func (m Sessions) PlayerKillCount() int {
	n := 0
	for _, s := range m.sessions {
		n += len(s.PlayerKills)
	}

	return n
}

// MobKillCount sums mob kills.
func (m Sessions) MobKillCount() int {
	n := 0
	for _, s := range m.sessions {
		n += s.MobKills
	}

	return n
}

// DeathCount sums deaths.
func (m Sessions) DeathCount() int {
	n := 0
	for _, s := range m.sessions {
		n += s.Deaths
	}

	return n
}

// LastSeen returns the latest end (now for open sessions), or -1 without sessions.
func (m Sessions) LastSeen() int64 {
	last := int64(-1)
	for _, s := range m.sessions {
		last = max(last, s.Start, s.EndOr(m.now()))
	}

	return last
}

// TotalWorldTimes sums the world times of all sessions.
func (m Sessions) TotalWorldTimes() *models.WorldTimes {
	total := models.NewWorldTimes()
	for _, s := range m.sessions {
		total.Add(s.WorldTimes)
	}

	return total
}

// SortByPlayers groups sessions by player.
func SortByPlayers(sessions []*models.Session) map[uuid.UUID][]*models.Session {
	out := make(map[uuid.UUID][]*models.Session)
	for _, s := range sessions {
		out[s.PlayerUUID] = append(out[s.PlayerUUID], s)
	}

	return out
}

// SortByServers groups sessions by server.
func SortByServers(sessions []*models.Session) map[uuid.UUID][]*models.Session {
	out := make(map[uuid.UUID][]*models.Session)
	for _, s := range sessions {
		out[s.ServerUUID] = append(out[s.ServerUUID], s)
	}

	return out
}
