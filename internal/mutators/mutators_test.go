package mutators

import (
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/models"
)

func TestMedian(t *testing.T) {
	tests := []struct {
		name   string
		values []int64
		want   float64
	}{
		{"odd", []int64{10, 20, 30}, 20},
		{"even", []int64{10, 20, 30, 40}, 25},
		{"unsorted", []int64{30, 10, 20}, 20},
		{"single", []int64{50}, 50},
		{"empty", nil, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Median(tt.values); got != tt.want {
				t.Errorf("Median(%v) = %v, want %v", tt.values, got, tt.want)
			}
		})
	}
}

func TestMedianDoesNotReorderInput(t *testing.T) {
	values := []int{3, 1, 2}
	Median(values)
	if values[0] != 3 || values[1] != 1 || values[2] != 2 {
		t.Errorf("input was modified: %v", values)
	}
}

func TestMeanPing(t *testing.T) {
	if got := MeanPing(nil); got != -1 {
		t.Errorf("MeanPing(nil) = %d, want -1", got)
	}
	if got := MeanPing([]int{50}); got != 50 {
		t.Errorf("MeanPing(single) = %d, want 50", got)
	}
	if got := MeanPing([]int{40, 10, 25, 30}); got != 27 {
		t.Errorf("MeanPing(even) = %d, want 27", got)
	}
}

func session(player uuid.UUID, start, end int64) *models.Session {
	return &models.Session{PlayerUUID: player, ServerUUID: uuid.Nil, Start: start, End: end}
}

func TestBetween(t *testing.T) {
	s := session(uuid.New(), 50, 150)

	tests := []struct {
		name          string
		after, before int64
		want          bool
	}{
		{"end inside", 100, 200, true},
		{"start inside", 0, 60, true},
		{"after session", 151, 200, false},
		{"before session", 0, 49, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Between(tt.after, tt.before, 1000)(s); got != tt.want {
				t.Errorf("Between(%d, %d) = %v, want %v", tt.after, tt.before, got, tt.want)
			}
		})
	}
}

func TestBetweenOpenSessionUsesNow(t *testing.T) {
	open := session(uuid.New(), 50, 0)
	if !Between(100, 200, 150)(open) {
		t.Error("open session should overlap window containing now")
	}
	if Between(100, 200, 300)(open) {
		t.Error("open session ending after the window should not overlap via end")
	}
}

func TestSessionsAggregates(t *testing.T) {
	p1, p2 := uuid.New(), uuid.New()
	s1 := session(p1, 0, 10)
	s1.Deaths, s1.MobKills, s1.AFKTime = 1, 3, 2
	s1.AddPlayerKill(models.PlayerKill{Killer: p1, Victim: p2, Date: 5})
	s2 := session(p1, 100, 130)
	s3 := session(p2, 200, 220)
	s3.Deaths = 2

	m := NewSessions([]*models.Session{s1, s2, s3}).At(1000)

	if got := m.Playtime(); got != 60 {
		t.Errorf("Playtime = %d, want 60", got)
	}
	if got := m.ActivePlaytime(); got != 58 {
		t.Errorf("ActivePlaytime = %d, want 58", got)
	}
	if got := m.LongestSessionLength(); got != 30 {
		t.Errorf("LongestSessionLength = %d, want 30", got)
	}
	if got := m.MedianSessionLength(); got != 20 {
		t.Errorf("MedianSessionLength = %d, want 20", got)
	}
	if got := m.AverageSessionLength(); got != 20 {
		t.Errorf("AverageSessionLength = %d, want 20", got)
	}
	if got := m.UniquePlayers(); got != 2 {
		t.Errorf("UniquePlayers = %d, want 2", got)
	}
	if got := m.DeathCount(); got != 3 {
		t.Errorf("DeathCount = %d, want 3", got)
	}
	if got := m.MobKillCount(); got != 3 {
		t.Errorf("MobKillCount = %d, want 3", got)
	}
	if got := m.PlayerKillCount(); got != 1 {
		t.Errorf("PlayerKillCount = %d, want 1", got)
	}
	if got := m.LastSeen(); got != 220 {
		t.Errorf("LastSeen = %d, want 220", got)
	}
	if got := m.FilterSessionsBetween(90, 140).Count(); got != 1 {
		t.Errorf("FilterSessionsBetween count = %d, want 1", got)
	}
	if m.Count() != 3 {
		t.Error("filter modified the receiver")
	}
}

func TestSessionsEmpty(t *testing.T) {
	m := NewSessions(nil)
	if m.LongestSessionLength() != -1 || m.MedianSessionLength() != -1 || m.LastSeen() != -1 {
		t.Error("empty aggregates should report -1")
	}
	if m.AverageSessionLength() != 0 {
		t.Error("empty average should be 0")
	}
}

func TestUniqueJoinsPerDay(t *testing.T) {
	p1, p2 := uuid.New(), uuid.New()
	day := dayMillis
	m := NewSessions([]*models.Session{
		session(p1, 10, 20),
		session(p1, 30, 40),
		session(p2, 50, 60),
		session(p1, day+10, day+20),
	})

	joins := m.UniqueJoinsPerDay()
	if joins[0] != 2 || joins[day] != 1 {
		t.Errorf("UniqueJoinsPerDay = %v", joins)
	}
	if got := m.AverageUniqueJoinsPerDay(); got != 1 {
		t.Errorf("AverageUniqueJoinsPerDay = %d, want 1", got)
	}
}

func TestStartOfDay(t *testing.T) {
	ts := time.Date(2024, 5, 3, 17, 45, 0, 0, time.UTC)
	want := time.Date(2024, 5, 3, 0, 0, 0, 0, time.UTC).UnixMilli()
	if got := StartOfDay(ts.UnixMilli()); got != want {
		t.Errorf("StartOfDay = %d, want %d", got, want)
	}
}

func TestActivityIndexBounds(t *testing.T) {
	th := Thresholds{PlayThreshold: 30 * time.Minute, LoginThreshold: 2}
	now := int64(100 * weekMillis)
	player := uuid.New()

	if got := NewActivityIndex(nil, now, th); got.Value != 0 || got.Group() != Inactive {
		t.Errorf("no sessions: %+v %s", got, got.Group())
	}

	// Hours of play every day for three weeks.
	var heavy []*models.Session
	for d := int64(0); d < 21; d++ {
		start := now - d*dayMillis - 5*time.Hour.Milliseconds()
		heavy = append(heavy, session(player, start, start+4*time.Hour.Milliseconds()))
	}
	idx := NewActivityIndex(heavy, now, th)
	if idx.Value >= MaxActivityIndex || idx.Value < 3.75 {
		t.Errorf("heavy play score = %v", idx.Value)
	}
	if idx.Group() != VeryActive {
		t.Errorf("heavy play group = %s", idx.Group())
	}
}

func TestActivityIndexMonotonic(t *testing.T) {
	th := Thresholds{PlayThreshold: 30 * time.Minute, LoginThreshold: 2}
	now := int64(100 * weekMillis)
	player := uuid.New()

	var sessions []*models.Session
	prev := -1.0
	for i := int64(0); i < 15; i++ {
		start := now - i*dayMillis - time.Hour.Milliseconds()
		sessions = append(sessions, session(player, start, start+10*time.Minute.Milliseconds()))

		got := NewActivityIndex(sessions, now, th).Value
		if got < prev {
			t.Fatalf("score decreased from %v to %v after %d sessions", prev, got, i+1)
		}
		prev = got
	}
}

func TestActivityGroup(t *testing.T) {
	tests := []struct {
		value float64
		want  string
	}{
		{4.9, VeryActive},
		{3.75, VeryActive},
		{3.1, Active},
		{2.5, Regular},
		{1, Irregular},
		{0.99, Inactive},
	}

	for _, tt := range tests {
		if got := ActivityGroup(tt.value); got != tt.want {
			t.Errorf("ActivityGroup(%v) = %s, want %s", tt.value, got, tt.want)
		}
	}
}

func TestPingsAndTPS(t *testing.T) {
	server, other := uuid.New(), uuid.New()
	pings := Pings{
		{ServerUUID: server, Average: 10, Min: 5, Max: 20},
		{ServerUUID: server, Average: 30, Min: 2, Max: 40},
		{ServerUUID: other, Average: 50, Min: 50, Max: 50},
	}

	onServer := pings.FilterByServer(server)
	if len(onServer) != 2 || onServer.Average() != 20 || onServer.Min() != 2 || onServer.Max() != 40 {
		t.Errorf("server pings: len=%d avg=%v min=%d max=%d", len(onServer), onServer.Average(), onServer.Min(), onServer.Max())
	}
	if Pings(nil).Average() != -1 || Pings(nil).Min() != -1 || Pings(nil).Max() != -1 {
		t.Error("empty pings should report -1")
	}

	tps := TPS{
		{Date: 1, TicksPerSec: 20, Players: 3, CPUUsage: -1},
		{Date: 2, TicksPerSec: 10, Players: 7, CPUUsage: 40},
		{Date: 3, TicksPerSec: 12, Players: 5, CPUUsage: 60},
		{Date: 4, TicksPerSec: 20, Players: 1, CPUUsage: 50},
		{Date: 5, TicksPerSec: 15, Players: 1, CPUUsage: 50},
	}
	if got := tps.LowTPSSpikes(LowTPSThreshold); got != 2 {
		t.Errorf("LowTPSSpikes = %d, want 2", got)
	}
	if got := tps.AverageCPU(); got != 50 {
		t.Errorf("AverageCPU = %v, want 50", got)
	}
	if peak := tps.PeakPlayers(); peak == nil || peak.Value != 7 || peak.Date != 2 {
		t.Errorf("PeakPlayers = %+v", peak)
	}
	if got := tps.Between(2, 3).AverageTPS(); math.Abs(got-11) > 1e-9 {
		t.Errorf("AverageTPS between = %v, want 11", got)
	}
}
