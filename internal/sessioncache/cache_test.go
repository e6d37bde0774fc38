package sessioncache

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/metrics"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/models"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/mutators"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/transactions"
)

var (
	lobby    = uuid.MustParse("5b1c4a0e-6d0e-4b9e-9e8a-1f0c3e6d2a01")
	survival = uuid.MustParse("5b1c4a0e-6d0e-4b9e-9e8a-1f0c3e6d2a02")
	alice    = uuid.MustParse("8e5d2c1a-3b4f-4a6e-9c7d-0a1b2c3d4e01")
	bob      = uuid.MustParse("8e5d2c1a-3b4f-4a6e-9c7d-0a1b2c3d4e02")
)

type recorder struct {
	submitted []transactions.Transaction
	err       error
}

func (r *recorder) SubmitCritical(_ context.Context, t transactions.Transaction) error {
	if r.err != nil {
		return r.err
	}
	r.submitted = append(r.submitted, t)
	return nil
}

func TestStartAndEnd(t *testing.T) {
	c := New()
	c.Start(models.NewSession(alice, lobby, 1000, "world", models.Survival))
	c.Start(models.NewSession(bob, survival, 500, "world", models.Survival))

	if got := testutil.ToFloat64(metrics.ActiveSessions); got != 2 {
		t.Errorf("active sessions gauge = %v, want 2", got)
	}

	active := c.Active()
	if len(active) != 2 || active[0].PlayerUUID != bob {
		t.Fatalf("Active() not ordered by start: %+v", active)
	}
	if got := c.ActiveFor(lobby); len(got) != 1 || got[0].PlayerUUID != alice {
		t.Errorf("ActiveFor(lobby) = %+v", got)
	}

	s, ok := c.End(alice, 61_000)
	if !ok || !s.Ended() || s.Length() != 60_000 {
		t.Fatalf("End = %+v, %v", s, ok)
	}
	if _, ok := c.Get(alice); ok {
		t.Error("ended session still cached")
	}
	if _, ok := c.End(alice, 62_000); ok {
		t.Error("second End reported a session")
	}
	if c.Len() != 1 {
		t.Errorf("Len = %d, want 1", c.Len())
	}
}

func TestRestartEndsPreviousSession(t *testing.T) {
	c := New()
	c.Start(models.NewSession(alice, lobby, 1000, "world", models.Survival))

	previous, ok := c.Start(models.NewSession(alice, survival, 5000, "world", models.Survival))
	if !ok {
		t.Fatal("previous session not returned")
	}
	if previous.End != 5000 {
		t.Errorf("previous end = %d, want 5000", previous.End)
	}
	if s, _ := c.Get(alice); s.ServerUUID != survival {
		t.Errorf("active session server = %v", s.ServerUUID)
	}
}

func TestUpdate(t *testing.T) {
	c := New()
	c.Start(models.NewSession(alice, lobby, 1000, "world", models.Survival))

	if !c.Update(alice, func(s *models.Session) { s.MobKills++ }) {
		t.Fatal("Update found no session")
	}
	if s, _ := c.Get(alice); s.MobKills != 1 {
		t.Errorf("mob kills = %d", s.MobKills)
	}
	if c.Update(bob, func(*models.Session) { t.Error("called for unknown player") }) {
		t.Error("Update reported a session for unknown player")
	}
}

func TestFlush(t *testing.T) {
	c := New()
	c.now = func() int64 { return 90_000 }
	c.Start(models.NewSession(alice, lobby, 1000, "world", models.Survival))
	c.Start(models.NewSession(bob, lobby, 2000, "world", models.Survival))

	rec := &recorder{}
	if err := c.Flush(context.Background(), rec); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if len(rec.submitted) != 2 {
		t.Errorf("submitted %d transactions, want 2", len(rec.submitted))
	}
	if c.Len() != 0 {
		t.Errorf("cache not empty after flush: %d", c.Len())
	}
}

func TestFlushReportsFailures(t *testing.T) {
	errFull := errors.New("queue closed")
	c := New()
	c.Start(models.NewSession(alice, lobby, 1000, "world", models.Survival))

	if err := c.Flush(context.Background(), &recorder{err: errFull}); !errors.Is(err, errFull) {
		t.Errorf("Flush err = %v, want %v", err, errFull)
	}
}

func TestSnapshotsAreDetached(t *testing.T) {
	c := New()
	c.now = func() int64 { return 11_000 }
	c.Start(models.NewSession(alice, lobby, 1000, "world", models.Survival))

	s, _ := c.Get(alice)
	if got := s.WorldTimes.World("world")[models.Survival]; got != 10_000 {
		t.Errorf("snapshot world time = %d, want 10000", got)
	}
	if s.Ended() {
		t.Error("snapshot of an active session is ended")
	}

	s.MobKills = 5
	s.AddPlayerKill(models.PlayerKill{Killer: alice, Victim: bob, Date: 2000})
	s.WorldTimes.Put("nether", models.Creative, 1)

	again, _ := c.Get(alice)
	if again.MobKills != 0 || len(again.PlayerKills) != 0 || again.WorldTimes.World("nether") != nil {
		t.Errorf("change to snapshot reached the cache: %+v", again)
	}
}

func TestUpdateWhileReadingActive(t *testing.T) {
	c := New()
	c.Start(models.NewSession(alice, lobby, 1000, "world", models.Survival))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worlds := []string{"world", "nether", "end"}
		for i := range 500 {
			c.Update(alice, func(s *models.Session) {
				s.ChangeState(worlds[i%len(worlds)], models.Survival, int64(2000+i))
				s.AddPlayerKill(models.PlayerKill{Killer: alice, Victim: bob, Date: int64(2000 + i)})
			})
		}
	}()

	for range 500 {
		sessions := mutators.NewSessions(c.ActiveFor(lobby))
		_ = sessions.TotalWorldTimes().Total()
		_ = sessions.PlayerKillCount()
	}
	wg.Wait()

	if got := mutators.NewSessions(c.Active()).PlayerKillCount(); got != 500 {
		t.Errorf("player kills = %d, want 500", got)
	}
}
