package containers

import (
	"context"
	"errors"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/models"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/mutators"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/storage"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/transactions"
)

var (
	serverUUID = uuid.MustParse("5b1c4a0e-6d0e-4b9e-9e8a-1f0c3e6d2a01")
	playerUUID = uuid.MustParse("8e5d2c1a-3b4f-4a6e-9c7d-0a1b2c3d4e01")
)

func TestSupplierIsEvaluatedOnAccess(t *testing.T) {
	errBoom := errors.New("boom")
	key := NewKey[int]("failing")

	c := New()
	calls := 0
	PutSupplier(c, key, func() (int, error) {
		calls++
		return 0, errBoom
	})

	if !c.Supports(key) {
		t.Fatal("Supports = false for registered key")
	}
	if calls != 0 {
		t.Fatalf("supplier ran %d times before access", calls)
	}

	if _, _, err := GetValue(c, key); !errors.Is(err, errBoom) {
		t.Errorf("GetValue err = %v, want %v", err, errBoom)
	}
	if _, err := GetUnsafe(c, key); !errors.Is(err, errBoom) {
		t.Errorf("GetUnsafe err = %v, want %v", err, errBoom)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestMissingAndMismatchedKeys(t *testing.T) {
	c := New()
	Put(c, NewKey[int]("count"), 3)

	tests := []struct {
		name string
		key  Key[string]
	}{
		{"absent", NewKey[string]("missing")},
		{"type mismatch", NewKey[string]("count")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, ok, err := GetValue(c, tt.key)
			if ok || err != nil || v != "" {
				t.Errorf("GetValue = %q, %v, %v", v, ok, err)
			}
			if _, err := GetUnsafe(c, tt.key); !errors.Is(err, ErrUnsupportedKey) {
				t.Errorf("GetUnsafe err = %v, want ErrUnsupportedKey", err)
			}
		})
	}

	if got, err := GetUnsafe(c, NewKey[int]("count")); err != nil || got != 3 {
		t.Errorf("GetUnsafe = %d, %v", got, err)
	}
}

func TestCachingSupplier(t *testing.T) {
	calls := 0
	cs := NewCachingSupplier(func() (int, error) {
		calls++
		return calls, nil
	}, time.Minute)
	now := time.Unix(0, 0)
	cs.now = func() time.Time { return now }

	for range 3 {
		if v, _ := cs.Get(); v != 1 {
			t.Fatalf("Get = %d, want cached 1", v)
		}
	}

	now = now.Add(time.Minute)
	if v, _ := cs.Get(); v != 2 {
		t.Errorf("Get after ttl = %d, want 2", v)
	}
}

func TestCachingSupplierRetriesErrors(t *testing.T) {
	fail := true
	cs := NewCachingSupplier(func() (string, error) {
		if fail {
			return "", errors.New("unavailable")
		}
		return "ok", nil
	}, 0)

	if _, err := cs.Get(); err == nil {
		t.Fatal("expected error")
	}
	fail = false
	if v, err := cs.Get(); err != nil || v != "ok" {
		t.Errorf("Get = %q, %v", v, err)
	}
}

func TestDerivedKeyReadsLaterRegistration(t *testing.T) {
	list := NewKey[[]string]("list")
	size := NewKey[int]("size")

	c := New()
	PutSupplier(c, size, derive(c, list, func(l []string) int { return len(l) }))
	Put(c, list, []string{"a", "b"})

	if n, err := GetUnsafe(c, size); err != nil || n != 2 {
		t.Errorf("size = %d, %v", n, err)
	}

	c.Clear()
	if c.Supports(size) || len(c.Keys()) != 0 {
		t.Error("Clear left keys behind")
	}
}

type activeSessions map[uuid.UUID]*models.Session

func (a activeSessions) Get(player uuid.UUID) (*models.Session, bool) {
	s, ok := a[player]
	return s, ok
}

func (a activeSessions) ActiveFor(server uuid.UUID) []*models.Session {
	var out []*models.Session
	for _, s := range a {
		if s.ServerUUID == server {
			out = append(out, s)
		}
	}
	return out
}

func (a activeSessions) Active() []*models.Session {
	return a.ActiveFor(serverUUID)
}

func openSource(t *testing.T) Source {
	t.Helper()

	ctx := context.Background()
	db, err := storage.OpenSQLite(filepath.Join(t.TempDir(), "plan.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if err := db.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	stored := models.NewSession(playerUUID, serverUUID, 10_000, "world", models.Survival)
	stored.Deaths = 2
	stored.EndSession(70_000)
	for _, tr := range []transactions.Transaction{
		transactions.ServerInfoStore(models.Server{UUID: serverUUID, Name: "Lobby"}),
		transactions.PlayerServerRegister(playerUUID, serverUUID, 1000, "Alice"),
		transactions.OperatorStatus(playerUUID, serverUUID, true),
		transactions.SessionEnd(stored),
		transactions.TPSStore(serverUUID, models.TPS{Date: 50_000, Players: 7}),
	} {
		if _, err := db.ExecuteTransaction(ctx, tr); err != nil {
			t.Fatalf("%s: %v", tr.Name(), err)
		}
	}

	return Source{
		DB: db,
		Sessions: activeSessions{
			playerUUID: models.NewSession(playerUUID, serverUUID, 100_000, "world", models.Creative),
		},
		Thresholds: mutators.Thresholds{PlayThreshold: 30 * time.Minute, LoginThreshold: 2},
		Now:        func() int64 { return 130_000 },
	}
}

func TestPlayerContainer(t *testing.T) {
	c := Player(context.Background(), openSource(t), playerUUID)

	if name, err := GetUnsafe(c, PlayerName); err != nil || name != "Alice" {
		t.Errorf("name = %q, %v", name, err)
	}
	if op, err := GetUnsafe(c, Operator); err != nil || !op {
		t.Errorf("operator = %v, %v", op, err)
	}

	sessions, err := GetUnsafe(c, PlayerSessions)
	if err != nil {
		t.Fatalf("sessions: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("sessions = %d, want stored and active", len(sessions))
	}

	// stored 60s plus the active session up to now
	if pt, _ := GetUnsafe(c, Playtime); pt != 90_000 {
		t.Errorf("playtime = %d, want 90000", pt)
	}
	if last, _ := GetUnsafe(c, LastSeen); last != 130_000 {
		t.Errorf("last seen = %d", last)
	}
	wt, _ := GetUnsafe(c, PlayerWorldTimes)
	if got := wt.World("world")[models.Survival]; got != 60_000 {
		t.Errorf("survival time = %d", got)
	}
	if idx, err := GetUnsafe(c, Activity); err != nil || idx.Value <= 0 {
		t.Errorf("activity = %+v, %v", idx, err)
	}
}

func TestServerContainer(t *testing.T) {
	src := openSource(t)
	c, err := Server(context.Background(), src, serverUUID)
	if err != nil {
		t.Fatalf("server: %v", err)
	}

	if n, err := GetUnsafe(c, ServerPlayerCount); err != nil || n != 1 {
		t.Errorf("player count = %d, %v", n, err)
	}
	if ops, _ := GetUnsafe(c, Operators); !slices.Equal(ops, []uuid.UUID{playerUUID}) {
		t.Errorf("operators = %v", ops)
	}
	if deaths, _ := GetUnsafe(c, DeathCount); deaths != 2 {
		t.Errorf("deaths = %d", deaths)
	}
	if peak, _ := GetUnsafe(c, AllTimePeak); peak == nil || peak.Value != 7 {
		t.Errorf("all time peak = %+v", peak)
	}

	unknown, err := Server(context.Background(), src, uuid.New())
	if err != nil {
		t.Fatalf("unknown server: %v", err)
	}
	if unknown.Supports(ServerName) {
		t.Error("unknown server container has a name")
	}
}

func TestNetworkContainer(t *testing.T) {
	c := Network(context.Background(), openSource(t))

	views, err := GetUnsafe(c, NetworkServerViews)
	if err != nil {
		t.Fatalf("servers: %v", err)
	}
	name, err := GetUnsafe(views[serverUUID], ServerName)
	if err != nil || name != "Lobby" {
		t.Errorf("server name = %q, %v", name, err)
	}
	if n, _ := GetUnsafe(c, NetworkPlayerCount); n != 1 {
		t.Errorf("players = %d", n)
	}
	if sessions, _ := GetUnsafe(c, NetworkSessions); len(sessions) != 2 {
		t.Errorf("sessions = %d", len(sessions))
	}
}
