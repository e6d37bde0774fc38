package storage

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/google/uuid"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/access"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/models"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/queries"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/transactions"
)

var (
	serverUUID = uuid.MustParse("5b1c4a0e-6d0e-4b9e-9e8a-1f0c3e6d2a01")
	playerUUID = uuid.MustParse("8e5d2c1a-3b4f-4a6e-9c7d-0a1b2c3d4e01")
	victimUUID = uuid.MustParse("8e5d2c1a-3b4f-4a6e-9c7d-0a1b2c3d4e02")
)

func openDatabase(t *testing.T, name string) *Database {
	t.Helper()

	db, err := OpenSQLite(filepath.Join(t.TempDir(), name))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err := db.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}

	return db
}

func execute(t *testing.T, db *Database, tr transactions.Transaction) {
	t.Helper()

	state, err := db.ExecuteTransaction(context.Background(), tr)
	if err != nil {
		t.Fatalf("%s: %v", tr.Name(), err)
	}
	if state != transactions.Committed && state != transactions.Skipped {
		t.Fatalf("%s ended %s", tr.Name(), state)
	}
}

func query[T any](t *testing.T, db *Database, q access.Query[T]) T {
	t.Helper()

	v, err := Query(context.Background(), db, q)
	if err != nil {
		t.Fatalf("query: %v", err)
	}

	return v
}

func endedSession(start, end int64) *models.Session {
	s := models.NewSession(playerUUID, serverUUID, start, "world", models.Survival)
	s.ChangeState("world_nether", models.Creative, start+(end-start)/2)
	s.AddPlayerKill(models.PlayerKill{Killer: playerUUID, Victim: victimUUID, Weapon: "Bow", Date: start + 10})
	s.Deaths = 1
	s.MobKills = 4
	s.AFKTime = 100
	s.EndSession(end)

	return s
}

// populate stores one of everything.
func populate(t *testing.T, db *Database) {
	t.Helper()

	execute(t, db, transactions.ServerInfoStore(models.Server{UUID: serverUUID, Name: "Lobby", Installed: true, MaxPlayers: 20}))
	execute(t, db, transactions.PlayerServerRegister(playerUUID, serverUUID, 1000, "Alice"))
	execute(t, db, transactions.PlayerServerRegister(victimUUID, serverUUID, 2000, "Bob"))
	execute(t, db, transactions.SessionEnd(endedSession(5000, 65000)))
	execute(t, db, transactions.GeoInfoStore(playerUUID, models.NewGeoInfo("10.0.0.1", "Finland", 5000)))
	execute(t, db, transactions.NicknameStore(playerUUID, models.Nickname{Name: "Ally", ServerUUID: serverUUID, Date: 6000}))
	execute(t, db, transactions.CommandStore(serverUUID, "plan"))
	execute(t, db, transactions.TPSStore(serverUUID, models.TPS{Date: 7000, TicksPerSec: 19.8, Players: 2, CPUUsage: 12.5, UsedMemory: 2048, FreeDiskSpace: 100}))
	execute(t, db, transactions.PingStore(playerUUID, serverUUID, 8000, []int{40, 10, 30}))
	execute(t, db, transactions.KickStore(playerUUID))
	execute(t, db, transactions.OperatorStatus(playerUUID, serverUUID, true))
	execute(t, db, transactions.StoreConfig(models.ServerConfig{ServerUUID: serverUUID, Updated: 9000, Content: "a: 1"}))

	user, err := models.NewWebUser("admin", "secret", 0)
	if err != nil {
		t.Fatalf("web user: %v", err)
	}
	execute(t, db, transactions.RegisterWebUser(user))
}

func TestSessionRoundTrip(t *testing.T) {
	db := openDatabase(t, "plan.db")
	populate(t, db)

	stored := query(t, db, queries.FetchSessionsOfPlayer(playerUUID))
	if len(stored) != 1 {
		t.Fatalf("sessions = %d, want 1", len(stored))
	}

	want := endedSession(5000, 65000)
	if !stored[0].Equal(want) {
		t.Errorf("stored session = %+v\nwant %+v", stored[0], want)
	}
	if stored[0].ID == 0 {
		t.Error("stored session has no id")
	}
	if name := stored[0].PlayerKills[0].VictimName; name != "Bob" {
		t.Errorf("victim name = %q", name)
	}
}

func TestGeoInfoUpsertKeepsOneRow(t *testing.T) {
	db := openDatabase(t, "plan.db")
	execute(t, db, transactions.PlayerRegister(playerUUID, 0, "Alice"))

	for _, at := range []int64{1000, 3000, 5000} {
		execute(t, db, transactions.GeoInfoStore(playerUUID, models.NewGeoInfo("10.0.0.1", "Finland", at)))
	}

	geo := query(t, db, queries.FetchGeoInfosOfPlayer(playerUUID))
	if len(geo) != 1 {
		t.Fatalf("rows = %d, want 1", len(geo))
	}
	if geo[0].LastUsed != 5000 {
		t.Errorf("last used = %d, want 5000", geo[0].LastUsed)
	}
}

func TestCommandUseIsCounted(t *testing.T) {
	db := openDatabase(t, "plan.db")
	execute(t, db, transactions.ServerInfoStore(models.Server{UUID: serverUUID, Name: "Lobby"}))

	for range 3 {
		execute(t, db, transactions.CommandStore(serverUUID, "plan"))
	}

	usage := query(t, db, queries.FetchCommandUsageOfServer(serverUUID))
	if usage["plan"] != 3 || len(usage) != 1 {
		t.Errorf("usage = %v", usage)
	}
}

func TestStoringActiveSessionFails(t *testing.T) {
	db := openDatabase(t, "plan.db")

	active := models.NewSession(playerUUID, serverUUID, 1000, "world", models.Survival)
	state, err := db.ExecuteTransaction(context.Background(), transactions.SessionEnd(active))
	if !errors.Is(err, queries.ErrSessionNotEnded) || !errors.Is(err, access.ErrOperation) {
		t.Fatalf("err = %v", err)
	}
	if state != transactions.RolledBack {
		t.Errorf("state = %s", state)
	}
}

func TestStoringEmptySessionFails(t *testing.T) {
	db := openDatabase(t, "plan.db")

	for _, end := range []int64{1000, 500} {
		s := models.NewSession(playerUUID, serverUUID, 1000, "world", models.Survival)
		s.EndSession(end)

		state, err := db.ExecuteTransaction(context.Background(), transactions.SessionEnd(s))
		if !errors.Is(err, queries.ErrSessionLength) || !errors.Is(err, access.ErrOperation) {
			t.Fatalf("end %d: err = %v", end, err)
		}
		if state != transactions.RolledBack {
			t.Errorf("end %d: state = %s", end, state)
		}
	}

	sessions := query(t, db, queries.FetchSessionsOfPlayer(playerUUID))
	if len(sessions) != 0 {
		t.Errorf("stored %d sessions, want 0", len(sessions))
	}
}

func TestFailedTransactionRollsBack(t *testing.T) {
	db := openDatabase(t, "plan.db")
	boom := errors.New("boom")

	state, err := db.ExecuteTransaction(context.Background(), transactions.Func{
		Label: "Failing",
		Perform: func(ctx context.Context, tx *transactions.Tx) error {
			if _, err := tx.Execute(ctx, queries.RegisterUser(playerUUID, 0, "Alice")); err != nil {
				return err
			}
			return boom
		},
	})

	var opErr *access.OpError
	if !errors.As(err, &opErr) || opErr.Op != "transaction" || opErr.Statement != "Failing" || !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	if state != transactions.RolledBack {
		t.Errorf("state = %s", state)
	}
	if query(t, db, queries.IsPlayerRegistered(playerUUID)) {
		t.Error("insert of a rolled back transaction is visible")
	}
}

func TestSkippedTransaction(t *testing.T) {
	db := openDatabase(t, "plan.db")
	ran := false

	state, err := db.ExecuteTransaction(context.Background(), transactions.Func{
		Label:  "Never",
		Should: func(transactions.Database) bool { return false },
		Perform: func(context.Context, *transactions.Tx) error {
			ran = true
			return nil
		},
	})
	if err != nil || state != transactions.Skipped || ran {
		t.Errorf("state = %s, err = %v, ran = %v", state, err, ran)
	}

	state, _ = db.ExecuteTransaction(context.Background(), transactions.PingStore(playerUUID, serverUUID, 0, nil))
	if state != transactions.Skipped {
		t.Errorf("empty ping window state = %s", state)
	}
}

func TestFetchSizeIsEnforced(t *testing.T) {
	db := openDatabase(t, "plan.db")
	execute(t, db, transactions.PlayerRegister(playerUUID, 0, "Alice"))
	execute(t, db, transactions.PlayerRegister(victimUUID, 0, "Bob"))

	_, err := Query(context.Background(), db, access.QueryStatement[[]uuid.UUID]{
		SQL:       "SELECT uuid FROM plan_users",
		FetchSize: 1,
		Map: func(rows *access.Rows) ([]uuid.UUID, error) {
			return access.ScanAll(rows, func(rows *access.Rows) (uuid.UUID, error) {
				var id uuid.UUID
				err := rows.Scan(&id)
				return id, err
			})
		},
	})
	if !errors.Is(err, access.ErrTooManyRows) {
		t.Errorf("err = %v, want ErrTooManyRows", err)
	}
}

func TestClosedDatabaseRejectsWork(t *testing.T) {
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "plan.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = db.Close() }()

	if _, err := Query(context.Background(), db, queries.FetchUsers()); !errors.Is(err, access.ErrClosed) || !errors.Is(err, access.ErrOperation) {
		t.Errorf("query before init: %v", err)
	}
	if _, err := db.ExecuteTransaction(context.Background(), transactions.KickStore(playerUUID)); !errors.Is(err, access.ErrClosed) {
		t.Errorf("transaction before init: %v", err)
	}
}

func TestReopeningPatchedDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plan.db")
	ctx := context.Background()

	for i := range 2 {
		db, err := OpenSQLite(path)
		if err != nil {
			t.Fatalf("open #%d: %v", i+1, err)
		}
		if err := db.Init(ctx); err != nil {
			t.Fatalf("init #%d: %v", i+1, err)
		}
		if !db.IsOpen() {
			t.Errorf("state after init = %s", db.State())
		}
		if err := db.Close(); err != nil {
			t.Fatalf("close: %v", err)
		}
		if db.State() != Closed {
			t.Errorf("state after close = %s", db.State())
		}
	}
}

func TestBackupCopy(t *testing.T) {
	source := openDatabase(t, "source.db")
	populate(t, source)
	backup := openDatabase(t, "backup.db")
	execute(t, backup, transactions.PlayerRegister(uuid.New(), 0, "Stale"))

	state, err := backup.ExecuteTransaction(context.Background(), transactions.BackupCopy(source))
	if err != nil || state != transactions.Committed {
		t.Fatalf("backup: %s, %v", state, err)
	}

	assertSame(t, "users", query(t, source, queries.FetchUsers()), query(t, backup, queries.FetchUsers()))
	assertSame(t, "user info", query(t, source, queries.FetchUserInfos()), query(t, backup, queries.FetchUserInfos()))
	assertSame(t, "geo", query(t, source, queries.FetchGeoInfos()), query(t, backup, queries.FetchGeoInfos()))
	assertSame(t, "nicknames", query(t, source, queries.FetchNicknames()), query(t, backup, queries.FetchNicknames()))
	assertSame(t, "worlds", query(t, source, queries.FetchWorlds()), query(t, backup, queries.FetchWorlds()))
	assertSame(t, "tps", query(t, source, queries.FetchTPS()), query(t, backup, queries.FetchTPS()))
	assertSame(t, "pings", query(t, source, queries.FetchPings()), query(t, backup, queries.FetchPings()))
	assertSame(t, "commands", query(t, source, queries.FetchCommandUsage()), query(t, backup, queries.FetchCommandUsage()))
	assertSame(t, "web users", query(t, source, queries.FetchWebUsers()), query(t, backup, queries.FetchWebUsers()))
	assertSame(t, "settings", query(t, source, queries.FetchSettings()), query(t, backup, queries.FetchSettings()))

	want := query(t, source, queries.FetchAllSessions())
	got := query(t, backup, queries.FetchAllSessions())
	if len(got) != len(want) {
		t.Fatalf("sessions = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Errorf("session %d = %+v, want %+v", i, got[i], want[i])
		}
	}

	state, err = source.ExecuteTransaction(context.Background(), transactions.BackupCopy(source))
	if err != nil || state != transactions.Skipped {
		t.Errorf("copy onto itself: %s, %v", state, err)
	}
}

func assertSame[T any](t *testing.T, what string, want, got T) {
	t.Helper()

	if !reflect.DeepEqual(want, got) {
		t.Errorf("%s differ:\n got %+v\nwant %+v", what, got, want)
	}
}
