package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/config"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/export"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/models"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/processing"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/queries"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/sessioncache"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/storage"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/transactions"
)

var (
	testServer = uuid.MustParse("5b1c4a0e-6d0e-4b9e-9e8a-1f0c3e6d2a01")
	testPlayer = uuid.MustParse("8e5d2c1a-3b4f-4a6e-9c7d-0a1b2c3d4e01")
)

type fixture struct {
	db       *storage.Database
	pool     *processing.Pool
	sessions *sessioncache.Cache
	handler  http.Handler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	db, err := storage.OpenSQLite(filepath.Join(t.TempDir(), "plan.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := db.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	for _, u := range []struct {
		name  string
		level int
	}{
		{"admin", LevelAdmin},
		{"viewer", LevelPlayers},
	} {
		user, err := models.NewWebUser(u.name, "secret", u.level)
		if err != nil {
			t.Fatalf("NewWebUser: %v", err)
		}
		if _, err := db.ExecuteTransaction(ctx, transactions.RegisterWebUser(user)); err != nil {
			t.Fatalf("RegisterWebUser: %v", err)
		}
	}
	if _, err := db.ExecuteTransaction(ctx, transactions.ServerInfoStore(models.Server{UUID: testServer, Name: "Lobby"})); err != nil {
		t.Fatalf("ServerInfoStore: %v", err)
	}

	pool := processing.New(db, config.Processing{Workers: 1, QueueSize: 100})
	pool.Start()
	sessions := sessioncache.New()

	cfg := &config.Config{
		Server:   config.Server{UUID: testServer.String()},
		Activity: config.Activity{PlayThreshold: 30 * time.Minute, LoginThreshold: 2},
		HTTP:     config.HTTP{MaxBodySize: 1 << 16, AuthCacheTTL: time.Minute},
	}
	s := New(db, pool, sessions, nil, cfg)
	s.StartWorkers()

	t.Cleanup(func() {
		s.StopWorkers()
		pool.Stop()
		_ = db.Close()
	})

	return &fixture{db: db, pool: pool, sessions: sessions, handler: s.Run()}
}

func (f *fixture) do(method, target, user, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if user != "" {
		req.SetBasicAuth(user, "secret")
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

// settle waits until queued transactions are executed. The pool accepts
// nothing afterwards.
func (f *fixture) settle(t *testing.T) {
	t.Helper()
	f.pool.Stop()
}

func TestAuthentication(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name   string
		user   string
		target string
		want   int
	}{
		{"no credentials", "", "/api/network", http.StatusUnauthorized},
		{"unknown user", "nobody", "/api/network", http.StatusUnauthorized},
		{"insufficient level", "viewer", "/api/network", http.StatusForbidden},
		{"admin", "admin", "/api/network", http.StatusOK},
		{"viewer reads server as forbidden", "viewer", "/api/raw/server", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(http.MethodGet, tt.target, tt.user, "")
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestEventsJoinAndLeave(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	body := `[
		{"type":"join","time":1000,"player":"` + testPlayer.String() + `","name":"Alice","world":"world","game_mode":"SURVIVAL"},
		{"type":"mob_kill","time":2000,"player":"` + testPlayer.String() + `"},
		{"type":"leave","time":61000,"player":"` + testPlayer.String() + `"},
		{"type":"death","player":"` + testPlayer.String() + `"},
		{"type":"bogus","player":"` + testPlayer.String() + `"}
	]`
	rec := f.do(http.MethodPost, "/api/events", "admin", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var resp eventsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Accepted != 3 || resp.Rejected != 2 {
		t.Errorf("response = %+v, want 3 accepted and 2 rejected", resp)
	}
	if f.sessions.Len() != 0 {
		t.Errorf("active sessions = %d, want 0", f.sessions.Len())
	}

	f.settle(t)

	registered, err := storage.Query(ctx, f.db, queries.IsPlayerRegisteredOnServer(testPlayer, testServer))
	if err != nil || !registered {
		t.Fatalf("registered = %v, %v", registered, err)
	}
	sessions, err := storage.Query(ctx, f.db, queries.FetchSessionsOfPlayer(testPlayer))
	if err != nil {
		t.Fatalf("fetch sessions: %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("stored %d sessions, want 1", len(sessions))
	}
	if got := sessions[0]; got.Length() != 60_000 || got.MobKills != 1 {
		t.Errorf("session = %+v", got)
	}
}

func TestEventsInvalidJSON(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodPost, "/api/events", "admin", `{"type":`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestRawPlayer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.db.ExecuteTransaction(ctx, transactions.PlayerServerRegister(testPlayer, testServer, 1000, "Alice")); err != nil {
		t.Fatalf("register: %v", err)
	}

	t.Run("by name", func(t *testing.T) {
		rec := f.do(http.MethodGet, "/api/raw/player?player=alice", "viewer", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
		}

		var got export.Player
		if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if got.UUID != testPlayer || got.Name != "Alice" {
			t.Errorf("player = %+v", got)
		}

		etag := rec.Header().Get("ETag")
		if etag == "" {
			t.Fatal("missing ETag")
		}
		req := httptest.NewRequest(http.MethodGet, "/api/raw/player?player="+testPlayer.String(), nil)
		req.SetBasicAuth("viewer", "secret")
		req.Header.Set("If-None-Match", etag)
		again := httptest.NewRecorder()
		f.handler.ServeHTTP(again, req)
		if again.Code != http.StatusNotModified {
			t.Errorf("conditional status = %d, want 304", again.Code)
		}
	})

	t.Run("unknown", func(t *testing.T) {
		rec := f.do(http.MethodGet, "/api/raw/player?player="+uuid.NewString(), "viewer", "")
		if rec.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", rec.Code)
		}
	})

	t.Run("missing parameter", func(t *testing.T) {
		rec := f.do(http.MethodGet, "/api/raw/player", "viewer", "")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})
}

func TestRawServer(t *testing.T) {
	f := newFixture(t)

	rec := f.do(http.MethodGet, "/api/raw/server", "admin", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var got export.Server
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.UUID != testServer || got.Name != "Lobby" {
		t.Errorf("server = %+v", got)
	}

	if rec := f.do(http.MethodGet, "/api/raw/server?server="+uuid.NewString(), "admin", ""); rec.Code != http.StatusNotFound {
		t.Errorf("unknown server status = %d, want 404", rec.Code)
	}
	if rec := f.do(http.MethodGet, "/api/raw/server?server=nope", "admin", ""); rec.Code != http.StatusBadRequest {
		t.Errorf("invalid server status = %d, want 400", rec.Code)
	}
}

func TestGetRealIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:5000"
	req.Header.Set("X-Forwarded-For", "1.2.3.4, 10.0.0.1")

	if got := GetRealIP(req, false); got != "10.0.0.1" {
		t.Errorf("untrusted = %q", got)
	}
	if got := GetRealIP(req, true); got != "1.2.3.4" {
		t.Errorf("trusted = %q", got)
	}
}
