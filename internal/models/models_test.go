package models

import (
	"errors"
	"testing"

	"github.com/google/uuid"
)

func TestSessionLifecycle(t *testing.T) {
	player, server := uuid.New(), uuid.New()
	s := NewSession(player, server, 1000, "world", Survival)

	if s.Ended() {
		t.Fatal("new session should be active")
	}

	s.ChangeState("world_nether", Creative, 4000)
	s.AddAFKTime(500)
	s.EndSession(6000)

	if !s.Ended() {
		t.Fatal("session should be ended")
	}
	if got := s.Length(); got != 5000 {
		t.Errorf("Length = %d, want 5000", got)
	}
	if got := s.ActiveTime(); got != 4500 {
		t.Errorf("ActiveTime = %d, want 4500", got)
	}
	if got := s.WorldTimes.World("world")[Survival]; got != 3000 {
		t.Errorf("world survival = %d, want 3000", got)
	}
	if got := s.WorldTimes.World("world_nether")[Creative]; got != 2000 {
		t.Errorf("nether creative = %d, want 2000", got)
	}
	if got := s.WorldTimes.Total(); got != s.Length() {
		t.Errorf("world times total %d should equal length %d", got, s.Length())
	}
}

func TestWorldTimesAdd(t *testing.T) {
	a := NewWorldTimes()
	a.Put("world", Survival, 100)
	b := NewWorldTimes()
	b.Put("world", Survival, 50)
	b.Put("world", Adventure, 25)
	b.Put("end", Spectator, 10)

	a.Add(b)

	tests := []struct {
		world, mode string
		want        int64
	}{
		{"world", Survival, 150},
		{"world", Adventure, 25},
		{"end", Spectator, 10},
	}
	for _, tt := range tests {
		if got := a.World(tt.world)[tt.mode]; got != tt.want {
			t.Errorf("%s/%s = %d, want %d", tt.world, tt.mode, got, tt.want)
		}
	}
	if got := a.GMTotals()[Survival]; got != 150 {
		t.Errorf("survival total = %d, want 150", got)
	}
	if a.Total() != 185 {
		t.Errorf("Total = %d, want 185", a.Total())
	}
}

func TestWorldTimesEqualIgnoresZeroes(t *testing.T) {
	a := NewWorldTimes()
	a.Put("world", Survival, 100)
	a.Put("world", Creative, 0)
	b := NewWorldTimes()
	b.Put("world", Survival, 100)

	if !a.Equal(b) {
		t.Error("zero entries should not affect equality")
	}

	b.Put("world", Survival, 101)
	if a.Equal(b) {
		t.Error("different values should not be equal")
	}
}

func TestHashIP(t *testing.T) {
	g := NewGeoInfo("1.2.3.4", "", 10)
	if g.Geolocation != UnknownGeolocation {
		t.Errorf("Geolocation = %q, want %q", g.Geolocation, UnknownGeolocation)
	}
	if g.IPHash != HashIP("1.2.3.4") || g.IPHash == HashIP("1.2.3.5") {
		t.Error("hash must be deterministic and address specific")
	}
}

func TestWebUserPassword(t *testing.T) {
	u, err := NewWebUser("admin", "secret", 0)
	if err != nil {
		t.Fatalf("NewWebUser: %v", err)
	}
	if len(u.PasswordHash) > 100 {
		t.Errorf("hash length %d exceeds column size", len(u.PasswordHash))
	}

	tests := []struct {
		password string
		want     bool
	}{
		{"secret", true},
		{"Secret", false},
		{"", false},
	}
	for _, tt := range tests {
		ok, err := u.CheckPassword(tt.password)
		if err != nil {
			t.Fatalf("CheckPassword: %v", err)
		}
		if ok != tt.want {
			t.Errorf("CheckPassword(%q) = %v, want %v", tt.password, ok, tt.want)
		}
	}

	other, _ := NewWebUser("admin", "secret", 0)
	if other.PasswordHash == u.PasswordHash {
		t.Error("salts should differ between hashes")
	}

	bad := WebUser{PasswordHash: "sha1:1:abc"}
	if _, err := bad.CheckPassword("x"); !errors.Is(err, ErrMalformedHash) {
		t.Errorf("expected ErrMalformedHash, got %v", err)
	}
}
