package geoip

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/skmedix/Plan-PlayerAnalytics/internal/models"
)

func TestEnsureDB(t *testing.T) {
	downloads := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/GeoLite2-Country.mmdb" {
			http.NotFound(w, r)
			return
		}
		downloads++
		_, _ = w.Write([]byte("mmdb"))
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "GeoLite2-Country.mmdb")
	ctx := context.Background()

	updated, err := EnsureDB(ctx, path, srv.URL+"/GeoLite2-Country.mmdb", time.Hour)
	if err != nil || !updated {
		t.Fatalf("first EnsureDB = %v, %v", updated, err)
	}
	if b, _ := os.ReadFile(path); string(b) != "mmdb" {
		t.Errorf("content = %q", b)
	}

	updated, err = EnsureDB(ctx, path, srv.URL+"/GeoLite2-Country.mmdb", time.Hour)
	if err != nil || updated {
		t.Errorf("fresh database re-downloaded: %v, %v", updated, err)
	}

	old := time.Now().Add(-2 * time.Hour)
	if err := os.Chtimes(path, old, old); err != nil {
		t.Fatal(err)
	}
	if _, err := EnsureDB(ctx, path, srv.URL+"/GeoLite2-Country.mmdb", time.Hour); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if downloads != 2 {
		t.Errorf("downloads = %d, want 2", downloads)
	}
}

func TestEnsureDBKeepsFileOnFailedDownload(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "GeoLite2-Country.mmdb")
	if _, err := EnsureDB(context.Background(), path, srv.URL, time.Hour); err == nil {
		t.Fatal("expected error for 404")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("database written after failed download: %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Errorf("temporary file left behind: %v", err)
	}
}

func TestGeolocationWithoutDatabase(t *testing.T) {
	var p *Provider
	if got := p.Geolocation("1.1.1.1"); got != models.UnknownGeolocation {
		t.Errorf("Geolocation = %q", got)
	}
	g := p.GeoInfo("1.1.1.1", 500)
	if g.Geolocation != models.UnknownGeolocation || g.IPHash != models.HashIP("1.1.1.1") || g.LastUsed != 500 {
		t.Errorf("GeoInfo = %+v", g)
	}
}

func TestOpenMissingFile(t *testing.T) {
	if _, err := Open(filepath.Join(t.TempDir(), "missing.mmdb")); err == nil {
		t.Error("expected error")
	}
}
