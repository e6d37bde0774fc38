package export

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/containers"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/models"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/mutators"
)

var playerUUID = uuid.MustParse("8e5d2c1a-3b4f-4a6e-9c7d-0a1b2c3d4e01")

func TestPlayerDataSkipsUnsupportedKeys(t *testing.T) {
	c := containers.New()
	containers.Put(c, containers.PlayerUUID, playerUUID)
	containers.Put(c, containers.PlayerName, "Alice")
	containers.Put(c, containers.Activity, mutators.ActivityIndex{Value: 3.2})
	wt := models.NewWorldTimes()
	wt.Put("world", models.Survival, 1000)
	containers.Put(c, containers.PlayerWorldTimes, wt)

	p, err := PlayerData(c)
	if err != nil {
		t.Fatalf("PlayerData: %v", err)
	}
	if p.Name != "Alice" || p.ActivityGroup != mutators.Active {
		t.Errorf("player = %+v", p)
	}

	var buf bytes.Buffer
	if err := Write(&buf, p); err != nil {
		t.Fatalf("Write: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded["uuid"] != playerUUID.String() {
		t.Errorf("uuid = %v", decoded["uuid"])
	}
	times, ok := decoded["world_times"].(map[string]any)
	if !ok || times["world"] == nil {
		t.Errorf("world_times = %v", decoded["world_times"])
	}
}

func TestSupplierErrorStopsExport(t *testing.T) {
	errDown := errors.New("database down")
	c := containers.New()
	containers.PutSupplier(c, containers.ServerName, func() (string, error) { return "", errDown })

	if _, err := ServerData(c); !errors.Is(err, errDown) {
		t.Errorf("ServerData err = %v, want %v", err, errDown)
	}
}

func TestMarshalIsCompact(t *testing.T) {
	b, err := Marshal(Network{PlayerCount: 2})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if strings.Contains(string(b), "\n") || !strings.Contains(string(b), `"player_count":2`) {
		t.Errorf("Marshal = %s", b)
	}
}
