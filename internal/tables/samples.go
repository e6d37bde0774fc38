package tables

import (
	"github.com/google/uuid"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/access"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/dbtype"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/models"
)

// CreatePingTable is the DDL of plan_ping.
func CreatePingTable(t dbtype.Type) string {
	return NewCreateTable(PingTable, t).
		PrimaryKey("id").
		Column("uuid", Varchar(36)).NotNull().
		Column("server_uuid", Varchar(36)).NotNull().
		Column("date", Long).NotNull().
		Column("max_ping", Int).NotNull().
		Column("min_ping", Int).NotNull().
		Column("avg_ping", Double).NotNull().
		String()
}

const (
	InsertPingSQL = "INSERT INTO plan_ping (uuid, server_uuid, date, max_ping, min_ping, avg_ping) VALUES (?, ?, ?, ?, ?, ?)"

	SelectPingSQL = "SELECT uuid, server_uuid, date, max_ping, min_ping, avg_ping FROM plan_ping"
)

// BindPing adds the InsertPingSQL parameters.
func BindPing(p access.Binder, ping models.Ping) {
	p.Add(ping.PlayerUUID, ping.ServerUUID, ping.Date, ping.Max, ping.Min, ping.Average)
}

// ScanPing reads a SelectPingSQL row.
func ScanPing(rows *access.Rows) (models.Ping, error) {
	var p models.Ping
	err := rows.Scan(&p.PlayerUUID, &p.ServerUUID, &p.Date, &p.Max, &p.Min, &p.Average)
	return p, err
}

// CreateCommandUseTable is the DDL of plan_commandusages.
func CreateCommandUseTable(t dbtype.Type) string {
	return NewCreateTable(CommandUseTable, t).
		PrimaryKey("id").
		Column("command", Varchar(20)).NotNull().
		Column("times_used", Int).NotNull().
		Column("server_id", Int).NotNull().
		ForeignKey("server_id", ServerTable, "id").
		String()
}

var commandUseKey = []string{"server_id", "command"}

const (
	InsertCommandUseSQL = "INSERT INTO plan_commandusages (command, times_used, server_id) VALUES (?, ?, " + SelectServerIDSQL + ")"

	SelectCommandUseSQL = "SELECT command, times_used FROM plan_commandusages WHERE server_id=" + SelectServerIDSQL
)

// UpsertCommandUseSQL inserts a command counter, or adds to the existing one.
func UpsertCommandUseSQL(t dbtype.Type) string {
	return InsertCommandUseSQL + t.Upsert(commandUseKey, nil, "times_used")
}

// TruncateCommand cuts a command name to the column width.
func TruncateCommand(command string) string {
	if len(command) > 20 {
		return command[:20]
	}

	return command
}

// CreateTPSTable is the DDL of plan_tps.
func CreateTPSTable(t dbtype.Type) string {
	return NewCreateTable(TPSTable, t).
		Column("server_id", Int).NotNull().
		Column("date", Long).NotNull().
		Column("tps", Double).NotNull().
		Column("players_online", Int).NotNull().
		Column("cpu_usage", Double).NotNull().
		Column("ram_usage", Long).NotNull().
		Column("entities", Int).NotNull().
		Column("chunks_loaded", Int).NotNull().
		Column("free_disk_space", Long).NotNull().
		ForeignKey("server_id", ServerTable, "id").
		String()
}

const (
	InsertTPSSQL = "INSERT INTO plan_tps (server_id, date, tps, players_online, cpu_usage, ram_usage, entities, chunks_loaded, free_disk_space) VALUES (" +
		SelectServerIDSQL + ", ?, ?, ?, ?, ?, ?, ?, ?)"

	SelectTPSSQL = "SELECT date, tps, players_online, cpu_usage, ram_usage, entities, chunks_loaded, free_disk_space FROM plan_tps"

	SelectTPSWithServerSQL = "SELECT plan_servers.uuid, date, tps, players_online, cpu_usage, ram_usage, entities, chunks_loaded, free_disk_space " +
		"FROM plan_tps INNER JOIN plan_servers ON plan_servers.id=plan_tps.server_id"
)

// BindTPS adds the InsertTPSSQL parameters.
func BindTPS(p access.Binder, server uuid.UUID, t models.TPS) {
	p.Add(server, t.Date, t.TicksPerSec, t.Players, t.CPUUsage, t.UsedMemory, t.Entities, t.ChunksLoaded, t.FreeDiskSpace)
}

// ScanTPS reads a SelectTPSSQL row.
func ScanTPS(rows *access.Rows) (models.TPS, error) {
	var t models.TPS
	err := rows.Scan(&t.Date, &t.TicksPerSec, &t.Players, &t.CPUUsage, &t.UsedMemory, &t.Entities, &t.ChunksLoaded, &t.FreeDiskSpace)
	return t, err
}

// ScanServerTPS reads a SelectTPSWithServerSQL row.
func ScanServerTPS(rows *access.Rows) (uuid.UUID, models.TPS, error) {
	var (
		server uuid.UUID
		t      models.TPS
	)
	err := rows.Scan(&server, &t.Date, &t.TicksPerSec, &t.Players, &t.CPUUsage, &t.UsedMemory, &t.Entities, &t.ChunksLoaded, &t.FreeDiskSpace)

	return server, t, err
}
