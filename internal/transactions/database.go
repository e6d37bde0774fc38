package transactions

import (
	"context"

	"github.com/google/uuid"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/access"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/queries"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/tables"
)

// CreateTables creates every missing table.
func CreateTables() Transaction {
	return Func{
		Label: "CreateTables",
		Perform: func(ctx context.Context, tx *Tx) error {
			for _, ddl := range tables.CreateStatements(tx.Type()) {
				if _, err := tx.Execute(ctx, access.Exec(ddl)); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

// RemoveEverything deletes all rows of every table.
func RemoveEverything() Transaction {
	return Func{
		Label:   "RemoveEverything",
		Perform: removeEverything,
	}
}

func removeEverything(ctx context.Context, tx *Tx) error {
	for _, table := range tables.RemovalOrder {
		if _, err := tx.Execute(ctx, access.Exec("DELETE FROM "+table)); err != nil {
			return err
		}
	}

	return nil
}

// BackupCopy replaces the contents of the database with the contents of
// source. Auto-increment ids are regenerated; uuid relations are kept.
// Copying a database onto itself or from a closed source is skipped.
func BackupCopy(source Database) Transaction {
	return Func{
		Label: "BackupCopy",
		Should: func(db Database) bool {
			return source != db && source.IsOpen()
		},
		Perform: func(ctx context.Context, tx *Tx) error {
			if err := removeEverything(ctx, tx); err != nil {
				return err
			}

			steps := []func(ctx context.Context) (access.Executable, error){
				copyFrom(source, queries.FetchServers(), queries.StoreAllServers),
				copyFrom(source, queries.FetchUsers(), queries.StoreAllUsers),
				copyFrom(source, queries.FetchWorlds(), queries.StoreAllWorlds),
				copyFrom(source, queries.FetchTPS(), queries.StoreAllTPS),
				copyFrom(source, queries.FetchWebUsers(), queries.StoreAllWebUsers),
				copyFrom(source, queries.FetchCommandUsage(), queries.StoreAllCommandUsage),
				copyFrom(source, queries.FetchGeoInfos(), queries.StoreAllGeoInfos),
				copyFrom(source, queries.FetchNicknames(), queries.StoreAllNicknames),
				copyFrom(source, queries.FetchAllSessions(), queries.StoreAllSessions),
				copyFrom(source, queries.FetchUserInfos(), queries.StoreAllUserInfos),
				copyFrom(source, queries.FetchPings(), queries.StoreAllPings),
				copyFrom(source, queries.FetchSettings(), queries.StoreAllSettings),
			}
			for _, step := range steps {
				exec, err := step(ctx)
				if err != nil {
					return err
				}
				if _, err := tx.Execute(ctx, exec); err != nil {
					return err
				}
			}

			return nil
		},
	}
}

// copyFrom fetches data from source and turns it into a store executable.
func copyFrom[T any](source Database, fetch access.Query[T], store func(T) access.Executable) func(ctx context.Context) (access.Executable, error) {
	return func(ctx context.Context) (access.Executable, error) {
		data, err := QueryFrom(ctx, source, fetch)
		if err != nil {
			return nil, err
		}

		return store(data), nil
	}
}

// RemovePlayer deletes a player and everything recorded about them.
func RemovePlayer(player uuid.UUID) Transaction {
	return Executes("RemovePlayer", removePlayer(player)...)
}

func removePlayer(player uuid.UUID) []access.Executable {
	statements := []string{
		"DELETE FROM plan_world_times WHERE uuid=?",
		"DELETE FROM plan_kills WHERE killer_uuid=?",
		"DELETE FROM plan_sessions WHERE uuid=?",
		"DELETE FROM plan_ping WHERE uuid=?",
		"DELETE FROM plan_nicknames WHERE uuid=?",
		"DELETE FROM plan_ips WHERE uuid=?",
		"DELETE FROM plan_user_info WHERE uuid=?",
		"DELETE FROM plan_users WHERE uuid=?",
	}

	execs := make([]access.Executable, len(statements))
	for i, sql := range statements {
		execs[i] = access.ExecStatement{
			SQL:  sql,
			Bind: func(p *access.Params) { p.Add(player) },
		}
	}

	return execs
}

// RemoveOldSampledData deletes TPS samples older than tpsBefore and ping
// summaries older than pingBefore.
func RemoveOldSampledData(tpsBefore, pingBefore int64) Transaction {
	return Executes("RemoveOldSampledData",
		access.ExecStatement{
			SQL:  "DELETE FROM plan_tps WHERE date<?",
			Bind: func(p *access.Params) { p.Add(tpsBefore) },
		},
		access.ExecStatement{
			SQL:  "DELETE FROM plan_ping WHERE date<?",
			Bind: func(p *access.Params) { p.Add(pingBefore) },
		},
	)
}

// RemoveInactivePlayers deletes players registered before the date who have
// not played since.
func RemoveInactivePlayers(before int64) Transaction {
	return Func{
		Label: "RemoveInactivePlayers",
		Perform: func(ctx context.Context, tx *Tx) error {
			inactive, err := Query(ctx, tx, queries.FetchInactivePlayers(before))
			if err != nil {
				return err
			}

			for _, player := range inactive {
				if err := tx.ExecuteAll(ctx, removePlayer(player)...); err != nil {
					return err
				}
			}

			return nil
		},
	}
}
