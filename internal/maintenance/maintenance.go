// Package maintenance runs the one-shot administration tasks selected on the
// command line: backup, restore, clean up and per-player operations.
package maintenance

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/config"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/containers"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/export"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/models"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/mutators"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/queries"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/storage"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/transactions"
)

const day = 24 * time.Hour

// ErrUnknownPlayer is returned for tasks naming a player that is not stored.
var ErrUnknownPlayer = errors.New("unknown player")

// Run checks if any maintenance flags are set and executes the corresponding task.
// Returns true if a maintenance task was executed (indicating the program should exit).
func Run(ctx context.Context, cfg *config.Config, db *storage.Database, out io.Writer) (bool, error) {
	m := cfg.Maintenance

	switch {
	case m.Backup != "":
		return true, Backup(ctx, db, m.Backup)
	case m.Restore != "":
		return true, Restore(ctx, db, m.Restore)
	case m.RemovePlayer != "":
		return true, RemovePlayer(ctx, db, m.RemovePlayer)
	case m.Clean:
		return true, Clean(ctx, db, m, time.Now())
	case m.ExportPlayer != "":
		th := mutators.Thresholds{PlayThreshold: cfg.Activity.PlayThreshold, LoginThreshold: cfg.Activity.LoginThreshold}
		return true, ExportPlayer(ctx, db, th, m.ExportPlayer, out)
	case m.AddWebUser != "":
		return true, AddWebUser(ctx, db, m.AddWebUser, m.WebUserLevel)
	}

	return false, nil
}

// Backup copies the contents of db into a SQLite file at path.
func Backup(ctx context.Context, db *storage.Database, path string) error {
	backup, err := openSQLite(ctx, path)
	if err != nil {
		return err
	}
	defer func() { _ = backup.Close() }()

	log.Info().Str("path", path).Msg("Creating backup...")
	if _, err := backup.ExecuteTransaction(ctx, transactions.BackupCopy(db)); err != nil {
		return fmt.Errorf("backup to %s: %w", path, err)
	}
	log.Info().Str("path", path).Msg("Backup finished")

	return nil
}

// Restore replaces the contents of db with the SQLite backup at path.
func Restore(ctx context.Context, db *storage.Database, path string) error {
	backup, err := openSQLite(ctx, path)
	if err != nil {
		return err
	}
	defer func() { _ = backup.Close() }()

	log.Info().Str("path", path).Msg("Restoring backup...")
	if _, err := db.ExecuteTransaction(ctx, transactions.BackupCopy(backup)); err != nil {
		return fmt.Errorf("restore from %s: %w", path, err)
	}
	log.Info().Str("path", path).Msg("Restore finished")

	return nil
}

// openSQLite opens a backup file; its schema is brought up to date so old
// backups restore into the current layout.
func openSQLite(ctx context.Context, path string) (*storage.Database, error) {
	db, err := storage.OpenSQLite(path)
	if err != nil {
		return nil, err
	}
	if err := db.Init(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// RemovePlayer deletes every record of a player.
func RemovePlayer(ctx context.Context, db *storage.Database, id string) error {
	player, err := knownPlayer(ctx, db, id)
	if err != nil {
		return err
	}

	if _, err := db.ExecuteTransaction(ctx, transactions.RemovePlayer(player)); err != nil {
		return err
	}
	log.Info().Str("player", player.String()).Msg("Player removed")

	return nil
}

// Clean removes samples past their retention and players inactive for longer
// than the configured number of days.
func Clean(ctx context.Context, db *storage.Database, m config.Maintenance, now time.Time) error {
	tpsBefore := now.Add(-time.Duration(m.CleanTPSDays) * day).UnixMilli()
	pingBefore := now.Add(-time.Duration(m.CleanPingDays) * day).UnixMilli()
	if _, err := db.ExecuteTransaction(ctx, transactions.RemoveOldSampledData(tpsBefore, pingBefore)); err != nil {
		return err
	}

	if m.CleanInactiveDays > 0 {
		before := now.Add(-time.Duration(m.CleanInactiveDays) * day).UnixMilli()
		if _, err := db.ExecuteTransaction(ctx, transactions.RemoveInactivePlayers(before)); err != nil {
			return err
		}
	}
	log.Info().Msg("Clean finished")

	return nil
}

// ExportPlayer writes the raw data JSON of a player to out.
func ExportPlayer(ctx context.Context, db *storage.Database, th mutators.Thresholds, id string, out io.Writer) error {
	player, err := knownPlayer(ctx, db, id)
	if err != nil {
		return err
	}

	data, err := export.PlayerData(containers.Player(ctx, containers.Source{DB: db, Thresholds: th}, player))
	if err != nil {
		return err
	}

	return export.Write(out, data)
}

// AddWebUser registers a web user given as "name:password".
func AddWebUser(ctx context.Context, db *storage.Database, spec string, level int) error {
	name, password, ok := strings.Cut(spec, ":")
	if !ok || name == "" || password == "" {
		return errors.New("web user must be given as name:password")
	}

	user, err := models.NewWebUser(name, password, level)
	if err != nil {
		return err
	}
	if _, err := db.ExecuteTransaction(ctx, transactions.RegisterWebUser(user)); err != nil {
		return err
	}
	log.Info().Str("user", name).Int("level", level).Msg("Web user registered")

	return nil
}

func knownPlayer(ctx context.Context, db *storage.Database, id string) (uuid.UUID, error) {
	player, err := uuid.Parse(id)
	if err != nil {
		// names are accepted too
		player, err = storage.Query(ctx, db, queries.FetchPlayerUUID(id))
		if err != nil {
			return uuid.Nil, err
		}
	}

	registered, err := storage.Query(ctx, db, queries.IsPlayerRegistered(player))
	if err != nil {
		return uuid.Nil, err
	}
	if !registered {
		return uuid.Nil, fmt.Errorf("%w: %s", ErrUnknownPlayer, id)
	}

	return player, nil
}
