// Package storage opens the configured database, brings its schema up to
// date and executes transactions against it.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/access"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/config"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/dbtype"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/logger"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/metrics"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/patches"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/transactions"
	_ "modernc.org/sqlite" // Driver sqlite
)

// State is the lifecycle position of a Database.
type State int32

// Database lifecycle. Transactions run while Patching or Open, queries only while Open.
const (
	Closed State = iota
	Patching
	Open
	Closing
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Patching:
		return "patching"
	case Open:
		return "open"
	case Closing:
		return "closing"
	}

	return fmt.Sprintf("State(%d)", int32(s))
}

// Database is a connection pool of one dialect. It is safe for concurrent
// use; transactions are serialized.
type Database struct {
	db     *sql.DB
	typ    dbtype.Type
	schema string
	name   string
	log    zerolog.Logger

	state atomic.Int32
	txMu  sync.Mutex
}

// Open connects to the database described by cfg. The returned Database is
// Closed until Init succeeds.
func Open(cfg config.Database) (*Database, error) {
	typ, err := cfg.DBType()
	if err != nil {
		return nil, err
	}

	var (
		db   *sql.DB
		name string
	)
	switch typ {
	case dbtype.MySQL:
		db, err = openMySQL(cfg)
		name = cfg.Database
	case dbtype.H2:
		db, err = openH2(cfg.H2DSN)
		name = "h2"
	default:
		db, err = sql.Open(typ.DriverName(), sqliteDSN(cfg.Path))
		name = cfg.Path
	}
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", typ, err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnLifetime)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect %s database: %w", typ, err)
	}

	return newDatabase(db, typ, cfg.Database, name), nil
}

// OpenSQLite connects to a SQLite file with the default pool settings.
func OpenSQLite(path string) (*Database, error) {
	return Open(config.Database{
		Type:         "sqlite",
		Path:         path,
		MaxOpenConns: 10,
		MaxIdleConns: 5,
		ConnLifetime: time.Hour,
	})
}

func newDatabase(db *sql.DB, typ dbtype.Type, schema, name string) *Database {
	d := &Database{
		db:     db,
		typ:    typ,
		schema: schema,
		name:   name,
		log:    logger.Component("database").With().Str("db_type", typ.Name()).Logger(),
	}
	d.state.Store(int32(Closed))

	return d
}

func sqliteDSN(path string) string {
	// legacy_alter_table keeps foreign keys naming a renamed table pointed
	// at the original name while tables are rebuilt.
	return path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)&_pragma=legacy_alter_table(1)"
}

func openMySQL(cfg config.Database) (*sql.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s%s", cfg.User, cfg.Password, cfg.Host, cfg.Port, cfg.Database, cfg.LaunchOptions)
	mc, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, err
	}
	// report matched rows like SQLite does
	mc.ClientFoundRows = true

	connector, err := mysql.NewConnector(mc)
	if err != nil {
		return nil, err
	}

	return sql.OpenDB(connector), nil
}

func openH2(dsn string) (*sql.DB, error) {
	connector, err := pq.NewConnector(dsn)
	if err != nil {
		return nil, err
	}

	return sql.OpenDB(connector), nil
}

// Init creates missing tables and applies pending patches. On failure the
// database stays Closed and the error is an *access.InitError.
func (d *Database) Init(ctx context.Context) error {
	if !d.state.CompareAndSwap(int32(Closed), int32(Patching)) {
		return &access.InitError{Stage: "init", Err: fmt.Errorf("database is %s", d.State())}
	}

	if err := d.init(ctx); err != nil {
		d.state.Store(int32(Closed))
		var initErr *access.InitError
		if errors.As(err, &initErr) {
			return err
		}
		return &access.InitError{Stage: "create tables", Err: err}
	}

	d.state.Store(int32(Open))
	d.log.Info().Str("database", d.name).Msg("Database ready")

	return nil
}

func (d *Database) init(ctx context.Context) error {
	if _, err := d.ExecuteTransaction(ctx, transactions.CreateTables()); err != nil {
		return err
	}

	conn, err := d.db.Conn(ctx)
	if err != nil {
		return &access.InitError{Stage: "patch", Err: err}
	}
	defer func() { _ = conn.Close() }()

	d.txMu.Lock()
	defer d.txMu.Unlock()

	return patches.Run(ctx, &patches.Conn{Conn: dialectConn{h: conn, typ: d.typ}, Schema: d.schema}, patches.All())
}

// ExecuteTransaction runs t atomically and returns its final state. A
// failed transaction is rolled back and reported as an *access.OpError.
func (d *Database) ExecuteTransaction(ctx context.Context, t transactions.Transaction) (transactions.State, error) {
	if s := d.State(); s != Open && s != Patching {
		return transactions.Created, &access.OpError{Op: "transaction", Statement: t.Name(), Err: access.ErrClosed}
	}

	log := d.log.With().Str("transaction", t.Name()).Logger()
	if !t.ShouldBeExecuted(d) {
		log.Trace().Msg("Transaction skipped")
		metrics.RecordTransaction(t.Name(), transactions.Skipped.String(), 0)
		return transactions.Skipped, nil
	}

	d.txMu.Lock()
	defer d.txMu.Unlock()

	start := time.Now()
	state, err := d.run(ctx, t)
	metrics.RecordTransaction(t.Name(), state.String(), time.Since(start))
	if err != nil {
		log.Warn().Err(err).Msg("Transaction rolled back")
		return state, &access.OpError{Op: "transaction", Statement: t.Name(), Err: err}
	}

	return state, nil
}

func (d *Database) run(ctx context.Context, t transactions.Transaction) (transactions.State, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return transactions.RolledBack, err
	}

	if err := t.PerformOperations(ctx, transactions.NewTx(dialectConn{h: tx, typ: d.typ}, d)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			err = errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
		return transactions.RolledBack, err
	}

	if err := tx.Commit(); err != nil {
		return transactions.RolledBack, err
	}

	return transactions.Committed, nil
}

// Query runs q on the pool. The database must be Open.
func Query[T any](ctx context.Context, d *Database, q access.Query[T]) (T, error) {
	return transactions.QueryFrom(ctx, d, q)
}

// Conn returns the pooled connection.
func (d *Database) Conn() access.Conn {
	return dialectConn{h: d.db, typ: d.typ}
}

// Type returns the dialect.
func (d *Database) Type() dbtype.Type { return d.typ }

// State returns the lifecycle state.
func (d *Database) State() State { return State(d.state.Load()) }

// IsOpen reports whether queries are accepted.
func (d *Database) IsOpen() bool { return d.State() == Open }

// Close waits for the running transaction and releases the pool.
func (d *Database) Close() error {
	d.state.Store(int32(Closing))

	d.txMu.Lock()
	defer d.txMu.Unlock()

	err := d.db.Close()
	d.state.Store(int32(Closed))

	return err
}
