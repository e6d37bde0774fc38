// Package config handles the parsing and validation of application configuration
// from command-line arguments and environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jessevdk/go-flags"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/dbtype"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/logger"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/vars"
)

// Config represents the complete application flags configuration.
type Config struct {
	// betteralign:ignore

	Database    Database      `group:"Database Options" namespace:"db" env-namespace:"PLAN_DB"`
	Server      Server        `group:"Server Options" namespace:"server" env-namespace:"PLAN_SERVER"`
	Activity    Activity      `group:"Activity Index Options" namespace:"activity" env-namespace:"PLAN_ACTIVITY"`
	Processing  Processing    `group:"Processing Options" namespace:"processing" env-namespace:"PLAN_PROCESSING"`
	GeoIP       GeoIP         `group:"GeoIP Options" namespace:"geoip" env-namespace:"PLAN_GEOIP"`
	HTTP        HTTP          `group:"HTTP Options" namespace:"http" env-namespace:"PLAN_HTTP"`
	Maintenance Maintenance   `group:"Maintenance Options"`
	Logger      logger.Config `group:"Logger Options" namespace:"log" env-namespace:"PLAN_LOG"`

	Version bool `short:"v" long:"version" description:"Print version and build info"`
}

// Database holds storage backend configuration.
type Database struct {
	// betteralign:ignore

	Type          string        `short:"t" long:"type" env:"TYPE" description:"Database type" choice:"sqlite" choice:"mysql" choice:"h2" default:"sqlite"`
	Path          string        `short:"d" long:"path" env:"PATH" description:"Path to SQLite database file" default:"Plan.db"`
	Host          string        `long:"host" env:"HOST" description:"MySQL host" default:"localhost"`
	Port          int           `long:"port" env:"PORT" description:"MySQL port" default:"3306"`
	User          string        `long:"user" env:"USER" description:"MySQL user" default:"root"`
	Password      string        `long:"password" env:"PASSWORD" description:"MySQL password"`
	Database      string        `long:"database" env:"DATABASE" description:"MySQL schema, also used for information_schema lookups" default:"Plan"`
	LaunchOptions string        `long:"launch-options" env:"LAUNCH_OPTIONS" description:"Extra MySQL DSN parameters" default:"?rejectReadOnly=true&parseTime=false"`
	H2DSN         string        `long:"h2-dsn" env:"H2_DSN" description:"DSN of an H2 server in PG mode (MODE=MySQL;DATABASE_TO_UPPER=FALSE)" default:"postgres://sa@localhost:5435/plan?sslmode=disable"`
	MaxOpenConns  int           `long:"max-open-conns" env:"MAX_OPEN_CONNS" description:"Connection pool size" default:"10"`
	MaxIdleConns  int           `long:"max-idle-conns" env:"MAX_IDLE_CONNS" description:"Idle connections kept in the pool" default:"5"`
	ConnLifetime  time.Duration `long:"conn-lifetime" env:"CONN_LIFETIME" description:"Maximum lifetime of a pooled connection" default:"1h"`
}

// DBType resolves the configured dialect.
func (d Database) DBType() (dbtype.Type, error) {
	return dbtype.ParseType(d.Type)
}

// Server describes the server this process reports data for.
type Server struct {
	// betteralign:ignore

	UUID       string `long:"uuid" env:"UUID" description:"Server UUID, derived from the name when empty"`
	Name       string `long:"name" env:"NAME" description:"Server name" default:"Plan"`
	WebAddress string `long:"web-address" env:"WEB_ADDRESS" description:"Address of the web interface"`
	MaxPlayers int    `long:"max-players" env:"MAX_PLAYERS" description:"Maximum player capacity" default:"-1"`
}

// ID returns the configured server UUID, or a name-based UUID when none is configured.
func (s Server) ID() (uuid.UUID, error) {
	if s.UUID == "" {
		return uuid.NewSHA1(uuid.NameSpaceOID, []byte(vars.Name+"/"+s.Name)), nil
	}

	id, err := uuid.Parse(s.UUID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid server uuid %q: %w", s.UUID, err)
	}

	return id, nil
}

// Activity holds the two activity index thresholds.
type Activity struct {
	// betteralign:ignore

	PlayThreshold  time.Duration `long:"play-threshold" env:"PLAY_THRESHOLD" description:"active_play_threshold: minimum recent weekly playtime to count as active" default:"30m"`
	LoginThreshold int           `long:"login-threshold" env:"LOGIN_THRESHOLD" description:"active_login_threshold: minimum weekly session count to count as active" default:"2"`
}

// Processing holds submission pool configuration.
type Processing struct {
	// betteralign:ignore

	Workers   int     `long:"workers" env:"WORKERS" description:"Number of database workers" default:"4"`
	QueueSize int     `long:"queue" env:"QUEUE" description:"Pending transaction queue size" default:"1000"`
	Rate      float64 `long:"rate" env:"RATE" description:"Non-critical transactions per second" default:"50"`
	Burst     int     `long:"burst" env:"BURST" description:"Non-critical transaction burst" default:"100"`
}

// GeoIP holds MaxMind GeoIP configuration.
type GeoIP struct {
	// betteralign:ignore

	Path     string        `short:"g" long:"path" env:"PATH" description:"Path to MMDB file" default:"GeoLite2-Country.mmdb"`
	URL      string        `long:"url" env:"URL" description:"URL to download MMDB" default:"https://git.io/GeoLite2-Country.mmdb"`
	Interval time.Duration `long:"interval" env:"INTERVAL" description:"Update interval check" default:"168h"`
	Disable  bool          `long:"disable" env:"DISABLE" description:"Disable geolocation lookups"`
}

// HTTP holds raw-data API configuration.
type HTTP struct {
	// betteralign:ignore

	Enabled        bool          `long:"enabled" env:"ENABLED" description:"Serve the raw data API"`
	Address        string        `short:"l" long:"address" env:"ADDRESS" description:"Listen address" default:":8804"`
	TrustProxy     bool          `long:"trust-proxy" env:"TRUST_PROXY" description:"Trust X-Forwarded-For headers"`
	MaxBodySize    int64         `long:"max-body" env:"MAX_BODY" description:"Maximum size of an event request body in bytes" default:"65536"`
	AuthCacheTTL   time.Duration `long:"auth-cache-ttl" env:"AUTH_CACHE_TTL" description:"How long verified web user credentials are remembered" default:"5m"`
	RateLimitCount int           `long:"rate-limit-count" env:"RATE_LIMIT_COUNT" description:"Requests per IP per window" default:"60"`
	RateLimitWin   time.Duration `long:"rate-limit-window" env:"RATE_LIMIT_WINDOW" description:"Rate limit window" default:"1m"`
}

// Maintenance holds one-shot tasks; the process exits after running one.
type Maintenance struct {
	// betteralign:ignore

	Backup            string `long:"backup" description:"Copy the active database into a SQLite backup file"`
	Restore           string `long:"restore" description:"Replace the active database contents with a SQLite backup file"`
	RemovePlayer      string `long:"remove-player" description:"Remove all data of a player UUID"`
	ExportPlayer      string `long:"export-player" description:"Print raw data JSON of a player UUID"`
	Clean             bool   `long:"clean" description:"Remove old TPS and ping samples and inactive players"`
	CleanTPSDays      int    `long:"clean-tps-days" description:"TPS retention in days" default:"90"`
	CleanPingDays     int    `long:"clean-ping-days" description:"Ping retention in days" default:"14"`
	CleanInactiveDays int    `long:"clean-inactive-days" description:"Remove players not seen for this many days (0 disables)" default:"180"`
	AddWebUser        string `long:"add-web-user" description:"Register a web user (name:password)"`
	WebUserLevel      int    `long:"web-user-level" description:"Permission level for --add-web-user" default:"0"`
	GenerateCount     int    `long:"gen-fake-data" hidden:"true"`
}

// Parse reads the configuration from flags and environment variables.
// It terminates the application if the configuration is invalid or if the help flag is invoked.
func Parse() *Config {
	cfg, err := parse(os.Args[1:])
	if err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		if flagsErr == nil {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}

	if cfg.Version {
		vars.Print()
		os.Exit(0)
	}

	return cfg
}

func parse(args []string) (*Config, error) {
	var cfg Config
	parser := flags.NewParser(&cfg, flags.Default)
	parser.NamespaceDelimiter = "-"

	if _, err := parser.ParseArgs(args); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if _, err := c.Database.DBType(); err != nil {
		return err
	}
	if _, err := c.Server.ID(); err != nil {
		return err
	}
	if c.Activity.PlayThreshold <= 0 {
		return fmt.Errorf("activity play threshold must be positive, got %s", c.Activity.PlayThreshold)
	}
	if c.Activity.LoginThreshold <= 0 {
		return fmt.Errorf("activity login threshold must be positive, got %d", c.Activity.LoginThreshold)
	}
	if c.Processing.Workers <= 0 {
		return fmt.Errorf("processing workers must be positive, got %d", c.Processing.Workers)
	}

	return nil
}
