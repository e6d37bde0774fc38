package server

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/geoip"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/mutators"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/processing"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/sessioncache"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/storage"
)

// Server holds the dependencies, configuration, and runtime state required
// to serve raw data and accept gameplay events.
type Server struct {
	// db is the initialized database read by the raw data endpoints.
	db *storage.Database

	// pool executes the transactions produced by incoming events.
	pool *processing.Pool

	// sessions holds the sessions of players currently online.
	sessions *sessioncache.Cache

	// geoip resolves player addresses. It can be nil when lookups are disabled.
	geoip *geoip.Provider

	// shutdown is closed to stop background routines.
	shutdown chan struct{}

	// authCache maps an xxhash of verified credentials to the time they were
	// verified and the permission level, sparing a password hash per request.
	authCache sync.Map

	// serverUUID is the server events are attributed to when they name none.
	serverUUID uuid.UUID

	// thresholds configure the activity index in raw player data.
	thresholds mutators.Thresholds

	// maxBody is the maximum size of an event request body.
	maxBody int64

	// limitCount is the number of requests allowed per IP within limitWin.
	limitCount int

	// limitWin is the rate limiter window.
	limitWin time.Duration

	// authTTL is how long verified credentials stay in authCache.
	authTTL time.Duration

	// trustProxy indicates whether X-Forwarded-For and CF-Connecting-IP are
	// used to determine the client address.
	trustProxy bool
}

// authEntry is a verified set of credentials.
type authEntry struct {
	verified time.Time
	level    int
}
