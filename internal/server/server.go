// Package server implements the HTTP raw data API and the event endpoint
// that feeds gameplay into the database.
package server

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/config"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/geoip"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/mutators"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/processing"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/sessioncache"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/storage"
)

// Permission levels of web users, most privileged first.
const (
	LevelAdmin   = 0
	LevelPlayers = 1
)

// New creates a Server with the provided database, processing pool, session
// cache, GeoIP provider and configuration.
func New(db *storage.Database, pool *processing.Pool, sessions *sessioncache.Cache, geo *geoip.Provider, cfg *config.Config) *Server {
	// validated by config.Parse
	serverUUID, _ := cfg.Server.ID()

	return &Server{
		db:         db,
		pool:       pool,
		sessions:   sessions,
		geoip:      geo,
		serverUUID: serverUUID,
		thresholds: mutators.Thresholds{
			PlayThreshold:  cfg.Activity.PlayThreshold,
			LoginThreshold: cfg.Activity.LoginThreshold,
		},
		maxBody:    cfg.HTTP.MaxBodySize,
		limitCount: cfg.HTTP.RateLimitCount,
		limitWin:   cfg.HTTP.RateLimitWin,
		authTTL:    cfg.HTTP.AuthCacheTTL,
		trustProxy: cfg.HTTP.TrustProxy,

		shutdown: make(chan struct{}),
	}
}

// StartWorkers starts the cache cleanup routine.
func (s *Server) StartWorkers() {
	go s.gcAuthCache()
}

// StopWorkers stops background routines.
func (s *Server) StopWorkers() {
	close(s.shutdown)
}

// Run configures the HTTP routes and returns the main handler.
func (s *Server) Run() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("POST /api/events", s.authenticated(LevelAdmin, http.HandlerFunc(s.handleEvents)))
	mux.Handle("GET /api/raw/player", s.authenticated(LevelPlayers, http.HandlerFunc(s.handlePlayer)))
	mux.Handle("GET /api/raw/server", s.authenticated(LevelAdmin, http.HandlerFunc(s.handleServer)))
	mux.Handle("GET /api/network", s.authenticated(LevelAdmin, http.HandlerFunc(s.handleNetwork)))
	mux.Handle("GET /metrics", promhttp.Handler())

	return s.LoggingMiddleware(s.RateLimitMiddleware(mux))
}

// gcAuthCache periodically removes expired credentials from the auth cache.
func (s *Server) gcAuthCache() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.shutdown:
			return
		case <-ticker.C:
			now := time.Now()
			s.authCache.Range(func(key, value any) bool {
				if e, ok := value.(authEntry); !ok || now.Sub(e.verified) > s.authTTL {
					s.authCache.Delete(key)
				}
				return true
			})
		}
	}
}
