// Package sessioncache holds the sessions of online players. A session
// lives here from join until it ends and is then stored.
package sessioncache

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/logger"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/metrics"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/models"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/transactions"
)

// Submitter hands a transaction over for execution, waiting until it is accepted.
type Submitter interface {
	SubmitCritical(ctx context.Context, t transactions.Transaction) error
}

// Cache is the set of active sessions, at most one per player. It is safe
// for concurrent use.
type Cache struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*models.Session
	now      func() int64
	log      zerolog.Logger
}

// New returns an empty cache.
func New() *Cache {
	return &Cache{
		sessions: make(map[uuid.UUID]*models.Session),
		now:      models.NowMillis,
		log:      logger.Component("sessioncache"),
	}
}

// Start caches s as the active session of its player. A session the player
// still had is ended at the new start and returned so it can be stored.
func (c *Cache) Start(s *models.Session) (*models.Session, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	previous, ok := c.sessions[s.PlayerUUID]
	if ok {
		previous.EndSession(max(s.Start, previous.Start+1))
	}
	c.sessions[s.PlayerUUID] = s
	metrics.ActiveSessions.Set(float64(len(c.sessions)))

	return previous, ok
}

// End removes the session of a player and ends it at the given time.
func (c *Cache) End(player uuid.UUID, at int64) (*models.Session, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.sessions[player]
	if !ok {
		return nil, false
	}
	delete(c.sessions, player)
	metrics.ActiveSessions.Set(float64(len(c.sessions)))

	s.EndSession(max(at, s.Start+1))
	return s, true
}

// Update runs fn on the active session of a player while holding the cache
// lock. It reports whether the player had one.
func (c *Cache) Update(player uuid.UUID, fn func(*models.Session)) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.sessions[player]
	if ok {
		fn(s)
	}

	return ok
}

// Get returns a snapshot of the active session of a player. Changes to it
// are not seen by the cache; use Update for that.
func (c *Cache) Get(player uuid.UUID) (*models.Session, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	s, ok := c.sessions[player]
	if !ok {
		return nil, false
	}
	return s.Snapshot(c.now()), true
}

// Active lists snapshots of every active session, earliest start first.
func (c *Cache) Active() []*models.Session {
	return c.filter(func(*models.Session) bool { return true })
}

// ActiveFor lists snapshots of the active sessions on one server.
func (c *Cache) ActiveFor(server uuid.UUID) []*models.Session {
	return c.filter(func(s *models.Session) bool { return s.ServerUUID == server })
}

func (c *Cache) filter(keep func(*models.Session) bool) []*models.Session {
	now := c.now()

	c.mu.RLock()
	out := make([]*models.Session, 0, len(c.sessions))
	for _, s := range c.sessions {
		if keep(s) {
			out = append(out, s.Snapshot(now))
		}
	}
	c.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}

// Len is the number of active sessions.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.sessions)
}

// Flush ends every active session now and submits it for storage. It is
// called on shutdown; sessions that could not be submitted are reported in
// the returned error.
func (c *Cache) Flush(ctx context.Context, sub Submitter) error {
	c.mu.Lock()
	sessions := c.sessions
	c.sessions = make(map[uuid.UUID]*models.Session)
	metrics.ActiveSessions.Set(0)
	c.mu.Unlock()

	now := c.now()
	var errs []error
	for player, s := range sessions {
		s.EndSession(max(now, s.Start+1))
		if err := sub.SubmitCritical(ctx, transactions.SessionEnd(s)); err != nil {
			c.log.Error().Err(err).Str("player", player.String()).Msg("Failed to store active session")
			errs = append(errs, err)
		}
	}
	if len(sessions) > 0 {
		c.log.Info().Int("sessions", len(sessions)-len(errs)).Msg("Stored active sessions")
	}

	return errors.Join(errs...)
}
