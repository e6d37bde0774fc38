package server

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/rs/zerolog/log"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/queries"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/storage"
	"golang.org/x/time/rate"
)

// GetRealIP attempts to determine the client's real IP address, trusting
// headers like CF-Connecting-IP or X-Forwarded-For if configured to do so.
func GetRealIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if cf := r.Header.Get("CF-Connecting-IP"); cf != "" {
			return cf
		}
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			parts := strings.Split(xff, ",")
			return strings.TrimSpace(parts[0])
		}
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}

	return ip
}

// RateLimitMiddleware applies a rate limit based on the client's IP address.
// It rejects requests with "429 Too Many Requests" if the limit is exceeded.
func (s *Server) RateLimitMiddleware(next http.Handler) http.Handler {
	if s.limitCount <= 0 || s.limitWin <= 0 {
		return next
	}

	type client struct {
		limiter  *rate.Limiter
		lastSeen time.Time
	}

	var (
		mu      sync.Mutex
		clients = make(map[string]*client)
	)

	// Drop old clients every 5 min
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-s.shutdown:
				return
			case <-ticker.C:
			}
			mu.Lock()
			now := time.Now()
			for ip, c := range clients {
				if now.Sub(c.lastSeen) > 10*time.Minute {
					delete(clients, ip)
				}
			}
			mu.Unlock()
		}
	}()

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := GetRealIP(r, s.trustProxy)

		mu.Lock()
		cli, found := clients[ip]
		if !found {
			limit := rate.Limit(float64(s.limitCount) / s.limitWin.Seconds())
			cli = &client{limiter: rate.NewLimiter(limit, s.limitCount)}
			clients[ip] = cli
		}
		cli.lastSeen = time.Now()
		limiter := cli.limiter
		mu.Unlock()

		if !limiter.Allow() {
			http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// LoggingMiddleware logs the details of each HTTP request, including method, path, IP, and duration.
func (s *Server) LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		realIP := GetRealIP(r, s.trustProxy)
		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("ip", realIP).
			Dur("duration", time.Since(start)).
			Msg("Request handled")
	})
}

// authenticated protects endpoints with HTTP Basic Authentication against
// the registered web users. Users whose permission level is above maxLevel
// are refused.
func (s *Server) authenticated(maxLevel int, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok {
			unauthorized(w)
			return
		}

		level, ok := s.verify(r, user, pass)
		if !ok {
			unauthorized(w)
			return
		}
		if level > maxLevel {
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Basic realm="Plan"`)
	http.Error(w, "Unauthorized", http.StatusUnauthorized)
}

// verify checks credentials, consulting the auth cache first.
func (s *Server) verify(r *http.Request, user, pass string) (int, bool) {
	key := xxhash.Sum64String(user + "\x00" + pass)
	if val, ok := s.authCache.Load(key); ok {
		if e, ok := val.(authEntry); ok && time.Since(e.verified) < s.authTTL {
			return e.level, true
		}
	}

	u, err := storage.Query(r.Context(), s.db, queries.FetchWebUser(user))
	if err != nil {
		log.Error().Err(err).Msg("Failed to fetch web user")
		return 0, false
	}
	if u == nil {
		return 0, false
	}

	match, err := u.CheckPassword(pass)
	if err != nil {
		log.Warn().Err(err).Str("user", user).Msg("Stored password hash is malformed")
		return 0, false
	}
	if !match {
		log.Debug().Str("user", user).Str("ip", GetRealIP(r, s.trustProxy)).Msg("Wrong password")
		return 0, false
	}

	s.authCache.Store(key, authEntry{verified: time.Now(), level: u.PermissionLevel})

	return u.PermissionLevel, true
}
