package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/models"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/transactions"
)

// Event types accepted by /api/events.
const (
	EventJoin     = "join"
	EventLeave    = "leave"
	EventWorld    = "world"
	EventKill     = "kill"
	EventMobKill  = "mob_kill"
	EventDeath    = "death"
	EventAFK      = "afk"
	EventKick     = "kick"
	EventBan      = "ban"
	EventOperator = "operator"
	EventNickname = "nickname"
	EventCommand  = "command"
	EventTPS      = "tps"
	EventPing     = "ping"
)

var (
	errUnknownEvent = errors.New("unknown event type")
	errNoPlayer     = errors.New("event has no player")
	errNoSession    = errors.New("player has no active session")
)

// Event is a gameplay occurrence reported by a game server.
type Event struct {
	Type string `json:"type"`
	// Time defaults to the time of receipt.
	Time int64 `json:"time,omitempty"`
	// Server defaults to the configured server.
	Server   uuid.UUID   `json:"server,omitempty"`
	Player   uuid.UUID   `json:"player,omitempty"`
	Name     string      `json:"name,omitempty"`
	IP       string      `json:"ip,omitempty"`
	World    string      `json:"world,omitempty"`
	GameMode string      `json:"game_mode,omitempty"`
	Victim   uuid.UUID   `json:"victim,omitempty"`
	Weapon   string      `json:"weapon,omitempty"`
	Command  string      `json:"command,omitempty"`
	Value    bool        `json:"value,omitempty"`
	AFKTime  int64       `json:"afk_ms,omitempty"`
	Pings    []int       `json:"pings,omitempty"`
	TPS      *models.TPS `json:"tps,omitempty"`
}

// eventsResponse reports how many events of a batch were accepted.
type eventsResponse struct {
	Accepted int      `json:"accepted"`
	Rejected int      `json:"rejected"`
	Errors   []string `json:"errors,omitempty"`
}

// handleEvents accepts a JSON array of events. Events that change stored
// identity or sessions are queued as critical work; samples and counters
// are dropped when the processing pool is saturated.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBody)

	var events []Event
	if err := json.NewDecoder(r.Body).Decode(&events); err != nil {
		log.Debug().
			Err(err).
			Str("ip", GetRealIP(r, s.trustProxy)).
			Msg("Invalid JSON")

		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	var resp eventsResponse
	for i := range events {
		if err := s.processEvent(r, &events[i]); err != nil {
			resp.Rejected++
			resp.Errors = append(resp.Errors, fmt.Sprintf("%d %s: %v", i, events[i].Type, err))
			continue
		}
		resp.Accepted++
	}

	log.Trace().
		Int("accepted", resp.Accepted).
		Int("rejected", resp.Rejected).
		Msg("Events processed")

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (s *Server) processEvent(r *http.Request, e *Event) error {
	if e.Time == 0 {
		e.Time = models.NowMillis()
	}
	if e.Server == uuid.Nil {
		e.Server = s.serverUUID
	}

	switch e.Type {
	case EventTPS:
		if e.TPS == nil {
			return errors.New("tps event without sample")
		}
		sample := *e.TPS
		if sample.Date == 0 {
			sample.Date = e.Time
		}
		s.pool.SubmitNonCritical(transactions.TPSStore(e.Server, sample))
		return nil
	case EventCommand:
		if e.Command == "" {
			return errors.New("command event without command")
		}
		s.pool.SubmitNonCritical(transactions.CommandStore(e.Server, e.Command))
		return nil
	}

	if e.Player == uuid.Nil {
		return errNoPlayer
	}

	switch e.Type {
	case EventJoin:
		return s.join(r, e)
	case EventLeave:
		ended, ok := s.sessions.End(e.Player, e.Time)
		if !ok {
			return errNoSession
		}
		return s.pool.SubmitCritical(r.Context(), transactions.SessionEnd(ended))
	case EventWorld:
		return s.updateSession(e, func(session *models.Session) {
			session.ChangeState(e.World, e.GameMode, e.Time)
		})
	case EventKill:
		return s.updateSession(e, func(session *models.Session) {
			session.AddPlayerKill(models.PlayerKill{Killer: e.Player, Victim: e.Victim, Weapon: e.Weapon, Date: e.Time})
		})
	case EventMobKill:
		return s.updateSession(e, func(session *models.Session) { session.MobKills++ })
	case EventDeath:
		return s.updateSession(e, func(session *models.Session) { session.Deaths++ })
	case EventAFK:
		return s.updateSession(e, func(session *models.Session) { session.AddAFKTime(e.AFKTime) })
	case EventKick:
		return s.pool.SubmitCritical(r.Context(), transactions.KickStore(e.Player))
	case EventBan:
		return s.pool.SubmitCritical(r.Context(), transactions.BanStatus(e.Player, e.Server, e.Value))
	case EventOperator:
		return s.pool.SubmitCritical(r.Context(), transactions.OperatorStatus(e.Player, e.Server, e.Value))
	case EventNickname:
		s.pool.SubmitNonCritical(transactions.NicknameStore(e.Player, models.Nickname{Name: e.Name, ServerUUID: e.Server, Date: e.Time}))
		return nil
	case EventPing:
		s.pool.SubmitNonCritical(transactions.PingStore(e.Player, e.Server, e.Time, e.Pings))
		return nil
	}

	return errUnknownEvent
}

// join registers the player and starts a session. A session the player
// still had open is ended and stored first.
func (s *Server) join(r *http.Request, e *Event) error {
	if e.Name == "" {
		return errors.New("join event without name")
	}

	if err := s.pool.SubmitCritical(r.Context(), transactions.PlayerServerRegister(e.Player, e.Server, e.Time, e.Name)); err != nil {
		return err
	}
	if e.IP != "" {
		s.pool.SubmitNonCritical(transactions.GeoInfoStore(e.Player, s.geoip.GeoInfo(e.IP, e.Time)))
	}
	s.pool.SubmitNonCritical(transactions.NicknameStore(e.Player, models.Nickname{Name: e.Name, ServerUUID: e.Server, Date: e.Time}))

	previous, ok := s.sessions.Start(models.NewSession(e.Player, e.Server, e.Time, e.World, e.GameMode))
	if ok {
		return s.pool.SubmitCritical(r.Context(), transactions.SessionEnd(previous))
	}

	return nil
}

func (s *Server) updateSession(e *Event, fn func(*models.Session)) error {
	if !s.sessions.Update(e.Player, fn) {
		return errNoSession
	}

	return nil
}
