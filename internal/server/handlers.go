package server

import (
	"fmt"
	"net/http"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/containers"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/export"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/queries"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/storage"
)

func (s *Server) source() containers.Source {
	return containers.Source{DB: s.db, Sessions: s.sessions, Thresholds: s.thresholds}
}

// handlePlayer returns the raw data of a player.
// Query params: ?player=<uuid or name>
func (s *Server) handlePlayer(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("player")
	if id == "" {
		http.Error(w, "Missing player", http.StatusBadRequest)
		return
	}

	player, err := uuid.Parse(id)
	if err != nil {
		player, err = storage.Query(r.Context(), s.db, queries.FetchPlayerUUID(id))
		if err != nil {
			databaseError(w, err)
			return
		}
	}

	registered, err := storage.Query(r.Context(), s.db, queries.IsPlayerRegistered(player))
	if err != nil {
		databaseError(w, err)
		return
	}
	if !registered {
		http.Error(w, "Player not found", http.StatusNotFound)
		return
	}

	data, err := export.PlayerData(containers.Player(r.Context(), s.source(), player))
	if err != nil {
		databaseError(w, err)
		return
	}

	respondJSON(w, r, data)
}

// handleServer returns the raw data of a server, this server by default.
// Query params: ?server=<uuid>
func (s *Server) handleServer(w http.ResponseWriter, r *http.Request) {
	server := s.serverUUID
	if id := r.URL.Query().Get("server"); id != "" {
		parsed, err := uuid.Parse(id)
		if err != nil {
			http.Error(w, "Invalid server", http.StatusBadRequest)
			return
		}
		server = parsed
	}

	c, err := containers.Server(r.Context(), s.source(), server)
	if err != nil {
		databaseError(w, err)
		return
	}
	if !c.Supports(containers.ServerUUID) {
		http.Error(w, "Server not found", http.StatusNotFound)
		return
	}

	data, err := export.ServerData(c)
	if err != nil {
		databaseError(w, err)
		return
	}

	respondJSON(w, r, data)
}

// handleNetwork returns the raw data of every server.
func (s *Server) handleNetwork(w http.ResponseWriter, r *http.Request) {
	data, err := export.NetworkData(containers.Network(r.Context(), s.source()))
	if err != nil {
		databaseError(w, err)
		return
	}

	respondJSON(w, r, data)
}

func databaseError(w http.ResponseWriter, err error) {
	log.Error().Err(err).Msg("Failed to read raw data")
	http.Error(w, "Database Error", http.StatusInternalServerError)
}

// respondJSON writes v with an ETag of its encoding, answering 304 when the
// client already holds the same document.
func respondJSON(w http.ResponseWriter, r *http.Request, v any) {
	body, err := export.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
		http.Error(w, "Encoding Error", http.StatusInternalServerError)
		return
	}

	etag := fmt.Sprintf(`"%016x"`, xxhash.Sum64(body))
	w.Header().Set("ETag", etag)
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(body)
}
