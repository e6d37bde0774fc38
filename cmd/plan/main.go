// main is the entry point of the Plan analytics service.
// It initializes the configuration, logger, database, GeoIP provider, and starts the HTTP server.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/config"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/fake"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/geoip"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/logger"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/maintenance"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/models"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/processing"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/server"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/sessioncache"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/storage"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/transactions"
)

func main() {
	cfg := config.Parse()

	logCloser := logger.Setup(cfg.Logger)
	defer func() { _ = logCloser.Close() }()
	log.Info().Msg("Starting plan service...")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// GeoIP
	var geoProvider *geoip.Provider
	if !cfg.GeoIP.Disable {
		log.Info().Msg("Checking GeoIP database...")
		if _, err := geoip.EnsureDB(ctx, cfg.GeoIP.Path, cfg.GeoIP.URL, cfg.GeoIP.Interval); err != nil {
			log.Error().Err(err).Msg("Failed to download GeoIP database")
		}

		provider, err := geoip.Open(cfg.GeoIP.Path)
		if err != nil {
			log.Error().Err(err).Msg("Failed to open GeoIP database, geolocation disabled")
		} else {
			geoProvider = provider
			defer func() {
				if err := geoProvider.Close(); err != nil {
					log.Error().Err(err).Msg("Error closing GeoIP provider")
				}
			}()
			go geoip.Refresh(ctx, geoProvider, cfg.GeoIP.Path, cfg.GeoIP.URL, cfg.GeoIP.Interval)
		}
	}

	// Database
	db, err := storage.Open(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing database")
		}
	}()
	if err := db.Init(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}

	serverUUID, _ := cfg.Server.ID()
	self := models.Server{
		UUID:       serverUUID,
		Name:       cfg.Server.Name,
		WebAddress: cfg.Server.WebAddress,
		Installed:  true,
		MaxPlayers: cfg.Server.MaxPlayers,
	}

	// data generation or database maintenance
	if cfg.Maintenance.GenerateCount > 0 {
		if err := fake.GenerateData(ctx, db, self, cfg.Maintenance.GenerateCount); err != nil {
			log.Error().Err(err).Msg("Failed to generate fake data")
		}
		return
	}
	if done, err := maintenance.Run(ctx, cfg, db, os.Stdout); done {
		if err != nil {
			log.Error().Err(err).Msg("Maintenance task failed")
		}
		return
	}

	if _, err := db.ExecuteTransaction(ctx, transactions.ServerInfoStore(self)); err != nil {
		log.Fatal().Err(err).Msg("Failed to register server")
	}

	pool := processing.New(db, cfg.Processing)
	pool.Start()
	sessions := sessioncache.New()

	srvHandler := server.New(db, pool, sessions, geoProvider, cfg)
	srvHandler.StartWorkers()

	var httpServer *http.Server
	if cfg.HTTP.Enabled {
		httpServer = &http.Server{
			Addr:         cfg.HTTP.Address,
			Handler:      srvHandler.Run(),
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		}

		go func() {
			log.Info().Str("address", cfg.HTTP.Address).Msg("Server listening")
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Fatal().Err(err).Msg("Server failed")
			}
		}()
	}

	// Graceful Shutdown
	<-ctx.Done()
	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if httpServer != nil {
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Server forced to shutdown")
		}
	}

	// Store sessions of players still online, then wait for the queue
	if err := sessions.Flush(shutdownCtx, pool); err != nil {
		log.Error().Err(err).Msg("Failed to store active sessions")
	}
	pool.Stop()
	srvHandler.StopWorkers()

	log.Info().Msg("Server exited")
}
