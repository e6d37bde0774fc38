// Package fake provides utilities for generating random gameplay data for testing and development purposes.
package fake

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/models"
	"github.com/skmedix/Plan-PlayerAnalytics/internal/transactions"
)

// Executor runs generated transactions.
type Executor interface {
	ExecuteTransaction(ctx context.Context, t transactions.Transaction) (transactions.State, error)
}

const (
	days = 30
	hour = int64(time.Hour / time.Millisecond)
)

// GenerateData registers count random players on server and fills the
// last 30 days with their sessions, plus TPS samples and command usage
// of the server.
func GenerateData(ctx context.Context, db Executor, server models.Server, count int) error {
	if _, err := db.ExecuteTransaction(ctx, transactions.ServerInfoStore(server)); err != nil {
		return fmt.Errorf("store server: %w", err)
	}

	now := models.NowMillis()
	start := now - days*24*hour

	worlds := []string{"world", "world_nether", "world_the_end", "lobby"}
	commands := []string{"/spawn", "/home", "/tpa", "/msg", "/warp", "/plan", "/help"}
	weapons := []string{"Diamond Sword", "Bow", "Iron Axe", "Trident"}

	// Countries list
	countriesHigh := []string{"United States", "Germany", "Russia", "Brazil", "France", "United Kingdom", "Poland"}
	countriesMid := []string{"Canada", "Australia", "Italy", "Spain", "Netherlands", "Sweden", "Japan"}
	countriesLow := []string{"South Africa", "Argentina", "Mexico", "India", "Norway", "Finland", "Portugal"}

	// Cache for ip reuse
	type cachedIP struct {
		Address string
		Country string
	}
	var ipHistory []cachedIP

	players := make([]uuid.UUID, 0, count)
	failed := 0

	for i := 0; i < count; i++ {
		player := uuid.New()
		name := fmt.Sprintf("Player%04d", i)
		registered := start + rand.Int63n(days*24*hour-hour)

		var ip, country string

		// 20% chance for reuse IP address
		if len(ipHistory) > 0 && rand.Float32() < 0.2 {
			cached := ipHistory[rand.Intn(len(ipHistory))]
			ip = cached.Address
			country = cached.Country
		} else {
			ip = fmt.Sprintf("%d.%d.%d.%d", rand.Intn(220)+1, rand.Intn(255), rand.Intn(255), rand.Intn(255))

			roll := rand.Float32()
			switch {
			case roll < 0.70:
				country = countriesHigh[rand.Intn(len(countriesHigh))]
			case roll < 0.90:
				country = countriesMid[rand.Intn(len(countriesMid))]
			default:
				country = countriesLow[rand.Intn(len(countriesLow))]
			}

			ipHistory = append(ipHistory, cachedIP{Address: ip, Country: country})
		}

		batch := []transactions.Transaction{
			transactions.PlayerServerRegister(player, server.UUID, registered, name),
			transactions.GeoInfoStore(player, models.NewGeoInfo(ip, country, registered)),
			transactions.NicknameStore(player, models.Nickname{Name: name, ServerUUID: server.UUID, Date: registered}),
		}

		// Sessions follow each other from registration on
		at := registered
		for range 1 + rand.Intn(10) {
			length := int64(5+rand.Intn(180)) * int64(time.Minute/time.Millisecond)
			if at+length >= now {
				break
			}

			s := models.NewSession(player, server.UUID, at, worlds[rand.Intn(len(worlds))], models.GameModes[rand.Intn(len(models.GameModes))])
			if rand.Float32() < 0.5 {
				s.ChangeState(worlds[rand.Intn(len(worlds))], models.Survival, at+length/2)
			}
			s.MobKills = rand.Intn(20)
			s.Deaths = rand.Intn(5)
			s.AddAFKTime(rand.Int63n(length / 4))
			if len(players) > 0 && rand.Float32() < 0.3 {
				s.AddPlayerKill(models.PlayerKill{
					Killer: player,
					Victim: players[rand.Intn(len(players))],
					Weapon: weapons[rand.Intn(len(weapons))],
					Date:   at + length/3,
				})
			}
			s.EndSession(at + length)

			pings := make([]int, 5)
			for j := range pings {
				pings[j] = 20 + rand.Intn(150)
			}

			batch = append(batch,
				transactions.SessionEnd(s),
				transactions.PingStore(player, server.UUID, at+length, pings),
			)

			at += length + int64(1+rand.Intn(48))*hour
		}

		if rand.Float32() < 0.05 { // 5% chance kicked
			batch = append(batch, transactions.KickStore(player))
		}
		if rand.Float32() < 0.02 { // 2% chance banned
			batch = append(batch, transactions.BanStatus(player, server.UUID, true))
		}

		for _, t := range batch {
			if _, err := db.ExecuteTransaction(ctx, t); err != nil {
				log.Warn().Err(err).Str("transaction", t.Name()).Msg("Failed to generate fake data")
				failed++
			}
		}

		players = append(players, player)
	}

	// Hourly performance samples
	for date := start; date < now; date += hour {
		sample := models.TPS{
			Date:          date,
			TicksPerSec:   15 + rand.Float64()*5,
			Players:       rand.Intn(count + 1),
			CPUUsage:      rand.Float64() * 100,
			UsedMemory:    512 + rand.Int63n(3584),
			Entities:      rand.Intn(5000),
			ChunksLoaded:  rand.Intn(2000),
			FreeDiskSpace: 10000 + rand.Int63n(90000),
		}
		if _, err := db.ExecuteTransaction(ctx, transactions.TPSStore(server.UUID, sample)); err != nil {
			log.Warn().Err(err).Msg("Failed to generate fake TPS sample")
			failed++
		}
	}

	for range count * 5 {
		command := commands[rand.Intn(len(commands))]
		if _, err := db.ExecuteTransaction(ctx, transactions.CommandStore(server.UUID, command)); err != nil {
			log.Warn().Err(err).Msg("Failed to generate fake command usage")
			failed++
		}
	}

	log.Info().
		Int("players", count).
		Int("failed", failed).
		Msg("Fake data generated")

	return nil
}
