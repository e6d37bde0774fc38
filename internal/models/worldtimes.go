package models

import "maps"

// Game modes tracked by world times.
const (
	Survival  = "SURVIVAL"
	Creative  = "CREATIVE"
	Adventure = "ADVENTURE"
	Spectator = "SPECTATOR"
)

// GameModes lists the tracked game modes in storage column order.
var GameModes = []string{Survival, Creative, Adventure, Spectator}

// GMTimes maps a game mode to accumulated milliseconds.
type GMTimes map[string]int64

// Total sums all game modes.
func (g GMTimes) Total() int64 {
	var total int64
	for _, ms := range g {
		total += ms
	}

	return total
}

// WorldTimes maps world name to per game mode playtime.
// While attached to an active session it also tracks the current state.
type WorldTimes struct {
	Times map[string]GMTimes `json:"times"`

	world      string
	gameMode   string
	lastChange int64
}

// NewWorldTimes returns empty world times.
func NewWorldTimes() *WorldTimes {
	return &WorldTimes{Times: make(map[string]GMTimes)}
}

// SetState accounts the time spent in the current world and game mode, then switches to a new one.
func (w *WorldTimes) SetState(world, gameMode string, at int64) {
	w.flush(at)
	w.world = world
	w.gameMode = gameMode
	w.lastChange = at
}

// Clone returns a deep copy that keeps tracking the same state.
func (w *WorldTimes) Clone() *WorldTimes {
	if w == nil {
		return nil
	}

	c := &WorldTimes{
		Times:      make(map[string]GMTimes, len(w.Times)),
		world:      w.world,
		gameMode:   w.gameMode,
		lastChange: w.lastChange,
	}
	for world, gm := range w.Times {
		c.Times[world] = maps.Clone(gm)
	}

	return c
}

// End accounts the remaining time of the current state and stops tracking.
func (w *WorldTimes) End(at int64) {
	w.flush(at)
	w.world = ""
	w.gameMode = ""
}

func (w *WorldTimes) flush(at int64) {
	if w.world == "" || at <= w.lastChange {
		return
	}
	w.Put(w.world, w.gameMode, w.World(w.world)[w.gameMode]+at-w.lastChange)
	w.lastChange = at
}

// Put sets the milliseconds of a world and game mode.
func (w *WorldTimes) Put(world, gameMode string, ms int64) {
	if w.Times == nil {
		w.Times = make(map[string]GMTimes)
	}
	gm, ok := w.Times[world]
	if !ok {
		gm = make(GMTimes)
		w.Times[world] = gm
	}
	gm[gameMode] = ms
}

// World returns the game mode times of one world (nil when unknown).
func (w *WorldTimes) World(world string) GMTimes {
	if w == nil {
		return nil
	}

	return w.Times[world]
}

// Add sums other world times into w.
func (w *WorldTimes) Add(other *WorldTimes) {
	if other == nil {
		return
	}
	for world, gm := range other.Times {
		for mode, ms := range gm {
			w.Put(world, mode, w.World(world)[mode]+ms)
		}
	}
}

// WorldPlaytime is the total time spent in one world.
func (w *WorldTimes) WorldPlaytime(world string) int64 {
	return w.World(world).Total()
}

// Total is the time spent in all worlds.
func (w *WorldTimes) Total() int64 {
	if w == nil {
		return 0
	}

	var total int64
	for _, gm := range w.Times {
		total += gm.Total()
	}

	return total
}

// GMTotals sums each game mode across worlds.
func (w *WorldTimes) GMTotals() GMTimes {
	totals := make(GMTimes)
	if w == nil {
		return totals
	}
	for _, gm := range w.Times {
		for mode, ms := range gm {
			totals[mode] += ms
		}
	}

	return totals
}

// Equal compares recorded times; zero entries are ignored.
func (w *WorldTimes) Equal(o *WorldTimes) bool {
	return w.contains(o) && o.contains(w)
}

func (w *WorldTimes) contains(o *WorldTimes) bool {
	if o == nil {
		return true
	}
	for world, gm := range o.Times {
		for mode, ms := range gm {
			if ms != 0 && w.World(world)[mode] != ms {
				return false
			}
		}
	}

	return true
}
