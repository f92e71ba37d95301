package ratelimits

import (
	"sync"
	"time"
)

// DefaultCooldown is how long a guild stays cooling down after a command
const DefaultCooldown = 5 * time.Second

// GuildState is the state of one guild in the gate
type GuildState int

const (
	GuildFree GuildState = iota
	GuildProcessing
	GuildCoolingDown
)

func (s GuildState) String() string {
	switch s {
	case GuildFree:
		return "free"
	case GuildProcessing:
		return "processing"
	case GuildCoolingDown:
		return "cooling down"
	}
	return "unknown"
}

// GuildGate lets one command per guild run at a time, followed by a cooldown.
// Rejected commands are dropped, not queued.
type GuildGate struct {
	sync.Mutex
	processing map[string]bool
	coolUntil  map[string]time.Time

	cooldown time.Duration
	now      func() time.Time
}

func NewGuildGate(cooldown time.Duration) *GuildGate {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}

	return &GuildGate{
		processing: make(map[string]bool),
		coolUntil:  make(map[string]time.Time),
		cooldown:   cooldown,
		now:        time.Now,
	}
}

// state must be called with the lock held
func (g *GuildGate) state(guildID string) GuildState {
	if g.processing[guildID] {
		return GuildProcessing
	}
	if until, ok := g.coolUntil[guildID]; ok {
		if g.now().Before(until) {
			return GuildCoolingDown
		}
		delete(g.coolUntil, guildID)
	}
	return GuildFree
}

// State returns the current state of $guildID
func (g *GuildGate) State(guildID string) GuildState {
	g.Lock()
	defer g.Unlock()

	return g.state(guildID)
}

// Acquire marks $guildID as processing. When the guild is not free the
// blocking state is returned together with ok == false. The returned release
// func starts the cooldown, calling it more than once has no effect.
func (g *GuildGate) Acquire(guildID string) (release func(), state GuildState, ok bool) {
	g.Lock()
	defer g.Unlock()

	state = g.state(guildID)
	if state != GuildFree {
		return nil, state, false
	}
	g.processing[guildID] = true

	var once sync.Once
	release = func() {
		once.Do(func() {
			g.Lock()
			delete(g.processing, guildID)
			g.coolUntil[guildID] = g.now().Add(g.cooldown)
			g.Unlock()
		})
	}
	return release, GuildProcessing, true
}
