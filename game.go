package main

import (
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

const (
	TickRate       = 30 // simulation ticks per second
	BroadcastRate  = 15 // state broadcasts per second
	TickDuration   = time.Second / TickRate
	BroadcastEvery = TickRate / BroadcastRate

	maxPlayersPerSession = 16
)

// Broadcaster is the client surface the game needs: JSON envelopes for
// events, binary frames for snapshots.
type Broadcaster interface {
	SendJSON(msg interface{})
	SendBinary(data []byte)
}

// RunSummary captures one player's finished run for persistence.
type RunSummary struct {
	PlayerID  string
	AuthID    int64
	Name      string
	Score     int
	Kills     int
	Deaths    int
	Doors     int
	KeysFound int
	ItemsUsed int
	Duration  float64
}

// Game drives one session's world: it owns the tick loop, fans snapshots out
// to clients and forwards gameplay events. All world access goes through its
// mutex.
type Game struct {
	mu        sync.RWMutex
	world     *World
	clients   map[string]Broadcaster // playerID -> client
	tick      uint64
	running   bool
	stop      chan struct{}
	nextColor int

	// set once at creation, called without the lock held
	onEvent  func(WorldEvent)
	onRunEnd func(RunSummary)
}

// NewGame creates a stopped game around a freshly seeded world.
func NewGame(cfg *Tuning) *Game {
	return &Game{
		world:   NewWorld(cfg, 0),
		clients: make(map[string]Broadcaster),
		stop:    make(chan struct{}),
	}
}

// Run starts the tick loop and blocks until Stop.
func (g *Game) Run() {
	g.mu.Lock()
	g.running = true
	g.mu.Unlock()

	ticker := time.NewTicker(TickDuration)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			g.update()
		case <-g.stop:
			return
		}
	}
}

// Stop terminates the tick loop.
func (g *Game) Stop() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.running {
		g.running = false
		close(g.stop)
	}
}

// update advances one tick and broadcasts on the broadcast cadence.
func (g *Game) update() {
	started := time.Now()

	g.mu.Lock()
	g.tick++
	g.world.Step(1.0 / TickRate)
	events := g.world.ConsumeEvents()

	var frames map[string][]byte
	if g.tick%BroadcastEvery == 0 {
		frames = g.encodeSnapshots()
	}
	clients := make(map[string]Broadcaster, len(g.clients))
	for id, c := range g.clients {
		clients[id] = c
	}
	g.mu.Unlock()

	observeTick(time.Since(started))

	for id, frame := range frames {
		if c, ok := clients[id]; ok {
			c.SendBinary(frame)
		}
	}
	g.dispatchEvents(events, clients)
}

// encodeSnapshots builds and encodes one frame per connected viewer. Callers
// hold the game lock.
func (g *Game) encodeSnapshots() map[string][]byte {
	sounds := g.world.ConsumeSounds()
	frames := make(map[string][]byte, len(g.clients))
	for id := range g.clients {
		snap := g.world.Snapshot(id, g.tick, sounds)
		data, err := msgpack.Marshal(snap)
		if err != nil {
			continue
		}
		frames[id] = data
	}
	return frames
}

// dispatchEvents turns world events into side messages (kill feed, death
// notices) and hands everything to the session's event sink.
func (g *Game) dispatchEvents(events []WorldEvent, clients map[string]Broadcaster) {
	for _, ev := range events {
		switch ev.Kind {
		case "player_kill":
			killer, victim := g.PlayerInfo(ev.Player), g.PlayerInfo(ev.Extra)
			msg := Envelope{T: MsgKill, Data: KillMsg{
				KillerID:   ev.Player,
				KillerName: killer,
				VictimID:   ev.Extra,
				VictimName: victim,
			}}
			for _, c := range clients {
				c.SendJSON(msg)
			}
		case "death":
			if c, ok := clients[ev.Player]; ok {
				c.SendJSON(Envelope{T: MsgDeath, Data: DeathMsg{KillerName: ev.Extra}})
			}
		}
		if g.onEvent != nil {
			g.onEvent(ev)
		}
	}
}

// PlayerInfo returns a player's display name, or empty when unknown.
func (g *Game) PlayerInfo(id string) string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if p, ok := g.world.players[id]; ok {
		return p.Name
	}
	return ""
}

// AddPlayer spawns a new player, cycling ship colors. Returns nil when the
// session is full.
func (g *Game) AddPlayer(name string, authID int64) *Player {
	g.mu.Lock()
	defer g.mu.Unlock()

	if len(g.world.players) >= maxPlayersPerSession {
		return nil
	}
	id := GenerateID(4)
	color := g.nextColor % len(playerPalette)
	g.nextColor++
	p := g.world.AddPlayer(id, name, color)
	p.AuthID = authID
	return p
}

// RemovePlayer finishes a player's run: reports the summary, then removes the
// player and its client binding.
func (g *Game) RemovePlayer(id string) {
	g.mu.Lock()
	var summary *RunSummary
	if p, ok := g.world.players[id]; ok {
		summary = &RunSummary{
			PlayerID:  p.ID,
			AuthID:    p.AuthID,
			Name:      p.Name,
			Score:     p.Score,
			Kills:     p.Kills,
			Deaths:    p.Deaths,
			Doors:     p.DoorsOpened,
			KeysFound: p.KeysFound,
			ItemsUsed: p.ItemsUsed,
			Duration:  g.world.clock - p.JoinedAt,
		}
	}
	g.world.RemovePlayer(id)
	delete(g.clients, id)
	g.mu.Unlock()

	if summary != nil && g.onRunEnd != nil {
		g.onRunEnd(*summary)
	}
}

// SetClient associates a broadcaster with a player.
func (g *Game) SetClient(playerID string, client Broadcaster) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.clients[playerID] = client
}

// HasPlayer reports whether a player id is in this session.
func (g *Game) HasPlayer(id string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.world.players[id]
	return ok
}

// HandleInput applies one input transition from the session boundary.
func (g *Game) HandleInput(playerID string, code uint8, down bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.world.HandleInput(playerID, code, down)
}

// PlayerCount returns the number of players in the session.
func (g *Game) PlayerCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.world.PlayerCount()
}

// WorldSize returns the arena dimensions.
func (g *Game) WorldSize() (float64, float64) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.world.width, g.world.height
}

// MapImage renders the current maze as a PNG for the session overview page.
func (g *Game) MapImage() ([]byte, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return RenderMapPNG(g.world)
}
