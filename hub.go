package main

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
)

const (
	maxConnsPerIP = 5
	maxTotalConns = 1000
)

// Hub manages all connected clients, routes them to sessions and wires each
// session's game to analytics, metrics and stat persistence.
type Hub struct {
	mu         sync.RWMutex
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	sessions   *SessionManager
	tuning     *Tuning

	// Connection limiting (mutex-protected, accessed from HTTP handlers)
	connMu     sync.Mutex
	ipConns    map[string]int
	totalConns int

	db        *DB
	auth      *Auth
	analytics *Analytics

	// Online auth users: account id -> client
	onlineMu    sync.RWMutex
	onlineUsers map[int64]*Client
}

// NewHub creates a Hub. db and analytics may be nil; the game then runs
// without persistence.
func NewHub(db *DB, analytics *Analytics, tuning *Tuning) *Hub {
	h := &Hub{
		clients:     make(map[*Client]bool),
		register:    make(chan *Client, 64),
		unregister:  make(chan *Client, 64),
		tuning:      tuning,
		ipConns:     make(map[string]int),
		db:          db,
		auth:        NewAuth(db),
		analytics:   analytics,
		onlineUsers: make(map[int64]*Client),
	}
	h.sessions = NewSessionManager(h.newGame)
	return h
}

// newGame builds one session's game with its event and run sinks attached.
func (h *Hub) newGame(sessionID string) *Game {
	g := NewGame(h.tuning)
	g.onEvent = func(ev WorldEvent) {
		countWorldEvent(ev.Kind)
		if h.analytics != nil {
			data, _ := json.Marshal(map[string]string{"player": ev.Player, "extra": ev.Extra})
			h.analytics.Track(ev.Kind, 0, sessionID, string(data))
		}
	}
	g.onRunEnd = func(sum RunSummary) {
		h.finishRun(sessionID, sum)
	}
	return g
}

// finishRun persists a completed run and pushes any newly unlocked
// achievements to the player if they are still connected.
func (h *Hub) finishRun(sessionID string, sum RunSummary) {
	if h.analytics != nil {
		data, _ := json.Marshal(map[string]interface{}{
			"score":    sum.Score,
			"kills":    sum.Kills,
			"deaths":   sum.Deaths,
			"duration": sum.Duration,
		})
		h.analytics.Track(EvtRunEnd, sum.AuthID, sessionID, string(data))
	}
	if h.db == nil {
		return
	}

	if err := h.db.RecordRun(sessionID, sum); err != nil {
		log.Printf("record run: %v", err)
	}
	if sum.AuthID == 0 {
		return
	}

	leveled, newLevel, err := h.db.ApplyRun(sum.AuthID, sum)
	if err != nil {
		log.Printf("apply run stats: %v", err)
		return
	}
	if leveled && h.analytics != nil {
		h.analytics.Track(EvtLevelUp, sum.AuthID, sessionID, fmt.Sprintf(`{"level":%d}`, newLevel))
	}

	unlocked := CheckAchievements(h.db, sum.AuthID, sum)
	client := h.GetOnlineClient(sum.AuthID)
	for _, def := range unlocked {
		if h.analytics != nil {
			h.analytics.Track(EvtAchievement, sum.AuthID, sessionID, fmt.Sprintf(`{"id":%q}`, def.ID))
		}
		if client != nil {
			client.SendJSON(Envelope{T: MsgAchievement, Data: AchievementMsg{
				ID:          def.ID,
				Name:        def.Name,
				Description: def.Description,
			}})
		}
	}
}

// CanAccept reports whether a new connection from ip fits the limits.
func (h *Hub) CanAccept(ip string) bool {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	if h.totalConns >= maxTotalConns {
		return false
	}
	if h.ipConns[ip] >= maxConnsPerIP {
		return false
	}
	return true
}

func (h *Hub) TrackConnect(ip string) {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	h.ipConns[ip]++
	h.totalConns++
}

func (h *Hub) TrackDisconnect(ip string) {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	h.ipConns[ip]--
	if h.ipConns[ip] <= 0 {
		delete(h.ipConns, ip)
	}
	h.totalConns--
}

// Run processes register/unregister events.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			n := len(h.clients)
			h.mu.Unlock()
			h.noteClientCount(n)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			n := len(h.clients)
			h.mu.Unlock()
			h.noteClientCount(n)

			if client.authPlayerID != 0 {
				h.SetOffline(client.authPlayerID)
			}
			if client.sessionID != "" {
				h.sessions.RemovePlayer(client.sessionID, client.playerID)
			}
		}
	}
}

// noteClientCount refreshes the connection gauges.
func (h *Hub) noteClientCount(n int) {
	setConnectedClients(n)
	if h.analytics != nil {
		h.analytics.SetLivePlayers(n)
		h.analytics.SetLiveSessions(h.sessions.SessionCount())
	}
	setActiveSessions(h.sessions.SessionCount())

	players := 0
	for _, info := range h.sessions.ListSessions() {
		players += info.Players
	}
	setActivePlayers(players)
}

// SetOnline marks an authenticated user as online.
func (h *Hub) SetOnline(playerID int64, client *Client) {
	h.onlineMu.Lock()
	defer h.onlineMu.Unlock()
	h.onlineUsers[playerID] = client
}

// SetOffline removes an authenticated user from online tracking.
func (h *Hub) SetOffline(playerID int64) {
	h.onlineMu.Lock()
	defer h.onlineMu.Unlock()
	delete(h.onlineUsers, playerID)
}

// GetOnlineClient returns the client for an online account, or nil.
func (h *Hub) GetOnlineClient(playerID int64) *Client {
	h.onlineMu.RLock()
	defer h.onlineMu.RUnlock()
	return h.onlineUsers[playerID]
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// TotalConns returns the tracked connection count.
func (h *Hub) TotalConns() int {
	h.connMu.Lock()
	defer h.connMu.Unlock()
	return h.totalConns
}
