package main

import (
	"encoding/json"
	"log"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1024
	sendQueueSize  = 256

	maxNameLen = 16

	// Per-connection inbound budget. Inputs arrive as tiny binary frames,
	// so the steady rate has to cover held-key chatter.
	msgRateLimit = 60
	msgRateBurst = 120
)

// binarySendMarker prefixes queued frames that must go out as binary
// websocket messages instead of text.
const binarySendMarker = 0xFF

// binaryInputFrame marks the compact [marker, code, state] input message.
const binaryInputFrame = 0x01

// Client is one websocket connection. A client may browse sessions before
// joining; playerID and sessionID stay empty until a join succeeds.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	ip   string

	limiter *rate.Limiter

	playerID  string
	sessionID string
	name      string

	// Set after register/login/auth; 0 means guest.
	authPlayerID int64
	authUsername string
}

// NewClient wraps an upgraded websocket connection.
func NewClient(hub *Hub, conn *websocket.Conn, ip string) *Client {
	return &Client{
		hub:     hub,
		conn:    conn,
		send:    make(chan []byte, sendQueueSize),
		ip:      ip,
		limiter: rate.NewLimiter(msgRateLimit, msgRateBurst),
	}
}

// SendJSON marshals an envelope onto the send queue. Slow clients get
// dropped frames, never a blocked game loop.
func (c *Client) SendJSON(msg interface{}) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("client %s: marshal: %v", c.playerID, err)
		return
	}
	c.enqueue(data)
}

// SendBinary queues a binary frame (snapshots).
func (c *Client) SendBinary(data []byte) {
	framed := make([]byte, 0, len(data)+1)
	framed = append(framed, binarySendMarker)
	framed = append(framed, data...)
	c.enqueue(framed)
}

func (c *Client) enqueue(data []byte) {
	defer func() {
		// send may be closed by the hub while we enqueue
		recover()
	}()
	select {
	case c.send <- data:
	default:
	}
}

// ReadPump reads messages from the websocket until the connection dies.
// Runs as a goroutine per connection; all writes go through the hub/game.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.unregister <- c
		c.hub.TrackDisconnect(c.ip)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		msgType, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("client %s: read: %v", c.playerID, err)
			}
			return
		}

		if !c.limiter.Allow() {
			continue
		}

		if msgType == websocket.BinaryMessage {
			c.handleBinary(data)
			continue
		}

		var env InEnvelope
		if err := json.Unmarshal(data, &env); err != nil {
			c.sendError("bad message")
			continue
		}
		c.handleMessage(env)
	}
}

// WritePump writes queued frames and keeps the connection alive with pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if len(message) > 0 && message[0] == binarySendMarker {
				if err := c.conn.WriteMessage(websocket.BinaryMessage, message[1:]); err != nil {
					return
				}
			} else {
				if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
					return
				}
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleBinary routes the compact input frame to the game.
func (c *Client) handleBinary(data []byte) {
	if len(data) < 3 || data[0] != binaryInputFrame {
		return
	}
	if c.sessionID == "" {
		return
	}
	sess := c.hub.sessions.GetSession(c.sessionID)
	if sess == nil {
		return
	}
	sess.MarkActive()
	countWSMessage("input")
	sess.Game.HandleInput(c.playerID, data[1], data[2] != 0)
}

func (c *Client) handleMessage(env InEnvelope) {
	countWSMessage(env.T)
	switch env.T {
	case MsgList:
		c.handleList()
	case MsgCreate:
		c.handleCreate(env.D)
	case MsgJoin:
		c.handleJoin(env.D)
	case MsgCheck:
		c.handleCheck(env.D)
	case MsgInput:
		c.handleInputJSON(env.D)
	case MsgLeave:
		c.handleLeave()
	case MsgRegister:
		c.handleRegister(env.D)
	case MsgLogin:
		c.handleLogin(env.D)
	case MsgAuth:
		c.handleAuth(env.D)
	case MsgProfile:
		c.handleProfile()
	default:
		c.sendError("unknown message type")
	}
}

func (c *Client) sendError(msg string) {
	c.SendJSON(Envelope{T: MsgError, Data: ErrorMsg{Msg: msg}})
}

func (c *Client) handleList() {
	c.SendJSON(Envelope{T: MsgSessions, Data: c.hub.sessions.ListSessions()})
}

func (c *Client) handleCreate(raw json.RawMessage) {
	var msg CreateMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.sendError("bad create message")
		return
	}
	sess := c.hub.sessions.CreateSession(cleanName(msg.SessionName, "Maze"))
	if sess == nil {
		c.sendError("server is full")
		return
	}
	if c.hub.analytics != nil {
		c.hub.analytics.Track(EvtSessionCreated, c.authPlayerID, sess.ID, "")
	}
	c.SendJSON(Envelope{T: MsgCreated, Data: SessionInfo{
		ID:   sess.ID,
		Code: sess.Code,
		Name: sess.Name,
	}})
	c.joinSession(sess, msg.Name)
}

func (c *Client) handleJoin(raw json.RawMessage) {
	var msg JoinMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.sendError("bad join message")
		return
	}
	sess := c.hub.sessions.Resolve(msg.SessionID)
	if sess == nil {
		c.sendError("session not found")
		return
	}
	c.joinSession(sess, msg.Name)
}

// joinSession adds this client to a session's game and sends the welcome.
func (c *Client) joinSession(sess *Session, name string) {
	if c.sessionID != "" {
		c.handleLeave()
	}

	if name == "" && c.authUsername != "" {
		name = c.authUsername
	}
	name = cleanName(name, GenerateGuestName())

	p := sess.Game.AddPlayer(name, c.authPlayerID)
	if p == nil {
		c.sendError("session is full")
		return
	}
	sess.MarkActive()
	c.playerID = p.ID
	c.sessionID = sess.ID
	c.name = name
	sess.Game.SetClient(p.ID, c)

	if c.hub.analytics != nil {
		c.hub.analytics.Track(EvtRunStart, c.authPlayerID, sess.ID, "")
	}

	w, h := sess.Game.WorldSize()
	c.SendJSON(Envelope{T: MsgJoined, Data: SessionInfo{
		ID:      sess.ID,
		Code:    sess.Code,
		Name:    sess.Name,
		Players: sess.Game.PlayerCount(),
	}})
	c.SendJSON(Envelope{T: MsgWelcome, Data: WelcomeMsg{
		ID:       p.ID,
		Color:    p.Color,
		WorldW:   w,
		WorldH:   h,
		TickRate: TickRate,
	}})
}

func (c *Client) handleCheck(raw json.RawMessage) {
	var msg CheckMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.sendError("bad check message")
		return
	}
	sess := c.hub.sessions.Resolve(msg.SID)
	if sess == nil {
		c.SendJSON(Envelope{T: MsgChecked, Data: CheckedMsg{SID: msg.SID, Exists: false}})
		return
	}
	c.SendJSON(Envelope{T: MsgChecked, Data: CheckedMsg{
		SID:     msg.SID,
		Exists:  true,
		Name:    sess.Name,
		Players: sess.Game.PlayerCount(),
	}})
}

// handleInputJSON is the fallback path for clients without binary frames.
func (c *Client) handleInputJSON(raw json.RawMessage) {
	var msg InputMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		return
	}
	if c.sessionID == "" {
		return
	}
	sess := c.hub.sessions.GetSession(c.sessionID)
	if sess == nil {
		return
	}
	sess.MarkActive()
	sess.Game.HandleInput(c.playerID, msg.Code, msg.Down)
}

func (c *Client) handleLeave() {
	if c.sessionID == "" {
		return
	}
	c.hub.sessions.RemovePlayer(c.sessionID, c.playerID)
	c.sessionID = ""
	c.playerID = ""
}

func (c *Client) handleRegister(raw json.RawMessage) {
	var msg RegisterMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.sendError("bad register message")
		return
	}
	token, player, err := c.hub.auth.Register(msg.Username, msg.Password)
	if err != nil {
		c.sendError(err.Error())
		return
	}
	c.finishAuth(token, player)
}

func (c *Client) handleLogin(raw json.RawMessage) {
	var msg LoginMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.sendError("bad login message")
		return
	}
	token, player, err := c.hub.auth.Login(msg.Username, msg.Password, c.ip)
	if err != nil {
		c.sendError(err.Error())
		return
	}
	c.finishAuth(token, player)
}

func (c *Client) handleAuth(raw json.RawMessage) {
	var msg AuthMsg
	if err := json.Unmarshal(raw, &msg); err != nil {
		c.sendError("bad auth message")
		return
	}
	token, player, err := c.hub.auth.ValidateToken(msg.Token)
	if err != nil {
		c.sendError("invalid token")
		return
	}
	c.finishAuth(token, player)
}

func (c *Client) finishAuth(token string, player *PlayerRow) {
	c.authPlayerID = player.ID
	c.authUsername = player.Username
	c.hub.SetOnline(player.ID, c)
	c.SendJSON(Envelope{T: MsgAuthOK, Data: AuthOKMsg{
		Token:    token,
		Username: player.Username,
		PlayerID: player.ID,
	}})
}

func (c *Client) handleProfile() {
	if c.authPlayerID == 0 {
		c.sendError("not authenticated")
		return
	}
	if c.hub.db == nil {
		c.sendError("no database")
		return
	}
	stats, err := c.hub.db.GetStats(c.authPlayerID)
	if err != nil || stats == nil {
		c.sendError("stats unavailable")
		return
	}
	c.SendJSON(Envelope{T: MsgProfileData, Data: ProfileDataMsg{
		Username:    c.authUsername,
		Level:       stats.Level,
		XP:          stats.XP,
		Kills:       stats.Kills,
		Deaths:      stats.Deaths,
		DoorsOpened: stats.DoorsOpened,
		KeysFound:   stats.KeysFound,
		ItemsUsed:   stats.ItemsUsed,
		BestScore:   stats.BestScore,
		Playtime:    stats.Playtime,
	}})
}

// cleanName trims and bounds a display name, falling back when empty.
func cleanName(name, fallback string) string {
	out := make([]rune, 0, maxNameLen)
	for _, r := range name {
		if r < 0x20 || r == 0x7F {
			continue
		}
		out = append(out, r)
		if len(out) >= maxNameLen {
			break
		}
	}
	trimmed := string(out)
	for len(trimmed) > 0 && (trimmed[0] == ' ' || trimmed[len(trimmed)-1] == ' ') {
		if trimmed[0] == ' ' {
			trimmed = trimmed[1:]
		} else {
			trimmed = trimmed[:len(trimmed)-1]
		}
	}
	if trimmed == "" {
		return fallback
	}
	return trimmed
}
