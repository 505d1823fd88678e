package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/vmihailenco/msgpack/v5"
)

// ---------- helpers ----------

var uuidRegex = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)

// startTestServer spins up an httptest.Server with a persistence-free Hub and
// returns the server, its WebSocket URL, and a cleanup func.
func startTestServer(t *testing.T) (*httptest.Server, string, func()) {
	t.Helper()

	prevIdleTimeout := SessionIdleTimeout
	SessionIdleTimeout = 150 * time.Millisecond

	tmpDir := t.TempDir()
	os.WriteFile(filepath.Join(tmpDir, "index.html"), []byte("<html>test</html>"), 0o644)

	hub := NewHub(nil, nil, testTuning())
	go hub.Run()

	mux := SetupRoutes(hub, tmpDir)
	srv := httptest.NewServer(mux)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"

	return srv, wsURL, func() {
		SessionIdleTimeout = prevIdleTimeout
		srv.Close()
	}
}

// dialWS opens a WebSocket connection to the test server.
func dialWS(t *testing.T, wsURL string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial WS: %v", err)
	}
	return conn
}

// readJSONEnvelope reads the next JSON message, skipping any binary snapshot
// frames that arrive in between.
func readJSONEnvelope(t *testing.T, conn *websocket.Conn) Envelope {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for {
		conn.SetReadDeadline(deadline)
		msgType, raw, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read WS: %v", err)
		}
		if msgType == websocket.BinaryMessage {
			continue
		}
		var env Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		return env
	}
}

// readSnapshot reads the next binary snapshot frame, skipping JSON traffic.
func readSnapshot(t *testing.T, conn *websocket.Conn) Snapshot {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for {
		conn.SetReadDeadline(deadline)
		msgType, raw, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read WS: %v", err)
		}
		if msgType != websocket.BinaryMessage {
			continue
		}
		var snap Snapshot
		if err := msgpack.Unmarshal(raw, &snap); err != nil {
			t.Fatalf("msgpack unmarshal: %v", err)
		}
		return snap
	}
}

// sendMsg sends a typed JSON message over the WebSocket.
func sendMsg(t *testing.T, conn *websocket.Conn, msgType string, data interface{}) {
	t.Helper()
	raw, _ := json.Marshal(Envelope{T: msgType, Data: data})
	if err := conn.WriteMessage(websocket.TextMessage, raw); err != nil {
		t.Fatalf("write WS: %v", err)
	}
}

// dataMap extracts the Data field as map[string]interface{}.
func dataMap(t *testing.T, env Envelope) map[string]interface{} {
	t.Helper()
	raw, _ := json.Marshal(env.Data)
	var m map[string]interface{}
	json.Unmarshal(raw, &m)
	return m
}

// createSession creates a session over the socket and consumes the created,
// joined and welcome messages. Returns the session id, join code and the
// caller's player id.
func createSession(t *testing.T, conn *websocket.Conn, name string) (string, string, string) {
	t.Helper()
	sendMsg(t, conn, MsgCreate, CreateMsg{Name: name, SessionName: "Test Arena"})

	created := readJSONEnvelope(t, conn)
	if created.T != MsgCreated {
		t.Fatalf("expected created, got %s", created.T)
	}
	cd := dataMap(t, created)
	sid, _ := cd["id"].(string)
	code, _ := cd["code"].(string)

	joined := readJSONEnvelope(t, conn)
	if joined.T != MsgJoined {
		t.Fatalf("expected joined, got %s", joined.T)
	}
	welcome := readJSONEnvelope(t, conn)
	if welcome.T != MsgWelcome {
		t.Fatalf("expected welcome, got %s", welcome.T)
	}
	pid, _ := dataMap(t, welcome)["id"].(string)
	return sid, code, pid
}

// ---------- HTTP surface ----------

func TestHealthEndpoint(t *testing.T) {
	srv, _, cleanup := startTestServer(t)
	defer cleanup()

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatalf("get healthz: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d, want 200", resp.StatusCode)
	}
	var body map[string]interface{}
	json.NewDecoder(resp.Body).Decode(&body)
	if body["ok"] != true {
		t.Errorf("body %v, want ok=true", body)
	}
}

func TestLeaderboardWithoutDatabase(t *testing.T) {
	srv, _, cleanup := startTestServer(t)
	defer cleanup()

	resp, err := http.Get(srv.URL + "/api/leaderboard")
	if err != nil {
		t.Fatalf("get leaderboard: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d, want 200", resp.StatusCode)
	}
	var entries []LeaderboardEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("%d entries, want an empty list", len(entries))
	}
}

// ---------- session lifecycle over the socket ----------

func TestCreateAndJoinSession(t *testing.T) {
	srv, wsURL, cleanup := startTestServer(t)
	defer cleanup()

	conn := dialWS(t, wsURL)
	defer conn.Close()

	sid, code, pid := createSession(t, conn, "Alice")
	if !uuidRegex.MatchString(sid) {
		t.Errorf("session id %q is not a v4 uuid", sid)
	}
	if len(code) != joinCodeLen {
		t.Errorf("join code %q, want %d characters", code, joinCodeLen)
	}
	if pid == "" {
		t.Error("welcome should carry the player id")
	}

	resp, err := http.Get(srv.URL + "/api/sessions")
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	defer resp.Body.Close()
	var list []SessionInfo
	json.NewDecoder(resp.Body).Decode(&list)
	if len(list) != 1 || list[0].ID != sid || list[0].Players != 1 {
		t.Errorf("session list %+v, want the created session with one player", list)
	}
}

func TestJoinByCode(t *testing.T) {
	_, wsURL, cleanup := startTestServer(t)
	defer cleanup()

	host := dialWS(t, wsURL)
	defer host.Close()
	_, code, _ := createSession(t, host, "Host")

	guest := dialWS(t, wsURL)
	defer guest.Close()
	sendMsg(t, guest, MsgJoin, JoinMsg{Name: "Guest", SessionID: code})

	joined := readJSONEnvelope(t, guest)
	if joined.T != MsgJoined {
		t.Fatalf("expected joined, got %s", joined.T)
	}
	if got := dataMap(t, joined)["players"].(float64); got != 2 {
		t.Errorf("%v players after the guest joined, want 2", got)
	}
}

func TestJoinUnknownSession(t *testing.T) {
	_, wsURL, cleanup := startTestServer(t)
	defer cleanup()

	conn := dialWS(t, wsURL)
	defer conn.Close()
	sendMsg(t, conn, MsgJoin, JoinMsg{Name: "Lost", SessionID: "NOPE42"})

	env := readJSONEnvelope(t, conn)
	if env.T != MsgError {
		t.Fatalf("expected error, got %s", env.T)
	}
}

// ---------- gameplay over the socket ----------

func TestSnapshotStream(t *testing.T) {
	_, wsURL, cleanup := startTestServer(t)
	defer cleanup()

	conn := dialWS(t, wsURL)
	defer conn.Close()
	_, _, pid := createSession(t, conn, "Pilot")

	snap := readSnapshot(t, conn)
	if snap.You == nil || snap.You.ID != pid {
		t.Fatal("snapshot should carry the viewer's private state")
	}
	if len(snap.Players) != 1 {
		t.Errorf("%d players in snapshot, want 1", len(snap.Players))
	}
	if len(snap.Walls) == 0 {
		t.Error("snapshot should include maze walls")
	}
	if snap.You.MaxHP != PlayerMaxHP {
		t.Errorf("max hp %d, want %d", snap.You.MaxHP, PlayerMaxHP)
	}
}

func TestBinaryInputDrivesSimulation(t *testing.T) {
	_, wsURL, cleanup := startTestServer(t)
	defer cleanup()

	conn := dialWS(t, wsURL)
	defer conn.Close()
	_, _, pid := createSession(t, conn, "Pilot")

	frame := []byte{binaryInputFrame, InputThrust, 1}
	if err := conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
		t.Fatalf("write input: %v", err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		snap := readSnapshot(t, conn)
		for _, p := range snap.Players {
			if p.ID == pid && p.Thrust {
				return
			}
		}
	}
	t.Fatal("thrust input never reflected in a snapshot")
}

func TestMapAndQREndpoints(t *testing.T) {
	srv, wsURL, cleanup := startTestServer(t)
	defer cleanup()

	conn := dialWS(t, wsURL)
	defer conn.Close()
	sid, code, _ := createSession(t, conn, "Pilot")

	for _, path := range []string{"/map/" + sid + ".png", "/qr/" + code} {
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatalf("get %s: %v", path, err)
		}
		if resp.StatusCode != http.StatusOK {
			t.Errorf("%s: status %d, want 200", path, resp.StatusCode)
		}
		if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
			t.Errorf("%s: content type %s, want image/png", path, ct)
		}
		resp.Body.Close()
	}
}

func TestSessionReapedOnDisconnect(t *testing.T) {
	srv, wsURL, cleanup := startTestServer(t)
	defer cleanup()

	conn := dialWS(t, wsURL)
	_, _, _ = createSession(t, conn, "Pilot")
	conn.Close()

	// The hub removes the player on disconnect and the emptied session goes
	// with it.
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get(srv.URL + "/healthz")
		if err != nil {
			t.Fatalf("get healthz: %v", err)
		}
		var body map[string]interface{}
		json.NewDecoder(resp.Body).Decode(&body)
		resp.Body.Close()
		if body["sessions"] == float64(0) {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatal("empty session was never reaped")
}
