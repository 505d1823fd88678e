package main

import (
	"sync"
	"testing"

	"github.com/vmihailenco/msgpack/v5"
)

// mockBroadcaster captures everything a client would receive.
type mockBroadcaster struct {
	mu       sync.Mutex
	messages []interface{}
	frames   [][]byte
}

func (m *mockBroadcaster) SendJSON(msg interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, msg)
}

func (m *mockBroadcaster) SendBinary(data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.frames = append(m.frames, data)
}

func (m *mockBroadcaster) frameCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.frames)
}

func newTestGame() *Game {
	return NewGame(testTuning())
}

func TestGameAddRemovePlayer(t *testing.T) {
	g := newTestGame()
	p := g.AddPlayer("TestPilot", 0)
	if p == nil || p.Name != "TestPilot" {
		t.Fatalf("got %+v, want a player named TestPilot", p)
	}
	if g.PlayerCount() != 1 {
		t.Errorf("%d players, want 1", g.PlayerCount())
	}

	g.RemovePlayer(p.ID)
	if g.PlayerCount() != 0 {
		t.Errorf("%d players after remove, want 0", g.PlayerCount())
	}
}

func TestGameColorRotation(t *testing.T) {
	g := newTestGame()
	for i := 0; i < len(playerPalette)+1; i++ {
		p := g.AddPlayer("P", 0)
		if p.Color != i%len(playerPalette) {
			t.Errorf("player %d got color %d, want %d", i, p.Color, i%len(playerPalette))
		}
	}
}

func TestGameSessionCap(t *testing.T) {
	g := newTestGame()
	for i := 0; i < maxPlayersPerSession; i++ {
		if g.AddPlayer("P", 0) == nil {
			t.Fatalf("player %d rejected below the cap", i)
		}
	}
	if g.AddPlayer("Overflow", 0) != nil {
		t.Error("players beyond the cap should be rejected")
	}
}

func TestGameHandleInput(t *testing.T) {
	g := newTestGame()
	p := g.AddPlayer("Test", 0)

	g.HandleInput(p.ID, InputThrust, true)
	g.mu.RLock()
	thrusting := g.world.players[p.ID].Thrusting
	g.mu.RUnlock()
	if !thrusting {
		t.Error("thrust input should set the thruster flag")
	}

	g.HandleInput(p.ID, InputSlotBomb, true)
	g.mu.RLock()
	slot := g.world.players[p.ID].Slot
	g.mu.RUnlock()
	if slot != SlotBomb {
		t.Errorf("slot %d, want bomb", slot)
	}
}

func TestGameUpdateBroadcastsSnapshots(t *testing.T) {
	g := newTestGame()
	p := g.AddPlayer("Viewer", 0)
	mock := &mockBroadcaster{}
	g.SetClient(p.ID, mock)

	// Snapshots go out every BroadcastEvery ticks.
	for i := 0; i < BroadcastEvery; i++ {
		g.update()
	}
	if mock.frameCount() != 1 {
		t.Fatalf("%d frames after %d ticks, want 1", mock.frameCount(), BroadcastEvery)
	}

	var snap Snapshot
	if err := msgpack.Unmarshal(mock.frames[0], &snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if snap.You == nil || snap.You.ID != p.ID {
		t.Error("snapshot should carry the viewer's private state")
	}
	if len(snap.Players) != 1 {
		t.Errorf("%d players in snapshot, want 1", len(snap.Players))
	}
	if len(snap.Walls) == 0 {
		t.Error("snapshot should include nearby walls")
	}
}

func TestGameRunSummaryOnRemove(t *testing.T) {
	g := newTestGame()
	var got *RunSummary
	g.onRunEnd = func(sum RunSummary) { got = &sum }

	p := g.AddPlayer("Runner", 42)
	g.mu.Lock()
	p.Score = 77
	p.Kills = 3
	g.mu.Unlock()

	g.RemovePlayer(p.ID)
	if got == nil {
		t.Fatal("removal should report a run summary")
	}
	if got.AuthID != 42 || got.Score != 77 || got.Kills != 3 {
		t.Errorf("summary %+v, want auth 42, score 77, kills 3", got)
	}
}

func TestWorldSnapshotOmitsRetiredRecords(t *testing.T) {
	w := generatedWorld(t, 11)
	w.cfg.DropChance = 0
	p := w.AddPlayer("p1", "pilot", 0)

	var victim *Enemy
	for _, e := range w.enemies {
		victim = e
		break
	}
	before := len(w.Snapshot(p.ID, 1, nil).Enemies)
	w.killEnemy(victim, nil)
	after := len(w.Snapshot(p.ID, 2, nil).Enemies)
	if after != before-1 {
		t.Errorf("%d enemies in snapshot after a kill, want %d", after, before-1)
	}

	for _, k := range w.keys {
		k.Taken = true
	}
	if got := len(w.Snapshot(p.ID, 3, nil).Keys); got != 0 {
		t.Errorf("%d keys in snapshot, want 0 once taken", got)
	}
}

func TestRenderMapPNG(t *testing.T) {
	w := generatedWorld(t, 5)
	png, err := RenderMapPNG(w)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if len(png) < 8 || png[1] != 'P' || png[2] != 'N' || png[3] != 'G' {
		t.Error("output is not a PNG")
	}
}
