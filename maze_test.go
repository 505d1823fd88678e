package main

import "testing"

func testTuning() *Tuning {
	t := DefaultTuning()
	t.MazeCols = 4
	t.MazeRows = 4
	t.CellSize = 200
	t.Jitter = 20
	t.DoorCount = 2
	t.AsteroidCount = 2
	t.EnemySpawnStride = 8
	return t
}

// generatedWorld builds a world and runs generation with a fixed seed.
func generatedWorld(t *testing.T, seed uint64) *World {
	t.Helper()
	w := NewWorld(testTuning(), seed)
	w.generate()
	return w
}

func TestMazeIsSpanningTree(t *testing.T) {
	for seed := uint64(1); seed <= 5; seed++ {
		w := generatedWorld(t, seed)

		triangles := w.cfg.MazeCols * w.cfg.MazeRows * 2
		if len(w.nodes) != triangles {
			t.Fatalf("seed %d: %d nodes, want %d", seed, len(w.nodes), triangles)
		}

		edges := 0
		for _, nbs := range w.adj {
			edges += len(nbs)
		}
		edges /= 2
		if edges != triangles-1 {
			t.Errorf("seed %d: %d tree edges, want %d", seed, edges, triangles-1)
		}

		// BFS from node 0 must reach everything.
		seen := make([]bool, len(w.nodes))
		seen[0] = true
		queue := []int{0}
		reached := 1
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			for _, nb := range w.adj[cur] {
				if !seen[nb] {
					seen[nb] = true
					reached++
					queue = append(queue, nb)
				}
			}
		}
		if reached != triangles {
			t.Errorf("seed %d: BFS reached %d of %d triangles", seed, reached, triangles)
		}
	}
}

func TestMazeWallAndTreeCounts(t *testing.T) {
	w := generatedWorld(t, 42)
	cols, rows := w.cfg.MazeCols, w.cfg.MazeRows

	// Inner lattice edges: one diagonal per cell plus the shared vertical
	// and horizontal cell borders.
	candidates := cols*rows + (cols-1)*rows + cols*(rows-1)
	treeEdges := len(w.nodes) - 1
	border := 2*cols + 2*rows

	plainWalls := 0
	doorWalls := 0
	for _, ws := range w.walls {
		if ws.Door {
			doorWalls++
		} else {
			plainWalls++
		}
	}

	// Every rejected candidate is exactly one wall; tree edges turn into
	// walls only when picked as doors.
	if want := candidates - treeEdges + border; plainWalls != want {
		t.Errorf("%d plain walls, want %d", plainWalls, want)
	}
	if doorWalls != w.cfg.DoorCount {
		t.Errorf("%d doors, want %d", doorWalls, w.cfg.DoorCount)
	}
}

func TestMazeSeedsEntities(t *testing.T) {
	w := generatedWorld(t, 42)

	if len(w.keys) != w.cfg.DoorCount {
		t.Errorf("%d keys, want one per door (%d)", len(w.keys), w.cfg.DoorCount)
	}
	for _, it := range w.items {
		if !it.Natural {
			t.Error("generation must only place natural items")
		}
	}
	if len(w.items) != w.cfg.DoorCount {
		t.Errorf("%d items, want one per door (%d)", len(w.items), w.cfg.DoorCount)
	}
	if len(w.asteroids) != w.cfg.AsteroidCount {
		t.Errorf("%d asteroids, want %d", len(w.asteroids), w.cfg.AsteroidCount)
	}

	wantEnemies := (len(w.nodes) + w.cfg.EnemySpawnStride - 1) / w.cfg.EnemySpawnStride
	if got := w.ActiveEnemies(); got != wantEnemies {
		t.Errorf("%d initial hostiles, want %d", got, wantEnemies)
	}

	// Every door's color is rolled from the palette and its key exists.
	for _, ws := range w.walls {
		if !ws.Door {
			continue
		}
		if ws.Color >= lockColorCount {
			t.Errorf("door color %d outside the lock palette", ws.Color)
		}
		found := false
		for _, k := range w.keys {
			if k.Color == ws.Color {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("door color %d has no matching key", ws.Color)
		}
	}
}

func TestMazeFillsNavGraph(t *testing.T) {
	w := generatedWorld(t, 3)

	if w.nav.Len() != len(w.nodes) {
		t.Fatalf("nav graph has %d nodes, want %d", w.nav.Len(), len(w.nodes))
	}
	// A spanning tree connects everything, so any two nodes have a path.
	path := w.nav.ShortestPath(0, len(w.nodes)-1)
	if len(path) == 0 {
		t.Fatal("no path across the maze")
	}
	if path[0] != 0 || path[len(path)-1] != len(w.nodes)-1 {
		t.Errorf("path endpoints %d..%d, want 0..%d", path[0], path[len(path)-1], len(w.nodes)-1)
	}

	// Door corridors stay traversable for the path query: every adjacency
	// recorded during carving is a nav edge, doors included.
	for a, nbs := range w.adj {
		for _, b := range nbs {
			if p := w.nav.ShortestPath(a, b); len(p) != 2 {
				t.Fatalf("adjacent nodes %d-%d not directly linked in nav graph", a, b)
			}
		}
	}
}

func TestMazeDeterministicBySeed(t *testing.T) {
	a := generatedWorld(t, 99)
	b := generatedWorld(t, 99)

	if len(a.walls) != len(b.walls) {
		t.Fatalf("wall counts differ: %d vs %d", len(a.walls), len(b.walls))
	}
	for i := range a.walls {
		if a.walls[i].X1 != b.walls[i].X1 || a.walls[i].Y1 != b.walls[i].Y1 {
			t.Fatalf("wall %d differs between identical seeds", i)
		}
	}
}
