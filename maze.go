package main

import "math"

// WallSegment is a static barrier between two maze triangles. Door segments
// carry a lock color and disappear for good once a key holder opens them.
type WallSegment struct {
	bodyRef
	X1, Y1, X2, Y2 float64
	Door           bool
	Color          LockColor
	Open           bool
}

func (ws *WallSegment) EntityKind() EntityKind { return KindWall }

// Center returns the segment midpoint.
func (ws *WallSegment) Center() (float64, float64) {
	return (ws.X1 + ws.X2) / 2, (ws.Y1 + ws.Y2) / 2
}

// mazeEdge is a candidate link between two triangle nodes. The segment
// coordinates are the lattice edge separating them.
type mazeEdge struct {
	a, b           int
	x1, y1, x2, y2 float64
}

// unionFind tracks triangle connectivity during maze carving.
type unionFind struct {
	parent []int
}

func newUnionFind(n int) *unionFind {
	u := &unionFind{parent: make([]int, n)}
	for i := range u.parent {
		u.parent[i] = i
	}
	return u
}

func (u *unionFind) find(i int) int {
	for u.parent[i] != i {
		u.parent[i] = u.parent[u.parent[i]]
		i = u.parent[i]
	}
	return i
}

// union merges two components and reports whether they were separate.
func (u *unionFind) union(a, b int) bool {
	ra, rb := u.find(a), u.find(b)
	if ra == rb {
		return false
	}
	u.parent[ra] = rb
	return true
}

// generate lays out the maze and everything seeded from it: walls, locked
// doors with their keys and pickups, drifting asteroids and the first hostile
// wave. Runs once, on the first tick.
func (w *World) generate() {
	cols, rows := w.cfg.MazeCols, w.cfg.MazeRows
	cell := w.cfg.CellSize

	// Jittered lattice. Border vertices stay on the rectangle so the outer
	// walls line up.
	vx := make([][]float64, rows+1)
	vy := make([][]float64, rows+1)
	for r := 0; r <= rows; r++ {
		vx[r] = make([]float64, cols+1)
		vy[r] = make([]float64, cols+1)
		for c := 0; c <= cols; c++ {
			x := float64(c) * cell
			y := float64(r) * cell
			if r > 0 && r < rows && c > 0 && c < cols {
				x += w.rng.Range(-w.cfg.Jitter, w.cfg.Jitter)
				y += w.rng.Range(-w.cfg.Jitter, w.cfg.Jitter)
			}
			vx[r][c] = x
			vy[r][c] = y
		}
	}

	// Each cell splits into two triangles along its minor diagonal. Node
	// ids: 2*cellIndex for the upper-left half, +1 for the lower-right.
	tri := func(c, r, half int) int { return (r*cols+c)*2 + half }
	w.nodes = make([]NavPoint, 0, cols*rows*2)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			w.nodes = append(w.nodes,
				NavPoint{
					X: (vx[r][c] + vx[r][c+1] + vx[r+1][c]) / 3,
					Y: (vy[r][c] + vy[r][c+1] + vy[r+1][c]) / 3,
				},
				NavPoint{
					X: (vx[r][c+1] + vx[r+1][c+1] + vx[r+1][c]) / 3,
					Y: (vy[r][c+1] + vy[r+1][c+1] + vy[r+1][c]) / 3,
				},
			)
		}
	}

	// Every lattice edge shared by two triangles is a candidate link.
	var candidates []mazeEdge
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			// The diagonal between a cell's own halves.
			candidates = append(candidates, mazeEdge{
				a: tri(c, r, 0), b: tri(c, r, 1),
				x1: vx[r][c+1], y1: vy[r][c+1],
				x2: vx[r+1][c], y2: vy[r+1][c],
			})
			// The vertical edge into the right neighbor.
			if c+1 < cols {
				candidates = append(candidates, mazeEdge{
					a: tri(c, r, 1), b: tri(c+1, r, 0),
					x1: vx[r][c+1], y1: vy[r][c+1],
					x2: vx[r+1][c+1], y2: vy[r+1][c+1],
				})
			}
			// The horizontal edge into the lower neighbor.
			if r+1 < rows {
				candidates = append(candidates, mazeEdge{
					a: tri(c, r, 1), b: tri(c, r+1, 0),
					x1: vx[r+1][c], y1: vy[r+1][c],
					x2: vx[r+1][c+1], y2: vy[r+1][c+1],
				})
			}
		}
	}

	for i := len(candidates) - 1; i > 0; i-- {
		j := w.rng.Intn(i + 1)
		candidates[i], candidates[j] = candidates[j], candidates[i]
	}

	// Kruskal over the shuffled edges. Accepted edges become corridors of
	// the spanning tree, rejected ones become permanent walls.
	w.adj = make([][]int, len(w.nodes))
	uf := newUnionFind(len(w.nodes))
	var tree []mazeEdge
	for _, e := range candidates {
		if uf.union(e.a, e.b) {
			tree = append(tree, e)
			w.adj[e.a] = append(w.adj[e.a], e.b)
			w.adj[e.b] = append(w.adj[e.b], e.a)
		} else {
			w.addWall(e.x1, e.y1, e.x2, e.y2)
		}
	}

	// The border is always walled.
	for c := 0; c < cols; c++ {
		w.addWall(vx[0][c], vy[0][c], vx[0][c+1], vy[0][c+1])
		w.addWall(vx[rows][c], vy[rows][c], vx[rows][c+1], vy[rows][c+1])
	}
	for r := 0; r < rows; r++ {
		w.addWall(vx[r][0], vy[r][0], vx[r+1][0], vy[r+1][0])
		w.addWall(vx[r][cols], vy[r][cols], vx[r+1][cols], vy[r+1][cols])
	}

	for i, n := range w.nodes {
		w.nav.AddNode(i, n.X, n.Y)
	}
	for _, e := range tree {
		w.nav.AddEdge(e.a, e.b)
		w.nav.AddEdge(e.b, e.a)
	}

	// Lock some corridors behind doors. The tree is already in shuffled
	// acceptance order, so the first few edges are a random pick. Each
	// door gets a matching key somewhere in the world and a pickup beside
	// one of its endpoints.
	doors := w.cfg.DoorCount
	if doors > len(tree) {
		doors = len(tree)
	}
	for i := 0; i < doors; i++ {
		e := tree[i]
		color := LockColor(w.rng.Intn(int(lockColorCount)))
		ws := w.addWall(e.x1, e.y1, e.x2, e.y2)
		ws.Door = true
		ws.Color = color

		kx, ky := w.randomSpawn()
		w.keys = append(w.keys, &Key{
			ID:    GenerateID(4),
			X:     kx,
			Y:     ky,
			Color: color,
		})

		n := w.nodes[e.a]
		if w.rng.Float() < 0.5 {
			n = w.nodes[e.b]
		}
		w.items = append(w.items, &Item{
			ID:      GenerateID(4),
			X:       n.X,
			Y:       n.Y,
			Type:    rollItemType(w.rng, false),
			Natural: true,
		})
	}

	for i := 0; i < w.cfg.AsteroidCount; i++ {
		ax, ay := w.randomSpawn()
		ang := w.rng.Range(0, 2*math.Pi)
		speed := w.rng.Range(AsteroidMinSpeed, AsteroidMaxSpeed)
		w.spawnAsteroid(ax, ay,
			w.rng.Range(AsteroidMinRadius, AsteroidMaxRadius),
			math.Cos(ang)*speed, math.Sin(ang)*speed)
	}

	stride := w.cfg.EnemySpawnStride
	if stride < 1 {
		stride = 1
	}
	for i := 0; i < len(w.nodes); i += stride {
		w.spawnEnemy(w.nodes[i].X, w.nodes[i].Y, nil)
	}

	w.generated = true

	// Players who connected before the first tick spawned at the origin.
	for _, p := range w.players {
		p.X, p.Y = w.safeSpawn()
		w.idx.UpdatePosition(p.Body(), p.X, p.Y)
	}
}

// addWall registers a permanent wall segment.
func (w *World) addWall(x1, y1, x2, y2 float64) *WallSegment {
	ws := &WallSegment{X1: x1, Y1: y1, X2: x2, Y2: y2}
	w.registerSegment(ws, x1, y1, x2, y2, TagWall)
	w.walls = append(w.walls, ws)
	return ws
}

// openDoor permanently opens a locked door for a key holder. Opened doors
// never close.
func (w *World) openDoor(p *Player, ws *WallSegment) {
	if ws.Open {
		return
	}
	ws.Open = true
	w.unregister(ws)
	p.DoorsOpened++
	p.Score += DoorScore
	cx, cy := ws.Center()
	w.playSound("door_open", cx, cy)
	w.pushEvent("door_open", p.ID, lockColorHex[ws.Color])
}
