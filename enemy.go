package main

import (
	"math"
	"sort"
)

const (
	EnemyRadius   = 13.0
	EnemyAccel    = 540.0 // units/s²
	EnemyMaxSpeed = 240.0 // units/s
	EnemyFriction = 0.93  // velocity multiplier per tick, applied before acceleration

	EnemyNoiseMin   = 2.0 // seconds between random noise events
	EnemyNoiseMax   = 4.5
	EnemyShakeTime  = 0.35
	EnemySpinSpeed  = 2.2  // radians/s baseline
	EnemyWallBuffer = 36.0 // soft-repulsion distance beyond the radius
	EnemyWallForce  = 420.0

	EnemySeparation   = 34.0 // enemy-enemy push-apart threshold
	EnemySeparatePush = 0.5  // fraction of overlap corrected per side

	NodeReachDist    = 26.0 // path cursor advance threshold
	ChasersPerPlayer = 4

	MinionGrace = 0.8 // seconds of owner-collision grace after a summon
)

// Enemy covers hostile roamers and player-summoned minions; minions carry an
// owner and exclude it from targeting. Dead enemies are never reused.
type Enemy struct {
	bodyRef
	ID     string
	X, Y   float64
	VX, VY float64
	Radius float64
	Active bool
	Color  int

	Spin      float64 // visual rotation
	SpinSpeed float64

	Owner  *Player // nil for hostiles
	Target *Player

	Path    []int // cached nav node ids
	PathIdx int
	RepathT float64

	ChaseCD          float64 // evasion hold; chasing is suppressed while positive
	EvadeDX, EvadeDY float64 // strafe direction while evading
	NoiseT           float64
	ShakeT           float64
	GraceT           float64
}

func (e *Enemy) EntityKind() EntityKind { return KindEnemy }

// Hostile reports whether the enemy attacks every player.
func (e *Enemy) Hostile() bool {
	return e.Owner == nil
}

// assignEnemyTargets picks each enemy's nearest eligible player, then trims
// every player's chaser list to the closest few. Enemies left without a
// target hold position this tick.
func (w *World) assignEnemyTargets() {
	type candidate struct {
		e  *Enemy
		d2 float64
	}
	byPlayer := make(map[string][]candidate)
	for _, e := range w.enemies {
		if !e.Active {
			continue
		}
		e.Target = nil
		var best *Player
		bestD2 := math.MaxFloat64
		for _, p := range w.players {
			if e.Owner == p {
				continue
			}
			d2 := DistanceSq(e.X, e.Y, p.X, p.Y)
			if d2 < bestD2 {
				best = p
				bestD2 = d2
			}
		}
		if best != nil {
			byPlayer[best.ID] = append(byPlayer[best.ID], candidate{e: e, d2: bestD2})
		}
	}
	for pid, list := range byPlayer {
		p := w.players[pid]
		if p == nil {
			continue
		}
		sort.Slice(list, func(i, j int) bool { return list[i].d2 < list[j].d2 })
		for i, c := range list {
			if i >= ChasersPerPlayer {
				break
			}
			c.e.Target = p
		}
	}
}

// stepEnemy runs one AI tick: evasion when aimed at, otherwise direct or
// path-based chase, then friction, acceleration, capping and wall avoidance.
func (w *World) stepEnemy(e *Enemy, dt float64) {
	if e.GraceT > 0 {
		e.GraceT -= dt
	}
	if e.ChaseCD > 0 {
		e.ChaseCD -= dt
	}
	e.RepathT -= dt

	e.NoiseT -= dt
	if e.NoiseT <= 0 {
		e.NoiseT = w.rng.Range(EnemyNoiseMin, EnemyNoiseMax)
		e.SpinSpeed = -e.SpinSpeed
		e.ShakeT = EnemyShakeTime
		w.playSound("drone_warble", e.X, e.Y)
	}
	if e.ShakeT > 0 {
		e.ShakeT -= dt
	}
	e.Spin += e.SpinSpeed * dt

	if e.ChaseCD <= 0 {
		if ax, ay, ok := w.detectAimer(e); ok {
			dx := e.X - ax
			dy := e.Y - ay
			d := math.Hypot(dx, dy)
			if d > 0 {
				dx /= d
				dy /= d
			} else {
				dx = 1
			}
			side := w.rng.Sign()
			e.EvadeDX = -dy * side
			e.EvadeDY = dx * side
			e.ChaseCD = w.cfg.EvadeHold
		}
	}

	var sx, sy float64
	switch {
	case e.ChaseCD > 0:
		sx, sy = e.EvadeDX, e.EvadeDY
	case e.Target != nil:
		if w.lineOfSight(e.X, e.Y, e.Target.X, e.Target.Y) {
			d := Distance(e.X, e.Y, e.Target.X, e.Target.Y)
			if d > 0 {
				sx = (e.Target.X - e.X) / d
				sy = (e.Target.Y - e.Y) / d
			}
		} else {
			sx, sy = w.steerAlongPath(e)
		}
	}

	e.VX *= EnemyFriction
	e.VY *= EnemyFriction
	e.VX += sx * EnemyAccel * dt
	e.VY += sy * EnemyAccel * dt
	speed := math.Hypot(e.VX, e.VY)
	if speed > EnemyMaxSpeed {
		k := EnemyMaxSpeed / speed
		e.VX *= k
		e.VY *= k
	}

	e.X += e.VX * dt
	e.Y += e.VY * dt

	w.avoidWalls(e, dt)
}

// detectAimer looks for a near, nearly stationary player whose facing lines up
// with this enemy and who has line of sight to it.
func (w *World) detectAimer(e *Enemy) (float64, float64, bool) {
	rangeSq := w.cfg.AimDetectRange * w.cfg.AimDetectRange
	for _, p := range w.players {
		if DistanceSq(p.X, p.Y, e.X, e.Y) > rangeSq {
			continue
		}
		if p.Speed() > w.cfg.AimSpeedMax {
			continue
		}
		aim := math.Atan2(e.Y-p.Y, e.X-p.X)
		if math.Abs(NormalizeAngle(p.Angle-aim)) > w.cfg.AimAngleTol {
			continue
		}
		if !w.lineOfSight(p.X, p.Y, e.X, e.Y) {
			continue
		}
		return p.X, p.Y, true
	}
	return 0, 0, false
}

// steerAlongPath recomputes the cached path on a timer and steers toward the
// next unvisited node, advancing the cursor when close enough.
func (w *World) steerAlongPath(e *Enemy) (float64, float64) {
	if e.RepathT <= 0 || e.PathIdx >= len(e.Path) {
		e.RepathT = w.cfg.RepathInterval
		from := w.nearestNode(e.X, e.Y)
		to := w.nearestNode(e.Target.X, e.Target.Y)
		e.Path = w.nav.ShortestPath(from, to)
		e.PathIdx = 0
	}
	for e.PathIdx < len(e.Path) {
		nx, ny, ok := w.nav.NodePos(e.Path[e.PathIdx])
		if !ok {
			e.PathIdx++
			continue
		}
		d := Distance(e.X, e.Y, nx, ny)
		if d < NodeReachDist {
			e.PathIdx++
			continue
		}
		return (nx - e.X) / d, (ny - e.Y) / d
	}
	return 0, 0
}

// avoidWalls applies soft repulsion inside a buffer around walls and a hard
// positional correction on penetration.
func (w *World) avoidWalls(e *Enemy, dt float64) {
	for _, id := range w.idx.QueryRadius(e.X, e.Y, e.Radius+EnemyWallBuffer, TagWall) {
		seg, ok := w.idx.Owner(id).(*WallSegment)
		if !ok {
			continue
		}
		cx, cy := closestPointOnSegment(e.X, e.Y, seg.X1, seg.Y1, seg.X2, seg.Y2)
		d := Distance(e.X, e.Y, cx, cy)
		if d == 0 || d >= e.Radius+EnemyWallBuffer {
			continue
		}
		nx := (e.X - cx) / d
		ny := (e.Y - cy) / d
		if d < e.Radius {
			e.X = cx + nx*e.Radius
			e.Y = cy + ny*e.Radius
			along := e.VX*nx + e.VY*ny
			if along < 0 {
				e.VX -= along * nx
				e.VY -= along * ny
			}
		} else {
			f := (1 - (d-e.Radius)/EnemyWallBuffer) * EnemyWallForce
			e.VX += nx * f * dt
			e.VY += ny * f * dt
		}
	}
}

// separateEnemies applies a pairwise soft push when two live enemies crowd
// each other. Quadratic over the enemy count, which stays small.
func (w *World) separateEnemies() {
	for i := 0; i < len(w.enemies); i++ {
		a := w.enemies[i]
		if !a.Active {
			continue
		}
		for j := i + 1; j < len(w.enemies); j++ {
			b := w.enemies[j]
			if !b.Active {
				continue
			}
			dx := b.X - a.X
			dy := b.Y - a.Y
			d := math.Hypot(dx, dy)
			if d >= EnemySeparation || d == 0 {
				continue
			}
			push := (EnemySeparation - d) * EnemySeparatePush
			nx := dx / d
			ny := dy / d
			a.X -= nx * push
			a.Y -= ny * push
			b.X += nx * push
			b.Y += ny * push
		}
	}
}
