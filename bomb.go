package main

const (
	BombRadius       = 9.0
	BombFuse         = 2.5 // seconds
	BombSplash       = 130.0
	BombSplashDamage = 45
	BombBounceDamp   = 0.6 // velocity kept after a wall bounce
	BombBeepSlow     = 0.5
	BombBeepFast     = 0.15
	BombLowFuse      = 1.0 // remaining fuse that switches to the fast beep
)

// Bomb is a thrown explosive that inherits the caster's velocity and bounces
// off walls until its fuse runs out.
type Bomb struct {
	bodyRef
	ID     string
	X, Y   float64
	VX, VY float64
	Radius float64
	Fuse   float64
	Owner  *Player
	Color  int
	BeepT  float64
}

func (b *Bomb) EntityKind() EntityKind { return KindBomb }

// stepBomb advances the beep cadence, motion with wall bounce and the fuse.
// It reports true when the bomb exploded and must be dropped.
func (w *World) stepBomb(b *Bomb, dt float64) bool {
	b.BeepT -= dt
	if b.BeepT <= 0 {
		if b.Fuse < BombLowFuse {
			b.BeepT = BombBeepFast
		} else {
			b.BeepT = BombBeepSlow
		}
		w.playSound("bomb_beep", b.X, b.Y)
	}

	b.X += b.VX * dt
	b.Y += b.VY * dt
	w.bounceBombOffWalls(b)
	w.idx.UpdatePosition(b.Body(), b.X, b.Y)

	b.Fuse -= dt
	if b.Fuse <= 0 {
		w.explodeBomb(b)
		return true
	}
	return false
}

func (w *World) bounceBombOffWalls(b *Bomb) {
	for _, id := range w.idx.QueryRadius(b.X, b.Y, b.Radius, TagWall) {
		seg, ok := w.idx.Owner(id).(*WallSegment)
		if !ok {
			continue
		}
		cx, cy := closestPointOnSegment(b.X, b.Y, seg.X1, seg.Y1, seg.X2, seg.Y2)
		d := Distance(b.X, b.Y, cx, cy)
		if d == 0 || d >= b.Radius {
			continue
		}
		nx := (b.X - cx) / d
		ny := (b.Y - cy) / d
		b.X = cx + nx*b.Radius
		b.Y = cy + ny*b.Radius
		if b.VX*nx+b.VY*ny < 0 {
			rvx, rvy := reflect(b.VX, b.VY, nx, ny)
			b.VX = rvx * BombBounceDamp
			b.VY = rvy * BombBounceDamp
		}
	}
}

// explodeBomb deals splash damage to every player and kills every enemy
// within the blast radius, then releases the bomb's body.
func (w *World) explodeBomb(b *Bomb) {
	w.playSound("bomb_explode", b.X, b.Y)
	w.emitExplosion(b.X, b.Y, 0, 0, b.Color)
	for _, id := range w.idx.QueryRadius(b.X, b.Y, BombSplash, TagAny) {
		switch t := w.idx.Owner(id).(type) {
		case *Player:
			w.damagePlayer(t, BombSplashDamage, b.Owner)
		case *Enemy:
			w.killEnemy(t, b.Owner)
		}
	}
	w.unregister(b)
}
