package main

import "math"

// AbilitySlot selects the player's active ability.
type AbilitySlot uint8

const (
	SlotLaser AbilitySlot = iota
	SlotDash
	SlotBomb
	SlotMinion
)

const (
	LaserCooldown  = 0.8
	DashCooldown   = 1.6
	BombCooldown   = 2.4
	MinionCooldown = 4.0

	LaserDamage = 30
	LaserRange  = 900.0
	LaserRecoil = 180.0
	LaserMuzzle = 2.0 // beam start distance beyond the hull

	DashDuration = 0.35
	DashImpulse  = 620.0
)

// cooldownFor returns the recovery ceiling of a slot.
func cooldownFor(slot AbilitySlot) float64 {
	switch slot {
	case SlotDash:
		return DashCooldown
	case SlotBomb:
		return BombCooldown
	case SlotMinion:
		return MinionCooldown
	default:
		return LaserCooldown
	}
}

// triggerAbility fires the active slot once its timer reached the cooldown
// ceiling; firing resets the timer to zero.
func (w *World) triggerAbility(p *Player) {
	if p.Ready < cooldownFor(p.Slot) {
		return
	}
	p.Ready = 0
	switch p.Slot {
	case SlotLaser:
		w.fireLaser(p)
	case SlotDash:
		w.startDash(p)
	case SlotBomb:
		w.dropBomb(p)
	case SlotMinion:
		w.summonMinion(p)
	}
}

// fireLaser applies recoil and casts a hit-scan ray along the facing angle.
// A hit player takes fixed damage, a hit enemy dies outright, and a beam
// visual is always recorded up to the hit point or maximum range.
func (w *World) fireLaser(p *Player) {
	w.playSound("laser", p.X, p.Y)
	p.VX -= math.Cos(p.Angle) * LaserRecoil
	p.VY -= math.Sin(p.Angle) * LaserRecoil

	mx := p.X + math.Cos(p.Angle)*(p.Radius+LaserMuzzle)
	my := p.Y + math.Sin(p.Angle)*(p.Radius+LaserMuzzle)
	ex := mx + math.Cos(p.Angle)*LaserRange
	ey := my + math.Sin(p.Angle)*LaserRange
	if hit, ok := w.idx.CastRay(mx, my, p.Angle*180/math.Pi, LaserRange, TagAny); ok {
		ex, ey = hit.X, hit.Y
		switch t := w.idx.Owner(hit.ID).(type) {
		case *Player:
			if t != p {
				w.damagePlayer(t, LaserDamage, p)
			}
		case *Enemy:
			w.killEnemy(t, p)
		}
	}
	w.emitShot(mx, my, ex, ey)
}

// startDash opens the invulnerability window and kicks the player forward.
func (w *World) startDash(p *Player) {
	p.Dashing = true
	p.DashT = DashDuration
	p.VX += math.Cos(p.Angle) * DashImpulse
	p.VY += math.Sin(p.Angle) * DashImpulse
	w.emitDashTrail(p)
	w.playSound("dash", p.X, p.Y)
}

// dropBomb releases a fused bomb carrying the caster's current velocity.
func (w *World) dropBomb(p *Player) {
	b := &Bomb{
		ID:     GenerateID(4),
		X:      p.X,
		Y:      p.Y,
		VX:     p.VX,
		VY:     p.VY,
		Radius: BombRadius,
		Fuse:   BombFuse,
		Owner:  p,
		Color:  p.Color,
		BeepT:  BombBeepSlow,
	}
	w.registerCircle(b, b.X, b.Y, b.Radius, TagBomb)
	w.bombs = append(w.bombs, b)
	w.playSound("bomb_drop", p.X, p.Y)
}

// summonMinion spawns an owned enemy at the caster's position. The grace
// window keeps it from immediately colliding with its owner.
func (w *World) summonMinion(p *Player) {
	m := w.spawnEnemy(p.X, p.Y, p)
	m.GraceT = MinionGrace
	w.playSound("summon", p.X, p.Y)
}
