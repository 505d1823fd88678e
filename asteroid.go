package main

const (
	AsteroidMinRadius   = 16.0
	AsteroidMaxRadius   = 28.0
	AsteroidMinSpeed    = 30.0
	AsteroidMaxSpeed    = 85.0
	AsteroidRestitution = 0.85
	AsteroidWrapPad     = 40.0 // distance past the border before wrapping
)

// Asteroid drifts under spatial-index integration; the world mirrors its
// position back into the entity every tick.
type Asteroid struct {
	bodyRef
	ID     string
	X, Y   float64
	Radius float64
}

func (a *Asteroid) EntityKind() EntityKind { return KindAsteroid }

// spawnAsteroid registers a drifting rock as a dynamic body.
func (w *World) spawnAsteroid(x, y, radius, vx, vy float64) *Asteroid {
	a := &Asteroid{ID: GenerateID(4), X: x, Y: y, Radius: radius}
	id := w.idx.InsertCircle(x, y, radius, TagAsteroid, a)
	a.setBody(id)
	w.idx.SetDynamic(id, radius*radius/100, AsteroidRestitution, 0)
	w.idx.SetVelocity(id, vx, vy)
	w.asteroids = append(w.asteroids, a)
	return a
}

// mirrorAsteroids copies integrator positions into the entities.
func (w *World) mirrorAsteroids() {
	for _, a := range w.asteroids {
		if x, y, ok := w.idx.Position(a.Body()); ok {
			a.X = x
			a.Y = y
		}
	}
}

// wrapAsteroids teleports any rock the integrator pushed past the world
// border to the opposite side.
func (w *World) wrapAsteroids() {
	spanX := w.width + 2*AsteroidWrapPad
	spanY := w.height + 2*AsteroidWrapPad
	for _, a := range w.asteroids {
		wrapped := false
		if a.X < -AsteroidWrapPad {
			a.X += spanX
			wrapped = true
		} else if a.X > w.width+AsteroidWrapPad {
			a.X -= spanX
			wrapped = true
		}
		if a.Y < -AsteroidWrapPad {
			a.Y += spanY
			wrapped = true
		} else if a.Y > w.height+AsteroidWrapPad {
			a.Y -= spanY
			wrapped = true
		}
		if wrapped {
			w.idx.UpdatePosition(a.Body(), a.X, a.Y)
		}
	}
}
