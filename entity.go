package main

// EntityKind discriminates the concrete types reachable through spatial-index
// owner references, replacing field-presence checks when resolving queries.
type EntityKind uint8

const (
	KindPlayer EntityKind = iota
	KindEnemy
	KindAsteroid
	KindBomb
	KindWall
)

// Entity is implemented by everything that can hold a spatial-index body.
type Entity interface {
	EntityKind() EntityKind
	Body() BodyID
	setBody(id BodyID)
}

// bodyRef stores an entity's single spatial-index registration. The zero value
// means unregistered; lifecycle helpers keep registration single-owner.
type bodyRef struct {
	body BodyID
}

func (r *bodyRef) Body() BodyID      { return r.body }
func (r *bodyRef) setBody(id BodyID) { r.body = id }
