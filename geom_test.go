package main

import (
	"math"
	"testing"
)

func TestCheckCollision(t *testing.T) {
	if !CheckCollision(0, 0, 10, 15, 0, 10) {
		t.Error("circles 15 apart with radii 10+10 should overlap")
	}
	if CheckCollision(0, 0, 10, 25, 0, 10) {
		t.Error("circles 25 apart with radii 10+10 should not overlap")
	}
	// Exactly touching counts as a collision.
	if !CheckCollision(0, 0, 10, 20, 0, 10) {
		t.Error("tangent circles should count as colliding")
	}
}

func TestClosestPointOnSegment(t *testing.T) {
	// Perpendicular foot lands inside the segment.
	x, y := closestPointOnSegment(5, 5, 0, 0, 10, 0)
	if x != 5 || y != 0 {
		t.Errorf("got (%v,%v), want (5,0)", x, y)
	}
	// Beyond an endpoint clamps to it.
	x, y = closestPointOnSegment(-5, 3, 0, 0, 10, 0)
	if x != 0 || y != 0 {
		t.Errorf("got (%v,%v), want (0,0)", x, y)
	}
	// Degenerate segment returns its single point.
	x, y = closestPointOnSegment(7, 7, 3, 3, 3, 3)
	if x != 3 || y != 3 {
		t.Errorf("got (%v,%v), want (3,3)", x, y)
	}
}

func TestSegmentCircleIntersect(t *testing.T) {
	if !segmentCircleIntersect(0, 0, 10, 0, 5, 3, 4) {
		t.Error("segment passing 3 under a radius-4 circle should intersect")
	}
	if segmentCircleIntersect(0, 0, 10, 0, 5, 6, 4) {
		t.Error("segment passing 6 under a radius-4 circle should not intersect")
	}
}

func TestRayCircleHit(t *testing.T) {
	// Straight shot along +x into a circle at (100,0) r10: entry at t=90.
	tHit, ok := rayCircleHit(0, 0, 1, 0, 100, 0, 10)
	if !ok || math.Abs(tHit-90) > 1e-9 {
		t.Errorf("got (%v,%v), want (90,true)", tHit, ok)
	}

	// From inside the circle the exit crossing counts.
	tHit, ok = rayCircleHit(100, 0, 1, 0, 100, 0, 10)
	if !ok || math.Abs(tHit-10) > 1e-9 {
		t.Errorf("from inside: got (%v,%v), want (10,true)", tHit, ok)
	}

	// Circle behind the origin.
	if _, ok := rayCircleHit(0, 0, 1, 0, -100, 0, 10); ok {
		t.Error("circle behind the ray should miss")
	}
}

func TestRaySegmentHit(t *testing.T) {
	tHit, ok := raySegmentHit(0, 0, 1, 0, 50, -10, 50, 10)
	if !ok || math.Abs(tHit-50) > 1e-9 {
		t.Errorf("got (%v,%v), want (50,true)", tHit, ok)
	}

	// Parallel ray never crosses.
	if _, ok := raySegmentHit(0, 0, 1, 0, 0, 5, 100, 5); ok {
		t.Error("parallel segment should miss")
	}

	// Crossing point outside the segment span.
	if _, ok := raySegmentHit(0, 0, 1, 0, 50, 5, 50, 10); ok {
		t.Error("segment above the ray should miss")
	}
}

func TestReflect(t *testing.T) {
	// Head-on into a vertical wall flips x.
	vx, vy := reflect(10, 3, -1, 0)
	if vx != -10 || vy != 3 {
		t.Errorf("got (%v,%v), want (-10,3)", vx, vy)
	}
	// Velocity along the surface is unchanged.
	vx, vy = reflect(0, 5, -1, 0)
	if vx != 0 || vy != 5 {
		t.Errorf("got (%v,%v), want (0,5)", vx, vy)
	}
}

// ---------- util ----------

func TestGenerateID(t *testing.T) {
	id := GenerateID(4)
	if len(id) != 8 {
		t.Errorf("4-byte id should be 8 hex chars, got %d", len(id))
	}
	if id == GenerateID(4) {
		t.Error("two ids should not collide")
	}
}

func TestClamp(t *testing.T) {
	if Clamp(5, 0, 10) != 5 {
		t.Error("in-range value should pass through")
	}
	if Clamp(-1, 0, 10) != 0 {
		t.Error("low value should clamp to min")
	}
	if Clamp(11, 0, 10) != 10 {
		t.Error("high value should clamp to max")
	}
}

func TestNormalizeAngle(t *testing.T) {
	if got := NormalizeAngle(3 * math.Pi); math.Abs(got-math.Pi) > 1e-9 {
		t.Errorf("3pi should wrap to pi, got %v", got)
	}
	if got := NormalizeAngle(-3 * math.Pi); math.Abs(got+math.Pi) > 1e-9 {
		t.Errorf("-3pi should wrap to -pi, got %v", got)
	}
	if got := NormalizeAngle(1); got != 1 {
		t.Errorf("in-range angle should pass through, got %v", got)
	}
}

func TestRandDeterminism(t *testing.T) {
	a := NewRand(42)
	b := NewRand(42)
	for i := 0; i < 100; i++ {
		if a.Float() != b.Float() {
			t.Fatal("same seed should produce the same sequence")
		}
	}
}

func TestRandRanges(t *testing.T) {
	r := NewRand(7)
	for i := 0; i < 1000; i++ {
		if f := r.Float(); f < 0 || f >= 1 {
			t.Fatalf("Float out of [0,1): %v", f)
		}
		if v := r.Range(10, 20); v < 10 || v >= 20 {
			t.Fatalf("Range out of [10,20): %v", v)
		}
		if n := r.Intn(5); n < 0 || n >= 5 {
			t.Fatalf("Intn out of [0,5): %v", n)
		}
		if s := r.Sign(); s != 1 && s != -1 {
			t.Fatalf("Sign returned %v", s)
		}
	}
}
