package main

import "math"

// CheckCollision checks if two circles overlap
func CheckCollision(x1, y1, r1, x2, y2, r2 float64) bool {
	dx := x2 - x1
	dy := y2 - y1
	dist2 := dx*dx + dy*dy
	radSum := r1 + r2
	return dist2 <= radSum*radSum
}

// closestPointOnSegment returns the point on segment (x1,y1)-(x2,y2) nearest to (px,py).
func closestPointOnSegment(px, py, x1, y1, x2, y2 float64) (float64, float64) {
	dx := x2 - x1
	dy := y2 - y1
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return x1, y1
	}
	t := ((px-x1)*dx + (py-y1)*dy) / lenSq
	t = Clamp(t, 0, 1)
	return x1 + t*dx, y1 + t*dy
}

// pointSegmentDistSq returns the squared distance from (px,py) to segment (x1,y1)-(x2,y2).
func pointSegmentDistSq(px, py, x1, y1, x2, y2 float64) float64 {
	cx, cy := closestPointOnSegment(px, py, x1, y1, x2, y2)
	return DistanceSq(px, py, cx, cy)
}

// segmentCircleIntersect checks if a line segment (x1,y1)-(x2,y2) intersects a circle at (cx,cy) with radius r.
func segmentCircleIntersect(x1, y1, x2, y2, cx, cy, r float64) bool {
	return pointSegmentDistSq(cx, cy, x1, y1, x2, y2) <= r*r
}

// rayCircleHit returns the entry parameter t along ray origin+dir*t hitting the
// circle, with dir a unit vector. ok is false when the ray misses or the hit is
// behind the origin.
func rayCircleHit(ox, oy, dx, dy, cx, cy, r float64) (float64, bool) {
	fx := ox - cx
	fy := oy - cy
	b := 2 * (fx*dx + fy*dy)
	c := fx*fx + fy*fy - r*r
	disc := b*b - 4*c
	if disc < 0 {
		return 0, false
	}
	disc = math.Sqrt(disc)
	t := (-b - disc) / 2
	if t < 0 {
		t = (-b + disc) / 2
	}
	if t < 0 {
		return 0, false
	}
	return t, true
}

// raySegmentHit returns the parameter t along ray origin+dir*t crossing segment
// (x1,y1)-(x2,y2), with dir a unit vector. ok is false when they do not cross.
func raySegmentHit(ox, oy, dx, dy, x1, y1, x2, y2 float64) (float64, bool) {
	sx := x2 - x1
	sy := y2 - y1
	denom := dx*sy - dy*sx
	if math.Abs(denom) < 1e-12 {
		return 0, false
	}
	qx := x1 - ox
	qy := y1 - oy
	t := (qx*sy - qy*sx) / denom
	u := (qx*dy - qy*dx) / denom
	if t < 0 || u < 0 || u > 1 {
		return 0, false
	}
	return t, true
}

// reflect mirrors velocity (vx,vy) about the unit normal (nx,ny).
func reflect(vx, vy, nx, ny float64) (float64, float64) {
	dot := vx*nx + vy*ny
	return vx - 2*dot*nx, vy - 2*dot*ny
}
